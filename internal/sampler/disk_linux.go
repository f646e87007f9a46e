//go:build linux

package sampler

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/shirou/gopsutil/v4/common"
)

// physicalDisk reports whether the diskstats device name is a whole disk
// that is not stacked on other block devices. Partitions and dm or md
// layers repeat I/O already counted on the disks beneath them. Without a
// readable sysfs every device counts.
func physicalDisk(ctx context.Context, name string) bool {
	block := sysPath(ctx, "block")
	if _, err := os.Stat(block); err != nil {
		return true
	}

	dev := filepath.Join(block, strings.ReplaceAll(name, "/", "!"))
	if _, err := os.Stat(dev); err != nil {
		return false
	}
	slaves, err := os.ReadDir(filepath.Join(dev, "slaves"))
	return err != nil || len(slaves) == 0
}

// sysPath resolves elem under HOST_SYS the way gopsutil does: a context
// EnvMap wins over the environment, which wins over /sys.
func sysPath(ctx context.Context, elem ...string) string {
	var root string
	if env, ok := ctx.Value(common.EnvKey).(common.EnvMap); ok {
		root = env[common.HostSysEnvKey]
	}
	if root == "" {
		root = os.Getenv(string(common.HostSysEnvKey))
	}
	if root == "" {
		root = "/sys"
	}
	return filepath.Join(append([]string{root}, elem...)...)
}
