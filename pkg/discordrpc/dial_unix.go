//go:build !windows

package discordrpc

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"

	"emperror.dev/errors"
)

// socketDirs are searched in order, each also under the flatpak and snap
// sub-directories Discord uses when sandboxed.
func socketDirs() []string {
	var bases []string
	for _, key := range []string{"XDG_RUNTIME_DIR", "TMPDIR", "TMP", "TEMP"} {
		if v := os.Getenv(key); v != "" {
			bases = append(bases, v)
		}
	}
	bases = append(bases, "/tmp")

	var dirs []string
	for _, base := range bases {
		dirs = append(dirs,
			base,
			filepath.Join(base, "app", "com.discordapp.Discord"),
			filepath.Join(base, "snap.discord"),
		)
	}
	return dirs
}

// Endpoints lists candidate IPC socket paths in lookup order.
func Endpoints() []string {
	var paths []string
	for _, dir := range socketDirs() {
		for i := 0; i < maxPipes; i++ {
			paths = append(paths, filepath.Join(dir, fmt.Sprintf("discord-ipc-%d", i)))
		}
	}
	return paths
}

func dialIPC(ctx context.Context) (io.ReadWriteCloser, error) {
	var d net.Dialer
	var lastErr error
	for _, path := range Endpoints() {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		conn, err := d.DialContext(ctx, "unix", path)
		if err == nil {
			return conn, nil
		}
		lastErr = err
	}

	if lastErr != nil {
		return nil, errors.Append(ErrNotRunning, lastErr)
	}
	return nil, ErrNotRunning
}
