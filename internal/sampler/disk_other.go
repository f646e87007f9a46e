//go:build !linux

package sampler

import "context"

// physicalDisk is always true off Linux: gopsutil reports whole disks or
// volumes there, never partitions of an already counted disk.
func physicalDisk(context.Context, string) bool {
	return true
}
