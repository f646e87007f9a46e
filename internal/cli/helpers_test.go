package cli

import (
	"context"
	"time"

	"github.com/rileyhilliard/sysrpc/internal/sampler"
)

const gib = 1 << 30

// staticSource reports the same readings on every call.
type staticSource struct{}

func (staticSource) CPUPercent(context.Context, time.Duration) (float64, error) { return 12.3, nil }

func (staticSource) Memory(context.Context) (uint64, uint64, error) { return 2 * gib, 8 * gib, nil }

func (staticSource) Swap(context.Context) (uint64, uint64, error) { return 0, 0, nil }

func (staticSource) DiskCounters(context.Context) (sampler.DiskCounters, error) {
	return sampler.DiskCounters{ReadBytes: 1000, WriteBytes: 2000}, nil
}

func (staticSource) NetCounters(context.Context) (sampler.NetCounters, error) {
	return sampler.NetCounters{BytesSent: 10, BytesRecv: 20}, nil
}

func (staticSource) HostFacts(context.Context) (sampler.HostFacts, error) {
	return sampler.HostFacts{
		Cores:   8,
		FreqMHz: 3400,
		Info: sampler.HostInfo{
			OS:              "linux",
			Platform:        "ubuntu",
			PlatformVersion: "24.04",
			Kernel:          "6.8.0",
			Hostname:        "box",
		},
	}, nil
}
