package sampler

import (
	"context"
	"runtime"
	"time"

	"emperror.dev/errors"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/mem"
	psnet "github.com/shirou/gopsutil/v4/net"
)

// Source reads raw OS counters. Implementations may return partial data on
// platforms that lack a counter; every method fails independently.
type Source interface {
	// CPUPercent returns overall CPU usage averaged over window. It blocks
	// for about window.
	CPUPercent(ctx context.Context, window time.Duration) (float64, error)
	Memory(ctx context.Context) (used, total uint64, err error)
	Swap(ctx context.Context) (used, total uint64, err error)
	DiskCounters(ctx context.Context) (DiskCounters, error)
	NetCounters(ctx context.Context) (NetCounters, error)
	HostFacts(ctx context.Context) (HostFacts, error)
}

// psutilSource implements Source with gopsutil.
type psutilSource struct{}

// NewPsutilSource returns a Source backed by gopsutil.
func NewPsutilSource() Source {
	return psutilSource{}
}

func (psutilSource) CPUPercent(ctx context.Context, window time.Duration) (float64, error) {
	pcts, err := cpu.PercentWithContext(ctx, window, false)
	if err != nil {
		return 0, err
	}
	if len(pcts) == 0 {
		return 0, errors.New("no cpu percentage reported")
	}
	return pcts[0], nil
}

func (psutilSource) Memory(ctx context.Context) (uint64, uint64, error) {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return 0, 0, err
	}
	return vm.Used, vm.Total, nil
}

func (psutilSource) Swap(ctx context.Context) (uint64, uint64, error) {
	sm, err := mem.SwapMemoryWithContext(ctx)
	if err != nil {
		return 0, 0, err
	}
	return sm.Used, sm.Total, nil
}

func (psutilSource) DiskCounters(ctx context.Context) (DiskCounters, error) {
	devices, err := disk.IOCountersWithContext(ctx)
	if err != nil {
		return DiskCounters{}, err
	}
	if len(devices) == 0 {
		return DiskCounters{}, errors.New("no block devices reported")
	}

	var c DiskCounters
	for name, d := range devices {
		if !physicalDisk(ctx, name) {
			continue
		}
		c.ReadBytes += d.ReadBytes
		c.WriteBytes += d.WriteBytes
	}
	return c, nil
}

func (psutilSource) NetCounters(ctx context.Context) (NetCounters, error) {
	// pernic=false returns a single aggregate entry named "all".
	stats, err := psnet.IOCountersWithContext(ctx, false)
	if err != nil {
		return NetCounters{}, err
	}
	if len(stats) == 0 {
		return NetCounters{}, errors.New("no network interfaces reported")
	}
	return NetCounters{
		BytesSent: stats[0].BytesSent,
		BytesRecv: stats[0].BytesRecv,
	}, nil
}

func (psutilSource) HostFacts(ctx context.Context) (HostFacts, error) {
	facts := HostFacts{
		Info: HostInfo{OS: runtime.GOOS},
	}
	var errs []error

	if n, err := cpu.CountsWithContext(ctx, true); err == nil {
		facts.Cores = n
	} else {
		errs = append(errs, errors.WrapIf(err, "cpu counts"))
	}

	// CPU frequency is not reported on every platform.
	if infos, err := cpu.InfoWithContext(ctx); err == nil && len(infos) > 0 {
		facts.FreqMHz = infos[0].Mhz
	}

	if hi, err := host.InfoWithContext(ctx); err == nil {
		facts.Info = HostInfo{
			OS:              hi.OS,
			Platform:        hi.Platform,
			PlatformVersion: hi.PlatformVersion,
			Kernel:          hi.KernelVersion,
			Hostname:        hi.Hostname,
		}
	} else {
		errs = append(errs, errors.WrapIf(err, "host info"))
	}

	return facts, errors.Combine(errs...)
}
