// Package sampler reads host CPU, memory, disk and network counters and turns
// them into Samples. Disk and network throughput are derived from the change
// in cumulative counters between consecutive calls, so a Sampler must be
// driven by a single caller.
package sampler

import (
	"context"
	"math"
	"time"

	"github.com/jellydator/ttlcache/v3"

	"github.com/rileyhilliard/sysrpc/internal/errors"
	"github.com/rileyhilliard/sysrpc/internal/logger"
)

const (
	DefaultCPUWindow = time.Second
	DefaultFactsTTL  = 10 * time.Minute

	factsKey = "host"
)

// Options configures a Sampler.
type Options struct {
	CPUWindow time.Duration
	FactsTTL  time.Duration
	Clock     func() time.Time
	Logger    logger.Logger
}

func defaultOptions() *Options {
	return &Options{
		CPUWindow: DefaultCPUWindow,
		FactsTTL:  DefaultFactsTTL,
		Clock:     time.Now,
		Logger:    logger.New("sampler"),
	}
}

type Option func(*Options)

// WithCPUWindow sets how long CPU usage is averaged over on each sample.
func WithCPUWindow(d time.Duration) Option {
	return func(opts *Options) {
		opts.CPUWindow = d
	}
}

// WithFactsTTL sets how long host facts are cached.
func WithFactsTTL(d time.Duration) Option {
	return func(opts *Options) {
		opts.FactsTTL = d
	}
}

func WithClock(now func() time.Time) Option {
	return func(opts *Options) {
		opts.Clock = now
	}
}

func WithLogger(l logger.Logger) Option {
	return func(opts *Options) {
		opts.Logger = l
	}
}

// Sampler produces Samples from a Source. It owns the counter baselines used
// for rate computation and is not safe for concurrent use.
type Sampler struct {
	src  Source
	opts *Options

	disk baseline
	net  baseline
	last time.Time

	facts *ttlcache.Cache[string, HostFacts]

	// failing holds the metrics whose last read failed, so a persistent
	// failure is reported once at warn level.
	failing Metric
}

// New creates a Sampler reading from src.
func New(src Source, opts ...Option) *Sampler {
	options := defaultOptions()
	for _, opt := range opts {
		opt(options)
	}

	return &Sampler{
		src:  src,
		opts: options,
		facts: ttlcache.New[string, HostFacts](
			ttlcache.WithTTL[string, HostFacts](options.FactsTTL),
			ttlcache.WithDisableTouchOnHit[string, HostFacts](),
		),
	}
}

// Sample reads every sub-metric and returns a fresh Sample. A sub-metric that
// cannot be read is zeroed and flagged in Sample.Unavailable; Sample never
// fails as a whole. The CPU reading blocks for the configured window.
func (s *Sampler) Sample(ctx context.Context) Sample {
	var out Sample

	if pct, err := s.src.CPUPercent(ctx, s.opts.CPUWindow); err != nil {
		s.unavailable(&out, MetricCPU, err)
	} else {
		out.CPUPercent = clampPercent(pct)
		s.recovered(MetricCPU)
	}

	out.Timestamp = s.now()

	if used, total, err := s.src.Memory(ctx); err != nil {
		s.unavailable(&out, MetricMemory, err)
	} else {
		out.MemUsed, out.MemTotal = used, total
		s.recovered(MetricMemory)
	}

	if used, total, err := s.src.Swap(ctx); err != nil {
		s.unavailable(&out, MetricSwap, err)
	} else {
		out.SwapUsed, out.SwapTotal = used, total
		s.recovered(MetricSwap)
	}

	// A failed counter read leaves its baseline alone; the next successful
	// read then averages over the longer window.
	if c, err := s.src.DiskCounters(ctx); err != nil {
		s.unavailable(&out, MetricDisk, err)
	} else {
		out.DiskReadRate, out.DiskWriteRate = s.disk.advance(c.ReadBytes, c.WriteBytes, out.Timestamp)
		s.recovered(MetricDisk)
	}

	if c, err := s.src.NetCounters(ctx); err != nil {
		s.unavailable(&out, MetricNetwork, err)
	} else {
		out.NetSentRate, out.NetRecvRate = s.net.advance(c.BytesSent, c.BytesRecv, out.Timestamp)
		s.recovered(MetricNetwork)
	}

	facts, err := s.hostFacts(ctx)
	if err != nil {
		s.unavailable(&out, MetricHost, err)
	} else {
		s.recovered(MetricHost)
	}
	out.CPUCores = facts.Cores
	out.CPUFreqMHz = facts.FreqMHz
	out.Host = facts.Info

	return out
}

// now returns the current time, never earlier than the previous sample.
func (s *Sampler) now() time.Time {
	t := s.opts.Clock()
	if t.Before(s.last) {
		t = s.last
	}
	s.last = t
	return t
}

// hostFacts returns cached host facts, refreshing them once the TTL expires.
// Partial facts are returned alongside an error but are not cached.
func (s *Sampler) hostFacts(ctx context.Context) (HostFacts, error) {
	if item := s.facts.Get(factsKey); item != nil {
		return item.Value(), nil
	}

	facts, err := s.src.HostFacts(ctx)
	if err != nil {
		return facts, err
	}
	s.facts.Set(factsKey, facts, ttlcache.DefaultTTL)
	return facts, nil
}

func (s *Sampler) unavailable(out *Sample, m Metric, cause error) {
	out.Unavailable |= m

	err := errors.WrapWithCode(cause, errors.ErrMetric, m.String()+" metrics unavailable", "")
	if s.failing&m == 0 {
		s.opts.Logger.Warn("%s", err.Short())
	} else {
		s.opts.Logger.Debug("%s", err.Short())
	}
	s.failing |= m
}

func (s *Sampler) recovered(m Metric) {
	if s.failing&m != 0 {
		s.opts.Logger.Info("%s metrics available again", m)
		s.failing &^= m
	}
}

func clampPercent(p float64) float64 {
	switch {
	case math.IsNaN(p) || p < 0:
		return 0
	case p > 100:
		return 100
	}
	return p
}
