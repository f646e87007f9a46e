// Package scheduler drives the sample, rotate and publish cycle on a fixed
// period until its context is cancelled.
package scheduler

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rileyhilliard/sysrpc/internal/errors"
	"github.com/rileyhilliard/sysrpc/internal/logger"
	"github.com/rileyhilliard/sysrpc/internal/presence"
	"github.com/rileyhilliard/sysrpc/internal/sampler"
)

// Sampler produces one Sample per call.
type Sampler interface {
	Sample(ctx context.Context) sampler.Sample
}

// Rotator renders the next page for a Sample.
type Rotator interface {
	Next(s sampler.Sample) string
}

// Publisher shows a status line somewhere.
type Publisher interface {
	Publish(ctx context.Context, s presence.Status) error
}

// State is the lifecycle of a Loop.
type State int32

const (
	Idle State = iota
	Running
	Stopped
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Stopped:
		return "stopped"
	}
	return fmt.Sprintf("State(%d)", int32(s))
}

// Config holds the loop parameters.
type Config struct {
	Interval time.Duration
}

// Stats counts what happened so far.
type Stats struct {
	Ticks         int64
	Skipped       int64
	PublishErrors int64
	Panics        int64
}

// Options configures a Loop.
type Options struct {
	Clock  func() time.Time
	Wait   func(ctx context.Context, d time.Duration) error
	Logger logger.Logger
}

func defaultOptions() *Options {
	return &Options{
		Clock:  time.Now,
		Wait:   sleep,
		Logger: logger.New("scheduler"),
	}
}

type Option func(*Options)

func WithClock(now func() time.Time) Option {
	return func(opts *Options) {
		opts.Clock = now
	}
}

// WithWait replaces the function used to sleep until the next tick. It must
// return ctx.Err() when ctx is cancelled.
func WithWait(wait func(ctx context.Context, d time.Duration) error) Option {
	return func(opts *Options) {
		opts.Wait = wait
	}
}

func WithLogger(l logger.Logger) Option {
	return func(opts *Options) {
		opts.Logger = l
	}
}

// Loop runs one tick per interval. Ticks never overlap; when a tick runs past
// one or more scheduled instants those instants are dropped.
type Loop struct {
	cfg  Config
	opts *Options

	sampler   Sampler
	rotator   Rotator
	publisher Publisher

	state atomic.Int32

	ticks         atomic.Int64
	skipped       atomic.Int64
	publishErrors atomic.Int64
	panics        atomic.Int64
}

// New creates an idle Loop.
func New(cfg Config, s Sampler, r Rotator, p Publisher, opts ...Option) (*Loop, error) {
	if cfg.Interval <= 0 {
		return nil, errors.New(errors.ErrConfig,
			fmt.Sprintf("Update interval must be positive, got %s", cfg.Interval),
			"Pass a value greater than zero to --rpc-update-interval")
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	return &Loop{
		cfg:       cfg,
		opts:      o,
		sampler:   s,
		rotator:   r,
		publisher: p,
	}, nil
}

// State returns the current lifecycle state.
func (l *Loop) State() State {
	return State(l.state.Load())
}

// Stats returns a snapshot of the counters.
func (l *Loop) Stats() Stats {
	return Stats{
		Ticks:         l.ticks.Load(),
		Skipped:       l.skipped.Load(),
		PublishErrors: l.publishErrors.Load(),
		Panics:        l.panics.Load(),
	}
}

// Run ticks immediately and then at start+k*interval until ctx is cancelled.
// Cancellation is a normal stop and returns nil. A Loop runs at most once.
func (l *Loop) Run(ctx context.Context) error {
	if !l.state.CompareAndSwap(int32(Idle), int32(Running)) {
		return errors.New(errors.ErrInternal,
			fmt.Sprintf("Scheduler loop cannot start from state %s", l.State()),
			"")
	}
	defer l.state.Store(int32(Stopped))

	start := l.opts.Clock()
	l.opts.Logger.Debug("Scheduler started with interval %s", l.cfg.Interval)

	for k := int64(0); ; {
		next := start.Add(time.Duration(k) * l.cfg.Interval)
		if wait := next.Sub(l.opts.Clock()); wait > 0 {
			if err := l.opts.Wait(ctx, wait); err != nil {
				break
			}
		}
		if ctx.Err() != nil {
			break
		}

		l.tick(ctx)

		k = l.nextIndex(start, k)
	}

	l.opts.Logger.Debug("Scheduler stopped after %d ticks", l.ticks.Load())
	return nil
}

// nextIndex returns the first schedule index after k whose instant has not
// yet passed.
func (l *Loop) nextIndex(start time.Time, k int64) int64 {
	next := k + 1
	elapsed := l.opts.Clock().Sub(start)
	due := int64(elapsed / l.cfg.Interval)
	if elapsed%l.cfg.Interval != 0 {
		due++
	}
	if due > next {
		l.skipped.Add(due - next)
		l.opts.Logger.Debug("Tick overran, skipping %d scheduled update(s)", due-next)
		next = due
	}
	return next
}

func (l *Loop) tick(ctx context.Context) {
	l.ticks.Add(1)

	defer func() {
		if r := recover(); r != nil {
			l.panics.Add(1)
			err := errors.New(errors.ErrInternal, fmt.Sprintf("update tick panicked: %v", r), "")
			l.opts.Logger.Error("%s", err.Short())
		}
	}()

	s := l.sampler.Sample(ctx)
	text := l.rotator.Next(s)

	if err := l.publisher.Publish(ctx, presence.Status{Text: text}); err != nil {
		if ctx.Err() != nil {
			return
		}
		l.publishErrors.Add(1)
		l.opts.Logger.Warn("Presence update failed: %s", errors.Short(err))
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
