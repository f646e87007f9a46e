package cli

import (
	"context"
	"io"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/rileyhilliard/sysrpc/internal/config"
	"github.com/rileyhilliard/sysrpc/internal/errors"
	"github.com/rileyhilliard/sysrpc/internal/logger"
	"github.com/rileyhilliard/sysrpc/internal/pages"
	"github.com/rileyhilliard/sysrpc/internal/presence"
	"github.com/rileyhilliard/sysrpc/internal/sampler"
	"github.com/rileyhilliard/sysrpc/internal/scheduler"
)

// runDeps are the outside-world collaborators of runPresence.
type runDeps struct {
	source sampler.Source
	dialer presence.Dialer
	out    io.Writer
	goos   string
	log    logger.Logger

	// schedulerOpts lets tests drive the loop with a fake clock.
	schedulerOpts []scheduler.Option
}

func defaultRunDeps(out io.Writer) runDeps {
	return runDeps{
		source: sampler.NewPsutilSource(),
		dialer: presence.DialDiscord,
		out:    out,
		goos:   runtime.GOOS,
		log:    logger.New("sysrpc"),
	}
}

// runPresence runs the update loop until ctx is cancelled, then closes the
// sink. Connection problems are logged and retried, never fatal.
func runPresence(ctx context.Context, cfg *config.Config, d runDeps) error {
	osName := pages.OSName(d.goos)
	kinds := pages.Set(pages.SetOptions{ShowOS: cfg.ShowOS, ShowSwap: cfg.ShowSwap})

	rotator, err := pages.NewRotator(kinds...)
	if err != nil {
		return err
	}

	smp := sampler.New(d.source, sampler.WithCPUWindow(cfg.SampleWindow()))
	sink := newSink(ctx, cfg, d, osName)

	loop, err := scheduler.New(scheduler.Config{Interval: cfg.Interval()}, smp, rotator, sink, d.schedulerOpts...)
	if err != nil {
		_ = sink.Close()
		return err
	}

	d.log.Info("System Monitor starting on %s (%s/%s)", osName, d.goos, runtime.GOARCH)
	d.log.Info("Updating every %s, pages: %s", cfg.Interval(), pageNames(kinds))

	runErr := loop.Run(ctx)

	if err := sink.Close(); err != nil {
		d.log.Warn("Error closing presence: %s", errors.Short(err))
	}
	d.log.Info("Stopped after %d updates", loop.Stats().Ticks)
	return runErr
}

// newSink picks the console or Discord publisher. The first Discord connect
// happens up front so problems are reported at startup; failures are not
// fatal because every tick retries.
func newSink(ctx context.Context, cfg *config.Config, d runDeps, osName string) presence.Sink {
	if cfg.ConsoleMode() {
		if cfg.ClientID == "" {
			d.log.Info("No Discord client id set, printing status to the console")
		}
		return presence.NewConsole(d.out, cfg.NoColor)
	}

	pub := presence.NewPublisher(cfg.ClientID,
		presence.WithDialer(d.dialer),
		presence.WithConnectTimeout(cfg.ConnectTimeout),
		presence.WithPlatform(d.goos, osName),
		presence.WithProcess(os.Getpid(), time.Now()),
	)
	if err := pub.Connect(ctx); err != nil {
		d.log.Debug("Initial connect failed, will retry: %s", errors.Short(err))
	}
	return pub
}

func pageNames(kinds []pages.Kind) string {
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = k.String()
	}
	return strings.Join(names, ", ")
}
