package cli

import (
	"context"
	"io"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/rileyhilliard/sysrpc/internal/config"
	"github.com/rileyhilliard/sysrpc/internal/errors"
	"github.com/rileyhilliard/sysrpc/internal/pages"
	"github.com/rileyhilliard/sysrpc/internal/sampler"
)

// allPages is every page kind, in display order.
var allPages = pages.Set(pages.SetOptions{ShowOS: true, ShowSwap: true})

// sampleReport is what `sysrpc sample` prints.
type sampleReport struct {
	Sample      sampler.Sample `json:"sample" yaml:"sample"`
	Unavailable string         `json:"unavailable" yaml:"unavailable"`
	Pages       []pageLine     `json:"pages" yaml:"pages"`
}

type pageLine struct {
	Kind string `json:"kind" yaml:"kind"`
	Text string `json:"text" yaml:"text"`
}

func newSampleCmd() *cobra.Command {
	var (
		asJSON bool
		window = config.DefaultCPUWindow
	)

	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Print one sample and every rendered page",
		Long: `Take two samples one CPU window apart and print the second one, along
with how each status page would render it. Useful for checking what sysrpc
can read on this machine without involving Discord.

Examples:
  sysrpc sample
  sysrpc sample --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			err := runSample(cmd.Context(), cmd.OutOrStdout(), sampler.NewPsutilSource(), window, asJSON)
			if err != nil && asJSON {
				return jsonFailure(cmd.OutOrStdout(), err)
			}
			return err
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print a JSON envelope instead of YAML")
	cmd.Flags().DurationVar(&window, config.FlagCPUWindow, window, "how long CPU usage is averaged over")
	return cmd
}

func runSample(ctx context.Context, w io.Writer, src sampler.Source, window time.Duration, asJSON bool) error {
	if window <= 0 {
		return errors.New(errors.ErrConfig,
			"CPU sample window must be positive",
			"Try something like --cpu-sample-window 1s")
	}
	return writeSample(ctx, w, src, window, asJSON)
}

// jsonFailure reports err as a JSON envelope on w and returns an exit error
// so nothing else is printed.
func jsonFailure(w io.Writer, err error) error {
	if werr := WriteJSONFromError(w, err); werr != nil {
		return err
	}
	return errors.NewExitError(1)
}

// writeSample primes the rate baselines with one sample, takes a second and
// writes the report.
func writeSample(ctx context.Context, w io.Writer, src sampler.Source, window time.Duration, asJSON bool) error {
	smp := sampler.New(src, sampler.WithCPUWindow(window))
	smp.Sample(ctx)
	s := smp.Sample(ctx)

	if err := ctx.Err(); err != nil {
		return errors.WrapWithCode(err, errors.ErrInternal, "Sampling was interrupted", "")
	}

	report := buildReport(s)
	if asJSON {
		return WriteJSONSuccess(w, report)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(report); err != nil {
		return errors.Wrap(err, "Failed to encode sample")
	}
	return enc.Close()
}

func buildReport(s sampler.Sample) sampleReport {
	report := sampleReport{
		Sample:      s,
		Unavailable: s.Unavailable.String(),
		Pages:       make([]pageLine, 0, len(allPages)),
	}
	for _, k := range allPages {
		report.Pages = append(report.Pages, pageLine{Kind: k.String(), Text: pages.Render(k, s)})
	}
	return report
}
