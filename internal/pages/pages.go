// Package pages turns samples into the short status lines shown in the
// presence, and rotates through them one page per tick.
package pages

import (
	"fmt"
	"strings"

	"github.com/rileyhilliard/sysrpc/internal/errors"
	"github.com/rileyhilliard/sysrpc/internal/sampler"
	"github.com/rileyhilliard/sysrpc/internal/units"
)

// Kind identifies one page layout.
type Kind int

const (
	CPU Kind = iota
	Memory
	Disk
	Network
	Swap
	CPUFrequency
	Platform
)

const unavailable = "n/a"

var kindNames = map[Kind]string{
	CPU:          "cpu",
	Memory:       "memory",
	Disk:         "disk",
	Network:      "network",
	Swap:         "swap",
	CPUFrequency: "cpu-frequency",
	Platform:     "platform",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Valid reports whether k is one of the known page kinds.
func (k Kind) Valid() bool {
	_, ok := kindNames[k]
	return ok
}

// Render formats s according to page kind k.
func Render(k Kind, s sampler.Sample) string {
	switch k {
	case CPU:
		if !s.Available(sampler.MetricCPU) {
			return "CPU: " + unavailable
		}
		if s.CPUCores > 0 {
			return fmt.Sprintf("CPU: %s of %d %s", units.Percent(s.CPUPercent), s.CPUCores, pluralize(s.CPUCores, "core", "cores"))
		}
		return "CPU: " + units.Percent(s.CPUPercent)

	case Memory:
		if !s.Available(sampler.MetricMemory) {
			return "RAM: " + unavailable
		}
		return fmt.Sprintf("RAM: %s / %s (%s)",
			units.FormatBytes(float64(s.MemUsed)),
			units.FormatBytes(float64(s.MemTotal)),
			units.Percent(s.MemPercent()))

	case Disk:
		if !s.Available(sampler.MetricDisk) {
			return "Disk R/W: " + unavailable
		}
		return fmt.Sprintf("Disk R/W: %s / %s", units.FormatRate(s.DiskReadRate), units.FormatRate(s.DiskWriteRate))

	case Network:
		if !s.Available(sampler.MetricNetwork) {
			return "Net S/R: " + unavailable
		}
		return fmt.Sprintf("Net S/R: %s / %s", units.FormatRate(s.NetSentRate), units.FormatRate(s.NetRecvRate))

	case Swap:
		if !s.Available(sampler.MetricSwap) {
			return "Swap: " + unavailable
		}
		if s.SwapTotal == 0 {
			return "Swap: none"
		}
		return fmt.Sprintf("Swap: %s / %s (%s)",
			units.FormatBytes(float64(s.SwapUsed)),
			units.FormatBytes(float64(s.SwapTotal)),
			units.Percent(s.SwapPercent()))

	case CPUFrequency:
		cpu := unavailable
		if s.Available(sampler.MetricCPU) {
			cpu = units.Percent(s.CPUPercent)
		}
		if s.CPUFreqMHz <= 0 {
			return "CPU: " + cpu
		}
		return fmt.Sprintf("CPU: %s @ %.0f MHz", cpu, s.CPUFreqMHz)

	case Platform:
		return "OS: " + platformName(s.Host)
	}

	return k.String()
}

// platformName builds a display name such as "Ubuntu 24.04 (linux 6.8.0)".
func platformName(h sampler.HostInfo) string {
	name := strings.TrimSpace(titleCase(h.Platform) + " " + h.PlatformVersion)
	osName := OSName(h.OS)

	switch {
	case name == "" && osName == "":
		return unavailable
	case name == "":
		name = osName
	case h.Kernel != "":
		return fmt.Sprintf("%s (%s %s)", name, strings.ToLower(osName), h.Kernel)
	}
	return name
}

// OSName maps a GOOS-style identifier to its display name.
func OSName(goos string) string {
	switch goos {
	case "windows":
		return "Windows"
	case "darwin":
		return "macOS"
	case "linux":
		return "Linux"
	}
	return titleCase(goos)
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func pluralize(count int, singular, plural string) string {
	if count == 1 {
		return singular
	}
	return plural
}

// Rotator cycles through a fixed sequence of pages.
type Rotator struct {
	pages  []Kind
	cursor int
}

// NewRotator creates a Rotator over kinds, in order. At least one page is
// required.
func NewRotator(kinds ...Kind) (*Rotator, error) {
	if len(kinds) == 0 {
		return nil, errors.New(errors.ErrConfig,
			"No status pages configured",
			"Enable at least one page to rotate through")
	}
	for _, k := range kinds {
		if !k.Valid() {
			return nil, errors.New(errors.ErrConfig,
				fmt.Sprintf("Unknown status page %s", k),
				"Use one of the built-in page kinds")
		}
	}

	pages := make([]Kind, len(kinds))
	copy(pages, kinds)
	return &Rotator{pages: pages}, nil
}

// Next renders the current page for s and advances to the following page,
// wrapping after the last one.
func (r *Rotator) Next(s sampler.Sample) string {
	k := r.pages[r.cursor]
	r.cursor = (r.cursor + 1) % len(r.pages)
	return Render(k, s)
}

// Pages returns the page sequence.
func (r *Rotator) Pages() []Kind {
	out := make([]Kind, len(r.pages))
	copy(out, r.pages)
	return out
}

// SetOptions selects the optional pages.
type SetOptions struct {
	ShowOS   bool
	ShowSwap bool
}

// Set returns the page sequence for the given options. CPU, memory, disk and
// network pages are always present.
func Set(opts SetOptions) []Kind {
	kinds := []Kind{CPU, Memory, Disk, Network}
	if opts.ShowSwap {
		kinds = append(kinds, Swap)
	}
	if opts.ShowOS {
		kinds = append(kinds, CPUFrequency, Platform)
	}
	return kinds
}
