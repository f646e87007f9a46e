package config

import (
	"math"
	"time"
)

// Defaults for every setting.
const (
	DefaultUpdateInterval = 10.0
	DefaultClientID       = "1380200369144987760"
	DefaultCPUWindow      = time.Second
	DefaultConnectTimeout = 5 * time.Second
	DefaultLogLevel       = "info"
)

// Config is the fully resolved runtime configuration.
type Config struct {
	// UpdateInterval is the time between presence updates, in seconds.
	UpdateInterval float64 `yaml:"rpc_update_interval" mapstructure:"rpc-update-interval"`

	// ClientID is the Discord application id. Empty means print to the
	// console instead.
	ClientID string `yaml:"discord_client_id" mapstructure:"discord-client-id"`

	ShowOS   bool `yaml:"show_os" mapstructure:"show-os"`
	ShowSwap bool `yaml:"show_swap" mapstructure:"show-swap"`

	// CPUWindow is how long CPU usage is averaged over per sample.
	CPUWindow      time.Duration `yaml:"cpu_sample_window" mapstructure:"cpu-sample-window"`
	ConnectTimeout time.Duration `yaml:"connect_timeout" mapstructure:"connect-timeout"`

	Console  bool   `yaml:"console" mapstructure:"console"`
	NoColor  bool   `yaml:"no_color" mapstructure:"no-color"`
	LogLevel string `yaml:"log_level" mapstructure:"log-level"`
}

// DefaultConfig returns a Config with all defaults applied.
func DefaultConfig() *Config {
	return &Config{
		UpdateInterval: DefaultUpdateInterval,
		ClientID:       DefaultClientID,
		CPUWindow:      DefaultCPUWindow,
		ConnectTimeout: DefaultConnectTimeout,
		LogLevel:       DefaultLogLevel,
	}
}

// Interval returns UpdateInterval as a duration. Call Validate first.
func (c *Config) Interval() time.Duration {
	return time.Duration(c.UpdateInterval * float64(time.Second))
}

// SampleWindow returns the CPU sampling window, clamped to half the update
// interval so sampling never eats the whole period.
func (c *Config) SampleWindow() time.Duration {
	limit := c.Interval() / 2
	if c.CPUWindow > limit {
		return limit
	}
	return c.CPUWindow
}

// ConsoleMode reports whether statuses go to the terminal instead of Discord.
func (c *Config) ConsoleMode() bool {
	return c.Console || c.ClientID == ""
}

// maxIntervalSeconds is the largest interval representable as a Duration.
var maxIntervalSeconds = float64(math.MaxInt64) / float64(time.Second)
