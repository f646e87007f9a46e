package config

import (
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rileyhilliard/sysrpc/internal/errors"
)

func newFlagSet(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("sysrpc", pflag.ContinueOnError)
	RegisterFlags(fs)
	RegisterPersistentFlags(fs)
	require.NoError(t, fs.Parse(args))
	return fs
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 10.0, cfg.UpdateInterval)
	assert.Equal(t, "1380200369144987760", cfg.ClientID)
	assert.False(t, cfg.ShowOS)
	assert.False(t, cfg.ShowSwap)
	assert.Equal(t, time.Second, cfg.CPUWindow)
	assert.Equal(t, 5*time.Second, cfg.ConnectTimeout)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.NoError(t, Validate(cfg))
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(newFlagSet(t))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoad_Flags(t *testing.T) {
	cfg, err := Load(newFlagSet(t,
		"--rpc-update-interval", "2.5",
		"--discord-client-id", "123",
		"--show-os",
		"--show-swap",
		"--cpu-sample-window", "500ms",
		"--connect-timeout", "2s",
		"--console",
		"--no-color",
		"--log-level", "debug",
	))
	require.NoError(t, err)

	assert.Equal(t, &Config{
		UpdateInterval: 2.5,
		ClientID:       "123",
		ShowOS:         true,
		ShowSwap:       true,
		CPUWindow:      500 * time.Millisecond,
		ConnectTimeout: 2 * time.Second,
		Console:        true,
		NoColor:        true,
		LogLevel:       "debug",
	}, cfg)
	assert.Equal(t, 2500*time.Millisecond, cfg.Interval())
}

func TestLoad_EmptyClientIDMeansConsole(t *testing.T) {
	cfg, err := Load(newFlagSet(t, "--discord-client-id", ""))
	require.NoError(t, err)
	assert.True(t, cfg.ConsoleMode())
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name        string
		args        []string
		errContains string
	}{
		{"zero interval", []string{"--rpc-update-interval", "0"}, "greater than zero"},
		{"negative interval", []string{"--rpc-update-interval", "-1"}, "greater than zero"},
		{"NaN interval", []string{"--rpc-update-interval", "NaN"}, "finite"},
		{"infinite interval", []string{"--rpc-update-interval", "+Inf"}, "finite"},
		{"huge interval", []string{"--rpc-update-interval", "1e300"}, "too long"},
		{"sub-nanosecond interval", []string{"--rpc-update-interval", "1e-10"}, "too short"},
		{"non-numeric client id", []string{"--discord-client-id", "YOUR_CLIENT_ID_HERE"}, "isn't valid"},
		{"zero cpu window", []string{"--cpu-sample-window", "0s"}, "CPU sample window"},
		{"zero connect timeout", []string{"--connect-timeout", "0s"}, "Connect timeout"},
		{"bad log level", []string{"--log-level", "loud"}, "Unknown log level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(newFlagSet(t, tt.args...))
			require.Error(t, err)
			assert.True(t, errors.IsCode(err, errors.ErrConfig))
			assert.Contains(t, err.Error(), tt.errContains)
		})
	}
}

func TestFlagParseRejectsNonNumericInterval(t *testing.T) {
	fs := pflag.NewFlagSet("sysrpc", pflag.ContinueOnError)
	RegisterFlags(fs)
	assert.Error(t, fs.Parse([]string{"--rpc-update-interval", "often"}))
}

func TestValidate_Nil(t *testing.T) {
	assert.True(t, errors.IsCode(Validate(nil), errors.ErrConfig))
}

func TestSampleWindow(t *testing.T) {
	tests := []struct {
		name     string
		interval float64
		window   time.Duration
		want     time.Duration
	}{
		{"window fits", 10, time.Second, time.Second},
		{"clamped to half the interval", 1, time.Second, 500 * time.Millisecond},
		{"exactly half", 2, time.Second, time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.UpdateInterval = tt.interval
			cfg.CPUWindow = tt.window
			assert.Equal(t, tt.want, cfg.SampleWindow())
		})
	}
}

func TestConsoleMode(t *testing.T) {
	cfg := DefaultConfig()
	assert.False(t, cfg.ConsoleMode())

	cfg.Console = true
	assert.True(t, cfg.ConsoleMode())

	cfg.Console = false
	cfg.ClientID = ""
	assert.True(t, cfg.ConsoleMode())
}

func TestIsSnowflake(t *testing.T) {
	assert.True(t, isSnowflake("1380200369144987760"))
	assert.False(t, isSnowflake(""))
	assert.False(t, isSnowflake("12a"))
}
