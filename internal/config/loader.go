package config

import (
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/rileyhilliard/sysrpc/internal/errors"
)

// Flag names. They double as viper keys.
const (
	FlagUpdateInterval = "rpc-update-interval"
	FlagClientID       = "discord-client-id"
	FlagShowOS         = "show-os"
	FlagShowSwap       = "show-swap"
	FlagCPUWindow      = "cpu-sample-window"
	FlagConnectTimeout = "connect-timeout"
	FlagConsole        = "console"
	FlagNoColor        = "no-color"
	FlagLogLevel       = "log-level"
)

// RegisterFlags adds the run flags to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	d := DefaultConfig()
	fs.Float64(FlagUpdateInterval, d.UpdateInterval, "seconds between presence updates")
	fs.String(FlagClientID, d.ClientID, "Discord application client id (empty prints to the console)")
	fs.Bool(FlagShowOS, false, "add the platform and CPU frequency pages")
	fs.Bool(FlagShowSwap, false, "add the swap usage page")
	fs.Duration(FlagCPUWindow, d.CPUWindow, "how long CPU usage is averaged over (at most half the update interval)")
	fs.Duration(FlagConnectTimeout, d.ConnectTimeout, "timeout for connecting to Discord")
	fs.Bool(FlagConsole, false, "print status lines to the terminal instead of Discord")
	fs.Bool(FlagNoColor, false, "disable colored console output")
}

// RegisterPersistentFlags adds flags shared by every subcommand.
func RegisterPersistentFlags(fs *pflag.FlagSet) {
	fs.String(FlagLogLevel, DefaultLogLevel, "log level (debug, info, warn, error)")
}

// Load resolves a Config from parsed flags. Unset flags keep their defaults.
// The result is validated.
func Load(fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if err := v.BindPFlags(fs); err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to read command-line flags",
			"Run 'sysrpc --help' to see valid flags")
	}

	cfg := &Config{
		UpdateInterval: v.GetFloat64(FlagUpdateInterval),
		ClientID:       v.GetString(FlagClientID),
		ShowOS:         v.GetBool(FlagShowOS),
		ShowSwap:       v.GetBool(FlagShowSwap),
		CPUWindow:      v.GetDuration(FlagCPUWindow),
		ConnectTimeout: v.GetDuration(FlagConnectTimeout),
		Console:        v.GetBool(FlagConsole),
		NoColor:        v.GetBool(FlagNoColor),
		LogLevel:       v.GetString(FlagLogLevel),
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault(FlagUpdateInterval, d.UpdateInterval)
	v.SetDefault(FlagClientID, d.ClientID)
	v.SetDefault(FlagCPUWindow, d.CPUWindow)
	v.SetDefault(FlagConnectTimeout, d.ConnectTimeout)
	v.SetDefault(FlagLogLevel, d.LogLevel)
}
