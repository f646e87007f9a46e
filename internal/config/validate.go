package config

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/rileyhilliard/sysrpc/internal/errors"
)

// LogLevels are the accepted --log-level values.
var LogLevels = []string{"debug", "info", "warn", "error"}

// Validate checks cfg and returns the first problem as a CONFIG error.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New(errors.ErrConfig, "No configuration provided", "")
	}

	if err := validateInterval(cfg.UpdateInterval); err != nil {
		return err
	}

	if cfg.ClientID != "" && !isSnowflake(cfg.ClientID) {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("Discord client id '%s' isn't valid", cfg.ClientID),
			"Copy the numeric Application ID from the Discord developer portal, or pass --console")
	}

	if cfg.CPUWindow <= 0 {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("CPU sample window must be positive, got %s", cfg.CPUWindow),
			"Try something like --cpu-sample-window 1s")
	}

	if cfg.ConnectTimeout <= 0 {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("Connect timeout must be positive, got %s", cfg.ConnectTimeout),
			"Try something like --connect-timeout 5s")
	}

	if !validLogLevel(cfg.LogLevel) {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("Unknown log level '%s'", cfg.LogLevel),
			"Use one of: "+strings.Join(LogLevels, ", "))
	}

	return nil
}

func validateInterval(secs float64) error {
	switch {
	case math.IsNaN(secs) || math.IsInf(secs, 0):
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("Update interval must be a finite number of seconds, got %v", secs),
			"Pass a number like --rpc-update-interval 15")
	case secs <= 0:
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("Update interval must be greater than zero, got %v", secs),
			"Pass a number like --rpc-update-interval 15")
	case time.Duration(secs*float64(time.Second)) <= 0:
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("Update interval of %v seconds is too short", secs),
			"Pass a number like --rpc-update-interval 15")
	case secs > maxIntervalSeconds:
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("Update interval of %v seconds is too long", secs),
			"Pass a number like --rpc-update-interval 15")
	}
	return nil
}

// isSnowflake reports whether id looks like a Discord id: all digits.
func isSnowflake(id string) bool {
	for _, r := range id {
		if r < '0' || r > '9' {
			return false
		}
	}
	return id != ""
}

func validLogLevel(level string) bool {
	for _, l := range LogLevels {
		if level == l {
			return true
		}
	}
	return false
}
