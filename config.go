package authflow

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/MrEthical07/authflow/remote"
	"github.com/MrEthical07/authflow/step"
	"github.com/MrEthical07/authflow/syncstate"
	"github.com/MrEthical07/authflow/view"
)

// EnvPrefix prefixes every variable read by [ConfigFromEnv].
const EnvPrefix = "AUTHFLOW_"

// Config holds every tunable of a Flow. Obtain one from [DefaultConfig] or
// [ConfigFromEnv] and adjust fields before passing it to [Builder.WithConfig].
type Config struct {
	Invitation InvitationConfig `envPrefix:"INVITATION_"`
	Progress   ProgressConfig   `envPrefix:"PROGRESS_"`
	Sync       SyncConfig       `envPrefix:"SYNC_"`
	Remote     remote.Config    `envPrefix:"REMOTE_"`
	Events     EventsConfig     `envPrefix:"EVENTS_"`
	Metrics    MetricsConfig    `envPrefix:"METRICS_"`
	Log        LogConfig        `envPrefix:"LOG_"`

	// Elements names the page elements the flow drives. Not read from the environment.
	Elements view.IDs
}

/*
====================================
INVITATION CONFIG
====================================
*/

// InvitationConfig controls the invitation gate.
type InvitationConfig struct {
	// CheckRequired asks the server whether invitations are required. When
	// false the gate is bypassed without a network call.
	CheckRequired   bool          `env:"CHECK_REQUIRED"`
	CheckTimeout    time.Duration `env:"CHECK_TIMEOUT"`
	ValidateTimeout time.Duration `env:"VALIDATE_TIMEOUT"`
}

/*
====================================
PROGRESS CONFIG
====================================
*/

// ProgressConfig controls the progress indicator.
type ProgressConfig struct {
	// StepsFile is an optional YAML step table merged over the defaults.
	StepsFile  string `env:"STEPS_FILE"`
	Indicators int    `env:"INDICATORS"`
}

/*
====================================
SYNC CONFIG
====================================
*/

// SyncConfig controls the presentation reconciler.
type SyncConfig struct {
	Enabled     bool          `env:"ENABLED"`
	Interval    time.Duration `env:"INTERVAL"`
	Timeout     time.Duration `env:"TIMEOUT"`
	MaxAttempts int           `env:"MAX_ATTEMPTS"`
}

/*
====================================
OBSERVABILITY CONFIG
====================================
*/

// EventsConfig controls flow event dispatching.
type EventsConfig struct {
	Enabled    bool `env:"ENABLED"`
	BufferSize int  `env:"BUFFER_SIZE"`
	DropIfFull bool `env:"DROP_IF_FULL"`
}

// MetricsConfig controls in-process counters.
type MetricsConfig struct {
	Enabled                 bool `env:"ENABLED"`
	EnableLatencyHistograms bool `env:"LATENCY_HISTOGRAMS"`
}

// LogConfig is read by hosts that build their logger with [NewLogger].
type LogConfig struct {
	Level string `env:"LEVEL"`
	JSON  bool   `env:"JSON"`
}

/*
====================================
DEFAULT CONFIG
====================================
*/

// DefaultConfig returns the built-in configuration.
func DefaultConfig() Config {
	return Config{
		Invitation: InvitationConfig{
			CheckRequired:   true,
			CheckTimeout:    5 * time.Second,
			ValidateTimeout: 10 * time.Second,
		},
		Progress: ProgressConfig{
			Indicators: step.MaxRank,
		},
		Sync: SyncConfig{
			Enabled:     true,
			Interval:    syncstate.DefaultInterval,
			Timeout:     syncstate.DefaultTimeout,
			MaxAttempts: syncstate.DefaultMaxAttempts,
		},
		Remote: remote.DefaultConfig(),
		Events: EventsConfig{
			Enabled:    false,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
		Log: LogConfig{
			Level: "info",
		},
		Elements: view.DefaultIDs(),
	}
}

// ConfigFromEnv overlays AUTHFLOW_* variables on [DefaultConfig] and validates
// the result. Unset variables keep their defaults.
func ConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func cloneConfig(cfg Config) Config {
	out := cfg
	if cfg.Elements.Panels != nil {
		out.Elements.Panels = make(map[string]string, len(cfg.Elements.Panels))
		for k, v := range cfg.Elements.Panels {
			out.Elements.Panels[k] = v
		}
	}
	return out
}

/*
====================================
VALIDATION
====================================
*/

// Validate reports the first invalid field.
func (c *Config) Validate() error {
	if c.Invitation.CheckTimeout <= 0 {
		return errors.New("Invitation CheckTimeout must be > 0")
	}
	if c.Invitation.ValidateTimeout <= 0 {
		return errors.New("Invitation ValidateTimeout must be > 0")
	}

	if c.Progress.Indicators < 1 {
		return errors.New("Progress Indicators must be >= 1")
	}

	if c.Sync.Enabled {
		if c.Sync.Interval <= 0 {
			return errors.New("Sync Interval must be > 0")
		}
		if c.Sync.Timeout < c.Sync.Interval {
			return errors.New("Sync Timeout must be >= Sync Interval")
		}
		if c.Sync.MaxAttempts < 1 {
			return errors.New("Sync MaxAttempts must be >= 1")
		}
	}

	if c.Events.Enabled && c.Events.BufferSize <= 0 {
		return errors.New("Events BufferSize must be > 0")
	}

	if _, err := parseLevel(c.Log.Level); err != nil {
		return err
	}

	ids := c.Elements
	for name, id := range map[string]string{
		"Links":           ids.Links,
		"UserInfo":        ids.UserInfo,
		"UserEmail":       ids.UserEmail,
		"EmailInput":      ids.EmailInput,
		"CodeInput":       ids.CodeInput,
		"FlowError":       ids.FlowError,
		"ProgressBar":     ids.ProgressBar,
		"InvitationInput": ids.InvitationInput,
	} {
		if strings.TrimSpace(id) == "" {
			return fmt.Errorf("Elements %s must not be empty", name)
		}
	}
	for _, s := range []step.Step{step.Invitation, step.Email, step.Verify, step.Success} {
		if strings.TrimSpace(ids.Panels[string(s)]) == "" {
			return fmt.Errorf("Elements Panels missing %q", s)
		}
	}

	return c.Remote.Validate()
}

func parseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return 0, fmt.Errorf("Log Level %q: %w", s, err)
	}
	return l, nil
}
