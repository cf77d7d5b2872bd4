package authflow

import (
	"testing"
	"time"
)

func TestDefaultConfigValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantValid bool
	}{
		{
			name:      "check timeout zero",
			mutate:    func(c *Config) { c.Invitation.CheckTimeout = 0 },
			wantValid: false,
		},
		{
			name:      "validate timeout negative",
			mutate:    func(c *Config) { c.Invitation.ValidateTimeout = -time.Second },
			wantValid: false,
		},
		{
			name:      "no indicators",
			mutate:    func(c *Config) { c.Progress.Indicators = 0 },
			wantValid: false,
		},
		{
			name:      "sync timeout below interval",
			mutate:    func(c *Config) { c.Sync.Timeout = c.Sync.Interval / 2 },
			wantValid: false,
		},
		{
			name: "sync disabled ignores sync fields",
			mutate: func(c *Config) {
				c.Sync.Enabled = false
				c.Sync.Interval = 0
				c.Sync.MaxAttempts = 0
			},
			wantValid: true,
		},
		{
			name: "events enabled without buffer",
			mutate: func(c *Config) {
				c.Events.Enabled = true
				c.Events.BufferSize = 0
			},
			wantValid: false,
		},
		{
			name:      "log level debug",
			mutate:    func(c *Config) { c.Log.Level = "debug" },
			wantValid: true,
		},
		{
			name:      "log level unknown",
			mutate:    func(c *Config) { c.Log.Level = "verbose" },
			wantValid: false,
		},
		{
			name:      "blank element id",
			mutate:    func(c *Config) { c.Elements.UserEmail = "  " },
			wantValid: false,
		},
		{
			name:      "missing panel",
			mutate:    func(c *Config) { delete(c.Elements.Panels, "verify") },
			wantValid: false,
		},
		{
			name:      "relative base url",
			mutate:    func(c *Config) { c.Remote.BaseURL = "/api" },
			wantValid: false,
		},
		{
			name:      "relative endpoint path",
			mutate:    func(c *Config) { c.Remote.Paths.Verify = "api/verify" },
			wantValid: false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantValid && err != nil {
				t.Fatalf("expected valid, got %v", err)
			}
			if !tc.wantValid && err == nil {
				t.Fatalf("expected invalid config")
			}
		})
	}
}

func TestCloneConfigCopiesPanels(t *testing.T) {
	cfg := DefaultConfig()
	clone := cloneConfig(cfg)
	clone.Elements.Panels["email"] = "other"
	if cfg.Elements.Panels["email"] != "step-email" {
		t.Fatalf("clone shares the panels map")
	}
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("AUTHFLOW_INVITATION_CHECK_REQUIRED", "false")
	t.Setenv("AUTHFLOW_SYNC_INTERVAL", "250ms")
	t.Setenv("AUTHFLOW_SYNC_MAX_ATTEMPTS", "12")
	t.Setenv("AUTHFLOW_REMOTE_BASE_URL", "https://auth.example.com")
	t.Setenv("AUTHFLOW_REMOTE_PATH_VERIFY", "/v2/verify")
	t.Setenv("AUTHFLOW_EVENTS_ENABLED", "true")
	t.Setenv("AUTHFLOW_LOG_LEVEL", "debug")

	cfg, err := ConfigFromEnv()
	if err != nil {
		t.Fatalf("ConfigFromEnv: %v", err)
	}
	if cfg.Invitation.CheckRequired {
		t.Fatalf("expected CheckRequired=false")
	}
	if cfg.Sync.Interval != 250*time.Millisecond || cfg.Sync.MaxAttempts != 12 {
		t.Fatalf("unexpected sync config %+v", cfg.Sync)
	}
	if cfg.Remote.BaseURL != "https://auth.example.com" || cfg.Remote.Paths.Verify != "/v2/verify" {
		t.Fatalf("unexpected remote config %+v", cfg.Remote)
	}
	if cfg.Remote.Paths.SendCode != "/api/auth/send-code" {
		t.Fatalf("unset path lost its default: %q", cfg.Remote.Paths.SendCode)
	}
	if !cfg.Events.Enabled || cfg.Events.BufferSize != 256 {
		t.Fatalf("unexpected events config %+v", cfg.Events)
	}
	if cfg.Log.Level != "debug" {
		t.Fatalf("unexpected log level %q", cfg.Log.Level)
	}
}

func TestConfigFromEnvRejectsInvalid(t *testing.T) {
	t.Setenv("AUTHFLOW_SYNC_INTERVAL", "soon")
	if _, err := ConfigFromEnv(); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestConfigFromEnvValidates(t *testing.T) {
	t.Setenv("AUTHFLOW_PROGRESS_INDICATORS", "0")
	if _, err := ConfigFromEnv(); err == nil {
		t.Fatalf("expected validation error")
	}
}
