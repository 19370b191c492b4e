package guardrail

import (
	"testing"
	"time"
)

func TestParseConfigYAML(t *testing.T) {
	raw := []byte(`
key: secret-key
base_url: https://maker.example.com/trigger
event_prefix: lemon
timeout: 5s
min_spacing: 30s
ttl: 10m
retention: 48h
retries: 3
`)
	cfg, err := ParseConfig(raw)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.Key != "secret-key" {
		t.Errorf("expected key, got %q", cfg.Key)
	}
	if cfg.EventPrefix != "lemon" {
		t.Errorf("expected prefix lemon, got %q", cfg.EventPrefix)
	}
	if got := cfg.TimeoutDuration(); got != 5*time.Second {
		t.Errorf("expected 5s timeout, got %s", got)
	}
	if got := cfg.MinSpacingDuration(); got != 30*time.Second {
		t.Errorf("expected 30s spacing, got %s", got)
	}
	if got := cfg.TTLDuration(); got != 10*time.Minute {
		t.Errorf("expected 10m ttl, got %s", got)
	}
	if got := cfg.RetentionDuration(); got != 48*time.Hour {
		t.Errorf("expected 48h retention, got %s", got)
	}
	if cfg.Retries != 3 {
		t.Errorf("expected 3 retries, got %d", cfg.Retries)
	}
}

func TestParseConfigJSON(t *testing.T) {
	cfg, err := ParseConfig([]byte(`{"key":"k","base_url":"https://actuator.local"}`))
	if err != nil {
		t.Fatalf("yaml should handle JSON too: %v", err)
	}
	if cfg.BaseURL != "https://actuator.local" {
		t.Fatalf("expected base url, got %q", cfg.BaseURL)
	}
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{Simulate: true}
	if got := cfg.TTLDuration(); got != DefaultTTL {
		t.Errorf("expected default ttl %s, got %s", DefaultTTL, got)
	}
	if got := cfg.RetentionDuration(); got != DefaultRetention {
		t.Errorf("expected default retention %s, got %s", DefaultRetention, got)
	}
	if got := cfg.TimeoutDuration(); got != DefaultTimeout {
		t.Errorf("expected default timeout %s, got %s", DefaultTimeout, got)
	}
	if got := cfg.MinSpacingDuration(); got != 0 {
		t.Errorf("expected spacing disabled by default, got %s", got)
	}
}

func TestConfigValidate(t *testing.T) {
	t.Run("requires base url and key unless simulating", func(t *testing.T) {
		if err := (Config{}).Validate(); !IsValidation(err) {
			t.Fatalf("expected validation error, got %v", err)
		}
		if err := (Config{BaseURL: "https://x"}).Validate(); !IsValidation(err) {
			t.Fatalf("expected validation error for missing key, got %v", err)
		}
		if err := (Config{Simulate: true}).Validate(); err != nil {
			t.Fatalf("simulate-only config should validate, got %v", err)
		}
	})

	t.Run("rejects malformed durations", func(t *testing.T) {
		cfg := Config{Simulate: true, TTL: "not-a-duration"}
		if err := cfg.Validate(); !IsValidation(err) {
			t.Fatalf("expected validation error, got %v", err)
		}
	})
}
