package guardrail

import (
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults applied when the corresponding Config field is unset.
const (
	DefaultTTL       = 45 * time.Minute
	DefaultRetention = 24 * time.Hour
	DefaultTimeout   = 10 * time.Second
)

// Config holds the connector settings consumed by the guardrail core.
// Durations are expressed as Go duration strings ("45m", "10s").
type Config struct {
	// Key is the actuator webhook key embedded in the dispatch URL.
	Key string `json:"key" yaml:"key"`
	// BaseURL is the actuator endpoint root.
	BaseURL string `json:"base_url" yaml:"base_url"`
	// EventPrefix namespaces event names, e.g. "lemon".
	EventPrefix string `json:"event_prefix,omitempty" yaml:"event_prefix,omitempty"`
	// Timeout bounds each dispatch request.
	Timeout string `json:"timeout,omitempty" yaml:"timeout,omitempty"`
	// MinSpacing is the minimum interval between calls to the same
	// event name. Zero disables spacing.
	MinSpacing string `json:"min_spacing,omitempty" yaml:"min_spacing,omitempty"`
	// Simulate forces every dispatch into simulation mode.
	Simulate bool `json:"simulate,omitempty" yaml:"simulate,omitempty"`
	// TTL is how long a proposal stays approvable.
	TTL string `json:"ttl,omitempty" yaml:"ttl,omitempty"`
	// Retention is how long decided actions are kept before purge.
	Retention string `json:"retention,omitempty" yaml:"retention,omitempty"`
	// Retries is informational only: it is reported to callers but
	// never applied by the dispatch client. Retrying is a caller
	// decision.
	Retries int `json:"retries,omitempty" yaml:"retries,omitempty"`
}

// ParseConfig attempts to parse JSON or YAML into a Config.
func ParseConfig(data []byte) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		// yaml can handle JSON too, so a single attempt is fine
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// Validate checks the fields a dispatching connector cannot run without.
func (c Config) Validate() error {
	if !c.Simulate {
		if strings.TrimSpace(c.BaseURL) == "" {
			return newValidationError("config base_url is required unless simulate is on")
		}
		if strings.TrimSpace(c.Key) == "" {
			return newValidationError("config key is required unless simulate is on")
		}
	}
	for _, raw := range []string{c.Timeout, c.MinSpacing, c.TTL, c.Retention} {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		if _, err := time.ParseDuration(raw); err != nil {
			return newValidationError("config duration is invalid: " + raw)
		}
	}
	return nil
}

// TTLDuration returns the proposal TTL, falling back to DefaultTTL.
func (c Config) TTLDuration() time.Duration {
	return parseDuration(c.TTL, DefaultTTL)
}

// RetentionDuration returns the purge horizon, falling back to DefaultRetention.
func (c Config) RetentionDuration() time.Duration {
	return parseDuration(c.Retention, DefaultRetention)
}

// TimeoutDuration returns the dispatch timeout, falling back to DefaultTimeout.
func (c Config) TimeoutDuration() time.Duration {
	return parseDuration(c.Timeout, DefaultTimeout)
}

// MinSpacingDuration returns the per-event spacing, zero when unset.
func (c Config) MinSpacingDuration() time.Duration {
	return parseDuration(c.MinSpacing, 0)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if strings.TrimSpace(raw) == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d < 0 {
		return fallback
	}
	return d
}
