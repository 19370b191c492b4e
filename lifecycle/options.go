package lifecycle

import (
	"time"

	guardrail "github.com/goliatone/go-guardrail"
	"github.com/goliatone/go-guardrail/notifier"
	"github.com/goliatone/go-guardrail/store"
)

// Option defines the functional option signature.
type Option func(*Controller)

// WithClock overrides the controller's time source.
func WithClock(clock guardrail.Clock) Option {
	return func(c *Controller) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// WithStore substitutes the action repository.
func WithStore(s store.Store) Option {
	return func(c *Controller) {
		if s != nil {
			c.store = s
		}
	}
}

// WithNotifier substitutes the lifecycle event notifier.
func WithNotifier(n *notifier.Notifier) Option {
	return func(c *Controller) {
		if n != nil {
			c.notifier = n
		}
	}
}

// WithLogger sets the controller logger.
func WithLogger(logger guardrail.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

// WithTTL sets the default proposal TTL.
func WithTTL(ttl time.Duration) Option {
	return func(c *Controller) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithEventPrefix sets the namespace prefix applied to event names.
func WithEventPrefix(prefix string) Option {
	return func(c *Controller) {
		c.prefix = prefix
	}
}

// WithIDGenerator overrides action id assignment.
func WithIDGenerator(fn func() string) Option {
	return func(c *Controller) {
		if fn != nil {
			c.newID = fn
		}
	}
}
