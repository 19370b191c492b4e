// Package notifier fans lifecycle transitions out to zero or more
// subscribers. A listener failure is contained: it never prevents the
// remaining listeners from running and never propagates into the
// state transition that triggered the emit.
package notifier

import (
	"sync"

	guardrail "github.com/goliatone/go-guardrail"
)

// Listener receives the full current action for a lifecycle event.
type Listener func(action *guardrail.Action)

// Notifier is the per-event-kind listener registry.
type Notifier struct {
	mu        sync.RWMutex
	listeners map[guardrail.EventKind][]*registration
	all       []*registration
	logger    guardrail.Logger
}

// Option defines the functional option signature.
type Option func(*Notifier)

// WithLogger sets the logger used to report recovered listener panics.
func WithLogger(logger guardrail.Logger) Option {
	return func(n *Notifier) {
		n.logger = logger
	}
}

// New applies the given options to a new notifier instance.
func New(opts ...Option) *Notifier {
	n := &Notifier{
		listeners: make(map[guardrail.EventKind][]*registration),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(n)
		}
	}
	n.logger = guardrail.NormalizeLogger(n.logger)
	return n
}

// Subscribe registers a listener for one lifecycle event kind.
func (n *Notifier) Subscribe(kind guardrail.EventKind, fn Listener) Subscription {
	reg := &registration{notifier: n, kind: kind, fn: fn}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.listeners[kind] = append(n.listeners[kind], reg)
	return reg
}

// SubscribeAll registers a listener for every lifecycle event kind.
func (n *Notifier) SubscribeAll(fn Listener) Subscription {
	reg := &registration{notifier: n, every: true, fn: fn}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.all = append(n.all, reg)
	return reg
}

// Emit invokes every listener registered for kind, each behind a
// panic recovery so one failing listener cannot starve the rest.
// Listeners get their own clone of the action.
func (n *Notifier) Emit(kind guardrail.EventKind, action *guardrail.Action) {
	n.mu.RLock()
	targets := make([]*registration, 0, len(n.listeners[kind])+len(n.all))
	targets = append(targets, n.listeners[kind]...)
	targets = append(targets, n.all...)
	n.mu.RUnlock()

	for _, reg := range targets {
		n.invoke(kind, reg, action.Clone())
	}
}

func (n *Notifier) invoke(kind guardrail.EventKind, reg *registration, action *guardrail.Action) {
	defer func() {
		if r := recover(); r != nil {
			id := ""
			if action != nil {
				id = action.ID
			}
			n.logger.Error("listener panic recovered kind=%s action=%s err=%v", kind, id, r)
		}
	}()
	if reg == nil || reg.fn == nil {
		return
	}
	reg.fn(action)
}
