// Package sweeper periodically converts stale pending actions to
// expired, and purges actions past the retention horizon. It runs
// independently of the approval path: a sweep only mutates actions it
// finds eligible under its own snapshot, and skips anything that
// transitioned away from pending between scan and write.
package sweeper

import (
	"context"
	"fmt"
	"sync"
	"time"

	rcron "github.com/robfig/cron/v3"

	guardrail "github.com/goliatone/go-guardrail"
)

// Controller is the slice of the lifecycle controller the sweeper drives.
type Controller interface {
	ExpirePending(ctx context.Context) []*guardrail.Action
	PurgeOlderThan(age time.Duration) int
}

// DefaultExpression sweeps once a minute.
const DefaultExpression = "@every 1m"

// Sweeper wraps a cron scheduler around the expiry sweep.
type Sweeper struct {
	mu   sync.Mutex
	cron *rcron.Cron
	ctrl Controller

	logger       guardrail.Logger
	errorHandler func(error)
	expression   string
	retention    time.Duration
	location     *time.Location

	entryID rcron.EntryID
	running bool
}

// Option defines the functional option signature.
type Option func(*Sweeper)

// WithExpression sets the cron expression driving the sweep.
func WithExpression(expr string) Option {
	return func(s *Sweeper) {
		if expr != "" {
			s.expression = expr
		}
	}
}

// WithInterval is a convenience for "@every d" expressions.
func WithInterval(d time.Duration) Option {
	return func(s *Sweeper) {
		if d > 0 {
			s.expression = fmt.Sprintf("@every %s", d)
		}
	}
}

// WithRetention enables purging actions older than age on each sweep.
// Zero disables purging.
func WithRetention(age time.Duration) Option {
	return func(s *Sweeper) {
		if age >= 0 {
			s.retention = age
		}
	}
}

// WithLocation sets the timezone location for the scheduler.
func WithLocation(loc *time.Location) Option {
	return func(s *Sweeper) {
		if loc != nil {
			s.location = loc
		}
	}
}

// WithLogger sets the sweeper logger.
func WithLogger(logger guardrail.Logger) Option {
	return func(s *Sweeper) {
		s.logger = logger
	}
}

// WithErrorHandler sets the handler for recovered sweep panics.
func WithErrorHandler(handler func(error)) Option {
	return func(s *Sweeper) {
		if handler != nil {
			s.errorHandler = handler
		}
	}
}

// New applies the given options to a new sweeper instance.
func New(ctrl Controller, opts ...Option) *Sweeper {
	s := &Sweeper{
		ctrl:       ctrl,
		expression: DefaultExpression,
		retention:  guardrail.DefaultRetention,
		location:   time.Local,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	s.logger = guardrail.NormalizeLogger(s.logger)
	if s.errorHandler == nil {
		s.errorHandler = func(err error) {
			s.logger.Error("sweep error: %v", err)
		}
	}
	s.cron = rcron.New(
		rcron.WithLocation(s.location),
		rcron.WithChain(rcron.Recover(&errorHandlerAdapter{handler: s.errorHandler})),
	)
	return s
}

// Start begins the periodic sweep.
func (s *Sweeper) Start(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return nil
	}

	entryID, err := s.cron.AddFunc(s.expression, func() {
		s.RunOnce(context.Background())
	})
	if err != nil {
		return fmt.Errorf("failed to add sweep job: %w", err)
	}
	s.entryID = entryID
	s.cron.Start()
	s.running = true
	s.logger.Info("sweeper started expression=%q retention=%s", s.expression, s.retention)
	return nil
}

// Stop halts the periodic sweep. In-flight sweeps finish on their own.
func (s *Sweeper) Stop(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return nil
	}
	s.cron.Remove(s.entryID)
	s.cron.Stop()
	s.running = false
	s.logger.Info("sweeper stopped")
	return nil
}

// Running reports whether the periodic sweep is scheduled.
func (s *Sweeper) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// RunOnce performs a single on-demand sweep: expire stale pending
// actions, then purge anything past the retention horizon.
func (s *Sweeper) RunOnce(ctx context.Context) []*guardrail.Action {
	expired := s.ctrl.ExpirePending(ctx)
	if len(expired) > 0 {
		s.logger.Info("sweep expired %d pending actions", len(expired))
	}
	if s.retention > 0 {
		s.ctrl.PurgeOlderThan(s.retention)
	}
	return expired
}

// errorHandlerAdapter adapts an error handler func to cron's logger,
// which is what the Recover chain reports through.
type errorHandlerAdapter struct {
	handler func(error)
}

func (e *errorHandlerAdapter) Info(msg string, args ...interface{}) {}

func (e *errorHandlerAdapter) Error(err error, msg string, args ...interface{}) {
	if e.handler == nil {
		return
	}
	if err != nil {
		e.handler(err)
		return
	}
	e.handler(fmt.Errorf(msg, args...))
}
