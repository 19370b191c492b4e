// Package lifecycle owns the action state machine:
//
//	pending --approve--> approved --execute(success)--> executed
//	pending --approve(if expired)--> expired
//	pending --reject-->  rejected
//	pending --expire(sweep)--> expired
//	approved --execute(failure)--> failed
//
// rejected, expired, executed, and failed are terminal. The
// controller orchestrates the clock, idempotency key deriver,
// dispatch client, action store, and event notifier; no dispatch may
// happen without an action passing through the approval gate.
package lifecycle

import (
	"context"
	"time"

	"github.com/google/uuid"

	guardrail "github.com/goliatone/go-guardrail"
	"github.com/goliatone/go-guardrail/notifier"
	"github.com/goliatone/go-guardrail/store"
)

// Dispatcher performs the outbound actuator call, or simulates it.
// Implementations never surface failures as errors: every outcome is
// folded into the returned result.
type Dispatcher interface {
	Trigger(ctx context.Context, event string, payload guardrail.Payload, idempotencyKey string, simulate bool) guardrail.Result
}

// SimulationApprovalID marks approvals recorded by the simulate path.
const SimulationApprovalID = "simulation"

// Controller is an explicit guardrail instance constructed with an
// injected clock, dispatch client, store, and notifier. There is no
// package-level singleton.
type Controller struct {
	dispatch Dispatcher
	store    store.Store
	notifier *notifier.Notifier
	clock    guardrail.Clock
	logger   guardrail.Logger

	prefix string
	ttl    time.Duration
	locks  *actionLocker
	newID  func() string
}

// New applies the given options to a new controller instance.
func New(dispatch Dispatcher, opts ...Option) *Controller {
	c := &Controller{
		dispatch: dispatch,
		store:    store.NewInMemory(),
		notifier: notifier.New(),
		clock:    guardrail.SystemClock(),
		ttl:      guardrail.DefaultTTL,
		locks:    newActionLocker(),
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	c.logger = guardrail.NormalizeLogger(c.logger)
	return c
}

// Notifier exposes the controller's notifier for subscriptions.
func (c *Controller) Notifier() *notifier.Notifier {
	return c.notifier
}

// ProposeRequest is the input to Propose.
type ProposeRequest struct {
	Event    string
	Payload  guardrail.Payload
	Metadata guardrail.Metadata
	// TTL overrides the controller default when positive.
	TTL time.Duration
}

// Propose validates the request, stores a pending action with its
// normalized event name and idempotency key, and emits a proposed
// notification. The idempotency key is computed here, exactly once
// for the life of the action.
func (c *Controller) Propose(ctx context.Context, req ProposeRequest) (*guardrail.Action, error) {
	if guardrail.NormalizeEventName(req.Event) == "" {
		return nil, guardrail.ErrValidation.Clone()
	}
	if err := req.Metadata.Validate(); err != nil {
		return nil, err
	}

	ttl := req.TTL
	if ttl <= 0 {
		ttl = c.ttl
	}

	now := c.clock.Now()
	fullEventName := guardrail.FullEventName(c.prefix, req.Event)

	action := &guardrail.Action{
		ID:             c.newID(),
		Event:          guardrail.NormalizeEventName(req.Event),
		FullEventName:  fullEventName,
		Payload:        req.Payload,
		Metadata:       req.Metadata,
		ProposedAt:     now,
		ExpiresAt:      now.Add(ttl),
		Status:         guardrail.StatusPending,
		IdempotencyKey: guardrail.DeriveKey(fullEventName, req.Payload),
	}

	c.store.Put(action)
	guardrail.WithLoggerFields(c.logger, guardrail.ActionFields(action)).Info("action proposed")
	c.notifier.Emit(guardrail.EventProposed, action)
	return action, nil
}

// Approve transitions a pending action to approved. It returns nil
// for an unknown id, an invalid-transition error when the action has
// already been decided, and the expired action when the deadline has
// passed: approval never succeeds on a stale action, expiry wins no
// matter which caller observes it first.
func (c *Controller) Approve(ctx context.Context, id, approvalID string) (*guardrail.Action, error) {
	action, kind, err := c.decide(id, "approve", func(a *guardrail.Action, now time.Time) {
		a.Status = guardrail.StatusApproved
		a.Approval = &guardrail.Approval{
			DecidedAt:  now,
			DecidedBy:  guardrail.DecidedByUser,
			ApprovalID: approvalID,
		}
	})
	if action != nil && kind != "" {
		c.notifier.Emit(kind, action)
	}
	return action, err
}

// Reject transitions a pending action to rejected. A note, when
// given, is recorded on the approval record; the original
// Metadata.Reason is left untouched.
func (c *Controller) Reject(ctx context.Context, id, note string) (*guardrail.Action, error) {
	action, kind, err := c.decide(id, "reject", func(a *guardrail.Action, now time.Time) {
		a.Status = guardrail.StatusRejected
		a.Approval = &guardrail.Approval{
			DecidedAt: now,
			DecidedBy: guardrail.DecidedByUser,
			Note:      note,
		}
	})
	if action != nil && kind != "" {
		c.notifier.Emit(kind, action)
	}
	return action, err
}

// decide runs one pending-gated transition under the action's lock.
// The stale check is the same one the sweeper uses, so the
// sweeper/approver race resolves identically on both paths.
func (c *Controller) decide(id, op string, mutate func(*guardrail.Action, time.Time)) (*guardrail.Action, guardrail.EventKind, error) {
	unlock := c.locks.Lock(id)
	defer unlock()

	action := c.store.Get(id)
	if action == nil {
		return nil, "", nil
	}
	if action.Status != guardrail.StatusPending {
		return nil, "", guardrail.NewInvalidTransition(op, id, action.Status)
	}

	now := c.clock.Now()
	if c.expireStale(action, now) {
		c.store.Put(action)
		c.logger.Info("action expired on %s id=%s", op, id)
		return action, guardrail.EventExpired, nil
	}

	mutate(action, now)
	c.store.Put(action)
	c.logger.Info("action %s id=%s by=%s", action.Status, id, action.Approval.DecidedBy)

	kind := guardrail.EventApproved
	if action.Status == guardrail.StatusRejected {
		kind = guardrail.EventRejected
	}
	return action, kind, nil
}

// Execute dispatches an approved action. Anything else, including an
// unknown id, reports that approval is required first. Dispatch
// failures are not errors: they land as a failed status with the
// outcome recorded on the action. The per-action lock is held across
// the dispatch so repeated execute calls cannot double-fire, while
// other actions proceed independently.
func (c *Controller) Execute(ctx context.Context, id string) (guardrail.Result, error) {
	unlock := c.locks.Lock(id)

	action := c.store.Get(id)
	if action == nil {
		unlock()
		return guardrail.Result{}, guardrail.NewApprovalRequired(id, "unknown")
	}
	if action.Status != guardrail.StatusApproved {
		status := action.Status
		unlock()
		return guardrail.Result{}, guardrail.NewApprovalRequired(id, status)
	}

	result := c.dispatch.Trigger(ctx, action.FullEventName, action.Payload, action.IdempotencyKey, false)
	if result.Timestamp.IsZero() {
		result.Timestamp = c.clock.Now()
	}

	kind := c.recordExecution(action, result)
	unlock()

	c.notifier.Emit(kind, action)
	return result, nil
}

// SimulationOutcome bundles the action and dispatch result of Simulate.
type SimulationOutcome struct {
	Action *guardrail.Action `json:"action"`
	Result guardrail.Result  `json:"result"`
}

// Simulate proposes, auto-approves, and dispatches with simulation
// forced on. It never performs a real side effect, regardless of the
// dispatch client's own configuration, and it never overrides a
// decision made in between: a listener or concurrent caller that
// rejects or expires the freshly proposed action wins, and the
// decided action is returned without dispatching. Confidence defaults
// to 100 since no external approval risk exists.
func (c *Controller) Simulate(ctx context.Context, req ProposeRequest) (*SimulationOutcome, error) {
	if req.Metadata.Confidence == 0 {
		req.Metadata.Confidence = 100
	}

	action, err := c.Propose(ctx, req)
	if err != nil {
		return nil, err
	}

	unlock := c.locks.Lock(action.ID)
	current := c.store.Get(action.ID)
	if current == nil {
		unlock()
		return &SimulationOutcome{Action: action}, nil
	}
	action = current
	if action.Status != guardrail.StatusPending {
		unlock()
		return &SimulationOutcome{Action: action}, nil
	}

	now := c.clock.Now()
	if c.expireStale(action, now) {
		c.store.Put(action)
		unlock()
		c.notifier.Emit(guardrail.EventExpired, action)
		return &SimulationOutcome{Action: action}, nil
	}

	action.Status = guardrail.StatusApproved
	action.Approval = &guardrail.Approval{
		DecidedAt:  now,
		DecidedBy:  guardrail.DecidedByAuto,
		ApprovalID: SimulationApprovalID,
	}
	c.store.Put(action)
	unlock()
	c.notifier.Emit(guardrail.EventApproved, action)

	unlock = c.locks.Lock(action.ID)
	current = c.store.Get(action.ID)
	if current == nil || current.Status != guardrail.StatusApproved {
		unlock()
		if current != nil {
			action = current
		}
		return &SimulationOutcome{Action: action}, nil
	}
	action = current

	result := c.dispatch.Trigger(ctx, action.FullEventName, action.Payload, action.IdempotencyKey, true)
	if result.Timestamp.IsZero() {
		result.Timestamp = c.clock.Now()
	}
	kind := c.recordExecution(action, result)
	unlock()
	c.notifier.Emit(kind, action)

	return &SimulationOutcome{Action: action, Result: result}, nil
}

func (c *Controller) recordExecution(action *guardrail.Action, result guardrail.Result) guardrail.EventKind {
	action.Execution = result.Execution()
	if result.Success {
		action.Status = guardrail.StatusExecuted
	} else {
		action.Status = guardrail.StatusFailed
	}
	c.store.Put(action)
	guardrail.WithLoggerFields(c.logger, guardrail.ActionFields(action)).Info("action %s simulated=%t", action.Status, result.Simulated)

	if result.Success {
		return guardrail.EventExecuted
	}
	return guardrail.EventFailed
}

// Get returns the action for id, or nil when unknown or purged.
func (c *Controller) Get(id string) *guardrail.Action {
	return c.store.Get(id)
}

// List returns actions matching filter, newest-proposed-first.
func (c *Controller) List(filter store.Filter) []*guardrail.Action {
	return c.store.List(filter)
}

// ExpirePending transitions every pending action whose deadline has
// passed to expired and returns the transitioned set. Calling it
// twice in a row yields an empty second result. An action that left
// pending between the scan and the write is skipped.
func (c *Controller) ExpirePending(ctx context.Context) []*guardrail.Action {
	pending := c.store.List(store.Filter{Statuses: []guardrail.Status{guardrail.StatusPending}})

	var expired []*guardrail.Action
	for _, candidate := range pending {
		if ctx.Err() != nil {
			break
		}

		unlock := c.locks.Lock(candidate.ID)
		action := c.store.Get(candidate.ID)
		if action == nil || action.Status != guardrail.StatusPending || !c.expireStale(action, c.clock.Now()) {
			unlock()
			continue
		}
		c.store.Put(action)
		unlock()

		c.logger.Info("action expired by sweep id=%s", action.ID)
		c.notifier.Emit(guardrail.EventExpired, action)
		expired = append(expired, action)
	}
	return expired
}

// PurgeOlderThan removes actions, regardless of status, proposed
// before now minus age. It bounds memory and is not part of the
// approval semantics.
func (c *Controller) PurgeOlderThan(age time.Duration) int {
	cutoff := c.clock.Now().Add(-age)
	stale := c.store.List(store.Filter{Until: cutoff})

	purged := 0
	for _, action := range stale {
		unlock := c.locks.Lock(action.ID)
		if c.store.Delete(action.ID) {
			purged++
		}
		unlock()
	}
	if purged > 0 {
		c.logger.Debug("purged %d actions older than %s", purged, age)
	}
	return purged
}

// expireStale flips a pending action whose deadline passed to expired
// with a timeout decision. It is the single expiry check shared by
// the approval path and the sweeper.
func (c *Controller) expireStale(action *guardrail.Action, now time.Time) bool {
	if action.Status != guardrail.StatusPending || now.Before(action.ExpiresAt) {
		return false
	}
	action.Status = guardrail.StatusExpired
	action.Approval = &guardrail.Approval{
		DecidedAt: now,
		DecidedBy: guardrail.DecidedByTimeout,
	}
	return true
}
