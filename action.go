// Package guardrail provides the core types for the action guardrail:
// a proposed, approvable, executable unit of automation intent that must
// pass through a controlled state machine before any downstream side
// effect is triggered.
package guardrail

import "time"

// Status is the lifecycle state of a proposed action.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
	StatusExpired  Status = "expired"
	StatusExecuted Status = "executed"
	StatusFailed   Status = "failed"
)

// IsTerminal reports whether no transition may leave the status.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusRejected, StatusExpired, StatusExecuted, StatusFailed:
		return true
	default:
		return false
	}
}

// DecidedBy identifies what resolved a pending action.
type DecidedBy string

const (
	DecidedByUser    DecidedBy = "user"
	DecidedByAuto    DecidedBy = "auto"
	DecidedByTimeout DecidedBy = "timeout"
)

// Payload carries the three scalar slots the actuator wire format
// accepts. Slots are passed through verbatim to dispatch.
type Payload struct {
	Value1 string `json:"value1,omitempty" yaml:"value1,omitempty"`
	Value2 string `json:"value2,omitempty" yaml:"value2,omitempty"`
	Value3 string `json:"value3,omitempty" yaml:"value3,omitempty"`
}

// IsZero reports whether every slot is empty.
func (p Payload) IsZero() bool {
	return p.Value1 == "" && p.Value2 == "" && p.Value3 == ""
}

// Metadata is the caller-supplied justification attached to a proposal.
type Metadata struct {
	// Reason is the human readable justification. Required.
	Reason string `json:"reason"`
	// Source identifies the proposer, e.g. "automation:water-schedule". Required.
	Source string `json:"source"`
	// Target optionally names the thing acted upon, e.g. a zone or device.
	Target string `json:"target,omitempty"`
	// Confidence is the proposer's confidence in the action, 0-100.
	Confidence int `json:"confidence,omitempty"`
	// EstimatedImpact describes the expected effect of executing.
	EstimatedImpact string `json:"estimated_impact,omitempty"`
}

// Validate checks the required metadata fields.
func (m Metadata) Validate() error {
	if m.Reason == "" {
		return newValidationError("metadata reason is required")
	}
	if m.Source == "" {
		return newValidationError("metadata source is required")
	}
	if m.Confidence < 0 || m.Confidence > 100 {
		return newValidationError("metadata confidence must be between 0 and 100")
	}
	return nil
}

// Approval records how an action left the pending state.
type Approval struct {
	DecidedAt  time.Time `json:"decided_at"`
	DecidedBy  DecidedBy `json:"decided_by"`
	ApprovalID string    `json:"approval_id,omitempty"`
	// Note carries the rejection note when the action was rejected.
	// It is kept separate from Metadata.Reason so the original
	// justification is never overwritten.
	Note string `json:"note,omitempty"`
}

// Execution records the outcome of a dispatch attempt.
type Execution struct {
	ExecutedAt     time.Time `json:"executed_at"`
	Success        bool      `json:"success"`
	ResponseStatus int       `json:"response_status,omitempty"`
	Error          string    `json:"error,omitempty"`
	Simulated      bool      `json:"simulated"`
}

// Action is the central entity: one approvable unit of automation intent.
type Action struct {
	ID    string `json:"id"`
	Event string `json:"event"`
	// FullEventName is Event normalized with the configured namespace
	// prefix, computed once at proposal time.
	FullEventName string   `json:"full_event_name"`
	Payload       Payload  `json:"payload"`
	Metadata      Metadata `json:"metadata"`

	ProposedAt time.Time `json:"proposed_at"`
	ExpiresAt  time.Time `json:"expires_at"`
	Status     Status    `json:"status"`

	// IdempotencyKey is derived once at proposal time and never
	// recomputed, so repeated execute attempts present the same key
	// to the downstream actuator.
	IdempotencyKey string `json:"idempotency_key"`

	Approval  *Approval  `json:"approval,omitempty"`
	Execution *Execution `json:"execution,omitempty"`
}

// Clone returns a deep copy safe to hand to listeners and callers.
func (a *Action) Clone() *Action {
	if a == nil {
		return nil
	}
	cp := *a
	if a.Approval != nil {
		ap := *a.Approval
		cp.Approval = &ap
	}
	if a.Execution != nil {
		ex := *a.Execution
		cp.Execution = &ex
	}
	return &cp
}

// EventKind tags a lifecycle transition notification.
type EventKind string

const (
	EventProposed EventKind = "proposed"
	EventApproved EventKind = "approved"
	EventRejected EventKind = "rejected"
	EventExecuted EventKind = "executed"
	EventFailed   EventKind = "failed"
	EventExpired  EventKind = "expired"
)

// EventKinds lists every lifecycle event kind.
func EventKinds() []EventKind {
	return []EventKind{
		EventProposed,
		EventApproved,
		EventRejected,
		EventExecuted,
		EventFailed,
		EventExpired,
	}
}
