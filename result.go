package guardrail

import "time"

// Result is the normalized outcome of one dispatch attempt. Network
// and HTTP failures are folded into Success/Error rather than raised
// as errors, because a dispatch failure is an expected, recoverable
// outcome the controller records without special-casing.
type Result struct {
	Success        bool      `json:"success"`
	Timestamp      time.Time `json:"timestamp"`
	ResponseStatus int       `json:"response_status,omitempty"`
	Error          string    `json:"error,omitempty"`
	Simulated      bool      `json:"simulated"`
}

// Execution converts the result into the record stored on an action.
func (r Result) Execution() *Execution {
	return &Execution{
		ExecutedAt:     r.Timestamp,
		Success:        r.Success,
		ResponseStatus: r.ResponseStatus,
		Error:          r.Error,
		Simulated:      r.Simulated,
	}
}
