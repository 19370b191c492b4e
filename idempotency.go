package guardrail

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
)

// DeriveKey computes the idempotency key for a dispatch intent. It is
// a pure function of the full event name and payload: the same inputs
// always produce the same key, and different payloads under the same
// event name produce different keys. The key is derived once at
// proposal time so retried execute attempts present the same token to
// the downstream receiver.
func DeriveKey(fullEventName string, payload Payload) string {
	type intent struct {
		Event  string `json:"event"`
		Value1 string `json:"value1,omitempty"`
		Value2 string `json:"value2,omitempty"`
		Value3 string `json:"value3,omitempty"`
	}
	normalized := intent{
		Event:  NormalizeEventName(fullEventName),
		Value1: payload.Value1,
		Value2: payload.Value2,
		Value3: payload.Value3,
	}
	raw, err := json.Marshal(normalized)
	if err != nil {
		raw = []byte(fmt.Sprintf("%#v", normalized))
	}
	hash := sha256.Sum256(raw)
	// 32 hex chars keeps the key readable in downstream logs while
	// leaving collision odds negligible at this scale.
	return "idem-" + hex.EncodeToString(hash[:])[:32]
}

// NormalizeEventName trims and lowercases an event name.
func NormalizeEventName(event string) string {
	return strings.ToLower(strings.TrimSpace(event))
}

// FullEventName joins the configured namespace prefix with event. It
// is idempotent to re-prefixing: a name that already carries the
// prefix is returned unchanged rather than double-prefixed.
func FullEventName(prefix, event string) string {
	event = NormalizeEventName(event)
	prefix = NormalizeEventName(prefix)
	if prefix == "" || event == "" {
		return event
	}
	if event == prefix || strings.HasPrefix(event, prefix+"_") {
		return event
	}
	return prefix + "_" + event
}
