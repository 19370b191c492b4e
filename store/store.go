// Package store holds proposed actions behind a small repository
// interface so a durable backend can be substituted without touching
// the state machine.
package store

import (
	"sort"
	"sync"
	"time"

	guardrail "github.com/goliatone/go-guardrail"
)

// Filter narrows List results. Zero values match everything.
type Filter struct {
	// Statuses matches any of the given statuses. Empty matches all.
	Statuses []guardrail.Status
	// Source matches Metadata.Source exactly.
	Source string
	// Since/Until bound ProposedAt, inclusive of Since, exclusive of Until.
	Since time.Time
	Until time.Time
	// Limit caps the number of results. Zero means no cap.
	Limit int
}

// Matches reports whether the action passes every set predicate.
func (f Filter) Matches(a *guardrail.Action) bool {
	if a == nil {
		return false
	}
	if len(f.Statuses) > 0 {
		found := false
		for _, s := range f.Statuses {
			if a.Status == s {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.Source != "" && a.Metadata.Source != f.Source {
		return false
	}
	if !f.Since.IsZero() && a.ProposedAt.Before(f.Since) {
		return false
	}
	if !f.Until.IsZero() && !a.ProposedAt.Before(f.Until) {
		return false
	}
	return true
}

// Store is the action repository contract.
type Store interface {
	// Get returns the action for id, or nil when unknown.
	Get(id string) *guardrail.Action
	// Put inserts or replaces an action.
	Put(action *guardrail.Action)
	// Delete removes an action, reporting whether it existed.
	Delete(id string) bool
	// List returns matching actions ordered newest-proposed-first.
	List(filter Filter) []*guardrail.Action
	// Len returns the number of stored actions.
	Len() int
}

// InMemory keeps actions in a mutex-guarded map. Contents are cloned
// on the way in and out so callers never share mutable state with the
// store.
type InMemory struct {
	mu    sync.RWMutex
	items map[string]*guardrail.Action
}

// NewInMemory constructs an empty in-memory store.
func NewInMemory() *InMemory {
	return &InMemory{
		items: make(map[string]*guardrail.Action),
	}
}

func (s *InMemory) Get(id string) *guardrail.Action {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.items[id].Clone()
}

func (s *InMemory) Put(action *guardrail.Action) {
	if action == nil || action.ID == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[action.ID] = action.Clone()
}

func (s *InMemory) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.items[id]
	delete(s.items, id)
	return ok
}

func (s *InMemory) List(filter Filter) []*guardrail.Action {
	s.mu.RLock()
	matched := make([]*guardrail.Action, 0, len(s.items))
	for _, a := range s.items {
		if filter.Matches(a) {
			matched = append(matched, a.Clone())
		}
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].ProposedAt.Equal(matched[j].ProposedAt) {
			return matched[i].ID > matched[j].ID
		}
		return matched[i].ProposedAt.After(matched[j].ProposedAt)
	})

	if filter.Limit > 0 && len(matched) > filter.Limit {
		matched = matched[:filter.Limit]
	}
	return matched
}

func (s *InMemory) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}
