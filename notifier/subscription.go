package notifier

import guardrail "github.com/goliatone/go-guardrail"

// Subscription is the unsubscribe handle returned by a registration.
type Subscription interface {
	Unsubscribe()
}

type registration struct {
	notifier *Notifier
	kind     guardrail.EventKind
	every    bool
	fn       Listener
}

func (r *registration) Unsubscribe() {
	n := r.notifier
	n.mu.Lock()
	defer n.mu.Unlock()

	if r.every {
		n.all = removeRegistration(n.all, r)
		return
	}
	n.listeners[r.kind] = removeRegistration(n.listeners[r.kind], r)
}

func removeRegistration(regs []*registration, target *registration) []*registration {
	newList := make([]*registration, 0, len(regs))
	for _, reg := range regs {
		if reg != target {
			newList = append(newList, reg)
		}
	}
	return newList
}
