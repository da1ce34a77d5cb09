// Package audit keeps the list of lines a computation had to skip, so a
// partial shopping list or cost can be explained to the kitchen.
package audit

import (
	"context"

	applog "catering/internal/log"
)

// Scope names the computation that skipped a line.
type Scope string

const (
	ScopeCosting     Scope = "costing"
	ScopeDemand      Scope = "demand"
	ScopeProcurement Scope = "procurement"
)

// Entry describes one skipped line.
type Entry struct {
	Scope   Scope  `json:"scope"`
	Subject string `json:"subject"`
	Reason  string `json:"reason"`
}

// Trail accumulates entries for a single computation. The zero value is ready to use.
type Trail struct {
	entries []Entry
}

// Record stores the entry and emits it as a warning.
func (t *Trail) Record(ctx context.Context, scope Scope, subject, reason string) {
	if t == nil {
		return
	}
	t.entries = append(t.entries, Entry{Scope: scope, Subject: subject, Reason: reason})
	applog.Warn(ctx, "line skipped", "scope", string(scope), "subject", subject, "reason", reason)
}

// Entries returns a copy of the recorded entries in the order they were recorded.
func (t *Trail) Entries() []Entry {
	if t == nil || len(t.entries) == 0 {
		return []Entry{}
	}
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

func (t *Trail) Len() int {
	if t == nil {
		return 0
	}
	return len(t.entries)
}
