package client

import (
	"context"
	"errors"
	"sync"
	"time"

	"labbudget/internal/core"
)

// Status is surfaced to the user after every autosave attempt or
// refused schedule.
type Status string

const (
	StatusSaved          Status = "saved"
	StatusSignInRequired Status = "please sign in"
	StatusSessionExpired Status = "session expired"
	StatusSaveFailed     Status = "save failed"
)

// Saver persists a document snapshot. *Client satisfies it.
type Saver interface {
	Save(ctx context.Context, doc core.Document) error
}

// Autosaver debounces saves behind a single timer with
// last-mutation-wins semantics: mutations arriving faster than the
// delay collapse into one save of the final state.
type Autosaver struct {
	saver   Saver
	session SessionSource
	delay   time.Duration
	onState func(Status)

	mu         sync.Mutex
	pending    *time.Timer
	pendingDoc core.Document
	stopped    bool
}

// NewAutosaver wires a debounced saver. onState may be nil.
func NewAutosaver(saver Saver, session SessionSource, delay time.Duration, onState func(Status)) *Autosaver {
	if onState == nil {
		onState = func(Status) {}
	}
	return &Autosaver{
		saver:   saver,
		session: session,
		delay:   delay,
		onState: onState,
	}
}

// Schedule records a mutation: any pending save is cancelled and a new
// one is scheduled after the configured delay with the given snapshot.
// The session is checked on every call, not just the first.
func (a *Autosaver) Schedule(doc core.Document) {
	if !a.session.Active() {
		a.onState(StatusSignInRequired)
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.stopped {
		return
	}
	if a.pending != nil {
		a.pending.Stop()
	}
	a.pendingDoc = doc
	a.pending = time.AfterFunc(a.delay, func() {
		a.save(doc)
	})
}

// Flush runs any pending save immediately. Used on shutdown so the last
// edits are not lost to the debounce window.
func (a *Autosaver) Flush() {
	a.mu.Lock()
	hadPending := a.pending != nil && a.pending.Stop()
	doc := a.pendingDoc
	a.pending = nil
	a.mu.Unlock()

	if hadPending {
		a.save(doc)
	}
}

// Stop cancels any pending save without running it.
func (a *Autosaver) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stopped = true
	if a.pending != nil {
		a.pending.Stop()
		a.pending = nil
	}
}

func (a *Autosaver) save(doc core.Document) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	err := a.saver.Save(ctx, doc)
	switch {
	case err == nil:
		a.onState(StatusSaved)
	case errors.Is(err, ErrAuthRequired):
		a.onState(StatusSessionExpired)
	default:
		// No automatic retry. The next mutation reschedules naturally.
		a.onState(StatusSaveFailed)
	}
}
