// Package guard makes sure only the most recently issued lookup is honored.
//
// Every call through a Guard becomes the latest one. When a newer call is
// issued, the older call's context is cancelled and its outcome is replaced by
// ErrSuperseded, whatever the transport returned. Callers treat ErrSuperseded
// as "nothing happened": no success, no failure.
package guard

import (
	"context"
	"errors"
	"sync"

	"postcode_lookup/internal/postcodes/transport"
)

// ErrSuperseded is returned by a call that was overtaken by a newer one.
var ErrSuperseded = errors.New("lookup superseded by a newer request")

// Call performs one transport round trip.
type Call func(ctx context.Context) (*transport.Response, error)

// Guard tracks the latest issued call.
type Guard struct {
	mu     sync.Mutex
	latest uint64
	cancel context.CancelFunc
}

// New creates a guard with its own "latest issued" marker.
func New() *Guard {
	return &Guard{}
}

// Default is the process-wide marker used by direct lookups that do not bring
// their own guard.
var Default = New()

// Ticket is one issued call. It is the latest from the moment Issue returns
// until a newer ticket is issued or the guard is superseded.
type Ticket struct {
	g      *Guard
	id     uint64
	parent context.Context
	ctx    context.Context
	cancel context.CancelFunc
}

// Issue makes a new ticket the latest one and cancels the previous ticket's
// context. Callers that order work themselves issue on their own goroutine
// and settle the ticket later with Do.
func (g *Guard) Issue(ctx context.Context) *Ticket {
	callCtx, cancel := context.WithCancel(ctx)
	return &Ticket{
		g:      g,
		id:     g.issue(cancel),
		parent: ctx,
		ctx:    callCtx,
		cancel: cancel,
	}
}

// Do issues call as the latest request and settles it.
func (g *Guard) Do(ctx context.Context, call Call) (*transport.Response, error) {
	return g.Issue(ctx).Do(call)
}

// Do runs call under the ticket's context and settles it:
//   - superseded before or during the call: ErrSuperseded
//   - transport error: returned as is
//   - 2xx response: returned
//   - any other status: the response plus a *transport.StatusError
//
// The ticket is released afterwards.
func (t *Ticket) Do(call Call) (*transport.Response, error) {
	defer t.Release()
	if !t.Latest() {
		return nil, ErrSuperseded
	}

	resp, err := call(t.ctx)
	if err != nil {
		// Our own abort of a superseded call is not a transport failure.
		if !t.Latest() && t.parent.Err() == nil && t.ctx.Err() != nil {
			return nil, ErrSuperseded
		}
		return nil, err
	}
	if !t.Latest() {
		return nil, ErrSuperseded
	}
	if !resp.OK() {
		return resp, &transport.StatusError{Response: resp}
	}
	return resp, nil
}

// Latest reports whether no newer ticket or Supersede happened since t was issued.
func (t *Ticket) Latest() bool {
	return t.g.isLatest(t.id)
}

// Release cancels the ticket's context. Safe to call more than once.
func (t *Ticket) Release() {
	t.g.release(t.id, t.cancel)
}

// Supersede invalidates every in-flight call without issuing a new one.
func (g *Guard) Supersede() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.latest++
	if g.cancel != nil {
		g.cancel()
		g.cancel = nil
	}
}

func (g *Guard) issue(cancel context.CancelFunc) uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.cancel != nil {
		g.cancel()
	}
	g.latest++
	g.cancel = cancel
	return g.latest
}

func (g *Guard) release(ticket uint64, cancel context.CancelFunc) {
	cancel()
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.latest == ticket {
		g.cancel = nil
	}
}

func (g *Guard) isLatest(ticket uint64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.latest == ticket
}
