package session

import (
	"context"
	"sync"
)

type State string

const (
	StateIdle      State = "idle"
	StatePolling   State = "polling"
	StateCompleted State = "completed"
	StateExhausted State = "exhausted"
	StateErrored   State = "errored"
	StateCancelled State = "cancelled"
)

// Terminal reports whether no further polling happens from s.
func (s State) Terminal() bool {
	switch s {
	case StateCompleted, StateExhausted, StateErrored, StateCancelled:
		return true
	}
	return false
}

// View is a point-in-time copy of a session, as shown to the payer.
type View struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	OrderID     string `json:"order_id,omitempty"`
	Loading     bool   `json:"loading"`
	State       State  `json:"state"`
	Attempts    int    `json:"attempts"`
	RedirectURL string `json:"redirect_url,omitempty"`
}

// Renderer receives a fresh View after every change to a session.
type Renderer interface {
	Render(View)
}

type RendererFunc func(View)

func (f RendererFunc) Render(v View) { f(v) }

// Session holds the state of one payer's checkout. At most one poll loop is
// attached to a session at a time.
type Session struct {
	mu       sync.Mutex
	view     View
	renderer Renderer

	cancel context.CancelFunc
	done   chan struct{}
}

type Option func(*Session)

func WithRenderer(r Renderer) Option {
	return func(s *Session) { s.renderer = r }
}

func New(id string, opts ...Option) *Session {
	s := &Session{view: View{ID: id, State: StateIdle}}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Session) ID() string {
	return s.view.ID
}

func (s *Session) Snapshot() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view
}

func (s *Session) SetStatus(status string) {
	s.update(func(v *View) { v.Status = status })
}

func (s *Session) SetLoading(loading bool) {
	s.update(func(v *View) { v.Loading = loading })
}

// SetOrderID starts a new payment on the session: the order id is replaced
// and the poll progress of any previous order is cleared.
func (s *Session) SetOrderID(orderID string) {
	s.update(func(v *View) {
		v.OrderID = orderID
		v.State = StateIdle
		v.Attempts = 0
		v.RedirectURL = ""
	})
}

func (s *Session) SetState(state State) {
	s.update(func(v *View) { v.State = state })
}

func (s *Session) SetAttempts(attempts int) {
	s.update(func(v *View) { v.Attempts = attempts })
}

// Finish moves the session into a terminal state with its final status text.
func (s *Session) Finish(state State, status string) {
	s.update(func(v *View) {
		v.State = state
		v.Status = status
	})
}

// Complete marks the order as paid. The terminal state, the final status and
// the redirect destination become visible in the same View, so no reader sees
// a completed session without somewhere to go. An already recorded
// destination is kept.
func (s *Session) Complete(status, url string) {
	s.update(func(v *View) {
		v.State = StateCompleted
		v.Status = status
		if v.RedirectURL == "" {
			v.RedirectURL = url
		}
	})
}

// IsLoading reports whether a create-payment call is in flight.
func (s *Session) IsLoading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view.Loading
}

// TryBeginLoading sets the loading flag unless it is already set, reporting
// whether this call set it. Only the caller that got true may clear it.
func (s *Session) TryBeginLoading() bool {
	began := false
	s.update(func(v *View) {
		if !v.Loading {
			v.Loading = true
			began = true
		}
	})
	return began
}

// Busy reports whether a create-payment call or a poll loop is still running.
func (s *Session) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.view.Loading {
		return true
	}
	if s.done == nil {
		return false
	}
	select {
	case <-s.done:
		return false
	default:
		return true
	}
}

// Track attaches a new poll loop, stopping any loop that is still running.
// The caller must close the returned channel when the loop ends.
func (s *Session) Track(cancel context.CancelFunc) chan struct{} {
	s.Cancel()

	done := make(chan struct{})
	s.mu.Lock()
	s.cancel = cancel
	s.done = done
	s.mu.Unlock()
	return done
}

// Cancel stops the attached poll loop and waits for it to exit.
func (s *Session) Cancel() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Done returns a channel closed when the attached poll loop exits. With no
// loop attached the channel is already closed.
func (s *Session) Done() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done == nil {
		closed := make(chan struct{})
		close(closed)
		return closed
	}
	return s.done
}

func (s *Session) update(fn func(*View)) {
	s.mu.Lock()
	fn(&s.view)
	view := s.view
	renderer := s.renderer
	s.mu.Unlock()

	if renderer != nil {
		renderer.Render(view)
	}
}
