// Package session holds the client-side authentication state: who, if anyone,
// is signed in on this client, and who wants to hear about changes.
package session

import (
	"sync"

	"github.com/spec-kit/user-registry/internal/domain"
)

// Status is the session state.
type Status string

const (
	StatusAnonymous     Status = "anonymous"
	StatusAuthenticated Status = "authenticated"
)

// State is an immutable snapshot. CurrentUser is non-nil iff Status is
// StatusAuthenticated.
type State struct {
	Status      Status
	CurrentUser *domain.PublicUser
}

// IsAuthenticated reports whether a user is signed in.
func (s State) IsAuthenticated() bool {
	return s.Status == StatusAuthenticated
}

func (s State) clone() State {
	if s.CurrentUser != nil {
		u := *s.CurrentUser
		s.CurrentUser = &u
	}
	return s
}

// Listener receives the state produced by a transition.
type Listener func(State)

// Context is an observable session state machine. It performs no I/O.
type Context struct {
	mu        sync.Mutex
	state     State
	listeners map[uint64]Listener
	order     []uint64
	nextID    uint64
}

// New returns an anonymous session.
func New() *Context {
	return &Context{
		state:     State{Status: StatusAnonymous},
		listeners: make(map[uint64]Listener),
	}
}

// State returns the current snapshot.
func (c *Context) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.clone()
}

// IsAuthenticated is shorthand for State().IsAuthenticated().
func (c *Context) IsAuthenticated() bool {
	return c.State().IsAuthenticated()
}

// Login moves to authenticated with user as the current user. Calling it while
// already authenticated replaces the user. Subscribers are always notified.
func (c *Context) Login(user domain.PublicUser) {
	c.mu.Lock()
	c.state = State{Status: StatusAuthenticated, CurrentUser: &user}
	c.notifyLocked()
}

// Logout clears the current user. On an anonymous session it does nothing and
// notifies nobody.
func (c *Context) Logout() {
	c.mu.Lock()
	if c.state.Status == StatusAnonymous {
		c.mu.Unlock()
		return
	}
	c.state = State{Status: StatusAnonymous}
	c.notifyLocked()
}

// Subscribe registers fn for every future transition and returns a function
// that removes it. Listeners run synchronously, in subscription order, after
// the lock is released, so they may read the session or unsubscribe.
func (c *Context) Subscribe(fn Listener) (unsubscribe func()) {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	c.order = append(c.order, id)
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { c.remove(id) })
	}
}

// Close drops every subscriber. The state itself is left as is.
func (c *Context) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = make(map[uint64]Listener)
	c.order = nil
}

// notifyLocked snapshots state and listeners, releases c.mu and then calls
// the listeners.
func (c *Context) notifyLocked() {
	state := c.state
	listeners := make([]Listener, 0, len(c.order))
	for _, id := range c.order {
		listeners = append(listeners, c.listeners[id])
	}
	c.mu.Unlock()

	for _, fn := range listeners {
		fn(state.clone())
	}
}

func (c *Context) remove(id uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.listeners[id]; !ok {
		return
	}
	delete(c.listeners, id)
	for i, v := range c.order {
		if v == id {
			c.order = append(c.order[:i:i], c.order[i+1:]...)
			break
		}
	}
}
