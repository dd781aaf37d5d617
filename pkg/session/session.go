// Package session tracks who is signed in for code that acts on behalf of a
// store owner. A Context subscribes to an identity Provider between Init and
// Close; nothing is read from globals.
package session

import (
	"sync"

	"github.com/google/uuid"
	"github.com/sangkips/tillbook-api/pkg/apperror"
)

// Identity is the signed-in store owner.
type Identity struct {
	UserID    uuid.UUID `json:"userId"`
	Email     string    `json:"email"`
	StoreName string    `json:"storeName"`
}

// Provider emits the current identity, or nil after sign-out. Subscribe must
// deliver the current state once, then every change, until unsubscribed.
type Provider interface {
	Subscribe(fn func(*Identity)) (unsubscribe func())
}

// Context holds the latest identity reported by its Provider.
type Context struct {
	provider Provider

	mu          sync.RWMutex
	identity    *Identity
	loading     bool
	unsubscribe func()
}

// New creates a Context over provider. Call Init before reading from it.
func New(provider Provider) *Context {
	return &Context{provider: provider, loading: true}
}

// Init subscribes to the provider. Calling it twice is a no-op.
func (c *Context) Init() {
	c.mu.Lock()
	if c.unsubscribe != nil {
		c.mu.Unlock()
		return
	}
	c.loading = true
	c.mu.Unlock()

	unsubscribe := c.provider.Subscribe(c.set)

	c.mu.Lock()
	c.unsubscribe = unsubscribe
	c.mu.Unlock()
}

func (c *Context) set(id *Identity) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if id != nil {
		cp := *id
		id = &cp
	}
	c.identity = id
	c.loading = false
}

// Close unsubscribes and forgets the identity.
func (c *Context) Close() {
	c.mu.Lock()
	unsubscribe := c.unsubscribe
	c.unsubscribe = nil
	c.identity = nil
	c.loading = true
	c.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}

// Current returns the identity and whether the first event is still pending.
func (c *Context) Current() (*Identity, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.identity == nil {
		return nil, c.loading
	}
	cp := *c.identity
	return &cp, c.loading
}

// Require returns the identity or ErrSignedOut.
func (c *Context) Require() (*Identity, error) {
	id, _ := c.Current()
	if id == nil {
		return nil, apperror.ErrSignedOut
	}
	return id, nil
}

// Static is a Provider with a fixed identity. Handy for jobs and tests.
type Static struct {
	Identity *Identity
}

// Subscribe delivers the fixed identity once.
func (s Static) Subscribe(fn func(*Identity)) func() {
	fn(s.Identity)
	return func() {}
}

// Broadcaster fans identity changes out to subscribers. Providers embed it.
type Broadcaster struct {
	mu      sync.Mutex
	current *Identity
	nextID  int
	subs    map[int]func(*Identity)
}

// Subscribe registers fn and calls it with the current identity.
func (b *Broadcaster) Subscribe(fn func(*Identity)) func() {
	b.mu.Lock()
	if b.subs == nil {
		b.subs = make(map[int]func(*Identity))
	}
	id := b.nextID
	b.nextID++
	b.subs[id] = fn
	current := b.current
	b.mu.Unlock()

	fn(current)

	return func() {
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
	}
}

// Publish records id as current and notifies every subscriber.
func (b *Broadcaster) Publish(id *Identity) {
	b.mu.Lock()
	b.current = id
	subs := make([]func(*Identity), 0, len(b.subs))
	for _, fn := range b.subs {
		subs = append(subs, fn)
	}
	b.mu.Unlock()

	for _, fn := range subs {
		fn(id)
	}
}

// Subscribers is the number of live subscriptions.
func (b *Broadcaster) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
