// Package resolution locates parser providers. A Context is an ordered,
// named registry of providers; one context is current for the process and can
// be overridden for the duration of a scoped operation.
package resolution

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	xferrors "github.com/jacoelho/xmlfactory/errors"
	"github.com/jacoelho/xmlfactory/internal/domparse"
	"github.com/jacoelho/xmlfactory/pkg/xmlparse"
)

var (
	// ErrEmptyName is returned when a provider reports an empty name.
	ErrEmptyName = errors.New("resolution: empty provider name")
	// ErrConflictingProvider is returned when a different provider is
	// registered under a name already in use.
	ErrConflictingProvider = errors.New("resolution: conflicting provider registration")
)

// Context is a named provider registry. It is safe for concurrent use.
type Context struct {
	name      string
	mu        sync.RWMutex
	providers []xmlparse.Provider
}

// NewContext returns a context holding providers in lookup order. Providers
// with empty or conflicting names are skipped and logged at warn level.
func NewContext(name string, providers ...xmlparse.Provider) *Context {
	c := &Context{name: name}
	for _, p := range providers {
		if err := c.Register(p); err != nil {
			logrus.WithField("context", name).WithError(err).Warn("provider not registered")
		}
	}
	return c
}

// Name identifies the context in logs.
func (c *Context) Name() string {
	if c == nil {
		return ""
	}
	return c.name
}

// Register appends p. Registering the same provider twice is a no-op.
func (c *Context) Register(p xmlparse.Provider) error {
	if p == nil || p.Name() == "" {
		return ErrEmptyName
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, existing := range c.providers {
		if existing.Name() != p.Name() {
			continue
		}
		if existing == p {
			return nil
		}
		return fmt.Errorf("%w: %s", ErrConflictingProvider, p.Name())
	}
	c.providers = append(c.providers, p)
	return nil
}

// Providers returns a snapshot of the registered providers.
func (c *Context) Providers() []xmlparse.Provider {
	if c == nil {
		return nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]xmlparse.Provider, len(c.providers))
	copy(out, c.providers)
	return out
}

// Lookup returns the first registered provider.
func (c *Context) Lookup() (xmlparse.Provider, error) {
	if c == nil {
		return nil, xferrors.ErrParserUnavailable
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.providers) == 0 {
		return nil, fmt.Errorf("%w: context %q is empty", xferrors.ErrParserUnavailable, c.name)
	}
	return c.providers[0], nil
}

var (
	defaultContext = sync.OnceValue(func() *Context {
		return NewContext("default", domparse.NewProvider())
	})
	current atomic.Pointer[Context]

	// switchMu serializes changes to current. An override holds it until
	// its guard is restored.
	switchMu sync.Mutex
)

// Default returns the process default context, which holds the encoding/xml
// provider.
func Default() *Context {
	return defaultContext()
}

// Current returns the context in effect for the process.
func Current() *Context {
	if c := current.Load(); c != nil {
		return c
	}
	return Default()
}

// Install makes c current and returns the context it replaced. Installing
// nil restores the default. Install waits for any active override to be
// restored and must not be called while the caller holds one.
func Install(c *Context) *Context {
	switchMu.Lock()
	defer switchMu.Unlock()
	prev := current.Swap(c)
	if prev == nil {
		return Default()
	}
	return prev
}

// Guard restores the context captured by Override.
type Guard struct {
	prev     *Context
	restored atomic.Bool
}

// Override installs c and returns a guard that puts the previous context
// back. Only one override is active at a time: Override blocks until the
// previous guard is restored, so overrides never nest. Callers pair it with
// defer guard.Restore().
func Override(c *Context) *Guard {
	switchMu.Lock()
	return &Guard{prev: current.Swap(c)}
}

// Restore reinstates the captured context and releases the override. Only
// the first call has effect.
func (g *Guard) Restore() {
	if g == nil || !g.restored.CompareAndSwap(false, true) {
		return
	}
	current.Store(g.prev)
	switchMu.Unlock()
}

// WithOverride runs action with own installed as the current context when
// enabled is true, restoring the previous context on every exit path
// including panics. When enabled is false or own is nil action runs as is.
func WithOverride[T any](enabled bool, own *Context, action func() (T, error)) (T, error) {
	if !enabled || own == nil {
		return action()
	}
	guard := Override(own)
	defer guard.Restore()
	return action()
}
