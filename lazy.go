package locator

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// Lazy defers resolving a dependency until first use. A factory that takes a
// Lazy instead of resolving eagerly does not put the dependency on its
// resolution chain, which is the supported way to let two services refer to
// each other.
type Lazy[T any] struct {
	name     string
	get      func() (T, error)
	resolved atomic.Bool
}

// NewLazy returns a handle that resolves name from c on first Get.
func NewLazy[T any](c Container, name string) *Lazy[T] {
	l := &Lazy[T]{name: name}
	l.get = sync.OnceValues(func() (T, error) {
		defer l.resolved.Store(true)

		return Resolve[T](c, name)
	})

	return l
}

// Get resolves on the first call. Later calls return the same outcome,
// a failure included.
func (l *Lazy[T]) Get() (T, error) {
	return l.get()
}

// MustGet is Get for startup code; it panics on failure.
func (l *Lazy[T]) MustGet() T {
	v, err := l.get()
	if err != nil {
		panic(fmt.Sprintf("lazy %s: %v", l.name, err))
	}

	return v
}

// IsResolved reports whether Get has run.
func (l *Lazy[T]) IsResolved() bool {
	return l.resolved.Load()
}

// Name returns the service name the handle resolves.
func (l *Lazy[T]) Name() string {
	return l.name
}

// Provider resolves on every call. Backed by a transient registration it
// hands out a fresh instance each time.
type Provider[T any] struct {
	c    Container
	name string
}

// NewProvider returns a provider resolving name from c.
func NewProvider[T any](c Container, name string) *Provider[T] {
	return &Provider[T]{c: c, name: name}
}

// Provide resolves the service again.
func (p *Provider[T]) Provide() (T, error) {
	return Resolve[T](p.c, p.name)
}

// MustProvide is Provide that panics on failure.
func (p *Provider[T]) MustProvide() T {
	v, err := p.Provide()
	if err != nil {
		panic(fmt.Sprintf("provider %s: %v", p.name, err))
	}

	return v
}

// Name returns the service name the provider resolves.
func (p *Provider[T]) Name() string {
	return p.name
}
