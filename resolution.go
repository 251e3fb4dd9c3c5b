package locator

import (
	"context"
	"slices"
	"sync/atomic"
)

// chain is one resolution path, innermost link first. Links are immutable
// once pushed, so a chain can be shared with goroutines a factory spawns.
type chain struct {
	parent *chain
	name   string
	flight *flight // set when this link owns a singleton construction
	closed atomic.Bool
}

func (ch *chain) push(name string, f *flight) *chain {
	return &chain{parent: ch, name: name, flight: f}
}

func (ch *chain) contains(name string) bool {
	for l := ch; l != nil; l = l.parent {
		if l.name == name {
			return true
		}
	}

	return false
}

// names returns the chain root first.
func (ch *chain) names() []string {
	var names []string
	for l := ch; l != nil; l = l.parent {
		names = append(names, l.name)
	}

	slices.Reverse(names)

	return names
}

func (ch *chain) path(name string) []string {
	return append(ch.names(), name)
}

func (ch *chain) owns(f *flight) bool {
	for l := ch; l != nil; l = l.parent {
		if l.flight == f {
			return true
		}
	}

	return false
}

func (ch *chain) innermostFlight() *flight {
	for l := ch; l != nil; l = l.parent {
		if l.flight != nil {
			return l.flight
		}
	}

	return nil
}

// live returns ch, or nil once the construction it belongs to has returned.
// A view kept past its factory (a Lazy, a goroutine) then resolves as a
// fresh top-level call.
func (ch *chain) live() *chain {
	if ch == nil || ch.closed.Load() {
		return nil
	}

	return ch
}

// flight is a singleton construction in progress. Other goroutines asking
// for the same name wait on done instead of running the factory again.
type flight struct {
	name  string
	done  chan struct{}
	value any
	err   error

	// waiting counts the names the owning chain is currently blocked on,
	// either constructing them itself or waiting on another flight.
	// Guarded by containerImpl.mu.
	waiting map[string]int
}

func newFlight(name string) *flight {
	return &flight{
		name:    name,
		done:    make(chan struct{}),
		waiting: make(map[string]int),
	}
}

func (f *flight) finish(value any, err error) {
	f.value = value
	f.err = err
	close(f.done)
}

func (c *containerImpl) markWaitingLocked(ch *chain, name string) {
	if f := ch.innermostFlight(); f != nil {
		f.waiting[name]++
	}
}

func (c *containerImpl) unmarkWaitingLocked(ch *chain, name string) {
	f := ch.innermostFlight()
	if f == nil {
		return
	}

	if f.waiting[name]--; f.waiting[name] <= 0 {
		delete(f.waiting, name)
	}
}

// await blocks until another goroutine finishes constructing f.
// Must be called with c.mu held; it is released before blocking.
func (c *containerImpl) await(ctx context.Context, ch *chain, f *flight) (any, error) {
	if cycle := c.waitCycleLocked(ch, f); cycle != nil {
		c.mu.Unlock()

		return nil, ErrCircularDependency(cycle)
	}

	c.markWaitingLocked(ch, f.name)
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.unmarkWaitingLocked(ch, f.name)
		c.mu.Unlock()
	}()

	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		return nil, NewServiceError(f.name, "resolve", ctx.Err())
	}
}

// waitCycleLocked walks the wait-for edges starting at target. If they lead
// back to a flight owned by ch, waiting would deadlock; the cycle is
// returned as a resolution path ending in the re-entered name.
func (c *containerImpl) waitCycleLocked(ch *chain, target *flight) []string {
	if ch.innermostFlight() == nil {
		return nil
	}

	via := map[string]string{}
	seen := map[string]bool{target.name: true}
	queue := []string{target.name}

	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]

		f := c.flights[name]
		if f == nil {
			continue
		}

		for waitingOn := range f.waiting {
			if seen[waitingOn] {
				continue
			}

			seen[waitingOn] = true
			via[waitingOn] = name

			if wf := c.flights[waitingOn]; wf != nil && ch.owns(wf) {
				tail := []string{waitingOn}
				for n := waitingOn; n != target.name; {
					n = via[n]
					tail = append(tail, n)
				}

				slices.Reverse(tail)

				return append(ch.names(), tail...)
			}

			queue = append(queue, waitingOn)
		}
	}

	return nil
}

// resolver is the container view handed to factories. It carries the
// resolution chain so nested resolves are cycle-checked.
type resolver struct {
	*containerImpl

	ctx   context.Context
	chain *chain
}

// Resolve resolves name as a dependency of the service being built.
func (r *resolver) Resolve(name string) (any, error) {
	ch := r.chain.live()
	if ch == nil {
		return r.resolve(context.Background(), nil, name)
	}

	return r.resolve(r.ctx, ch, name)
}

// ResolveContext resolves name as a dependency, bound to ctx.
func (r *resolver) ResolveContext(ctx context.Context, name string) (any, error) {
	return r.resolve(ctx, r.chain.live(), name)
}
