package locator

import (
	"context"
	"slices"

	"github.com/xraph/go-utils/di"
	"github.com/xraph/go-utils/errs"
	"github.com/xraph/go-utils/log"
)

// Start resolves every singleton in declared dependency order and calls
// Start on those implementing di.Starter. Already started services are
// skipped, so Start is idempotent. If a service fails to start, every started
// service is stopped again in reverse order.
func (c *containerImpl) Start(ctx context.Context) error {
	order, err := c.startOrder()
	if err != nil {
		return err
	}

	mw := c.middlewareSnapshot()
	count := 0

	for _, name := range order {
		started, err := c.startService(ctx, mw, name)
		if err != nil {
			if stopErr := c.Stop(ctx); stopErr != nil {
				c.logger.Warn("rollback after failed start incomplete", log.Error(stopErr))
			}

			return NewServiceError(name, "start", err)
		}

		if started {
			count++
		}
	}

	c.logger.Info("services started", log.Int("count", count))

	return nil
}

// startOrder sorts registered singletons by their declared eager dependencies.
func (c *containerImpl) startOrder() ([]string, error) {
	c.mu.Lock()
	graph := NewDependencyGraph()

	for _, name := range c.order {
		reg := c.services[name]
		if reg.singleton {
			graph.AddNodeWithDeps(name, reg.deps)
		}
	}
	c.mu.Unlock()

	return graph.TopologicalSortEagerOnly()
}

func (c *containerImpl) startService(ctx context.Context, mw *middlewareChain, name string) (bool, error) {
	c.mu.Lock()
	reg, ok := c.services[name]
	if !ok || reg.started {
		c.mu.Unlock()

		return false, nil
	}
	c.mu.Unlock()

	instance, err := c.ResolveContext(ctx, name)
	if err != nil {
		return false, err
	}

	if err := mw.beforeStart(ctx, name); err != nil {
		return false, err
	}

	var startErr error
	if starter, ok := instance.(di.Starter); ok {
		startErr = starter.Start(ctx)
	}

	if mwErr := mw.afterStart(ctx, name, startErr); mwErr != nil {
		return false, mwErr
	}

	if startErr != nil {
		return false, startErr
	}

	c.mu.Lock()
	if cur := c.services[name]; cur == reg && !reg.started {
		reg.started = true
		c.started = append(c.started, startedService{name: name, reg: reg})
	}
	c.mu.Unlock()

	return true, nil
}

// Stop shuts down started services in reverse start order. Every service is
// attempted; failures are joined into the returned error.
func (c *containerImpl) Stop(ctx context.Context) error {
	c.mu.Lock()
	started := c.started
	c.started = nil

	for _, s := range started {
		s.reg.started = false
	}
	c.mu.Unlock()

	var failures []error

	for _, s := range slices.Backward(started) {
		if stopper, ok := s.reg.instance.(di.Stopper); ok {
			if err := stopper.Stop(ctx); err != nil {
				failures = append(failures, NewServiceError(s.name, "stop", err))
			}
		}
	}

	return errs.Join(failures...)
}

// Health checks every resolved singleton implementing di.HealthChecker.
func (c *containerImpl) Health(ctx context.Context) error {
	type check struct {
		name    string
		checker di.HealthChecker
	}

	c.mu.Lock()
	var checks []check

	for _, name := range c.namesLocked() {
		reg := c.services[name]
		if !reg.resolved {
			continue
		}

		if checker, ok := reg.instance.(di.HealthChecker); ok {
			checks = append(checks, check{name: name, checker: checker})
		}
	}
	c.mu.Unlock()

	var failures []error

	for _, ch := range checks {
		if err := ch.checker.Health(ctx); err != nil {
			failures = append(failures, NewServiceError(ch.name, "health", err))
		}
	}

	return errs.Join(failures...)
}
