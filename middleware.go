package locator

import (
	"context"
	"slices"

	"github.com/xraph/go-utils/log"
	"github.com/xraph/go-utils/metrics"
)

// Middleware observes or vetoes resolution and start of services. Hooks fire
// for top-level resolves and for every dependency a factory resolves through
// its container, in the order the middleware was installed.
type Middleware interface {
	// BeforeResolve runs first; an error aborts the resolve before any
	// factory is called.
	BeforeResolve(ctx context.Context, name string) error

	// AfterResolve sees the outcome of every resolve, failed ones included.
	// An error here replaces the result.
	AfterResolve(ctx context.Context, name string, service any, err error) error

	// BeforeStart runs before a realized singleton is started by Start.
	BeforeStart(ctx context.Context, name string) error

	// AfterStart sees the outcome of every start attempt.
	AfterStart(ctx context.Context, name string, err error) error
}

// middlewareChain is an immutable list; Use swaps in an extended copy so
// resolutions already running keep the chain they started with.
type middlewareChain struct {
	hooks []Middleware
}

func newMiddlewareChain() *middlewareChain {
	return &middlewareChain{}
}

// add appends in place. Only used while the container is being built.
func (m *middlewareChain) add(mw Middleware) {
	m.hooks = append(m.hooks, mw)
}

func (m *middlewareChain) with(mw Middleware) *middlewareChain {
	return &middlewareChain{hooks: append(slices.Clip(m.hooks), mw)}
}

// each calls fn for every hook in order and stops at the first error.
func (m *middlewareChain) each(fn func(Middleware) error) error {
	for _, mw := range m.hooks {
		if err := fn(mw); err != nil {
			return err
		}
	}

	return nil
}

func (m *middlewareChain) beforeResolve(ctx context.Context, name string) error {
	return m.each(func(mw Middleware) error { return mw.BeforeResolve(ctx, name) })
}

func (m *middlewareChain) afterResolve(ctx context.Context, name string, service any, err error) error {
	return m.each(func(mw Middleware) error { return mw.AfterResolve(ctx, name, service, err) })
}

func (m *middlewareChain) beforeStart(ctx context.Context, name string) error {
	return m.each(func(mw Middleware) error { return mw.BeforeStart(ctx, name) })
}

func (m *middlewareChain) afterStart(ctx context.Context, name string, err error) error {
	return m.each(func(mw Middleware) error { return mw.AfterStart(ctx, name, err) })
}

// FuncMiddleware adapts plain functions to Middleware. Nil hooks are no-ops.
type FuncMiddleware struct {
	BeforeResolveFunc func(ctx context.Context, name string) error
	AfterResolveFunc  func(ctx context.Context, name string, service any, err error) error
	BeforeStartFunc   func(ctx context.Context, name string) error
	AfterStartFunc    func(ctx context.Context, name string, err error) error
}

func (f *FuncMiddleware) BeforeResolve(ctx context.Context, name string) error {
	if f.BeforeResolveFunc == nil {
		return nil
	}

	return f.BeforeResolveFunc(ctx, name)
}

func (f *FuncMiddleware) AfterResolve(ctx context.Context, name string, service any, err error) error {
	if f.AfterResolveFunc == nil {
		return nil
	}

	return f.AfterResolveFunc(ctx, name, service, err)
}

func (f *FuncMiddleware) BeforeStart(ctx context.Context, name string) error {
	if f.BeforeStartFunc == nil {
		return nil
	}

	return f.BeforeStartFunc(ctx, name)
}

func (f *FuncMiddleware) AfterStart(ctx context.Context, name string, err error) error {
	if f.AfterStartFunc == nil {
		return nil
	}

	return f.AfterStartFunc(ctx, name, err)
}

// NewLoggingMiddleware logs resolution and start failures at error level and
// successful operations at debug level.
func NewLoggingMiddleware(logger log.Logger) Middleware {
	return &FuncMiddleware{
		AfterResolveFunc: func(_ context.Context, name string, _ any, err error) error {
			switch {
			case err == nil:
				logger.Debug("service resolved", log.String("service", name))
			case IsCircularDependency(err):
				logger.Error("circular dependency", log.String("service", name), log.Error(err))
			default:
				logger.Error("service resolution failed", log.String("service", name), log.Error(err))
			}

			return nil
		},
		AfterStartFunc: func(_ context.Context, name string, err error) error {
			if err != nil {
				logger.Error("service start failed", log.String("service", name), log.Error(err))
			} else {
				logger.Debug("service started", log.String("service", name))
			}

			return nil
		},
	}
}

// Metric names recorded by NewMetricsMiddleware.
const (
	MetricResolutions        = "locator_resolutions_total"
	MetricResolutionFailures = "locator_resolution_failures_total"
	MetricCircular           = "locator_circular_dependencies_total"
	MetricNotFound           = "locator_not_found_total"
	MetricStartFailures      = "locator_start_failures_total"
)

// NewMetricsMiddleware counts resolutions and failures. Counters carry no
// per-service labels to keep cardinality bounded.
func NewMetricsMiddleware(m metrics.MetricFactory) Middleware {
	resolutions := m.Counter(MetricResolutions)
	failures := m.Counter(MetricResolutionFailures)
	circular := m.Counter(MetricCircular)
	notFound := m.Counter(MetricNotFound)
	startFailures := m.Counter(MetricStartFailures)

	return &FuncMiddleware{
		AfterResolveFunc: func(_ context.Context, _ string, _ any, err error) error {
			resolutions.Inc()

			if err == nil {
				return nil
			}

			failures.Inc()

			switch {
			case IsCircularDependency(err):
				circular.Inc()
			case IsNotFound(err):
				notFound.Inc()
			}

			return nil
		},
		AfterStartFunc: func(_ context.Context, _ string, err error) error {
			if err != nil {
				startFailures.Inc()
			}

			return nil
		},
	}
}
