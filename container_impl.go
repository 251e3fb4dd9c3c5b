package locator

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"

	"github.com/xraph/go-utils/di"
	"github.com/xraph/go-utils/log"
)

// containerImpl implements Container.
//
// All registration, cache and in-flight state is guarded by mu. Factories
// always run without mu held.
type containerImpl struct {
	mu         sync.Mutex
	services   map[string]*serviceRegistration
	order      []string           // registration order, for Start
	flights    map[string]*flight // singleton constructions in progress
	middleware *middlewareChain
	logger     log.Logger
	strict     bool
	started    []startedService // in start order
}

// startedService pins the registration Start ran, so Stop reaches that
// instance even if the name has been registered again since.
type startedService struct {
	name string
	reg  *serviceRegistration
}

// serviceRegistration is one name's factory plus, once built, its instance.
type serviceRegistration struct {
	name         string
	factory      Factory // nil for RegisterInstance
	singleton    bool
	dependencies []string
	deps         []di.Dep
	groups       []string
	metadata     map[string]string
	instance     any
	resolved     bool
	started      bool
}

func (r *serviceRegistration) lifecycle() string {
	if r.singleton {
		return LifecycleSingleton
	}

	return LifecycleTransient
}

// newContainerImpl creates a new container implementation.
func newContainerImpl(opts ...Option) *containerImpl {
	cfg := containerConfig{logger: log.NewNoopLogger()}
	for _, opt := range opts {
		opt(&cfg)
	}

	c := &containerImpl{
		services:   make(map[string]*serviceRegistration),
		flights:    make(map[string]*flight),
		middleware: newMiddlewareChain(),
		logger:     cfg.logger,
		strict:     cfg.strict,
	}

	for _, mw := range cfg.middleware {
		c.middleware.add(mw)
	}

	return c
}

// Register stores factory under name, replacing any earlier registration
// unless the container is strict.
func (c *containerImpl) Register(name string, factory Factory, opts ...RegisterOption) error {
	if factory == nil {
		return ErrInvalidFactory
	}

	merged := mergeOptions(opts)

	var singleton bool

	switch merged.Lifecycle {
	case LifecycleSingleton:
		singleton = true
	case LifecycleTransient:
		singleton = false
	default:
		return ErrUnsupportedLifecycle(name, merged.Lifecycle)
	}

	return c.store(&serviceRegistration{
		name:         name,
		factory:      factory,
		singleton:    singleton,
		dependencies: merged.GetAllDepNames(),
		deps:         merged.GetAllDeps(),
		groups:       merged.Groups,
		metadata:     merged.Metadata,
	})
}

// RegisterInstance stores a pre-built value as a resolved singleton.
func (c *containerImpl) RegisterInstance(name string, instance any) error {
	return c.store(&serviceRegistration{
		name:      name,
		singleton: true,
		instance:  instance,
		resolved:  true,
		metadata:  map[string]string{},
	})
}

func (c *containerImpl) store(reg *serviceRegistration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.services[reg.name]; exists {
		if c.strict {
			return ErrServiceAlreadyExists(reg.name)
		}

		c.logger.Warn("service re-registered, previous registration replaced",
			log.String("service", reg.name))

		c.order = slices.DeleteFunc(c.order, func(n string) bool { return n == reg.name })

		// A construction of the old registration may still be running;
		// later resolves must not join it.
		delete(c.flights, reg.name)
	}

	c.services[reg.name] = reg
	c.order = append(c.order, reg.name)

	return nil
}

// Resolve runs a top-level resolution with a background context.
func (c *containerImpl) Resolve(name string) (any, error) {
	return c.resolve(context.Background(), nil, name)
}

// ResolveContext returns a service by name, giving up on waits when ctx ends.
func (c *containerImpl) ResolveContext(ctx context.Context, name string) (any, error) {
	return c.resolve(ctx, nil, name)
}

// resolve wraps resolveInternal with middleware.
func (c *containerImpl) resolve(ctx context.Context, ch *chain, name string) (any, error) {
	mw := c.middlewareSnapshot()

	if err := mw.beforeResolve(ctx, name); err != nil {
		return nil, err
	}

	service, err := c.resolveInternal(ctx, ch, name)

	if mwErr := mw.afterResolve(ctx, name, service, err); mwErr != nil {
		return nil, mwErr
	}

	return service, err
}

// resolveInternal checks the cache, then the chain for cycles, then the
// registrations, and finally constructs.
func (c *containerImpl) resolveInternal(ctx context.Context, ch *chain, name string) (any, error) {
	c.mu.Lock()

	reg, exists := c.services[name]
	if exists && reg.resolved {
		instance := reg.instance
		c.mu.Unlock()

		return instance, nil
	}

	if ch.contains(name) {
		c.mu.Unlock()

		return nil, ErrCircularDependency(ch.path(name))
	}

	if !exists {
		known := c.namesLocked()
		c.mu.Unlock()

		return nil, ErrServiceNotFound(name, known)
	}

	if !reg.singleton {
		factory := reg.factory
		c.markWaitingLocked(ch, name)
		c.mu.Unlock()

		instance, err := c.construct(ctx, ch.push(name, nil), name, factory)

		c.mu.Lock()
		c.unmarkWaitingLocked(ch, name)
		c.mu.Unlock()

		return instance, err
	}

	if f, busy := c.flights[name]; busy {
		return c.await(ctx, ch, f) // releases mu
	}

	f := newFlight(name)
	c.flights[name] = f
	c.markWaitingLocked(ch, name)
	factory := reg.factory
	c.mu.Unlock()

	instance, err := c.construct(ctx, ch.push(name, f), name, factory)

	c.mu.Lock()
	if c.flights[name] == f {
		delete(c.flights, name)
	}
	c.unmarkWaitingLocked(ch, name)

	// The registration may have been replaced or cleared while the factory ran.
	if err == nil && c.services[name] == reg {
		reg.instance = instance
		reg.resolved = true
	}
	c.mu.Unlock()

	f.finish(instance, err)

	return instance, err
}

// construct runs a factory with a container view bound to ch.
// A panicking factory is reported as a service error; the chain link is
// closed either way.
func (c *containerImpl) construct(ctx context.Context, ch *chain, name string, factory Factory) (instance any, err error) {
	defer ch.closed.Store(true)
	defer func() {
		if r := recover(); r != nil {
			instance = nil
			err = NewServiceError(name, "resolve", fmt.Errorf("factory panic: %v", r))
		}
	}()

	instance, err = factory(&resolver{containerImpl: c, ctx: ctx, chain: ch})
	if err != nil {
		return nil, NewServiceError(name, "resolve", err)
	}

	return instance, nil
}

// Use appends mw. Resolutions already running keep their chain.
func (c *containerImpl) Use(mw Middleware) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.middleware = c.middleware.with(mw)
}

func (c *containerImpl) middlewareSnapshot() *middlewareChain {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.middleware
}

// Has reports whether name is registered.
func (c *containerImpl) Has(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, exists := c.services[name]

	return exists
}

// Services returns every registered name, sorted.
func (c *containerImpl) Services() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.namesLocked()
}

func (c *containerImpl) namesLocked() []string {
	names := make([]string, 0, len(c.services))
	for name := range c.services {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// Clear drops every registration, cached instance and in-flight record.
func (c *containerImpl) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.services = make(map[string]*serviceRegistration)
	c.flights = make(map[string]*flight)
	c.order = nil
	c.started = nil
}

// Inspect describes a service without resolving it. Resolved health
// checkers are probed.
func (c *containerImpl) Inspect(name string) ServiceInfo {
	c.mu.Lock()
	reg, exists := c.services[name]
	if !exists {
		c.mu.Unlock()

		return ServiceInfo{Name: name}
	}

	info := ServiceInfo{
		Name:         name,
		Type:         "unknown",
		Lifecycle:    reg.lifecycle(),
		Dependencies: slices.Clone(reg.dependencies),
		Deps:         slices.Clone(reg.deps),
		Groups:       slices.Clone(reg.groups),
		Registered:   true,
		Resolved:     reg.resolved,
		Started:      reg.started,
		Metadata:     make(map[string]string, len(reg.metadata)),
	}

	for k, v := range reg.metadata {
		info.Metadata[k] = v
	}

	instance := reg.instance
	c.mu.Unlock()

	if info.Resolved {
		info.Type = fmt.Sprintf("%T", instance)
		info.Healthy = true

		if checker, ok := instance.(di.HealthChecker); ok {
			info.Healthy = checker.Health(context.Background()) == nil
		}
	}

	return info
}
