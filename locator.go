// Package locator is a service locator with lazy singleton resolution and
// circular dependency detection.
//
// Services are registered by name with a factory. The factory receives the
// container and may resolve its own dependencies from it; nothing is built
// until the first Resolve. Singleton results are cached for the lifetime of
// the container, transient services are rebuilt on every Resolve.
//
// A missing registration or a dependency cycle is reported as a named error
// (see IsNotFound and IsCircularDependency) instead of surfacing later as a
// nil value.
package locator

import (
	"context"

	"github.com/xraph/go-utils/di"
)

// Container resolves named services and caches singletons.
type Container interface {
	// Register adds a service factory under name.
	// A later registration for the same name replaces the earlier one.
	Register(name string, factory Factory, opts ...RegisterOption) error

	// RegisterInstance stores a pre-built value as a resolved singleton.
	RegisterInstance(name string, instance any) error

	// Resolve returns the service registered under name.
	Resolve(name string) (any, error)

	// ResolveContext is Resolve bound to ctx. Cancelling ctx stops waiting
	// on a construction running in another goroutine.
	ResolveContext(ctx context.Context, name string) (any, error)

	// Has reports whether name has a factory or a cached instance.
	Has(name string) bool

	// Services returns the sorted names of all registered or resolved services.
	Services() []string

	// Inspect returns diagnostic information about a service.
	Inspect(name string) ServiceInfo

	// Use appends resolution middleware.
	Use(mw Middleware)

	// Start resolves every singleton in dependency order and starts the
	// ones implementing di.Starter.
	Start(ctx context.Context) error

	// Stop stops started services in reverse order.
	Stop(ctx context.Context) error

	// Health checks every resolved di.HealthChecker.
	Health(ctx context.Context) error

	// Clear drops all registrations and cached instances. Test use only.
	Clear()
}

// Factory creates a service instance. The container passed in is bound to
// the current resolution chain; resolving dependencies through it is what
// makes cycle detection work.
type Factory func(c Container) (any, error)

// Dep is a declared dependency with a resolution mode.
type Dep = di.Dep

// ServiceInfo contains diagnostic information.
type ServiceInfo struct {
	Name         string            `json:"name"`
	Type         string            `json:"type"`
	Lifecycle    string            `json:"lifecycle"`
	Dependencies []string          `json:"dependencies,omitempty"`
	Deps         []Dep             `json:"-"`
	Groups       []string          `json:"groups,omitempty"`
	Registered   bool              `json:"registered"`
	Resolved     bool              `json:"resolved"`
	Started      bool              `json:"started"`
	Healthy      bool              `json:"healthy"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

// New creates a new service locator.
func New(opts ...Option) Container {
	return newContainerImpl(opts...)
}
