// Package registry exposes one process-wide locator so application code can
// register and look up services without holding a container reference.
//
// Every function forwards to the current container unchanged. Tests swap the
// container with SetContainer or Reset.
package registry

import (
	"sync"

	"github.com/cepho/locator"
)

var (
	mu      sync.RWMutex
	current = locator.New()
)

// Container returns the process-wide container.
func Container() locator.Container {
	mu.RLock()
	defer mu.RUnlock()

	return current
}

// SetContainer replaces the process-wide container and returns the previous one.
func SetContainer(c locator.Container) locator.Container {
	mu.Lock()
	defer mu.Unlock()

	prev := current
	current = c

	return prev
}

// Reset installs a fresh container built with opts.
func Reset(opts ...locator.Option) {
	SetContainer(locator.New(opts...))
}

// RegisterService registers a factory. Services are singletons unless
// locator.Transient() is passed.
func RegisterService(name string, factory locator.Factory, opts ...locator.RegisterOption) error {
	return Container().Register(name, factory, opts...)
}

// RegisterServiceInstance registers a pre-built value.
func RegisterServiceInstance(name string, instance any) error {
	return Container().RegisterInstance(name, instance)
}

// RegisterServices registers a batch, typically from a package's init.
func RegisterServices(regs ...locator.Registration) error {
	return locator.RegisterAll(Container(), regs...)
}

// GetService resolves a service.
func GetService(name string) (any, error) {
	return Container().Resolve(name)
}

// GetServiceAs resolves a service and asserts its type.
func GetServiceAs[T any](name string) (T, error) {
	return locator.Resolve[T](Container(), name)
}

// MustGetService resolves a service or panics. Startup code only.
func MustGetService[T any](name string) T {
	return locator.Must[T](Container(), name)
}

// Has reports whether a service is registered.
func Has(name string) bool {
	return Container().Has(name)
}

// ServiceNames lists registered and resolved service names.
func ServiceNames() []string {
	return Container().Services()
}

// Clear empties the process-wide container. Test use only.
func Clear() {
	Container().Clear()
}
