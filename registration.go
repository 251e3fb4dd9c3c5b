package locator

import "fmt"

// Registration is one entry of a batch registration.
type Registration struct {
	Name    string
	Factory Factory
	Options []RegisterOption

	instance    any
	hasInstance bool
}

// Service creates a Registration for RegisterAll.
//
// Example:
//
//	locator.RegisterAll(c,
//	    locator.Service("database", NewDatabase),
//	    locator.Service("userService", NewUserService, locator.WithDependencies("database")),
//	)
func Service(name string, factory Factory, opts ...RegisterOption) Registration {
	return Registration{
		Name:    name,
		Factory: factory,
		Options: opts,
	}
}

// Instance creates a Registration for a pre-built value.
func Instance(name string, value any) Registration {
	return Registration{
		Name:        name,
		instance:    value,
		hasInstance: true,
	}
}

// KeyedService creates a Registration from a typed key and factory.
func KeyedService[T any](key ServiceKey[T], factory func(Container) (T, error), opts ...RegisterOption) Registration {
	return Service(key.name, func(c Container) (any, error) {
		return factory(c)
	}, opts...)
}

// RegisterAll registers entries in order and stops at the first failure.
// A batch naming the same service twice is rejected before anything is
// registered.
func RegisterAll(c Container, regs ...Registration) error {
	seen := make(map[string]bool, len(regs))

	for _, reg := range regs {
		if seen[reg.Name] {
			return fmt.Errorf("batch registers service '%s' twice: %w", reg.Name, ErrServiceAlreadyExistsSentinel)
		}

		seen[reg.Name] = true
	}

	for _, reg := range regs {
		var err error
		if reg.hasInstance {
			err = c.RegisterInstance(reg.Name, reg.instance)
		} else {
			err = c.Register(reg.Name, reg.Factory, reg.Options...)
		}

		if err != nil {
			return err
		}
	}

	return nil
}
