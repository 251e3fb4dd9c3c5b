package locator

import (
	"github.com/xraph/go-utils/di"
	"github.com/xraph/go-utils/log"
)

const (
	// LifecycleSingleton caches the first instance for the container lifetime.
	LifecycleSingleton = "singleton"

	// LifecycleTransient builds a new instance on every resolve.
	LifecycleTransient = "transient"
)

// RegisterOption is go-utils' registration option; options merge left to
// right and the last lifecycle wins.
type RegisterOption = di.RegisterOption

// Singleton caches the first instance. It is the default.
func Singleton() RegisterOption {
	return di.Singleton()
}

// Transient runs the factory on every resolve.
func Transient() RegisterOption {
	return di.Transient()
}

// WithDependencies declares eager dependencies by name.
// Declared dependencies feed Start ordering and Validate; resolution itself
// only follows what the factory actually resolves.
func WithDependencies(deps ...string) RegisterOption {
	return di.WithDependencies(deps...)
}

// WithDeps declares dependencies with explicit modes (eager, lazy, optional).
func WithDeps(deps ...Dep) RegisterOption {
	return di.WithDeps(deps...)
}

// WithMetadata adds diagnostic metadata to a registration.
func WithMetadata(key, value string) RegisterOption {
	return di.WithDIMetadata(key, value)
}

// WithGroup tags the registration for FindByGroup.
func WithGroup(group string) RegisterOption {
	return di.WithGroup(group)
}

func mergeOptions(opts []RegisterOption) RegisterOption {
	return di.MergeOptions(opts)
}

// Option configures a container.
type Option func(*containerConfig)

type containerConfig struct {
	logger     log.Logger
	strict     bool
	middleware []Middleware
}

// WithLogger sets the logger used for registration and lifecycle events.
func WithLogger(l log.Logger) Option {
	return func(cfg *containerConfig) {
		if l != nil {
			cfg.logger = l
		}
	}
}

// WithStrictRegistration makes registering an existing name an error
// instead of replacing the earlier registration.
func WithStrictRegistration() Option {
	return func(cfg *containerConfig) {
		cfg.strict = true
	}
}

// WithMiddleware installs middleware at construction time.
func WithMiddleware(mw ...Middleware) Option {
	return func(cfg *containerConfig) {
		cfg.middleware = append(cfg.middleware, mw...)
	}
}
