package locator

import (
	"context"
	"fmt"
	"reflect"
)

// Resolve resolves name and asserts the instance is a T.
func Resolve[T any](c Container, name string) (T, error) {
	return ResolveContext[T](context.Background(), c, name)
}

// ResolveContext resolves with type safety, bound to ctx.
func ResolveContext[T any](ctx context.Context, c Container, name string) (T, error) {
	var zero T

	instance, err := c.ResolveContext(ctx, name)
	if err != nil {
		return zero, err
	}

	typed, ok := instance.(T)
	if !ok {
		return zero, ErrTypeMismatch(name, typeName[T](), instance)
	}

	return typed, nil
}

// Must is Resolve for startup code; it panics on failure.
func Must[T any](c Container, name string) T {
	instance, err := Resolve[T](c, name)
	if err != nil {
		panic(fmt.Sprintf("resolve %s: %v", name, err))
	}

	return instance
}

// RegisterSingleton registers a typed factory whose result is cached.
func RegisterSingleton[T any](c Container, name string, factory func(Container) (T, error), opts ...RegisterOption) error {
	return c.Register(name, func(c Container) (any, error) {
		return factory(c)
	}, append(opts, Singleton())...)
}

// RegisterTransient registers a typed factory that runs on every resolve.
func RegisterTransient[T any](c Container, name string, factory func(Container) (T, error), opts ...RegisterOption) error {
	return c.Register(name, func(c Container) (any, error) {
		return factory(c)
	}, append(opts, Transient())...)
}

// RegisterValue stores a typed pre-built instance.
func RegisterValue[T any](c Container, name string, instance T) error {
	return c.RegisterInstance(name, instance)
}

func typeName[T any]() string {
	return reflect.TypeFor[T]().String()
}
