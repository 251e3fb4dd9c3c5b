package locator

// ServiceKey binds a service name to the Go type stored under it, so a
// mismatched registration or lookup fails to compile instead of failing a
// type assertion at runtime.
//
//	var DatabaseKey = locator.NewServiceKey[*Database]("database")
//
//	locator.RegisterWithKey(c, DatabaseKey, func(c locator.Container) (*Database, error) {
//	    return OpenDatabase(locator.MustWithKey(c, ConfigKey))
//	})
type ServiceKey[T any] struct {
	name string
}

// NewServiceKey creates a key for the service registered as name.
func NewServiceKey[T any](name string) ServiceKey[T] {
	return ServiceKey[T]{name: name}
}

// Name returns the registration name.
func (k ServiceKey[T]) Name() string {
	return k.name
}

// String renders the key as "name (type)".
func (k ServiceKey[T]) String() string {
	return k.name + " (" + typeName[T]() + ")"
}

// RegisterWithKey registers a typed factory under the key's name.
func RegisterWithKey[T any](c Container, key ServiceKey[T], factory func(Container) (T, error), opts ...RegisterOption) error {
	return c.Register(key.name, func(c Container) (any, error) {
		return factory(c)
	}, opts...)
}

// RegisterInstanceWithKey registers a pre-built instance under the key's name.
func RegisterInstanceWithKey[T any](c Container, key ServiceKey[T], instance T) error {
	return c.RegisterInstance(key.name, instance)
}

// ResolveWithKey resolves the key's service as T.
func ResolveWithKey[T any](c Container, key ServiceKey[T]) (T, error) {
	return Resolve[T](c, key.name)
}

// MustWithKey panics with the resolve error. Startup code only.
func MustWithKey[T any](c Container, key ServiceKey[T]) T {
	v, err := ResolveWithKey(c, key)
	if err != nil {
		panic(err)
	}

	return v
}

// HasKey reports whether the key's name is registered.
func HasKey[T any](c Container, key ServiceKey[T]) bool {
	return c.Has(key.name)
}
