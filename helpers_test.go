package locator

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type greeter interface {
	Greet() string
}

type englishGreeter struct{}

func (englishGreeter) Greet() string { return "hello" }

func TestResolve_Typed(t *testing.T) {
	c := New()

	require.NoError(t, RegisterSingleton(c, "database", func(Container) (*databaseService, error) {
		return &databaseService{}, nil
	}))

	db, err := Resolve[*databaseService](c, "database")
	require.NoError(t, err)
	assert.Equal(t, "connected", db.Connect())

	_, err = Resolve[*userService](c, "database")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTypeMismatchSentinel)
	assert.Contains(t, err.Error(), "want *locator.userService, got *locator.databaseService")
}

func TestResolve_TypedInterface(t *testing.T) {
	c := New()

	require.NoError(t, RegisterValue[greeter](c, "greeter", englishGreeter{}))

	g, err := Resolve[greeter](c, "greeter")
	require.NoError(t, err)
	assert.Equal(t, "hello", g.Greet())

	_, err = Resolve[error](c, "greeter")
	assert.Contains(t, err.Error(), "want error, got locator.englishGreeter")
}

func TestRegisterTransient(t *testing.T) {
	c := New()

	require.NoError(t, RegisterTransient(c, "counter", func(Container) (*counter, error) {
		return &counter{}, nil
	}))

	assert.Equal(t, LifecycleTransient, c.Inspect("counter").Lifecycle)
	assert.NotSame(t, Must[*counter](c, "counter"), Must[*counter](c, "counter"))
}

func TestMust(t *testing.T) {
	c := New()

	assert.PanicsWithValue(t,
		"resolve missing: service 'missing' not found (no services registered)",
		func() { Must[*counter](c, "missing") })
}

func TestServiceKey(t *testing.T) {
	c := New()

	databaseKey := NewServiceKey[*databaseService]("database")
	userKey := NewServiceKey[*userService]("userService")

	assert.Equal(t, "database", databaseKey.Name())
	assert.Equal(t, "database (*locator.databaseService)", databaseKey.String())
	assert.False(t, HasKey(c, databaseKey))

	require.NoError(t, RegisterInstanceWithKey(c, databaseKey, &databaseService{}))
	require.NoError(t, RegisterWithKey(c, userKey, func(c Container) (*userService, error) {
		db, err := ResolveWithKey(c, databaseKey)
		if err != nil {
			return nil, err
		}

		return &userService{db: db}, nil
	}))

	assert.True(t, HasKey(c, userKey))
	assert.Equal(t, "users from connected", MustWithKey(c, userKey).GetUsers())
}

type node1 struct {
	peer *Lazy[*node2]
}

type node2 struct {
	peer *node1
}

func TestLazy_BreaksCycle(t *testing.T) {
	c := New()

	require.NoError(t, c.Register("node1", func(c Container) (any, error) {
		return &node1{peer: NewLazy[*node2](c, "node2")}, nil
	}))
	require.NoError(t, c.Register("node2", func(c Container) (any, error) {
		n1, err := Resolve[*node1](c, "node1")
		if err != nil {
			return nil, err
		}

		return &node2{peer: n1}, nil
	}))

	n1, err := Resolve[*node1](c, "node1")
	require.NoError(t, err)
	assert.False(t, n1.peer.IsResolved())
	assert.Equal(t, "node2", n1.peer.Name())

	n2 := n1.peer.MustGet()
	assert.True(t, n1.peer.IsResolved())
	assert.Same(t, n1, n2.peer)
}

func TestLazy_CachesFailure(t *testing.T) {
	c := New()
	lazy := NewLazy[*counter](c, "counter")

	_, err := lazy.Get()
	assert.True(t, IsNotFound(err))

	require.NoError(t, c.RegisterInstance("counter", &counter{}))

	_, err = lazy.Get()
	assert.True(t, IsNotFound(err))
	assert.Panics(t, func() { lazy.MustGet() })
}

func TestProvider(t *testing.T) {
	c := New()

	require.NoError(t, RegisterTransient(c, "counter", func(Container) (*counter, error) {
		return &counter{}, nil
	}))

	p := NewProvider[*counter](c, "counter")
	assert.Equal(t, "counter", p.Name())

	first, err := p.Provide()
	require.NoError(t, err)
	assert.NotSame(t, first, p.MustProvide())

	missing := NewProvider[*counter](c, "missing")
	assert.Panics(t, func() { missing.MustProvide() })
}

func TestRegisterAll(t *testing.T) {
	c := New()
	databaseKey := NewServiceKey[*databaseService]("database")

	err := RegisterAll(c,
		Instance("config", "cfg"),
		KeyedService(databaseKey, func(Container) (*databaseService, error) {
			return &databaseService{}, nil
		}),
		Service("userService", func(c Container) (any, error) {
			db, err := ResolveWithKey(c, databaseKey)
			if err != nil {
				return nil, err
			}

			return &userService{db: db}, nil
		}, WithDependencies("database")),
	)
	require.NoError(t, err)

	assert.Equal(t, []string{"config", "database", "userService"}, c.Services())
	assert.Equal(t, "users from connected", Must[*userService](c, "userService").GetUsers())
}

func TestRegisterAll_Failures(t *testing.T) {
	t.Run("duplicate in batch", func(t *testing.T) {
		c := New()

		err := RegisterAll(c, Instance("a", 1), Instance("a", 2))
		assert.ErrorIs(t, err, ErrServiceAlreadyExistsSentinel)
		assert.Empty(t, c.Services())
	})

	t.Run("stops at first failure", func(t *testing.T) {
		c := New()

		err := RegisterAll(c, Instance("a", 1), Service("b", nil), Instance("c", 3))
		assert.True(t, errors.Is(err, ErrInvalidFactory))
		assert.Equal(t, []string{"a"}, c.Services())
	})
}
