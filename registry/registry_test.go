package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cepho/locator"
)

type database struct{}

func (database) Connect() string { return "connected" }

type users struct {
	db database
}

func (u users) GetUsers() string { return "users from " + u.db.Connect() }

func isolate(t *testing.T, opts ...locator.Option) {
	t.Helper()

	prev := SetContainer(locator.New(opts...))
	t.Cleanup(func() { SetContainer(prev) })
}

func TestRegistry_RoundTrip(t *testing.T) {
	isolate(t)

	require.NoError(t, RegisterService("database", func(locator.Container) (any, error) {
		return database{}, nil
	}))
	require.NoError(t, RegisterService("userService", func(c locator.Container) (any, error) {
		db, err := locator.Resolve[database](c, "database")
		if err != nil {
			return nil, err
		}

		return users{db: db}, nil
	}))

	svc, err := GetServiceAs[users]("userService")
	require.NoError(t, err)
	assert.Equal(t, "users from connected", svc.GetUsers())

	assert.Equal(t, "users from connected", MustGetService[users]("userService").GetUsers())
	assert.Equal(t, []string{"database", "userService"}, ServiceNames())
}

func TestRegistry_Instance(t *testing.T) {
	isolate(t)

	require.NoError(t, RegisterServiceInstance("config", map[string]string{"env": "test"}))
	assert.True(t, Has("config"))

	v, err := GetService("config")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"env": "test"}, v)
}

func TestRegistry_Batch(t *testing.T) {
	isolate(t)

	require.NoError(t, RegisterServices(
		locator.Instance("database", database{}),
		locator.Service("userService", func(c locator.Container) (any, error) {
			return users{db: locator.Must[database](c, "database")}, nil
		}),
	))

	assert.Equal(t, "users from connected", MustGetService[users]("userService").GetUsers())
}

func TestRegistry_ErrorsPassThrough(t *testing.T) {
	isolate(t)

	_, err := GetService("missing")
	assert.True(t, locator.IsNotFound(err))

	require.NoError(t, RegisterService("loop", func(c locator.Container) (any, error) {
		return c.Resolve("loop")
	}))

	_, err = GetService("loop")
	assert.True(t, locator.IsCircularDependency(err))
}

func TestRegistry_Clear(t *testing.T) {
	isolate(t)

	require.NoError(t, RegisterServiceInstance("config", 1))
	Clear()

	assert.False(t, Has("config"))
	assert.Empty(t, ServiceNames())
}

func TestRegistry_SetContainerAndReset(t *testing.T) {
	isolate(t)

	mine := locator.New()
	require.NoError(t, mine.RegisterInstance("config", 1))

	prev := SetContainer(mine)
	assert.NotSame(t, prev, mine)
	assert.Same(t, mine, Container())
	assert.True(t, Has("config"))

	Reset(locator.WithStrictRegistration())
	assert.False(t, Has("config"))

	require.NoError(t, RegisterServiceInstance("config", 1))
	assert.ErrorIs(t, RegisterServiceInstance("config", 2), locator.ErrServiceAlreadyExistsSentinel)
}
