package locator

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Mock service recording lifecycle calls into a shared journal.
type mockService struct {
	name      string
	journal   *[]string
	startErr  error
	stopErr   error
	healthErr error
}

func (m *mockService) Start(context.Context) error {
	if m.startErr != nil {
		return m.startErr
	}

	*m.journal = append(*m.journal, "start:"+m.name)

	return nil
}

func (m *mockService) Stop(context.Context) error {
	*m.journal = append(*m.journal, "stop:"+m.name)

	return m.stopErr
}

func (m *mockService) Health(context.Context) error {
	return m.healthErr
}

func registerMock(t *testing.T, c Container, svc *mockService, deps ...string) {
	t.Helper()

	require.NoError(t, c.Register(svc.name, func(c Container) (any, error) {
		for _, dep := range deps {
			if _, err := c.Resolve(dep); err != nil {
				return nil, err
			}
		}

		return svc, nil
	}, WithDependencies(deps...)))
}

func TestLifecycle_StartStopOrder(t *testing.T) {
	var journal []string
	c := newContainerImpl()

	// Registered before its dependency; Start still follows the graph.
	registerMock(t, c, &mockService{name: "userService", journal: &journal}, "database")
	registerMock(t, c, &mockService{name: "database", journal: &journal})

	ctx := context.Background()
	require.NoError(t, c.Start(ctx))
	assert.True(t, c.Inspect("database").Started)

	// Idempotent.
	require.NoError(t, c.Start(ctx))

	require.NoError(t, c.Stop(ctx))
	assert.False(t, c.Inspect("database").Started)

	assert.Equal(t, []string{
		"start:database",
		"start:userService",
		"stop:userService",
		"stop:database",
	}, journal)
}

func TestLifecycle_StopAfterReRegistration(t *testing.T) {
	var journal []string
	c := newContainerImpl()

	ctx := context.Background()
	require.NoError(t, c.RegisterInstance("cache", &mockService{name: "old", journal: &journal}))
	require.NoError(t, c.Start(ctx))

	require.NoError(t, c.RegisterInstance("cache", &mockService{name: "replacement", journal: &journal}))
	assert.False(t, c.Inspect("cache").Started)

	require.NoError(t, c.Stop(ctx))
	assert.Equal(t, []string{"start:old", "stop:old"}, journal)
}

func TestLifecycle_StartFailureRollsBack(t *testing.T) {
	var journal []string
	c := newContainerImpl()
	boom := errors.New("boom")

	registerMock(t, c, &mockService{name: "database", journal: &journal})
	registerMock(t, c, &mockService{name: "userService", journal: &journal, startErr: boom}, "database")

	err := c.Start(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "service 'userService' error during start")

	assert.Equal(t, []string{"start:database", "stop:database"}, journal)
}

func TestLifecycle_StartDetectsDeclaredCycle(t *testing.T) {
	c := newContainerImpl()

	require.NoError(t, c.Register("a", func(Container) (any, error) { return 1, nil }, WithDependencies("b")))
	require.NoError(t, c.Register("b", func(Container) (any, error) { return 2, nil }, WithDependencies("a")))

	err := c.Start(context.Background())
	assert.True(t, IsCircularDependency(err))
}

func TestLifecycle_StartSkipsTransient(t *testing.T) {
	c := newContainerImpl()

	built := false
	require.NoError(t, c.Register("request", func(Container) (any, error) {
		built = true

		return 1, nil
	}, Transient()))

	require.NoError(t, c.Start(context.Background()))
	assert.False(t, built)
}

func TestLifecycle_StopJoinsErrors(t *testing.T) {
	var journal []string
	c := newContainerImpl()

	registerMock(t, c, &mockService{name: "a", journal: &journal, stopErr: errors.New("a failed")})
	registerMock(t, c, &mockService{name: "b", journal: &journal, stopErr: errors.New("b failed")})

	ctx := context.Background()
	require.NoError(t, c.Start(ctx))

	err := c.Stop(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "a failed")
	assert.Contains(t, err.Error(), "b failed")
	assert.Equal(t, []string{"start:a", "start:b", "stop:b", "stop:a"}, journal)
}

func TestLifecycle_Health(t *testing.T) {
	var journal []string
	c := newContainerImpl()

	sick := &mockService{name: "cache", journal: &journal, healthErr: errors.New("no route to host")}
	registerMock(t, c, &mockService{name: "database", journal: &journal})
	registerMock(t, c, sick)

	ctx := context.Background()

	// Unresolved services are not checked.
	require.NoError(t, c.Health(ctx))

	_, err := c.Resolve("database")
	require.NoError(t, err)
	require.NoError(t, c.Health(ctx))
	assert.True(t, c.Inspect("database").Healthy)

	_, err = c.Resolve("cache")
	require.NoError(t, err)

	err = c.Health(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "service 'cache' error during health")
	assert.False(t, c.Inspect("cache").Healthy)
}
