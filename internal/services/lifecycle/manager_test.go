package lifecycle

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShutdownRunsHooksInReverseOrder(t *testing.T) {
	m := New(time.Second, nil)
	var order []string
	m.Register("postgres", func(context.Context) error { order = append(order, "postgres"); return nil })
	m.Register("sweeper", func(context.Context) error { order = append(order, "sweeper"); return nil })
	m.Register("nil", nil)
	m.Register("http", func(context.Context) error { order = append(order, "http"); return nil })

	require.NoError(t, m.Shutdown(context.Background()))
	assert.Equal(t, []string{"http", "sweeper", "postgres"}, order)
}

func TestShutdownJoinsErrors(t *testing.T) {
	m := New(time.Second, nil)
	errA := errors.New("a failed")
	errB := errors.New("b failed")
	m.Register("a", func(context.Context) error { return errA })
	m.Register("b", func(context.Context) error { return errB })
	m.Register("c", func(context.Context) error { return nil })

	err := m.Shutdown(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, errA)
	assert.ErrorIs(t, err, errB)
}

func TestGoWaitsForComponentAndReportsFailure(t *testing.T) {
	m := New(time.Second, nil)
	stopped := make(chan struct{})

	m.Go("worker", func() error {
		<-stopped
		return nil
	}, func(context.Context) error {
		close(stopped)
		return nil
	})

	boom := errors.New("listen failed")
	m.Go("server", func() error { return boom }, func(context.Context) error { return nil })

	select {
	case err := <-m.Errors():
		assert.ErrorIs(t, err, boom)
	case <-time.After(time.Second):
		t.Fatal("expected component failure")
	}

	require.NoError(t, m.Shutdown(context.Background()))
}

func TestShutdownTimesOutOnStuckComponent(t *testing.T) {
	m := New(20*time.Millisecond, nil)
	block := make(chan struct{})
	defer close(block)

	m.Go("stuck", func() error {
		<-block
		return nil
	}, func(context.Context) error { return nil })

	err := m.Shutdown(context.Background())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
