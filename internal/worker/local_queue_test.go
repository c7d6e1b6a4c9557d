package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/amqp"
)

type recorder struct {
	mu    sync.Mutex
	calls int
	fail  int
	seen  []string
}

func (r *recorder) handle(_ context.Context, ev *amqp.FinanceEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.fail > 0 {
		r.fail--
		return errors.New("transient")
	}
	r.seen = append(r.seen, ev.EntityID)
	return nil
}

func TestLocalQueue_DeliversOnStop(t *testing.T) {
	rec := &recorder{}
	q := NewLocalQueue(rec.handle, LocalQueueConfig{Buffer: 4}, nil)
	ctx := context.Background()

	require.NoError(t, q.Start(ctx))
	assert.True(t, q.IsRunning())
	assert.Error(t, q.Start(ctx), "second start is rejected")

	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, q.Publish(ctx, amqp.NewTransactionEvent(amqp.TransactionRecorded, "u", id, 2025, 1)))
	}

	stopCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	require.NoError(t, q.Stop(stopCtx))
	assert.False(t, q.IsRunning())
	assert.NoError(t, q.Stop(stopCtx), "stopping twice is a no-op")

	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.Equal(t, []string{"a", "b", "c"}, rec.seen)
}

func TestLocalQueue_Retries(t *testing.T) {
	rec := &recorder{fail: 2}
	q := NewLocalQueue(rec.handle, LocalQueueConfig{Buffer: 1, MaxRetries: 3}, nil)

	q.deliver(context.Background(), amqp.NewProfileEvent("u"))

	assert.Equal(t, 3, rec.calls)
	assert.Equal(t, []string{"u"}, rec.seen)
}

func TestLocalQueue_GivesUp(t *testing.T) {
	rec := &recorder{fail: 10}
	q := NewLocalQueue(rec.handle, LocalQueueConfig{Buffer: 1, MaxRetries: 2}, nil)

	q.deliver(context.Background(), amqp.NewProfileEvent("u"))

	assert.Equal(t, 2, rec.calls)
	assert.Empty(t, rec.seen)
}

func TestLocalQueue_Full(t *testing.T) {
	q := NewLocalQueue((&recorder{}).handle, LocalQueueConfig{Buffer: 1}, nil)
	ctx := context.Background()

	require.NoError(t, q.Publish(ctx, amqp.NewProfileEvent("u")))
	assert.ErrorIs(t, q.Publish(ctx, amqp.NewProfileEvent("u")), ErrQueueFull)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	assert.ErrorIs(t, q.Publish(cancelled, amqp.NewProfileEvent("u")), context.Canceled)
}
