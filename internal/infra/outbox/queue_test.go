package outbox_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lego-house/internal/domain"
	"lego-house/internal/infra"
	"lego-house/internal/infra/outbox"
)

type flakyTransport struct {
	mu       sync.Mutex
	failures int
	attempts int
	sent     []domain.Command
	block    chan struct{}
}

func (f *flakyTransport) Send(_ context.Context, cmd domain.Command) error {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attempts++
	if f.attempts <= f.failures {
		return errors.New("link down")
	}
	f.sent = append(f.sent, cmd)
	return nil
}

func (f *flakyTransport) delivered() []domain.Command {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.Command(nil), f.sent...)
}

func logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func retries(n int) infra.RetryConfig {
	return infra.RetryConfig{MaxAttempts: n, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond, Multiplier: 1}
}

func TestQueue_DeliversInOrder(t *testing.T) {
	next := &flakyTransport{}
	q := outbox.New(next, 8, retries(1), logger())
	q.Start(context.Background())

	require.NoError(t, q.Send(context.Background(), domain.NewModeCommand(domain.ModeMusic)))
	require.NoError(t, q.Send(context.Background(), domain.NewVolumeCommand(4)))
	q.Close()

	sent := next.delivered()
	require.Len(t, sent, 2)
	assert.Equal(t, domain.TargetLight, sent[0].Target)
	assert.Equal(t, 4, sent[1].Level)
}

func TestQueue_FireAndForgetDropsFailedCommand(t *testing.T) {
	next := &flakyTransport{failures: 1}
	q := outbox.New(next, 8, retries(1), logger())
	q.Start(context.Background())

	require.NoError(t, q.Send(context.Background(), domain.NewVolumeCommand(1)))
	require.NoError(t, q.Send(context.Background(), domain.NewVolumeCommand(2)))
	q.Close()

	sent := next.delivered()
	require.Len(t, sent, 1)
	assert.Equal(t, 2, sent[0].Level)
}

func TestQueue_RetriesWhenConfigured(t *testing.T) {
	next := &flakyTransport{failures: 2}
	q := outbox.New(next, 8, retries(3), logger())
	q.Start(context.Background())

	require.NoError(t, q.Send(context.Background(), domain.NewVolumeCommand(7)))
	q.Close()

	assert.Len(t, next.delivered(), 1)
}

func TestQueue_SendNeverBlocks(t *testing.T) {
	next := &flakyTransport{block: make(chan struct{})}
	q := outbox.New(next, 1, retries(1), logger())
	q.Start(context.Background())

	var full bool
	for i := 0; i < 4; i++ {
		if err := q.Send(context.Background(), domain.NewVolumeCommand(i)); errors.Is(err, outbox.ErrQueueFull) {
			full = true
		}
	}
	assert.True(t, full)

	close(next.block)
	q.Close()
	assert.ErrorIs(t, q.Send(context.Background(), domain.NewVolumeCommand(9)), outbox.ErrClosed)
}
