package influx_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lego-house/config"
	"lego-house/internal/domain"
	"lego-house/internal/infra"
	"lego-house/internal/infra/influx"
	"lego-house/internal/infra/outbox"
)

type memoryWriter struct {
	points []*write.Point
}

func (m *memoryWriter) WritePoint(p *write.Point) { m.points = append(m.points, p) }

type countingTransport struct{ n int }

func (c *countingTransport) Send(context.Context, domain.Command) error {
	c.n++
	return nil
}

func fieldMap(p *write.Point) map[string]any {
	out := map[string]any{}
	for _, f := range p.FieldList() {
		out[f.Key] = f.Value
	}
	return out
}

func TestRecorder_RecordsAndForwards(t *testing.T) {
	w := &memoryWriter{}
	next := &countingTransport{}
	r := influx.NewRecorder(next, w)

	require.NoError(t, r.Send(context.Background(), domain.NewModeCommand(domain.ModeMusic)))
	require.NoError(t, r.Send(context.Background(), domain.NewVolumeCommand(6)))

	assert.Equal(t, 2, next.n)
	require.Len(t, w.points, 2)

	assert.Equal(t, "device_commands", w.points[0].Name())
	assert.Equal(t, "light", w.points[0].TagList()[0].Value)
	assert.Equal(t, true, fieldMap(w.points[0])["music"])

	assert.Equal(t, "audio", w.points[1].TagList()[0].Value)
	assert.EqualValues(t, 6, fieldMap(w.points[1])["level"])
}

func TestConnect_Disabled(t *testing.T) {
	_, err := influx.Connect(config.InfluxDBConfig{}, &countingTransport{}, nil)
	assert.ErrorIs(t, err, influx.ErrDisabled)
}

type flakyTransport struct {
	mu       sync.Mutex
	failures int
	attempts int
}

func (f *flakyTransport) Send(context.Context, domain.Command) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attempts++
	if f.attempts <= f.failures {
		return errors.New("broker busy")
	}
	return nil
}

func TestRecorder_InFrontOfOutboxRecordsOnce(t *testing.T) {
	backend := &flakyTransport{failures: 2}
	retry := infra.RetryConfig{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond, Multiplier: 1}
	queue := outbox.New(backend, 4, retry, slog.New(slog.NewTextHandler(io.Discard, nil)))
	queue.Start(context.Background())

	w := &memoryWriter{}
	r := influx.NewRecorder(queue, w)

	require.NoError(t, r.Send(context.Background(), domain.NewVolumeCommand(4)))
	queue.Close()

	assert.Equal(t, 3, backend.attempts)
	assert.Len(t, w.points, 1)
}
