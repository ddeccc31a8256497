// Package influx records every device command as a time-series point so a
// visitor session can be replayed on a dashboard afterwards.
package influx

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"lego-house/config"
	"lego-house/internal/application"
	"lego-house/internal/domain"
)

const (
	connectTimeout = 5 * time.Second
	measurement    = "device_commands"
)

// ErrDisabled is returned by Connect when InfluxDB is turned off in config.
var ErrDisabled = errors.New("influxdb: disabled")

// PointWriter is the non-blocking subset of api.WriteAPI the recorder uses.
type PointWriter interface {
	WritePoint(p *write.Point)
}

// Recorder forwards commands to the next transport and records them.
// Recording never blocks and never fails the send. It sits in front of the
// outbox so a command is recorded once however many delivery attempts it
// takes.
type Recorder struct {
	next   application.Transport
	writer PointWriter
	close  func()
}

func NewRecorder(next application.Transport, writer PointWriter) *Recorder {
	return &Recorder{next: next, writer: writer, close: func() {}}
}

// Connect opens an InfluxDB client and wraps next with a recorder.
func Connect(cfg config.InfluxDBConfig, next application.Transport, logger *slog.Logger) (*Recorder, error) {
	if !cfg.Enabled {
		return nil, ErrDisabled
	}

	client := influxdb2.NewClient(cfg.URL, cfg.Token)

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	healthy, err := client.Ping(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("pinging influxdb: %w", err)
	}
	if !healthy {
		client.Close()
		return nil, fmt.Errorf("influxdb not healthy")
	}

	writeAPI := client.WriteAPI(cfg.Org, cfg.Bucket)
	go logWriteErrors(writeAPI, logger)

	r := NewRecorder(next, writeAPI)
	r.close = func() {
		writeAPI.Flush()
		client.Close()
	}
	return r, nil
}

func logWriteErrors(w api.WriteAPI, logger *slog.Logger) {
	for err := range w.Errors() {
		logger.Warn("influxdb write failed", "error", err)
	}
}

func (r *Recorder) Send(ctx context.Context, cmd domain.Command) error {
	r.writer.WritePoint(commandPoint(cmd))
	return r.next.Send(ctx, cmd)
}

func (r *Recorder) Close() {
	r.close()
}

func commandPoint(cmd domain.Command) *write.Point {
	fields := map[string]any{"id": cmd.ID.String()}
	switch cmd.Target {
	case domain.TargetLight:
		fields["mode"] = int(cmd.Mode)
		fields["first_floor"] = cmd.Preset.FirstFloor
		fields["second_floor"] = cmd.Preset.SecondFloor
		fields["music"] = cmd.Preset.Music
	case domain.TargetAudio:
		fields["level"] = cmd.Level
	}

	return write.NewPoint(
		measurement,
		map[string]string{"target": string(cmd.Target)},
		fields,
		cmd.IssuedAt,
	)
}
