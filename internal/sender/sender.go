// Package sender delivers line-protocol records to a time-series sink.
package sender

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/speedwagon-io/weatherflux/internal/config"
	"github.com/speedwagon-io/weatherflux/internal/lib/logger/sl"
)

var ErrNotConfigured = errors.New("sink is not configured")

const (
	KindInfluxDB = "influxdb"
	KindHTTP     = "http"
	KindMQTT     = "mqtt"
	KindNATS     = "nats"
	KindLog      = "log"
)

// Writer sends one record line at a time. Implementations never retry.
type Writer interface {
	Write(ctx context.Context, line string) error
	Health(ctx context.Context) error
	Name() string
	Close() error
}

// New builds the writer selected by the snapshot's sender kind.
func New(log *slog.Logger, snap *config.Snapshot) (Writer, error) {
	cfg := snap.Config
	timeout := snap.SendTimeout()

	switch cfg.Sender.Kind {
	case KindInfluxDB, "":
		if !cfg.Influx.Complete() {
			return nil, fmt.Errorf("%w: influxb needs url, org, token and bucket", ErrNotConfigured)
		}
		return NewInfluxWriter(log, cfg.Influx, timeout), nil
	case KindHTTP:
		if cfg.Sender.HTTP.URL == "" {
			return nil, fmt.Errorf("%w: sender.http.url is empty", ErrNotConfigured)
		}
		return NewHTTPWriter(log, cfg.Sender.HTTP, timeout), nil
	case KindMQTT:
		if cfg.Sender.MQTT.Broker == "" {
			return nil, fmt.Errorf("%w: sender.mqtt.broker is empty", ErrNotConfigured)
		}
		return NewMQTTWriter(log, cfg.Sender.MQTT, timeout)
	case KindNATS:
		if cfg.Sender.NATS.URL == "" || cfg.Sender.NATS.Subject == "" {
			return nil, fmt.Errorf("%w: sender.nats needs url and subject", ErrNotConfigured)
		}
		return NewNATSWriter(log, cfg.Sender.NATS, timeout)
	case KindLog:
		return NewLogWriter(log), nil
	default:
		return nil, fmt.Errorf("%w: unknown sender kind %q", ErrNotConfigured, cfg.Sender.Kind)
	}
}

// Open builds a writer and checks its health. A writer failing the check
// is closed and not returned.
func Open(ctx context.Context, log *slog.Logger, snap *config.Snapshot) (Writer, error) {
	w, err := New(log, snap)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, snap.SendTimeout())
	defer cancel()

	if err := w.Health(ctx); err != nil {
		if cerr := w.Close(); cerr != nil {
			log.Warn("failed to close unhealthy writer", slog.String("sink", w.Name()), sl.Err(cerr))
		}
		return nil, fmt.Errorf("failed to connect to %s: %w", w.Name(), err)
	}

	log.Info("sink connected", slog.String("sink", w.Name()))
	return w, nil
}

// LogWriter logs lines instead of sending them. Used in console mode.
type LogWriter struct {
	log *slog.Logger
}

func NewLogWriter(log *slog.Logger) *LogWriter {
	return &LogWriter{log: log}
}

func (w *LogWriter) Write(ctx context.Context, line string) error {
	w.log.Info("SEND", slog.String("line", line))
	return nil
}

func (w *LogWriter) Health(ctx context.Context) error {
	return nil
}

func (w *LogWriter) Name() string {
	return KindLog
}

func (w *LogWriter) Close() error {
	return nil
}

func secondsOf(d time.Duration) uint {
	if d < time.Second {
		return 1
	}
	return uint(d / time.Second)
}
