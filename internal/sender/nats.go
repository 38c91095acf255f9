package sender

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/speedwagon-io/weatherflux/internal/config"
	"github.com/speedwagon-io/weatherflux/internal/lib/logger/sl"
)

type natsConn interface {
	Publish(subject string, data []byte) error
	FlushWithContext(ctx context.Context) error
	IsConnected() bool
	Close()
}

// NATSWriter publishes every line on a core NATS subject.
type NATSWriter struct {
	log     *slog.Logger
	conn    natsConn
	subject string
}

func NewNATSWriter(log *slog.Logger, cfg config.NATSSenderConfig, timeout time.Duration) (*NATSWriter, error) {
	conn, err := nats.Connect(cfg.URL,
		nats.Name("weatherflux"),
		nats.Timeout(timeout),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn("nats disconnected", slog.String("url", cfg.URL), sl.Err(err))
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info("nats reconnected", slog.String("url", nc.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats: %w", err)
	}

	return newNATSWriter(log, conn, cfg.Subject), nil
}

func newNATSWriter(log *slog.Logger, conn natsConn, subject string) *NATSWriter {
	return &NATSWriter{
		log:     log,
		conn:    conn,
		subject: subject,
	}
}

func (w *NATSWriter) Write(ctx context.Context, line string) error {
	if err := w.conn.Publish(w.subject, []byte(line)); err != nil {
		return fmt.Errorf("failed to publish line: %w", err)
	}
	return nil
}

func (w *NATSWriter) Health(ctx context.Context) error {
	if !w.conn.IsConnected() {
		return errors.New("nats connection is not established")
	}
	if err := w.conn.FlushWithContext(ctx); err != nil {
		return fmt.Errorf("nats flush failed: %w", err)
	}
	return nil
}

func (w *NATSWriter) Name() string {
	return KindNATS
}

func (w *NATSWriter) Close() error {
	w.conn.Close()
	return nil
}
