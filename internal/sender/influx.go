package sender

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/domain"

	"github.com/speedwagon-io/weatherflux/internal/config"
)

// InfluxWriter writes lines with millisecond precision through the
// blocking write API of an InfluxDB v2 server.
type InfluxWriter struct {
	log    *slog.Logger
	client influxdb2.Client
	write  api.WriteAPIBlocking
	url    string
}

func NewInfluxWriter(log *slog.Logger, cfg config.InfluxConfig, timeout time.Duration) *InfluxWriter {
	opts := influxdb2.DefaultOptions().
		SetPrecision(time.Millisecond).
		SetHTTPRequestTimeout(secondsOf(timeout)).
		SetMaxRetries(0).
		SetApplicationName("weatherflux")

	client := influxdb2.NewClientWithOptions(cfg.URL, cfg.Token, opts)

	return &InfluxWriter{
		log:    log,
		client: client,
		write:  client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
		url:    cfg.URL,
	}
}

func (w *InfluxWriter) Write(ctx context.Context, line string) error {
	if err := w.write.WriteRecord(ctx, line); err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	}
	return nil
}

func (w *InfluxWriter) Health(ctx context.Context) error {
	health, err := w.client.Health(ctx)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}

	if health.Status != domain.HealthCheckStatusPass {
		msg := ""
		if health.Message != nil {
			msg = *health.Message
		}
		return fmt.Errorf("server unhealthy: status %s: %s", health.Status, msg)
	}

	version := "unknown"
	if health.Version != nil {
		version = *health.Version
	}
	w.log.Debug("influxdb healthy", slog.String("url", w.url), slog.String("version", version))
	return nil
}

func (w *InfluxWriter) Name() string {
	return KindInfluxDB
}

func (w *InfluxWriter) Close() error {
	w.client.Close()
	return nil
}
