package sender

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/speedwagon-io/weatherflux/internal/config"
)

// HTTPWriter posts each line to a line-protocol endpoint such as a
// Telegraf http_listener or an InfluxDB write URL.
type HTTPWriter struct {
	log    *slog.Logger
	url    string
	token  string
	client *http.Client
}

func NewHTTPWriter(log *slog.Logger, cfg config.HTTPSenderConfig, timeout time.Duration) *HTTPWriter {
	return &HTTPWriter{
		log:   log,
		url:   cfg.URL,
		token: cfg.Token,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

func (w *HTTPWriter) Write(ctx context.Context, line string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, strings.NewReader(line))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if w.token != "" {
		req.Header.Set("Authorization", "Token "+w.token)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
}

// Health treats any answer below 500 as reachable.
func (w *HTTPWriter) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, w.url, nil)
	if err != nil {
		return fmt.Errorf("failed to create health request: %w", err)
	}

	if w.token != "" {
		req.Header.Set("Authorization", "Token "+w.token)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return fmt.Errorf("server unhealthy: status %d", resp.StatusCode)
	}

	return nil
}

func (w *HTTPWriter) Name() string {
	return KindHTTP
}

func (w *HTTPWriter) Close() error {
	w.client.CloseIdleConnections()
	return nil
}
