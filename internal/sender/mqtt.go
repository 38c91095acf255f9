package sender

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/speedwagon-io/weatherflux/internal/config"
	"github.com/speedwagon-io/weatherflux/internal/lib/logger/sl"
)

// MQTTWriter publishes every line as one message on a fixed topic. The
// client reconnects on its own; lines written while disconnected fail.
type MQTTWriter struct {
	log     *slog.Logger
	client  mqtt.Client
	topic   string
	qos     byte
	timeout time.Duration
}

func NewMQTTWriter(log *slog.Logger, cfg config.MQTTSenderConfig, timeout time.Duration) (*MQTTWriter, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetUsername(cfg.Username).
		SetPassword(cfg.Password).
		SetConnectTimeout(timeout).
		SetAutoReconnect(true).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			log.Warn("mqtt connection lost", slog.String("broker", cfg.Broker), sl.Err(err))
		}).
		SetOnConnectHandler(func(_ mqtt.Client) {
			log.Info("connected to mqtt broker", slog.String("broker", cfg.Broker))
		})

	return newMQTTWriter(log, mqtt.NewClient(opts), cfg.Topic, byte(cfg.QoS), timeout)
}

func newMQTTWriter(log *slog.Logger, client mqtt.Client, topic string, qos byte, timeout time.Duration) (*MQTTWriter, error) {
	token := client.Connect()
	if !token.WaitTimeout(timeout) {
		return nil, fmt.Errorf("failed to connect to mqtt broker: timed out after %s", timeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("failed to connect to mqtt broker: %w", err)
	}

	return &MQTTWriter{
		log:     log,
		client:  client,
		topic:   topic,
		qos:     qos,
		timeout: timeout,
	}, nil
}

func (w *MQTTWriter) Write(ctx context.Context, line string) error {
	token := w.client.Publish(w.topic, w.qos, false, line)

	select {
	case <-token.Done():
	case <-ctx.Done():
		return fmt.Errorf("failed to publish line: %w", ctx.Err())
	case <-time.After(w.timeout):
		return fmt.Errorf("failed to publish line: timed out after %s", w.timeout)
	}

	if err := token.Error(); err != nil {
		return fmt.Errorf("failed to publish line: %w", err)
	}
	return nil
}

func (w *MQTTWriter) Health(ctx context.Context) error {
	if !w.client.IsConnectionOpen() {
		return errors.New("mqtt connection is not open")
	}
	return nil
}

func (w *MQTTWriter) Name() string {
	return KindMQTT
}

func (w *MQTTWriter) Close() error {
	w.client.Disconnect(250)
	return nil
}
