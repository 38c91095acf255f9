package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/speedwagon-io/weatherflux/internal/model"
)

var (
	ErrNotFound   = errors.New("configuration file not found")
	ErrUnreadable = errors.New("configuration file is unreadable")
	ErrEmpty      = errors.New("configuration file is empty")
	ErrInvalid    = errors.New("configuration file is invalid")
)

const (
	DefaultPath = "config.json"

	MinReloadInterval = 120
	MinStatsInterval  = 600
)

type Config struct {
	Filters    *[]string            `json:"filters"`
	Tags       model.StaticMetadata `json:"tags"`
	Fields     model.StaticMetadata `json:"fields"`
	ISUMode    string               `json:"isu-mode"`
	UnitSystem UnitSystem           `json:"unit-system"`
	Host       *HostConfig          `json:"host"`

	Influx    InfluxConfig    `json:"influxb"`
	Sender    SenderConfig    `json:"sender"`
	Listen    ListenConfig    `json:"listen"`
	Health    HealthConfig    `json:"health"`
	Log       LogConfig       `json:"log"`
	Inventory InventoryConfig `json:"inventory"`

	ReloadInterval int `json:"reload_interval" env:"WF_CONF_RELOAD" env-default:"120"`
	StatsInterval  int `json:"stats_interval" env:"WF_STAT_PUBLISH" env-default:"600"`
}

type HostConfig struct {
	Override string `json:"override"`
	Drop     bool   `json:"drop"`
}

type InfluxConfig struct {
	URL    string `json:"url" env:"WF_INFLUX_URL"`
	Org    string `json:"org" env:"WF_INFLUX_ORG"`
	Token  string `json:"token" env:"WF_INFLUX_TOKEN"`
	Bucket string `json:"bucket" env:"WF_INFLUX_BUCKET"`
}

// Complete reports whether every connection setting is present.
func (c InfluxConfig) Complete() bool {
	return c.URL != "" && c.Org != "" && c.Token != "" && c.Bucket != ""
}

type SenderConfig struct {
	Kind           string           `json:"kind" env:"WF_SENDER" env-default:"influxdb"`
	TimeoutSeconds int              `json:"timeout_seconds" env-default:"10"`
	HTTP           HTTPSenderConfig `json:"http"`
	MQTT           MQTTSenderConfig `json:"mqtt"`
	NATS           NATSSenderConfig `json:"nats"`
}

type HTTPSenderConfig struct {
	URL   string `json:"url"`
	Token string `json:"token" env:"WF_HTTP_TOKEN"`
}

type MQTTSenderConfig struct {
	Broker   string `json:"broker"`
	ClientID string `json:"client_id" env-default:"weatherflux"`
	Topic    string `json:"topic" env-default:"weatherflux/lines"`
	Username string `json:"username"`
	Password string `json:"password" env:"WF_MQTT_PASSWORD"`
	QoS      int    `json:"qos"`
}

type NATSSenderConfig struct {
	URL     string `json:"url" env-default:"nats://127.0.0.1:4222"`
	Subject string `json:"subject" env-default:"weatherflux.lines"`
}

type ListenConfig struct {
	Address string `json:"address" env:"WF_LISTEN" env-default:"0.0.0.0:50222"`
}

type HealthConfig struct {
	Address string `json:"address" env:"WF_HEALTH" env-default:":8080"`
}

type LogConfig struct {
	Level  string `json:"level" env:"WF_LOG_LEVEL" env-default:"info"`
	Format string `json:"format" env:"WF_LOG_FORMAT" env-default:"json"`
}

type InventoryConfig struct {
	Path        string `json:"path" env:"WF_INVENTORY"`
	MaxAgeHours int    `json:"max_age_hours"`
}

// Read loads, validates and decodes the configuration file at path. The
// returned error wraps one of ErrNotFound, ErrUnreadable, ErrEmpty or
// ErrInvalid.
func Read(path string) (*Config, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmpty
	}

	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if len(top) == 0 {
		return nil, ErrEmpty
	}

	if err := Validate(data); err != nil {
		return nil, err
	}

	var cfg Config
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	return &cfg, nil
}
