package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestRead_Full(t *testing.T) {
	path := writeConfig(t, `{
		"filters": ["obs_st", "evt_strike"],
		"tags": {"*": {"location": "Home"}, "st*": {"kind": "tempest"}},
		"fields": {"ST-00000512": {"altitude": 42}},
		"unit-system": ["strict"],
		"influxb": {"url": "http://influx:8086", "org": "home", "token": "secret", "bucket": "weather"},
		"sender": {"kind": "http", "http": {"url": "http://telegraf:8186/write"}},
		"log": {"level": "debug", "format": "pretty"},
		"reload_interval": 300
	}`)

	cfg, err := Read(path)
	require.NoError(t, err)

	require.NotNil(t, cfg.Filters)
	assert.Equal(t, []string{"obs_st", "evt_strike"}, *cfg.Filters)
	assert.Equal(t, UnitSystem{"strict"}, cfg.UnitSystem)
	assert.True(t, cfg.Influx.Complete())
	assert.Equal(t, "http", cfg.Sender.Kind)
	assert.Equal(t, "http://telegraf:8186/write", cfg.Sender.HTTP.URL)
	assert.Equal(t, 10, cfg.Sender.TimeoutSeconds)
	assert.Equal(t, "0.0.0.0:50222", cfg.Listen.Address)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 300, cfg.ReloadInterval)
	assert.Equal(t, 600, cfg.StatsInterval)
	assert.Equal(t, []string{"location"}, cfg.Tags["*"].Keys())
}

func TestRead_EnvOverrides(t *testing.T) {
	t.Setenv("WF_CONF_RELOAD", "900")
	t.Setenv("WF_INFLUX_TOKEN", "from-env")

	cfg, err := Read(writeConfig(t, `{"influxb": {"url": "http://influx:8086"}}`))
	require.NoError(t, err)
	assert.Equal(t, 900, cfg.ReloadInterval)
	assert.Equal(t, "from-env", cfg.Influx.Token)
}

func TestRead_Failures(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr error
	}{
		{name: "blank file", body: "  \n", wantErr: ErrEmpty},
		{name: "empty object", body: `{}`, wantErr: ErrEmpty},
		{name: "not json", body: `{"tags":`, wantErr: ErrInvalid},
		{name: "not an object", body: `[1,2]`, wantErr: ErrInvalid},
		{name: "bad isu mode", body: `{"isu-mode": "imperial"}`, wantErr: ErrInvalid},
		{name: "filters not a list", body: `{"filters": "obs_st"}`, wantErr: ErrInvalid},
		{name: "nested tag value", body: `{"tags": {"*": {"host": {"name": "x"}}}}`, wantErr: ErrInvalid},
		{name: "unknown sender", body: `{"sender": {"kind": "kafka"}}`, wantErr: ErrInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(writeConfig(t, tt.body))
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestRead_NotFound(t *testing.T) {
	_, err := Read(filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRead_EmptyArrayScopes(t *testing.T) {
	cfg, err := Read(writeConfig(t, `{"tags": [], "fields": {"*": []}}`))
	require.NoError(t, err)
	assert.Empty(t, cfg.Tags)
	assert.Equal(t, 0, cfg.Fields["*"].Len())
}

func TestRead_Example(t *testing.T) {
	cfg, err := Read(filepath.Join("..", "..", "config.example.json"))
	require.NoError(t, err)

	snap := NewSnapshot(cfg)
	assert.True(t, snap.Allows("hub_status"))
	assert.False(t, snap.Strict())
	assert.Equal(t, 720, cfg.Inventory.MaxAgeHours)
	host, ok := snap.Engine().Tags["*"].Get("host")
	require.True(t, ok)
	assert.Equal(t, "weather-pi", host)
}
