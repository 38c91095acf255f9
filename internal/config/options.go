package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/speedwagon-io/weatherflux/internal/model"
	"github.com/speedwagon-io/weatherflux/internal/telemetry"
)

const (
	ModeStrict  = "strict"
	ModeDerived = "derived"
)

// UnitSystem accepts either a string or a list of strings.
type UnitSystem []string

func (u *UnitSystem) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*u = nil
		return nil
	}

	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*u = UnitSystem{single}
		return nil
	}

	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("unit-system must be a string or a list of strings: %w", err)
	}
	*u = list
	return nil
}

func (u UnitSystem) Strict() bool {
	for _, v := range u {
		if strings.EqualFold(strings.TrimSpace(v), ModeStrict) {
			return true
		}
	}
	return false
}

var hostname = os.Hostname

var hostCleaner = strings.NewReplacer(",", "", ";", "")

// Snapshot is an immutable view of one loaded configuration.
type Snapshot struct {
	ID       string
	LoadedAt time.Time
	Config   *Config

	filters map[string]struct{}
	engine  telemetry.Options
}

// NewSnapshot derives the engine options from cfg. Static metadata keys are
// upper-cased and the host tag is applied to the global scope.
func NewSnapshot(cfg *Config) *Snapshot {
	tags := cfg.Tags.Normalized()
	fields := cfg.Fields.Normalized()
	applyHost(tags, cfg.Host)

	var filters map[string]struct{}
	if cfg.Filters != nil {
		filters = make(map[string]struct{}, len(*cfg.Filters))
		for _, typ := range *cfg.Filters {
			filters[strings.TrimSpace(typ)] = struct{}{}
		}
	}

	return &Snapshot{
		ID:       uuid.NewString(),
		LoadedAt: time.Now(),
		Config:   cfg,
		filters:  filters,
		engine: telemetry.Options{
			Tags:   tags,
			Fields: fields,
			Strict: cfg.ISUMode == ModeStrict || cfg.UnitSystem.Strict(),
		},
	}
}

func applyHost(tags model.StaticMetadata, host *HostConfig) {
	if host == nil {
		return
	}

	if host.Drop {
		if global, ok := tags[model.Wildcard]; ok {
			global.Delete("host")
		}
		return
	}

	name := strings.TrimSpace(host.Override)
	if name == "" {
		if h, err := hostname(); err == nil {
			name = h
		}
	}
	name = hostCleaner.Replace(name)
	if name == "" {
		return
	}

	global, ok := tags[model.Wildcard]
	if !ok || global == nil {
		global = model.NewItems()
		tags[model.Wildcard] = global
	}
	global.Set("host", name)
}

// Engine returns the formatter options. The metadata must not be modified.
func (s *Snapshot) Engine() telemetry.Options {
	return s.engine
}

func (s *Snapshot) Strict() bool {
	return s.engine.Strict
}

// Allows reports whether a message type passes the filter allow-list. An
// absent list allows every known type, an empty one allows none.
func (s *Snapshot) Allows(typ string) bool {
	if s.filters == nil {
		return telemetry.IsKnownType(typ)
	}
	_, ok := s.filters[typ]
	return ok
}

func (s *Snapshot) ReloadInterval() time.Duration {
	return time.Duration(max(s.Config.ReloadInterval, MinReloadInterval)) * time.Second
}

func (s *Snapshot) StatsInterval() time.Duration {
	return time.Duration(max(s.Config.StatsInterval, MinStatsInterval)) * time.Second
}

func (s *Snapshot) SendTimeout() time.Duration {
	if s.Config.Sender.TimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(s.Config.Sender.TimeoutSeconds) * time.Second
}

// SinkChanged reports whether the sink settings differ between snapshots.
func SinkChanged(prev, next *Snapshot) bool {
	if prev == nil || next == nil {
		return prev != next
	}
	return prev.Config.Sender != next.Config.Sender || prev.Config.Influx != next.Config.Influx
}
