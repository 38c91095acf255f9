package config

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/speedwagon-io/weatherflux/internal/lib/logger/sl"
)

// Store holds the current configuration snapshot and swaps it as a whole
// on reload. Readers call Load once per message.
type Store struct {
	log  *slog.Logger
	path string

	current atomic.Pointer[Snapshot]

	mu        sync.Mutex
	listeners []func(prev, next *Snapshot)
	failures  []func(err error)
}

// NewStore reads the configuration at path. A failure here is fatal for
// the caller; later reload failures keep the current snapshot.
func NewStore(log *slog.Logger, path string) (*Store, error) {
	cfg, err := Read(path)
	if err != nil {
		return nil, err
	}
	return NewStoreFrom(log, path, cfg), nil
}

// NewStoreFrom builds a store around a configuration already read from
// path.
func NewStoreFrom(log *slog.Logger, path string, cfg *Config) *Store {
	s := &Store{
		log:  log,
		path: path,
	}
	s.current.Store(NewSnapshot(cfg))
	return s
}

func (s *Store) Path() string {
	return s.path
}

func (s *Store) Load() *Snapshot {
	return s.current.Load()
}

// OnChange registers fn to be called after every successful reload.
func (s *Store) OnChange(fn func(prev, next *Snapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// OnError registers fn to be called after every failed reload.
func (s *Store) OnError(fn func(err error)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = append(s.failures, fn)
}

// Reload rereads the file and swaps in a new snapshot. On error the
// current snapshot stays in place.
func (s *Store) Reload() error {
	cfg, err := Read(s.path)
	if err != nil {
		s.log.Error("failed to reload configuration, keeping current one",
			slog.String("path", s.path),
			sl.Err(err),
		)

		s.mu.Lock()
		failures := make([]func(error), len(s.failures))
		copy(failures, s.failures)
		s.mu.Unlock()

		for _, fn := range failures {
			fn(err)
		}
		return fmt.Errorf("failed to reload configuration: %w", err)
	}

	next := NewSnapshot(cfg)
	prev := s.current.Swap(next)

	if prev != nil && prev.Strict() != next.Strict() {
		s.log.Warn("ISU mode changed",
			slog.String("from", modeName(prev.Strict())),
			slog.String("to", modeName(next.Strict())),
		)
	}
	s.log.Debug("configuration reloaded", slog.String("snapshot_id", next.ID))

	s.mu.Lock()
	listeners := make([]func(prev, next *Snapshot), len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(prev, next)
	}
	return nil
}

// Watch reloads on every tick until ctx is done. A zero interval uses the
// interval of the current snapshot.
func (s *Store) Watch(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = s.Load().ReloadInterval()
	}

	s.log.Info("watching configuration",
		slog.String("path", s.path),
		slog.Duration("interval", interval),
	)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = s.Reload()
		}
	}
}

func modeName(strict bool) string {
	if strict {
		return ModeStrict
	}
	return ModeDerived
}
