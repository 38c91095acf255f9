package collector

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/speedwagon-io/weatherflux/internal/config"
	"github.com/speedwagon-io/weatherflux/internal/inventory"
	"github.com/speedwagon-io/weatherflux/internal/lib/logger/sl"
	"github.com/speedwagon-io/weatherflux/internal/metrics"
	"github.com/speedwagon-io/weatherflux/internal/model"
	"github.com/speedwagon-io/weatherflux/internal/registry"
	"github.com/speedwagon-io/weatherflux/internal/sender"
	"github.com/speedwagon-io/weatherflux/internal/telemetry"
)

// SnapshotSource hands out the configuration snapshot used for one message.
type SnapshotSource interface {
	Load() *config.Snapshot
}

type writerHolder struct {
	w sender.Writer
}

// Stats is a point-in-time copy of the engine counters.
type Stats struct {
	Processed     int64 `json:"processed"`
	Dropped       int64 `json:"dropped"`
	Sent          int64 `json:"sent"`
	Unsent        int64 `json:"unsent"`
	Devices       int   `json:"devices"`
	UptimeSeconds int64 `json:"uptime_seconds"`
}

// Manager runs the engine loop: decode, discover, filter, format, write.
//
// Records are written once. A record that has no writer or whose write
// fails is counted as unsent and dropped; the loop never retries and never
// waits for a slow sink beyond the per-write timeout.
type Manager struct {
	log       *slog.Logger
	store     SnapshotSource
	source    Source
	formatter *telemetry.Formatter
	registry  *registry.Registry
	inventory inventory.Inventory
	metrics   *metrics.Metrics
	mode      Mode

	writer  atomic.Pointer[writerHolder]
	swapMu  sync.Mutex
	started time.Time

	processed atomic.Int64
	dropped   atomic.Int64
	sent      atomic.Int64
	unsent    atomic.Int64

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewManager wires the engine. inv and m may be nil.
func NewManager(
	log *slog.Logger,
	store SnapshotSource,
	source Source,
	reg *registry.Registry,
	inv inventory.Inventory,
	m *metrics.Metrics,
	mode Mode,
) *Manager {
	formatter := telemetry.NewFormatter(log)
	if m != nil {
		formatter.OnWarning = m.FormatWarnings.Inc
	}

	return &Manager{
		log:       log,
		store:     store,
		source:    source,
		formatter: formatter,
		registry:  reg,
		inventory: inv,
		metrics:   m,
		mode:      mode,
		started:   time.Now(),
		stopCh:    make(chan struct{}),
	}
}

func (m *Manager) Mode() Mode {
	return m.mode
}

// Handle processes one datagram.
func (m *Manager) Handle(ctx context.Context, payload []byte) {
	messageID := uuid.NewString()

	env, err := model.EnvelopeFromJSON(payload)
	if err != nil {
		m.log.Debug("dropping malformed message",
			slog.String("message_id", messageID),
			sl.Err(err),
		)
		m.drop(metrics.ReasonMalformed)
		return
	}

	dev := model.IdentifyDevice(env)
	m.discover(dev)
	m.touch(ctx, dev, env.Type, messageID)

	if m.mode == ModeObservation {
		return
	}

	snap := m.store.Load()
	if !snap.Allows(env.Type) {
		m.drop(metrics.ReasonFiltered)
		return
	}

	records, err := m.formatter.Format(env, snap.Engine())
	if err != nil {
		m.log.Warn("dropping message",
			slog.String("message_id", messageID),
			slog.String("type", env.Type),
			sl.Err(err),
		)
		reason := metrics.ReasonMalformed
		if errors.Is(err, telemetry.ErrUnknownType) {
			reason = metrics.ReasonUnknownType
		}
		m.drop(reason)
		return
	}

	for _, record := range records {
		m.write(ctx, snap, record)
	}

	m.processed.Add(1)
	if m.metrics != nil {
		m.metrics.MessagesProcessed.Inc()
	}
}

func (m *Manager) discover(dev model.Device) {
	if !m.registry.Discover(dev.ID) {
		return
	}

	m.log.Info("new device detected",
		slog.String("category", dev.Category.Describe()),
		slog.String("id", dev.ID),
	)
	if m.metrics != nil {
		m.metrics.DevicesDiscovered.Inc()
	}
}

func (m *Manager) touch(ctx context.Context, dev model.Device, typ, messageID string) {
	if m.inventory == nil {
		return
	}

	err := m.inventory.Touch(ctx, inventory.Sighting{
		Device:    dev,
		MessageID: messageID,
		Type:      typ,
		At:        time.Now(),
	})
	if err != nil {
		m.log.Error("failed to update device inventory",
			slog.String("id", dev.ID),
			sl.Err(err),
		)
	}
}

func (m *Manager) write(ctx context.Context, snap *config.Snapshot, record model.Record) {
	holder := m.writer.Load()
	if holder == nil {
		m.miss(metrics.ReasonNoSink)
		return
	}

	writeCtx, cancel := context.WithTimeout(ctx, snap.SendTimeout())
	defer cancel()

	if err := holder.w.Write(writeCtx, record.Line()); err != nil {
		if errors.Is(err, sender.ErrNotConfigured) {
			m.miss(metrics.ReasonNoSink)
			return
		}
		m.log.Warn("failed to write record",
			slog.String("measurement", record.Measurement),
			slog.String("sink", holder.w.Name()),
			sl.Err(err),
		)
		m.miss(metrics.ReasonWriteError)
		return
	}

	m.sent.Add(1)
	if m.metrics != nil {
		m.metrics.RecordsSent.Inc()
	}
}

func (m *Manager) drop(reason string) {
	m.dropped.Add(1)
	if m.metrics != nil {
		m.metrics.MessagesDropped.WithLabelValues(reason).Inc()
	}
}

func (m *Manager) miss(reason string) {
	m.unsent.Add(1)
	if m.metrics != nil {
		m.metrics.RecordsUnsent.WithLabelValues(reason).Inc()
	}
}

// SetWriter replaces the current writer and returns the previous one,
// which the caller owns. w may be nil.
func (m *Manager) SetWriter(w sender.Writer) sender.Writer {
	var next *writerHolder
	if w != nil {
		next = &writerHolder{w: w}
	}
	prev := m.writer.Swap(next)
	if prev == nil {
		return nil
	}
	return prev.w
}

// ConnectSink builds the writer for the current snapshot. A sink that
// cannot be built or is unhealthy leaves the manager without a writer.
func (m *Manager) ConnectSink(ctx context.Context) {
	m.ApplySnapshot(ctx, nil, m.store.Load())
}

// ApplySnapshot rebuilds the writer when the sink settings changed between
// prev and next. In console mode the writer also logs every line, even
// when the sink is unavailable. Observation mode has no writer.
func (m *Manager) ApplySnapshot(ctx context.Context, prev, next *config.Snapshot) {
	if m.mode == ModeObservation || next == nil {
		return
	}
	if prev != nil && !config.SinkChanged(prev, next) {
		return
	}

	m.swapMu.Lock()
	defer m.swapMu.Unlock()

	w, err := sender.Open(ctx, m.log, next)
	if err != nil {
		m.log.Error("sink unavailable, records will be counted as unsent",
			slog.String("kind", next.Config.Sender.Kind),
			sl.Err(err),
		)
	}
	if m.mode == ModeConsole {
		w = sender.NewConsoleWriter(m.log, w)
	}

	if old := m.SetWriter(w); old != nil {
		if err := old.Close(); err != nil {
			m.log.Error("failed to close previous sink", sl.Err(err))
		}
	}
}

// SinkHealth checks the current writer.
func (m *Manager) SinkHealth(ctx context.Context) (string, error) {
	holder := m.writer.Load()
	if holder == nil {
		return "", sender.ErrNotConfigured
	}
	return holder.w.Name(), holder.w.Health(ctx)
}

func (m *Manager) Stats() Stats {
	return Stats{
		Processed:     m.processed.Load(),
		Dropped:       m.dropped.Load(),
		Sent:          m.sent.Load(),
		Unsent:        m.unsent.Load(),
		Devices:       m.registry.Len(),
		UptimeSeconds: int64(time.Since(m.started).Seconds()),
	}
}

// Start runs the source and the maintenance loop until ctx is done or
// Stop is called.
func (m *Manager) Start(ctx context.Context) error {
	m.log.Info("starting engine",
		slog.String("mode", string(m.mode)),
		slog.String("source", m.source.Name()),
	)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	m.wg.Add(1)
	go m.maintain(runCtx)

	go func() {
		select {
		case <-m.stopCh:
			cancel()
		case <-runCtx.Done():
		}
	}()

	m.wg.Add(1)
	defer m.wg.Done()

	return m.source.Run(runCtx, func(payload []byte) {
		m.Handle(runCtx, payload)
	})
}

// Stop ends Start, closes the source and the writer and logs a final
// stats line. It is safe to call more than once.
func (m *Manager) Stop() {
	m.stopOnce.Do(func() {
		close(m.stopCh)
		m.wg.Wait()

		if err := m.source.Close(); err != nil {
			m.log.Error("failed to close source", sl.Err(err))
		}
		if w := m.SetWriter(nil); w != nil {
			if err := w.Close(); err != nil {
				m.log.Error("failed to close sink", sl.Err(err))
			}
		}
		m.logStats()
	})
}

func (m *Manager) maintain(ctx context.Context) {
	defer m.wg.Done()

	interval := m.store.Load().StatsInterval()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-m.stopCh:
			return
		case <-ticker.C:
			snap := m.store.Load()
			m.logStats()
			m.prune(ctx, snap)

			if next := snap.StatsInterval(); next != interval {
				interval = next
				ticker.Reset(interval)
			}
		}
	}
}

func (m *Manager) prune(ctx context.Context, snap *config.Snapshot) {
	if m.inventory == nil || snap.Config.Inventory.MaxAgeHours <= 0 {
		return
	}
	maxAge := time.Duration(snap.Config.Inventory.MaxAgeHours) * time.Hour
	if err := m.inventory.Prune(ctx, maxAge); err != nil {
		m.log.Error("failed to prune device inventory", sl.Err(err))
	}
}

func (m *Manager) logStats() {
	s := m.Stats()
	m.log.Info("engine stats",
		slog.Int64("processed", s.Processed),
		slog.Int64("dropped", s.Dropped),
		slog.Int64("sent", s.Sent),
		slog.Int64("unsent", s.Unsent),
		slog.Int("devices", s.Devices),
		slog.Duration("uptime", time.Since(m.started).Truncate(time.Second)),
	)
}
