// Package inventory keeps a persistent record of the devices heard on the
// network.
package inventory

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/speedwagon-io/weatherflux/internal/lib/logger/sl"
	"github.com/speedwagon-io/weatherflux/internal/model"
)

type Inventory interface {
	Touch(ctx context.Context, s Sighting) error
	List(ctx context.Context) ([]Device, error)
	Count(ctx context.Context) (int64, error)
	Prune(ctx context.Context, maxAge time.Duration) error
	Ping(ctx context.Context) error
	Close() error
}

// Sighting is one message heard from a device.
type Sighting struct {
	Device    model.Device
	MessageID string
	Type      string
	At        time.Time
}

type Device struct {
	ID               string    `json:"id"`
	Category         string    `json:"category"`
	FirstSeen        time.Time `json:"first_seen"`
	LastSeen         time.Time `json:"last_seen"`
	LastType         string    `json:"last_type"`
	LastMessageID    string    `json:"last_message_id"`
	Uptime           int64     `json:"uptime"`
	FirmwareRevision int64     `json:"firmware_revision"`
	Messages         int64     `json:"messages"`
}

type SQLiteInventory struct {
	log *slog.Logger
	db  *sql.DB
}

func NewSQLiteInventory(log *slog.Logger, dbPath string) (*SQLiteInventory, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create inventory directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	inv := &SQLiteInventory{
		log: log,
		db:  db,
	}

	if err := inv.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return inv, nil
}

func (i *SQLiteInventory) migrate() error {
	query := `
		CREATE TABLE IF NOT EXISTS devices (
			id TEXT PRIMARY KEY,
			category TEXT NOT NULL,
			first_seen TEXT NOT NULL,
			last_seen TEXT NOT NULL,
			last_type TEXT NOT NULL DEFAULT '',
			last_message_id TEXT NOT NULL DEFAULT '',
			uptime INTEGER NOT NULL DEFAULT 0,
			firmware_revision INTEGER NOT NULL DEFAULT 0,
			messages INTEGER NOT NULL DEFAULT 0
		);
		CREATE INDEX IF NOT EXISTS idx_devices_last_seen ON devices(last_seen);
	`
	_, err := i.db.Exec(query)
	return err
}

// Touch inserts the device or bumps its last sighting. Uptime and firmware
// revision are only overwritten by messages that carry them.
func (i *SQLiteInventory) Touch(ctx context.Context, s Sighting) error {
	at := s.At
	if at.IsZero() {
		at = time.Now()
	}
	ts := at.UTC().Format(time.RFC3339)

	query := `
		INSERT INTO devices (id, category, first_seen, last_seen, last_type, last_message_id, uptime, firmware_revision, messages)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, 1)
		ON CONFLICT(id) DO UPDATE SET
			last_seen = excluded.last_seen,
			last_type = excluded.last_type,
			last_message_id = excluded.last_message_id,
			uptime = CASE WHEN excluded.uptime > 0 THEN excluded.uptime ELSE devices.uptime END,
			firmware_revision = CASE WHEN excluded.firmware_revision > 0 THEN excluded.firmware_revision ELSE devices.firmware_revision END,
			messages = devices.messages + 1
	`

	_, err := i.db.ExecContext(ctx, query,
		s.Device.ID,
		string(s.Device.Category),
		ts,
		ts,
		s.Type,
		s.MessageID,
		s.Device.Uptime,
		s.Device.FirmwareRevision,
	)
	if err != nil {
		return fmt.Errorf("failed to touch device %s: %w", s.Device.ID, err)
	}

	return nil
}

func (i *SQLiteInventory) List(ctx context.Context) ([]Device, error) {
	query := `
		SELECT id, category, first_seen, last_seen, last_type, last_message_id, uptime, firmware_revision, messages
		FROM devices
		ORDER BY id ASC
	`

	rows, err := i.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query devices: %w", err)
	}
	defer rows.Close()

	var devices []Device
	for rows.Next() {
		var (
			d                   Device
			firstSeen, lastSeen string
		)

		if err := rows.Scan(&d.ID, &d.Category, &firstSeen, &lastSeen, &d.LastType, &d.LastMessageID,
			&d.Uptime, &d.FirmwareRevision, &d.Messages); err != nil {
			i.log.Error("failed to scan row", sl.Err(err))
			continue
		}

		if d.FirstSeen, err = time.Parse(time.RFC3339, firstSeen); err != nil {
			i.log.Error("failed to parse first_seen", slog.String("device_id", d.ID), sl.Err(err))
			continue
		}
		if d.LastSeen, err = time.Parse(time.RFC3339, lastSeen); err != nil {
			i.log.Error("failed to parse last_seen", slog.String("device_id", d.ID), sl.Err(err))
			continue
		}

		devices = append(devices, d)
	}

	return devices, rows.Err()
}

func (i *SQLiteInventory) Count(ctx context.Context) (int64, error) {
	var count int64
	err := i.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM devices").Scan(&count)
	return count, err
}

// Prune removes devices not heard from within maxAge.
func (i *SQLiteInventory) Prune(ctx context.Context, maxAge time.Duration) error {
	cutoff := time.Now().UTC().Add(-maxAge).Format(time.RFC3339)

	result, err := i.db.ExecContext(ctx, "DELETE FROM devices WHERE last_seen < ?", cutoff)
	if err != nil {
		return fmt.Errorf("failed to prune devices: %w", err)
	}

	deleted, _ := result.RowsAffected()
	if deleted > 0 {
		i.log.Info("pruned stale devices", slog.Int64("deleted", deleted))
	}

	return nil
}

func (i *SQLiteInventory) Ping(ctx context.Context) error {
	return i.db.PingContext(ctx)
}

func (i *SQLiteInventory) Close() error {
	return i.db.Close()
}
