package buffer

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/speedwagon-io/levelmon/internal/lib/logger/sl"
	"github.com/speedwagon-io/levelmon/internal/model"
)

// Buffer holds reading envelopes the uplink could not deliver.
type Buffer interface {
	Store(ctx context.Context, envelope *model.Envelope) error
	GetPending(ctx context.Context, limit int) ([]*model.Envelope, error)
	MarkSent(ctx context.Context, ids []string) error
	Cleanup(ctx context.Context, maxAge time.Duration) error
	Count(ctx context.Context) (int64, error)
	Close() error
}

// fixed width so created_at sorts lexically
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

type SQLiteBuffer struct {
	log *slog.Logger
	db  *sql.DB
}

func NewSQLiteBuffer(log *slog.Logger, dbPath string) (*SQLiteBuffer, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create buffer directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	buf := &SQLiteBuffer{
		log: log,
		db:  db,
	}

	if err := buf.migrate(); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return buf, nil
}

func (b *SQLiteBuffer) migrate() error {
	query := `
		CREATE TABLE IF NOT EXISTS readings (
			id TEXT PRIMARY KEY,
			device_id TEXT NOT NULL,
			device_name TEXT,
			timestamp TEXT NOT NULL,
			water_status TEXT NOT NULL,
			reading_json TEXT NOT NULL,
			created_at TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_readings_created_at ON readings(created_at);
	`
	_, err := b.db.Exec(query)
	return err
}

func (b *SQLiteBuffer) Store(ctx context.Context, envelope *model.Envelope) error {
	readingJSON, err := json.Marshal(envelope.Reading)
	if err != nil {
		return fmt.Errorf("failed to marshal reading: %w", err)
	}

	query := `
		INSERT OR IGNORE INTO readings (id, device_id, device_name, timestamp, water_status, reading_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err = b.db.ExecContext(ctx, query,
		envelope.ID,
		envelope.DeviceID,
		envelope.DeviceName,
		envelope.Timestamp.Format(timeLayout),
		envelope.Reading.WaterStatus,
		string(readingJSON),
		time.Now().UTC().Format(timeLayout),
	)

	if err != nil {
		return fmt.Errorf("failed to store envelope: %w", err)
	}

	b.log.Debug("envelope stored in buffer", slog.String("id", envelope.ID))
	return nil
}

func (b *SQLiteBuffer) GetPending(ctx context.Context, limit int) ([]*model.Envelope, error) {
	query := `
		SELECT id, device_id, device_name, timestamp, reading_json
		FROM readings
		ORDER BY created_at ASC, rowid ASC
		LIMIT ?
	`

	rows, err := b.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending envelopes: %w", err)
	}
	defer rows.Close()

	var envelopes []*model.Envelope
	for rows.Next() {
		var id, deviceID, deviceName, timestampStr, readingJSON string

		if err := rows.Scan(&id, &deviceID, &deviceName, &timestampStr, &readingJSON); err != nil {
			b.log.Error("failed to scan row", sl.Err(err))
			continue
		}

		timestamp, err := time.Parse(timeLayout, timestampStr)
		if err != nil {
			b.log.Error("failed to parse timestamp", sl.Err(err))
			continue
		}

		var reading model.Reading
		if err := json.Unmarshal([]byte(readingJSON), &reading); err != nil {
			b.log.Error("failed to unmarshal reading", sl.Err(err))
			continue
		}

		envelopes = append(envelopes, &model.Envelope{
			ID:         id,
			DeviceID:   deviceID,
			DeviceName: deviceName,
			Timestamp:  timestamp,
			Reading:    reading,
		})
	}

	return envelopes, rows.Err()
}

func (b *SQLiteBuffer) MarkSent(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, "DELETE FROM readings WHERE id = ?")
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, id := range ids {
		if _, err := stmt.ExecContext(ctx, id); err != nil {
			return fmt.Errorf("failed to delete envelope %s: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	b.log.Debug("marked envelopes as sent", slog.Int("count", len(ids)))
	return nil
}

func (b *SQLiteBuffer) Cleanup(ctx context.Context, maxAge time.Duration) error {
	cutoff := time.Now().UTC().Add(-maxAge).Format(timeLayout)

	result, err := b.db.ExecContext(ctx, "DELETE FROM readings WHERE created_at < ?", cutoff)
	if err != nil {
		return fmt.Errorf("failed to cleanup old envelopes: %w", err)
	}

	deleted, _ := result.RowsAffected()
	if deleted > 0 {
		b.log.Info("cleaned up old buffer entries", slog.Int64("deleted", deleted))
	}

	return nil
}

func (b *SQLiteBuffer) Close() error {
	return b.db.Close()
}

func (b *SQLiteBuffer) Count(ctx context.Context) (int64, error) {
	var count int64
	err := b.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM readings").Scan(&count)
	return count, err
}
