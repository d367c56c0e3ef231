package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	apperrors "btc-timing-bot/internal/errors"
	"btc-timing-bot/internal/models"
)

// SQLiteStore implements SampleStore using SQLite.
type SQLiteStore struct {
	db    *sql.DB
	asset string
}

// NewSQLiteStore opens (creating if needed) the database at dbPath. Samples
// are keyed by asset so one file can outlive a change of tracked asset.
func NewSQLiteStore(dbPath string, asset models.Asset) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// The runner is the only writer.
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	store := &SQLiteStore{
		db:    db,
		asset: asset.ID + "/" + asset.Currency,
	}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS price_samples (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		asset TEXT NOT NULL,
		timestamp DATETIME NOT NULL,
		price REAL NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(asset, timestamp)
	);

	CREATE INDEX IF NOT EXISTS idx_price_samples_asset_time ON price_samples(asset, timestamp);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SavePriceSample stores one sample. A sample with the same timestamp
// replaces the earlier one.
func (s *SQLiteStore) SavePriceSample(ctx context.Context, sample models.PriceSample) error {
	if sample.Price <= 0 {
		return apperrors.NewValidationError("price", sample.Price, "must be positive")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO price_samples (asset, timestamp, price)
		VALUES (?, ?, ?)
	`, s.asset, sample.Timestamp.UTC(), sample.Price)
	if err != nil {
		return apperrors.Wrapf(apperrors.ErrDatabaseError, "failed to insert price sample: %v", err)
	}
	return nil
}

// RecentPriceSamples returns up to limit of the newest samples, oldest first.
func (s *SQLiteStore) RecentPriceSamples(ctx context.Context, limit int) ([]models.PriceSample, error) {
	if limit <= 0 {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT timestamp, price FROM (
			SELECT timestamp, price FROM price_samples
			WHERE asset = ?
			ORDER BY timestamp DESC
			LIMIT ?
		) ORDER BY timestamp ASC
	`, s.asset, limit)
	if err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrDatabaseError, "failed to query price samples: %v", err)
	}
	defer rows.Close()

	var samples []models.PriceSample
	for rows.Next() {
		var p models.PriceSample
		if err := rows.Scan(&p.Timestamp, &p.Price); err != nil {
			return nil, fmt.Errorf("failed to scan price sample: %w", err)
		}
		samples = append(samples, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating price samples: %w", err)
	}

	return samples, nil
}

// LatestPriceSample returns the newest sample, or nil when none exist.
func (s *SQLiteStore) LatestPriceSample(ctx context.Context) (*models.PriceSample, error) {
	var p models.PriceSample
	err := s.db.QueryRowContext(ctx, `
		SELECT timestamp, price FROM price_samples
		WHERE asset = ?
		ORDER BY timestamp DESC
		LIMIT 1
	`, s.asset).Scan(&p.Timestamp, &p.Price)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrDatabaseError, "failed to get latest price sample: %v", err)
	}
	return &p, nil
}

// CountPriceSamples returns the number of stored samples.
func (s *SQLiteStore) CountPriceSamples(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM price_samples WHERE asset = ?
	`, s.asset).Scan(&n)
	if err != nil {
		return 0, apperrors.Wrapf(apperrors.ErrDatabaseError, "failed to count price samples: %v", err)
	}
	return n, nil
}

// PruneBefore deletes samples older than cutoff and returns how many were removed.
func (s *SQLiteStore) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM price_samples WHERE asset = ? AND timestamp < ?
	`, s.asset, cutoff.UTC())
	if err != nil {
		return 0, apperrors.Wrapf(apperrors.ErrDatabaseError, "failed to prune price samples: %v", err)
	}
	return res.RowsAffected()
}
