package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/okian/fpti/pkg/metrics"
)

// SQLiteArchive implements Archive on a local sqlite database.
type SQLiteArchive struct {
	db *sql.DB
}

// NewSQLiteArchive opens (creating if needed) the archive database at path.
func NewSQLiteArchive(path string, opts ...ArchiveOption) (*SQLiteArchive, error) {
	cfg := archiveConfig{busyTimeout: 5 * time.Second}
	for _, opt := range opts {
		opt(&cfg)
	}

	dsn := fmt.Sprintf("%s?_busy_timeout=%d", path, cfg.busyTimeout.Milliseconds())
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS calibration_profiles (
		version      TEXT PRIMARY KEY,
		checksum     TEXT NOT NULL,
		payload      BLOB NOT NULL,
		published_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS reference_populations (
		tag          TEXT PRIMARY KEY,
		checksum     TEXT NOT NULL,
		payload      BLOB NOT NULL,
		published_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS classification_reports (
		player_id       TEXT NOT NULL,
		record_version  TEXT NOT NULL,
		profile_version TEXT NOT NULL,
		population_tag  TEXT DEFAULT '',
		archetype       TEXT NOT NULL,
		verdict         TEXT NOT NULL,
		payload         BLOB NOT NULL,
		created_at      DATETIME DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (player_id, record_version, profile_version)
	);
	CREATE INDEX IF NOT EXISTS idx_reports_profile ON classification_reports(profile_version);
	CREATE INDEX IF NOT EXISTS idx_reports_archetype ON classification_reports(archetype);
	`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create archive schema: %w", err)
	}

	return &SQLiteArchive{db: db}, nil
}

// archiveConfig collects archive construction options.
type archiveConfig struct {
	busyTimeout time.Duration
}

// ArchiveOption applies a configuration option to the archive.
type ArchiveOption func(*archiveConfig)

// WithBusyTimeout sets the sqlite busy timeout for concurrent writers.
func WithBusyTimeout(d time.Duration) ArchiveOption {
	return func(c *archiveConfig) {
		if d > 0 {
			c.busyTimeout = d
		}
	}
}

// SaveProfile publishes a profile document under a version tag.
func (a *SQLiteArchive) SaveProfile(ctx context.Context, version, checksum string, payload []byte) error {
	return a.saveVersioned(ctx, "calibration_profiles", "version", version, checksum, payload)
}

// ProfilePayload returns the published document and checksum for a version.
func (a *SQLiteArchive) ProfilePayload(ctx context.Context, version string) ([]byte, string, error) {
	return a.loadVersioned(ctx, "calibration_profiles", "version", version)
}

// SavePopulation publishes a population snapshot under a tag.
func (a *SQLiteArchive) SavePopulation(ctx context.Context, tag, checksum string, payload []byte) error {
	return a.saveVersioned(ctx, "reference_populations", "tag", tag, checksum, payload)
}

// PopulationPayload returns the published snapshot and checksum for a tag.
func (a *SQLiteArchive) PopulationPayload(ctx context.Context, tag string) ([]byte, string, error) {
	return a.loadVersioned(ctx, "reference_populations", "tag", tag)
}

func (a *SQLiteArchive) saveVersioned(ctx context.Context, table, keyCol, key, checksum string, payload []byte) error {
	var existing string
	err := a.db.QueryRowContext(ctx,
		`SELECT checksum FROM `+table+` WHERE `+keyCol+` = ?`, key,
	).Scan(&existing)
	switch {
	case err == nil:
		if existing == checksum {
			return nil
		}
		metrics.RecordArchiveError()
		return fmt.Errorf("%s %s: %w", table, key, ErrVersionConflict)
	case !errors.Is(err, sql.ErrNoRows):
		metrics.RecordArchiveError()
		return fmt.Errorf("query %s: %w", table, err)
	}

	_, err = a.db.ExecContext(ctx,
		`INSERT INTO `+table+` (`+keyCol+`, checksum, payload) VALUES (?, ?, ?)`,
		key, checksum, payload,
	)
	if err != nil {
		metrics.RecordArchiveError()
		return fmt.Errorf("insert %s: %w", table, err)
	}
	metrics.RecordArchiveWrite()
	return nil
}

func (a *SQLiteArchive) loadVersioned(ctx context.Context, table, keyCol, key string) ([]byte, string, error) {
	start := time.Now()
	defer func() {
		metrics.RecordArchiveQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	var payload []byte
	var checksum string
	err := a.db.QueryRowContext(ctx,
		`SELECT payload, checksum FROM `+table+` WHERE `+keyCol+` = ?`, key,
	).Scan(&payload, &checksum)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, "", fmt.Errorf("%s %s: %w", table, key, ErrNotFound)
	}
	if err != nil {
		metrics.RecordArchiveError()
		return nil, "", fmt.Errorf("query %s: %w", table, err)
	}
	return payload, checksum, nil
}

// SaveReport archives one classification report.
func (a *SQLiteArchive) SaveReport(ctx context.Context, rec ReportRecord) error {
	_, err := a.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO classification_reports
		 (player_id, record_version, profile_version, population_tag, archetype, verdict, payload)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.PlayerID, rec.RecordVersion, rec.ProfileVersion, rec.PopulationTag,
		rec.Archetype, rec.Verdict, rec.Payload,
	)
	if err != nil {
		metrics.RecordArchiveError()
		return fmt.Errorf("insert report: %w", err)
	}
	metrics.RecordArchiveWrite()
	return nil
}

// Report returns an archived report.
func (a *SQLiteArchive) Report(ctx context.Context, playerID, recordVersion, profileVersion string) (ReportRecord, error) {
	start := time.Now()
	defer func() {
		metrics.RecordArchiveQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	rec := ReportRecord{
		PlayerID:       playerID,
		RecordVersion:  recordVersion,
		ProfileVersion: profileVersion,
	}
	err := a.db.QueryRowContext(ctx,
		`SELECT population_tag, archetype, verdict, payload FROM classification_reports
		 WHERE player_id = ? AND record_version = ? AND profile_version = ?`,
		playerID, recordVersion, profileVersion,
	).Scan(&rec.PopulationTag, &rec.Archetype, &rec.Verdict, &rec.Payload)
	if errors.Is(err, sql.ErrNoRows) {
		return ReportRecord{}, fmt.Errorf("report %s/%s/%s: %w", playerID, recordVersion, profileVersion, ErrNotFound)
	}
	if err != nil {
		metrics.RecordArchiveError()
		return ReportRecord{}, fmt.Errorf("query report: %w", err)
	}
	return rec, nil
}

// Counts returns the number of archived profiles, populations and reports.
func (a *SQLiteArchive) Counts(ctx context.Context) (profiles, populations, reports int, err error) {
	if err = a.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM calibration_profiles`).Scan(&profiles); err != nil {
		return 0, 0, 0, fmt.Errorf("count profiles: %w", err)
	}
	if err = a.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM reference_populations`).Scan(&populations); err != nil {
		return 0, 0, 0, fmt.Errorf("count populations: %w", err)
	}
	if err = a.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM classification_reports`).Scan(&reports); err != nil {
		return 0, 0, 0, fmt.Errorf("count reports: %w", err)
	}
	return profiles, populations, reports, nil
}

// Close closes the underlying database.
func (a *SQLiteArchive) Close() error {
	return a.db.Close()
}
