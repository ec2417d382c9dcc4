// Package db persists recording results to sqlite. It is one consumer of
// the in-memory structured result; the engine itself never depends on it.
package db

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"

	"github.com/Drorhaz/Gaga-mocap-Kinematics-sub000/internal/kinematics"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// Store wraps the results database.
type Store struct {
	*sql.DB
}

// Open opens (creating if needed) the results database at path and applies
// any pending migrations.
func Open(path string) (*Store, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open results db: %w", err)
	}
	s := &Store{conn}
	if err := s.migrateUp(); err != nil {
		conn.Close()
		return nil, err
	}
	return s, nil
}

// migrateUp applies all pending embedded migrations. No-change is not an
// error.
func (s *Store) migrateUp() error {
	src, err := iofs.New(migrationFS, "migrations")
	if err != nil {
		return fmt.Errorf("open embedded migrations: %w", err)
	}
	driver, err := sqlite.WithInstance(s.DB, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("init migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("init migrations: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up failed: %w", err)
	}
	return nil
}

// SaveResult persists the summary of one recording result in a single
// transaction: run row, component scores, filter profiles, anomaly events
// and processing events.
func (s *Store) SaveResult(ctx context.Context, res *kinematics.RecordingResult) error {
	tx, err := s.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (run_id, recording_id, subject_id, processed_at, engine, frames, sample_rate_hz, score, decision, reason)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		res.RunID, res.RecordingID, res.SubjectID, res.ProcessedAt, res.Engine,
		res.Frames, res.SampleRateHz, res.Quality.Aggregate, string(res.Quality.Decision), res.Quality.Reason,
	); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for _, c := range res.Quality.Components {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO component_scores (run_id, name, value, score, weight) VALUES (?, ?, ?, ?, ?)`,
			res.RunID, c.Name, c.Value, c.Score, c.Weight,
		); err != nil {
			return fmt.Errorf("insert component score: %w", err)
		}
	}

	for _, p := range res.Filter.Profiles {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO filter_profiles (run_id, region, selected_cutoff_hz, residual_rms, residual_slope, channel_count, cutoff_not_found, clamped, skipped, reason)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			res.RunID, p.Region, p.SelectedCutoffHz, p.ResidualRMS, p.ResidualSlope,
			p.ChannelCount, p.CutoffNotFound, p.Clamped, p.Skipped, p.Reason,
		); err != nil {
			return fmt.Errorf("insert filter profile: %w", err)
		}
	}

	for _, ev := range res.Classification.Events {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO anomaly_events (run_id, joint, tier, start_frame, end_frame, peak_magnitude)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			res.RunID, ev.Joint, string(ev.Tier), ev.StartFrame, ev.EndFrame, ev.PeakMagnitude,
		); err != nil {
			return fmt.Errorf("insert anomaly event: %w", err)
		}
	}

	for _, ev := range res.Events {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO processing_events (run_id, stage, subject, start_frame, end_frame, reason)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			res.RunID, ev.Stage, ev.Subject, ev.StartFrame, ev.EndFrame, ev.Reason,
		); err != nil {
			return fmt.Errorf("insert processing event: %w", err)
		}
	}

	return tx.Commit()
}

// RunSummary is one persisted run row.
type RunSummary struct {
	RunID       string
	RecordingID string
	ProcessedAt time.Time
	Decision    string
	Score       float64
	Reason      string
}

// ListRuns returns persisted runs, most recent first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	rows, err := s.QueryContext(ctx,
		`SELECT run_id, recording_id, processed_at, decision, score, reason FROM runs ORDER BY processed_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		var r RunSummary
		if err := rows.Scan(&r.RunID, &r.RecordingID, &r.ProcessedAt, &r.Decision, &r.Score, &r.Reason); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
