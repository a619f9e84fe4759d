package history

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/artpar/anchor/internal/core/domain"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// timeFormat is how timestamps are stored; lexicographic order matches
// chronological order.
const timeFormat = time.RFC3339Nano

// =============================================================================
// SQLiteStore
// =============================================================================

// SQLiteStore persists deployment history in SQLite. It satisfies the
// orchestrator's RunRecorder port.
type SQLiteStore struct {
	db *sqlx.DB
}

// NewSQLiteStore creates a new SQLite store and runs migrations.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite3", dsn+"?_foreign_keys=on")
	if err != nil {
		return nil, NewStoreError("NewSQLiteStore", "", "", "failed to open database", ErrConnectionFailed)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, NewStoreError("NewSQLiteStore", "", "", "failed to ping database", ErrConnectionFailed)
	}

	if err := runMigrations(db.DB); err != nil {
		db.Close()
		return nil, NewStoreError("NewSQLiteStore", "", "", err.Error(), ErrMigrationFailed)
	}

	return &SQLiteStore{db: db}, nil
}

// runMigrations runs database migrations using embedded SQL files.
func runMigrations(db *sql.DB) error {
	driver, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// =============================================================================
// Row Types
// =============================================================================

type runRow struct {
	ID            string  `db:"id"`
	EnvironmentID string  `db:"environment_id"`
	Host          string  `db:"host"`
	StartedAt     string  `db:"started_at"`
	FinishedAt    *string `db:"finished_at"`
	DeployedCount int     `db:"deployed_count"`
	SkippedCount  int     `db:"skipped_count"`
}

func (r runRow) toDomain() (Run, error) {
	startedAt, err := time.Parse(timeFormat, r.StartedAt)
	if err != nil {
		return Run{}, fmt.Errorf("invalid started_at for run %s: %w", r.ID, err)
	}
	run := Run{
		ID:            r.ID,
		EnvironmentID: r.EnvironmentID,
		Host:          r.Host,
		StartedAt:     startedAt,
		DeployedCount: r.DeployedCount,
		SkippedCount:  r.SkippedCount,
	}
	if r.FinishedAt != nil {
		finishedAt, err := time.Parse(timeFormat, *r.FinishedAt)
		if err != nil {
			return Run{}, fmt.Errorf("invalid finished_at for run %s: %w", r.ID, err)
		}
		run.FinishedAt = &finishedAt
	}
	return run, nil
}

type recordRow struct {
	RunID       string `db:"run_id"`
	ArtifactKey string `db:"artifact_key"`
	Address     string `db:"address"`
	State       string `db:"state"`
	Deployed    bool   `db:"deployed"`
	CreatedAt   string `db:"created_at"`
}

func (r recordRow) toDomain() (Record, error) {
	createdAt, err := time.Parse(timeFormat, r.CreatedAt)
	if err != nil {
		return Record{}, fmt.Errorf("invalid created_at for record %s: %w", r.ArtifactKey, err)
	}
	rec := Record{
		RunID:     r.RunID,
		Key:       r.ArtifactKey,
		State:     domain.DeployState(r.State),
		Deployed:  r.Deployed,
		CreatedAt: createdAt,
	}
	if r.Address != "" {
		addr, err := domain.ParseAddress(r.Address)
		if err != nil {
			return Record{}, fmt.Errorf("invalid address for record %s: %w", r.ArtifactKey, err)
		}
		rec.Address = addr
	}
	return rec, nil
}

// =============================================================================
// Run Operations
// =============================================================================

// BeginRun registers the start of an orchestrator run.
func (s *SQLiteStore) BeginRun(ctx context.Context, runID, environmentID, host string, startedAt time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, environment_id, host, started_at) VALUES (?, ?, ?, ?)`,
		runID, environmentID, host, startedAt.UTC().Format(timeFormat))
	if err != nil {
		return NewStoreError("BeginRun", "run", runID, err.Error(), err)
	}
	return nil
}

// RecordOutcome stores the per-key outcome of one deploy call.
func (s *SQLiteStore) RecordOutcome(ctx context.Context, runID, key string, address domain.Address, state domain.DeployState, deployed bool) error {
	addr := ""
	if !address.IsZero() {
		addr = address.String()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO deployment_records (run_id, artifact_key, address, state, deployed, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		runID, key, addr, string(state), deployed, time.Now().UTC().Format(timeFormat))
	if err != nil {
		return NewStoreError("RecordOutcome", "record", key, err.Error(), err)
	}
	return nil
}

// FinishRun closes out a run with its final counters.
func (s *SQLiteStore) FinishRun(ctx context.Context, runID string, finishedAt time.Time, deployed, skipped int) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET finished_at = ?, deployed_count = ?, skipped_count = ? WHERE id = ?`,
		finishedAt.UTC().Format(timeFormat), deployed, skipped, runID)
	if err != nil {
		return NewStoreError("FinishRun", "run", runID, err.Error(), err)
	}
	affected, err := res.RowsAffected()
	if err == nil && affected == 0 {
		return NewStoreError("FinishRun", "run", runID, "run not found", ErrNotFound)
	}
	return nil
}

// GetRun returns one run by ID.
func (s *SQLiteStore) GetRun(ctx context.Context, id string) (*Run, error) {
	var row runRow
	err := s.db.GetContext(ctx, &row, `SELECT * FROM runs WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, NewStoreError("GetRun", "run", id, "run not found", ErrNotFound)
	}
	if err != nil {
		return nil, NewStoreError("GetRun", "run", id, err.Error(), err)
	}
	run, err := row.toDomain()
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// ListRunsByEnvironment returns runs against an environment, most
// recent first.
func (s *SQLiteStore) ListRunsByEnvironment(ctx context.Context, environmentID string, opts ListOptions) ([]Run, error) {
	opts = opts.Normalize()
	var rows []runRow
	err := s.db.SelectContext(ctx, &rows,
		`SELECT * FROM runs WHERE environment_id = ? ORDER BY started_at DESC LIMIT ? OFFSET ?`,
		environmentID, opts.Limit, opts.Offset)
	if err != nil {
		return nil, NewStoreError("ListRunsByEnvironment", "run", environmentID, err.Error(), err)
	}
	runs := make([]Run, 0, len(rows))
	for _, row := range rows {
		run, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, nil
}

// =============================================================================
// Record Operations
// =============================================================================

// ListRecordsByRun returns a run's per-key outcomes in insertion order.
func (s *SQLiteStore) ListRecordsByRun(ctx context.Context, runID string) ([]Record, error) {
	var rows []recordRow
	err := s.db.SelectContext(ctx, &rows,
		`SELECT run_id, artifact_key, address, state, deployed, created_at
		 FROM deployment_records WHERE run_id = ? ORDER BY id`,
		runID)
	if err != nil {
		return nil, NewStoreError("ListRecordsByRun", "record", runID, err.Error(), err)
	}
	recs := make([]Record, 0, len(rows))
	for _, row := range rows {
		rec, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

// LatestDeployment returns the most recent record that actually
// deployed key on an environment.
func (s *SQLiteStore) LatestDeployment(ctx context.Context, environmentID, key string) (*Record, error) {
	var row recordRow
	err := s.db.GetContext(ctx, &row,
		`SELECT r.run_id, r.artifact_key, r.address, r.state, r.deployed, r.created_at
		 FROM deployment_records r
		 JOIN runs ON runs.id = r.run_id
		 WHERE runs.environment_id = ? AND r.artifact_key = ? AND r.deployed = 1
		 ORDER BY r.created_at DESC LIMIT 1`,
		environmentID, key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, NewStoreError("LatestDeployment", "record", key, "no deployment found", ErrNotFound)
	}
	if err != nil {
		return nil, NewStoreError("LatestDeployment", "record", key, err.Error(), err)
	}
	rec, err := row.toDomain()
	if err != nil {
		return nil, err
	}
	return &rec, nil
}
