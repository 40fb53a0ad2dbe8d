package stores

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/openfroyo/confsync/pkg/engine"
	"github.com/openfroyo/confsync/pkg/gateway"
	"github.com/openfroyo/confsync/pkg/model"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// SQLiteStore implements the Store interface using SQLite. As a
// gateway.Gateway it plays the remote configuration system.
type SQLiteStore struct {
	db   *sql.DB
	path string
	cfg  Config
	now  func() time.Time
}

// Config holds SQLite store configuration
type Config struct {
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore creates a new SQLite store instance
func NewSQLiteStore(cfg Config) (*SQLiteStore, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("database path is required")
	}

	// Set defaults. Every connection to :memory: opens a distinct database.
	if cfg.MaxOpenConns == 0 {
		cfg.MaxOpenConns = 4
		if cfg.Path == MemoryPath {
			cfg.MaxOpenConns = 1
		}
	}
	if cfg.MaxIdleConns == 0 {
		cfg.MaxIdleConns = cfg.MaxOpenConns
	}
	if cfg.ConnMaxLifetime == 0 && cfg.Path != MemoryPath {
		cfg.ConnMaxLifetime = 5 * time.Minute
	}

	return &SQLiteStore{
		path: cfg.Path,
		cfg:  cfg,
		now:  time.Now,
	}, nil
}

// Init initializes the database connection and enables WAL mode for file
// databases.
func (s *SQLiteStore) Init(ctx context.Context) error {
	dsn := s.path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	if s.path != MemoryPath {
		dsn += "&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_txlock=immediate"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(s.cfg.MaxOpenConns)
	db.SetMaxIdleConns(s.cfg.MaxIdleConns)
	db.SetConnMaxLifetime(s.cfg.ConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	s.db = db
	return nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Migrate runs database migrations.
func (s *SQLiteStore) Migrate(_ context.Context) error {
	if s.db == nil {
		return fmt.Errorf("database not initialized")
	}

	// Create migration source from embedded FS
	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}

	// Create database driver
	driver, err := migratesqlite.WithInstance(s.db, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("failed to create database driver: %w", err)
	}

	// Create migration instance
	m, err := migrate.NewWithInstance("iofs", sourceDriver, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("failed to create migration instance: %w", err)
	}

	// Run migrations
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// Retrieve implements gateway.Gateway.
func (s *SQLiteStore) Retrieve(ctx context.Context, ref model.Reference) (*gateway.RemoteEntity, error) {
	query := `
		SELECT id, body, created_at, updated_at
		FROM entities
		WHERE kind = ? AND tenant = ? AND key = ?
	`

	row := s.db.QueryRowContext(ctx, query, ref.Kind, ref.Tenant, ref.Key)
	remote, err := scanEntity(row, ref)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", ref, gateway.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return remote, nil
}

// RetrieveMany implements gateway.Gateway. Entities are returned in
// creation order.
func (s *SQLiteStore) RetrieveMany(ctx context.Context, kind model.Kind, filter gateway.Filter) ([]*gateway.RemoteEntity, error) {
	query := `
		SELECT id, tenant, key, body, created_at, updated_at
		FROM entities
		WHERE kind = ? AND (? = '' OR tenant = ?)
		ORDER BY id ASC
	`

	rows, err := s.db.QueryContext(ctx, query, kind, filter.Tenant, filter.Tenant)
	if err != nil {
		return nil, fmt.Errorf("failed to list entities: %w", err)
	}
	defer rows.Close()

	entities := []*gateway.RemoteEntity{}
	for rows.Next() {
		ref := model.Reference{Kind: kind}
		var (
			id                   int64
			body                 string
			createdAt, updatedAt int64
		)
		if err := rows.Scan(&id, &ref.Tenant, &ref.Key, &body, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan entity: %w", err)
		}
		remote, err := newRemoteEntity(ref, id, body, createdAt, updatedAt)
		if err != nil {
			return nil, err
		}
		entities = append(entities, remote)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating entities: %w", err)
	}

	return entities, nil
}

// Create implements gateway.Gateway.
func (s *SQLiteStore) Create(ctx context.Context, entity model.Entity) (*gateway.RemoteEntity, error) {
	query := `
		INSERT INTO entities (kind, tenant, key, body, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	ref := entity.Ref()
	body, err := json.Marshal(entity)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", ref, err)
	}
	now := s.now().UnixMilli()

	result, err := s.db.ExecContext(ctx, query, ref.Kind, ref.Tenant, ref.Key, string(body), now, now)
	if isUniqueViolation(err) {
		return nil, fmt.Errorf("%s: %w", ref, gateway.ErrAlreadyExists)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", ref, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get entity id: %w", err)
	}
	return newRemoteEntity(ref, id, string(body), now, now)
}

// Update implements gateway.Gateway. The properties set on entity are
// merged into the stored state in a single transaction.
func (s *SQLiteStore) Update(ctx context.Context, entity model.Entity, _ *gateway.RemoteEntity) (*gateway.RemoteEntity, error) {
	ref := entity.Ref()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	row := tx.QueryRowContext(ctx, `
		SELECT id, body, created_at, updated_at
		FROM entities
		WHERE kind = ? AND tenant = ? AND key = ?
	`, ref.Kind, ref.Tenant, ref.Key)
	current, err := scanEntity(row, ref)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", ref, gateway.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	merged, err := model.Merge(entity, current.Entity)
	if err != nil {
		return nil, fmt.Errorf("failed to merge %s: %w", ref, err)
	}
	body, err := json.Marshal(merged)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", ref, err)
	}
	now := s.now().UnixMilli()

	if _, err := tx.ExecContext(ctx, `UPDATE entities SET body = ?, updated_at = ? WHERE id = ?`,
		string(body), now, current.ID); err != nil {
		return nil, fmt.Errorf("failed to update %s: %w", ref, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit update of %s: %w", ref, err)
	}

	current.Entity = merged
	current.UpdatedAt = time.UnixMilli(now)
	return current, nil
}

// CountEntities returns the number of stored entities.
func (s *SQLiteStore) CountEntities(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM entities`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count entities: %w", err)
	}
	return count, nil
}

// CreateRun creates a new run record
func (s *SQLiteStore) CreateRun(ctx context.Context, run *Run) error {
	query := `
		INSERT INTO runs (id, plan_id, document_path, status, created, updated, skipped, error, started_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		run.ID,
		run.PlanID,
		run.DocumentPath,
		run.Status,
		run.Created,
		run.Updated,
		run.Skipped,
		run.Error,
		run.StartedAt.UnixMilli(),
		toMillis(run.CompletedAt),
	)

	if err != nil {
		return fmt.Errorf("failed to create run: %w", err)
	}

	return nil
}

// GetRun retrieves a run by ID
func (s *SQLiteStore) GetRun(ctx context.Context, id string) (*Run, error) {
	query := `
		SELECT id, plan_id, document_path, status, created, updated, skipped, error, started_at, completed_at
		FROM runs
		WHERE id = ?
	`

	run, err := scanRun(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	return run, nil
}

// CompleteRun records the final status and tally of a run
func (s *SQLiteStore) CompleteRun(ctx context.Context, id string, status engine.RunStatus, tally engine.Tally, errMsg *string) error {
	if err := status.Validate(); err != nil {
		return err
	}

	query := `
		UPDATE runs
		SET status = ?, created = ?, updated = ?, skipped = ?, error = ?, completed_at = ?
		WHERE id = ?
	`

	var completedAt *int64
	if status.IsTerminal() {
		now := s.now().UnixMilli()
		completedAt = &now
	}

	result, err := s.db.ExecContext(ctx, query,
		status, tally.Created(), tally.Updated(), tally.Skipped(), errMsg, completedAt, id)
	if err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("run not found: %s", id)
	}

	return nil
}

// ListRuns lists runs with pagination, most recent first
func (s *SQLiteStore) ListRuns(ctx context.Context, limit, offset int) ([]*Run, error) {
	query := `
		SELECT id, plan_id, document_path, status, created, updated, skipped, error, started_at, completed_at
		FROM runs
		ORDER BY started_at DESC, rowid DESC
		LIMIT ? OFFSET ?
	`

	rows, err := s.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	runs := []*Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}

	return runs, nil
}

// DeleteRun deletes a run and its operations
func (s *SQLiteStore) DeleteRun(ctx context.Context, id string) error {
	query := `DELETE FROM runs WHERE id = ?`

	result, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("run not found: %s", id)
	}

	return nil
}

// RecordOperation appends an applied operation to a run
func (s *SQLiteStore) RecordOperation(ctx context.Context, op *RunOperation) error {
	query := `
		INSERT INTO run_operations (run_id, position, operation, kind, tenant, key, status, error, applied_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		op.RunID,
		op.Position,
		op.Operation,
		op.Kind,
		op.Tenant,
		op.Key,
		op.Status,
		op.Error,
		op.AppliedAt.UnixMilli(),
	)

	if err != nil {
		return fmt.Errorf("failed to record operation: %w", err)
	}

	return nil
}

// ListRunOperations lists the operations of a run in apply order
func (s *SQLiteStore) ListRunOperations(ctx context.Context, runID string) ([]*RunOperation, error) {
	query := `
		SELECT run_id, position, operation, kind, tenant, key, status, error, applied_at
		FROM run_operations
		WHERE run_id = ?
		ORDER BY position ASC
	`

	rows, err := s.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to list run operations: %w", err)
	}
	defer rows.Close()

	ops := []*RunOperation{}
	for rows.Next() {
		op := &RunOperation{}
		var appliedAt int64
		err := rows.Scan(
			&op.RunID,
			&op.Position,
			&op.Operation,
			&op.Kind,
			&op.Tenant,
			&op.Key,
			&op.Status,
			&op.Error,
			&appliedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run operation: %w", err)
		}
		op.AppliedAt = time.UnixMilli(appliedAt)
		ops = append(ops, op)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating run operations: %w", err)
	}

	return ops, nil
}

// HealthCheck verifies the database connection
func (s *SQLiteStore) HealthCheck(ctx context.Context) error {
	if s.db == nil {
		return fmt.Errorf("database not initialized")
	}

	return s.db.PingContext(ctx)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntity(row scanner, ref model.Reference) (*gateway.RemoteEntity, error) {
	var (
		id                   int64
		body                 string
		createdAt, updatedAt int64
	)
	if err := row.Scan(&id, &body, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get %s: %w", ref, err)
	}
	return newRemoteEntity(ref, id, body, createdAt, updatedAt)
}

func newRemoteEntity(ref model.Reference, id int64, body string, createdAt, updatedAt int64) (*gateway.RemoteEntity, error) {
	entity, err := model.Decode(ref.Kind, []byte(body))
	if err != nil {
		return nil, fmt.Errorf("corrupt stored entity %s: %w", ref, err)
	}
	return &gateway.RemoteEntity{
		Ref:       ref,
		ID:        id,
		Entity:    entity,
		CreatedAt: time.UnixMilli(createdAt),
		UpdatedAt: time.UnixMilli(updatedAt),
	}, nil
}

func scanRun(row scanner) (*Run, error) {
	run := &Run{}
	var (
		startedAt   int64
		completedAt *int64
	)
	err := row.Scan(
		&run.ID,
		&run.PlanID,
		&run.DocumentPath,
		&run.Status,
		&run.Created,
		&run.Updated,
		&run.Skipped,
		&run.Error,
		&startedAt,
		&completedAt,
	)
	if err != nil {
		return nil, err
	}
	run.StartedAt = time.UnixMilli(startedAt)
	if completedAt != nil {
		t := time.UnixMilli(*completedAt)
		run.CompletedAt = &t
	}
	return run, nil
}

func toMillis(t *time.Time) *int64 {
	if t == nil {
		return nil
	}
	ms := t.UnixMilli()
	return &ms
}

func isUniqueViolation(err error) bool {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	code := sqliteErr.Code()
	return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
}
