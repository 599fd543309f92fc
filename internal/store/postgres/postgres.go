// Package postgres implements the store.Store interface backed by PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"

	"github.com/pulseflow/pulseflow/internal/model"
	"github.com/pulseflow/pulseflow/internal/store"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// PostgresStore implements store.Store backed by a PostgreSQL database.
type PostgresStore struct {
	db *sql.DB
}

// Compile-time check that PostgresStore implements store.Store.
var _ store.Store = (*PostgresStore)(nil)

// New opens a connection to the PostgreSQL database at the given URL,
// configures the connection pool, and runs any pending migrations.
func New(databaseURL string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

func runMigrations(db *sql.DB) error {
	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	dbDriver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create migration db driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "postgres", dbDriver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("apply migrations: %w", err)
	}

	return nil
}

// Close closes the underlying database connection.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (s *PostgresStore) CreateAutomation(ctx context.Context, a *model.Automation) error {
	return queryCreateAutomation(ctx, s.db, a)
}

func (s *PostgresStore) GetAutomation(ctx context.Context, id string) (*model.Automation, error) {
	return queryGetAutomation(ctx, s.db, id)
}

func (s *PostgresStore) ListAutomations(ctx context.Context, filter model.AutomationFilter) ([]*model.Automation, int, error) {
	return queryListAutomations(ctx, s.db, filter)
}

func (s *PostgresStore) UpdateAutomation(ctx context.Context, a *model.Automation) error {
	return queryUpdateAutomation(ctx, s.db, a)
}

func (s *PostgresStore) DeleteAutomation(ctx context.Context, id string) error {
	return queryDeleteAutomation(ctx, s.db, id)
}

func (s *PostgresStore) CreateNode(ctx context.Context, node *model.Node) error {
	return queryCreateNode(ctx, s.db, node)
}

func (s *PostgresStore) UpdateNode(ctx context.Context, node *model.Node) error {
	return queryUpdateNode(ctx, s.db, node)
}

func (s *PostgresStore) GetNodes(ctx context.Context, automationID string) ([]*model.Node, error) {
	return queryGetNodes(ctx, s.db, automationID)
}

func (s *PostgresStore) CreateConnection(ctx context.Context, conn *model.Connection) error {
	return queryCreateConnection(ctx, s.db, conn)
}

func (s *PostgresStore) GetConnections(ctx context.Context, automationID string) ([]*model.Connection, error) {
	return queryGetConnections(ctx, s.db, automationID)
}

func (s *PostgresStore) GetGraph(ctx context.Context, automationID string) (*model.GraphResponse, error) {
	return queryGetGraph(ctx, s.db, automationID)
}

func (s *PostgresStore) CreateRun(ctx context.Context, run *model.Run) error {
	return queryCreateRun(ctx, s.db, run)
}

func (s *PostgresStore) GetRun(ctx context.Context, id string) (*model.Run, error) {
	return queryGetRun(ctx, s.db, id)
}

func (s *PostgresStore) ListRuns(ctx context.Context, automationID string) ([]*model.Run, error) {
	return queryListRuns(ctx, s.db, automationID)
}

func (s *PostgresStore) FinishRun(ctx context.Context, id string, status model.RunStatus, runErr string) (*model.Run, error) {
	return queryFinishRun(ctx, s.db, id, status, runErr)
}

func (s *PostgresStore) UpsertNodeResult(ctx context.Context, result *model.NodeResult) error {
	return queryUpsertNodeResult(ctx, s.db, result)
}

func (s *PostgresStore) GetNodeResult(ctx context.Context, automationID, nodeID string) (*model.NodeResult, error) {
	return queryGetNodeResult(ctx, s.db, automationID, nodeID)
}

func (s *PostgresStore) ListNodeResults(ctx context.Context, automationID string) ([]*model.NodeResult, error) {
	return queryListNodeResults(ctx, s.db, automationID)
}

func (s *PostgresStore) RecordEvent(ctx context.Context, event *model.Event) error {
	return queryRecordEvent(ctx, s.db, event)
}

func (s *PostgresStore) GetEvents(ctx context.Context, automationID string) ([]*model.Event, error) {
	return queryGetEvents(ctx, s.db, automationID)
}

func (s *PostgresStore) SetConfig(ctx context.Context, config *model.Config) error {
	return querySetConfig(ctx, s.db, config)
}

func (s *PostgresStore) GetConfig(ctx context.Context, key string) (*model.Config, error) {
	return queryGetConfig(ctx, s.db, key)
}

func (s *PostgresStore) ListConfigs(ctx context.Context, namespace string) ([]*model.Config, error) {
	return queryListConfigs(ctx, s.db, namespace)
}

func (s *PostgresStore) ListAllConfigs(ctx context.Context) ([]*model.Config, error) {
	return queryListAllConfigs(ctx, s.db)
}

func (s *PostgresStore) DeleteConfig(ctx context.Context, key string) error {
	return queryDeleteConfig(ctx, s.db, key)
}

// RunInTransaction begins a database transaction, creates a txStore that
// delegates to it, calls fn, and commits on success or rolls back on error.
func (s *PostgresStore) RunInTransaction(ctx context.Context, fn func(tx store.Store) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	txS := &txStore{tx: tx}
	if err := fn(txS); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// txStore implements store.Store using a *sql.Tx.
type txStore struct {
	tx *sql.Tx
}

// Compile-time check that txStore implements store.Store.
var _ store.Store = (*txStore)(nil)

func (s *txStore) CreateAutomation(ctx context.Context, a *model.Automation) error {
	return queryCreateAutomation(ctx, s.tx, a)
}

func (s *txStore) GetAutomation(ctx context.Context, id string) (*model.Automation, error) {
	return queryGetAutomation(ctx, s.tx, id)
}

func (s *txStore) ListAutomations(ctx context.Context, filter model.AutomationFilter) ([]*model.Automation, int, error) {
	return queryListAutomations(ctx, s.tx, filter)
}

func (s *txStore) UpdateAutomation(ctx context.Context, a *model.Automation) error {
	return queryUpdateAutomation(ctx, s.tx, a)
}

func (s *txStore) DeleteAutomation(ctx context.Context, id string) error {
	return queryDeleteAutomation(ctx, s.tx, id)
}

func (s *txStore) CreateNode(ctx context.Context, node *model.Node) error {
	return queryCreateNode(ctx, s.tx, node)
}

func (s *txStore) UpdateNode(ctx context.Context, node *model.Node) error {
	return queryUpdateNode(ctx, s.tx, node)
}

func (s *txStore) GetNodes(ctx context.Context, automationID string) ([]*model.Node, error) {
	return queryGetNodes(ctx, s.tx, automationID)
}

func (s *txStore) CreateConnection(ctx context.Context, conn *model.Connection) error {
	return queryCreateConnection(ctx, s.tx, conn)
}

func (s *txStore) GetConnections(ctx context.Context, automationID string) ([]*model.Connection, error) {
	return queryGetConnections(ctx, s.tx, automationID)
}

func (s *txStore) GetGraph(ctx context.Context, automationID string) (*model.GraphResponse, error) {
	return queryGetGraph(ctx, s.tx, automationID)
}

func (s *txStore) CreateRun(ctx context.Context, run *model.Run) error {
	return queryCreateRun(ctx, s.tx, run)
}

func (s *txStore) GetRun(ctx context.Context, id string) (*model.Run, error) {
	return queryGetRun(ctx, s.tx, id)
}

func (s *txStore) ListRuns(ctx context.Context, automationID string) ([]*model.Run, error) {
	return queryListRuns(ctx, s.tx, automationID)
}

func (s *txStore) FinishRun(ctx context.Context, id string, status model.RunStatus, runErr string) (*model.Run, error) {
	return queryFinishRun(ctx, s.tx, id, status, runErr)
}

func (s *txStore) UpsertNodeResult(ctx context.Context, result *model.NodeResult) error {
	return queryUpsertNodeResult(ctx, s.tx, result)
}

func (s *txStore) GetNodeResult(ctx context.Context, automationID, nodeID string) (*model.NodeResult, error) {
	return queryGetNodeResult(ctx, s.tx, automationID, nodeID)
}

func (s *txStore) ListNodeResults(ctx context.Context, automationID string) ([]*model.NodeResult, error) {
	return queryListNodeResults(ctx, s.tx, automationID)
}

func (s *txStore) RecordEvent(ctx context.Context, event *model.Event) error {
	return queryRecordEvent(ctx, s.tx, event)
}

func (s *txStore) GetEvents(ctx context.Context, automationID string) ([]*model.Event, error) {
	return queryGetEvents(ctx, s.tx, automationID)
}

func (s *txStore) SetConfig(ctx context.Context, config *model.Config) error {
	return querySetConfig(ctx, s.tx, config)
}

func (s *txStore) GetConfig(ctx context.Context, key string) (*model.Config, error) {
	return queryGetConfig(ctx, s.tx, key)
}

func (s *txStore) ListConfigs(ctx context.Context, namespace string) ([]*model.Config, error) {
	return queryListConfigs(ctx, s.tx, namespace)
}

func (s *txStore) ListAllConfigs(ctx context.Context) ([]*model.Config, error) {
	return queryListAllConfigs(ctx, s.tx)
}

func (s *txStore) DeleteConfig(ctx context.Context, key string) error {
	return queryDeleteConfig(ctx, s.tx, key)
}

// RunInTransaction on a txStore reuses the existing transaction (no nesting).
func (s *txStore) RunInTransaction(ctx context.Context, fn func(tx store.Store) error) error {
	return fn(s)
}

// Close is a no-op for a transaction store; the parent store owns the connection.
func (s *txStore) Close() error {
	return nil
}
