package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
)

// schemaVersion is bumped only on incompatible layout changes.
const schemaVersion = 1

// PostgresStore keeps both slots in Postgres, each table holding at
// most one row under the fixed slot key.
type PostgresStore struct {
	db       *sql.DB
	initOnce sync.Once
	initErr  error
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) DB() *sql.DB {
	return s.db
}

// Init creates the slot tables if absent. Gated by sync.Once so lazy
// concurrent callers cannot race schema creation.
func (s *PostgresStore) Init(ctx context.Context) error {
	s.initOnce.Do(func() {
		s.initErr = s.createSchema(ctx)
	})
	return s.initErr
}

func (s *PostgresStore) createSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}

	const ddl = `
		CREATE TABLE IF NOT EXISTS schema_meta (
			version INT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS result_slot (
			slot_key TEXT PRIMARY KEY,
			payload JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE TABLE IF NOT EXISTS file_slot (
			slot_key TEXT PRIMARY KEY,
			payload TEXT NOT NULL,
			file_name TEXT NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
	`
	if _, err := tx.ExecContext(ctx, ddl); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("create slot tables: %w", err)
	}

	var version int
	err = tx.QueryRowContext(ctx, `SELECT version FROM schema_meta LIMIT 1`).Scan(&version)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, err := tx.ExecContext(ctx, `INSERT INTO schema_meta(version) VALUES($1)`, schemaVersion); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record schema version: %w", err)
		}
	case err != nil:
		_ = tx.Rollback()
		return fmt.Errorf("read schema version: %w", err)
	case version != schemaVersion:
		_ = tx.Rollback()
		return fmt.Errorf("incompatible schema version %d (want %d)", version, schemaVersion)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (s *PostgresStore) SaveResult(ctx context.Context, result AnalysisResult) error {
	encoded, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO result_slot (slot_key, payload, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (slot_key) DO UPDATE SET payload = EXCLUDED.payload, updated_at = NOW()
	`, SlotKey, encoded)
	if err != nil {
		return fmt.Errorf("save result: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetResult(ctx context.Context) (AnalysisResult, bool, error) {
	var encoded []byte
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM result_slot WHERE slot_key=$1`, SlotKey).Scan(&encoded)
	if errors.Is(err, sql.ErrNoRows) {
		return AnalysisResult{}, false, nil
	}
	if err != nil {
		return AnalysisResult{}, false, fmt.Errorf("read result: %w", err)
	}
	var result AnalysisResult
	if err := json.Unmarshal(encoded, &result); err != nil {
		return AnalysisResult{}, false, fmt.Errorf("unmarshal result: %w", err)
	}
	return result, true, nil
}

func (s *PostgresStore) SaveFile(ctx context.Context, payload, name string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO file_slot (slot_key, payload, file_name, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (slot_key) DO UPDATE SET payload = EXCLUDED.payload, file_name = EXCLUDED.file_name, updated_at = NOW()
	`, SlotKey, payload, name)
	if err != nil {
		return fmt.Errorf("save file: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetFile(ctx context.Context) (StoredFile, bool, error) {
	var file StoredFile
	err := s.db.QueryRowContext(ctx, `SELECT payload, file_name FROM file_slot WHERE slot_key=$1`, SlotKey).Scan(&file.Payload, &file.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return StoredFile{}, false, nil
	}
	if err != nil {
		return StoredFile{}, false, fmt.Errorf("read file: %w", err)
	}
	return file, true, nil
}

// Clear erases both slots in one transaction.
func (s *PostgresStore) Clear(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin clear tx: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM result_slot WHERE slot_key=$1`, SlotKey); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("clear result slot: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM file_slot WHERE slot_key=$1`, SlotKey); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("clear file slot: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit clear tx: %w", err)
	}
	return nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
