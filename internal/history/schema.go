package history

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"
)

//go:embed schema.sql
var schemaSQL string

// ledgerVersion identifies the runs/run_files layout in schema.sql.
const ledgerVersion = 1

// ErrSchemaMismatch is returned by Open when the ledger on disk was written by
// a build with a different table layout. The ledger holds history only, so
// removing the file loses no transcripts.
var ErrSchemaMismatch = errors.New("history ledger layout mismatch")

func (s *Store) initSchema(ctx context.Context) error {
	var version int
	err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version)
	switch {
	case err == nil:
	case isMissingTable(err):
		return s.createLedger(ctx)
	default:
		return fmt.Errorf("read history ledger version: %w", err)
	}
	if version != ledgerVersion {
		return fmt.Errorf("%w: %s was written by ledger v%d, this build reads v%d; remove it to start a fresh run history",
			ErrSchemaMismatch, s.path, version, ledgerVersion)
	}
	return nil
}

func (s *Store) createLedger(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin ledger setup: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create ledger tables: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", ledgerVersion); err != nil {
		return fmt.Errorf("stamp ledger version: %w", err)
	}
	return tx.Commit()
}

func isMissingTable(err error) bool {
	return strings.Contains(err.Error(), "no such table")
}
