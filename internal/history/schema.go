package history

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is bumped whenever schema.sql changes. There are no
// migrations; an older history file has to be removed.
const schemaVersion = 1

// ErrSchemaMismatch reports a history database written by another version.
var ErrSchemaMismatch = errors.New("job history schema version mismatch")

// initSchema creates the tables on a fresh database and otherwise refuses to
// open a file whose recorded version differs from schemaVersion. The error
// names the file to delete; past jobs are lost but separation output is not.
func (s *Store) initSchema(ctx context.Context) error {
	version, found, err := s.storedVersion(ctx)
	if err != nil {
		return err
	}
	switch {
	case !found:
		return s.createSchema(ctx)
	case version != schemaVersion:
		return fmt.Errorf("%w: %s is version %d, this build reads version %d; remove it (or set history.enabled = false) to start a new job history",
			ErrSchemaMismatch, s.path, version, schemaVersion)
	}
	return nil
}

// storedVersion reads schema_version. found is false on an empty database.
func (s *Store) storedVersion(ctx context.Context) (version int, found bool, err error) {
	var tables int
	if err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type = 'table' AND name = 'schema_version'",
	).Scan(&tables); err != nil {
		return 0, false, fmt.Errorf("inspect history database: %w", err)
	}
	if tables == 0 {
		return 0, false, nil
	}
	if err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		return 0, false, fmt.Errorf("read history schema version: %w", err)
	}
	return version, true, nil
}

func (s *Store) createSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin history schema: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create history tables: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("record history schema version: %w", err)
	}
	return tx.Commit()
}
