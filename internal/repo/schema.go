package repo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// SchemaManager probes for and removes tags tables in arbitrary schemas.
// It exists for the startup migration, which has to inspect legacy storage
// locations that the regular TagRepo never touches.
type SchemaManager interface {
	// TagTableExists reports whether a tags table is present in the schema.
	TagTableExists(ctx context.Context, db DB, schema string) (bool, error)

	// DropTagTable removes the tags table from the schema. Used only to
	// clean up legacy locations after their records have been relocated.
	DropTagTable(ctx context.Context, db DB, schema string) error
}

// pgSchemaManager is the Postgres implementation of SchemaManager.
type pgSchemaManager struct{}

// NewSchemaManager constructs the Postgres SchemaManager.
func NewSchemaManager() SchemaManager {
	return pgSchemaManager{}
}

// TagTableExists checks the information_schema catalog, which is portable
// across Postgres versions.
func (pgSchemaManager) TagTableExists(ctx context.Context, db DB, schema string) (bool, error) {
	const q = `
		SELECT EXISTS (
			SELECT 1 FROM information_schema.tables
			WHERE table_schema = @schema
			AND   table_name   = 'tags'
		)`

	var exists bool
	err := db.QueryRow(ctx, q, pgx.NamedArgs{"schema": schema}).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("repo.SchemaManager.TagTableExists: %w", err)
	}
	return exists, nil
}

// DropTagTable drops the schema's tags table.
func (pgSchemaManager) DropTagTable(ctx context.Context, db DB, schema string) error {
	q := fmt.Sprintf(`DROP TABLE IF EXISTS %s`, pgx.Identifier{schema, "tags"}.Sanitize())

	if _, err := db.Exec(ctx, q); err != nil {
		return fmt.Errorf("repo.SchemaManager.DropTagTable: %w", err)
	}
	return nil
}
