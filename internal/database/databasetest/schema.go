package databasetest

import (
	"context"
	"embed"
	"fmt"
	"io/fs"

	"github.com/jackc/pgx/v5"
	tern "github.com/jackc/tern/v2/migrate"
)

//go:embed schema/*.sql
var schema embed.FS

// SchemaVersionTable keeps the applied version of the test schema.
const SchemaVersionTable = "books_test_schema_version"

// ApplySchema creates the books relation in the database behind dsn. The
// application never manages its schema; this exists so integration tests
// can run against an empty database.
func ApplySchema(ctx context.Context, dsn string) error {
	conn, err := pgx.Connect(ctx, dsn)
	if err != nil {
		return err
	}
	defer conn.Close(ctx)

	m, err := tern.NewMigrator(ctx, conn, SchemaVersionTable)
	if err != nil {
		return fmt.Errorf("constructing schema migrator: %w", err)
	}

	subtree, err := fs.Sub(schema, "schema")
	if err != nil {
		return fmt.Errorf("retrieving schema subtree: %w", err)
	}

	if err := m.LoadMigrations(subtree); err != nil {
		return fmt.Errorf("loading schema: %w", err)
	}

	return m.Migrate(ctx)
}
