// Package repo contains all database access logic for the tag registry.
// It implements the tag entity adapter on Postgres: schema registration,
// CRUD by name, and attribute-filtered enumeration. No business logic lives
// here — only SQL and type mapping.
//
// Postgres schemas play the role of named storage locations: the canonical
// schema holds the live tags table, and legacy schemas left behind by older
// releases are scanned (and cleaned up) by the startup migration.
package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/pcormier/tag-registry/internal/domain"
)

// DB is the minimal interface satisfied by *pgxpool.Pool, *pgx.Conn, and
// pgx.Tx. The service layer opens a transaction per operation and hands it to
// adapter constructors through this interface; integration tests pass a
// transaction that is rolled back after each test, giving free per-test
// isolation without any manual cleanup.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// scanner is the subset of pgx.Row / pgx.Rows needed by row mappers.
type scanner interface {
	Scan(dest ...any) error
}

// TagRepo defines the persistence operations for tag records in one schema.
// The service layer depends on this interface, not the concrete Postgres
// implementation, which allows the service to be unit-tested with a mock.
type TagRepo interface {
	// Register creates the tags table in the bound schema if it does not
	// already exist. Safe to call on every startup.
	Register(ctx context.Context) error

	// FindByName looks a tag up by exact name. The second return value
	// reports whether the tag exists; callers must check it before using
	// the tag. An absent tag is not an error.
	FindByName(ctx context.Context, name string) (domain.Tag, bool, error)

	// Search returns all tags whose attribute map contains every key/value
	// pair in attrs (the tag may carry additional attributes). A nil or
	// empty filter matches all tags. Results are ordered by name.
	Search(ctx context.Context, attrs map[string]string) ([]domain.Tag, error)

	// Add inserts a new tag record.
	Add(ctx context.Context, tag domain.Tag) error

	// Edit overwrites the mutable fields of an existing tag, keyed by name.
	// FirstCreated is never touched. Returns domain.ErrNotFound if no tag
	// with that name exists.
	Edit(ctx context.Context, tag domain.Tag) error

	// Delete removes a tag by name. Returns domain.ErrNotFound if it does
	// not exist.
	Delete(ctx context.Context, name string) error
}

// pgTagRepo is the Postgres implementation of TagRepo, bound to one schema.
type pgTagRepo struct {
	db     DB
	schema string
	table  string
}

// NewTagRepo constructs a TagRepo operating on the tags table in the given
// schema. In production pass the per-operation transaction; in tests pass a
// pgx.Tx for rollback isolation.
func NewTagRepo(db DB, schema string) TagRepo {
	return &pgTagRepo{
		db:     db,
		schema: schema,
		table:  pgx.Identifier{schema, "tags"}.Sanitize(),
	}
}

// Register creates the schema and tags table if absent. The DDL must stay in
// sync with the goose migration that bootstraps the canonical schema; both
// are idempotent so running them in either order is safe.
func (r *pgTagRepo) Register(ctx context.Context) error {
	stmts := []string{
		fmt.Sprintf(`CREATE SCHEMA IF NOT EXISTS %s`, pgx.Identifier{r.schema}.Sanitize()),
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id            uuid PRIMARY KEY DEFAULT gen_random_uuid(),
				name          text NOT NULL UNIQUE,
				attributes    jsonb NOT NULL DEFAULT '{}'::jsonb,
				components    jsonb NOT NULL DEFAULT '[]'::jsonb,
				first_created timestamptz NOT NULL,
				last_updated  timestamptz NOT NULL
			)`, r.table),
	}
	for _, stmt := range stmts {
		if _, err := r.db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("repo.TagRepo.Register: %w", err)
		}
	}
	return nil
}

// FindByName looks up a single tag by its unique name.
func (r *pgTagRepo) FindByName(ctx context.Context, name string) (domain.Tag, bool, error) {
	q := fmt.Sprintf(`
		SELECT name, attributes, components, first_created, last_updated
		FROM %s
		WHERE name = @name`, r.table)

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"name": name})
	tag, err := scanTag(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Tag{}, false, nil
		}
		return domain.Tag{}, false, fmt.Errorf("repo.TagRepo.FindByName: %w", err)
	}
	return tag, true, nil
}

// Search enumerates tags whose attributes are a superset of attrs, using the
// jsonb containment operator so the filtering happens in the database.
func (r *pgTagRepo) Search(ctx context.Context, attrs map[string]string) ([]domain.Tag, error) {
	if attrs == nil {
		// json.Marshal of a nil map is "null", which @> never contains.
		attrs = map[string]string{}
	}

	q := fmt.Sprintf(`
		SELECT name, attributes, components, first_created, last_updated
		FROM %s
		WHERE attributes @> @filter
		ORDER BY name`, r.table)

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"filter": attrs})
	if err != nil {
		return nil, fmt.Errorf("repo.TagRepo.Search: %w", err)
	}
	defer rows.Close()

	tags := []domain.Tag{}
	for rows.Next() {
		tag, err := scanTag(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.TagRepo.Search: scan: %w", err)
		}
		tags = append(tags, tag)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.TagRepo.Search: rows: %w", err)
	}
	return tags, nil
}

// Add inserts a new tag row.
func (r *pgTagRepo) Add(ctx context.Context, tag domain.Tag) error {
	q := fmt.Sprintf(`
		INSERT INTO %s (name, attributes, components, first_created, last_updated)
		VALUES (@name, @attributes, @components, @first_created, @last_updated)`, r.table)

	_, err := r.db.Exec(ctx, q, tagArgs(tag))
	if err != nil {
		return fmt.Errorf("repo.TagRepo.Add: %w", err)
	}
	return nil
}

// Edit replaces attributes, components, and last_updated of the row keyed by
// the tag's name. first_created is set once at insert and never rewritten.
func (r *pgTagRepo) Edit(ctx context.Context, tag domain.Tag) error {
	q := fmt.Sprintf(`
		UPDATE %s
		SET attributes   = @attributes,
		    components   = @components,
		    last_updated = @last_updated
		WHERE name = @name`, r.table)

	res, err := r.db.Exec(ctx, q, tagArgs(tag))
	if err != nil {
		return fmt.Errorf("repo.TagRepo.Edit: %w", err)
	}
	if res.RowsAffected() == 0 {
		return fmt.Errorf("repo.TagRepo.Edit: %w", domain.ErrNotFound)
	}
	return nil
}

// Delete removes the row keyed by name.
func (r *pgTagRepo) Delete(ctx context.Context, name string) error {
	q := fmt.Sprintf(`DELETE FROM %s WHERE name = @name`, r.table)

	res, err := r.db.Exec(ctx, q, pgx.NamedArgs{"name": name})
	if err != nil {
		return fmt.Errorf("repo.TagRepo.Delete: %w", err)
	}
	if res.RowsAffected() == 0 {
		return fmt.Errorf("repo.TagRepo.Delete: %w", domain.ErrNotFound)
	}
	return nil
}

// tagArgs maps a domain.Tag onto named SQL arguments. Attribute maps and
// component slices are encoded as jsonb by pgx.
func tagArgs(tag domain.Tag) pgx.NamedArgs {
	attrs := tag.Attributes
	if attrs == nil {
		attrs = map[string]string{}
	}
	components := tag.Components
	if components == nil {
		components = []domain.Component{}
	}
	return pgx.NamedArgs{
		"name":          tag.Name,
		"attributes":    attrs,
		"components":    components,
		"first_created": tag.FirstCreated,
		"last_updated":  tag.LastUpdated,
	}
}

// scanTag maps a single database row into a domain.Tag. The jsonb columns are
// decoded by pgx directly into the map and slice fields.
func scanTag(s scanner) (domain.Tag, error) {
	var t domain.Tag
	err := s.Scan(&t.Name, &t.Attributes, &t.Components, &t.FirstCreated, &t.LastUpdated)
	if err != nil {
		return domain.Tag{}, err
	}
	return t, nil
}
