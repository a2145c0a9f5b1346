package service

import (
	"context"
	"fmt"

	"github.com/pcormier/tag-registry/internal/domain"
	"github.com/pcormier/tag-registry/internal/repo"
)

// Initialize prepares the store for traffic. It registers the canonical tags
// table and relocates any tag data left behind in legacy schemas by releases
// that stored tags in a shared location.
//
// Call it exactly once, before the store is advertised as ready. It is safe
// to run on every startup: once the legacy schemas have been cleaned up, the
// probe finds nothing and the routine only re-registers the canonical table.
//
// The whole routine runs inside a single transaction, so a failure while
// reading a legacy schema or importing a record rolls everything back —
// legacy tables are only dropped in the same commit that makes their records
// durable in the canonical schema, and a retry on the next startup starts
// from a consistent state.
func (s *TagStore) Initialize(ctx context.Context) error {
	return s.txm.WithTx(ctx, func(ctx context.Context, db repo.DB) error {
		var toMigrate []domain.Tag
		var cleanup []string
		for _, schema := range s.legacy {
			if schema == s.canonical {
				continue
			}
			exists, err := s.schemas.TagTableExists(ctx, db, schema)
			if err != nil {
				return fmt.Errorf("service.TagStore.Initialize: probe %s: %w", schema, err)
			}
			if !exists {
				continue
			}
			s.log.InfoContext(ctx, "legacy tags table found, records will be relocated", "schema", schema)
			tags, err := s.adapters(db, schema).Search(ctx, nil)
			if err != nil {
				return fmt.Errorf("service.TagStore.Initialize: read %s: %w", schema, err)
			}
			toMigrate = append(toMigrate, tags...)
			cleanup = append(cleanup, schema)
		}

		canonical := s.adapters(db, s.canonical)
		if err := canonical.Register(ctx); err != nil {
			return fmt.Errorf("service.TagStore.Initialize: %w", err)
		}

		imported := 0
		for _, tag := range toMigrate {
			// First writer wins: a name already present in the canonical
			// schema — including one imported earlier in this loop from
			// another legacy schema — is left alone.
			_, found, err := canonical.FindByName(ctx, tag.Name)
			if err != nil {
				return fmt.Errorf("service.TagStore.Initialize: %w", err)
			}
			if found {
				continue
			}
			if err := canonical.Add(ctx, tag); err != nil {
				return fmt.Errorf("service.TagStore.Initialize: import %q: %w", tag.Name, err)
			}
			imported++
		}
		if len(toMigrate) > 0 {
			s.log.InfoContext(ctx, "legacy tags imported", "imported", imported, "found", len(toMigrate))
		}

		// Cleanup is unconditional once a legacy table was detected, even if
		// it contributed no new records.
		for _, schema := range cleanup {
			if err := s.schemas.DropTagTable(ctx, db, schema); err != nil {
				return fmt.Errorf("service.TagStore.Initialize: cleanup %s: %w", schema, err)
			}
			s.log.InfoContext(ctx, "legacy tags table dropped", "schema", schema)
		}
		return nil
	})
}
