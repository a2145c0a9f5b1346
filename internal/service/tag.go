// Package service contains the business logic for the tag registry.
// TagStore is the facade in front of persistence: it validates input, opens a
// transaction scope per operation, orchestrates the entity adapter, and
// returns detached snapshots to callers. No SQL lives here — the store
// depends on repo interfaces, not implementations.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/pcormier/tag-registry/internal/domain"
	"github.com/pcormier/tag-registry/internal/repo"
)

// AdapterFactory constructs a TagRepo bound to a transaction handle and a
// schema. The store calls it once per operation so every adapter runs inside
// that operation's transaction scope.
type AdapterFactory func(db repo.DB, schema string) repo.TagRepo

// TagStore stores and retrieves tags. Each public method acquires its own
// transaction; operations are independent and may run concurrently. There is
// deliberately no optimistic-concurrency check on AddOrUpdate — concurrent
// upserts of the same name are last-write-wins.
type TagStore struct {
	txm       repo.TxManager
	schemas   repo.SchemaManager
	adapters  AdapterFactory
	canonical string
	legacy    []string
	log       *slog.Logger
}

// NewTagStore constructs a TagStore.
//
// canonical names the schema holding the live tags table; legacy lists the
// schemas the one-time startup migration scans for left-behind tag data
// (see Initialize).
func NewTagStore(txm repo.TxManager, schemas repo.SchemaManager, adapters AdapterFactory,
	canonical string, legacy []string, log *slog.Logger) *TagStore {
	if log == nil {
		log = slog.Default()
	}
	return &TagStore{
		txm:       txm,
		schemas:   schemas,
		adapters:  adapters,
		canonical: canonical,
		legacy:    legacy,
		log:       log,
	}
}

// GetByName returns the tag with the given name.
// Returns domain.ErrNotFound if no such tag exists.
func (s *TagStore) GetByName(ctx context.Context, name string) (domain.Tag, error) {
	var tag domain.Tag
	err := s.txm.WithTx(ctx, func(ctx context.Context, db repo.DB) error {
		var err error
		tag, err = s.getTag(ctx, s.adapters(db, s.canonical), name)
		if err != nil {
			return fmt.Errorf("service.TagStore.GetByName: %w", err)
		}
		return nil
	})
	return tag, err
}

// Search returns the tags whose attribute map contains every pair in attrs
// and whose components satisfy all the given criteria. An empty filter and
// empty criteria list return every stored tag. Result order follows the
// adapter's enumeration order.
func (s *TagStore) Search(ctx context.Context, attrs map[string]string,
	criteria []domain.ComponentCriterion) ([]domain.Tag, error) {

	var matched []domain.Tag
	err := s.txm.WithTx(ctx, func(ctx context.Context, db repo.DB) error {
		candidates, err := s.adapters(db, s.canonical).Search(ctx, attrs)
		if err != nil {
			return fmt.Errorf("service.TagStore.Search: %w", err)
		}
		matched = []domain.Tag{}
		for _, tag := range candidates {
			if tag.MatchesComponents(criteria) {
				matched = append(matched, tag)
			}
		}
		return nil
	})
	return matched, err
}

// AddOrUpdate upserts a tag by name. A new tag gets FirstCreated set to the
// current time; an existing one keeps it. In both cases attributes and
// components are replaced wholesale with copies of the definition's values
// (not merged) and LastUpdated is set to the current time.
func (s *TagStore) AddOrUpdate(ctx context.Context, def domain.TagDefinition) (domain.Tag, error) {
	if strings.TrimSpace(def.Name) == "" {
		return domain.Tag{}, fmt.Errorf("service.TagStore.AddOrUpdate: %w: name is required", domain.ErrValidation)
	}

	var result domain.Tag
	err := s.txm.WithTx(ctx, func(ctx context.Context, db repo.DB) error {
		r := s.adapters(db, s.canonical)
		now := time.Now().UTC()

		existing, found, err := r.FindByName(ctx, def.Name)
		if err != nil {
			return fmt.Errorf("service.TagStore.AddOrUpdate: %w", err)
		}

		tag := domain.Tag{
			Name:         def.Name,
			Attributes:   maps.Clone(def.Attributes),
			Components:   slices.Clone(def.Components),
			FirstCreated: now,
			LastUpdated:  now,
		}
		if found {
			tag.FirstCreated = existing.FirstCreated
			err = r.Edit(ctx, tag)
		} else {
			err = r.Add(ctx, tag)
		}
		if err != nil {
			return fmt.Errorf("service.TagStore.AddOrUpdate: %w", err)
		}

		s.log.InfoContext(ctx, "tag stored", "name", tag.Name, "updated", found)
		result = tag
		return nil
	})
	return result, err
}

// Delete removes the tag with the given name.
// Returns domain.ErrNotFound if no such tag exists; a repeated delete of the
// same name therefore fails rather than silently succeeding.
func (s *TagStore) Delete(ctx context.Context, name string) error {
	return s.txm.WithTx(ctx, func(ctx context.Context, db repo.DB) error {
		r := s.adapters(db, s.canonical)
		if _, err := s.getTag(ctx, r, name); err != nil {
			return fmt.Errorf("service.TagStore.Delete: %w", err)
		}
		if err := r.Delete(ctx, name); err != nil {
			return fmt.Errorf("service.TagStore.Delete: %w", err)
		}
		s.log.InfoContext(ctx, "tag deleted", "name", name)
		return nil
	})
}

// CloneExisting creates a new tag from an existing one. The clone carries a
// deep copy of the source's attributes and components, with appending merged
// in on top (appended values override same-key source values). Both
// timestamps are set to the current time — a clone starts a new lineage.
// The source tag is left unmodified.
//
// Returns domain.ErrNotFound if source does not exist and
// domain.ErrAlreadyExists if newName is already taken.
func (s *TagStore) CloneExisting(ctx context.Context, source, newName string,
	appending map[string]string) (domain.Tag, error) {

	if strings.TrimSpace(newName) == "" {
		return domain.Tag{}, fmt.Errorf("service.TagStore.CloneExisting: %w: new name is required", domain.ErrValidation)
	}

	var result domain.Tag
	err := s.txm.WithTx(ctx, func(ctx context.Context, db repo.DB) error {
		r := s.adapters(db, s.canonical)

		src, err := s.getTag(ctx, r, source)
		if err != nil {
			return fmt.Errorf("service.TagStore.CloneExisting: %w", err)
		}
		if _, taken, err := r.FindByName(ctx, newName); err != nil {
			return fmt.Errorf("service.TagStore.CloneExisting: %w", err)
		} else if taken {
			return fmt.Errorf("service.TagStore.CloneExisting: %w", domain.ErrAlreadyExists)
		}

		clone := src.Snapshot()
		clone.Name = newName
		if clone.Attributes == nil {
			clone.Attributes = map[string]string{}
		}
		maps.Copy(clone.Attributes, appending)
		now := time.Now().UTC()
		clone.FirstCreated = now
		clone.LastUpdated = now

		if err := r.Add(ctx, clone); err != nil {
			return fmt.Errorf("service.TagStore.CloneExisting: %w", err)
		}
		s.log.InfoContext(ctx, "tag cloned", "source", source, "name", newName)
		result = clone
		return nil
	})
	return result, err
}

// getTag looks a tag up through the adapter and converts an absent tag into
// domain.ErrNotFound for the callers that require it to exist.
func (s *TagStore) getTag(ctx context.Context, r repo.TagRepo, name string) (domain.Tag, error) {
	tag, found, err := r.FindByName(ctx, name)
	if err != nil {
		return domain.Tag{}, err
	}
	if !found {
		return domain.Tag{}, fmt.Errorf("tag %q: %w", name, domain.ErrNotFound)
	}
	return tag, nil
}
