package repo_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pcormier/tag-registry/internal/domain"
	"github.com/pcormier/tag-registry/internal/repo"
	"github.com/pcormier/tag-registry/testutil"
)

// newTestTagRepo opens a single transaction and returns a TagRepo bound to the
// canonical schema, backed by that tx — so every test runs in its own
// rolled-back transaction.
func newTestTagRepo(t *testing.T) repo.TagRepo {
	t.Helper()
	pool := testutil.NewPool(t)

	tx, err := pool.Begin(context.Background())
	require.NoError(t, err, "begin transaction")

	t.Cleanup(func() {
		_ = tx.Rollback(context.Background())
	})

	return repo.NewTagRepo(tx, "tag")
}

// uniqueName returns a tag name that cannot collide with rows created by
// other tests sharing the database.
func uniqueName(prefix string) string {
	return prefix + "-" + uuid.NewString()
}

func newStoredTag(name string) domain.Tag {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return domain.Tag{
		Name:         name,
		Attributes:   map[string]string{"env": "prod", "team": "payments"},
		Components:   []domain.Component{{Repository: "maven-releases", Group: "com.acme", Name: "billing", Version: "1.4.2"}},
		FirstCreated: now,
		LastUpdated:  now,
	}
}

// ---- Add / FindByName ------------------------------------------------------

func TestTagRepo_AddAndFindByName(t *testing.T) {
	tagRepo := newTestTagRepo(t)
	ctx := context.Background()

	want := newStoredTag(uniqueName("release"))
	require.NoError(t, tagRepo.Add(ctx, want))

	got, found, err := tagRepo.FindByName(ctx, want.Name)

	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, want.Name, got.Name)
	assert.Equal(t, want.Attributes, got.Attributes)
	assert.Equal(t, want.Components, got.Components)
	assert.WithinDuration(t, want.FirstCreated, got.FirstCreated, time.Second)
	assert.WithinDuration(t, want.LastUpdated, got.LastUpdated, time.Second)
}

func TestTagRepo_FindByName_Absent(t *testing.T) {
	tagRepo := newTestTagRepo(t)

	_, found, err := tagRepo.FindByName(context.Background(), uniqueName("missing"))

	require.NoError(t, err, "an absent tag is not an error")
	assert.False(t, found)
}

func TestTagRepo_Add_EmptyCollections(t *testing.T) {
	tagRepo := newTestTagRepo(t)
	ctx := context.Background()

	tag := newStoredTag(uniqueName("bare"))
	tag.Attributes = nil
	tag.Components = nil
	require.NoError(t, tagRepo.Add(ctx, tag))

	got, found, err := tagRepo.FindByName(ctx, tag.Name)

	require.NoError(t, err)
	require.True(t, found)
	assert.Empty(t, got.Attributes)
	assert.Empty(t, got.Components)
}

// ---- Edit ------------------------------------------------------------------

func TestTagRepo_Edit_ReplacesMutableFields(t *testing.T) {
	tagRepo := newTestTagRepo(t)
	ctx := context.Background()

	tag := newStoredTag(uniqueName("release"))
	require.NoError(t, tagRepo.Add(ctx, tag))

	updated := tag
	updated.Attributes = map[string]string{"env": "stage"}
	updated.Components = nil
	updated.LastUpdated = tag.LastUpdated.Add(time.Hour)
	// A different FirstCreated on the edit must be ignored by the UPDATE.
	updated.FirstCreated = tag.FirstCreated.Add(-24 * time.Hour)
	require.NoError(t, tagRepo.Edit(ctx, updated))

	got, found, err := tagRepo.FindByName(ctx, tag.Name)

	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, map[string]string{"env": "stage"}, got.Attributes, "attributes replaced, not merged")
	assert.Empty(t, got.Components)
	assert.WithinDuration(t, updated.LastUpdated, got.LastUpdated, time.Second)
	assert.WithinDuration(t, tag.FirstCreated, got.FirstCreated, time.Second,
		"first_created is never rewritten")
}

func TestTagRepo_Edit_Missing(t *testing.T) {
	tagRepo := newTestTagRepo(t)

	err := tagRepo.Edit(context.Background(), newStoredTag(uniqueName("ghost")))

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ---- Delete ----------------------------------------------------------------

func TestTagRepo_Delete(t *testing.T) {
	tagRepo := newTestTagRepo(t)
	ctx := context.Background()

	tag := newStoredTag(uniqueName("release"))
	require.NoError(t, tagRepo.Add(ctx, tag))

	require.NoError(t, tagRepo.Delete(ctx, tag.Name))

	_, found, err := tagRepo.FindByName(ctx, tag.Name)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestTagRepo_Delete_Missing(t *testing.T) {
	tagRepo := newTestTagRepo(t)

	err := tagRepo.Delete(context.Background(), uniqueName("missing"))

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ---- Search ----------------------------------------------------------------

func TestTagRepo_Search_SupersetMatch(t *testing.T) {
	tagRepo := newTestTagRepo(t)
	ctx := context.Background()

	match := newStoredTag(uniqueName("match"))
	match.Attributes = map[string]string{"env": "prod", "team": "payments", "build": "42"}
	require.NoError(t, tagRepo.Add(ctx, match))

	miss := newStoredTag(uniqueName("miss"))
	miss.Attributes = map[string]string{"env": "stage", "team": "payments"}
	require.NoError(t, tagRepo.Add(ctx, miss))

	got, err := tagRepo.Search(ctx, map[string]string{"env": "prod", "team": "payments"})

	require.NoError(t, err)
	names := tagNames(got)
	assert.Contains(t, names, match.Name, "extra attributes on the tag are ignored")
	assert.NotContains(t, names, miss.Name)
}

func TestTagRepo_Search_EmptyFilterMatchesAll(t *testing.T) {
	tagRepo := newTestTagRepo(t)
	ctx := context.Background()

	a := newStoredTag(uniqueName("a"))
	b := newStoredTag(uniqueName("b"))
	b.Attributes = nil
	require.NoError(t, tagRepo.Add(ctx, a))
	require.NoError(t, tagRepo.Add(ctx, b))

	got, err := tagRepo.Search(ctx, nil)

	require.NoError(t, err)
	names := tagNames(got)
	assert.Contains(t, names, a.Name)
	assert.Contains(t, names, b.Name, "a nil filter matches tags without attributes too")
}

func TestTagRepo_Search_OrderedByName(t *testing.T) {
	tagRepo := newTestTagRepo(t)
	ctx := context.Background()

	marker := uuid.NewString()
	first := newStoredTag("a-" + marker)
	second := newStoredTag("b-" + marker)
	first.Attributes = map[string]string{"marker": marker}
	second.Attributes = map[string]string{"marker": marker}
	require.NoError(t, tagRepo.Add(ctx, second))
	require.NoError(t, tagRepo.Add(ctx, first))

	got, err := tagRepo.Search(ctx, map[string]string{"marker": marker})

	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, first.Name, got[0].Name)
	assert.Equal(t, second.Name, got[1].Name)
}

func TestTagRepo_Search_NoMatches(t *testing.T) {
	tagRepo := newTestTagRepo(t)

	got, err := tagRepo.Search(context.Background(), map[string]string{"env": uuid.NewString()})

	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func tagNames(tags []domain.Tag) []string {
	names := make([]string, len(tags))
	for i, tag := range tags {
		names[i] = tag.Name
	}
	return names
}
