package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pcormier/tag-registry/internal/domain"
)

func componentFixture() domain.Component {
	return domain.Component{
		Repository: "maven-releases",
		Group:      "com.acme",
		Name:       "billing",
		Version:    "1.4.2",
	}
}

// ---- Matches ---------------------------------------------------------------

func TestComponentCriterion_Matches_AllFields(t *testing.T) {
	cr := domain.ComponentCriterion{
		Repository: "maven-releases",
		Group:      "com.acme",
		Name:       "billing",
		Version:    "1.4.2",
	}

	assert.True(t, cr.Matches(componentFixture()))
}

func TestComponentCriterion_Matches_EmptyFieldsAreWildcards(t *testing.T) {
	cr := domain.ComponentCriterion{Name: "billing"}

	assert.True(t, cr.Matches(componentFixture()))
}

func TestComponentCriterion_Matches_ZeroCriterionMatchesAnything(t *testing.T) {
	cr := domain.ComponentCriterion{}

	assert.True(t, cr.Matches(componentFixture()))
	assert.True(t, cr.Matches(domain.Component{}))
}

func TestComponentCriterion_Matches_MismatchedField(t *testing.T) {
	cr := domain.ComponentCriterion{Name: "billing", Version: "2.0.0"}

	assert.False(t, cr.Matches(componentFixture()))
}

// ---- MatchesComponents -----------------------------------------------------

func TestTag_MatchesComponents_EmptyCriteriaAlwaysSatisfied(t *testing.T) {
	tag := domain.Tag{Name: "release"}

	assert.True(t, tag.MatchesComponents(nil))
	assert.True(t, tag.MatchesComponents([]domain.ComponentCriterion{}))
}

func TestTag_MatchesComponents_EachCriterionNeedsOneComponent(t *testing.T) {
	tag := domain.Tag{
		Name: "release",
		Components: []domain.Component{
			{Repository: "maven-releases", Name: "billing", Version: "1.4.2"},
			{Repository: "docker-prod", Name: "billing", Version: "1.4.2"},
		},
	}

	criteria := []domain.ComponentCriterion{
		{Repository: "maven-releases"},
		{Repository: "docker-prod"},
	}
	assert.True(t, tag.MatchesComponents(criteria),
		"each criterion is satisfied by a different component")
}

func TestTag_MatchesComponents_ConjunctionFailsOnOneMiss(t *testing.T) {
	tag := domain.Tag{
		Name: "release",
		Components: []domain.Component{
			{Repository: "maven-releases", Name: "billing"},
		},
	}

	criteria := []domain.ComponentCriterion{
		{Repository: "maven-releases"},
		{Repository: "docker-prod"},
	}
	assert.False(t, tag.MatchesComponents(criteria))
}

func TestTag_MatchesComponents_NoComponents(t *testing.T) {
	tag := domain.Tag{Name: "empty"}

	assert.False(t, tag.MatchesComponents([]domain.ComponentCriterion{{Name: "billing"}}))
	assert.True(t, tag.MatchesComponents(nil), "empty criteria still match a component-less tag")
}

// ---- Snapshot --------------------------------------------------------------

func TestTag_Snapshot_DoesNotAliasOriginal(t *testing.T) {
	original := domain.Tag{
		Name:       "release",
		Attributes: map[string]string{"env": "prod"},
		Components: []domain.Component{componentFixture()},
	}

	copied := original.Snapshot()
	copied.Attributes["env"] = "stage"
	copied.Components[0].Version = "9.9.9"

	assert.Equal(t, "prod", original.Attributes["env"])
	assert.Equal(t, "1.4.2", original.Components[0].Version)
}
