package domain

// ComponentCriterion is one predicate over a tag's components. Empty fields
// are wildcards; every non-empty field must equal the corresponding component
// field for the criterion to match.
type ComponentCriterion struct {
	Repository string `json:"repository,omitempty"`
	Group      string `json:"group,omitempty"`
	Name       string `json:"name,omitempty"`
	Version    string `json:"version,omitempty"`
}

// Matches reports whether component c satisfies the criterion.
func (cr ComponentCriterion) Matches(c Component) bool {
	if cr.Repository != "" && cr.Repository != c.Repository {
		return false
	}
	if cr.Group != "" && cr.Group != c.Group {
		return false
	}
	if cr.Name != "" && cr.Name != c.Name {
		return false
	}
	if cr.Version != "" && cr.Version != c.Version {
		return false
	}
	return true
}

// MatchesComponents reports whether the tag satisfies the full conjunction of
// criteria: each criterion must match at least one of the tag's components.
// An empty criteria list is always satisfied.
func (t Tag) MatchesComponents(criteria []ComponentCriterion) bool {
	for _, cr := range criteria {
		matched := false
		for _, c := range t.Components {
			if cr.Matches(c) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	return true
}
