package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pcormier/tag-registry/internal/domain"
)

// tagResponse is the external JSON view of a stored tag.
type tagResponse struct {
	Name         string             `json:"name"`
	Attributes   map[string]string  `json:"attributes"`
	Components   []domain.Component `json:"components"`
	FirstCreated time.Time          `json:"firstCreated"`
	LastUpdated  time.Time          `json:"lastUpdated"`
}

// tagDefinitionRequest is the upsert body: the desired target state for a name.
type tagDefinitionRequest struct {
	Name       string             `json:"name"`
	Attributes map[string]string  `json:"attributes"`
	Components []domain.Component `json:"components"`
}

// searchRequest carries the two search stages: exact-match attribute pairs
// and component criteria that every returned tag must satisfy.
type searchRequest struct {
	Attributes map[string]string           `json:"attributes"`
	Components []domain.ComponentCriterion `json:"components"`
}

// cloneRequest names the clone and the attributes appended on top of the
// source's (appended values override same-key source values).
type cloneRequest struct {
	Name       string            `json:"name"`
	Attributes map[string]string `json:"attributes"`
}

// GetTag handles GET /v1/tags/{name}.
func (s *Server) GetTag(w http.ResponseWriter, r *http.Request) {
	tag, err := s.tags.GetByName(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, notFoundBody("tag not found"))
			return
		}
		writeInternalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tagToResponse(tag))
}

// UpsertTag handles POST /v1/tags. It creates the tag if the name is free and
// fully replaces its attributes and components otherwise.
func (s *Server) UpsertTag(w http.ResponseWriter, r *http.Request) {
	var body tagDefinitionRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, requestBody("invalid JSON body"))
		return
	}

	tag, err := s.tags.AddOrUpdate(r.Context(), domain.TagDefinition{
		Name:       body.Name,
		Attributes: body.Attributes,
		Components: body.Components,
	})
	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			writeJSON(w, http.StatusUnprocessableEntity, validationBody(err))
			return
		}
		writeInternalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tagToResponse(tag))
}

// DeleteTag handles DELETE /v1/tags/{name}.
func (s *Server) DeleteTag(w http.ResponseWriter, r *http.Request) {
	err := s.tags.Delete(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, notFoundBody("tag not found"))
			return
		}
		writeInternalError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SearchTags handles POST /v1/tags/search.
func (s *Server) SearchTags(w http.ResponseWriter, r *http.Request) {
	var body searchRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, requestBody("invalid JSON body"))
		return
	}

	tags, err := s.tags.Search(r.Context(), body.Attributes, body.Components)
	if err != nil {
		writeInternalError(w, err)
		return
	}

	data := make([]tagResponse, len(tags))
	for i, t := range tags {
		data[i] = tagToResponse(t)
	}
	writeJSON(w, http.StatusOK, data)
}

// CloneTag handles POST /v1/tags/{name}/clone.
func (s *Server) CloneTag(w http.ResponseWriter, r *http.Request) {
	var body cloneRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, requestBody("invalid JSON body"))
		return
	}

	tag, err := s.tags.CloneExisting(r.Context(), chi.URLParam(r, "name"), body.Name, body.Attributes)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			writeJSON(w, http.StatusNotFound, notFoundBody("source tag not found"))
		case errors.Is(err, domain.ErrAlreadyExists):
			writeJSON(w, http.StatusConflict, conflictBody("a tag with the new name already exists"))
		case errors.Is(err, domain.ErrValidation):
			writeJSON(w, http.StatusUnprocessableEntity, validationBody(err))
		default:
			writeInternalError(w, err)
		}
		return
	}
	writeJSON(w, http.StatusCreated, tagToResponse(tag))
}

// writeInternalError answers a storage or other unexpected failure. The
// underlying error is logged, never echoed to the client.
func writeInternalError(w http.ResponseWriter, err error) {
	slog.Error("handler error", "error", err)
	writeJSON(w, http.StatusInternalServerError,
		errorResponse{Error: errorDetail{Code: "internal", Message: "internal server error"}})
}

// tagToResponse converts a domain.Tag to its API response shape, normalising
// nil collections so clients always see {} and [].
func tagToResponse(t domain.Tag) tagResponse {
	if t.Attributes == nil {
		t.Attributes = map[string]string{}
	}
	if t.Components == nil {
		t.Components = []domain.Component{}
	}
	return tagResponse{
		Name:         t.Name,
		Attributes:   t.Attributes,
		Components:   t.Components,
		FirstCreated: t.FirstCreated,
		LastUpdated:  t.LastUpdated,
	}
}
