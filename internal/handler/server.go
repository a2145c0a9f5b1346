// Package handler implements the HTTP surface of the tag registry.
// All handlers are methods on Server; they decode requests, call the tag
// store through the TagServicer interface, and map domain errors to HTTP
// status codes. No business logic lives here.
package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pcormier/tag-registry/internal/domain"
	"github.com/pcormier/tag-registry/spec"
)

// TagServicer defines the store operations the handlers depend on. Defining
// the interface here (in the consumer package) follows the Go convention:
// "accept interfaces, return concrete types". It lets handler tests inject a
// mock without touching the database or service layer.
type TagServicer interface {
	GetByName(ctx context.Context, name string) (domain.Tag, error)
	Search(ctx context.Context, attrs map[string]string, criteria []domain.ComponentCriterion) ([]domain.Tag, error)
	AddOrUpdate(ctx context.Context, def domain.TagDefinition) (domain.Tag, error)
	Delete(ctx context.Context, name string) error
	CloneExisting(ctx context.Context, source, newName string, appending map[string]string) (domain.Tag, error)
}

// Server holds the handler dependencies. Methods live in domain-specific
// files (health.go, tag.go) but all operate on this struct.
type Server struct {
	tags TagServicer
}

// NewServer constructs the Server with all its dependencies.
func NewServer(tags TagServicer) *Server {
	return &Server{tags: tags}
}

// Routes returns the router for all registry endpoints. Mount it on the
// application router after the shared middleware stack.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/healthz", s.GetHealth)
	r.Get("/openapi.yaml", s.GetOpenAPI)

	r.Route("/v1/tags", func(r chi.Router) {
		r.Post("/", s.UpsertTag)
		r.Post("/search", s.SearchTags)
		r.Get("/{name}", s.GetTag)
		r.Delete("/{name}", s.DeleteTag)
		r.Post("/{name}/clone", s.CloneTag)
	})

	return r
}

// GetOpenAPI serves the embedded OpenAPI document, so the spec and the
// running code are always in sync.
func (s *Server) GetOpenAPI(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(spec.OpenAPI)
}
