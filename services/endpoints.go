package services

import (
	"fmt"
	"sort"

	"github.com/lborres/studysync/core"
)

// BaseEndpoints returns the framework-agnostic endpoint templates for every
// StudySync action. Paths are relative to the configured base path.
//
// Adapters bind their own handlers by OperationID, so one set of definitions
// serves any HTTP framework.
func BaseEndpoints() []core.Endpoint {
	return []core.Endpoint{
		// auth
		{
			Path:   "/auth/register",
			Method: "POST",
			Metadata: core.EndpointMetadata{
				OperationID: "register",
				Description: "Create an account and start a session",
			},
		},
		{
			Path:   "/auth/login",
			Method: "POST",
			Metadata: core.EndpointMetadata{
				OperationID: "login",
				Description: "Sign in with email and password",
			},
		},
		{
			Path:   "/auth/logout",
			Method: "POST",
			Metadata: core.EndpointMetadata{
				OperationID: "logout",
				Description: "Clear the session cookie",
			},
		},
		{
			Path:   "/auth/session",
			Method: "GET",
			Metadata: core.EndpointMetadata{
				OperationID:     "getSession",
				Description:     "Get the current user",
				RequiresSession: true,
			},
		},

		// materials
		{
			Path:   "/materials",
			Method: "GET",
			Metadata: core.EndpointMetadata{
				OperationID:     "listMaterials",
				Description:     "List the user's materials, filtered by search and subject",
				RequiresSession: true,
			},
		},
		{
			Path:   "/materials",
			Method: "POST",
			Metadata: core.EndpointMetadata{
				OperationID:     "createMaterial",
				Description:     "Create a study material",
				RequiresSession: true,
			},
		},
		{
			Path:   "/materials/:id",
			Method: "GET",
			Metadata: core.EndpointMetadata{
				OperationID:     "getMaterial",
				Description:     "Get one material",
				RequiresSession: true,
			},
		},
		{
			Path:   "/materials/:id",
			Method: "PUT",
			Metadata: core.EndpointMetadata{
				OperationID:     "updateMaterial",
				Description:     "Replace a material's title, subject, content and tags",
				RequiresSession: true,
			},
		},
		{
			Path:   "/materials/:id",
			Method: "DELETE",
			Metadata: core.EndpointMetadata{
				OperationID:     "deleteMaterial",
				Description:     "Delete a material",
				RequiresSession: true,
			},
		},
		{
			Path:   "/materials/:id/summary",
			Method: "POST",
			Metadata: core.EndpointMetadata{
				OperationID:     "generateSummary",
				Description:     "Generate and store an AI summary of a material",
				RequiresSession: true,
			},
		},
		{
			Path:   "/materials/:id/flashcards",
			Method: "POST",
			Metadata: core.EndpointMetadata{
				OperationID:     "generateFlashcards",
				Description:     "Generate flashcards from a material",
				RequiresSession: true,
			},
		},
		{
			Path:   "/materials/:id/explain",
			Method: "POST",
			Metadata: core.EndpointMetadata{
				OperationID:     "explainConcept",
				Description:     "Answer a question about a material",
				RequiresSession: true,
			},
		},

		// flashcards
		{
			Path:   "/flashcards",
			Method: "GET",
			Metadata: core.EndpointMetadata{
				OperationID:     "listFlashcards",
				Description:     "List the user's flashcards, filtered by subject and material",
				RequiresSession: true,
			},
		},
		{
			Path:   "/flashcards",
			Method: "POST",
			Metadata: core.EndpointMetadata{
				OperationID:     "createFlashcard",
				Description:     "Create a flashcard",
				RequiresSession: true,
			},
		},
		{
			Path:   "/flashcards/:id",
			Method: "PUT",
			Metadata: core.EndpointMetadata{
				OperationID:     "updateFlashcard",
				Description:     "Replace a flashcard's question, answer, subject and difficulty",
				RequiresSession: true,
			},
		},
		{
			Path:   "/flashcards/:id",
			Method: "DELETE",
			Metadata: core.EndpointMetadata{
				OperationID:     "deleteFlashcard",
				Description:     "Delete a flashcard",
				RequiresSession: true,
			},
		},

		// dashboard
		{
			Path:   "/dashboard",
			Method: "GET",
			Metadata: core.EndpointMetadata{
				OperationID:     "dashboardStats",
				Description:     "Count the user's materials and flashcards",
				RequiresSession: true,
			},
		},
	}
}

// EndpointRegistry manages a collection of framework-agnostic endpoints
// and handles conflict detection for duplicate METHOD:PATH combinations.
type EndpointRegistry struct {
	// endpoints stores all registered endpoints keyed by "METHOD:PATH"
	endpoints map[string]*core.Endpoint
}

// NewEndpointRegistry creates a registry with every base endpoint registered.
func NewEndpointRegistry() *EndpointRegistry {
	reg := &EndpointRegistry{
		endpoints: make(map[string]*core.Endpoint),
	}

	base := BaseEndpoints()
	for i := range base {
		if err := reg.register(&base[i]); err != nil {
			panic(err) // base set is static
		}
	}

	return reg
}

func endpointKey(ep *core.Endpoint) string {
	return fmt.Sprintf("%s:%s", ep.Method, ep.Path)
}

// register adds a single endpoint to the registry with conflict detection.
func (r *EndpointRegistry) register(ep *core.Endpoint) error {
	key := endpointKey(ep)

	if _, exists := r.endpoints[key]; exists {
		return fmt.Errorf("endpoint conflict: %s %s already registered", ep.Method, ep.Path)
	}

	r.endpoints[key] = ep
	return nil
}

// Register adds extra endpoints, such as health or debug routes.
// Either all of them are registered or none are.
func (r *EndpointRegistry) Register(endpoints []core.Endpoint) error {
	seen := make(map[string]bool, len(endpoints))
	for i := range endpoints {
		ep := &endpoints[i]
		key := endpointKey(ep)

		if _, exists := r.endpoints[key]; exists {
			return fmt.Errorf("endpoint conflict: %s %s already registered", ep.Method, ep.Path)
		}
		if seen[key] {
			return fmt.Errorf("duplicate endpoint: %s %s", ep.Method, ep.Path)
		}
		seen[key] = true
	}

	for i := range endpoints {
		ep := endpoints[i]
		r.endpoints[endpointKey(&ep)] = &ep
	}

	return nil
}

// Lookup finds an endpoint by its OperationID
func (r *EndpointRegistry) Lookup(operationID string) (*core.Endpoint, bool) {
	for _, ep := range r.endpoints {
		if ep.Metadata.OperationID == operationID {
			return ep, true
		}
	}
	return nil, false
}

// Endpoints returns every registered endpoint ordered by path, then method.
func (r *EndpointRegistry) Endpoints() []*core.Endpoint {
	result := make([]*core.Endpoint, 0, len(r.endpoints))
	for _, ep := range r.endpoints {
		result = append(result, ep)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Path != result[j].Path {
			return result[i].Path < result[j].Path
		}
		return result[i].Method < result[j].Method
	})
	return result
}
