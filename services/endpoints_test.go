package services

import (
	"testing"

	"github.com/lborres/studysync/core"
)

// Requirement: BaseEndpoints describes every action with a unique operation id.
func TestBaseEndpoints(t *testing.T) {
	tests := []struct {
		name            string
		wantMethod      string
		wantPath        string
		wantOpID        string
		wantNeedSession bool
	}{
		{name: "register is public", wantMethod: "POST", wantPath: "/auth/register", wantOpID: "register"},
		{name: "login is public", wantMethod: "POST", wantPath: "/auth/login", wantOpID: "login"},
		{name: "logout is public", wantMethod: "POST", wantPath: "/auth/logout", wantOpID: "logout"},
		{name: "session", wantMethod: "GET", wantPath: "/auth/session", wantOpID: "getSession", wantNeedSession: true},
		{name: "list materials", wantMethod: "GET", wantPath: "/materials", wantOpID: "listMaterials", wantNeedSession: true},
		{name: "update material", wantMethod: "PUT", wantPath: "/materials/:id", wantOpID: "updateMaterial", wantNeedSession: true},
		{name: "generate flashcards", wantMethod: "POST", wantPath: "/materials/:id/flashcards", wantOpID: "generateFlashcards", wantNeedSession: true},
		{name: "delete flashcard", wantMethod: "DELETE", wantPath: "/flashcards/:id", wantOpID: "deleteFlashcard", wantNeedSession: true},
		{name: "dashboard", wantMethod: "GET", wantPath: "/dashboard", wantOpID: "dashboardStats", wantNeedSession: true},
	}

	// Arrange
	byOpID := make(map[string]core.Endpoint)
	for _, ep := range BaseEndpoints() {
		if _, dup := byOpID[ep.Metadata.OperationID]; dup {
			t.Fatalf("BaseEndpoints contains duplicate OperationID %q", ep.Metadata.OperationID)
		}
		byOpID[ep.Metadata.OperationID] = ep
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			// Act
			ep, found := byOpID[test.wantOpID]

			// Assert
			if !found {
				t.Fatalf("BaseEndpoints should include %q", test.wantOpID)
			}
			if ep.Method != test.wantMethod || ep.Path != test.wantPath {
				t.Errorf("%s = %s %s, want %s %s", test.wantOpID, ep.Method, ep.Path, test.wantMethod, test.wantPath)
			}
			if ep.Metadata.RequiresSession != test.wantNeedSession {
				t.Errorf("%s RequiresSession = %v, want %v", test.wantOpID, ep.Metadata.RequiresSession, test.wantNeedSession)
			}
			if ep.Metadata.Description == "" {
				t.Errorf("%s has no description", test.wantOpID)
			}
		})
	}
}

// Requirement: the registry holds every base endpoint once, in a stable order.
func TestEndpointRegistry_Endpoints(t *testing.T) {
	registry := NewEndpointRegistry()

	endpoints := registry.Endpoints()

	if len(endpoints) != len(BaseEndpoints()) {
		t.Fatalf("registry has %d endpoints, want %d", len(endpoints), len(BaseEndpoints()))
	}
	for i := 1; i < len(endpoints); i++ {
		prev, cur := endpoints[i-1], endpoints[i]
		if prev.Path > cur.Path || (prev.Path == cur.Path && prev.Method > cur.Method) {
			t.Errorf("endpoints out of order: %s %s before %s %s", prev.Method, prev.Path, cur.Method, cur.Path)
		}
	}
}

// Requirement: extra endpoints are rejected on a METHOD:PATH conflict, all or nothing.
func TestEndpointRegistry_Register(t *testing.T) {
	tests := []struct {
		name      string
		extra     []core.Endpoint
		wantErr   bool
		wantTotal int
	}{
		{
			name:      "accepts a new path",
			extra:     []core.Endpoint{{Method: "GET", Path: "/health", Metadata: core.EndpointMetadata{OperationID: "health"}}},
			wantTotal: len(BaseEndpoints()) + 1,
		},
		{
			name:      "accepts same path with another method",
			extra:     []core.Endpoint{{Method: "PATCH", Path: "/materials/:id", Metadata: core.EndpointMetadata{OperationID: "patchMaterial"}}},
			wantTotal: len(BaseEndpoints()) + 1,
		},
		{
			name:      "rejects conflict with a base endpoint",
			extra:     []core.Endpoint{{Method: "POST", Path: "/auth/login", Metadata: core.EndpointMetadata{OperationID: "login2"}}},
			wantErr:   true,
			wantTotal: len(BaseEndpoints()),
		},
		{
			name: "rejects duplicates within the batch",
			extra: []core.Endpoint{
				{Method: "GET", Path: "/health", Metadata: core.EndpointMetadata{OperationID: "health"}},
				{Method: "GET", Path: "/health", Metadata: core.EndpointMetadata{OperationID: "health2"}},
			},
			wantErr:   true,
			wantTotal: len(BaseEndpoints()),
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			// Arrange
			registry := NewEndpointRegistry()

			// Act
			err := registry.Register(test.extra)

			// Assert
			if (err != nil) != test.wantErr {
				t.Errorf("Register() error = %v, wantErr %v", err, test.wantErr)
			}
			if got := len(registry.Endpoints()); got != test.wantTotal {
				t.Errorf("registry has %d endpoints, want %d", got, test.wantTotal)
			}
		})
	}
}

func TestEndpointRegistry_Lookup(t *testing.T) {
	registry := NewEndpointRegistry()

	ep, ok := registry.Lookup("explainConcept")
	if !ok || ep.Method != "POST" || ep.Path != "/materials/:id/explain" {
		t.Errorf("Lookup(explainConcept) = %+v, %v", ep, ok)
	}
	if _, ok := registry.Lookup("missing"); ok {
		t.Error("Lookup(missing) should fail")
	}
}
