package core

// Endpoint is a framework-agnostic route template. Adapters bind a
// handler to it by OperationID.
type Endpoint struct {
	Path     string
	Method   string
	Metadata EndpointMetadata
}

type EndpointMetadata struct {
	OperationID string
	Description string
	// RequiresSession marks endpoints that fail with Unauthorized without a valid token
	RequiresSession bool
}
