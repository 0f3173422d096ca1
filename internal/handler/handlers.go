// Package handler is the first layer. The first entry point
// for business logic after the router.
//
// It parses requests, handles input validation using the..
// validation package, and calls the appropriate service layer.
// It acts as the interface between the HTTP request and the core..
// business logic.
package handler

import (
	"github.com/deppfellow/student-records/internal/server"
	"github.com/deppfellow/student-records/internal/service"
)

// Handlers is a container that groups all HTTP handlers.
//
// Router setup receives this single object instead of many.
type Handlers struct {
	Health  *HealthHandler  // Health serves the liveness/readiness endpoint.
	OpenAPI *OpenAPIHandler // OpenAPI serves the API documentation UI and document.
	Student *StudentHandler // Student serves the /api/students resource.
}

// NewHandlers constructs the handler container.
//
// Parameters:
// - s: application container (logger/config/etc.) often needed by handlers
// - services: business layer container
func NewHandlers(s *server.Server, services *service.Services) *Handlers {
	return &Handlers{
		Health:  NewHealthHandler(s),
		OpenAPI: NewOpenAPIHandler(s),
		Student: NewStudentHandler(s, services.Student),
	}
}
