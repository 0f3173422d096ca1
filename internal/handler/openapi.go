package handler

import (
	_ "embed"
	"fmt"
	"net/http"

	"github.com/deppfellow/student-records/internal/server"
	"github.com/labstack/echo/v4"
)

//go:embed docs/openapi.html
var openAPIUI []byte

//go:embed docs/openapi.json
var openAPIDocument []byte

// OpenAPIHandler serves the API reference UI and the OpenAPI document it renders.
//
// Both files are embedded in the binary. Caching is disabled so updated docs
// show up immediately after a deploy.
type OpenAPIHandler struct {
	Handler
}

// NewOpenAPIHandler constructs an OpenAPIHandler with access to shared dependencies.
func NewOpenAPIHandler(s *server.Server) *OpenAPIHandler {
	return &OpenAPIHandler{
		Handler: NewHandler(s),
	}
}

// ServeOpenAPIUI serves the docs UI page.
func (h *OpenAPIHandler) ServeOpenAPIUI(c echo.Context) error {
	c.Response().Header().Set("Cache-Control", "no-cache")

	if err := c.HTMLBlob(http.StatusOK, openAPIUI); err != nil {
		return fmt.Errorf("failed to write HTML response: %w", err)
	}

	return nil
}

// ServeOpenAPIDocument serves the raw OpenAPI JSON document.
func (h *OpenAPIHandler) ServeOpenAPIDocument(c echo.Context) error {
	c.Response().Header().Set("Cache-Control", "no-cache")

	return c.Blob(http.StatusOK, echo.MIMEApplicationJSON, openAPIDocument)
}
