package mcp

import (
	"net/http"

	"github.com/custodia-labs/diligence/internal/core/ports/driving"
)

// Ports aggregates what the MCP server needs.
type Ports struct {
	// Sessions creates and looks up analysis sessions.
	Sessions driving.SessionManager

	// Metrics is served at /metrics in HTTP mode. Optional.
	Metrics http.Handler
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Sessions == nil {
		return ErrMissingSessionManager
	}
	return nil
}
