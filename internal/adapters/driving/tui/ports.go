// Package tui provides an interactive terminal chat for a diligence session.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/custodia-labs/diligence/internal/connectors/filesystem"
	"github.com/custodia-labs/diligence/internal/core/ports/driving"
)

// WatchSource delivers uploads from a watched folder.
type WatchSource interface {
	Dir() string
	Events() <-chan filesystem.Event
}

// Ports aggregates the driving ports required by the TUI.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Session is the analysis session the chat runs against.
	Session driving.Session

	// Watch is an optional watched folder feeding the session's corpus.
	Watch WatchSource
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil || p.Session == nil {
		return ErrMissingSession
	}
	return nil
}
