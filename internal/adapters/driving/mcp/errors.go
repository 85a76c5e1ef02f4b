// Package mcp provides an MCP (Model Context Protocol) server adapter for diligence.
// It lets AI assistants create sessions, upload documents, ask grounded
// questions and request the investment memo.
package mcp

import "errors"

// ErrMissingSessionManager is returned when the session manager is not provided.
var ErrMissingSessionManager = errors.New("mcp: session manager is required")

// errNoContent is returned when an upload carries neither a path nor content.
var errNoContent = errors.New("either path or content_base64 is required")
