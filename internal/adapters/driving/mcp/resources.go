package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/diligence/internal/adapters/driving/report"
	"github.com/custodia-labs/diligence/internal/core/ports/driving"
)

const (
	sessionsURI = "diligence://sessions"
	mimeJSON    = "application/json"
	mimeText    = "text/plain"
)

func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         sessionsURI,
		Name:        "sessions",
		Description: "Open analysis sessions and their corpus readiness",
		MIMEType:    mimeJSON,
	}, s.handleSessionsResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: sessionsURI + "/{sessionId}/status",
		Name:        "session-status",
		Description: "Indexing status of a session's documents",
		MIMEType:    mimeText,
	}, s.handleStatusResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: sessionsURI + "/{sessionId}/transcript",
		Name:        "session-transcript",
		Description: "Question and answer transcript of a session",
		MIMEType:    mimeJSON,
	}, s.handleTranscriptResource)
}

type sessionSummary struct {
	ID        string `json:"id"`
	Readiness string `json:"readiness"`
	Documents int    `json:"documents"`
}

func (s *Server) handleSessionsResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	ids := s.ports.Sessions.List()
	summaries := make([]sessionSummary, 0, len(ids))
	for _, id := range ids {
		session, err := s.ports.Sessions.Get(id)
		if err != nil {
			continue // closed since List
		}
		status := session.Corpus().Status(ctx)
		summaries = append(summaries, sessionSummary{
			ID:        id,
			Readiness: status.Readiness.String(),
			Documents: len(status.Documents),
		})
	}
	return jsonResource(req.Params.URI, summaries)
}

func (s *Server) handleStatusResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	session, err := s.resourceSession(req.Params.URI, "status")
	if err != nil {
		return nil, err
	}
	return textResource(req.Params.URI, mimeText, report.Status(session.Corpus().Status(ctx))), nil
}

func (s *Server) handleTranscriptResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	session, err := s.resourceSession(req.Params.URI, "transcript")
	if err != nil {
		return nil, err
	}
	turns, err := session.History(ctx)
	if err != nil {
		return nil, fmt.Errorf("load transcript: %w", err)
	}
	return jsonResource(req.Params.URI, turnOutputs(turns))
}

// resourceSession resolves diligence://sessions/{id}/{leaf} to an open
// session.
func (s *Server) resourceSession(uri, leaf string) (driving.Session, error) {
	id := sessionIDFromURI(uri, leaf)
	if id == "" {
		return nil, mcp.ResourceNotFoundError(uri)
	}
	session, err := s.ports.Sessions.Get(id)
	if err != nil {
		return nil, mcp.ResourceNotFoundError(uri)
	}
	return session, nil
}

// sessionIDFromURI returns the {id} of diligence://sessions/{id}/{leaf},
// or "" when uri has another shape.
func sessionIDFromURI(uri, leaf string) string {
	rest, ok := strings.CutPrefix(uri, sessionsURI+"/")
	if !ok {
		return ""
	}
	id, ok := strings.CutSuffix(rest, "/"+leaf)
	if !ok || id == "" || strings.Contains(id, "/") {
		return ""
	}
	return id
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", uri, err)
	}
	return textResource(uri, mimeJSON, string(data)), nil
}

func textResource(uri, mimeType, text string) *mcp.ReadResourceResult {
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{URI: uri, MIMEType: mimeType, Text: text}},
	}
}
