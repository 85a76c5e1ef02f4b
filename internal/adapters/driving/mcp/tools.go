package mcp

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/diligence/internal/adapters/driving/report"
	"github.com/custodia-labs/diligence/internal/connectors/filesystem"
	"github.com/custodia-labs/diligence/internal/core/domain"
)

// maxStatusWait caps how long corpus_status may block.
const maxStatusWait = 5 * time.Minute

// SessionInput identifies a session.
type SessionInput struct {
	SessionID string `json:"session_id" jsonschema:"the session returned by create_session"`
}

// CreateSessionInput is the input schema for the create_session tool.
type CreateSessionInput struct{}

// CreateSessionOutput is the output schema for the create_session tool.
type CreateSessionOutput struct {
	SessionID string `json:"session_id"`
}

// UploadInput is the input schema for the upload_document tool.
type UploadInput struct {
	SessionID     string `json:"session_id" jsonschema:"the session to upload into"`
	Path          string `json:"path,omitempty" jsonschema:"local path of the file to upload"`
	Filename      string `json:"filename,omitempty" jsonschema:"file name, required with content_base64"`
	ContentBase64 string `json:"content_base64,omitempty" jsonschema:"base64-encoded file content"`
	Wait          bool   `json:"wait,omitempty" jsonschema:"wait for indexing to finish before returning"`
}

// DocumentOutput describes one uploaded document.
type DocumentOutput struct {
	DocumentID string `json:"document_id"`
	Name       string `json:"name"`
	Status     string `json:"status"`
	Failure    string `json:"failure,omitempty"`
}

// UploadOutput is the output schema for the upload_document tool.
type UploadOutput struct {
	DocumentID string `json:"document_id"`
	Name       string `json:"name"`
	Status     string `json:"status"`
	Failure    string `json:"failure,omitempty"`
	Duplicate  bool   `json:"duplicate"`
}

// StatusInput is the input schema for the corpus_status tool.
type StatusInput struct {
	SessionID   string `json:"session_id" jsonschema:"the session to inspect"`
	WaitSeconds int    `json:"wait_seconds,omitempty" jsonschema:"wait up to this many seconds for indexing to finish"`
}

// StatusOutput is the output schema for the corpus_status tool.
type StatusOutput struct {
	Readiness string           `json:"readiness"`
	Version   int              `json:"version"`
	Documents []DocumentOutput `json:"documents"`
}

// AskInput is the input schema for the ask_question tool.
type AskInput struct {
	SessionID string `json:"session_id" jsonschema:"the session to ask in"`
	Question  string `json:"question" jsonschema:"the question about the uploaded documents"`
}

// CitationOutput is one source cited by an answer.
type CitationOutput struct {
	DocumentID   string `json:"document_id"`
	DocumentName string `json:"document_name"`
	Locator      string `json:"locator,omitempty"`
	Excerpt      string `json:"excerpt,omitempty"`
}

// AnswerOutput is the output schema for the ask_question tool.
type AnswerOutput struct {
	Answer        string           `json:"answer"`
	Confidence    string           `json:"confidence"`
	Citations     []CitationOutput `json:"citations"`
	Model         string           `json:"model,omitempty"`
	CorpusVersion int              `json:"corpus_version"`
	Stale         bool             `json:"stale"`
}

// SectionOutput is one memo dimension.
type SectionOutput struct {
	Dimension     string   `json:"dimension"`
	Risk          string   `json:"risk"`
	Justification string   `json:"justification"`
	Answer        string   `json:"answer"`
	Sources       []string `json:"sources"`
}

// MemoOutput is the output schema for the generate_memo tool.
type MemoOutput struct {
	Verdict   string          `json:"verdict"`
	Rationale string          `json:"rationale"`
	Sections  []SectionOutput `json:"sections"`
	Sources   []string        `json:"sources"`
	Markdown  string          `json:"markdown"`
}

// TurnOutput is one transcript entry.
type TurnOutput struct {
	Seq        int      `json:"seq"`
	Role       string   `json:"role"`
	Text       string   `json:"text"`
	Error      string   `json:"error,omitempty"`
	Confidence string   `json:"confidence,omitempty"`
	Sources    []string `json:"sources,omitempty"`
}

// HistoryOutput is the output schema for the conversation_history tool.
type HistoryOutput struct {
	Turns []TurnOutput `json:"turns"`
}

// CloseOutput is the output schema for the close_session tool.
type CloseOutput struct {
	Closed bool `json:"closed"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "create_session",
		Description: "Start an analysis session with an empty document corpus",
	}, s.handleCreateSession)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "upload_document",
		Description: "Upload a diligence document (inspection, disclosure, appraisal, HOA packet, bid) into a session",
	}, s.handleUpload)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "corpus_status",
		Description: "Show indexing status of a session's documents, optionally waiting for indexing to finish",
	}, s.handleStatus)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask_question",
		Description: "Ask a question answered only from the session's uploaded documents, with citations",
	}, s.handleAsk)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "generate_memo",
		Description: "Produce the investment memo with a Buy, Cautious Buy or Pass recommendation",
	}, s.handleMemo)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "conversation_history",
		Description: "Return the session's question and answer transcript",
	}, s.handleHistory)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "close_session",
		Description: "End a session and discard its documents and transcript",
	}, s.handleClose)
}

func (s *Server) handleCreateSession(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ CreateSessionInput,
) (*mcp.CallToolResult, CreateSessionOutput, error) {
	session, err := s.ports.Sessions.Create(ctx)
	if err != nil {
		return nil, CreateSessionOutput{}, err
	}
	return nil, CreateSessionOutput{SessionID: session.ID()}, nil
}

func (s *Server) handleUpload(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input UploadInput,
) (*mcp.CallToolResult, UploadOutput, error) {
	session, err := s.ports.Sessions.Get(input.SessionID)
	if err != nil {
		return nil, UploadOutput{}, err
	}

	upload, err := buildUpload(input)
	if err != nil {
		return nil, UploadOutput{}, err
	}

	reg, err := session.Corpus().Register(ctx, upload)
	if err != nil {
		return nil, UploadOutput{}, err
	}

	doc := reg.Document
	if input.Wait {
		// A failed job is reported through the document status.
		doc, err = reg.Job.Wait(ctx)
		if err != nil && ctx.Err() != nil {
			return nil, UploadOutput{}, err
		}
	}

	return nil, UploadOutput{
		DocumentID: doc.ID,
		Name:       doc.Name,
		Status:     doc.Status.String(),
		Failure:    doc.Failure,
		Duplicate:  reg.Duplicate,
	}, nil
}

func buildUpload(input UploadInput) (domain.Upload, error) {
	switch {
	case input.ContentBase64 != "":
		if strings.TrimSpace(input.Filename) == "" {
			return domain.Upload{}, fmt.Errorf("%w: filename is required with content_base64", domain.ErrInvalidInput)
		}
		content, err := base64.StdEncoding.DecodeString(input.ContentBase64)
		if err != nil {
			return domain.Upload{}, fmt.Errorf("%w: content_base64: %w", domain.ErrInvalidInput, err)
		}
		return filesystem.NewUpload(input.Filename, content), nil
	case input.Path != "":
		upload, err := filesystem.Load(input.Path)
		if err != nil {
			return domain.Upload{}, err
		}
		if input.Filename != "" {
			upload.Filename = input.Filename
		}
		return upload, nil
	default:
		return domain.Upload{}, fmt.Errorf("%w: %w", domain.ErrInvalidInput, errNoContent)
	}
}

func (s *Server) handleStatus(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input StatusInput,
) (*mcp.CallToolResult, StatusOutput, error) {
	session, err := s.ports.Sessions.Get(input.SessionID)
	if err != nil {
		return nil, StatusOutput{}, err
	}

	if input.WaitSeconds > 0 {
		wait := time.Duration(input.WaitSeconds) * time.Second
		if wait > maxStatusWait {
			wait = maxStatusWait
		}
		waitCtx, cancel := context.WithTimeout(ctx, wait)
		// Running out of time still reports the current status.
		if err := session.Corpus().Wait(waitCtx); err != nil && !errors.Is(err, domain.ErrNotReady) {
			cancel()
			return nil, StatusOutput{}, err
		}
		cancel()
	}

	status := session.Corpus().Status(ctx)
	output := StatusOutput{
		Readiness: status.Readiness.String(),
		Version:   status.Version,
		Documents: make([]DocumentOutput, len(status.Documents)),
	}
	for i := range status.Documents {
		output.Documents[i] = documentOutput(status.Documents[i])
	}
	return nil, output, nil
}

func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AnswerOutput, error) {
	session, err := s.ports.Sessions.Get(input.SessionID)
	if err != nil {
		return nil, AnswerOutput{}, err
	}

	turn, err := session.Ask(ctx, input.Question)
	if err != nil {
		return nil, AnswerOutput{}, err
	}

	answer := turn.Answer
	output := AnswerOutput{
		Answer:        answer.Answer,
		Confidence:    answer.Confidence.String(),
		Citations:     make([]CitationOutput, len(answer.Citations)),
		Model:         answer.Model,
		CorpusVersion: answer.CorpusVersion,
		Stale:         session.IsStale(answer.CorpusVersion),
	}
	for i, c := range answer.Citations {
		output.Citations[i] = CitationOutput{
			DocumentID:   c.DocumentID,
			DocumentName: c.DocumentName,
			Locator:      c.Locator.String(),
			Excerpt:      c.Excerpt,
		}
	}
	return nil, output, nil
}

func (s *Server) handleMemo(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SessionInput,
) (*mcp.CallToolResult, MemoOutput, error) {
	session, err := s.ports.Sessions.Get(input.SessionID)
	if err != nil {
		return nil, MemoOutput{}, err
	}

	memo, err := session.GenerateMemo(ctx)
	if err != nil {
		return nil, MemoOutput{}, err
	}

	output := MemoOutput{
		Verdict:   memo.Verdict.String(),
		Rationale: memo.Rationale,
		Sections:  make([]SectionOutput, len(memo.Sections)),
		Sources:   memo.Sources(),
		Markdown:  report.Memo(memo),
	}
	for i := range memo.Sections {
		section := &memo.Sections[i]
		output.Sections[i] = SectionOutput{
			Dimension:     section.Dimension.String(),
			Risk:          section.Risk.String(),
			Justification: section.Justification,
			Answer:        section.Answer.Answer,
			Sources:       section.Answer.Sources(),
		}
	}
	return nil, output, nil
}

func (s *Server) handleHistory(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SessionInput,
) (*mcp.CallToolResult, HistoryOutput, error) {
	session, err := s.ports.Sessions.Get(input.SessionID)
	if err != nil {
		return nil, HistoryOutput{}, err
	}

	turns, err := session.History(ctx)
	if err != nil {
		return nil, HistoryOutput{}, err
	}
	return nil, HistoryOutput{Turns: turnOutputs(turns)}, nil
}

func (s *Server) handleClose(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SessionInput,
) (*mcp.CallToolResult, CloseOutput, error) {
	if err := s.ports.Sessions.Close(ctx, input.SessionID); err != nil {
		return nil, CloseOutput{}, err
	}
	return nil, CloseOutput{Closed: true}, nil
}

func documentOutput(doc domain.Document) DocumentOutput {
	return DocumentOutput{
		DocumentID: doc.ID,
		Name:       doc.Name,
		Status:     doc.Status.String(),
		Failure:    doc.Failure,
	}
}

func turnOutputs(turns []domain.ConversationTurn) []TurnOutput {
	out := make([]TurnOutput, len(turns))
	for i, turn := range turns {
		out[i] = TurnOutput{
			Seq:   turn.Seq,
			Role:  string(turn.Role),
			Text:  turn.Text,
			Error: turn.Error,
		}
		if turn.HasAnswer() {
			out[i].Confidence = turn.Answer.Confidence.String()
			out[i].Sources = turn.Answer.Sources()
		}
	}
	return out
}
