package tui

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/diligence/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/diligence/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/diligence/internal/connectors/filesystem"
	"github.com/custodia-labs/diligence/internal/core/domain"
	"github.com/custodia-labs/diligence/internal/core/ports/driving"
)

func newTestApp(t *testing.T, session driving.Session) *App {
	t.Helper()
	app, err := NewApp(&Ports{Session: session})
	require.NoError(t, err)
	app.SetDimensions(100, 30)
	return app
}

func newTieredSession() *MockTieredSession {
	return &MockTieredSession{MockSession: newMockSession(), TierValue: domain.TierFast}
}

// runCmd executes cmd and any batched commands, collecting their messages.
func runCmd(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, runCmd(c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

// findMsg returns the first message of type T.
func findMsg[T any](msgs []tea.Msg) (T, bool) {
	for _, msg := range msgs {
		if m, ok := msg.(T); ok {
			return m, true
		}
	}
	var zero T
	return zero, false
}

func typeAndSend(app *App, text string) tea.Cmd {
	app.input.SetValue(text)
	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	return cmd
}

func groundedAnswer() *domain.GroundedAnswer {
	return &domain.GroundedAnswer{
		Question:   "Is the roof sound?",
		Answer:     "The roof was replaced in 2019 [1].",
		Confidence: domain.ConfidenceGrounded,
		Citations: []domain.Citation{{
			DocumentID:   "d1",
			DocumentName: "inspection.pdf",
			Locator:      domain.Locator{Page: 4},
			Excerpt:      "Roof replaced 2019.",
		}},
		CorpusVersion: 2,
	}
}

func TestNewApp_Success(t *testing.T) {
	app, err := NewApp(&Ports{Session: newMockSession()})

	require.NoError(t, err)
	require.NotNil(t, app)
	assert.False(t, app.Ready())
	assert.False(t, app.Busy())
	assert.Contains(t, app.Transcript(), "session s1")
}

func TestNewApp_InvalidPorts(t *testing.T) {
	app, err := NewApp(&Ports{})

	assert.Nil(t, app)
	assert.ErrorIs(t, err, ErrMissingSession)
}

func TestNewApp_WithWatch(t *testing.T) {
	ports := &Ports{
		Session: newMockSession(),
		Watch:   &MockWatch{DirValue: "/data/inbox", Ch: make(chan filesystem.Event)},
	}

	app, err := NewApp(ports)

	require.NoError(t, err)
	assert.Contains(t, app.Transcript(), "Watching /data/inbox")
}

func TestNewApp_ReadsTier(t *testing.T) {
	session := newTieredSession()
	session.TierValue = domain.TierThorough

	app := newTestApp(t, session)

	assert.Equal(t, domain.TierThorough, app.Tier())
}

func TestApp_WithContext(t *testing.T) {
	app := newTestApp(t, newMockSession())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	result := app.WithContext(ctx)

	assert.Same(t, app, result)
	assert.Equal(t, ctx, app.ctx)
}

func TestApp_Init(t *testing.T) {
	app, err := NewApp(&Ports{Session: newMockSession()})
	require.NoError(t, err)

	assert.NotNil(t, app.Init())
}

func TestApp_View_NotReady(t *testing.T) {
	app, err := NewApp(&Ports{Session: newMockSession()})
	require.NoError(t, err)

	assert.Equal(t, "Initialising...", app.View())
}

func TestApp_Update_WindowSize(t *testing.T) {
	app, err := NewApp(&Ports{Session: newMockSession()})
	require.NoError(t, err)

	model, cmd := app.Update(tea.WindowSizeMsg{Width: 120, Height: 40})

	assert.Same(t, app, model)
	assert.Nil(t, cmd)
	assert.True(t, app.Ready())
	assert.Equal(t, 120, app.width)
	assert.Equal(t, 40, app.height)
	assert.Contains(t, app.View(), "Diligence")
}

func TestApp_Ask(t *testing.T) {
	session := newMockSession()
	var asked string
	session.AskFunc = func(_ context.Context, question string) (domain.ConversationTurn, error) {
		asked = question
		return domain.ConversationTurn{Role: domain.RoleAssistant, Answer: groundedAnswer()}, nil
	}
	app := newTestApp(t, session)

	cmd := typeAndSend(app, "Is the roof sound?")

	require.NotNil(t, cmd)
	assert.True(t, app.Busy())
	assert.Equal(t, status.StateThinking, app.statusbar.State())
	assert.Empty(t, app.input.Value())
	assert.Contains(t, app.Transcript(), "You: Is the roof sound?")

	answer, ok := findMsg[messages.AnswerReceived](runCmd(cmd))
	require.True(t, ok)
	assert.Equal(t, "Is the roof sound?", asked)
	assert.False(t, answer.Stale)

	app.Update(answer)

	assert.False(t, app.Busy())
	assert.Equal(t, status.StateIdle, app.statusbar.State())
	assert.Contains(t, app.Transcript(), "The roof was replaced in 2019 [1].")
	assert.Contains(t, app.Transcript(), "inspection.pdf")
}

func TestApp_Ask_Stale(t *testing.T) {
	session := newMockSession()
	session.StaleVersion = 2
	session.AskFunc = func(_ context.Context, _ string) (domain.ConversationTurn, error) {
		return domain.ConversationTurn{Role: domain.RoleAssistant, Answer: groundedAnswer()}, nil
	}
	app := newTestApp(t, session)

	answer, ok := findMsg[messages.AnswerReceived](runCmd(typeAndSend(app, "Roof?")))

	require.True(t, ok)
	assert.True(t, answer.Stale)
}

func TestApp_Ask_Error(t *testing.T) {
	session := newMockSession()
	session.AskFunc = func(_ context.Context, _ string) (domain.ConversationTurn, error) {
		return domain.ConversationTurn{Role: domain.RoleSystem, Error: "not ready"},
			&domain.NotReadyError{Readiness: domain.ReadinessEmpty, Reason: "no documents"}
	}
	app := newTestApp(t, session)

	answer, ok := findMsg[messages.AnswerReceived](runCmd(typeAndSend(app, "Roof?")))
	require.True(t, ok)
	app.Update(answer)

	assert.False(t, app.Busy())
	assert.ErrorIs(t, app.Err(), domain.ErrNotReady)
	assert.Equal(t, status.StateError, app.statusbar.State())
}

func TestApp_Ask_IgnoredWhileBusy(t *testing.T) {
	app := newTestApp(t, newMockSession())
	app.busy = true

	cmd := typeAndSend(app, "Second question")

	assert.Nil(t, cmd)
	assert.Equal(t, "Second question", app.input.Value())
}

func TestApp_Send_EmptyInput(t *testing.T) {
	app := newTestApp(t, newMockSession())

	cmd := typeAndSend(app, "   ")

	assert.Nil(t, cmd)
	assert.False(t, app.Busy())
}

func TestApp_Ungrounded(t *testing.T) {
	app := newTestApp(t, newMockSession())
	turn := domain.ConversationTurn{
		Role: domain.RoleAssistant,
		Answer: &domain.GroundedAnswer{
			Answer:     "The documents do not mention flood risk.",
			Confidence: domain.ConfidenceUngrounded,
		},
	}

	app.Update(messages.AnswerReceived{Turn: turn})

	assert.Contains(t, app.Transcript(), "do not mention flood risk")
	assert.NotContains(t, app.Transcript(), "Sources:")
}

func TestApp_Memo(t *testing.T) {
	session := newMockSession()
	session.MemoFunc = func(_ context.Context) (*domain.InvestmentMemo, error) {
		return &domain.InvestmentMemo{
			Verdict:   domain.VerdictPass,
			Rationale: "Legal: easement dispute",
			Sections: []domain.MemoSection{
				{Dimension: domain.DimensionCondition, Risk: domain.RiskLow, Answer: *groundedAnswer()},
				{Dimension: domain.DimensionLegal, Risk: domain.RiskHigh},
			},
		}, nil
	}
	app := newTestApp(t, session)

	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyCtrlG})

	require.NotNil(t, cmd)
	assert.True(t, app.Busy())
	assert.Equal(t, status.StateMemo, app.statusbar.State())

	memo, ok := findMsg[messages.MemoGenerated](runCmd(cmd))
	require.True(t, ok)
	require.NoError(t, memo.Err)
	app.Update(memo)

	assert.False(t, app.Busy())
	transcript := app.Transcript()
	assert.Contains(t, transcript, "Recommendation: Pass")
	assert.Contains(t, transcript, "High")
	assert.Contains(t, transcript, "easement dispute")
}

func TestApp_Memo_SlashCommand(t *testing.T) {
	app := newTestApp(t, newMockSession())

	cmd := typeAndSend(app, "/memo")

	_, ok := findMsg[messages.MemoGenerated](runCmd(cmd))
	assert.True(t, ok)
}

func TestApp_Memo_Error(t *testing.T) {
	app := newTestApp(t, newMockSession())
	app.busy = true

	app.Update(messages.MemoGenerated{Err: domain.ErrLLMUnavailable})

	assert.False(t, app.Busy())
	assert.ErrorIs(t, app.Err(), domain.ErrLLMUnavailable)
}

func TestApp_Upload(t *testing.T) {
	session := newMockSession()
	app := newTestApp(t, session)
	path := filepath.Join(t.TempDir(), "disclosure.txt")
	require.NoError(t, os.WriteFile(path, []byte("Seller discloses a roof leak."), 0o600))

	started, ok := findMsg[messages.UploadStarted](runCmd(typeAndSend(app, "/upload "+path)))
	require.True(t, ok)
	require.Len(t, session.CorpusValue.Uploads, 1)
	assert.Equal(t, "disclosure.txt", session.CorpusValue.Uploads[0].Filename)

	_, cmd := app.Update(started)
	assert.Contains(t, app.Transcript(), "Uploaded disclosure.txt")

	finished, ok := findMsg[messages.UploadFinished](runCmd(cmd))
	require.True(t, ok)
	app.Update(finished)

	assert.Contains(t, app.Transcript(), "Indexed disclosure.txt")
}

func TestApp_Upload_MissingPath(t *testing.T) {
	app := newTestApp(t, newMockSession())

	cmd := typeAndSend(app, "/upload")

	assert.Nil(t, cmd)
	assert.ErrorIs(t, app.Err(), domain.ErrInvalidInput)
}

func TestApp_Upload_MissingFile(t *testing.T) {
	app := newTestApp(t, newMockSession())

	msg, ok := findMsg[messages.ErrorOccurred](runCmd(typeAndSend(app, "/upload /does/not/exist.pdf")))
	require.True(t, ok)
	app.Update(msg)

	assert.Error(t, app.Err())
}

func TestApp_Upload_Duplicate(t *testing.T) {
	app := newTestApp(t, newMockSession())

	app.Update(messages.UploadStarted{Registration: driving.Registration{
		Document:  domain.Document{ID: "d1", Name: "inspection.pdf"},
		Duplicate: true,
	}})

	assert.Contains(t, app.Transcript(), "Skipped duplicate of inspection.pdf")
}

func TestApp_UploadFinished_Failure(t *testing.T) {
	app := newTestApp(t, newMockSession())

	app.Update(messages.UploadFinished{
		Document: domain.Document{Name: "scan.pdf", Status: domain.IndexFailed},
		Err:      &domain.IndexError{DocumentName: "scan.pdf", Err: domain.ErrEmptyDocument},
	})

	assert.Contains(t, app.Transcript(), "Could not index scan.pdf")
}

func TestApp_WatchEvent(t *testing.T) {
	events := make(chan filesystem.Event, 1)
	app, err := NewApp(&Ports{
		Session: newMockSession(),
		Watch:   &MockWatch{DirValue: "/inbox", Ch: events},
	})
	require.NoError(t, err)
	app.SetDimensions(100, 30)

	doc := domain.Document{ID: "d2", Name: "hoa.pdf"}
	events <- filesystem.Event{
		Path:         "/inbox/hoa.pdf",
		Registration: driving.Registration{Document: doc, Job: &MockJob{Doc: doc}},
	}

	msg := app.waitForWatch()()
	watched, ok := msg.(watchEventMsg)
	require.True(t, ok)

	app.Update(watched)

	assert.Contains(t, app.Transcript(), "Uploaded hoa.pdf")
}

func TestApp_WatchEvent_Error(t *testing.T) {
	app := newTestApp(t, newMockSession())
	app.ports.Watch = &MockWatch{DirValue: "/inbox", Ch: make(chan filesystem.Event)}

	app.Update(watchEventMsg{event: filesystem.Event{Path: "/inbox/big.pdf", Err: errors.New("too large")}})

	assert.Contains(t, app.Transcript(), "Could not upload big.pdf")
}

func TestApp_WatchClosed(t *testing.T) {
	events := make(chan filesystem.Event)
	close(events)
	app := newTestApp(t, newMockSession())
	app.ports.Watch = &MockWatch{DirValue: "/inbox", Ch: events}

	msg := app.waitForWatch()()
	app.Update(msg)

	assert.IsType(t, messages.WatchClosed{}, msg)
	assert.Contains(t, app.Transcript(), "Stopped watching")
}

func TestApp_StatusUpdated(t *testing.T) {
	app := newTestApp(t, newMockSession())
	corpus := domain.CorpusStatus{
		Readiness: domain.ReadinessReady,
		Documents: []domain.Document{{Name: "a.pdf", Status: domain.IndexIndexed}},
	}

	app.Update(messages.StatusUpdated{Status: corpus})

	assert.Equal(t, domain.ReadinessReady, app.statusbar.Corpus().Readiness)
}

func TestApp_StatusCommand(t *testing.T) {
	session := newMockSession()
	session.CorpusValue.StatusValue = domain.CorpusStatus{
		Readiness: domain.ReadinessDegraded,
		Documents: []domain.Document{{Name: "scan.pdf", Status: domain.IndexFailed, Failure: "no text"}},
	}
	app := newTestApp(t, session)

	cmd := typeAndSend(app, "/status")

	assert.Contains(t, app.Transcript(), "Corpus: degraded")
	assert.Contains(t, app.Transcript(), "scan.pdf: no text")
	updated, ok := findMsg[messages.StatusUpdated](runCmd(cmd))
	require.True(t, ok)
	assert.Equal(t, domain.ReadinessDegraded, updated.Status.Readiness)
}

func TestApp_Tier_Toggle(t *testing.T) {
	session := newTieredSession()
	app := newTestApp(t, session)

	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyCtrlT})
	changed, ok := findMsg[messages.TierChanged](runCmd(cmd))
	require.True(t, ok)
	app.Update(changed)

	assert.Equal(t, domain.TierThorough, session.TierValue)
	assert.Equal(t, domain.TierThorough, app.Tier())
	assert.Contains(t, app.Transcript(), "thorough model")
}

func TestApp_Tier_Command(t *testing.T) {
	session := newTieredSession()
	session.TierValue = domain.TierThorough
	app := newTestApp(t, session)

	changed, ok := findMsg[messages.TierChanged](runCmd(typeAndSend(app, "/tier fast")))
	require.True(t, ok)
	app.Update(changed)

	assert.Equal(t, domain.TierFast, app.Tier())
}

func TestApp_Tier_Invalid(t *testing.T) {
	session := newTieredSession()
	session.SetTierErr = domain.ErrInvalidInput
	app := newTestApp(t, session)

	changed, ok := findMsg[messages.TierChanged](runCmd(typeAndSend(app, "/tier turbo")))
	require.True(t, ok)
	app.Update(changed)

	assert.Equal(t, domain.TierFast, app.Tier())
	assert.ErrorIs(t, app.Err(), domain.ErrInvalidInput)
}

func TestApp_Tier_Unsupported(t *testing.T) {
	app := newTestApp(t, newMockSession())

	cmd := typeAndSend(app, "/tier")

	assert.Nil(t, cmd)
	assert.ErrorIs(t, app.Err(), ErrTierUnsupported)
}

func TestApp_UnknownCommand(t *testing.T) {
	app := newTestApp(t, newMockSession())

	cmd := typeAndSend(app, "/frobnicate")

	assert.Nil(t, cmd)
	assert.ErrorIs(t, app.Err(), ErrUnknownCommand)
}

func TestApp_Help(t *testing.T) {
	app := newTestApp(t, newMockSession())

	app.Update(tea.KeyMsg{Type: tea.KeyF1})
	assert.True(t, app.ShowingHelp())
	assert.Contains(t, app.View(), "/upload <path>")

	typeAndSend(app, "/help")
	assert.False(t, app.ShowingHelp())
}

func TestApp_Quit(t *testing.T) {
	tests := []struct {
		name string
		msg  tea.Msg
	}{
		{"ctrl+c", tea.KeyMsg{Type: tea.KeyCtrlC}},
		{"ctrl+d", tea.KeyMsg{Type: tea.KeyCtrlD}},
		{"quit message", messages.Quit{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp(t, newMockSession())

			_, cmd := app.Update(tt.msg)

			require.NotNil(t, cmd)
			assert.IsType(t, tea.QuitMsg{}, cmd())
		})
	}
}

func TestApp_QuitCommand(t *testing.T) {
	for _, text := range []string{"/quit", "/exit"} {
		app := newTestApp(t, newMockSession())

		cmd := typeAndSend(app, text)

		require.NotNil(t, cmd)
		assert.IsType(t, tea.QuitMsg{}, cmd())
	}
}

func TestApp_Escape_ClearsInput(t *testing.T) {
	app := newTestApp(t, newMockSession())
	app.input.SetValue("half a question")

	app.Update(tea.KeyMsg{Type: tea.KeyEsc})

	assert.Empty(t, app.input.Value())
}

func TestApp_CharacterInput(t *testing.T) {
	app := newTestApp(t, newMockSession())

	app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'h'}})

	assert.Equal(t, "h", app.input.Value())
}

func TestApp_ErrorOccurred(t *testing.T) {
	app := newTestApp(t, newMockSession())
	testErr := errors.New("boom")

	app.Update(messages.ErrorOccurred{Err: testErr})

	assert.Equal(t, testErr, app.Err())
	assert.Equal(t, "boom", app.statusbar.Message())
}

func TestApp_View_Busy(t *testing.T) {
	app := newTestApp(t, newMockSession())
	app.busy = true
	app.statusbar.SetState(status.StateThinking)

	view := app.View()

	assert.Contains(t, view, "Thinking")
}
