package tui

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/diligence/internal/adapters/driving/report"
	"github.com/custodia-labs/diligence/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/diligence/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/diligence/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/diligence/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/diligence/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/diligence/internal/connectors/filesystem"
	"github.com/custodia-labs/diligence/internal/core/domain"
	"github.com/custodia-labs/diligence/internal/core/ports/driving"
)

// chromeHeight is the number of lines used by the prompt and status bar.
const chromeHeight = 4

// tieredSession is implemented by sessions whose question tier can change.
type tieredSession interface {
	SetTier(tier domain.ModelTier) error
	Tier() domain.ModelTier
}

// watchEventMsg carries one event from the watched folder.
type watchEventMsg struct {
	event filesystem.Event
}

// App is the chat application following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	// ports provides access to the session via driving ports.
	ports *Ports

	// ctx is the context for cancellation.
	ctx context.Context

	styles *styles.Styles
	keymap *keymap.KeyMap

	input      *input.PromptInput
	transcript viewport.Model
	statusbar  *status.Bar
	spinner    spinner.Model

	// blocks are the rendered transcript entries, oldest first.
	blocks []string

	tier     domain.ModelTier
	busy     bool
	showHelp bool
	err      error

	// width and height are terminal dimensions.
	width  int
	height int

	// ready indicates if the app has received its first window size.
	ready bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a new chat application for the given ports.
func NewApp(ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()

	a := &App{
		ports:      ports,
		ctx:        context.Background(),
		styles:     s,
		keymap:     km,
		input:      input.NewPromptInput(s),
		transcript: viewport.New(80, 20),
		statusbar:  status.NewBar(s, km),
		spinner:    spinner.New(spinner.WithSpinner(spinner.MiniDot), spinner.WithStyle(s.Muted)),
		width:      80,
		height:     24,
	}

	if ts, ok := ports.Session.(tieredSession); ok {
		a.tier = ts.Tier()
		a.statusbar.SetTier(a.tier)
	}

	a.appendBlock(s.Title.Render("Diligence") + " " + s.Muted.Render("session "+ports.Session.ID()))
	if ports.Watch != nil {
		a.appendBlock(s.Muted.Render("Watching " + ports.Watch.Dir() + " for new documents"))
	}
	a.appendBlock(s.Muted.Render("Upload documents with /upload <path>, then ask questions. /help lists commands."))
	return a, nil
}

// WithContext sets the context for the app.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	cmds := []tea.Cmd{
		a.input.Init(),
		tea.SetWindowTitle("diligence"),
		a.refreshStatus(),
	}
	if a.ports.Watch != nil {
		cmds = append(cmds, a.waitForWatch())
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
//
//nolint:gocyclo // central message handler
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		return a.handleKeyMsg(msg)

	case messages.QuestionSubmitted:
		return a, a.ask(msg.Question)

	case messages.AnswerReceived:
		a.finishWork()
		switch {
		case msg.Err != nil:
			a.showError(msg.Err)
		case msg.Turn.Answer == nil:
			a.appendBlock(a.styles.Normal.Render(msg.Turn.Text))
		default:
			a.appendBlock(a.renderAnswer(msg.Turn.Answer, msg.Stale))
		}
		return a, a.refreshStatus()

	case messages.MemoRequested:
		return a, a.generateMemo()

	case messages.MemoGenerated:
		a.finishWork()
		if msg.Err != nil {
			a.showError(msg.Err)
		} else {
			a.appendBlock(a.renderMemo(msg.Memo))
		}
		return a, nil

	case messages.UploadStarted:
		return a, a.handleUploadStarted(msg)

	case messages.UploadFinished:
		if msg.Err != nil {
			a.appendBlock(a.styles.Error.Render(fmt.Sprintf("Could not index %s: %v", msg.Document.Name, msg.Err)))
		} else {
			a.appendBlock(a.styles.Success.Render("Indexed " + msg.Document.Name))
		}
		return a, a.refreshStatus()

	case watchEventMsg:
		if msg.event.Err != nil {
			name := filepath.Base(msg.event.Path)
			a.appendBlock(a.styles.Error.Render(fmt.Sprintf("Could not upload %s: %v", name, msg.event.Err)))
			return a, a.waitForWatch()
		}
		return a, a.handleUploadStarted(messages.UploadStarted{
			Registration: msg.event.Registration,
			Watched:      true,
		})

	case messages.WatchClosed:
		a.appendBlock(a.styles.Muted.Render("Stopped watching for new documents"))
		return a, nil

	case messages.StatusUpdated:
		a.statusbar.SetCorpus(msg.Status)
		return a, nil

	case messages.TierChanged:
		if msg.Err != nil {
			a.showError(msg.Err)
			return a, nil
		}
		a.tier = msg.Tier
		a.statusbar.SetTier(msg.Tier)
		a.appendBlock(a.styles.Muted.Render("Answering with the " + msg.Tier.String() + " model"))
		return a, nil

	case messages.ErrorOccurred:
		a.showError(msg.Err)
		return a, nil

	case messages.Quit:
		return a, tea.Quit

	case spinner.TickMsg:
		if !a.busy {
			return a, nil
		}
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd
	}

	// Forward other messages (cursor blink) to the input
	a.input, cmd = a.input.Update(msg)
	return a, cmd
}

// handleKeyMsg processes keyboard input.
func (a *App) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	keyStr := msg.String()

	switch {
	case keymap.Matches(keyStr, a.keymap.Quit):
		return a, tea.Quit
	case keymap.Matches(keyStr, a.keymap.Help):
		a.toggleHelp()
		return a, nil
	case keymap.Matches(keyStr, a.keymap.Memo):
		return a, a.generateMemo()
	case keymap.Matches(keyStr, a.keymap.Tier):
		return a, a.setTier(a.nextTier())
	case keymap.Matches(keyStr, a.keymap.Status):
		a.appendBlock(a.styles.Normal.Render(report.Status(a.ports.Session.Corpus().Status(a.ctx))))
		return a, a.refreshStatus()
	case keymap.Matches(keyStr, a.keymap.ScrollUp):
		a.transcript.HalfPageUp()
		return a, nil
	case keymap.Matches(keyStr, a.keymap.ScrollDown):
		a.transcript.HalfPageDown()
		return a, nil
	case keymap.Matches(keyStr, a.keymap.Cancel):
		a.input.Reset()
		return a, nil
	case keymap.Matches(keyStr, a.keymap.Send):
		return a, a.submit()
	}

	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	return a, cmd
}

// submit handles the text in the prompt as a question or slash command.
func (a *App) submit() tea.Cmd {
	text := strings.TrimSpace(a.input.Value())
	if text == "" {
		return nil
	}
	if a.busy && !strings.HasPrefix(text, "/") {
		// One question at a time; keep the text for later.
		return nil
	}
	a.input.Reset()

	if strings.HasPrefix(text, "/") {
		return a.runCommand(text)
	}
	return a.ask(text)
}

// runCommand executes a slash command.
func (a *App) runCommand(text string) tea.Cmd {
	name, arg, _ := strings.Cut(text, " ")
	arg = strings.TrimSpace(arg)

	switch name {
	case "/memo":
		return a.generateMemo()
	case "/status":
		a.appendBlock(a.styles.Normal.Render(report.Status(a.ports.Session.Corpus().Status(a.ctx))))
		return a.refreshStatus()
	case "/tier":
		if arg == "" {
			return a.setTier(a.nextTier())
		}
		return a.setTier(domain.ModelTier(arg))
	case "/upload":
		if arg == "" {
			a.showError(fmt.Errorf("%w: usage /upload <path>", domain.ErrInvalidInput))
			return nil
		}
		return a.upload(arg)
	case "/help":
		a.toggleHelp()
		return nil
	case "/quit", "/exit":
		return tea.Quit
	default:
		a.showError(fmt.Errorf("%w: %s", ErrUnknownCommand, name))
		return nil
	}
}

// ask sends a question to the session.
func (a *App) ask(question string) tea.Cmd {
	if a.busy {
		return nil
	}
	a.appendBlock(a.styles.Question.Render("You: ") + question)
	a.startWork(status.StateThinking)

	session, ctx := a.ports.Session, a.ctx
	return tea.Batch(a.spinner.Tick, func() tea.Msg {
		turn, err := session.Ask(ctx, question)
		if err != nil {
			return messages.AnswerReceived{Turn: turn, Err: err}
		}
		return messages.AnswerReceived{
			Turn:  turn,
			Stale: session.IsStale(turn.Answer.CorpusVersion),
		}
	})
}

// generateMemo asks the session for the investment memo.
func (a *App) generateMemo() tea.Cmd {
	if a.busy {
		return nil
	}
	a.startWork(status.StateMemo)

	session, ctx := a.ports.Session, a.ctx
	return tea.Batch(a.spinner.Tick, func() tea.Msg {
		memo, err := session.GenerateMemo(ctx)
		return messages.MemoGenerated{Memo: memo, Err: err}
	})
}

// upload registers a local file with the session's corpus.
func (a *App) upload(path string) tea.Cmd {
	corpus, ctx := a.ports.Session.Corpus(), a.ctx
	return func() tea.Msg {
		upload, err := filesystem.Load(path)
		if err != nil {
			return messages.ErrorOccurred{Err: err}
		}
		reg, err := corpus.Register(ctx, upload)
		if err != nil {
			return messages.ErrorOccurred{Err: err}
		}
		return messages.UploadStarted{Registration: reg}
	}
}

func (a *App) handleUploadStarted(msg messages.UploadStarted) tea.Cmd {
	reg := msg.Registration
	cmds := []tea.Cmd{a.refreshStatus()}
	if msg.Watched {
		cmds = append(cmds, a.waitForWatch())
	}

	if reg.Duplicate {
		a.appendBlock(a.styles.Muted.Render("Skipped duplicate of " + reg.Document.Name))
		return tea.Batch(cmds...)
	}

	a.appendBlock(a.styles.Muted.Render("Uploaded " + reg.Document.Name + ", indexing..."))
	if reg.Job != nil {
		cmds = append(cmds, a.waitForJob(reg.Job))
	}
	return tea.Batch(cmds...)
}

func (a *App) waitForJob(job driving.IndexJob) tea.Cmd {
	ctx := a.ctx
	return func() tea.Msg {
		doc, err := job.Wait(ctx)
		return messages.UploadFinished{Document: doc, Err: err}
	}
}

func (a *App) waitForWatch() tea.Cmd {
	if a.ports.Watch == nil {
		return nil
	}
	events := a.ports.Watch.Events()
	return func() tea.Msg {
		event, ok := <-events
		if !ok {
			return messages.WatchClosed{}
		}
		return watchEventMsg{event: event}
	}
}

func (a *App) refreshStatus() tea.Cmd {
	corpus, ctx := a.ports.Session.Corpus(), a.ctx
	return func() tea.Msg {
		return messages.StatusUpdated{Status: corpus.Status(ctx)}
	}
}

func (a *App) setTier(tier domain.ModelTier) tea.Cmd {
	ts, ok := a.ports.Session.(tieredSession)
	if !ok {
		a.showError(ErrTierUnsupported)
		return nil
	}
	return func() tea.Msg {
		return messages.TierChanged{Tier: tier, Err: ts.SetTier(tier)}
	}
}

func (a *App) nextTier() domain.ModelTier {
	if a.tier == domain.TierThorough {
		return domain.TierFast
	}
	return domain.TierThorough
}

func (a *App) startWork(state status.State) {
	a.busy = true
	a.err = nil
	a.statusbar.SetState(state)
}

func (a *App) finishWork() {
	a.busy = false
	a.statusbar.Clear()
}

func (a *App) showError(err error) {
	a.err = err
	a.statusbar.SetState(status.StateError)
	a.statusbar.SetMessage(err.Error())
	a.appendBlock(a.styles.Error.Render(err.Error()))
}

func (a *App) toggleHelp() {
	a.showHelp = !a.showHelp
	a.layout()
}

// renderAnswer renders an answer with its sources de-emphasised.
func (a *App) renderAnswer(answer *domain.GroundedAnswer, stale bool) string {
	text := report.Answer(answer, stale)
	style := a.styles.Answer(answer.Confidence)
	body, sources, found := strings.Cut(text, "\nSources:\n")
	if !found || !answer.IsGrounded() {
		return style.Render(strings.TrimSpace(text))
	}
	return style.Render(strings.TrimSpace(body)) + "\n" +
		a.styles.Citation.Render("Sources:\n"+strings.TrimRight(sources, "\n"))
}

// renderMemo renders a risk summary followed by the full memo.
func (a *App) renderMemo(memo *domain.InvestmentMemo) string {
	var b strings.Builder
	b.WriteString(a.styles.Subtitle.Render("Investment Memo"))
	b.WriteString("\n")
	b.WriteString("Recommendation: " + a.styles.Verdict(memo.Verdict).Render(memo.Verdict.Title()))
	b.WriteString("\n\n")
	for i := range memo.Sections {
		section := &memo.Sections[i]
		fmt.Fprintf(&b, "%-20s %s\n", section.Dimension.Title(), a.styles.Risk(section.Risk).Render(section.Risk.Title()))
	}
	b.WriteString("\n")
	b.WriteString(a.styles.Normal.Render(strings.TrimSpace(report.Memo(memo))))
	return b.String()
}

func (a *App) appendBlock(block string) {
	a.blocks = append(a.blocks, block)
	a.refreshTranscript()
}

func (a *App) refreshTranscript() {
	wrap := lipgloss.NewStyle().Width(max(a.width-2, 20))
	parts := make([]string, len(a.blocks))
	for i, block := range a.blocks {
		parts[i] = wrap.Render(block)
	}
	a.transcript.SetContent(strings.Join(parts, "\n\n"))
	a.transcript.GotoBottom()
}

func (a *App) layout() {
	a.input.SetWidth(a.width)
	a.statusbar.SetWidth(a.width)

	height := a.height - chromeHeight
	if a.showHelp {
		height -= lipgloss.Height(a.helpView())
	}
	a.transcript.Width = a.width
	a.transcript.Height = max(height, 3)
	a.refreshTranscript()
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}

	sections := []string{a.transcript.View()}
	if a.showHelp {
		sections = append(sections, a.helpView())
	}
	prompt := a.input.View()
	if a.busy {
		prompt = a.spinner.View() + " " + prompt
	}
	sections = append(sections, prompt, a.statusbar.View())
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// helpView renders keybindings and slash commands.
func (a *App) helpView() string {
	var b strings.Builder
	b.WriteString("Keys:\n")
	for _, group := range a.keymap.FullHelp() {
		hints := make([]string, 0, len(group))
		for _, binding := range group {
			h := binding.Help()
			hints = append(hints, fmt.Sprintf("%-8s %s", h.Key, h.Desc))
		}
		b.WriteString("  " + strings.Join(hints, "   ") + "\n")
	}
	b.WriteString(`Commands:
  /upload <path>   add a document
  /status          show indexing status
  /memo            write the investment memo
  /tier [tier]     switch between fast and thorough
  /quit            leave the session`)
	return a.styles.Help.Render(b.String())
}

// Run starts the TUI application.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// Transcript returns the rendered transcript text.
func (a *App) Transcript() string {
	return strings.Join(a.blocks, "\n\n")
}

// Busy returns whether a question or memo is in flight.
func (a *App) Busy() bool {
	return a.busy
}

// Tier returns the model tier used for questions.
func (a *App) Tier() domain.ModelTier {
	return a.tier
}

// ShowingHelp returns whether the help panel is visible.
func (a *App) ShowingHelp() bool {
	return a.showHelp
}

// Err returns the last error that occurred.
func (a *App) Err() error {
	return a.err
}

// Ready returns whether the app has been initialised.
func (a *App) Ready() bool {
	return a.ready
}

// SetDimensions sets the terminal dimensions.
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true
	a.layout()
}
