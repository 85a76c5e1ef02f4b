// Package status provides status bar components for the TUI.
package status

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/diligence/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/diligence/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/diligence/internal/core/domain"
)

// State represents what the session is doing, for display.
type State string

const (
	StateIdle     State = "idle"
	StateThinking State = "thinking"
	StateMemo     State = "memo"
	StateError    State = "error"
)

// Bar displays corpus readiness, activity and keybinding hints.
type Bar struct {
	styles  *styles.Styles
	keymap  *keymap.KeyMap
	state   State
	message string
	corpus  domain.CorpusStatus
	tier    domain.ModelTier
	width   int
}

// NewBar creates a new status bar component.
func NewBar(s *styles.Styles, km *keymap.KeyMap) *Bar {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	return &Bar{
		styles: s,
		keymap: km,
		state:  StateIdle,
		corpus: domain.CorpusStatus{Readiness: domain.ReadinessEmpty},
		width:  80,
	}
}

// Init initialises the status bar.
func (b *Bar) Init() tea.Cmd {
	return nil
}

// Update handles status bar messages.
func (b *Bar) Update(_ tea.Msg) (*Bar, tea.Cmd) {
	// Bar is passive, updated via Set methods
	return b, nil
}

// View renders the status bar.
func (b *Bar) View() string {
	left := b.renderLeft()
	right := b.renderRight()

	padding := b.width - lipgloss.Width(left) - lipgloss.Width(right)
	if padding < 1 {
		padding = 1
	}

	return b.styles.StatusBar.Width(b.width).Render(
		left + strings.Repeat(" ", padding) + right,
	)
}

// renderLeft renders activity, or corpus readiness when idle.
func (b *Bar) renderLeft() string {
	switch b.state {
	case StateThinking:
		return b.styles.Muted.Render("Thinking...")
	case StateMemo:
		return b.styles.Muted.Render("Writing memo...")
	case StateError:
		if b.message != "" {
			return b.styles.Error.Render(fmt.Sprintf("Error: %s", b.message))
		}
		return b.styles.Error.Render("Error")
	}

	counts := b.corpus.Counts()
	readiness := b.styles.Readiness(b.corpus.Readiness).Render(b.corpus.Readiness.String())
	parts := []string{readiness}
	if total := len(b.corpus.Documents); total > 0 {
		parts = append(parts, fmt.Sprintf("%d/%d indexed", counts[domain.IndexIndexed], total))
	}
	if failed := counts[domain.IndexFailed]; failed > 0 {
		parts = append(parts, b.styles.Error.Render(fmt.Sprintf("%d failed", failed)))
	}
	if b.tier != "" {
		parts = append(parts, b.tier.String())
	}
	return strings.Join(parts, b.styles.Muted.Render(" · "))
}

// renderRight renders keybinding hints.
func (b *Bar) renderRight() string {
	bindings := b.keymap.ShortHelp()

	hints := make([]string, 0, len(bindings))
	for _, binding := range bindings {
		hints = append(hints, hint(binding))
	}
	return b.styles.Muted.Render(strings.Join(hints, " | "))
}

func hint(b key.Binding) string {
	h := b.Help()
	return fmt.Sprintf("%s: %s", h.Key, h.Desc)
}

// SetState sets the current state.
func (b *Bar) SetState(state State) {
	b.state = state
}

// State returns the current state.
func (b *Bar) State() State {
	return b.state
}

// SetMessage sets the error message.
func (b *Bar) SetMessage(message string) {
	b.message = message
}

// Message returns the current message.
func (b *Bar) Message() string {
	return b.message
}

// SetCorpus sets the corpus status shown when idle.
func (b *Bar) SetCorpus(status domain.CorpusStatus) {
	b.corpus = status
}

// Corpus returns the displayed corpus status.
func (b *Bar) Corpus() domain.CorpusStatus {
	return b.corpus
}

// SetTier sets the displayed model tier.
func (b *Bar) SetTier(tier domain.ModelTier) {
	b.tier = tier
}

// SetWidth sets the status bar width.
func (b *Bar) SetWidth(width int) {
	b.width = width
}

// Width returns the current width.
func (b *Bar) Width() int {
	return b.width
}

// Clear resets the activity state.
func (b *Bar) Clear() {
	b.state = StateIdle
	b.message = ""
}
