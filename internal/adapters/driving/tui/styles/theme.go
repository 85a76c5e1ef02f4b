// Package styles holds the lipgloss styles of the chat TUI and maps
// diligence states (risk, verdict, readiness, confidence) onto them.
package styles

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/diligence/internal/core/domain"
)

// Palette is the set of colours styles are built from.
type Palette struct {
	Accent  lipgloss.Color
	Accent2 lipgloss.Color
	Text    lipgloss.Color
	Dim     lipgloss.Color
	Good    lipgloss.Color
	Caution lipgloss.Color
	Bad     lipgloss.Color
	Frame   lipgloss.Color
	Bar     lipgloss.Color
}

// DefaultPalette is tuned for dark terminals.
func DefaultPalette() Palette {
	return Palette{
		Accent:  lipgloss.Color("#7C3AED"),
		Accent2: lipgloss.Color("#06B6D4"),
		Text:    lipgloss.Color("#CDD6F4"),
		Dim:     lipgloss.Color("#6C7086"),
		Good:    lipgloss.Color("#A6E3A1"),
		Caution: lipgloss.Color("#F9E2AF"),
		Bad:     lipgloss.Color("#F38BA8"),
		Frame:   lipgloss.Color("#45475A"),
		Bar:     lipgloss.Color("#181825"),
	}
}

// Styles are the rendered styles used by the app and its components.
type Styles struct {
	palette Palette

	Title     lipgloss.Style
	Subtitle  lipgloss.Style
	Normal    lipgloss.Style
	Muted     lipgloss.Style
	Error     lipgloss.Style
	Success   lipgloss.Style
	Warning   lipgloss.Style
	Help      lipgloss.Style
	StatusBar lipgloss.Style

	// InputField frames the question prompt.
	InputField lipgloss.Style

	// Question renders the analyst's own lines in the transcript.
	Question lipgloss.Style

	// Citation renders the Sources block under an answer.
	Citation lipgloss.Style
}

// NewStyles builds styles from p.
func NewStyles(p Palette) *Styles {
	text := lipgloss.NewStyle().Foreground(p.Text)
	dim := lipgloss.NewStyle().Foreground(p.Dim)

	return &Styles{
		palette:  p,
		Title:    lipgloss.NewStyle().Bold(true).Foreground(p.Accent),
		Subtitle: lipgloss.NewStyle().Bold(true).Foreground(p.Accent2),
		Normal:   text,
		Muted:    dim,
		Help:     dim,
		Error:    lipgloss.NewStyle().Foreground(p.Bad),
		Success:  lipgloss.NewStyle().Foreground(p.Good),
		Warning:  lipgloss.NewStyle().Foreground(p.Caution),
		StatusBar: lipgloss.NewStyle().
			Foreground(p.Dim).
			Background(p.Bar).
			Padding(0, 1),
		InputField: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(p.Frame).
			Padding(0, 1),
		Question: lipgloss.NewStyle().Bold(true).Foreground(p.Accent2),
		Citation: dim.Italic(true),
	}
}

// DefaultStyles returns styles built from DefaultPalette.
func DefaultStyles() *Styles {
	return NewStyles(DefaultPalette())
}

// Palette returns the colours these styles were built from.
func (s *Styles) Palette() Palette {
	return s.palette
}

// Risk styles a memo section's risk label.
func (s *Styles) Risk(label domain.RiskLabel) lipgloss.Style {
	switch label {
	case domain.RiskHigh:
		return s.Error.Bold(true)
	case domain.RiskMedium:
		return s.Warning
	case domain.RiskLow:
		return s.Success
	default:
		return s.Muted
	}
}

// Verdict styles a memo recommendation.
func (s *Styles) Verdict(v domain.Verdict) lipgloss.Style {
	switch v {
	case domain.VerdictBuy:
		return s.Success.Bold(true)
	case domain.VerdictCautiousBuy:
		return s.Warning.Bold(true)
	default:
		return s.Error.Bold(true)
	}
}

// Readiness styles the corpus state in the status bar.
func (s *Styles) Readiness(r domain.Readiness) lipgloss.Style {
	switch r {
	case domain.ReadinessReady:
		return s.Success
	case domain.ReadinessIndexing:
		return s.Warning
	case domain.ReadinessDegraded:
		return s.Error
	default:
		return s.Muted
	}
}

// Answer styles answer text: ungrounded answers are flagged as a warning.
func (s *Styles) Answer(c domain.Confidence) lipgloss.Style {
	if c == domain.ConfidenceGrounded {
		return s.Normal
	}
	return s.Warning
}
