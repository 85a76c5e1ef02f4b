package styles

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/diligence/internal/core/domain"
)

func TestDefaultPalette_StateColoursDistinct(t *testing.T) {
	p := DefaultPalette()

	seen := map[lipgloss.Color]bool{}
	for _, c := range []lipgloss.Color{p.Accent, p.Accent2, p.Good, p.Caution, p.Bad} {
		assert.NotEmpty(t, string(c))
		assert.False(t, seen[c], "duplicate colour %s", c)
		seen[c] = true
	}
}

func TestNewStyles_UsesPalette(t *testing.T) {
	p := DefaultPalette()
	p.Bad = lipgloss.Color("#FF0000")

	s := NewStyles(p)

	assert.Equal(t, p, s.Palette())
	assert.Equal(t, p.Bad, s.Error.GetForeground())
	assert.Equal(t, p.Bar, s.StatusBar.GetBackground())
	assert.True(t, s.Title.GetBold())
	assert.True(t, s.Citation.GetItalic())
	assert.False(t, s.Muted.GetItalic(), "citation italics must not leak into muted text")
}

func TestStyles_Risk(t *testing.T) {
	s := DefaultStyles()
	p := s.Palette()

	assert.Equal(t, p.Bad, s.Risk(domain.RiskHigh).GetForeground())
	assert.True(t, s.Risk(domain.RiskHigh).GetBold())
	assert.Equal(t, p.Caution, s.Risk(domain.RiskMedium).GetForeground())
	assert.Equal(t, p.Good, s.Risk(domain.RiskLow).GetForeground())
	assert.Equal(t, p.Dim, s.Risk(domain.RiskUnknown).GetForeground())
}

func TestStyles_Verdict(t *testing.T) {
	s := DefaultStyles()
	p := s.Palette()

	assert.Equal(t, p.Good, s.Verdict(domain.VerdictBuy).GetForeground())
	assert.Equal(t, p.Caution, s.Verdict(domain.VerdictCautiousBuy).GetForeground())
	assert.Equal(t, p.Bad, s.Verdict(domain.VerdictPass).GetForeground())
}

func TestStyles_Readiness(t *testing.T) {
	s := DefaultStyles()
	p := s.Palette()

	assert.Equal(t, p.Good, s.Readiness(domain.ReadinessReady).GetForeground())
	assert.Equal(t, p.Caution, s.Readiness(domain.ReadinessIndexing).GetForeground())
	assert.Equal(t, p.Bad, s.Readiness(domain.ReadinessDegraded).GetForeground())
	assert.Equal(t, p.Dim, s.Readiness(domain.ReadinessEmpty).GetForeground())
}

func TestStyles_Answer(t *testing.T) {
	s := DefaultStyles()
	p := s.Palette()

	assert.Equal(t, p.Text, s.Answer(domain.ConfidenceGrounded).GetForeground())
	assert.Equal(t, p.Caution, s.Answer(domain.ConfidenceUngrounded).GetForeground())
}
