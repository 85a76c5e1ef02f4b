package input

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/diligence/internal/adapters/driving/tui/styles"
)

func TestNewPromptInput(t *testing.T) {
	input := NewPromptInput(styles.DefaultStyles())

	require.NotNil(t, input)
	assert.Equal(t, "", input.Value())
	assert.True(t, input.Focused())
	assert.Equal(t, 50, input.Width())
}

func TestNewPromptInput_NilStyles(t *testing.T) {
	input := NewPromptInput(nil)

	require.NotNil(t, input)
	assert.NotNil(t, input.styles)
}

func TestPromptInput_Init(t *testing.T) {
	input := NewPromptInput(nil)

	// Blink command should be returned
	assert.NotNil(t, input.Init())
}

func TestPromptInput_Update_Typing(t *testing.T) {
	input := NewPromptInput(nil)

	for _, r := range "roof age?" {
		input.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}

	assert.Equal(t, "roof age?", input.Value())
}

func TestPromptInput_Update_Backspace(t *testing.T) {
	input := NewPromptInput(nil)
	input.SetValue("test")

	input.Update(tea.KeyMsg{Type: tea.KeyBackspace})

	assert.Equal(t, "tes", input.Value())
}

func TestPromptInput_CharLimit(t *testing.T) {
	input := NewPromptInput(nil)

	input.SetValue(strings.Repeat("a", maxQuestionLength+50))

	assert.Len(t, input.Value(), maxQuestionLength)
}

func TestPromptInput_View(t *testing.T) {
	input := NewPromptInput(nil)

	assert.Contains(t, input.View(), ">")
}

func TestPromptInput_FocusBlur(t *testing.T) {
	input := NewPromptInput(nil)

	input.Blur()
	assert.False(t, input.Focused())

	cmd := input.Focus()
	assert.NotNil(t, cmd)
	assert.True(t, input.Focused())
}

func TestPromptInput_SetWidth(t *testing.T) {
	input := NewPromptInput(nil)

	input.SetWidth(100)
	assert.Equal(t, 100, input.Width())

	// Very small widths keep a usable input
	input.SetWidth(10)
	assert.Equal(t, 10, input.Width())
}

func TestPromptInput_Reset(t *testing.T) {
	input := NewPromptInput(nil)
	input.SetValue("some text")

	input.Reset()

	assert.Equal(t, "", input.Value())
}
