package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/strandhq/strand"
	"github.com/strandhq/strand/markdown"
)

// block is one rendered unit of the transcript.
type block interface {
	render(width int, st Styles, theme strand.Theme) string
}

// userBlock shows one user message.
type userBlock struct {
	text string
}

func (b userBlock) render(width int, st Styles, _ strand.Theme) string {
	prefix := st.UserMsg.Render("you ▸ ")
	body := lipgloss.NewStyle().Width(max(width-6, 10)).Render(b.text)
	lines := strings.Split(body, "\n")
	for i := range lines {
		if i == 0 {
			lines[i] = prefix + lines[i]
		} else {
			lines[i] = "      " + lines[i]
		}
	}
	return strings.Join(lines, "\n")
}

// assistantBlock accumulates streamed assistant text. While streaming it is
// shown as plain wrapped text; once final it is re-rendered as markdown.
type assistantBlock struct {
	text  strings.Builder
	final bool
}

func (b *assistantBlock) append(s string) {
	b.text.WriteString(s)
}

func (b *assistantBlock) render(width int, _ Styles, theme strand.Theme) string {
	if b.final {
		return markdown.Render(b.text.String(), width, theme)
	}
	return lipgloss.NewStyle().Width(width).Render(b.text.String())
}

// toolBlock marks a tool invocation reported by the assistant.
type toolBlock struct {
	name string
}

func (b toolBlock) render(_ int, st Styles, _ strand.Theme) string {
	return st.ToolCall.Render("⚙ " + b.name)
}

// errorBlock shows a backend-reported error event.
type errorBlock struct {
	message string
}

func (b errorBlock) render(width int, st Styles, _ strand.Theme) string {
	wrapped := lipgloss.NewStyle().Width(width).Render("Error: " + b.message)
	return st.Error.Render(wrapped)
}
