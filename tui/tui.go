// Package tui provides the Bubble Tea interactive chat for strand.
package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/strandhq/strand"
)

// StreamFunc runs one streaming turn. The onEvent callback is called for
// each decoded event. The function blocks until the turn completes or the
// context is cancelled.
type StreamFunc func(ctx context.Context, req strand.Request, onEvent func(strand.Event)) error

// Run creates and runs the Bubble Tea program. It blocks until the program
// exits. Cancelling the context quits the program.
func Run(ctx context.Context, m Model) error {
	p := tea.NewProgram(m, tea.WithAltScreen())
	go func() {
		<-ctx.Done()
		p.Quit()
	}()
	_, err := p.Run()
	return err
}

// StreamEventMsg wraps a decoded event for delivery to the model.
type StreamEventMsg struct {
	Event strand.Event
}

// StreamDoneMsg signals that the streaming turn has completed.
type StreamDoneMsg struct {
	Err error
}
