package tui_test

import (
	"context"
	"encoding/json"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"github.com/strandhq/strand"
	"github.com/strandhq/strand/tui"
)

// initModel creates a model and sends a WindowSizeMsg to initialize the viewport.
func initModel(t *testing.T, stream tui.StreamFunc) tui.Model {
	t.Helper()
	return initModelWithSize(t, stream, 80, 24)
}

// initModelWithSize creates a model with a custom terminal size.
func initModelWithSize(t *testing.T, stream tui.StreamFunc, width, height int) tui.Model {
	t.Helper()
	m := tui.New(stream, strand.DefaultTheme(), tui.Config{})
	updated, _ := m.Update(tea.WindowSizeMsg{Width: width, Height: height})
	model, ok := updated.(tui.Model)
	require.True(t, ok)
	return model
}

// updateModel sends a message and returns the updated Model.
func updateModel(t *testing.T, m tui.Model, msg tea.Msg) tui.Model {
	t.Helper()
	updated, _ := m.Update(msg)
	model, ok := updated.(tui.Model)
	require.True(t, ok)
	return model
}

// nopStream is a stream function that emits nothing and succeeds.
func nopStream(_ context.Context, _ strand.Request, _ func(strand.Event)) error {
	return nil
}

func aiChunk(text string) strand.MessageChunk {
	raw, _ := json.Marshal(text)
	return strand.MessageChunk{Type: "ai", Content: raw}
}

func messagesEvent(texts ...string) strand.MessagesEvent {
	var chunks []strand.MessageChunk
	for _, text := range texts {
		chunks = append(chunks, aiChunk(text))
	}
	return strand.MessagesEvent{Chunks: chunks}
}
