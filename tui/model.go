package tui

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-runewidth"
	"github.com/rivo/uniseg"
	"github.com/strandhq/strand"
)

var _ tea.Model = Model{}

// Config carries static session information for the TUI.
type Config struct {
	AssistantID string
	Model       string
	Tools       []string
}

// Model is the Bubble Tea model for the strand chat TUI.
type Model struct {
	// Input is the text input component. Exported for test access.
	Input textinput.Model
	// Viewport is the scrollable output area. Exported for test access.
	Viewport viewport.Model

	stream StreamFunc
	config Config
	theme  strand.Theme
	styles Styles

	blocks  []block
	current *assistantBlock // assistant block receiving streamed text, if any

	// threadID is captured from the first metadata event and carried into
	// subsequent turns; conversation state itself lives on the backend.
	threadID string

	running bool
	cancel  context.CancelFunc
	eventCh chan strand.Event
	doneCh  chan error
	err     error
	ready   bool
}

// New creates a new chat Model.
func New(stream StreamFunc, theme strand.Theme, config Config) Model {
	ti := textinput.New()
	ti.Placeholder = "Type a message..."
	ti.Prompt = ""
	ti.Focus()
	ti.CharLimit = 0

	return Model{
		Input:  ti,
		stream: stream,
		config: config,
		theme:  theme,
		styles: NewStyles(theme),
	}
}

// Running returns whether a turn is currently streaming.
func (m Model) Running() bool { return m.running }

// ThreadID returns the backend thread identifier captured so far.
func (m Model) ThreadID() string { return m.threadID }

// Err returns the last transport error, if any.
func (m Model) Err() error { return m.err }

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleWindowSize(msg), nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case StreamEventMsg:
		m = m.processEvent(msg.Event)
		m.Viewport.SetContent(m.renderContent())
		m.Viewport.GotoBottom()
		if m.eventCh != nil {
			return m, listenForEvent(m.eventCh, m.doneCh)
		}
		return m, nil

	case StreamDoneMsg:
		m.running = false
		m.cancel = nil
		m.eventCh = nil
		m.doneCh = nil
		if m.current != nil {
			m.current.final = true
			m.current = nil
		}
		if msg.Err != nil && !errors.Is(msg.Err, context.Canceled) {
			m.err = msg.Err
		}
		m.Viewport.SetContent(m.renderContent())
		m.Viewport.GotoBottom()
		cmds = append(cmds, m.Input.Focus())
		return m, tea.Batch(cmds...)
	}

	// Pass remaining messages to sub-components.
	// Viewport always receives messages for scrolling (keyboard and mouse).
	var cmd tea.Cmd
	m.Viewport, cmd = m.Viewport.Update(msg)
	cmds = append(cmds, cmd)

	if !m.running {
		m.Input, cmd = m.Input.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	var b strings.Builder
	b.WriteString(m.Viewport.View())
	b.WriteString("\n")
	b.WriteString(m.statusLine())
	b.WriteString("\n")
	b.WriteString(m.Input.View())
	return b.String()
}

func (m Model) handleWindowSize(msg tea.WindowSizeMsg) Model {
	const chromeHeight = 3 // status line, input line, separators
	vpHeight := max(msg.Height-chromeHeight, 1)

	if !m.ready {
		m.Viewport = viewport.New(msg.Width, vpHeight)
		m.Viewport.SetContent(m.renderContent())
		m.ready = true
	} else {
		m.Viewport.Width = msg.Width
		m.Viewport.Height = vpHeight
	}

	m.Input.Width = msg.Width
	return m
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		if m.running {
			if m.cancel != nil {
				m.cancel()
			}
			return m, nil
		}
		return m, tea.Quit

	case tea.KeyEsc:
		if m.running && m.cancel != nil {
			m.cancel()
		}
		return m, nil

	case tea.KeyEnter:
		if m.running {
			return m, nil
		}
		text := strings.TrimSpace(m.Input.Value())
		if text == "" {
			return m, nil
		}
		return m.submitInput(text)
	}

	// When idle, pass keys to both the input (for typing) and viewport
	// (for scrolling). Only forward non-character keys to the viewport to
	// avoid conflicts (e.g. 'j'/'k' are viewport scroll AND text characters).
	if !m.running {
		var cmd tea.Cmd
		var cmds []tea.Cmd

		if msg.Type != tea.KeyRunes {
			m.Viewport, cmd = m.Viewport.Update(msg)
			cmds = append(cmds, cmd)
		}

		m.Input, cmd = m.Input.Update(msg)
		cmds = append(cmds, cmd)

		return m, tea.Batch(cmds...)
	}

	return m, nil
}

func (m Model) submitInput(text string) (tea.Model, tea.Cmd) {
	m.Input.SetValue("")
	m.err = nil

	m.blocks = append(m.blocks, userBlock{text: text})
	m.current = nil
	m.Viewport.SetContent(m.renderContent())
	m.Viewport.GotoBottom()

	req := strand.Request{
		Messages: []strand.Message{{Role: strand.RoleUser, Content: text}},
		Model:    m.config.Model,
		Tools:    m.config.Tools,
		Metadata: strand.Metadata{
			AssistantID: m.config.AssistantID,
			ThreadID:    m.threadID,
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.eventCh = make(chan strand.Event, 256)
	m.doneCh = make(chan error, 1)
	m.running = true

	m.Input.Blur()

	return m, tea.Batch(
		startStream(m.stream, ctx, req, m.eventCh, m.doneCh),
		listenForEvent(m.eventCh, m.doneCh),
	)
}

func (m Model) renderContent() string {
	if len(m.blocks) == 0 {
		return m.styles.Muted.Render("No messages yet.")
	}
	var b strings.Builder
	for i, blk := range m.blocks {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(blk.render(m.Viewport.Width, m.styles, m.theme))
	}
	return b.String()
}

// processEvent folds one decoded event into the transcript.
func (m Model) processEvent(evt strand.Event) Model {
	switch e := evt.(type) {
	case strand.MessagesEvent:
		for _, chunk := range e.Chunks {
			m = m.applyChunk(chunk, false)
		}

	case strand.ValuesEvent:
		// The snapshot is authoritative: rebuild the transcript from it,
		// discarding everything accumulated so far.
		m.blocks = nil
		m.current = nil
		for _, chunk := range e.Snapshot.Messages {
			m = m.applyChunk(chunk, true)
			m.current = nil
		}

	case strand.MetadataEvent:
		if e.ThreadID != "" {
			m.threadID = e.ThreadID
		}

	case strand.ErrorEvent:
		m.blocks = append(m.blocks, errorBlock{message: e.Message})
		m.current = nil
	}
	return m
}

// applyChunk appends one message chunk to the transcript. Consecutive
// assistant text chunks coalesce into the streaming block.
func (m Model) applyChunk(chunk strand.MessageChunk, final bool) Model {
	for _, call := range chunk.ToolCalls {
		m.blocks = append(m.blocks, toolBlock{name: call.Name})
		m.current = nil
	}

	text := chunk.Text()
	if text == "" {
		return m
	}

	switch chunk.Type {
	case "human", string(strand.RoleUser):
		m.blocks = append(m.blocks, userBlock{text: text})
		m.current = nil
	case "tool":
		m.blocks = append(m.blocks, toolBlock{name: chunk.Name})
		m.current = nil
	default: // ai, assistant, and anything unrecognized streams as assistant text
		if m.current == nil {
			m.current = &assistantBlock{final: final}
			m.blocks = append(m.blocks, m.current)
		}
		m.current.append(text)
		if final {
			m.current.final = true
		}
	}
	return m
}

func (m Model) statusLine() string {
	var left string
	switch {
	case m.err != nil:
		left = "Error: " + strand.Classify(m.err).Message
	case m.running:
		left = "Streaming... Esc to cancel"
	default:
		left = "Enter to send, Ctrl+C to quit"
	}

	right := ""
	if m.threadID != "" {
		right = "thread " + runewidth.Truncate(m.threadID, 24, "…")
	}

	gap := m.Viewport.Width - uniseg.StringWidth(left) - uniseg.StringWidth(right)
	if gap < 1 {
		gap = 1
	}
	line := left + strings.Repeat(" ", gap) + right

	if m.err != nil {
		return m.styles.Error.Render(line)
	}
	return m.styles.Muted.Render(line)
}

// startStream runs the streaming turn in a goroutine and signals completion.
func startStream(stream StreamFunc, ctx context.Context, req strand.Request, eventCh chan<- strand.Event, doneCh chan<- error) tea.Cmd {
	return func() tea.Msg {
		err := stream(ctx, req, func(e strand.Event) {
			select {
			case eventCh <- e:
			case <-ctx.Done():
			}
		})
		close(eventCh)
		doneCh <- err
		return nil
	}
}

// listenForEvent waits for the next event from the channel. When the channel
// closes, it reads the error from doneCh and returns StreamDoneMsg.
func listenForEvent(ch <-chan strand.Event, doneCh <-chan error) tea.Cmd {
	return func() tea.Msg {
		evt, ok := <-ch
		if !ok {
			return StreamDoneMsg{Err: <-doneCh}
		}
		return StreamEventMsg{Event: evt}
	}
}
