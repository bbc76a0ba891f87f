package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/strandhq/strand"
	"github.com/strandhq/strand/jsonl"
	"github.com/strandhq/strand/platform"
	"github.com/strandhq/strand/tui"
)

type chatCmd struct {
	Assistant string   `short:"a" long:"assistant" description:"Assistant ID"`
	Thread    string   `short:"t" long:"thread" description:"Thread ID to continue a conversation"`
	Model     string   `short:"m" long:"model" description:"Model override"`
	Tools     []string `long:"tools" description:"Tool name or glob pattern (repeatable)"`
	JSON      bool     `long:"json" description:"Emit one JSON object per line (auto when stdout is not a terminal)"`

	Args struct {
		Message string `positional-arg-name:"message"`
	} `positional-args:"yes"`
}

func (c *chatCmd) run(ctx context.Context, opts *options) int {
	cfg, err := loadConfig(opts)
	if err != nil {
		return fail(err)
	}
	if cfg.APIKey == "" {
		return fail(errors.New("no API key: set STRAND_API_KEY, api_key in the config file, or --api-key"))
	}

	client := newClient(cfg)
	assistant := c.Assistant
	if assistant == "" {
		assistant = cfg.Assistant
	}
	model := c.Model
	if model == "" {
		model = cfg.Model
	}

	tools, err := expandTools(ctx, client, assistant, c.Tools)
	if err != nil {
		return fail(err)
	}

	jsonOut := c.JSON || !isatty.IsTerminal(os.Stdout.Fd())

	if c.Args.Message == "" {
		if jsonOut {
			return fail(errors.New("a message argument is required with --json"))
		}
		return c.runInteractive(ctx, client, assistant, model, tools)
	}

	req := strand.Request{
		Messages: []strand.Message{{Role: strand.RoleUser, Content: c.Args.Message}},
		Model:    model,
		Tools:    tools,
		Metadata: strand.Metadata{AssistantID: assistant, ThreadID: c.Thread},
	}

	if jsonOut {
		s, err := client.Stream(ctx, req)
		if err != nil {
			cl := strand.Classify(err)
			jsonl.NewWriter(os.Stdout).Error(cl)
			return cl.ExitCode
		}
		return jsonl.Consume(os.Stdout, s)
	}
	return c.runSingleTurn(ctx, client, req)
}

// runSingleTurn streams one reply to stdout as plain text.
func (c *chatCmd) runSingleTurn(ctx context.Context, client *platform.Client, req strand.Request) int {
	s, err := client.Stream(ctx, req)
	if err != nil {
		return reportChatError(err)
	}
	defer s.Close()

	var t strand.Transcript
	for {
		evt, err := s.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			if errors.Is(err, context.Canceled) {
				fmt.Fprintln(os.Stderr)
				return 0
			}
			return reportChatError(err)
		}
		t.Apply(evt)
		switch e := evt.(type) {
		case strand.MessagesEvent:
			for _, chunk := range e.Chunks {
				fmt.Print(chunk.Text())
			}
		case strand.ErrorEvent:
			return reportChatError(errors.New(e.Message))
		}
	}
	fmt.Println()
	if t.ThreadID != "" {
		fmt.Fprintf(os.Stderr, "thread %s\n", t.ThreadID)
	}
	return 0
}

func (c *chatCmd) runInteractive(ctx context.Context, client *platform.Client, assistant, model string, tools []string) int {
	streamFn := func(ctx context.Context, req strand.Request, onEvent func(strand.Event)) error {
		s, err := client.Stream(ctx, req)
		if err != nil {
			return err
		}
		defer s.Close()
		for {
			evt, err := s.Next()
			if err == io.EOF {
				return nil
			}
			if err != nil {
				return err
			}
			onEvent(evt)
		}
	}

	m := tui.New(streamFn, strand.DefaultTheme(), tui.Config{
		AssistantID: assistant,
		Model:       model,
		Tools:       tools,
	})
	if err := tui.Run(ctx, m); err != nil {
		return fail(fmt.Errorf("TUI: %w", err))
	}
	return 0
}

// reportChatError prints the classified message and returns its exit code.
func reportChatError(err error) int {
	cl := strand.Classify(err)
	fmt.Fprintf(os.Stderr, "strand: %s (%s)\n", cl.Message, cl.Code)
	return cl.ExitCode
}
