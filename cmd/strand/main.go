// Command strand is a terminal client for the strand conversational-AI
// platform: it chats with assistants over the streaming API and manages
// them.
//
// Usage:
//
//	STRAND_API_KEY=sk-... strand chat "hello"
//	strand chat --assistant asst_1 --thread t-42 "continue"
//	strand chat --json "hello" | jq .
//	strand assistants list
//	strand assistants create --name support --model sonnet
//
// With no message argument, chat opens an interactive TUI. --json is
// auto-enabled when stdout is not a terminal. Exit codes: 0 success,
// 1 network/stream failure, 2 auth, 3 rate limit, 4 timeout, 5 server.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	flags "github.com/jessevdk/go-flags"

	"github.com/strandhq/strand/config"
	"github.com/strandhq/strand/platform"
)

type options struct {
	ConfigPath string `short:"c" long:"config" description:"Config file path (default ~/.strand/config.yaml)"`
	APIKey     string `long:"api-key" description:"API key (overrides STRAND_API_KEY and the config file)"`
	BaseURL    string `long:"base-url" description:"Platform base URL (for self-hosted deployments)"`

	Chat       chatCmd       `command:"chat" description:"Chat with an assistant"`
	Assistants assistantsCmd `command:"assistants" description:"Manage assistants"`
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	var opts options
	parser := flags.NewParser(&opts, flags.HelpFlag|flags.PassDoubleDash)

	if _, err := parser.ParseArgs(args); err != nil {
		if flags.WroteHelp(err) {
			return 0
		}
		fmt.Fprintf(os.Stderr, "strand: %v\n", err)
		return 1
	}

	active := parser.Command.Active
	if active == nil {
		parser.WriteHelp(os.Stderr)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	switch active.Name {
	case "chat":
		return opts.Chat.run(ctx, &opts)
	case "assistants":
		return opts.Assistants.run(ctx, &opts, active.Active)
	}
	return 1
}

// loadConfig resolves the layered configuration, applying global flag
// overrides on top.
func loadConfig(opts *options) (*config.Config, error) {
	path := opts.ConfigPath
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if opts.APIKey != "" {
		cfg.APIKey = opts.APIKey
	}
	if opts.BaseURL != "" {
		cfg.BaseURL = opts.BaseURL
	}
	return cfg, nil
}

// newClient builds the platform client from resolved configuration.
func newClient(cfg *config.Config) *platform.Client {
	opts := []platform.Option{
		platform.WithConnectTimeout(cfg.ConnectTimeoutOrDefault(30 * time.Second)),
		platform.WithIdleTimeout(cfg.IdleTimeoutOrDefault(60 * time.Second)),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, platform.WithBaseURL(cfg.BaseURL))
	}
	return platform.New(cfg.APIKey, opts...)
}

func fail(err error) int {
	fmt.Fprintf(os.Stderr, "strand: %v\n", err)
	return 1
}
