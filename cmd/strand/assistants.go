package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	flags "github.com/jessevdk/go-flags"
	"github.com/mattn/go-isatty"

	"github.com/strandhq/strand/platform"
)

type assistantsCmd struct {
	List   listAssistantsCmd  `command:"list" description:"List assistants"`
	Create createAssistantCmd `command:"create" description:"Create an assistant"`
}

type listAssistantsCmd struct{}

type createAssistantCmd struct {
	Name        string   `long:"name" required:"yes" description:"Assistant name"`
	Description string   `long:"description" description:"Assistant description"`
	Model       string   `long:"model" description:"Default model"`
	Tools       []string `long:"tools" description:"Tool name (repeatable)"`
}

func (a *assistantsCmd) run(ctx context.Context, opts *options, active *flags.Command) int {
	if active == nil {
		return fail(errors.New("assistants requires a subcommand: list or create"))
	}
	cfg, err := loadConfig(opts)
	if err != nil {
		return fail(err)
	}
	if cfg.APIKey == "" {
		return fail(errors.New("no API key: set STRAND_API_KEY, api_key in the config file, or --api-key"))
	}
	client := newClient(cfg)

	switch active.Name {
	case "list":
		return a.List.run(ctx, client)
	case "create":
		return a.Create.run(ctx, client)
	}
	return 1
}

func (c *listAssistantsCmd) run(ctx context.Context, client *platform.Client) int {
	assistants, err := client.ListAssistants(ctx)
	if err != nil {
		return reportChatError(err)
	}

	if !isatty.IsTerminal(os.Stdout.Fd()) {
		enc := json.NewEncoder(os.Stdout)
		for _, a := range assistants {
			if err := enc.Encode(a); err != nil {
				return 1
			}
		}
		return 0
	}

	if len(assistants) == 0 {
		fmt.Println("No assistants.")
		return 0
	}
	for _, a := range assistants {
		line := fmt.Sprintf("%-24s %s", a.ID, a.Name)
		if a.Model != "" {
			line += " (" + a.Model + ")"
		}
		fmt.Println(line)
	}
	return 0
}

func (c *createAssistantCmd) run(ctx context.Context, client *platform.Client) int {
	created, err := client.CreateAssistant(ctx, platform.AssistantSpec{
		Name:        c.Name,
		Description: c.Description,
		Model:       c.Model,
		Tools:       c.Tools,
	})
	if err != nil {
		return reportChatError(err)
	}
	fmt.Printf("created %s (%s)\n", created.ID, created.Name)
	return 0
}
