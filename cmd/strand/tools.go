package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/strandhq/strand/platform"
)

// expandTools resolves --tools values. Plain names pass through unchanged;
// glob patterns are matched against the assistant's advertised tool names.
func expandTools(ctx context.Context, client *platform.Client, assistantID string, patterns []string) ([]string, error) {
	if len(patterns) == 0 {
		return nil, nil
	}
	if !hasGlob(patterns) {
		return patterns, nil
	}
	if assistantID == "" {
		return nil, fmt.Errorf("tool patterns require --assistant to resolve against")
	}
	a, err := client.GetAssistant(ctx, assistantID)
	if err != nil {
		return nil, fmt.Errorf("resolve tool patterns: %w", err)
	}
	return matchTools(patterns, a.Tools)
}

// matchTools expands glob patterns against the available tool names,
// preserving pattern order and dropping duplicates.
func matchTools(patterns, available []string) ([]string, error) {
	var out []string
	seen := make(map[string]bool)
	add := func(name string) {
		if !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}

	for _, p := range patterns {
		if !isGlob(p) {
			add(p)
			continue
		}
		matched := false
		for _, name := range available {
			ok, err := doublestar.Match(p, name)
			if err != nil {
				return nil, fmt.Errorf("bad tool pattern %q: %w", p, err)
			}
			if ok {
				add(name)
				matched = true
			}
		}
		if !matched {
			return nil, fmt.Errorf("tool pattern %q matched nothing", p)
		}
	}
	return out, nil
}

func hasGlob(patterns []string) bool {
	for _, p := range patterns {
		if isGlob(p) {
			return true
		}
	}
	return false
}

func isGlob(s string) bool {
	return strings.ContainsAny(s, "*?[{")
}
