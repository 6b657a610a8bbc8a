// Package seed loads the initial conversations and templates handed to the
// stores at startup.
package seed

import (
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/replyflow/inbox/internal/model"
)

//go:embed fixtures/*.yaml
var fixtures embed.FS

// Conversations reads a conversation fixture. An empty path yields the
// built-in demo inbox.
func Conversations(path string) ([]model.Conversation, error) {
	var out []model.Conversation
	if err := load(path, "fixtures/conversations.yaml", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Templates reads a template fixture. An empty path yields the built-in
// template library.
func Templates(path string) ([]model.Template, error) {
	var out []model.Template
	if err := load(path, "fixtures/templates.yaml", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func load(path, fallback string, v any) error {
	if path == "" {
		data, err := fixtures.ReadFile(fallback)
		if err != nil {
			return fmt.Errorf("failed to read built-in fixture: %w", err)
		}
		return decode(data, fallback, v)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read seed file: %w", err)
	}
	return decode(data, path, v)
}

// decode picks the format from the file extension: .json is JSON, anything
// else is treated as YAML.
func decode(data []byte, name string, v any) error {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json":
		if err := json.Unmarshal(data, v); err != nil {
			return fmt.Errorf("failed to parse %s: %w", name, err)
		}
	default:
		if err := yaml.Unmarshal(data, v); err != nil {
			return fmt.Errorf("failed to parse %s: %w", name, err)
		}
	}
	return nil
}

// Problem describes one inconsistency found in a fixture.
type Problem struct {
	Kind   model.EntityKind
	ID     int
	Reason string
}

func (p Problem) String() string {
	return fmt.Sprintf("%s %d: %s", p.Kind, p.ID, p.Reason)
}

// Check reports fixture problems that the stores would otherwise silently
// accept: duplicate or non-positive ids, unknown platforms and statuses,
// priorities out of range, and duplicate message ids within a thread.
func Check(conversations []model.Conversation, templates []model.Template) []Problem {
	var problems []Problem

	seen := make(map[int]bool)
	for _, c := range conversations {
		add := func(reason string, args ...any) {
			problems = append(problems, Problem{Kind: model.EntityConversation, ID: c.ID, Reason: fmt.Sprintf(reason, args...)})
		}
		if c.ID <= 0 {
			add("id must be positive")
		}
		if seen[c.ID] {
			add("duplicate id")
		}
		seen[c.ID] = true
		if !c.Platform.Valid() {
			add("unknown platform %q", c.Platform)
		}
		if !c.Status.Valid() {
			add("unknown status %q", c.Status)
		}
		if c.Priority < model.PriorityLow || c.Priority > model.PriorityHigh {
			add("priority %d out of range", c.Priority)
		}
		if c.UnreadCount < 0 {
			add("negative unread count")
		}
		msgIDs := make(map[int]bool)
		for _, m := range c.Messages {
			if msgIDs[m.ID] {
				add("duplicate message id %d", m.ID)
			}
			msgIDs[m.ID] = true
		}
	}

	seen = make(map[int]bool)
	for _, t := range templates {
		if t.ID <= 0 {
			problems = append(problems, Problem{Kind: model.EntityTemplate, ID: t.ID, Reason: "id must be positive"})
		}
		if seen[t.ID] {
			problems = append(problems, Problem{Kind: model.EntityTemplate, ID: t.ID, Reason: "duplicate id"})
		}
		seen[t.ID] = true
	}

	return problems
}
