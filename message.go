package strand

import "encoding/json"

// Message is one role-tagged entry in an outgoing stream request.
type Message struct {
	Role    Role
	Content string
}

// ToolCall records a tool invocation reported inside a message chunk.
type ToolCall struct {
	ID   string          `json:"id,omitempty"`
	Name string          `json:"name,omitempty"`
	Args json.RawMessage `json:"args,omitempty"`
}

// MessageChunk is one incremental message payload carried by a messages
// event. Content is either a plain JSON string or a list of content blocks;
// use [MessageChunk.Text] to extract displayable text.
type MessageChunk struct {
	ID               string          `json:"id,omitempty"`
	Type             string          `json:"type,omitempty"`
	Name             string          `json:"name,omitempty"`
	Content          json.RawMessage `json:"content,omitempty"`
	ToolCalls        []ToolCall      `json:"tool_calls,omitempty"`
	ResponseMetadata map[string]any  `json:"response_metadata,omitempty"`
}

// contentBlock is the structured form of chunk content.
type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Text extracts displayable text from the chunk's content. A plain string is
// returned as-is. A list of content blocks yields the first block's text when
// its type discriminator marks it as text. Anything else yields "". Total:
// runs on every chunk and never fails.
func (c MessageChunk) Text() string {
	if len(c.Content) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(c.Content, &s); err == nil {
		return s
	}
	var blocks []contentBlock
	if err := json.Unmarshal(c.Content, &blocks); err == nil {
		if len(blocks) > 0 && blocks[0].Type == "text" {
			return blocks[0].Text
		}
	}
	return ""
}

// Task is one entry in a snapshot's task list.
type Task struct {
	ID     string `json:"id,omitempty"`
	Name   string `json:"name,omitempty"`
	Status string `json:"status,omitempty"`
}

// StateSnapshot is a complete snapshot of the conversation state so far,
// carried by a values event. Each snapshot supersedes the previous one.
type StateSnapshot struct {
	Messages []MessageChunk    `json:"messages"`
	Files    map[string]string `json:"files,omitempty"`
	Tasks    []Task            `json:"tasks,omitempty"`
}
