package strand

import "fmt"

// Metadata carries optional session-identifying fields on a request.
type Metadata struct {
	AssistantID string
	ThreadID    string
	ProjectID   string
}

// Request is the input to one streaming turn. Immutable once issued.
type Request struct {
	Messages []Message
	Model    string // empty = backend default
	Tools    []string
	Metadata Metadata
}

// Validate checks universal constraints on Request.
func (r Request) Validate() error {
	if len(r.Messages) == 0 {
		return fmt.Errorf("request must contain at least one message: %w", ErrValidation)
	}
	for i, m := range r.Messages {
		if !m.Role.Valid() {
			return fmt.Errorf("message %d has unknown role %q: %w", i, m.Role, ErrValidation)
		}
		if m.Content == "" {
			return fmt.Errorf("message %d has empty content: %w", i, ErrValidation)
		}
	}
	return nil
}
