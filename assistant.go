package strand

import "time"

// Assistant is a configured assistant on the platform.
type Assistant struct {
	ID          string    `json:"assistant_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Model       string    `json:"model,omitempty"`
	Tools       []string  `json:"tools,omitempty"`
	CreatedAt   time.Time `json:"created_at,omitzero"`
}
