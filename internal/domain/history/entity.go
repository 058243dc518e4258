package history

import "time"

// Analysis types
const (
	TypeDeception   = "Deception"
	TypePersonality = "Personality"
)

// AnonymousUser is stored when a request carries no username.
const AnonymousUser = "Anonymous"

// Record is an insert-only audit entry for one analysis request.
type Record struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	User       string    `json:"user"`
	Result     string    `json:"result"`
	Confidence float64   `json:"confidence"`
	Text       string    `json:"text"`
	CreatedAt  time.Time `json:"created_at"`
}
