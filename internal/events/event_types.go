package events

import "time"

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventUnverifiedEmail         EventType = "unverified_email"
	EventRegistrationUnactivated EventType = "registration_unactivated"
)

// Event is emitted when token validation runs into an account whose
// approval state blocks authentication, just before the corresponding
// failure is raised.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	Timestamp time.Time `json:"timestamp"`
}
