package client

import "time"

// CommandStatus is one entry of GET /commands.
type CommandStatus struct {
	Name      string    `json:"name"`
	Command   string    `json:"command"`
	Invalid   string    `json:"invalid,omitempty"`
	Running   bool      `json:"running"`
	ID        int       `json:"id,omitempty"`
	StartedAt time.Time `json:"started_at,omitzero"`
	Liveness  string    `json:"liveness,omitempty"`
	Process   string    `json:"process,omitempty"`
}

// Record is one entry of GET /running.
type Record struct {
	Name      string    `json:"name"`
	ID        int       `json:"id"`
	StartedAt time.Time `json:"started_at"`
}

// Event is one entry of GET /history.
type Event struct {
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
	Session    string    `json:"session"`
	Name       string    `json:"name"`
	ID         int       `json:"id"`
	Command    string    `json:"command,omitempty"`
	Platform   string    `json:"platform"`
	Error      string    `json:"error,omitempty"`
}

// ErrorResponse is the body of every non-2xx answer.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}
