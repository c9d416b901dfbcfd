package model

import "time"

// Audit is an append-only log entry for request lifecycle events.
type Audit struct {
	ID        int64
	Event     string
	Payload   string // JSON
	CreatedAt time.Time
}
