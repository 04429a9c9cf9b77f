package ticket

import (
	"errors"
	"time"
)

// ErrNotFound is returned when no ticket matches a lookup.
var ErrNotFound = errors.New("ticket not found")

// Status represents the lifecycle state of a ticket.
type Status string

const (
	StatusOpen   Status = "open"
	StatusClosed Status = "closed"
)

// Ticket is a single support-ticket record. Discord snowflakes are kept
// as strings; the surrogate key is assigned by the store.
type Ticket struct {
	ID           int64      `json:"ticket_id"`
	GuildID      string     `json:"guild_id"`
	UserID       string     `json:"user_id"`
	ChannelID    string     `json:"channel_id"`
	Status       Status     `json:"status"`
	Reason       string     `json:"reason"`
	CreatedAt    time.Time  `json:"created_at"`
	ClosedAt     *time.Time `json:"closed_at,omitempty"`
	MessageCount int        `json:"message_count"`
}
