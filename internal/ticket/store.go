package ticket

import "time"

// Store is the persistence interface for ticket records. Records are
// append-and-update: after insertion only the status and the close-time
// audit columns ever change, and rows are never deleted.
type Store interface {
	// Insert creates a new open ticket and returns the stored record
	// with its assigned ID.
	Insert(guildID, userID, channelID, reason string, createdAt time.Time) (*Ticket, error)
	// FindOpenByChannel returns the open ticket backed by the given
	// channel, or ErrNotFound.
	FindOpenByChannel(channelID string) (*Ticket, error)
	// FindOpenByUser returns the requester's open ticket in the guild,
	// or ErrNotFound.
	FindOpenByUser(guildID, userID string) (*Ticket, error)
	// Close transitions the open ticket backing channelID to closed,
	// recording the closure time and the channel's message count.
	// Returns ErrNotFound when no open ticket matches.
	Close(channelID string, closedAt time.Time, messageCount int) error
	// Get retrieves a ticket by its surrogate ID.
	Get(id int64) (*Ticket, error)
	// List returns tickets matching the filter, newest first.
	List(filter Filter) ([]*Ticket, error)
	// CountOpen returns the number of open tickets across all guilds.
	CountOpen() (int, error)
}

// Filter constrains ticket list queries.
type Filter struct {
	Status  *Status
	GuildID string
	UserID  string
	Limit   int // 0 = no limit
}
