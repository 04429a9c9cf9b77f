package lifecycle

import (
	"errors"
	"fmt"
)

var (
	// ErrNotConfigured means the tickets category is missing; setup
	// has to run first.
	ErrNotConfigured = errors.New("tickets category does not exist")
	// ErrNotATicket means a close was requested against a channel
	// with no open ticket record.
	ErrNotATicket = errors.New("channel is not an open ticket")
	// ErrEmptyReason rejects an open request with no reason text.
	ErrEmptyReason = errors.New("a reason is required to open a ticket")
)

// DuplicateTicketError means the requester already has an open ticket.
type DuplicateTicketError struct {
	ChannelID string // existing ticket channel
}

func (e *DuplicateTicketError) Error() string {
	return fmt.Sprintf("requester already has an open ticket in channel %s", e.ChannelID)
}
