// Package lifecycle enforces the ticket open/close business rules and
// coordinates the store, the chat gateway, and notifications.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/YOU34cz/ticket-bot/internal/gateway"
	"github.com/YOU34cz/ticket-bot/internal/metrics"
	"github.com/YOU34cz/ticket-bot/internal/notify"
	"github.com/YOU34cz/ticket-bot/internal/ticket"
)

// Guild structure provisioned by Setup.
const (
	CategoryTickets = "tickets"
	CategoryLogs    = "logs"
	ChannelOpenLog  = "open"
	ChannelCloseLog = "close"
)

// CloseSummary is the audit summary computed when a ticket is closed.
type CloseSummary struct {
	TicketID     int64
	UserID       string
	ChannelID    string
	CreatedAt    time.Time
	ClosedAt     time.Time
	MessageCount int
}

// SetupResult reports the channels Setup created or reused.
type SetupResult struct {
	LogsCategoryID    string
	TicketsCategoryID string
	OpenLogChannelID  string
	CloseLogChannelID string
}

// Manager is the ticket lifecycle manager. All store mutations go
// through mu, so the duplicate check plus insert and the lookup plus
// status update are each atomic with respect to one another.
type Manager struct {
	mu        sync.Mutex
	store     ticket.Store
	gw        gateway.Gateway
	notifier  *notify.Notifier
	adminRole string
	logger    *slog.Logger
}

func New(store ticket.Store, gw gateway.Gateway, notifier *notify.Notifier, adminRole string, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		store:     store,
		gw:        gw,
		notifier:  notifier,
		adminRole: adminRole,
		logger:    logger,
	}
}

// Open creates a ticket for the requester: a restricted channel under
// the tickets category, a store record, and the open notifications.
// The store is the single source of truth for duplicate detection; the
// channel topic marker is written for manual inspection only.
func (m *Manager) Open(ctx context.Context, guildID, userID, userName, reason string) (*ticket.Ticket, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, ErrEmptyReason
	}

	cat, err := m.gw.FindCategory(ctx, guildID, CategoryTickets)
	if err != nil {
		return nil, err
	}
	if cat == nil {
		return nil, ErrNotConfigured
	}

	t, err := m.createTicket(ctx, guildID, userID, userName, reason, cat.ID)
	if err != nil {
		return nil, err
	}

	metrics.TicketsOpened.Inc()
	metrics.OpenTickets.Inc()
	m.logger.Info("ticket opened",
		"ticket_id", t.ID, "guild_id", guildID, "user_id", userID, "channel_id", t.ChannelID)

	m.notifier.TicketOpened(ctx, notify.OpenEvent{
		UserID:    userID,
		ChannelID: t.ChannelID,
		Reason:    reason,
		CreatedAt: t.CreatedAt,
	}, m.logChannel(ctx, guildID, ChannelOpenLog))

	return t, nil
}

// createTicket runs the duplicate check, channel creation, and record
// insert as one critical section so two near-simultaneous opens from
// the same requester cannot both pass the check.
func (m *Manager) createTicket(ctx context.Context, guildID, userID, userName, reason, categoryID string) (*ticket.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, err := m.store.FindOpenByUser(guildID, userID)
	if err == nil {
		return nil, &DuplicateTicketError{ChannelID: existing.ChannelID}
	}
	if !errors.Is(err, ticket.ErrNotFound) {
		return nil, err
	}

	ch, err := m.gw.CreateTicketChannel(ctx, gateway.TicketChannelRequest{
		GuildID:    guildID,
		CategoryID: categoryID,
		Name:       channelName(userName),
		Topic:      "user_id:" + userID,
		UserID:     userID,
		AdminRole:  m.adminRole,
	})
	if err != nil {
		return nil, fmt.Errorf("create ticket channel: %w", err)
	}

	t, err := m.store.Insert(guildID, userID, ch.ID, reason, ch.CreatedAt)
	if err != nil {
		// Compensate: remove the channel so no orphan survives a
		// failed persist.
		if delErr := m.gw.DeleteChannel(ctx, ch.ID); delErr != nil {
			m.logger.Error("rollback of ticket channel failed",
				"channel_id", ch.ID, "error", delErr)
		}
		return nil, fmt.Errorf("persist ticket: %w", err)
	}
	return t, nil
}

// Close transitions the ticket backing channelID to closed, announces
// the audit summary, and destroys the channel. The channel is deleted
// last so its history is still readable for the message count and the
// notifications.
func (m *Manager) Close(ctx context.Context, guildID, channelID, originChannelID string) (*CloseSummary, error) {
	m.mu.Lock()
	t, err := m.store.FindOpenByChannel(channelID)
	m.mu.Unlock()
	if errors.Is(err, ticket.ErrNotFound) {
		return nil, ErrNotATicket
	}
	if err != nil {
		return nil, err
	}

	// Full history scan; blocking I/O, kept outside the store lock.
	count, err := m.gw.CountMessages(ctx, channelID)
	if err != nil {
		return nil, fmt.Errorf("count messages: %w", err)
	}
	closedAt := time.Now().UTC()

	m.mu.Lock()
	err = m.store.Close(channelID, closedAt, count)
	m.mu.Unlock()
	if errors.Is(err, ticket.ErrNotFound) {
		// Lost a race with another close of the same channel.
		return nil, ErrNotATicket
	}
	if err != nil {
		return nil, err
	}

	metrics.TicketsClosed.Inc()
	metrics.OpenTickets.Dec()
	m.logger.Info("ticket closed",
		"ticket_id", t.ID, "guild_id", guildID, "channel_id", channelID, "messages", count)

	sum := &CloseSummary{
		TicketID:     t.ID,
		UserID:       t.UserID,
		ChannelID:    channelID,
		CreatedAt:    t.CreatedAt,
		ClosedAt:     closedAt,
		MessageCount: count,
	}

	m.notifier.TicketClosed(ctx, notify.CloseEvent{
		UserID:       sum.UserID,
		ChannelID:    sum.ChannelID,
		CreatedAt:    sum.CreatedAt,
		ClosedAt:     sum.ClosedAt,
		MessageCount: sum.MessageCount,
	}, originChannelID, m.logChannel(ctx, guildID, ChannelCloseLog))

	if err := m.gw.DeleteChannel(ctx, channelID); err != nil {
		m.logger.Error("delete ticket channel failed", "channel_id", channelID, "error", err)
	}
	return sum, nil
}

// Setup provisions the logs and tickets categories and the open/close
// log channels. Idempotent: existing channels are reused by name.
func (m *Manager) Setup(ctx context.Context, guildID string) (*SetupResult, error) {
	logsCat, err := m.getOrCreateCategory(ctx, guildID, CategoryLogs)
	if err != nil {
		return nil, err
	}
	ticketsCat, err := m.getOrCreateCategory(ctx, guildID, CategoryTickets)
	if err != nil {
		return nil, err
	}
	openCh, err := m.getOrCreateTextChannel(ctx, guildID, logsCat.ID, ChannelOpenLog)
	if err != nil {
		return nil, err
	}
	closeCh, err := m.getOrCreateTextChannel(ctx, guildID, logsCat.ID, ChannelCloseLog)
	if err != nil {
		return nil, err
	}

	m.logger.Info("guild setup completed", "guild_id", guildID)
	return &SetupResult{
		LogsCategoryID:    logsCat.ID,
		TicketsCategoryID: ticketsCat.ID,
		OpenLogChannelID:  openCh.ID,
		CloseLogChannelID: closeCh.ID,
	}, nil
}

// --- helpers ---

func (m *Manager) getOrCreateCategory(ctx context.Context, guildID, name string) (*gateway.ChannelInfo, error) {
	cat, err := m.gw.FindCategory(ctx, guildID, name)
	if err != nil {
		return nil, err
	}
	if cat != nil {
		return cat, nil
	}
	return m.gw.CreateCategory(ctx, guildID, name)
}

func (m *Manager) getOrCreateTextChannel(ctx context.Context, guildID, categoryID, name string) (*gateway.ChannelInfo, error) {
	ch, err := m.gw.FindTextChannel(ctx, guildID, categoryID, name)
	if err != nil {
		return nil, err
	}
	if ch != nil {
		return ch, nil
	}
	return m.gw.CreateTextChannel(ctx, guildID, categoryID, name)
}

// logChannel resolves a log channel under the logs category. Missing
// channels are not an error; the notification is simply skipped.
func (m *Manager) logChannel(ctx context.Context, guildID, name string) string {
	cat, err := m.gw.FindCategory(ctx, guildID, CategoryLogs)
	if err != nil || cat == nil {
		return ""
	}
	ch, err := m.gw.FindTextChannel(ctx, guildID, cat.ID, name)
	if err != nil || ch == nil {
		return ""
	}
	return ch.ID
}

// channelName builds the ticket channel name from the requester's
// username, normalized to Discord's channel naming rules.
func channelName(userName string) string {
	name := strings.ToLower(strings.TrimSpace(userName))
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		case r == ' ':
			b.WriteByte('-')
		}
	}
	if b.Len() == 0 {
		return "ticket"
	}
	return "ticket-" + b.String()
}
