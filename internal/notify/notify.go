// Package notify renders open/close events as Discord embeds and
// mirrors them into log channels and optional webhooks.
package notify

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/YOU34cz/ticket-bot/internal/gateway"
)

const timeLayout = "2006-01-02 15:04:05 UTC"

const (
	colorGreen = 0x2ecc71
	colorBlue  = 0x3498db
	colorRed   = 0xe74c3c
)

// OpenEvent carries the facts announced when a ticket is opened.
type OpenEvent struct {
	UserID    string
	ChannelID string
	Reason    string
	CreatedAt time.Time
}

// CloseEvent carries the facts announced when a ticket is closed.
type CloseEvent struct {
	UserID       string
	ChannelID    string
	CreatedAt    time.Time
	ClosedAt     time.Time
	MessageCount int
}

// Notifier dispatches ticket event notifications. Delivery failures are
// logged and never fail the triggering operation.
type Notifier struct {
	gw           gateway.Gateway
	openWebhook  string
	closeWebhook string
	logger       *slog.Logger
}

func New(gw gateway.Gateway, openWebhook, closeWebhook string, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{
		gw:           gw,
		openWebhook:  openWebhook,
		closeWebhook: closeWebhook,
		logger:       logger,
	}
}

// TicketOpened posts the opened embed into the new ticket channel, the
// log embed into logChannelID when non-empty, and mirrors to the open
// webhook when configured.
func (n *Notifier) TicketOpened(ctx context.Context, ev OpenEvent, logChannelID string) {
	if err := n.gw.SendEmbed(ctx, ev.ChannelID, OpenedEmbed(ev)); err != nil {
		n.logger.Error("send ticket embed failed", "channel_id", ev.ChannelID, "error", err)
	}
	logEmbed := OpenedLogEmbed(ev)
	if logChannelID != "" {
		if err := n.gw.SendEmbed(ctx, logChannelID, logEmbed); err != nil {
			n.logger.Error("send open log failed", "channel_id", logChannelID, "error", err)
		}
	}
	if n.openWebhook != "" {
		if err := n.gw.ExecuteWebhook(ctx, n.openWebhook, logEmbed); err != nil {
			n.logger.Error("open webhook failed", "error", err)
		}
	}
}

// TicketClosed posts the closure embed into the originating channel,
// the log channel when non-empty, and the close webhook when
// configured. Called before the ticket channel is destroyed.
func (n *Notifier) TicketClosed(ctx context.Context, ev CloseEvent, originChannelID, logChannelID string) {
	embed := ClosedEmbed(ev)
	if originChannelID != "" {
		if err := n.gw.SendEmbed(ctx, originChannelID, embed); err != nil {
			n.logger.Error("send close summary failed", "channel_id", originChannelID, "error", err)
		}
	}
	if logChannelID != "" && logChannelID != originChannelID {
		if err := n.gw.SendEmbed(ctx, logChannelID, embed); err != nil {
			n.logger.Error("send close log failed", "channel_id", logChannelID, "error", err)
		}
	}
	if n.closeWebhook != "" {
		if err := n.gw.ExecuteWebhook(ctx, n.closeWebhook, embed); err != nil {
			n.logger.Error("close webhook failed", "error", err)
		}
	}
}

// OpenedEmbed is the notification posted into the new ticket channel.
func OpenedEmbed(ev OpenEvent) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:     "🎫 Ticket Opened!",
		Color:     colorGreen,
		Timestamp: ev.CreatedAt.UTC().Format(time.RFC3339),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "User ID", Value: code(ev.UserID)},
			{Name: "Channel ID", Value: code(ev.ChannelID)},
			{Name: "Reason", Value: ev.Reason},
			{Name: "Created At", Value: ev.CreatedAt.UTC().Format(timeLayout)},
		},
	}
}

// OpenedLogEmbed is the mirror posted to the open log channel/webhook.
func OpenedLogEmbed(ev OpenEvent) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:     "📥 Ticket Opened (Log)",
		Color:     colorBlue,
		Timestamp: ev.CreatedAt.UTC().Format(time.RFC3339),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "User ID", Value: code(ev.UserID), Inline: true},
			{Name: "Channel ID", Value: code(ev.ChannelID), Inline: true},
			{Name: "Reason", Value: ev.Reason},
			{Name: "Created At", Value: ev.CreatedAt.UTC().Format(timeLayout)},
		},
	}
}

// ClosedEmbed is the closure summary.
func ClosedEmbed(ev CloseEvent) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:     "📁 Ticket Closed",
		Color:     colorRed,
		Timestamp: ev.ClosedAt.UTC().Format(time.RFC3339),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "User ID", Value: code(ev.UserID)},
			{Name: "Channel ID", Value: code(ev.ChannelID)},
			{Name: "Created At", Value: ev.CreatedAt.UTC().Format(timeLayout)},
			{Name: "Closed At", Value: ev.ClosedAt.UTC().Format(timeLayout)},
			{Name: "Number of Messages", Value: strconv.Itoa(ev.MessageCount)},
		},
	}
}

func code(s string) string { return "`" + s + "`" }
