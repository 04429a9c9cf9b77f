// Package command parses prefix commands from inbound guild messages,
// performs role-based authorization, and dispatches to the ticket
// lifecycle. Domain failures are rendered as user-facing replies here;
// anything unrecognized is logged and answered with a generic failure.
package command

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/YOU34cz/ticket-bot/internal/gateway"
	"github.com/YOU34cz/ticket-bot/internal/lifecycle"
	"github.com/YOU34cz/ticket-bot/internal/ticket"
)

// Service is what the router needs from the lifecycle manager.
type Service interface {
	Open(ctx context.Context, guildID, userID, userName, reason string) (*ticket.Ticket, error)
	Close(ctx context.Context, guildID, channelID, originChannelID string) (*lifecycle.CloseSummary, error)
	Setup(ctx context.Context, guildID string) (*lifecycle.SetupResult, error)
}

// Config holds the command surface settings.
type Config struct {
	Prefix     string // e.g. "!"
	AdminRole  string // role required for close/setup
	TicketRole string // role required for open
}

// Message is one inbound guild message, platform details stripped.
type Message struct {
	GuildID    string
	ChannelID  string
	AuthorID   string
	AuthorName string
	Content    string
}

// Router dispatches prefix commands.
type Router struct {
	cfg    Config
	svc    Service
	gw     gateway.Gateway
	logger *slog.Logger
}

func NewRouter(cfg Config, svc Service, gw gateway.Gateway, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{cfg: cfg, svc: svc, gw: gw, logger: logger}
}

// Handle processes a single inbound message. Non-command messages are
// ignored; everything else produces exactly one reply.
func (r *Router) Handle(ctx context.Context, msg Message) {
	if !strings.HasPrefix(msg.Content, r.cfg.Prefix) {
		return
	}
	body := strings.TrimPrefix(msg.Content, r.cfg.Prefix)
	name, args, _ := strings.Cut(body, " ")
	name = strings.ToLower(strings.TrimSpace(name))
	args = strings.TrimSpace(args)
	if name == "" {
		return
	}

	switch name {
	case "open":
		r.handleOpen(ctx, msg, args)
	case "close":
		r.handleClose(ctx, msg, args)
	case "setup":
		r.handleSetup(ctx, msg)
	case "guide":
		r.handleGuide(ctx, msg)
	default:
		r.reply(ctx, msg.ChannelID, "❌ Unknown command.")
	}
}

func (r *Router) handleOpen(ctx context.Context, msg Message, reason string) {
	if !r.authorize(ctx, msg, r.cfg.TicketRole) {
		return
	}
	if strings.TrimSpace(reason) == "" {
		r.reply(ctx, msg.ChannelID,
			fmt.Sprintf("❌ Please provide a reason. Example: `%sopen I need help with billing`", r.cfg.Prefix))
		return
	}

	t, err := r.svc.Open(ctx, msg.GuildID, msg.AuthorID, msg.AuthorName, reason)
	if err != nil {
		var dup *lifecycle.DuplicateTicketError
		switch {
		case errors.As(err, &dup):
			r.reply(ctx, msg.ChannelID,
				fmt.Sprintf("❌ You already have an open ticket: <#%s>", dup.ChannelID))
		case errors.Is(err, lifecycle.ErrNotConfigured):
			r.reply(ctx, msg.ChannelID,
				fmt.Sprintf("❌ Tickets category doesn't exist. Please run `%ssetup` first.", r.cfg.Prefix))
		case errors.Is(err, lifecycle.ErrEmptyReason):
			r.reply(ctx, msg.ChannelID,
				fmt.Sprintf("❌ Please provide a reason. Example: `%sopen I need help with billing`", r.cfg.Prefix))
		default:
			r.fail(ctx, msg, "open", err)
		}
		return
	}
	r.reply(ctx, msg.ChannelID, fmt.Sprintf("🎫 Ticket opened: <#%s>", t.ChannelID))
}

func (r *Router) handleClose(ctx context.Context, msg Message, args string) {
	if !r.authorize(ctx, msg, r.cfg.AdminRole) {
		return
	}

	// Defaults to the channel the command was issued from.
	target := msg.ChannelID
	if args != "" {
		ch, ok := parseChannelMention(strings.Fields(args)[0])
		if !ok {
			r.reply(ctx, msg.ChannelID,
				fmt.Sprintf("❌ Usage: `%sclose [#channel]`", r.cfg.Prefix))
			return
		}
		target = ch
	}

	_, err := r.svc.Close(ctx, msg.GuildID, target, msg.ChannelID)
	if err != nil {
		if errors.Is(err, lifecycle.ErrNotATicket) {
			r.reply(ctx, msg.ChannelID, "❌ This channel is not an open ticket.")
			return
		}
		r.fail(ctx, msg, "close", err)
	}
	// On success the lifecycle manager has already posted the closure
	// summary to this channel.
}

func (r *Router) handleSetup(ctx context.Context, msg Message) {
	if !r.authorize(ctx, msg, r.cfg.AdminRole) {
		return
	}
	res, err := r.svc.Setup(ctx, msg.GuildID)
	if err != nil {
		r.fail(ctx, msg, "setup", err)
		return
	}
	r.reply(ctx, msg.ChannelID, strings.Join([]string{
		"✅ Setup completed. Categories and channels are ready:",
		"- Category: " + lifecycle.CategoryLogs,
		"- Category: " + lifecycle.CategoryTickets,
		"- Channel: <#" + res.OpenLogChannelID + ">",
		"- Channel: <#" + res.CloseLogChannelID + ">",
		"",
		"**Important:** create webhooks manually in the log channels and add their URLs to the config if you want webhook mirroring.",
	}, "\n"))
}

func (r *Router) handleGuide(ctx context.Context, msg Message) {
	pages := guidePages(r.cfg.Prefix)
	if err := r.gw.SendDirectEmbeds(ctx, msg.AuthorID, pages); err == nil {
		r.reply(ctx, msg.ChannelID,
			fmt.Sprintf("📬 <@%s>, I sent you a detailed setup guide via DM.", msg.AuthorID))
		return
	}
	// DMs closed: fall back to the channel.
	r.reply(ctx, msg.ChannelID,
		fmt.Sprintf("📄 <@%s>, I couldn't DM you. Here is the guide:", msg.AuthorID))
	for _, p := range pages {
		if err := r.gw.SendEmbed(ctx, msg.ChannelID, p); err != nil {
			r.logger.Error("guide fallback failed", "channel_id", msg.ChannelID, "error", err)
			return
		}
	}
}

// authorize checks the role at the dispatch boundary and replies with
// a plain denial when the actor lacks it.
func (r *Router) authorize(ctx context.Context, msg Message, roleName string) bool {
	ok, err := r.gw.MemberHasRole(ctx, msg.GuildID, msg.AuthorID, roleName)
	if err != nil {
		r.fail(ctx, msg, "authorize", err)
		return false
	}
	if !ok {
		r.reply(ctx, msg.ChannelID, "❌ You do not have the required role to use this command.")
		return false
	}
	return true
}

func (r *Router) reply(ctx context.Context, channelID, content string) {
	if err := r.gw.SendMessage(ctx, channelID, content); err != nil {
		r.logger.Error("reply failed", "channel_id", channelID, "error", err)
	}
}

func (r *Router) fail(ctx context.Context, msg Message, op string, err error) {
	r.logger.Error("command failed",
		"command", op, "guild_id", msg.GuildID, "user_id", msg.AuthorID, "error", err)
	r.reply(ctx, msg.ChannelID, "❌ Something went wrong. Check the bot logs.")
}

// parseChannelMention extracts the channel ID from a <#123> mention or
// accepts a bare numeric ID.
func parseChannelMention(s string) (string, bool) {
	if strings.HasPrefix(s, "<#") && strings.HasSuffix(s, ">") {
		s = s[2 : len(s)-1]
	}
	if s == "" {
		return "", false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return "", false
		}
	}
	return s, true
}
