package discord

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/YOU34cz/ticket-bot/internal/gateway"
)

const historyPageSize = 100

// Gateway implements gateway.Gateway on top of a discordgo session.
type Gateway struct {
	s      *discordgo.Session
	logger *slog.Logger
}

// New wraps an authenticated discordgo session.
func New(s *discordgo.Session, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{s: s, logger: logger}
}

func (g *Gateway) FindCategory(ctx context.Context, guildID, name string) (*gateway.ChannelInfo, error) {
	return g.findChannel(ctx, guildID, discordgo.ChannelTypeGuildCategory, "", name)
}

func (g *Gateway) CreateCategory(ctx context.Context, guildID, name string) (*gateway.ChannelInfo, error) {
	ch, err := g.s.GuildChannelCreateComplex(guildID, discordgo.GuildChannelCreateData{
		Name: name,
		Type: discordgo.ChannelTypeGuildCategory,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("discord: create category %q: %w", name, err)
	}
	return channelInfo(ch), nil
}

func (g *Gateway) FindTextChannel(ctx context.Context, guildID, categoryID, name string) (*gateway.ChannelInfo, error) {
	return g.findChannel(ctx, guildID, discordgo.ChannelTypeGuildText, categoryID, name)
}

func (g *Gateway) CreateTextChannel(ctx context.Context, guildID, categoryID, name string) (*gateway.ChannelInfo, error) {
	ch, err := g.s.GuildChannelCreateComplex(guildID, discordgo.GuildChannelCreateData{
		Name:     name,
		Type:     discordgo.ChannelTypeGuildText,
		ParentID: categoryID,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("discord: create channel %q: %w", name, err)
	}
	return channelInfo(ch), nil
}

func (g *Gateway) CreateTicketChannel(ctx context.Context, req gateway.TicketChannelRequest) (*gateway.ChannelInfo, error) {
	// The @everyone role shares its ID with the guild.
	overwrites := []*discordgo.PermissionOverwrite{
		{
			ID:   req.GuildID,
			Type: discordgo.PermissionOverwriteTypeRole,
			Deny: discordgo.PermissionViewChannel,
		},
		{
			ID:    req.UserID,
			Type:  discordgo.PermissionOverwriteTypeMember,
			Allow: discordgo.PermissionViewChannel | discordgo.PermissionSendMessages,
		},
	}

	adminID, err := g.roleID(ctx, req.GuildID, req.AdminRole)
	if err != nil {
		return nil, err
	}
	if adminID != "" {
		overwrites = append(overwrites, &discordgo.PermissionOverwrite{
			ID:    adminID,
			Type:  discordgo.PermissionOverwriteTypeRole,
			Allow: discordgo.PermissionViewChannel | discordgo.PermissionSendMessages,
		})
	} else {
		g.logger.Warn("admin role not found, ticket channel visible to requester only",
			"guild_id", req.GuildID, "role", req.AdminRole)
	}

	ch, err := g.s.GuildChannelCreateComplex(req.GuildID, discordgo.GuildChannelCreateData{
		Name:                 req.Name,
		Type:                 discordgo.ChannelTypeGuildText,
		Topic:                req.Topic,
		ParentID:             req.CategoryID,
		PermissionOverwrites: overwrites,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("discord: create ticket channel %q: %w", req.Name, err)
	}
	return channelInfo(ch), nil
}

func (g *Gateway) DeleteChannel(ctx context.Context, channelID string) error {
	if _, err := g.s.ChannelDelete(channelID, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("discord: delete channel %s: %w", channelID, err)
	}
	return nil
}

// CountMessages pages through the entire channel history, oldest pages
// last. Runs to completion; no partial counts.
func (g *Gateway) CountMessages(ctx context.Context, channelID string) (int, error) {
	count := 0
	before := ""
	for {
		msgs, err := g.s.ChannelMessages(channelID, historyPageSize, before, "", "", discordgo.WithContext(ctx))
		if err != nil {
			return 0, fmt.Errorf("discord: channel history %s: %w", channelID, err)
		}
		count += len(msgs)
		if len(msgs) < historyPageSize {
			return count, nil
		}
		before = msgs[len(msgs)-1].ID
	}
}

func (g *Gateway) SendMessage(ctx context.Context, channelID, content string) error {
	if _, err := g.s.ChannelMessageSend(channelID, content, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("discord: send message to %s: %w", channelID, err)
	}
	return nil
}

func (g *Gateway) SendEmbed(ctx context.Context, channelID string, embed *discordgo.MessageEmbed) error {
	if _, err := g.s.ChannelMessageSendEmbed(channelID, embed, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("discord: send embed to %s: %w", channelID, err)
	}
	return nil
}

func (g *Gateway) SendDirectEmbeds(ctx context.Context, userID string, embeds []*discordgo.MessageEmbed) error {
	dm, err := g.s.UserChannelCreate(userID, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("discord: open DM with %s: %w", userID, err)
	}
	for _, e := range embeds {
		if _, err := g.s.ChannelMessageSendEmbed(dm.ID, e, discordgo.WithContext(ctx)); err != nil {
			return fmt.Errorf("discord: DM to %s: %w", userID, err)
		}
	}
	return nil
}

func (g *Gateway) MemberHasRole(ctx context.Context, guildID, userID, roleName string) (bool, error) {
	member, err := g.s.GuildMember(guildID, userID, discordgo.WithContext(ctx))
	if err != nil {
		return false, fmt.Errorf("discord: member %s: %w", userID, err)
	}
	roleID, err := g.roleID(ctx, guildID, roleName)
	if err != nil {
		return false, err
	}
	if roleID == "" {
		return false, nil
	}
	for _, id := range member.Roles {
		if id == roleID {
			return true, nil
		}
	}
	return false, nil
}

// ExecuteWebhook posts through a webhook URL of the form
// https://discord.com/api/webhooks/{id}/{token}.
func (g *Gateway) ExecuteWebhook(ctx context.Context, url string, embed *discordgo.MessageEmbed) error {
	id, token, err := parseWebhookURL(url)
	if err != nil {
		return err
	}
	_, err = g.s.WebhookExecute(id, token, false, &discordgo.WebhookParams{
		Embeds: []*discordgo.MessageEmbed{embed},
	}, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("discord: execute webhook: %w", err)
	}
	return nil
}

// --- helpers ---

func (g *Gateway) findChannel(ctx context.Context, guildID string, kind discordgo.ChannelType, parentID, name string) (*gateway.ChannelInfo, error) {
	channels, err := g.s.GuildChannels(guildID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("discord: list channels for %s: %w", guildID, err)
	}
	for _, ch := range channels {
		if ch.Type != kind {
			continue
		}
		if parentID != "" && ch.ParentID != parentID {
			continue
		}
		if strings.EqualFold(ch.Name, name) {
			return channelInfo(ch), nil
		}
	}
	return nil, nil
}

func (g *Gateway) roleID(ctx context.Context, guildID, roleName string) (string, error) {
	roles, err := g.s.GuildRoles(guildID, discordgo.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("discord: list roles for %s: %w", guildID, err)
	}
	for _, r := range roles {
		if strings.EqualFold(r.Name, roleName) {
			return r.ID, nil
		}
	}
	return "", nil
}

func channelInfo(ch *discordgo.Channel) *gateway.ChannelInfo {
	createdAt, _ := discordgo.SnowflakeTimestamp(ch.ID)
	return &gateway.ChannelInfo{
		ID:        ch.ID,
		Name:      ch.Name,
		ParentID:  ch.ParentID,
		Topic:     ch.Topic,
		CreatedAt: createdAt.UTC(),
	}
}

func parseWebhookURL(url string) (id, token string, err error) {
	const marker = "/webhooks/"
	i := strings.Index(url, marker)
	if i < 0 {
		return "", "", fmt.Errorf("discord: not a webhook URL: %s", url)
	}
	rest := strings.TrimSuffix(url[i+len(marker):], "/")
	parts := strings.Split(rest, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("discord: malformed webhook URL: %s", url)
	}
	return parts[0], parts[1], nil
}
