package gateway

import (
	"context"
	"time"

	"github.com/bwmarrin/discordgo"
)

// ChannelInfo describes a guild channel or category the bot works with.
type ChannelInfo struct {
	ID        string
	Name      string
	ParentID  string
	Topic     string
	CreatedAt time.Time
}

// TicketChannelRequest describes the restricted channel backing a new
// ticket: hidden from everyone, visible to the requester and to holders
// of the administrative role.
type TicketChannelRequest struct {
	GuildID    string
	CategoryID string
	Name       string
	Topic      string // durable requester marker ("user_id:<id>")
	UserID     string
	AdminRole  string
}

// Gateway is the interface to the chat platform. The Find* methods
// return (nil, nil) when no matching channel exists; all other errors
// are transport failures.
type Gateway interface {
	FindCategory(ctx context.Context, guildID, name string) (*ChannelInfo, error)
	CreateCategory(ctx context.Context, guildID, name string) (*ChannelInfo, error)
	FindTextChannel(ctx context.Context, guildID, categoryID, name string) (*ChannelInfo, error)
	CreateTextChannel(ctx context.Context, guildID, categoryID, name string) (*ChannelInfo, error)
	CreateTicketChannel(ctx context.Context, req TicketChannelRequest) (*ChannelInfo, error)
	// DeleteChannel destroys a channel. Irreversible.
	DeleteChannel(ctx context.Context, channelID string) error
	// CountMessages walks the channel's full history and returns the
	// number of messages ever posted in it.
	CountMessages(ctx context.Context, channelID string) (int, error)
	SendMessage(ctx context.Context, channelID, content string) error
	SendEmbed(ctx context.Context, channelID string, embed *discordgo.MessageEmbed) error
	// SendDirectEmbeds delivers embeds to a user's DM channel. Fails
	// when the user does not accept DMs.
	SendDirectEmbeds(ctx context.Context, userID string, embeds []*discordgo.MessageEmbed) error
	// MemberHasRole reports whether the guild member holds a role with
	// the given name.
	MemberHasRole(ctx context.Context, guildID, userID, roleName string) (bool, error)
	// ExecuteWebhook posts an embed through a Discord webhook URL.
	ExecuteWebhook(ctx context.Context, url string, embed *discordgo.MessageEmbed) error
}
