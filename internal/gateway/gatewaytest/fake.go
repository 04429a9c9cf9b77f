// Package gatewaytest provides an in-memory gateway.Gateway for tests.
package gatewaytest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/YOU34cz/ticket-bot/internal/gateway"
)

// Channel is a fake guild channel.
type Channel struct {
	ID       string
	GuildID  string
	Name     string
	ParentID string
	Topic    string
	Category bool
}

// WebhookCall records one ExecuteWebhook invocation.
type WebhookCall struct {
	URL   string
	Embed *discordgo.MessageEmbed
}

// Fake is an in-memory Gateway. All state is exported for assertions.
type Fake struct {
	mu     sync.Mutex
	nextID int

	Channels      map[string]*Channel
	Deleted       []string
	Embeds        map[string][]*discordgo.MessageEmbed // channelID → sent embeds
	Messages      map[string][]string                  // channelID → plain messages
	DMs           map[string][]*discordgo.MessageEmbed // userID → DM embeds
	Roles         map[string][]string                  // guildID:userID → role names
	MessageCounts map[string]int
	Webhooks      []WebhookCall

	FailDM            bool // SendDirectEmbeds fails when set
	FailCreateChannel bool // CreateTicketChannel fails when set
}

func New() *Fake {
	return &Fake{
		Channels:      make(map[string]*Channel),
		Embeds:        make(map[string][]*discordgo.MessageEmbed),
		Messages:      make(map[string][]string),
		DMs:           make(map[string][]*discordgo.MessageEmbed),
		Roles:         make(map[string][]string),
		MessageCounts: make(map[string]int),
	}
}

// AddCategory seeds a category and returns its ID.
func (f *Fake) AddCategory(guildID, name string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.addChannel(guildID, "", name, "", true)
}

// AddTextChannel seeds a text channel and returns its ID.
func (f *Fake) AddTextChannel(guildID, parentID, name string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.addChannel(guildID, parentID, name, "", false)
}

// GrantRole gives a member a role name for MemberHasRole checks.
func (f *Fake) GrantRole(guildID, userID, roleName string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := guildID + ":" + userID
	f.Roles[key] = append(f.Roles[key], roleName)
}

// ChannelExists reports whether a channel is present and not deleted.
func (f *Fake) ChannelExists(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.Channels[id]
	return ok
}

func (f *Fake) addChannel(guildID, parentID, name, topic string, category bool) string {
	f.nextID++
	id := fmt.Sprintf("chan-%d", f.nextID)
	f.Channels[id] = &Channel{
		ID:       id,
		GuildID:  guildID,
		Name:     name,
		ParentID: parentID,
		Topic:    topic,
		Category: category,
	}
	return id
}

// --- gateway.Gateway ---

func (f *Fake) FindCategory(_ context.Context, guildID, name string) (*gateway.ChannelInfo, error) {
	return f.find(guildID, "", name, true), nil
}

func (f *Fake) CreateCategory(_ context.Context, guildID, name string) (*gateway.ChannelInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.addChannel(guildID, "", name, "", true)
	return f.info(id), nil
}

func (f *Fake) FindTextChannel(_ context.Context, guildID, categoryID, name string) (*gateway.ChannelInfo, error) {
	return f.find(guildID, categoryID, name, false), nil
}

func (f *Fake) CreateTextChannel(_ context.Context, guildID, categoryID, name string) (*gateway.ChannelInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.addChannel(guildID, categoryID, name, "", false)
	return f.info(id), nil
}

func (f *Fake) CreateTicketChannel(_ context.Context, req gateway.TicketChannelRequest) (*gateway.ChannelInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailCreateChannel {
		return nil, errors.New("gatewaytest: channel creation failed")
	}
	id := f.addChannel(req.GuildID, req.CategoryID, req.Name, req.Topic, false)
	return f.info(id), nil
}

func (f *Fake) DeleteChannel(_ context.Context, channelID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.Channels[channelID]; !ok {
		return fmt.Errorf("gatewaytest: unknown channel %s", channelID)
	}
	delete(f.Channels, channelID)
	f.Deleted = append(f.Deleted, channelID)
	return nil
}

func (f *Fake) CountMessages(_ context.Context, channelID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.Channels[channelID]; !ok {
		return 0, fmt.Errorf("gatewaytest: unknown channel %s", channelID)
	}
	return f.MessageCounts[channelID], nil
}

func (f *Fake) SendMessage(_ context.Context, channelID, content string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Messages[channelID] = append(f.Messages[channelID], content)
	return nil
}

func (f *Fake) SendEmbed(_ context.Context, channelID string, embed *discordgo.MessageEmbed) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Embeds[channelID] = append(f.Embeds[channelID], embed)
	return nil
}

func (f *Fake) SendDirectEmbeds(_ context.Context, userID string, embeds []*discordgo.MessageEmbed) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailDM {
		return errors.New("gatewaytest: cannot DM user")
	}
	f.DMs[userID] = append(f.DMs[userID], embeds...)
	return nil
}

func (f *Fake) MemberHasRole(_ context.Context, guildID, userID, roleName string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.Roles[guildID+":"+userID] {
		if strings.EqualFold(r, roleName) {
			return true, nil
		}
	}
	return false, nil
}

func (f *Fake) ExecuteWebhook(_ context.Context, url string, embed *discordgo.MessageEmbed) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Webhooks = append(f.Webhooks, WebhookCall{URL: url, Embed: embed})
	return nil
}

func (f *Fake) find(guildID, parentID, name string, category bool) *gateway.ChannelInfo {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ch := range f.Channels {
		if ch.GuildID != guildID || ch.Category != category {
			continue
		}
		if parentID != "" && ch.ParentID != parentID {
			continue
		}
		if strings.EqualFold(ch.Name, name) {
			return f.info(ch.ID)
		}
	}
	return nil
}

func (f *Fake) info(id string) *gateway.ChannelInfo {
	ch := f.Channels[id]
	return &gateway.ChannelInfo{
		ID:        ch.ID,
		Name:      ch.Name,
		ParentID:  ch.ParentID,
		Topic:     ch.Topic,
		CreatedAt: time.Now().UTC(),
	}
}
