package lifecycle

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/YOU34cz/ticket-bot/internal/gateway/gatewaytest"
	"github.com/YOU34cz/ticket-bot/internal/notify"
	"github.com/YOU34cz/ticket-bot/internal/ticket"
)

const testGuild = "guild-1"

func newTestStore(t *testing.T) *ticket.SQLiteStore {
	t.Helper()
	s, err := ticket.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.DB().Close() })
	return s
}

func newTestManager(t *testing.T) (*Manager, *gatewaytest.Fake, *ticket.SQLiteStore) {
	t.Helper()
	store := newTestStore(t)
	gw := gatewaytest.New()
	n := notify.New(gw, "", "", nil)
	return New(store, gw, n, "Admin", nil), gw, store
}

func setupGuild(t *testing.T, m *Manager) *SetupResult {
	t.Helper()
	res, err := m.Setup(context.Background(), testGuild)
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	return res
}

func TestOpen(t *testing.T) {
	m, gw, store := newTestManager(t)
	setupGuild(t, m)

	tk, err := m.Open(context.Background(), testGuild, "u1", "Alice", "billing issue")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if tk.Status != ticket.StatusOpen {
		t.Errorf("expected status open, got %q", tk.Status)
	}
	if tk.UserID != "u1" {
		t.Errorf("expected user u1, got %q", tk.UserID)
	}

	ch := gw.Channels[tk.ChannelID]
	if ch == nil {
		t.Fatal("expected ticket channel to exist")
	}
	if ch.Name != "ticket-alice" {
		t.Errorf("expected channel name ticket-alice, got %q", ch.Name)
	}
	if ch.Topic != "user_id:u1" {
		t.Errorf("expected topic marker, got %q", ch.Topic)
	}

	got, err := store.FindOpenByChannel(tk.ChannelID)
	if err != nil {
		t.Fatalf("store record missing: %v", err)
	}
	if got.ID != tk.ID {
		t.Errorf("store record mismatch: %d vs %d", got.ID, tk.ID)
	}
}

func TestOpen_NotificationCarriesReason(t *testing.T) {
	m, gw, _ := newTestManager(t)
	setupGuild(t, m)

	tk, err := m.Open(context.Background(), testGuild, "u1", "Alice", "billing issue")
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	embeds := gw.Embeds[tk.ChannelID]
	if len(embeds) != 1 {
		t.Fatalf("expected 1 embed in ticket channel, got %d", len(embeds))
	}
	found := false
	for _, f := range embeds[0].Fields {
		if f.Name == "Reason" && f.Value == "billing issue" {
			found = true
		}
	}
	if !found {
		t.Error("expected the literal reason text in the ticket embed")
	}
}

func TestOpen_LogMirror(t *testing.T) {
	m, gw, _ := newTestManager(t)
	res := setupGuild(t, m)

	if _, err := m.Open(context.Background(), testGuild, "u1", "Alice", "help"); err != nil {
		t.Fatalf("open: %v", err)
	}

	if len(gw.Embeds[res.OpenLogChannelID]) != 1 {
		t.Errorf("expected 1 embed in the open log channel, got %d",
			len(gw.Embeds[res.OpenLogChannelID]))
	}
}

func TestOpen_Duplicate(t *testing.T) {
	m, gw, store := newTestManager(t)
	setupGuild(t, m)

	first, err := m.Open(context.Background(), testGuild, "u1", "Alice", "first")
	if err != nil {
		t.Fatalf("first open: %v", err)
	}

	_, err = m.Open(context.Background(), testGuild, "u1", "Alice", "second")
	var dup *DuplicateTicketError
	if !errors.As(err, &dup) {
		t.Fatalf("expected DuplicateTicketError, got %v", err)
	}
	if dup.ChannelID != first.ChannelID {
		t.Errorf("expected existing channel %s, got %s", first.ChannelID, dup.ChannelID)
	}

	// Exactly one channel and one record.
	ticketChans := 0
	for _, ch := range gw.Channels {
		if !ch.Category && ch.Topic != "" {
			ticketChans++
		}
	}
	if ticketChans != 1 {
		t.Errorf("expected 1 ticket channel, got %d", ticketChans)
	}
	n, _ := store.CountOpen()
	if n != 1 {
		t.Errorf("expected 1 open record, got %d", n)
	}
}

func TestOpen_EmptyReason(t *testing.T) {
	m, gw, store := newTestManager(t)
	setupGuild(t, m)

	_, err := m.Open(context.Background(), testGuild, "u1", "Alice", "   ")
	if !errors.Is(err, ErrEmptyReason) {
		t.Fatalf("expected ErrEmptyReason, got %v", err)
	}

	// Rejected before any side effect.
	for _, ch := range gw.Channels {
		if ch.Topic != "" {
			t.Error("no ticket channel should have been created")
		}
	}
	if n, _ := store.CountOpen(); n != 0 {
		t.Errorf("expected no records, got %d", n)
	}
}

func TestOpen_NotConfigured(t *testing.T) {
	m, _, _ := newTestManager(t)
	// No setup: tickets category missing.
	_, err := m.Open(context.Background(), testGuild, "u1", "Alice", "help")
	if !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

// failingStore wraps a Store so Insert always fails.
type failingStore struct {
	ticket.Store
}

func (f *failingStore) Insert(_, _, _, _ string, _ time.Time) (*ticket.Ticket, error) {
	return nil, errors.New("disk full")
}

func TestOpen_RollbackOnInsertFailure(t *testing.T) {
	store := newTestStore(t)
	gw := gatewaytest.New()
	n := notify.New(gw, "", "", nil)
	m := New(&failingStore{Store: store}, gw, n, "Admin", nil)
	setupGuild(t, m)

	_, err := m.Open(context.Background(), testGuild, "u1", "Alice", "help")
	if err == nil {
		t.Fatal("expected open to fail")
	}

	// The created channel must be rolled back.
	for _, ch := range gw.Channels {
		if ch.Topic != "" {
			t.Errorf("orphaned ticket channel %s left behind", ch.ID)
		}
	}
	if len(gw.Deleted) != 1 {
		t.Errorf("expected 1 rollback deletion, got %d", len(gw.Deleted))
	}
}

func TestClose(t *testing.T) {
	m, gw, store := newTestManager(t)
	res := setupGuild(t, m)

	tk, _ := m.Open(context.Background(), testGuild, "u1", "Alice", "help")
	gw.MessageCounts[tk.ChannelID] = 5

	sum, err := m.Close(context.Background(), testGuild, tk.ChannelID, tk.ChannelID)
	if err != nil {
		t.Fatalf("close: %v", err)
	}
	if sum.MessageCount != 5 {
		t.Errorf("expected message count 5, got %d", sum.MessageCount)
	}
	if sum.UserID != "u1" {
		t.Errorf("expected user u1, got %q", sum.UserID)
	}

	got, _ := store.Get(tk.ID)
	if got.Status != ticket.StatusClosed {
		t.Errorf("expected closed, got %q", got.Status)
	}
	if gw.ChannelExists(tk.ChannelID) {
		t.Error("expected ticket channel to be destroyed")
	}
	if len(gw.Embeds[res.CloseLogChannelID]) != 1 {
		t.Errorf("expected close log embed, got %d", len(gw.Embeds[res.CloseLogChannelID]))
	}
}

func TestClose_NotificationBeforeDeletion(t *testing.T) {
	m, gw, _ := newTestManager(t)
	setupGuild(t, m)

	tk, _ := m.Open(context.Background(), testGuild, "u1", "Alice", "help")
	origin := gw.AddTextChannel(testGuild, "", "mod-room")

	if _, err := m.Close(context.Background(), testGuild, tk.ChannelID, origin); err != nil {
		t.Fatalf("close: %v", err)
	}

	// Summary went to the originating channel even though the ticket
	// channel itself is gone.
	if len(gw.Embeds[origin]) != 1 {
		t.Errorf("expected summary in origin channel, got %d", len(gw.Embeds[origin]))
	}
}

func TestClose_NotATicket(t *testing.T) {
	m, gw, store := newTestManager(t)
	setupGuild(t, m)
	other := gw.AddTextChannel(testGuild, "", "general")

	_, err := m.Close(context.Background(), testGuild, other, other)
	if !errors.Is(err, ErrNotATicket) {
		t.Fatalf("expected ErrNotATicket, got %v", err)
	}
	if !gw.ChannelExists(other) {
		t.Error("channel must not be touched")
	}
	if n, _ := store.CountOpen(); n != 0 {
		t.Errorf("store must be unchanged, got %d open", n)
	}
}

func TestClose_SecondCloseIsNotATicket(t *testing.T) {
	m, _, _ := newTestManager(t)
	setupGuild(t, m)

	tk, _ := m.Open(context.Background(), testGuild, "u1", "Alice", "help")
	if _, err := m.Close(context.Background(), testGuild, tk.ChannelID, tk.ChannelID); err != nil {
		t.Fatalf("first close: %v", err)
	}

	// Closed is terminal; a second close finds no open record.
	_, err := m.Close(context.Background(), testGuild, tk.ChannelID, tk.ChannelID)
	if !errors.Is(err, ErrNotATicket) {
		t.Fatalf("expected ErrNotATicket on second close, got %v", err)
	}
}

func TestOpenAfterClose(t *testing.T) {
	m, _, _ := newTestManager(t)
	setupGuild(t, m)

	first, _ := m.Open(context.Background(), testGuild, "u1", "Alice", "one")
	m.Close(context.Background(), testGuild, first.ChannelID, first.ChannelID)

	second, err := m.Open(context.Background(), testGuild, "u1", "Alice", "two")
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if second.ID == first.ID {
		t.Error("expected a fresh ticket id after close")
	}
}

func TestSetup_Idempotent(t *testing.T) {
	m, gw, _ := newTestManager(t)

	first, err := m.Setup(context.Background(), testGuild)
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	before := len(gw.Channels)

	second, err := m.Setup(context.Background(), testGuild)
	if err != nil {
		t.Fatalf("second setup: %v", err)
	}
	if len(gw.Channels) != before {
		t.Errorf("second setup created channels: %d → %d", before, len(gw.Channels))
	}
	if *first != *second {
		t.Errorf("expected identical results, got %+v vs %+v", first, second)
	}
}

func TestOpen_WebhookMirror(t *testing.T) {
	store := newTestStore(t)
	gw := gatewaytest.New()
	n := notify.New(gw, "https://discord.com/api/webhooks/1/t", "", nil)
	m := New(store, gw, n, "Admin", nil)
	setupGuild(t, m)

	if _, err := m.Open(context.Background(), testGuild, "u1", "Alice", "help"); err != nil {
		t.Fatalf("open: %v", err)
	}
	if len(gw.Webhooks) != 1 {
		t.Fatalf("expected 1 webhook call, got %d", len(gw.Webhooks))
	}
}

func TestChannelName(t *testing.T) {
	cases := map[string]string{
		"Alice":      "ticket-alice",
		"Bob Smith":  "ticket-bob-smith",
		"weird!!✨":   "ticket-weird",
		"":           "ticket",
		"under_bar9": "ticket-under_bar9",
	}
	for in, want := range cases {
		if got := channelName(in); got != want {
			t.Errorf("channelName(%q) = %q, want %q", in, got, want)
		}
	}
}
