package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const validJSON = `{
  "bot_token": "bot-secret",
  "prefix": "?",
  "admin_role": "Staff",
  "ticket_role": "Member",
  "data_dir": "/tmp/ticketd-test",
  "open_webhook": "https://discord.com/api/webhooks/1/aaa",
  "close_webhook": "https://discord.com/api/webhooks/2/bbb",
  "api": {
    "host": "127.0.0.1",
    "port": 8080,
    "api_key": "admin-key"
  }
}`

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	os.WriteFile(path, []byte(validJSON), 0o644)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.BotToken != "bot-secret" {
		t.Errorf("bot_token = %q", cfg.BotToken)
	}
	if cfg.Prefix != "?" {
		t.Errorf("prefix = %q", cfg.Prefix)
	}
	if cfg.AdminRole != "Staff" {
		t.Errorf("admin_role = %q", cfg.AdminRole)
	}
	if cfg.TicketRole != "Member" {
		t.Errorf("ticket_role = %q", cfg.TicketRole)
	}
	if cfg.OpenWebhook != "https://discord.com/api/webhooks/1/aaa" {
		t.Errorf("open_webhook = %q", cfg.OpenWebhook)
	}
	if cfg.API.Port != 8080 {
		t.Errorf("api.port = %d", cfg.API.Port)
	}
}

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	os.WriteFile(path, []byte(`{"bot_token": "x"}`), 0o644)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Prefix != "!" {
		t.Errorf("default prefix = %q", cfg.Prefix)
	}
	if cfg.AdminRole != "Admin" {
		t.Errorf("default admin_role = %q", cfg.AdminRole)
	}
	if cfg.TicketRole != "Customer" {
		t.Errorf("default ticket_role = %q", cfg.TicketRole)
	}
	if cfg.DataDir != "data" {
		t.Errorf("default data_dir = %q", cfg.DataDir)
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	_, err := Load("/nonexistent/config.json")
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoad_InvalidJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.json")
	os.WriteFile(path, []byte("not json"), 0o644)

	_, err := Load(path)
	if err == nil {
		t.Fatal("expected error for invalid JSON")
	}
}

func TestValidate_MissingToken(t *testing.T) {
	cfg := &Config{}
	cfg.applyDefaults()
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "bot_token") {
		t.Errorf("expected bot_token error, got %v", err)
	}
}

func TestValidate_BadWebhook(t *testing.T) {
	cfg := &Config{BotToken: "x", OpenWebhook: "https://example.com/notify"}
	cfg.applyDefaults()
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "open_webhook") {
		t.Errorf("expected open_webhook error, got %v", err)
	}
}

func TestValidate_WhitespacePrefix(t *testing.T) {
	cfg := &Config{BotToken: "x", Prefix: "! "}
	cfg.applyDefaults()
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "prefix") {
		t.Errorf("expected prefix error, got %v", err)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("TICKETD_BOT_TOKEN", "env-token")
	t.Setenv("TICKETD_ADMIN_ROLE", "Mods")
	t.Setenv("TICKETD_DATA_DIR", "/env/data")
	t.Setenv("TICKETD_API_PORT", "9090")

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv: %v", err)
	}

	if cfg.BotToken != "env-token" {
		t.Errorf("bot_token = %q", cfg.BotToken)
	}
	if cfg.AdminRole != "Mods" {
		t.Errorf("admin_role = %q", cfg.AdminRole)
	}
	if cfg.DataDir != "/env/data" {
		t.Errorf("data_dir = %q", cfg.DataDir)
	}
	if cfg.API.Port != 9090 {
		t.Errorf("api.port = %d", cfg.API.Port)
	}
	if cfg.TicketRole != "Customer" {
		t.Errorf("expected default ticket_role, got %q", cfg.TicketRole)
	}
}
