package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config is the top-level ticketd configuration. Loaded once at
// process start; never reloaded.
type Config struct {
	BotToken     string    `json:"bot_token"`
	Prefix       string    `json:"prefix,omitempty"`
	AdminRole    string    `json:"admin_role,omitempty"`
	TicketRole   string    `json:"ticket_role,omitempty"`
	DataDir      string    `json:"data_dir,omitempty"`
	OpenWebhook  string    `json:"open_webhook,omitempty"`
	CloseWebhook string    `json:"close_webhook,omitempty"`
	API          APIConfig `json:"api"`
}

// APIConfig holds the read-only admin API settings. Port 0 disables
// the server.
type APIConfig struct {
	Host string `json:"host"`
	Port int    `json:"port"`
	Key  string `json:"api_key"`
}

// Load reads configuration from a JSON file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadFromEnv builds the config from environment variables with a
// TICKETD_ prefix.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		BotToken:     os.Getenv("TICKETD_BOT_TOKEN"),
		Prefix:       os.Getenv("TICKETD_PREFIX"),
		AdminRole:    os.Getenv("TICKETD_ADMIN_ROLE"),
		TicketRole:   os.Getenv("TICKETD_TICKET_ROLE"),
		DataDir:      os.Getenv("TICKETD_DATA_DIR"),
		OpenWebhook:  os.Getenv("TICKETD_OPEN_WEBHOOK"),
		CloseWebhook: os.Getenv("TICKETD_CLOSE_WEBHOOK"),
		API: APIConfig{
			Host: getenv("TICKETD_API_HOST", "0.0.0.0"),
			Port: getenvInt("TICKETD_API_PORT", 0),
			Key:  os.Getenv("TICKETD_API_KEY"),
		},
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Prefix == "" {
		c.Prefix = "!"
	}
	if c.AdminRole == "" {
		c.AdminRole = "Admin"
	}
	if c.TicketRole == "" {
		c.TicketRole = "Customer"
	}
	if c.DataDir == "" {
		c.DataDir = "data"
	}
	if c.API.Host == "" {
		c.API.Host = "0.0.0.0"
	}
}

// Validate checks for required fields.
func (c *Config) Validate() error {
	var errs []string

	if c.BotToken == "" {
		errs = append(errs, "bot_token is required")
	}
	if strings.ContainsAny(c.Prefix, " \t\n") {
		errs = append(errs, "prefix must not contain whitespace")
	}
	for _, w := range []struct{ name, url string }{
		{"open_webhook", c.OpenWebhook},
		{"close_webhook", c.CloseWebhook},
	} {
		if w.url != "" && !strings.Contains(w.url, "/webhooks/") {
			errs = append(errs, fmt.Sprintf("%s does not look like a Discord webhook URL", w.name))
		}
	}
	if c.API.Port < 0 || c.API.Port > 65535 {
		errs = append(errs, "api.port out of range")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
