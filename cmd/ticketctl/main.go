package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/YOU34cz/ticket-bot/internal/config"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(0)
	}

	switch os.Args[1] {
	case "health":
		cmdHealth()
	case "stats":
		cmdStats()
	case "tickets":
		if len(os.Args) < 3 {
			fmt.Fprintln(os.Stderr, "usage: ticketctl tickets <list|show>")
			os.Exit(1)
		}
		switch os.Args[2] {
		case "list":
			cmdTicketsList(os.Args[3:])
		case "show":
			if len(os.Args) < 4 {
				fmt.Fprintln(os.Stderr, "usage: ticketctl tickets show <id>")
				os.Exit(1)
			}
			cmdTicketsShow(os.Args[3])
		default:
			fmt.Fprintf(os.Stderr, "unknown tickets subcommand: %s\n", os.Args[2])
			os.Exit(1)
		}
	case "logs":
		cmdLogs(os.Args[2:])
	case "config":
		if len(os.Args) < 4 || os.Args[2] != "validate" {
			fmt.Fprintln(os.Stderr, "usage: ticketctl config validate <path>")
			os.Exit(1)
		}
		cmdConfigValidate(os.Args[3])
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

// --- API client commands ---

func cmdHealth() {
	body, err := apiGet("/api/health")
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(body))
}

func cmdStats() {
	body, err := apiGet("/api/stats")
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(prettyJSON(body))
}

func cmdTicketsList(args []string) {
	fs := flag.NewFlagSet("tickets list", flag.ExitOnError)
	status := fs.String("status", "", "Filter by status (open|closed)")
	guild := fs.String("guild", "", "Filter by guild")
	user := fs.String("user", "", "Filter by user")
	limit := fs.Int("limit", 50, "Max results")
	fs.Parse(args)

	query := fmt.Sprintf("?limit=%d", *limit)
	if *status != "" {
		query += "&status=" + *status
	}
	if *guild != "" {
		query += "&guild=" + *guild
	}
	if *user != "" {
		query += "&user=" + *user
	}

	body, err := apiGet("/api/tickets" + query)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	var tickets []map[string]any
	json.Unmarshal(body, &tickets)
	for _, t := range tickets {
		fmt.Printf("%-8v %-8s guild=%v user=%v channel=%v\n",
			t["ticket_id"], t["status"], t["guild_id"], t["user_id"], t["channel_id"])
	}
}

func cmdTicketsShow(id string) {
	body, err := apiGet("/api/tickets/" + id)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(prettyJSON(body))
}

func cmdLogs(args []string) {
	fs := flag.NewFlagSet("logs", flag.ExitOnError)
	level := fs.String("level", "", "Minimum level (info|warn|error)")
	limit := fs.Int("limit", 100, "Max entries")
	fs.Parse(args)

	query := fmt.Sprintf("?limit=%d", *limit)
	if *level != "" {
		query += "&level=" + *level
	}

	body, err := apiGet("/api/logs" + query)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	var entries []map[string]any
	json.Unmarshal(body, &entries)
	for _, e := range entries {
		fmt.Printf("%-24v %-6v %v\n", e["time"], e["level"], e["message"])
	}
}

func cmdConfigValidate(path string) {
	_, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("config is valid")
}

// --- Helpers ---

func apiGet(path string) ([]byte, error) {
	base := envOr("TICKETD_API_URL", "http://localhost:8080")
	url := base + path

	req, err := http.NewRequest("GET", url, nil)
	if err != nil {
		return nil, err
	}
	if key := os.Getenv("TICKETD_API_KEY"); key != "" {
		req.Header.Set("Authorization", "Bearer "+key)
	}

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}
	return body, nil
}

func prettyJSON(data []byte) string {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return string(data)
	}
	out, _ := json.MarshalIndent(v, "", "  ")
	return string(out)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func printUsage() {
	fmt.Println("ticketctl - ticket bot management CLI")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  health               Check daemon health")
	fmt.Println("  stats                Show open ticket count")
	fmt.Println("  tickets list         List tickets (--status, --guild, --user, --limit)")
	fmt.Println("  tickets show <id>    Show ticket details")
	fmt.Println("  logs                 Show recent daemon logs (--level, --limit)")
	fmt.Println("  config validate <p>  Validate config file")
	fmt.Println()
	fmt.Println("Environment:")
	fmt.Println("  TICKETD_API_URL    Daemon URL (default: http://localhost:8080)")
	fmt.Println("  TICKETD_API_KEY    API key for authentication")
}
