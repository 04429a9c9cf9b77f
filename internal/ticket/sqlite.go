package ticket

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a SQLite database and runs migrations.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("ticket store: open: %w", err)
	}

	// Enable WAL mode for better concurrent reads
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("ticket store: wal: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS tickets (
			ticket_id     INTEGER PRIMARY KEY AUTOINCREMENT,
			guild_id      TEXT NOT NULL,
			user_id       TEXT NOT NULL,
			channel_id    TEXT NOT NULL,
			status        TEXT NOT NULL DEFAULT 'open',
			reason        TEXT NOT NULL DEFAULT '',
			created_at    TEXT NOT NULL,
			closed_at     TEXT,
			message_count INTEGER NOT NULL DEFAULT 0
		);

		CREATE INDEX IF NOT EXISTS idx_tickets_channel ON tickets(channel_id);
		CREATE INDEX IF NOT EXISTS idx_tickets_guild_user ON tickets(guild_id, user_id);

		-- Storage-level guards for the lifecycle invariants: one open
		-- ticket per requester per guild, one open ticket per channel.
		CREATE UNIQUE INDEX IF NOT EXISTS idx_open_per_user
			ON tickets(guild_id, user_id) WHERE status = 'open';
		CREATE UNIQUE INDEX IF NOT EXISTS idx_open_per_channel
			ON tickets(channel_id) WHERE status = 'open';
	`)
	if err != nil {
		return fmt.Errorf("ticket store: migrate: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Insert(guildID, userID, channelID, reason string, createdAt time.Time) (*Ticket, error) {
	res, err := s.db.Exec(`
		INSERT INTO tickets (guild_id, user_id, channel_id, status, reason, created_at)
		VALUES (?, ?, ?, 'open', ?, ?)
	`, guildID, userID, channelID, reason, createdAt.UTC().Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("ticket store: insert: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("ticket store: insert id: %w", err)
	}
	return &Ticket{
		ID:        id,
		GuildID:   guildID,
		UserID:    userID,
		ChannelID: channelID,
		Status:    StatusOpen,
		Reason:    reason,
		CreatedAt: createdAt.UTC(),
	}, nil
}

func (s *SQLiteStore) FindOpenByChannel(channelID string) (*Ticket, error) {
	row := s.db.QueryRow(selectCols+` WHERE channel_id = ? AND status = 'open'`, channelID)
	t, err := scanTicket(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ticket store: find by channel: %w", err)
	}
	return t, nil
}

func (s *SQLiteStore) FindOpenByUser(guildID, userID string) (*Ticket, error) {
	row := s.db.QueryRow(selectCols+` WHERE guild_id = ? AND user_id = ? AND status = 'open'`, guildID, userID)
	t, err := scanTicket(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ticket store: find by user: %w", err)
	}
	return t, nil
}

func (s *SQLiteStore) Close(channelID string, closedAt time.Time, messageCount int) error {
	result, err := s.db.Exec(`
		UPDATE tickets SET status = 'closed', closed_at = ?, message_count = ?
		WHERE channel_id = ? AND status = 'open'
	`, closedAt.UTC().Format(time.RFC3339), messageCount, channelID)
	if err != nil {
		return fmt.Errorf("ticket store: close: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) Get(id int64) (*Ticket, error) {
	row := s.db.QueryRow(selectCols+` WHERE ticket_id = ?`, id)
	t, err := scanTicket(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ticket store: get: %w", err)
	}
	return t, nil
}

func (s *SQLiteStore) List(filter Filter) ([]*Ticket, error) {
	query := selectCols + " WHERE 1=1"
	var args []any

	if filter.Status != nil {
		query += " AND status = ?"
		args = append(args, string(*filter.Status))
	}
	if filter.GuildID != "" {
		query += " AND guild_id = ?"
		args = append(args, filter.GuildID)
	}
	if filter.UserID != "" {
		query += " AND user_id = ?"
		args = append(args, filter.UserID)
	}
	query += " ORDER BY ticket_id DESC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("ticket store: list: %w", err)
	}
	defer rows.Close()

	var tickets []*Ticket
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, fmt.Errorf("ticket store: list scan: %w", err)
		}
		tickets = append(tickets, t)
	}
	return tickets, rows.Err()
}

func (s *SQLiteStore) CountOpen() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM tickets WHERE status = 'open'`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("ticket store: count open: %w", err)
	}
	return count, nil
}

// DB returns the underlying database connection (for testing or direct access).
func (s *SQLiteStore) DB() *sql.DB {
	return s.db
}

// --- helpers ---

const selectCols = `SELECT ticket_id, guild_id, user_id, channel_id, status, reason, created_at, closed_at, message_count FROM tickets`

type scannable interface {
	Scan(dest ...any) error
}

func scanTicket(row scannable) (*Ticket, error) {
	var t Ticket
	var status, createdAtStr string
	var closedAtStr *string

	err := row.Scan(&t.ID, &t.GuildID, &t.UserID, &t.ChannelID, &status,
		&t.Reason, &createdAtStr, &closedAtStr, &t.MessageCount)
	if err != nil {
		return nil, err
	}

	t.Status = Status(status)
	t.CreatedAt, _ = time.Parse(time.RFC3339, createdAtStr)
	if closedAtStr != nil {
		ct, _ := time.Parse(time.RFC3339, *closedAtStr)
		t.ClosedAt = &ct
	}
	return &t, nil
}
