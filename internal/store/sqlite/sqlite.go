package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/vovakirdan/gifchat-server/internal/store"
)

// Schema creates the tables used by the store. It is idempotent.
const Schema = `
CREATE TABLE IF NOT EXISTS rooms (
	id            TEXT PRIMARY KEY,
	title         TEXT NOT NULL,
	max           INTEGER NOT NULL DEFAULT 0,
	owner         TEXT NOT NULL DEFAULT '',
	password_hash TEXT NOT NULL DEFAULT '',
	created_at    DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS chats (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	room_id    TEXT NOT NULL,
	user       TEXT NOT NULL,
	chat       TEXT,
	gif        TEXT,
	created_at DATETIME NOT NULL,
	FOREIGN KEY (room_id) REFERENCES rooms(id)
);

CREATE INDEX IF NOT EXISTS idx_chats_room ON chats(room_id, created_at);
`

// SQLiteStore implements store.Store for SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New opens the database at dbPath and applies Schema.
func New(dbPath string) (*SQLiteStore, error) {
	return NewWithSetup(dbPath, func(db *sql.DB) error {
		_, err := db.Exec(Schema)
		return err
	})
}

// NewWithSetup creates a new SQLite store and runs a setup function.
// Useful for tests to apply schema without migrations.
func NewWithSetup(dbPath string, setup func(*sql.DB) error) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite works best with a single connection; it also keeps :memory: databases alive.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if setup != nil {
		if err := setup(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("setup: %w", err)
		}
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ==== RoomStore implementation ====

// CreateRoom inserts a room. CreatedAt is set when zero.
func (s *SQLiteStore) CreateRoom(ctx context.Context, room *store.Room) error {
	if room.CreatedAt.IsZero() {
		room.CreatedAt = time.Now().UTC()
	}
	query := `
		INSERT INTO rooms (id, title, max, owner, password_hash, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		room.ID, room.Title, room.Max, room.Owner, room.PasswordHash, room.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert room: %w", err)
	}
	return nil
}

// GetRoom retrieves a room by ID.
func (s *SQLiteStore) GetRoom(ctx context.Context, id string) (*store.Room, error) {
	query := `
		SELECT id, title, max, owner, password_hash, created_at
		FROM rooms
		WHERE id = ?
	`
	var room store.Room
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&room.ID,
		&room.Title,
		&room.Max,
		&room.Owner,
		&room.PasswordHash,
		&room.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("room %s: %w", id, store.ErrNotFound)
		}
		return nil, fmt.Errorf("query room: %w", err)
	}
	return &room, nil
}

// ListRooms lists all rooms, newest first.
func (s *SQLiteStore) ListRooms(ctx context.Context) ([]*store.Room, error) {
	query := `
		SELECT id, title, max, owner, password_hash, created_at
		FROM rooms
		ORDER BY created_at DESC, id
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query rooms: %w", err)
	}
	defer rows.Close()

	rooms := make([]*store.Room, 0)
	for rows.Next() {
		var room store.Room
		if err := rows.Scan(
			&room.ID,
			&room.Title,
			&room.Max,
			&room.Owner,
			&room.PasswordHash,
			&room.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan room: %w", err)
		}
		rooms = append(rooms, &room)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rooms: %w", err)
	}
	return rooms, nil
}

// DeleteRoom removes a room and its chats in one transaction.
func (s *SQLiteStore) DeleteRoom(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM chats WHERE room_id = ?`, id); err != nil {
		return fmt.Errorf("delete chats: %w", err)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM rooms WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete room: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("room %s: %w", id, store.ErrNotFound)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// ==== ChatStore implementation ====

// CreateChat appends a chat line.
func (s *SQLiteStore) CreateChat(ctx context.Context, chat *store.Chat) error {
	if chat.CreatedAt.IsZero() {
		chat.CreatedAt = time.Now().UTC()
	}
	query := `
		INSERT INTO chats (room_id, user, chat, gif, created_at)
		VALUES (?, ?, ?, ?, ?)
	`
	result, err := s.db.ExecContext(ctx, query,
		chat.RoomID, chat.User, nullString(chat.Text), nullString(chat.GIF), chat.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert chat: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}
	chat.ID = id
	return nil
}

// ListChats returns the chats of a room, oldest first.
func (s *SQLiteStore) ListChats(ctx context.Context, roomID string) ([]*store.Chat, error) {
	query := `
		SELECT id, room_id, user, COALESCE(chat, ''), COALESCE(gif, ''), created_at
		FROM chats
		WHERE room_id = ?
		ORDER BY created_at, id
	`
	rows, err := s.db.QueryContext(ctx, query, roomID)
	if err != nil {
		return nil, fmt.Errorf("query chats: %w", err)
	}
	defer rows.Close()

	chats := make([]*store.Chat, 0)
	for rows.Next() {
		var chat store.Chat
		if err := rows.Scan(
			&chat.ID,
			&chat.RoomID,
			&chat.User,
			&chat.Text,
			&chat.GIF,
			&chat.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan chat: %w", err)
		}
		chats = append(chats, &chat)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chats: %w", err)
	}
	return chats, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// Ensure SQLiteStore implements store.Store
var _ store.Store = (*SQLiteStore)(nil)
