// Package session persists workflow snapshots keyed by page identity, with a
// 24 hour time-to-live. A missing, malformed, or expired record all read back
// as "absent", never as an error; expired and malformed rows are deleted on
// the read that discovers them.
package session

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

// TTL after which a stored session is treated as non-existent.
const TTL = 24 * time.Hour

// currentSchemaVersion tracks migrations via sqlite user_version.
const currentSchemaVersion = 1

// Store is the sqlite-backed session store.
type Store struct {
	db *sql.DB
	// now is replaceable for expiry tests.
	now func() time.Time
}

// Open initializes the store at dir/sessions.db, creating the directory and
// schema as needed.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create session dir: %w", err)
	}
	dsn := filepath.Join(dir, "sessions.db") + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open session db: %w", err)
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db, now: time.Now}, nil
}

func migrate(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version < 1 {
		const schema = `
		CREATE TABLE IF NOT EXISTS sessions (
		  page_key TEXT PRIMARY KEY,
		  payload  TEXT NOT NULL,
		  saved_at INTEGER NOT NULL
		);`
		if _, err := db.Exec(schema); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
		if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
			return fmt.Errorf("set schema version: %w", err)
		}
	}
	return nil
}

// Close releases the underlying database.
func (s *Store) Close() error { return s.db.Close() }

// Save writes snapshot under pageKey, stamping it with the current time.
func (s *Store) Save(pageKey string, snapshot any) error {
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT INTO sessions (page_key, payload, saved_at) VALUES (?, ?, ?)
		 ON CONFLICT(page_key) DO UPDATE SET payload = excluded.payload, saved_at = excluded.saved_at`,
		pageKey, string(payload), s.now().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Load reads the snapshot stored under pageKey into out. The second return
// is false when no live record exists: missing, expired, and malformed rows
// are all absent, and the latter two are deleted on the way out.
func (s *Store) Load(pageKey string, out any) (bool, error) {
	var payload string
	var savedAt int64
	err := s.db.QueryRow(
		"SELECT payload, saved_at FROM sessions WHERE page_key = ?", pageKey,
	).Scan(&payload, &savedAt)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load session: %w", err)
	}

	if s.now().Sub(time.UnixMilli(savedAt)) > TTL {
		log.Debug().Str("page_key", pageKey).Msg("session expired; deleting")
		_ = s.Clear(pageKey)
		return false, nil
	}
	if err := json.Unmarshal([]byte(payload), out); err != nil {
		log.Warn().Err(err).Str("page_key", pageKey).Msg("malformed session record; deleting")
		_ = s.Clear(pageKey)
		return false, nil
	}
	return true, nil
}

// Clear deletes the record under pageKey. Clearing a missing key is fine.
func (s *Store) Clear(pageKey string) error {
	if _, err := s.db.Exec("DELETE FROM sessions WHERE page_key = ?", pageKey); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// PageKey normalizes a page URL into its storage key: the URL with query
// string and fragment stripped. Unparseable URLs key as themselves.
func PageKey(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	u.RawQuery = ""
	u.Fragment = ""
	u.RawFragment = ""
	return u.String()
}
