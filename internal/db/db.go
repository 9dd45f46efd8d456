// ABOUTME: SQLite connection and schema management for the notes store.
// ABOUTME: Registers the case-folding function, applies pragmas, and runs migrations.

package db

import (
	"database/sql"
	"database/sql/driver"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"modernc.org/sqlite"
)

// AUTOINCREMENT keeps ids of deleted notes from ever being handed out again.
// Times are unix microseconds so ordering is plain integer comparison.
const schema = `
CREATE TABLE IF NOT EXISTS notes (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    title TEXT NOT NULL,
    content TEXT NOT NULL DEFAULT '',
    created_at INTEGER NOT NULL,
    updated_at INTEGER
);

CREATE INDEX IF NOT EXISTS notes_title_idx ON notes(title, id);
CREATE INDEX IF NOT EXISTS notes_created_idx ON notes(created_at, id);
CREATE INDEX IF NOT EXISTS notes_updated_idx ON notes(COALESCE(updated_at, created_at), id);
`

// lowerFunc folds case the same way Go's strings.ToLower does, so filtering
// in SQL agrees with the in-memory query engine on non-ASCII text.
const lowerFunc = "notes_lower"

var registerOnce sync.Once
var registerErr error

func registerFunctions() error {
	registerOnce.Do(func() {
		registerErr = sqlite.RegisterDeterministicScalarFunction(lowerFunc, 1,
			func(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
				switch v := args[0].(type) {
				case string:
					return strings.ToLower(v), nil
				case []byte:
					return strings.ToLower(string(v)), nil
				case nil:
					return nil, nil
				default:
					return nil, fmt.Errorf("%s: unsupported argument %T", lowerFunc, v)
				}
			})
	})
	return registerErr
}

// Open creates the data directory if needed, connects, and migrates.
func Open(path string) (*Store, error) {
	if err := registerFunctions(); err != nil {
		return nil, fmt.Errorf("register sqlite functions: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	dsn := path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := conn.Exec(schema); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{db: conn}, nil
}
