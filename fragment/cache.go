package fragment

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

// CacheName is the rewrite cache database kept in the batch directory. The
// underscore prefix keeps it out of fragment discovery.
const CacheName = "_rewrite.db"

// Cache records content hashes of already-rewritten fragments so repeated
// assembly runs over an incrementally re-exported batch skip files that did
// not change. Rewriting is idempotent, the cache is purely a shortcut:
// losing it costs time, never correctness.
//
// Not safe for concurrent use, callers serialize access themselves.
type Cache struct {
	conn *sqlite.Conn
}

// OpenCache opens or creates the cache database at path.
func OpenCache(path string) (*Cache, error) {
	conn, err := sqlite.OpenConn(path, sqlite.OpenReadWrite|sqlite.OpenCreate)
	if err != nil {
		return nil, fmt.Errorf("unable to open rewrite cache: %w", err)
	}
	err = sqlitex.ExecuteTransient(conn, `CREATE TABLE IF NOT EXISTS rewritten (
		path TEXT PRIMARY KEY,
		hash TEXT NOT NULL,
		stamp INTEGER NOT NULL DEFAULT (unixepoch())
	)`, nil)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("unable to initialize rewrite cache: %w", err)
	}
	return &Cache{conn: conn}, nil
}

func (c *Cache) Close() error {
	if c == nil || c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

// Unchanged reports whether the fragment at path was already rewritten with
// the given content hash.
func (c *Cache) Unchanged(path, hash string) bool {
	if c == nil {
		return false
	}
	var stored string
	err := sqlitex.Execute(c.conn, `SELECT hash FROM rewritten WHERE path = ?`, &sqlitex.ExecOptions{
		Args: []any{path},
		ResultFunc: func(stmt *sqlite.Stmt) error {
			stored = stmt.ColumnText(0)
			return nil
		},
	})
	return err == nil && stored == hash
}

// Remember stores the post-rewrite content hash for the fragment at path.
func (c *Cache) Remember(path, hash string) error {
	if c == nil {
		return nil
	}
	return sqlitex.Execute(c.conn,
		`INSERT INTO rewritten (path, hash, stamp) VALUES (?, ?, unixepoch())
		 ON CONFLICT(path) DO UPDATE SET hash = excluded.hash, stamp = excluded.stamp`,
		&sqlitex.ExecOptions{Args: []any{path, hash}})
}

// HashFile returns the content hash used for cache keys.
func HashFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
