// Package sqlitemirror keeps a durable copy of every cache change in a
// SQLite file, so the cached state can be inspected outside the process.
package sqlitemirror

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	_ "github.com/glebarez/go-sqlite"

	"github.com/unkn0wn-root/gqlcache"
	"github.com/unkn0wn-root/gqlcache/codec"
)

// Entry is one mirrored response.
type Entry struct {
	Query   string
	Whole   bool
	Resp    gqlcache.Response
	Updated time.Time
}

type Mirror struct {
	db         *sql.DB
	codec      codec.Codec[gqlcache.Response]
	writeMutex sync.Mutex
	now        func() time.Time
}

var _ gqlcache.Mirror = (*Mirror)(nil)

// Open creates (or reuses) the mirror table in the database at path.
func Open(path string) (*Mirror, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	for _, stmt := range []string{
		"CREATE TABLE IF NOT EXISTS mirror (query TEXT NOT NULL, whole INTEGER NOT NULL, body BLOB, updated INTEGER, PRIMARY KEY (query, whole))",
		"CREATE INDEX IF NOT EXISTS updated_idx ON mirror (updated)",
		"PRAGMA journal_mode=WAL",
	} {
		if _, err := db.Exec(stmt); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	return &Mirror{db: db, codec: codec.JSON[gqlcache.Response]{}, now: time.Now}, nil
}

func (m *Mirror) Put(ctx context.Context, query string, whole bool, resp gqlcache.Response) error {
	body, err := m.codec.Encode(resp)
	if err != nil {
		return err
	}
	m.writeMutex.Lock()
	defer m.writeMutex.Unlock()
	_, err = m.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO mirror (query, whole, body, updated) VALUES (?, ?, ?, ?)",
		query, whole, body, m.now().UnixMilli())
	return err
}

// Delete drops both the normalized and the whole-query row for query.
func (m *Mirror) Delete(ctx context.Context, query string) error {
	m.writeMutex.Lock()
	defer m.writeMutex.Unlock()
	_, err := m.db.ExecContext(ctx, "DELETE FROM mirror WHERE query = ?", query)
	return err
}

func (m *Mirror) Reset(ctx context.Context) error {
	m.writeMutex.Lock()
	defer m.writeMutex.Unlock()
	_, err := m.db.ExecContext(ctx, "DELETE FROM mirror")
	return err
}

func (m *Mirror) Get(ctx context.Context, query string, whole bool) (gqlcache.Response, bool, error) {
	var body []byte
	err := m.db.QueryRowContext(ctx,
		"SELECT body FROM mirror WHERE query = ? AND whole = ?", query, whole).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	resp, err := m.codec.Decode(body)
	if err != nil {
		return nil, false, err
	}
	return resp, true, nil
}

// All lists mirrored entries, most recently updated first.
func (m *Mirror) All(ctx context.Context) ([]Entry, error) {
	rows, err := m.db.QueryContext(ctx, "SELECT query, whole, body, updated FROM mirror ORDER BY updated DESC, query")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]Entry, 0)
	for rows.Next() {
		var (
			e       Entry
			body    []byte
			updated int64
		)
		if err := rows.Scan(&e.Query, &e.Whole, &body, &updated); err != nil {
			return entries, err
		}
		if e.Resp, err = m.codec.Decode(body); err != nil {
			return entries, err
		}
		e.Updated = time.UnixMilli(updated)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (m *Mirror) Close() error { return m.db.Close() }
