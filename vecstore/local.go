package vecstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/agentmem/pagesense/dbopen"
)

const localSchema = `
CREATE TABLE IF NOT EXISTS collections (
	name       TEXT PRIMARY KEY,
	dim        INTEGER NOT NULL,
	created_at TEXT NOT NULL DEFAULT (datetime('now'))
);
CREATE TABLE IF NOT EXISTS points (
	collection TEXT NOT NULL REFERENCES collections(name) ON DELETE CASCADE,
	id         TEXT NOT NULL,
	vector     BLOB NOT NULL,
	norm       REAL NOT NULL,
	text       TEXT NOT NULL DEFAULT '',
	payload    TEXT NOT NULL DEFAULT '{}',
	PRIMARY KEY (collection, id)
);
`

// LocalConfig configures the SQLite-backed store.
type LocalConfig struct {
	// Path is the database file. Empty or ":memory:" keeps the index
	// ephemeral, matching the session's lifetime.
	Path string `json:"path" yaml:"path"`

	Logger *slog.Logger `json:"-" yaml:"-"`
}

func (c *LocalConfig) defaults() {
	if c.Path == "" {
		c.Path = ":memory:"
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Local is a SQLite-backed Store. Vectors are stored as little-endian
// float32 blobs with precomputed norms; search is a brute-force cosine scan
// ranked in Go, which is plenty for session-sized collections.
type Local struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewLocal opens (or creates) the backing database and applies the schema.
func NewLocal(cfg LocalConfig) (*Local, error) {
	cfg.defaults()

	var (
		db  *sql.DB
		err error
	)
	if cfg.Path == ":memory:" {
		db, err = dbopen.OpenEphemeral(dbopen.WithSchema(localSchema))
	} else {
		db, err = dbopen.Open(cfg.Path, dbopen.WithMkdirAll(), dbopen.WithSchema(localSchema))
	}
	if err != nil {
		return nil, fmt.Errorf("vecstore: open local index: %w", err)
	}

	return &Local{db: db, logger: cfg.Logger}, nil
}

// Close releases the backing database.
func (l *Local) Close() error {
	return l.db.Close()
}

func (l *Local) EnsureCollection(ctx context.Context, name string, dim int) error {
	var existing int
	err := l.db.QueryRowContext(ctx, `SELECT dim FROM collections WHERE name = ?`, name).Scan(&existing)
	switch {
	case err == sql.ErrNoRows:
		_, err = dbopen.Exec(ctx, l.db, `INSERT INTO collections (name, dim) VALUES (?, ?)`, name, dim)
		if err != nil {
			return fmt.Errorf("vecstore: create collection %s: %w", name, err)
		}
		return nil
	case err != nil:
		return fmt.Errorf("vecstore: check collection %s: %w", name, err)
	}
	if dim > 0 && existing > 0 && existing != dim {
		return fmt.Errorf("vecstore: collection %s has dim %d, want %d", name, existing, dim)
	}
	return nil
}

func (l *Local) DeleteCollection(ctx context.Context, name string) error {
	var deleted int64
	err := dbopen.RunTx(ctx, l.db, func(tx *sql.Tx) error {
		// Explicit point delete: the FK cascade only fires on connections
		// that have the foreign_keys pragma applied.
		if _, err := tx.ExecContext(ctx, `DELETE FROM points WHERE collection = ?`, name); err != nil {
			return fmt.Errorf("vecstore: delete points of %s: %w", name, err)
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM collections WHERE name = ?`, name)
		if err != nil {
			return fmt.Errorf("vecstore: delete collection %s: %w", name, err)
		}
		deleted, _ = res.RowsAffected()
		return nil
	})
	if err != nil {
		return err
	}
	if deleted == 0 {
		return ErrCollectionNotFound
	}
	return nil
}

func (l *Local) Upsert(ctx context.Context, collection string, points []Point) error {
	if len(points) == 0 {
		return nil
	}
	if err := l.requireCollection(ctx, collection); err != nil {
		return err
	}

	return dbopen.RunTx(ctx, l.db, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT OR REPLACE INTO points (collection, id, vector, norm, text, payload)
			VALUES (?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("vecstore: prepare upsert: %w", err)
		}
		defer stmt.Close()

		for _, p := range points {
			payload, err := json.Marshal(p.Payload)
			if err != nil {
				return fmt.Errorf("vecstore: marshal payload for %s: %w", p.ID, err)
			}
			_, err = stmt.ExecContext(ctx, collection, p.ID,
				SerializeVector(p.Vector), Norm(p.Vector), p.Text, string(payload))
			if err != nil {
				return fmt.Errorf("vecstore: upsert %s: %w", p.ID, err)
			}
		}
		return nil
	})
}

func (l *Local) Search(ctx context.Context, collection string, vector []float32, limit int) ([]Scored, error) {
	if err := l.requireCollection(ctx, collection); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 5
	}

	rows, err := l.db.QueryContext(ctx, `
		SELECT id, vector, norm, text, payload FROM points
		WHERE collection = ? ORDER BY rowid`, collection)
	if err != nil {
		return nil, fmt.Errorf("vecstore: scan collection %s: %w", collection, err)
	}
	defer rows.Close()

	queryNorm := Norm(vector)
	var hits []Scored
	for rows.Next() {
		p, norm, err := scanPoint(rows)
		if err != nil {
			return nil, err
		}
		hits = append(hits, Scored{
			Point: p,
			Score: cosineWithNorms(vector, p.Vector, queryNorm, norm),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("vecstore: scan collection %s: %w", collection, err)
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

func (l *Local) Get(ctx context.Context, collection string, ids []string) ([]Point, error) {
	if err := l.requireCollection(ctx, collection); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := strings.Repeat("?,", len(ids))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, 0, len(ids)+1)
	args = append(args, collection)
	for _, id := range ids {
		args = append(args, id)
	}

	rows, err := l.db.QueryContext(ctx, `
		SELECT id, vector, norm, text, payload FROM points
		WHERE collection = ? AND id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("vecstore: get from %s: %w", collection, err)
	}
	defer rows.Close()

	byID := make(map[string]Point, len(ids))
	for rows.Next() {
		p, _, err := scanPoint(rows)
		if err != nil {
			return nil, err
		}
		byID[p.ID] = p
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("vecstore: get from %s: %w", collection, err)
	}

	// Preserve the caller's id order; missing ids are skipped.
	out := make([]Point, 0, len(ids))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (l *Local) Count(ctx context.Context, collection string) (int, error) {
	if err := l.requireCollection(ctx, collection); err != nil {
		return 0, err
	}
	var n int
	err := l.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM points WHERE collection = ?`, collection).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("vecstore: count %s: %w", collection, err)
	}
	return n, nil
}

func (l *Local) requireCollection(ctx context.Context, name string) error {
	var one int
	err := l.db.QueryRowContext(ctx, `SELECT 1 FROM collections WHERE name = ?`, name).Scan(&one)
	if err == sql.ErrNoRows {
		return ErrCollectionNotFound
	}
	if err != nil {
		return fmt.Errorf("vecstore: check collection %s: %w", name, err)
	}
	return nil
}

func scanPoint(rows *sql.Rows) (Point, float64, error) {
	var (
		p       Point
		blob    []byte
		norm    float64
		payload string
	)
	if err := rows.Scan(&p.ID, &blob, &norm, &p.Text, &payload); err != nil {
		return Point{}, 0, fmt.Errorf("vecstore: scan point: %w", err)
	}
	p.Vector = DeserializeVector(blob)
	if payload != "" && payload != "{}" {
		if err := json.Unmarshal([]byte(payload), &p.Payload); err != nil {
			return Point{}, 0, fmt.Errorf("vecstore: decode payload for %s: %w", p.ID, err)
		}
	}
	return p, norm, nil
}
