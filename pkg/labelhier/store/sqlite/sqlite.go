package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/cognicore/labelhier/pkg/labelhier/internalerr"
	"github.com/cognicore/labelhier/pkg/labelhier/merge"
	"github.com/cognicore/labelhier/pkg/labelhier/ngram"
	"github.com/cognicore/labelhier/pkg/labelhier/store"
)

// timeLayout is fixed width so created_at sorts as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// sqliteStore implements the Store interface using SQLite
type sqliteStore struct {
	db *sql.DB
}

// OpenSQLite opens a SQLite database with WAL mode enabled.
func OpenSQLite(ctx context.Context, path string) (store.Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}

	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, err
	}

	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &sqliteStore{db: db}, nil
}

// Close closes the database connection
func (s *sqliteStore) Close() error {
	return s.db.Close()
}

// initSchema creates tables if they don't exist
func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	created_at TEXT NOT NULL,
	source TEXT,
	config TEXT,
	nodes INTEGER DEFAULT 0,
	edges INTEGER DEFAULT 0,
	pruned INTEGER DEFAULT 0
);

CREATE TABLE IF NOT EXISTS merges (
	run_id TEXT NOT NULL,
	position INTEGER NOT NULL,
	label TEXT NOT NULL,
	targets TEXT NOT NULL,
	PRIMARY KEY(run_id, label),
	FOREIGN KEY(run_id) REFERENCES runs(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS roots (
	run_id TEXT NOT NULL,
	position INTEGER NOT NULL,
	label TEXT NOT NULL,
	roots TEXT NOT NULL,
	PRIMARY KEY(run_id, label),
	FOREIGN KEY(run_id) REFERENCES runs(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS cohesion (
	run_id TEXT NOT NULL,
	label TEXT NOT NULL,
	score REAL NOT NULL,
	PRIMARY KEY(run_id, label),
	FOREIGN KEY(run_id) REFERENCES runs(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS stoplist (
	token TEXT PRIMARY KEY
);

CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at);
CREATE INDEX IF NOT EXISTS idx_cohesion_score ON cohesion(run_id, score);
`
	_, err := db.ExecContext(ctx, schema)
	return err
}

// SaveRun stores a run and its results, replacing a run with the same ID.
func (s *sqliteStore) SaveRun(ctx context.Context, r store.Run) error {
	if r.ID == "" {
		return fmt.Errorf("save run: %w: empty id", internalerr.ErrInvalidInput)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// foreign_keys is a per-connection pragma, so children are removed
	// explicitly rather than through ON DELETE CASCADE.
	for _, table := range []string{"merges", "roots", "cohesion"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE run_id = ?`, r.ID); err != nil {
			return err
		}
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, r.ID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `
INSERT INTO runs (id, created_at, source, config, nodes, edges, pruned)
VALUES (?, ?, ?, ?, ?, ?, ?);
`, r.ID, r.CreatedAt.UTC().Format(timeLayout), r.Source, r.Config, r.Nodes, r.Edges, r.Pruned); err != nil {
		return err
	}

	if err := insertKeyLists(ctx, tx, `INSERT INTO merges (run_id, position, label, targets) VALUES (?, ?, ?, ?)`,
		r.ID, len(r.Merges), func(i int) (ngram.Key, []ngram.Key) {
			return r.Merges[i].Label, r.Merges[i].Replacements
		}); err != nil {
		return fmt.Errorf("save merges: %w", err)
	}
	if err := insertKeyLists(ctx, tx, `INSERT INTO roots (run_id, position, label, roots) VALUES (?, ?, ?, ?)`,
		r.ID, len(r.Roots), func(i int) (ngram.Key, []ngram.Key) {
			return r.Roots[i].Label, r.Roots[i].Roots
		}); err != nil {
		return fmt.Errorf("save roots: %w", err)
	}

	if len(r.Cohesion) > 0 {
		stmt, err := tx.PrepareContext(ctx, `INSERT INTO cohesion (run_id, label, score) VALUES (?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, c := range r.Cohesion {
			if _, err := stmt.ExecContext(ctx, r.ID, literal(c.Label), c.Score); err != nil {
				return fmt.Errorf("save cohesion: %w", err)
			}
		}
	}

	return tx.Commit()
}

func insertKeyLists(ctx context.Context, tx *sql.Tx, query, runID string, n int, row func(int) (ngram.Key, []ngram.Key)) error {
	if n == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for i := 0; i < n; i++ {
		label, keys := row(i)
		list, err := encodeKeys(keys)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, runID, i, literal(label), list); err != nil {
			return err
		}
	}
	return nil
}

// GetRun loads a run with all of its results.
func (s *sqliteStore) GetRun(ctx context.Context, id string) (store.Run, error) {
	info, err := s.scanRun(s.db.QueryRowContext(ctx, `
SELECT id, created_at, source, config, nodes, edges, pruned FROM runs WHERE id = ?;
`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return store.Run{}, fmt.Errorf("run %s: %w", id, internalerr.ErrNotFound)
	}
	if err != nil {
		return store.Run{}, err
	}

	run := store.Run{RunInfo: info}
	m, err := s.GetMerges(ctx, id)
	if err != nil {
		return store.Run{}, err
	}
	run.Merges = m.Entries()
	if run.Roots, err = s.GetRoots(ctx, id); err != nil {
		return store.Run{}, err
	}
	if run.Cohesion, err = s.GetCohesion(ctx, id, 0); err != nil {
		return store.Run{}, err
	}
	return run, nil
}

// ListRuns returns the most recent runs first.
func (s *sqliteStore) ListRuns(ctx context.Context, limit int) ([]store.RunInfo, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT id, created_at, source, config, nodes, edges, pruned
FROM runs
ORDER BY created_at DESC, id DESC
LIMIT ?;
`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.RunInfo
	for rows.Next() {
		info, err := s.scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, info)
	}
	return out, rows.Err()
}

// LatestRun returns the most recent run, if any.
func (s *sqliteStore) LatestRun(ctx context.Context) (store.RunInfo, bool, error) {
	runs, err := s.ListRuns(ctx, 1)
	if err != nil || len(runs) == 0 {
		return store.RunInfo{}, false, err
	}
	return runs[0], true, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *sqliteStore) scanRun(row rowScanner) (store.RunInfo, error) {
	var (
		info     store.RunInfo
		created  string
		src, cfg sql.NullString
	)
	if err := row.Scan(&info.ID, &created, &src, &cfg, &info.Nodes, &info.Edges, &info.Pruned); err != nil {
		return store.RunInfo{}, err
	}
	t, err := time.Parse(timeLayout, created)
	if err != nil {
		return store.RunInfo{}, fmt.Errorf("run %s created_at: %w", info.ID, err)
	}
	info.CreatedAt = t
	info.Source = src.String
	info.Config = cfg.String
	return info, nil
}

// GetMerges rebuilds the merge table of a run.
func (s *sqliteStore) GetMerges(ctx context.Context, runID string) (*merge.Mapping, error) {
	rows, err := s.loadKeyLists(ctx, `SELECT label, targets FROM merges WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("load merges: %w", err)
	}
	entries := make([]merge.Entry, len(rows))
	for i, r := range rows {
		entries[i] = merge.Entry{Label: r.Label, Replacements: r.Roots}
	}
	return merge.FromEntries(entries), nil
}

// GetRoots returns the root decomposition of a run.
func (s *sqliteStore) GetRoots(ctx context.Context, runID string) ([]store.RootEntry, error) {
	rows, err := s.loadKeyLists(ctx, `SELECT label, roots FROM roots WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("load roots: %w", err)
	}
	return rows, nil
}

func (s *sqliteStore) loadKeyLists(ctx context.Context, query, runID string) ([]store.RootEntry, error) {
	rows, err := s.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.RootEntry
	for rows.Next() {
		var label, list string
		if err := rows.Scan(&label, &list); err != nil {
			return nil, err
		}
		k, err := parseKey(label)
		if err != nil {
			return nil, err
		}
		keys, err := decodeKeys(list)
		if err != nil {
			return nil, err
		}
		out = append(out, store.RootEntry{Label: k, Roots: keys})
	}
	return out, rows.Err()
}

// GetCohesion returns scores at or above minScore, highest first.
func (s *sqliteStore) GetCohesion(ctx context.Context, runID string, minScore float64) ([]store.Cohesion, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT label, score FROM cohesion
WHERE run_id = ? AND score >= ?
ORDER BY score DESC, label;
`, runID, minScore)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.Cohesion
	for rows.Next() {
		var label string
		var score float64
		if err := rows.Scan(&label, &score); err != nil {
			return nil, err
		}
		k, err := parseKey(label)
		if err != nil {
			return nil, err
		}
		out = append(out, store.Cohesion{Label: k, Score: score})
	}
	return out, rows.Err()
}

// UpsertStoplist replaces the stored stoplist.
func (s *sqliteStore) UpsertStoplist(ctx context.Context, tokens []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM stoplist`); err != nil {
		return err
	}

	if len(tokens) > 0 {
		stmt, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO stoplist (token) VALUES (?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, tok := range tokens {
			if _, err := stmt.ExecContext(ctx, tok); err != nil {
				return err
			}
		}
	}

	return tx.Commit()
}

// Stoplist returns the stored stoplist, sorted.
func (s *sqliteStore) Stoplist(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT token FROM stoplist ORDER BY token`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var tok string
		if err := rows.Scan(&tok); err != nil {
			return nil, err
		}
		out = append(out, tok)
	}
	return out, rows.Err()
}

// Labels are stored as tuple literals so the database stays readable.
func literal(k ngram.Key) string {
	return k.NGram().String()
}

func parseKey(s string) (ngram.Key, error) {
	n, err := ngram.Parse(s)
	if err != nil {
		return "", err
	}
	return n.Key(), nil
}

func encodeKeys(keys []ngram.Key) (string, error) {
	lits := make([]string, len(keys))
	for i, k := range keys {
		lits[i] = literal(k)
	}
	b, err := json.Marshal(lits)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeKeys(s string) ([]ngram.Key, error) {
	var lits []string
	if err := json.Unmarshal([]byte(s), &lits); err != nil {
		return nil, err
	}
	out := make([]ngram.Key, len(lits))
	for i, l := range lits {
		k, err := parseKey(l)
		if err != nil {
			return nil, err
		}
		out[i] = k
	}
	return out, nil
}
