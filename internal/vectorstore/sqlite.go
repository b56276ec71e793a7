package vectorstore

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"
)

// SQLiteStore persists collections in a single SQLite database file.
// Search is an exact scan over SQL-filtered rows; vectors are stored as
// little-endian float32 blobs.
type SQLiteStore struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteStore opens (creating if needed) the database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite store: path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open vector db: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	pragmas := []string{
		`PRAGMA journal_mode=WAL;`,
		`PRAGMA synchronous=NORMAL;`,
		`PRAGMA busy_timeout=5000;`,
	}
	for _, stmt := range pragmas {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("init vector db: %w", err)
		}
	}
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS collections (
			name TEXT PRIMARY KEY,
			dims INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS points (
			collection TEXT NOT NULL,
			id INTEGER NOT NULL,
			vector BLOB NOT NULL,
			text TEXT,
			source TEXT,
			category TEXT,
			doc_type TEXT,
			PRIMARY KEY (collection, id)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_points_category ON points (collection, category);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("init vector db: %w", err)
		}
	}
	return nil
}

// CreateCollection (re)creates a collection in one transaction.
func (s *SQLiteStore) CreateCollection(ctx context.Context, name string, dims int) error {
	if dims <= 0 {
		return fmt.Errorf("create collection %s: invalid dimensions %d", name, dims)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM points WHERE collection = ?`, name); err != nil {
		_ = tx.Rollback()
		return err
	}
	if _, err := tx.ExecContext(ctx, `INSERT OR REPLACE INTO collections (name, dims) VALUES (?, ?)`, name, dims); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (s *SQLiteStore) collectionDims(ctx context.Context, name string) (int, error) {
	var dims int
	err := s.db.QueryRowContext(ctx, `SELECT dims FROM collections WHERE name = ?`, name).Scan(&dims)
	if err == sql.ErrNoRows {
		return 0, fmt.Errorf("collection %s: %w", name, ErrCollectionNotFound)
	}
	if err != nil {
		return 0, err
	}
	return dims, nil
}

// Upsert inserts or replaces points by ID inside one transaction.
func (s *SQLiteStore) Upsert(ctx context.Context, collection string, points []Point) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	dims, err := s.collectionDims(ctx, collection)
	if err != nil {
		return err
	}
	for _, p := range points {
		if len(p.Vector) != dims {
			return fmt.Errorf("point %d: got %d dimensions, collection has %d: %w",
				p.ID, len(p.Vector), dims, ErrDimensionMismatch)
		}
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT OR REPLACE INTO points
		(collection, id, vector, text, source, category, doc_type)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer stmt.Close()
	for _, p := range points {
		if _, err := stmt.ExecContext(ctx,
			collection, p.ID, vectorToBlob(p.Vector),
			p.Payload.Text, p.Payload.Source, p.Payload.Category, p.Payload.DocType,
		); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// Search scans qualifying rows; the category filter is pushed into SQL so
// topK is satisfied from qualifying points only.
func (s *SQLiteStore) Search(ctx context.Context, collection string, vector []float32, topK int, filter *Filter) ([]ScoredPoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	dims, err := s.collectionDims(ctx, collection)
	if err != nil {
		return nil, err
	}
	if len(vector) != dims {
		return nil, fmt.Errorf("query vector has %d dimensions, collection has %d: %w",
			len(vector), dims, ErrDimensionMismatch)
	}

	query := `SELECT id, vector, text, source, category, doc_type FROM points WHERE collection = ?`
	args := []any{collection}
	if filter != nil && filter.Category != "" {
		query += ` AND category = ?`
		args = append(args, filter.Category)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var hits []ScoredPoint
	for rows.Next() {
		var id uint64
		var blob []byte
		var p Payload
		if err := rows.Scan(&id, &blob, &p.Text, &p.Source, &p.Category, &p.DocType); err != nil {
			return nil, err
		}
		vec, err := blobToVector(blob)
		if err != nil {
			return nil, fmt.Errorf("point %d: %w", id, err)
		}
		hits = append(hits, ScoredPoint{ID: id, Score: dotProduct(vector, vec), Payload: p})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return rankPoints(hits, topK), nil
}

// DropCollection removes a collection and its points.
func (s *SQLiteStore) DropCollection(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM points WHERE collection = ?`, name); err != nil {
		_ = tx.Rollback()
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM collections WHERE name = ?`, name); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// Stats reports point count and dimensionality.
func (s *SQLiteStore) Stats(ctx context.Context, name string) (CollectionStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	dims, err := s.collectionDims(ctx, name)
	if err != nil {
		return CollectionStats{}, err
	}
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM points WHERE collection = ?`, name).Scan(&count); err != nil {
		return CollectionStats{}, err
	}
	return CollectionStats{PointCount: count, Dimensions: dims, Status: "green"}, nil
}

// Rename promotes `from` to `to` in a single transaction, which gives
// readers an atomic old-to-new switch.
func (s *SQLiteStore) Rename(ctx context.Context, from, to string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.collectionDims(ctx, from); err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	steps := []struct {
		stmt string
		args []any
	}{
		{`DELETE FROM points WHERE collection = ?`, []any{to}},
		{`DELETE FROM collections WHERE name = ?`, []any{to}},
		{`UPDATE points SET collection = ? WHERE collection = ?`, []any{to, from}},
		{`UPDATE collections SET name = ? WHERE name = ?`, []any{to, from}},
	}
	for _, step := range steps {
		if _, err := tx.ExecContext(ctx, step.stmt, step.args...); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

func vectorToBlob(vector []float32) []byte {
	blob := make([]byte, len(vector)*4)
	for i, v := range vector {
		binary.LittleEndian.PutUint32(blob[i*4:i*4+4], math.Float32bits(v))
	}
	return blob
}

func blobToVector(blob []byte) ([]float32, error) {
	if len(blob)%4 != 0 {
		return nil, fmt.Errorf("vector blob size %d is not a multiple of 4", len(blob))
	}
	vector := make([]float32, len(blob)/4)
	for i := range vector {
		vector[i] = math.Float32frombits(binary.LittleEndian.Uint32(blob[i*4 : i*4+4]))
	}
	return vector, nil
}
