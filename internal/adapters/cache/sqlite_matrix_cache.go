package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"route-optimizer-service/internal/domain"
	"route-optimizer-service/internal/platform/obs"
	"route-optimizer-service/internal/ports"
	"time"
)

// SQLite backed cache of cost matrices keyed by stop-set fingerprint.
// Entries older than the TTL read as misses; ttl <= 0 disables expiry.
type SqliteMatrixCache struct {
	DB  *sql.DB
	TTL time.Duration
}

var _ ports.MatrixCache = (*SqliteMatrixCache)(nil)

func NewSqliteMatrixCache(db *sql.DB, ttl time.Duration) *SqliteMatrixCache {
	return &SqliteMatrixCache{DB: db, TTL: ttl}
}

func (s *SqliteMatrixCache) Get(ctx context.Context, fp string) (_ *domain.CostMatrix, _ bool, err error) {
	defer obs.Time(ctx, "matrix.cache.sqlite.Get")(&err)

	if s.DB == nil {
		return nil, false, errors.New("matrix cache: db is nil")
	}

	var payload string
	var createdAt int64
	err = s.DB.QueryRowContext(ctx, `
	SELECT payload, created_at
	FROM matrix_cache
	WHERE fingerprint = ?;
	`, fp).Scan(&payload, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get matrix cache: query matrix_cache table: %w", err)
	}

	if expired(createdAt, s.TTL) {
		return nil, false, nil
	}

	m, err := decodeMatrix([]byte(payload))
	if err != nil {
		return nil, false, fmt.Errorf("get matrix cache %s: %w", fp, err)
	}
	return m, true, nil
}

func (s *SqliteMatrixCache) Put(ctx context.Context, fp string, m *domain.CostMatrix) error {
	if s.DB == nil {
		return errors.New("matrix cache: db is nil")
	}
	if err := checkFingerprint(fp); err != nil {
		return err
	}

	b, err := encodeMatrix(m)
	if err != nil {
		return err
	}

	_, err = s.DB.ExecContext(ctx, `
	INSERT OR REPLACE INTO matrix_cache (
		fingerprint,
		size,
		payload,
		created_at
	)
	VALUES (?, ?, ?, ?);
	`, fp, m.Size, string(b), time.Now().Unix())
	if err != nil {
		return fmt.Errorf("insert matrix cache fingerprint=%s: %w", fp, err)
	}
	return nil
}

func (s *SqliteMatrixCache) Invalidate(ctx context.Context, fp string) error {
	if s.DB == nil {
		return errors.New("matrix cache: db is nil")
	}
	if _, err := s.DB.ExecContext(ctx, `DELETE FROM matrix_cache WHERE fingerprint = ?;`, fp); err != nil {
		return fmt.Errorf("invalidate matrix cache: %w", err)
	}
	return nil
}

func expired(createdAtUnix int64, ttl time.Duration) bool {
	if ttl <= 0 {
		return false
	}
	return time.Since(time.Unix(createdAtUnix, 0)) > ttl
}
