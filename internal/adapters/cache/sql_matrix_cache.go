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

// SQLMatrixCache is the Postgres flavour of the fingerprint-keyed matrix cache.
type SQLMatrixCache struct {
	DB  *sql.DB
	TTL time.Duration
}

var _ ports.MatrixCache = (*SQLMatrixCache)(nil)

func NewSQLMatrixCache(db *sql.DB, ttl time.Duration) *SQLMatrixCache {
	return &SQLMatrixCache{DB: db, TTL: ttl}
}

func (s *SQLMatrixCache) Get(ctx context.Context, fp string) (_ *domain.CostMatrix, _ bool, err error) {
	defer obs.Time(ctx, "matrix.cache.sql.Get")(&err)

	if s.DB == nil {
		return nil, false, errors.New("matrix cache: db is nil")
	}

	var payload string
	var createdAt int64
	err = s.DB.QueryRowContext(ctx, `
	SELECT payload, created_at
	FROM matrix_cache
	WHERE fingerprint = $1;
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

func (s *SQLMatrixCache) Put(ctx context.Context, fp string, m *domain.CostMatrix) (err error) {
	defer obs.Time(ctx, "matrix.cache.sql.Put")(&err)

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
	INSERT INTO matrix_cache (fingerprint, size, payload, created_at)
	VALUES ($1, $2, $3, $4)
	ON CONFLICT (fingerprint) DO UPDATE
	SET size = EXCLUDED.size,
		payload = EXCLUDED.payload,
		created_at = EXCLUDED.created_at;
	`, fp, m.Size, string(b), time.Now().Unix())
	if err != nil {
		return fmt.Errorf("insert matrix cache fingerprint=%s: %w", fp, err)
	}
	return nil
}

func (s *SQLMatrixCache) Invalidate(ctx context.Context, fp string) error {
	if s.DB == nil {
		return errors.New("matrix cache: db is nil")
	}
	if _, err := s.DB.ExecContext(ctx, `DELETE FROM matrix_cache WHERE fingerprint = $1;`, fp); err != nil {
		return fmt.Errorf("invalidate matrix cache: %w", err)
	}
	return nil
}
