package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"route-optimizer-service/internal/domain"
	"strings"
)

// Dialect selects the SQL flavour of the cache schema.
type Dialect string

const (
	SQLite   Dialect = "sqlite"
	Postgres Dialect = "postgres"
)

func schemaStatements(d Dialect) ([]string, error) {
	switch d {
	case SQLite:
		return []string{
			`
	CREATE TABLE IF NOT EXISTS matrix_cache (
		fingerprint TEXT PRIMARY KEY,
		size INTEGER NOT NULL,
		payload TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);
	`,
			`
	CREATE TABLE IF NOT EXISTS geocode_cache (
		address TEXT PRIMARY KEY,
		lon REAL NOT NULL,
		lat REAL NOT NULL
	);
	`,
			`
	CREATE INDEX IF NOT EXISTS idx_matrix_cache_created_at
	ON matrix_cache(created_at);
	`,
		}, nil
	case Postgres:
		return []string{
			`
	CREATE TABLE IF NOT EXISTS matrix_cache (
		fingerprint TEXT PRIMARY KEY,
		size INTEGER NOT NULL,
		payload TEXT NOT NULL,
		created_at BIGINT NOT NULL
	);
	`,
			`
	CREATE TABLE IF NOT EXISTS geocode_cache (
		address TEXT PRIMARY KEY,
		lon DOUBLE PRECISION NOT NULL,
		lat DOUBLE PRECISION NOT NULL
	);
	`,
			`
	CREATE INDEX IF NOT EXISTS idx_matrix_cache_created_at
	ON matrix_cache(created_at);
	`,
		}, nil
	}
	return nil, fmt.Errorf("unknown dialect %q", d)
}

// Initialize the cache schema for the given dialect.
func InitSchema(ctx context.Context, db *sql.DB, d Dialect) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	statements, err := schemaStatements(d)
	if err != nil {
		return fmt.Errorf("init schema: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for i, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}

// PurgeMatrixCache deletes matrix entries created before cutoffUnix and returns
// how many were removed.
func PurgeMatrixCache(ctx context.Context, db *sql.DB, d Dialect, cutoffUnix int64) (int64, error) {
	q := `DELETE FROM matrix_cache WHERE created_at < ?;`
	if d == Postgres {
		q = `DELETE FROM matrix_cache WHERE created_at < $1;`
	}

	res, err := db.ExecContext(ctx, q, cutoffUnix)
	if err != nil {
		return 0, fmt.Errorf("purge matrix cache: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("purge matrix cache: rows affected: %w", err)
	}
	return n, nil
}

type GeocodeSeed struct {
	Address string  `json:"address"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

// LoadGeocodeSeeds reads known address coordinates from a JSON file, e.g. a
// depot list, for pre-warming the geocode cache.
func LoadGeocodeSeeds(jsonPath string) (map[string]domain.Coordinates, error) {
	bytes, err := os.ReadFile(jsonPath)
	if err != nil {
		return nil, fmt.Errorf("load geocode seeds: read %q: %w", jsonPath, err)
	}

	var data []GeocodeSeed
	if err := json.Unmarshal(bytes, &data); err != nil {
		return nil, fmt.Errorf("load geocode seeds: parse json: %w", err)
	}

	out := make(map[string]domain.Coordinates, len(data))
	for i, item := range data {
		addr := strings.Join(strings.Fields(item.Address), " ")
		if addr == "" {
			return nil, fmt.Errorf("load geocode seeds: item %d: address cannot be empty", i+1)
		}

		c := domain.Coordinates{Lat: item.Lat, Lon: item.Lon}
		if err := c.Validate(); err != nil {
			return nil, fmt.Errorf("load geocode seeds: item %d: %w", i+1, err)
		}
		out[addr] = c
	}

	return out, nil
}
