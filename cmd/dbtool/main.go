package main

import (
	"context"
	"database/sql"
	"flag"
	"log"
	"route-optimizer-service/internal/adapters/cache"
	"route-optimizer-service/internal/adapters/repositories"
	"route-optimizer-service/internal/config"
	"route-optimizer-service/internal/platform/db"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// dbtool prepares the Postgres cache database: schema, optional geocode seeds,
// and purging of stale matrices.
func main() {
	seedPath := flag.String("seed", "", "JSON file of known address coordinates to load into the geocode cache")
	purgeOlder := flag.Duration("purge-older-than", 0, "delete cached matrices older than this (e.g. 168h); 0 keeps everything")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	databaseURL := config.Get("DATABASE_URL", "")
	if strings.TrimSpace(databaseURL) == "" {
		log.Fatal("DATABASE_URL is required")
	}

	conn, err := db.Open(databaseURL)
	if err != nil {
		log.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	err = run(ctx, conn, *seedPath, *purgeOlder)
	cancel()
	conn.Close()
	if err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, conn *sql.DB, seedPath string, purgeOlder time.Duration) error {
	log.Println("Initializing database schema...")
	if err := repositories.InitSchema(ctx, conn, repositories.Postgres); err != nil {
		return err
	}
	log.Println("Schema ready.")

	if seedPath != "" {
		log.Println("Seeding geocode cache...")
		seeds, err := repositories.LoadGeocodeSeeds(seedPath)
		if err != nil {
			return err
		}
		if err := cache.NewSQLGeocodeCache(conn).PutMany(ctx, seeds); err != nil {
			return err
		}
		log.Printf("Seeded %d addresses.", len(seeds))
	}

	if purgeOlder > 0 {
		cutoff := time.Now().Add(-purgeOlder).Unix()
		n, err := repositories.PurgeMatrixCache(ctx, conn, repositories.Postgres, cutoff)
		if err != nil {
			return err
		}
		log.Printf("Purged %d cached matrices.", n)
	}

	return nil
}
