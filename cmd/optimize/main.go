package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"route-optimizer-service/internal/api/dto"
	"route-optimizer-service/internal/app"
	"route-optimizer-service/internal/config"
	"route-optimizer-service/internal/platform/obs"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// optimize runs one optimization from a JSON request file (or stdin) and prints
// the response JSON. Provider and cache settings come from the environment; the
// flags override the most common ones.
func main() {
	in := flag.String("in", "-", "request JSON file, - for stdin")
	provider := flag.String("provider", "", "ors or haversine (default: MATRIX_PROVIDER)")
	backend := flag.String("cache", "none", "matrix cache backend")
	timeout := flag.Duration("timeout", 2*time.Minute, "overall run timeout")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}
	if *provider != "" {
		os.Setenv("MATRIX_PROVIDER", *provider)
	}
	os.Setenv("CACHE_BACKEND", *backend)

	if err := run(*in, *timeout); err != nil {
		log.Println(err)
		os.Exit(1)
	}
}

func run(in string, timeout time.Duration) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, err := obs.NewLogger(cfg.LogEnv)
	if err != nil {
		return err
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	req, err := readRequest(in)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	a, err := app.Build(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.Optimizer.Optimize(ctx, req.ToService())
	if err != nil {
		return fmt.Errorf("optimize: %w", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(dto.FromResult(res))
}

func readRequest(path string) (dto.OptimizeRequest, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return dto.OptimizeRequest{}, fmt.Errorf("read request: %w", err)
		}
		defer f.Close()
		r = f
	}

	var req dto.OptimizeRequest
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return dto.OptimizeRequest{}, fmt.Errorf("read request %q: %w", path, err)
	}
	return req, nil
}
