// Command keygen issues API keys directly against the database, for
// bootstrapping a deployment before any client holds a key.
//
//	keygen -n 2
//	keygen -list
package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver
	"github.com/joho/godotenv"

	"github.com/dudoxx/dudoxx-api/internal/config"
	"github.com/dudoxx/dudoxx-api/internal/platform/postgres"
	"github.com/dudoxx/dudoxx-api/internal/service"
)

func main() {
	count := flag.Int("n", 1, "number of keys to issue")
	list := flag.Bool("list", false, "list stored keys instead of issuing new ones")
	configPath := flag.String("config", "", "path to a config file")
	flag.Parse()

	if err := run(*configPath, *count, *list, os.Stdout); err != nil {
		log.Fatalf("keygen: %v", err)
	}
}

func run(configPath string, count int, list bool, out io.Writer) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}
	cfg, err := config.LoadFrom(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	db, err := sql.Open("pgx", cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("failed to open database connection: %w", err)
	}
	defer func() { _ = db.Close() }()

	keys, err := service.NewAPIKeyService(postgres.NewPostgresAPIKeyStore(db, logger), db, cfg.APIKeys, logger)
	if err != nil {
		return err
	}

	if list {
		return printKeys(ctx, keys, out)
	}
	return issueKeys(ctx, keys, count, out)
}

func issueKeys(ctx context.Context, keys service.APIKeyService, count int, out io.Writer) error {
	if count < 1 {
		return fmt.Errorf("-n must be at least 1, got %d", count)
	}
	for i := 0; i < count; i++ {
		created, err := keys.CreateKey(ctx)
		if err != nil {
			return fmt.Errorf("failed to create key %d: %w", i+1, err)
		}
		fmt.Fprintf(out, "Key: %s\nPrefix: %s\nCreated: %s\n\n",
			created.Key, created.Prefix, created.CreatedAt.Format(time.RFC3339))
	}
	return nil
}

func printKeys(ctx context.Context, keys service.APIKeyService, out io.Writer) error {
	stored, err := keys.ListKeys(ctx)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PREFIX\tACTIVE\tCREATED\tLAST USED")
	for _, k := range stored {
		lastUsed := "-"
		if k.LastUsedAt != nil {
			lastUsed = k.LastUsedAt.Format(time.RFC3339)
		}
		fmt.Fprintf(tw, "%s\t%t\t%s\t%s\n", k.Prefix, k.IsActive, k.CreatedAt.Format(time.RFC3339), lastUsed)
	}
	return tw.Flush()
}
