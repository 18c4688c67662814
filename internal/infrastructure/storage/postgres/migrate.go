package postgres

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"

	"stockledger/pkg/logger"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrate applies the embedded schema files in name order.
// Every statement is idempotent, so running it on each start is safe.
func Migrate(ctx context.Context, pool *Pool) error {
	names, err := fs.Glob(migrationsFS, "migrations/*.sql")
	if err != nil {
		return fmt.Errorf("list migrations: %w", err)
	}
	sort.Strings(names)

	for _, name := range names {
		body, err := migrationsFS.ReadFile(name)
		if err != nil {
			return fmt.Errorf("read %s: %w", name, err)
		}
		if _, err := pool.Exec(ctx, string(body)); err != nil {
			return fmt.Errorf("apply %s: %w", name, err)
		}
		logger.Info(ctx, "migration applied", "file", name)
	}
	return nil
}
