package pg

import (
	"context"
	"fmt"
	"io/fs"
	"sort"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/damont/track/internal/observability/logger"
)

// Migrate aplica los archivos *.sql del filesystem embebido, en orden lexical.
// Cada archivo corre en su propia transacción.
func Migrate(ctx context.Context, dsn string, fsys fs.FS) error {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return fmt.Errorf("pg: connect: %w", err)
	}
	defer pool.Close()

	entries, err := fs.Glob(fsys, "*.sql")
	if err != nil {
		return err
	}
	sort.Strings(entries)

	log := logger.From(ctx).With(logger.Component("migrate"))
	for _, name := range entries {
		b, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("pg: read %s: %w", name, err)
		}
		tx, err := pool.Begin(ctx)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, string(b)); err != nil {
			_ = tx.Rollback(ctx)
			return fmt.Errorf("pg: apply %s: %w", name, err)
		}
		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("pg: commit %s: %w", name, err)
		}
		log.Info("migration applied", logger.Key(name))
	}
	return nil
}
