// Command import loads explorer payloads into the positions collection.
//
// Usage:
//
//	explorer-import positions --db lichess --variant standard openings.ndjson
//	explorer-import positions --db masters masters.ndjson
//	explorer-import index
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"chess_explorer/internal/adapters"
	"chess_explorer/internal/bootstrap"
	domain "chess_explorer/internal/domain/explorer"
	repo "chess_explorer/internal/repository"
	explorerUC "chess_explorer/internal/usecase/explorer"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	root := &cobra.Command{
		Use:   "explorer-import",
		Short: "Explorer position store tooling",
	}
	root.AddCommand(positionsCmd(logger))
	root.AddCommand(indexCmd(logger))

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger() *zap.SugaredLogger {
	logger, err := zap.NewProduction()
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	return logger.Sugar()
}

func positionsCmd(log *zap.SugaredLogger) *cobra.Command {
	var db, variant string
	cmd := &cobra.Command{
		Use:   "positions [file...]",
		Short: "Import newline delimited explorer payloads, stdin when no file is given",
		RunE: func(cmd *cobra.Command, args []string) error {
			source := domain.Source(db)
			if source != domain.SourceLichess && source != domain.SourceMasters {
				return fmt.Errorf("unknown database %q", db)
			}
			return withStore(log, func(ctx context.Context, cfg *bootstrap.Config, positions *repo.MongoPositionStorage) error {
				redisAdapter := adapters.NewAdapterRedis(cfg, log)
				if err := redisAdapter.Init(ctx); err != nil {
					return err
				}
				defer redisAdapter.Close(context.Background())
				// Saving through the cache evicts what the server cached for
				// the re-imported positions.
				store := repo.NewCachedResponseStorage(positions, redisAdapter.GetClient(), cfg.ResponseCacheTTL, log)

				if len(args) == 0 {
					return importFrom(ctx, log, store, source, variant, "stdin", os.Stdin)
				}
				for _, path := range args {
					f, err := os.Open(path)
					if err != nil {
						return err
					}
					err = importFrom(ctx, log, store, source, variant, path, f)
					f.Close()
					if err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&db, "db", string(domain.SourceLichess), "Explorer database: lichess or masters")
	cmd.Flags().StringVar(&variant, "variant", "standard", "Variant key")
	return cmd
}

func importFrom(ctx context.Context, log *zap.SugaredLogger, store explorerUC.ResponseSaver, db domain.Source, variant, name string, r io.Reader) error {
	n, err := explorerUC.ImportResponses(ctx, store, db, variant, r)
	log.Infow("imported explorer positions", "source", name, "db", db, "variant", variant, "count", n)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

func indexCmd(log *zap.SugaredLogger) *cobra.Command {
	return &cobra.Command{
		Use:   "index",
		Short: "Create the positions lookup index",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(log, func(ctx context.Context, _ *bootstrap.Config, positions *repo.MongoPositionStorage) error {
				return positions.EnsureIndexes(ctx)
			})
		},
	}
}

func withStore(log *zap.SugaredLogger, fn func(ctx context.Context, cfg *bootstrap.Config, positions *repo.MongoPositionStorage) error) error {
	cfg, err := bootstrap.Setup(".env")
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mongoAdapter := adapters.NewAdapterMongo(cfg, log)
	if err = mongoAdapter.Init(ctx); err != nil {
		return err
	}
	defer mongoAdapter.Close(context.Background())

	return fn(ctx, cfg, repo.NewMongoPositionStorage(mongoAdapter.Database, log))
}
