package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"chess_explorer/internal/adapters"
	"chess_explorer/internal/bootstrap"
	explorerDelivery "chess_explorer/internal/delivery/explorer"
	repo "chess_explorer/internal/repository"
	explorerUC "chess_explorer/internal/usecase/explorer"
)

type mainDeliveryHandler struct {
	explorer *explorerDelivery.ExplorerHandler
}

type dataBaseAdapters struct {
	redisAdapter *adapters.AdapterRedis
	mongoAdapter *adapters.AdapterMongo
}

func main() {
	logger := NewLogger()
	defer logger.Sync()

	cfg, err := bootstrap.Setup(".env")
	if err != nil {
		logger.Errorw("Failed to setup configuration", "error", err)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go handleShutdown(cancel, logger)

	databaseAdapters := initDatabaseAdapters(ctx, logger, *cfg)
	defer databaseAdapters.mongoAdapter.Close(context.Background())
	defer databaseAdapters.redisAdapter.Close(context.Background())

	r := chi.NewRouter()
	handlers := initializeDeliveryHandlers(ctx, *cfg, logger, databaseAdapters)
	handlers.Router(r, cfg.IsLocalCors, cfg.CorsOrigins)
	go handlers.explorer.RunJanitor(ctx, time.Minute)

	server := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
		defer stop()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Errorw("Failed to shutdown server", "error", err)
		}
	}()

	logger.Infof("Server is running on port %s", cfg.ServerPort)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatalw("Failed to start server", "error", err)
	}
}

func NewLogger() *zap.SugaredLogger {
	logger, err := zap.NewProduction()
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	return logger.Sugar()
}

func (h *mainDeliveryHandler) Router(r *chi.Mux, isLocalCors bool, origins []string) {
	if isLocalCors {
		r.Use(cors.New(cors.Options{
			AllowedOrigins:   origins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
			AllowedHeaders:   []string{"Content-Type"},
			AllowCredentials: true,
		}).Handler)
	}
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	h.explorer.Routes(r)
}

func initDatabaseAdapters(ctx context.Context, log *zap.SugaredLogger, cfg bootstrap.Config) *dataBaseAdapters {
	mongoAdapter := adapters.NewAdapterMongo(&cfg, log)
	if err := mongoAdapter.Init(ctx); err != nil {
		log.Fatalw("Failed to initialize MongoDB", "error", err)
	}

	redisAdapter := adapters.NewAdapterRedis(&cfg, log)
	if err := redisAdapter.Init(ctx); err != nil {
		log.Fatalw("Failed to initialize Redis", "error", err)
	}

	log.Info("Database adapters are initialized")
	return &dataBaseAdapters{
		redisAdapter: redisAdapter,
		mongoAdapter: mongoAdapter,
	}
}

func initializeDeliveryHandlers(
	ctx context.Context,
	cfg bootstrap.Config,
	log *zap.SugaredLogger,
	databaseAdapters *dataBaseAdapters,
) *mainDeliveryHandler {
	positions := repo.NewMongoPositionStorage(databaseAdapters.mongoAdapter.Database, log)
	if err := positions.EnsureIndexes(ctx); err != nil {
		log.Warnw("Positions index is missing", "error", err)
	}
	responses := repo.NewCachedResponseStorage(positions, databaseAdapters.redisAdapter.GetClient(), cfg.ResponseCacheTTL, log)
	sessions := repo.NewSessionRedisStorage(databaseAdapters.redisAdapter.GetClient(), cfg.SessionTTL, log)

	service := explorerUC.NewService(sessions, responses, log)

	return &mainDeliveryHandler{
		explorer: explorerDelivery.NewExplorerHandler(cfg, log, service),
	}
}

func handleShutdown(cancelFunc context.CancelFunc, log *zap.SugaredLogger) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	log.Info("Received shutdown signal")
	cancelFunc()
}
