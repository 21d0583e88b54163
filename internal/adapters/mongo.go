package adapters

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"chess_explorer/internal/bootstrap"
)

type AdapterMongo struct {
	Client   *mongo.Client
	Database *mongo.Database
	cfg      *bootstrap.Config
	log      *zap.SugaredLogger
}

func NewAdapterMongo(cfg *bootstrap.Config, log *zap.SugaredLogger) *AdapterMongo {
	return &AdapterMongo{
		cfg: cfg,
		log: log,
	}
}

func (a *AdapterMongo) Init(ctx context.Context) error {
	clientOpts := options.Client().ApplyURI(a.cfg.MongoUri)

	ctxConnect, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctxConnect, clientOpts)
	if err != nil {
		return fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err = client.Ping(ctxConnect, nil); err != nil {
		_ = client.Disconnect(ctx)
		return fmt.Errorf("failed to ping mongodb: %w", err)
	}

	a.Client = client
	a.Database = client.Database(a.cfg.MongoDatabase)

	a.log.Infof("connected to mongodb database %s", a.cfg.MongoDatabase)
	return nil
}

func (a *AdapterMongo) Close(ctx context.Context) error {
	if a.Client != nil {
		return a.Client.Disconnect(ctx)
	}
	return nil
}
