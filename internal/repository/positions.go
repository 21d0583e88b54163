package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	domain "chess_explorer/internal/domain/explorer"
	explorerErrors "chess_explorer/internal/errors"
)

const positionsCollection = "explorer_positions"

// positionDocument is one explorer response as stored in mongo, keyed by the
// position key of its FEN. Kind tells which of the response fields are
// meaningful.
type positionDocument struct {
	DB          domain.Source `bson:"db"`
	Variant     string        `bson:"variant"`
	FEN         string        `bson:"fen"`
	Kind        domain.Kind   `bson:"kind"`
	OpeningName string        `bson:"opening_name,omitempty"`
	Moves       []domain.Move `bson:"moves"`
	RecentGames []domain.Game `bson:"recent_games,omitempty"`
	TopGames    []domain.Game `bson:"top_games,omitempty"`
	Checkmate   bool          `bson:"checkmate,omitempty"`
	Stalemate   bool          `bson:"stalemate,omitempty"`
}

func (d positionDocument) toResponse() (domain.Response, error) {
	switch d.Kind {
	case domain.KindOpening:
		return &domain.OpeningResponse{
			FEN:         d.FEN,
			OpeningName: d.OpeningName,
			Moves:       d.Moves,
			RecentGames: d.RecentGames,
			TopGames:    d.TopGames,
		}, nil
	case domain.KindTablebase:
		return &domain.TablebaseResponse{
			FEN:       d.FEN,
			Moves:     d.Moves,
			Checkmate: d.Checkmate,
			Stalemate: d.Stalemate,
		}, nil
	}
	return nil, fmt.Errorf("%w: stored kind %q", explorerErrors.ErrAmbiguousResponse, d.Kind)
}

func newPositionDocument(db domain.Source, variant string, resp domain.Response) (positionDocument, error) {
	doc := positionDocument{DB: db, Variant: variant, FEN: domain.PositionKey(resp.Position()), Kind: resp.Kind()}
	switch r := resp.(type) {
	case *domain.OpeningResponse:
		doc.OpeningName = r.OpeningName
		doc.Moves = r.Moves
		doc.RecentGames = r.RecentGames
		doc.TopGames = r.TopGames
	case *domain.TablebaseResponse:
		doc.Moves = r.Moves
		doc.Checkmate = r.Checkmate
		doc.Stalemate = r.Stalemate
	default:
		return positionDocument{}, explorerErrors.ErrAmbiguousResponse
	}
	return doc, nil
}

func positionFilter(db domain.Source, variant string, fen string) bson.D {
	return bson.D{{Key: "db", Value: db}, {Key: "variant", Value: variant}, {Key: "fen", Value: domain.PositionKey(fen)}}
}

type MongoPositionStorage struct {
	mongo *mongo.Database
	log   *zap.SugaredLogger
}

func NewMongoPositionStorage(mongo *mongo.Database, log *zap.SugaredLogger) *MongoPositionStorage {
	return &MongoPositionStorage{mongo: mongo, log: log}
}

func (m *MongoPositionStorage) FindResponse(ctx context.Context, db domain.Source, variant string, fen string) (domain.Response, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var doc positionDocument
	err := m.mongo.Collection(positionsCollection).FindOne(ctx, positionFilter(db, variant, fen)).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, explorerErrors.ErrPositionNotFound
		}
		return nil, fmt.Errorf("failed to find position %q: %w", fen, err)
	}
	return doc.toResponse()
}

// SaveResponse inserts or replaces the response stored for a position.
func (m *MongoPositionStorage) SaveResponse(ctx context.Context, db domain.Source, variant string, resp domain.Response) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	doc, err := newPositionDocument(db, variant, resp)
	if err != nil {
		return err
	}
	_, err = m.mongo.Collection(positionsCollection).ReplaceOne(ctx,
		positionFilter(db, variant, doc.FEN), doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to save position %q: %w", doc.FEN, err)
	}
	return nil
}

// EnsureIndexes creates the unique lookup index of the positions collection.
func (m *MongoPositionStorage) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := m.mongo.Collection(positionsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "db", Value: 1}, {Key: "variant", Value: 1}, {Key: "fen", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create positions index: %w", err)
	}
	m.log.Info("explorer positions index is ready")
	return nil
}
