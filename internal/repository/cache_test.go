package repo

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	domain "chess_explorer/internal/domain/explorer"
	explorerErrors "chess_explorer/internal/errors"
)

type MockResponseStore struct {
	mock.Mock
}

func (m *MockResponseStore) FindResponse(ctx context.Context, db domain.Source, variant string, fen string) (domain.Response, error) {
	args := m.Called(ctx, db, variant, fen)
	resp, _ := args.Get(0).(domain.Response)
	return resp, args.Error(1)
}

func (m *MockResponseStore) SaveResponse(ctx context.Context, db domain.Source, variant string, resp domain.Response) error {
	return m.Called(ctx, db, variant, resp).Error(0)
}

const fenStart = domain.StartingFEN

func TestCachedResponseStorage_StoresAndServes(t *testing.T) {
	stored := &domain.OpeningResponse{
		FEN:         fenStart,
		OpeningName: "Starting position",
		Moves:       []domain.Move{{UCI: "e2e4", SAN: "e4", White: 10, Draws: 5, Black: 7, AverageRating: 2100}},
		TopGames:    []domain.Game{{ID: "g1", Year: 1999, Winner: domain.White}},
	}
	next := new(MockResponseStore)
	next.On("FindResponse", mock.Anything, domain.SourceLichess, "standard", fenStart).Return(stored, nil).Once()

	client := newFakeRedis()
	cache := NewCachedResponseStorage(next, client, time.Minute, zap.NewNop().Sugar())
	ctx := context.Background()

	first, err := cache.FindResponse(ctx, domain.SourceLichess, "standard", fenStart)
	require.NoError(t, err)
	assert.Same(t, stored, first)
	assert.Equal(t, time.Minute, client.ttls[responseKey(domain.SourceLichess, "standard", fenStart)])

	second, err := cache.FindResponse(ctx, domain.SourceLichess, "standard", fenStart)
	require.NoError(t, err)
	assert.Equal(t, stored, second)

	next.AssertExpectations(t)
}

func TestCachedResponseStorage_NotFoundIsNotCached(t *testing.T) {
	next := new(MockResponseStore)
	next.On("FindResponse", mock.Anything, domain.SourceMasters, "standard", fenStart).
		Return(nil, explorerErrors.ErrPositionNotFound).Twice()

	client := newFakeRedis()
	cache := NewCachedResponseStorage(next, client, time.Minute, zap.NewNop().Sugar())

	for i := 0; i < 2; i++ {
		_, err := cache.FindResponse(context.Background(), domain.SourceMasters, "standard", fenStart)
		assert.ErrorIs(t, err, explorerErrors.ErrPositionNotFound)
	}
	assert.Zero(t, client.sets)
	next.AssertExpectations(t)
}

func TestCachedResponseStorage_FallsThrough(t *testing.T) {
	stored := &domain.TablebaseResponse{FEN: "8/8/8/8/8/8/8/K1k5 w - - 0 1"}
	next := new(MockResponseStore)
	next.On("FindResponse", mock.Anything, domain.SourceLichess, "standard", stored.FEN).Return(stored, nil).Twice()

	client := newFakeRedis()
	cache := NewCachedResponseStorage(next, client, time.Minute, zap.NewNop().Sugar())
	ctx := context.Background()

	client.values[responseKey(domain.SourceLichess, "standard", stored.FEN)] = `{"fen":"x"}`
	got, err := cache.FindResponse(ctx, domain.SourceLichess, "standard", stored.FEN)
	require.NoError(t, err)
	assert.Same(t, stored, got, "an undecodable entry is replaced")

	client.err = errConnRefused
	got, err = cache.FindResponse(ctx, domain.SourceLichess, "standard", stored.FEN)
	require.NoError(t, err)
	assert.Same(t, stored, got, "a cache outage does not fail the lookup")

	next.AssertExpectations(t)
}

func TestCachedResponseStorage_SaveEvicts(t *testing.T) {
	old := &domain.OpeningResponse{FEN: fenStart, Moves: []domain.Move{{UCI: "e2e4", White: 1}}}
	fresh := &domain.OpeningResponse{FEN: fenStart, Moves: []domain.Move{{UCI: "e2e4", White: 2}}}

	next := new(MockResponseStore)
	next.On("FindResponse", mock.Anything, domain.SourceLichess, "standard", fenStart).Return(old, nil).Once()
	next.On("SaveResponse", mock.Anything, domain.SourceLichess, "standard", fresh).Return(nil).Once()
	next.On("FindResponse", mock.Anything, domain.SourceLichess, "standard", fenStart).Return(fresh, nil).Once()

	client := newFakeRedis()
	cache := NewCachedResponseStorage(next, client, time.Hour, zap.NewNop().Sugar())
	ctx := context.Background()

	_, err := cache.FindResponse(ctx, domain.SourceLichess, "standard", fenStart)
	require.NoError(t, err)
	require.Contains(t, client.values, responseKey(domain.SourceLichess, "standard", fenStart))

	require.NoError(t, cache.SaveResponse(ctx, domain.SourceLichess, "standard", fresh))
	assert.NotContains(t, client.values, responseKey(domain.SourceLichess, "standard", fenStart))

	got, err := cache.FindResponse(ctx, domain.SourceLichess, "standard", fenStart)
	require.NoError(t, err)
	assert.EqualValues(t, 2, got.(*domain.OpeningResponse).Moves[0].White)
	next.AssertExpectations(t)
}

func TestCachedResponseStorage_SaveFailureKeepsCache(t *testing.T) {
	resp := &domain.OpeningResponse{FEN: fenStart}
	next := new(MockResponseStore)
	next.On("SaveResponse", mock.Anything, domain.SourceMasters, "standard", resp).Return(errConnRefused).Once()

	client := newFakeRedis()
	key := responseKey(domain.SourceMasters, "standard", fenStart)
	client.values[key] = "cached"
	cache := NewCachedResponseStorage(next, client, time.Hour, zap.NewNop().Sugar())

	assert.ErrorIs(t, cache.SaveResponse(context.Background(), domain.SourceMasters, "standard", resp), errConnRefused)
	assert.Contains(t, client.values, key)
}

func TestResponseKey_IgnoresMoveCounters(t *testing.T) {
	later := "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 4 3"
	assert.Equal(t, responseKey(domain.SourceLichess, "standard", fenStart), responseKey(domain.SourceLichess, "standard", later))
	assert.NotEqual(t, responseKey(domain.SourceLichess, "standard", fenStart), responseKey(domain.SourceMasters, "standard", fenStart))
}
