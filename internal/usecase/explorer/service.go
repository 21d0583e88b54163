package explorer

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/notnil/chess"
	"go.uber.org/zap"

	domain "chess_explorer/internal/domain/explorer"
	explorerErrors "chess_explorer/internal/errors"
)

type SessionStore interface {
	SaveSession(ctx context.Context, session domain.Session) error
	LoadSession(ctx context.Context, id string) (domain.Session, error)
	DeleteSession(ctx context.Context, id string) error
}

type ResponseStore interface {
	FindResponse(ctx context.Context, db domain.Source, variant string, fen string) (domain.Response, error)
}

type NewSessionRequest struct {
	FEN         string         `json:"fen"`
	Ply         int            `json:"ply"`
	Orientation domain.Color   `json:"orientation"`
	Variant     domain.Variant `json:"variant"`
	DB          domain.Source  `json:"db"`
}

// Service owns the controller state of explorer sessions.
type Service struct {
	sessions  SessionStore
	responses ResponseStore
	log       *zap.SugaredLogger

	locks sessionLocks
}

func NewService(sessions SessionStore, responses ResponseStore, log *zap.SugaredLogger) *Service {
	return &Service{sessions: sessions, responses: responses, log: log}
}

func (s *Service) NewSession(ctx context.Context, req NewSessionRequest) (domain.Session, error) {
	if req.FEN == "" {
		req.FEN = domain.StartingFEN
	}
	if domain.SideToMove(req.FEN) == "" {
		return domain.Session{}, fmt.Errorf("%w: fen %q has no side to move", explorerErrors.ErrInvalidSession, req.FEN)
	}
	switch req.Orientation {
	case domain.White, domain.Black, domain.NoColor:
	default:
		return domain.Session{}, fmt.Errorf("%w: orientation %q", explorerErrors.ErrInvalidSession, req.Orientation)
	}
	switch req.DB {
	case domain.SourceLichess, domain.SourceMasters, "":
	default:
		return domain.Session{}, fmt.Errorf("%w: database %q", explorerErrors.ErrInvalidSession, req.DB)
	}
	if req.Ply < 0 {
		return domain.Session{}, fmt.Errorf("%w: negative ply", explorerErrors.ErrInvalidSession)
	}
	if req.Orientation == domain.NoColor {
		req.Orientation = domain.White
	}
	if req.Variant.Key == "" {
		req.Variant = domain.Variant{Key: "standard", Name: "Standard"}
	}

	cfg := domain.DefaultConfig()
	if req.DB != "" {
		cfg.DB = req.DB
	}

	session := domain.Session{
		ID:          uuid.New().String(),
		Node:        domain.Position{FEN: req.FEN, Ply: req.Ply},
		Orientation: req.Orientation,
		Variant:     req.Variant,
		Enabled:     true,
		WithGames:   true,
		Config:      cfg,
	}
	if err := s.sessions.SaveSession(ctx, session); err != nil {
		return domain.Session{}, fmt.Errorf("failed to save session: %w", err)
	}
	s.log.Infof("explorer session %s opened at %q", session.ID, session.Node.FEN)
	return session, nil
}

func (s *Service) Session(ctx context.Context, id string) (domain.Session, error) {
	return s.sessions.LoadSession(ctx, id)
}

func (s *Service) DeleteSession(ctx context.Context, id string) error {
	return s.sessions.DeleteSession(ctx, id)
}

// Pending is the state shown while the response of the session position is
// being looked up.
func (s *Service) Pending(ctx context.Context, id string) (domain.Session, domain.State, error) {
	session, err := s.sessions.LoadSession(ctx, id)
	if err != nil {
		return domain.Session{}, domain.State{}, err
	}
	state := stateOf(session, nil)
	state.Loading = !session.Failing
	return session, state, nil
}

// Snapshot loads the session and the response for its position. A lookup
// error marks the session failing instead of failing the call. The lookup
// runs unlocked; its result is dropped when the session moved meanwhile.
func (s *Service) Snapshot(ctx context.Context, id string) (domain.Session, domain.State, error) {
	seen, err := s.sessions.LoadSession(ctx, id)
	if err != nil {
		return domain.Session{}, domain.State{}, err
	}
	if !seen.Enabled {
		return seen, stateOf(seen, nil), nil
	}
	found, lookupErr := s.lookup(ctx, seen)

	var resp domain.Response
	session, err := s.update(ctx, id, func(session *domain.Session) error {
		if !session.Enabled || session.Node.FEN != seen.Node.FEN || session.Config.DB != seen.Config.DB {
			return errStale
		}
		if lookupErr != nil {
			s.log.Errorf("explorer lookup for %q failed: %v", session.Node.FEN, lookupErr)
			session.Failing = true
			return nil
		}
		session.Failing = false
		resp = found

		if session.CountedFEN != session.Node.FEN {
			if domain.IsEmpty(found) {
				session.MovesAway++
			} else {
				session.MovesAway = 0
			}
			session.CountedFEN = session.Node.FEN
		}
		return nil
	})
	if errors.Is(err, errStale) {
		// The change that made the lookup stale renders the new position.
		return s.Pending(ctx, id)
	}
	if err != nil {
		return domain.Session{}, domain.State{}, err
	}
	return session, stateOf(session, resp), nil
}

func (s *Service) lookup(ctx context.Context, session domain.Session) (domain.Response, error) {
	resp, err := s.responses.FindResponse(ctx, session.Config.DB, session.Variant.Key, domain.PositionKey(session.Node.FEN))
	if errors.Is(err, explorerErrors.ErrPositionNotFound) {
		return &domain.OpeningResponse{FEN: session.Node.FEN}, nil
	}
	if err != nil {
		return nil, err
	}
	return domain.WithFEN(resp, session.Node.FEN), nil
}

func stateOf(session domain.Session, resp domain.Response) domain.State {
	return domain.State{
		Enabled:     session.Enabled,
		Current:     resp,
		Failing:     session.Failing,
		MovesAway:   session.MovesAway,
		WithGames:   session.WithGames,
		HoveringUCI: session.HoveringUCI,
		Config:      session.Config,
	}
}

func (s *Service) update(ctx context.Context, id string, fn func(*domain.Session) error) (domain.Session, error) {
	unlock := s.locks.lock(id)
	defer unlock()

	session, err := s.sessions.LoadSession(ctx, id)
	if err != nil {
		return domain.Session{}, err
	}
	if err = fn(&session); err != nil {
		return domain.Session{}, err
	}
	if err = s.sessions.SaveSession(ctx, session); err != nil {
		return domain.Session{}, fmt.Errorf("failed to save session: %w", err)
	}
	return session, nil
}

func (s *Service) SetHoveringUCI(ctx context.Context, id string, uci string) error {
	_, err := s.update(ctx, id, func(session *domain.Session) error {
		session.HoveringUCI = uci
		return nil
	})
	return err
}

// ExplorerMove plays uci on the session board.
func (s *Service) ExplorerMove(ctx context.Context, id string, uci string) error {
	_, err := s.update(ctx, id, func(session *domain.Session) error {
		fen, err := applyUCI(session.Node.FEN, uci)
		if err != nil {
			return err
		}
		session.Node = domain.Position{FEN: fen, Ply: session.Node.Ply + 1}
		session.HoveringUCI = ""
		return nil
	})
	if err == nil {
		s.log.Infof("explorer session %s played %s", id, uci)
	}
	return err
}

func applyUCI(fen string, uci string) (string, error) {
	opt, err := chess.FEN(fen)
	if err != nil {
		return "", fmt.Errorf("%w: %v", explorerErrors.ErrIllegalMove, err)
	}
	game := chess.NewGame(opt)
	move, err := chess.UCINotation{}.Decode(game.Position(), uci)
	if err != nil {
		return "", fmt.Errorf("%w: %v", explorerErrors.ErrIllegalMove, err)
	}
	if err = game.Move(move); err != nil {
		return "", fmt.Errorf("%w: %v", explorerErrors.ErrIllegalMove, err)
	}
	return game.Position().String(), nil
}

// Toggle switches the explorer on or off.
func (s *Service) Toggle(ctx context.Context, id string) error {
	_, err := s.update(ctx, id, func(session *domain.Session) error {
		session.Enabled = !session.Enabled
		session.HoveringUCI = ""
		return nil
	})
	return err
}

func (s *Service) ToggleConfig(ctx context.Context, id string) error {
	_, err := s.update(ctx, id, func(session *domain.Session) error {
		session.Config.Open = !session.Config.Open
		return nil
	})
	return err
}

func (s *Service) SelectDB(ctx context.Context, id string, db domain.Source) error {
	if db != domain.SourceLichess && db != domain.SourceMasters {
		return explorerErrors.ErrUnknownEvent
	}
	_, err := s.update(ctx, id, func(session *domain.Session) error {
		session.Config.DB = db
		session.CountedFEN = ""
		return nil
	})
	return err
}

func (s *Service) ToggleRating(ctx context.Context, id string, rating int) error {
	if !slices.Contains(domain.RatingBands, rating) {
		return explorerErrors.ErrUnknownEvent
	}
	_, err := s.update(ctx, id, func(session *domain.Session) error {
		session.Config.Ratings = toggle(session.Config.Ratings, rating)
		return nil
	})
	return err
}

func (s *Service) ToggleSpeed(ctx context.Context, id string, speed string) error {
	if !slices.Contains(domain.Speeds, speed) {
		return explorerErrors.ErrUnknownEvent
	}
	_, err := s.update(ctx, id, func(session *domain.Session) error {
		session.Config.Speeds = toggle(session.Config.Speeds, speed)
		return nil
	})
	return err
}

// toggle removes v from values, or adds it. The last value is never removed.
func toggle[T comparable](values []T, v T) []T {
	i := slices.Index(values, v)
	if i < 0 {
		return append(slices.Clone(values), v)
	}
	if len(values) == 1 {
		return values
	}
	return slices.Delete(slices.Clone(values), i, i+1)
}
