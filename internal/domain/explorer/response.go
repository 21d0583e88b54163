package explorer

import (
	"bytes"
	"encoding/json"
	"fmt"

	explorerErrors "chess_explorer/internal/errors"
)

type Kind string

const (
	KindOpening   Kind = "opening"
	KindTablebase Kind = "tablebase"
)

// Response is either an *OpeningResponse or a *TablebaseResponse.
type Response interface {
	Kind() Kind
	Position() string
	isResponse()
}

type OpeningResponse struct {
	FEN         string `json:"fen"`
	OpeningName string `json:"opening_name,omitempty"`
	Moves       []Move `json:"moves"`
	RecentGames []Game `json:"recentGames,omitempty"`
	TopGames    []Game `json:"topGames,omitempty"`
}

func (*OpeningResponse) Kind() Kind         { return KindOpening }
func (r *OpeningResponse) Position() string { return r.FEN }
func (*OpeningResponse) isResponse()        {}

type TablebaseResponse struct {
	FEN       string `json:"fen"`
	Moves     []Move `json:"moves"`
	Checkmate bool   `json:"checkmate"`
	Stalemate bool   `json:"stalemate"`
}

func (*TablebaseResponse) Kind() Kind         { return KindTablebase }
func (r *TablebaseResponse) Position() string { return r.FEN }
func (*TablebaseResponse) isResponse()        {}

// IsEmpty reports whether the response carries nothing to tabulate.
func IsEmpty(r Response) bool {
	switch resp := r.(type) {
	case *OpeningResponse:
		return len(resp.Moves) == 0 && len(resp.RecentGames) == 0 && len(resp.TopGames) == 0
	case *TablebaseResponse:
		return len(resp.Moves) == 0
	}
	return true
}

type wireResponse struct {
	FEN         string          `json:"fen"`
	Opening     json.RawMessage `json:"opening"`
	Tablebase   json.RawMessage `json:"tablebase"`
	Moves       []Move          `json:"moves"`
	RecentGames []Game          `json:"recentGames"`
	TopGames    []Game          `json:"topGames"`
	Checkmate   bool            `json:"checkmate"`
	Stalemate   bool            `json:"stalemate"`
}

type openingInfo struct {
	ECO  string `json:"eco"`
	Name string `json:"name"`
}

// DecodeResponse parses an upstream explorer payload. The "opening" or
// "tablebase" field marks the kind and exactly one of them must be set.
func DecodeResponse(data []byte) (Response, error) {
	var wire wireResponse
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("invalid explorer response: %w", err)
	}

	isOpening := present(wire.Opening)
	isTablebase := present(wire.Tablebase)
	if isOpening == isTablebase {
		return nil, explorerErrors.ErrAmbiguousResponse
	}

	if isTablebase {
		return &TablebaseResponse{
			FEN:       wire.FEN,
			Moves:     wire.Moves,
			Checkmate: wire.Checkmate,
			Stalemate: wire.Stalemate,
		}, nil
	}

	resp := &OpeningResponse{
		FEN:         wire.FEN,
		Moves:       wire.Moves,
		RecentGames: wire.RecentGames,
		TopGames:    wire.TopGames,
	}
	var info openingInfo
	if json.Unmarshal(wire.Opening, &info) == nil {
		resp.OpeningName = info.Name
	}
	return resp, nil
}

// EncodeResponse is the inverse of DecodeResponse.
func EncodeResponse(r Response) ([]byte, error) {
	wire := wireResponse{FEN: r.Position()}
	switch resp := r.(type) {
	case *OpeningResponse:
		wire.Opening = json.RawMessage("true")
		if resp.OpeningName != "" {
			raw, err := json.Marshal(openingInfo{Name: resp.OpeningName})
			if err != nil {
				return nil, err
			}
			wire.Opening = raw
		}
		wire.Moves = resp.Moves
		wire.RecentGames = resp.RecentGames
		wire.TopGames = resp.TopGames
	case *TablebaseResponse:
		wire.Tablebase = json.RawMessage("true")
		wire.Moves = resp.Moves
		wire.Checkmate = resp.Checkmate
		wire.Stalemate = resp.Stalemate
	default:
		return nil, explorerErrors.ErrAmbiguousResponse
	}
	return json.Marshal(wire)
}

func present(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null")) && !bytes.Equal(trimmed, []byte("false"))
}
