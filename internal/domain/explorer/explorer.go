package explorer

import "strings"

type Color string

const (
	White Color = "white"
	Black Color = "black"
	// NoColor is the winner of a drawn game.
	NoColor Color = ""
)

type Source string

const (
	SourceLichess Source = "lichess"
	SourceMasters Source = "masters"
)

type Variant struct {
	Key  string `json:"key" bson:"key"`
	Name string `json:"name" bson:"name"`
}

// Standard reports whether the variant uses the plain opening explorer title.
func (v Variant) Standard() bool {
	return v.Key == "" || v.Key == "standard" || v.Key == "fromPosition"
}

const StartingFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

type Position struct {
	FEN string `json:"fen" bson:"fen"`
	Ply int    `json:"ply" bson:"ply"`
}

// SideToMove returns "w" or "b" from the second FEN field, or "" when absent.
func SideToMove(fen string) string {
	fields := strings.Fields(fen)
	if len(fields) < 2 || fields[1] == "" {
		return ""
	}
	return fields[1][:1]
}

type Player struct {
	Name   string `json:"name" bson:"name"`
	Rating int    `json:"rating" bson:"rating"`
}

type Game struct {
	ID     string `json:"id" bson:"id"`
	Year   int    `json:"year" bson:"year"`
	Winner Color  `json:"winner,omitempty" bson:"winner,omitempty"`
	White  Player `json:"white" bson:"white"`
	Black  Player `json:"black" bson:"black"`
}

// Move is one candidate move from a position. Opening databases fill the game
// counters, tablebases fill WDL, DTZ, DTM and the terminal flags.
type Move struct {
	UCI           string `json:"uci" bson:"uci"`
	SAN           string `json:"san" bson:"san"`
	White         int64  `json:"white" bson:"white"`
	Draws         int64  `json:"draws" bson:"draws"`
	Black         int64  `json:"black" bson:"black"`
	AverageRating int    `json:"averageRating" bson:"average_rating"`

	WDL                  *int `json:"wdl" bson:"wdl"`
	DTZ                  *int `json:"dtz" bson:"dtz"`
	DTM                  *int `json:"dtm" bson:"dtm"`
	Zeroing              bool `json:"zeroing" bson:"zeroing"`
	Checkmate            bool `json:"checkmate" bson:"checkmate"`
	Stalemate            bool `json:"stalemate" bson:"stalemate"`
	InsufficientMaterial bool `json:"insufficient_material" bson:"insufficient_material"`
}

func (m Move) Total() int64 {
	return m.White + m.Draws + m.Black
}

// Tablebase WDL values, relative to the side to move after the move is played.
const (
	WDLWin         = -2
	WDLCursedWin   = -1
	WDLDraw        = 0
	WDLBlessedLoss = 1
	WDLLoss        = 2
)
