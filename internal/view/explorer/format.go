package explorer

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"chess_explorer/internal/domain/explorer"
	"chess_explorer/internal/view/dom"
)

var numberPrinter = message.NewPrinter(language.English)

// FormatNumber groups thousands: 1234567 -> "1,234,567".
func FormatNumber(n int64) string {
	return numberPrinter.Sprintf("%d", n)
}

// Segment is one colored part of a result bar.
type Segment struct {
	Key     string
	Percent float64
	// Width is the CSS width, rounded to a tenth of a percent.
	Width float64
	Label string
}

// ResultSegments splits the games of move into white, draws and black shares.
// Zero shares are omitted. The move must have at least one game.
func ResultSegments(move explorer.Move) []Segment {
	sum := float64(move.Total())
	counts := []struct {
		key   string
		count int64
	}{
		{"white", move.White},
		{"draws", move.Draws},
		{"black", move.Black},
	}

	segments := make([]Segment, 0, len(counts))
	for _, c := range counts {
		percent := float64(c.count) * 100 / sum
		if percent == 0 {
			continue
		}
		seg := Segment{
			Key:     c.key,
			Percent: percent,
			Width:   math.Round(float64(c.count)*1000/sum) / 10,
		}
		if percent > 12 {
			seg.Label = strconv.Itoa(int(math.Round(percent)))
			if percent > 20 {
				seg.Label += "%"
			}
		}
		segments = append(segments, seg)
	}
	return segments
}

func resultBar(move explorer.Move) *dom.Node {
	bar := dom.El("div", "bar")
	for _, seg := range ResultSegments(move) {
		span := dom.El("span", seg.Key).Set("style", "width: "+formatPercent(seg.Width))
		if seg.Label != "" {
			span.Append(dom.Text(seg.Label))
		}
		bar.Append(span)
	}
	return bar
}

func formatPercent(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64) + "%"
}

// DisplaySAN strips the pawn letter some databases prefix pawn moves with.
func DisplaySAN(san string) string {
	if strings.HasPrefix(san, "P") {
		return san[1:]
	}
	return san
}

func ResultGlyph(winner explorer.Color) string {
	switch winner {
	case explorer.White:
		return "1-0"
	case explorer.Black:
		return "0-1"
	}
	return "½-½"
}

func showResult(winner explorer.Color) *dom.Node {
	class := "draws"
	if winner == explorer.White || winner == explorer.Black {
		class = string(winner)
	}
	return dom.El("result", class, dom.Text(ResultGlyph(winner)))
}

// Winner attributes a tablebase move to the side that wins after it.
// stm is the side to move before the move ("w" or "b").
func Winner(stm string, move explorer.Move) explorer.Color {
	if move.WDL == nil || stm == "" {
		return explorer.NoColor
	}
	wdl := *move.WDL
	switch {
	case (stm[0] == 'w' && wdl < 0) || (stm[0] == 'b' && wdl > 0):
		return explorer.White
	case (stm[0] == 'b' && wdl < 0) || (stm[0] == 'w' && wdl > 0):
		return explorer.Black
	}
	return explorer.NoColor
}

// Outcome is the classification shown next to a tablebase move.
type Outcome string

const (
	OutcomeNone                 Outcome = ""
	OutcomeCheckmate            Outcome = "checkmate"
	OutcomeStalemate            Outcome = "stalemate"
	OutcomeInsufficientMaterial Outcome = "insufficient_material"
	OutcomeDraw                 Outcome = "draw"
	OutcomeCapture              Outcome = "capture"
	OutcomePawnMove             Outcome = "pawn_move"
	OutcomeDTZ                  Outcome = "dtz"
)

// Classify picks the first matching outcome: checkmate, stalemate,
// insufficient material, unknown, exact draw, zeroing move, then DTZ.
func Classify(move explorer.Move) Outcome {
	switch {
	case move.Checkmate:
		return OutcomeCheckmate
	case move.Stalemate:
		return OutcomeStalemate
	case move.InsufficientMaterial:
		return OutcomeInsufficientMaterial
	case move.WDL == nil || move.DTZ == nil:
		return OutcomeNone
	case *move.WDL == 0 && *move.DTZ == 0:
		return OutcomeDraw
	case move.Zeroing && strings.Contains(move.SAN, "x"):
		return OutcomeCapture
	case move.Zeroing:
		return OutcomePawnMove
	}
	return OutcomeDTZ
}

// TablebaseLabel renders the outcome of a tablebase move, or nil when unknown.
func TablebaseLabel(stm string, move explorer.Move) *dom.Node {
	won := string(Winner(stm, move))
	switch Classify(move) {
	case OutcomeCheckmate:
		return dom.El("result", won, dom.Text("Checkmate"))
	case OutcomeStalemate:
		return dom.El("result", "draws", dom.Text("Stalemate"))
	case OutcomeInsufficientMaterial:
		return dom.El("result", "draws", dom.Text("Insufficient material"))
	case OutcomeDraw:
		return dom.El("result", "draws", dom.Text("Draw"))
	case OutcomeCapture:
		return dom.El("result", won, dom.Text("Capture"))
	case OutcomePawnMove:
		return dom.El("result", won, dom.Text("Pawn move"))
	case OutcomeDTZ:
		dtz := abs(*move.DTZ)
		return dom.El("result", won, dom.Text(fmt.Sprintf("DTZ %d", dtz))).
			Set("title", fmt.Sprintf("Next capture or pawn move in %d half-moves (Distance To Zeroing of the 50 move counter)", dtz))
	}
	return nil
}

// MateLabel renders the distance to mate, or nil when the tablebase has none.
func MateLabel(stm string, move explorer.Move) *dom.Node {
	if move.DTM == nil || *move.DTM == 0 {
		return nil
	}
	dtm := abs(*move.DTM)
	return dom.El("result", string(Winner(stm, move)), dom.Text(fmt.Sprintf("DTM %d", dtm))).
		Set("title", fmt.Sprintf("Mate in %d half-moves (Depth To Mate)", dtm))
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
