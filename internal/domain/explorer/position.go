package explorer

import "strings"

// PositionKey identifies a position independently of the move counters. It
// keeps the board, side to move and castling rights, and the en passant
// square only when a pawn can actually capture there. Strings with fewer
// than four fields are returned trimmed.
func PositionKey(fen string) string {
	fields := strings.Fields(fen)
	if len(fields) < 4 {
		return strings.Join(fields, " ")
	}
	ep := fields[3]
	if ep != "-" && !epCapturable(fields[0], fields[1], ep) {
		ep = "-"
	}
	return strings.Join([]string{fields[0], fields[1], fields[2], ep}, " ")
}

func epCapturable(board, side, square string) bool {
	if len(square) != 2 || square[0] < 'a' || square[0] > 'h' {
		return false
	}
	file := int(square[0] - 'a')

	pawn, rank := byte('P'), 5
	switch {
	case side == "w" && square[1] == '6':
	case side == "b" && square[1] == '3':
		pawn, rank = 'p', 4
	default:
		return false
	}

	row := boardRank(board, rank)
	if row == nil {
		return false
	}
	return (file > 0 && row[file-1] == pawn) || (file < 7 && row[file+1] == pawn)
}

// boardRank expands one rank of the FEN board into eight squares, '.' for
// empty ones. Crazyhouse pockets and promotion markers are ignored.
func boardRank(board string, rank int) []byte {
	if i := strings.IndexByte(board, '['); i >= 0 {
		board = board[:i]
	}
	ranks := strings.Split(board, "/")
	if len(ranks) < 8 {
		return nil
	}
	row := make([]byte, 0, 8)
	for _, c := range []byte(ranks[8-rank]) {
		switch {
		case c == '~':
		case c >= '1' && c <= '8':
			for n := 0; n < int(c-'0'); n++ {
				row = append(row, '.')
			}
		default:
			row = append(row, c)
		}
	}
	if len(row) != 8 {
		return nil
	}
	return row
}

// WithFEN returns a copy of r describing fen. Responses are stored under
// their position key and shown for the exact board position.
func WithFEN(r Response, fen string) Response {
	switch resp := r.(type) {
	case *OpeningResponse:
		c := *resp
		c.FEN = fen
		return &c
	case *TablebaseResponse:
		c := *resp
		c.FEN = fen
		return &c
	}
	return r
}
