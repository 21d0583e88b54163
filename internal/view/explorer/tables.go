package explorer

import (
	"strconv"

	"chess_explorer/internal/domain/explorer"
	"chess_explorer/internal/view/dom"
)

// Table ids carried by tbody elements in the data-table attribute.
const (
	TableMoves  = "moves"
	TableTop    = "top"
	TableRecent = "recent"
)

type tablebaseBucket struct {
	id    string
	title string
	wdl   *int
}

func wdl(v int) *int { return &v }

var tablebaseBuckets = []tablebaseBucket{
	{"tb-win", "Winning", wdl(explorer.WDLWin)},
	{"tb-unknown", "Unknown", nil},
	{"tb-cursed-win", "Win prevented by 50-move rule", wdl(explorer.WDLCursedWin)},
	{"tb-draw", "Drawn", wdl(explorer.WDLDraw)},
	{"tb-blessed-loss", "Loss saved by 50-move rule", wdl(explorer.WDLBlessedLoss)},
	{"tb-loss", "Losing", wdl(explorer.WDLLoss)},
}

func (b tablebaseBucket) matches(move explorer.Move) bool {
	if b.wdl == nil {
		return move.WDL == nil
	}
	return move.WDL != nil && *move.WDL == *b.wdl
}

func tbody(table string) *dom.Node {
	return dom.El("tbody", "").Set("data-table", table)
}

func row(index int) *dom.Node {
	return dom.El("tr", "").Set("data-row", strconv.Itoa(index))
}

func moveTable(moves []explorer.Move) *dom.Node {
	if len(moves) == 0 {
		return nil
	}
	body := tbody(TableMoves)
	for i, move := range moves {
		tr := row(i).
			Set("data-uci", move.UCI).
			Set("title", "Average rating: "+strconv.Itoa(move.AverageRating))
		tr.Append(
			dom.El("td", "", dom.Text(DisplaySAN(move.SAN))),
			dom.El("td", "", dom.Text(FormatNumber(move.Total()))),
			dom.El("td", "", resultBar(move)),
		)
		body.Append(tr)
	}
	return dom.El("table", "moves",
		dom.El("thead", "",
			dom.El("tr", "",
				dom.El("th", "", dom.Text("Move")),
				dom.El("th", "", dom.Text("Games")),
				dom.El("th", "", dom.Text("White / Draw / Black")),
			),
		),
		body,
	)
}

func gameTable(withGames bool, table string, games []explorer.Game) *dom.Node {
	if !withGames || len(games) == 0 {
		return nil
	}
	body := tbody(table)
	for i, game := range games {
		players := []explorer.Player{game.White, game.Black}
		ratings := dom.El("td", "")
		names := dom.El("td", "")
		for _, p := range players {
			ratings.Append(dom.El("span", "", dom.Text(strconv.Itoa(p.Rating))))
			names.Append(dom.El("span", "", dom.Text(p.Name)))
		}
		body.Append(row(i).Set("data-id", game.ID).Append(
			ratings,
			names,
			dom.El("td", "", showResult(game.Winner)),
			dom.El("td", "", dom.Text(strconv.Itoa(game.Year))),
		))
	}
	return dom.El("table", "games",
		dom.El("thead", "",
			dom.El("tr", "",
				dom.El("th", "", dom.Text(table+" games")).Set("colspan", "4"),
			),
		),
		body,
	)
}

func tablebaseSection(bucket tablebaseBucket, moves []explorer.Move, fen string) []*dom.Node {
	var matching []explorer.Move
	for _, move := range moves {
		if bucket.matches(move) {
			matching = append(matching, move)
		}
	}
	if len(matching) == 0 {
		return nil
	}

	stm := explorer.SideToMove(fen)
	body := tbody(bucket.id)
	for i, move := range matching {
		body.Append(row(i).Set("data-uci", move.UCI).Append(
			dom.El("td", "", dom.Text(move.SAN)),
			dom.El("td", "", TablebaseLabel(stm, move), MateLabel(stm, move)),
		))
	}
	return []*dom.Node{
		dom.El("div", "title", dom.Text(bucket.title)),
		dom.El("table", "tablebase", body),
	}
}

func tablebaseTables(resp *explorer.TablebaseResponse) *dom.Node {
	data := dom.El("div", "data")
	for _, bucket := range tablebaseBuckets {
		data.Append(tablebaseSection(bucket, resp.Moves, resp.FEN)...)
	}
	return data
}
