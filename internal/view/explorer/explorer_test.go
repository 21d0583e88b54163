package explorer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"chess_explorer/internal/domain/explorer"
	"chess_explorer/internal/view/dom"
)

const startFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

var standard = explorer.Context{
	Orientation: explorer.White,
	Node:        explorer.Position{FEN: startFEN},
	Variant:     explorer.Variant{Key: "standard", Name: "Standard"},
}

func openingState(resp *explorer.OpeningResponse) explorer.State {
	return explorer.State{Enabled: true, Current: resp, WithGames: true, Config: explorer.DefaultConfig()}
}

func sampleOpening() *explorer.OpeningResponse {
	return &explorer.OpeningResponse{
		FEN: startFEN,
		Moves: []explorer.Move{
			{UCI: "e2e4", SAN: "Pe4", White: 3000, Draws: 1000, Black: 2000, AverageRating: 2010},
			{UCI: "g1f3", SAN: "Nf3", White: 10, Draws: 10, Black: 5, AverageRating: 2200},
		},
		TopGames: []explorer.Game{
			{ID: "abcd1234", Year: 2019, Winner: explorer.Black,
				White: explorer.Player{Name: "Carlsen", Rating: 2862}, Black: explorer.Player{Name: "Caruana", Rating: 2828}},
		},
		RecentGames: []explorer.Game{
			{ID: "efgh5678", Year: 2024, White: explorer.Player{Name: "a", Rating: 1500}, Black: explorer.Player{Name: "b", Rating: 1510}},
		},
	}
}

func TestShow_OpeningData(t *testing.T) {
	v := NewView(nil)
	content := v.Show(openingState(sampleOpening()), standard)
	require.NotNil(t, content)
	assert.True(t, content.HasClass("data"))
	assert.False(t, content.HasClass("empty"))

	tables := content.FindAll(func(n *dom.Node) bool { return n.Tag == "table" })
	require.Len(t, tables, 3)
	assert.True(t, tables[0].HasClass("moves"))
	assert.Equal(t, "top games", tables[1].Find("th", "").TextContent())
	assert.Equal(t, "recent games", tables[2].Find("th", "").TextContent())

	first := Row(content, TableMoves, 0)
	require.NotNil(t, first)
	uci, _ := first.Get("data-uci")
	assert.Equal(t, "e2e4", uci)
	tip, _ := first.Get("title")
	assert.Equal(t, "Average rating: 2010", tip)
	assert.Equal(t, "e4", first.Children[0].TextContent())
	assert.Equal(t, "6,000", first.Children[1].TextContent())
	assert.Equal(t, "Nf3", Row(content, TableMoves, 1).Children[0].TextContent())

	game := Row(content, TableTop, 0)
	id, _ := game.Get("data-id")
	assert.Equal(t, "abcd1234", id)
	assert.Equal(t, "28622828", game.Children[0].TextContent())
	assert.Equal(t, "0-1", game.Children[2].TextContent())
	assert.Equal(t, "2019", game.Children[3].TextContent())
}

func TestShow_GamesHiddenWithoutToggle(t *testing.T) {
	state := openingState(sampleOpening())
	state.WithGames = false
	content := NewView(nil).Show(state, standard)
	assert.Len(t, content.FindAll(func(n *dom.Node) bool { return n.Tag == "table" }), 1)
}

func TestShow_OpeningEmpty(t *testing.T) {
	state := openingState(&explorer.OpeningResponse{FEN: startFEN})
	content := NewView(nil).Show(state, standard)
	require.NotNil(t, content)
	assert.True(t, content.HasClass("empty"))
	assert.Contains(t, content.TextContent(), "No game found")
	assert.Contains(t, content.TextContent(), "Already searching through all available games.")

	state.Config.Ratings = []int{2000}
	content = NewView(nil).Show(state, standard)
	assert.Contains(t, content.TextContent(), "Maybe include more games from the preferences menu?")
}

func TestShow_OnlyGamesIsNotEmpty(t *testing.T) {
	resp := sampleOpening()
	resp.Moves = nil
	content := NewView(nil).Show(openingState(resp), standard)
	assert.False(t, content.HasClass("empty"))
}

func tablebaseState(resp *explorer.TablebaseResponse) explorer.State {
	return explorer.State{Enabled: true, Current: resp, Config: explorer.DefaultConfig()}
}

func TestShow_TablebaseBuckets(t *testing.T) {
	resp := &explorer.TablebaseResponse{
		FEN: "8/8/8/8/8/4k3/8/4K2R w K - 0 1",
		Moves: []explorer.Move{
			{UCI: "h1h3", SAN: "Rh3+", WDL: intp(-2), DTZ: intp(-7), DTM: intp(-17)},
			{UCI: "e1d1", SAN: "Kd1", WDL: intp(0), DTZ: intp(0)},
			{UCI: "h1h8", SAN: "Rh8", WDL: intp(-2), DTZ: intp(-9)},
		},
	}
	content := NewView(nil).Show(tablebaseState(resp), standard)
	require.NotNil(t, content)

	titles := content.FindAll(func(n *dom.Node) bool { return n.Tag == "div" && n.HasClass("title") })
	require.Len(t, titles, 2, "only non-empty buckets render")
	assert.Equal(t, "Winning", titles[0].TextContent())
	assert.Equal(t, "Drawn", titles[1].TextContent())

	win := Row(content, "tb-win", 0)
	require.NotNil(t, win)
	assert.Equal(t, "Rh3+", win.Children[0].TextContent())
	assert.Equal(t, "DTZ 7DTM 17", win.Children[1].TextContent())
	assert.NotNil(t, Row(content, "tb-win", 1))
	assert.Nil(t, Row(content, "tb-loss", 0))
}

func TestShow_TablebaseTerminal(t *testing.T) {
	v := NewView(nil)

	mate := v.Show(tablebaseState(&explorer.TablebaseResponse{Checkmate: true, Stalemate: true}), standard)
	assert.Contains(t, mate.TextContent(), "Game over")
	assert.Contains(t, mate.TextContent(), "Checkmate")

	stale := v.Show(tablebaseState(&explorer.TablebaseResponse{Stalemate: true}), standard)
	assert.Contains(t, stale.TextContent(), "Stalemate")

	empty := v.Show(tablebaseState(&explorer.TablebaseResponse{}), standard)
	assert.Contains(t, empty.TextContent(), "No game found")
}

func TestShow_NoResponse(t *testing.T) {
	assert.Nil(t, NewView(nil).Show(explorer.State{Enabled: true}, standard))
}

func TestRender_Disabled(t *testing.T) {
	out := NewView(nil).Render(explorer.State{}, standard, nil)
	assert.Nil(t, out.Root)
	assert.Empty(t, out.Bindings)
}

func TestRender_ConfigTakesPrecedence(t *testing.T) {
	states := []explorer.State{
		openingState(sampleOpening()),
		{Enabled: true, Loading: true},
		{Enabled: true, Failing: true},
	}
	for _, state := range states {
		state.Config.Open = true
		out := NewView(nil).Render(state, standard, nil)
		require.NotNil(t, out.Root)
		assert.NotNil(t, out.Root.Find("div", "config"))
		assert.True(t, out.Root.HasClass("config"))
		assert.False(t, out.Root.HasClass("loading"))
		assert.False(t, out.Root.HasClass("reduced"))
		assert.Nil(t, out.Shown)
	}
}

func TestRender_LoadingAndFallback(t *testing.T) {
	v := NewView(nil)
	first := v.Render(openingState(sampleOpening()), standard, nil)
	require.NotNil(t, first.Shown)
	assert.Equal(t, startFEN, first.FEN)
	assert.False(t, first.Root.HasClass("loading"))

	out := v.Render(explorer.State{Enabled: true}, standard, first.Shown)
	assert.True(t, out.Root.HasClass("loading"))
	assert.Nil(t, out.Shown)
	assert.Empty(t, out.FEN)
	assert.Same(t, first.Shown, out.Root.Children[1], "previous content stays on screen")
	assert.NotNil(t, out.Root.Find("span", "toconf"))

	bare := v.Render(explorer.State{Enabled: true}, standard, nil)
	assert.Len(t, bare.Root.Children, 1)
}

func TestRender_FailingAndReduced(t *testing.T) {
	out := NewView(nil).Render(explorer.State{Enabled: true, Failing: true}, standard, nil)
	assert.True(t, out.Root.HasClass("reduced"))
	assert.False(t, out.Root.HasClass("loading"))
	assert.Contains(t, out.Root.TextContent(), "temporarily out of service")
	assert.Nil(t, out.Root.Find("span", "toconf"))

	state := openingState(sampleOpening())
	state.MovesAway = 3
	assert.True(t, NewView(nil).Render(state, standard, nil).Root.HasClass("reduced"))
	state.MovesAway = 2
	assert.False(t, NewView(nil).Render(state, standard, nil).Root.HasClass("reduced"))
}

func TestRender_VariantTitle(t *testing.T) {
	ctx := standard
	ctx.Variant = explorer.Variant{Key: "atomic", Name: "Atomic"}
	out := NewView(nil).Render(explorer.State{Enabled: true, Failing: true}, ctx, nil)
	assert.Equal(t, "Atomic opening explorer", out.Root.Find("div", "title").TextContent())
}

func TestRender_Bindings(t *testing.T) {
	out := NewView(nil).Render(openingState(sampleOpening()), standard, nil)

	assert.Contains(t, out.Bindings, Binding{Event: "mouseover", Action: ActionHover, Table: TableMoves, Row: 1, Value: "g1f3"})
	assert.Contains(t, out.Bindings, Binding{Event: "mousedown", Action: ActionPlay, Table: TableMoves, Row: 0, Value: "e2e4"})
	assert.Contains(t, out.Bindings, Binding{Event: "mouseout", Action: ActionLeave, Table: TableMoves, Row: -1})
	assert.Contains(t, out.Bindings, Binding{Event: "click", Action: ActionOpenGame, Table: TableRecent, Row: 0, Value: "efgh5678"})
	assert.Contains(t, out.Bindings, Binding{Event: "click", Action: ActionToggleConfig, Row: -1})
}

func TestRender_HTML(t *testing.T) {
	out := NewView(nil).Render(openingState(sampleOpening()), standard, nil)
	markup, err := dom.RenderString(out.Root)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(markup, `<div class="explorer_box">`))
	assert.Contains(t, markup, `data-uci="e2e4"`)
	assert.Contains(t, markup, `<span class="white" style="width: 50%">50%</span>`)

	doc, err := html.Parse(strings.NewReader(markup))
	require.NoError(t, err)
	var rows int
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "tr" {
			rows++
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	assert.Equal(t, 7, rows)
}

func TestDefaultConfigView(t *testing.T) {
	cfg := explorer.DefaultConfig()
	cfg.Speeds = []string{"blitz"}
	panel := DefaultConfigView(cfg)

	active := panel.FindAll(func(n *dom.Node) bool { return n.Tag == "button" && n.HasClass("active") })
	assert.Len(t, active, 1+len(explorer.RatingBands)+1)

	cfg.DB = explorer.SourceMasters
	panel = DefaultConfigView(cfg)
	assert.Nil(t, panel.Find("section", "rating"))
	assert.NotNil(t, panel.Find("div", "masters"))
}
