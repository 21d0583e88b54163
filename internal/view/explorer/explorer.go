// Package explorer renders the opening explorer panel of the analysis board.
package explorer

import (
	"strconv"

	"chess_explorer/internal/domain/explorer"
	"chess_explorer/internal/view/dom"
)

type Action string

const (
	ActionHover        Action = "hover"
	ActionLeave        Action = "leave"
	ActionPlay         Action = "play"
	ActionOpenGame     Action = "open_game"
	ActionClose        Action = "close"
	ActionToggleConfig Action = "toggle_config"
	ActionSelectDB     Action = "select_db"
	ActionToggleRating Action = "toggle_rating"
	ActionToggleSpeed  Action = "toggle_speed"
)

// Binding tells the client which DOM event to report for an element.
// Table level bindings have Row -1; control bindings have no table.
type Binding struct {
	Event  string `json:"event"`
	Action Action `json:"action"`
	Table  string `json:"table,omitempty"`
	Row    int    `json:"row"`
	Value  string `json:"value,omitempty"`
}

type Output struct {
	// Root is nil when the explorer is disabled.
	Root     *dom.Node
	Bindings []Binding
	// FEN is the position the displayed response belongs to, empty when no
	// response is available.
	FEN string
	// Shown is the data view computed by this pass. It stays nil when the
	// config or failing view was shown or no response was available.
	Shown *dom.Node
}

type View struct {
	configView ConfigView
}

func NewView(configView ConfigView) *View {
	if configView == nil {
		configView = DefaultConfigView
	}
	return &View{configView: configView}
}

// Show builds the data view for the current response, or nil when there is
// none.
func (v *View) Show(state explorer.State, ctx explorer.Context) *dom.Node {
	switch resp := state.Current.(type) {
	case *explorer.OpeningResponse:
		moves := moveTable(resp.Moves)
		recent := gameTable(state.WithGames, TableRecent, resp.RecentGames)
		top := gameTable(state.WithGames, TableTop, resp.TopGames)
		if moves == nil && recent == nil && top == nil {
			return showEmpty(state, ctx)
		}
		return dom.El("div", "data", moves, top, recent)
	case *explorer.TablebaseResponse:
		switch {
		case len(resp.Moves) > 0:
			return tablebaseTables(resp)
		case resp.Checkmate:
			return showGameEnd("Checkmate")
		case resp.Stalemate:
			return showGameEnd("Stalemate")
		}
		return showEmpty(state, ctx)
	}
	return nil
}

// Render builds the whole panel. lastShown is displayed when the state has no
// response, so the panel does not flash empty between requests.
func (v *View) Render(state explorer.State, ctx explorer.Context, lastShown *dom.Node) Output {
	if !state.Enabled {
		return Output{}
	}

	var out Output
	if state.Current != nil {
		out.FEN = state.Current.Position()
	}

	configOpened := state.Config.Open
	loading := !configOpened && (state.Loading || (state.Current == nil && !state.Failing))

	var content *dom.Node
	switch {
	case configOpened:
		content = v.showConfig(state, ctx)
	case state.Failing:
		content = showFailing(ctx)
	default:
		out.Shown = v.Show(state, ctx)
		content = out.Shown
		if content == nil {
			content = lastShown
		}
	}

	root := dom.El("div", "explorer_box").
		AddClass("loading", loading).
		AddClass("config", configOpened).
		AddClass("reduced", !configOpened && (state.Failing || state.MovesAway > 2))
	root.Append(dom.El("div", "overlay"), content)
	if content != nil && !state.Failing {
		icon := "%"
		if configOpened {
			icon = "L"
		}
		root.Append(dom.El("span", "toconf").
			Set("data-icon", icon).
			Set("data-action", string(ActionToggleConfig)))
	}

	out.Root = root
	out.Bindings = Bindings(root)
	return out
}

// Bindings derives the event bindings from the data attributes of the tree.
func Bindings(root *dom.Node) []Binding {
	var bindings []Binding
	root.Walk(func(n *dom.Node) bool {
		if action, ok := n.Get("data-action"); ok {
			value, _ := n.Get("data-value")
			bindings = append(bindings, Binding{Event: "click", Action: Action(action), Row: -1, Value: value})
			return true
		}
		table, ok := n.Get("data-table")
		if !ok {
			return true
		}
		bindings = append(bindings, Binding{Event: "mouseout", Action: ActionLeave, Table: table, Row: -1})
		for _, tr := range n.Children {
			index, err := strconv.Atoi(attr(tr, "data-row"))
			if err != nil {
				continue
			}
			if uci, ok := tr.Get("data-uci"); ok {
				bindings = append(bindings,
					Binding{Event: "mouseover", Action: ActionHover, Table: table, Row: index, Value: uci},
					Binding{Event: "mousedown", Action: ActionPlay, Table: table, Row: index, Value: uci},
				)
			}
			if id, ok := tr.Get("data-id"); ok {
				bindings = append(bindings, Binding{Event: "click", Action: ActionOpenGame, Table: table, Row: index, Value: id})
			}
		}
		return false
	})
	return bindings
}

// Row returns the row at index of the table with the given id.
func Row(root *dom.Node, table string, index int) *dom.Node {
	if root == nil {
		return nil
	}
	var found *dom.Node
	root.Walk(func(n *dom.Node) bool {
		if found != nil {
			return false
		}
		if id, ok := n.Get("data-table"); ok && id == table {
			for _, tr := range n.Children {
				if attr(tr, "data-row") == strconv.Itoa(index) {
					found = tr
				}
			}
			return false
		}
		return true
	})
	return found
}

func attr(n *dom.Node, key string) string {
	v, _ := n.Get(key)
	return v
}
