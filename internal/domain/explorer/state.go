package explorer

import "slices"

var (
	RatingBands = []int{1600, 1800, 2000, 2200, 2500}
	Speeds      = []string{"bullet", "blitz", "classical"}
)

type ConfigState struct {
	Open    bool     `json:"open"`
	DB      Source   `json:"db"`
	Ratings []int    `json:"ratings"`
	Speeds  []string `json:"speeds"`
}

func DefaultConfig() ConfigState {
	return ConfigState{
		DB:      SourceLichess,
		Ratings: []int{1600, 1800, 2000, 2200, 2500},
		Speeds:  []string{"bullet", "blitz", "classical"},
	}
}

// FullHouse reports whether the search already spans every game the selected
// database offers.
func (c ConfigState) FullHouse() bool {
	if c.DB == SourceMasters {
		return true
	}
	for _, band := range RatingBands {
		if !slices.Contains(c.Ratings, band) {
			return false
		}
	}
	for _, speed := range Speeds {
		if !slices.Contains(c.Speeds, speed) {
			return false
		}
	}
	return true
}

// State is the snapshot a single render reads. Current is nil while no
// response is available for the displayed position.
type State struct {
	Enabled     bool
	Current     Response
	Loading     bool
	Failing     bool
	MovesAway   int
	WithGames   bool
	HoveringUCI string
	Config      ConfigState
}

// Context is the analysis board the panel is attached to.
type Context struct {
	Orientation Color
	Node        Position
	Variant     Variant
}

// Session is the persisted controller state of one analysis board.
type Session struct {
	ID          string      `json:"id"`
	Node        Position    `json:"node"`
	Orientation Color       `json:"orientation"`
	Variant     Variant     `json:"variant"`
	Enabled     bool        `json:"enabled"`
	WithGames   bool        `json:"with_games"`
	Failing     bool        `json:"failing"`
	MovesAway   int         `json:"moves_away"`
	CountedFEN  string      `json:"counted_fen,omitempty"`
	HoveringUCI string      `json:"hovering_uci,omitempty"`
	Config      ConfigState `json:"config"`
}

func (s Session) Context() Context {
	return Context{Orientation: s.Orientation, Node: s.Node, Variant: s.Variant}
}
