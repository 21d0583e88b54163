package explorer

import (
	"slices"
	"strconv"

	"chess_explorer/internal/domain/explorer"
	"chess_explorer/internal/view/dom"
)

// ConfigView renders the explorer preferences.
type ConfigView func(cfg explorer.ConfigState) *dom.Node

func title(variant explorer.Variant) string {
	if variant.Standard() {
		return "Opening explorer"
	}
	return variant.Name + " opening explorer"
}

func actionButton(class, action, value string, children ...*dom.Node) *dom.Node {
	b := dom.El("button", class, children...).Set("data-action", action)
	if value != "" {
		b.Set("data-value", value)
	}
	return b
}

func closeButton() *dom.Node {
	return actionButton("button text", string(ActionClose), "", dom.Text("Close")).Set("data-icon", "L")
}

func showEmpty(state explorer.State, ctx explorer.Context) *dom.Node {
	explanation := "Maybe include more games from the preferences menu?"
	if state.Config.FullHouse() {
		explanation = "Already searching through all available games."
	}
	return dom.El("div", "data empty",
		dom.El("div", "title", dom.Text(title(ctx.Variant))),
		dom.El("div", "message",
			dom.El("h3", "", dom.Text("No game found")),
			dom.El("p", "explanation", dom.Text(explanation)),
			closeButton(),
		),
	)
}

func showGameEnd(outcome string) *dom.Node {
	return dom.El("div", "data empty",
		dom.El("div", "title", dom.Text("Game over")),
		dom.El("div", "message",
			dom.El("i", "").Set("data-icon", ""),
			dom.El("h3", "", dom.Text(outcome)),
			closeButton(),
		),
	)
}

func showFailing(ctx explorer.Context) *dom.Node {
	return dom.El("div", "data empty",
		dom.El("div", "title", dom.Text(title(ctx.Variant))),
		dom.El("div", "failing message",
			dom.El("h3", "", dom.Text("Oops, sorry!")),
			dom.El("p", "explanation", dom.Text("The explorer is temporarily out of service. Try again soon!")),
			closeButton(),
		),
	)
}

func (v *View) showConfig(state explorer.State, ctx explorer.Context) *dom.Node {
	return dom.El("div", "config",
		dom.El("div", "title", dom.Text(title(ctx.Variant))),
		v.configView(state.Config),
	)
}

// DefaultConfigView lists the databases, rating bands and speeds as toggles.
func DefaultConfigView(cfg explorer.ConfigState) *dom.Node {
	db := dom.El("div", "choices")
	for _, source := range []explorer.Source{explorer.SourceMasters, explorer.SourceLichess} {
		db.Append(choice(string(ActionSelectDB), string(source), string(source), cfg.DB == source))
	}
	panel := dom.El("div", "",
		dom.El("section", "db", dom.El("label", "", dom.Text("Database")), db),
	)
	if cfg.DB == explorer.SourceMasters {
		return panel.Append(dom.El("div", "masters message",
			dom.El("p", "", dom.Text("Two million OTB games of 2200+ FIDE rated players from 1952 to present")),
		))
	}

	ratings := dom.El("div", "choices")
	for _, band := range explorer.RatingBands {
		r := strconv.Itoa(band)
		ratings.Append(choice(string(ActionToggleRating), r, r, slices.Contains(cfg.Ratings, band)))
	}
	speeds := dom.El("div", "choices")
	for _, speed := range explorer.Speeds {
		speeds.Append(choice(string(ActionToggleSpeed), speed, speed, slices.Contains(cfg.Speeds, speed)))
	}
	return panel.Append(
		dom.El("section", "rating", dom.El("label", "", dom.Text("Players Average rating")), ratings),
		dom.El("section", "speed", dom.El("label", "", dom.Text("Game speed")), speeds),
	)
}

func choice(action, value, label string, active bool) *dom.Node {
	return actionButton("", action, value, dom.Text(label)).AddClass("active", active)
}
