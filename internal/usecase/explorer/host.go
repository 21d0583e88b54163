package explorer

import (
	"net/url"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	domain "chess_explorer/internal/domain/explorer"
	"chess_explorer/internal/errors"
	"chess_explorer/internal/view/dom"
	view "chess_explorer/internal/view/explorer"
)

const DefaultHoverResampleDelay = 100 * time.Millisecond

// Controller receives the actions of the panel. An empty uci clears the
// hovered move.
type Controller interface {
	SetHoveringUCI(uci string)
	ExplorerMove(uci string)
	Toggle()
	ToggleConfig()
	SelectDB(db domain.Source)
	ToggleRating(rating int)
	ToggleSpeed(speed string)
}

// Pointer locates the row under the mouse by table id and row index.
type Pointer struct {
	Table string `json:"table"`
	Row   int    `json:"row"`
}

type Event struct {
	Type  view.Action `json:"type"`
	Table string      `json:"table"`
	Row   int         `json:"row"`
	Value string      `json:"value"`
}

type Frame struct {
	view.Output
	// ScrollTop asks the client to scroll the panel back to the top.
	ScrollTop bool
}

// Host renders the panel of one analysis board and keeps what has to
// survive between renders.
type Host struct {
	view  *view.View
	ctrl  Controller
	log   *zap.SugaredLogger
	delay time.Duration

	mu        sync.Mutex
	lastShown *dom.Node
	lastFEN   string
	last      view.Output
	ctx       domain.Context
	db        domain.Source
	pointer   *Pointer
	timer     *time.Timer
}

func NewHost(v *view.View, ctrl Controller, log *zap.SugaredLogger, delay time.Duration) *Host {
	if delay <= 0 {
		delay = DefaultHoverResampleDelay
	}
	return &Host{view: v, ctrl: ctrl, log: log, delay: delay}
}

func (h *Host) Render(state domain.State, ctx domain.Context) Frame {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := h.view.Render(state, ctx, h.lastShown)
	if out.Shown != nil {
		h.lastShown = out.Shown
	}

	frame := Frame{Output: out}
	if out.FEN != "" && out.FEN != h.lastFEN {
		if h.lastFEN != "" {
			frame.ScrollTop = true
			h.scheduleResampleLocked()
		}
		h.lastFEN = out.FEN
	}

	h.last = out
	h.ctx = ctx
	h.db = state.Config.DB
	return frame
}

// FEN is the position of the last rendered response.
func (h *Host) FEN() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.lastFEN
}

// The rows under a still pointer change with the position, so the hovered
// move is derived again once the client has laid out the new rows.
func (h *Host) scheduleResampleLocked() {
	if h.timer != nil {
		h.timer.Stop()
	}
	h.timer = time.AfterFunc(h.delay, h.resample)
}

func (h *Host) resample() {
	h.mu.Lock()
	uci := h.hoveredLocked()
	h.mu.Unlock()

	h.log.Debugf("hover resampled: %q", uci)
	h.ctrl.SetHoveringUCI(uci)
}

func (h *Host) hoveredLocked() string {
	if h.pointer == nil {
		return ""
	}
	return h.rowAttrLocked(*h.pointer, "data-uci")
}

func (h *Host) rowAttrLocked(p Pointer, key string) string {
	tr := view.Row(h.last.Root, p.Table, p.Row)
	if tr == nil {
		return ""
	}
	v, _ := tr.Get(key)
	return v
}

func (h *Host) Hover(p Pointer) string {
	h.mu.Lock()
	h.pointer = &p
	uci := h.hoveredLocked()
	h.mu.Unlock()

	h.ctrl.SetHoveringUCI(uci)
	return uci
}

func (h *Host) Leave() {
	h.mu.Lock()
	h.pointer = nil
	h.mu.Unlock()

	h.ctrl.SetHoveringUCI("")
}

// Press plays the move of the row under the pointer.
func (h *Host) Press(p Pointer) error {
	h.mu.Lock()
	uci := h.rowAttrLocked(p, "data-uci")
	h.mu.Unlock()

	if uci == "" {
		return errors.ErrRowNotFound
	}
	h.ctrl.ExplorerMove(uci)
	return nil
}

// OpenGame returns the game viewer URL of the game row under the pointer.
func (h *Host) OpenGame(p Pointer) (string, error) {
	h.mu.Lock()
	id := h.rowAttrLocked(p, "data-id")
	ctx, db := h.ctx, h.db
	h.mu.Unlock()

	if id == "" {
		return "", errors.ErrRowNotFound
	}
	return GameURL(id, db, ctx.Orientation, ctx.Node), nil
}

type Result struct {
	OpenURL  string
	Hovering string
}

// Handle dispatches a client event to the matching action.
func (h *Host) Handle(ev Event) (Result, error) {
	p := Pointer{Table: ev.Table, Row: ev.Row}
	switch ev.Type {
	case view.ActionHover:
		return Result{Hovering: h.Hover(p)}, nil
	case view.ActionLeave:
		h.Leave()
	case view.ActionPlay:
		return Result{}, h.Press(p)
	case view.ActionOpenGame:
		u, err := h.OpenGame(p)
		return Result{OpenURL: u}, err
	case view.ActionClose:
		h.ctrl.Toggle()
	case view.ActionToggleConfig:
		h.ctrl.ToggleConfig()
	case view.ActionSelectDB:
		h.ctrl.SelectDB(domain.Source(ev.Value))
	case view.ActionToggleRating:
		rating, err := strconv.Atoi(ev.Value)
		if err != nil {
			return Result{}, errors.ErrUnknownEvent
		}
		h.ctrl.ToggleRating(rating)
	case view.ActionToggleSpeed:
		h.ctrl.ToggleSpeed(ev.Value)
	default:
		return Result{}, errors.ErrUnknownEvent
	}
	return Result{}, nil
}

// Stop cancels a pending hover resample.
func (h *Host) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.timer != nil {
		h.timer.Stop()
		h.timer = nil
	}
}

// GameURL is the game viewer address of an explorer game. Games of the
// masters database are served from the import path.
func GameURL(id string, db domain.Source, orientation domain.Color, node domain.Position) string {
	if orientation == domain.NoColor {
		orientation = domain.White
	}
	path := "/" + id + "/" + string(orientation)
	if db != domain.SourceLichess {
		path = "/import/master" + path
	}
	if node.Ply > 0 {
		path += "?" + url.Values{"fen": {node.FEN}}.Encode()
	}
	return path
}
