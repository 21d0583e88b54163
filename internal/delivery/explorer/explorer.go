package explorer

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"chess_explorer/internal/bootstrap"
	domain "chess_explorer/internal/domain/explorer"
	explorerErrors "chess_explorer/internal/errors"
	"chess_explorer/internal/httpresponse"
	explorerUC "chess_explorer/internal/usecase/explorer"
	"chess_explorer/internal/utils"
	"chess_explorer/internal/view/dom"
	view "chess_explorer/internal/view/explorer"
)

const (
	pushTimeout = 5 * time.Second
	// defaultPanelIdle applies when no session TTL is configured.
	defaultPanelIdle = 30 * time.Minute
)

// newUpgrader accepts same-origin streams, and the CORS origins when local
// CORS is on.
func newUpgrader(cfg bootstrap.Config) *websocket.Upgrader {
	u := &websocket.Upgrader{}
	if !cfg.IsLocalCors {
		return u
	}
	allowed := make(map[string]struct{}, len(cfg.CorsOrigins))
	for _, origin := range cfg.CorsOrigins {
		allowed[strings.ToLower(origin)] = struct{}{}
	}
	u.CheckOrigin = func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		if _, ok := allowed[strings.ToLower(origin)]; ok {
			return true
		}
		parsed, err := url.Parse(origin)
		return err == nil && strings.EqualFold(parsed.Host, r.Host)
	}
	return u
}

type frameResponse struct {
	HTML      string         `json:"html"`
	Bindings  []view.Binding `json:"bindings"`
	FEN       string         `json:"fen"`
	ScrollTop bool           `json:"scroll_top"`
	Hovering  string         `json:"hovering"`
	OpenURL   string         `json:"open_url,omitempty"`
}

func newFrameResponse(frame explorerUC.Frame, state domain.State) (frameResponse, error) {
	html, err := dom.RenderString(frame.Root)
	if err != nil {
		return frameResponse{}, err
	}
	return frameResponse{
		HTML:      html,
		Bindings:  frame.Bindings,
		FEN:       frame.FEN,
		ScrollTop: frame.ScrollTop,
		Hovering:  state.HoveringUCI,
	}, nil
}

type sessionCreatedResponse struct {
	ID  string `json:"id"`
	FEN string `json:"fen"`
}

type JsonOKResponse struct {
	Text string `json:"text"`
}

type ExplorerHandler struct {
	cfg      bootstrap.Config
	log      *zap.SugaredLogger
	service  *explorerUC.Service
	view     *view.View
	upgrader *websocket.Upgrader

	panelsMu sync.RWMutex
	panels   map[string]*panel
}

func NewExplorerHandler(cfg bootstrap.Config, log *zap.SugaredLogger, service *explorerUC.Service) *ExplorerHandler {
	return &ExplorerHandler{
		cfg:      cfg,
		log:      log,
		service:  service,
		view:     view.NewView(nil),
		upgrader: newUpgrader(cfg),
		panels:   make(map[string]*panel),
	}
}

func (h *ExplorerHandler) Routes(r chi.Router) {
	r.Post("/explorer/sessions", h.HandleNewSession)
	r.Route("/explorer/{session}", func(r chi.Router) {
		r.Get("/", h.HandlePanel)
		r.Delete("/", h.HandleDeleteSession)
		r.Get("/frame", h.HandleFrame)
		r.Post("/events", h.HandleEvent)
		r.Get("/ws", h.HandleStream)
	})
}

// panelFor returns the live panel of a session, creating it on first use.
func (h *ExplorerHandler) panelFor(id string) (p *panel, created bool) {
	h.panelsMu.RLock()
	p, ok := h.panels[id]
	h.panelsMu.RUnlock()
	if ok {
		p.touch(time.Now())
		return p, false
	}

	h.panelsMu.Lock()
	defer h.panelsMu.Unlock()
	if p, ok = h.panels[id]; ok {
		p.touch(time.Now())
		return p, false
	}
	p = newPanel(id, h.log)
	p.touch(time.Now())
	ctrl := explorerUC.NewSessionController(h.service, id, h.log, func() { h.push(p) })
	p.host = explorerUC.NewHost(h.view, ctrl, h.log, h.cfg.HoverResampleDelay)
	h.panels[id] = p
	return p, true
}

func (h *ExplorerHandler) dropPanel(id string) {
	h.panelsMu.Lock()
	p, ok := h.panels[id]
	delete(h.panels, id)
	h.panelsMu.Unlock()

	if ok {
		p.close()
	}
}

// forget drops the panel of a session the store no longer knows.
func (h *ExplorerHandler) forget(id string, err error) {
	if errors.Is(err, explorerErrors.ErrSessionNotFound) {
		h.dropPanel(id)
	}
}

func (h *ExplorerHandler) panelCount() int {
	h.panelsMu.RLock()
	defer h.panelsMu.RUnlock()
	return len(h.panels)
}

// Sweep drops panels without streams that were not used for idle. Their
// sessions have expired from the store by then, or get a new panel on the
// next request.
func (h *ExplorerHandler) Sweep(now time.Time, idle time.Duration) int {
	h.panelsMu.Lock()
	var idlePanels []*panel
	for id, p := range h.panels {
		if !p.listening() && now.Sub(p.lastUsed()) > idle {
			idlePanels = append(idlePanels, p)
			delete(h.panels, id)
		}
	}
	h.panelsMu.Unlock()

	for _, p := range idlePanels {
		p.close()
	}
	return len(idlePanels)
}

// RunJanitor sweeps idle panels every interval until ctx is done.
func (h *ExplorerHandler) RunJanitor(ctx context.Context, interval time.Duration) {
	idle := h.cfg.SessionTTL
	if idle <= 0 {
		idle = defaultPanelIdle
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := h.Sweep(now, idle); n > 0 {
				h.log.Infof("dropped %d idle explorer panels", n)
			}
		}
	}
}

// render looks up the session position and renders its panel.
func (h *ExplorerHandler) render(ctx context.Context, id string) (frameResponse, *panel, error) {
	session, state, err := h.service.Snapshot(ctx, id)
	if err != nil {
		h.forget(id, err)
		return frameResponse{}, nil, err
	}
	p, _ := h.panelFor(id)
	frame, err := newFrameResponse(p.host.Render(state, session.Context()), state)
	if err != nil {
		return frameResponse{}, nil, err
	}
	return frame, p, nil
}

// push sends the current panel to every stream of the session. A position
// change first shows the previous tables as loading.
func (h *ExplorerHandler) push(p *panel) {
	if !p.listening() {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), pushTimeout)
	defer cancel()

	session, pending, err := h.service.Pending(ctx, p.id)
	if err != nil {
		h.forget(p.id, err)
		h.log.Errorf("explorer session %s: pending state: %v", p.id, err)
		return
	}
	if session.Enabled && session.Node.FEN != p.host.FEN() {
		frame, err := newFrameResponse(p.host.Render(pending, session.Context()), pending)
		if err == nil {
			p.broadcast(frame)
		}
	}

	frame, _, err := h.render(ctx, p.id)
	if err != nil {
		h.log.Errorf("explorer session %s: render: %v", p.id, err)
		return
	}
	p.broadcast(frame)
}

func (h *ExplorerHandler) HandleNewSession(w http.ResponseWriter, r *http.Request) {
	var req explorerUC.NewSessionRequest
	if err := utils.DecodeJSONRequest(r, &req); err != nil {
		h.log.Warnf("new session: %v", err)
		httpresponse.WriteErrorWithStatus(w, http.StatusBadRequest, err)
		return
	}

	session, err := h.service.NewSession(r.Context(), req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	httpresponse.WriteResponseWithStatus(w, http.StatusCreated, sessionCreatedResponse{ID: session.ID, FEN: session.Node.FEN})
}

func (h *ExplorerHandler) HandlePanel(w http.ResponseWriter, r *http.Request) {
	frame, _, err := h.render(r.Context(), chi.URLParam(r, "session"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	httpresponse.WriteHTML(w, http.StatusOK, frame.HTML)
}

func (h *ExplorerHandler) HandleFrame(w http.ResponseWriter, r *http.Request) {
	frame, _, err := h.render(r.Context(), chi.URLParam(r, "session"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, frame)
}

// HandleEvent applies one panel event and answers with the resulting frame.
func (h *ExplorerHandler) HandleEvent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "session")

	var ev explorerUC.Event
	if err := utils.DecodeJSONRequest(r, &ev); err != nil {
		h.log.Warnf("explorer session %s: event: %v", id, err)
		httpresponse.WriteErrorWithStatus(w, http.StatusBadRequest, err)
		return
	}

	if _, err := h.service.Session(ctx, id); err != nil {
		h.forget(id, err)
		h.writeError(w, err)
		return
	}
	// Events address rows of the last frame, so a panel unknown to this
	// process is rendered before the event is applied.
	if _, created := h.panelFor(id); created {
		if _, _, err := h.render(ctx, id); err != nil {
			h.writeError(w, err)
			return
		}
	}
	p, _ := h.panelFor(id)

	res, err := p.host.Handle(ev)
	if err != nil {
		h.writeError(w, err)
		return
	}

	frame, _, err := h.render(ctx, id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	frame.OpenURL = res.OpenURL
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, frame)
}

// HandleStream serves the live panel over a websocket. Inbound messages are
// events; every change of the session is pushed as a frame.
func (h *ExplorerHandler) HandleStream(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "session")
	frame, p, err := h.render(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Errorf("explorer session %s: upgrade: %v", id, err)
		return
	}
	p.attach(conn)
	defer p.detach(conn)

	if err = p.send(conn, frame); err != nil {
		h.log.Warnf("explorer session %s: first frame: %v", id, err)
		return
	}

	for {
		var ev explorerUC.Event
		if err = conn.ReadJSON(&ev); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.log.Warnf("explorer session %s: read: %v", id, err)
			}
			return
		}

		res, err := p.host.Handle(ev)
		if err != nil {
			h.log.Warnf("explorer session %s: event %s: %v", id, ev.Type, err)
			_ = p.send(conn, httpresponse.ErrorResponse{ErrorDescription: err.Error()})
			continue
		}
		if res.OpenURL == "" {
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), pushTimeout)
		frame, _, err = h.render(ctx, id)
		cancel()
		if err != nil {
			h.log.Errorf("explorer session %s: render: %v", id, err)
			continue
		}
		frame.OpenURL = res.OpenURL
		_ = p.send(conn, frame)
	}
}

func (h *ExplorerHandler) HandleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "session")
	if err := h.service.DeleteSession(r.Context(), id); err != nil {
		h.writeError(w, err)
		return
	}
	h.dropPanel(id)
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, JsonOKResponse{Text: "explorer session closed"})
}

func (h *ExplorerHandler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, explorerErrors.ErrSessionNotFound):
		httpresponse.WriteErrorWithStatus(w, http.StatusNotFound, err)
	case errors.Is(err, explorerErrors.ErrInvalidSession),
		errors.Is(err, explorerErrors.ErrUnknownEvent),
		errors.Is(err, explorerErrors.ErrRowNotFound),
		errors.Is(err, explorerErrors.ErrIllegalMove):
		httpresponse.WriteErrorWithStatus(w, http.StatusBadRequest, err)
	default:
		h.log.Error(err)
		httpresponse.WriteErrorWithStatus(w, http.StatusInternalServerError, explorerErrors.ErrInternal)
	}
}
