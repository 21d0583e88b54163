package explorer

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	explorerUC "chess_explorer/internal/usecase/explorer"
)

// panel is the live explorer of one session: its render host and the
// websocket streams watching it.
type panel struct {
	id   string
	host *explorerUC.Host
	log  *zap.SugaredLogger
	// used is the unix nano time of the last request for the panel.
	used atomic.Int64

	// writeMu serializes writes, a websocket allows one writer at a time.
	writeMu sync.Mutex
	connsMu sync.Mutex
	conns   map[*websocket.Conn]struct{}
}

func newPanel(id string, log *zap.SugaredLogger) *panel {
	return &panel{id: id, log: log, conns: make(map[*websocket.Conn]struct{})}
}

func (p *panel) touch(now time.Time) {
	p.used.Store(now.UnixNano())
}

func (p *panel) lastUsed() time.Time {
	return time.Unix(0, p.used.Load())
}

func (p *panel) attach(conn *websocket.Conn) {
	p.connsMu.Lock()
	p.conns[conn] = struct{}{}
	p.connsMu.Unlock()
}

func (p *panel) detach(conn *websocket.Conn) {
	p.connsMu.Lock()
	delete(p.conns, conn)
	p.connsMu.Unlock()
	_ = conn.Close()
}

func (p *panel) listening() bool {
	p.connsMu.Lock()
	defer p.connsMu.Unlock()
	return len(p.conns) > 0
}

func (p *panel) send(conn *websocket.Conn, v any) error {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()
	return conn.WriteJSON(v)
}

func (p *panel) broadcast(v any) {
	p.connsMu.Lock()
	conns := make([]*websocket.Conn, 0, len(p.conns))
	for conn := range p.conns {
		conns = append(conns, conn)
	}
	p.connsMu.Unlock()

	for _, conn := range conns {
		if err := p.send(conn, v); err != nil {
			p.log.Warnf("explorer session %s: push: %v", p.id, err)
			p.detach(conn)
		}
	}
}

// close stops the host and disconnects every stream.
func (p *panel) close() {
	p.host.Stop()

	p.connsMu.Lock()
	conns := p.conns
	p.conns = make(map[*websocket.Conn]struct{})
	p.connsMu.Unlock()

	for conn := range conns {
		p.writeMu.Lock()
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session closed"))
		p.writeMu.Unlock()
		_ = conn.Close()
	}
}
