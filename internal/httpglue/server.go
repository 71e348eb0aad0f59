// Package httpglue exposes the core's operational surface: health, snapshot
// retrieval, a live violation feed, and a debug lane-mapping endpoint. None
// of this owns a database; it is a thin façade over internal/stream and
// internal/roiconfig.
package httpglue

import (
	"encoding/json"
	"net/http"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rs/cors"

	"github.com/trafficmind/violation-core/internal/logging"
	"github.com/trafficmind/violation-core/internal/roiconfig"
	"github.com/trafficmind/violation-core/internal/stream"
)

const (
	writeWait      = 5 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	closeGracePeriod = 2 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Server is the process's HTTP façade: one mux.Router wired to a violation
// broadcast hub, a snapshot directory, and the loaded ROI model for the
// debug lane-mapping endpoint.
type Server struct {
	router        *mux.Router
	handler       http.Handler
	screenshotDir string
	roi           *roiconfig.Model
	hub           *hub
}

// New builds a Server. screenshotDir is served read-only under
// /snapshots/{file}; roi is used only by the /debug/lanes endpoint.
func New(screenshotDir string, roi *roiconfig.Model) *Server {
	s := &Server{
		router:        mux.NewRouter(),
		screenshotDir: screenshotDir,
		roi:           roi,
		hub:           newHub(),
	}
	s.routes()
	s.handler = cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
	}).Handler(s.router)
	return s
}

func (s *Server) routes() {
	s.router.HandleFunc("/healthz", s.handleHealthz).Methods(http.MethodGet)
	s.router.HandleFunc("/ws/violations", s.handleWebsocket).Methods(http.MethodGet)
	s.router.HandleFunc("/debug/lanes", s.handleDebugLanes).Methods(http.MethodPost)
	s.router.PathPrefix("/snapshots/").Handler(http.StripPrefix("/snapshots/", s.snapshotHandler()))
}

// Handler returns the wrapped http.Handler (router + CORS) for use with
// http.Server or httptest.
func (s *Server) Handler() http.Handler { return s.handler }

// Broadcast fans a confirmed violation out to every connected websocket
// client. The stream package does not call it; the embedding caller passes
// in the violations that stream.Stream.ProcessFrame returns.
func (s *Server) Broadcast(v stream.Violation) {
	s.hub.broadcast(v)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// snapshotHandler serves evidence JPEGs read-only, rejecting path traversal.
func (s *Server) snapshotHandler() http.Handler {
	fs := http.FileServer(http.Dir(s.screenshotDir))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clean := filepath.Clean(r.URL.Path)
		if strings.Contains(clean, "..") {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		r.URL.Path = clean
		fs.ServeHTTP(w, r)
	})
}

type laneRequest struct {
	Tracks []struct {
		TrackID uint64 `json:"trackId"`
		X       int    `json:"x"`
		Y       int    `json:"y"`
	} `json:"tracks"`
}

// handleDebugLanes is a lane-mapping introspection tool: given ground
// points, report which lane (if any) each occupies.
func (s *Server) handleDebugLanes(w http.ResponseWriter, r *http.Request) {
	var req laneRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request: "+err.Error(), http.StatusBadRequest)
		return
	}
	positions := make([]roiconfig.TrackPosition, 0, len(req.Tracks))
	for _, t := range req.Tracks {
		positions = append(positions, roiconfig.TrackPosition{
			TrackID:  t.TrackID,
			Position: roiconfig.Point{X: t.X, Y: t.Y},
		})
	}
	occ := s.roi.LocateAll(positions)
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(occ)
}

func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	log := logging.For("httpglue")
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.WithField("error", err.Error()).Warn("websocket upgrade failed")
		return
	}
	client := s.hub.join(conn)
	defer s.hub.leave(client)
	client.run()
}

// hub fans out violations to every connected websocket client without
// letting a slow client block the others.
type hub struct {
	mu      sync.Mutex
	clients map[*wsClient]struct{}
}

func newHub() *hub {
	return &hub{clients: make(map[*wsClient]struct{})}
}

func (h *hub) join(conn *websocket.Conn) *wsClient {
	c := &wsClient{conn: conn, send: make(chan stream.Violation, 16)}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	return c
}

func (h *hub) leave(c *wsClient) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
	close(c.send)
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	time.AfterFunc(closeGracePeriod, func() { _ = c.conn.Close() })
}

func (h *hub) broadcast(v stream.Violation) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- v:
		default:
			// slow client: drop this update rather than block the frame loop.
		}
	}
}

type wsClient struct {
	conn *websocket.Conn
	send chan stream.Violation
}

// run pumps violations to the client and answers pings until the connection
// closes or the client hub drops it.
func (c *wsClient) run() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	go c.readLoop()

	for {
		select {
		case v, ok := <-c.send:
			if !ok {
				return
			}
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(v); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readLoop discards client messages but keeps the read deadline alive so a
// dead peer is detected instead of leaking the connection forever.
func (c *wsClient) readLoop() {
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
