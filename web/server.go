// Package web serves the galaxy to browsers. Each websocket connection gets
// its own generator, panel and buffer manager; the connection itself is the
// Scene, so attach, detach and release travel to the client as messages.
package web

import (
	"embed"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/rs/cors"

	"galaxygenerator/config"
	"galaxygenerator/core"
)

//go:embed index.html
var static embed.FS

// ControlsResponse is the body of GET /api/controls.
type ControlsResponse struct {
	Fields   []core.Field      `json:"fields"`
	Defaults core.ParameterSet `json:"defaults"`
}

// Server hands out galaxy sessions over websocket.
type Server struct {
	galaxy   config.GalaxySettings
	settings config.ServerSettings
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewServer creates a server that seeds every session with galaxy.
func NewServer(galaxy config.GalaxySettings, settings config.ServerSettings, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		galaxy:   galaxy,
		settings: settings,
		logger:   logger.With("component", "web_server"),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 64 * 1024,
		CheckOrigin:     s.checkOrigin,
	}
	return s
}

// Handler returns the HTTP routes wrapped in CORS handling.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.serveHome)
	mux.HandleFunc("GET /api/controls", s.serveControls)
	mux.HandleFunc("GET /ws", s.handleWebSocket)

	c := cors.New(cors.Options{
		AllowedOrigins: s.settings.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	})
	s.logger.Info("CORS configured", "operation", "setup", "allowed_origins", s.settings.AllowedOrigins)
	return c.Handler(mux)
}

func (s *Server) serveHome(w http.ResponseWriter, r *http.Request) {
	page, err := static.ReadFile("index.html")
	if err != nil {
		http.Error(w, "page missing", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(page)
}

func (s *Server) serveControls(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	resp := ControlsResponse{
		Fields:   core.Fields(),
		Defaults: s.galaxy.Parameters,
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.logger.Error("Failed to encode controls", "operation", "controls", "error", err)
	}
}

// checkOrigin accepts same-origin requests, requests without an Origin
// header and any origin listed in AllowedOrigins.
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || origin == "http://"+r.Host || origin == "https://"+r.Host {
		return true
	}
	for _, allowed := range s.settings.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	s.logger.Warn("Rejected websocket origin", "operation", "upgrade", "origin", origin)
	return false
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("WebSocket upgrade error", "operation", "upgrade", "error", err)
		return
	}
	defer conn.Close()

	sess := newSession(conn, s.galaxy, s.settings, s.logger.With("remote", r.RemoteAddr))
	sess.run()
}
