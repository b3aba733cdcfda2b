package server

import (
	"net/http"

	"gorm.io/gorm"

	"sin-limites/internal/config"
	"sin-limites/internal/store"
)

// Server exposes the room store over HTTP plus a per-room websocket
// change feed. It carries no game rules: transitions arrive as
// conditional row updates and either take effect or bounce off a stale
// guard.
type Server struct {
	store   *store.Store
	db      *gorm.DB
	cfg     config.Config
	limiter *rateLimiter
}

func New(conn *gorm.DB, cfg config.Config) *Server {
	return &Server{
		store:   store.New(conn, cfg),
		db:      conn,
		cfg:     cfg,
		limiter: newRateLimiter(),
	}
}

// Store exposes the underlying row store for in-process clients.
func (s *Server) Store() *store.Store {
	return s.store
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/rooms", s.handleCreateRoom)
	mux.HandleFunc("GET /api/rooms/", s.handleRoomSubroutes)
	mux.HandleFunc("POST /api/rooms/", s.handleRoomSubroutes)
	mux.HandleFunc("DELETE /api/rooms/", s.handleRoomSubroutes)
	mux.HandleFunc("POST /api/players/", s.handleUpdatePlayer)
	mux.HandleFunc("DELETE /api/players/", s.handleRemovePlayer)
	mux.HandleFunc("GET /ws/rooms/", s.handleWebsocket)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.Handle("/admin/", s.adminRouter())
	return mux
}
