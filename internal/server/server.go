package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/Nighthawkeye449/bang-server-go/internal/config"
	"github.com/Nighthawkeye449/bang-server-go/internal/game"
	"github.com/Nighthawkeye449/bang-server-go/internal/lobby"
)

// Server is the websocket boundary. It maps client messages onto registry
// operations and fans the resulting notifications out to the connected
// players of the lobby.
type Server struct {
	cfg      config.ServerConfig
	log      *zap.Logger
	registry *lobby.Registry
	upgrader websocket.Upgrader
	httpSrv  *http.Server

	mu      sync.Mutex
	clients map[string]map[string]*client // lobby -> player -> connection
}

// New wires the server. logger may be nil.
func New(cfg config.ServerConfig, registry *lobby.Registry, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		cfg:      cfg,
		log:      logger,
		registry: registry,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		clients: map[string]map[string]*client{},
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/lobbies", s.handleCreateLobby)
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	s.httpSrv = &http.Server{
		Addr:         cfg.Address,
		Handler:      mux,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: 0, // websocket connections manage their own deadlines
	}
	return s
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("listening", zap.String("address", s.cfg.Address))
		if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	s.closeAll()
	return s.httpSrv.Shutdown(shutdownCtx)
}

func (s *Server) closeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, conns := range s.clients {
		for _, c := range conns {
			c.stop()
		}
	}
}

// handleCreateLobby opens a fresh lobby and returns its code.
func (s *Server) handleCreateLobby(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	code := newLobbyCode()
	for s.registry.Create(code) != nil {
		code = newLobbyCode()
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"lobby": code})
}

// newLobbyCode derives a short join code from a fresh uuid.
func newLobbyCode() string {
	return strings.ToUpper(uuid.NewString()[:6])
}

// handleWS upgrades the connection and seats or reconnects the player.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("lobby")
	player := r.URL.Query().Get("player")
	if code == "" || player == "" {
		http.Error(w, "lobby and player are required", http.StatusBadRequest)
		return
	}
	if !s.registry.Exists(code) {
		http.Error(w, "no such lobby", http.StatusNotFound)
		return
	}
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("upgrade failed", zap.Error(err))
		return
	}

	c := newClient(s, code, player, conn)
	s.register(c)
	go c.writePump()
	go c.readPump()

	ns, err := s.registry.AddPlayer(r.Context(), code, player)
	if err != nil {
		// Taken name or running game: treat the connection as a reconnect.
		ns, err = s.registry.Reconnect(r.Context(), code, player)
	}
	if err != nil {
		s.sendError(c, err)
		return
	}
	s.deliver(code, ns)
}

func (s *Server) register(c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	conns, ok := s.clients[c.lobby]
	if !ok {
		conns = map[string]*client{}
		s.clients[c.lobby] = conns
	}
	if old, ok := conns[c.player]; ok {
		old.stop()
	}
	conns[c.player] = c
	s.log.Info("client connected",
		zap.String("lobby", c.lobby),
		zap.String("player", c.player),
		zap.String("conn", c.id.String()),
	)
}

func (s *Server) unregister(c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if conns, ok := s.clients[c.lobby]; ok && conns[c.player] == c {
		delete(conns, c.player)
		if len(conns) == 0 {
			delete(s.clients, c.lobby)
		}
	}
	s.log.Info("client disconnected",
		zap.String("lobby", c.lobby),
		zap.String("player", c.player),
		zap.String("conn", c.id.String()),
	)
}

// deliver fans a consolidated batch out to the lobby's connections, keeping
// per-recipient order. Delay notifications are enqueued too; each writer
// honors them without holding any lock.
func (s *Server) deliver(code string, ns []game.Notification) {
	s.mu.Lock()
	conns := make([]*client, 0)
	byName := map[string]*client{}
	for name, c := range s.clients[code] {
		conns = append(conns, c)
		byName[name] = c
	}
	s.mu.Unlock()

	for _, n := range ns {
		if len(n.To) == 0 {
			for _, c := range conns {
				c.enqueue(n)
			}
			continue
		}
		for _, name := range n.To {
			if c, ok := byName[name]; ok {
				c.enqueue(n)
			}
		}
	}
}

// sendError turns an operation error into a notification for one client.
// Rejections carry their own text; anything else is masked and logged.
func (s *Server) sendError(c *client, err error) {
	text := "Something went wrong"
	if r, ok := game.AsRejection(err); ok {
		text = r.Reason
	} else {
		s.log.Error("operation failed",
			zap.String("lobby", c.lobby),
			zap.String("player", c.player),
			zap.Error(err),
		)
	}
	c.enqueue(game.Notification{
		Type:    game.NoteInfo,
		To:      []string{c.player},
		Payload: game.InfoPayload{Text: text},
	})
}
