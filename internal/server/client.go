package server

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/Nighthawkeye449/bang-server-go/internal/game"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 50 * time.Second

	maxMessageSize = 4096
	sendBuffer     = 64
)

// clientMessage is one command from the browser. Type selects the registry
// operation; the other fields are its arguments.
type clientMessage struct {
	Type      string `json:"type"`
	Card      int    `json:"card,omitempty"`
	Character string `json:"character,omitempty"`
	Question  string `json:"question,omitempty"`
	Answer    string `json:"answer,omitempty"`
}

// client is one websocket connection bound to a lobby seat.
type client struct {
	id     uuid.UUID
	srv    *Server
	lobby  string
	player string
	conn   *websocket.Conn
	send   chan game.Notification
	done   chan struct{}

	lastCommand time.Time
}

func newClient(s *Server, lobbyCode, player string, conn *websocket.Conn) *client {
	return &client{
		id:     uuid.New(),
		srv:    s,
		lobby:  lobbyCode,
		player: player,
		conn:   conn,
		send:   make(chan game.Notification, sendBuffer),
		done:   make(chan struct{}),
	}
}

func (c *client) stop() {
	select {
	case <-c.done:
	default:
		close(c.done)
	}
	c.conn.Close()
}

// enqueue hands a notification to the writer, dropping the connection when
// the client cannot keep up.
func (c *client) enqueue(n game.Notification) {
	select {
	case c.send <- n:
	case <-c.done:
	default:
		c.srv.log.Warn("send buffer full, dropping connection",
			zap.String("lobby", c.lobby),
			zap.String("player", c.player),
		)
		c.stop()
	}
}

// readPump consumes commands until the connection dies.
func (c *client) readPump() {
	defer func() {
		c.srv.unregister(c)
		c.stop()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		var msg clientMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.srv.log.Warn("read failed", zap.String("player", c.player), zap.Error(err))
			}
			return
		}
		c.handle(msg)
	}
}

// handle throttles and dispatches one command. Commands that arrive faster
// than the configured interval get a notice and never reach the engine.
func (c *client) handle(msg clientMessage) {
	now := time.Now()
	if interval := c.srv.cfg.CommandInterval; interval > 0 && now.Sub(c.lastCommand) < interval {
		c.enqueue(game.Notification{
			Type:    game.NoteInfo,
			To:      []string{c.player},
			Payload: game.InfoPayload{Text: "Slow down"},
		})
		return
	}
	c.lastCommand = now

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var ns []game.Notification
	var err error
	switch msg.Type {
	case "start":
		ns, err = c.srv.registry.PrepareSetup(ctx, c.lobby)
	case "character":
		ns, err = c.srv.registry.AssignCharacter(ctx, c.lobby, c.player, msg.Character)
	case "play":
		ns, err = c.srv.registry.RequestPlay(ctx, c.lobby, c.player, msg.Card)
	case "answer":
		ns, err = c.srv.registry.AnswerQuestion(ctx, c.lobby, c.player, msg.Question, msg.Answer)
	case "end_turn":
		ns, err = c.srv.registry.EndTurn(ctx, c.lobby, c.player)
	case "discard":
		ns, err = c.srv.registry.DiscardCard(ctx, c.lobby, c.player, msg.Card)
	case "cancel":
		ns, err = c.srv.registry.CancelInFlight(ctx, c.lobby, c.player)
	case "ability":
		ns, err = c.srv.registry.UseInnateAbility(ctx, c.lobby, c.player)
	case "leave":
		ns, err = c.srv.registry.RemovePlayer(ctx, c.lobby, c.player)
	default:
		c.enqueue(game.Notification{
			Type:    game.NoteInfo,
			To:      []string{c.player},
			Payload: game.InfoPayload{Text: "Unknown command"},
		})
		return
	}
	if err != nil {
		c.srv.sendError(c, err)
		return
	}
	c.srv.deliver(c.lobby, ns)
}

// writePump serializes notifications onto the socket, honoring pacing delays
// without blocking anyone else.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.stop()
	}()
	for {
		select {
		case n := <-c.send:
			if n.Type == game.NoteDelay {
				if p, ok := n.Payload.(game.DelayPayload); ok {
					time.Sleep(p.Duration)
				}
				continue
			}
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(n); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}
