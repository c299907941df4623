package lobby

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/Nighthawkeye449/bang-server-go/internal/game"
)

// ErrNoSuchLobby is returned for operations against an unknown lobby code.
var ErrNoSuchLobby = errors.New("no such lobby")

// ErrLobbyExists is returned when creating a lobby whose code is taken.
var ErrLobbyExists = errors.New("lobby already exists")

// Store persists game snapshots. The registry writes whenever a game settles
// into an idle state and reads when resuming a lobby after a restart.
type Store interface {
	SaveSnapshot(ctx context.Context, lobby string, data []byte, checksum string) error
	LoadSnapshot(ctx context.Context, lobby string) ([]byte, error)
	DeleteSnapshot(ctx context.Context, lobby string) error
}

type entry struct {
	mu   sync.Mutex
	game *game.Game
}

// Registry owns every live game, keyed by lobby code. Each game runs under
// its own mutex so lobbies never block each other; the registry map itself is
// guarded by an RWMutex.
type Registry struct {
	mu      sync.RWMutex
	lobbies map[string]*entry
	log     *zap.Logger
	store   Store
	opts    []game.Option
}

// NewRegistry builds a registry. logger and store may be nil.
func NewRegistry(logger *zap.Logger, store Store, opts ...game.Option) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		lobbies: map[string]*entry{},
		log:     logger,
		store:   store,
		opts:    opts,
	}
}

// Create opens a new empty lobby.
func (r *Registry) Create(code string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.lobbies[code]; ok {
		return ErrLobbyExists
	}
	r.lobbies[code] = &entry{game: game.New(code, r.log, r.opts...)}
	r.log.Info("lobby created", zap.String("lobby", code))
	return nil
}

// Resume rebuilds a lobby from its persisted snapshot.
func (r *Registry) Resume(ctx context.Context, code string) error {
	if r.store == nil {
		return errors.New("no snapshot store configured")
	}
	data, err := r.store.LoadSnapshot(ctx, code)
	if err != nil {
		return err
	}
	snap, err := game.DecodeSnapshot(data)
	if err != nil {
		return err
	}
	g := game.New(code, r.log, r.opts...)
	if err := g.Restore(snap); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.lobbies[code]; ok {
		return ErrLobbyExists
	}
	r.lobbies[code] = &entry{game: g}
	r.log.Info("lobby resumed", zap.String("lobby", code))
	return nil
}

// Close tears a lobby down and drops its persisted snapshot.
func (r *Registry) Close(ctx context.Context, code string) error {
	r.mu.Lock()
	e, ok := r.lobbies[code]
	delete(r.lobbies, code)
	r.mu.Unlock()
	if !ok {
		return ErrNoSuchLobby
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if r.store != nil {
		if err := r.store.DeleteSnapshot(ctx, code); err != nil {
			r.log.Warn("snapshot delete failed", zap.String("lobby", code), zap.Error(err))
		}
	}
	r.log.Info("lobby closed", zap.String("lobby", code))
	return nil
}

// Exists reports whether a lobby code is live.
func (r *Registry) Exists(code string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.lobbies[code]
	return ok
}

// Codes lists the live lobby codes.
func (r *Registry) Codes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.lobbies))
	for code := range r.lobbies {
		out = append(out, code)
	}
	return out
}

// run executes one game operation under the lobby lock with the standard
// protections: a pre-operation snapshot, rollback on invariant violations and
// conservation failures, notification consolidation, and persistence once the
// game is idle again.
func (r *Registry) run(ctx context.Context, code string, op func(g *game.Game) ([]game.Notification, error)) ([]game.Notification, error) {
	r.mu.RLock()
	e, ok := r.lobbies[code]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrNoSuchLobby
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	before := e.game.Snapshot()
	ns, err := op(e.game)
	if err != nil {
		if game.IsInvariant(err) {
			r.log.Error("invariant violated, rolling back",
				zap.String("lobby", code), zap.Error(err))
			if rerr := e.game.Restore(before); rerr != nil {
				r.log.Error("rollback failed", zap.String("lobby", code), zap.Error(rerr))
			}
		}
		return nil, err
	}
	if cerr := e.game.CheckConservation(); cerr != nil {
		r.log.Error("card conservation broken, rolling back",
			zap.String("lobby", code), zap.Error(cerr))
		if rerr := e.game.Restore(before); rerr != nil {
			r.log.Error("rollback failed", zap.String("lobby", code), zap.Error(rerr))
		}
		return nil, cerr
	}

	if r.store != nil && e.game.Idle() {
		snap := e.game.Snapshot()
		if data, err := snap.Encode(); err != nil {
			r.log.Warn("snapshot encode failed", zap.String("lobby", code), zap.Error(err))
		} else if err := r.store.SaveSnapshot(ctx, code, data, snap.Checksum()); err != nil {
			r.log.Warn("snapshot save failed", zap.String("lobby", code), zap.Error(err))
		}
	}
	return game.Consolidate(ns), nil
}

// AddPlayer seats a player in the lobby.
func (r *Registry) AddPlayer(ctx context.Context, code, name string) ([]game.Notification, error) {
	return r.run(ctx, code, func(g *game.Game) ([]game.Notification, error) {
		return g.AddPlayer(name)
	})
}

// RemovePlayer removes or eliminates a player.
func (r *Registry) RemovePlayer(ctx context.Context, code, name string) ([]game.Notification, error) {
	return r.run(ctx, code, func(g *game.Game) ([]game.Notification, error) {
		return g.RemovePlayer(name)
	})
}

// PrepareSetup deals roles and character choices.
func (r *Registry) PrepareSetup(ctx context.Context, code string) ([]game.Notification, error) {
	return r.run(ctx, code, func(g *game.Game) ([]game.Notification, error) {
		return g.PrepareSetup()
	})
}

// AssignCharacter locks in a character pick.
func (r *Registry) AssignCharacter(ctx context.Context, code, name, character string) ([]game.Notification, error) {
	return r.run(ctx, code, func(g *game.Game) ([]game.Notification, error) {
		return g.AssignCharacter(name, character)
	})
}

// RequestPlay plays a card from the current player's hand.
func (r *Registry) RequestPlay(ctx context.Context, code, name string, cardID int) ([]game.Notification, error) {
	return r.run(ctx, code, func(g *game.Game) ([]game.Notification, error) {
		return g.RequestPlay(name, cardID)
	})
}

// AnswerQuestion answers the player's open prompt.
func (r *Registry) AnswerQuestion(ctx context.Context, code, name, questionID, answer string) ([]game.Notification, error) {
	return r.run(ctx, code, func(g *game.Game) ([]game.Notification, error) {
		return g.AnswerQuestion(name, questionID, answer)
	})
}

// EndTurn closes the current player's action phase.
func (r *Registry) EndTurn(ctx context.Context, code, name string) ([]game.Notification, error) {
	return r.run(ctx, code, func(g *game.Game) ([]game.Notification, error) {
		return g.EndTurn(name)
	})
}

// DiscardCard discards during the discard phase.
func (r *Registry) DiscardCard(ctx context.Context, code, name string, cardID int) ([]game.Notification, error) {
	return r.run(ctx, code, func(g *game.Game) ([]game.Notification, error) {
		return g.DiscardCard(name, cardID)
	})
}

// CancelInFlight takes back an uncommitted card.
func (r *Registry) CancelInFlight(ctx context.Context, code, name string) ([]game.Notification, error) {
	return r.run(ctx, code, func(g *game.Game) ([]game.Notification, error) {
		return g.CancelInFlight(name)
	})
}

// UseInnateAbility invokes a player-triggered character ability.
func (r *Registry) UseInnateAbility(ctx context.Context, code, name string) ([]game.Notification, error) {
	return r.run(ctx, code, func(g *game.Game) ([]game.Notification, error) {
		return g.UseInnateAbility(name)
	})
}

// Reconnect replays a player's private state.
func (r *Registry) Reconnect(ctx context.Context, code, name string) ([]game.Notification, error) {
	return r.run(ctx, code, func(g *game.Game) ([]game.Notification, error) {
		return g.Reconnect(name)
	})
}
