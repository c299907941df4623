package lobby

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Nighthawkeye449/bang-server-go/internal/game"
)

// memStore keeps snapshots in a map, standing in for the database.
type memStore struct {
	snaps     map[string][]byte
	checksums map[string]string
}

func newMemStore() *memStore {
	return &memStore{snaps: map[string][]byte{}, checksums: map[string]string{}}
}

func (m *memStore) SaveSnapshot(_ context.Context, lobby string, data []byte, checksum string) error {
	m.snaps[lobby] = data
	m.checksums[lobby] = checksum
	return nil
}

func (m *memStore) LoadSnapshot(_ context.Context, lobby string) ([]byte, error) {
	data, ok := m.snaps[lobby]
	if !ok {
		return nil, ErrNoSuchLobby
	}
	return data, nil
}

func (m *memStore) DeleteSnapshot(_ context.Context, lobby string) error {
	delete(m.snaps, lobby)
	delete(m.checksums, lobby)
	return nil
}

func TestRegistryCreateExistsClose(t *testing.T) {
	r := NewRegistry(zap.NewNop(), nil)
	require.NoError(t, r.Create("AB12"))
	assert.True(t, r.Exists("AB12"))
	assert.ErrorIs(t, r.Create("AB12"), ErrLobbyExists)
	assert.ElementsMatch(t, []string{"AB12"}, r.Codes())

	require.NoError(t, r.Close(context.Background(), "AB12"))
	assert.False(t, r.Exists("AB12"))
	assert.ErrorIs(t, r.Close(context.Background(), "AB12"), ErrNoSuchLobby)
}

func TestRegistryUnknownLobby(t *testing.T) {
	r := NewRegistry(zap.NewNop(), nil)
	_, err := r.AddPlayer(context.Background(), "NOPE", "amy")
	assert.ErrorIs(t, err, ErrNoSuchLobby)
}

func TestRegistryRejectionsPassThrough(t *testing.T) {
	r := NewRegistry(zap.NewNop(), nil)
	require.NoError(t, r.Create("AB12"))
	ctx := context.Background()

	_, err := r.AddPlayer(ctx, "AB12", "amy")
	require.NoError(t, err)
	_, err = r.AddPlayer(ctx, "AB12", "amy")
	require.Error(t, err)
	_, ok := game.AsRejection(err)
	assert.True(t, ok, "player errors surface as rejections, not registry errors")
}

// startGame drives a lobby through setup via the registry, picking the first
// offered character for every seat.
func startGame(t *testing.T, r *Registry, ctx context.Context, code string, players []string) {
	t.Helper()
	for _, name := range players {
		_, err := r.AddPlayer(ctx, code, name)
		require.NoError(t, err)
	}
	ns, err := r.PrepareSetup(ctx, code)
	require.NoError(t, err)

	offers := map[string]string{}
	for _, n := range ns {
		if n.Type != game.NoteCharacterChoice {
			continue
		}
		require.Len(t, n.To, 1)
		p := n.Payload.(game.CharacterChoicePayload)
		require.NotEmpty(t, p.Names)
		offers[n.To[0]] = p.Names[0]
	}
	require.Len(t, offers, len(players), "every seat gets a character offer")
	for name, char := range offers {
		_, err := r.AssignCharacter(ctx, code, name, char)
		require.NoError(t, err)
	}
}

func TestRegistryFullSetupFlow(t *testing.T) {
	r := NewRegistry(zap.NewNop(), nil, game.WithSeed(11))
	ctx := context.Background()
	require.NoError(t, r.Create("AB12"))
	startGame(t, r, ctx, "AB12", []string{"amy", "bill", "cass", "drew"})

	// The game is running: joining now is rejected.
	_, err := r.AddPlayer(ctx, "AB12", "late")
	require.Error(t, err)

	_, err = r.Reconnect(ctx, "AB12", "bill")
	require.NoError(t, err)
}

func TestRegistryPersistsWhenIdle(t *testing.T) {
	store := newMemStore()
	r := NewRegistry(zap.NewNop(), store, game.WithSeed(11))
	ctx := context.Background()
	require.NoError(t, r.Create("AB12"))

	_, err := r.AddPlayer(ctx, "AB12", "amy")
	require.NoError(t, err)
	require.Contains(t, store.snaps, "AB12", "an idle game is persisted after every operation")
	assert.NotEmpty(t, store.checksums["AB12"])
}

func TestRegistryResume(t *testing.T) {
	store := newMemStore()
	ctx := context.Background()

	r := NewRegistry(zap.NewNop(), store, game.WithSeed(11))
	require.NoError(t, r.Create("AB12"))
	startGame(t, r, ctx, "AB12", []string{"amy", "bill", "cass", "drew"})
	want := store.checksums["AB12"]
	require.NotEmpty(t, want)

	// A fresh registry, as after a restart.
	r2 := NewRegistry(zap.NewNop(), store, game.WithSeed(11))
	require.NoError(t, r2.Resume(ctx, "AB12"))
	assert.True(t, r2.Exists("AB12"))
	assert.ErrorIs(t, r2.Resume(ctx, "AB12"), ErrLobbyExists)

	// The resumed game answers operations.
	_, err := r2.Reconnect(ctx, "AB12", "amy")
	require.NoError(t, err)

	require.Error(t, r2.Resume(ctx, "GONE"))
}

func TestRegistryRollsBackOnInvariantViolation(t *testing.T) {
	r := NewRegistry(zap.NewNop(), nil, game.WithSeed(11))
	ctx := context.Background()
	require.NoError(t, r.Create("AB12"))

	_, err := r.AddPlayer(ctx, "AB12", "amy")
	require.NoError(t, err)

	// An operation that mutates the game and then trips an invariant must
	// leave no trace of the mutation behind.
	_, err = r.run(ctx, "AB12", func(g *game.Game) ([]game.Notification, error) {
		if _, err := g.AddPlayer("mallory"); err != nil {
			return nil, err
		}
		return nil, &game.InvariantError{Reason: "seat check failed"}
	})
	require.Error(t, err)
	assert.True(t, game.IsInvariant(err))

	// The seat added by the failed operation is gone, so the name is free.
	_, err = r.AddPlayer(ctx, "AB12", "mallory")
	require.NoError(t, err)
}

func TestRegistryCloseDropsSnapshot(t *testing.T) {
	store := newMemStore()
	r := NewRegistry(zap.NewNop(), store, game.WithSeed(11))
	ctx := context.Background()
	require.NoError(t, r.Create("AB12"))
	_, err := r.AddPlayer(ctx, "AB12", "amy")
	require.NoError(t, err)
	require.Contains(t, store.snaps, "AB12")

	require.NoError(t, r.Close(ctx, "AB12"))
	assert.NotContains(t, store.snaps, "AB12")
}
