package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// ErrNotFound is returned when no snapshot exists for a lobby.
var ErrNotFound = errors.New("snapshot not found")

// SnapshotRepository stores one serialized game per lobby. The registry
// writes whenever a game goes idle, so after a crash every lobby resumes at
// its last settled state.
type SnapshotRepository struct {
	db  *pgxpool.Pool
	log *zap.Logger
}

// NewSnapshotRepository wires the repository. logger may be nil.
func NewSnapshotRepository(db *pgxpool.Pool, logger *zap.Logger) *SnapshotRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SnapshotRepository{db: db, log: logger}
}

// EnsureSchema creates the snapshot table when it does not exist yet.
func (r *SnapshotRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS game_snapshots (
			lobby      TEXT PRIMARY KEY,
			data       BYTEA NOT NULL,
			checksum   TEXT NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`)
	if err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// SaveSnapshot upserts the lobby's snapshot.
func (r *SnapshotRepository) SaveSnapshot(ctx context.Context, lobby string, data []byte, checksum string) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO game_snapshots (lobby, data, checksum, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (lobby) DO UPDATE
		SET data = EXCLUDED.data, checksum = EXCLUDED.checksum, updated_at = now()`,
		lobby, data, checksum)
	if err != nil {
		return fmt.Errorf("save snapshot %s: %w", lobby, err)
	}
	r.log.Debug("snapshot saved",
		zap.String("lobby", lobby),
		zap.Int("bytes", len(data)),
		zap.String("checksum", checksum),
	)
	return nil
}

// LoadSnapshot fetches the lobby's snapshot.
func (r *SnapshotRepository) LoadSnapshot(ctx context.Context, lobby string) ([]byte, error) {
	var data []byte
	err := r.db.QueryRow(ctx,
		`SELECT data FROM game_snapshots WHERE lobby = $1`, lobby).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot %s: %w", lobby, err)
	}
	return data, nil
}

// DeleteSnapshot drops the lobby's snapshot.
func (r *SnapshotRepository) DeleteSnapshot(ctx context.Context, lobby string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM game_snapshots WHERE lobby = $1`, lobby)
	if err != nil {
		return fmt.Errorf("delete snapshot %s: %w", lobby, err)
	}
	return nil
}

// Lobbies lists every lobby with a stored snapshot, for resume at boot.
func (r *SnapshotRepository) Lobbies(ctx context.Context) ([]string, error) {
	rows, err := r.db.Query(ctx, `SELECT lobby FROM game_snapshots ORDER BY lobby`)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var lobby string
		if err := rows.Scan(&lobby); err != nil {
			return nil, fmt.Errorf("scan snapshot row: %w", err)
		}
		out = append(out, lobby)
	}
	return out, rows.Err()
}
