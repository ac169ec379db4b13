package persist

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// ErrReplayNotFound is returned when no journal exists for the game.
var ErrReplayNotFound = errors.New("replay not found")

// ReplayRepo stores the JSON-lines journal of each completed game.
type ReplayRepo struct {
	db *DB
}

func NewReplayRepo(db *DB) *ReplayRepo {
	return &ReplayRepo{db: db}
}

func (r *ReplayRepo) SaveReplay(ctx context.Context, gameID string, journal []byte) error {
	_, err := r.db.Pool.Exec(ctx,
		`INSERT INTO replays (game_id, journal)
		 VALUES ($1, $2)
		 ON CONFLICT (game_id) DO NOTHING`,
		gameID, journal)
	if err != nil {
		return fmt.Errorf("save replay %s: %w", gameID, err)
	}
	return nil
}

func (r *ReplayRepo) LoadReplay(ctx context.Context, gameID string) ([]byte, error) {
	var journal []byte
	err := r.db.Pool.QueryRow(ctx,
		`SELECT journal FROM replays WHERE game_id = $1`, gameID,
	).Scan(&journal)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrReplayNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load replay %s: %w", gameID, err)
	}
	return journal, nil
}
