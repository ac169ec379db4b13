package persist

import (
	"context"
	"fmt"
	"time"

	"github.com/mjgo/server/internal/event"
)

// HistoryRepo stores one row per game for the match-history surface.
type HistoryRepo struct {
	db *DB
}

func NewHistoryRepo(db *DB) *HistoryRepo {
	return &HistoryRepo{db: db}
}

// CreateGame inserts the row when the first round deals.
func (r *HistoryRepo) CreateGame(ctx context.Context, id string, startedAt time.Time, gameType string, players []string) error {
	_, err := r.db.Pool.Exec(ctx,
		`INSERT INTO games (game_id, started_at, game_type, players)
		 VALUES ($1, $2, $3, $4)`,
		id, startedAt, gameType, players)
	if err != nil {
		return fmt.Errorf("create game %s: %w", id, err)
	}
	return nil
}

// FinishGame closes the row. endReason is "completed" or "abandoned";
// standings is nil for abandoned games.
func (r *HistoryRepo) FinishGame(ctx context.Context, id string, endedAt time.Time, endReason string, numRounds int, standings []event.Standing) error {
	var names []string
	var scores []int
	for _, s := range standings {
		names = append(names, s.Name)
		scores = append(scores, s.Score)
	}
	_, err := r.db.Pool.Exec(ctx,
		`UPDATE games
		 SET ended_at = $2, end_reason = $3, num_rounds = $4,
		     standing_names = $5, standing_scores = $6
		 WHERE game_id = $1`,
		id, endedAt, endReason, numRounds, names, scores)
	if err != nil {
		return fmt.Errorf("finish game %s: %w", id, err)
	}
	return nil
}

// GameRow is one finished or in-progress game.
type GameRow struct {
	GameID    string
	StartedAt time.Time
	EndedAt   *time.Time
	GameType  string
	EndReason *string
	NumRounds *int
	Players   []string
}

// RecentGames lists the newest games, most recent first.
func (r *HistoryRepo) RecentGames(ctx context.Context, limit int) ([]GameRow, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT game_id, started_at, ended_at, game_type, end_reason, num_rounds, players
		 FROM games ORDER BY started_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}
	defer rows.Close()

	var out []GameRow
	for rows.Next() {
		var g GameRow
		if err := rows.Scan(&g.GameID, &g.StartedAt, &g.EndedAt, &g.GameType,
			&g.EndReason, &g.NumRounds, &g.Players); err != nil {
			return nil, fmt.Errorf("scan game row: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}
