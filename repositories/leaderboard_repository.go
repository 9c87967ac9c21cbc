package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Dosada05/wsob-poker/models"
)

type LeaderboardRepository interface {
	// SeasonTotals aggregates stored points and debits of settled games created
	// in [from, to). Rank is left zero.
	SeasonTotals(ctx context.Context, from, to time.Time) ([]models.SeasonStanding, error)
}

type postgresLeaderboardRepository struct {
	db *sql.DB
}

func NewPostgresLeaderboardRepository(db *sql.DB) LeaderboardRepository {
	return &postgresLeaderboardRepository{db: db}
}

func (r *postgresLeaderboardRepository) SeasonTotals(ctx context.Context, from, to time.Time) ([]models.SeasonStanding, error) {
	query := `
		SELECT
			p.id,
			p.name,
			COALESCE(SUM(gd.points), 0)                  AS points,
			COUNT(gd.id)                                 AS games_played,
			COUNT(*) FILTER (WHERE gd.left_pos = 1)      AS wins,
			COALESCE(SUM(gd.knockouts), 0)               AS knockouts,
			COALESCE(SUM(gd.debit), 0)                   AS net
		FROM game_data gd
		JOIN games g ON g.id = gd.game_id
		JOIN players p ON p.id = gd.player_id
		WHERE g.ended AND g.settled_at IS NOT NULL
		  AND g.created_at >= $1 AND g.created_at < $2
		GROUP BY p.id, p.name
		ORDER BY points DESC, wins DESC, p.name ASC`

	rows, err := r.db.QueryContext(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to load season totals: %w", err)
	}
	defer rows.Close()

	standings := make([]models.SeasonStanding, 0)
	for rows.Next() {
		var s models.SeasonStanding
		if err := rows.Scan(&s.PlayerID, &s.PlayerName, &s.Points, &s.GamesPlayed, &s.Wins, &s.Knockouts, &s.Net); err != nil {
			return nil, fmt.Errorf("failed to scan season standing: %w", err)
		}
		standings = append(standings, s)
	}
	return standings, rows.Err()
}
