package services

import (
	"context"
	"fmt"
	"time"

	"github.com/Dosada05/wsob-poker/models"
	"github.com/Dosada05/wsob-poker/repositories"
)

const (
	minSeason = 2000
	maxSeason = 9999
)

type LeaderboardService interface {
	Season(ctx context.Context, year int) ([]models.SeasonStanding, error)
}

type leaderboardService struct {
	repo repositories.LeaderboardRepository
}

func NewLeaderboardService(repo repositories.LeaderboardRepository) LeaderboardService {
	return &leaderboardService{repo: repo}
}

// Season: a season is the UTC calendar year of the games' creation.
func (s *leaderboardService) Season(ctx context.Context, year int) ([]models.SeasonStanding, error) {
	if year < minSeason || year > maxSeason {
		return nil, fmt.Errorf("%w: season must be between %d and %d", ErrValidationFailed, minSeason, maxSeason)
	}
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(1, 0, 0)

	standings, err := s.repo.SeasonTotals(ctx, from, to)
	if err != nil {
		return nil, err
	}
	assignRanks(standings)
	return standings, nil
}

// assignRanks expects standings ordered by points desc, wins desc. Players
// level on both share a rank; the next rank skips accordingly (1, 2, 2, 4).
func assignRanks(standings []models.SeasonStanding) {
	for i := range standings {
		if i > 0 && standings[i].Points == standings[i-1].Points && standings[i].Wins == standings[i-1].Wins {
			standings[i].Rank = standings[i-1].Rank
			continue
		}
		standings[i].Rank = i + 1
	}
}
