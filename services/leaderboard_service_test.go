package services

import (
	"context"
	"testing"
	"time"

	"github.com/Dosada05/wsob-poker/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLeaderboardRepo struct {
	from, to  time.Time
	standings []models.SeasonStanding
}

func (r *fakeLeaderboardRepo) SeasonTotals(ctx context.Context, from, to time.Time) ([]models.SeasonStanding, error) {
	r.from, r.to = from, to
	return r.standings, nil
}

func TestSeasonRanks(t *testing.T) {
	repo := &fakeLeaderboardRepo{standings: []models.SeasonStanding{
		{PlayerName: "anna", Points: 30, Wins: 2},
		{PlayerName: "boris", Points: 20, Wins: 1},
		{PlayerName: "vera", Points: 20, Wins: 1},
		{PlayerName: "gleb", Points: 20, Wins: 0},
		{PlayerName: "dina", Points: 5},
	}}
	svc := NewLeaderboardService(repo)

	standings, err := svc.Season(context.Background(), 2025)
	require.NoError(t, err)
	ranks := make([]int, len(standings))
	for i, s := range standings {
		ranks[i] = s.Rank
	}
	assert.Equal(t, []int{1, 2, 2, 4, 5}, ranks)
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), repo.from)
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), repo.to)
}

func TestSeasonRejectsYear(t *testing.T) {
	svc := NewLeaderboardService(&fakeLeaderboardRepo{})
	for _, year := range []int{0, 1999, 10000} {
		_, err := svc.Season(context.Background(), year)
		assert.ErrorIs(t, err, ErrValidationFailed, "year %d", year)
	}
}
