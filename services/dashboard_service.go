package services

import (
	"context"
	"fmt"

	"github.com/Dosada05/wsob-poker/models"
	"github.com/Dosada05/wsob-poker/repositories"
	"golang.org/x/sync/errgroup"
)

const recentGamesLimit = 5

type DashboardService interface {
	GetStats(ctx context.Context) (models.DashboardStats, error)
}

type dashboardService struct {
	playerRepo   repositories.PlayerRepository
	gameRepo     repositories.GameRepository
	gameDataRepo repositories.GameDataRepository
	games        GameService
}

func NewDashboardService(
	playerRepo repositories.PlayerRepository,
	gameRepo repositories.GameRepository,
	gameDataRepo repositories.GameDataRepository,
	games GameService,
) DashboardService {
	return &dashboardService{
		playerRepo:   playerRepo,
		gameRepo:     gameRepo,
		gameDataRepo: gameDataRepo,
		games:        games,
	}
}

func (s *dashboardService) GetStats(ctx context.Context) (models.DashboardStats, error) {
	var stats models.DashboardStats
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		n, err := s.playerRepo.Count(gCtx)
		stats.PlayersTotal = n
		return err
	})
	g.Go(func() error {
		counts, err := s.gameRepo.Counts(gCtx)
		stats.OpenGames, stats.EndedGames, stats.SettledGames = counts.Open, counts.Ended, counts.Settled
		return err
	})
	g.Go(func() error {
		n, err := s.gameDataRepo.CountUnpaid(gCtx)
		stats.UnpaidEntries = n
		return err
	})
	g.Go(func() error {
		recent, err := s.games.List(gCtx, models.GameFilter{Limit: recentGamesLimit})
		stats.RecentGames = recent
		return err
	})

	if err := g.Wait(); err != nil {
		return models.DashboardStats{}, fmt.Errorf("failed to load dashboard: %w", err)
	}
	return stats, nil
}
