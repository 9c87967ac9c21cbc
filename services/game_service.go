package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/Dosada05/wsob-poker/models"
	"github.com/Dosada05/wsob-poker/repositories"
	"github.com/Dosada05/wsob-poker/settlement"
	"github.com/Dosada05/wsob-poker/storage"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

type CreateGameInput struct {
	RuleID    uuid.UUID   `json:"rule_id"`
	PlayerIDs []uuid.UUID `json:"player_ids"`
}

// UpdateEntryInput: nil fields stay unchanged. Version must equal the stored
// version of the entry.
type UpdateEntryInput struct {
	Knockouts *int  `json:"knockouts"`
	Rebuys    *int  `json:"rebuys"`
	Addon     *bool `json:"addon"`
	Payed     *bool `json:"payed"`
	Version   int   `json:"version"`
}

type GameService interface {
	Create(ctx context.Context, actor *Claims, input CreateGameInput) (*models.Game, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Game, error)
	List(ctx context.Context, filter models.GameFilter) ([]models.Game, error)
	AddParticipant(ctx context.Context, gameID, playerID uuid.UUID) (*models.GameData, error)
	RemoveParticipant(ctx context.Context, gameID, dataID uuid.UUID) error
	UpdateEntry(ctx context.Context, gameID, dataID uuid.UUID, input UpdateEntryInput) (*models.GameData, error)
	// Eliminate assigns a finish position. A nil position takes the highest
	// free one, counting down from the number of participants.
	Eliminate(ctx context.Context, gameID, dataID uuid.UUID, position *int) (*models.GameData, error)
	Revive(ctx context.Context, gameID, dataID uuid.UUID) (*models.GameData, error)
	SetPayment(ctx context.Context, gameID, dataID uuid.UUID, payed bool) (*models.GameData, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type gameService struct {
	tx           Transactor
	gameRepo     repositories.GameRepository
	gameDataRepo repositories.GameDataRepository
	ruleRepo     repositories.RuleRepository
	uploader     storage.FileUploader
}

func NewGameService(
	tx Transactor,
	gameRepo repositories.GameRepository,
	gameDataRepo repositories.GameDataRepository,
	ruleRepo repositories.RuleRepository,
	uploader storage.FileUploader,
) GameService {
	return &gameService{
		tx:           tx,
		gameRepo:     gameRepo,
		gameDataRepo: gameDataRepo,
		ruleRepo:     ruleRepo,
		uploader:     uploader,
	}
}

func (s *gameService) Create(ctx context.Context, actor *Claims, input CreateGameInput) (*models.Game, error) {
	rule, err := s.ruleRepo.GetByID(ctx, nil, input.RuleID)
	if err != nil {
		return nil, mapRuleRepoError(err)
	}
	if !rule.Active {
		return nil, ErrRuleInactive
	}
	if err := settlement.ValidateRule(rule); err != nil {
		return nil, err
	}

	seen := make(map[uuid.UUID]bool, len(input.PlayerIDs))
	for _, id := range input.PlayerIDs {
		if seen[id] {
			return nil, ErrPlayerAlreadyInGame
		}
		seen[id] = true
	}

	game := &models.Game{RuleID: rule.ID}
	if actor != nil {
		createdBy := actor.PlayerID
		game.CreatedBy = &createdBy
	}

	err = s.tx.WithinTx(ctx, func(tx repositories.SQLExecutor) error {
		if err := s.gameRepo.Create(ctx, tx, game); err != nil {
			return err
		}
		for _, playerID := range input.PlayerIDs {
			entry := &models.GameData{GameID: game.ID, PlayerID: playerID}
			if err := s.gameDataRepo.Create(ctx, tx, entry); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, mapGameRepoError(err)
	}
	return s.GetByID(ctx, game.ID)
}

func (s *gameService) GetByID(ctx context.Context, id uuid.UUID) (*models.Game, error) {
	game, err := s.gameRepo.GetByID(ctx, nil, id)
	if err != nil {
		return nil, mapGameRepoError(err)
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rule, err := s.ruleRepo.GetByID(gCtx, nil, game.RuleID)
		if err != nil {
			return fmt.Errorf("failed to load rule %s of game %s: %w", game.RuleID, game.ID, err)
		}
		game.Rule = rule
		return nil
	})
	g.Go(func() error {
		entries, err := s.gameDataRepo.ListByGame(gCtx, nil, game.ID, false)
		if err != nil {
			return fmt.Errorf("failed to load entries of game %s: %w", game.ID, err)
		}
		game.Entries = entries
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.present(game)
	return game, nil
}

func (s *gameService) List(ctx context.Context, filter models.GameFilter) ([]models.Game, error) {
	games, err := s.gameRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list games: %w", err)
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for i := range games {
		game := &games[i]
		g.Go(func() error {
			entries, err := s.gameDataRepo.ListByGame(gCtx, nil, game.ID, false)
			if err != nil {
				return fmt.Errorf("failed to load entries of game %s: %w", game.ID, err)
			}
			game.Entries = entries
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i := range games {
		s.present(&games[i])
	}
	return games, nil
}

func (s *gameService) AddParticipant(ctx context.Context, gameID, playerID uuid.UUID) (*models.GameData, error) {
	entry := &models.GameData{GameID: gameID, PlayerID: playerID}
	err := s.tx.WithinTx(ctx, func(tx repositories.SQLExecutor) error {
		game, err := s.gameRepo.GetForUpdate(ctx, tx, gameID)
		if err != nil {
			return err
		}
		if game.Ended {
			return ErrGameEnded
		}
		return s.gameDataRepo.Create(ctx, tx, entry)
	})
	if err != nil {
		return nil, mapGameRepoError(err)
	}
	return entry, nil
}

func (s *gameService) RemoveParticipant(ctx context.Context, gameID, dataID uuid.UUID) error {
	err := s.tx.WithinTx(ctx, func(tx repositories.SQLExecutor) error {
		if _, err := s.lockOpenGameEntry(ctx, tx, gameID, dataID); err != nil {
			return err
		}
		return s.gameDataRepo.Delete(ctx, tx, dataID)
	})
	return mapGameRepoError(err)
}

func (s *gameService) UpdateEntry(ctx context.Context, gameID, dataID uuid.UUID, input UpdateEntryInput) (*models.GameData, error) {
	if (input.Knockouts != nil && *input.Knockouts < 0) || (input.Rebuys != nil && *input.Rebuys < 0) {
		return nil, fmt.Errorf("%w: knockouts and rebuys must not be negative", ErrValidationFailed)
	}

	var entry *models.GameData
	err := s.tx.WithinTx(ctx, func(tx repositories.SQLExecutor) error {
		var err error
		entry, err = s.lockOpenGameEntry(ctx, tx, gameID, dataID)
		if err != nil {
			return err
		}
		if entry.Version != input.Version {
			return ErrVersionConflict
		}
		if input.Knockouts != nil {
			entry.Knockouts = *input.Knockouts
		}
		if input.Rebuys != nil {
			entry.Rebuys = *input.Rebuys
		}
		if input.Addon != nil {
			entry.Addon = *input.Addon
		}
		if input.Payed != nil {
			entry.Payed = *input.Payed
		}
		return s.gameDataRepo.UpdateResult(ctx, tx, entry)
	})
	if err != nil {
		return nil, mapGameRepoError(err)
	}
	return entry, nil
}

func (s *gameService) Eliminate(ctx context.Context, gameID, dataID uuid.UUID, position *int) (*models.GameData, error) {
	var updated *models.GameData
	err := s.tx.WithinTx(ctx, func(tx repositories.SQLExecutor) error {
		game, err := s.gameRepo.GetForUpdate(ctx, tx, gameID)
		if err != nil {
			return err
		}
		if game.Ended {
			return ErrGameEnded
		}
		entries, err := s.gameDataRepo.ListByGame(ctx, tx, gameID, true)
		if err != nil {
			return err
		}

		var entry *models.GameData
		taken := make(map[int]uuid.UUID, len(entries))
		for i := range entries {
			if entries[i].ID == dataID {
				entry = &entries[i]
			}
			if entries[i].LeftPos > 0 {
				taken[entries[i].LeftPos] = entries[i].ID
			}
		}
		if entry == nil {
			return ErrEntryNotFound
		}

		pos, err := choosePosition(len(entries), taken, entry, position)
		if err != nil {
			return err
		}
		if pos == entry.LeftPos && entry.Complete {
			updated = entry
			return nil
		}
		updated, err = s.gameDataRepo.SetPosition(ctx, tx, dataID, pos, true)
		return err
	})
	if err != nil {
		return nil, mapGameRepoError(err)
	}
	return updated, nil
}

// choosePosition validates an explicit position or picks the next free one
// counting down from n. An entry keeps its own position when asked again.
func choosePosition(n int, taken map[int]uuid.UUID, entry *models.GameData, position *int) (int, error) {
	if position != nil {
		p := *position
		if p < 1 || p > n {
			return 0, fmt.Errorf("%w: %d is outside 1..%d", ErrPositionOutOfRange, p, n)
		}
		if holder, ok := taken[p]; ok && holder != entry.ID {
			return 0, ErrPositionTaken
		}
		return p, nil
	}

	if entry.LeftPos > 0 {
		return entry.LeftPos, nil
	}
	for p := n; p >= 1; p-- {
		if _, ok := taken[p]; !ok {
			return p, nil
		}
	}
	return 0, ErrNoFreePosition
}

func (s *gameService) Revive(ctx context.Context, gameID, dataID uuid.UUID) (*models.GameData, error) {
	var updated *models.GameData
	err := s.tx.WithinTx(ctx, func(tx repositories.SQLExecutor) error {
		entry, err := s.lockOpenGameEntry(ctx, tx, gameID, dataID)
		if err != nil {
			return err
		}
		if entry.LeftPos == 0 {
			return ErrEntryNotEliminated
		}
		updated, err = s.gameDataRepo.SetPosition(ctx, tx, dataID, 0, false)
		return err
	})
	if err != nil {
		return nil, mapGameRepoError(err)
	}
	return updated, nil
}

// SetPayment is allowed after the game has ended: fees are collected after play.
// It never touches debit.
func (s *gameService) SetPayment(ctx context.Context, gameID, dataID uuid.UUID, payed bool) (*models.GameData, error) {
	entry, err := s.gameDataRepo.GetByID(ctx, nil, dataID)
	if err != nil {
		return nil, mapGameRepoError(err)
	}
	if entry.GameID != gameID {
		return nil, ErrEntryNotFound
	}
	updated, err := s.gameDataRepo.SetPayed(ctx, nil, dataID, payed)
	if err != nil {
		return nil, mapGameRepoError(err)
	}
	return updated, nil
}

func (s *gameService) Delete(ctx context.Context, id uuid.UUID) error {
	game, err := s.gameRepo.GetByID(ctx, nil, id)
	if err != nil {
		return mapGameRepoError(err)
	}
	if game.Ended {
		return ErrGameEnded
	}
	return mapGameRepoError(s.gameRepo.Delete(ctx, id))
}

func (s *gameService) lockOpenGameEntry(ctx context.Context, tx repositories.SQLExecutor, gameID, dataID uuid.UUID) (*models.GameData, error) {
	game, err := s.gameRepo.GetForUpdate(ctx, tx, gameID)
	if err != nil {
		return nil, err
	}
	if game.Ended {
		return nil, ErrGameEnded
	}
	entry, err := s.gameDataRepo.GetByID(ctx, tx, dataID)
	if err != nil {
		return nil, err
	}
	if entry.GameID != gameID {
		return nil, ErrEntryNotFound
	}
	return entry, nil
}

func (s *gameService) present(game *models.Game) {
	for i := range game.Entries {
		populatePlayerAvatarURL(game.Entries[i].Player, s.uploader)
	}
	game.Status = game.DeriveStatus()
}

func mapGameRepoError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repositories.ErrGameNotFound):
		return ErrGameNotFound
	case errors.Is(err, repositories.ErrGameRuleInvalid):
		return ErrRuleNotFound
	case errors.Is(err, repositories.ErrGameDataNotFound):
		return ErrEntryNotFound
	case errors.Is(err, repositories.ErrGameDataVersionConflict):
		return ErrVersionConflict
	case errors.Is(err, repositories.ErrGameDataPlayerConflict):
		return ErrPlayerAlreadyInGame
	case errors.Is(err, repositories.ErrGameDataPlayerInvalid):
		return ErrPlayerNotFound
	case errors.Is(err, repositories.ErrPositionTaken):
		return ErrPositionTaken
	case errors.Is(err, repositories.ErrRuleNotFound):
		return ErrRuleNotFound
	default:
		return err
	}
}
