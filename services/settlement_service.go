package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Dosada05/wsob-poker/models"
	"github.com/Dosada05/wsob-poker/repositories"
	"github.com/Dosada05/wsob-poker/settlement"
	"github.com/Dosada05/wsob-poker/storage"
	"github.com/coder/quartz"
	"github.com/google/uuid"
)

// sweepBatch caps the number of games settled per sweeper run.
const sweepBatch = 50

type SettlementService interface {
	// End settles a ready game and marks it ended in one transaction. Ending an
	// already settled game recomputes the same report.
	End(ctx context.Context, gameID uuid.UUID) (*models.SettlementReport, error)
	// Reopen clears the computed state of a settled (or failed) game. Positions are
	// kept, so the game comes back as ready, not open.
	Reopen(ctx context.Context, gameID uuid.UUID) error
	// Get returns the stored report of a settled game, or a provisional one.
	Get(ctx context.Context, gameID uuid.UUID) (*models.SettlementReport, error)
	// SettlePending settles games that were marked ended but have no settlement.
	SettlePending(ctx context.Context) (settled int, err error)
}

type settlementService struct {
	tx             Transactor
	gameRepo       repositories.GameRepository
	gameDataRepo   repositories.GameDataRepository
	ruleRepo       repositories.RuleRepository
	settlementRepo repositories.SettlementRepository
	archive        storage.FileUploader
	clock          quartz.Clock
	logger         *slog.Logger
}

// NewSettlementService: archive may be nil, reports are then kept in the database only.
func NewSettlementService(
	tx Transactor,
	gameRepo repositories.GameRepository,
	gameDataRepo repositories.GameDataRepository,
	ruleRepo repositories.RuleRepository,
	settlementRepo repositories.SettlementRepository,
	archive storage.FileUploader,
	clock quartz.Clock,
	logger *slog.Logger,
) SettlementService {
	return &settlementService{
		tx:             tx,
		gameRepo:       gameRepo,
		gameDataRepo:   gameDataRepo,
		ruleRepo:       ruleRepo,
		settlementRepo: settlementRepo,
		archive:        archive,
		clock:          clock,
		logger:         logger,
	}
}

func (s *settlementService) End(ctx context.Context, gameID uuid.UUID) (*models.SettlementReport, error) {
	report, err := s.settle(ctx, gameID, false)
	if err != nil {
		return nil, err
	}
	s.archiveReport(ctx, report)
	return report, nil
}

// settle runs the whole settlement of one game inside a single transaction.
// pendingOnly restricts it to games already marked ended (sweeper path).
func (s *settlementService) settle(ctx context.Context, gameID uuid.UUID, pendingOnly bool) (*models.SettlementReport, error) {
	var report *models.SettlementReport
	err := s.tx.WithinTx(ctx, func(tx repositories.SQLExecutor) error {
		game, err := s.gameRepo.GetForUpdate(ctx, tx, gameID)
		if err != nil {
			return err
		}
		entries, err := s.gameDataRepo.ListByGame(ctx, tx, gameID, true)
		if err != nil {
			return err
		}
		game.Entries = entries

		switch game.DeriveStatus() {
		case models.GameStatusReady:
			if pendingOnly {
				return ErrGameNotReady
			}
		case models.GameStatusEnded, models.GameStatusSettled:
		default:
			return ErrGameNotReady
		}

		// FOR SHARE: a concurrent rule edit waits for this settlement, then sees the game ended.
		rule, err := s.ruleRepo.GetForShare(ctx, tx, game.RuleID)
		if err != nil {
			return err
		}

		report, err = settlement.ComputeSettlement(game, rule)
		if err != nil {
			return err
		}

		for _, e := range report.Entries {
			if err := s.gameDataRepo.WriteSettlement(ctx, tx, e.DataID, e.Net, e.Points); err != nil {
				return fmt.Errorf("failed to write settlement of entry %s: %w", e.DataID, err)
			}
		}
		if err := s.gameRepo.MarkSettled(ctx, tx, gameID, s.clock.Now().UTC()); err != nil {
			return err
		}
		return s.settlementRepo.Upsert(ctx, tx, &models.Settlement{
			GameID: game.ID,
			RuleID: rule.ID,
			Digest: report.Digest,
			Report: report,
		})
	})
	if err != nil {
		return nil, mapGameRepoError(err)
	}

	s.logger.Info("game settled",
		"game_id", gameID,
		"digest", report.Digest,
		"pot", report.Pot.StringFixed(settlement.CurrencyPlaces),
		"warnings", len(report.Warnings),
	)
	return report, nil
}

func (s *settlementService) Reopen(ctx context.Context, gameID uuid.UUID) error {
	err := s.tx.WithinTx(ctx, func(tx repositories.SQLExecutor) error {
		game, err := s.gameRepo.GetForUpdate(ctx, tx, gameID)
		if err != nil {
			return err
		}
		if !game.Ended {
			return ErrGameNotSettled
		}
		if err := s.gameDataRepo.ClearSettlement(ctx, tx, gameID); err != nil {
			return err
		}
		if err := s.settlementRepo.DeleteByGame(ctx, tx, gameID); err != nil {
			return err
		}
		return s.gameRepo.Reopen(ctx, tx, gameID)
	})
	if err != nil {
		return mapGameRepoError(err)
	}
	s.logger.Info("game reopened", "game_id", gameID)
	return nil
}

func (s *settlementService) Get(ctx context.Context, gameID uuid.UUID) (*models.SettlementReport, error) {
	game, err := s.gameRepo.GetByID(ctx, nil, gameID)
	if err != nil {
		return nil, mapGameRepoError(err)
	}
	entries, err := s.gameDataRepo.ListByGame(ctx, nil, gameID, false)
	if err != nil {
		return nil, err
	}
	game.Entries = entries

	if game.SettledAt != nil {
		stored, err := s.settlementRepo.GetByGame(ctx, nil, gameID)
		if err == nil {
			refreshPayed(stored.Report, entries)
			return stored.Report, nil
		}
		if !errors.Is(err, repositories.ErrSettlementNotFound) {
			return nil, err
		}
		s.logger.Warn("settled game has no stored report", "game_id", gameID)
	}

	rule, err := s.ruleRepo.GetByID(ctx, nil, game.RuleID)
	if err != nil {
		return nil, mapRuleRepoError(err)
	}
	return settlement.ComputeProvisional(game, rule)
}

// refreshPayed: payed is carry-through and may change after settlement. The
// digest stays that of the settled report.
func refreshPayed(report *models.SettlementReport, entries []models.GameData) {
	payed := make(map[uuid.UUID]bool, len(entries))
	for _, e := range entries {
		payed[e.ID] = e.Payed
	}
	for i := range report.Entries {
		if p, ok := payed[report.Entries[i].DataID]; ok {
			report.Entries[i].Payed = p
		}
	}
}

func (s *settlementService) SettlePending(ctx context.Context) (int, error) {
	ids, err := s.gameRepo.ListUnsettled(ctx, sweepBatch)
	if err != nil {
		return 0, err
	}

	settled := 0
	for _, id := range ids {
		if ctx.Err() != nil {
			return settled, ctx.Err()
		}
		report, err := s.settle(ctx, id, true)
		if err != nil {
			s.logger.Error("sweeper failed to settle game", "game_id", id, "error", err)
			if recErr := s.gameRepo.SetSettlementError(ctx, id, err.Error()); recErr != nil {
				s.logger.Error("failed to record settlement error", "game_id", id, "error", recErr)
			}
			continue
		}
		s.archiveReport(ctx, report)
		settled++
	}
	return settled, nil
}

// archiveReport stores the report JSON in object storage. Best effort: the
// database copy is authoritative.
func (s *settlementService) archiveReport(ctx context.Context, report *models.SettlementReport) {
	if s.archive == nil || report == nil {
		return
	}
	data, err := json.MarshalIndent(report, "", "\t")
	if err != nil {
		s.logger.Error("failed to encode settlement report for archive", "game_id", report.GameID, "error", err)
		return
	}
	key := ArchiveKey(report)
	if _, err := s.archive.Upload(ctx, key, "application/json", bytes.NewReader(data)); err != nil {
		s.logger.Warn("failed to archive settlement report", "game_id", report.GameID, "key", key, "error", err)
		return
	}
	s.logger.Debug("settlement report archived", "game_id", report.GameID, "key", key)
}

func ArchiveKey(report *models.SettlementReport) string {
	return storage.SettlementArchiveKey(report.GameID.String(), report.Digest)
}
