package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Dosada05/wsob-poker/models"
	"github.com/google/uuid"
)

var ErrSettlementNotFound = errors.New("settlement not found")

type SettlementRepository interface {
	// Upsert stores the report of a game, replacing any earlier one.
	Upsert(ctx context.Context, exec SQLExecutor, s *models.Settlement) error
	GetByGame(ctx context.Context, exec SQLExecutor, gameID uuid.UUID) (*models.Settlement, error)
	DeleteByGame(ctx context.Context, exec SQLExecutor, gameID uuid.UUID) error
}

type postgresSettlementRepository struct {
	db *sql.DB
}

func NewPostgresSettlementRepository(db *sql.DB) SettlementRepository {
	return &postgresSettlementRepository{db: db}
}

func (r *postgresSettlementRepository) Upsert(ctx context.Context, exec SQLExecutor, s *models.Settlement) error {
	report, err := json.Marshal(s.Report)
	if err != nil {
		return fmt.Errorf("failed to encode settlement report: %w", err)
	}

	query := `
		INSERT INTO settlements (game_id, rule_id, digest, report)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (game_id) DO UPDATE SET
			rule_id = EXCLUDED.rule_id,
			digest = EXCLUDED.digest,
			report = EXCLUDED.report,
			created_at = now()
		RETURNING created_at`

	return getExecutor(exec, r.db).QueryRowContext(ctx, query, s.GameID, s.RuleID, s.Digest, report).
		Scan(&s.CreatedAt)
}

func (r *postgresSettlementRepository) GetByGame(ctx context.Context, exec SQLExecutor, gameID uuid.UUID) (*models.Settlement, error) {
	var s models.Settlement
	var report []byte
	err := getExecutor(exec, r.db).QueryRowContext(ctx, `
		SELECT game_id, rule_id, digest, report, created_at
		FROM settlements WHERE game_id = $1`, gameID,
	).Scan(&s.GameID, &s.RuleID, &s.Digest, &report, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSettlementNotFound
		}
		return nil, fmt.Errorf("failed to load settlement: %w", err)
	}

	s.Report = &models.SettlementReport{}
	if err := json.Unmarshal(report, s.Report); err != nil {
		return nil, fmt.Errorf("failed to decode settlement report: %w", err)
	}
	return &s, nil
}

func (r *postgresSettlementRepository) DeleteByGame(ctx context.Context, exec SQLExecutor, gameID uuid.UUID) error {
	_, err := getExecutor(exec, r.db).ExecContext(ctx, `DELETE FROM settlements WHERE game_id = $1`, gameID)
	return err
}
