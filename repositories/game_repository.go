package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Dosada05/wsob-poker/models"
	"github.com/google/uuid"
)

var (
	ErrGameNotFound    = errors.New("game not found")
	ErrGameRuleInvalid = errors.New("game rule conflict or invalid")
)

type GameCounts struct {
	Open    int
	Ended   int // ended, settlement pending or failed
	Settled int
}

type GameRepository interface {
	Create(ctx context.Context, exec SQLExecutor, game *models.Game) error
	GetByID(ctx context.Context, exec SQLExecutor, id uuid.UUID) (*models.Game, error)
	// GetForUpdate locks the game row until the surrounding transaction ends.
	GetForUpdate(ctx context.Context, tx SQLExecutor, id uuid.UUID) (*models.Game, error)
	List(ctx context.Context, filter models.GameFilter) ([]models.Game, error)
	// ListUnsettled returns ended games without a settlement, oldest first.
	// Games whose last attempt failed come after the rest.
	ListUnsettled(ctx context.Context, limit int) ([]uuid.UUID, error)
	MarkSettled(ctx context.Context, exec SQLExecutor, id uuid.UUID, settledAt time.Time) error
	Reopen(ctx context.Context, exec SQLExecutor, id uuid.UUID) error
	SetSettlementError(ctx context.Context, id uuid.UUID, message string) error
	Delete(ctx context.Context, id uuid.UUID) error
	Counts(ctx context.Context) (GameCounts, error)
}

type postgresGameRepository struct {
	db *sql.DB
}

func NewPostgresGameRepository(db *sql.DB) GameRepository {
	return &postgresGameRepository{db: db}
}

const gameColumns = `id, rule_id, ended, settled_at, settlement_error, created_by, created_at`

func (r *postgresGameRepository) Create(ctx context.Context, exec SQLExecutor, game *models.Game) error {
	query := `
		INSERT INTO games (rule_id, created_by)
		VALUES ($1, $2)
		RETURNING id, ended, created_at`

	err := getExecutor(exec, r.db).QueryRowContext(ctx, query, game.RuleID, game.CreatedBy).
		Scan(&game.ID, &game.Ended, &game.CreatedAt)
	if err != nil {
		if constraint, ok := constraintViolation(err, foreignKeyViolation); ok && constraint == "games_rule_id_fkey" {
			return ErrGameRuleInvalid
		}
		return err
	}
	return nil
}

func (r *postgresGameRepository) GetByID(ctx context.Context, exec SQLExecutor, id uuid.UUID) (*models.Game, error) {
	executor := getExecutor(exec, r.db)
	query := `SELECT ` + gameColumns + ` FROM games WHERE id = $1`
	return scanGame(executor.QueryRowContext(ctx, query, id))
}

func (r *postgresGameRepository) GetForUpdate(ctx context.Context, tx SQLExecutor, id uuid.UUID) (*models.Game, error) {
	query := `SELECT ` + gameColumns + ` FROM games WHERE id = $1 FOR UPDATE`
	return scanGame(getExecutor(tx, r.db).QueryRowContext(ctx, query, id))
}

func (r *postgresGameRepository) List(ctx context.Context, filter models.GameFilter) ([]models.Game, error) {
	limit, offset := normalizePage(filter.Limit, filter.Offset)
	args := []interface{}{limit, offset}
	var conditions []string
	if filter.Ended != nil {
		args = append(args, *filter.Ended)
		conditions = append(conditions, fmt.Sprintf("ended = $%d", len(args)))
	}

	query := `SELECT ` + gameColumns + ` FROM games`
	if len(conditions) > 0 {
		query += ` WHERE ` + strings.Join(conditions, " AND ")
	}
	query += ` ORDER BY created_at DESC LIMIT $1 OFFSET $2`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list games: %w", err)
	}
	defer rows.Close()

	games := make([]models.Game, 0)
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, err
		}
		games = append(games, *g)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return games, nil
}

func (r *postgresGameRepository) ListUnsettled(ctx context.Context, limit int) ([]uuid.UUID, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id FROM games
		WHERE ended AND settled_at IS NULL
		ORDER BY settlement_error IS NOT NULL, created_at ASC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list unsettled games: %w", err)
	}
	defer rows.Close()

	ids := make([]uuid.UUID, 0)
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *postgresGameRepository) MarkSettled(ctx context.Context, exec SQLExecutor, id uuid.UUID, settledAt time.Time) error {
	result, err := getExecutor(exec, r.db).ExecContext(ctx, `
		UPDATE games SET ended = TRUE, settled_at = $1, settlement_error = NULL
		WHERE id = $2`, settledAt, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrGameNotFound)
}

func (r *postgresGameRepository) Reopen(ctx context.Context, exec SQLExecutor, id uuid.UUID) error {
	result, err := getExecutor(exec, r.db).ExecContext(ctx, `
		UPDATE games SET ended = FALSE, settled_at = NULL, settlement_error = NULL
		WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrGameNotFound)
}

func (r *postgresGameRepository) SetSettlementError(ctx context.Context, id uuid.UUID, message string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE games SET settlement_error = $1 WHERE id = $2`, message, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrGameNotFound)
}

func (r *postgresGameRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM games WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrGameNotFound)
}

func (r *postgresGameRepository) Counts(ctx context.Context) (GameCounts, error) {
	var c GameCounts
	err := r.db.QueryRowContext(ctx, `
		SELECT
			count(*) FILTER (WHERE NOT ended),
			count(*) FILTER (WHERE ended AND settled_at IS NULL),
			count(*) FILTER (WHERE ended AND settled_at IS NOT NULL)
		FROM games`).Scan(&c.Open, &c.Ended, &c.Settled)
	if err != nil {
		return GameCounts{}, fmt.Errorf("failed to count games: %w", err)
	}
	return c, nil
}

func scanGame(row rowScanner) (*models.Game, error) {
	var g models.Game
	var settledAt sql.NullTime
	var settlementError sql.NullString
	err := row.Scan(
		&g.ID,
		&g.RuleID,
		&g.Ended,
		&settledAt,
		&settlementError,
		&g.CreatedBy,
		&g.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrGameNotFound
		}
		return nil, fmt.Errorf("failed to scan game: %w", err)
	}
	if settledAt.Valid {
		t := settledAt.Time
		g.SettledAt = &t
	}
	if settlementError.Valid {
		msg := settlementError.String
		g.SettlementError = &msg
	}
	return &g, nil
}
