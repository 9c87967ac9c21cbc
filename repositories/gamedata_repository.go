package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/wsob-poker/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrGameDataNotFound        = errors.New("game data not found")
	ErrGameDataVersionConflict = errors.New("game data was modified concurrently")
	ErrGameDataPlayerConflict  = errors.New("player already takes part in the game")
	ErrGameDataPlayerInvalid   = errors.New("game data player conflict or invalid")
	ErrPositionTaken           = errors.New("finish position already taken")
)

type GameDataRepository interface {
	Create(ctx context.Context, exec SQLExecutor, entry *models.GameData) error
	GetByID(ctx context.Context, exec SQLExecutor, id uuid.UUID) (*models.GameData, error)
	// ListByGame returns the entries of a game with their players, ordered by
	// finish position (unassigned last). With lock, rows are held FOR UPDATE.
	ListByGame(ctx context.Context, exec SQLExecutor, gameID uuid.UUID, lock bool) ([]models.GameData, error)
	// UpdateResult writes knockouts, rebuys, addon and payed if the stored
	// version still equals entry.Version; on success entry.Version is bumped.
	UpdateResult(ctx context.Context, exec SQLExecutor, entry *models.GameData) error
	SetPosition(ctx context.Context, exec SQLExecutor, id uuid.UUID, leftPos int, complete bool) (*models.GameData, error)
	SetPayed(ctx context.Context, exec SQLExecutor, id uuid.UUID, payed bool) (*models.GameData, error)
	WriteSettlement(ctx context.Context, exec SQLExecutor, id uuid.UUID, debit decimal.Decimal, points int) error
	ClearSettlement(ctx context.Context, exec SQLExecutor, gameID uuid.UUID) error
	Delete(ctx context.Context, exec SQLExecutor, id uuid.UUID) error
	CountUnpaid(ctx context.Context) (int, error)
}

type postgresGameDataRepository struct {
	db *sql.DB
}

func NewPostgresGameDataRepository(db *sql.DB) GameDataRepository {
	return &postgresGameDataRepository{db: db}
}

const gameDataColumns = `gd.id, gd.game_id, gd.player_id, gd.left_pos, gd.knockouts, gd.rebuys, gd.addon,
	gd.payed, gd.debit, gd.points, gd.complete, gd.version, gd.updated_at`

const gameDataReturning = `RETURNING id, game_id, player_id, left_pos, knockouts, rebuys, addon,
	payed, debit, points, complete, version, updated_at`

func (r *postgresGameDataRepository) Create(ctx context.Context, exec SQLExecutor, entry *models.GameData) error {
	query := `
		INSERT INTO game_data (game_id, player_id, knockouts, rebuys, addon, payed)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, left_pos, debit, points, complete, version, updated_at`

	err := getExecutor(exec, r.db).QueryRowContext(ctx, query,
		entry.GameID,
		entry.PlayerID,
		entry.Knockouts,
		entry.Rebuys,
		entry.Addon,
		entry.Payed,
	).Scan(&entry.ID, &entry.LeftPos, &entry.Debit, &entry.Points, &entry.Complete, &entry.Version, &entry.UpdatedAt)
	if err != nil {
		if constraint, ok := constraintViolation(err, uniqueViolation); ok && constraint == "game_data_game_player_key" {
			return ErrGameDataPlayerConflict
		}
		if constraint, ok := constraintViolation(err, foreignKeyViolation); ok && constraint == "game_data_player_id_fkey" {
			return ErrGameDataPlayerInvalid
		}
		return err
	}
	return nil
}

func (r *postgresGameDataRepository) GetByID(ctx context.Context, exec SQLExecutor, id uuid.UUID) (*models.GameData, error) {
	query := `SELECT ` + gameDataColumns + ` FROM game_data gd WHERE gd.id = $1`
	return scanGameData(getExecutor(exec, r.db).QueryRowContext(ctx, query, id))
}

func (r *postgresGameDataRepository) ListByGame(ctx context.Context, exec SQLExecutor, gameID uuid.UUID, lock bool) ([]models.GameData, error) {
	query := `
		SELECT ` + gameDataColumns + `, p.id, p.name, p.email, p.is_admin, p.avatar_key, p.created_at
		FROM game_data gd
		JOIN players p ON p.id = gd.player_id
		WHERE gd.game_id = $1
		ORDER BY gd.left_pos = 0, gd.left_pos ASC, p.name ASC`
	if lock {
		query += ` FOR UPDATE OF gd`
	}

	rows, err := getExecutor(exec, r.db).QueryContext(ctx, query, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to list game data: %w", err)
	}
	defer rows.Close()

	entries := make([]models.GameData, 0)
	for rows.Next() {
		var e models.GameData
		var p models.Player
		scanErr := rows.Scan(
			&e.ID, &e.GameID, &e.PlayerID, &e.LeftPos, &e.Knockouts, &e.Rebuys, &e.Addon,
			&e.Payed, &e.Debit, &e.Points, &e.Complete, &e.Version, &e.UpdatedAt,
			&p.ID, &p.Name, &p.Email, &p.IsAdmin, &p.AvatarKey, &p.CreatedAt,
		)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan game data: %w", scanErr)
		}
		e.Player = &p
		entries = append(entries, e)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *postgresGameDataRepository) UpdateResult(ctx context.Context, exec SQLExecutor, entry *models.GameData) error {
	executor := getExecutor(exec, r.db)
	query := `
		UPDATE game_data SET
			knockouts = $1,
			rebuys = $2,
			addon = $3,
			payed = $4,
			version = version + 1,
			updated_at = now()
		WHERE id = $5 AND version = $6
		RETURNING version, updated_at`

	err := executor.QueryRowContext(ctx, query,
		entry.Knockouts,
		entry.Rebuys,
		entry.Addon,
		entry.Payed,
		entry.ID,
		entry.Version,
	).Scan(&entry.Version, &entry.UpdatedAt)
	if err == nil {
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return err
	}

	// Строка не обновлена: либо её нет, либо версия устарела.
	var exists bool
	if err := executor.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM game_data WHERE id = $1)`, entry.ID,
	).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check game data existence: %w", err)
	}
	if !exists {
		return ErrGameDataNotFound
	}
	return ErrGameDataVersionConflict
}

func (r *postgresGameDataRepository) SetPosition(ctx context.Context, exec SQLExecutor, id uuid.UUID, leftPos int, complete bool) (*models.GameData, error) {
	query := `
		UPDATE game_data SET
			left_pos = $1,
			complete = $2,
			version = version + 1,
			updated_at = now()
		WHERE id = $3
		` + gameDataReturning

	entry, err := scanGameData(getExecutor(exec, r.db).QueryRowContext(ctx, query, leftPos, complete, id))
	if err != nil {
		if constraint, ok := constraintViolation(err, uniqueViolation); ok && constraint == "game_data_game_position_key" {
			return nil, ErrPositionTaken
		}
		return nil, err
	}
	return entry, nil
}

func (r *postgresGameDataRepository) SetPayed(ctx context.Context, exec SQLExecutor, id uuid.UUID, payed bool) (*models.GameData, error) {
	query := `
		UPDATE game_data SET
			payed = $1,
			version = version + 1,
			updated_at = now()
		WHERE id = $2
		` + gameDataReturning
	return scanGameData(getExecutor(exec, r.db).QueryRowContext(ctx, query, payed, id))
}

func (r *postgresGameDataRepository) WriteSettlement(ctx context.Context, exec SQLExecutor, id uuid.UUID, debit decimal.Decimal, points int) error {
	result, err := getExecutor(exec, r.db).ExecContext(ctx, `
		UPDATE game_data SET debit = $1, points = $2, updated_at = now()
		WHERE id = $3`, debit, points, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrGameDataNotFound)
}

func (r *postgresGameDataRepository) ClearSettlement(ctx context.Context, exec SQLExecutor, gameID uuid.UUID) error {
	_, err := getExecutor(exec, r.db).ExecContext(ctx, `
		UPDATE game_data SET debit = 0, points = 0, updated_at = now()
		WHERE game_id = $1`, gameID)
	return err
}

func (r *postgresGameDataRepository) Delete(ctx context.Context, exec SQLExecutor, id uuid.UUID) error {
	result, err := getExecutor(exec, r.db).ExecContext(ctx, `DELETE FROM game_data WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrGameDataNotFound)
}

func (r *postgresGameDataRepository) CountUnpaid(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `
		SELECT count(*) FROM game_data gd
		JOIN games g ON g.id = gd.game_id
		WHERE g.ended AND NOT gd.payed`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count unpaid entries: %w", err)
	}
	return n, nil
}

func scanGameData(row rowScanner) (*models.GameData, error) {
	var e models.GameData
	err := row.Scan(
		&e.ID, &e.GameID, &e.PlayerID, &e.LeftPos, &e.Knockouts, &e.Rebuys, &e.Addon,
		&e.Payed, &e.Debit, &e.Points, &e.Complete, &e.Version, &e.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrGameDataNotFound
		}
		return nil, err
	}
	return &e, nil
}
