package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/wsob-poker/models"
	"github.com/google/uuid"
)

var (
	ErrPlayerNotFound      = errors.New("player not found")
	ErrPlayerNameConflict  = errors.New("player name conflict")
	ErrPlayerEmailConflict = errors.New("player email conflict")
	ErrPlayerHasGames      = errors.New("player has game data")
)

type PlayerRepository interface {
	Create(ctx context.Context, player *models.Player) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Player, error)
	GetByEmail(ctx context.Context, email string) (*models.Player, error)
	GetByName(ctx context.Context, name string) (*models.Player, error)
	List(ctx context.Context, filter models.PlayerFilter) ([]models.Player, error)
	Update(ctx context.Context, player *models.Player) error
	UpdateAvatarKey(ctx context.Context, id uuid.UUID, key *string) error
	Delete(ctx context.Context, id uuid.UUID) error
	Count(ctx context.Context) (int, error)
}

type postgresPlayerRepository struct {
	db *sql.DB
}

func NewPostgresPlayerRepository(db *sql.DB) PlayerRepository {
	return &postgresPlayerRepository{db: db}
}

const playerColumns = `id, name, email, password_hash, is_admin, avatar_key, created_at`

func (r *postgresPlayerRepository) Create(ctx context.Context, player *models.Player) error {
	query := `
		INSERT INTO players (name, email, password_hash, is_admin)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		player.Name,
		player.Email,
		player.PasswordHash,
		player.IsAdmin,
	).Scan(&player.ID, &player.CreatedAt)

	return mapPlayerError(err)
}

func (r *postgresPlayerRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Player, error) {
	query := `SELECT ` + playerColumns + ` FROM players WHERE id = $1`
	return scanPlayer(r.db.QueryRowContext(ctx, query, id))
}

func (r *postgresPlayerRepository) GetByEmail(ctx context.Context, email string) (*models.Player, error) {
	query := `SELECT ` + playerColumns + ` FROM players WHERE lower(email) = lower($1)`
	return scanPlayer(r.db.QueryRowContext(ctx, query, email))
}

func (r *postgresPlayerRepository) GetByName(ctx context.Context, name string) (*models.Player, error) {
	query := `SELECT ` + playerColumns + ` FROM players WHERE lower(name) = lower($1)`
	return scanPlayer(r.db.QueryRowContext(ctx, query, name))
}

func (r *postgresPlayerRepository) List(ctx context.Context, filter models.PlayerFilter) ([]models.Player, error) {
	limit, offset := normalizePage(filter.Limit, filter.Offset)
	args := []interface{}{limit, offset}
	where := ""
	if filter.Search != "" {
		where = `WHERE name ILIKE $3 OR email ILIKE $3`
		args = append(args, likePattern(filter.Search))
	}

	query := `SELECT ` + playerColumns + ` FROM players ` + where + `
		ORDER BY name ASC
		LIMIT $1 OFFSET $2`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list players: %w", err)
	}
	defer rows.Close()

	players := make([]models.Player, 0)
	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			return nil, err
		}
		players = append(players, *p)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return players, nil
}

func (r *postgresPlayerRepository) Update(ctx context.Context, player *models.Player) error {
	query := `
		UPDATE players SET
			name = $1,
			email = $2,
			password_hash = $3,
			is_admin = $4
		WHERE id = $5`

	result, err := r.db.ExecContext(ctx, query,
		player.Name,
		player.Email,
		player.PasswordHash,
		player.IsAdmin,
		player.ID,
	)
	if err != nil {
		return mapPlayerError(err)
	}
	return checkAffectedRows(result, ErrPlayerNotFound)
}

func (r *postgresPlayerRepository) UpdateAvatarKey(ctx context.Context, id uuid.UUID, key *string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE players SET avatar_key = $1 WHERE id = $2`, key, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrPlayerNotFound)
}

func (r *postgresPlayerRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM players WHERE id = $1`, id)
	if err != nil {
		if constraint, ok := constraintViolation(err, foreignKeyViolation); ok && constraint == "game_data_player_id_fkey" {
			return ErrPlayerHasGames
		}
		return err
	}
	return checkAffectedRows(result, ErrPlayerNotFound)
}

func (r *postgresPlayerRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM players`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count players: %w", err)
	}
	return n, nil
}

func scanPlayer(row rowScanner) (*models.Player, error) {
	p := &models.Player{}
	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Email,
		&p.PasswordHash,
		&p.IsAdmin,
		&p.AvatarKey,
		&p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPlayerNotFound
		}
		return nil, fmt.Errorf("failed to scan player: %w", err)
	}
	return p, nil
}

func mapPlayerError(err error) error {
	if err == nil {
		return nil
	}
	if constraint, ok := constraintViolation(err, uniqueViolation); ok {
		switch constraint {
		case "players_name_key":
			return ErrPlayerNameConflict
		case "players_email_key":
			return ErrPlayerEmailConflict
		}
	}
	return err
}
