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
	ErrRuleNotFound        = errors.New("rule not found")
	ErrRuleSlugConflict    = errors.New("rule slug and version conflict")
	ErrRuleReferenced      = errors.New("rule is referenced by games")
	ErrRuleFormulaRejected = errors.New("rule formula rejected by database")
)

type RuleRepository interface {
	Create(ctx context.Context, rule *models.Rule) error
	GetByID(ctx context.Context, exec SQLExecutor, id uuid.UUID) (*models.Rule, error)
	// GetForUpdate locks the rule row exclusively until the surrounding transaction ends.
	GetForUpdate(ctx context.Context, tx SQLExecutor, id uuid.UUID) (*models.Rule, error)
	// GetForShare takes a shared lock: concurrent settlements proceed, edits wait.
	GetForShare(ctx context.Context, tx SQLExecutor, id uuid.UUID) (*models.Rule, error)
	// GetBySlug returns the newest version of the rule with the given slug.
	GetBySlug(ctx context.Context, slug string) (*models.Rule, error)
	List(ctx context.Context, active *bool) ([]models.Rule, error)
	Update(ctx context.Context, exec SQLExecutor, rule *models.Rule) error
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
	Delete(ctx context.Context, exec SQLExecutor, id uuid.UUID) error
	// UsedByEndedGame reports whether any ended game references the rule.
	UsedByEndedGame(ctx context.Context, exec SQLExecutor, id uuid.UUID) (bool, error)
	NextVersion(ctx context.Context, slug string) (int, error)
}

type postgresRuleRepository struct {
	db *sql.DB
}

func NewPostgresRuleRepository(db *sql.DB) RuleRepository {
	return &postgresRuleRepository{db: db}
}

const ruleColumns = `id, name, slug, version, parent_id, active, buyin, rebuy_cost, addon_cost,
	knockout_bonus, formula, prize_table, points_table, created_by, created_at, updated_at`

func (r *postgresRuleRepository) Create(ctx context.Context, rule *models.Rule) error {
	query := `
		INSERT INTO rules (name, slug, version, parent_id, active, buyin, rebuy_cost, addon_cost,
			knockout_bonus, formula, prize_table, points_table, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		rule.Name,
		rule.Slug,
		rule.Version,
		rule.ParentID,
		rule.Active,
		rule.Buyin,
		rule.RebuyCost,
		rule.AddonCost,
		rule.KnockoutBonus,
		string(rule.Formula),
		rule.PrizeTable,
		rule.PointsTable,
		rule.CreatedBy,
	).Scan(&rule.ID, &rule.CreatedAt, &rule.UpdatedAt)

	return mapRuleError(err)
}

func (r *postgresRuleRepository) GetByID(ctx context.Context, exec SQLExecutor, id uuid.UUID) (*models.Rule, error) {
	executor := getExecutor(exec, r.db)
	query := `SELECT ` + ruleColumns + ` FROM rules WHERE id = $1`
	return scanRule(executor.QueryRowContext(ctx, query, id))
}

func (r *postgresRuleRepository) GetForUpdate(ctx context.Context, tx SQLExecutor, id uuid.UUID) (*models.Rule, error) {
	query := `SELECT ` + ruleColumns + ` FROM rules WHERE id = $1 FOR UPDATE`
	return scanRule(getExecutor(tx, r.db).QueryRowContext(ctx, query, id))
}

func (r *postgresRuleRepository) GetForShare(ctx context.Context, tx SQLExecutor, id uuid.UUID) (*models.Rule, error) {
	query := `SELECT ` + ruleColumns + ` FROM rules WHERE id = $1 FOR SHARE`
	return scanRule(getExecutor(tx, r.db).QueryRowContext(ctx, query, id))
}

func (r *postgresRuleRepository) GetBySlug(ctx context.Context, slug string) (*models.Rule, error) {
	query := `SELECT ` + ruleColumns + ` FROM rules WHERE slug = $1 ORDER BY version DESC LIMIT 1`
	return scanRule(r.db.QueryRowContext(ctx, query, slug))
}

func (r *postgresRuleRepository) List(ctx context.Context, active *bool) ([]models.Rule, error) {
	query := `SELECT ` + ruleColumns + ` FROM rules`
	args := []interface{}{}
	if active != nil {
		query += ` WHERE active = $1`
		args = append(args, *active)
	}
	query += ` ORDER BY name ASC, version DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list rules: %w", err)
	}
	defer rows.Close()

	rules := make([]models.Rule, 0)
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		rules = append(rules, *rule)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return rules, nil
}

func (r *postgresRuleRepository) Update(ctx context.Context, exec SQLExecutor, rule *models.Rule) error {
	query := `
		UPDATE rules SET
			name = $1,
			slug = $2,
			buyin = $3,
			rebuy_cost = $4,
			addon_cost = $5,
			knockout_bonus = $6,
			formula = $7,
			prize_table = $8,
			points_table = $9,
			updated_at = now()
		WHERE id = $10
		RETURNING updated_at`

	err := getExecutor(exec, r.db).QueryRowContext(ctx, query,
		rule.Name,
		rule.Slug,
		rule.Buyin,
		rule.RebuyCost,
		rule.AddonCost,
		rule.KnockoutBonus,
		string(rule.Formula),
		rule.PrizeTable,
		rule.PointsTable,
		rule.ID,
	).Scan(&rule.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrRuleNotFound
	}
	return mapRuleError(err)
}

func (r *postgresRuleRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE rules SET active = $1, updated_at = now() WHERE id = $2`, active, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrRuleNotFound)
}

func (r *postgresRuleRepository) Delete(ctx context.Context, exec SQLExecutor, id uuid.UUID) error {
	result, err := getExecutor(exec, r.db).ExecContext(ctx, `DELETE FROM rules WHERE id = $1`, id)
	if err != nil {
		if _, ok := constraintViolation(err, foreignKeyViolation); ok {
			return ErrRuleReferenced
		}
		return err
	}
	return checkAffectedRows(result, ErrRuleNotFound)
}

func (r *postgresRuleRepository) UsedByEndedGame(ctx context.Context, exec SQLExecutor, id uuid.UUID) (bool, error) {
	var used bool
	err := getExecutor(exec, r.db).QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM games WHERE rule_id = $1 AND ended)`, id,
	).Scan(&used)
	if err != nil {
		return false, fmt.Errorf("failed to check rule usage: %w", err)
	}
	return used, nil
}

func (r *postgresRuleRepository) NextVersion(ctx context.Context, slug string) (int, error) {
	var version int
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(version), 0) + 1 FROM rules WHERE slug = $1`, slug,
	).Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("failed to compute next rule version: %w", err)
	}
	return version, nil
}

func scanRule(row rowScanner) (*models.Rule, error) {
	var rule models.Rule
	var formula string
	err := row.Scan(
		&rule.ID,
		&rule.Name,
		&rule.Slug,
		&rule.Version,
		&rule.ParentID,
		&rule.Active,
		&rule.Buyin,
		&rule.RebuyCost,
		&rule.AddonCost,
		&rule.KnockoutBonus,
		&formula,
		&rule.PrizeTable,
		&rule.PointsTable,
		&rule.CreatedBy,
		&rule.CreatedAt,
		&rule.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRuleNotFound
		}
		return nil, fmt.Errorf("failed to scan rule: %w", err)
	}
	if parsed, perr := models.ParseFormula(formula); perr == nil {
		rule.Formula = parsed
	} else {
		rule.Formula = models.Formula(formula)
	}
	return &rule, nil
}

func mapRuleError(err error) error {
	if err == nil {
		return nil
	}
	if constraint, ok := constraintViolation(err, uniqueViolation); ok && constraint == "rules_slug_version_key" {
		return ErrRuleSlugConflict
	}
	if _, ok := constraintViolation(err, checkViolation); ok {
		return ErrRuleFormulaRejected
	}
	return err
}
