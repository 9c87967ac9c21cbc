package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Dosada05/wsob-poker/models"
	"github.com/Dosada05/wsob-poker/repositories"
	"github.com/Dosada05/wsob-poker/settlement"
	"github.com/Dosada05/wsob-poker/utils"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type RuleInput struct {
	Name          string             `json:"name"`
	Buyin         decimal.Decimal    `json:"buyin"`
	RebuyCost     decimal.Decimal    `json:"rebuy_cost"`
	AddonCost     decimal.Decimal    `json:"addon_cost"`
	KnockoutBonus decimal.Decimal    `json:"knockout_bonus"`
	Formula       models.Formula     `json:"formula"`
	PrizeTable    models.PrizeTable  `json:"prize_table"`
	PointsTable   models.PointsTable `json:"points_table"`
}

type RuleService interface {
	Create(ctx context.Context, actor *Claims, input RuleInput) (*models.Rule, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Rule, error)
	GetBySlug(ctx context.Context, slug string) (*models.Rule, error)
	List(ctx context.Context, active *bool) ([]models.Rule, error)
	Update(ctx context.Context, id uuid.UUID, input RuleInput) (*models.Rule, error)
	// Clone creates the next version of a rule. A nil input copies it unchanged.
	Clone(ctx context.Context, id uuid.UUID, actor *Claims, input *RuleInput) (*models.Rule, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) (*models.Rule, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type ruleService struct {
	tx       Transactor
	ruleRepo repositories.RuleRepository
}

func NewRuleService(tx Transactor, ruleRepo repositories.RuleRepository) RuleService {
	return &ruleService{tx: tx, ruleRepo: ruleRepo}
}

func (s *ruleService) Create(ctx context.Context, actor *Claims, input RuleInput) (*models.Rule, error) {
	rule := input.apply(&models.Rule{Version: 1, Active: true})
	if rule.Slug == "" {
		return nil, &settlement.InvalidRuleError{Field: "name", Reason: "must contain letters or digits"}
	}
	if err := settlement.ValidateRule(rule); err != nil {
		return nil, err
	}
	if actor != nil {
		createdBy := actor.PlayerID
		rule.CreatedBy = &createdBy
	}

	if err := s.ruleRepo.Create(ctx, rule); err != nil {
		return nil, mapRuleRepoError(err)
	}
	return rule, nil
}

func (s *ruleService) GetByID(ctx context.Context, id uuid.UUID) (*models.Rule, error) {
	rule, err := s.ruleRepo.GetByID(ctx, nil, id)
	if err != nil {
		return nil, mapRuleRepoError(err)
	}
	return rule, nil
}

func (s *ruleService) GetBySlug(ctx context.Context, slug string) (*models.Rule, error) {
	rule, err := s.ruleRepo.GetBySlug(ctx, strings.ToLower(strings.TrimSpace(slug)))
	if err != nil {
		return nil, mapRuleRepoError(err)
	}
	return rule, nil
}

func (s *ruleService) List(ctx context.Context, active *bool) ([]models.Rule, error) {
	rules, err := s.ruleRepo.List(ctx, active)
	if err != nil {
		return nil, fmt.Errorf("failed to list rules: %w", err)
	}
	return rules, nil
}

// Update rewrites a rule in place. Once an ended game references the rule it is
// frozen and only Clone can change it.
func (s *ruleService) Update(ctx context.Context, id uuid.UUID, input RuleInput) (*models.Rule, error) {
	var rule *models.Rule
	err := s.tx.WithinTx(ctx, func(tx repositories.SQLExecutor) error {
		current, err := s.lockUnfrozen(ctx, tx, id)
		if err != nil {
			return err
		}

		rule = input.apply(current)
		if rule.Slug == "" {
			return &settlement.InvalidRuleError{Field: "name", Reason: "must contain letters or digits"}
		}
		if err := settlement.ValidateRule(rule); err != nil {
			return err
		}
		return s.ruleRepo.Update(ctx, tx, rule)
	})
	if err != nil {
		return nil, mapRuleRepoError(err)
	}
	return rule, nil
}

func (s *ruleService) Clone(ctx context.Context, id uuid.UUID, actor *Claims, input *RuleInput) (*models.Rule, error) {
	parent, err := s.ruleRepo.GetByID(ctx, nil, id)
	if err != nil {
		return nil, mapRuleRepoError(err)
	}

	clone := *parent
	clone.PrizeTable = append(models.PrizeTable(nil), parent.PrizeTable...)
	clone.PointsTable = append(models.PointsTable(nil), parent.PointsTable...)
	if input != nil {
		input.apply(&clone)
		// Версии одного правила делят slug родителя.
		clone.Slug = parent.Slug
	}
	if err := settlement.ValidateRule(&clone); err != nil {
		return nil, err
	}

	version, err := s.ruleRepo.NextVersion(ctx, parent.Slug)
	if err != nil {
		return nil, err
	}
	parentID := parent.ID
	clone.ID = uuid.Nil
	clone.Version = version
	clone.ParentID = &parentID
	clone.Active = true
	clone.CreatedBy = nil
	if actor != nil {
		createdBy := actor.PlayerID
		clone.CreatedBy = &createdBy
	}

	if err := s.ruleRepo.Create(ctx, &clone); err != nil {
		return nil, mapRuleRepoError(err)
	}
	return &clone, nil
}

func (s *ruleService) SetActive(ctx context.Context, id uuid.UUID, active bool) (*models.Rule, error) {
	if err := s.ruleRepo.SetActive(ctx, id, active); err != nil {
		return nil, mapRuleRepoError(err)
	}
	return s.GetByID(ctx, id)
}

func (s *ruleService) Delete(ctx context.Context, id uuid.UUID) error {
	err := s.tx.WithinTx(ctx, func(tx repositories.SQLExecutor) error {
		if _, err := s.lockUnfrozen(ctx, tx, id); err != nil {
			return err
		}
		return s.ruleRepo.Delete(ctx, tx, id)
	})
	if err != nil {
		return mapRuleRepoError(err)
	}
	return nil
}

// lockUnfrozen locks the rule row and then checks usage. Settlement reads the
// rule FOR SHARE, so an End cannot commit between the check and the write.
func (s *ruleService) lockUnfrozen(ctx context.Context, tx repositories.SQLExecutor, id uuid.UUID) (*models.Rule, error) {
	rule, err := s.ruleRepo.GetForUpdate(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	used, err := s.ruleRepo.UsedByEndedGame(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if used {
		return nil, ErrRuleInUse
	}
	return rule, nil
}

func (in RuleInput) apply(rule *models.Rule) *models.Rule {
	rule.Name = strings.TrimSpace(in.Name)
	rule.Slug = utils.Slugify(rule.Name)
	rule.Buyin = in.Buyin
	rule.RebuyCost = in.RebuyCost
	rule.AddonCost = in.AddonCost
	rule.KnockoutBonus = in.KnockoutBonus
	rule.Formula = in.Formula
	rule.PrizeTable = in.PrizeTable
	rule.PointsTable = in.PointsTable
	if rule.PrizeTable == nil {
		rule.PrizeTable = models.PrizeTable{}
	}
	if rule.PointsTable == nil {
		rule.PointsTable = models.PointsTable{}
	}
	return rule
}

func mapRuleRepoError(err error) error {
	switch {
	case errors.Is(err, repositories.ErrRuleNotFound):
		return ErrRuleNotFound
	case errors.Is(err, repositories.ErrRuleSlugConflict):
		return ErrRuleSlugConflict
	case errors.Is(err, repositories.ErrRuleReferenced):
		return ErrRuleInUse
	case errors.Is(err, repositories.ErrRuleFormulaRejected):
		return &settlement.InvalidRuleError{Field: "formula", Reason: "is not supported"}
	default:
		return err
	}
}
