package settlement

import (
	"fmt"

	"github.com/Dosada05/wsob-poker/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ComputeSettlement settles a game under its rule. It either returns a complete,
// internally consistent report or an error; it never returns partial results.
//
// Errors: *InvalidRuleError, *EmptyGameError, *MalformedStandingsError,
// *FormulaMismatchError.
func ComputeSettlement(game *models.Game, rule *models.Rule) (*models.SettlementReport, error) {
	pot, err := prepare(game, rule)
	if err != nil {
		return nil, err
	}

	standings, err := ResolveStandings(game.Entries)
	if err != nil {
		return nil, err
	}

	dist, err := DistributePayouts(standings, rule, pot)
	if err != nil {
		return nil, err
	}

	for _, e := range standings {
		if !e.Complete {
			dist.Warnings = append(dist.Warnings, fmt.Sprintf("entry %s (position %d) is not marked complete", e.ID, e.LeftPos))
		}
	}

	return buildLedger(ledgerInput{
		game:      game,
		rule:      rule,
		standings: standings,
		dist:      dist,
		points:    AllocatePoints(standings, rule),
		pot:       pot,
	})
}

// ComputeProvisional previews the settlement of a game in progress. Entries
// without a position receive knockout bonuses only; prize money for positions
// not yet assigned stays in the reconciliation figure.
func ComputeProvisional(game *models.Game, rule *models.Rule) (*models.SettlementReport, error) {
	pot, err := prepare(game, rule)
	if err != nil {
		return nil, err
	}

	standings, unassigned, err := resolveProvisional(game.Entries)
	if err != nil {
		return nil, err
	}

	dist, err := DistributePayouts(standings, rule, pot)
	if err != nil {
		return nil, err
	}
	if unassigned > 0 {
		dist.Warnings = append(dist.Warnings, fmt.Sprintf("%d of %d positions are not assigned yet", unassigned, len(standings)))
	}

	return buildLedger(ledgerInput{
		game:        game,
		rule:        rule,
		standings:   standings,
		dist:        dist,
		points:      AllocatePoints(standings, rule),
		pot:         pot,
		provisional: true,
	})
}

func prepare(game *models.Game, rule *models.Rule) (decimal.Decimal, error) {
	if err := ValidateRule(rule); err != nil {
		return decimal.Zero, err
	}
	if game != nil && game.RuleID != uuid.Nil && rule.ID != uuid.Nil && game.RuleID != rule.ID {
		return decimal.Zero, &InvalidRuleError{
			Field:  "id",
			Reason: fmt.Sprintf("%s is not the rule referenced by game %s (%s)", rule.ID, game.ID, game.RuleID),
		}
	}
	return Pot(game, rule)
}
