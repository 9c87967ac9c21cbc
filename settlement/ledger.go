package settlement

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/Dosada05/wsob-poker/models"
	"github.com/shopspring/decimal"
)

type ledgerInput struct {
	game        *models.Game
	rule        *models.Rule
	standings   []models.GameData
	dist        *Distribution
	points      []int
	pot         decimal.Decimal
	provisional bool
}

// buildLedger merges payouts, points and fees into the final report:
// net = total_payout - fees_owed per entry, reconciliation = pot - sum(total_payout).
func buildLedger(in ledgerInput) (*models.SettlementReport, error) {
	report := &models.SettlementReport{
		GameID:           in.game.ID,
		RuleID:           in.rule.ID,
		Formula:          in.rule.Formula,
		Provisional:      in.provisional,
		Participants:     len(in.standings),
		Pot:              in.pot,
		KnockoutTotal:    in.dist.KnockoutTotal,
		PrizePool:        in.dist.PrizePool,
		FeesTotal:        decimal.Zero,
		DistributedTotal: decimal.Zero,
		Entries:          make([]models.SettlementEntry, len(in.standings)),
	}
	report.Warnings = append(report.Warnings, in.dist.Warnings...)

	for i, e := range in.standings {
		payout := in.dist.Payouts[i]
		fees := FeesOwed(e, in.rule)
		report.Entries[i] = models.SettlementEntry{
			DataID:        e.ID,
			PlayerID:      e.PlayerID,
			Position:      e.LeftPos,
			Knockouts:     e.Knockouts,
			Rebuys:        e.Rebuys,
			Addon:         e.Addon,
			BasePrize:     payout.BasePrize,
			KnockoutBonus: payout.KnockoutBonus,
			TotalPayout:   payout.TotalPayout,
			Points:        in.points[i],
			FeesOwed:      fees,
			Net:           payout.TotalPayout.Sub(fees),
			Payed:         e.Payed,
		}
		report.FeesTotal = report.FeesTotal.Add(fees)
		report.DistributedTotal = report.DistributedTotal.Add(payout.TotalPayout)
	}
	report.Reconciliation = in.pot.Sub(report.DistributedTotal)

	if !report.Reconciliation.IsZero() && !in.provisional {
		switch {
		case report.Reconciliation.IsPositive():
			report.Warnings = append(report.Warnings, fmt.Sprintf(
				"%s of the pot is not distributed", report.Reconciliation.StringFixed(CurrencyPlaces)))
		default:
			report.Warnings = append(report.Warnings, fmt.Sprintf(
				"payouts exceed the pot by %s", report.Reconciliation.Neg().StringFixed(CurrencyPlaces)))
		}
	}

	digest, err := Digest(report)
	if err != nil {
		return nil, err
	}
	report.Digest = digest
	return report, nil
}

// Digest is the hex SHA-256 of the report's JSON encoding with the digest field
// left empty.
func Digest(report *models.SettlementReport) (string, error) {
	clone := *report
	clone.Digest = ""
	data, err := json.Marshal(&clone)
	if err != nil {
		return "", fmt.Errorf("failed to encode settlement report: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
