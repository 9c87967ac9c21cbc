package settlement

import (
	"fmt"

	"github.com/Dosada05/wsob-poker/models"
	"github.com/shopspring/decimal"
)

// Payout is the prize money of the participant at the same index of the standings.
type Payout struct {
	Position      int
	BasePrize     decimal.Decimal
	KnockoutBonus decimal.Decimal
	TotalPayout   decimal.Decimal
}

type Distribution struct {
	Payouts       []Payout
	KnockoutTotal decimal.Decimal
	// PrizePool is the money available for base prizes: pot minus knockout
	// bonuses under Proportional, the sum of table amounts under Fixed.
	PrizePool decimal.Decimal
	Warnings  []string
}

// DistributePayouts applies the rule's prize table and knockout bonus to ordered
// standings. Entries with position 0 (provisional, unassigned) get no base prize.
//
// Under Proportional, knockout bonuses come off the pot first and the remainder is
// split by weight over the positions that exist in this game; every share is
// rounded half-to-even to the cent. A leftover cent goes to position 1, an
// overshoot is taken back from the largest share.
// Under Fixed, table amounts are paid as-is and bonuses are added on top.
func DistributePayouts(standings []models.GameData, rule *models.Rule, pot decimal.Decimal) (*Distribution, error) {
	dist := &Distribution{
		Payouts:       make([]Payout, len(standings)),
		KnockoutTotal: decimal.Zero,
	}
	for i, e := range standings {
		bonus := rule.KnockoutBonus.Mul(decimal.NewFromInt(int64(e.Knockouts)))
		dist.Payouts[i] = Payout{Position: e.LeftPos, KnockoutBonus: bonus, BasePrize: decimal.Zero}
		dist.KnockoutTotal = dist.KnockoutTotal.Add(bonus)
	}

	var shares map[int]decimal.Decimal
	switch rule.Formula {
	case models.FormulaFixed:
		shares = fixedShares(rule.PrizeTable, len(standings))
		dist.PrizePool = decimal.Zero
		for _, s := range shares {
			dist.PrizePool = dist.PrizePool.Add(s)
		}
	case models.FormulaProportional:
		pool := pot.Sub(dist.KnockoutTotal)
		if pool.IsNegative() {
			dist.Warnings = append(dist.Warnings, fmt.Sprintf(
				"knockout bonuses %s exceed pot %s; prize pool set to zero",
				dist.KnockoutTotal.StringFixed(CurrencyPlaces), pot.StringFixed(CurrencyPlaces)))
			pool = decimal.Zero
		}
		dist.PrizePool = pool
		shares = proportionalShares(rule.PrizeTable, len(standings), pool)
	default:
		return nil, &FormulaMismatchError{Formula: rule.Formula}
	}

	for i := range dist.Payouts {
		p := &dist.Payouts[i]
		if p.Position > 0 {
			if s, ok := shares[p.Position]; ok {
				p.BasePrize = s
			}
		}
		p.TotalPayout = p.BasePrize.Add(p.KnockoutBonus)
	}
	return dist, nil
}

func fixedShares(table models.PrizeTable, n int) map[int]decimal.Decimal {
	shares := make(map[int]decimal.Decimal, len(table))
	for _, prize := range table {
		if prize.Position <= n {
			shares[prize.Position] = prize.Value
		}
	}
	return shares
}

// proportionalShares splits pool over positions 1..min(n, len(table)).
// The shares always sum to pool exactly.
func proportionalShares(table models.PrizeTable, n int, pool decimal.Decimal) map[int]decimal.Decimal {
	shares := make(map[int]decimal.Decimal, len(table))
	totalWeight := decimal.Zero
	for _, prize := range table {
		if prize.Position <= n {
			totalWeight = totalWeight.Add(prize.Value)
		}
	}

	distributed := decimal.Zero
	if totalWeight.IsPositive() {
		for _, prize := range table {
			if prize.Position > n {
				continue
			}
			share := pool.Mul(prize.Value).Div(totalWeight).RoundBank(CurrencyPlaces)
			shares[prize.Position] = share
			distributed = distributed.Add(share)
		}
	}

	residual := pool.Sub(distributed)
	if residual.IsPositive() {
		shares[1] = shares[1].Add(residual)
	}
	// Shares rounded up past the pool: give the cents back from the largest
	// share so no base prize goes negative.
	cent := decimal.New(1, -CurrencyPlaces)
	for residual.IsNegative() {
		pos := largestShare(table, n, shares)
		shares[pos] = shares[pos].Sub(cent)
		residual = residual.Add(cent)
	}
	return shares
}

// largestShare returns the position with the largest share; on ties the lowest
// ranked one, so a better place never ends up paying less.
func largestShare(table models.PrizeTable, n int, shares map[int]decimal.Decimal) int {
	best := 0
	for _, prize := range table {
		if prize.Position > n {
			continue
		}
		if best == 0 || shares[prize.Position].GreaterThanOrEqual(shares[best]) {
			best = prize.Position
		}
	}
	return best
}
