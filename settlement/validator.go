package settlement

import (
	"fmt"
	"strings"

	"github.com/Dosada05/wsob-poker/models"
	"github.com/shopspring/decimal"
)

// CurrencyPlaces is the number of decimal places of the smallest currency unit.
const CurrencyPlaces = 2

// ValidateRule checks that a rule is internally consistent. It returns an
// *InvalidRuleError naming the first violated field.
func ValidateRule(rule *models.Rule) error {
	if rule == nil {
		return &InvalidRuleError{Field: "rule", Reason: "is required"}
	}
	if strings.TrimSpace(rule.Name) == "" {
		return &InvalidRuleError{Field: "name", Reason: "is required"}
	}

	money := []struct {
		field string
		value decimal.Decimal
	}{
		{"buyin", rule.Buyin},
		{"rebuy_cost", rule.RebuyCost},
		{"addon_cost", rule.AddonCost},
		{"knockout_bonus", rule.KnockoutBonus},
	}
	for _, m := range money {
		if err := checkCurrency(m.field, m.value); err != nil {
			return err
		}
	}

	if !rule.Formula.Valid() {
		return &InvalidRuleError{Field: "formula", Reason: fmt.Sprintf("%q is not a recognized formula", string(rule.Formula))}
	}

	if err := validatePrizeTable(rule); err != nil {
		return err
	}
	return validatePointsTable(rule.PointsTable)
}

func checkCurrency(field string, v decimal.Decimal) error {
	if v.IsNegative() {
		return &InvalidRuleError{Field: field, Reason: "must not be negative"}
	}
	if !isWholeUnits(v) {
		return &InvalidRuleError{Field: field, Reason: fmt.Sprintf("must have at most %d decimal places", CurrencyPlaces)}
	}
	return nil
}

func isWholeUnits(v decimal.Decimal) bool {
	return v.Equal(v.Truncate(CurrencyPlaces))
}

func validatePrizeTable(rule *models.Rule) error {
	positions := make([]int, len(rule.PrizeTable))
	total := decimal.Zero
	for i, p := range rule.PrizeTable {
		positions[i] = p.Position
		field := fmt.Sprintf("prize_table[%d].value", i)
		if p.Value.IsNegative() {
			return &InvalidRuleError{Field: field, Reason: "must not be negative"}
		}
		if rule.Formula == models.FormulaFixed && !isWholeUnits(p.Value) {
			return &InvalidRuleError{Field: field, Reason: fmt.Sprintf("fixed amounts must have at most %d decimal places", CurrencyPlaces)}
		}
		total = total.Add(p.Value)
	}
	if err := checkContiguous("prize_table", positions); err != nil {
		return err
	}
	if rule.Formula == models.FormulaProportional && !total.IsPositive() {
		return &InvalidRuleError{Field: "prize_table", Reason: "proportional formula needs a positive total weight"}
	}
	return nil
}

func validatePointsTable(table models.PointsTable) error {
	positions := make([]int, len(table))
	for i, p := range table {
		positions[i] = p.Position
		if p.Points < 0 {
			return &InvalidRuleError{Field: fmt.Sprintf("points_table[%d].points", i), Reason: "must not be negative"}
		}
	}
	return checkContiguous("points_table", positions)
}

// checkContiguous requires positions to be exactly 1, 2, ..., len in order.
func checkContiguous(field string, positions []int) error {
	for i, p := range positions {
		want := i + 1
		if p == want {
			continue
		}
		var reason string
		switch {
		case p < 1:
			reason = fmt.Sprintf("position %d is out of range", p)
		case i > 0 && p == positions[i-1]:
			reason = fmt.Sprintf("position %d is duplicated", p)
		case p > want:
			reason = fmt.Sprintf("position %d is missing", want)
		default:
			reason = "positions must be strictly increasing"
		}
		return &InvalidRuleError{Field: field, Reason: reason}
	}
	return nil
}
