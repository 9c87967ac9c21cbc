package settlement

import (
	"testing"

	"github.com/Dosada05/wsob-poker/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertMoney(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...interface{}) {
	t.Helper()
	if !money(want).Equal(got) {
		assert.Fail(t, "money mismatch: want "+want+", got "+got.String(), msgAndArgs...)
	}
}

func prizes(values ...string) models.PrizeTable {
	table := make(models.PrizeTable, len(values))
	for i, v := range values {
		table[i] = models.Prize{Position: i + 1, Value: money(v)}
	}
	return table
}

func pointsTable(values ...int) models.PointsTable {
	table := make(models.PointsTable, len(values))
	for i, v := range values {
		table[i] = models.PointsEntry{Position: i + 1, Points: v}
	}
	return table
}

func testRule() *models.Rule {
	return &models.Rule{
		ID:            uuid.MustParse("00000000-0000-0000-0000-0000000000aa"),
		Name:          "Thursday Deepstack",
		Buyin:         money("100"),
		RebuyCost:     money("50"),
		AddonCost:     money("20"),
		KnockoutBonus: money("10"),
		Formula:       models.FormulaProportional,
		PrizeTable:    prizes("0.5", "0.3", "0.2"),
		PointsTable:   pointsTable(10, 6, 3),
	}
}

type entrySpec struct {
	pos, knockouts, rebuys int
	addon, payed           bool
}

func testGame(rule *models.Rule, specs ...entrySpec) *models.Game {
	game := &models.Game{
		ID:     uuid.MustParse("00000000-0000-0000-0000-0000000000bb"),
		RuleID: rule.ID,
		Ended:  true,
	}
	for i, s := range specs {
		game.Entries = append(game.Entries, models.GameData{
			ID:        uuid.NewSHA1(uuid.NameSpaceOID, []byte{byte(i), 'd'}),
			GameID:    game.ID,
			PlayerID:  uuid.NewSHA1(uuid.NameSpaceOID, []byte{byte(i), 'p'}),
			LeftPos:   s.pos,
			Knockouts: s.knockouts,
			Rebuys:    s.rebuys,
			Addon:     s.addon,
			Payed:     s.payed,
			Complete:  s.pos > 0,
		})
	}
	return game
}

func entryAt(t *testing.T, report *models.SettlementReport, position int) models.SettlementEntry {
	t.Helper()
	for _, e := range report.Entries {
		if e.Position == position {
			return e
		}
	}
	t.Fatalf("no entry at position %d", position)
	return models.SettlementEntry{}
}
