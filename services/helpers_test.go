package services

import (
	"fmt"
	"testing"
	"time"

	"github.com/Dosada05/wsob-poker/models"
	"github.com/coder/quartz"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func testRule() *models.Rule {
	return &models.Rule{
		ID:            uuid.New(),
		Name:          "Thursday Deepstack",
		Slug:          "thursday-deepstack",
		Version:       1,
		Active:        true,
		Buyin:         money("100"),
		RebuyCost:     money("50"),
		AddonCost:     money("20"),
		KnockoutBonus: money("10"),
		Formula:       models.FormulaProportional,
		PrizeTable: models.PrizeTable{
			{Position: 1, Value: money("0.5")},
			{Position: 2, Value: money("0.3")},
			{Position: 3, Value: money("0.2")},
		},
		PointsTable: models.PointsTable{
			{Position: 1, Points: 10},
			{Position: 2, Points: 6},
			{Position: 3, Points: 3},
		},
	}
}

type fixture struct {
	tx          *fakeTx
	players     *fakePlayerRepo
	rules       *fakeRuleRepo
	games       *fakeGameRepo
	entries     *fakeGameDataRepo
	settlements *fakeSettlementRepo
	uploader    *fakeUploader
	clock       *quartz.Mock

	rule    *models.Rule
	game    models.Game
	entryID []uuid.UUID
}

// newFixture: one game of n players under testRule, nobody eliminated yet.
func newFixture(t *testing.T, n int) *fixture {
	t.Helper()
	f := &fixture{
		tx:          &fakeTx{},
		players:     newFakePlayerRepo(),
		games:       newFakeGameRepo(),
		settlements: newFakeSettlementRepo(),
		uploader:    newFakeUploader(),
		clock:       quartz.NewMock(t),
		rule:        testRule(),
	}
	f.rules = newFakeRuleRepo(f.rule)
	f.rules.games = f.games
	f.entries = newFakeGameDataRepo(f.players)

	f.game = models.Game{ID: uuid.New(), RuleID: f.rule.ID, CreatedAt: time.Date(2025, 3, 6, 19, 0, 0, 0, time.UTC)}
	f.games.put(f.game)
	for i := 0; i < n; i++ {
		p := models.Player{ID: uuid.New(), Name: fmt.Sprintf("player-%d", i+1), Email: fmt.Sprintf("p%d@example.com", i+1)}
		f.players.players[p.ID] = &p
		e := models.GameData{ID: uuid.New(), GameID: f.game.ID, PlayerID: p.ID, Rebuys: 1}
		f.entries.put(e)
		f.entryID = append(f.entryID, e.ID)
	}
	return f
}

// finish assigns positions 1..n in entry order with knockouts 2, 1, 0, ...
func (f *fixture) finish() {
	for i, id := range f.entryID {
		e := f.entries.entries[id]
		e.LeftPos = i + 1
		e.Complete = true
		if k := 2 - i; k > 0 {
			e.Knockouts = k
		}
	}
}

func (f *fixture) gameService() GameService {
	return NewGameService(f.tx, f.games, f.entries, f.rules, f.uploader)
}

func (f *fixture) settlementService() SettlementService {
	return NewSettlementService(f.tx, f.games, f.entries, f.rules, f.settlements, f.uploader, f.clock, discardLogger())
}

func (f *fixture) ruleService() RuleService {
	return NewRuleService(f.tx, f.rules)
}

func intPtr(v int) *int    { return &v }
func boolPtr(v bool) *bool { return &v }
