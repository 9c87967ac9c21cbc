package settlement

import (
	"github.com/Dosada05/wsob-poker/models"
	"github.com/shopspring/decimal"
)

// Pot is the money collected for a game:
// buyin*N + rebuy_cost*sum(rebuys) + addon_cost*count(addon).
func Pot(game *models.Game, rule *models.Rule) (decimal.Decimal, error) {
	if game == nil || len(game.Entries) == 0 {
		var e EmptyGameError
		if game != nil {
			e.GameID = game.ID
		}
		return decimal.Zero, &e
	}

	var rebuys, addons int64
	for _, entry := range game.Entries {
		rebuys += int64(entry.Rebuys)
		if entry.Addon {
			addons++
		}
	}

	pot := rule.Buyin.Mul(decimal.NewFromInt(int64(len(game.Entries))))
	pot = pot.Add(rule.RebuyCost.Mul(decimal.NewFromInt(rebuys)))
	pot = pot.Add(rule.AddonCost.Mul(decimal.NewFromInt(addons)))
	return pot, nil
}

// FeesOwed is what one participant paid into the pot.
func FeesOwed(entry models.GameData, rule *models.Rule) decimal.Decimal {
	fees := rule.Buyin.Add(rule.RebuyCost.Mul(decimal.NewFromInt(int64(entry.Rebuys))))
	if entry.Addon {
		fees = fees.Add(rule.AddonCost)
	}
	return fees
}
