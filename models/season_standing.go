package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SeasonStanding aggregates settled games of one calendar year per player.
type SeasonStanding struct {
	Rank        int             `json:"rank"`
	PlayerID    uuid.UUID       `json:"player_id"`
	PlayerName  string          `json:"player_name"`
	Points      int             `json:"points"`
	GamesPlayed int             `json:"games_played"`
	Wins        int             `json:"wins"`
	Knockouts   int             `json:"knockouts"`
	Net         decimal.Decimal `json:"net"`
}
