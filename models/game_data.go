package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// GameData: результат одного участника в игре.
// LeftPos == 0 означает, что место ещё не назначено.
type GameData struct {
	ID        uuid.UUID       `json:"id" db:"id"`
	GameID    uuid.UUID       `json:"game_id" db:"game_id"`
	PlayerID  uuid.UUID       `json:"player_id" db:"player_id"`
	LeftPos   int             `json:"left_pos" db:"left_pos"`
	Knockouts int             `json:"knockouts" db:"knockouts"`
	Rebuys    int             `json:"rebuys" db:"rebuys"`
	Addon     bool            `json:"addon" db:"addon"`
	Payed     bool            `json:"payed" db:"payed"`
	Debit     decimal.Decimal `json:"debit" db:"debit"`
	Points    int             `json:"points" db:"points"`
	Complete  bool            `json:"complete" db:"complete"`
	Version   int             `json:"version" db:"version"`
	UpdatedAt time.Time       `json:"updated_at" db:"updated_at"`

	Player *Player `json:"player,omitempty" db:"-"`
}
