package models

import (
	"time"

	"github.com/google/uuid"
)

// GameStatus is derived from the game's flags and entries, never stored.
type GameStatus string

const (
	GameStatusOpen    GameStatus = "open"
	GameStatusReady   GameStatus = "ready"
	GameStatusEnded   GameStatus = "ended" // ended, settlement missing or failed
	GameStatusSettled GameStatus = "settled"
)

type Game struct {
	ID              uuid.UUID  `json:"id" db:"id"`
	RuleID          uuid.UUID  `json:"rule_id" db:"rule_id"`
	Ended           bool       `json:"ended" db:"ended"`
	SettledAt       *time.Time `json:"settled_at,omitempty" db:"settled_at"`
	SettlementError *string    `json:"settlement_error,omitempty" db:"settlement_error"`
	CreatedBy       *uuid.UUID `json:"created_by,omitempty" db:"created_by"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`

	Status  GameStatus `json:"status" db:"-"`
	Entries []GameData `json:"entries,omitempty" db:"-"`
	Rule    *Rule      `json:"rule,omitempty" db:"-"`
}

// DeriveStatus computes the settlement state machine position:
// open -> ready -> settled (and ended while a settlement is pending).
func (g *Game) DeriveStatus() GameStatus {
	if g.Ended {
		if g.SettledAt != nil {
			return GameStatusSettled
		}
		return GameStatusEnded
	}
	if len(g.Entries) == 0 {
		return GameStatusOpen
	}
	for _, e := range g.Entries {
		if e.LeftPos == 0 || !e.Complete {
			return GameStatusOpen
		}
	}
	return GameStatusReady
}

type GameFilter struct {
	Ended  *bool
	Limit  int
	Offset int
}
