package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SettlementEntry is one participant's line of a settlement report.
type SettlementEntry struct {
	DataID        uuid.UUID       `json:"data_id"`
	PlayerID      uuid.UUID       `json:"player_id"`
	Position      int             `json:"position"`
	Knockouts     int             `json:"knockouts"`
	Rebuys        int             `json:"rebuys"`
	Addon         bool            `json:"addon"`
	BasePrize     decimal.Decimal `json:"base_prize"`
	KnockoutBonus decimal.Decimal `json:"knockout_bonus"`
	TotalPayout   decimal.Decimal `json:"total_payout"`
	Points        int             `json:"points"`
	FeesOwed      decimal.Decimal `json:"fees_owed"`
	Net           decimal.Decimal `json:"net"`
	Payed         bool            `json:"payed"`
}

// SettlementReport is the complete result of settling one game.
// It carries no timestamps so identical inputs give identical reports.
type SettlementReport struct {
	GameID           uuid.UUID         `json:"game_id"`
	RuleID           uuid.UUID         `json:"rule_id"`
	Formula          Formula           `json:"formula"`
	Provisional      bool              `json:"provisional"`
	Participants     int               `json:"participants"`
	Pot              decimal.Decimal   `json:"pot"`
	KnockoutTotal    decimal.Decimal   `json:"knockout_total"`
	PrizePool        decimal.Decimal   `json:"prize_pool"`
	FeesTotal        decimal.Decimal   `json:"fees_total"`
	DistributedTotal decimal.Decimal   `json:"distributed_total"`
	Reconciliation   decimal.Decimal   `json:"reconciliation"`
	Entries          []SettlementEntry `json:"entries"`
	Warnings         []string          `json:"warnings,omitempty"`
	Digest           string            `json:"digest"`
}

// Settlement is the persisted form of a report.
type Settlement struct {
	GameID    uuid.UUID         `json:"game_id" db:"game_id"`
	RuleID    uuid.UUID         `json:"rule_id" db:"rule_id"`
	Digest    string            `json:"digest" db:"digest"`
	Report    *SettlementReport `json:"report" db:"report"`
	CreatedAt time.Time         `json:"created_at" db:"created_at"`
}
