package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Formula selects how prize-table values turn into money.
type Formula string

const (
	// FormulaFixed: table values are absolute currency amounts.
	FormulaFixed Formula = "fixed"
	// FormulaProportional: table values are weights applied to the prize pool.
	FormulaProportional Formula = "proportional"
)

func (f Formula) Valid() bool {
	return f == FormulaFixed || f == FormulaProportional
}

// ParseFormula accepts the text form and the legacy numeric selector
// (0 = fixed, 1 = proportional) used by older rule records.
func ParseFormula(s string) (Formula, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fixed", "0":
		return FormulaFixed, nil
	case "proportional", "1":
		return FormulaProportional, nil
	default:
		return "", fmt.Errorf("unknown formula %q", s)
	}
}

// UnmarshalJSON also accepts the bare numeric form.
func (f *Formula) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		var n json.Number
		if errNum := json.Unmarshal(data, &n); errNum != nil {
			return fmt.Errorf("formula must be a string or number: %w", err)
		}
		s = n.String()
	}
	parsed, err := ParseFormula(s)
	if err != nil {
		// Нераспознанное значение сохраняем как есть: его отклонит валидатор правил.
		*f = Formula(s)
		return nil
	}
	*f = parsed
	return nil
}

type Prize struct {
	Position int             `json:"position"`
	Value    decimal.Decimal `json:"value"`
}

type PointsEntry struct {
	Position int `json:"position"`
	Points   int `json:"points"`
}

// PrizeTable is stored as a JSONB column.
type PrizeTable []Prize

func (t PrizeTable) Value() (driver.Value, error) {
	if t == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(t)
}

func (t *PrizeTable) Scan(src interface{}) error {
	return scanJSON(src, t)
}

// Lookup returns the table value for a finish position.
func (t PrizeTable) Lookup(position int) (decimal.Decimal, bool) {
	for _, p := range t {
		if p.Position == position {
			return p.Value, true
		}
	}
	return decimal.Zero, false
}

// PointsTable is stored as a JSONB column.
type PointsTable []PointsEntry

func (t PointsTable) Value() (driver.Value, error) {
	if t == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(t)
}

func (t *PointsTable) Scan(src interface{}) error {
	return scanJSON(src, t)
}

func (t PointsTable) Lookup(position int) (int, bool) {
	for _, p := range t {
		if p.Position == position {
			return p.Points, true
		}
	}
	return 0, false
}

func scanJSON(src interface{}, dst interface{}) error {
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(v, dst)
	case string:
		return json.Unmarshal([]byte(v), dst)
	default:
		return errors.New("unsupported type for JSON column")
	}
}

// Rule: конфигурация расчёта турнира. После использования в завершённой игре не изменяется.
type Rule struct {
	ID            uuid.UUID       `json:"id" db:"id"`
	Name          string          `json:"name" db:"name"`
	Slug          string          `json:"slug" db:"slug"`
	Version       int             `json:"version" db:"version"`
	ParentID      *uuid.UUID      `json:"parent_id,omitempty" db:"parent_id"`
	Active        bool            `json:"active" db:"active"`
	Buyin         decimal.Decimal `json:"buyin" db:"buyin"`
	RebuyCost     decimal.Decimal `json:"rebuy_cost" db:"rebuy_cost"`
	AddonCost     decimal.Decimal `json:"addon_cost" db:"addon_cost"`
	KnockoutBonus decimal.Decimal `json:"knockout_bonus" db:"knockout_bonus"`
	Formula       Formula         `json:"formula" db:"formula"`
	PrizeTable    PrizeTable      `json:"prize_table" db:"prize_table"`
	PointsTable   PointsTable     `json:"points_table" db:"points_table"`
	CreatedBy     *uuid.UUID      `json:"created_by,omitempty" db:"created_by"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at" db:"updated_at"`
}
