package settlement

import (
	"errors"
	"fmt"

	"github.com/Dosada05/wsob-poker/models"
	"github.com/google/uuid"
)

var (
	ErrInvalidRule        = errors.New("invalid rule")
	ErrEmptyGame          = errors.New("game has no participants")
	ErrMalformedStandings = errors.New("malformed standings")
	ErrFormulaMismatch    = errors.New("unrecognized payout formula")
)

// InvalidRuleError names the rule field that failed validation.
type InvalidRuleError struct {
	Field  string
	Reason string
}

func (e *InvalidRuleError) Error() string {
	return fmt.Sprintf("invalid rule: %s %s", e.Field, e.Reason)
}

func (e *InvalidRuleError) Unwrap() error { return ErrInvalidRule }

type EmptyGameError struct {
	GameID uuid.UUID
}

func (e *EmptyGameError) Error() string {
	return fmt.Sprintf("game %s has no participants", e.GameID)
}

func (e *EmptyGameError) Unwrap() error { return ErrEmptyGame }

// Violation classifies a MalformedStandingsError.
type Violation string

const (
	ViolationOutOfRange      Violation = "position_out_of_range"
	ViolationDuplicate       Violation = "duplicate_position"
	ViolationGap             Violation = "position_gap"
	ViolationNegativeCount   Violation = "negative_count"
	ViolationDuplicatePlayer Violation = "duplicate_player"
)

type MalformedStandingsError struct {
	Violation Violation
	Position  int
	DataID    uuid.UUID
	Detail    string
}

func (e *MalformedStandingsError) Error() string {
	return fmt.Sprintf("malformed standings (%s): %s", e.Violation, e.Detail)
}

func (e *MalformedStandingsError) Unwrap() error { return ErrMalformedStandings }

// FormulaMismatchError should never surface: ValidateRule rejects unknown formulas first.
type FormulaMismatchError struct {
	Formula models.Formula
}

func (e *FormulaMismatchError) Error() string {
	return fmt.Sprintf("unrecognized payout formula %q", string(e.Formula))
}

func (e *FormulaMismatchError) Unwrap() error { return ErrFormulaMismatch }
