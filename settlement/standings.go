package settlement

import (
	"fmt"
	"sort"

	"github.com/Dosada05/wsob-poker/models"
	"github.com/google/uuid"
)

// ResolveStandings orders the entries of a finished game by finish position
// (1 = winner first). Positions must be exactly {1..N}; anything else is a
// *MalformedStandingsError. The input slice is not modified.
func ResolveStandings(entries []models.GameData) ([]models.GameData, error) {
	if err := checkEntries(entries); err != nil {
		return nil, err
	}

	n := len(entries)
	seen := make(map[int]uuid.UUID, n)
	for _, e := range entries {
		if e.LeftPos < 1 {
			return nil, &MalformedStandingsError{
				Violation: ViolationOutOfRange,
				Position:  e.LeftPos,
				DataID:    e.ID,
				Detail:    fmt.Sprintf("entry %s has position %d, want 1..%d", e.ID, e.LeftPos, n),
			}
		}
		if other, dup := seen[e.LeftPos]; dup {
			return nil, &MalformedStandingsError{
				Violation: ViolationDuplicate,
				Position:  e.LeftPos,
				DataID:    e.ID,
				Detail:    fmt.Sprintf("position %d is held by entries %s and %s", e.LeftPos, other, e.ID),
			}
		}
		seen[e.LeftPos] = e.ID
	}

	// N distinct positions >= 1: any position above N leaves a hole below it.
	for p := 1; p <= n; p++ {
		if _, ok := seen[p]; ok {
			continue
		}
		highest := 0
		var highestID uuid.UUID
		for pos, id := range seen {
			if pos > highest {
				highest, highestID = pos, id
			}
		}
		return nil, &MalformedStandingsError{
			Violation: ViolationGap,
			Position:  p,
			DataID:    highestID,
			Detail:    fmt.Sprintf("position %d is missing; entry %s has position %d outside 1..%d", p, highestID, highest, n),
		}
	}

	return sortByPosition(entries), nil
}

// resolveProvisional is ResolveStandings for a game still in progress:
// position 0 (unassigned) is allowed, assigned positions must be unique and
// within 1..N. Unassigned entries sort last in input order.
func resolveProvisional(entries []models.GameData) ([]models.GameData, int, error) {
	if err := checkEntries(entries); err != nil {
		return nil, 0, err
	}

	n := len(entries)
	seen := make(map[int]uuid.UUID, n)
	unassigned := 0
	for _, e := range entries {
		if e.LeftPos == 0 {
			unassigned++
			continue
		}
		if e.LeftPos < 0 || e.LeftPos > n {
			return nil, 0, &MalformedStandingsError{
				Violation: ViolationOutOfRange,
				Position:  e.LeftPos,
				DataID:    e.ID,
				Detail:    fmt.Sprintf("entry %s has position %d, want 1..%d", e.ID, e.LeftPos, n),
			}
		}
		if other, dup := seen[e.LeftPos]; dup {
			return nil, 0, &MalformedStandingsError{
				Violation: ViolationDuplicate,
				Position:  e.LeftPos,
				DataID:    e.ID,
				Detail:    fmt.Sprintf("position %d is held by entries %s and %s", e.LeftPos, other, e.ID),
			}
		}
		seen[e.LeftPos] = e.ID
	}
	return sortByPosition(entries), unassigned, nil
}

func checkEntries(entries []models.GameData) error {
	players := make(map[uuid.UUID]uuid.UUID, len(entries))
	for _, e := range entries {
		if e.Knockouts < 0 || e.Rebuys < 0 {
			return &MalformedStandingsError{
				Violation: ViolationNegativeCount,
				Position:  e.LeftPos,
				DataID:    e.ID,
				Detail:    fmt.Sprintf("entry %s has knockouts=%d rebuys=%d", e.ID, e.Knockouts, e.Rebuys),
			}
		}
		if other, dup := players[e.PlayerID]; dup && e.PlayerID != uuid.Nil {
			return &MalformedStandingsError{
				Violation: ViolationDuplicatePlayer,
				Position:  e.LeftPos,
				DataID:    e.ID,
				Detail:    fmt.Sprintf("player %s appears in entries %s and %s", e.PlayerID, other, e.ID),
			}
		}
		players[e.PlayerID] = e.ID
	}
	return nil
}

func sortByPosition(entries []models.GameData) []models.GameData {
	ordered := make([]models.GameData, len(entries))
	copy(ordered, entries)
	sort.SliceStable(ordered, func(i, j int) bool {
		pi, pj := ordered[i].LeftPos, ordered[j].LeftPos
		if pi == 0 || pj == 0 {
			return pj == 0 && pi != 0
		}
		return pi < pj
	})
	return ordered
}
