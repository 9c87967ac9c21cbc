package settlement

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveStandingsOrdersByPosition(t *testing.T) {
	rule := testRule()
	game := testGame(rule, entrySpec{pos: 3}, entrySpec{pos: 1}, entrySpec{pos: 4}, entrySpec{pos: 2})

	standings, err := ResolveStandings(game.Entries)
	require.NoError(t, err)
	require.Len(t, standings, 4)

	for i, e := range standings {
		assert.Equal(t, i+1, e.LeftPos)
	}
	// input order untouched
	assert.Equal(t, 3, game.Entries[0].LeftPos)
}

func TestResolveStandingsViolations(t *testing.T) {
	tests := []struct {
		name          string
		specs         []entrySpec
		wantViolation Violation
		wantPosition  int
	}{
		{name: "duplicate position", specs: []entrySpec{{pos: 1}, {pos: 2}, {pos: 2}}, wantViolation: ViolationDuplicate, wantPosition: 2},
		{name: "unassigned position", specs: []entrySpec{{pos: 1}, {pos: 0}, {pos: 2}}, wantViolation: ViolationOutOfRange, wantPosition: 0},
		{name: "negative position", specs: []entrySpec{{pos: -1}, {pos: 1}}, wantViolation: ViolationOutOfRange, wantPosition: -1},
		{name: "position beyond participant count", specs: []entrySpec{{pos: 1}, {pos: 2}, {pos: 5}}, wantViolation: ViolationGap, wantPosition: 3},
		{name: "negative knockouts", specs: []entrySpec{{pos: 1, knockouts: -1}, {pos: 2}}, wantViolation: ViolationNegativeCount, wantPosition: 1},
		{name: "negative rebuys", specs: []entrySpec{{pos: 1}, {pos: 2, rebuys: -2}}, wantViolation: ViolationNegativeCount, wantPosition: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			game := testGame(testRule(), tt.specs...)

			_, err := ResolveStandings(game.Entries)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformedStandings))

			var standingsErr *MalformedStandingsError
			require.True(t, errors.As(err, &standingsErr))
			assert.Equal(t, tt.wantViolation, standingsErr.Violation)
			assert.Equal(t, tt.wantPosition, standingsErr.Position)
		})
	}
}

func TestResolveStandingsDuplicatePlayer(t *testing.T) {
	game := testGame(testRule(), entrySpec{pos: 1}, entrySpec{pos: 2})
	game.Entries[1].PlayerID = game.Entries[0].PlayerID

	_, err := ResolveStandings(game.Entries)
	var standingsErr *MalformedStandingsError
	require.True(t, errors.As(err, &standingsErr))
	assert.Equal(t, ViolationDuplicatePlayer, standingsErr.Violation)
}

func TestResolveStandingsPositionCoverage(t *testing.T) {
	for n := 1; n <= 10; n++ {
		specs := make([]entrySpec, n)
		for i := range specs {
			specs[i] = entrySpec{pos: n - i}
		}
		standings, err := ResolveStandings(testGame(testRule(), specs...).Entries)
		require.NoError(t, err)

		seen := make(map[int]int)
		for _, e := range standings {
			seen[e.LeftPos]++
		}
		for p := 1; p <= n; p++ {
			assert.Equal(t, 1, seen[p], "n=%d position %d", n, p)
		}
		assert.Len(t, seen, n)
	}
}

func TestResolveProvisional(t *testing.T) {
	game := testGame(testRule(), entrySpec{pos: 0}, entrySpec{pos: 4}, entrySpec{pos: 0}, entrySpec{pos: 3})

	standings, unassigned, err := resolveProvisional(game.Entries)
	require.NoError(t, err)
	assert.Equal(t, 2, unassigned)
	assert.Equal(t, []int{3, 4, 0, 0}, []int{standings[0].LeftPos, standings[1].LeftPos, standings[2].LeftPos, standings[3].LeftPos})
	assert.Equal(t, game.Entries[0].ID, standings[2].ID)

	game.Entries[3].LeftPos = 4
	_, _, err = resolveProvisional(game.Entries)
	assert.ErrorIs(t, err, ErrMalformedStandings)

	game.Entries[3].LeftPos = 5
	_, _, err = resolveProvisional(game.Entries)
	var standingsErr *MalformedStandingsError
	require.True(t, errors.As(err, &standingsErr))
	assert.Equal(t, ViolationOutOfRange, standingsErr.Violation)
}
