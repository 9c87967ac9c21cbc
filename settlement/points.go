package settlement

import "github.com/Dosada05/wsob-poker/models"

// AllocatePoints returns season points for each entry of the standings;
// positions beyond the points table, and unassigned positions, score zero.
func AllocatePoints(standings []models.GameData, rule *models.Rule) []int {
	points := make([]int, len(standings))
	for i, e := range standings {
		if e.LeftPos < 1 {
			continue
		}
		points[i], _ = rule.PointsTable.Lookup(e.LeftPos)
	}
	return points
}
