// Package settlement computes the money and season points owed for a poker
// tournament from its per-player elimination record and the Rule it was played
// under.
//
// The package is pure: it reads plain models and returns a report, performing no
// I/O and holding no state. The pipeline is
//
//	ValidateRule -> Pot -> ResolveStandings -> DistributePayouts / AllocatePoints -> ledger
//
// and ComputeSettlement runs it end to end. Callers must pass a consistent snapshot
// of all GameData rows of one game; the same snapshot always yields the same report,
// including its digest.
package settlement
