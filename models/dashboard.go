package models

type DashboardStats struct {
	PlayersTotal  int    `json:"players_total"`
	OpenGames     int    `json:"open_games"`
	EndedGames    int    `json:"ended_games"`
	SettledGames  int    `json:"settled_games"`
	UnpaidEntries int    `json:"unpaid_entries"`
	RecentGames   []Game `json:"recent_games"`
}
