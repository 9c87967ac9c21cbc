package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/Dosada05/wsob-poker/services"
	"github.com/go-chi/chi/v5"
)

type SeasonHandler struct {
	leaderboardService services.LeaderboardService
}

func NewSeasonHandler(ls services.LeaderboardService) *SeasonHandler {
	return &SeasonHandler{leaderboardService: ls}
}

// Leaderboard godoc
// @Summary Таблица очков за сезон (календарный год UTC)
// @Tags seasons
// @Produce json
// @Param year path int true "Год"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Security BearerAuth
// @Router /seasons/{year}/leaderboard [get]
func (h *SeasonHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "year")
	year, err := strconv.Atoi(raw)
	if err != nil {
		badRequestResponse(w, r, fmt.Errorf("invalid year format: %q", raw))
		return
	}

	standings, err := h.leaderboardService.Season(r.Context(), year)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"season": year, "standings": standings}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
