package handlers

import (
	"errors"
	"net/http"

	"github.com/Dosada05/wsob-poker/middleware"
	"github.com/Dosada05/wsob-poker/models"
	"github.com/Dosada05/wsob-poker/services"
	"github.com/google/uuid"
)

type GameHandler struct {
	gameService       services.GameService
	settlementService services.SettlementService
}

func NewGameHandler(gs services.GameService, ss services.SettlementService) *GameHandler {
	return &GameHandler{
		gameService:       gs,
		settlementService: ss,
	}
}

type addParticipantInput struct {
	PlayerID uuid.UUID `json:"player_id"`
}

type eliminateInput struct {
	// Position == nil: следующее свободное место снизу.
	Position *int `json:"position"`
}

type paymentInput struct {
	Payed *bool `json:"payed"`
}

// ListGames godoc
// @Summary Список игр, новые первыми
// @Tags games
// @Produce json
// @Param ended query bool false "Фильтр по завершённости"
// @Param limit query int false "Лимит"
// @Param offset query int false "Смещение"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /games [get]
func (h *GameHandler) ListGames(w http.ResponseWriter, r *http.Request) {
	ended, err := queryBool(r, "ended")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	limit, offset, err := queryPage(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	games, err := h.gameService.List(r.Context(), models.GameFilter{Ended: ended, Limit: limit, Offset: offset})
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"games": games}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *GameHandler) GetGame(w http.ResponseWriter, r *http.Request) {
	gameID, err := getUUIDFromURL(r, "gameID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	game, err := h.gameService.GetByID(r.Context(), gameID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"game": game}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// CreateGame godoc
// @Summary Создать игру по активному правилу
// @Tags games
// @Accept json
// @Produce json
// @Param input body services.CreateGameInput true "Правило и участники"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} map[string]string "Правило неактивно"
// @Failure 404 {object} map[string]string "Правило или игрок не найдены"
// @Security BearerAuth
// @Router /games [post]
func (h *GameHandler) CreateGame(w http.ResponseWriter, r *http.Request) {
	claims, err := middleware.GetClaimsFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	var input services.CreateGameInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.RuleID == uuid.Nil {
		badRequestResponse(w, r, errors.New("rule_id is required"))
		return
	}

	game, err := h.gameService.Create(r.Context(), claims, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"game": game}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *GameHandler) DeleteGame(w http.ResponseWriter, r *http.Request) {
	gameID, err := getUUIDFromURL(r, "gameID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.gameService.Delete(r.Context(), gameID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *GameHandler) AddParticipant(w http.ResponseWriter, r *http.Request) {
	gameID, err := getUUIDFromURL(r, "gameID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input addParticipantInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.PlayerID == uuid.Nil {
		badRequestResponse(w, r, errors.New("player_id is required"))
		return
	}

	entry, err := h.gameService.AddParticipant(r.Context(), gameID, input.PlayerID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"entry": entry}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *GameHandler) RemoveParticipant(w http.ResponseWriter, r *http.Request) {
	gameID, dataID, ok := h.entryIDs(w, r)
	if !ok {
		return
	}

	if err := h.gameService.RemoveParticipant(r.Context(), gameID, dataID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// UpdateEntry godoc
// @Summary Изменить результат участника
// @Tags games
// @Description Запрос должен содержать текущую version записи; устаревшая версия даёт 409.
// @Accept json
// @Produce json
// @Param gameID path string true "Game ID"
// @Param dataID path string true "Entry ID"
// @Param input body services.UpdateEntryInput true "Поля для изменения"
// @Success 200 {object} map[string]interface{}
// @Failure 409 {object} map[string]string "Конфликт версий или игра завершена"
// @Security BearerAuth
// @Router /games/{gameID}/entries/{dataID} [patch]
func (h *GameHandler) UpdateEntry(w http.ResponseWriter, r *http.Request) {
	gameID, dataID, ok := h.entryIDs(w, r)
	if !ok {
		return
	}

	var input services.UpdateEntryInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.Version <= 0 {
		badRequestResponse(w, r, errors.New("version is required"))
		return
	}

	entry, err := h.gameService.UpdateEntry(r.Context(), gameID, dataID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"entry": entry}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Eliminate godoc
// @Summary Выбывание участника
// @Tags games
// @Accept json
// @Produce json
// @Param gameID path string true "Game ID"
// @Param dataID path string true "Entry ID"
// @Param input body eliminateInput false "Явное место; без него назначается следующее свободное"
// @Success 200 {object} map[string]interface{}
// @Failure 409 {object} map[string]string "Место занято"
// @Security BearerAuth
// @Router /games/{gameID}/entries/{dataID}/eliminate [post]
func (h *GameHandler) Eliminate(w http.ResponseWriter, r *http.Request) {
	gameID, dataID, ok := h.entryIDs(w, r)
	if !ok {
		return
	}

	var input eliminateInput
	if r.ContentLength != 0 {
		if err := readJSON(w, r, &input); err != nil && err.Error() != "body must not be empty" {
			badRequestResponse(w, r, err)
			return
		}
	}

	entry, err := h.gameService.Eliminate(r.Context(), gameID, dataID, input.Position)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"entry": entry}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *GameHandler) Revive(w http.ResponseWriter, r *http.Request) {
	gameID, dataID, ok := h.entryIDs(w, r)
	if !ok {
		return
	}

	entry, err := h.gameService.Revive(r.Context(), gameID, dataID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"entry": entry}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *GameHandler) SetPayment(w http.ResponseWriter, r *http.Request) {
	gameID, dataID, ok := h.entryIDs(w, r)
	if !ok {
		return
	}

	var input paymentInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.Payed == nil {
		badRequestResponse(w, r, errors.New("payed is required"))
		return
	}

	entry, err := h.gameService.SetPayment(r.Context(), gameID, dataID, *input.Payed)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"entry": entry}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// EndGame godoc
// @Summary Завершить игру и рассчитать выплаты
// @Tags settlement
// @Produce json
// @Param gameID path string true "Game ID"
// @Success 200 {object} models.SettlementReport
// @Failure 409 {object} map[string]string "Игра не готова к расчёту"
// @Failure 422 {object} map[string]interface{} "Некорректные места или правило"
// @Security BearerAuth
// @Router /games/{gameID}/end [post]
func (h *GameHandler) EndGame(w http.ResponseWriter, r *http.Request) {
	gameID, err := getUUIDFromURL(r, "gameID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	report, err := h.settlementService.End(r.Context(), gameID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"settlement": report}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *GameHandler) ReopenGame(w http.ResponseWriter, r *http.Request) {
	gameID, err := getUUIDFromURL(r, "gameID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.settlementService.Reopen(r.Context(), gameID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	game, err := h.gameService.GetByID(r.Context(), gameID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"game": game}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetSettlement godoc
// @Summary Расчёт игры (сохранённый или предварительный)
// @Tags settlement
// @Produce json
// @Param gameID path string true "Game ID"
// @Success 200 {object} models.SettlementReport
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /games/{gameID}/settlement [get]
func (h *GameHandler) GetSettlement(w http.ResponseWriter, r *http.Request) {
	gameID, err := getUUIDFromURL(r, "gameID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	report, err := h.settlementService.Get(r.Context(), gameID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"settlement": report}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *GameHandler) entryIDs(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, bool) {
	gameID, err := getUUIDFromURL(r, "gameID")
	if err != nil {
		badRequestResponse(w, r, err)
		return uuid.Nil, uuid.Nil, false
	}
	dataID, err := getUUIDFromURL(r, "dataID")
	if err != nil {
		badRequestResponse(w, r, err)
		return uuid.Nil, uuid.Nil, false
	}
	return gameID, dataID, true
}
