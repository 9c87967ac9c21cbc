package handlers

import (
	"errors"
	"net/http"

	"github.com/Dosada05/wsob-poker/middleware"
	"github.com/Dosada05/wsob-poker/services"
	"github.com/go-chi/chi/v5"
)

type RuleHandler struct {
	ruleService services.RuleService
}

func NewRuleHandler(rs services.RuleService) *RuleHandler {
	return &RuleHandler{ruleService: rs}
}

type setActiveInput struct {
	Active *bool `json:"active"`
}

// ListRules godoc
// @Summary Список правил расчёта
// @Tags rules
// @Produce json
// @Param active query bool false "Фильтр по активности"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /rules [get]
func (h *RuleHandler) ListRules(w http.ResponseWriter, r *http.Request) {
	active, err := queryBool(r, "active")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	rules, err := h.ruleService.List(r.Context(), active)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"rules": rules}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *RuleHandler) GetRule(w http.ResponseWriter, r *http.Request) {
	ruleID, err := getUUIDFromURL(r, "ruleID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	rule, err := h.ruleService.GetByID(r.Context(), ruleID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"rule": rule}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetRuleBySlug returns the newest version of the rule.
func (h *RuleHandler) GetRuleBySlug(w http.ResponseWriter, r *http.Request) {
	rule, err := h.ruleService.GetBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"rule": rule}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// CreateRule godoc
// @Summary Создать правило (только администратор)
// @Tags rules
// @Accept json
// @Produce json
// @Param input body services.RuleInput true "Правило"
// @Success 201 {object} map[string]interface{}
// @Failure 409 {object} map[string]string "Slug занят"
// @Failure 422 {object} map[string]interface{} "Поле правила не прошло проверку"
// @Security BearerAuth
// @Router /rules [post]
func (h *RuleHandler) CreateRule(w http.ResponseWriter, r *http.Request) {
	claims, err := middleware.GetClaimsFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	var input services.RuleInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	rule, err := h.ruleService.Create(r.Context(), claims, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"rule": rule}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// UpdateRule godoc
// @Summary Изменить правило, пока оно не использовано в завершённой игре
// @Tags rules
// @Accept json
// @Produce json
// @Param ruleID path string true "Rule ID"
// @Param input body services.RuleInput true "Правило"
// @Success 200 {object} map[string]interface{}
// @Failure 409 {object} map[string]string "Правило заморожено, используйте clone"
// @Failure 422 {object} map[string]interface{}
// @Security BearerAuth
// @Router /rules/{ruleID} [put]
func (h *RuleHandler) UpdateRule(w http.ResponseWriter, r *http.Request) {
	ruleID, err := getUUIDFromURL(r, "ruleID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.RuleInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	rule, err := h.ruleService.Update(r.Context(), ruleID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"rule": rule}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// CloneRule создаёт следующую версию правила. Пустое тело копирует правило как есть.
func (h *RuleHandler) CloneRule(w http.ResponseWriter, r *http.Request) {
	ruleID, err := getUUIDFromURL(r, "ruleID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	claims, err := middleware.GetClaimsFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	var input *services.RuleInput
	if r.ContentLength != 0 {
		var body services.RuleInput
		if err := readJSON(w, r, &body); err != nil {
			if err.Error() != "body must not be empty" {
				badRequestResponse(w, r, err)
				return
			}
		} else {
			input = &body
		}
	}

	rule, err := h.ruleService.Clone(r.Context(), ruleID, claims, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"rule": rule}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *RuleHandler) SetRuleActive(w http.ResponseWriter, r *http.Request) {
	ruleID, err := getUUIDFromURL(r, "ruleID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input setActiveInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.Active == nil {
		badRequestResponse(w, r, errors.New("active is required"))
		return
	}

	rule, err := h.ruleService.SetActive(r.Context(), ruleID, *input.Active)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"rule": rule}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *RuleHandler) DeleteRule(w http.ResponseWriter, r *http.Request) {
	ruleID, err := getUUIDFromURL(r, "ruleID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.ruleService.Delete(r.Context(), ruleID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
