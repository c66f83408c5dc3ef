package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dukerupert/chorewheel/internal/database"
	"github.com/dukerupert/chorewheel/internal/model"
	"github.com/dukerupert/chorewheel/internal/store"
)

type HouseholdHandler struct {
	households *store.HouseholdStore
	chores     *store.ChoreStore
	generator  Generator
	logger     *slog.Logger
}

func NewHouseholdHandler(db database.DBTX, gen Generator, logger *slog.Logger) *HouseholdHandler {
	return &HouseholdHandler{
		households: store.NewHouseholdStore(db),
		chores:     store.NewChoreStore(db),
		generator:  gen,
		logger:     logger,
	}
}

func (h *HouseholdHandler) List(w http.ResponseWriter, r *http.Request) {
	households, err := h.households.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list households")
		return
	}
	if households == nil {
		households = []model.Household{}
	}
	writeJSON(w, http.StatusOK, households)
}

func (h *HouseholdHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	household, err := h.households.Create(r.Context(), req.Name)
	if err != nil {
		h.logger.Error("create household", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create household")
		return
	}
	writeJSON(w, http.StatusCreated, household)
}

func (h *HouseholdHandler) Get(w http.ResponseWriter, r *http.Request) {
	household, ok := h.load(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, household)
}

func (h *HouseholdHandler) Update(w http.ResponseWriter, r *http.Request) {
	household, ok := h.load(w, r)
	if !ok {
		return
	}

	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	updated, err := h.households.Update(r.Context(), household.ID, req.Name)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update household")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *HouseholdHandler) Delete(w http.ResponseWriter, r *http.Request) {
	household, ok := h.load(w, r)
	if !ok {
		return
	}
	if err := h.households.Delete(r.Context(), household.ID); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete household")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Generate ensures current and next instances for every chore in the household.
func (h *HouseholdHandler) Generate(w http.ResponseWriter, r *http.Request) {
	household, ok := h.load(w, r)
	if !ok {
		return
	}

	created, err := h.generator.EnsureForFamily(r.Context(), household.ID)
	if err != nil {
		h.logger.Error("generate household instances", "household_id", household.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to generate instances")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"created": created})
}

// Instances lists instances whose period ends within [from, to]. Both default
// to a window starting today and ending a week later.
func (h *HouseholdHandler) Instances(w http.ResponseWriter, r *http.Request) {
	household, ok := h.load(w, r)
	if !ok {
		return
	}

	today := h.generator.Today()
	from, err := parseDateQuery(r, "from", today)
	if err != nil {
		writeError(w, http.StatusBadRequest, "from must be YYYY-MM-DD")
		return
	}
	to, err := parseDateQuery(r, "to", from.AddDate(0, 0, 7))
	if err != nil {
		writeError(w, http.StatusBadRequest, "to must be YYYY-MM-DD")
		return
	}
	if to.Before(from) {
		writeError(w, http.StatusBadRequest, "to must not be before from")
		return
	}

	instances, err := h.chores.ListInstancesEndingBetween(r.Context(), household.ID, from, to)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list instances")
		return
	}
	writeJSON(w, http.StatusOK, instances)
}

func (h *HouseholdHandler) load(w http.ResponseWriter, r *http.Request) (*model.Household, bool) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return nil, false
	}
	household, err := h.households.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get household")
		return nil, false
	}
	if household == nil {
		writeError(w, http.StatusNotFound, "household not found")
		return nil, false
	}
	return household, true
}
