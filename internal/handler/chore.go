package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dukerupert/chorewheel/internal/chore"
	"github.com/dukerupert/chorewheel/internal/database"
	"github.com/dukerupert/chorewheel/internal/model"
	"github.com/dukerupert/chorewheel/internal/period"
	"github.com/dukerupert/chorewheel/internal/recurrence"
	"github.com/dukerupert/chorewheel/internal/store"
	"github.com/dukerupert/chorewheel/internal/websocket"
)

const (
	defaultScheduleCount = 5
	maxScheduleCount     = 52
)

type ChoreHandler struct {
	households *store.HouseholdStore
	chores     *store.ChoreStore
	uow        database.UnitOfWork
	generator  Generator
	hub        *websocket.Hub
	logger     *slog.Logger
}

func NewChoreHandler(db database.DBTX, uow database.UnitOfWork, gen Generator, hub *websocket.Hub, logger *slog.Logger) *ChoreHandler {
	return &ChoreHandler{
		households: store.NewHouseholdStore(db),
		chores:     store.NewChoreStore(db),
		uow:        uow,
		generator:  gen,
		hub:        hub,
		logger:     logger,
	}
}

type choreRequest struct {
	Title           string  `json:"title"`
	Description     string  `json:"description"`
	Points          int     `json:"points"`
	RecurrenceRule  string  `json:"recurrence_rule"`
	DTStart         string  `json:"dtstart"`
	RotationPattern string  `json:"rotation_pattern"`
	AssigneeIDs     []int64 `json:"assignee_ids"`
}

// params validates the request. dtstart defaults to today.
func (req *choreRequest) params(today time.Time) (store.ChoreParams, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return store.ChoreParams{}, validationError{msg: "title is required"}
	}
	if req.Points < 0 {
		return store.ChoreParams{}, validationError{msg: "points must not be negative"}
	}

	rule := strings.TrimSpace(req.RecurrenceRule)
	if rule == "" {
		return store.ChoreParams{}, validationError{msg: "recurrence_rule is required"}
	}
	parsed, err := recurrence.Parse(rule)
	if err != nil {
		return store.ChoreParams{}, validationError{msg: err.Error()}
	}

	dtstart := today
	if req.DTStart != "" {
		d, err := time.Parse(time.DateOnly, req.DTStart)
		if err != nil {
			return store.ChoreParams{}, validationError{msg: "dtstart must be YYYY-MM-DD"}
		}
		dtstart = d
	}
	if err := parsed.Validate(dtstart); err != nil {
		return store.ChoreParams{}, validationError{msg: err.Error()}
	}

	pattern, err := model.ParseRotationPattern(req.RotationPattern)
	if err != nil {
		return store.ChoreParams{}, validationError{msg: err.Error()}
	}

	return store.ChoreParams{
		Title:           title,
		Description:     strings.TrimSpace(req.Description),
		Points:          req.Points,
		RecurrenceRule:  parsed.String(),
		DTStart:         dtstart,
		RotationPattern: pattern,
	}, nil
}

func (h *ChoreHandler) List(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	household, err := h.households.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get household")
		return
	}
	if household == nil {
		writeError(w, http.StatusNotFound, "household not found")
		return
	}

	chores, err := h.chores.ListByHousehold(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list chores")
		return
	}

	today := h.generator.Today()
	summaries := make([]chore.Summary, 0, len(chores))
	for _, c := range chores {
		summaries = append(summaries, chore.Summarize(c, today))
	}
	writeJSON(w, http.StatusOK, summaries)
}

// Create adds a chore and its rotation pool in one transaction.
func (h *ChoreHandler) Create(w http.ResponseWriter, r *http.Request) {
	householdID, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req choreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	p, err := req.params(h.generator.Today())
	if err != nil {
		h.fail(w, err, "failed to create chore")
		return
	}

	var created *model.Chore
	err = h.uow.WithinTx(r.Context(), func(ctx context.Context, tx database.DBTX) error {
		household, err := store.NewHouseholdStore(tx).GetByID(ctx, householdID)
		if err != nil {
			return err
		}
		if household == nil {
			return errNotFound
		}
		if err := checkPool(ctx, store.NewFamilyMemberStore(tx), householdID, req.AssigneeIDs); err != nil {
			return err
		}

		chores := store.NewChoreStore(tx)
		c, err := chores.Create(ctx, householdID, p)
		if err != nil {
			return err
		}
		if len(req.AssigneeIDs) > 0 {
			if err := chores.SetAssignees(ctx, c.ID, req.AssigneeIDs); err != nil {
				return err
			}
		}
		created, err = chores.GetByID(ctx, c.ID)
		return err
	})
	if errors.Is(err, errNotFound) {
		writeError(w, http.StatusNotFound, "household not found")
		return
	}
	if err != nil {
		h.fail(w, err, "failed to create chore")
		return
	}

	broadcast(h.hub, householdID, websocket.NewMessage("chore", "created", created.ID, nil))
	writeJSON(w, http.StatusCreated, chore.Summarize(*created, h.generator.Today()))
}

// Get returns the chore with its schedule state and current assignee.
func (h *ChoreHandler) Get(w http.ResponseWriter, r *http.Request) {
	c, ok := h.load(w, r)
	if !ok {
		return
	}

	instances, err := h.chores.ListInstancesByChore(r.Context(), c.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list instances")
		return
	}
	writeJSON(w, http.StatusOK, chore.Summarize(*c, h.generator.Today()).WithAssignee(instances))
}

// Update replaces the chore's fields. A request without assignee_ids keeps the
// existing pool. Instances already generated are left as they are.
func (h *ChoreHandler) Update(w http.ResponseWriter, r *http.Request) {
	existing, ok := h.load(w, r)
	if !ok {
		return
	}

	var req choreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.DTStart == "" {
		req.DTStart = existing.DTStart.Format(time.DateOnly)
	}
	if req.RotationPattern == "" {
		req.RotationPattern = string(existing.RotationPattern)
	}
	p, err := req.params(h.generator.Today())
	if err != nil {
		h.fail(w, err, "failed to update chore")
		return
	}

	var updated *model.Chore
	err = h.uow.WithinTx(r.Context(), func(ctx context.Context, tx database.DBTX) error {
		chores := store.NewChoreStore(tx)
		if _, err := chores.Update(ctx, existing.ID, p); err != nil {
			return err
		}
		if req.AssigneeIDs != nil {
			if err := checkPool(ctx, store.NewFamilyMemberStore(tx), existing.HouseholdID, req.AssigneeIDs); err != nil {
				return err
			}
			if err := chores.SetAssignees(ctx, existing.ID, req.AssigneeIDs); err != nil {
				return err
			}
		}
		var err error
		updated, err = chores.GetByID(ctx, existing.ID)
		return err
	})
	if err != nil {
		h.fail(w, err, "failed to update chore")
		return
	}

	broadcast(h.hub, existing.HouseholdID, websocket.NewMessage("chore", "updated", existing.ID, nil))
	writeJSON(w, http.StatusOK, chore.Summarize(*updated, h.generator.Today()))
}

func (h *ChoreHandler) Delete(w http.ResponseWriter, r *http.Request) {
	existing, ok := h.load(w, r)
	if !ok {
		return
	}
	if err := h.chores.Delete(r.Context(), existing.ID); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete chore")
		return
	}

	broadcast(h.hub, existing.HouseholdID, websocket.NewMessage("chore", "deleted", existing.ID, nil))
	w.WriteHeader(http.StatusNoContent)
}

// SetAssignees replaces the rotation pool. Order in the request is rotation order.
func (h *ChoreHandler) SetAssignees(w http.ResponseWriter, r *http.Request) {
	existing, ok := h.load(w, r)
	if !ok {
		return
	}

	var req struct {
		MemberIDs []int64 `json:"member_ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	var pool []model.Assignee
	err := h.uow.WithinTx(r.Context(), func(ctx context.Context, tx database.DBTX) error {
		if err := checkPool(ctx, store.NewFamilyMemberStore(tx), existing.HouseholdID, req.MemberIDs); err != nil {
			return err
		}
		chores := store.NewChoreStore(tx)
		if err := chores.SetAssignees(ctx, existing.ID, req.MemberIDs); err != nil {
			return err
		}
		var err error
		pool, err = chores.ListAssignees(ctx, existing.ID)
		return err
	})
	if err != nil {
		h.fail(w, err, "failed to set assignees")
		return
	}

	broadcast(h.hub, existing.HouseholdID, websocket.NewMessage("chore", "updated", existing.ID, nil))
	writeJSON(w, http.StatusOK, pool)
}

// Generate ensures the chore's current instance, and the next one when the
// next query parameter is true.
func (h *ChoreHandler) Generate(w http.ResponseWriter, r *http.Request) {
	existing, ok := h.load(w, r)
	if !ok {
		return
	}

	includeNext := false
	if v := r.URL.Query().Get("next"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "next must be a boolean")
			return
		}
		includeNext = b
	}

	ids, err := h.generator.EnsureForChore(r.Context(), existing.ID, includeNext)
	if errors.Is(err, recurrence.ErrInvalidRule) || errors.Is(err, recurrence.ErrSearchLimit) {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if err != nil {
		h.logger.Error("generate chore instances", "chore_id", existing.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to generate instances")
		return
	}
	writeJSON(w, http.StatusOK, map[string][]int64{"created": ids})
}

func (h *ChoreHandler) Instances(w http.ResponseWriter, r *http.Request) {
	existing, ok := h.load(w, r)
	if !ok {
		return
	}
	instances, err := h.chores.ListInstancesByChore(r.Context(), existing.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list instances")
		return
	}
	writeJSON(w, http.StatusOK, instances)
}

// Schedule previews the next count periods starting with the current one.
func (h *ChoreHandler) Schedule(w http.ResponseWriter, r *http.Request) {
	existing, ok := h.load(w, r)
	if !ok {
		return
	}

	count := defaultScheduleCount
	if v := r.URL.Query().Get("count"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxScheduleCount {
			writeError(w, http.StatusBadRequest, "count must be between 1 and 52")
			return
		}
		count = n
	}

	periods, err := period.Upcoming(existing.RecurrenceRule, existing.DTStart, h.generator.Today(), count)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if periods == nil {
		periods = []period.Period{}
	}
	writeJSON(w, http.StatusOK, periods)
}

func (h *ChoreHandler) load(w http.ResponseWriter, r *http.Request) (*model.Chore, bool) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return nil, false
	}
	c, err := h.chores.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get chore")
		return nil, false
	}
	if c == nil {
		writeError(w, http.StatusNotFound, "chore not found")
		return nil, false
	}
	return c, true
}

func (h *ChoreHandler) fail(w http.ResponseWriter, err error, msg string) {
	if m, ok := isValidation(err); ok {
		writeError(w, http.StatusBadRequest, m)
		return
	}
	h.logger.Error(msg, "error", err)
	writeError(w, http.StatusInternalServerError, msg)
}
