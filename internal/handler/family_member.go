package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"regexp"
	"strings"

	"github.com/dukerupert/chorewheel/internal/database"
	"github.com/dukerupert/chorewheel/internal/model"
	"github.com/dukerupert/chorewheel/internal/store"
	"github.com/dukerupert/chorewheel/internal/websocket"
)

var hexColorRegexp = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

type FamilyMemberHandler struct {
	households *store.HouseholdStore
	members    *store.FamilyMemberStore
	chores     *store.ChoreStore
	uow        database.UnitOfWork
	hub        *websocket.Hub
	logger     *slog.Logger
}

func NewFamilyMemberHandler(db database.DBTX, uow database.UnitOfWork, hub *websocket.Hub, logger *slog.Logger) *FamilyMemberHandler {
	return &FamilyMemberHandler{
		households: store.NewHouseholdStore(db),
		members:    store.NewFamilyMemberStore(db),
		chores:     store.NewChoreStore(db),
		uow:        uow,
		hub:        hub,
		logger:     logger,
	}
}

type memberRequest struct {
	Name        string `json:"name"`
	Color       string `json:"color"`
	AvatarEmoji string `json:"avatar_emoji"`
}

func (h *FamilyMemberHandler) List(w http.ResponseWriter, r *http.Request) {
	householdID, ok := h.householdID(w, r)
	if !ok {
		return
	}
	members, err := h.members.ListByHousehold(r.Context(), householdID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list family members")
		return
	}
	if members == nil {
		members = []model.FamilyMember{}
	}
	writeJSON(w, http.StatusOK, members)
}

func (h *FamilyMemberHandler) Create(w http.ResponseWriter, r *http.Request) {
	householdID, ok := h.householdID(w, r)
	if !ok {
		return
	}

	var req memberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if req.Color == "" {
		req.Color = "#3B82F6"
	}
	if !hexColorRegexp.MatchString(req.Color) {
		writeError(w, http.StatusBadRequest, "color must be a hex color (e.g. #FF0000)")
		return
	}
	if req.AvatarEmoji == "" {
		req.AvatarEmoji = "😀"
	}

	exists, err := h.members.NameExists(r.Context(), householdID, req.Name, 0)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to check name")
		return
	}
	if exists {
		writeError(w, http.StatusConflict, "a family member with that name already exists")
		return
	}

	member, err := h.members.Create(r.Context(), householdID, req.Name, req.Color, req.AvatarEmoji)
	if err != nil {
		h.logger.Error("create family member", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create family member")
		return
	}

	broadcast(h.hub, householdID, websocket.NewMessage("family_member", "created", member.ID, nil))
	writeJSON(w, http.StatusCreated, member)
}

func (h *FamilyMemberHandler) Update(w http.ResponseWriter, r *http.Request) {
	existing, ok := h.load(w, r)
	if !ok {
		return
	}

	var req memberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if req.Color == "" {
		req.Color = existing.Color
	}
	if !hexColorRegexp.MatchString(req.Color) {
		writeError(w, http.StatusBadRequest, "color must be a hex color (e.g. #FF0000)")
		return
	}
	if req.AvatarEmoji == "" {
		req.AvatarEmoji = existing.AvatarEmoji
	}

	exists, err := h.members.NameExists(r.Context(), existing.HouseholdID, req.Name, existing.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to check name")
		return
	}
	if exists {
		writeError(w, http.StatusConflict, "a family member with that name already exists")
		return
	}

	member, err := h.members.Update(r.Context(), existing.ID, req.Name, req.Color, req.AvatarEmoji)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update family member")
		return
	}

	broadcast(h.hub, existing.HouseholdID, websocket.NewMessage("family_member", "updated", member.ID, nil))
	writeJSON(w, http.StatusOK, member)
}

// Delete removes the member from the household and from every rotation pool.
// Past instances keep their assignment.
func (h *FamilyMemberHandler) Delete(w http.ResponseWriter, r *http.Request) {
	existing, ok := h.load(w, r)
	if !ok {
		return
	}

	if err := h.members.Delete(r.Context(), existing.ID); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete family member")
		return
	}

	broadcast(h.hub, existing.HouseholdID, websocket.NewMessage("family_member", "deleted", existing.ID, nil))
	w.WriteHeader(http.StatusNoContent)
}

func (h *FamilyMemberHandler) UpdateSortOrder(w http.ResponseWriter, r *http.Request) {
	householdID, ok := h.householdID(w, r)
	if !ok {
		return
	}

	var req struct {
		IDs []int64 `json:"ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if len(req.IDs) == 0 {
		writeError(w, http.StatusBadRequest, "ids are required")
		return
	}

	err := h.uow.WithinTx(r.Context(), func(ctx context.Context, tx database.DBTX) error {
		return store.NewFamilyMemberStore(tx).UpdateSortOrder(ctx, householdID, req.IDs)
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update sort order")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Instances lists the chore instances assigned to the member, newest first.
func (h *FamilyMemberHandler) Instances(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	// History outlives the member, so a missing member is not an error here.
	instances, err := h.chores.ListInstancesByMember(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list instances")
		return
	}
	writeJSON(w, http.StatusOK, instances)
}

func (h *FamilyMemberHandler) householdID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	household, err := h.households.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get household")
		return 0, false
	}
	if household == nil {
		writeError(w, http.StatusNotFound, "household not found")
		return 0, false
	}
	return id, true
}

func (h *FamilyMemberHandler) load(w http.ResponseWriter, r *http.Request) (*model.FamilyMember, bool) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return nil, false
	}
	member, err := h.members.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get family member")
		return nil, false
	}
	if member == nil {
		writeError(w, http.StatusNotFound, "family member not found")
		return nil, false
	}
	return member, true
}

// checkPool verifies every id names a distinct member of the household.
func checkPool(ctx context.Context, members *store.FamilyMemberStore, householdID int64, ids []int64) error {
	seen := make(map[int64]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			return validationError{msg: "assignee_ids contains duplicates"}
		}
		seen[id] = true

		m, err := members.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if m == nil || m.HouseholdID != householdID {
			return validationError{msg: "assignee is not a member of this household"}
		}
	}
	return nil
}

func isValidation(err error) (string, bool) {
	var ve validationError
	if errors.As(err, &ve) {
		return ve.msg, true
	}
	return "", false
}
