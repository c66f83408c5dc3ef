package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/dukerupert/chorewheel/internal/websocket"
)

// Generator is the generation surface the handlers trigger.
type Generator interface {
	EnsureForChore(ctx context.Context, choreID int64, includeNext bool) ([]int64, error)
	EnsureForFamily(ctx context.Context, householdID int64) (int, error)
	Today() time.Time
}

// validationError carries a client-facing message out of a transaction.
type validationError struct {
	msg string
}

func (e validationError) Error() string { return e.msg }

func parseIDParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}

// parseDateQuery reads a YYYY-MM-DD query parameter, returning def when absent.
func parseDateQuery(r *http.Request, key string, def time.Time) (time.Time, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def, nil
	}
	return time.Parse(time.DateOnly, v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func broadcast(hub *websocket.Hub, householdID int64, msg websocket.Message) {
	if hub != nil {
		hub.Broadcast(householdID, msg)
	}
}

var errNotFound = errors.New("not found")
