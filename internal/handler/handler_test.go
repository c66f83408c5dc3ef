package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dukerupert/chorewheel/internal/chore"
	"github.com/dukerupert/chorewheel/internal/database"
	"github.com/dukerupert/chorewheel/internal/model"
	"github.com/dukerupert/chorewheel/internal/store"
	"github.com/dukerupert/chorewheel/internal/websocket"
)

// Wednesday of the week starting Monday 2026-02-09.
var wednesday = time.Date(2026, 2, 11, 9, 30, 0, 0, time.UTC)

type testEnv struct {
	mux     *http.ServeMux
	members *store.FamilyMemberStore
	chores  *store.ChoreStore
	house   *model.Household
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := database.Open(database.MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	uow := database.NewUnitOfWork(db)
	hub := websocket.NewHub(logger)
	gen := chore.NewGenerator(chore.NewSQLTransactor(uow),
		chore.WithClock(func() time.Time { return wednesday }),
		chore.WithLogger(logger),
	)

	households := NewHouseholdHandler(db, gen, logger)
	members := NewFamilyMemberHandler(db, uow, hub, logger)
	chores := NewChoreHandler(db, uow, gen, hub, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/households", households.List)
	mux.HandleFunc("POST /api/households", households.Create)
	mux.HandleFunc("GET /api/households/{id}", households.Get)
	mux.HandleFunc("PUT /api/households/{id}", households.Update)
	mux.HandleFunc("DELETE /api/households/{id}", households.Delete)
	mux.HandleFunc("POST /api/households/{id}/generate", households.Generate)
	mux.HandleFunc("GET /api/households/{id}/instances", households.Instances)
	mux.HandleFunc("GET /api/households/{id}/members", members.List)
	mux.HandleFunc("POST /api/households/{id}/members", members.Create)
	mux.HandleFunc("PUT /api/households/{id}/members/sort", members.UpdateSortOrder)
	mux.HandleFunc("PUT /api/members/{id}", members.Update)
	mux.HandleFunc("DELETE /api/members/{id}", members.Delete)
	mux.HandleFunc("GET /api/members/{id}/instances", members.Instances)
	mux.HandleFunc("GET /api/households/{id}/chores", chores.List)
	mux.HandleFunc("POST /api/households/{id}/chores", chores.Create)
	mux.HandleFunc("GET /api/chores/{id}", chores.Get)
	mux.HandleFunc("PUT /api/chores/{id}", chores.Update)
	mux.HandleFunc("DELETE /api/chores/{id}", chores.Delete)
	mux.HandleFunc("PUT /api/chores/{id}/assignees", chores.SetAssignees)
	mux.HandleFunc("POST /api/chores/{id}/generate", chores.Generate)
	mux.HandleFunc("GET /api/chores/{id}/instances", chores.Instances)
	mux.HandleFunc("GET /api/chores/{id}/schedule", chores.Schedule)

	house, err := store.NewHouseholdStore(db).Create(context.Background(), "Smith")
	require.NoError(t, err)

	return &testEnv{
		mux:     mux,
		members: store.NewFamilyMemberStore(db),
		chores:  store.NewChoreStore(db),
		house:   house,
	}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, r)
	rec := httptest.NewRecorder()
	e.mux.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) member(t *testing.T, name string) int64 {
	t.Helper()
	m, err := e.members.Create(context.Background(), e.house.ID, name, "", "")
	require.NoError(t, err)
	return m.ID
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	return v
}

func errorOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[map[string]string](t, rec)["error"]
}
