package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"

	"github.com/eventnest/server/internal/audit"
	"github.com/eventnest/server/internal/domain/accounts"
	"github.com/eventnest/server/internal/domain/events"
	"github.com/rs/zerolog"
)

// stubStore keeps accounts and events in memory and satisfies both
// session providers. failWith, when set, is returned by every session.
type stubStore struct {
	mu          sync.Mutex
	nextAccount int64
	nextEvent   int64
	accounts    map[int64]accounts.Account
	events      map[int64]events.Event
	failWith    error
}

func newStubStore() *stubStore {
	return &stubStore{
		accounts: make(map[int64]accounts.Account),
		events:   make(map[int64]events.Event),
	}
}

func (s *stubStore) WithAccounts(ctx context.Context, fn func(context.Context, accounts.Repository) error) error {
	if s.failWith != nil {
		return s.failWith
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(ctx, stubAccounts{s})
}

func (s *stubStore) WithEvents(ctx context.Context, fn func(context.Context, events.Repository) error) error {
	if s.failWith != nil {
		return s.failWith
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(ctx, stubEvents{s})
}

type stubAccounts struct{ s *stubStore }

func (r stubAccounts) conflict(a accounts.Account) error {
	for id, existing := range r.s.accounts {
		if id == a.ID {
			continue
		}
		if existing.Username == a.Username {
			return &accounts.DuplicateError{Field: "username"}
		}
		if existing.Email == a.Email {
			return &accounts.DuplicateError{Field: "email"}
		}
	}
	return nil
}

func (r stubAccounts) Create(_ context.Context, p accounts.CreateParams) (*accounts.Account, error) {
	a := accounts.Account{Username: p.Username, Email: p.Email, Password: p.Password}
	if err := r.conflict(a); err != nil {
		return nil, err
	}
	r.s.nextAccount++
	a.ID = r.s.nextAccount
	r.s.accounts[a.ID] = a
	return &a, nil
}

func (r stubAccounts) FindByID(_ context.Context, id int64) (*accounts.Account, error) {
	a, ok := r.s.accounts[id]
	if !ok {
		return nil, accounts.ErrNotFound
	}
	return &a, nil
}

func (r stubAccounts) Save(_ context.Context, a accounts.Account) (*accounts.Account, error) {
	if _, ok := r.s.accounts[a.ID]; !ok {
		return nil, accounts.ErrNotFound
	}
	if err := r.conflict(a); err != nil {
		return nil, err
	}
	r.s.accounts[a.ID] = a
	return &a, nil
}

func (r stubAccounts) Delete(_ context.Context, id int64) error {
	if _, ok := r.s.accounts[id]; !ok {
		return accounts.ErrNotFound
	}
	delete(r.s.accounts, id)
	return nil
}

type stubEvents struct{ s *stubStore }

func (r stubEvents) Create(_ context.Context, p events.CreateParams) (*events.Event, error) {
	r.s.nextEvent++
	e := events.Event{
		ID:              r.s.nextEvent,
		Title:           p.Title,
		Description:     p.Description,
		Location:        p.Location,
		MaxParticipants: p.MaxParticipants,
		OrganizerID:     p.OrganizerID,
	}
	r.s.events[e.ID] = e
	return &e, nil
}

func (r stubEvents) FindByID(_ context.Context, id int64) (*events.Event, error) {
	e, ok := r.s.events[id]
	if !ok {
		return nil, events.ErrNotFound
	}
	return &e, nil
}

func (r stubEvents) List(_ context.Context) ([]events.Event, error) {
	out := make([]events.Event, 0, len(r.s.events))
	for _, e := range r.s.events {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r stubEvents) Save(_ context.Context, e events.Event) (*events.Event, error) {
	if _, ok := r.s.events[e.ID]; !ok {
		return nil, events.ErrNotFound
	}
	r.s.events[e.ID] = e
	return &e, nil
}

func (r stubEvents) Delete(_ context.Context, id int64) error {
	if _, ok := r.s.events[id]; !ok {
		return events.ErrNotFound
	}
	delete(r.s.events, id)
	return nil
}

func (r stubEvents) OrganizerExists(_ context.Context, id int64) (bool, error) {
	_, ok := r.s.accounts[id]
	return ok, nil
}

// newTestMux registers the resource routes the same way the router does,
// without the middleware chain.
func newTestMux(store *stubStore) *http.ServeMux {
	return newTestMuxWithAudit(store, audit.NewLogger(zerolog.Nop()))
}

func newTestMuxWithAudit(store *stubStore, auditLogger *audit.Logger) *http.ServeMux {
	logger := zerolog.Nop()
	accountsHandler := NewAccountsHandler(accounts.NewService(store, logger), auditLogger, "test")
	eventsHandler := NewEventsHandler(events.NewService(store, logger), auditLogger, "test")

	mux := http.NewServeMux()
	mux.HandleFunc("POST /users/{$}", accountsHandler.Create)
	mux.HandleFunc("GET /users/{id}", accountsHandler.Get)
	mux.HandleFunc("PUT /users/{id}", accountsHandler.Update)
	mux.HandleFunc("DELETE /users/{id}", accountsHandler.Delete)
	mux.HandleFunc("POST /events/{$}", eventsHandler.Create)
	mux.HandleFunc("GET /events/{$}", eventsHandler.List)
	mux.HandleFunc("GET /events/{id}", eventsHandler.Get)
	mux.HandleFunc("PUT /events/{id}", eventsHandler.Update)
	mux.HandleFunc("DELETE /events/{id}", eventsHandler.Delete)
	return mux
}

func do(mux http.Handler, method, target, contentType, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}
