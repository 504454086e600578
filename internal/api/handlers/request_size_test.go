package handlers

import (
	"net/http"
	"strings"
	"testing"

	"github.com/eventnest/server/internal/api/middleware"
	"github.com/eventnest/server/internal/api/problem"
	"github.com/stretchr/testify/require"
)

func TestBindParams_BodyOverLimit(t *testing.T) {
	const limit = 64
	padding := strings.Repeat("x", 2*limit)

	tests := []struct {
		name        string
		target      string
		contentType string
		body        string
	}{
		{
			name:        "json account",
			target:      "/users/",
			contentType: "application/json",
			body:        `{"username":"` + padding + `","email":"a@x.io","password":"pw"}`,
		},
		{
			name:        "form account",
			target:      "/users/",
			contentType: "application/x-www-form-urlencoded",
			body:        "username=" + padding + "&email=a%40x.io&password=pw",
		},
		{
			name:        "json event update",
			target:      "/events/1",
			contentType: "application/json",
			body:        `{"title":"` + padding + `"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newStubStore()
			handler := middleware.RequestSize(limit)(newTestMux(store))

			method := http.MethodPost
			if strings.HasPrefix(tt.target, "/events/") {
				method = http.MethodPut
			}

			rec := do(handler, method, tt.target, tt.contentType, tt.body)
			require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code, rec.Body.String())
			require.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
			require.Equal(t, problem.TypePayloadTooLarge, decode[problem.ProblemDetails](t, rec.Body.Bytes()).Type)
			require.Empty(t, store.accounts)
		})
	}
}

func TestBindParams_BodyWithinLimit(t *testing.T) {
	store := newStubStore()
	handler := middleware.RequestSize(middleware.DefaultMaxBodySize)(newTestMux(store))

	rec := do(handler, http.MethodPost, "/users/", "application/json", `{"username":"a","email":"a@x.io","password":"pw"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Len(t, store.accounts, 1)
}
