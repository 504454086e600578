package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"strings"

	"github.com/eventnest/server/internal/api/problem"
	"github.com/eventnest/server/internal/domain/accounts"
	"github.com/eventnest/server/internal/domain/events"
)

type messageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeError maps binding and domain errors onto problem responses.
func writeError(w http.ResponseWriter, r *http.Request, err error, env string) {
	var validation *ValidationError
	var maxBytes *http.MaxBytesError
	var duplicate *accounts.DuplicateError

	switch {
	case errors.As(err, &validation):
		problem.Write(w, r, http.StatusUnprocessableEntity, problem.TypeValidation, "Invalid request", err, env,
			problem.WithDetail("One or more parameters are missing or invalid"),
			problem.WithErrors(validation.errorsMap()))
	case errors.As(err, &maxBytes):
		problem.Write(w, r, http.StatusRequestEntityTooLarge, problem.TypePayloadTooLarge, "Payload too large", err, env)
	case errors.Is(err, events.ErrOrganizerNotFound):
		problem.Write(w, r, http.StatusNotFound, problem.TypeNotFound, "Not found", err, env, problem.WithDetail("Organizer not found"))
	case errors.Is(err, accounts.ErrNotFound):
		problem.Write(w, r, http.StatusNotFound, problem.TypeNotFound, "Not found", err, env, problem.WithDetail("User not found"))
	case errors.Is(err, events.ErrNotFound):
		problem.Write(w, r, http.StatusNotFound, problem.TypeNotFound, "Not found", err, env, problem.WithDetail("Event not found"))
	case errors.As(err, &duplicate):
		problem.Write(w, r, http.StatusConflict, problem.TypeConflict, "Conflict", err, env, problem.WithDetail(duplicate.Error()))
	case errors.Is(err, accounts.ErrDuplicate):
		problem.Write(w, r, http.StatusConflict, problem.TypeConflict, "Conflict", err, env, problem.WithDetail(accounts.ErrDuplicate.Error()))
	default:
		problem.Write(w, r, http.StatusInternalServerError, problem.TypeInternal, "Server error", err, env)
	}
}

// suppliedFields names the values an update will apply, for the audit
// trail. Values are never recorded.
func suppliedFields(values map[string]*string) map[string]string {
	names := make([]string, 0, len(values))
	for name, v := range values {
		if v != nil && *v != "" {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return nil
	}
	sort.Strings(names)
	return map[string]string{"fields": strings.Join(names, ",")}
}

func appendField(details map[string]string, name string) map[string]string {
	if details == nil {
		return map[string]string{"fields": name}
	}
	names := append(strings.Split(details["fields"], ","), name)
	sort.Strings(names)
	details["fields"] = strings.Join(names, ",")
	return details
}
