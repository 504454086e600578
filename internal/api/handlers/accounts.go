package handlers

import (
	"net/http"
	"strconv"

	"github.com/eventnest/server/internal/audit"
	"github.com/eventnest/server/internal/domain/accounts"
)

type AccountsHandler struct {
	Service *accounts.Service
	Audit   *audit.Logger
	Env     string
}

func NewAccountsHandler(service *accounts.Service, auditLogger *audit.Logger, env string) *AccountsHandler {
	return &AccountsHandler{Service: service, Audit: auditLogger, Env: env}
}

type accountCreateRequest struct {
	Username *string `form:"username" json:"username" validate:"required"`
	Email    *string `form:"email" json:"email" validate:"required"`
	Password *string `form:"password" json:"password" validate:"required"`
}

type accountUpdateRequest struct {
	Username *string `form:"username" json:"username"`
	Email    *string `form:"email" json:"email"`
	Password *string `form:"password" json:"password"`
}

type accountResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type accountEnvelope struct {
	Message string          `json:"message"`
	User    accountResponse `json:"user"`
}

func newAccountResponse(a *accounts.Account) accountResponse {
	return accountResponse{
		ID:       a.ID,
		Username: a.Username,
		Email:    a.Email,
		Password: a.Password,
	}
}

func (h *AccountsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req accountCreateRequest
	if err := bindParams(r, &req); err != nil {
		writeError(w, r, err, h.Env)
		return
	}

	account, err := h.Service.Create(r.Context(), accounts.CreateParams{
		Username: *req.Username,
		Email:    *req.Email,
		Password: *req.Password,
	})
	if err != nil {
		writeError(w, r, err, h.Env)
		return
	}

	h.Audit.LogFromRequest(r, "account.create", "account", strconv.FormatInt(account.ID, 10), nil)
	writeJSON(w, http.StatusOK, accountEnvelope{Message: "User created successfully", User: newAccountResponse(account)})
}

func (h *AccountsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err, h.Env)
		return
	}

	account, err := h.Service.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err, h.Env)
		return
	}

	writeJSON(w, http.StatusOK, newAccountResponse(account))
}

func (h *AccountsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err, h.Env)
		return
	}

	var req accountUpdateRequest
	if err := bindParams(r, &req); err != nil {
		writeError(w, r, err, h.Env)
		return
	}

	account, err := h.Service.Update(r.Context(), id, accounts.UpdateParams{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		writeError(w, r, err, h.Env)
		return
	}

	h.Audit.LogFromRequest(r, "account.update", "account", strconv.FormatInt(account.ID, 10),
		suppliedFields(map[string]*string{"username": req.Username, "email": req.Email, "password": req.Password}))
	writeJSON(w, http.StatusOK, accountEnvelope{Message: "User updated successfully", User: newAccountResponse(account)})
}

func (h *AccountsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err, h.Env)
		return
	}

	if err := h.Service.Delete(r.Context(), id); err != nil {
		writeError(w, r, err, h.Env)
		return
	}

	h.Audit.LogFromRequest(r, "account.delete", "account", strconv.FormatInt(id, 10), nil)
	writeJSON(w, http.StatusOK, messageResponse{Message: "User deleted successfully"})
}
