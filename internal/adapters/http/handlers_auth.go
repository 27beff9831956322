package web

import (
	"errors"
	"log/slog"
	"net/http"

	"bulkmail/internal/application/orchestrators"
	"bulkmail/internal/domain/mail"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userView struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type loginResponse struct {
	Success bool     `json:"success"`
	Token   string   `json:"token"`
	User    userView `json:"user"`
}

// handleLogin exchanges email and password for a bearer token.
func (a *api) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := strictDecode(w, r, &req); err != nil {
		writeError(w, mail.ValidationError("invalid request body"))
		return
	}

	result, err := orchestrators.ExecuteLogin(r.Context(), orchestrators.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	}, orchestrators.LoginDeps{AccountStore: a.stores.AccountStore, Now: a.now})
	if err != nil {
		switch {
		case errors.Is(err, orchestrators.ErrMissingCredentials):
			writeJSON(w, http.StatusBadRequest, errorResponse{Message: "Please provide email and password", Kind: string(mail.KindValidation)})
		case errors.Is(err, orchestrators.ErrInvalidCredentials):
			writeJSON(w, http.StatusUnauthorized, errorResponse{Message: "Invalid email or password", Kind: string(mail.KindUnauthorized)})
		case errors.Is(err, orchestrators.ErrAccountLocked):
			writeJSON(w, http.StatusUnauthorized, errorResponse{Message: "Account locked, try again later", Kind: string(mail.KindUnauthorized)})
		default:
			internalError(w, err)
		}
		return
	}

	token, err := a.tokens.Issue(result.AccountID, result.Email, result.Role)
	if err != nil {
		internalError(w, err)
		return
	}
	slog.Info("auth_event", "event", "login_success", "account_id", result.AccountID)

	writeJSON(w, http.StatusOK, loginResponse{
		Success: true,
		Token:   token,
		User:    userView{ID: result.AccountID, Email: result.Email, Role: result.Role},
	})
}
