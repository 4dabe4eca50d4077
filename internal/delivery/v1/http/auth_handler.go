package http

import (
	"net/http"
	"time"

	"github.com/DRSN-tech/admin-backend/internal/usecase"
	"github.com/DRSN-tech/admin-backend/pkg/logger"
)

type AuthHandler struct {
	authUC usecase.AuthUC
	logger logger.Logger
}

func NewAuthHandler(authUC usecase.AuthUC, logger logger.Logger) *AuthHandler {
	return &AuthHandler{authUC: authUC, logger: logger}
}

func (a *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, err)
		return
	}

	res, err := a.authUC.Login(r.Context(), &usecase.LoginReq{Email: req.Email, Password: req.Password})
	if err != nil {
		a.logger.Warnf("login failed for %s: %v", req.Email, err)
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, "Login successful", map[string]any{
		"token":      res.Token,
		"expires_at": res.ExpiresAt.Format(time.RFC3339),
		"admin":      toAdminDTO(&res.Admin),
	})
}

// logout ничего не хранит: токен без состояния, клиент просто его забывает.
func (a *AuthHandler) logout(w http.ResponseWriter, _ *http.Request) {
	WriteSuccess(w, http.StatusOK, "Logout successful", nil)
}

func (a *AuthHandler) me(w http.ResponseWriter, r *http.Request) {
	me, err := a.authUC.Me(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, "", map[string]any{
		"id":               me.Admin.ID,
		"email":            me.Admin.Email,
		"name":             me.Admin.Name,
		"products_count":   me.Counters.Products,
		"categories_count": me.Counters.Categories,
		"created_at":       me.Admin.CreatedAt,
	})
}
