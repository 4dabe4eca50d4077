package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/DRSN-tech/admin-backend/internal/infrastructure/auth"
	"github.com/DRSN-tech/admin-backend/internal/usecase"
	"github.com/DRSN-tech/admin-backend/pkg/e"
	"github.com/DRSN-tech/admin-backend/pkg/logger"
	"github.com/go-chi/chi/v5/middleware"
)

// TokenParser проверяет bearer-токен.
type TokenParser interface {
	Parse(raw string) (*auth.Claims, error)
}

// RequireAdmin пропускает только запросы с действительным токеном существующего администратора
// и привязывает его к контексту как автора изменений.
func RequireAdmin(tokens TokenParser, authUC usecase.AuthUC, log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer "))
			if raw == "" {
				WriteError(w, e.ErrTokenRequired)
				return
			}

			claims, err := tokens.Parse(raw)
			if err != nil {
				WriteError(w, err)
				return
			}

			admin, err := authUC.Authenticate(r.Context(), claims.AdminID)
			if err != nil {
				log.Warnf("token for unknown admin %d: %v", claims.AdminID, err)
				WriteError(w, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(usecase.WithActor(r.Context(), admin.ID)))
		})
	}
}

// RequestLogger пишет метод, путь, код ответа и длительность запроса.
func RequestLogger(log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			log.Infof("%s %s %d %s request_id=%s",
				r.Method, r.URL.Path, ww.Status(), time.Since(start), middleware.GetReqID(r.Context()))
		})
	}
}
