package http

import (
	"context"
	"net/http"
	"time"
)

// Pinger — зависимость, доступность которой проверяет /health.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	deps map[string]Pinger
}

func NewHealthHandler(deps map[string]Pinger) *HealthHandler {
	return &HealthHandler{deps: deps}
}

func (h *HealthHandler) health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	checks := make(map[string]string, len(h.deps))
	code := http.StatusOK
	for name, dep := range h.deps {
		if err := dep.Ping(ctx); err != nil {
			checks[name] = err.Error()
			code = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}

	status := statusSuccess
	if code != http.StatusOK {
		status = statusError
	}
	writeJSON(w, code, &Response{Status: status, Data: map[string]any{
		"checks":    checks,
		"timestamp": time.Now().UTC(),
	}})
}

// PingFunc позволяет передать функцию как Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }
