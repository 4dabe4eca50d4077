package http

import (
	"net/http"

	"github.com/DRSN-tech/admin-backend/internal/usecase"
	"github.com/go-chi/chi/v5"
)

const auditLogsPerPage = 10

type AuditLogHandler struct {
	auditUC usecase.AuditLogUC
}

func NewAuditLogHandler(auditUC usecase.AuditLogUC) *AuditLogHandler {
	return &AuditLogHandler{auditUC: auditUC}
}

func (a *AuditLogHandler) list(w http.ResponseWriter, r *http.Request) {
	res, err := a.auditUC.List(r.Context(), parsePage(r, auditLogsPerPage))
	if err != nil {
		WriteError(w, err)
		return
	}

	WritePage(w, toAuditLogDTOs(res.AuditLogs), res.Pagination)
}

func (a *AuditLogHandler) recent(w http.ResponseWriter, r *http.Request) {
	logs, err := a.auditUC.Recent(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, "", toAuditLogDTOs(logs))
}

func (a *AuditLogHandler) byEntity(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "entity_id")
	if err != nil {
		WriteError(w, err)
		return
	}

	subject, logs, err := a.auditUC.ByEntity(r.Context(), chi.URLParam(r, "entity_type"), id)
	if err != nil {
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, "", map[string]any{
		"entity_type": subject.Kind,
		"entity_id":   subject.ID,
		"audit_logs":  toAuditLogDTOs(logs),
	})
}
