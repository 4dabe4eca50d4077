package http

import (
	"net/http"
	"time"

	"github.com/DRSN-tech/admin-backend/internal/usecase"
	"github.com/DRSN-tech/admin-backend/pkg/e"
	"github.com/DRSN-tech/admin-backend/pkg/logger"
)

type SchedulerHandler struct {
	schedulerUC usecase.SchedulerUC
	logger      logger.Logger
}

func NewSchedulerHandler(schedulerUC usecase.SchedulerUC, logger logger.Logger) *SchedulerHandler {
	return &SchedulerHandler{schedulerUC: schedulerUC, logger: logger}
}

func (s *SchedulerHandler) status(w http.ResponseWriter, r *http.Request) {
	status, err := s.schedulerUC.Status(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, "", map[string]any{
		"daily_report_cron": status.CronSpec,
		"next_run":          status.NextRun,
		"queues":            status.Queues,
	})
}

func (s *SchedulerHandler) triggerDailyReport(w http.ResponseWriter, r *http.Request) {
	day, err := s.schedulerUC.TriggerDailyReport(r.Context(), r.URL.Query().Get("date"))
	if err != nil {
		WriteError(w, err)
		return
	}

	s.logger.Infof("Daily report for %s enqueued manually", day.Format(time.DateOnly))
	WriteSuccess(w, http.StatusAccepted, "Daily report job enqueued", map[string]any{
		"date": day.Format(time.DateOnly),
	})
}

func (s *SchedulerHandler) triggerFirstPurchase(w http.ResponseWriter, r *http.Request) {
	purchaseID := int64(queryInt(r, "purchase_id", 0))
	if purchaseID <= 0 {
		WriteError(w, e.NewValidationError("purchase_id", "is required"))
		return
	}

	if err := s.schedulerUC.TriggerFirstPurchase(r.Context(), purchaseID); err != nil {
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusAccepted, "First purchase notification job enqueued", map[string]any{
		"purchase_id": purchaseID,
	})
}
