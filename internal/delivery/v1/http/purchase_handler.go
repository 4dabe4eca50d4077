package http

import (
	"net/http"

	"github.com/DRSN-tech/admin-backend/internal/report"
	"github.com/DRSN-tech/admin-backend/internal/usecase"
	"github.com/DRSN-tech/admin-backend/pkg/logger"
)

type PurchaseHandler struct {
	purchaseUC usecase.PurchaseUC
	reportUC   usecase.ReportUC
	logger     logger.Logger
}

func NewPurchaseHandler(purchaseUC usecase.PurchaseUC, reportUC usecase.ReportUC, logger logger.Logger) *PurchaseHandler {
	return &PurchaseHandler{purchaseUC: purchaseUC, reportUC: reportUC, logger: logger}
}

func filterParams(r *http.Request) report.FilterParams {
	q := r.URL.Query()
	return report.FilterParams{
		StartDate:  q.Get("start_date"),
		EndDate:    q.Get("end_date"),
		CategoryID: q.Get("category_id"),
		CustomerID: q.Get("customer_id"),
		AdminID:    q.Get("admin_id"),
	}
}

// filtersApplied повторяет заданные в запросе фильтры, пустые опускаются.
func filtersApplied(p report.FilterParams) map[string]string {
	out := map[string]string{}
	for k, v := range map[string]string{
		"start_date":  p.StartDate,
		"end_date":    p.EndDate,
		"category_id": p.CategoryID,
		"customer_id": p.CustomerID,
		"admin_id":    p.AdminID,
	} {
		if v != "" {
			out[k] = v
		}
	}

	return out
}

func (p *PurchaseHandler) create(w http.ResponseWriter, r *http.Request) {
	var req purchaseRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, err)
		return
	}

	purchase, err := p.purchaseUC.CreatePurchase(r.Context(), &usecase.CreatePurchaseReq{
		CustomerID:  req.CustomerID,
		ProductID:   req.ProductID,
		Quantity:    req.Quantity,
		PurchasedAt: req.PurchasedAt,
	})
	if err != nil {
		p.logger.Warnf("create purchase: %v", err)
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusCreated, "Purchase created successfully", toPurchaseDTO(purchase))
}

func (p *PurchaseHandler) filtered(w http.ResponseWriter, r *http.Request) {
	params := filterParams(r)

	res, err := p.purchaseUC.ListPurchases(r.Context(), params, parsePage(r, 0))
	if err != nil {
		WriteError(w, err)
		return
	}

	out := make([]purchaseDTO, 0, len(res.Purchases))
	for i := range res.Purchases {
		out = append(out, toPurchaseDTO(&res.Purchases[i]))
	}

	writeJSON(w, http.StatusOK, &Response{
		Status: statusSuccess,
		Data: map[string]any{
			"purchases":       out,
			"filters_applied": filtersApplied(params),
		},
		Meta: toPaginationDTO(res.Pagination),
	})
}

func (p *PurchaseHandler) countByGranularity(w http.ResponseWriter, r *http.Request) {
	params := filterParams(r)
	granularity := r.URL.Query().Get("granularity")

	res, err := p.reportUC.CountByGranularity(r.Context(), granularity, params)
	if err != nil {
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, "", map[string]any{
		"granularity":     res.Granularity,
		"grouped_data":    res.GroupedData,
		"total_purchases": res.TotalPurchases,
		"filters_applied": filtersApplied(params),
	})
}

func (p *PurchaseHandler) dailyReport(w http.ResponseWriter, r *http.Request) {
	res, err := p.reportUC.DailyReport(r.Context(), r.URL.Query().Get("date"))
	if err != nil {
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, "", toDailyReportDTO(res))
}
