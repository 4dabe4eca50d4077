package http

import (
	"time"

	"github.com/DRSN-tech/admin-backend/internal/cfg"
	"github.com/DRSN-tech/admin-backend/internal/usecase"
	"github.com/DRSN-tech/admin-backend/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// UseCases — всё, что нужно роутеру для регистрации обработчиков.
type UseCases struct {
	Auth      usecase.AuthUC
	Product   usecase.ProductUC
	Category  usecase.CategoryUC
	Customer  usecase.CustomerUC
	Purchase  usecase.PurchaseUC
	Report    usecase.ReportUC
	AuditLog  usecase.AuditLogUC
	Scheduler usecase.SchedulerUC
}

type Router struct {
	router *chi.Mux
	logger logger.Logger
}

func NewRouter(router *chi.Mux, logger logger.Logger) *Router {
	return &Router{router: router, logger: logger}
}

func (r *Router) Init(uc *UseCases, tokens TokenParser, minioCfg *cfg.MinIOCfg, health *HealthHandler) {
	r.router.Use(middleware.RequestID)
	r.router.Use(middleware.RealIP)
	r.router.Use(RequestLogger(r.logger))
	r.router.Use(middleware.Recoverer)
	r.router.Use(middleware.Timeout(60 * time.Second))

	r.router.Get("/health", health.health)

	r.router.Route("/api/v1", func(v1 chi.Router) {
		authHandler := NewAuthHandler(uc.Auth, r.logger)
		v1.Post("/login", authHandler.login)

		v1.Group(func(private chi.Router) {
			private.Use(RequireAdmin(tokens, uc.Auth, r.logger))

			private.Delete("/logout", authHandler.logout)
			private.Post("/logout", authHandler.logout)
			private.Get("/me", authHandler.me)

			registerProductRoutes(private, NewProductHandler(uc.Product, uc.Report, minioCfg, r.logger))
			registerCategoryRoutes(private, NewCategoryHandler(uc.Category, r.logger))
			registerCustomerRoutes(private, NewCustomerHandler(uc.Customer, r.logger))
			registerPurchaseRoutes(private, NewPurchaseHandler(uc.Purchase, uc.Report, r.logger))
			registerAuditLogRoutes(private, NewAuditLogHandler(uc.AuditLog))
			registerSchedulerRoutes(private, NewSchedulerHandler(uc.Scheduler, r.logger))
		})
	})
}

func registerProductRoutes(router chi.Router, h *ProductHandler) {
	router.Route("/products", func(pr chi.Router) {
		pr.Get("/", h.list)
		pr.Post("/", h.create)
		pr.Get("/most_purchased_by_category", h.mostPurchasedByCategory)
		pr.Get("/top_revenue_by_category", h.topRevenueByCategory)
		pr.Get("/{id}", h.show)
		pr.Put("/{id}", h.update)
		pr.Patch("/{id}", h.update)
		pr.Delete("/{id}", h.delete)
		pr.Post("/{id}/images", h.uploadImages)
	})
}

func registerCategoryRoutes(router chi.Router, h *CategoryHandler) {
	router.Route("/categories", func(cr chi.Router) {
		cr.Get("/", h.list)
		cr.Post("/", h.create)
		cr.Get("/{id}", h.show)
		cr.Put("/{id}", h.update)
		cr.Patch("/{id}", h.update)
		cr.Delete("/{id}", h.delete)
	})
}

func registerCustomerRoutes(router chi.Router, h *CustomerHandler) {
	router.Route("/customers", func(cr chi.Router) {
		cr.Get("/", h.list)
		cr.Post("/", h.create)
		cr.Get("/{id}", h.show)
		cr.Put("/{id}", h.update)
		cr.Patch("/{id}", h.update)
		cr.Delete("/{id}", h.delete)
	})
}

func registerPurchaseRoutes(router chi.Router, h *PurchaseHandler) {
	router.Route("/purchases", func(pr chi.Router) {
		pr.Post("/", h.create)
		pr.Get("/filtered", h.filtered)
		pr.Get("/count_by_granularity", h.countByGranularity)
		pr.Get("/daily_report", h.dailyReport)
	})
}

func registerAuditLogRoutes(router chi.Router, h *AuditLogHandler) {
	router.Route("/audit_logs", func(ar chi.Router) {
		ar.Get("/", h.list)
		ar.Get("/recent", h.recent)
		ar.Get("/{entity_type}/{entity_id}", h.byEntity)
	})
}

func registerSchedulerRoutes(router chi.Router, h *SchedulerHandler) {
	router.Route("/scheduler", func(sr chi.Router) {
		sr.Get("/status", h.status)
		sr.Post("/trigger_daily_report", h.triggerDailyReport)
		sr.Post("/trigger_first_purchase_test", h.triggerFirstPurchase)
	})
}
