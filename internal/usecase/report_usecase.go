package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/DRSN-tech/admin-backend/internal/domain"
	"github.com/DRSN-tech/admin-backend/internal/report"
	"github.com/DRSN-tech/admin-backend/pkg/e"
	"github.com/DRSN-tech/admin-backend/pkg/logger"
)

const reportsCachePrefix = "reports:"

// ReportUseCase строит отчёты по покупкам. Результаты кэшируются до следующего изменения данных.
type ReportUseCase struct {
	purchaseRepo PurchaseRepository
	cache        CacheRepository
	loc          *time.Location
	now          Clock
	logger       logger.Logger
}

func NewReportUC(purchaseRepo PurchaseRepository, cache CacheRepository, loc *time.Location, logger logger.Logger) *ReportUseCase {
	if loc == nil {
		loc = time.UTC
	}

	return &ReportUseCase{
		purchaseRepo: purchaseRepo,
		cache:        cache,
		loc:          loc,
		now:          time.Now,
		logger:       logger,
	}
}

// CountByGranularity группирует покупки по часу, дню, неделе или году.
func (r *ReportUseCase) CountByGranularity(
	ctx context.Context,
	granularity string,
	params report.FilterParams,
) (*CountByGranularityRes, error) {
	const op = "ReportUseCase.CountByGranularity"

	g, err := report.ParseGranularity(granularity)
	if err != nil {
		return nil, err
	}

	filter, err := report.ParseFilter(params, r.loc)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("%scount:%s:%s|%s|%s|%s|%s", reportsCachePrefix, g,
		params.StartDate, params.EndDate, params.CategoryID, params.CustomerID, params.AdminID)

	var res CountByGranularityRes
	err = r.cached(ctx, key, &res, func() error {
		counts, err := r.purchaseRepo.CountByPeriod(ctx, filter, g, r.loc)
		if err != nil {
			return err
		}

		res.Granularity = g
		res.GroupedData, res.TotalPurchases = report.CountByBucket(counts, g)
		return nil
	})
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return &res, nil
}

// DailyReport возвращает сводку за день. Пустая дата означает вчера.
func (r *ReportUseCase) DailyReport(ctx context.Context, date string) (*domain.DailyReport, error) {
	const op = "ReportUseCase.DailyReport"

	day, err := report.ParseDay(date, r.now(), r.loc)
	if err != nil {
		return nil, err
	}

	key := reportsCachePrefix + "daily:" + day.Format("2006-01-02")

	var res domain.DailyReport
	err = r.cached(ctx, key, &res, func() error {
		built, err := r.DailyReportFor(ctx, day)
		if err != nil {
			return err
		}
		res = *built
		return nil
	})
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return &res, nil
}

// DailyReportFor строит сводку за день без кэша.
func (r *ReportUseCase) DailyReportFor(ctx context.Context, day time.Time) (*domain.DailyReport, error) {
	start, end := report.DayRange(day, r.loc)
	last := end.Add(-time.Nanosecond)

	facts, err := r.purchaseRepo.Facts(ctx, &domain.PurchaseFilter{StartDate: &start, EndDate: &last})
	if err != nil {
		return nil, e.Wrap("ReportUseCase.DailyReportFor", err)
	}

	return report.BuildDailyReport(start, facts), nil
}

// MostPurchasedByCategory возвращает самые покупаемые товары каждой категории.
func (r *ReportUseCase) MostPurchasedByCategory(ctx context.Context, limit int) ([]domain.CategoryProducts, error) {
	const op = "ReportUseCase.MostPurchasedByCategory"

	if limit <= 0 {
		limit = report.DefaultMostPurchasedLimit
	}

	var res []domain.CategoryProducts
	err := r.cached(ctx, fmt.Sprintf("%smost_purchased:%d", reportsCachePrefix, limit), &res, func() error {
		totals, err := r.purchaseRepo.MostPurchasedByCategory(ctx, limit)
		if err != nil {
			return err
		}

		res = report.MostPurchasedByCategory(totals, limit)
		return nil
	})
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return res, nil
}

// TopRevenueByCategory возвращает три самые доходные категории и по три товара в каждой.
func (r *ReportUseCase) TopRevenueByCategory(ctx context.Context) ([]domain.CategoryProducts, error) {
	const op = "ReportUseCase.TopRevenueByCategory"

	var res []domain.CategoryProducts
	err := r.cached(ctx, reportsCachePrefix+"top_revenue", &res, func() error {
		totals, err := r.purchaseRepo.TopRevenueByCategory(ctx, report.TopRevenueCategories, report.TopRevenueProducts)
		if err != nil {
			return err
		}

		res = report.TopRevenueByCategory(totals)
		return nil
	})
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return res, nil
}

// cached читает dst из кэша или вычисляет через build и сохраняет.
// Недоступность кэша не мешает построить отчёт.
func (r *ReportUseCase) cached(ctx context.Context, key string, dst any, build func() error) error {
	hit, err := r.cache.Get(ctx, key, dst)
	if err != nil {
		r.logger.Warnf("Report cache read failed, key: %s: %v", key, err)
	}
	if hit {
		return nil
	}

	if err := build(); err != nil {
		return err
	}

	if err := r.cache.Set(ctx, key, dst); err != nil {
		r.logger.Warnf("Report cache write failed, key: %s: %v", key, err)
	}

	return nil
}

// InvalidateReports сбрасывает все закэшированные отчёты.
func InvalidateReports(ctx context.Context, cache CacheRepository, log logger.Logger) {
	if err := cache.DeletePrefix(ctx, reportsCachePrefix); err != nil {
		log.Warnf("Failed to invalidate report cache: %v", err)
	}
}
