package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/DRSN-tech/admin-backend/internal/domain"
	"github.com/DRSN-tech/admin-backend/pkg/e"
	"github.com/DRSN-tech/admin-backend/pkg/logger"
	"golang.org/x/sync/errgroup"
)

// DailyReportBuilder строит дневную сводку без кэша.
type DailyReportBuilder interface {
	DailyReportFor(ctx context.Context, day time.Time) (*domain.DailyReport, error)
}

// NotificationUseCase рассылает письма администраторам. Повторный запуск безопасен:
// кроме писем побочных эффектов нет.
type NotificationUseCase struct {
	reports      DailyReportBuilder
	purchaseRepo PurchaseRepository
	productRepo  ProductRepository
	customerRepo CustomerRepository
	adminRepo    AdminRepository
	mailer       Mailer
	logger       logger.Logger
}

func NewNotificationUC(
	reports DailyReportBuilder,
	purchaseRepo PurchaseRepository,
	productRepo ProductRepository,
	customerRepo CustomerRepository,
	adminRepo AdminRepository,
	mailer Mailer,
	logger logger.Logger,
) *NotificationUseCase {
	return &NotificationUseCase{
		reports:      reports,
		purchaseRepo: purchaseRepo,
		productRepo:  productRepo,
		customerRepo: customerRepo,
		adminRepo:    adminRepo,
		mailer:       mailer,
		logger:       logger,
	}
}

// SendDailyReport отправляет сводку за day каждому администратору.
// Если покупок или администраторов нет, ничего не отправляется.
func (n *NotificationUseCase) SendDailyReport(ctx context.Context, day time.Time) error {
	const op = "NotificationUseCase.SendDailyReport"

	var (
		report *domain.DailyReport
		admins []domain.Admin
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		report, err = n.reports.DailyReportFor(gctx, day)
		return err
	})
	g.Go(func() error {
		var err error
		admins, err = n.adminRepo.List(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return e.Wrap(op, err)
	}

	date := day.Format("2006-01-02")
	if report.Empty() {
		n.logger.Infof("Daily Purchase Report: no purchases for %s", date)
		return nil
	}
	if len(admins) == 0 {
		n.logger.Infof("Daily Purchase Report: no admins found")
		return nil
	}

	var errs []error
	for _, admin := range admins {
		if err := n.mailer.SendDailyReport(ctx, &DailyReportEmail{Admin: admin, Report: report}); err != nil {
			errs = append(errs, &e.NotificationDeliveryError{Recipient: admin.Email, Err: err})
		}
	}
	if len(errs) > 0 {
		return e.Wrap(op, errors.Join(errs...))
	}

	n.logger.Infof("Daily Purchase Report: report sent to %d admins for %s", len(admins), date)
	return nil
}

// SendFirstPurchaseNotification уведомляет создателя товара и остальных администраторов
// о первой покупке товара. Отсутствующая покупка или уже не первая покупка ошибкой не считаются.
func (n *NotificationUseCase) SendFirstPurchaseNotification(ctx context.Context, purchaseID int64) error {
	const op = "NotificationUseCase.SendFirstPurchaseNotification"

	purchase, err := n.purchaseRepo.GetByID(ctx, purchaseID)
	if err != nil {
		if errors.Is(err, e.ErrNotFound) {
			n.logger.Warnf("First Purchase Email: purchase %d not found", purchaseID)
			return nil
		}
		return e.Wrap(op, err)
	}

	first, err := n.purchaseRepo.IsFirstForProduct(ctx, purchase)
	if err != nil {
		return e.Wrap(op, err)
	}
	if !first {
		n.logger.Infof("First Purchase Email: purchase %d is not the first of product %d", purchase.ID, purchase.ProductID)
		return nil
	}

	product, err := n.productRepo.GetByID(ctx, purchase.ProductID)
	if err != nil {
		if errors.Is(err, e.ErrNotFound) {
			n.logger.Warnf("First Purchase Email: product %d not found", purchase.ProductID)
			return nil
		}
		return e.Wrap(op, err)
	}

	customer, err := n.customerRepo.GetByID(ctx, purchase.CustomerID)
	if err != nil {
		return e.Wrap(op, err)
	}

	admins, err := n.adminRepo.List(ctx)
	if err != nil {
		return e.Wrap(op, err)
	}

	var (
		creator *domain.Admin
		others  []domain.Admin
	)
	for i := range admins {
		if admins[i].ID == product.AdminID {
			creator = &admins[i]
			continue
		}
		others = append(others, admins[i])
	}
	if creator == nil {
		return e.Wrap(op, e.NewNotFoundError("admin", product.AdminID))
	}

	msg := FirstPurchaseEmail{Purchase: *purchase, Product: *product, Customer: *customer}

	creatorMsg := msg
	creatorMsg.Admin, creatorMsg.IsCreator = *creator, true
	if err := n.mailer.SendFirstPurchase(ctx, &creatorMsg); err != nil {
		return e.Wrap(op, &e.NotificationDeliveryError{Recipient: creator.Email, Err: err})
	}

	var errs []error
	for _, admin := range others {
		copyMsg := msg
		copyMsg.Admin = admin
		if err := n.mailer.SendFirstPurchase(ctx, &copyMsg); err != nil {
			errs = append(errs, &e.NotificationDeliveryError{Recipient: admin.Email, Err: err})
		}
	}
	if len(errs) > 0 {
		return e.Wrap(op, errors.Join(errs...))
	}

	n.logger.Infof("First Purchase Email: sent to %s and %d other admins for purchase %d",
		creator.Email, len(others), purchase.ID)
	return nil
}
