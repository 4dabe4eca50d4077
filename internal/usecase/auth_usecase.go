package usecase

import (
	"context"
	"errors"

	"github.com/DRSN-tech/admin-backend/internal/domain"
	"github.com/DRSN-tech/admin-backend/pkg/e"
	"github.com/DRSN-tech/admin-backend/pkg/logger"
)

type AuthUseCase struct {
	adminRepo AdminRepository
	hasher    PasswordHasher
	tokens    TokenIssuer
	logger    logger.Logger
}

func NewAuthUC(adminRepo AdminRepository, hasher PasswordHasher, tokens TokenIssuer, logger logger.Logger) *AuthUseCase {
	return &AuthUseCase{
		adminRepo: adminRepo,
		hasher:    hasher,
		tokens:    tokens,
		logger:    logger,
	}
}

// Login проверяет учётные данные и выдаёт токен доступа.
func (a *AuthUseCase) Login(ctx context.Context, req *LoginReq) (*LoginRes, error) {
	const op = "AuthUseCase.Login"

	admin, err := a.adminRepo.GetByEmail(ctx, domain.NormalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, e.ErrNotFound) {
			return nil, e.ErrBadCredentials
		}
		return nil, e.Wrap(op, err)
	}

	if !a.hasher.Compare(admin.PasswordHash, req.Password) {
		return nil, e.ErrBadCredentials
	}

	token, expiresAt, err := a.tokens.Issue(admin)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return &LoginRes{Token: token, ExpiresAt: expiresAt, Admin: *admin}, nil
}

// Authenticate проверяет, что администратор из токена существует.
func (a *AuthUseCase) Authenticate(ctx context.Context, adminID int64) (*domain.Admin, error) {
	admin, err := a.adminRepo.GetByID(ctx, adminID)
	if err != nil {
		if errors.Is(err, e.ErrNotFound) {
			return nil, e.ErrAdminNotResolved
		}
		return nil, e.Wrap("AuthUseCase.Authenticate", err)
	}

	return admin, nil
}

// Me возвращает текущего администратора со счётчиками его товаров и категорий.
func (a *AuthUseCase) Me(ctx context.Context) (*Me, error) {
	const op = "AuthUseCase.Me"

	adminID, ok := ActorFromContext(ctx)
	if !ok {
		return nil, e.ErrAdminNotResolved
	}

	admin, err := a.Authenticate(ctx, adminID)
	if err != nil {
		return nil, err
	}

	counters, err := a.adminRepo.CountOwned(ctx, adminID)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return &Me{Admin: *admin, Counters: counters}, nil
}

// SeedAdmin создаёт администратора по умолчанию, если его ещё нет.
func (a *AuthUseCase) SeedAdmin(ctx context.Context, email, password, name string) error {
	const op = "AuthUseCase.SeedAdmin"

	if email == "" || password == "" {
		a.logger.Infof("Default admin is not configured, skipping seed")
		return nil
	}

	_, err := a.adminRepo.GetByEmail(ctx, domain.NormalizeEmail(email))
	if err == nil {
		return nil
	}
	if !errors.Is(err, e.ErrNotFound) {
		return e.Wrap(op, err)
	}

	hash, err := a.hasher.Hash(password)
	if err != nil {
		return e.Wrap(op, err)
	}

	admin := domain.NewAdmin(email, name, hash)
	if err := admin.Validate(); err != nil {
		return e.Wrap(op, err)
	}

	created, err := a.adminRepo.Create(ctx, admin)
	if err != nil {
		return e.Wrap(op, err)
	}

	a.logger.Infof("Default admin %s seeded with id %d", created.Email, created.ID)
	return nil
}
