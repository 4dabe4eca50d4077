package converter

import (
	"github.com/DRSN-tech/admin-backend/internal/domain"
	"github.com/DRSN-tech/admin-backend/internal/usecase"
)

type AdminConverterImpl struct{}

func NewAdminConverterImpl() *AdminConverterImpl { return &AdminConverterImpl{} }

func (AdminConverterImpl) ToModel(a *domain.Admin) *AdminModel {
	if a == nil {
		return nil
	}

	return &AdminModel{
		ID:           a.ID,
		Email:        a.Email,
		Name:         a.Name,
		PasswordHash: a.PasswordHash,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}
}

func (AdminConverterImpl) ToEntity(m *AdminModel) *domain.Admin {
	if m == nil {
		return nil
	}

	return &domain.Admin{
		ID:           m.ID,
		Email:        m.Email,
		Name:         m.Name,
		PasswordHash: m.PasswordHash,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

type CategoryConverterImpl struct{}

func NewCategoryConverterImpl() *CategoryConverterImpl { return &CategoryConverterImpl{} }

func (CategoryConverterImpl) ToModel(c *domain.Category) *CategoryModel {
	if c == nil {
		return nil
	}

	return &CategoryModel{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
		AdminID:     c.AdminID,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

func (CategoryConverterImpl) ToEntity(m *CategoryModel) *domain.Category {
	if m == nil {
		return nil
	}

	return &domain.Category{
		ID:          m.ID,
		Name:        m.Name,
		Description: m.Description,
		AdminID:     m.AdminID,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

type ProductConverterImpl struct{}

func NewProductConverterImpl() *ProductConverterImpl { return &ProductConverterImpl{} }

func (ProductConverterImpl) ToModel(p *domain.Product) *ProductModel {
	if p == nil {
		return nil
	}

	return &ProductModel{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Stock:       p.Stock,
		AdminID:     p.AdminID,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func (ProductConverterImpl) ToEntity(m *ProductModel) *domain.Product {
	if m == nil {
		return nil
	}

	return &domain.Product{
		ID:          m.ID,
		Name:        m.Name,
		Description: m.Description,
		Price:       m.Price,
		Stock:       m.Stock,
		AdminID:     m.AdminID,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

type ProductImageConverterImpl struct{}

func NewProductImageConverterImpl() *ProductImageConverterImpl { return &ProductImageConverterImpl{} }

func (ProductImageConverterImpl) ToModel(i *domain.ProductImage) *ProductImageModel {
	if i == nil {
		return nil
	}

	m := &ProductImageModel{
		ID:        i.ID,
		ProductID: i.ProductID,
		ImageURL:  i.ImageURL,
		Caption:   i.Caption,
		CreatedAt: i.CreatedAt,
	}
	if i.ObjectKey != "" {
		key := i.ObjectKey
		m.ObjectKey = &key
	}

	return m
}

func (ProductImageConverterImpl) ToEntity(m *ProductImageModel) *domain.ProductImage {
	if m == nil {
		return nil
	}

	i := &domain.ProductImage{
		ID:        m.ID,
		ProductID: m.ProductID,
		ImageURL:  m.ImageURL,
		Caption:   m.Caption,
		CreatedAt: m.CreatedAt,
	}
	if m.ObjectKey != nil {
		i.ObjectKey = *m.ObjectKey
	}

	return i
}

type ProductCategoryConverterImpl struct{}

func NewProductCategoryConverterImpl() *ProductCategoryConverterImpl {
	return &ProductCategoryConverterImpl{}
}

func (ProductCategoryConverterImpl) ToEntity(m *ProductCategoryModel) *domain.ProductCategory {
	if m == nil {
		return nil
	}

	return &domain.ProductCategory{
		ID:         m.ID,
		ProductID:  m.ProductID,
		CategoryID: m.CategoryID,
		CreatedAt:  m.CreatedAt,
	}
}

type CustomerConverterImpl struct{}

func NewCustomerConverterImpl() *CustomerConverterImpl { return &CustomerConverterImpl{} }

func (CustomerConverterImpl) ToModel(c *domain.Customer) *CustomerModel {
	if c == nil {
		return nil
	}

	return &CustomerModel{
		ID:        c.ID,
		Email:     c.Email,
		Name:      c.Name,
		Phone:     c.Phone,
		Address:   c.Address,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

func (CustomerConverterImpl) ToEntity(m *CustomerModel) *domain.Customer {
	if m == nil {
		return nil
	}

	return &domain.Customer{
		ID:        m.ID,
		Email:     m.Email,
		Name:      m.Name,
		Phone:     m.Phone,
		Address:   m.Address,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

type PurchaseConverterImpl struct{}

func NewPurchaseConverterImpl() *PurchaseConverterImpl { return &PurchaseConverterImpl{} }

func (PurchaseConverterImpl) ToModel(p *domain.Purchase) *PurchaseModel {
	if p == nil {
		return nil
	}

	return &PurchaseModel{
		ID:          p.ID,
		CustomerID:  p.CustomerID,
		ProductID:   p.ProductID,
		Quantity:    p.Quantity,
		TotalPrice:  p.TotalPrice,
		PurchasedAt: p.PurchasedAt,
		CreatedAt:   p.CreatedAt,
	}
}

func (PurchaseConverterImpl) ToEntity(m *PurchaseModel) *domain.Purchase {
	if m == nil {
		return nil
	}

	return &domain.Purchase{
		ID:          m.ID,
		CustomerID:  m.CustomerID,
		ProductID:   m.ProductID,
		Quantity:    m.Quantity,
		TotalPrice:  m.TotalPrice,
		PurchasedAt: m.PurchasedAt,
		CreatedAt:   m.CreatedAt,
	}
}

type AuditLogConverterImpl struct{}

func NewAuditLogConverterImpl() *AuditLogConverterImpl { return &AuditLogConverterImpl{} }

func (AuditLogConverterImpl) ToEntity(m *AuditLogModel) *domain.AuditLog {
	if m == nil {
		return nil
	}

	l := &domain.AuditLog{
		ID:        m.ID,
		Action:    domain.AuditAction(m.Action),
		AdminID:   m.AdminID,
		Subject:   domain.Subject{Kind: domain.SubjectKind(m.AuditableType), ID: m.AuditableID},
		Changes:   domain.Changes(m.Changes),
		CreatedAt: m.CreatedAt,
	}
	if m.AdminName != nil {
		l.AdminName = *m.AdminName
	}

	return l
}

type OutboxEventConverterImpl struct{}

func NewOutboxEventConverterImpl() *OutboxEventConverterImpl { return &OutboxEventConverterImpl{} }

func (OutboxEventConverterImpl) ToModel(ev *usecase.OutboxEvent) *OutboxEventModel {
	if ev == nil {
		return nil
	}

	return &OutboxEventModel{
		ID:          ev.ID,
		AggregateID: ev.AggregateID,
		EventType:   ev.EventType,
		Payload:     ev.Payload,
		Status:      string(ev.Status),
		RetryCount:  ev.RetryCount,
		CreatedAt:   ev.CreatedAt,
		ProcessedAt: ev.ProcessedAt,
	}
}

func (OutboxEventConverterImpl) ToEntity(m *OutboxEventModel) *usecase.OutboxEvent {
	if m == nil {
		return nil
	}

	return &usecase.OutboxEvent{
		ID:          m.ID,
		AggregateID: m.AggregateID,
		EventType:   m.EventType,
		Payload:     m.Payload,
		Status:      usecase.OutboxStatus(m.Status),
		RetryCount:  m.RetryCount,
		CreatedAt:   m.CreatedAt,
		ProcessedAt: m.ProcessedAt,
	}
}

func (c OutboxEventConverterImpl) ToArrEntity(models []*OutboxEventModel) []*usecase.OutboxEvent {
	out := make([]*usecase.OutboxEvent, 0, len(models))
	for _, m := range models {
		out = append(out, c.ToEntity(m))
	}

	return out
}
