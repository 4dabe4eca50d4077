package domain

import (
	"strings"
	"testing"
	"time"

	"github.com/DRSN-tech/admin-backend/pkg/e"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validProduct() *Product {
	return NewProduct("Laptop", "A very capable laptop", decimal.RequireFromString("999.99"), 10, 1)
}

func TestProductValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *Product)
		field  string
	}{
		{"short name", func(p *Product) { p.Name = "L" }, "name"},
		{"long description", func(p *Product) { p.Description = strings.Repeat("x", 1001) }, "description"},
		{"zero price", func(p *Product) { p.Price = decimal.Zero }, "price"},
		{"price precision", func(p *Product) { p.Price = decimal.RequireFromString("1.234") }, "price"},
		{"negative stock", func(p *Product) { p.Stock = -1 }, "stock"},
	}

	require.NoError(t, validProduct().Validate())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validProduct()
			tt.mutate(p)

			err := p.Validate()
			var v *e.ValidationError
			require.ErrorAs(t, err, &v)
			assert.Equal(t, tt.field, v.Fields[0].Field)
		})
	}
}

func TestProductDiff(t *testing.T) {
	before := validProduct()
	after := *before

	assert.True(t, before.Diff(&after).Empty())

	after.Price = decimal.RequireFromString("899.99")
	after.Stock = 5
	changes := before.Diff(&after)

	assert.Equal(t, Changes{
		"price": [2]any{"999.99", "899.99"},
		"stock": [2]any{int64(10), int64(5)},
	}, changes)
}

func TestNewPurchase_TotalPrice(t *testing.T) {
	p := validProduct()
	p.ID = 7
	p.Price = decimal.RequireFromString("19.99")

	purchase := NewPurchase(1, p, 3, time.Time{})

	assert.True(t, purchase.TotalPrice.Equal(decimal.RequireFromString("59.97")))
	assert.False(t, purchase.PurchasedAt.IsZero())
	assert.Equal(t, int64(7), purchase.ProductID)
	assert.True(t, purchase.UnitPrice().Equal(decimal.RequireFromString("19.99")))
}

func TestPurchaseValidate_Quantity(t *testing.T) {
	purchase := NewPurchase(1, validProduct(), 0, time.Now())
	assert.True(t, e.IsValidation(purchase.Validate()))
}

func TestCustomer(t *testing.T) {
	phone := "+5491112345678"
	c := NewCustomer("  John@Example.COM ", "John", &phone, nil)

	assert.Equal(t, "john@example.com", c.Email)
	require.NoError(t, c.Validate())

	bad := "12-34"
	c.Phone = &bad
	assert.True(t, e.IsValidation(c.Validate()))

	blank := "   "
	assert.Nil(t, NewCustomer("a@b.co", "Jo", &blank, &blank).Phone)
}

func TestProductImage(t *testing.T) {
	img := NewProductImage(1, "https://cdn.example.com/a.png", "", "Laptop")
	assert.Equal(t, "Image of Laptop", img.Caption)
	require.NoError(t, img.Validate())

	img.ImageURL = "ftp://example.com/a.png"
	assert.True(t, e.IsValidation(img.Validate()))

	img.ImageURL = "https://cdn.example.com/a.png"
	img.Caption = strings.Repeat("c", 201)
	assert.True(t, e.IsValidation(img.Validate()))
}

func TestCategoryValidate(t *testing.T) {
	c := NewCategory(" Books ", "Printed and digital books", 1)
	assert.Equal(t, "Books", c.Name)
	require.NoError(t, c.Validate())

	c.Description = "short"
	assert.True(t, e.IsValidation(c.Validate()))
}

func TestAuditAction(t *testing.T) {
	assert.True(t, ActionCategoryAssociated.IsAssociation())
	assert.False(t, ActionUpdated.IsAssociation())
	assert.False(t, AuditAction("archived").Valid())

	kind, err := ParseSubjectKind("ProductCategory")
	require.NoError(t, err)
	assert.Equal(t, SubjectProductCategory, kind)

	_, err = ParseSubjectKind("Customer")
	assert.Error(t, err)
}
