package http

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/DRSN-tech/admin-backend/pkg/e"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToHTTPResponse(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		code    int
		message string
	}{
		{"validation", e.Wrap("op", e.NewValidationError("name", "can't be blank")), http.StatusUnprocessableEntity, "Validation failed"},
		{"not found", e.Wrap("op", e.NewNotFoundError("Product", 9)), http.StatusNotFound, "Product 9 not found"},
		{"stock", e.Wrap("op", e.NewInsufficientStockError(1, 3)), http.StatusConflict, "Stock insuficiente. Stock actual: 3"},
		{"expired token", e.ErrTokenExpired, http.StatusUnauthorized, "token expired"},
		{"bad credentials", e.Wrap("AuthUseCase.Login", e.ErrBadCredentials), http.StatusUnauthorized, "invalid email or password"},
		{"too many images", e.ErrTooManyImages, http.StatusBadRequest, "too many images"},
		{"file too large", e.Wrap("a.png", e.ErrFileTooLarge), http.StatusBadRequest, "file too large"},
		{"unknown", fmt.Errorf("pg: connection reset"), http.StatusInternalServerError, "internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, msg, _ := ToHTTPResponse(tt.err)
			assert.Equal(t, tt.code, code)
			assert.Equal(t, tt.message, msg)
		})
	}
}

func TestToHTTPResponseValidationDetails(t *testing.T) {
	v := &e.ValidationError{}
	v.Add("name", "can't be blank")
	v.Add("price", "must be greater than 0")

	_, _, details := ToHTTPResponse(v)
	assert.Equal(t, []string{"name can't be blank", "price must be greater than 0"}, details)
}

func TestParsePrice(t *testing.T) {
	d, err := parsePrice("599.99")
	require.NoError(t, err)
	assert.Equal(t, "599.99", d.StringFixed(2))

	_, err = parsePrice("1.500")
	assert.NoError(t, err)

	_, err = parsePrice("1.999")
	assert.ErrorIs(t, err, e.ErrPricePrecision)

	_, err = parsePrice("-1")
	assert.ErrorIs(t, err, e.ErrInvalidPrice)

	_, err = parsePrice("abc")
	assert.ErrorIs(t, err, e.ErrInvalidPrice)

	_, err = parsePrice(" ")
	assert.ErrorIs(t, err, e.ErrMissingFields)
}
