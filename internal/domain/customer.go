package domain

import (
	"regexp"
	"strings"
	"time"

	"github.com/DRSN-tech/admin-backend/pkg/e"
)

var phonePattern = regexp.MustCompile(`^\+?[0-9]{8,15}$`)

// Customer — покупатель. Телефон и адрес необязательны.
type Customer struct {
	ID        int64
	Email     string
	Name      string
	Phone     *string
	Address   *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func NewCustomer(email, name string, phone, address *string) *Customer {
	return &Customer{
		Email:   NormalizeEmail(email),
		Name:    strings.TrimSpace(name),
		Phone:   blankToNil(phone),
		Address: blankToNil(address),
	}
}

func (c *Customer) Validate() error {
	v := &e.ValidationError{}
	checkEmail(v, "email", c.Email)
	checkLength(v, "name", c.Name, 2, 100)

	if c.Phone != nil && !phonePattern.MatchString(*c.Phone) {
		v.Add("phone", "is invalid")
	}

	if c.Address != nil {
		checkLength(v, "address", *c.Address, 10, 500)
	}

	return v.OrNil()
}

func blankToNil(s *string) *string {
	if s == nil {
		return nil
	}

	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}

	return &trimmed
}
