package domain

import (
	"time"

	"github.com/DRSN-tech/admin-backend/pkg/e"
)

// Admin — администратор магазина. Владеет товарами и категориями.
type Admin struct {
	ID           int64
	Email        string
	Name         string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func NewAdmin(email, name, passwordHash string) *Admin {
	return &Admin{
		Email:        NormalizeEmail(email),
		Name:         name,
		PasswordHash: passwordHash,
	}
}

func (a *Admin) Validate() error {
	v := &e.ValidationError{}
	checkEmail(v, "email", a.Email)
	checkLength(v, "name", a.Name, 2, 100)
	if a.PasswordHash == "" {
		v.Add("password", "can't be blank")
	}

	return v.OrNil()
}
