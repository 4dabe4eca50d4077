package domain

import (
	"fmt"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/DRSN-tech/admin-backend/pkg/e"
)

// NormalizeEmail приводит email к каноничному виду: без пробелов по краям и в нижнем регистре.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func checkLength(v *e.ValidationError, field, value string, min, max int) {
	n := utf8.RuneCountInString(strings.TrimSpace(value))
	switch {
	case n == 0:
		v.Add(field, "can't be blank")
	case n < min:
		v.Add(field, fmt.Sprintf("is too short (minimum is %d characters)", min))
	case n > max:
		v.Add(field, fmt.Sprintf("is too long (maximum is %d characters)", max))
	}
}

func checkEmail(v *e.ValidationError, field, email string) {
	if email == "" {
		v.Add(field, "can't be blank")
		return
	}

	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		v.Add(field, "is invalid")
	}
}
