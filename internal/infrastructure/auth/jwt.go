package auth

import (
	"errors"
	"strconv"
	"time"

	"github.com/DRSN-tech/admin-backend/internal/domain"
	"github.com/DRSN-tech/admin-backend/pkg/e"
	"github.com/golang-jwt/jwt/v4"
	"github.com/jimlawless/whereami"
)

// Claims — содержимое токена администратора.
type Claims struct {
	AdminID int64  `json:"admin_id"`
	Email   string `json:"email"`
	jwt.RegisteredClaims
}

// JWTManager выпускает и проверяет токены HS256.
type JWTManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewJWTManager(secret string, ttl time.Duration) *JWTManager {
	return &JWTManager{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

func (j *JWTManager) Issue(admin *domain.Admin) (string, time.Time, error) {
	now := j.now()
	expiresAt := now.Add(j.ttl)

	claims := Claims{
		AdminID: admin.ID,
		Email:   admin.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(admin.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.secret)
	if err != nil {
		return "", time.Time{}, e.Wrap(whereami.WhereAmI(), err)
	}

	return token, expiresAt, nil
}

// Parse проверяет подпись и срок действия токена.
func (j *JWTManager) Parse(raw string) (*Claims, error) {
	if raw == "" {
		return nil, e.ErrTokenRequired
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, e.ErrInvalidToken
		}
		return j.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, e.ErrTokenExpired
		}
		return nil, e.ErrInvalidToken
	}

	if claims.AdminID <= 0 {
		return nil, e.ErrInvalidToken
	}

	return claims, nil
}
