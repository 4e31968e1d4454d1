package services

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"hooshmetr/internal/models"
)

var ErrInvalidToken = errors.New("invalid or expired token")

// Claims is the access-token payload: subject is the mobile number,
// user_id and role ride alongside for authorization checks without an
// extra lookup.
type Claims struct {
	UserID int    `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// TokenService mints and parses stateless HS256 bearer tokens. The
// secret is process-wide configuration; there is no revocation list,
// a token stays valid until its natural expiry.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenService(secret string, days int) *TokenService {
	if days <= 0 {
		days = 7
	}
	return &TokenService{
		secret: []byte(secret),
		ttl:    time.Duration(days) * 24 * time.Hour,
	}
}

// Issue returns the signed token and its lifetime in seconds.
func (s *TokenService) Issue(user *models.User) (string, int, error) {
	now := time.Now()
	claims := &Claims{
		UserID: user.ID,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.Mobile,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", 0, err
	}
	return signed, int(s.ttl.Seconds()), nil
}

func (s *TokenService) Parse(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		// accept HMAC only
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
