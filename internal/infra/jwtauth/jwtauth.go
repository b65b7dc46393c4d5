package jwtauth

import (
	"time"

	"ortus/internal/domain/model"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

// Claims はトークンに入れる {id, userType}
type Claims struct {
	UserID   string     `json:"id"`
	UserType model.Role `json:"userType"`
	jwt.RegisteredClaims
}

// Issuer はHS256で署名したトークンを発行・検証する
type Issuer struct {
	secret []byte
	ttl    time.Duration
}

func NewIssuer(secret string, ttl time.Duration) *Issuer {
	return &Issuer{secret: []byte(secret), ttl: ttl}
}

func (i *Issuer) Issue(userID string, role model.Role, now time.Time) (string, error) {
	claims := Claims{
		UserID:   userID,
		UserType: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(i.secret)
	if err != nil {
		return "", errors.Wrap(err, "sign token")
	}
	return signed, nil
}

// Parse は署名と有効期限を検証してClaimsを返す（AuthJWTが使う）
func (i *Issuer) Parse(raw string) (*Claims, error) {
	claims := new(Claims)
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return i.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	if claims.UserID == "" {
		return nil, errors.New("token has no user id")
	}
	return claims, nil
}
