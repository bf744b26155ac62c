// Package auth adapts the external identity collaborator: token
// verification and the policy decision point. Token issuance lives with
// the identity service; this side only needs the shared secret.
package auth

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/zvrva/skybooker/internal/domain"
	"github.com/zvrva/skybooker/internal/errs"
)

var (
	ErrInvalidToken = errs.New("invalid token")
	ErrExpiredToken = errs.New("token expired")
)

// Verifier answers "who is calling": a valid token yields the subject,
// anything else is rejected before orchestration begins.
type Verifier interface {
	Verify(ctx context.Context, token string) (domain.Subject, error)
}

type Claims struct {
	UserID int64  `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

type JWTVerifier struct {
	secretKey []byte
	tokenTTL  time.Duration
}

func NewJWTVerifier(secret string, tokenTTL time.Duration) *JWTVerifier {
	return &JWTVerifier{secretKey: []byte(secret), tokenTTL: tokenTTL}
}

func (v *JWTVerifier) Verify(ctx context.Context, tokenString string) (domain.Subject, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return v.secretKey, nil
	})
	if err != nil {
		if errs.Is(err, jwt.ErrTokenExpired) {
			return domain.Subject{}, ErrExpiredToken
		}
		return domain.Subject{}, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return domain.Subject{}, ErrInvalidToken
	}

	role := domain.Role(claims.Role)
	if !role.Valid() {
		return domain.Subject{}, ErrInvalidToken
	}
	return domain.Subject{UserID: claims.UserID, Role: role}, nil
}

// Sign mints a token for the given subject. The identity service is the
// real issuer; this mirror of its signing keeps tests and local tooling
// self-contained.
func (v *JWTVerifier) Sign(subject domain.Subject) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: subject.UserID,
		Role:   string(subject.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(v.tokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(v.secretKey)
}

var _ Verifier = (*JWTVerifier)(nil)
