// Package jwttoken issues and validates the session tokens the API accepts.
// Tokens carry the subject's role tier and, optionally, the id of a
// break-glass grant the subject claims — the gate re-checks that claim
// against the ledger on every decision, so a forged grant id buys nothing.
package jwttoken

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	dErrors "github.com/Vumbi2018/lgis-sub001/pkg/domain-errors"
)

// SessionClaims are the JWT claims for an authenticated API caller.
type SessionClaims struct {
	UserID  string `json:"user_id"`
	Role    string `json:"role"`
	GrantID string `json:"grant_id,omitempty"`
	jwt.RegisteredClaims
}

// JWTService handles token creation and validation.
type JWTService struct {
	signingKey []byte
	issuer     string
	audience   string
	tokenTTL   time.Duration
}

func NewJWTService(signingKey, issuer, audience string, tokenTTL time.Duration) *JWTService {
	return &JWTService{
		signingKey: []byte(signingKey),
		issuer:     issuer,
		audience:   audience,
		tokenTTL:   tokenTTL,
	}
}

// GenerateSessionToken signs a token for the subject. grantID may be empty.
func (s *JWTService) GenerateSessionToken(userID, role, grantID string) (string, error) {
	if userID == "" {
		return "", dErrors.New(dErrors.CodeBadRequest, "user id is required")
	}
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	now := time.Now()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, SessionClaims{
		UserID:  userID,
		Role:    role,
		GrantID: grantID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    s.issuer,
			Audience:  []string{s.audience},
			ID:        hex.EncodeToString(b),
		},
	})
	return token.SignedString(s.signingKey)
}

// ValidateToken verifies signature, algorithm, expiry and issuer.
func (s *JWTService) ValidateToken(tokenString string) (*SessionClaims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(token *jwt.Token) (any, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "token expired")
		}
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}
	if !parsed.Valid {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}
	claims, ok := parsed.Claims.(*SessionClaims)
	if !ok {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}
	if claims.Issuer != s.issuer {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token issuer")
	}
	return claims, nil
}
