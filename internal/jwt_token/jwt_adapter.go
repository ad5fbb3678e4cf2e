package jwttoken

import (
	"github.com/Vumbi2018/lgis-sub001/internal/platform/middleware"
)

// JWTServiceAdapter satisfies middleware.JWTValidator without leaking jwt
// types into the middleware package.
type JWTServiceAdapter struct {
	service *JWTService
}

func NewJWTServiceAdapter(service *JWTService) *JWTServiceAdapter {
	return &JWTServiceAdapter{service: service}
}

func (a *JWTServiceAdapter) ValidateToken(tokenString string) (*middleware.JWTClaims, error) {
	claims, err := a.service.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	return &middleware.JWTClaims{
		UserID:  claims.UserID,
		Role:    claims.Role,
		GrantID: claims.GrantID,
	}, nil
}
