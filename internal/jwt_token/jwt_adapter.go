package jwttoken

import (
	"donationpool/internal/platform/middleware"
)

// JWTServiceAdapter lets the middleware validate tokens without importing
// the token package.
type JWTServiceAdapter struct {
	service *JWTService
}

func NewJWTServiceAdapter(service *JWTService) *JWTServiceAdapter {
	return &JWTServiceAdapter{service: service}
}

func (a *JWTServiceAdapter) ValidateToken(tokenString string) (*middleware.CallerClaims, error) {
	claims, err := a.service.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	caller, err := claims.Caller()
	if err != nil {
		return nil, err
	}
	return &middleware.CallerClaims{Caller: caller, JTI: claims.ID}, nil
}
