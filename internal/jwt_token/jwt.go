package jwttoken

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"donationpool/pkg/domain"
	dErrors "donationpool/pkg/domain-errors"
)

// Claims identifies a caller. The subject is the caller's address.
type Claims struct {
	jwt.RegisteredClaims
}

// JWTService issues and validates caller tokens.
type JWTService struct {
	signingKey []byte
	issuer     string
	audience   string
	now        func() time.Time
}

func NewJWTService(signingKey string, issuer string, audience string) *JWTService {
	return &JWTService{
		signingKey: []byte(signingKey),
		issuer:     issuer,
		audience:   audience,
		now:        time.Now,
	}
}

func (s *JWTService) GenerateCallerToken(caller domain.Address, expiresIn time.Duration) (string, error) {
	if caller == domain.ZeroAddress {
		return "", dErrors.New(dErrors.CodeInvalidIdentity, "caller cannot be the zero address")
	}
	now := s.now()
	newToken := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   caller.Hex(),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiresIn)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    s.issuer,
			Audience:  []string{s.audience},
			ID:        uuid.NewString(),
		},
	})

	signedToken, err := newToken.SignedString(s.signingKey)
	if err != nil {
		return "", err
	}
	return signedToken, nil
}

func (s *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	},
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(s.audience),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "token has expired")
		}
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}
	return claims, nil
}

// CallerFromToken validates tokenString and returns the caller it names.
func (s *JWTService) CallerFromToken(tokenString string) (domain.Address, error) {
	claims, err := s.ValidateToken(tokenString)
	if err != nil {
		return domain.ZeroAddress, err
	}
	return claims.Caller()
}

// Caller parses the subject as an address.
func (c *Claims) Caller() (domain.Address, error) {
	caller, err := domain.ParseAddress(c.Subject)
	if err != nil {
		return domain.ZeroAddress, dErrors.New(dErrors.CodeUnauthorized, "invalid token subject")
	}
	return caller, nil
}
