package auth

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/model"
)

// Verifier validates access tokens issued by the identity provider and
// extracts the caller identity. Token issuance lives outside this service.
type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

type claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Verify parses and validates the token and returns the trusted caller
// identity {id, role}.
func (v *Verifier) Verify(tokenString string) (model.AuthContext, error) {
	var c claims
	token, err := jwt.ParseWithClaims(tokenString, &c, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		return model.AuthContext{}, fmt.Errorf("invalid token: %w", err)
	}
	if !token.Valid {
		return model.AuthContext{}, fmt.Errorf("invalid token")
	}

	userID, err := uuid.Parse(c.Subject)
	if err != nil {
		return model.AuthContext{}, fmt.Errorf("invalid subject claim: %w", err)
	}

	switch c.Role {
	case model.RoleAdmin, model.RoleTherapist, model.RolePatient:
	default:
		return model.AuthContext{}, fmt.Errorf("unknown role %q", c.Role)
	}

	return model.AuthContext{UserID: userID, Role: c.Role}, nil
}
