package oidc

import (
	"fmt"

	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/nickym11111/forge-fall-25-project-sub000/internal/models"
)

// ParseClaims decodes the claims of an access token without verifying its signature.
// The client uses it only to learn who the token belongs to; the API verifies it.
func ParseClaims(tokenString string) (*models.JWTClaims, error) {
	token, err := jwt.Parse([]byte(tokenString), jwt.WithVerify(false), jwt.WithValidate(false))
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}
	return claimsFromToken(token), nil
}

func claimsFromToken(token jwt.Token) *models.JWTClaims {
	claims := &models.JWTClaims{
		Sub: token.Subject(),
		Iss: token.Issuer(),
	}

	if exp := token.Expiration(); !exp.IsZero() {
		claims.Exp = exp.Unix()
	}
	if iat := token.IssuedAt(); !iat.IsZero() {
		claims.Iat = iat.Unix()
	}
	if aud := token.Audience(); len(aud) > 0 {
		claims.Aud = aud[0]
	}
	if email, ok := token.Get("email"); ok {
		if emailStr, ok := email.(string); ok {
			claims.Email = emailStr
		}
	}
	if name, ok := token.Get("name"); ok {
		if nameStr, ok := name.(string); ok {
			claims.Name = nameStr
		}
	}

	return claims
}
