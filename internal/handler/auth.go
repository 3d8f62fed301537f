package handler

import (
	"github.com/jwalitptl/scheduling-service/pkg/auth"
	apperrors "github.com/jwalitptl/scheduling-service/pkg/errors"
)

// Authenticate decodes the caller's token. An absent or undecodable token
// is a 401.
func Authenticate(token string) (*auth.Claims, error) {
	claims, err := auth.DecodeClaimsUnverified(token)
	if err != nil {
		return nil, apperrors.Unauthorized(err)
	}
	return claims, nil
}

// RequireAdmin is Authenticate plus a 403 for every role except admin.
func RequireAdmin(token string) (*auth.Claims, error) {
	claims, err := Authenticate(token)
	if err != nil {
		return nil, err
	}
	if !claims.IsAdmin() {
		return nil, apperrors.Forbidden(nil)
	}
	return claims, nil
}
