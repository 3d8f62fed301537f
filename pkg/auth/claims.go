// Package auth extracts caller claims from bearer tokens carried in request
// payloads.
//
// Tokens are decoded only. No signature, issuer or expiry is checked, so any
// caller able to publish on the broker can present arbitrary claims. Callers
// relying on these claims must treat them as self-asserted.
package auth

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Role names stored in the user table and carried in tokens.
const (
	RoleAdmin   = "admin"
	RoleDentist = "dentist"
	RolePatient = "patient"
)

// ErrNoClaims is returned when a token is absent or cannot be decoded.
var ErrNoClaims = errors.New("token could not be decoded")

// UserID is a user identifier that accepts either a JSON number or a numeric
// JSON string.
type UserID int64

func (id *UserID) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*id = 0
		return nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil || f != float64(int64(f)) {
			return err
		}
		v = int64(f)
	}
	*id = UserID(v)
	return nil
}

func (id UserID) MarshalJSON() ([]byte, error) {
	return json.Marshal(int64(id))
}

// Claims holds the fields the service reads from a token.
type Claims struct {
	ID   UserID `json:"id"`
	Role string `json:"role"`
	jwt.RegisteredClaims
}

func (c *Claims) IsAdmin() bool   { return c.Role == RoleAdmin }
func (c *Claims) IsDentist() bool { return c.Role == RoleDentist }

// IsPatient reports true for every role that is neither admin nor dentist.
func (c *Claims) IsPatient() bool { return !c.IsAdmin() && !c.IsDentist() }

// Owns reports whether the token belongs to the given user.
func (c *Claims) Owns(userID int64) bool { return int64(c.ID) == userID }

var parser = jwt.NewParser()

// DecodeClaimsUnverified decodes the payload segment of a JWT without
// checking its signature. A missing or unknown alg header is accepted once
// the claims have decoded.
func DecodeClaimsUnverified(token string) (*Claims, error) {
	token = strings.TrimSpace(strings.TrimPrefix(token, "Bearer "))
	if token == "" {
		return nil, ErrNoClaims
	}

	claims := &Claims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil && !errors.Is(err, jwt.ErrTokenUnverifiable) {
		return nil, errors.Join(ErrNoClaims, err)
	}
	return claims, nil
}
