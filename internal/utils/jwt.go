package utils // package utils provides helpers for member tokens and lookup token hashing

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/iliyamo/zoo-checkout/internal/model"
)

// AccessToken represents a signed member JWT along with its expiry.
type AccessToken struct {
	Token string    // the serialized JWT string
	Exp   time.Time // the UTC expiration time
}

// NewAccessToken builds and signs an HS256 JWT for a member.  The portal
// normally receives these from the auth service; the function exists so
// development setups and tests can mint the same shape of token.  Claims:
// sub, email, tier, exp and iat.
func NewAccessToken(secret, subject, email, tier string, ttl time.Duration) (AccessToken, error) {
	now := time.Now().UTC()
	exp := now.Add(ttl)
	claims := jwt.MapClaims{
		"sub":   subject,
		"email": email,
		"exp":   exp.Unix(),
		"iat":   now.Unix(),
	}
	if tier != "" {
		claims["tier"] = tier
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, Exp: exp}, nil
}

// ErrNoEmail is returned for a valid token that carries no email claim.
var ErrNoEmail = errors.New("token has no email claim")

// ParseIdentity verifies raw with secret and returns the member identity.
// Any failure (bad signature, expired, wrong algorithm, missing email) is
// returned as an error; callers fall back to a guest identity.
func ParseIdentity(secret, raw string) (model.Identity, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		// Reject anything but HMAC so a token cannot pick its own algorithm.
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	}, jwt.WithExpirationRequired())
	if err != nil {
		return model.Guest, err
	}
	if !tok.Valid {
		return model.Guest, errors.New("invalid token")
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return model.Guest, errors.New("invalid claims")
	}
	email, _ := claims["email"].(string)
	if email == "" {
		return model.Guest, ErrNoEmail
	}
	tier, _ := claims["tier"].(string)
	return model.Identity{
		Authenticated:  true,
		Subject:        subjectString(claims["sub"]),
		Email:          email,
		MembershipTier: tier,
		Token:          raw,
	}, nil
}

// subjectString accepts numeric or string subjects; JSON numbers decode as float64.
func subjectString(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatUint(uint64(t), 10)
	}
	return ""
}
