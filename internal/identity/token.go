package identity

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	dErrors "opsconsole/pkg/domainerrors"
)

// TokenIssuer mints and verifies the bearer tokens that accompany sessions.
type TokenIssuer struct {
	key []byte
	ttl time.Duration
}

// Claims is the verified content of a session token.
type Claims struct {
	IdentityID ID
	Email      string
}

func NewTokenIssuer(signingKey string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{key: []byte(signingKey), ttl: ttl}
}

// Issue signs a token for the given identity.
func (i *TokenIssuer) Issue(ident Identity, issuedAt time.Time) (string, error) {
	claims := jwt.MapClaims{
		"sub":   ident.ID.String(),
		"email": ident.Email,
		"iat":   issuedAt.Unix(),
		"exp":   issuedAt.Add(i.ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.key)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to sign session token")
	}
	return signed, nil
}

// Verify parses and validates a token, returning its claims.
func (i *TokenIssuer) Verify(tokenString string) (*Claims, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "unexpected signing method")
		}
		return i.key, nil
	}, jwt.WithValidMethods([]string{"HS256"}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnauthorized, "invalid session token")
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}
	sub, _ := mapClaims["sub"].(string)
	email, _ := mapClaims["email"].(string)
	id, err := ParseID(sub)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token subject")
	}
	return &Claims{IdentityID: id, Email: email}, nil
}
