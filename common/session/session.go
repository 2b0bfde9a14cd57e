package session

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the sealed session credential presented by clients at the
// websocket handshake and on API requests. It is minted by the external
// session provider; this package only verifies and reads it.
type Claims struct {
	Email       string `json:"email"`
	WorkspaceID int64  `json:"workspace_id"`
	jwt.RegisteredClaims
}

// UserID returns the numeric subject of the credential.
func (c Claims) UserID() (int64, error) {
	uid, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing subject: %w", err)
	}
	return uid, nil
}

var ErrInvalidToken = errors.New("invalid session token")

// Parse verifies the token signature and expiry and returns its claims.
func Parse(secret, token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return []byte(secret), nil
	})
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Sign mints a credential. Production tokens come from the session provider;
// this is used by tests and local tooling.
func Sign(secret string, userID int64, email string, workspaceID int64, ttl time.Duration) (string, error) {
	claims := Claims{
		Email:       email,
		WorkspaceID: workspaceID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}
