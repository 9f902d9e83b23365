// internal/auth/token.go
package auth

import (
	"crypto/rand"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// secret signs game session tokens (HS256). There are no user accounts in
// this service; a token simply proves the caller created the game it names.
var secret []byte

// tokenExpireSec indicates how many seconds until token expiration (0 => never).
var tokenExpireSec int

// Init loads the signing secret from ONECARD_TOKEN_SECRET, or generates an
// ephemeral one (tokens then die with the process), and parses the
// TOKEN_EXPIRE_TIME duration.
func Init() error {
	if s := os.Getenv("ONECARD_TOKEN_SECRET"); s != "" {
		secret = []byte(s)
	} else {
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return fmt.Errorf("failed to generate token secret: %w", err)
		}
	}

	duration := os.Getenv("TOKEN_EXPIRE_TIME")
	if duration == "" || duration == "never" || duration == "0" {
		tokenExpireSec = 0
		return nil
	}
	d, err := time.ParseDuration(duration)
	if err != nil {
		return fmt.Errorf("failed to parse token expire time: %w", err)
	}
	tokenExpireSec = int(d.Seconds())
	return nil
}

// CreateGameToken creates a signed token with "sub" = the game id.
func CreateGameToken(gameID uuid.UUID) (string, error) {
	claims := jwt.MapClaims{
		"sub": gameID.String(),
	}
	if tokenExpireSec > 0 {
		claims["exp"] = time.Now().Add(time.Duration(tokenExpireSec) * time.Second).Unix()
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// AuthenticateGameToken verifies a token and checks it names the given game.
func AuthenticateGameToken(tokenString string, gameID uuid.UUID) error {
	t, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return fmt.Errorf("jwt parse error: %w", err)
	}
	if !t.Valid {
		return fmt.Errorf("invalid token")
	}
	claims, ok := t.Claims.(jwt.MapClaims)
	if !ok {
		return fmt.Errorf("invalid jwt claims")
	}
	sub, ok := claims["sub"].(string)
	if !ok || sub != gameID.String() {
		return fmt.Errorf("token does not match game")
	}
	return nil
}
