package utils

import (
	"errors" // Error values
	"time"   // Time for token expiration

	"github.com/golang-jwt/jwt/v5" // JWT library
)

// ErrInvalidSession is returned when a session token fails validation
var ErrInvalidSession = errors.New("invalid session token")

// Claims carried by the session cookie
type Claims struct {
	UserID               uint   `json:"user_id"`  // Logged-in user
	Username             string `json:"username"` // Display name for templates
	jwt.RegisteredClaims        // Standard claims; ID holds the session id
}

// SessionID returns the server-side session id the token is bound to
func (c *Claims) SessionID() string {
	return c.ID
}

// GenerateJWT signs a session token for the user, bound to sessionID and valid for ttl
func GenerateJWT(userID uint, username, sessionID, secret string, ttl time.Duration) (string, error) {
	now := time.Now() // Issue time
	claims := Claims{
		UserID:   userID,   // Custom claim for user ID
		Username: username, // Custom claim for username
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sessionID,                        // Session id, checked against the registry
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)), // Token expires with the session
			IssuedAt:  jwt.NewNumericDate(now),          // Issued at current time
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims) // Create token with claims
	return token.SignedString([]byte(secret))                  // Sign the token with the secret
}

// ParseJWT parses and validates a session token string
func ParseJWT(tokenStr, secret string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (any, error) {
		return []byte(secret), nil // Return the secret key for validation
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	// Check for parsing errors
	if err != nil {
		return nil, err // Return error if parsing fails
	}
	// Validate token and extract claims
	if claims, ok := token.Claims.(*Claims); ok && token.Valid && claims.ID != "" {
		return claims, nil // Return claims if valid
	}
	// Token verified but carries no session
	return nil, ErrInvalidSession
}
