package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"reelgen/internal/logger"

	"github.com/golang-jwt/jwt/v5"
)

// Injected key type to avoid context collisions
type contextKey string

const UserContextKey = contextKey("user")

func AuthMiddleware(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger := logger.New()
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				logger.Error().Msg("Authorization header missing")
				http.Error(w, "Authorization header missing", http.StatusUnauthorized)
				return
			}
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				logger.Error().Msg("Invalid authorization header")
				http.Error(w, "Invalid authorization header", http.StatusUnauthorized)
				return
			}
			tokenString := parts[1]
			claims, err := validateJWT(tokenString, jwtSecret)
			if err != nil {
				logger.Error().Msgf("Invalid token: %+v", err)
				http.Error(w, "Invalid token: "+err.Error(), http.StatusUnauthorized)
				return
			}
			// Embed user ID into request context
			ctx := context.WithValue(r.Context(), UserContextKey, claims.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func validateJWT(tokenString, secret string) (*jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, jwt.ErrTokenUnverifiable
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("token carries no subject")
	}
	return claims, nil
}
