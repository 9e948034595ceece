package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

type contextKey string

const (
	UserIDKey   contextKey = "user_id"
	UserRoleKey contextKey = "user_role"
)

// authError carries the client facing reason a token was refused
type authError struct {
	message string
	cause   error
}

func (e *authError) Error() string { return e.message }

// authenticate reads a Bearer token from the request and returns its user
// id and role claims. errNoToken is returned when no header is present.
func authenticate(r *http.Request, jwtSecret string) (userID, role string, err error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", "", errNoToken
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", "", &authError{message: "invalid authorization header format"}
	}

	token, err := jwt.Parse(parts[1], func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(jwtSecret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", "", &authError{message: "token expired", cause: err}
		}
		return "", "", &authError{message: "invalid token", cause: err}
	}
	if !token.Valid {
		return "", "", &authError{message: "invalid token"}
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", "", &authError{message: "invalid token claims"}
	}
	userID, ok = claims["user_id"].(string)
	if !ok {
		return "", "", &authError{message: "invalid token claims"}
	}
	role, ok = claims["role"].(string)
	if !ok {
		return "", "", &authError{message: "invalid token claims"}
	}
	return userID, role, nil
}

var errNoToken = &authError{message: "missing authorization header"}

func withUser(ctx context.Context, userID, role string) context.Context {
	ctx = context.WithValue(ctx, UserIDKey, userID)
	return context.WithValue(ctx, UserRoleKey, role)
}

// AuthMiddleware validates JWT tokens and extracts user claims
func AuthMiddleware(jwtSecret string, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, role, err := authenticate(r, jwtSecret)
			if err != nil {
				var ae *authError
				errors.As(err, &ae)
				logger.Debug("Authentication failed", zap.String("reason", ae.message), zap.Error(ae.cause))
				RespondWithError(w, http.StatusUnauthorized, ae.message)
				return
			}

			logger.Debug("User authenticated",
				zap.String("user_id", userID),
				zap.String("role", role),
			)

			next.ServeHTTP(w, r.WithContext(withUser(r.Context(), userID, role)))
		})
	}
}

// OptionalAuthMiddleware attaches the caller's identity when a valid token is
// present and lets every request through regardless.
func OptionalAuthMiddleware(jwtSecret string, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, role, err := authenticate(r, jwtSecret)
			if err != nil {
				if err != errNoToken {
					logger.Debug("Ignoring unusable token", zap.Error(err))
				}
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(withUser(r.Context(), userID, role)))
		})
	}
}

// GetUserID extracts user ID from request context
func GetUserID(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(UserIDKey).(string)
	return userID, ok
}

// GetUserRole extracts user role from request context
func GetUserRole(ctx context.Context) (string, bool) {
	role, ok := ctx.Value(UserRoleKey).(string)
	return role, ok
}
