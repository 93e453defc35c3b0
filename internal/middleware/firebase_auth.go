package middleware

import (
	"context"
	"net/http"

	"firebase.google.com/go/v4/auth"
	"github.com/anonto42/friendsbook/backend/internal/models"
	"github.com/labstack/echo/v4"
)

// IDTokenVerifier is the part of *auth.Client the gateway needs
type IDTokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// UserResolver maps a verified Firebase identity onto a local user
type UserResolver interface {
	ResolveFirebaseUser(ctx context.Context, uid, email, displayName string) (*models.User, error)
}

// FirebaseAuthMiddleware verifies Firebase ID tokens and stores the local user id under UserIDKey
func FirebaseAuthMiddleware(verifier IDTokenVerifier, users UserResolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			idToken, err := bearerToken(c)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
			}

			ctx := c.Request().Context()
			token, err := verifier.VerifyIDToken(ctx, idToken)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid or expired ID token")
			}

			email, name := FirebaseIdentity(token)
			user, err := users.ResolveFirebaseUser(ctx, token.UID, email, name)
			if err != nil {
				return echo.NewHTTPError(http.StatusInternalServerError, "Failed to resolve user").SetInternal(err)
			}

			c.Set("firebaseUID", token.UID)
			c.Set(UserIDKey, user.ID)
			return next(c)
		}
	}
}

// FirebaseIdentity pulls the optional email and display name claims out of a verified token
func FirebaseIdentity(token *auth.Token) (email, name string) {
	email, _ = token.Claims["email"].(string)
	name, _ = token.Claims["name"].(string)
	return email, name
}
