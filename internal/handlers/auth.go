package handlers

import (
	"net/http"

	"github.com/anonto42/friendsbook/backend/internal/middleware"
	"github.com/anonto42/friendsbook/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// AuthHandler exchanges an external identity for a local session token
type AuthHandler struct {
	verifier middleware.IDTokenVerifier
	users    *services.UserService
	tokens   *middleware.TokenIssuer
}

// NewAuthHandler creates a new AuthHandler. verifier may be nil when Firebase is not configured.
func NewAuthHandler(verifier middleware.IDTokenVerifier, users *services.UserService, tokens *middleware.TokenIssuer) *AuthHandler {
	return &AuthHandler{verifier: verifier, users: users, tokens: tokens}
}

// RegisterAuthRoutes registers authentication-related routes
func (h *AuthHandler) RegisterAuthRoutes(g *echo.Group) {
	g.POST("/firebase-login", h.FirebaseLogin)
}

// FirebaseLoginRequest defines the request body for Firebase login
type FirebaseLoginRequest struct {
	IDToken string `json:"idToken" validate:"required"`
}

// FirebaseLogin handles Firebase ID token verification and issues a local JWT
func (h *AuthHandler) FirebaseLogin(c echo.Context) error {
	if h.verifier == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "Firebase login is not configured")
	}

	var req FirebaseLoginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	token, err := h.verifier.VerifyIDToken(ctx, req.IDToken)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid Firebase ID token")
	}

	email, name := middleware.FirebaseIdentity(token)
	user, err := h.users.ResolveFirebaseUser(ctx, token.UID, email, name)
	if err != nil {
		return mapError(err)
	}

	localJWT, err := h.tokens.Issue(user)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to generate local JWT").SetInternal(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"token": localJWT, "user": user})
}
