package handlers

import (
	"net/http"
	"strconv"

	"github.com/anonto42/friendsbook/backend/internal/models"
	"github.com/anonto42/friendsbook/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// UserHandler handles HTTP requests related to users
type UserHandler struct {
	users       *services.UserService
	friendships *services.FriendshipService
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(users *services.UserService, friendships *services.FriendshipService) *UserHandler {
	return &UserHandler{users: users, friendships: friendships}
}

// RegisterProfileRoutes registers user profile-related routes
func (h *UserHandler) RegisterProfileRoutes(g *echo.Group) {
	g.GET("/profile", h.GetProfile)
	g.PUT("/profile", h.UpdateProfile)
	g.GET("/users/search", h.SearchUsers)
	g.GET("/users/suggestions", h.GetSuggestions)
	g.GET("/users/:id", h.GetUser)
	g.GET("/users/:id/friends", h.GetUserFriends)
}

// GetUser returns a profile with the caller's relation to it
func (h *UserHandler) GetUser(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := parseIDParam(c, "id", "user")
	if err != nil {
		return err
	}

	profile, err := h.users.Profile(c.Request().Context(), userID, id)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, profile)
}

// GetProfile retrieves the authenticated user's profile
func (h *UserHandler) GetProfile(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	user, err := h.users.GetUser(c.Request().Context(), userID)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, user)
}

// UpdateProfile updates the authenticated user's profile
func (h *UserHandler) UpdateProfile(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	var req models.UpdateProfileRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := h.users.UpdateProfile(c.Request().Context(), userID, &req)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, user)
}

// GetUserFriends returns a handful of a user's friends plus the total count
func (h *UserHandler) GetUserFriends(c echo.Context) error {
	if _, err := currentUser(c); err != nil {
		return err
	}
	id, err := parseIDParam(c, "id", "user")
	if err != nil {
		return err
	}

	friends, total, err := h.users.UserFriends(c.Request().Context(), id)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"friends": friends, "total": total})
}

// SearchUsers searches other users by first and last name
func (h *UserHandler) SearchUsers(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	users, err := h.users.Search(c.Request().Context(), userID, c.QueryParam("q"))
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"users": users})
}

// GetSuggestions returns friends-of-friends ranked by mutual friend count
func (h *UserHandler) GetSuggestions(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	suggestions, err := h.friendships.Suggest(c.Request().Context(), userID, limit)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"suggestions": suggestions})
}
