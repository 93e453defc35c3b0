package handlers

import (
	"net/http"

	"github.com/anonto42/friendsbook/backend/internal/models"
	"github.com/anonto42/friendsbook/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// FriendshipHandler handles HTTP requests related to friendships
type FriendshipHandler struct {
	friendships *services.FriendshipService
}

// NewFriendshipHandler creates a new FriendshipHandler
func NewFriendshipHandler(friendships *services.FriendshipService) *FriendshipHandler {
	return &FriendshipHandler{friendships: friendships}
}

// RegisterFriendshipRoutes registers friendship-related routes
func (h *FriendshipHandler) RegisterFriendshipRoutes(g *echo.Group) {
	g.POST("/friends", h.SendFriendRequest)
	g.GET("/friends", h.GetFriends)
	g.PATCH("/friends/:id", h.RespondToFriendRequest)
	g.DELETE("/friends/:id", h.DeleteFriendship) // cancel, decline or unfriend
}

// SendFriendRequest handles sending a friend request
func (h *FriendshipHandler) SendFriendRequest(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	var req models.CreateFriendRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	friendship, err := h.friendships.Request(c.Request().Context(), userID, req.AddresseeID)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"friendship": friendship})
}

// RespondToFriendRequest accepts or rejects a pending request addressed to the caller
func (h *FriendshipHandler) RespondToFriendRequest(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := parseIDParam(c, "id", "friendship")
	if err != nil {
		return err
	}

	var req models.RespondFriendRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	friendship, err := h.friendships.Respond(c.Request().Context(), id, userID, req.Action)
	if err != nil {
		return mapError(err)
	}
	if friendship == nil {
		return success(c)
	}
	return c.JSON(http.StatusOK, echo.Map{"friendship": friendship})
}

// DeleteFriendship removes the friendship row for either participant
func (h *FriendshipHandler) DeleteFriendship(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := parseIDParam(c, "id", "friendship")
	if err != nil {
		return err
	}

	if err := h.friendships.Terminate(c.Request().Context(), id, userID); err != nil {
		return mapError(err)
	}
	return success(c)
}

// GetFriends lists accepted friends, incoming requests or sent requests depending on ?type=
func (h *FriendshipHandler) GetFriends(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	switch c.QueryParam("type") {
	case "requests":
		requests, err := h.friendships.IncomingRequests(ctx, userID)
		if err != nil {
			return mapError(err)
		}
		return c.JSON(http.StatusOK, echo.Map{"requests": requests})
	case "sent":
		sent, err := h.friendships.OutgoingRequests(ctx, userID)
		if err != nil {
			return mapError(err)
		}
		return c.JSON(http.StatusOK, echo.Map{"sent": sent})
	case "", "friends":
		friends, err := h.friendships.Friends(ctx, userID)
		if err != nil {
			return mapError(err)
		}
		return c.JSON(http.StatusOK, echo.Map{"friends": friends})
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid list type")
	}
}
