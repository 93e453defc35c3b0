package handlers

import (
	"net/http"

	"github.com/anonto42/friendsbook/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// FeedHandler serves the home feed and user timelines
type FeedHandler struct {
	feeds *services.FeedService
}

// NewFeedHandler creates a new FeedHandler
func NewFeedHandler(feeds *services.FeedService) *FeedHandler {
	return &FeedHandler{feeds: feeds}
}

// RegisterFeedRoutes registers feed routes
func (h *FeedHandler) RegisterFeedRoutes(g *echo.Group) {
	g.GET("/feed", h.GetFeed)
	g.GET("/timeline/:userId", h.GetTimeline)
}

// GetFeed returns one page of posts by the caller and the caller's friends
func (h *FeedHandler) GetFeed(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	page, err := h.feeds.Feed(c.Request().Context(), userID, c.QueryParam("cursor"))
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, page)
}

// GetTimeline returns one page of a user's wall, or {restricted: true} for non-friends
func (h *FeedHandler) GetTimeline(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	ownerID, err := parseIDParam(c, "userId", "user")
	if err != nil {
		return err
	}

	page, err := h.feeds.Timeline(c.Request().Context(), userID, ownerID, c.QueryParam("cursor"))
	if err != nil {
		return mapError(err)
	}
	if page.Restricted {
		return c.JSON(http.StatusOK, echo.Map{"restricted": true})
	}
	return c.JSON(http.StatusOK, page.Page)
}
