package handlers

import (
	"net/http"

	"github.com/anonto42/friendsbook/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// LikeHandler handles like toggling
type LikeHandler struct {
	content *services.ContentService
}

func NewLikeHandler(content *services.ContentService) *LikeHandler {
	return &LikeHandler{content: content}
}

func (h *LikeHandler) RegisterLikeRoutes(g *echo.Group) {
	g.POST("/posts/:id/like", h.ToggleLike)
}

// ToggleLike likes the post if the caller has not yet, otherwise removes the like
func (h *LikeHandler) ToggleLike(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	postID, err := parseIDParam(c, "id", "post")
	if err != nil {
		return err
	}

	result, err := h.content.ToggleLike(c.Request().Context(), postID, userID)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, result)
}
