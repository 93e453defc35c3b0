package handlers

import (
	"net/http"

	"github.com/anonto42/friendsbook/backend/internal/models"
	"github.com/anonto42/friendsbook/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// PostHandler handles HTTP requests related to posts
type PostHandler struct {
	content *services.ContentService
}

// NewPostHandler creates a new PostHandler
func NewPostHandler(content *services.ContentService) *PostHandler {
	return &PostHandler{content: content}
}

// RegisterPostRoutes registers post-related routes
func (h *PostHandler) RegisterPostRoutes(g *echo.Group) {
	g.POST("/posts", h.CreatePost)
	g.PUT("/posts/:id", h.UpdatePost)
	g.DELETE("/posts/:id", h.DeletePost)
}

// CreatePost creates a post on the caller's own timeline or on a friend's
func (h *PostHandler) CreatePost(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	var req models.CreatePostRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	post, err := h.content.CreatePost(c.Request().Context(), userID, &req)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusCreated, post)
}

// UpdatePost replaces the text of a post owned by the caller
func (h *PostHandler) UpdatePost(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	postID, err := parseIDParam(c, "id", "post")
	if err != nil {
		return err
	}

	var req models.UpdatePostRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	post, err := h.content.EditPost(c.Request().Context(), postID, userID, req.Content)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, post)
}

// DeletePost deletes a post together with its likes, comments and notifications
func (h *PostHandler) DeletePost(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	postID, err := parseIDParam(c, "id", "post")
	if err != nil {
		return err
	}

	if err := h.content.DeletePost(c.Request().Context(), postID, userID); err != nil {
		return mapError(err)
	}
	return success(c)
}
