package handlers

import (
	"net/http"
	"strconv"

	"github.com/anonto42/friendsbook/backend/internal/models"
	"github.com/anonto42/friendsbook/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// CommentHandler handles comment-related HTTP requests
type CommentHandler struct {
	content *services.ContentService
}

// NewCommentHandler creates a new CommentHandler
func NewCommentHandler(content *services.ContentService) *CommentHandler {
	return &CommentHandler{content: content}
}

// RegisterCommentRoutes registers comment routes
func (h *CommentHandler) RegisterCommentRoutes(g *echo.Group) {
	g.GET("/posts/:id/comments", h.GetComments)
	g.POST("/posts/:id/comments", h.CreateComment)
	g.DELETE("/posts/:id/comments", h.DeleteComment)
	g.DELETE("/posts/:id/comments/:commentId", h.DeleteComment)
}

// GetComments returns a post's comments, oldest first
func (h *CommentHandler) GetComments(c echo.Context) error {
	if _, err := currentUser(c); err != nil {
		return err
	}
	postID, err := parseIDParam(c, "id", "post")
	if err != nil {
		return err
	}

	comments, err := h.content.ListComments(c.Request().Context(), postID)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"comments": comments})
}

// CreateComment adds a comment to a post
func (h *CommentHandler) CreateComment(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	postID, err := parseIDParam(c, "id", "post")
	if err != nil {
		return err
	}

	var req models.CreateCommentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	comment, err := h.content.AddComment(c.Request().Context(), postID, userID, req.Content)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusCreated, comment)
}

// DeleteComment deletes one of the caller's comments. The comment id comes from
// the path or, for older clients, from the JSON body.
func (h *CommentHandler) DeleteComment(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	postID, err := parseIDParam(c, "id", "post")
	if err != nil {
		return err
	}

	var commentID uint
	if raw := c.Param("commentId"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid comment ID")
		}
		commentID = uint(id)
	} else {
		var req models.DeleteCommentRequest
		if err := c.Bind(&req); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
		}
		commentID = req.CommentID
	}
	if commentID == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "commentId is required")
	}

	if err := h.content.DeleteComment(c.Request().Context(), postID, commentID, userID); err != nil {
		return mapError(err)
	}
	return success(c)
}
