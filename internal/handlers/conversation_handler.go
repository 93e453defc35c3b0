package handlers

import (
	"net/http"

	"github.com/anonto42/friendsbook/backend/internal/models"
	"github.com/anonto42/friendsbook/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// SocketIDHeader names the caller's realtime socket so its own sends are not echoed back
const SocketIDHeader = "X-Socket-ID"

// ConversationHandler handles direct messaging between friends
type ConversationHandler struct {
	conversations *services.ConversationService
	feeds         *services.FeedService
}

func NewConversationHandler(conversations *services.ConversationService, feeds *services.FeedService) *ConversationHandler {
	return &ConversationHandler{conversations: conversations, feeds: feeds}
}

func (h *ConversationHandler) RegisterConversationRoutes(g *echo.Group) {
	g.GET("/conversations", h.ListConversations)
	g.POST("/conversations", h.StartConversation)
	g.GET("/conversations/:id/messages", h.GetMessages)
	g.POST("/conversations/:id/messages", h.SendMessage)
}

// ListConversations returns the caller's conversations, most recently active first
func (h *ConversationHandler) ListConversations(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	conversations, err := h.conversations.List(c.Request().Context(), userID)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"conversations": conversations})
}

// StartConversation returns the conversation with a friend, creating it on first use
func (h *ConversationHandler) StartConversation(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	var req models.StartConversationRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	conversation, err := h.conversations.GetOrCreate(c.Request().Context(), userID, req.FriendID)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"conversation": conversation})
}

// GetMessages returns one page of history, oldest first within the page
func (h *ConversationHandler) GetMessages(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := parseIDParam(c, "id", "conversation")
	if err != nil {
		return err
	}

	page, err := h.feeds.History(c.Request().Context(), id, userID, c.QueryParam("cursor"))
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, page)
}

func (h *ConversationHandler) SendMessage(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := parseIDParam(c, "id", "conversation")
	if err != nil {
		return err
	}

	var req models.SendMessageRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	msg, err := h.conversations.Send(c.Request().Context(), id, userID, req.Content, c.Request().Header.Get(SocketIDHeader))
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"message": msg})
}
