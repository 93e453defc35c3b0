package handlers

import (
	"net/http"
	"strings"

	"github.com/anonto42/friendsbook/backend/internal/realtime"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// RealtimeHandler issues channel grants and upgrades subscriber sockets
type RealtimeHandler struct {
	broker *realtime.Broker
	logger *zap.Logger
}

func NewRealtimeHandler(broker *realtime.Broker, logger *zap.Logger) *RealtimeHandler {
	return &RealtimeHandler{broker: broker, logger: logger}
}

func (h *RealtimeHandler) RegisterRealtimeRoutes(g *echo.Group) {
	g.POST("/realtime/auth", h.AuthorizeChannel)
	g.GET("/realtime/ws", h.Connect)
}

// channelAuthRequest accepts both the JSON body and the form-encoded body sent by socket clients
type channelAuthRequest struct {
	SocketID    string `json:"socketId" form:"socket_id"`
	ChannelName string `json:"channelName" form:"channel_name"`
}

// AuthorizeChannel signs a grant binding the caller's socket to one channel
func (h *RealtimeHandler) AuthorizeChannel(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	var req channelAuthRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	req.SocketID = strings.TrimSpace(req.SocketID)
	req.ChannelName = strings.TrimSpace(req.ChannelName)
	if req.SocketID == "" || req.ChannelName == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Missing params")
	}

	grant, err := h.broker.Authorizer().Authorize(c.Request().Context(), userID, req.SocketID, req.ChannelName)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"auth": grant})
}

// Connect upgrades to a websocket. The upgrader writes its own error response on failure.
func (h *RealtimeHandler) Connect(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	if err := h.broker.ServeWS(c.Response(), c.Request(), userID); err != nil {
		h.logger.Debug("websocket upgrade failed", zap.Uint("user_id", userID), zap.Error(err))
	}
	return nil
}
