package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/Arvi89/shared-cart/models"
	"github.com/Arvi89/shared-cart/session"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// Package-level WebSocket upgrader
var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins
	},
}

// standardResponse sends a consistent JSON response
func standardResponse(c *gin.Context, code int, status string, data interface{}, err string) {
	response := gin.H{"status": status}

	if data != nil {
		response["data"] = data
	}

	if err != "" {
		response["error"] = err
	}

	c.JSON(code, response)
}

// Options configures the room handler
type Options struct {
	PingInterval   time.Duration
	SendBuffer     int
	RequestTimeout time.Duration
}

// RoomHandler handles all room-related requests
type RoomHandler struct {
	hub       *session.Hub
	transport *SocketTransport
	opts      Options
}

// NewRoomHandler creates a new RoomHandler
func NewRoomHandler(hub *session.Hub, transport *SocketTransport, opts Options) *RoomHandler {
	if opts.PingInterval <= 0 {
		opts.PingInterval = 15 * time.Second
	}
	if opts.SendBuffer <= 0 {
		opts.SendBuffer = 16
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 5 * time.Second
	}

	return &RoomHandler{
		hub:       hub,
		transport: transport,
		opts:      opts,
	}
}

// RegisterRoutes mounts the REST and websocket routes
func (h *RoomHandler) RegisterRoutes(router gin.IRouter) {
	router.GET("/health", h.Health)
	router.GET("/ws", h.StreamSocket)

	api := router.Group("/api")
	{
		api.POST("/rooms", h.CreateRoom)

		rooms := api.Group("/rooms/:id")
		{
			rooms.GET("", h.GetRoom)
			rooms.POST("/checkout", h.CompleteCheckout)
		}
	}
}

// Health reports that the server is up
func (h *RoomHandler) Health(c *gin.Context) {
	c.Status(http.StatusOK)
}

// CreateRoom handles room creation requests
func (h *RoomHandler) CreateRoom(c *gin.Context) {
	ctx, cancel := h.requestContext(c.Request.Context())
	defer cancel()

	roomID, err := h.hub.CreateRoom(ctx)
	if err != nil {
		standardResponse(c, statusFor(err), "error", nil, err.Error())
		return
	}

	standardResponse(c, http.StatusCreated, "created", gin.H{"roomId": roomID}, "")
}

// GetRoom returns the carts and members of a room
func (h *RoomHandler) GetRoom(c *gin.Context) {
	ctx, cancel := h.requestContext(c.Request.Context())
	defer cancel()

	snapshot, err := h.hub.Snapshot(ctx, c.Param("id"))
	if err != nil {
		standardResponse(c, statusFor(err), "error", nil, err.Error())
		return
	}

	standardResponse(c, http.StatusOK, "ok", snapshot, "")
}

// CompleteCheckout is called by the order service once an order for the room was stored
func (h *RoomHandler) CompleteCheckout(c *gin.Context) {
	var req struct {
		StoreID int64 `json:"storeId" binding:"required"`
		OrderID int64 `json:"orderId" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		standardResponse(c, http.StatusBadRequest, "error", nil, "Invalid request format")
		return
	}

	ctx, cancel := h.requestContext(c.Request.Context())
	defer cancel()

	message, err := h.hub.CompleteCheckout(ctx, c.Param("id"), req.StoreID, req.OrderID)
	if err != nil {
		standardResponse(c, statusFor(err), "error", nil, err.Error())
		return
	}

	standardResponse(c, http.StatusOK, "redirecting", gin.H{"message": message}, "")
}

func (h *RoomHandler) requestContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, h.opts.RequestTimeout)
}

// statusFor maps session errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrRoomNotFound), errors.Is(err, models.ErrMemberNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrInvalidCart), errors.Is(err, models.ErrInvalidName):
		return http.StatusBadRequest
	case errors.Is(err, session.ErrHubStopped),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
