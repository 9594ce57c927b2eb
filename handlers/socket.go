package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/Arvi89/shared-cart/models"
	"github.com/Arvi89/shared-cart/session"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// inboundFrame is a named event sent by a client
type inboundFrame struct {
	Event string          `json:"event"`
	AckID string          `json:"ackId"`
	Data  json.RawMessage `json:"data"`
}

type roomRequest struct {
	RoomID   string `json:"roomId"`
	Username string `json:"username"`
}

type updateCartRequest struct {
	RoomID    string            `json:"roomId"`
	Username  string            `json:"username"`
	CartList  []models.CartItem `json:"cartList"`
	CartPrice float64           `json:"cartPrice"`
}

type checkoutRequest struct {
	RoomID  string `json:"roomId"`
	StoreID int64  `json:"storeId"`
	OrderID int64  `json:"orderId"`
}

// StreamSocket upgrades the request to a websocket and serves room events on it
func (h *RoomHandler) StreamSocket(c *gin.Context) {
	// Upgrade writes its own HTTP error response on failure
	conn, err := wsUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("websocket upgrade failed: %v", err)
		return
	}

	cl := newClient(models.ConnectionID(uuid.NewString()), conn, h.opts.SendBuffer)
	h.transport.register(cl)

	go cl.writePump(h.opts.PingInterval)
	h.readPump(cl)
}

// readPump dispatches incoming frames until the client goes away
func (h *RoomHandler) readPump(cl *client) {
	defer func() {
		close(cl.done)
		h.transport.unregister(cl.id)

		ctx, cancel := h.requestContext(context.Background())
		defer cancel()
		if err := h.hub.Disconnect(ctx, cl.id); err != nil && !errors.Is(err, session.ErrHubStopped) {
			log.Printf("disconnect of %s failed: %v", cl.id, err)
		}
	}()

	for {
		_, message, err := cl.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("websocket %s closed: %v", cl.id, err)
			}
			return
		}

		var frame inboundFrame
		if err := json.Unmarshal(message, &frame); err != nil {
			_ = cl.enqueue(ackEvent("", errorAck(errors.New("invalid frame payload"))))
			continue
		}

		ctx, cancel := h.requestContext(context.Background())
		ack := h.dispatch(ctx, cl.id, frame)
		cancel()

		_ = cl.enqueue(ackEvent(frame.AckID, ack))
	}
}

// dispatch runs a single event and builds its acknowledgement
func (h *RoomHandler) dispatch(ctx context.Context, conn models.ConnectionID, frame inboundFrame) gin.H {
	switch frame.Event {
	case models.EventCreateRoom:
		roomID, err := h.hub.CreateRoom(ctx)
		if err != nil {
			return errorAck(err)
		}
		return gin.H{"status": models.StatusSuccess, "roomId": roomID}

	case models.EventJoinRoom:
		var req roomRequest
		if err := decodeData(frame, &req); err != nil {
			return errorAck(err)
		}
		snapshot, err := h.hub.Join(ctx, req.RoomID, req.Username, conn)
		if err != nil {
			return errorAck(err)
		}
		return gin.H{
			"status":         models.StatusSuccess,
			"sharedCartList": snapshot.SharedCartList,
			"members":        snapshot.Members,
		}

	case models.EventReconnect:
		var req roomRequest
		if err := decodeData(frame, &req); err != nil {
			return errorAck(err)
		}
		message, err := h.hub.Reconnect(ctx, req.RoomID, req.Username, conn)
		if err != nil {
			return errorAck(err)
		}
		return messageAck(message)

	case models.EventLeaveRoom:
		var req roomRequest
		if err := decodeData(frame, &req); err != nil {
			return errorAck(err)
		}
		message, err := h.hub.Leave(ctx, req.RoomID, req.Username)
		if err != nil {
			return errorAck(err)
		}
		return messageAck(message)

	case models.EventUpdateCart:
		var req updateCartRequest
		if err := decodeData(frame, &req); err != nil {
			return errorAck(err)
		}
		carts, err := h.hub.UpdateCart(ctx, req.RoomID, req.Username, req.CartList, req.CartPrice)
		if err != nil {
			return errorAck(err)
		}
		return gin.H{"status": models.StatusSuccess, "sharedCartList": carts}

	case models.EventOrderCompleted, models.EventLeaveAndRedirect:
		var req checkoutRequest
		if err := decodeData(frame, &req); err != nil {
			return errorAck(err)
		}
		message, err := h.hub.CompleteCheckout(ctx, req.RoomID, req.StoreID, req.OrderID)
		if err != nil {
			return errorAck(err)
		}
		return messageAck(message)

	default:
		return errorAck(fmt.Errorf("unsupported event %q", frame.Event))
	}
}

func decodeData(frame inboundFrame, target any) error {
	if len(frame.Data) == 0 {
		return fmt.Errorf("%s: missing data", frame.Event)
	}
	if err := json.Unmarshal(frame.Data, target); err != nil {
		return fmt.Errorf("%s: invalid data: %w", frame.Event, err)
	}
	return nil
}

func ackEvent(ackID string, payload gin.H) models.Event {
	return models.Event{
		Type:    models.EventTypeAck,
		AckID:   ackID,
		Payload: payload,
	}
}

func messageAck(message string) gin.H {
	return gin.H{"status": models.StatusSuccess, "message": message}
}

func errorAck(err error) gin.H {
	return gin.H{"status": models.StatusError, "message": err.Error()}
}
