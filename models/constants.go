package models

import "time"

// Inbound event names
const (
	EventCreateRoom       = "create room"
	EventJoinRoom         = "join room"
	EventReconnect        = "reconnect"
	EventLeaveRoom        = "leave room"
	EventUpdateCart       = "UPDATE_CART"
	EventOrderCompleted   = "ORDER_COMPLETED"
	EventLeaveAndRedirect = "leave_and_redirect"
)

// Outbound event types
const (
	EventTypeAck         = "ack"
	EventTypeCartUpdated = "CART_UPDATED"
	EventTypeRedirect    = "REDIRECT"
)

// Acknowledgement statuses
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Acknowledgement messages
const (
	MessageReconnected = "Reconnected successfully."
	MessageNoReconnect = "Nothing to reconnect."
	MessageLeft        = "User has left the room."
	MessageRedirecting = "Redirecting to thank you page."
)

// Default timings
const (
	DefaultGracePeriod   = 11 * time.Second
	DefaultRedirectDelay = 100 * time.Millisecond
	DefaultTeardownDelay = 500 * time.Millisecond
	DefaultEmptyRoomTTL  = 30 * time.Minute
)
