package models

import "errors"

// Common errors
var (
	ErrRoomNotFound   = errors.New("room does not exist")
	ErrMemberNotFound = errors.New("user not found in shared cart")
	ErrAlreadyMember  = errors.New("user is already joined in this room")
	ErrInvalidCart    = errors.New("invalid cart contents")
	ErrInvalidName    = errors.New("invalid username")
)
