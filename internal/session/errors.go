package session

import "errors"

var (
	ErrRoomNotFound     = errors.New("room not found")
	ErrMalformedMessage = errors.New("malformed message")
	ErrDelivery         = errors.New("delivery failed")
)
