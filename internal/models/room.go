package models

type CreateRoomRequest struct {
	Name   string `json:"name" validate:"required,max=128"`
	Public bool   `json:"public"`
}

type CreateRoomResponse struct {
	ID string `json:"id"`
}

// RoomInfo is a read-only snapshot of a room.
type RoomInfo struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Public       bool   `json:"public"`
	Participants int    `json:"participants"`
}
