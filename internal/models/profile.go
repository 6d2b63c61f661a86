package models

import "time"

// Profile is a participant identity ("addressee"). UserName is the display name
// shown in rooms; Name is the person's real name.
type Profile struct {
	ID           int64     `json:"id" gorm:"not null"`
	UUID         string    `json:"uuid" gorm:"primaryKey;type:varchar(36)" bson:"_id"`
	Name         string    `json:"name" gorm:"type:varchar(255)"`
	UserName     string    `json:"user_name" gorm:"type:varchar(255)" bson:"user_name"`
	UserImageURL string    `json:"user_image_url" gorm:"type:text" bson:"user_image_url"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at"`
}

func (Profile) TableName() string { return "profiles" }

type CreateProfileRequest struct {
	Name         string `json:"name" validate:"required,max=255"`
	UserName     string `json:"user_name" validate:"required,max=64"`
	UserImageURL string `json:"user_image_url" validate:"omitempty,url"`
}

type SessionResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	Profile   *Profile  `json:"profile"`
}
