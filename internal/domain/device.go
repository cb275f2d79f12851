package domain

import "time"

// Device records provenance for tags created on it. Purely informational:
// conflict resolution never consults the device registry.
type Device struct {
	ID         string    `bson:"id" json:"id"`
	UserID     string    `bson:"userId" json:"user_id"`
	Name       string    `bson:"name" json:"name"`
	Type       string    `bson:"type" json:"type"`
	OS         string    `bson:"os" json:"os"`
	AppVersion string    `bson:"appVersion" json:"app_version"`
	LastActive time.Time `bson:"lastActive" json:"last_active"`
	CreatedAt  time.Time `bson:"createdAt" json:"created_at"`
	IsRevoked  bool      `bson:"isRevoked" json:"is_revoked"`
}

type RegisterDeviceRequest struct {
	Name       string `json:"name" validate:"required"`
	Type       string `json:"type" validate:"required"`
	OS         string `json:"os" validate:"required"`
	AppVersion string `json:"app_version" validate:"required"`
}

type DeviceResponse struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Type       string    `json:"type"`
	OS         string    `json:"os"`
	LastActive time.Time `json:"last_active"`
	IsRevoked  bool      `json:"is_revoked"`
}
