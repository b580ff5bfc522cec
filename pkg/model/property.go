package model

import "time"

// Property is owned by exactly one user. CalendarURL, when set, points at an
// external iCal feed the sync reconciler imports bookings from.
type Property struct {
	ID          string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	OwnerID     string    `json:"owner_id" bson:"owner_id" validate:"omitempty,mongodb"`
	Name        string    `json:"name" bson:"name" validate:"required,min=2,max=100"`
	Address     string    `json:"address" bson:"address" validate:"required,min=2,max=200"`
	ImageURL    string    `json:"image_url,omitempty" bson:"image_url,omitempty" validate:"omitempty,url"`
	CalendarURL string    `json:"calendar_url,omitempty" bson:"calendar_url,omitempty" validate:"omitempty,url"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at" validate:"omitempty"`
}

type PropertyUpdate struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,min=2,max=100"`
	Address     *string `json:"address,omitempty" validate:"omitempty,min=2,max=200"`
	ImageURL    *string `json:"image_url,omitempty" validate:"omitempty"`
	CalendarURL *string `json:"calendar_url,omitempty" validate:"omitempty"`
}
