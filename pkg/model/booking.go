package model

import "time"

// Booking sources. Source is free text on manual bookings ("direct",
// "airbnb", ...); SourceICal is reserved for rows the sync reconciler
// imports from a calendar feed.
const (
	SourceICal   = "ical"
	SourceDirect = "direct"
)

// Booking occupies a property between two calendar dates. StartDate and
// EndDate carry date-only semantics: they are stored truncated to UTC
// midnight. ExternalUID is globally unique when present and is the sole
// dedup key for feed-imported bookings.
type Booking struct {
	ID          string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	PropertyID  string    `json:"property_id" bson:"property_id" validate:"required,mongodb"`
	StartDate   time.Time `json:"start_date" bson:"start_date" validate:"required"`
	EndDate     time.Time `json:"end_date" bson:"end_date" validate:"required"`
	Source      string    `json:"source" bson:"source" validate:"required,min=1,max=50"`
	ExternalUID string    `json:"external_uid,omitempty" bson:"external_uid,omitempty"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at" validate:"omitempty"`
}

// SyncResult reports exactly how many rows one reconciler pass inserted.
type SyncResult struct {
	NewBookings int `json:"new_bookings"`
	NewTasks    int `json:"new_tasks"`
}
