package model

import "time"

// Task statuses. Closed set, enforced by input validation and the collection
// schema.
const (
	StatusOpen       = "open"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
)

// Task is a unit of maintenance work on a property. BookingID is a weak
// reference: a task may point at the booking that spawned it without owning
// or being owned by it.
type Task struct {
	ID          string     `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	PropertyID  string     `json:"property_id" bson:"property_id" validate:"required,mongodb"`
	BookingID   string     `json:"booking_id,omitempty" bson:"booking_id,omitempty" validate:"omitempty,mongodb"`
	Title       string     `json:"title" bson:"title" validate:"required,min=1,max=200"`
	Description string     `json:"description,omitempty" bson:"description,omitempty" validate:"omitempty,max=2000"`
	Status      string     `json:"status" bson:"status" validate:"required,oneof=open in_progress completed"`
	DueDate     *time.Time `json:"due_date,omitempty" bson:"due_date,omitempty"`
	CreatedAt   time.Time  `json:"created_at" bson:"created_at" validate:"omitempty"`
}

type TaskUpdate struct {
	Title       *string    `json:"title,omitempty" validate:"omitempty,min=1,max=200"`
	Description *string    `json:"description,omitempty" validate:"omitempty,max=2000"`
	Status      string     `json:"status,omitempty" validate:"omitempty,oneof=open in_progress completed"`
	DueDate     *time.Time `json:"due_date,omitempty"`
}
