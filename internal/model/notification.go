package model

import (
	"time"

	"github.com/google/uuid"
)

type NotificationKind string

const (
	NotificationKindBooked    NotificationKind = "appointment_booked"
	NotificationKindUpdated   NotificationKind = "appointment_updated"
	NotificationKindCancelled NotificationKind = "appointment_cancelled"
)

// PushEvent is published on the message broker after a booking commits and is
// consumed by the push dispatcher worker.
type PushEvent struct {
	ID            uuid.UUID        `json:"id"`
	Kind          NotificationKind `json:"kind"`
	UserID        uuid.UUID        `json:"user_id"`
	AppointmentID uuid.UUID        `json:"appointment_id"`
	Title         string           `json:"title"`
	Body          string           `json:"body"`
	CreatedAt     time.Time        `json:"created_at"`
}
