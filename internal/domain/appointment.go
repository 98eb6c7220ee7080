package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type AppointmentState string

const (
	AppointmentPending   AppointmentState = "pending"
	AppointmentConfirmed AppointmentState = "confirmed"
	AppointmentCompleted AppointmentState = "completed"
	AppointmentCancelled AppointmentState = "cancelled"
)

// Terminal reports whether no further transitions are allowed from s.
func (s AppointmentState) Terminal() bool {
	return s == AppointmentCompleted || s == AppointmentCancelled
}

// CanTransitionTo encodes the appointment lifecycle:
// pending -> confirmed | cancelled, confirmed -> completed | cancelled.
func (s AppointmentState) CanTransitionTo(next AppointmentState) bool {
	switch s {
	case AppointmentPending:
		return next == AppointmentConfirmed || next == AppointmentCancelled
	case AppointmentConfirmed:
		return next == AppointmentCompleted || next == AppointmentCancelled
	case AppointmentCompleted, AppointmentCancelled:
		return false
	default:
		return false
	}
}

type CancelActor string

const (
	CancelledByClient   CancelActor = "client"
	CancelledByBusiness CancelActor = "business"
)

type Appointment struct {
	bun.BaseModel `bun:"table:appointments"`

	ID              uuid.UUID        `bun:"id,pk,type:uuid"`
	BusinessID      int64            `bun:"business_id,notnull"`
	ClientID        int64            `bun:"client_id,notnull"`
	ServiceID       int64            `bun:"service_id,notnull"`
	Date            time.Time        `bun:"date,notnull,type:date"`
	StartTime       time.Time        `bun:"start_time,notnull"`
	DurationMinutes int              `bun:"duration_minutes,notnull"`
	State           AppointmentState `bun:"state,notnull"`
	ClientNotes     string           `bun:"client_notes"`
	BusinessNotes   string           `bun:"business_notes"`
	CreatedAt       time.Time        `bun:"created_at,notnull"`
	UpdatedAt       time.Time        `bun:"updated_at,notnull"`

	CancelledAt        *time.Time   `bun:"cancelled_at"`
	CancelledBy        *CancelActor `bun:"cancelled_by"`
	CancellationReason *string      `bun:"cancellation_reason"`
}

// End is the exclusive end of the reserved window. Duration is frozen at
// booking time: later edits to the service do not resize the appointment.
func (a Appointment) End() time.Time {
	return a.StartTime.Add(time.Duration(a.DurationMinutes) * time.Minute)
}

// Blocking reports whether the appointment occupies its slot for the
// purposes of the no-overlap invariant.
func (a Appointment) Blocking() bool {
	return a.State == AppointmentPending || a.State == AppointmentConfirmed
}

func (a *Appointment) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	now := time.Now().UTC()
	switch query.(type) {
	case *bun.InsertQuery:
		if a.ID == uuid.Nil {
			id, err := uuid.NewV7()
			if err != nil {
				return err
			}
			a.ID = id
		}
		if a.CreatedAt.IsZero() {
			a.CreatedAt = now
		}
		if a.UpdatedAt.IsZero() {
			a.UpdatedAt = now
		}
	case *bun.UpdateQuery:
		a.UpdatedAt = now
	}
	return nil
}
