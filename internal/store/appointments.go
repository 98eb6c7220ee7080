package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"turnero/internal/domain"
)

// AppointmentFilter is a conjunction of predicates; nil fields do not
// filter.
type AppointmentFilter struct {
	ClientID   *int64
	BusinessID *int64
	ServiceID  *int64
	State      *domain.AppointmentState
	DateFrom   *time.Time
	DateTo     *time.Time
}

// AppointmentRepository persists appointments. Create and Update run
// inside a transaction holding a per-business advisory lock and surface
// the store-level no-overlap constraint as ErrConflict; they are the only
// writes the booking invariant depends on.
type AppointmentRepository interface {
	Create(ctx context.Context, appt domain.Appointment) (domain.Appointment, error)
	Update(ctx context.Context, appt domain.Appointment) (domain.Appointment, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.Appointment, error)

	// ListBusy returns the pending and confirmed appointments of a
	// business on one date, ordered by start time.
	ListBusy(ctx context.Context, businessID int64, date time.Time) ([]domain.Appointment, error)

	ListPage(ctx context.Context, filter AppointmentFilter, page, pageSize int) (Page[domain.Appointment], error)
}
