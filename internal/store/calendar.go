package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"turnero/internal/domain"
)

// CalendarRepository owns the weekly business hours and the date-range
// blocks of a business, plus read access to the externally managed
// business and service records the booking engine needs to resolve.
type CalendarRepository interface {
	BusinessExists(ctx context.Context, businessID int64) (bool, error)

	GetService(ctx context.Context, serviceID int64) (domain.Service, error)
	ListActiveServices(ctx context.Context, businessID int64) ([]domain.Service, error)

	// ActiveHoursForWeekday returns ErrNotFound when the business has no
	// active hours on that weekday; callers treat that as a closed day.
	ActiveHoursForWeekday(ctx context.Context, businessID int64, weekday time.Weekday) (domain.BusinessHours, error)
	ListHours(ctx context.Context, businessID int64, onlyActive bool) ([]domain.BusinessHours, error)
	// CreateHours returns ErrConflict when an active row for the weekday
	// already exists.
	CreateHours(ctx context.Context, hours domain.BusinessHours) (domain.BusinessHours, error)
	UpdateHours(ctx context.Context, hours domain.BusinessHours) (domain.BusinessHours, error)

	GetBlock(ctx context.Context, id uuid.UUID) (domain.Block, error)
	// ListBlocksInRange returns active blocks whose date range intersects
	// [dateFrom, dateTo], ordered by date_start.
	ListBlocksInRange(ctx context.Context, businessID int64, dateFrom, dateTo time.Time) ([]domain.Block, error)
	CreateBlock(ctx context.Context, block domain.Block) (domain.Block, error)
	UpdateBlock(ctx context.Context, block domain.Block) (domain.Block, error)
}
