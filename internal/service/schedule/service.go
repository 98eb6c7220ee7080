package schedule

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"turnero/internal/domain"
	"turnero/internal/store"
)

type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string {
	return e.msg
}

func validationError(msg string) error {
	return &ValidationError{msg: msg}
}

// CacheInvalidator lets calendar writes drop stale availability days; the
// booking side owns the cache itself.
type CacheInvalidator interface {
	InvalidateDay(ctx context.Context, businessID int64, date time.Time)
}

// Service manages the weekly hours and date-range blocks of a business.
// Both are soft-deactivated, never deleted, so slot computations for past
// dates stay reproducible.
type Service struct {
	calendar    store.CalendarRepository
	invalidator CacheInvalidator
}

func NewService(calendar store.CalendarRepository, invalidator CacheInvalidator) *Service {
	return &Service{calendar: calendar, invalidator: invalidator}
}

type HoursInput struct {
	BusinessID int64
	Weekday    time.Weekday
	Open       domain.MinuteOfDay
	Close      domain.MinuteOfDay
}

func (s *Service) CreateHours(ctx context.Context, in HoursInput) (domain.BusinessHours, error) {
	if err := s.validateHours(ctx, in); err != nil {
		return domain.BusinessHours{}, err
	}

	return s.calendar.CreateHours(ctx, domain.BusinessHours{
		BusinessID: in.BusinessID,
		Weekday:    in.Weekday,
		Open:       in.Open,
		Close:      in.Close,
		Active:     true,
	})
}

// UpdateHours rewrites the open/close window of the active row for a
// weekday. Existing appointments booked under the old hours are never
// invalidated; only future slot generation changes.
func (s *Service) UpdateHours(ctx context.Context, in HoursInput) (domain.BusinessHours, error) {
	if err := s.validateHours(ctx, in); err != nil {
		return domain.BusinessHours{}, err
	}

	hours, err := s.calendar.ActiveHoursForWeekday(ctx, in.BusinessID, in.Weekday)
	if err != nil {
		return domain.BusinessHours{}, err
	}
	hours.Open = in.Open
	hours.Close = in.Close
	return s.calendar.UpdateHours(ctx, hours)
}

func (s *Service) DeactivateHours(ctx context.Context, businessID int64, weekday time.Weekday) (domain.BusinessHours, error) {
	if businessID <= 0 {
		return domain.BusinessHours{}, validationError("business_id is required")
	}
	if weekday < time.Sunday || weekday > time.Saturday {
		return domain.BusinessHours{}, validationError("invalid weekday")
	}

	hours, err := s.calendar.ActiveHoursForWeekday(ctx, businessID, weekday)
	if err != nil {
		return domain.BusinessHours{}, err
	}
	hours.Active = false
	return s.calendar.UpdateHours(ctx, hours)
}

func (s *Service) ListHours(ctx context.Context, businessID int64, onlyActive bool) ([]domain.BusinessHours, error) {
	if businessID <= 0 {
		return nil, validationError("business_id is required")
	}
	return s.calendar.ListHours(ctx, businessID, onlyActive)
}

func (s *Service) validateHours(ctx context.Context, in HoursInput) error {
	if in.BusinessID <= 0 {
		return validationError("business_id is required")
	}
	if in.Weekday < time.Sunday || in.Weekday > time.Saturday {
		return validationError("invalid weekday")
	}
	if !in.Open.Valid() {
		return validationError("open must be within the day")
	}
	if in.Close <= 0 || in.Close > 24*60 {
		return validationError("close must be within the day")
	}
	if in.Open >= in.Close {
		return validationError("open must be before close")
	}

	exists, err := s.calendar.BusinessExists(ctx, in.BusinessID)
	if err != nil {
		return err
	}
	if !exists {
		return store.ErrNotFound
	}
	return nil
}

type BlockInput struct {
	BusinessID int64
	DateStart  time.Time
	DateEnd    time.Time
	TimeStart  *domain.MinuteOfDay
	TimeEnd    *domain.MinuteOfDay
	Reason     string
	Kind       domain.BlockKind
}

func (s *Service) CreateBlock(ctx context.Context, in BlockInput) (domain.Block, error) {
	if err := s.validateBlock(ctx, in); err != nil {
		return domain.Block{}, err
	}

	kind := in.Kind
	if kind == "" {
		kind = domain.BlockOther
	}

	block, err := s.calendar.CreateBlock(ctx, domain.Block{
		BusinessID: in.BusinessID,
		DateStart:  domain.DateOf(in.DateStart),
		DateEnd:    domain.DateOf(in.DateEnd),
		TimeStart:  in.TimeStart,
		TimeEnd:    in.TimeEnd,
		Reason:     strings.TrimSpace(in.Reason),
		Kind:       kind,
		Active:     true,
	})
	if err != nil {
		return domain.Block{}, err
	}

	s.invalidateRange(ctx, block.BusinessID, block.DateStart, block.DateEnd)
	return block, nil
}

func (s *Service) UpdateBlock(ctx context.Context, blockID uuid.UUID, in BlockInput) (domain.Block, error) {
	if blockID == uuid.Nil {
		return domain.Block{}, validationError("block_id is required")
	}

	block, err := s.calendar.GetBlock(ctx, blockID)
	if err != nil {
		return domain.Block{}, err
	}

	in.BusinessID = block.BusinessID
	if err := s.validateBlock(ctx, in); err != nil {
		return domain.Block{}, err
	}

	oldStart, oldEnd := block.DateStart, block.DateEnd

	block.DateStart = domain.DateOf(in.DateStart)
	block.DateEnd = domain.DateOf(in.DateEnd)
	block.TimeStart = in.TimeStart
	block.TimeEnd = in.TimeEnd
	block.Reason = strings.TrimSpace(in.Reason)
	if in.Kind != "" {
		block.Kind = in.Kind
	}

	updated, err := s.calendar.UpdateBlock(ctx, block)
	if err != nil {
		return domain.Block{}, err
	}

	s.invalidateRange(ctx, updated.BusinessID, oldStart, oldEnd)
	s.invalidateRange(ctx, updated.BusinessID, updated.DateStart, updated.DateEnd)
	return updated, nil
}

func (s *Service) DeactivateBlock(ctx context.Context, blockID uuid.UUID) (domain.Block, error) {
	if blockID == uuid.Nil {
		return domain.Block{}, validationError("block_id is required")
	}

	block, err := s.calendar.GetBlock(ctx, blockID)
	if err != nil {
		return domain.Block{}, err
	}
	block.Active = false

	updated, err := s.calendar.UpdateBlock(ctx, block)
	if err != nil {
		return domain.Block{}, err
	}

	s.invalidateRange(ctx, updated.BusinessID, updated.DateStart, updated.DateEnd)
	return updated, nil
}

func (s *Service) ListBlocks(ctx context.Context, businessID int64, dateFrom, dateTo *time.Time) ([]domain.Block, error) {
	if businessID <= 0 {
		return nil, validationError("business_id is required")
	}

	from := time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC)
	if dateFrom != nil {
		from = *dateFrom
	}
	if dateTo != nil {
		to = *dateTo
	}
	return s.calendar.ListBlocksInRange(ctx, businessID, from, to)
}

func (s *Service) validateBlock(ctx context.Context, in BlockInput) error {
	if in.BusinessID <= 0 {
		return validationError("business_id is required")
	}
	if in.DateStart.IsZero() || in.DateEnd.IsZero() {
		return validationError("date_start and date_end are required")
	}
	if domain.DateOf(in.DateEnd).Before(domain.DateOf(in.DateStart)) {
		return validationError("date_end must not be before date_start")
	}
	if (in.TimeStart == nil) != (in.TimeEnd == nil) {
		return validationError("time_start and time_end must be set together")
	}
	if in.TimeStart != nil {
		if !in.TimeStart.Valid() || *in.TimeEnd <= 0 || *in.TimeEnd > 24*60 {
			return validationError("block times must be within the day")
		}
		if *in.TimeStart >= *in.TimeEnd {
			return validationError("time_start must be before time_end")
		}
	}
	if in.Kind != "" && !in.Kind.Valid() {
		return validationError("invalid block kind")
	}

	exists, err := s.calendar.BusinessExists(ctx, in.BusinessID)
	if err != nil {
		return err
	}
	if !exists {
		return store.ErrNotFound
	}
	return nil
}

func (s *Service) invalidateRange(ctx context.Context, businessID int64, dateStart, dateEnd time.Time) {
	if s.invalidator == nil {
		return
	}
	// Cap the walk; blocks far in the future expire from the cache on
	// their own TTL anyway.
	const maxDays = 366
	days := 0
	for date := domain.DateOf(dateStart); !date.After(domain.DateOf(dateEnd)) && days < maxDays; date = date.AddDate(0, 0, 1) {
		s.invalidator.InvalidateDay(ctx, businessID, date)
		days++
	}
}
