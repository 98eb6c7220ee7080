package booking

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"turnero/internal/domain"
	"turnero/internal/metrics"
	"turnero/internal/store"
)

// MaxAvailabilityRangeDays caps a single availability query.
const MaxAvailabilityRangeDays = 31

// AvailabilityCache is an optional read-through cache over per-day slot
// computations. A serviceID of 0 keys the all-services variant. Misses
// and cache failures fall back to computing; invalidation happens on
// every write that touches a day.
type AvailabilityCache interface {
	GetDay(ctx context.Context, businessID int64, date time.Time, serviceID int64) ([]domain.Slot, bool)
	SetDay(ctx context.Context, businessID int64, date time.Time, serviceID int64, slots []domain.Slot)
	InvalidateDay(ctx context.Context, businessID int64, date time.Time)
}

type Service struct {
	appts       store.AppointmentRepository
	calendar    store.CalendarRepository
	cache       AvailabilityCache
	granularity time.Duration
	now         func() time.Time
}

type Config struct {
	Cache       AvailabilityCache
	Granularity time.Duration
	Now         func() time.Time
}

func NewService(appts store.AppointmentRepository, calendar store.CalendarRepository, cfg Config) *Service {
	granularity := cfg.Granularity
	if granularity <= 0 {
		granularity = domain.DefaultSlotGranularity
	}
	now := cfg.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Service{
		appts:       appts,
		calendar:    calendar,
		cache:       cfg.Cache,
		granularity: granularity,
		now:         now,
	}
}

type DayAvailability struct {
	Date  time.Time
	Slots []domain.Slot
}

// GetAvailability lists bookable slots per date over [dateFrom, dateTo].
// A serviceID of 0 produces slots for every active service of the
// business. Days the business is closed, fully blocked, or without hours
// yield an empty slot list, not an error.
func (s *Service) GetAvailability(ctx context.Context, businessID int64, dateFrom, dateTo time.Time, serviceID int64) ([]DayAvailability, error) {
	started := s.now()

	if businessID <= 0 {
		return nil, validationError("business_id is required")
	}
	from := domain.DateOf(dateFrom)
	to := domain.DateOf(dateTo)
	if to.Before(from) {
		return nil, validationError("date_to must not be before date_from")
	}
	if int(to.Sub(from)/(24*time.Hour)) >= MaxAvailabilityRangeDays {
		return nil, validationError("date range too long: at most 31 days")
	}

	exists, err := s.calendar.BusinessExists(ctx, businessID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, store.ErrNotFound
	}

	services, err := s.resolveServices(ctx, businessID, serviceID)
	if err != nil {
		return nil, err
	}

	var days []DayAvailability
	for date := from; !date.After(to); date = date.AddDate(0, 0, 1) {
		if s.cache != nil {
			if slots, ok := s.cache.GetDay(ctx, businessID, date, serviceID); ok {
				days = append(days, DayAvailability{Date: date, Slots: slots})
				continue
			}
		}

		slots, err := s.slotsForDate(ctx, businessID, date, services)
		if err != nil {
			return nil, err
		}
		if s.cache != nil {
			s.cache.SetDay(ctx, businessID, date, serviceID, slots)
		}
		days = append(days, DayAvailability{Date: date, Slots: slots})
	}

	metrics.ObserveAvailability(s.now().Sub(started))
	return days, nil
}

func (s *Service) resolveServices(ctx context.Context, businessID, serviceID int64) ([]domain.Service, error) {
	if serviceID == 0 {
		return s.calendar.ListActiveServices(ctx, businessID)
	}
	svc, err := s.calendar.GetService(ctx, serviceID)
	if err != nil {
		return nil, err
	}
	if svc.BusinessID != businessID || !svc.Active {
		return nil, store.ErrNotFound
	}
	return []domain.Service{svc}, nil
}

func (s *Service) slotsForDate(ctx context.Context, businessID int64, date time.Time, services []domain.Service) ([]domain.Slot, error) {
	hours, err := s.calendar.ActiveHoursForWeekday(ctx, businessID, date.Weekday())
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	busy, closed, err := s.busyForDate(ctx, businessID, date, uuid.Nil)
	if err != nil {
		return nil, err
	}
	if closed {
		return nil, nil
	}

	var slots []domain.Slot
	for _, svc := range services {
		slots = append(slots, domain.GenerateSlots(date, hours, svc, busy, s.granularity)...)
	}
	sort.Slice(slots, func(i, j int) bool {
		if !slots[i].Start.Equal(slots[j].Start) {
			return slots[i].Start.Before(slots[j].Start)
		}
		return slots[i].ServiceID < slots[j].ServiceID
	})
	return slots, nil
}

// busyForDate merges block windows and blocking appointments for one
// date. exclude drops one appointment from the busy set, so Modify can
// revalidate against everything but its own reservation.
func (s *Service) busyForDate(ctx context.Context, businessID int64, date time.Time, exclude uuid.UUID) ([]domain.Interval, bool, error) {
	blocks, err := s.calendar.ListBlocksInRange(ctx, businessID, date, date)
	if err != nil {
		return nil, false, err
	}
	appts, err := s.appts.ListBusy(ctx, businessID, date)
	if err != nil {
		return nil, false, err
	}
	if exclude != uuid.Nil {
		kept := appts[:0]
		for _, a := range appts {
			if a.ID != exclude {
				kept = append(kept, a)
			}
		}
		appts = kept
	}
	busy, closed := domain.BusyIntervals(date, blocks, appts)
	return busy, closed, nil
}

type ReserveInput struct {
	ClientID    int64
	BusinessID  int64
	ServiceID   int64
	Start       time.Time
	ClientNotes string
}

// Reserve books a new pending appointment. The requested slot is
// revalidated against current hours, blocks and bookings rather than
// trusting any previously listed slot, and the write itself is guarded by
// the store's exclusion constraint; a concurrent taker surfaces as
// store.ErrConflict.
func (s *Service) Reserve(ctx context.Context, in ReserveInput) (domain.Appointment, error) {
	if in.ClientID <= 0 {
		return domain.Appointment{}, validationError("client_id is required")
	}
	if in.BusinessID <= 0 {
		return domain.Appointment{}, validationError("business_id is required")
	}
	if in.ServiceID <= 0 {
		return domain.Appointment{}, validationError("service_id is required")
	}

	start := in.Start.UTC()
	date := domain.DateOf(start)
	if date.Before(domain.DateOf(s.now())) {
		metrics.IncReservation("rejected")
		return domain.Appointment{}, validationError("date is in the past")
	}

	exists, err := s.calendar.BusinessExists(ctx, in.BusinessID)
	if err != nil {
		return domain.Appointment{}, err
	}
	if !exists {
		return domain.Appointment{}, store.ErrNotFound
	}

	svc, err := s.calendar.GetService(ctx, in.ServiceID)
	if err != nil {
		return domain.Appointment{}, err
	}
	if svc.BusinessID != in.BusinessID || !svc.Active {
		return domain.Appointment{}, store.ErrNotFound
	}

	if err := s.revalidateSlot(ctx, in.BusinessID, start, svc.DurationMinutes, uuid.Nil); err != nil {
		if errors.Is(err, store.ErrConflict) {
			metrics.IncReservation("slot_conflict")
		}
		return domain.Appointment{}, err
	}

	appt := domain.Appointment{
		BusinessID:      in.BusinessID,
		ClientID:        in.ClientID,
		ServiceID:       in.ServiceID,
		Date:            date,
		StartTime:       start,
		DurationMinutes: svc.DurationMinutes,
		State:           domain.AppointmentPending,
		ClientNotes:     strings.TrimSpace(in.ClientNotes),
	}

	created, err := s.appts.Create(ctx, appt)
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			metrics.IncReservation("slot_conflict")
		}
		return domain.Appointment{}, err
	}

	s.invalidateDay(ctx, created.BusinessID, created.Date)
	metrics.IncReservation("created")
	return created, nil
}

// revalidateSlot re-runs the availability computation for one candidate
// window. Any form of unavailability (closed day, full-day block, overlap)
// reports as store.ErrConflict: as far as the caller is concerned the
// slot is taken and a fresh availability lookup is the remedy.
func (s *Service) revalidateSlot(ctx context.Context, businessID int64, start time.Time, durationMinutes int, exclude uuid.UUID) error {
	hours, err := s.calendar.ActiveHoursForWeekday(ctx, businessID, start.Weekday())
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return store.ErrConflict
		}
		return err
	}

	open := hours.Open.At(domain.DateOf(start))
	offset := start.Sub(open)
	if offset < 0 {
		// Before opening time is unavailability, same as a closed day.
		return store.ErrConflict
	}
	if offset%s.granularity != 0 {
		return validationError("start_time is not on a slot boundary")
	}

	busy, closed, err := s.busyForDate(ctx, businessID, start, exclude)
	if err != nil {
		return err
	}
	if closed {
		return store.ErrConflict
	}
	if !domain.SlotFree(start, durationMinutes, hours, busy) {
		return store.ErrConflict
	}
	return nil
}

type ModifyInput struct {
	AppointmentID uuid.UUID
	ActorID       int64
	NewStart      *time.Time
	NewServiceID  *int64
	ClientNotes   *string
}

// Modify re-slots an appointment. Only the owning client may modify, only
// while pending or confirmed. Moving onto the identical slot is a no-op
// update; any real move is revalidated excluding the appointment's own
// reservation and lands under the same constraint guard as Reserve.
func (s *Service) Modify(ctx context.Context, in ModifyInput) (domain.Appointment, error) {
	if in.AppointmentID == uuid.Nil {
		return domain.Appointment{}, validationError("appointment_id is required")
	}

	appt, err := s.appts.GetByID(ctx, in.AppointmentID)
	if err != nil {
		return domain.Appointment{}, err
	}
	if appt.ClientID != in.ActorID {
		return domain.Appointment{}, ErrForbidden
	}
	if appt.State.Terminal() {
		return domain.Appointment{}, &InvalidStateError{Op: "modify", From: appt.State}
	}

	oldDate := appt.Date
	start := appt.StartTime
	if in.NewStart != nil {
		start = in.NewStart.UTC()
	}

	svcID := appt.ServiceID
	if in.NewServiceID != nil {
		svcID = *in.NewServiceID
	}

	duration := appt.DurationMinutes
	if svcID != appt.ServiceID {
		svc, err := s.calendar.GetService(ctx, svcID)
		if err != nil {
			return domain.Appointment{}, err
		}
		if svc.BusinessID != appt.BusinessID || !svc.Active {
			return domain.Appointment{}, store.ErrNotFound
		}
		duration = svc.DurationMinutes
	}

	moved := !start.Equal(appt.StartTime) || svcID != appt.ServiceID
	if moved {
		if domain.DateOf(start).Before(domain.DateOf(s.now())) {
			return domain.Appointment{}, validationError("date is in the past")
		}
		if err := s.revalidateSlot(ctx, appt.BusinessID, start, duration, appt.ID); err != nil {
			return domain.Appointment{}, err
		}
	}

	appt.StartTime = start
	appt.Date = domain.DateOf(start)
	appt.ServiceID = svcID
	appt.DurationMinutes = duration
	if in.ClientNotes != nil {
		appt.ClientNotes = strings.TrimSpace(*in.ClientNotes)
	}
	appt.UpdatedAt = s.now()

	updated, err := s.appts.Update(ctx, appt)
	if err != nil {
		return domain.Appointment{}, err
	}

	s.invalidateDay(ctx, updated.BusinessID, oldDate)
	if !updated.Date.Equal(oldDate) {
		s.invalidateDay(ctx, updated.BusinessID, updated.Date)
	}
	return updated, nil
}

type CancelInput struct {
	AppointmentID uuid.UUID
	ActorID       int64
	ActorRole     domain.CancelActor
	Reason        string
}

// Cancel moves an appointment to its cancelled terminal state. A business
// must give a reason; a client need not. Cancelling an already-terminal
// appointment is InvalidState, never NotFound.
func (s *Service) Cancel(ctx context.Context, in CancelInput) (domain.Appointment, error) {
	if in.AppointmentID == uuid.Nil {
		return domain.Appointment{}, validationError("appointment_id is required")
	}

	reason := strings.TrimSpace(in.Reason)
	switch in.ActorRole {
	case domain.CancelledByClient, domain.CancelledByBusiness:
	default:
		return domain.Appointment{}, validationError("actor_role must be client or business")
	}
	if in.ActorRole == domain.CancelledByBusiness && reason == "" {
		return domain.Appointment{}, validationError("cancellation reason is required for business cancellations")
	}

	appt, err := s.appts.GetByID(ctx, in.AppointmentID)
	if err != nil {
		return domain.Appointment{}, err
	}

	switch in.ActorRole {
	case domain.CancelledByClient:
		if appt.ClientID != in.ActorID {
			return domain.Appointment{}, ErrForbidden
		}
	case domain.CancelledByBusiness:
		if appt.BusinessID != in.ActorID {
			return domain.Appointment{}, ErrForbidden
		}
	}

	if !appt.State.CanTransitionTo(domain.AppointmentCancelled) {
		return domain.Appointment{}, &InvalidStateError{From: appt.State, Attempted: domain.AppointmentCancelled}
	}

	now := s.now()
	actor := in.ActorRole
	appt.State = domain.AppointmentCancelled
	appt.CancelledAt = &now
	appt.CancelledBy = &actor
	appt.UpdatedAt = now
	if reason != "" {
		appt.CancellationReason = &reason
	}

	updated, err := s.appts.Update(ctx, appt)
	if err != nil {
		return domain.Appointment{}, err
	}

	s.invalidateDay(ctx, updated.BusinessID, updated.Date)
	metrics.IncCancellation(string(in.ActorRole))
	return updated, nil
}

// Confirm is the business acknowledging a pending appointment. No time
// revalidation: the slot is already held.
func (s *Service) Confirm(ctx context.Context, appointmentID uuid.UUID, businessActorID int64) (domain.Appointment, error) {
	return s.transition(ctx, appointmentID, businessActorID, domain.AppointmentConfirmed)
}

// Complete marks a confirmed appointment as delivered.
func (s *Service) Complete(ctx context.Context, appointmentID uuid.UUID, businessActorID int64) (domain.Appointment, error) {
	return s.transition(ctx, appointmentID, businessActorID, domain.AppointmentCompleted)
}

func (s *Service) transition(ctx context.Context, appointmentID uuid.UUID, businessActorID int64, next domain.AppointmentState) (domain.Appointment, error) {
	if appointmentID == uuid.Nil {
		return domain.Appointment{}, validationError("appointment_id is required")
	}

	appt, err := s.appts.GetByID(ctx, appointmentID)
	if err != nil {
		return domain.Appointment{}, err
	}
	if appt.BusinessID != businessActorID {
		return domain.Appointment{}, ErrForbidden
	}
	if !appt.State.CanTransitionTo(next) {
		return domain.Appointment{}, &InvalidStateError{From: appt.State, Attempted: next}
	}

	appt.State = next
	appt.UpdatedAt = s.now()

	updated, err := s.appts.Update(ctx, appt)
	if err != nil {
		return domain.Appointment{}, err
	}

	metrics.IncTransition(string(next))
	return updated, nil
}

type Filters struct {
	DateFrom   *time.Time
	DateTo     *time.Time
	State      *domain.AppointmentState
	BusinessID *int64
	ServiceID  *int64
}

func (s *Service) ListForClient(ctx context.Context, clientID int64, f Filters, page, pageSize int) (store.Page[domain.Appointment], error) {
	if clientID <= 0 {
		return store.Page[domain.Appointment]{}, validationError("client_id is required")
	}
	filter := store.AppointmentFilter{
		ClientID:   &clientID,
		BusinessID: f.BusinessID,
		ServiceID:  f.ServiceID,
		State:      f.State,
		DateFrom:   f.DateFrom,
		DateTo:     f.DateTo,
	}
	return s.appts.ListPage(ctx, filter, page, pageSize)
}

func (s *Service) ListForBusiness(ctx context.Context, businessID int64, f Filters, page, pageSize int) (store.Page[domain.Appointment], error) {
	if businessID <= 0 {
		return store.Page[domain.Appointment]{}, validationError("business_id is required")
	}
	filter := store.AppointmentFilter{
		BusinessID: &businessID,
		ServiceID:  f.ServiceID,
		State:      f.State,
		DateFrom:   f.DateFrom,
		DateTo:     f.DateTo,
	}
	return s.appts.ListPage(ctx, filter, page, pageSize)
}

func (s *Service) invalidateDay(ctx context.Context, businessID int64, date time.Time) {
	if s.cache != nil {
		s.cache.InvalidateDay(ctx, businessID, date)
	}
}
