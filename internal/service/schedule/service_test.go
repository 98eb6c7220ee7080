package schedule

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"turnero/internal/domain"
	"turnero/internal/store"
)

type fakeCalendarRepo struct {
	businessExistsFn        func(ctx context.Context, businessID int64) (bool, error)
	getServiceFn            func(ctx context.Context, serviceID int64) (domain.Service, error)
	listActiveServicesFn    func(ctx context.Context, businessID int64) ([]domain.Service, error)
	activeHoursForWeekdayFn func(ctx context.Context, businessID int64, weekday time.Weekday) (domain.BusinessHours, error)
	listHoursFn             func(ctx context.Context, businessID int64, onlyActive bool) ([]domain.BusinessHours, error)
	createHoursFn           func(ctx context.Context, hours domain.BusinessHours) (domain.BusinessHours, error)
	updateHoursFn           func(ctx context.Context, hours domain.BusinessHours) (domain.BusinessHours, error)
	getBlockFn              func(ctx context.Context, id uuid.UUID) (domain.Block, error)
	listBlocksInRangeFn     func(ctx context.Context, businessID int64, dateFrom, dateTo time.Time) ([]domain.Block, error)
	createBlockFn           func(ctx context.Context, block domain.Block) (domain.Block, error)
	updateBlockFn           func(ctx context.Context, block domain.Block) (domain.Block, error)
}

func (f *fakeCalendarRepo) BusinessExists(ctx context.Context, businessID int64) (bool, error) {
	if f.businessExistsFn == nil {
		return businessID == 1, nil
	}
	return f.businessExistsFn(ctx, businessID)
}

func (f *fakeCalendarRepo) GetService(ctx context.Context, serviceID int64) (domain.Service, error) {
	if f.getServiceFn == nil {
		panic("GetService not configured")
	}
	return f.getServiceFn(ctx, serviceID)
}

func (f *fakeCalendarRepo) ListActiveServices(ctx context.Context, businessID int64) ([]domain.Service, error) {
	if f.listActiveServicesFn == nil {
		panic("ListActiveServices not configured")
	}
	return f.listActiveServicesFn(ctx, businessID)
}

func (f *fakeCalendarRepo) ActiveHoursForWeekday(ctx context.Context, businessID int64, weekday time.Weekday) (domain.BusinessHours, error) {
	if f.activeHoursForWeekdayFn == nil {
		panic("ActiveHoursForWeekday not configured")
	}
	return f.activeHoursForWeekdayFn(ctx, businessID, weekday)
}

func (f *fakeCalendarRepo) ListHours(ctx context.Context, businessID int64, onlyActive bool) ([]domain.BusinessHours, error) {
	if f.listHoursFn == nil {
		panic("ListHours not configured")
	}
	return f.listHoursFn(ctx, businessID, onlyActive)
}

func (f *fakeCalendarRepo) CreateHours(ctx context.Context, hours domain.BusinessHours) (domain.BusinessHours, error) {
	if f.createHoursFn == nil {
		panic("CreateHours not configured")
	}
	return f.createHoursFn(ctx, hours)
}

func (f *fakeCalendarRepo) UpdateHours(ctx context.Context, hours domain.BusinessHours) (domain.BusinessHours, error) {
	if f.updateHoursFn == nil {
		panic("UpdateHours not configured")
	}
	return f.updateHoursFn(ctx, hours)
}

func (f *fakeCalendarRepo) GetBlock(ctx context.Context, id uuid.UUID) (domain.Block, error) {
	if f.getBlockFn == nil {
		panic("GetBlock not configured")
	}
	return f.getBlockFn(ctx, id)
}

func (f *fakeCalendarRepo) ListBlocksInRange(ctx context.Context, businessID int64, dateFrom, dateTo time.Time) ([]domain.Block, error) {
	if f.listBlocksInRangeFn == nil {
		panic("ListBlocksInRange not configured")
	}
	return f.listBlocksInRangeFn(ctx, businessID, dateFrom, dateTo)
}

func (f *fakeCalendarRepo) CreateBlock(ctx context.Context, block domain.Block) (domain.Block, error) {
	if f.createBlockFn == nil {
		panic("CreateBlock not configured")
	}
	return f.createBlockFn(ctx, block)
}

func (f *fakeCalendarRepo) UpdateBlock(ctx context.Context, block domain.Block) (domain.Block, error) {
	if f.updateBlockFn == nil {
		panic("UpdateBlock not configured")
	}
	return f.updateBlockFn(ctx, block)
}

type recordingInvalidator struct {
	mu   sync.Mutex
	days []time.Time
}

func (r *recordingInvalidator) InvalidateDay(ctx context.Context, businessID int64, date time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.days = append(r.days, date)
}

func minutePtr(m domain.MinuteOfDay) *domain.MinuteOfDay {
	return &m
}

func TestCreateHours_Valid(t *testing.T) {
	var created domain.BusinessHours
	cal := &fakeCalendarRepo{
		createHoursFn: func(ctx context.Context, hours domain.BusinessHours) (domain.BusinessHours, error) {
			created = hours
			hours.ID = 3
			return hours, nil
		},
	}
	svc := NewService(cal, nil)

	got, err := svc.CreateHours(context.Background(), HoursInput{
		BusinessID: 1,
		Weekday:    time.Monday,
		Open:       9 * 60,
		Close:      18 * 60,
	})
	if err != nil {
		t.Fatalf("CreateHours error: %v", err)
	}
	if !created.Active {
		t.Fatalf("new hours must be active")
	}
	if got.ID != 3 {
		t.Fatalf("id = %d, want 3", got.ID)
	}
}

func TestCreateHours_ClosingAtMidnight(t *testing.T) {
	cal := &fakeCalendarRepo{
		createHoursFn: func(ctx context.Context, hours domain.BusinessHours) (domain.BusinessHours, error) {
			hours.ID = 4
			return hours, nil
		},
	}
	svc := NewService(cal, nil)

	got, err := svc.CreateHours(context.Background(), HoursInput{
		BusinessID: 1,
		Weekday:    time.Friday,
		Open:       18 * 60,
		Close:      24 * 60,
	})
	if err != nil {
		t.Fatalf("CreateHours error: %v", err)
	}
	if got.Close != 24*60 {
		t.Fatalf("close = %d, want 1440", got.Close)
	}
	if got.Close.String() != "24:00" {
		t.Fatalf("close rendered as %q, want 24:00", got.Close.String())
	}
}

func TestCreateHours_Validation(t *testing.T) {
	svc := NewService(&fakeCalendarRepo{}, nil)

	tests := []struct {
		name string
		in   HoursInput
	}{
		{"missing business", HoursInput{Weekday: time.Monday, Open: 9 * 60, Close: 18 * 60}},
		{"bad weekday", HoursInput{BusinessID: 1, Weekday: 9, Open: 9 * 60, Close: 18 * 60}},
		{"open after close", HoursInput{BusinessID: 1, Weekday: time.Monday, Open: 18 * 60, Close: 9 * 60}},
		{"open equals close", HoursInput{BusinessID: 1, Weekday: time.Monday, Open: 9 * 60, Close: 9 * 60}},
		{"close past midnight", HoursInput{BusinessID: 1, Weekday: time.Monday, Open: 9 * 60, Close: 25 * 60}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateHours(context.Background(), tc.in)
			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("error type = %T, want *ValidationError", err)
			}
		})
	}
}

func TestCreateHours_DuplicateWeekdayConflict(t *testing.T) {
	cal := &fakeCalendarRepo{
		createHoursFn: func(ctx context.Context, hours domain.BusinessHours) (domain.BusinessHours, error) {
			return domain.BusinessHours{}, store.ErrConflict
		},
	}
	svc := NewService(cal, nil)

	_, err := svc.CreateHours(context.Background(), HoursInput{
		BusinessID: 1,
		Weekday:    time.Monday,
		Open:       9 * 60,
		Close:      18 * 60,
	})
	if !errors.Is(err, store.ErrConflict) {
		t.Fatalf("err = %v, want store.ErrConflict", err)
	}
}

func TestCreateHours_UnknownBusiness(t *testing.T) {
	svc := NewService(&fakeCalendarRepo{}, nil)

	_, err := svc.CreateHours(context.Background(), HoursInput{
		BusinessID: 99,
		Weekday:    time.Monday,
		Open:       9 * 60,
		Close:      18 * 60,
	})
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("err = %v, want store.ErrNotFound", err)
	}
}

func TestDeactivateHours_SoftDeactivates(t *testing.T) {
	var updated domain.BusinessHours
	cal := &fakeCalendarRepo{
		activeHoursForWeekdayFn: func(ctx context.Context, businessID int64, weekday time.Weekday) (domain.BusinessHours, error) {
			return domain.BusinessHours{ID: 3, BusinessID: businessID, Weekday: weekday, Open: 9 * 60, Close: 18 * 60, Active: true}, nil
		},
		updateHoursFn: func(ctx context.Context, hours domain.BusinessHours) (domain.BusinessHours, error) {
			updated = hours
			return hours, nil
		},
	}
	svc := NewService(cal, nil)

	got, err := svc.DeactivateHours(context.Background(), 1, time.Monday)
	if err != nil {
		t.Fatalf("DeactivateHours error: %v", err)
	}
	if updated.Active || got.Active {
		t.Fatalf("hours still active after deactivation")
	}
	if updated.ID != 3 {
		t.Fatalf("updated id = %d, want 3", updated.ID)
	}
}

func TestCreateBlock_FullDayDefaultsKindAndInvalidates(t *testing.T) {
	cal := &fakeCalendarRepo{
		createBlockFn: func(ctx context.Context, block domain.Block) (domain.Block, error) {
			block.ID = uuid.New()
			return block, nil
		},
	}
	inv := &recordingInvalidator{}
	svc := NewService(cal, inv)

	start := time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC)
	got, err := svc.CreateBlock(context.Background(), BlockInput{
		BusinessID: 1,
		DateStart:  start,
		DateEnd:    start.AddDate(0, 0, 2),
		Reason:     " annual holiday ",
	})
	if err != nil {
		t.Fatalf("CreateBlock error: %v", err)
	}
	if got.Kind != domain.BlockOther {
		t.Fatalf("kind = %s, want other as default", got.Kind)
	}
	if !got.FullDay() {
		t.Fatalf("block without times must be full-day")
	}
	if got.Reason != "annual holiday" {
		t.Fatalf("reason = %q, want trimmed", got.Reason)
	}
	if len(inv.days) != 3 {
		t.Fatalf("invalidated days = %d, want 3", len(inv.days))
	}
}

func TestCreateBlock_EndingAtMidnight(t *testing.T) {
	cal := &fakeCalendarRepo{
		createBlockFn: func(ctx context.Context, block domain.Block) (domain.Block, error) {
			block.ID = uuid.New()
			return block, nil
		},
	}
	svc := NewService(cal, &recordingInvalidator{})

	day := time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC)
	got, err := svc.CreateBlock(context.Background(), BlockInput{
		BusinessID: 1,
		DateStart:  day,
		DateEnd:    day,
		TimeStart:  minutePtr(20 * 60),
		TimeEnd:    minutePtr(24 * 60),
		Kind:       domain.BlockMaintenance,
	})
	if err != nil {
		t.Fatalf("CreateBlock error: %v", err)
	}
	if got.FullDay() {
		t.Fatalf("evening block must not be full-day")
	}
	if *got.TimeEnd != 24*60 {
		t.Fatalf("time_end = %d, want 1440", *got.TimeEnd)
	}
}

func TestCreateBlock_Validation(t *testing.T) {
	svc := NewService(&fakeCalendarRepo{}, nil)
	day := time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		in   BlockInput
	}{
		{"end before start", BlockInput{BusinessID: 1, DateStart: day, DateEnd: day.AddDate(0, 0, -1)}},
		{"missing dates", BlockInput{BusinessID: 1}},
		{"only time start", BlockInput{BusinessID: 1, DateStart: day, DateEnd: day, TimeStart: minutePtr(10 * 60)}},
		{"times reversed", BlockInput{BusinessID: 1, DateStart: day, DateEnd: day, TimeStart: minutePtr(13 * 60), TimeEnd: minutePtr(12 * 60)}},
		{"end past midnight", BlockInput{BusinessID: 1, DateStart: day, DateEnd: day, TimeStart: minutePtr(13 * 60), TimeEnd: minutePtr(25 * 60)}},
		{"unknown kind", BlockInput{BusinessID: 1, DateStart: day, DateEnd: day, Kind: "siesta"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateBlock(context.Background(), tc.in)
			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("error type = %T, want *ValidationError", err)
			}
		})
	}
}

func TestUpdateBlock_KeepsBusinessAndInvalidatesBothRanges(t *testing.T) {
	id := uuid.New()
	day := time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC)
	cal := &fakeCalendarRepo{
		getBlockFn: func(ctx context.Context, got uuid.UUID) (domain.Block, error) {
			return domain.Block{
				ID:         id,
				BusinessID: 1,
				DateStart:  day,
				DateEnd:    day,
				Kind:       domain.BlockHoliday,
				Active:     true,
			}, nil
		},
		updateBlockFn: func(ctx context.Context, block domain.Block) (domain.Block, error) {
			return block, nil
		},
	}
	inv := &recordingInvalidator{}
	svc := NewService(cal, inv)

	newDay := day.AddDate(0, 0, 7)
	got, err := svc.UpdateBlock(context.Background(), id, BlockInput{
		DateStart: newDay,
		DateEnd:   newDay,
		Kind:      domain.BlockMaintenance,
	})
	if err != nil {
		t.Fatalf("UpdateBlock error: %v", err)
	}
	if got.BusinessID != 1 {
		t.Fatalf("business id = %d, want preserved 1", got.BusinessID)
	}
	if got.Kind != domain.BlockMaintenance {
		t.Fatalf("kind = %s, want maintenance", got.Kind)
	}
	// One day from the old range, one from the new.
	if len(inv.days) != 2 {
		t.Fatalf("invalidated days = %d, want 2", len(inv.days))
	}
}

func TestDeactivateBlock(t *testing.T) {
	id := uuid.New()
	day := time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC)
	cal := &fakeCalendarRepo{
		getBlockFn: func(ctx context.Context, got uuid.UUID) (domain.Block, error) {
			return domain.Block{ID: id, BusinessID: 1, DateStart: day, DateEnd: day, Kind: domain.BlockHoliday, Active: true}, nil
		},
		updateBlockFn: func(ctx context.Context, block domain.Block) (domain.Block, error) {
			return block, nil
		},
	}
	inv := &recordingInvalidator{}
	svc := NewService(cal, inv)

	got, err := svc.DeactivateBlock(context.Background(), id)
	if err != nil {
		t.Fatalf("DeactivateBlock error: %v", err)
	}
	if got.Active {
		t.Fatalf("block still active after deactivation")
	}
	if len(inv.days) != 1 {
		t.Fatalf("invalidated days = %d, want 1", len(inv.days))
	}
}

func TestListBlocks_DefaultsToOpenRange(t *testing.T) {
	var gotFrom, gotTo time.Time
	cal := &fakeCalendarRepo{
		listBlocksInRangeFn: func(ctx context.Context, businessID int64, dateFrom, dateTo time.Time) ([]domain.Block, error) {
			gotFrom, gotTo = dateFrom, dateTo
			return nil, nil
		},
	}
	svc := NewService(cal, nil)

	if _, err := svc.ListBlocks(context.Background(), 1, nil, nil); err != nil {
		t.Fatalf("ListBlocks error: %v", err)
	}
	if gotFrom.Year() != 1970 || gotTo.Year() != 9999 {
		t.Fatalf("range = %v..%v, want open bounds", gotFrom, gotTo)
	}
}
