package domain

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// MinuteOfDay is a wall-clock time within one day, in minutes since
// midnight. Business hours and partial blocks are stored this way so a
// weekly schedule stays independent of any particular date or timezone
// offset; combine with a date via At.
type MinuteOfDay int16

// ParseMinuteOfDay reads an HH:MM wall-clock time. "24:00" is accepted as
// the exclusive end of the day, so a schedule can close at midnight.
func ParseMinuteOfDay(s string) (MinuteOfDay, error) {
	if s == "24:00" {
		return 24 * 60, nil
	}
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("invalid time %q: want HH:MM", s)
	}
	return MinuteOfDay(t.Hour()*60 + t.Minute()), nil
}

func (m MinuteOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

func (m MinuteOfDay) Valid() bool {
	return m >= 0 && m < 24*60
}

// At anchors the minute on the given date. The date's own clock part is
// ignored; the result is in the date's location.
func (m MinuteOfDay) At(date time.Time) time.Time {
	y, mo, d := date.Date()
	return time.Date(y, mo, d, int(m)/60, int(m)%60, 0, 0, date.Location())
}

type BusinessHours struct {
	bun.BaseModel `bun:"table:business_hours"`

	ID         int64        `bun:"id,pk,autoincrement"`
	BusinessID int64        `bun:"business_id,notnull"`
	Weekday    time.Weekday `bun:"weekday,notnull"`
	Open       MinuteOfDay  `bun:"open_minute,notnull"`
	Close      MinuteOfDay  `bun:"close_minute,notnull"`
	Active     bool         `bun:"active,notnull"`
}

type BlockKind string

const (
	BlockHoliday     BlockKind = "holiday"
	BlockVacation    BlockKind = "vacation"
	BlockMaintenance BlockKind = "maintenance"
	BlockOther       BlockKind = "other"
)

func (k BlockKind) Valid() bool {
	switch k {
	case BlockHoliday, BlockVacation, BlockMaintenance, BlockOther:
		return true
	}
	return false
}

// Block closes a business over a date range. A block without times closes
// the whole of each day in range; a block with times closes only that
// sub-window. TimeStart and TimeEnd are set together or not at all.
type Block struct {
	bun.BaseModel `bun:"table:blocks"`

	ID         uuid.UUID    `bun:"id,pk,type:uuid"`
	BusinessID int64        `bun:"business_id,notnull"`
	DateStart  time.Time    `bun:"date_start,notnull,type:date"`
	DateEnd    time.Time    `bun:"date_end,notnull,type:date"`
	TimeStart  *MinuteOfDay `bun:"time_start"`
	TimeEnd    *MinuteOfDay `bun:"time_end"`
	Reason     string       `bun:"reason"`
	Kind       BlockKind    `bun:"kind,notnull"`
	Active     bool         `bun:"active,notnull"`
	CreatedAt  time.Time    `bun:"created_at,notnull"`
}

func (b Block) FullDay() bool {
	return b.TimeStart == nil && b.TimeEnd == nil
}

// Covers reports whether the block's date range includes the given date.
// Both bounds are inclusive.
func (b Block) Covers(date time.Time) bool {
	d := DateOf(date)
	return !d.Before(DateOf(b.DateStart)) && !d.After(DateOf(b.DateEnd))
}

func (b *Block) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	if _, ok := query.(*bun.InsertQuery); ok {
		if b.ID == uuid.Nil {
			id, err := uuid.NewV7()
			if err != nil {
				return err
			}
			b.ID = id
		}
		if b.CreatedAt.IsZero() {
			b.CreatedAt = time.Now().UTC()
		}
	}
	return nil
}

// Business is owned by the directory subsystem; the booking engine only
// needs its identity and active flag.
type Business struct {
	bun.BaseModel `bun:"table:businesses"`

	ID     int64  `bun:"id,pk,autoincrement"`
	Name   string `bun:"name,notnull"`
	Active bool   `bun:"active,notnull"`
}

// Service is owned by the catalog subsystem; the booking engine only reads
// it to size and price slots.
type Service struct {
	bun.BaseModel `bun:"table:services"`

	ID              int64  `bun:"id,pk,autoincrement"`
	BusinessID      int64  `bun:"business_id,notnull"`
	Name            string `bun:"name,notnull"`
	DurationMinutes int    `bun:"duration_minutes,notnull"`
	PriceCents      int64  `bun:"price_cents,notnull"`
	Active          bool   `bun:"active,notnull"`
}

// DateOf truncates t to midnight UTC, the canonical form for date-only
// comparisons throughout the module.
func DateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
