package domain

import "time"

const DefaultSlotGranularity = 30 * time.Minute

// Interval is a half-open window [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

// Overlaps tests two half-open intervals: [aStart,aEnd) overlaps
// [bStart,bEnd) iff aStart < bEnd && bStart < aEnd.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

func overlapsAny(start, end time.Time, busy []Interval) bool {
	for _, b := range busy {
		if Overlaps(start, end, b.Start, b.End) {
			return true
		}
	}
	return false
}

// Slot is a candidate bookable window of exactly one service's duration.
type Slot struct {
	Start           time.Time
	End             time.Time
	ServiceID       int64
	ServiceName     string
	DurationMinutes int
	PriceCents      int64
}

// GenerateSlots expands the open window of one business day into bookable
// slots for a service. Candidates start every granularity step from the
// opening time; a candidate survives if it ends by closing time and does
// not overlap any busy interval. The result is ordered ascending by start
// and is a pure function of its inputs.
func GenerateSlots(date time.Time, hours BusinessHours, svc Service, busy []Interval, granularity time.Duration) []Slot {
	if granularity <= 0 {
		granularity = DefaultSlotGranularity
	}
	if svc.DurationMinutes <= 0 {
		return nil
	}

	open := hours.Open.At(DateOf(date))
	close := hours.Close.At(DateOf(date))
	duration := time.Duration(svc.DurationMinutes) * time.Minute

	var slots []Slot
	for t := open; !t.Add(duration).After(close); t = t.Add(granularity) {
		end := t.Add(duration)
		if overlapsAny(t, end, busy) {
			continue
		}
		slots = append(slots, Slot{
			Start:           t,
			End:             end,
			ServiceID:       svc.ID,
			ServiceName:     svc.Name,
			DurationMinutes: svc.DurationMinutes,
			PriceCents:      svc.PriceCents,
		})
	}
	return slots
}

// BusyIntervals collects everything that occupies time on the given date:
// partial block sub-windows and pending/confirmed appointments. The second
// return is true when a full-day block closes the date entirely, in which
// case the interval list is meaningless and slot generation must yield
// nothing.
func BusyIntervals(date time.Time, blocks []Block, appts []Appointment) ([]Interval, bool) {
	day := DateOf(date)

	var busy []Interval
	for _, b := range blocks {
		if !b.Active || !b.Covers(day) {
			continue
		}
		if b.FullDay() {
			return nil, true
		}
		busy = append(busy, Interval{
			Start: b.TimeStart.At(day),
			End:   b.TimeEnd.At(day),
		})
	}

	for _, a := range appts {
		if !a.Blocking() {
			continue
		}
		busy = append(busy, Interval{Start: a.StartTime, End: a.End()})
	}

	return busy, false
}

// SlotFree reports whether the single candidate [start, start+duration)
// fits inside the open window and misses every busy interval. Reserve and
// Modify use it to revalidate a slot immediately before writing; the
// store-level exclusion constraint remains the final arbiter under
// concurrent writes.
func SlotFree(start time.Time, durationMinutes int, hours BusinessHours, busy []Interval) bool {
	if durationMinutes <= 0 {
		return false
	}
	day := DateOf(start)
	end := start.Add(time.Duration(durationMinutes) * time.Minute)
	if start.Before(hours.Open.At(day)) || end.After(hours.Close.At(day)) {
		return false
	}
	return !overlapsAny(start, end, busy)
}
