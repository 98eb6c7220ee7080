package http

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"turnero/internal/domain"
	"turnero/internal/service/booking"
	"turnero/internal/store"
)

const dateLayout = "2006-01-02"

func parseDate(s string) (time.Time, error) {
	return time.Parse(dateLayout, s)
}

// Caller identity forwarded by the authenticating gateway.
func actorID(c *fiber.Ctx) (int64, bool) {
	id, err := strconv.ParseInt(c.Get("X-Actor-ID"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func actorRole(c *fiber.Ctx) string {
	return c.Get("X-Actor-Role")
}

type appointmentJSON struct {
	ID                 string  `json:"id"`
	BusinessID         int64   `json:"business_id"`
	ClientID           int64   `json:"client_id"`
	ServiceID          int64   `json:"service_id"`
	Date               string  `json:"date"`
	StartTime          string  `json:"start_time"`
	EndTime            string  `json:"end_time"`
	DurationMinutes    int     `json:"duration_minutes"`
	State              string  `json:"state"`
	ClientNotes        string  `json:"client_notes,omitempty"`
	BusinessNotes      string  `json:"business_notes,omitempty"`
	CreatedAt          string  `json:"created_at"`
	UpdatedAt          string  `json:"updated_at"`
	CancelledAt        *string `json:"cancelled_at,omitempty"`
	CancelledBy        *string `json:"cancelled_by,omitempty"`
	CancellationReason *string `json:"cancellation_reason,omitempty"`
}

func toAppointmentJSON(a domain.Appointment) appointmentJSON {
	out := appointmentJSON{
		ID:              a.ID.String(),
		BusinessID:      a.BusinessID,
		ClientID:        a.ClientID,
		ServiceID:       a.ServiceID,
		Date:            a.Date.Format(dateLayout),
		StartTime:       a.StartTime.UTC().Format(time.RFC3339),
		EndTime:         a.End().UTC().Format(time.RFC3339),
		DurationMinutes: a.DurationMinutes,
		State:           string(a.State),
		ClientNotes:     a.ClientNotes,
		BusinessNotes:   a.BusinessNotes,
		CreatedAt:       a.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:       a.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if a.CancelledAt != nil {
		ts := a.CancelledAt.UTC().Format(time.RFC3339)
		out.CancelledAt = &ts
	}
	if a.CancelledBy != nil {
		by := string(*a.CancelledBy)
		out.CancelledBy = &by
	}
	out.CancellationReason = a.CancellationReason
	return out
}

type slotJSON struct {
	Start           string `json:"start"`
	End             string `json:"end"`
	ServiceID       int64  `json:"service_id"`
	ServiceName     string `json:"service_name"`
	DurationMinutes int    `json:"duration_minutes"`
	PriceCents      int64  `json:"price_cents"`
}

type dayAvailabilityJSON struct {
	Date  string     `json:"date"`
	Slots []slotJSON `json:"slots"`
}

func toAvailabilityJSON(days []booking.DayAvailability) []dayAvailabilityJSON {
	out := make([]dayAvailabilityJSON, 0, len(days))
	for _, d := range days {
		slots := make([]slotJSON, 0, len(d.Slots))
		for _, s := range d.Slots {
			slots = append(slots, slotJSON{
				Start:           s.Start.UTC().Format(time.RFC3339),
				End:             s.End.UTC().Format(time.RFC3339),
				ServiceID:       s.ServiceID,
				ServiceName:     s.ServiceName,
				DurationMinutes: s.DurationMinutes,
				PriceCents:      s.PriceCents,
			})
		}
		out = append(out, dayAvailabilityJSON{
			Date:  d.Date.Format(dateLayout),
			Slots: slots,
		})
	}
	return out
}

type pageJSON struct {
	Items       []appointmentJSON `json:"items"`
	Page        int               `json:"page"`
	PageSize    int               `json:"page_size"`
	Total       int               `json:"total"`
	HasNext     bool              `json:"has_next"`
	HasPrevious bool              `json:"has_previous"`
}

func toPageJSON(p store.Page[domain.Appointment]) pageJSON {
	items := make([]appointmentJSON, 0, len(p.Items))
	for _, a := range p.Items {
		items = append(items, toAppointmentJSON(a))
	}
	return pageJSON{
		Items:       items,
		Page:        p.Page,
		PageSize:    p.PageSize,
		Total:       p.Total,
		HasNext:     p.HasNext,
		HasPrevious: p.HasPrev,
	}
}

type hoursJSON struct {
	ID         int64  `json:"id"`
	BusinessID int64  `json:"business_id"`
	Weekday    int    `json:"weekday"`
	Open       string `json:"open"`
	Close      string `json:"close"`
	Active     bool   `json:"active"`
}

func toHoursJSON(h domain.BusinessHours) hoursJSON {
	return hoursJSON{
		ID:         h.ID,
		BusinessID: h.BusinessID,
		Weekday:    int(h.Weekday),
		Open:       h.Open.String(),
		Close:      h.Close.String(),
		Active:     h.Active,
	}
}

type blockJSON struct {
	ID         string  `json:"id"`
	BusinessID int64   `json:"business_id"`
	DateStart  string  `json:"date_start"`
	DateEnd    string  `json:"date_end"`
	TimeStart  *string `json:"time_start,omitempty"`
	TimeEnd    *string `json:"time_end,omitempty"`
	Reason     string  `json:"reason,omitempty"`
	Kind       string  `json:"kind"`
	Active     bool    `json:"active"`
}

func toBlockJSON(b domain.Block) blockJSON {
	out := blockJSON{
		ID:         b.ID.String(),
		BusinessID: b.BusinessID,
		DateStart:  b.DateStart.Format(dateLayout),
		DateEnd:    b.DateEnd.Format(dateLayout),
		Reason:     b.Reason,
		Kind:       string(b.Kind),
		Active:     b.Active,
	}
	if b.TimeStart != nil {
		ts := b.TimeStart.String()
		out.TimeStart = &ts
	}
	if b.TimeEnd != nil {
		te := b.TimeEnd.String()
		out.TimeEnd = &te
	}
	return out
}
