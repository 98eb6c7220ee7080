package http

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"turnero/internal/domain"
	"turnero/internal/service/booking"
)

func (s *Server) getAvailability(c *fiber.Ctx) error {
	log := s.log.With(slog.String("handler", "GetAvailability"))

	businessID, err := strconv.ParseInt(c.Params("businessID"), 10, 64)
	if err != nil {
		return badRequest(c, "business id must be an integer")
	}

	from, err := parseDate(c.Query("date_from", c.Query("date")))
	if err != nil {
		return badRequest(c, "date_from must be YYYY-MM-DD")
	}
	to := from
	if raw := c.Query("date_to"); raw != "" {
		to, err = parseDate(raw)
		if err != nil {
			return badRequest(c, "date_to must be YYYY-MM-DD")
		}
	}

	var serviceID int64
	if raw := c.Query("service_id"); raw != "" {
		serviceID, err = strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return badRequest(c, "service_id must be an integer")
		}
	}

	days, err := s.booking.GetAvailability(c.UserContext(), businessID, from, to, serviceID)
	if err != nil {
		return s.writeError(c, log.With(slog.Int64("business_id", businessID)), err)
	}

	log.Debug("availability computed",
		slog.Int64("business_id", businessID),
		slog.Int("days", len(days)),
	)
	return c.JSON(fiber.Map{"days": toAvailabilityJSON(days)})
}

type reserveRequest struct {
	BusinessID int64  `json:"business_id"`
	ServiceID  int64  `json:"service_id"`
	Date       string `json:"date"`
	StartTime  string `json:"start_time"`
	Notes      string `json:"notes"`
}

func (s *Server) reserve(c *fiber.Ctx) error {
	log := s.log.With(slog.String("handler", "Reserve"))

	clientID, ok := actorID(c)
	if !ok {
		return badRequest(c, "X-Actor-ID header is required")
	}

	var req reserveRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	date, err := parseDate(req.Date)
	if err != nil {
		return badRequest(c, "date must be YYYY-MM-DD")
	}
	minute, err := domain.ParseMinuteOfDay(req.StartTime)
	if err != nil {
		return badRequest(c, "start_time must be HH:MM")
	}

	appt, err := s.booking.Reserve(c.UserContext(), booking.ReserveInput{
		ClientID:    clientID,
		BusinessID:  req.BusinessID,
		ServiceID:   req.ServiceID,
		Start:       minute.At(domain.DateOf(date)),
		ClientNotes: req.Notes,
	})
	if err != nil {
		return s.writeError(c, log.With(
			slog.Int64("client_id", clientID),
			slog.Int64("business_id", req.BusinessID),
		), err)
	}

	log.Info("appointment reserved",
		slog.String("appointment_id", appt.ID.String()),
		slog.Int64("business_id", appt.BusinessID),
		slog.Int64("client_id", appt.ClientID),
		slog.Time("start_time", appt.StartTime),
	)
	return c.Status(fiber.StatusCreated).JSON(toAppointmentJSON(appt))
}

func (s *Server) listAppointments(c *fiber.Ctx) error {
	log := s.log.With(slog.String("handler", "ListAppointments"))

	id, ok := actorID(c)
	if !ok {
		return badRequest(c, "X-Actor-ID header is required")
	}

	var f booking.Filters
	if raw := c.Query("date_from"); raw != "" {
		d, err := parseDate(raw)
		if err != nil {
			return badRequest(c, "date_from must be YYYY-MM-DD")
		}
		f.DateFrom = &d
	}
	if raw := c.Query("date_to"); raw != "" {
		d, err := parseDate(raw)
		if err != nil {
			return badRequest(c, "date_to must be YYYY-MM-DD")
		}
		f.DateTo = &d
	}
	if raw := c.Query("state"); raw != "" {
		st := domain.AppointmentState(raw)
		switch st {
		case domain.AppointmentPending, domain.AppointmentConfirmed,
			domain.AppointmentCompleted, domain.AppointmentCancelled:
			f.State = &st
		default:
			return badRequest(c, "unknown state")
		}
	}
	if raw := c.Query("business_id"); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return badRequest(c, "business_id must be an integer")
		}
		f.BusinessID = &v
	}
	if raw := c.Query("service_id"); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return badRequest(c, "service_id must be an integer")
		}
		f.ServiceID = &v
	}

	page := c.QueryInt("page", 1)
	pageSize := c.QueryInt("page_size", 10)

	var (
		result any
		err    error
	)
	if actorRole(c) == "business" {
		pg, listErr := s.booking.ListForBusiness(c.UserContext(), id, f, page, pageSize)
		result, err = toPageJSON(pg), listErr
	} else {
		pg, listErr := s.booking.ListForClient(c.UserContext(), id, f, page, pageSize)
		result, err = toPageJSON(pg), listErr
	}
	if err != nil {
		return s.writeError(c, log.With(slog.Int64("actor_id", id)), err)
	}

	return c.JSON(result)
}

type modifyRequest struct {
	Date      *string `json:"date"`
	StartTime *string `json:"start_time"`
	ServiceID *int64  `json:"service_id"`
	Notes     *string `json:"notes"`
}

func (s *Server) modifyAppointment(c *fiber.Ctx) error {
	log := s.log.With(slog.String("handler", "ModifyAppointment"))

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "appointment id must be a UUID")
	}
	actor, ok := actorID(c)
	if !ok {
		return badRequest(c, "X-Actor-ID header is required")
	}

	var req modifyRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	in := booking.ModifyInput{
		AppointmentID: id,
		ActorID:       actor,
		NewServiceID:  req.ServiceID,
		ClientNotes:   req.Notes,
	}
	if (req.Date == nil) != (req.StartTime == nil) {
		return badRequest(c, "date and start_time must be provided together")
	}
	if req.Date != nil {
		date, err := parseDate(*req.Date)
		if err != nil {
			return badRequest(c, "date must be YYYY-MM-DD")
		}
		minute, err := domain.ParseMinuteOfDay(*req.StartTime)
		if err != nil {
			return badRequest(c, "start_time must be HH:MM")
		}
		start := minute.At(domain.DateOf(date))
		in.NewStart = &start
	}

	appt, err := s.booking.Modify(c.UserContext(), in)
	if err != nil {
		return s.writeError(c, log.With(slog.String("appointment_id", id.String())), err)
	}

	log.Info("appointment modified",
		slog.String("appointment_id", appt.ID.String()),
		slog.Time("start_time", appt.StartTime),
	)
	return c.JSON(toAppointmentJSON(appt))
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

func (s *Server) cancelAppointment(c *fiber.Ctx) error {
	log := s.log.With(slog.String("handler", "CancelAppointment"))

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "appointment id must be a UUID")
	}
	actor, ok := actorID(c)
	if !ok {
		return badRequest(c, "X-Actor-ID header is required")
	}

	var role domain.CancelActor
	switch actorRole(c) {
	case "client":
		role = domain.CancelledByClient
	case "business":
		role = domain.CancelledByBusiness
	default:
		return badRequest(c, "X-Actor-Role must be client or business")
	}

	var req cancelRequest
	if err := c.BodyParser(&req); err != nil && len(c.Body()) > 0 {
		return badRequest(c, "invalid request body")
	}

	appt, err := s.booking.Cancel(c.UserContext(), booking.CancelInput{
		AppointmentID: id,
		ActorID:       actor,
		ActorRole:     role,
		Reason:        req.Reason,
	})
	if err != nil {
		return s.writeError(c, log.With(slog.String("appointment_id", id.String())), err)
	}

	log.Info("appointment cancelled",
		slog.String("appointment_id", appt.ID.String()),
		slog.String("cancelled_by", string(role)),
	)
	return c.JSON(toAppointmentJSON(appt))
}

func (s *Server) confirmAppointment(c *fiber.Ctx) error {
	return s.businessTransition(c, "ConfirmAppointment", s.booking.Confirm)
}

func (s *Server) completeAppointment(c *fiber.Ctx) error {
	return s.businessTransition(c, "CompleteAppointment", s.booking.Complete)
}

func (s *Server) businessTransition(
	c *fiber.Ctx,
	name string,
	fn func(ctx context.Context, appointmentID uuid.UUID, businessActorID int64) (domain.Appointment, error),
) error {
	log := s.log.With(slog.String("handler", name))

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "appointment id must be a UUID")
	}
	actor, ok := actorID(c)
	if !ok {
		return badRequest(c, "X-Actor-ID header is required")
	}

	appt, err := fn(c.UserContext(), id, actor)
	if err != nil {
		return s.writeError(c, log.With(slog.String("appointment_id", id.String())), err)
	}

	log.Info("appointment transitioned",
		slog.String("appointment_id", appt.ID.String()),
		slog.String("state", string(appt.State)),
	)
	return c.JSON(toAppointmentJSON(appt))
}
