package http

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/google/uuid"

	"turnero/internal/domain"
	"turnero/internal/service/booking"
	"turnero/internal/service/schedule"
	"turnero/internal/store"
)

type bookingService interface {
	GetAvailability(ctx context.Context, businessID int64, dateFrom, dateTo time.Time, serviceID int64) ([]booking.DayAvailability, error)
	Reserve(ctx context.Context, in booking.ReserveInput) (domain.Appointment, error)
	Modify(ctx context.Context, in booking.ModifyInput) (domain.Appointment, error)
	Cancel(ctx context.Context, in booking.CancelInput) (domain.Appointment, error)
	Confirm(ctx context.Context, appointmentID uuid.UUID, businessActorID int64) (domain.Appointment, error)
	Complete(ctx context.Context, appointmentID uuid.UUID, businessActorID int64) (domain.Appointment, error)
	ListForClient(ctx context.Context, clientID int64, f booking.Filters, page, pageSize int) (store.Page[domain.Appointment], error)
	ListForBusiness(ctx context.Context, businessID int64, f booking.Filters, page, pageSize int) (store.Page[domain.Appointment], error)
}

type scheduleService interface {
	CreateHours(ctx context.Context, in schedule.HoursInput) (domain.BusinessHours, error)
	UpdateHours(ctx context.Context, in schedule.HoursInput) (domain.BusinessHours, error)
	DeactivateHours(ctx context.Context, businessID int64, weekday time.Weekday) (domain.BusinessHours, error)
	ListHours(ctx context.Context, businessID int64, onlyActive bool) ([]domain.BusinessHours, error)
	CreateBlock(ctx context.Context, in schedule.BlockInput) (domain.Block, error)
	UpdateBlock(ctx context.Context, blockID uuid.UUID, in schedule.BlockInput) (domain.Block, error)
	DeactivateBlock(ctx context.Context, blockID uuid.UUID) (domain.Block, error)
	ListBlocks(ctx context.Context, businessID int64, dateFrom, dateTo *time.Time) ([]domain.Block, error)
}

type Server struct {
	booking  bookingService
	schedule scheduleService
	log      *slog.Logger
}

func NewServer(booking bookingService, schedule scheduleService, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		booking:  booking,
		schedule: schedule,
		log:      log.With(slog.String("component", "http")),
	}
}

// App wires the fiber application. The upstream gateway authenticates
// callers and forwards identity in X-Actor-ID / X-Actor-Role; this layer
// only parses requests and maps typed service errors to status codes.
func (s *Server) App(readTimeout time.Duration) *fiber.App {
	app := fiber.New(fiber.Config{
		ReadTimeout:           readTimeout,
		DisableStartupMessage: true,
	})

	app.Use(cors.New())

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	v1 := app.Group("/api/v1")

	v1.Get("/businesses/:businessID/availability", s.getAvailability)

	v1.Post("/appointments", s.reserve)
	v1.Get("/appointments", s.listAppointments)
	v1.Patch("/appointments/:id", s.modifyAppointment)
	v1.Post("/appointments/:id/cancel", s.cancelAppointment)
	v1.Post("/appointments/:id/confirm", s.confirmAppointment)
	v1.Post("/appointments/:id/complete", s.completeAppointment)

	v1.Get("/businesses/:businessID/hours", s.listHours)
	v1.Post("/businesses/:businessID/hours", s.createHours)
	v1.Put("/businesses/:businessID/hours/:weekday", s.updateHours)
	v1.Delete("/businesses/:businessID/hours/:weekday", s.deactivateHours)

	v1.Get("/businesses/:businessID/blocks", s.listBlocks)
	v1.Post("/businesses/:businessID/blocks", s.createBlock)
	v1.Put("/blocks/:blockID", s.updateBlock)
	v1.Delete("/blocks/:blockID", s.deactivateBlock)

	return app
}

// writeError maps the service error taxonomy onto HTTP. Slot conflicts
// and invalid-state transitions are expected failures and logged below
// Error level; only unclassified errors count as server faults.
func (s *Server) writeError(c *fiber.Ctx, log *slog.Logger, err error) error {
	var bookingErr *booking.ValidationError
	var scheduleErr *schedule.ValidationError
	var stateErr *booking.InvalidStateError

	switch {
	case errors.As(err, &bookingErr), errors.As(err, &scheduleErr):
		log.Warn("invalid request", slog.Any("err", err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"code": "validation_error", "error": err.Error(),
		})
	case errors.Is(err, booking.ErrForbidden):
		log.Warn("forbidden", slog.Any("err", err))
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"code": "forbidden", "error": "you do not own this resource",
		})
	case errors.Is(err, store.ErrNotFound):
		log.Info("not found")
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"code": "not_found", "error": "resource not found",
		})
	case errors.As(err, &stateErr):
		log.Info("invalid state transition", slog.Any("err", err))
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"code": "invalid_state", "error": stateErr.Error(),
		})
	case errors.Is(err, store.ErrConflict):
		log.Info("slot conflict")
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"code": "slot_conflict", "error": "That time was just taken. Please pick another slot.",
		})
	default:
		log.Error("request failed", slog.Any("err", err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"code": "internal", "error": "internal error",
		})
	}
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"code": "validation_error", "error": msg,
	})
}
