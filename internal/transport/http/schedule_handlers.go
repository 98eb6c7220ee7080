package http

import (
	"log/slog"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"turnero/internal/domain"
	"turnero/internal/service/schedule"
)

func (s *Server) listHours(c *fiber.Ctx) error {
	log := s.log.With(slog.String("handler", "ListHours"))

	businessID, err := strconv.ParseInt(c.Params("businessID"), 10, 64)
	if err != nil {
		return badRequest(c, "business id must be an integer")
	}
	onlyActive := c.QueryBool("only_active", true)

	hours, err := s.schedule.ListHours(c.UserContext(), businessID, onlyActive)
	if err != nil {
		return s.writeError(c, log.With(slog.Int64("business_id", businessID)), err)
	}

	out := make([]hoursJSON, 0, len(hours))
	for _, h := range hours {
		out = append(out, toHoursJSON(h))
	}
	return c.JSON(fiber.Map{"hours": out})
}

type hoursRequest struct {
	Weekday int    `json:"weekday"`
	Open    string `json:"open"`
	Close   string `json:"close"`
}

// parseHoursInput returns a user-facing message on malformed input; the
// caller turns it into a 400.
func parseHoursInput(c *fiber.Ctx) (schedule.HoursInput, string) {
	businessID, err := strconv.ParseInt(c.Params("businessID"), 10, 64)
	if err != nil {
		return schedule.HoursInput{}, "business id must be an integer"
	}

	var req hoursRequest
	if err := c.BodyParser(&req); err != nil {
		return schedule.HoursInput{}, "invalid request body"
	}

	open, err := domain.ParseMinuteOfDay(req.Open)
	if err != nil {
		return schedule.HoursInput{}, "open must be HH:MM"
	}
	closeAt, err := domain.ParseMinuteOfDay(req.Close)
	if err != nil {
		return schedule.HoursInput{}, "close must be HH:MM"
	}

	return schedule.HoursInput{
		BusinessID: businessID,
		Weekday:    time.Weekday(req.Weekday),
		Open:       open,
		Close:      closeAt,
	}, ""
}

func (s *Server) createHours(c *fiber.Ctx) error {
	log := s.log.With(slog.String("handler", "CreateHours"))

	in, msg := parseHoursInput(c)
	if msg != "" {
		return badRequest(c, msg)
	}

	hours, err := s.schedule.CreateHours(c.UserContext(), in)
	if err != nil {
		return s.writeError(c, log.With(slog.Int64("business_id", in.BusinessID)), err)
	}

	log.Info("hours created",
		slog.Int64("business_id", hours.BusinessID),
		slog.Int("weekday", int(hours.Weekday)),
	)
	return c.Status(fiber.StatusCreated).JSON(toHoursJSON(hours))
}

func (s *Server) updateHours(c *fiber.Ctx) error {
	log := s.log.With(slog.String("handler", "UpdateHours"))

	in, msg := parseHoursInput(c)
	if msg != "" {
		return badRequest(c, msg)
	}
	weekday, err := strconv.Atoi(c.Params("weekday"))
	if err != nil {
		return badRequest(c, "weekday must be an integer")
	}
	in.Weekday = time.Weekday(weekday)

	hours, err := s.schedule.UpdateHours(c.UserContext(), in)
	if err != nil {
		return s.writeError(c, log.With(slog.Int64("business_id", in.BusinessID)), err)
	}

	log.Info("hours updated",
		slog.Int64("business_id", hours.BusinessID),
		slog.Int("weekday", int(hours.Weekday)),
	)
	return c.JSON(toHoursJSON(hours))
}

func (s *Server) deactivateHours(c *fiber.Ctx) error {
	log := s.log.With(slog.String("handler", "DeactivateHours"))

	businessID, err := strconv.ParseInt(c.Params("businessID"), 10, 64)
	if err != nil {
		return badRequest(c, "business id must be an integer")
	}
	weekday, err := strconv.Atoi(c.Params("weekday"))
	if err != nil {
		return badRequest(c, "weekday must be an integer")
	}

	hours, err := s.schedule.DeactivateHours(c.UserContext(), businessID, time.Weekday(weekday))
	if err != nil {
		return s.writeError(c, log.With(slog.Int64("business_id", businessID)), err)
	}

	log.Info("hours deactivated",
		slog.Int64("business_id", hours.BusinessID),
		slog.Int("weekday", int(hours.Weekday)),
	)
	return c.JSON(toHoursJSON(hours))
}

func (s *Server) listBlocks(c *fiber.Ctx) error {
	log := s.log.With(slog.String("handler", "ListBlocks"))

	businessID, err := strconv.ParseInt(c.Params("businessID"), 10, 64)
	if err != nil {
		return badRequest(c, "business id must be an integer")
	}

	var from, to *time.Time
	if raw := c.Query("date_from"); raw != "" {
		d, err := parseDate(raw)
		if err != nil {
			return badRequest(c, "date_from must be YYYY-MM-DD")
		}
		from = &d
	}
	if raw := c.Query("date_to"); raw != "" {
		d, err := parseDate(raw)
		if err != nil {
			return badRequest(c, "date_to must be YYYY-MM-DD")
		}
		to = &d
	}

	blocks, err := s.schedule.ListBlocks(c.UserContext(), businessID, from, to)
	if err != nil {
		return s.writeError(c, log.With(slog.Int64("business_id", businessID)), err)
	}

	out := make([]blockJSON, 0, len(blocks))
	for _, b := range blocks {
		out = append(out, toBlockJSON(b))
	}
	return c.JSON(fiber.Map{"blocks": out})
}

type blockRequest struct {
	DateStart string  `json:"date_start"`
	DateEnd   string  `json:"date_end"`
	TimeStart *string `json:"time_start"`
	TimeEnd   *string `json:"time_end"`
	Reason    string  `json:"reason"`
	Kind      string  `json:"kind"`
}

func parseBlockInput(c *fiber.Ctx) (schedule.BlockInput, string) {
	var req blockRequest
	if err := c.BodyParser(&req); err != nil {
		return schedule.BlockInput{}, "invalid request body"
	}

	in := schedule.BlockInput{
		Reason: req.Reason,
		Kind:   domain.BlockKind(req.Kind),
	}

	var err error
	if in.DateStart, err = parseDate(req.DateStart); err != nil {
		return schedule.BlockInput{}, "date_start must be YYYY-MM-DD"
	}
	if in.DateEnd, err = parseDate(req.DateEnd); err != nil {
		return schedule.BlockInput{}, "date_end must be YYYY-MM-DD"
	}

	if req.TimeStart != nil {
		ts, err := domain.ParseMinuteOfDay(*req.TimeStart)
		if err != nil {
			return schedule.BlockInput{}, "time_start must be HH:MM"
		}
		in.TimeStart = &ts
	}
	if req.TimeEnd != nil {
		te, err := domain.ParseMinuteOfDay(*req.TimeEnd)
		if err != nil {
			return schedule.BlockInput{}, "time_end must be HH:MM"
		}
		in.TimeEnd = &te
	}

	return in, ""
}

func (s *Server) createBlock(c *fiber.Ctx) error {
	log := s.log.With(slog.String("handler", "CreateBlock"))

	businessID, err := strconv.ParseInt(c.Params("businessID"), 10, 64)
	if err != nil {
		return badRequest(c, "business id must be an integer")
	}

	in, msg := parseBlockInput(c)
	if msg != "" {
		return badRequest(c, msg)
	}
	in.BusinessID = businessID

	block, err := s.schedule.CreateBlock(c.UserContext(), in)
	if err != nil {
		return s.writeError(c, log.With(slog.Int64("business_id", businessID)), err)
	}

	log.Info("block created",
		slog.String("block_id", block.ID.String()),
		slog.Int64("business_id", block.BusinessID),
		slog.String("kind", string(block.Kind)),
	)
	return c.Status(fiber.StatusCreated).JSON(toBlockJSON(block))
}

func (s *Server) updateBlock(c *fiber.Ctx) error {
	log := s.log.With(slog.String("handler", "UpdateBlock"))

	blockID, err := uuid.Parse(c.Params("blockID"))
	if err != nil {
		return badRequest(c, "block id must be a UUID")
	}

	in, msg := parseBlockInput(c)
	if msg != "" {
		return badRequest(c, msg)
	}

	block, err := s.schedule.UpdateBlock(c.UserContext(), blockID, in)
	if err != nil {
		return s.writeError(c, log.With(slog.String("block_id", blockID.String())), err)
	}

	log.Info("block updated", slog.String("block_id", block.ID.String()))
	return c.JSON(toBlockJSON(block))
}

func (s *Server) deactivateBlock(c *fiber.Ctx) error {
	log := s.log.With(slog.String("handler", "DeactivateBlock"))

	blockID, err := uuid.Parse(c.Params("blockID"))
	if err != nil {
		return badRequest(c, "block id must be a UUID")
	}

	block, err := s.schedule.DeactivateBlock(c.UserContext(), blockID)
	if err != nil {
		return s.writeError(c, log.With(slog.String("block_id", blockID.String())), err)
	}

	log.Info("block deactivated", slog.String("block_id", block.ID.String()))
	return c.JSON(toBlockJSON(block))
}
