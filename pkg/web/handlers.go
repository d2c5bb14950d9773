package web

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/teslashibe/cleargaze/pkg/camera"
	"github.com/teslashibe/cleargaze/pkg/guidance"
	"github.com/teslashibe/cleargaze/pkg/journal"
	"github.com/teslashibe/cleargaze/pkg/pipeline"
)

// StartRequest is the optional body of POST /api/sessions.
type StartRequest struct {
	Facing          *string            `json:"facing"`
	Preset          *string            `json:"preset"` // Guidance preset
	IdealDistanceCm *float64           `json:"ideal_distance_cm"`
	ToleranceCm     *float64           `json:"tolerance_cm"`
	Channels        *guidance.Channels `json:"channels"`
}

// apply overlays the request on a copy of base.
func (r StartRequest) apply(base pipeline.Options) (pipeline.Options, error) {
	opts := base
	if r.Preset != nil {
		cfg, ok := guidance.Preset(*r.Preset)
		if !ok {
			return opts, fiber.NewError(fiber.StatusBadRequest, "unknown preset "+*r.Preset)
		}
		cfg.Channels = base.Guidance.Channels
		opts.Guidance = cfg
	}
	if r.Facing != nil {
		f, err := camera.ParseFacing(*r.Facing)
		if err != nil {
			return opts, fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		opts.Camera.Facing = f
	}
	if r.IdealDistanceCm != nil {
		opts.Guidance.IdealDistanceCm = *r.IdealDistanceCm
	}
	if r.ToleranceCm != nil {
		opts.Guidance.ToleranceCm = *r.ToleranceCm
	}
	if r.Channels != nil {
		opts.Guidance.Channels = *r.Channels
	}
	return opts, nil
}

// StartResponse is returned by POST /api/sessions.
type StartResponse struct {
	ID     string          `json:"id"`
	Status pipeline.Status `json:"status"`
}

// HistoryDetail is returned by GET /api/history/:id.
type HistoryDetail struct {
	ID          string                   `json:"id"`
	Transitions []journal.Transition     `json:"transitions"`
	DurationsMs map[guidance.State]int64 `json:"durations_ms"`
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	out := fiber.Map{
		"status":   "ok",
		"sessions": len(s.manager.List()),
		"journal":  s.journal != nil,
	}
	if s.status != nil {
		out["stream"] = fiber.Map{
			"running": s.status.IsRunning(),
			"clients": s.status.ClientCount(),
			"dropped": s.status.Dropped(),
		}
	}
	return c.JSON(out)
}

func (s *Server) handleStartSession(c *fiber.Ctx) error {
	var req StartRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid body: "+err.Error())
		}
	}
	opts, err := req.apply(s.base)
	if err != nil {
		return err
	}

	id, err := s.manager.Start(c.UserContext(), opts)
	if err != nil {
		return startError(err)
	}
	st, err := s.manager.Status(id)
	if err != nil {
		return sessionError(err)
	}
	s.logger.Info("session started over http", "session", id.String(), "facing", st.Facing)
	return c.Status(fiber.StatusCreated).JSON(StartResponse{ID: id.String(), Status: st})
}

func (s *Server) handleListSessions(c *fiber.Ctx) error {
	return c.JSON(s.manager.List())
}

func (s *Server) handleGetSession(c *fiber.Ctx) error {
	id, err := parseHandle(c)
	if err != nil {
		return err
	}
	st, err := s.manager.Status(id)
	if err != nil {
		return sessionError(err)
	}
	return c.JSON(st)
}

func (s *Server) handleStopSession(c *fiber.Ctx) error {
	id, err := parseHandle(c)
	if err != nil {
		return err
	}
	if err := s.manager.Stop(id); err != nil {
		return sessionError(err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) handleHistory(c *fiber.Ctx) error {
	if s.journal == nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "journal disabled")
	}
	recs, err := s.journal.RecentSessions(c.UserContext(), c.QueryInt("limit", 20))
	if err != nil {
		return err
	}
	if recs == nil {
		recs = []journal.SessionRecord{}
	}
	return c.JSON(recs)
}

func (s *Server) handleHistoryDetail(c *fiber.Ctx) error {
	if s.journal == nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "journal disabled")
	}
	id := c.Params("id")
	durs, err := s.journal.StateDurations(c.UserContext(), id, time.Now())
	if errors.Is(err, journal.ErrNotFound) {
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	}
	if err != nil {
		return err
	}
	trs, err := s.journal.Transitions(c.UserContext(), id)
	if err != nil {
		return err
	}
	if trs == nil {
		trs = []journal.Transition{}
	}
	out := HistoryDetail{ID: id, Transitions: trs, DurationsMs: make(map[guidance.State]int64, len(durs))}
	for state, d := range durs {
		out.DurationsMs[state] = d.Milliseconds()
	}
	return c.JSON(out)
}

func parseHandle(c *fiber.Ctx) (pipeline.Handle, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "invalid session id")
	}
	return id, nil
}

func sessionError(err error) error {
	if errors.Is(err, pipeline.ErrSessionNotFound) {
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	}
	return err
}

func startError(err error) error {
	var cfgErr *guidance.ConfigError
	switch {
	case errors.As(err, &cfgErr):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, camera.ErrUnavailable):
		return fiber.NewError(fiber.StatusServiceUnavailable, err.Error())
	case errors.Is(err, pipeline.ErrManagerClosed):
		return fiber.NewError(fiber.StatusServiceUnavailable, err.Error())
	}
	return err
}
