package handler

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/ccalu/channelpulse/internal/middleware"
	"github.com/ccalu/channelpulse/internal/repository"
	"github.com/ccalu/channelpulse/internal/service"
)

// runTimeout bounds a triggered collection run. Generous, since a large
// roster at 90 requests per 100 seconds genuinely takes a while.
const runTimeout = 2 * time.Hour

type RunHandler struct {
	runs   *repository.RunRepo
	runSvc *service.RunService
}

func NewRunHandler(runs *repository.RunRepo, runSvc *service.RunService) *RunHandler {
	return &RunHandler{runs: runs, runSvc: runSvc}
}

// Trigger handles POST /api/collect — kicks off a collection run in the
// background and returns immediately. 409 when a run already holds the lock.
func (h *RunHandler) Trigger(c fiber.Ctx) error {
	active, err := h.runs.HasActiveRun(c.Context())
	if err != nil {
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to check run state")
	}
	if active {
		return middleware.ErrorResponse(c, fiber.StatusConflict, "RUN_IN_PROGRESS", "A collection run is already in progress")
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
		defer cancel()

		if _, err := h.runSvc.Execute(ctx); err != nil && !errors.Is(err, service.ErrRunInProgress) {
			middleware.Logger.Error().Err(err).Msg("triggered collection run failed")
		}
	}()

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"status": "started",
	})
}

// List handles GET /api/runs — recent collection runs, newest first.
func (h *RunHandler) List(c fiber.Ctx) error {
	limit := queryInt(c, "limit", 30)

	runs, err := h.runs.List(c.Context(), limit)
	if err != nil {
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list runs")
	}
	return c.JSON(fiber.Map{
		"runs":  runs,
		"count": len(runs),
	})
}

// Quota handles GET /api/quota — credential pool state plus units charged
// by today's runs.
func (h *RunHandler) Quota(c fiber.Ctx) error {
	units, err := h.runs.UnitsSpentToday(c.Context())
	if err != nil {
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to read quota usage")
	}
	return c.JSON(fiber.Map{
		"pool":            h.runSvc.PoolStats(),
		"unitsSpentToday": units,
	})
}
