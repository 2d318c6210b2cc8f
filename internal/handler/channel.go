package handler

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v3"
	"github.com/jackc/pgx/v5"

	"github.com/ccalu/channelpulse/internal/middleware"
	"github.com/ccalu/channelpulse/internal/repository"
	"github.com/ccalu/channelpulse/internal/service"
)

type ChannelHandler struct {
	svc      *service.ChannelService
	channels *repository.ChannelRepo
	snaps    *repository.SnapshotRepo
}

func NewChannelHandler(svc *service.ChannelService, channels *repository.ChannelRepo, snaps *repository.SnapshotRepo) *ChannelHandler {
	return &ChannelHandler{svc: svc, channels: channels, snaps: snaps}
}

// Table handles GET /api/channels — the dashboard table.
func (h *ChannelHandler) Table(c fiber.Ctx) error {
	rows, cached, err := h.svc.Table(c.Context())
	if err != nil {
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to build channel table")
	}
	return c.JSON(fiber.Map{
		"channels": rows,
		"cached":   cached,
	})
}

// Get handles GET /api/channels/:id — one channel with its latest snapshot.
func (h *ChannelHandler) Get(c fiber.Ctx) error {
	id, errMsg := middleware.ValidateIDParam(c.Params("id"))
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}

	channel, err := h.channels.FindByID(c.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return middleware.ErrorResponse(c, fiber.StatusNotFound, "NOT_FOUND", "Channel not found")
		}
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to fetch channel")
	}

	snap, err := h.snaps.LatestSnapshot(c.Context(), id)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to fetch snapshot")
	}

	return c.JSON(fiber.Map{
		"channel":  channel,
		"snapshot": snap,
	})
}

// History handles GET /api/channels/:id/history?days=30.
func (h *ChannelHandler) History(c fiber.Ctx) error {
	id, errMsg := middleware.ValidateIDParam(c.Params("id"))
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}

	days := queryInt(c, "days", 30)
	if days < 1 || days > 60 {
		days = 30
	}

	history, err := h.snaps.History(c.Context(), id, days)
	if err != nil {
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to fetch history")
	}
	return c.JSON(fiber.Map{
		"channelId": id,
		"days":      days,
		"history":   history,
	})
}

// Problems handles GET /api/channels/problems — channels failing repeatedly.
func (h *ChannelHandler) Problems(c fiber.Ctx) error {
	minFailures := queryInt(c, "minFailures", 3)

	channels, err := h.svc.ProblemChannels(c.Context(), minFailures)
	if err != nil {
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list problem channels")
	}
	return c.JSON(fiber.Map{
		"channels": channels,
		"count":    len(channels),
	})
}

// Stale handles GET /api/channels/stale — channels past the collection window.
func (h *ChannelHandler) Stale(c fiber.Ctx) error {
	hours := queryInt(c, "hours", 48)

	channels, err := h.svc.StaleChannels(c.Context(), hours)
	if err != nil {
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list stale channels")
	}
	return c.JSON(fiber.Map{
		"channels": channels,
		"count":    len(channels),
	})
}

func queryInt(c fiber.Ctx, key string, fallback int) int {
	v := c.Query(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
