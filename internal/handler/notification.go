package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/jackc/pgx/v5"

	"github.com/ccalu/channelpulse/internal/middleware"
	"github.com/ccalu/channelpulse/internal/model"
	"github.com/ccalu/channelpulse/internal/repository"
	"github.com/ccalu/channelpulse/internal/service"
)

type NotificationHandler struct {
	notifications *repository.NotificationRepo
	cache         *service.CacheService
}

func NewNotificationHandler(notifications *repository.NotificationRepo, cache *service.CacheService) *NotificationHandler {
	return &NotificationHandler{notifications: notifications, cache: cache}
}

// Feed handles GET /api/notifications?unseen=true&limit=100.
func (h *NotificationHandler) Feed(c fiber.Ctx) error {
	unseenOnly := c.Query("unseen") == "true"
	limit := queryInt(c, "limit", 100)

	if unseenOnly {
		if feed, err := h.cache.GetFeed(c.Context()); err == nil && feed != nil {
			return c.JSON(fiber.Map{"notifications": feed, "count": len(feed), "cached": true})
		}
	}

	feed, err := h.notifications.Feed(c.Context(), unseenOnly, limit)
	if err != nil {
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to fetch notifications")
	}
	if unseenOnly {
		h.cache.SetFeed(c.Context(), feed)
	}
	return c.JSON(fiber.Map{
		"notifications": feed,
		"count":         len(feed),
		"cached":        false,
	})
}

// MarkSeen handles POST /api/notifications/:id/seen.
func (h *NotificationHandler) MarkSeen(c fiber.Ctx) error {
	id, errMsg := middleware.ValidateIDParam(c.Params("id"))
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}

	if err := h.notifications.MarkSeen(c.Context(), id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return middleware.ErrorResponse(c, fiber.StatusNotFound, "NOT_FOUND", "No unseen notification with that id")
		}
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to mark notification")
	}
	h.cache.Invalidate(c.Context())
	return c.JSON(fiber.Map{"status": "ok"})
}

// Stats handles GET /api/notifications/stats.
func (h *NotificationHandler) Stats(c fiber.Ctx) error {
	stats, err := h.notifications.Stats(c.Context())
	if err != nil {
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to compute notification stats")
	}
	return c.JSON(stats)
}

// MarkAllSeen handles POST /api/notifications/mark-all-seen.
func (h *NotificationHandler) MarkAllSeen(c fiber.Ctx) error {
	count, err := h.notifications.MarkAllSeen(c.Context())
	if err != nil {
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to mark notifications")
	}
	h.cache.Invalidate(c.Context())
	return c.JSON(fiber.Map{"status": "ok", "marked": count})
}

// ListRules handles GET /api/notifications/rules.
func (h *NotificationHandler) ListRules(c fiber.Ctx) error {
	rules, err := h.notifications.ListRules(c.Context())
	if err != nil {
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list rules")
	}
	return c.JSON(fiber.Map{"rules": rules, "count": len(rules)})
}

// CreateRule handles POST /api/notifications/rules.
func (h *NotificationHandler) CreateRule(c fiber.Ctx) error {
	var rule model.NotificationRule
	if err := c.Bind().JSON(&rule); err != nil {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_BODY", "Malformed rule payload")
	}
	if errMsg := middleware.ValidateRule(&rule); errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}

	if err := h.notifications.CreateRule(c.Context(), &rule); err != nil {
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create rule")
	}
	return c.Status(fiber.StatusCreated).JSON(rule)
}

// UpdateRule handles PUT /api/notifications/rules/:id.
func (h *NotificationHandler) UpdateRule(c fiber.Ctx) error {
	id, errMsg := middleware.ValidateIDParam(c.Params("id"))
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}

	var rule model.NotificationRule
	if err := c.Bind().JSON(&rule); err != nil {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_BODY", "Malformed rule payload")
	}
	rule.ID = id
	if errMsg := middleware.ValidateRule(&rule); errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}

	if err := h.notifications.UpdateRule(c.Context(), &rule); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return middleware.ErrorResponse(c, fiber.StatusNotFound, "NOT_FOUND", "Rule not found")
		}
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update rule")
	}
	return c.JSON(rule)
}

// DeleteRule handles DELETE /api/notifications/rules/:id.
func (h *NotificationHandler) DeleteRule(c fiber.Ctx) error {
	id, errMsg := middleware.ValidateIDParam(c.Params("id"))
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}

	if err := h.notifications.DeleteRule(c.Context(), id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return middleware.ErrorResponse(c, fiber.StatusNotFound, "NOT_FOUND", "Rule not found")
		}
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to delete rule")
	}
	return c.JSON(fiber.Map{"status": "ok"})
}
