package middleware

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v3"

	"github.com/ccalu/channelpulse/internal/model"
)

// Field limits matching database schema constraints.
const (
	MaxRuleNameLen = 80
	MaxSubgenres   = 10
	MaxSubgenreLen = 40
)

// allowedWindowDays are the windows the alert copy and the rule engine
// understand: 24 hours, 3 days, a week, two weeks, a month.
var allowedWindowDays = map[int]bool{1: true, 3: true, 7: true, 14: true, 30: true}

// ErrorResponse is a helper that returns a standard API error response.
func ErrorResponse(c fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    code,
			"message": message,
		},
	})
}

// ValidateIDParam parses a positive int64 path parameter.
func ValidateIDParam(raw string) (int64, string) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, "id must be a positive integer"
	}
	return id, ""
}

// ValidateRule checks a notification rule payload and normalizes it in
// place. Returns an error message, empty when the rule is valid.
func ValidateRule(rule *model.NotificationRule) string {
	rule.Name = strings.TrimSpace(rule.Name)
	if rule.Name == "" {
		return "name is required"
	}
	if len(rule.Name) > MaxRuleNameLen {
		return "name must be at most 80 characters"
	}
	if rule.MinViews <= 0 {
		return "minViews must be positive"
	}
	if !allowedWindowDays[rule.WindowDays] {
		return "windowDays must be one of 1, 3, 7, 14 or 30"
	}
	switch rule.KindFilter {
	case model.RuleKindOwned, model.RuleKindMined, model.RuleKindBoth:
	case "":
		rule.KindFilter = model.RuleKindBoth
	default:
		return "kindFilter must be owned, mined or both"
	}
	if len(rule.Subgenres) > MaxSubgenres {
		return "at most 10 subgenres per rule"
	}
	for i, s := range rule.Subgenres {
		s = strings.TrimSpace(s)
		if s == "" || len(s) > MaxSubgenreLen {
			return "subgenres must be non-empty and at most 40 characters"
		}
		rule.Subgenres[i] = s
	}
	return ""
}
