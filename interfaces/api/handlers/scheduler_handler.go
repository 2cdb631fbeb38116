package handlers

import (
	"github.com/gofiber/fiber/v2"

	"drivesync/domain/services"
	"drivesync/pkg/utils"
)

// SchedulerHandler exposes C7's administrative operations: picking up a
// config write without a process restart, dry-running a cron expression,
// and reporting which configs currently hold a live trigger.
type SchedulerHandler struct {
	scheduler services.SchedulerService
}

func NewSchedulerHandler(scheduler services.SchedulerService) *SchedulerHandler {
	return &SchedulerHandler{scheduler: scheduler}
}

func (h *SchedulerHandler) Refresh(c *fiber.Ctx) error {
	if err := h.scheduler.RefreshFromDB(c.Context()); err != nil {
		return respondServiceError(c, err)
	}
	return utils.SuccessResponse(c, h.scheduler.Status())
}

func (h *SchedulerHandler) ValidateCron(c *fiber.Ctx) error {
	expr := c.Query("cron")
	if expr == "" {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "cron query parameter required", nil)
	}
	return utils.SuccessResponse(c, h.scheduler.ValidateCron(expr))
}

func (h *SchedulerHandler) Status(c *fiber.Ctx) error {
	return utils.SuccessResponse(c, h.scheduler.Status())
}
