package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"drivesync/domain/models"
	"drivesync/domain/services"
	"drivesync/pkg/utils"
)

// DispatchHandler fronts C2 (DriveManager.Call) and C6 (SyncExecutor): one
// route per operation, each parsing a request body into the matching
// params struct so DriveManager.Call stays a single generic entry point
// rather than growing a bespoke handler per provider method.
type DispatchHandler struct {
	driveManager services.DriveManager
	syncExecutor services.SyncExecutor
}

func NewDispatchHandler(driveManager services.DriveManager, syncExecutor services.SyncExecutor) *DispatchHandler {
	return &DispatchHandler{driveManager: driveManager, syncExecutor: syncExecutor}
}

func xToken(c *fiber.Ctx) string {
	return c.Get("X-Drive-Token")
}

func driveTypeFromQuery(c *fiber.Ctx) (models.DriveType, error) {
	return models.ParseDriveType(c.Query("drive_type"))
}

func (h *DispatchHandler) GetUserInfo(c *fiber.Ctx) error {
	driveType, err := driveTypeFromQuery(c)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "invalid drive_type", err)
	}

	result, err := h.driveManager.Call(c.Context(), xToken(c), driveType, "get_user_info", nil)
	if err != nil {
		return respondServiceError(c, err)
	}
	return utils.SuccessResponse(c, result)
}

type listDiskRequest struct {
	DriveType string `json:"drive_type"`
	Path      string `json:"path"`
	FileID    string `json:"file_id"`
	Recursive bool   `json:"recursive"`
	Speed     string `json:"speed"`
	OrderBy   string `json:"order_by"`
	OrderDesc bool   `json:"order_desc"`
}

func (h *DispatchHandler) ListDisk(c *fiber.Ctx) error {
	var req listDiskRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "invalid request body", err)
	}

	driveType, err := models.ParseDriveType(req.DriveType)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "invalid drive_type", err)
	}
	speed := models.RecursionSpeedNormal
	if req.Speed != "" {
		if speed, err = models.ParseRecursionSpeed(req.Speed); err != nil {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, "invalid speed", err)
		}
	}

	params := services.ListDiskParams{
		Path:      req.Path,
		FileID:    req.FileID,
		Recursive: req.Recursive,
		Speed:     speed,
		Order:     services.SortOrder{By: req.OrderBy, Desc: req.OrderDesc},
	}

	result, err := h.driveManager.Call(c.Context(), xToken(c), driveType, "list_disk", params)
	if err != nil {
		return respondServiceError(c, err)
	}
	return utils.SuccessResponse(c, result)
}

type listShareRequest struct {
	DriveType  string `json:"drive_type"`
	SourceType string `json:"source_type"`
	SourceID   string `json:"source_id"`
	Path       string `json:"path"`
	Recursive  bool   `json:"recursive"`
	Speed      string `json:"speed"`
}

func (h *DispatchHandler) ListShare(c *fiber.Ctx) error {
	var req listShareRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "invalid request body", err)
	}

	driveType, err := models.ParseDriveType(req.DriveType)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "invalid drive_type", err)
	}
	sourceType, err := models.ParseSourceType(req.SourceType)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "invalid source_type", err)
	}
	speed := models.RecursionSpeedNormal
	if req.Speed != "" {
		if speed, err = models.ParseRecursionSpeed(req.Speed); err != nil {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, "invalid speed", err)
		}
	}

	params := services.ListShareParams{
		SourceType: sourceType,
		SourceID:   req.SourceID,
		Path:       req.Path,
		Recursive:  req.Recursive,
		Speed:      speed,
	}

	result, err := h.driveManager.Call(c.Context(), xToken(c), driveType, "list_share", params)
	if err != nil {
		return respondServiceError(c, err)
	}
	return utils.SuccessResponse(c, result)
}

type mkdirRequest struct {
	DriveType      string `json:"drive_type"`
	Path           string `json:"path"`
	ParentID       string `json:"parent_id"`
	FileName       string `json:"file_name"`
	ReturnIfExists bool   `json:"return_if_exists"`
}

func (h *DispatchHandler) Mkdir(c *fiber.Ctx) error {
	var req mkdirRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "invalid request body", err)
	}

	driveType, err := models.ParseDriveType(req.DriveType)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "invalid drive_type", err)
	}

	params := services.MkdirParams{
		Path:           req.Path,
		ParentID:       req.ParentID,
		FileName:       req.FileName,
		ReturnIfExists: req.ReturnIfExists,
	}

	result, err := h.driveManager.Call(c.Context(), xToken(c), driveType, "mkdir", params)
	if err != nil {
		return respondServiceError(c, err)
	}
	return utils.SuccessResponse(c, result)
}

type removeRequest struct {
	DriveType string   `json:"drive_type"`
	Paths     []string `json:"paths"`
	IDs       []string `json:"ids"`
}

func (h *DispatchHandler) Remove(c *fiber.Ctx) error {
	var req removeRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "invalid request body", err)
	}

	driveType, err := models.ParseDriveType(req.DriveType)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "invalid drive_type", err)
	}

	result, err := h.driveManager.Call(c.Context(), xToken(c), driveType, "remove", services.RemoveParams{Paths: req.Paths, IDs: req.IDs})
	if err != nil {
		return respondServiceError(c, err)
	}
	return utils.SuccessResponse(c, result)
}

type transferRequest struct {
	DriveType  string         `json:"drive_type"`
	SourceType string         `json:"source_type"`
	SourceID   string         `json:"source_id"`
	SourcePath string         `json:"source_path"`
	TargetPath string         `json:"target_path"`
	TargetID   string         `json:"target_id"`
	FileIDs    []string       `json:"file_ids"`
	Ext        map[string]any `json:"ext"`
}

func (h *DispatchHandler) Transfer(c *fiber.Ctx) error {
	var req transferRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "invalid request body", err)
	}

	driveType, err := models.ParseDriveType(req.DriveType)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "invalid drive_type", err)
	}
	sourceType, err := models.ParseSourceType(req.SourceType)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "invalid source_type", err)
	}

	params := services.TransferParams{
		SourceType: sourceType,
		SourceID:   req.SourceID,
		SourcePath: req.SourcePath,
		TargetPath: req.TargetPath,
		TargetID:   req.TargetID,
		FileIDs:    req.FileIDs,
		Ext:        req.Ext,
	}

	result, err := h.driveManager.Call(c.Context(), xToken(c), driveType, "transfer", params)
	if err != nil {
		return respondServiceError(c, err)
	}
	return utils.SuccessResponse(c, result)
}

func (h *DispatchHandler) GetRelationships(c *fiber.Ctx) error {
	driveType, err := driveTypeFromQuery(c)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "invalid drive_type", err)
	}

	kind := models.RelationshipKind(c.Query("kind"))
	if kind != models.RelationshipKindFriend && kind != models.RelationshipKindGroup {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "invalid kind", nil)
	}

	result, err := h.driveManager.Call(c.Context(), xToken(c), driveType, "get_relationships", kind)
	if err != nil {
		return respondServiceError(c, err)
	}
	return utils.SuccessResponse(c, result)
}

// ExecuteSync runs one sync_config synchronously and returns the resulting
// counts; long-running runs are expected to be triggered through
// SchedulerService instead, not this route.
func (h *DispatchHandler) ExecuteSync(c *fiber.Ctx) error {
	configID, err := uuid.Parse(c.Params("config_id"))
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "invalid config_id", err)
	}

	result, err := h.syncExecutor.Execute(c.Context(), configID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return utils.SuccessResponse(c, result)
}

// respondServiceError maps the domain error taxonomy (services/errors.go)
// onto HTTP status codes.
func respondServiceError(c *fiber.Ctx, err error) error {
	switch err.(type) {
	case *services.AuthError:
		return utils.ErrorResponse(c, fiber.StatusUnauthorized, "authentication failed", err)
	case *services.NotFoundError:
		return utils.ErrorResponse(c, fiber.StatusNotFound, "not found", err)
	case *services.ValidationError:
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "invalid request", err)
	case *services.ProviderTransientError:
		return utils.ErrorResponse(c, fiber.StatusBadGateway, "provider temporarily unavailable", err)
	case *services.ProviderBusinessError:
		return utils.ErrorResponse(c, fiber.StatusConflict, "provider rejected the request", err)
	default:
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "internal error", err)
	}
}
