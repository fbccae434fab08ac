package controllers

import (
	"encoding/json"
	"strconv"
	"time"

	"studyplan_go/database"
	"studyplan_go/middleware"
	"studyplan_go/models"
	"studyplan_go/services"
	"studyplan_go/storage"

	"github.com/gofiber/fiber/v2"
)

type LogController struct{}

// LogResponse represents an audit log entry response
type LogResponse struct {
	ID         uint                   `json:"id"`
	UserID     uint                   `json:"user_id"`
	Username   string                 `json:"username,omitempty"`
	TenantID   uint                   `json:"tenant_id"`
	Action     string                 `json:"action"`
	Resource   string                 `json:"resource"`
	ResourceID uint                   `json:"resource_id"`
	Details    map[string]interface{} `json:"details"`
	IPAddress  string                 `json:"ip_address"`
	UserAgent  string                 `json:"user_agent"`
	CreatedAt  time.Time              `json:"created_at"`
}

func toLogResponse(log models.AuditLog) LogResponse {
	resp := LogResponse{
		ID:         log.ID,
		UserID:     log.UserID,
		TenantID:   log.TenantID,
		Action:     log.Action,
		Resource:   log.Resource,
		ResourceID: log.ResourceID,
		IPAddress:  log.IPAddress,
		UserAgent:  log.UserAgent,
		CreatedAt:  log.CreatedAt,
	}
	if log.User.ID > 0 {
		resp.Username = log.User.Username
	}
	if len(log.Details) > 0 {
		var details map[string]interface{}
		if err := json.Unmarshal(log.Details, &details); err == nil {
			resp.Details = details
		}
	}
	return resp
}

// GetLogs lists audit events for the caller's tenant
func (lc *LogController) GetLogs(c *fiber.Ctx) error {
	scope, err := middleware.CurrentScope(c)
	if err != nil {
		return err
	}

	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "50"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 500 {
		limit = 50
	}
	offset := (page - 1) * limit

	query := database.DB.Model(&models.AuditLog{}).Where("tenant_id = ?", scope.TenantID)

	if action := c.Query("action"); action != "" {
		query = query.Where("action = ?", action)
	}
	if resource := c.Query("resource"); resource != "" {
		query = query.Where("resource = ?", resource)
	}
	if userIDStr := c.Query("user_id"); userIDStr != "" {
		query = query.Where("user_id = ?", userIDStr)
	}

	var total int64
	query.Count(&total)

	var logs []models.AuditLog
	if err := query.Preload("User").Order("created_at DESC").Limit(limit).Offset(offset).Find(&logs).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch logs"})
	}

	responses := make([]LogResponse, 0, len(logs))
	for _, log := range logs {
		responses = append(responses, toLogResponse(log))
	}

	return c.JSON(fiber.Map{
		"logs":  responses,
		"total": total,
		"page":  page,
		"limit": limit,
	})
}

// GetArchives lists completed audit archive uploads
func (lc *LogController) GetArchives(c *fiber.Ctx) error {
	archives, err := services.NewAuditArchiveService().ListArchives()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch archives"})
	}

	return c.JSON(fiber.Map{"archives": archives, "total": len(archives)})
}

// DownloadArchive returns a short-lived link for one archived bundle
func (lc *LogController) DownloadArchive(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	var archive models.AuditArchive
	if err := database.DB.First(&archive, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Archive not found"})
	}
	if archive.Status != "completed" {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Archive is not ready for download"})
	}

	store, err := storage.NewArchiveStore()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Archive storage unavailable"})
	}

	url, err := store.PresignDownload(archive.S3Key, 15*time.Minute)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to generate download link"})
	}

	return c.JSON(fiber.Map{
		"file_name":    archive.FileName,
		"download_url": url,
		"expires_in":   int((15 * time.Minute).Seconds()),
	})
}
