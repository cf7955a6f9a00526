package handler

import (
	"errors"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/reelworthy/api/internal/jobs"
	"github.com/reelworthy/api/internal/model"
	"github.com/reelworthy/api/internal/service"
	"github.com/reelworthy/api/pkg/response"
)

// videoExtensions lists the upload containers ffmpeg handles here.
var videoExtensions = map[string]bool{
	".mp4":  true,
	".mov":  true,
	".mkv":  true,
	".webm": true,
	".avi":  true,
}

type JobHandler struct {
	service     *service.JobService
	validator   *validator.Validate
	maxUploadMB int
}

func NewJobHandler(svc *service.JobService, v *validator.Validate, maxUploadMB int) *JobHandler {
	return &JobHandler{
		service:     svc,
		validator:   v,
		maxUploadMB: maxUploadMB,
	}
}

// Upload handles POST /api/jobs/upload
func (h *JobHandler) Upload(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return response.ValidationError(c, "File is required", nil)
	}

	maxSize := int64(h.maxUploadMB) * 1024 * 1024
	if maxSize > 0 && file.Size > maxSize {
		return response.ValidationError(c, "File too large", map[string]interface{}{
			"maxSizeMB": h.maxUploadMB,
			"fileSize":  file.Size,
		})
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !videoExtensions[ext] {
		return response.ValidationError(c, "Unsupported file type. Supported: MP4, MOV, MKV, WEBM, AVI", map[string]interface{}{
			"extension": ext,
		})
	}

	f, err := file.Open()
	if err != nil {
		return response.ServiceError(c, "Failed to open file")
	}
	defer f.Close()

	job, err := h.service.SubmitUpload(file.Filename, f)
	if err != nil {
		return response.ServiceError(c, err.Error())
	}

	return response.Accepted(c, model.SubmitJobResponse{
		JobID:     job.ID,
		Status:    job.Status,
		CreatedAt: job.CreatedAt,
	})
}

// Link handles POST /api/jobs/link
func (h *JobHandler) Link(c *fiber.Ctx) error {
	var req model.LinkJobRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "Invalid request body", nil)
	}
	if err := h.validator.Struct(&req); err != nil {
		return response.ValidationError(c, "A valid video URL is required", err.Error())
	}

	job, err := h.service.SubmitLink(req.URL)
	if err != nil {
		return response.ServiceError(c, err.Error())
	}

	return response.Accepted(c, model.SubmitJobResponse{
		JobID:     job.ID,
		Status:    job.Status,
		CreatedAt: job.CreatedAt,
	})
}

// Status handles GET /api/jobs/:jobId
func (h *JobHandler) Status(c *fiber.Ctx) error {
	jobID := c.Params("jobId")
	if jobID == "" {
		return response.ValidationError(c, "Job ID is required", nil)
	}

	snap, err := h.service.Snapshot(jobID)
	if err != nil {
		if errors.Is(err, jobs.ErrNotFound) {
			return response.NotFound(c, "Job not found")
		}
		return response.ServiceError(c, err.Error())
	}

	return response.OK(c, snap)
}

// Cleanup handles DELETE /api/jobs/:jobId
func (h *JobHandler) Cleanup(c *fiber.Ctx) error {
	jobID := c.Params("jobId")
	if jobID == "" {
		return response.ValidationError(c, "Job ID is required", nil)
	}

	if err := h.service.Cleanup(jobID); err != nil {
		if errors.Is(err, service.ErrJobRunning) {
			return response.Conflict(c, "Job is still running")
		}
		return response.ServiceError(c, err.Error())
	}

	return response.NoContent(c)
}

// Download handles GET /download/:jobId/:filename
func (h *JobHandler) Download(c *fiber.Ctx) error {
	jobID := c.Params("jobId")
	filename := c.Params("filename")
	if jobID == "" || filename == "" {
		return response.ValidationError(c, "Job ID and filename are required", nil)
	}

	path, err := h.service.ClipPath(jobID, filename)
	if err != nil {
		return response.NotFound(c, "Clip not found")
	}

	return c.SendFile(path)
}
