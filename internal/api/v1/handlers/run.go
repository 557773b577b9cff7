package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"upload-ai/internal/api/errors"
	"upload-ai/internal/api/middleware"
	"upload-ai/internal/api/v1/dto"
	"upload-ai/internal/api/v1/services"
)

// MaxUploadBytes bounds the size of an uploaded video.
const MaxUploadBytes = 1 << 30

// formOverhead is the room left for multipart boundaries and the url and prompt fields.
const formOverhead = 64 << 10

// RunHandler handles run-related API endpoints
type RunHandler struct {
	service        services.RunService
	maxUploadBytes int64
}

// RunHandlerOption configures a RunHandler.
type RunHandlerOption func(*RunHandler)

// WithMaxUploadBytes overrides MaxUploadBytes.
func WithMaxUploadBytes(n int64) RunHandlerOption {
	return func(h *RunHandler) {
		h.maxUploadBytes = n
	}
}

// NewRunHandler creates a new run handler
func NewRunHandler(service services.RunService, opts ...RunHandlerOption) *RunHandler {
	h := &RunHandler{
		service:        service,
		maxUploadBytes: MaxUploadBytes,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Create handles POST /api/v1/runs
//
// Accepts multipart/form-data with a "file" part, or a JSON or form body with "url".
// "prompt" is optional and forwarded unchanged. Responds 202 with the new run.
func (h *RunHandler) Create(c *gin.Context) {
	// Reject oversized bodies while reading them, before binding spools the file to disk.
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes+formOverhead)

	var req dto.CreateRunRequest
	if err := middleware.ValidateRequest(c, &req); err != nil {
		middleware.HandleError(c, err)
		return
	}

	submit := &dto.SubmitRun{URL: req.URL, Prompt: req.Prompt}
	if req.File != nil {
		if req.File.Size > h.maxUploadBytes {
			middleware.HandleError(c, errors.PayloadTooLarge(h.maxUploadBytes))
			return
		}
		data, err := readUpload(req)
		if err != nil {
			middleware.HandleError(c, errors.InvalidRequest("Failed to read uploaded file", nil))
			return
		}
		submit.Data = data
		submit.Filename = req.File.Filename
		submit.MimeType = req.File.Header.Get("Content-Type")
	}

	response, err := h.service.CreateRun(c.Request.Context(), submit)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	c.Header("Location", "/api/v1/runs/"+response.ID)
	c.JSON(http.StatusAccepted, response)
}

// Get handles GET /api/v1/runs/:id
func (h *RunHandler) Get(c *gin.Context) {
	response, err := h.service.GetRun(c.Request.Context(), c.Param("id"))
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// List handles GET /api/v1/runs
func (h *RunHandler) List(c *gin.Context) {
	response, err := h.service.ListRuns(c.Request.Context())
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// Cancel handles DELETE /api/v1/runs/:id
// Cancelling a finished run returns it unchanged.
func (h *RunHandler) Cancel(c *gin.Context) {
	response, err := h.service.CancelRun(c.Request.Context(), c.Param("id"))
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// Events handles GET /api/v1/runs/:id/events
// Streams stage and progress events as Server-Sent Events until the run finishes or the
// client goes away.
func (h *RunHandler) Events(c *gin.Context) {
	events, err := h.service.StreamRun(c.Request.Context(), c.Param("id"))
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")
	for ev := range events {
		c.SSEvent(ev.Type, ev)
		c.Writer.Flush()
	}
}

func readUpload(req dto.CreateRunRequest) ([]byte, error) {
	file, err := req.File.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return io.ReadAll(file)
}
