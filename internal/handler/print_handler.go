// internal/handler/print_handler.go
package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"receipt-service/internal/model"
	"receipt-service/internal/printer"
	"receipt-service/internal/service"
	"receipt-service/internal/transport"
	"receipt-service/internal/utils"
)

// PrintHandler handles print job requests
type PrintHandler struct {
	printService *service.PrintService
	feedLines    int
	logger       *utils.ServiceLogger
}

// NewPrintHandler creates a new print handler
func NewPrintHandler(printService *service.PrintService, feedLines int, logger *zap.Logger) *PrintHandler {
	return &PrintHandler{
		printService: printService,
		feedLines:    feedLines,
		logger:       utils.NewServiceLogger(logger, "print-handler"),
	}
}

// RegisterRoutes registers print routes
func (h *PrintHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/print", h.Print)
	router.GET("/jobs", h.ListJobs)
	router.GET("/jobs/:job_id", h.GetJob)
	router.DELETE("/jobs", h.PurgeJobs)
}

// PrintRequest is the print endpoint payload. Formatting flags default to
// the office policy when omitted.
type PrintRequest struct {
	Receipt    model.Receipt `json:"receipt" binding:"required"`
	BoldHeader *bool         `json:"bold_header,omitempty"`
	LargeTotal *bool         `json:"large_total,omitempty"`
	FeedLines  *int          `json:"feed_lines,omitempty"`
}

// policy resolves the request flags against the configured defaults
func (r *PrintRequest) policy(defaultFeedLines int) model.FormatPolicy {
	policy := model.DefaultFormatPolicy()
	if defaultFeedLines > 0 {
		policy.FeedLines = defaultFeedLines
	}
	if r.BoldHeader != nil {
		policy.BoldHeader = *r.BoldHeader
	}
	if r.LargeTotal != nil {
		policy.LargeTotal = *r.LargeTotal
	}
	if r.FeedLines != nil && *r.FeedLines >= 0 {
		policy.FeedLines = *r.FeedLines
	}
	return policy
}

// Print submits a receipt to the printer and journals the outcome
func (h *PrintHandler) Print(c *gin.Context) {
	var req PrintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	job, err := h.printService.Print(c.Request.Context(), &req.Receipt, req.policy(h.feedLines))
	if err != nil {
		h.respondPrintError(c, job, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Receipt printed", job)
}

// respondPrintError maps a print failure to an HTTP status. The job record,
// when one was journaled, rides along so the caller sees how far the
// receipt got.
func (h *PrintHandler) respondPrintError(c *gin.Context, job *model.PrintJob, err error) {
	switch {
	case errors.Is(err, printer.ErrJobInFlight):
		utils.ErrorResponse(c, http.StatusConflict, "Another print job is in progress", err)
	case errors.Is(err, transport.ErrNotConnected):
		utils.ErrorResponse(c, http.StatusServiceUnavailable, "Printer is not connected", err)
	case errors.Is(err, transport.ErrDisconnected):
		h.respondWithJob(c, http.StatusBadGateway, "Printer disconnected during printing", job, err)
	default:
		var seqErr *transport.SequenceError
		if errors.As(err, &seqErr) {
			h.respondWithJob(c, http.StatusBadGateway, "Printing failed partway", job, err)
			return
		}
		if strings.Contains(err.Error(), "invalid receipt") {
			utils.ErrorResponse(c, http.StatusBadRequest, "Invalid receipt", err)
			return
		}
		utils.ErrorResponse(c, http.StatusInternalServerError, "Print failed", err)
	}
}

// respondWithJob sends an error response carrying the journal record
func (h *PrintHandler) respondWithJob(c *gin.Context, statusCode int, message string, job *model.PrintJob, err error) {
	if job == nil {
		utils.ErrorResponse(c, statusCode, message, err)
		return
	}
	c.JSON(statusCode, utils.APIResponse{
		Success: false,
		Message: message,
		Data:    job,
		Error: &utils.APIError{
			Code:    jobErrorCode(job),
			Message: err.Error(),
		},
		Timestamp: time.Now(),
	})
}

func jobErrorCode(job *model.PrintJob) string {
	if job.ErrorKind != nil {
		return *job.ErrorKind
	}
	return "PRINT_FAILED"
}

// GetJob returns a single journal entry
func (h *PrintHandler) GetJob(c *gin.Context) {
	jobID, err := uuid.Parse(c.Param("job_id"))
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid job ID", err)
		return
	}

	job, err := h.printService.GetJob(c.Request.Context(), jobID)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			utils.ErrorResponse(c, http.StatusNotFound, "Print job not found", err)
			return
		}
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to get print job", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Print job retrieved", job)
}

// ListJobs returns recent journal entries
func (h *PrintHandler) ListJobs(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	jobs, err := h.printService.ListJobs(c.Request.Context(), limit, offset)
	if err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to list print jobs", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Print jobs retrieved", gin.H{
		"jobs":  jobs,
		"count": len(jobs),
	})
}

// PurgeJobs deletes journal entries older than the requested retention
func (h *PrintHandler) PurgeJobs(c *gin.Context) {
	days, err := strconv.Atoi(c.DefaultQuery("older_than_days", "90"))
	if err != nil || days <= 0 {
		utils.ErrorResponse(c, http.StatusBadRequest, "older_than_days must be a positive integer", err)
		return
	}

	deleted, err := h.printService.PurgeJobs(c.Request.Context(), days)
	if err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to purge print jobs", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Print jobs purged", gin.H{
		"deleted":         deleted,
		"older_than_days": days,
	})
}
