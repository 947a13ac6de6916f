package handler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vcscsvcscs/runcoach/internal/service"
	"go.uber.org/zap"
)

// DataHandler implements report export, data export and erase endpoints
type DataHandler struct {
	data    *service.DataService
	reports *service.ReportService
	logger  *zap.Logger
}

// NewDataHandler creates a new DataHandler
func NewDataHandler(data *service.DataService, reports *service.ReportService, logger *zap.Logger) *DataHandler {
	return &DataHandler{
		data:    data,
		reports: reports,
		logger:  logger,
	}
}

// GetReport downloads the plan as PDF
// GET /api/v1/plan/report
func (h *DataHandler) GetReport(c *gin.Context) {
	report, err := h.reports.GenerateReport(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, "failed to generate report", err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", report.Filename))
	if report.ArchivePath != "" {
		c.Header("X-Archive-Path", report.ArchivePath)
	}
	c.Data(http.StatusOK, "application/pdf", report.Content)
}

// ExportData downloads the profile, plan and chat history as JSON
// GET /api/v1/data
func (h *DataHandler) ExportData(c *gin.Context) {
	export := h.data.ExportData(c.Request.Context())

	body, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		respondError(c, h.logger, "failed to encode data export", err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename=runcoach_data.json")
	c.Data(http.StatusOK, "application/json", body)
}

// DeleteData erases the stored profile and plan
// DELETE /api/v1/data
func (h *DataHandler) DeleteData(c *gin.Context) {
	if err := h.data.DeleteData(c.Request.Context()); err != nil {
		respondError(c, h.logger, "failed to delete data", err)
		return
	}

	h.logger.Info("session data deleted")
	c.JSON(http.StatusOK, gin.H{
		"message": "Data deleted successfully",
	})
}
