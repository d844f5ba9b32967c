package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"scdb-dashboard/models"
	"scdb-dashboard/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ExportHandler handles HTTP requests for table exports
type ExportHandler struct {
	exports  *service.ExportService
	sessions *service.SessionService
	logger   zerolog.Logger
}

// NewExportHandler creates a new export handler
func NewExportHandler(exports *service.ExportService, sessions *service.SessionService, logger zerolog.Logger) *ExportHandler {
	return &ExportHandler{
		exports:  exports,
		sessions: sessions,
		logger:   logger,
	}
}

// ExportTableRequest is the table exactly as displayed
type ExportTableRequest struct {
	Columns []string            `json:"columns" binding:"required"`
	Rows    [][]string          `json:"rows"`
	Format  models.ExportFormat `json:"format"`
}

// ExportTable handles POST /api/export
func (h *ExportHandler) ExportTable(c *gin.Context) {
	var req ExportTableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	h.export(c, service.ExportRequest{
		Columns: req.Columns,
		Rows:    req.Rows,
		Format:  req.Format,
	})
}

// ExportSession handles GET /api/sessions/:id/export?format=csv|xlsx.
// The rows are re-derived from the session's state, table query included.
func (h *ExportHandler) ExportSession(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}

	result, err := h.sessions.Compute(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			respondError(c, http.StatusNotFound, "SESSION_NOT_FOUND", "Session not found or expired")
			return
		}
		h.logger.Error().Err(err).Msg("Failed to compute session for export")
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}

	h.export(c, service.ExportRequest{
		Columns: result.State.Columns,
		Rows:    result.Table.Rows,
		Format:  models.ExportFormat(c.DefaultQuery("format", string(models.ExportCSV))),
	})
}

func (h *ExportHandler) export(c *gin.Context, req service.ExportRequest) {
	result, err := h.exports.Export(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, service.ErrUnsupportedFormat) {
			respondError(c, http.StatusBadRequest, "UNSUPPORTED_FORMAT", err.Error())
			return
		}
		h.logger.Error().Err(err).Msg("Failed to export table")
		respondError(c, http.StatusInternalServerError, "EXPORT_FAILED", err.Error())
		return
	}

	if result.Archived != nil {
		c.Header("X-Export-ID", result.Archived.ID.String())
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", result.Filename))
	c.Data(http.StatusOK, result.MimeType, result.Data)
}

// ListExports handles GET /api/exports
func (h *ExportHandler) ListExports(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit <= 0 {
		respondError(c, http.StatusBadRequest, "INVALID_LIMIT", "limit must be a positive integer")
		return
	}

	exports, err := h.exports.ListExports(c.Request.Context(), limit)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list exports")
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", err.Error())
		return
	}
	respondData(c, http.StatusOK, exports)
}

// GetExport handles GET /api/exports/:id
func (h *ExportHandler) GetExport(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_ID", "Invalid export ID format")
		return
	}

	export, reader, err := h.exports.GetExport(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrExportNotFound) {
			respondError(c, http.StatusNotFound, "NOT_FOUND", "Export not found")
			return
		}
		h.logger.Error().Err(err).Str("export_id", id.String()).Msg("Failed to download export")
		respondError(c, http.StatusInternalServerError, "DOWNLOAD_FAILED", fmt.Sprintf("Failed to download export: %v", err))
		return
	}
	defer reader.Close()

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", export.Filename))
	c.DataFromReader(http.StatusOK, export.Size, export.MimeType, reader, nil)
}

// DeleteExport handles DELETE /api/exports/:id
func (h *ExportHandler) DeleteExport(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_ID", "Invalid export ID format")
		return
	}

	if err := h.exports.DeleteExport(c.Request.Context(), id); err != nil {
		if errors.Is(err, service.ErrExportNotFound) {
			respondError(c, http.StatusNotFound, "NOT_FOUND", "Export not found")
			return
		}
		h.logger.Error().Err(err).Str("export_id", id.String()).Msg("Failed to delete export")
		respondError(c, http.StatusInternalServerError, "DELETE_FAILED", err.Error())
		return
	}
	c.Status(http.StatusNoContent)
}
