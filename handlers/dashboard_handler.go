package handlers

import (
	"bytes"
	"errors"
	"net/http"
	"strings"

	"scdb-dashboard/models"
	"scdb-dashboard/render"
	"scdb-dashboard/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// DashboardHandler handles HTTP requests for dashboard state and views
type DashboardHandler struct {
	dashboard *service.DashboardService
	sessions  *service.SessionService
	logger    zerolog.Logger
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(dashboard *service.DashboardService, sessions *service.SessionService, logger zerolog.Logger) *DashboardHandler {
	return &DashboardHandler{
		dashboard: dashboard,
		sessions:  sessions,
		logger:    logger,
	}
}

// sessionView is a session together with the outputs of its state
type sessionView struct {
	Session *models.Session          `json:"session"`
	Result  *service.DashboardResult `json:"result"`
}

// Index handles GET /
func (h *DashboardHandler) Index(c *gin.Context) {
	panel, err := h.dashboard.Controls()
	if err != nil {
		c.String(http.StatusInternalServerError, "dashboard unavailable")
		return
	}
	c.HTML(http.StatusOK, "index.html", gin.H{
		"Title": panel.Title,
		"Panel": panel,
	})
}

// GetControls handles GET /api/controls
func (h *DashboardHandler) GetControls(c *gin.Context) {
	panel, err := h.dashboard.Controls()
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to build controls")
		respondError(c, http.StatusInternalServerError, "CONTROLS_FAILED", err.Error())
		return
	}
	respondData(c, http.StatusOK, panel)
}

// Compute handles POST /api/dashboard. The body is a full dashboard state.
func (h *DashboardHandler) Compute(c *gin.Context) {
	var state models.DashboardState
	if err := c.ShouldBindJSON(&state); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	result, err := h.dashboard.Compute(state)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to compute dashboard")
		respondError(c, http.StatusInternalServerError, "COMPUTE_FAILED", err.Error())
		return
	}
	respondData(c, http.StatusOK, result)
}

// CreateSession handles POST /api/sessions
func (h *DashboardHandler) CreateSession(c *gin.Context) {
	sess, err := h.sessions.Create(c.Request.Context())
	if err != nil {
		h.sessionError(c, err)
		return
	}
	result, err := h.dashboard.Compute(sess.State)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to compute dashboard")
		respondError(c, http.StatusInternalServerError, "COMPUTE_FAILED", err.Error())
		return
	}
	h.logger.Debug().Str("session_id", sess.ID.String()).Msg("Session created")
	respondData(c, http.StatusCreated, sessionView{Session: sess, Result: result})
}

// GetSession handles GET /api/sessions/:id
func (h *DashboardHandler) GetSession(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}

	sess, err := h.sessions.Get(c.Request.Context(), id)
	if err != nil {
		h.sessionError(c, err)
		return
	}
	result, err := h.dashboard.Compute(sess.State)
	if err != nil {
		h.sessionError(c, err)
		return
	}
	respondData(c, http.StatusOK, sessionView{Session: sess, Result: result})
}

// UpdateSession handles PUT /api/sessions/:id. The body replaces the whole state.
func (h *DashboardHandler) UpdateSession(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}

	var state models.DashboardState
	if err := c.ShouldBindJSON(&state); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	sess, warnings, err := h.sessions.Update(c.Request.Context(), id, state)
	if err != nil {
		h.sessionError(c, err)
		return
	}
	result, err := h.dashboard.Compute(sess.State)
	if err != nil {
		h.sessionError(c, err)
		return
	}
	// normalization warnings are lost once the state is stored
	result.Warnings = append(warnings, result.Warnings...)
	respondData(c, http.StatusOK, sessionView{Session: sess, Result: result})
}

// DeleteSession handles DELETE /api/sessions/:id
func (h *DashboardHandler) DeleteSession(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	if err := h.sessions.Delete(c.Request.Context(), id); err != nil {
		h.sessionError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetChartPNG handles GET /api/sessions/:id/charts/:chart, where chart is
// time-series.png, bar.png or trend.png
func (h *DashboardHandler) GetChartPNG(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}

	name := strings.TrimSuffix(c.Param("chart"), ".png")
	result, err := h.sessions.Compute(c.Request.Context(), id)
	if err != nil {
		h.sessionError(c, err)
		return
	}
	chart, found := result.Chart(name)
	if !found {
		respondError(c, http.StatusNotFound, "NOT_FOUND", "Unknown chart "+name)
		return
	}

	var buf bytes.Buffer
	if err := render.WritePNG(&buf, chart, render.PNGWidth, render.PNGHeight); err != nil {
		h.logger.Error().Err(err).Str("chart", name).Msg("Failed to render chart")
		respondError(c, http.StatusInternalServerError, "RENDER_FAILED", err.Error())
		return
	}
	c.Data(http.StatusOK, "image/png", buf.Bytes())
}

func (h *DashboardHandler) sessionError(c *gin.Context, err error) {
	if errors.Is(err, service.ErrSessionNotFound) {
		respondError(c, http.StatusNotFound, "SESSION_NOT_FOUND", "Session not found or expired")
		return
	}
	h.logger.Error().Err(err).Msg("Session request failed")
	respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
}

func sessionID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_ID", "Invalid session ID format")
		return uuid.Nil, false
	}
	return id, true
}
