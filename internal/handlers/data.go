package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hygieia/backend/internal/apierror"
	"github.com/hygieia/backend/internal/logger"
	"github.com/hygieia/backend/internal/models"
	"github.com/hygieia/backend/internal/repository"
	"github.com/hygieia/backend/internal/service"
)

// DataHandler handles metric ingest and dashboard requests
type DataHandler struct {
	readings repository.ReadingRepository
	unifier  service.DataUnifier
}

// NewDataHandler creates a new data handler
func NewDataHandler(readings repository.ReadingRepository, unifier service.DataUnifier) *DataHandler {
	return &DataHandler{
		readings: readings,
		unifier:  unifier,
	}
}

// syncRequest is the ingest payload: raw per-source readings.
type syncRequest struct {
	Readings []models.MetricReading `json:"readings" binding:"required"`
}

// SyncData ingests raw readings for the authenticated user
// POST /api/v1/data/sync
func (h *DataHandler) SyncData(c *gin.Context) {
	userID := c.GetString("user_id")
	log := logger.Ctx(c.Request.Context())

	var req syncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		problem := apierror.NewBadRequestError(
			apierror.GetRequestID(c),
			err.Error(),
			"The sync payload is malformed",
		)
		apierror.WriteProblem(c, problem)
		return
	}

	if err := h.readings.SaveReadings(c.Request.Context(), userID, req.Readings); err != nil {
		if malformed, ok := asMalformedSeries(err); ok {
			problem := apierror.NewMalformedSeriesError(
				apierror.GetRequestID(c), string(malformed.Kind), malformed.Reason)
			apierror.WriteProblem(c, problem)
			return
		}
		log.Error("failed to save readings", logger.Err(err))
		apierror.WriteProblem(c, apierror.NewInternalError(apierror.GetRequestID(c)))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"synced": len(req.Readings),
	})
}

// GetDashboard returns the unified per-kind series with a source tag
// GET /api/v1/dashboard
func (h *DataHandler) GetDashboard(c *gin.Context) {
	userID := c.GetString("user_id")
	log := logger.Ctx(c.Request.Context())

	raw, err := h.readings.GetReadings(c.Request.Context(), userID)
	if err != nil {
		log.Error("failed to load readings", logger.Err(err))
		apierror.WriteProblem(c, apierror.NewInternalError(apierror.GetRequestID(c)))
		return
	}

	dataset, err := h.unifier.Unify(c.Request.Context(), userID, raw)
	if err != nil {
		if malformed, ok := asMalformedSeries(err); ok {
			problem := apierror.NewMalformedSeriesError(
				apierror.GetRequestID(c), string(malformed.Kind), malformed.Reason)
			apierror.WriteProblem(c, problem)
			return
		}
		log.Error("failed to unify readings", logger.Err(err))
		apierror.WriteProblem(c, apierror.NewInternalError(apierror.GetRequestID(c)))
		return
	}

	c.JSON(http.StatusOK, models.DashboardResponse{
		Metrics: dataset.Series,
		Source:  service.PrimarySource(raw),
	})
}
