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

// InsightsHandler handles analysis and story HTTP requests
type InsightsHandler struct {
	readings repository.ReadingRepository
	unifier  service.DataUnifier
	analysis service.AnalysisService
	story    service.StoryService
}

// NewInsightsHandler creates a new insights handler
func NewInsightsHandler(readings repository.ReadingRepository, unifier service.DataUnifier, analysis service.AnalysisService, story service.StoryService) *InsightsHandler {
	return &InsightsHandler{
		readings: readings,
		unifier:  unifier,
		analysis: analysis,
		story:    story,
	}
}

// GetInsights runs a full analysis pass over the user's unified data
// GET /api/v1/insights
func (h *InsightsHandler) GetInsights(c *gin.Context) {
	result, _, ok := h.analyze(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetStory returns the narrative built from the analysis output
// GET /api/v1/insights/story
func (h *InsightsHandler) GetStory(c *gin.Context) {
	result, dataset, ok := h.analyze(c)
	if !ok {
		return
	}

	story := h.story.BuildStory(c.Request.Context(), dataset, result)
	c.JSON(http.StatusOK, story)
}

// analyze loads, unifies and analyzes the user's data, writing the error
// response itself when a step fails.
func (h *InsightsHandler) analyze(c *gin.Context) (*models.AnalysisResult, models.UnifiedDataset, bool) {
	userID := c.GetString("user_id")
	log := logger.Ctx(c.Request.Context())

	raw, err := h.readings.GetReadings(c.Request.Context(), userID)
	if err != nil {
		log.Error("failed to load readings", logger.Err(err))
		apierror.WriteProblem(c, apierror.NewInternalError(apierror.GetRequestID(c)))
		return nil, models.UnifiedDataset{}, false
	}

	dataset, err := h.unifier.Unify(c.Request.Context(), userID, raw)
	if err == nil {
		var result *models.AnalysisResult
		result, err = h.analysis.Analyze(c.Request.Context(), dataset)
		if err == nil {
			return result, dataset, true
		}
	}

	if malformed, ok := asMalformedSeries(err); ok {
		problem := apierror.NewMalformedSeriesError(
			apierror.GetRequestID(c), string(malformed.Kind), malformed.Reason)
		apierror.WriteProblem(c, problem)
		return nil, models.UnifiedDataset{}, false
	}
	log.Error("analysis failed", logger.Err(err))
	apierror.WriteProblem(c, apierror.NewInternalError(apierror.GetRequestID(c)))
	return nil, models.UnifiedDataset{}, false
}
