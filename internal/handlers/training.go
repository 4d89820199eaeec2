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

// trainingRetryAfterSeconds is the Retry-After hint for rejected concurrent
// training requests. Training on personal datasets finishes well within it.
const trainingRetryAfterSeconds = 30

// TrainingHandler handles model training HTTP requests
type TrainingHandler struct {
	readings repository.ReadingRepository
	unifier  service.DataUnifier
	trainer  service.TrainingService
}

// NewTrainingHandler creates a new training handler
func NewTrainingHandler(readings repository.ReadingRepository, unifier service.DataUnifier, trainer service.TrainingService) *TrainingHandler {
	return &TrainingHandler{
		readings: readings,
		unifier:  unifier,
		trainer:  trainer,
	}
}

// TrainModels trains the user's per-target models from their unified data
// POST /api/v1/models/train
func (h *TrainingHandler) TrainModels(c *gin.Context) {
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

	result, err := h.trainer.Train(c.Request.Context(), dataset)
	if err != nil {
		if models.IsTrainingInProgress(err) {
			problem := apierror.NewTrainingInProgressError(
				apierror.GetRequestID(c), trainingRetryAfterSeconds)
			apierror.WriteProblem(c, problem)
			return
		}
		log.Error("training failed", logger.Err(err))
		apierror.WriteProblem(c, apierror.NewInternalError(apierror.GetRequestID(c)))
		return
	}

	c.JSON(http.StatusOK, result)
}
