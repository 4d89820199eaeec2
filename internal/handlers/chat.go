package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hygieia/backend/internal/apierror"
	"github.com/hygieia/backend/internal/logger"
	"github.com/hygieia/backend/internal/models"
	"github.com/hygieia/backend/internal/service"
)

// ChatHandler handles chat inference HTTP requests
type ChatHandler struct {
	chat service.ChatService
}

// NewChatHandler creates a new chat handler
func NewChatHandler(chat service.ChatService) *ChatHandler {
	return &ChatHandler{chat: chat}
}

// Ask answers a free-text question about the user's data
// POST /api/v1/chat
func (h *ChatHandler) Ask(c *gin.Context) {
	userID := c.GetString("user_id")
	log := logger.Ctx(c.Request.Context())

	var req models.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		problem := apierror.NewValidationError(apierror.GetRequestID(c), []apierror.FieldError{
			{Field: "question", Message: "is required", Code: "required"},
		})
		apierror.WriteProblem(c, problem)
		return
	}

	answer, err := h.chat.Ask(c.Request.Context(), userID, req.Question)
	if err != nil {
		if malformed, ok := asMalformedSeries(err); ok {
			problem := apierror.NewMalformedSeriesError(
				apierror.GetRequestID(c), string(malformed.Kind), malformed.Reason)
			apierror.WriteProblem(c, problem)
			return
		}
		log.Error("chat inference failed", logger.Err(err))
		apierror.WriteProblem(c, apierror.NewInternalError(apierror.GetRequestID(c)))
		return
	}

	c.JSON(http.StatusOK, answer)
}
