package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/packhouse/internal/domain/models"
)

// GradingService records reconciled grading results.
type GradingService interface {
	Submit(ctx context.Context, sub models.GradingSubmission) ([]models.GradingRow, error)
}

// GradingHandler serves the grading form.
type GradingHandler struct {
	svc    GradingService
	logger *zap.Logger
}

// NewGradingHandler constructs the grading HTTP handler.
func NewGradingHandler(svc GradingService, logger *zap.Logger) *GradingHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GradingHandler{svc: svc, logger: logger}
}

// Submit stores the grading of one intake transaction.
func (h *GradingHandler) Submit(c *gin.Context) {
	var sub models.GradingSubmission
	if err := c.ShouldBindJSON(&sub); err != nil {
		badRequest(c, h.logger, err)
		return
	}

	rows, err := h.svc.Submit(c.Request.Context(), sub)
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}
	respondOK(c, http.StatusCreated, "grading saved", rows)
}
