package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/packhouse/internal/domain/models"
)

// SalesService turns graded lots into sales notes.
type SalesService interface {
	PendingGroups(ctx context.Context) ([]models.PendingSale, error)
	Create(ctx context.Context, req models.SaleRequest) (models.SalesRecord, error)
}

// SalesHandler serves the sales form.
type SalesHandler struct {
	svc    SalesService
	logger *zap.Logger
}

// NewSalesHandler constructs the sales HTTP handler.
func NewSalesHandler(svc SalesService, logger *zap.Logger) *SalesHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SalesHandler{svc: svc, logger: logger}
}

// Pending lists graded lots still open for sale.
func (h *SalesHandler) Pending(c *gin.Context) {
	groups, err := h.svc.PendingGroups(c.Request.Context())
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}
	respondOK(c, http.StatusOK, "", groups)
}

// Create stores a sales note.
func (h *SalesHandler) Create(c *gin.Context) {
	var req models.SaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.logger, err)
		return
	}

	record, err := h.svc.Create(c.Request.Context(), req)
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}
	respondOK(c, http.StatusCreated, "sale saved", record)
}
