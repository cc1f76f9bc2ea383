package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/packhouse/internal/domain/models"
)

// IntakeService records deliveries and lists what is waiting for grading.
type IntakeService interface {
	Submit(ctx context.Context, sub models.IntakeSubmission) (models.IntakeReceipt, error)
	Clients(ctx context.Context) ([]string, error)
	PendingTransactions(ctx context.Context) ([]models.TransactionSummary, error)
	Transaction(ctx context.Context, key string) (models.TransactionSummary, error)
}

// IntakeHandler serves the intake screen and the transaction picker of the grading screen.
type IntakeHandler struct {
	svc    IntakeService
	logger *zap.Logger
}

// NewIntakeHandler constructs the intake HTTP handler.
func NewIntakeHandler(svc IntakeService, logger *zap.Logger) *IntakeHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IntakeHandler{svc: svc, logger: logger}
}

// Clients lists known client names.
func (h *IntakeHandler) Clients(c *gin.Context) {
	names, err := h.svc.Clients(c.Request.Context())
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}
	respondOK(c, http.StatusOK, "", names)
}

// Submit stores one intake transaction.
func (h *IntakeHandler) Submit(c *gin.Context) {
	var sub models.IntakeSubmission
	if err := c.ShouldBindJSON(&sub); err != nil {
		badRequest(c, h.logger, err)
		return
	}

	receipt, err := h.svc.Submit(c.Request.Context(), sub)
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}
	respondOK(c, http.StatusCreated, "intake saved", receipt)
}

// Transactions lists recent intake transactions with their graded flag.
func (h *IntakeHandler) Transactions(c *gin.Context) {
	list, err := h.svc.PendingTransactions(c.Request.Context())
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}
	respondOK(c, http.StatusOK, "", list)
}

// Transaction returns one intake transaction.
func (h *IntakeHandler) Transaction(c *gin.Context) {
	tx, err := h.svc.Transaction(c.Request.Context(), c.Param("key"))
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}
	respondOK(c, http.StatusOK, "", tx)
}
