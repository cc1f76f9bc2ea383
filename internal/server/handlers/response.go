package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/packhouse/internal/domain/models"
)

// Envelope is the single status line every JSON response carries.
type Envelope struct {
	Status  string      `json:"status"`
	Kind    models.Kind `json:"kind,omitempty"`
	Message string      `json:"message,omitempty"`
	Data    any         `json:"data,omitempty"`
}

var kindStatus = map[models.Kind]int{
	models.KindMissingSelection:       http.StatusBadRequest,
	models.KindEmptySubmission:        http.StatusBadRequest,
	models.KindInvalidInput:           http.StatusBadRequest,
	models.KindAlreadyGraded:          http.StatusConflict,
	models.KindDuplicateSale:          http.StatusConflict,
	models.KindClientExists:           http.StatusConflict,
	models.KindOverAllocation:         http.StatusUnprocessableEntity,
	models.KindNumberAssignmentFailed: http.StatusBadGateway,
	models.KindNotFound:               http.StatusNotFound,
	models.KindUnauthorized:           http.StatusUnauthorized,
	models.KindForbidden:              http.StatusForbidden,
	models.KindRemoteError:            http.StatusBadGateway,
}

// StatusFor maps an error kind to its HTTP status.
func StatusFor(kind models.Kind) int {
	if status, ok := kindStatus[kind]; ok {
		return status
	}
	return http.StatusInternalServerError
}

func respondOK(c *gin.Context, status int, message string, data any) {
	c.JSON(status, Envelope{Status: "ok", Message: message, Data: data})
}

// RespondError writes the error status line for err and logs backend failures.
func RespondError(c *gin.Context, logger *zap.Logger, err error) {
	kind := models.KindOf(err)
	status := StatusFor(kind)

	if status >= http.StatusInternalServerError && logger != nil {
		logger.Error("request failed",
			zap.String("path", c.FullPath()),
			zap.String("kind", string(kind)),
			zap.Error(err))
	}

	body := Envelope{Status: "error", Kind: kind, Message: err.Error()}

	var over *models.OverAllocationError
	if errors.As(err, &over) {
		body.Data = gin.H{"limit_kg": over.LimitKg, "attempted_kg": over.AttemptedKg}
	}

	c.AbortWithStatusJSON(status, body)
}

func badRequest(c *gin.Context, logger *zap.Logger, err error) {
	RespondError(c, logger, models.InvalidInput("%v", err))
}
