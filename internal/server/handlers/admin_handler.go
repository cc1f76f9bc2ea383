package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/packhouse/internal/domain/models"
	"github.com/mamadbah2/packhouse/internal/service/admin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// AdminService backs the back-office tables.
type AdminService interface {
	Month(month string) (models.Period, error)
	ListSales(ctx context.Context, month string) ([]models.SalesListing, error)
	ListIntake(ctx context.Context, month string) (admin.IntakeListing, error)
	ListGrading(ctx context.Context, month string) (admin.GradingListing, error)
	Update(ctx context.Context, table models.Table, id int64, patch map[string]any) error
	Delete(ctx context.Context, table models.Table, id int64) error
}

// ExportService builds downloads.
type ExportService interface {
	ExportPeriod(ctx context.Context, period models.Period) ([]byte, error)
	ExportAll(ctx context.Context) ([]byte, error)
	SalesNote(ctx context.Context, id int64) (models.SalesRecord, []byte, error)
}

// AdminHandler serves the secretary screens and their downloads.
type AdminHandler struct {
	svc    AdminService
	export ExportService
	logger *zap.Logger
}

// NewAdminHandler constructs the back-office HTTP handler.
func NewAdminHandler(svc AdminService, export ExportService, logger *zap.Logger) *AdminHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdminHandler{svc: svc, export: export, logger: logger}
}

// List returns one month of a table.
func (h *AdminHandler) List(c *gin.Context) {
	table, err := models.ParseTable(c.Param("table"))
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}

	ctx, month := c.Request.Context(), c.Query("month")
	var data any
	switch table {
	case models.TableSales:
		data, err = h.svc.ListSales(ctx, month)
	case models.TableIntake:
		data, err = h.svc.ListIntake(ctx, month)
	case models.TableGrading:
		data, err = h.svc.ListGrading(ctx, month)
	}
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}
	respondOK(c, http.StatusOK, "", data)
}

// Update patches one row.
func (h *AdminHandler) Update(c *gin.Context) {
	table, id, ok := h.rowRef(c)
	if !ok {
		return
	}

	var patch map[string]any
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, h.logger, err)
		return
	}

	if err := h.svc.Update(c.Request.Context(), table, id, patch); err != nil {
		RespondError(c, h.logger, err)
		return
	}
	respondOK(c, http.StatusOK, "changes saved", nil)
}

// Delete removes one row.
func (h *AdminHandler) Delete(c *gin.Context) {
	table, id, ok := h.rowRef(c)
	if !ok {
		return
	}

	if err := h.svc.Delete(c.Request.Context(), table, id); err != nil {
		RespondError(c, h.logger, err)
		return
	}
	respondOK(c, http.StatusOK, "deleted", nil)
}

// SalesNote downloads the PDF of one sales note.
func (h *AdminHandler) SalesNote(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		RespondError(c, h.logger, models.InvalidInput("id must be a number"))
		return
	}

	record, doc, err := h.export.SalesNote(c.Request.Context(), id)
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"nota_%04d.pdf\"", record.NoteNumber))
	c.Data(http.StatusOK, "application/pdf", doc)
}

// ExportMonth downloads one month of every table as a workbook.
func (h *AdminHandler) ExportMonth(c *gin.Context) {
	period, err := h.svc.Month(c.Query("month"))
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}

	data, err := h.export.ExportPeriod(c.Request.Context(), period)
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"packhouse_%s.xlsx\"", period.From.Format("2006-01")))
	c.Data(http.StatusOK, xlsxContentType, data)
}

// ExportAll downloads the full history of every table.
func (h *AdminHandler) ExportAll(c *gin.Context) {
	data, err := h.export.ExportAll(c.Request.Context())
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename=\"packhouse_full.xlsx\"")
	c.Data(http.StatusOK, xlsxContentType, data)
}

func (h *AdminHandler) rowRef(c *gin.Context) (models.Table, int64, bool) {
	table, err := models.ParseTable(c.Param("table"))
	if err != nil {
		RespondError(c, h.logger, err)
		return "", 0, false
	}
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		RespondError(c, h.logger, models.InvalidInput("id must be a number"))
		return "", 0, false
	}
	return table, id, true
}
