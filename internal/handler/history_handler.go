package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"docproc/internal/csvexport"
	"docproc/internal/domain"
	"docproc/internal/logging"
	"docproc/internal/service"
)

const exportBatchSize = 200

// HistoryHandler lists recorded conversions.
type HistoryHandler struct {
	historyService service.HistoryService
}

// NewHistoryHandler creates a new HistoryHandler.
func NewHistoryHandler(historyService service.HistoryService) *HistoryHandler {
	return &HistoryHandler{historyService: historyService}
}

// List handles GET /api/v1/conversions
// @Summary List conversion history
// @Description Most recent first. Returns 404 when no history store is configured.
// @Tags history
// @Produce json
// @Param offset query int false "Offset" default(0)
// @Param limit query int false "Limit" default(20)
// @Success 200 {object} Response{data=[]domain.ConversionRecord,meta=PagMeta}
// @Failure 401 {object} Response "Unauthorized"
// @Failure 404 {object} Response "History disabled"
// @Security BearerAuth
// @Router /api/v1/conversions [get]
func (h *HistoryHandler) List(c *gin.Context) {
	if !h.historyService.Enabled() {
		RespondError(c, http.StatusNotFound, domain.StatusInvalidInput, "Conversion history is not enabled")
		return
	}

	offset, limit := parsePagination(c)
	records, total, err := h.historyService.List(c.Request.Context(), offset, limit)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondPaginated(c, "Conversions listed successfully", records, PagMeta{Total: total, Offset: offset, Limit: limit})
}

// ExportCSV handles GET /api/v1/conversions/export/csv
// @Summary Export conversion history as CSV
// @Tags history
// @Produce text/csv
// @Success 200 {file} file "CSV with a UTF-8 BOM"
// @Failure 401 {object} Response "Unauthorized"
// @Failure 404 {object} Response "History disabled"
// @Security BearerAuth
// @Router /api/v1/conversions/export/csv [get]
func (h *HistoryHandler) ExportCSV(c *gin.Context) {
	if !h.historyService.Enabled() {
		RespondError(c, http.StatusNotFound, domain.StatusInvalidInput, "Conversion history is not enabled")
		return
	}

	ctx := c.Request.Context()
	// Fetch the first batch before writing headers so a store failure can
	// still produce a JSON error.
	records, total, err := h.historyService.List(ctx, 0, exportBatchSize)
	if err != nil {
		HandleError(c, err)
		return
	}

	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", `attachment; filename="`+csvexport.BuildFilename("conversions", time.Now())+`"`)
	c.Status(http.StatusOK)
	_, _ = c.Writer.Write(csvexport.BOM)

	w := csvexport.NewWriter(c.Writer)
	if err := w.WriteHeader(); err != nil {
		logging.FromContext(ctx).Error("CSV export failed", "error", err)
		return
	}
	offset := 0
	for {
		if err := w.WriteRecords(records); err != nil {
			logging.FromContext(ctx).Error("CSV export failed", "error", err)
			return
		}
		offset += len(records)
		if len(records) == 0 || offset >= total {
			break
		}
		records, _, err = h.historyService.List(ctx, offset, exportBatchSize)
		if err != nil {
			logging.FromContext(ctx).Error("CSV export truncated", "error", err, "rows", offset)
			break
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		logging.FromContext(ctx).Error("CSV export flush failed", "error", err)
	}
}

func parsePagination(c *gin.Context) (offset, limit int) {
	offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return offset, limit
}
