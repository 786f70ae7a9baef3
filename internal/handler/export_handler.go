package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/law4percent/checkme-api/internal/service"
	appErrors "github.com/law4percent/checkme-api/pkg/errors"
	"github.com/law4percent/checkme-api/pkg/response"
)

// ExportHandler exposes score report downloads.
type ExportHandler struct {
	exports *service.ExportService
	enabled bool
}

// NewExportHandler constructs handler.
func NewExportHandler(exports *service.ExportService, enabled bool) *ExportHandler {
	return &ExportHandler{exports: exports, enabled: enabled}
}

// ScoreReport godoc
// @Summary Download the score report for an assessment
// @Tags Exports
// @Produce text/csv
// @Produce application/pdf
// @Param code path string true "Assessment code"
// @Param format query string true "csv or pdf"
// @Success 200 {file} binary
// @Router /assessments/{code}/export [get]
func (h *ExportHandler) ScoreReport(c *gin.Context) {
	if !h.enabled {
		response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "exports are disabled"))
		return
	}
	file, err := h.exports.ScoreReport(c.Request.Context(), ownerID(c), c.Param("code"), c.DefaultQuery("format", "csv"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Data)
}
