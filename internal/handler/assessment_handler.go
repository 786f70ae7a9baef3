package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/law4percent/checkme-api/internal/service"
	appErrors "github.com/law4percent/checkme-api/pkg/errors"
	"github.com/law4percent/checkme-api/pkg/response"
)

// AssessmentHandler exposes assessment lifecycle endpoints.
type AssessmentHandler struct {
	lifecycle *service.LifecycleService
}

// NewAssessmentHandler constructs handler.
func NewAssessmentHandler(lifecycle *service.LifecycleService) *AssessmentHandler {
	return &AssessmentHandler{lifecycle: lifecycle}
}

// Create godoc
// @Summary Create an assessment with a minted code
// @Tags Assessments
// @Accept json
// @Produce json
// @Param payload body service.CreateAssessmentRequest true "Assessment payload"
// @Success 201 {object} response.Envelope
// @Router /assessments [post]
func (h *AssessmentHandler) Create(c *gin.Context) {
	var req service.CreateAssessmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	assessment, err := h.lifecycle.CreateAssessment(c.Request.Context(), ownerID(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, assessment)
}

// Delete godoc
// @Summary Delete an assessment and its key and sheets
// @Tags Assessments
// @Produce json
// @Param code path string true "Assessment code"
// @Success 204
// @Router /assessments/{code} [delete]
func (h *AssessmentHandler) Delete(c *gin.Context) {
	if err := h.lifecycle.DeleteAssessment(c.Request.Context(), ownerID(c), c.Param("code")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
