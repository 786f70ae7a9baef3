package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/law4percent/checkme-api/internal/service"
	appErrors "github.com/law4percent/checkme-api/pkg/errors"
	"github.com/law4percent/checkme-api/pkg/response"
)

// SheetHandler exposes answer sheet grading endpoints.
type SheetHandler struct {
	scoring  *service.ScoringService
	reassign *service.ReassignService
}

// NewSheetHandler constructs handler.
func NewSheetHandler(scoring *service.ScoringService, reassign *service.ReassignService) *SheetHandler {
	return &SheetHandler{scoring: scoring, reassign: reassign}
}

// List godoc
// @Summary List answer sheets with resolved student names
// @Tags Sheets
// @Produce json
// @Param code path string true "Assessment code"
// @Success 200 {object} response.Envelope
// @Router /assessments/{code}/sheets [get]
func (h *SheetHandler) List(c *gin.Context) {
	views, err := h.scoring.ListSheets(c.Request.Context(), ownerID(c), c.Param("code"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, views)
}

// Detail godoc
// @Summary Fetch one answer sheet with its breakdown
// @Tags Sheets
// @Produce json
// @Param code path string true "Assessment code"
// @Param schoolId path string true "School ID"
// @Success 200 {object} response.Envelope
// @Router /assessments/{code}/sheets/{schoolId} [get]
func (h *SheetHandler) Detail(c *gin.Context) {
	view, err := h.scoring.SheetDetail(c.Request.Context(), ownerID(c), c.Param("code"), c.Param("schoolId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view)
}

// Ingest godoc
// @Summary Record a scanned sheet and grade it against the key
// @Tags Sheets
// @Accept json
// @Produce json
// @Param code path string true "Assessment code"
// @Param payload body service.IngestSheetRequest true "Scanned answers"
// @Success 201 {object} response.Envelope
// @Router /assessments/{code}/sheets [post]
func (h *SheetHandler) Ingest(c *gin.Context) {
	var req service.IngestSheetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	sheet, err := h.scoring.IngestSheet(c.Request.Context(), ownerID(c), c.Param("code"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, sheet)
}

// GradeEssay godoc
// @Summary Record a manual verdict on an essay question
// @Tags Sheets
// @Accept json
// @Produce json
// @Param code path string true "Assessment code"
// @Param schoolId path string true "School ID"
// @Param payload body service.EssayVerdictRequest true "Verdict"
// @Success 200 {object} response.Envelope
// @Router /assessments/{code}/sheets/{schoolId}/essay [patch]
func (h *SheetHandler) GradeEssay(c *gin.Context) {
	var req service.EssayVerdictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	sheet, err := h.scoring.GradeEssay(c.Request.Context(), ownerID(c), c.Param("code"), c.Param("schoolId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sheet)
}

// EditAnswer godoc
// @Summary Correct a misread objective answer on a sheet
// @Tags Sheets
// @Accept json
// @Produce json
// @Param code path string true "Assessment code"
// @Param schoolId path string true "School ID"
// @Param payload body service.EditAnswerRequest true "Corrected answer"
// @Success 200 {object} response.Envelope
// @Router /assessments/{code}/sheets/{schoolId}/answer [patch]
func (h *SheetHandler) EditAnswer(c *gin.Context) {
	var req service.EditAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	sheet, err := h.scoring.EditStudentAnswer(c.Request.Context(), ownerID(c), c.Param("code"), c.Param("schoolId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sheet)
}

// SetFinality godoc
// @Summary Toggle a sheet between pending and final
// @Tags Sheets
// @Accept json
// @Produce json
// @Param code path string true "Assessment code"
// @Param schoolId path string true "School ID"
// @Param payload body service.FinalityRequest true "Finality flag"
// @Success 200 {object} response.Envelope
// @Router /assessments/{code}/sheets/{schoolId}/finality [patch]
func (h *SheetHandler) SetFinality(c *gin.Context) {
	var req service.FinalityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	sheet, err := h.scoring.SetFinality(c.Request.Context(), ownerID(c), c.Param("code"), c.Param("schoolId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sheet)
}

// EditKey godoc
// @Summary Edit the answer key and rescore affected sheets
// @Tags Sheets
// @Accept json
// @Produce json
// @Param code path string true "Assessment code"
// @Param payload body service.KeyEditRequest true "Key changes"
// @Success 200 {object} response.Envelope
// @Router /assessments/{code}/key [patch]
func (h *SheetHandler) EditKey(c *gin.Context) {
	var req service.KeyEditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.scoring.EditAnswerKey(c.Request.Context(), ownerID(c), c.Param("code"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	var meta map[string]interface{}
	if result.Warning != "" {
		meta = map[string]interface{}{"warning": result.Warning, "sheets_affected": result.SheetsAffected}
	}
	response.JSON(c, http.StatusOK, result.Key, meta)
}

// Reassign godoc
// @Summary Move a sheet to a different school ID
// @Tags Sheets
// @Accept json
// @Produce json
// @Param code path string true "Assessment code"
// @Param payload body service.ReassignRequest true "Old and new school IDs"
// @Success 200 {object} response.Envelope
// @Router /assessments/{code}/sheets/reassign [post]
func (h *SheetHandler) Reassign(c *gin.Context) {
	var req service.ReassignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	sheet, err := h.reassign.Reassign(c.Request.Context(), ownerID(c), c.Param("code"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sheet)
}

// Rescore godoc
// @Summary Regrade every sheet against the current key
// @Tags Sheets
// @Produce json
// @Param code path string true "Assessment code"
// @Success 200 {object} response.Envelope
// @Router /assessments/{code}/rescore [post]
func (h *SheetHandler) Rescore(c *gin.Context) {
	affected, err := h.scoring.RescoreAssessment(c.Request.Context(), ownerID(c), c.Param("code"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"sheets_rescored": affected})
}
