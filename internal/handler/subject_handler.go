package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/law4percent/checkme-api/internal/service"
	appErrors "github.com/law4percent/checkme-api/pkg/errors"
	"github.com/law4percent/checkme-api/pkg/response"
)

// SubjectHandler exposes subject and section lifecycle endpoints.
type SubjectHandler struct {
	lifecycle *service.LifecycleService
}

// NewSubjectHandler constructs handler.
func NewSubjectHandler(lifecycle *service.LifecycleService) *SubjectHandler {
	return &SubjectHandler{lifecycle: lifecycle}
}

// CreateSubject godoc
// @Summary Create a subject under a section
// @Tags Subjects
// @Accept json
// @Produce json
// @Param payload body service.CreateSubjectRequest true "Subject payload"
// @Success 201 {object} response.Envelope
// @Router /subjects [post]
func (h *SubjectHandler) CreateSubject(c *gin.Context) {
	var req service.CreateSubjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	subject, err := h.lifecycle.CreateSubject(c.Request.Context(), ownerID(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, subject)
}

// ListSubjects godoc
// @Summary List subjects owned by the requesting teacher
// @Tags Subjects
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /subjects [get]
func (h *SubjectHandler) ListSubjects(c *gin.Context) {
	subjects, err := h.lifecycle.ListSubjects(c.Request.Context(), ownerID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, subjects)
}

// DeleteSubject godoc
// @Summary Delete a subject and everything under it
// @Tags Subjects
// @Produce json
// @Param id path string true "Subject ID"
// @Success 204
// @Router /subjects/{id} [delete]
func (h *SubjectHandler) DeleteSubject(c *gin.Context) {
	if err := h.lifecycle.DeleteSubject(c.Request.Context(), ownerID(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// CreateSection godoc
// @Summary Create a section
// @Tags Sections
// @Accept json
// @Produce json
// @Param payload body service.CreateSectionRequest true "Section payload"
// @Success 201 {object} response.Envelope
// @Router /sections [post]
func (h *SubjectHandler) CreateSection(c *gin.Context) {
	var req service.CreateSectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	section, err := h.lifecycle.CreateSection(c.Request.Context(), ownerID(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, section)
}

// DeleteSection godoc
// @Summary Delete a section and everything under it
// @Tags Sections
// @Produce json
// @Param id path string true "Section ID"
// @Success 204
// @Router /sections/{id} [delete]
func (h *SubjectHandler) DeleteSection(c *gin.Context) {
	if err := h.lifecycle.DeleteSection(c.Request.Context(), ownerID(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// RegenerateInvite godoc
// @Summary Replace the invite code of a subject
// @Tags Subjects
// @Produce json
// @Param id path string true "Subject ID"
// @Success 200 {object} response.Envelope
// @Router /subjects/{id}/invite [post]
func (h *SubjectHandler) RegenerateInvite(c *gin.Context) {
	invite, err := h.lifecycle.RegenerateInvite(c.Request.Context(), ownerID(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, invite)
}
