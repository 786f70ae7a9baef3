package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/law4percent/checkme-api/internal/models"
	"github.com/law4percent/checkme-api/internal/service"
	appErrors "github.com/law4percent/checkme-api/pkg/errors"
	"github.com/law4percent/checkme-api/pkg/response"
)

// EnrollmentHandler exposes enrollment endpoints.
type EnrollmentHandler struct {
	enrollments *service.EnrollmentService
}

// NewEnrollmentHandler constructs handler.
func NewEnrollmentHandler(enrollments *service.EnrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{enrollments: enrollments}
}

// Join godoc
// @Summary Request enrollment into a subject
// @Tags Enrollments
// @Accept json
// @Produce json
// @Param payload body service.JoinRequest true "Join payload"
// @Success 201 {object} response.Envelope
// @Router /enrollments [post]
func (h *EnrollmentHandler) Join(c *gin.Context) {
	var req service.JoinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	enrollment, err := h.enrollments.Join(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, enrollment)
}

// List godoc
// @Summary List enrollments of a subject
// @Tags Enrollments
// @Produce json
// @Param id path string true "Subject ID"
// @Param status query string false "Filter by status"
// @Success 200 {object} response.Envelope
// @Router /subjects/{id}/enrollments [get]
func (h *EnrollmentHandler) List(c *gin.Context) {
	status := models.EnrollmentStatus(c.Query("status"))
	enrollments, err := h.enrollments.List(c.Request.Context(), c.Param("id"), status)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollments)
}

// Decide godoc
// @Summary Approve or reject a pending enrollment
// @Tags Enrollments
// @Accept json
// @Produce json
// @Param id path string true "Subject ID"
// @Param accountId path string true "Account ID"
// @Param payload body service.DecideRequest true "Decision"
// @Success 200 {object} response.Envelope
// @Router /subjects/{id}/enrollments/{accountId} [patch]
func (h *EnrollmentHandler) Decide(c *gin.Context) {
	var req service.DecideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	enrollment, err := h.enrollments.Decide(c.Request.Context(), c.Param("id"), c.Param("accountId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollment)
}

// Invite godoc
// @Summary Enroll a student directly, already approved
// @Tags Enrollments
// @Accept json
// @Produce json
// @Param id path string true "Subject ID"
// @Param payload body service.InviteStudentRequest true "Student payload"
// @Success 201 {object} response.Envelope
// @Router /subjects/{id}/enrollments [post]
func (h *EnrollmentHandler) Invite(c *gin.Context) {
	var req service.InviteStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	enrollment, err := h.enrollments.Invite(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, enrollment)
}

// Unenroll godoc
// @Summary Remove a student's enrollment
// @Tags Enrollments
// @Produce json
// @Param id path string true "Subject ID"
// @Param accountId path string true "Account ID"
// @Success 204
// @Router /subjects/{id}/enrollments/{accountId} [delete]
func (h *EnrollmentHandler) Unenroll(c *gin.Context) {
	if err := h.enrollments.Unenroll(c.Request.Context(), c.Param("id"), c.Param("accountId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
