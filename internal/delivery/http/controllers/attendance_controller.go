package controllers

import (
	"log/slog"
	"net/http"

	"clubstack/internal/delivery/http/helpers"
	"clubstack/internal/delivery/http/middleware"
	"clubstack/internal/domain"
)

type AttendanceController struct {
	Logger  *slog.Logger
	Service domain.AttendanceService
}

func NewAttendanceController(logger *slog.Logger, svc domain.AttendanceService) *AttendanceController {
	return &AttendanceController{
		Logger:  logger,
		Service: svc,
	}
}

// ListAttendanceSuccessResponse is the success response envelope for GET /workshops/{workshopID}/attendance (200).
type ListAttendanceSuccessResponse struct {
	Data  []*domain.Registration `json:"data"`
	Error *helpers.APIError      `json:"error"`
}

// ListAttendance godoc
// @Summary List attendance records for a workshop
// @Description Returns confirmed registrations with their attendance fields. Admin only.
// @Tags attendance
// @Produce json
// @Security BearerAuth
// @Param workshopID path string true "Workshop ID (UUID)"
// @Success 200 {object} controllers.ListAttendanceSuccessResponse "data is an array of registrations with attendance fields"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /workshops/{workshopID}/attendance [get]
func (c *AttendanceController) ListAttendance(w http.ResponseWriter, r *http.Request) {
	workshopID := r.PathValue("workshopID")
	if workshopID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing workshopID")
		return
	}
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	regs, err := c.Service.GetWorkshopAttendance(r.Context(), actor, workshopID)
	if err != nil {
		writeServiceError(w, r, c.Logger, err)
		return
	}
	if regs == nil {
		regs = []*domain.Registration{}
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, regs)
}

// AttendanceUpdateItem is one attendance write in UpdateAttendanceRequest.
type AttendanceUpdateItem struct {
	RegistrationID string  `json:"registration_id"`
	Status         string  `json:"status"`
	Notes          *string `json:"notes"`
}

// UpdateAttendanceRequest is the request body for PATCH /workshops/{workshopID}/attendance.
type UpdateAttendanceRequest struct {
	Updates []AttendanceUpdateItem `json:"updates"`
}

// Validate implements Validator.
func (u UpdateAttendanceRequest) Validate() []string {
	var errs []string
	if len(u.Updates) == 0 {
		errs = append(errs, "updates is required")
	}
	for _, item := range u.Updates {
		if item.RegistrationID == "" {
			errs = append(errs, "registration_id is required for every update")
			break
		}
	}
	return errs
}

// UpdateAttendanceResponse is the data payload for PATCH /workshops/{workshopID}/attendance (200).
type UpdateAttendanceResponse struct {
	Updated int `json:"updated"`
}

// UpdateAttendanceSuccessResponse is the success response envelope for PATCH /workshops/{workshopID}/attendance (200).
type UpdateAttendanceSuccessResponse struct {
	Data  UpdateAttendanceResponse `json:"data"`
	Error *helpers.APIError        `json:"error"`
}

// UpdateAttendance godoc
// @Summary Record attendance for a workshop
// @Description Applies a batch of attendance updates (attended, no_show, excused) to registrations of the workshop. Only allowed after the workshop has started. Updates whose registration does not belong to the workshop are skipped. Admin only.
// @Tags attendance
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param workshopID path string true "Workshop ID (UUID)"
// @Param body body UpdateAttendanceRequest true "Attendance updates"
// @Success 200 {object} controllers.UpdateAttendanceSuccessResponse "data contains the number of rows updated"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request (invalid status)"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (workshop not started yet)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /workshops/{workshopID}/attendance [patch]
func (c *AttendanceController) UpdateAttendance(w http.ResponseWriter, r *http.Request) {
	workshopID := r.PathValue("workshopID")
	if workshopID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing workshopID")
		return
	}
	var req UpdateAttendanceRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	updates := make([]domain.AttendanceUpdate, 0, len(req.Updates))
	for _, item := range req.Updates {
		updates = append(updates, domain.AttendanceUpdate{
			RegistrationID: item.RegistrationID,
			Status:         domain.AttendanceStatus(item.Status),
			Notes:          item.Notes,
		})
	}
	updated, err := c.Service.UpdateAttendance(r.Context(), actor, workshopID, updates)
	if err != nil {
		writeServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, UpdateAttendanceResponse{Updated: updated})
}
