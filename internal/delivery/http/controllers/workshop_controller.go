package controllers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"clubstack/internal/delivery/http/helpers"
	"clubstack/internal/delivery/http/middleware"
	"clubstack/internal/domain"
)

// CreateWorkshopRequest is the request body for POST /workshops.
type CreateWorkshopRequest struct {
	Title          string    `json:"title"`
	Location       string    `json:"location"`
	StartsAt       time.Time `json:"starts_at"`
	EndsAt         time.Time `json:"ends_at"`
	MaxCapacity    int       `json:"max_capacity"`
	PriceMember    int64     `json:"price_member"`
	PriceNonMember int64     `json:"price_non_member"`
	Currency       string    `json:"currency"`
	Visibility     string    `json:"visibility"`
	RefundDays     *int      `json:"refund_days"`
}

// Validate implements Validator.
func (c CreateWorkshopRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(c.Title) == "" {
		errs = append(errs, "title is required")
	}
	if c.StartsAt.IsZero() {
		errs = append(errs, "starts_at is required")
	}
	if c.EndsAt.IsZero() {
		errs = append(errs, "ends_at is required")
	}
	if !c.StartsAt.IsZero() && !c.EndsAt.IsZero() && !c.EndsAt.After(c.StartsAt) {
		errs = append(errs, "ends_at must be after starts_at")
	}
	if c.MaxCapacity < 1 {
		errs = append(errs, "max_capacity must be at least 1")
	}
	if c.PriceMember < 0 || c.PriceNonMember < 0 {
		errs = append(errs, "prices must be non-negative")
	}
	if c.Currency == "" {
		errs = append(errs, "currency is required")
	}
	if c.Visibility != "" && c.Visibility != string(domain.VisibilityPublic) && c.Visibility != string(domain.VisibilityMembersOnly) {
		errs = append(errs, "visibility must be public or members_only")
	}
	if c.RefundDays != nil && *c.RefundDays < 0 {
		errs = append(errs, "refund_days must be non-negative")
	}
	return errs
}

// CreateWorkshopSuccessResponse is the success response envelope for POST /workshops (201).
type CreateWorkshopSuccessResponse struct {
	Data  *domain.Workshop  `json:"data"`
	Error *helpers.APIError `json:"error"`
}

type WorkshopController struct {
	Logger  *slog.Logger
	Service domain.WorkshopService
}

func NewWorkshopController(logger *slog.Logger, svc domain.WorkshopService) *WorkshopController {
	return &WorkshopController{
		Logger:  logger,
		Service: svc,
	}
}

// writeServiceError maps domain sentinel errors to HTTP responses. Unmapped
// errors are logged and returned as 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "not found")
	case errors.Is(err, domain.ErrForbidden):
		helpers.WriteJSONError(w, http.StatusForbidden, helpers.ErrCodeForbidden, "forbidden")
	case errors.Is(err, domain.ErrWrongState):
		helpers.WriteJSONError(w, http.StatusConflict, helpers.ErrCodeConflict, err.Error())
	case errors.Is(err, domain.ErrPricingLocked):
		helpers.WriteJSONError(w, http.StatusConflict, helpers.ErrCodeConflict, err.Error())
	case errors.Is(err, domain.ErrWorkshopFull):
		helpers.WriteJSONError(w, http.StatusConflict, helpers.ErrCodeConflict, err.Error())
	case errors.Is(err, domain.ErrAlreadyRegistered):
		helpers.WriteJSONError(w, http.StatusConflict, helpers.ErrCodeConflict, err.Error())
	case errors.Is(err, domain.ErrRefundExists):
		helpers.WriteJSONError(w, http.StatusConflict, helpers.ErrCodeConflict, err.Error())
	case errors.Is(err, domain.ErrInvalidInput):
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
	default:
		logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
	}
}

// Create godoc
// @Summary Create a workshop
// @Description Create a new workshop in planned status. Admin only. Prices are integer minor-currency units.
// @Tags workshops
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param workshop body CreateWorkshopRequest true "Workshop data"
// @Success 201 {object} controllers.CreateWorkshopSuccessResponse "data contains the created workshop"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /workshops [post]
func (c *WorkshopController) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateWorkshopRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	visibility := domain.WorkshopVisibility(req.Visibility)
	if req.Visibility == "" {
		visibility = domain.VisibilityPublic
	}
	now := time.Now()
	workshop := domain.NewWorkshop(
		req.Title, req.Location, req.StartsAt, req.EndsAt,
		req.MaxCapacity, req.PriceMember, req.PriceNonMember, req.Currency,
		visibility, req.RefundDays, actor.UserID, now, now,
	)
	if err := c.Service.Create(r.Context(), actor, workshop); err != nil {
		writeServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, workshop)
}

// GetWorkshopSuccessResponse is the success response envelope for GET /workshops/{workshopID} (200).
type GetWorkshopSuccessResponse struct {
	Data  *domain.Workshop  `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// Get godoc
// @Summary Get a workshop by ID
// @Description Returns a single workshop. Members-only workshops require the member or admin role.
// @Tags workshops
// @Produce json
// @Security BearerAuth
// @Param workshopID path string true "Workshop ID (UUID)"
// @Success 200 {object} controllers.GetWorkshopSuccessResponse "data contains the workshop"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /workshops/{workshopID} [get]
func (c *WorkshopController) Get(w http.ResponseWriter, r *http.Request) {
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
	workshop, err := c.Service.Get(r.Context(), actor, workshopID)
	if err != nil {
		writeServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, workshop)
}

// ListWorkshopsSuccessResponse is the success response envelope for GET /workshops (200).
type ListWorkshopsSuccessResponse struct {
	Data  []*domain.Workshop `json:"data"`
	Error *helpers.APIError  `json:"error"`
}

// List godoc
// @Summary List workshops
// @Description Returns all workshops visible to the caller. Members-only workshops are included only for members and admins.
// @Tags workshops
// @Produce json
// @Security BearerAuth
// @Success 200 {object} controllers.ListWorkshopsSuccessResponse "data is an array of workshops"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /workshops [get]
func (c *WorkshopController) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	workshops, err := c.Service.List(r.Context(), actor)
	if err != nil {
		writeServiceError(w, r, c.Logger, err)
		return
	}
	if workshops == nil {
		workshops = []*domain.Workshop{}
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, workshops)
}

// UpdateWorkshopRequest is the request body for PATCH /workshops/{workshopID}.
// All fields optional; omitted fields are unchanged.
type UpdateWorkshopRequest struct {
	Title          *string    `json:"title"`
	Location       *string    `json:"location"`
	StartsAt       *time.Time `json:"starts_at"`
	EndsAt         *time.Time `json:"ends_at"`
	MaxCapacity    *int       `json:"max_capacity"`
	PriceMember    *int64     `json:"price_member"`
	PriceNonMember *int64     `json:"price_non_member"`
	Visibility     *string    `json:"visibility"`
	RefundDays     *int       `json:"refund_days"`
}

// Validate implements Validator.
func (u UpdateWorkshopRequest) Validate() []string {
	var errs []string
	if u.Title != nil && strings.TrimSpace(*u.Title) == "" {
		errs = append(errs, "title cannot be empty")
	}
	if u.MaxCapacity != nil && *u.MaxCapacity < 1 {
		errs = append(errs, "max_capacity must be at least 1")
	}
	if u.PriceMember != nil && *u.PriceMember < 0 {
		errs = append(errs, "price_member must be non-negative")
	}
	if u.PriceNonMember != nil && *u.PriceNonMember < 0 {
		errs = append(errs, "price_non_member must be non-negative")
	}
	if u.Visibility != nil && *u.Visibility != string(domain.VisibilityPublic) && *u.Visibility != string(domain.VisibilityMembersOnly) {
		errs = append(errs, "visibility must be public or members_only")
	}
	if u.RefundDays != nil && *u.RefundDays < 0 {
		errs = append(errs, "refund_days must be non-negative")
	}
	return errs
}

// UpdateWorkshopSuccessResponse is the success response envelope for PATCH /workshops/{workshopID} (200).
type UpdateWorkshopSuccessResponse struct {
	Data  *domain.Workshop  `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// Update godoc
// @Summary Update a workshop
// @Description Updates workshop details while the workshop is planned. Admin only. Pricing fields are rejected with 409 once a registration exists. Omitted fields are unchanged.
// @Tags workshops
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param workshopID path string true "Workshop ID (UUID)"
// @Param body body UpdateWorkshopRequest true "Fields to update (all optional)"
// @Success 200 {object} controllers.UpdateWorkshopSuccessResponse "data contains the updated workshop"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (not planned or pricing locked)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /workshops/{workshopID} [patch]
func (c *WorkshopController) Update(w http.ResponseWriter, r *http.Request) {
	workshopID := r.PathValue("workshopID")
	if workshopID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing workshopID")
		return
	}
	var req UpdateWorkshopRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	patch := domain.WorkshopPatch{
		Title:          req.Title,
		Location:       req.Location,
		StartsAt:       req.StartsAt,
		EndsAt:         req.EndsAt,
		MaxCapacity:    req.MaxCapacity,
		PriceMember:    req.PriceMember,
		PriceNonMember: req.PriceNonMember,
		RefundDays:     req.RefundDays,
	}
	if req.Visibility != nil {
		v := domain.WorkshopVisibility(*req.Visibility)
		patch.Visibility = &v
	}
	workshop, err := c.Service.Update(r.Context(), actor, workshopID, patch)
	if err != nil {
		writeServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, workshop)
}

// EditabilityResponse is the data payload for GET /workshops/{workshopID}/editability (200).
type EditabilityResponse struct {
	CanEdit        bool `json:"can_edit"`
	CanEditPricing bool `json:"can_edit_pricing"`
}

// EditabilitySuccessResponse is the success response envelope for GET /workshops/{workshopID}/editability (200).
type EditabilitySuccessResponse struct {
	Data  EditabilityResponse `json:"data"`
	Error *helpers.APIError   `json:"error"`
}

// Editability godoc
// @Summary Check whether a workshop can be edited
// @Description Returns whether general fields and pricing fields are editable. Pricing locks once any registration exists on a non-planned workshop.
// @Tags workshops
// @Produce json
// @Security BearerAuth
// @Param workshopID path string true "Workshop ID (UUID)"
// @Success 200 {object} controllers.EditabilitySuccessResponse "data contains can_edit and can_edit_pricing"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /workshops/{workshopID}/editability [get]
func (c *WorkshopController) Editability(w http.ResponseWriter, r *http.Request) {
	workshopID := r.PathValue("workshopID")
	if workshopID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing workshopID")
		return
	}
	canEdit, err := c.Service.CanEdit(r.Context(), workshopID)
	if err != nil {
		writeServiceError(w, r, c.Logger, err)
		return
	}
	canEditPricing, err := c.Service.CanEditPricing(r.Context(), workshopID)
	if err != nil {
		writeServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, EditabilityResponse{CanEdit: canEdit, CanEditPricing: canEditPricing})
}

// WorkshopStatusResponse is the data payload for lifecycle transition endpoints.
type WorkshopStatusResponse struct {
	Status string `json:"status"`
}

// WorkshopStatusSuccessResponse is the success response envelope for lifecycle transition endpoints (200).
type WorkshopStatusSuccessResponse struct {
	Data  WorkshopStatusResponse `json:"data"`
	Error *helpers.APIError      `json:"error"`
}

// Publish godoc
// @Summary Publish a workshop
// @Description Transitions a planned workshop to published, opening it for registration. Admin only. Conflicts when the workshop is not planned.
// @Tags workshops
// @Produce json
// @Security BearerAuth
// @Param workshopID path string true "Workshop ID (UUID)"
// @Success 200 {object} controllers.WorkshopStatusSuccessResponse "data contains the new status"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (not planned)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /workshops/{workshopID}/publish [post]
func (c *WorkshopController) Publish(w http.ResponseWriter, r *http.Request) {
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
	if err := c.Service.Publish(r.Context(), actor, workshopID); err != nil {
		writeServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, WorkshopStatusResponse{Status: string(domain.WorkshopPublished)})
}

// Cancel godoc
// @Summary Cancel a workshop
// @Description Cancels a published workshop, refunding every paid registration. If any provider refund fails (other than already-refunded), the whole cancellation is rolled back and the workshop stays published. Admin only.
// @Tags workshops
// @Produce json
// @Security BearerAuth
// @Param workshopID path string true "Workshop ID (UUID)"
// @Success 200 {object} controllers.WorkshopStatusSuccessResponse "data contains the new status"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (not published)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /workshops/{workshopID}/cancel [post]
func (c *WorkshopController) Cancel(w http.ResponseWriter, r *http.Request) {
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
	if err := c.Service.Cancel(r.Context(), actor, workshopID); err != nil {
		writeServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, WorkshopStatusResponse{Status: string(domain.WorkshopCancelled)})
}

// Finish godoc
// @Summary Mark a workshop finished
// @Description Transitions a published workshop to finished after it has ended. Admin only.
// @Tags workshops
// @Produce json
// @Security BearerAuth
// @Param workshopID path string true "Workshop ID (UUID)"
// @Success 200 {object} controllers.WorkshopStatusSuccessResponse "data contains the new status"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (not published)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /workshops/{workshopID}/finish [post]
func (c *WorkshopController) Finish(w http.ResponseWriter, r *http.Request) {
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
	if !actor.HasAnyRole(domain.RoleAdmin) {
		helpers.WriteJSONError(w, http.StatusForbidden, helpers.ErrCodeForbidden, "forbidden")
		return
	}
	if err := c.Service.MarkFinished(r.Context(), workshopID); err != nil {
		writeServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, WorkshopStatusResponse{Status: string(domain.WorkshopFinished)})
}

// DeleteWorkshopResponse is the data payload for DELETE /workshops/{workshopID} (200).
type DeleteWorkshopResponse struct {
	Status string `json:"status"`
}

// DeleteWorkshopSuccessResponse is the success response envelope for DELETE /workshops/{workshopID} (200).
type DeleteWorkshopSuccessResponse struct {
	Data  DeleteWorkshopResponse `json:"data"`
	Error *helpers.APIError      `json:"error"`
}

// Delete godoc
// @Summary Delete a workshop
// @Description Deletes a workshop that is still planned. Published or later workshops cannot be deleted, only cancelled. Admin only.
// @Tags workshops
// @Produce json
// @Security BearerAuth
// @Param workshopID path string true "Workshop ID (UUID)"
// @Success 200 {object} controllers.DeleteWorkshopSuccessResponse "data contains status"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (not planned)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /workshops/{workshopID} [delete]
func (c *WorkshopController) Delete(w http.ResponseWriter, r *http.Request) {
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
	if err := c.Service.Delete(r.Context(), actor, workshopID); err != nil {
		writeServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, DeleteWorkshopResponse{Status: "deleted"})
}
