package controllers

import (
	"log/slog"
	"net/http"
	"strings"

	"clubstack/internal/delivery/http/helpers"
	"clubstack/internal/delivery/http/middleware"
	"clubstack/internal/domain"
)

type RegistrationController struct {
	Logger  *slog.Logger
	Service domain.RegistrationService
}

func NewRegistrationController(logger *slog.Logger, svc domain.RegistrationService) *RegistrationController {
	return &RegistrationController{
		Logger:  logger,
		Service: svc,
	}
}

// ToggleInterestResponse is the data payload for POST /workshops/{workshopID}/interest (200).
type ToggleInterestResponse struct {
	Action string `json:"action"`
}

// ToggleInterestSuccessResponse is the success response envelope for POST /workshops/{workshopID}/interest (200).
type ToggleInterestSuccessResponse struct {
	Data  ToggleInterestResponse `json:"data"`
	Error *helpers.APIError      `json:"error"`
}

// ToggleInterest godoc
// @Summary Toggle interest in a planned workshop
// @Description Expresses interest in a planned workshop, or withdraws it if already expressed. Interest is only allowed while the workshop is planned.
// @Tags registrations
// @Produce json
// @Security BearerAuth
// @Param workshopID path string true "Workshop ID (UUID)"
// @Success 200 {object} controllers.ToggleInterestSuccessResponse "data.action is expressed or withdrawn"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (workshop not planned)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /workshops/{workshopID}/interest [post]
func (c *RegistrationController) ToggleInterest(w http.ResponseWriter, r *http.Request) {
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
	action, err := c.Service.ToggleInterest(r.Context(), actor, workshopID)
	if err != nil {
		writeServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, ToggleInterestResponse{Action: string(action)})
}

// ListInterestSuccessResponse is the success response envelope for GET /workshops/{workshopID}/interest (200).
type ListInterestSuccessResponse struct {
	Data  []*domain.Interest `json:"data"`
	Error *helpers.APIError  `json:"error"`
}

// ListInterest godoc
// @Summary List interest signals for a workshop
// @Description Returns all interest signals for the workshop. Admin only.
// @Tags registrations
// @Produce json
// @Security BearerAuth
// @Param workshopID path string true "Workshop ID (UUID)"
// @Success 200 {object} controllers.ListInterestSuccessResponse "data is an array of interest signals"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /workshops/{workshopID}/interest [get]
func (c *RegistrationController) ListInterest(w http.ResponseWriter, r *http.Request) {
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
	interests, err := c.Service.ListInterest(r.Context(), actor, workshopID)
	if err != nil {
		writeServiceError(w, r, c.Logger, err)
		return
	}
	if interests == nil {
		interests = []*domain.Interest{}
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, interests)
}

// CreatePaymentIntentRequest is the request body for POST /workshops/{workshopID}/payment-intent.
// Amount and currency are validated against the stored workshop price; the
// charge is never derived from the client values alone.
type CreatePaymentIntentRequest struct {
	Amount     int64  `json:"amount"`
	Currency   string `json:"currency"`
	CustomerID string `json:"customer_id"`
}

// Validate implements Validator.
func (c CreatePaymentIntentRequest) Validate() []string {
	var errs []string
	if c.Amount <= 0 {
		errs = append(errs, "amount must be positive")
	}
	if strings.TrimSpace(c.Currency) == "" {
		errs = append(errs, "currency is required")
	}
	return errs
}

// CreatePaymentIntentSuccessResponse is the success response envelope for POST /workshops/{workshopID}/payment-intent (201).
type CreatePaymentIntentSuccessResponse struct {
	Data  *domain.PaymentIntent `json:"data"`
	Error *helpers.APIError     `json:"error"`
}

// CreatePaymentIntent godoc
// @Summary Open a payment intent for a workshop registration
// @Description Validates capacity, duplicate registration, and the quoted price against the stored workshop, then opens a provider payment intent. The returned client_secret is used by the client to complete payment.
// @Tags registrations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param workshopID path string true "Workshop ID (UUID)"
// @Param body body CreatePaymentIntentRequest true "Quoted amount and currency"
// @Success 201 {object} controllers.CreatePaymentIntentSuccessResponse "data contains the payment intent"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request (price mismatch)"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (full, duplicate, or not published)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /workshops/{workshopID}/payment-intent [post]
func (c *RegistrationController) CreatePaymentIntent(w http.ResponseWriter, r *http.Request) {
	workshopID := r.PathValue("workshopID")
	if workshopID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing workshopID")
		return
	}
	var req CreatePaymentIntentRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	intent, err := c.Service.CreatePaymentIntent(r.Context(), actor, workshopID, domain.PaymentIntentRequest{
		Amount:     req.Amount,
		Currency:   req.Currency,
		CustomerID: req.CustomerID,
	})
	if err != nil {
		writeServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, intent)
}

// CompleteRegistrationRequest is the request body for POST /workshops/{workshopID}/registrations.
type CompleteRegistrationRequest struct {
	PaymentIntentID string `json:"payment_intent_id"`
}

// Validate implements Validator.
func (c CompleteRegistrationRequest) Validate() []string {
	if strings.TrimSpace(c.PaymentIntentID) == "" {
		return []string{"payment_intent_id is required"}
	}
	return nil
}

// RegistrationSuccessResponse is the success response envelope for registration endpoints.
type RegistrationSuccessResponse struct {
	Data  *domain.Registration `json:"data"`
	Error *helpers.APIError    `json:"error"`
}

// CompleteRegistration godoc
// @Summary Complete a registration after payment
// @Description Verifies with the provider that the payment intent succeeded and belongs to this workshop, re-checks capacity and duplicates, and records the confirmed registration. The paid amount is taken from the provider, never from the client.
// @Tags registrations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param workshopID path string true "Workshop ID (UUID)"
// @Param body body CompleteRegistrationRequest true "Provider payment intent ID"
// @Success 201 {object} controllers.RegistrationSuccessResponse "data contains the confirmed registration"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request (payment not succeeded or wrong workshop)"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (full or duplicate)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /workshops/{workshopID}/registrations [post]
func (c *RegistrationController) CompleteRegistration(w http.ResponseWriter, r *http.Request) {
	workshopID := r.PathValue("workshopID")
	if workshopID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing workshopID")
		return
	}
	var req CompleteRegistrationRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	reg, err := c.Service.CompleteRegistration(r.Context(), actor, workshopID, req.PaymentIntentID)
	if err != nil {
		writeServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, reg)
}

// CancelRegistration godoc
// @Summary Cancel my registration
// @Description Cancels the caller's active registration for the workshop. Cancelling does not refund; a refund is a separate admin operation.
// @Tags registrations
// @Produce json
// @Security BearerAuth
// @Param workshopID path string true "Workshop ID (UUID)"
// @Success 200 {object} controllers.RegistrationSuccessResponse "data contains the cancelled registration"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found (no active registration)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /workshops/{workshopID}/registrations [delete]
func (c *RegistrationController) CancelRegistration(w http.ResponseWriter, r *http.Request) {
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
	reg, err := c.Service.CancelRegistration(r.Context(), actor, workshopID)
	if err != nil {
		writeServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, reg)
}

// ListAttendeesSuccessResponse is the success response envelope for GET /workshops/{workshopID}/attendees (200).
type ListAttendeesSuccessResponse struct {
	Data  []*domain.Attendee `json:"data"`
	Error *helpers.APIError  `json:"error"`
}

// ListAttendees godoc
// @Summary List attendees of a workshop
// @Description Returns active registrations with resolved display names, ordered by registration time. Admin only.
// @Tags registrations
// @Produce json
// @Security BearerAuth
// @Param workshopID path string true "Workshop ID (UUID)"
// @Success 200 {object} controllers.ListAttendeesSuccessResponse "data is an array of attendees"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /workshops/{workshopID}/attendees [get]
func (c *RegistrationController) ListAttendees(w http.ResponseWriter, r *http.Request) {
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
	attendees, err := c.Service.GetWorkshopAttendees(r.Context(), actor, workshopID)
	if err != nil {
		writeServiceError(w, r, c.Logger, err)
		return
	}
	if attendees == nil {
		attendees = []*domain.Attendee{}
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, attendees)
}

// ListMyRegistrationsResponse is the data payload for GET /registrations/me (200).
type ListMyRegistrationsResponse struct {
	Items      []*domain.Registration `json:"items"`
	Pagination helpers.PaginationMeta `json:"pagination"`
}

// ListMyRegistrationsSuccessResponse is the success response envelope for GET /registrations/me (200).
type ListMyRegistrationsSuccessResponse struct {
	Data  ListMyRegistrationsResponse `json:"data"`
	Error *helpers.APIError           `json:"error"`
}

// ListMyRegistrations godoc
// @Summary List my registrations
// @Description Returns a paginated list of the authenticated user's registrations across workshops, newest first. Use page and page_size query params.
// @Tags registrations
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number (default 1)"
// @Param page_size query int false "Page size (default 20, max 100)"
// @Success 200 {object} controllers.ListMyRegistrationsSuccessResponse "data contains items and pagination"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /registrations/me [get]
func (c *RegistrationController) ListMyRegistrations(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	params := helpers.ParsePagination(r)
	regs, err := c.Service.ListMyRegistrations(r.Context(), actor)
	if err != nil {
		writeServiceError(w, r, c.Logger, err)
		return
	}
	total := len(regs)
	start := params.Offset()
	if start > total {
		start = total
	}
	end := start + params.PageSize
	if end > total {
		end = total
	}
	page := regs[start:end]
	if page == nil {
		page = []*domain.Registration{}
	}
	meta := helpers.NewPaginationMeta(params.Page, params.PageSize, total)
	helpers.WriteJSONSuccess(w, http.StatusOK, ListMyRegistrationsResponse{Items: page, Pagination: meta})
}
