package controllers

import (
	"log/slog"
	"net/http"
	"strings"

	"clubstack/internal/delivery/http/helpers"
	"clubstack/internal/delivery/http/middleware"
	"clubstack/internal/domain"
)

type MembershipController struct {
	Logger  *slog.Logger
	Service domain.MembershipService
}

func NewMembershipController(logger *slog.Logger, svc domain.MembershipService) *MembershipController {
	return &MembershipController{
		Logger:  logger,
		Service: svc,
	}
}

// QuoteSuccessResponse is the success response envelope for GET /membership/quote (200).
type QuoteSuccessResponse struct {
	Data  *domain.MembershipQuote `json:"data"`
	Error *helpers.APIError       `json:"error"`
}

// Quote godoc
// @Summary Quote the first membership payment
// @Description Returns the prorated first payment for a new membership, computed from the stored fee and discount settings. The same computation prices the actual charge.
// @Tags membership
// @Produce json
// @Security BearerAuth
// @Param interval query string true "Billing interval: monthly or annual"
// @Success 200 {object} controllers.QuoteSuccessResponse "data contains the quote"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /membership/quote [get]
func (c *MembershipController) Quote(w http.ResponseWriter, r *http.Request) {
	interval := domain.BillingInterval(r.URL.Query().Get("interval"))
	if interval != domain.BillingMonthly && interval != domain.BillingAnnual {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "interval must be monthly or annual")
		return
	}
	quote, err := c.Service.QuoteFirstPayment(r.Context(), interval)
	if err != nil {
		writeServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, quote)
}

// StartMembershipRequest is the request body for POST /membership.
type StartMembershipRequest struct {
	Interval   string `json:"interval"`
	CustomerID string `json:"customer_id"`
	PriceID    string `json:"price_id"`
}

// Validate implements Validator.
func (s StartMembershipRequest) Validate() []string {
	var errs []string
	if s.Interval != string(domain.BillingMonthly) && s.Interval != string(domain.BillingAnnual) {
		errs = append(errs, "interval must be monthly or annual")
	}
	if strings.TrimSpace(s.CustomerID) == "" {
		errs = append(errs, "customer_id is required")
	}
	if strings.TrimSpace(s.PriceID) == "" {
		errs = append(errs, "price_id is required")
	}
	return errs
}

// StartMembershipResponse is the data payload for POST /membership (201).
type StartMembershipResponse struct {
	Quote        *domain.MembershipQuote `json:"quote"`
	Subscription *domain.Subscription    `json:"subscription"`
}

// StartMembershipSuccessResponse is the success response envelope for POST /membership (201).
type StartMembershipSuccessResponse struct {
	Data  StartMembershipResponse `json:"data"`
	Error *helpers.APIError       `json:"error"`
}

// Start godoc
// @Summary Start a membership
// @Description Quotes the prorated first payment and opens a provider subscription for the caller.
// @Tags membership
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body StartMembershipRequest true "Billing interval and provider identifiers"
// @Success 201 {object} controllers.StartMembershipSuccessResponse "data contains quote and subscription"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /membership [post]
func (c *MembershipController) Start(w http.ResponseWriter, r *http.Request) {
	var req StartMembershipRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	quote, sub, err := c.Service.StartMembership(r.Context(), actor, domain.BillingInterval(req.Interval), req.CustomerID, req.PriceID)
	if err != nil {
		writeServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, StartMembershipResponse{Quote: quote, Subscription: sub})
}
