package controllers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"clubstack/internal/delivery/http/helpers"
	"clubstack/internal/delivery/http/middleware"
	"clubstack/internal/domain"
)

type RefundController struct {
	Logger  *slog.Logger
	Service domain.RefundService
}

func NewRefundController(logger *slog.Logger, svc domain.RefundService) *RefundController {
	return &RefundController{
		Logger:  logger,
		Service: svc,
	}
}

// EligibilitySuccessResponse is the success response envelope for GET /registrations/{registrationID}/refund-eligibility (200).
type EligibilitySuccessResponse struct {
	Data  *domain.RefundEligibility `json:"data"`
	Error *helpers.APIError         `json:"error"`
}

// CheckEligibility godoc
// @Summary Check refund eligibility
// @Description Returns whether the registration can currently be refunded and, if not, the first failing reason. Advisory only; processing re-checks inside a transaction.
// @Tags refunds
// @Produce json
// @Security BearerAuth
// @Param registrationID path string true "Registration ID (UUID)"
// @Success 200 {object} controllers.EligibilitySuccessResponse "data contains eligible and reason"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /registrations/{registrationID}/refund-eligibility [get]
func (c *RefundController) CheckEligibility(w http.ResponseWriter, r *http.Request) {
	registrationID := r.PathValue("registrationID")
	if registrationID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing registrationID")
		return
	}
	eligibility, err := c.Service.CheckEligibility(r.Context(), registrationID)
	if err != nil {
		writeServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, eligibility)
}

// ProcessRefundRequest is the request body for POST /registrations/{registrationID}/refund.
type ProcessRefundRequest struct {
	Reason string `json:"reason"`
}

// Validate implements Validator.
func (p ProcessRefundRequest) Validate() []string {
	if strings.TrimSpace(p.Reason) == "" {
		return []string{"reason is required"}
	}
	return nil
}

// RefundSuccessResponse is the success response envelope for POST /registrations/{registrationID}/refund (200).
type RefundSuccessResponse struct {
	Data  *domain.Refund    `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// ProcessRefund godoc
// @Summary Process a refund
// @Description Refunds a confirmed registration through the payment provider. Admin only. Eligibility is re-checked inside a transaction before the provider call. If the provider refund fails, the refund record is marked failed and the registration keeps its status.
// @Tags refunds
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param registrationID path string true "Registration ID (UUID)"
// @Param body body ProcessRefundRequest true "Refund reason"
// @Success 200 {object} controllers.RefundSuccessResponse "data contains the refund record"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (not eligible)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error (provider failure)"
// @Router /registrations/{registrationID}/refund [post]
func (c *RefundController) ProcessRefund(w http.ResponseWriter, r *http.Request) {
	registrationID := r.PathValue("registrationID")
	if registrationID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing registrationID")
		return
	}
	var req ProcessRefundRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	refund, err := c.Service.ProcessRefund(r.Context(), actor, registrationID, req.Reason)
	if err != nil {
		var ineligible *domain.IneligibleError
		if errors.As(err, &ineligible) {
			helpers.WriteJSONError(w, http.StatusConflict, helpers.ErrCodeConflict, ineligible.Error())
			return
		}
		writeServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, refund)
}
