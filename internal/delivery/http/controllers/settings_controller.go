package controllers

import (
	"log/slog"
	"net/http"
	"strings"

	"clubstack/internal/delivery/http/helpers"
	"clubstack/internal/delivery/http/middleware"
	"clubstack/internal/domain"
)

type SettingsController struct {
	Logger  *slog.Logger
	Service domain.SettingsService
}

func NewSettingsController(logger *slog.Logger, svc domain.SettingsService) *SettingsController {
	return &SettingsController{
		Logger:  logger,
		Service: svc,
	}
}

// SettingSuccessResponse is the success response envelope for settings endpoints.
type SettingSuccessResponse struct {
	Data  *domain.Setting   `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// Get godoc
// @Summary Get a setting
// @Description Returns the stored value for a configuration key.
// @Tags settings
// @Produce json
// @Security BearerAuth
// @Param key path string true "Setting key"
// @Success 200 {object} controllers.SettingSuccessResponse "data contains the setting"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /settings/{key} [get]
func (c *SettingsController) Get(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	if key == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing key")
		return
	}
	setting, err := c.Service.Get(r.Context(), key)
	if err != nil {
		writeServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, setting)
}

// SetSettingRequest is the request body for PUT /settings/{key}.
type SetSettingRequest struct {
	Value string `json:"value"`
}

// Validate implements Validator.
func (s SetSettingRequest) Validate() []string {
	if strings.TrimSpace(s.Value) == "" {
		return []string{"value is required"}
	}
	return nil
}

// Set godoc
// @Summary Set a setting
// @Description Upserts the value for a configuration key. Admin only. Settings are stored in the database so all server instances see the same value.
// @Tags settings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param key path string true "Setting key"
// @Param body body SetSettingRequest true "New value"
// @Success 200 {object} controllers.SettingSuccessResponse "data contains the stored setting"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /settings/{key} [put]
func (c *SettingsController) Set(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	if key == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing key")
		return
	}
	var req SetSettingRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	setting, err := c.Service.Set(r.Context(), actor, key, req.Value)
	if err != nil {
		writeServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, setting)
}
