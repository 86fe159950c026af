package http

import (
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	"clubstack/internal/delivery/http/controllers"
	"clubstack/internal/delivery/http/middleware"
	"clubstack/internal/domain"
	"clubstack/internal/monitoring"
)

// NewRouter initializes the HTTP router with all application routes
func NewRouter(
	verifier domain.TokenVerifier,
	authController *controllers.AuthController,
	workshopController *controllers.WorkshopController,
	registrationController *controllers.RegistrationController,
	refundController *controllers.RefundController,
	attendanceController *controllers.AttendanceController,
	settingsController *controllers.SettingsController,
	membershipController *controllers.MembershipController,
) *http.ServeMux {
	mux := http.NewServeMux()
	auth := middleware.RequireAuth(verifier)

	// Auth
	mux.HandleFunc("POST /auth/signup", authController.SignUp)
	mux.HandleFunc("POST /auth/login", authController.Login)

	// Workshops
	mux.HandleFunc("POST /workshops", auth(workshopController.Create))
	mux.HandleFunc("GET /workshops", auth(workshopController.List))
	mux.HandleFunc("GET /workshops/{workshopID}", auth(workshopController.Get))
	mux.HandleFunc("PATCH /workshops/{workshopID}", auth(workshopController.Update))
	mux.HandleFunc("DELETE /workshops/{workshopID}", auth(workshopController.Delete))
	mux.HandleFunc("GET /workshops/{workshopID}/editability", auth(workshopController.Editability))
	mux.HandleFunc("POST /workshops/{workshopID}/publish", auth(workshopController.Publish))
	mux.HandleFunc("POST /workshops/{workshopID}/cancel", auth(workshopController.Cancel))
	mux.HandleFunc("POST /workshops/{workshopID}/finish", auth(workshopController.Finish))

	// Registrations and interest
	mux.HandleFunc("POST /workshops/{workshopID}/interest", auth(registrationController.ToggleInterest))
	mux.HandleFunc("GET /workshops/{workshopID}/interest", auth(registrationController.ListInterest))
	mux.HandleFunc("POST /workshops/{workshopID}/payment-intent", auth(registrationController.CreatePaymentIntent))
	mux.HandleFunc("POST /workshops/{workshopID}/registrations", auth(registrationController.CompleteRegistration))
	mux.HandleFunc("DELETE /workshops/{workshopID}/registrations", auth(registrationController.CancelRegistration))
	mux.HandleFunc("GET /workshops/{workshopID}/attendees", auth(registrationController.ListAttendees))
	mux.HandleFunc("GET /registrations/me", auth(registrationController.ListMyRegistrations))

	// Refunds
	mux.HandleFunc("GET /registrations/{registrationID}/refund-eligibility", auth(refundController.CheckEligibility))
	mux.HandleFunc("POST /registrations/{registrationID}/refund", auth(refundController.ProcessRefund))

	// Attendance
	mux.HandleFunc("GET /workshops/{workshopID}/attendance", auth(attendanceController.ListAttendance))
	mux.HandleFunc("PATCH /workshops/{workshopID}/attendance", auth(attendanceController.UpdateAttendance))

	// Settings
	mux.HandleFunc("GET /settings/{key}", auth(settingsController.Get))
	mux.HandleFunc("PUT /settings/{key}", auth(settingsController.Set))

	// Membership
	mux.HandleFunc("GET /membership/quote", auth(membershipController.Quote))
	mux.HandleFunc("POST /membership", auth(membershipController.Start))

	// Metrics
	mux.Handle("GET /metrics", monitoring.Handler())

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	return mux
}
