package routes

import (
	"net/http"

	"github.com/gorilla/mux"
	"p9e.in/apex/handlers"
	"p9e.in/apex/middleware"
	"p9e.in/apex/models"
)

// RegisterRoutes sets up all application routes
func RegisterRoutes() http.Handler {
	r := mux.NewRouter()

	// =====================================================
	// Public Routes (no authentication)
	// =====================================================
	r.HandleFunc("/register", handlers.Register).Methods("POST")
	r.HandleFunc("/login", handlers.Login).Methods("POST")

	// =====================================================
	// Protected API Routes (require JWT authentication)
	// =====================================================
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(middleware.JWTMiddleware)
	api.Use(middleware.RequestLogger)

	api.HandleFunc("/profile", handlers.GetCurrentUser).Methods("GET")

	registerJobRoutes(api)
	registerMaterialRoutes(api)
	registerDisputeRoutes(api)
	registerPayoutRoutes(api)
	registerComplianceRoutes(api)
	registerEstimateRoutes(api)

	// =====================================================
	// Admin Routes
	// =====================================================
	admin := api.PathPrefix("/admin").Subrouter()
	registerAdminRoutes(admin)

	return r
}

func requireRoles(h http.HandlerFunc, roles ...string) http.Handler {
	return middleware.RequireRole(roles, h)
}

// registerJobRoutes wires the job lifecycle operations. Reads are open to
// every authenticated role; mutations are guarded by the acting role the
// workflow names for them.
func registerJobRoutes(api *mux.Router) {
	api.HandleFunc("/jobs", handlers.ListJobs).Methods("GET")
	api.HandleFunc("/jobs/{id}", handlers.GetJob).Methods("GET")

	api.Handle("/jobs/{id}/accept",
		requireRoles(handlers.AcceptJob, models.RoleContractor)).Methods("POST")
	api.Handle("/jobs/{id}/site-visit",
		requireRoles(handlers.RecordSiteVisit, models.RoleFM, models.RoleAdmin)).Methods("POST")
	api.Handle("/jobs/checklist/{itemId}",
		requireRoles(handlers.ToggleChecklistItem, models.RoleContractor, models.RoleAdmin)).Methods("PUT")
	api.Handle("/jobs/{id}/photos",
		requireRoles(handlers.RecordPhotoUpload, models.RoleContractor, models.RoleFM, models.RoleAdmin)).Methods("POST")
	api.Handle("/jobs/{id}/complete",
		requireRoles(handlers.MarkComplete, models.RoleContractor, models.RoleAdmin)).Methods("POST")
}

func registerMaterialRoutes(api *mux.Router) {
	api.Handle("/jobs/{id}/materials/verify",
		requireRoles(handlers.VerifyMaterials, models.RoleFM, models.RoleAdmin)).Methods("PUT")
	api.Handle("/jobs/{id}/materials/delivery",
		requireRoles(handlers.ConfirmDelivery, models.RoleCustomer, models.RoleAdmin)).Methods("POST")
	api.HandleFunc("/jobs/{id}/materials/deliveries", handlers.ListDeliveries).Methods("GET")
}

func registerDisputeRoutes(api *mux.Router) {
	// Raising a flag is open to every role; resolution is admin-only and
	// guarded inside the engine as well.
	api.HandleFunc("/jobs/{id}/disputes", handlers.RaiseDispute).Methods("POST")
	api.HandleFunc("/jobs/{id}/disputes", handlers.ListDisputes).Methods("GET")
	api.Handle("/disputes/{itemId}/resolve",
		requireRoles(handlers.ResolveDispute, models.RoleAdmin)).Methods("POST")
}

func registerPayoutRoutes(api *mux.Router) {
	api.HandleFunc("/payouts", handlers.ListPayouts).Methods("GET")
	api.HandleFunc("/payouts/{id}/evaluate", handlers.EvaluatePayout).Methods("GET")
	api.Handle("/payouts/{id}/approve",
		requireRoles(handlers.ApprovePayout, models.RoleAdmin)).Methods("POST")
	api.Handle("/payouts/{id}/decline",
		requireRoles(handlers.DeclinePayout, models.RoleAdmin)).Methods("POST")
	api.Handle("/payouts/export/xlsx",
		requireRoles(handlers.ExportPayoutLedgerToExcel, models.RoleAdmin, models.RoleInvestor)).Methods("GET")
	api.Handle("/payouts/export/csv",
		requireRoles(handlers.ExportPayoutLedgerToCSV, models.RoleAdmin, models.RoleInvestor)).Methods("GET")
}

func registerComplianceRoutes(api *mux.Router) {
	// Contractors maintain their own record.
	api.Handle("/compliance",
		requireRoles(handlers.GetCompliance, models.RoleContractor)).Methods("GET")
	api.Handle("/compliance/documents",
		requireRoles(handlers.SetComplianceDocument, models.RoleContractor)).Methods("PUT")
	api.Handle("/compliance/agreements",
		requireRoles(handlers.SetComplianceAgreement, models.RoleContractor)).Methods("PUT")
}

func registerEstimateRoutes(api *mux.Router) {
	api.HandleFunc("/jobs/{id}/estimate", handlers.GetEstimate).Methods("GET")
	api.Handle("/jobs/{id}/estimate",
		requireRoles(handlers.BuildQuote, models.RoleFM, models.RoleAdmin)).Methods("PUT")
	api.Handle("/jobs/{id}/estimate/approve",
		requireRoles(handlers.ApproveQuote, models.RoleCustomer, models.RoleAdmin)).Methods("POST")
}

// registerAdminRoutes registers admin-only routes
func registerAdminRoutes(admin *mux.Router) {
	adminOnly := []string{models.RoleAdmin}

	admin.Handle("/jobs",
		middleware.RequireRole(adminOnly, http.HandlerFunc(handlers.CreateJob))).Methods("POST")
	admin.Handle("/users",
		middleware.RequireRole(adminOnly, http.HandlerFunc(handlers.GetAllUsers))).Methods("GET")
	admin.Handle("/users",
		middleware.RequireRole(adminOnly, http.HandlerFunc(handlers.Register))).Methods("POST")

	// Registered before the {contractorId} routes so "expiring" never parses
	// as an id.
	admin.Handle("/compliance/expiring",
		middleware.RequireRole(adminOnly, http.HandlerFunc(handlers.ListExpiringInsurance))).Methods("GET")
	admin.Handle("/compliance/{contractorId}",
		middleware.RequireRole(adminOnly, http.HandlerFunc(handlers.GetCompliance))).Methods("GET")
	admin.Handle("/compliance/{contractorId}/documents",
		middleware.RequireRole(adminOnly, http.HandlerFunc(handlers.SetComplianceDocument))).Methods("PUT")
	admin.Handle("/compliance/{contractorId}/agreements",
		middleware.RequireRole(adminOnly, http.HandlerFunc(handlers.SetComplianceAgreement))).Methods("PUT")
	admin.Handle("/compliance/{contractorId}/override",
		middleware.RequireRole(adminOnly, http.HandlerFunc(handlers.OverrideCompliance))).Methods("POST")
}
