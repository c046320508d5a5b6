package handlers

import (
	"net/http"

	"maintenance/app/internal/ratelimit"
	"maintenance/app/internal/security"
	"maintenance/app/internal/stats"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// Options carries the dependencies of the HTTP API
type Options struct {
	Stats       *stats.Service
	Log         logrus.FieldLogger
	ReportTitle string
	// Limiter throttles API routes per client IP; nil disables throttling
	Limiter *ratelimit.Limiter
	// Proxies whose X-Forwarded-For names the client; nil trusts none
	Proxies *security.ProxyTrust
	// Metrics serves /metrics when non-nil
	Metrics http.Handler
}

// SetupRoutes configures all HTTP routes and middlewares
func SetupRoutes(opts Options) http.Handler {
	log := opts.Log
	if log == nil {
		log = logrus.StandardLogger()
	}

	r := mux.NewRouter()
	r.Use(tagRoute)
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	// Unthrottled health and metrics endpoints
	r.HandleFunc("/health", HandleHealth(log)).Methods(http.MethodGet)
	if opts.Metrics != nil {
		r.Handle("/metrics", opts.Metrics).Methods(http.MethodGet)
	}

	api := r.PathPrefix("/").Subrouter()
	api.MethodNotAllowedHandler = r.MethodNotAllowedHandler
	if opts.Limiter != nil {
		api.Use(security.RateLimit(opts.Limiter, opts.Proxies))
	}

	api.HandleFunc("/equipments", HandleCreateEquipment(log)).Methods(http.MethodPost)
	api.HandleFunc("/equipments", HandleListEquipment(log)).Methods(http.MethodGet)
	api.HandleFunc("/equipments/{id}", HandleGetEquipment(log)).Methods(http.MethodGet)

	api.HandleFunc("/preventive-plans", HandleCreatePlan(log)).Methods(http.MethodPost)
	api.HandleFunc("/preventive-plans", HandleListPlans(log)).Methods(http.MethodGet)
	api.HandleFunc("/preventive-plans/{id}", HandleGetPlan(log)).Methods(http.MethodGet)
	api.HandleFunc("/preventive-plans/{id}", HandleSetPlanActive(log)).Methods(http.MethodPatch)
	api.HandleFunc("/preventive-plans/{id}/complete", HandleCompletePlan(log)).Methods(http.MethodPost)

	api.HandleFunc("/corrective-records", HandleCreateRecord(opts.Stats, log)).Methods(http.MethodPost)
	api.HandleFunc("/corrective-records", HandleListRecords(log)).Methods(http.MethodGet)

	api.HandleFunc("/indicators", HandleIndicators(opts.Stats, log)).Methods(http.MethodGet)
	api.HandleFunc("/reports/pdf", HandleReportPDF(opts.Stats, opts.ReportTitle, log)).Methods(http.MethodGet)
	api.HandleFunc("/activity", HandleActivity(log)).Methods(http.MethodGet)

	return security.SecureHeaders(RequestLogger(log)(GzipMiddleware(r)))
}
