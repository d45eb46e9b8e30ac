package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"saudemental.app/nusam/internal/metrics"
)

// SetupRoutes wires every endpoint onto a router with the metrics
// middleware applied to all of them.
func SetupRoutes(a *API) *mux.Router {
	r := mux.NewRouter()
	r.Use(metrics.Middleware)

	r.HandleFunc("/health", a.HealthHandler).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	r.HandleFunc("/patients", a.ListPatientsHandler).Methods(http.MethodGet)
	r.HandleFunc("/patients", a.CreatePatientHandler).Methods(http.MethodPost)
	r.HandleFunc("/patients/acs-suggestions", a.ACSSuggestionsHandler).Methods(http.MethodGet)
	r.HandleFunc("/patients/{id:[0-9]+}", a.GetPatientHandler).Methods(http.MethodGet)
	r.HandleFunc("/patients/{id:[0-9]+}", a.UpdatePatientHandler).Methods(http.MethodPut)
	r.HandleFunc("/patients/{id:[0-9]+}", a.DeletePatientHandler).Methods(http.MethodDelete)
	r.HandleFunc("/patients/{id:[0-9]+}/documents", a.PatientDocumentsHandler).Methods(http.MethodGet)

	r.HandleFunc("/documents", a.ListDocumentsHandler).Methods(http.MethodGet)
	r.HandleFunc("/documents", a.UploadDocumentHandler).Methods(http.MethodPost)
	r.HandleFunc("/documents/{id:[0-9]+}", a.GetDocumentHandler).Methods(http.MethodGet)
	r.HandleFunc("/documents/{id:[0-9]+}", a.DeleteDocumentHandler).Methods(http.MethodDelete)
	r.HandleFunc("/documents/{id:[0-9]+}/content", a.DocumentContentHandler).Methods(http.MethodGet)

	r.HandleFunc("/settings", a.GetSettingsHandler).Methods(http.MethodGet)
	r.HandleFunc("/settings", a.UpdateSettingsHandler).Methods(http.MethodPut)

	r.HandleFunc("/stats", a.StatsHandler).Methods(http.MethodGet)
	r.HandleFunc("/backup", a.BackupHandler).Methods(http.MethodPost)

	return r
}
