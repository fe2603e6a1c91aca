package routers

import (
	"beacon-sim/handlers"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RegisterRoutes sets up all the HTTP routes for the report API. The metrics
// endpoint is only mounted when gatherer is not nil.
func RegisterRoutes(r *mux.Router, h *handlers.Handler, gatherer prometheus.Gatherer) {

	// Runs a simulation with the server's configuration and stores its reports
	r.HandleFunc("/runs", h.CreateRun).Methods("POST")

	// Lists stored run records
	r.HandleFunc("/runs", h.ListRuns).Methods("GET")

	// Retrieves one run record with its final metrics
	r.HandleFunc("/runs/{id}", h.GetRun).Methods("GET")

	// Retrieves the per-tick metric series of a run
	r.HandleFunc("/runs/{id}/ticks", h.GetTicks).Methods("GET")

	// Retrieves the final node, group and signature reports of a run
	r.HandleFunc("/runs/{id}/entities", h.GetEntities).Methods("GET")

	// Evaluates the analytical model
	r.HandleFunc("/analysis", h.GetAnalysis).Methods("GET")

	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})).Methods("GET")
	}
}
