// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package serve

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/luxfi/log"
	"github.com/luxfi/metric"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/luxfi/perps/vms/perpvm/api"
	"github.com/luxfi/perps/vms/perpvm/metrics"
	"github.com/luxfi/perps/vms/perpvm/sim"
)

const (
	RPCPath     = "/rpc"
	StreamPath  = "/ws"
	StepsPath   = "/steps"
	ReportPath  = "/report"
	MetricsPath = "/metrics"
)

// NewRouter serves the read API, the event stream, step submission, the
// report and the metrics of s.
func NewRouter(s *sim.Simulator, stream *api.Stream, gatherer metric.Gatherer, logger log.Logger) (http.Handler, error) {
	rpc, err := api.NewHandler(api.NewService(s.Config(), s.Ledger(), s.Lock(), logger))
	if err != nil {
		return nil, err
	}

	router := mux.NewRouter()
	router.Handle(RPCPath, rpc).Methods(http.MethodPost)
	router.Handle(StreamPath, stream)
	router.Handle(MetricsPath, promhttp.HandlerFor(metrics.NewGatherer(gatherer), promhttp.HandlerOpts{}))
	router.HandleFunc(StepsPath, stepsHandler(s, logger)).Methods(http.MethodPost)
	router.HandleFunc(ReportPath, reportHandler(s)).Methods(http.MethodGet)
	return router, nil
}

// stepsHandler applies a JSON array of steps and replies with the report.
// Steps before a failing one stay applied.
func stepsHandler(s *sim.Simulator, logger log.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var steps []sim.Step
		if err := json.NewDecoder(r.Body).Decode(&steps); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := s.Run(r.Context(), steps); err != nil {
			logger.Debug("rejected steps",
				log.Int("steps", len(steps)),
				log.Err(err),
			)
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		writeReport(w, s)
	}
}

func reportHandler(s *sim.Simulator) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeReport(w, s)
	}
}

func writeReport(w http.ResponseWriter, s *sim.Simulator) {
	report, err := s.Report()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(report)
}
