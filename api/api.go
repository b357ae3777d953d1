// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package api serves the endpoints peers call during a round.
package api

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/luxfi/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/luxfi/oracle"
	"github.com/luxfi/oracle/verifier"
)

const (
	MetricsPath = "/metrics"

	maxRequestSize = 1 << 20
)

type ErrorResponse struct {
	Error string `json:"error"`
}

// NewHandler routes the validator endpoints. p2pHandler is mounted on
// oracle.P2PPath when not nil. Cross origin requests are accepted from
// allowedOrigins only.
func NewHandler(
	logger log.Logger,
	v verifier.ProposalVerifier,
	info *oracle.InfoResponse,
	p2pHandler http.Handler,
	allowedOrigins []string,
) http.Handler {
	r := mux.NewRouter()
	r.Handle(oracle.SignaturePath, signatureHandler(logger, v)).Methods(http.MethodPost)
	r.Handle(oracle.InfoPath, infoHandler(logger, info)).Methods(http.MethodGet)
	if p2pHandler != nil {
		r.Handle(oracle.P2PPath, p2pHandler).Methods(http.MethodPost)
	}

	return cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Content-Type", oracle.NodeIDHeader},
	}).Handler(r)
}

// NewMetricsHandler serves the metrics gathered by gatherer.
func NewMetricsHandler(gatherer prometheus.Gatherer) http.Handler {
	r := mux.NewRouter()
	r.Handle(MetricsPath, promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	return r
}

func signatureHandler(logger log.Logger, v verifier.ProposalVerifier) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var proposal oracle.RoundProposal
		if err := json.NewDecoder(io.LimitReader(r.Body, maxRequestSize)).Decode(&proposal); err != nil {
			msg := "Could not decode request body"
			logger.Warn(msg, log.Err(err))
			writeJSONError(logger, w, http.StatusBadRequest, msg)
			return
		}

		writeJSON(logger, w, v.Verify(r.Context(), &proposal))
	})
}

func infoHandler(logger log.Logger, info *oracle.InfoResponse) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Has("ping") {
			w.Header().Set("Content-Type", "text/plain")
			if _, err := w.Write([]byte(oracle.PingResponse)); err != nil {
				logger.Error("Error writing ping response", log.Err(err))
			}
			return
		}
		writeJSON(logger, w, info)
	})
}

func writeJSON(logger log.Logger, w http.ResponseWriter, v any) {
	resp, err := json.Marshal(v)
	if err != nil {
		msg := "Failed to marshal response"
		logger.Error(msg, log.Err(err))
		writeJSONError(logger, w, http.StatusInternalServerError, msg)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if _, err := w.Write(resp); err != nil {
		logger.Error("Error writing response", log.Err(err))
	}
}

func writeJSONError(
	logger log.Logger,
	w http.ResponseWriter,
	httpStatusCode int,
	errorMsg string,
) {
	resp, err := json.Marshal(
		ErrorResponse{
			Error: errorMsg,
		},
	)
	if err != nil {
		msg := "Error marshalling JSON error response"
		logger.Error(msg, log.Err(err))
		resp = []byte(msg)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatusCode)

	if _, err := w.Write(resp); err != nil {
		logger.Error("Error writing error response", log.Err(err))
	}
}
