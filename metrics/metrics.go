// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Round outcomes.
const (
	OutcomeNotLeader  = "not_leader"
	OutcomeSkipped    = "skipped"
	OutcomeNoQuorum   = "no_quorum"
	OutcomeDispatched = "dispatched"
	OutcomeFailed     = "failed"
)

// Peer failure reasons.
const (
	ReasonSignature      = "signature"
	ReasonStatus         = "status"
	ReasonSignerMismatch = "signer_mismatch"
	ReasonNotMember      = "not_member"
)

type OracleMetrics struct {
	roundCount              *prometheus.CounterVec
	peerFailureCount        *prometheus.CounterVec
	collectedSignatureCount *prometheus.CounterVec
	discrepantKeyCount      *prometheus.CounterVec
	collectLatencyMS        prometheus.Histogram
	verifyRequestCount      *prometheus.CounterVec
}

func NewOracleMetrics(registerer prometheus.Registerer) *OracleMetrics {
	m := OracleMetrics{
		roundCount: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "round_count",
				Help: "Number of rounds by outcome",
			},
			[]string{"outcome"},
		),
		peerFailureCount: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "peer_failure_count",
				Help: "Number of peer contributions discarded during collection",
			},
			[]string{"reason"},
		),
		collectedSignatureCount: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "collected_signature_count",
				Help: "Number of signatures accepted into a consensus result",
			},
			[]string{"chain_id"},
		),
		discrepantKeyCount: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "discrepant_key_count",
				Help: "Number of keys dropped from a proposal because of discrepancies",
			},
			[]string{"chain_id"},
		),
		collectLatencyMS: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "collect_latency_ms",
				Help:    "Latency of collecting signatures from all validators in milliseconds",
				Buckets: prometheus.ExponentialBuckets(10, 2, 10),
			},
		),
		verifyRequestCount: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "verify_request_count",
				Help: "Number of proposals verified by result",
			},
			[]string{"result"},
		),
	}

	registerer.MustRegister(m.roundCount)
	registerer.MustRegister(m.peerFailureCount)
	registerer.MustRegister(m.collectedSignatureCount)
	registerer.MustRegister(m.discrepantKeyCount)
	registerer.MustRegister(m.collectLatencyMS)
	registerer.MustRegister(m.verifyRequestCount)

	return &m
}

func (m *OracleMetrics) RoundCompleted(outcome string) {
	m.roundCount.WithLabelValues(outcome).Inc()
}

func (m *OracleMetrics) PeerFailed(reason string) {
	m.peerFailureCount.WithLabelValues(reason).Inc()
}

func (m *OracleMetrics) SignaturesCollected(chainID string, count int) {
	m.collectedSignatureCount.WithLabelValues(chainID).Add(float64(count))
}

func (m *OracleMetrics) KeysDropped(chainID string, count int) {
	m.discrepantKeyCount.WithLabelValues(chainID).Add(float64(count))
}

func (m *OracleMetrics) ObserveCollect(d time.Duration) {
	m.collectLatencyMS.Observe(float64(d.Milliseconds()))
}

func (m *OracleMetrics) Verified(result string) {
	m.verifyRequestCount.WithLabelValues(result).Inc()
}
