// Package metrics exposes Prometheus counters for kernel activity.
// The HTTP layer registers the default gatherer at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// IntentsClassified counts orchestration requests by resolved intent
	IntentsClassified = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "muv_intents_classified_total",
		Help: "Orchestration requests by resolved intent",
	}, []string{"intent"})

	// MasteryDeltasAccepted counts mastery updates that passed the gates
	MasteryDeltasAccepted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "muv_mastery_deltas_accepted_total",
		Help: "Mastery delta proposals accepted and persisted",
	})

	// MasteryDeltasRejected counts gate rejections by reason
	MasteryDeltasRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "muv_mastery_deltas_rejected_total",
		Help: "Mastery delta proposals rejected by a gate",
	}, []string{"gate"})

	// WeakPointsDetected counts weak points created by category
	WeakPointsDetected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "muv_weak_points_detected_total",
		Help: "Weak points created by the detector, by category",
	}, []string{"category"})

	// EvidenceRecorded counts evidence artifacts by type
	EvidenceRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "muv_evidence_artifacts_total",
		Help: "Evidence artifacts recorded, by artifact type",
	}, []string{"artifact_type"})
)
