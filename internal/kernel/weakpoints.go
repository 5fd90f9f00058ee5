package kernel

import (
	"context"
	"math"

	"muvserver/internal/metrics"
	"muvserver/internal/models"
	"muvserver/internal/store"
)

// weakPointRule maps a signal pattern to a weak point category. Every
// rule is evaluated against the full batch independently; categories
// are not mutually exclusive.
type weakPointRule struct {
	wpType   string
	minCount int
	weight   float64
	match    func(models.Signal) bool
}

var weakPointRules = []weakPointRule{
	{
		wpType:   models.WeakPointMisconception,
		minCount: 2,
		weight:   0.3,
		match:    func(s models.Signal) bool { return s.Type == "error" && s.Value > 0.5 },
	},
	{
		wpType:   models.WeakPointFragileUnderstanding,
		minCount: 1,
		weight:   0.25,
		match:    func(s models.Signal) bool { return s.Type == "slow_correct" && s.Value > 0.7 },
	},
	{
		wpType:   models.WeakPointTransferFailure,
		minCount: 1,
		weight:   0.4,
		match:    func(s models.Signal) bool { return s.Type == "transfer_fail" },
	},
	{
		wpType:   models.WeakPointSignalPrioritization,
		minCount: 2,
		weight:   0.2,
		match:    func(s models.Signal) bool { return s.Type == "signal_sort_error" },
	},
	{
		wpType:   models.WeakPointAttentionDrift,
		minCount: 3,
		weight:   0.15,
		match:    func(s models.Signal) bool { return s.Type == "pin" || s.Type == "interruption" },
	},
}

// WeakPointDetector aggregates behavioral signals into weak point rows
type WeakPointDetector struct {
	store store.Store
}

// NewWeakPointDetector creates a detector backed by the given store
func NewWeakPointDetector(s store.Store) *WeakPointDetector {
	return &WeakPointDetector{store: s}
}

// Detect evaluates one signal batch against every rule and creates one
// weak point per triggered category. Existing unresolved weak points of
// the same category are not deduplicated against.
func (d *WeakPointDetector) Detect(ctx context.Context, learnerID string, signals []models.Signal, conceptID string) ([]models.WeakPoint, error) {
	created := []models.WeakPoint{}

	for _, rule := range weakPointRules {
		matched := []models.Signal{}
		for _, s := range signals {
			if rule.match(s) {
				matched = append(matched, s)
			}
		}
		if len(matched) < rule.minCount {
			continue
		}

		severity := math.Min(1, float64(len(matched))*rule.weight)
		wp, err := d.store.CreateWeakPoint(ctx, learnerID, conceptID, rule.wpType, severity, matched, nil)
		if err != nil {
			return nil, err
		}
		metrics.WeakPointsDetected.WithLabelValues(rule.wpType).Inc()
		created = append(created, *wp)
	}

	return created, nil
}
