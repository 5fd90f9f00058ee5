package kernel

import (
	"context"
	"testing"

	"muvserver/internal/models"
	"muvserver/internal/store"
)

func sigs(entries ...models.Signal) []models.Signal { return entries }

func TestDetect(t *testing.T) {
	tests := []struct {
		name         string
		signals      []models.Signal
		wantTypes    []string
		wantSeverity map[string]float64
	}{
		{
			name: "two strong errors create misconception",
			signals: sigs(
				models.Signal{Type: "error", Value: 0.6},
				models.Signal{Type: "error", Value: 0.6},
			),
			wantTypes:    []string{models.WeakPointMisconception},
			wantSeverity: map[string]float64{models.WeakPointMisconception: 0.6},
		},
		{
			name: "single strong error is not enough",
			signals: sigs(
				models.Signal{Type: "error", Value: 0.9},
			),
			wantTypes: []string{},
		},
		{
			name: "weak errors do not count",
			signals: sigs(
				models.Signal{Type: "error", Value: 0.4},
				models.Signal{Type: "error", Value: 0.5},
			),
			wantTypes: []string{},
		},
		{
			name: "one slow correct flags fragile understanding",
			signals: sigs(
				models.Signal{Type: "slow_correct", Value: 0.8},
			),
			wantTypes:    []string{models.WeakPointFragileUnderstanding},
			wantSeverity: map[string]float64{models.WeakPointFragileUnderstanding: 0.25},
		},
		{
			name: "transfer fail flags regardless of value",
			signals: sigs(
				models.Signal{Type: "transfer_fail", Value: 0},
			),
			wantTypes:    []string{models.WeakPointTransferFailure},
			wantSeverity: map[string]float64{models.WeakPointTransferFailure: 0.4},
		},
		{
			name: "sorting errors need two",
			signals: sigs(
				models.Signal{Type: "signal_sort_error", Value: 1},
				models.Signal{Type: "signal_sort_error", Value: 1},
			),
			wantTypes:    []string{models.WeakPointSignalPrioritization},
			wantSeverity: map[string]float64{models.WeakPointSignalPrioritization: 0.4},
		},
		{
			name: "pins and interruptions mix into attention drift",
			signals: sigs(
				models.Signal{Type: "pin", Value: 1},
				models.Signal{Type: "interruption", Value: 1},
				models.Signal{Type: "pin", Value: 1},
			),
			wantTypes:    []string{models.WeakPointAttentionDrift},
			wantSeverity: map[string]float64{models.WeakPointAttentionDrift: 0.45},
		},
		{
			name: "two drift signals are not enough",
			signals: sigs(
				models.Signal{Type: "pin", Value: 1},
				models.Signal{Type: "interruption", Value: 1},
			),
			wantTypes: []string{},
		},
		{
			name: "severity caps at one",
			signals: sigs(
				models.Signal{Type: "error", Value: 0.9},
				models.Signal{Type: "error", Value: 0.9},
				models.Signal{Type: "error", Value: 0.9},
				models.Signal{Type: "error", Value: 0.9},
			),
			wantTypes:    []string{models.WeakPointMisconception},
			wantSeverity: map[string]float64{models.WeakPointMisconception: 1},
		},
		{
			name: "categories are independent",
			signals: sigs(
				models.Signal{Type: "error", Value: 0.6},
				models.Signal{Type: "error", Value: 0.6},
				models.Signal{Type: "slow_correct", Value: 0.8},
				models.Signal{Type: "transfer_fail", Value: 0},
			),
			wantTypes: []string{
				models.WeakPointMisconception,
				models.WeakPointFragileUnderstanding,
				models.WeakPointTransferFailure,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := store.NewMemory()
			detector := NewWeakPointDetector(s)
			ctx := context.Background()

			created, err := detector.Detect(ctx, "l1", tt.signals, "c1")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(created) != len(tt.wantTypes) {
				t.Fatalf("expected %d weak points, got %d: %+v", len(tt.wantTypes), len(created), created)
			}
			for i, wp := range created {
				if wp.WPType != tt.wantTypes[i] {
					t.Errorf("expected type %q at %d, got %q", tt.wantTypes[i], i, wp.WPType)
				}
				if want, ok := tt.wantSeverity[wp.WPType]; ok {
					if diff := wp.Severity - want; diff > 1e-9 || diff < -1e-9 {
						t.Errorf("expected severity %v for %s, got %v", want, wp.WPType, wp.Severity)
					}
				}
				if wp.ConceptID != "c1" || wp.LearnerID != "l1" {
					t.Errorf("unexpected ownership: %+v", wp)
				}
			}

			// Created rows must also be persisted
			stored, err := s.ListWeakPoints(ctx, "l1")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(stored) != len(tt.wantTypes) {
				t.Errorf("expected %d persisted weak points, got %d", len(tt.wantTypes), len(stored))
			}
		})
	}
}

func TestDetect_NoDedup(t *testing.T) {
	s := store.NewMemory()
	detector := NewWeakPointDetector(s)
	ctx := context.Background()
	batch := sigs(
		models.Signal{Type: "error", Value: 0.6},
		models.Signal{Type: "error", Value: 0.6},
	)

	for i := 0; i < 2; i++ {
		if _, err := detector.Detect(ctx, "l1", batch, "c1"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	stored, _ := s.ListWeakPoints(ctx, "l1")
	if len(stored) != 2 {
		t.Errorf("expected duplicate batches to create separate weak points, got %d", len(stored))
	}
}
