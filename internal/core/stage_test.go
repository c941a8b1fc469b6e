package core

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestStageResultJSONDurationUnit(t *testing.T) {
	b, err := json.Marshal(StageResult{
		StageName: "Build",
		Status:    StatusSuccess,
		Duration:  1500 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	// time.Duration serializes as nanoseconds; the field name must say so.
	if !strings.Contains(string(b), `"duration_ns":1500000000`) {
		t.Errorf("marshaled result = %s, want duration_ns in nanoseconds", b)
	}
}

func TestAggregateStatus(t *testing.T) {
	tests := []struct {
		name    string
		results []StageResult
		want    Status
	}{
		{
			name: "all success",
			results: []StageResult{
				{Status: StatusSuccess},
				{Status: StatusSuccess},
			},
			want: StatusSuccess,
		},
		{
			name: "required member failure fails the group",
			results: []StageResult{
				{Status: StatusSuccess},
				{Status: StatusFailure},
			},
			want: StatusFailure,
		},
		{
			name: "best-effort failure leaves the group successful",
			results: []StageResult{
				{Status: StatusSuccess},
				{Status: StatusFailure, BestEffort: true},
			},
			want: StatusSuccess,
		},
		{
			name: "unstable member makes the group unstable",
			results: []StageResult{
				{Status: StatusSuccess},
				{Status: StatusUnstable},
			},
			want: StatusUnstable,
		},
		{
			name: "failure wins over unstable",
			results: []StageResult{
				{Status: StatusUnstable},
				{Status: StatusFailure},
			},
			want: StatusFailure,
		},
		{
			name: "all skipped yields skipped",
			results: []StageResult{
				{Status: StatusSkipped},
				{Status: StatusSkipped},
			},
			want: StatusSkipped,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AggregateStatus(tt.results); got != tt.want {
				t.Errorf("AggregateStatus() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestComputeOutcome(t *testing.T) {
	tests := []struct {
		name    string
		results []StageResult
		want    Outcome
	}{
		{
			name:    "empty run succeeds",
			results: nil,
			want:    OutcomeSucceeded,
		},
		{
			name: "all green",
			results: []StageResult{
				{Status: StatusSuccess},
				{Status: StatusSkipped},
			},
			want: OutcomeSucceeded,
		},
		{
			name: "required failure fails the run",
			results: []StageResult{
				{Status: StatusSuccess},
				{Status: StatusFailure},
				{Status: StatusSuccess},
			},
			want: OutcomeFailed,
		},
		{
			name: "unstable tests mark the run unstable",
			results: []StageResult{
				{Status: StatusSuccess},
				{Status: StatusUnstable},
			},
			want: OutcomeUnstable,
		},
		{
			name: "best-effort failure marks the run unstable",
			results: []StageResult{
				{Status: StatusSuccess},
				{Status: StatusFailure, BestEffort: true},
			},
			want: OutcomeUnstable,
		},
		{
			name: "required failure wins over instability",
			results: []StageResult{
				{Status: StatusUnstable},
				{Status: StatusFailure},
			},
			want: OutcomeFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ComputeOutcome(tt.results); got != tt.want {
				t.Errorf("ComputeOutcome() = %s, want %s", got, tt.want)
			}
		})
	}
}
