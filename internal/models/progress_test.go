package models

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeProgress(t *testing.T) {
	tests := []struct {
		name   string
		raised float64
		goal   float64
		want   float64
	}{
		{name: "three quarters funded", raised: 750, goal: 1000, want: 75},
		{name: "over funded clamps to 100", raised: 1200, goal: 1000, want: 100},
		{name: "exactly funded", raised: 1000, goal: 1000, want: 100},
		{name: "nothing raised", raised: 0, goal: 1000, want: 0},
		{name: "zero goal", raised: 500, goal: 0, want: 0},
		{name: "zero goal and zero raised", raised: 0, goal: 0, want: 0},
		{name: "negative goal", raised: 500, goal: -10, want: 0},
		{name: "negative raised", raised: -50, goal: 100, want: 0},
		{name: "NaN raised", raised: math.NaN(), goal: 100, want: 0},
		{name: "NaN goal", raised: 10, goal: math.NaN(), want: 0},
		{name: "fractional", raised: 1, goal: 3, want: 100.0 / 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeProgress(tt.raised, tt.goal)
			assert.InDelta(t, tt.want, got, 1e-9)
			assert.False(t, math.IsNaN(got))
			assert.False(t, math.IsInf(got, 0))
		})
	}
}

func TestComputeProgress_MatchesFormulaForPositiveGoals(t *testing.T) {
	for goal := 1.0; goal <= 5000; goal *= 3.7 {
		for raised := 0.0; raised <= 10000; raised += 123.4 {
			got := ComputeProgress(raised, goal)
			want := math.Min(raised/goal*100, 100)
			if got < 0 || got > 100 {
				t.Fatalf("progress(%v, %v) = %v, out of range", raised, goal, got)
			}
			if math.Abs(got-want) > 1e-9 {
				t.Fatalf("progress(%v, %v) = %v, want %v", raised, goal, got, want)
			}
		}
	}
}

func TestTargetSummaries_IncludeProgress(t *testing.T) {
	c := &Campaign{ID: 1, Title: "Clean Water", RaisedAmount: 750, GoalAmount: 1000}
	assert.Equal(t, 75.0, c.Summarize().Progress)
	assert.Equal(t, CategoryCampaign, c.Summarize().Category)

	p := &Patient{ID: 2, Name: "Amina", RaisedAmount: 1200, GoalAmount: 1000}
	assert.Equal(t, 100.0, p.Summarize().Progress)
	assert.Equal(t, "Amina", p.Summarize().Title)

	prog := &Program{ID: 3, Title: "Orphan Care", RaisedAmount: 900}
	assert.Equal(t, 0.0, prog.Summarize().Progress)
}
