package models

import "math"

// ComputeProgress returns the percentage of goal covered by raised, clamped
// to [0, 100]. A goal of zero or less has nothing to measure against and
// reports 0, so targets without a goal never show as fully funded.
func ComputeProgress(raised, goal float64) float64 {
	if goal <= 0 || math.IsNaN(goal) || math.IsNaN(raised) || raised <= 0 {
		return 0
	}
	if math.IsInf(goal, 1) {
		return 0
	}
	return math.Min(raised/goal*100, 100)
}
