package grading

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func tolerance(v float64) *float64 { return &v }

func TestGradeNumeric(t *testing.T) {
	tests := []struct {
		name      string
		answer    float64
		correct   float64
		tolerance *float64
		want      int
	}{
		{"percentage within band", 101, 100, tolerance(5), 100},
		{"percentage outside band", 110, 100, tolerance(5), 0},
		{"absolute within band", 100.4, 100, tolerance(0.5), 100},
		{"absolute outside band", 100.6, 100, tolerance(0.5), 0},
		{"exact without tolerance", 42, 42, nil, 100},
		{"inexact without tolerance", 42.0001, 42, nil, 0},
		{"zero tolerance is exact", 3, 3, tolerance(0), 100},
		{"negative tolerance is exact", 3.1, 3, tolerance(-1), 0},
		{"one is percentage not absolute", 1009, 1000, tolerance(1), 100},
		{"one percent boundary", 101, 100, tolerance(1), 100},
		{"just above one percent", 1011, 1000, tolerance(1), 0},
		{"negative key percentage", -102, -100, tolerance(5), 100},
		{"zero key percentage requires equality", 0, 0, tolerance(5), 100},
		{"zero key percentage rejects drift", 0.01, 0, tolerance(5), 0},
		{"zero key absolute band", 0.3, 0, tolerance(0.5), 100},
		{"nan answer", math.NaN(), 1, tolerance(5), 0},
		{"infinite key", 1, math.Inf(1), tolerance(5), 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, GradeNumeric(tc.answer, tc.correct, tc.tolerance))
		})
	}
}
