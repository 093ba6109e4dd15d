package grading

import "math"

// GradeNumeric compares a numeric answer against the key.
//
// The tolerance is overloaded by magnitude: nil or <= 0 requires equality,
// values in (0, 1) are an absolute band, and values >= 1 are a percentage of
// the correct value. A percentage band around zero has no width, so a zero key
// in percentage mode requires equality.
func GradeNumeric(answer, correct float64, tolerance *float64) int {
	if !finite(answer) || !finite(correct) {
		return 0
	}
	if withinTolerance(answer, correct, tolerance) {
		return 100
	}
	return 0
}

func withinTolerance(answer, correct float64, tolerance *float64) bool {
	if tolerance == nil || !finite(*tolerance) || *tolerance <= 0 {
		return answer == correct
	}

	tol := *tolerance
	if tol >= 1 {
		if correct == 0 {
			return answer == 0
		}
		return math.Abs((answer-correct)/correct)*100 <= tol
	}
	return math.Abs(answer-correct) <= tol
}

func finite(n float64) bool {
	return !math.IsNaN(n) && !math.IsInf(n, 0)
}
