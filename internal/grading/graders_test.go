package grading

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGradeShortAnswer(t *testing.T) {
	require.Equal(t, 100, GradeShortAnswer("Café", []string{"cafe"}))
	require.Equal(t, 0, GradeShortAnswer("tea", []string{"coffee"}))
	require.Equal(t, 100, GradeShortAnswer("  the  Mitochondria ", []string{"mitochondrion", "The mitochondria"}))
	require.Equal(t, 0, GradeShortAnswer("cafe", nil))
}

func TestGradeFillInBlank(t *testing.T) {
	require.Equal(t, 100, GradeFillInBlank([]string{"Paris", "1990"}, []string{"paris", "1990"}))
	require.Equal(t, 0, GradeFillInBlank([]string{"Paris"}, []string{"paris", "1990"}))
	require.Equal(t, 50, GradeFillInBlank([]string{"Paris", "1991"}, []string{"paris", "1990"}))
	require.Equal(t, 67, GradeFillInBlank([]string{"a", "b", "x"}, []string{"a", "b", "c"}))
	require.Equal(t, 33, GradeFillInBlank([]string{"a", "y", "x"}, []string{"a", "b", "c"}))
	require.Equal(t, 0, GradeFillInBlank(nil, nil))
}

func TestGradeSorting(t *testing.T) {
	require.Equal(t, 100, GradeSorting([]string{"A", "B", "C"}, []string{"A", "B", "C"}))
	require.Equal(t, 0, GradeSorting([]string{"B", "A", "C"}, []string{"A", "B", "C"}))
	require.Equal(t, 0, GradeSorting([]string{"A", "B"}, []string{"A", "B", "C"}))
	require.Equal(t, 0, GradeSorting([]string{"a", "b", "c"}, []string{"A", "B", "C"}), "labels are compared exactly")
	require.Equal(t, 0, GradeSorting(nil, nil))
}

func TestGradeClassification(t *testing.T) {
	require.Equal(t, 50, GradeClassification(
		map[string]string{"a": "X", "b": "Y"},
		map[string]string{"a": "x", "b": "z"},
	))
	require.Equal(t, 100, GradeClassification(
		map[string]string{"whale": "Mammal", "shark": "fish"},
		map[string]string{"whale": "mammal", "shark": "Fish"},
	))
	require.Equal(t, 0, GradeClassification(
		map[string]string{"a": "x"},
		map[string]string{"a": "x", "b": "y"},
	), "key count mismatch")
	require.Equal(t, 0, GradeClassification(
		map[string]string{"c": "x", "d": "y"},
		map[string]string{"a": "x", "b": "y"},
	))
}

func TestGradeTable(t *testing.T) {
	correct := map[string]string{"0_1": "42"}
	require.Equal(t, 0, GradeTable(map[string]string{}, correct))
	require.Equal(t, 100, GradeTable(map[string]string{"0_1": "42"}, correct))
	require.Equal(t, 0, GradeTable(map[string]string{"0_1": "42"}, map[string]string{}))

	wide := map[string]string{"0_1": "4", "1_1": "9", "2_0": "Sixteen", "2_2": "x"}
	require.Equal(t, 75, GradeTable(map[string]string{"0_1": "4", "1_1": " 9 ", "2_0": "sixteen"}, wide))
}

func TestScoresStayInRange(t *testing.T) {
	scores := []int{
		GradeShortAnswer("", []string{""}),
		GradeFillInBlank([]string{"", ""}, []string{"", ""}),
		GradeClassification(map[string]string{}, map[string]string{}),
		GradeTable(nil, map[string]string{"0_0": ""}),
		GradeErrorSpotting("", ""),
		GradeNumeric(1, 1, nil),
	}
	for _, score := range scores {
		require.GreaterOrEqual(t, score, 0)
		require.LessOrEqual(t, score, 100)
	}
}
