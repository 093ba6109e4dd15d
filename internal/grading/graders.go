package grading

import "math"

// GradeShortAnswer is all-or-nothing against any of the accepted phrasings.
func GradeShortAnswer(answer string, accepted []string) int {
	normalized := Normalize(answer)
	for _, candidate := range accepted {
		if Normalize(candidate) == normalized {
			return 100
		}
	}
	return 0
}

// GradeFillInBlank awards credit per position. A different number of blanks
// than the key scores zero.
func GradeFillInBlank(answers, correct []string) int {
	return gradeFillInBlank(submitted(answers), correct)
}

func gradeFillInBlank(answers []*string, correct []string) int {
	if len(answers) != len(correct) {
		return 0
	}

	matched := 0
	for i := range correct {
		if matches(answers[i], correct[i]) {
			matched++
		}
	}
	return percent(matched, len(correct))
}

// GradeSorting requires every label in its exact position. Labels are fixed
// strings so they are compared without normalization.
func GradeSorting(order, correct []string) int {
	return gradeSorting(submitted(order), correct)
}

func gradeSorting(order []*string, correct []string) int {
	if len(correct) == 0 || len(order) != len(correct) {
		return 0
	}
	for i, label := range correct {
		if order[i] == nil || *order[i] != label {
			return 0
		}
	}
	return 100
}

// GradeClassification awards credit per key of the correct mapping. A
// submission with a different key count is treated as malformed.
func GradeClassification(answers, correct map[string]string) int {
	return gradeClassification(submittedMap(answers), correct)
}

func gradeClassification(answers map[string]*string, correct map[string]string) int {
	if len(answers) != len(correct) {
		return 0
	}

	matched := 0
	for key, want := range correct {
		if matches(cellOf(answers, key), want) {
			matched++
		}
	}
	return percent(matched, len(correct))
}

// GradeTable awards credit per blank cell. Cells are addressed "{row}_{col}";
// a cell missing from answers compares as the empty string.
func GradeTable(answers, correct map[string]string) int {
	return gradeTable(submittedMap(answers), correct)
}

func gradeTable(answers map[string]*string, correct map[string]string) int {
	if len(correct) == 0 {
		return 0
	}

	matched := 0
	for cell, want := range correct {
		if matches(cellOf(answers, cell), want) {
			matched++
		}
	}
	return percent(matched, len(correct))
}

// matches compares normalized text. A nil answer is a non-string submission
// and never matches.
func matches(answer *string, want string) bool {
	return answer != nil && Normalize(*answer) == Normalize(want)
}

// cellOf treats an absent entry as the empty string.
func cellOf(answers map[string]*string, key string) *string {
	if answer, ok := answers[key]; ok {
		return answer
	}
	empty := ""
	return &empty
}

func submitted(values []string) []*string {
	out := make([]*string, len(values))
	for i := range values {
		out[i] = &values[i]
	}
	return out
}

func submittedMap(values map[string]string) map[string]*string {
	out := make(map[string]*string, len(values))
	for key, value := range values {
		out[key] = &value
	}
	return out
}

// percent rounds half up, matching how scores have always been stored.
func percent(matched, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Floor(float64(matched)/float64(total)*100 + 0.5))
}
