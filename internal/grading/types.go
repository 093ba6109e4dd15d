package grading

import (
	"encoding/json"
	"strings"
)

// ActivityType identifies which grader scores an activity.
type ActivityType string

const (
	ShortAnswer     ActivityType = "SHORT_ANSWER"
	FillInBlank     ActivityType = "FILL_IN_BLANK"
	SortingRanking  ActivityType = "SORTING_RANKING"
	Classification  ActivityType = "CLASSIFICATION"
	NumericEntry    ActivityType = "NUMERIC_ENTRY"
	TableCompletion ActivityType = "TABLE_COMPLETION"
	ErrorSpotting   ActivityType = "ERROR_SPOTTING"
	DeepDive        ActivityType = "DEEP_DIVE"
)

// ActivityTypes lists every supported type in authoring order.
var ActivityTypes = []ActivityType{
	ShortAnswer,
	FillInBlank,
	SortingRanking,
	Classification,
	NumericEntry,
	TableCompletion,
	ErrorSpotting,
	DeepDive,
}

// ParseActivityType accepts the canonical tag in any letter case.
func ParseActivityType(value string) (ActivityType, bool) {
	candidate := ActivityType(strings.ToUpper(strings.TrimSpace(value)))
	return candidate, candidate.Valid()
}

// Valid reports whether t is one of the known activity types.
func (t ActivityType) Valid() bool {
	for _, known := range ActivityTypes {
		if t == known {
			return true
		}
	}
	return false
}

// AutoGraded reports whether attempts of this type are scored by the engine.
// Free-response activities and unknown types are deferred to human review.
func (t ActivityType) AutoGraded() bool {
	return t.Valid() && t != DeepDive
}

// Activity is the view of an authored activity the engine grades against.
// CorrectAnswers and Content are kept as raw JSON because their shape depends
// on Type.
type Activity struct {
	Type           ActivityType
	CorrectAnswers json.RawMessage
	Tolerance      *float64
	Content        json.RawMessage
}

// Outcome labels how a grading call resolved. It never changes the score.
type Outcome string

const (
	OutcomeGraded          Outcome = "graded"
	OutcomeManualReview    Outcome = "manual_review"
	OutcomeUnknownType     Outcome = "unknown_type"
	OutcomeMalformedKey    Outcome = "malformed_key"
	OutcomeMalformedAnswer Outcome = "malformed_answer"
)

// Result is the outcome of grading one attempt.
type Result struct {
	Score      int
	AutoGraded bool
	Outcome    Outcome
}
