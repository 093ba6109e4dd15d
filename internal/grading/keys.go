package grading

import (
	"encoding/json"
	"fmt"
)

// AnswerKey is the typed answer key of one activity. The set of
// implementations is closed; each variant knows the submission shape it
// grades.
type AnswerKey interface {
	Type() ActivityType
	score(answer json.RawMessage) (int, error)
}

type ShortAnswerKey struct{ Accepted []string }

type FillInBlankKey struct{ Blanks []string }

type SortingKey struct{ Order []string }

type ClassificationKey struct{ Categories map[string]string }

type NumericKey struct {
	Value     float64
	Tolerance *float64
}

type TableKey struct{ Cells map[string]string }

type ErrorSpottingKey struct{ Explanation string }

// DeepDiveKey carries nothing; deep dives are reviewed by a person.
type DeepDiveKey struct{}

func (ShortAnswerKey) Type() ActivityType    { return ShortAnswer }
func (FillInBlankKey) Type() ActivityType    { return FillInBlank }
func (SortingKey) Type() ActivityType        { return SortingRanking }
func (ClassificationKey) Type() ActivityType { return Classification }
func (NumericKey) Type() ActivityType        { return NumericEntry }
func (TableKey) Type() ActivityType          { return TableCompletion }
func (ErrorSpottingKey) Type() ActivityType  { return ErrorSpotting }
func (DeepDiveKey) Type() ActivityType       { return DeepDive }

// ParseKey decodes the activity's raw answer key into its typed variant.
func ParseKey(activity Activity) (AnswerKey, error) {
	if !activity.Type.Valid() {
		return nil, fmt.Errorf("unknown activity type %q", activity.Type)
	}
	if activity.Type == DeepDive {
		return DeepDiveKey{}, nil
	}

	value, err := decodeValue(activity.CorrectAnswers)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errMalformedKey, err)
	}

	switch activity.Type {
	case ShortAnswer:
		if single, ok := asText(value); ok {
			return ShortAnswerKey{Accepted: []string{single}}, nil
		}
		if list, ok := asTextList(value); ok {
			return ShortAnswerKey{Accepted: list}, nil
		}
	case FillInBlank:
		if list, ok := asTextList(value); ok {
			return FillInBlankKey{Blanks: list}, nil
		}
	case SortingRanking:
		if value == nil {
			value, _ = contentField(activity.Content, "items")
		}
		if list, ok := asTextList(value); ok {
			return SortingKey{Order: list}, nil
		}
	case Classification:
		if mapping, ok := asTextMap(value); ok {
			return ClassificationKey{Categories: mapping}, nil
		}
	case NumericEntry:
		if list, ok := value.([]interface{}); ok && len(list) > 0 {
			value = list[0]
		}
		if n, ok := asNumber(value); ok {
			return NumericKey{Value: n, Tolerance: activity.Tolerance}, nil
		}
	case TableCompletion:
		if value == nil {
			value, _ = contentField(activity.Content, "answers")
		}
		if mapping, ok := asTextMap(value); ok {
			return TableKey{Cells: mapping}, nil
		}
	case ErrorSpotting:
		if list, ok := value.([]interface{}); ok && len(list) > 0 {
			value = list[0]
		}
		if text, ok := asText(value); ok {
			return ErrorSpottingKey{Explanation: text}, nil
		}
	}

	return nil, fmt.Errorf("%w for %s", errMalformedKey, activity.Type)
}

func (k ShortAnswerKey) score(raw json.RawMessage) (int, error) {
	value, err := decodeValue(raw)
	if err != nil {
		return 0, malformedAnswer(err)
	}
	answer, ok := asText(value)
	if !ok {
		return 0, malformedAnswer(nil)
	}
	return GradeShortAnswer(answer, k.Accepted), nil
}

func (k FillInBlankKey) score(raw json.RawMessage) (int, error) {
	value, err := decodeValue(raw)
	if err != nil {
		return 0, malformedAnswer(err)
	}
	answers, ok := answerList(value)
	if !ok {
		return 0, malformedAnswer(nil)
	}
	return gradeFillInBlank(answers, k.Blanks), nil
}

func (k SortingKey) score(raw json.RawMessage) (int, error) {
	value, err := decodeValue(raw)
	if err != nil {
		return 0, malformedAnswer(err)
	}
	order, ok := answerList(value)
	if !ok {
		return 0, malformedAnswer(nil)
	}
	return gradeSorting(order, k.Order), nil
}

func (k ClassificationKey) score(raw json.RawMessage) (int, error) {
	value, err := decodeValue(raw)
	if err != nil {
		return 0, malformedAnswer(err)
	}
	answers, ok := answerMap(value)
	if !ok {
		return 0, malformedAnswer(nil)
	}
	return gradeClassification(answers, k.Categories), nil
}

func (k NumericKey) score(raw json.RawMessage) (int, error) {
	value, err := decodeValue(raw)
	if err != nil {
		return 0, malformedAnswer(err)
	}
	answer, ok := asNumber(value)
	if !ok {
		return 0, malformedAnswer(nil)
	}
	return GradeNumeric(answer, k.Value, k.Tolerance), nil
}

func (k TableKey) score(raw json.RawMessage) (int, error) {
	value, err := decodeValue(raw)
	if err != nil {
		return 0, malformedAnswer(err)
	}
	if value == nil {
		value = map[string]interface{}{}
	}
	answers, ok := answerMap(value)
	if !ok {
		return 0, malformedAnswer(nil)
	}
	return gradeTable(answers, k.Cells), nil
}

func (k ErrorSpottingKey) score(raw json.RawMessage) (int, error) {
	value, err := decodeValue(raw)
	if err != nil {
		return 0, malformedAnswer(err)
	}
	answer, ok := asText(value)
	if !ok {
		return 0, malformedAnswer(nil)
	}
	return GradeErrorSpotting(answer, k.Explanation), nil
}

func (DeepDiveKey) score(json.RawMessage) (int, error) {
	return 0, nil
}
