package service

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/noah-isme/gema-grading-api/internal/grading"
)

// ErrInvalidAnswerKey indicates an authored answer key does not fit its activity type.
var ErrInvalidAnswerKey = errors.New("invalid answer key")

const schemaBaseURL = "https://schemas.gema.local/answer-keys/"

var textList = `{"type": "array", "minItems": 1, "items": {"type": "string"}}`

var answerKeySchemas = map[grading.ActivityType]string{
	grading.ShortAnswer:     `{"oneOf": [{"type": "string", "minLength": 1}, ` + textList + `]}`,
	grading.FillInBlank:     textList,
	grading.SortingRanking:  `{"type": "array", "minItems": 1, "uniqueItems": true, "items": {"type": "string"}}`,
	grading.Classification:  `{"type": "object", "minProperties": 1, "additionalProperties": {"type": "string"}}`,
	grading.NumericEntry:    `{"oneOf": [{"type": "number"}, {"type": "array", "minItems": 1, "maxItems": 1, "items": {"type": "number"}}]}`,
	grading.TableCompletion: `{"type": "object", "minProperties": 1, "propertyNames": {"pattern": "^[0-9]+_[0-9]+$"}, "additionalProperties": {"type": "string"}}`,
	grading.ErrorSpotting:   `{"oneOf": [{"type": "string", "minLength": 1}, {"type": "array", "minItems": 1, "maxItems": 1, "items": {"type": "string"}}]}`,
}

// Content fields that may stand in for an absent key.
var contentKeyFields = map[grading.ActivityType]string{
	grading.SortingRanking:  "items",
	grading.TableCompletion: "answers",
}

// AnswerKeyValidator checks authored answer keys against per-type JSON schemas.
type AnswerKeyValidator struct {
	schemas map[grading.ActivityType]*jsonschema.Schema
}

// NewAnswerKeyValidator compiles the answer key schemas.
func NewAnswerKeyValidator() (*AnswerKeyValidator, error) {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020

	for activityType, source := range answerKeySchemas {
		if err := compiler.AddResource(schemaURL(activityType), strings.NewReader(source)); err != nil {
			return nil, fmt.Errorf("add %s schema: %w", activityType, err)
		}
	}

	schemas := make(map[grading.ActivityType]*jsonschema.Schema, len(answerKeySchemas))
	for activityType := range answerKeySchemas {
		schema, err := compiler.Compile(schemaURL(activityType))
		if err != nil {
			return nil, fmt.Errorf("compile %s schema: %w", activityType, err)
		}
		schemas[activityType] = schema
	}

	return &AnswerKeyValidator{schemas: schemas}, nil
}

// MustAnswerKeyValidator panics when the built-in schemas fail to compile.
func MustAnswerKeyValidator() *AnswerKeyValidator {
	validator, err := NewAnswerKeyValidator()
	if err != nil {
		panic(err)
	}
	return validator
}

// Validate checks the key, falling back to the content field that can carry
// the key for sorting and table activities.
func (v *AnswerKeyValidator) Validate(activityType grading.ActivityType, key, content json.RawMessage) error {
	schema, ok := v.schemas[activityType]
	if !ok {
		return nil
	}

	if isEmptyJSON(key) {
		field, hasFallback := contentKeyFields[activityType]
		if !hasFallback {
			return fmt.Errorf("%w: %s requires correct_answers", ErrInvalidAnswerKey, activityType)
		}
		fallback, err := contentMember(content, field)
		if err != nil {
			return fmt.Errorf("%w: %s requires correct_answers or content.%s", ErrInvalidAnswerKey, activityType, field)
		}
		key = fallback
	}

	value, err := decodeJSONValue(key)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidAnswerKey, err)
	}

	if err := schema.Validate(value); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidAnswerKey, describeSchemaError(err))
	}

	return nil
}

func schemaURL(activityType grading.ActivityType) string {
	return schemaBaseURL + strings.ToLower(string(activityType)) + ".json"
}

func isEmptyJSON(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

func decodeJSONValue(raw json.RawMessage) (interface{}, error) {
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()

	var value interface{}
	if err := decoder.Decode(&value); err != nil {
		return nil, err
	}
	return value, nil
}

func contentMember(content json.RawMessage, field string) (json.RawMessage, error) {
	if isEmptyJSON(content) {
		return nil, errors.New("content is empty")
	}

	var object map[string]json.RawMessage
	if err := json.Unmarshal(content, &object); err != nil {
		return nil, err
	}

	member, ok := object[field]
	if !ok || isEmptyJSON(member) {
		return nil, fmt.Errorf("content.%s is missing", field)
	}
	return member, nil
}

func describeSchemaError(err error) string {
	var validationErr *jsonschema.ValidationError
	if errors.As(err, &validationErr) {
		leaf := validationErr
		for len(leaf.Causes) > 0 {
			leaf = leaf.Causes[0]
		}
		location := leaf.InstanceLocation
		if location == "" {
			location = "/"
		}
		return fmt.Sprintf("%s: %s", location, leaf.Message)
	}
	return err.Error()
}
