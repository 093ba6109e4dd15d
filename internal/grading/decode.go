package grading

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	errMalformedKey    = errors.New("malformed answer key")
	errMalformedAnswer = errors.New("malformed answer")
)

func decodeValue(raw json.RawMessage) (interface{}, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, nil
	}

	var value interface{}
	if err := json.Unmarshal(trimmed, &value); err != nil {
		return nil, err
	}
	return value, nil
}

// textOf maps non-string values to the empty string.
func textOf(value interface{}) string {
	if s, ok := value.(string); ok {
		return s
	}
	return ""
}

func asText(value interface{}) (string, bool) {
	s, ok := value.(string)
	return s, ok
}

func asTextList(value interface{}) ([]string, bool) {
	switch v := value.(type) {
	case []string:
		return v, true
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			out = append(out, textOf(item))
		}
		return out, true
	default:
		return nil, false
	}
}

func asTextMap(value interface{}) (map[string]string, bool) {
	switch v := value.(type) {
	case map[string]string:
		return v, true
	case map[string]interface{}:
		out := make(map[string]string, len(v))
		for key, item := range v {
			out[key] = textOf(item)
		}
		return out, true
	default:
		return nil, false
	}
}

// answerList decodes a submitted list. Items that are not strings decode to
// nil so they never match a key entry.
func answerList(value interface{}) ([]*string, bool) {
	items, ok := value.([]interface{})
	if !ok {
		return nil, false
	}
	out := make([]*string, len(items))
	for i, item := range items {
		if text, ok := item.(string); ok {
			out[i] = &text
		}
	}
	return out, true
}

// answerMap is answerList for submitted mappings.
func answerMap(value interface{}) (map[string]*string, bool) {
	object, ok := value.(map[string]interface{})
	if !ok {
		return nil, false
	}
	out := make(map[string]*string, len(object))
	for key, item := range object {
		if text, ok := item.(string); ok {
			out[key] = &text
		} else {
			out[key] = nil
		}
	}
	return out, true
}

// asNumber accepts JSON numbers and numeric strings. Empty strings and
// non-finite values are not numbers.
func asNumber(value interface{}) (float64, bool) {
	var n float64
	switch v := value.(type) {
	case float64:
		n = v
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return 0, false
		}
		n = parsed
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return 0, false
		}
		parsed, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return 0, false
		}
		n = parsed
	default:
		return 0, false
	}

	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}

// contentField pulls a top-level field out of an activity's content blob.
func contentField(content json.RawMessage, field string) (interface{}, bool) {
	value, err := decodeValue(content)
	if err != nil {
		return nil, false
	}
	object, ok := value.(map[string]interface{})
	if !ok {
		return nil, false
	}
	item, ok := object[field]
	return item, ok && item != nil
}

func malformedAnswer(err error) error {
	if err == nil {
		return errMalformedAnswer
	}
	return fmt.Errorf("%w: %v", errMalformedAnswer, err)
}
