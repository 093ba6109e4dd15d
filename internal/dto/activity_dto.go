package dto

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/noah-isme/gema-grading-api/internal/grading"
	"github.com/noah-isme/gema-grading-api/internal/models"
)

// ActivityRequest is the authoring payload for creating or replacing an activity.
type ActivityRequest struct {
	Title          string          `json:"title" validate:"required,min=3,max=255"`
	Instructions   string          `json:"instructions" validate:"omitempty,max=10000"`
	ActivityType   string          `json:"activity_type" validate:"required,oneof=SHORT_ANSWER FILL_IN_BLANK SORTING_RANKING CLASSIFICATION NUMERIC_ENTRY TABLE_COMPLETION ERROR_SPOTTING DEEP_DIVE"`
	CorrectAnswers json.RawMessage `json:"correct_answers"`
	Tolerance      *float64        `json:"tolerance" validate:"omitempty,gte=0"`
	Content        json.RawMessage `json:"content"`
}

// ActivityListRequest defines filters for listing activities.
type ActivityListRequest struct {
	Page         int
	PageSize     int
	ActivityType string
	Search       string
}

// ActivityResponse is returned when viewing activities. The answer key is
// only populated for authors.
type ActivityResponse struct {
	ID             uint            `json:"id"`
	Title          string          `json:"title"`
	Instructions   string          `json:"instructions"`
	ActivityType   string          `json:"activity_type"`
	AutoGraded     bool            `json:"auto_graded"`
	CorrectAnswers json.RawMessage `json:"correct_answers,omitempty"`
	Tolerance      *float64        `json:"tolerance,omitempty"`
	Content        json.RawMessage `json:"content,omitempty"`
	CreatedBy      uint            `json:"created_by"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// ActivityListResponse wraps paginated activities.
type ActivityListResponse struct {
	Items      []ActivityResponse `json:"items"`
	Pagination PaginationMeta     `json:"pagination"`
}

// NewActivityResponse converts an Activity model into a DTO.
func NewActivityResponse(model models.Activity, includeKey bool) ActivityResponse {
	response := ActivityResponse{
		ID:           model.ID,
		Title:        model.Title,
		Instructions: model.Instructions,
		ActivityType: model.ActivityType,
		AutoGraded:   model.AutoGraded(),
		CreatedBy:    model.CreatedBy,
		CreatedAt:    model.CreatedAt,
		UpdatedAt:    model.UpdatedAt,
	}

	if includeKey {
		if len(model.Content) > 0 {
			response.Content = json.RawMessage(model.Content)
		}
		if len(model.CorrectAnswers) > 0 {
			response.CorrectAnswers = json.RawMessage(model.CorrectAnswers)
		}
		response.Tolerance = model.Tolerance
	} else {
		response.Content = learnerContent(model.ActivityType, model.Content)
	}

	return response
}

// learnerContent drops the content fields that double as an answer key.
// Sorting items are kept so learners know what to rank, but in label order.
func learnerContent(activityType string, content []byte) json.RawMessage {
	if len(content) == 0 {
		return nil
	}

	var object map[string]json.RawMessage
	if err := json.Unmarshal(content, &object); err != nil {
		return nil
	}

	switch grading.ActivityType(activityType) {
	case grading.TableCompletion:
		delete(object, "answers")
	case grading.SortingRanking:
		if raw, ok := object["items"]; ok {
			var items []string
			if err := json.Unmarshal(raw, &items); err != nil {
				delete(object, "items")
				break
			}
			sort.Strings(items)
			ordered, err := json.Marshal(items)
			if err != nil {
				delete(object, "items")
				break
			}
			object["items"] = ordered
		}
	}

	if len(object) == 0 {
		return nil
	}
	out, err := json.Marshal(object)
	if err != nil {
		return nil
	}
	return out
}

// NewActivityResponseSlice converts activity models into DTOs.
func NewActivityResponseSlice(items []models.Activity, includeKey bool) []ActivityResponse {
	responses := make([]ActivityResponse, 0, len(items))
	for _, item := range items {
		responses = append(responses, NewActivityResponse(item, includeKey))
	}

	return responses
}
