package dto

import (
	"encoding/json"
	"time"

	"github.com/noah-isme/gema-grading-api/internal/models"
)

// AttemptSubmitRequest carries the learner's raw answer, shaped per activity type.
type AttemptSubmitRequest struct {
	Answer json.RawMessage `json:"answer" validate:"required"`
}

// AttemptReviewRequest is used by reviewers to score an attempt by hand.
type AttemptReviewRequest struct {
	Score    *int   `json:"score" validate:"required"`
	Feedback string `json:"feedback" validate:"omitempty,max=5000"`
}

// AttemptResponse is returned to API clients when viewing attempts.
type AttemptResponse struct {
	ID          uint                    `json:"id"`
	ActivityID  uint                    `json:"activity_id"`
	UserID      uint                    `json:"user_id"`
	Answer      json.RawMessage         `json:"answer"`
	Score       int                     `json:"score"`
	IsGraded    bool                    `json:"is_graded"`
	Outcome     string                  `json:"outcome"`
	Feedback    string                  `json:"feedback"`
	ReviewedBy  *uint                   `json:"reviewed_by"`
	ReviewedAt  *time.Time              `json:"reviewed_at"`
	SubmittedAt time.Time               `json:"submitted_at"`
	Reviews     []AttemptReviewResponse `json:"reviews,omitempty"`
}

// AttemptReviewResponse serializes review history entries.
type AttemptReviewResponse struct {
	Score      int       `json:"score"`
	Feedback   string    `json:"feedback"`
	ReviewedBy uint      `json:"reviewed_by"`
	ReviewedAt time.Time `json:"reviewed_at"`
}

// NewAttemptResponse converts an ActivityAttempt model into a DTO.
func NewAttemptResponse(model models.ActivityAttempt) AttemptResponse {
	response := AttemptResponse{
		ID:          model.ID,
		ActivityID:  model.ActivityID,
		UserID:      model.UserID,
		Answer:      json.RawMessage(model.Answer),
		Score:       model.Score,
		IsGraded:    model.IsGraded,
		Outcome:     model.Outcome,
		Feedback:    model.Feedback,
		ReviewedBy:  model.ReviewedBy,
		ReviewedAt:  model.ReviewedAt,
		SubmittedAt: model.SubmittedAt,
	}

	if len(response.Answer) == 0 {
		response.Answer = json.RawMessage("null")
	}

	if len(model.Reviews) > 0 {
		reviews := make([]AttemptReviewResponse, 0, len(model.Reviews))
		for _, review := range model.Reviews {
			reviews = append(reviews, AttemptReviewResponse{
				Score:      review.Score,
				Feedback:   review.Feedback,
				ReviewedBy: review.ReviewedBy,
				ReviewedAt: review.ReviewedAt,
			})
		}
		response.Reviews = reviews
	}

	return response
}

// NewAttemptResponseSlice converts attempt models into DTOs.
func NewAttemptResponseSlice(items []models.ActivityAttempt) []AttemptResponse {
	responses := make([]AttemptResponse, 0, len(items))
	for _, item := range items {
		responses = append(responses, NewAttemptResponse(item))
	}

	return responses
}

// ProgressSummary aggregates a learner's attempts across activities.
type ProgressSummary struct {
	ActivitiesAttempted int     `json:"activities_attempted"`
	TotalAttempts       int     `json:"total_attempts"`
	AverageBestScore    float64 `json:"average_best_score"`
	PendingReview       int     `json:"pending_review"`
}

// ActivityProgress summarizes a learner's attempts at one activity.
type ActivityProgress struct {
	ActivityID    uint      `json:"activity_id"`
	Title         string    `json:"title"`
	ActivityType  string    `json:"activity_type"`
	Attempts      int       `json:"attempts"`
	BestScore     *int      `json:"best_score"`
	LatestScore   *int      `json:"latest_score"`
	LatestAt      time.Time `json:"latest_at"`
	PendingReview bool      `json:"pending_review"`
}

// ProgressResponse is the learner progress payload.
type ProgressResponse struct {
	Summary     ProgressSummary    `json:"summary"`
	Activities  []ActivityProgress `json:"activities"`
	GeneratedAt time.Time          `json:"generated_at"`
}

// RegradeResponse reports the result of re-scoring an activity's attempts.
type RegradeResponse struct {
	ActivityID uint `json:"activity_id"`
	Total      int  `json:"total"`
	Changed    int  `json:"changed"`
}
