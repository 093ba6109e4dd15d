package models

import (
	"encoding/json"
	"time"

	"github.com/noah-isme/gema-grading-api/internal/grading"
)

// Activity is an authored learning exercise with its answer key.
type Activity struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Title          string    `gorm:"size:255;not null" json:"title"`
	Instructions   string    `gorm:"type:text" json:"instructions"`
	ActivityType   string    `gorm:"size:32;not null;index" json:"activity_type"`
	CorrectAnswers JSONText  `json:"correct_answers"`
	Tolerance      *float64  `json:"tolerance"`
	Content        JSONText  `json:"content"`
	CreatedBy      uint      `json:"created_by"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// GradingView returns the subset of the activity the grading engine consumes.
func (a Activity) GradingView() grading.Activity {
	return grading.Activity{
		Type:           grading.ActivityType(a.ActivityType),
		CorrectAnswers: json.RawMessage(a.CorrectAnswers),
		Tolerance:      a.Tolerance,
		Content:        json.RawMessage(a.Content),
	}
}

// AutoGraded reports whether attempts at this activity are scored automatically.
func (a Activity) AutoGraded() bool {
	return grading.ActivityType(a.ActivityType).AutoGraded()
}
