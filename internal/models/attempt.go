package models

import "time"

// ActivityAttempt stores one learner submission and its score.
type ActivityAttempt struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	ActivityID  uint            `gorm:"not null;index" json:"activity_id"`
	UserID      uint            `gorm:"not null;index" json:"user_id"`
	Answer      JSONText        `json:"answer"`
	Score       int             `gorm:"not null;default:0" json:"score"`
	IsGraded    bool            `gorm:"not null;default:false" json:"is_graded"`
	Outcome     string          `gorm:"size:32" json:"outcome"`
	Feedback    string          `gorm:"type:text" json:"feedback"`
	ReviewedBy  *uint           `json:"reviewed_by"`
	ReviewedAt  *time.Time      `json:"reviewed_at"`
	SubmittedAt time.Time       `gorm:"not null;index" json:"submitted_at"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	Activity    Activity        `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"activity"`
	Reviews     []AttemptReview `gorm:"foreignKey:AttemptID" json:"reviews,omitempty"`
}

// AttemptReview records a manual score given by a reviewer.
type AttemptReview struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	AttemptID  uint      `gorm:"not null;index" json:"attempt_id"`
	Score      int       `gorm:"not null" json:"score"`
	Feedback   string    `gorm:"type:text" json:"feedback"`
	ReviewedBy uint      `gorm:"not null" json:"reviewed_by"`
	ReviewedAt time.Time `gorm:"not null" json:"reviewed_at"`
}

// Reviewed reports whether a person has scored the attempt.
func (a ActivityAttempt) Reviewed() bool {
	return a.ReviewedBy != nil
}

// PendingReview reports whether the attempt still awaits a reviewer.
func (a ActivityAttempt) PendingReview() bool {
	return !a.IsGraded && !a.Reviewed()
}
