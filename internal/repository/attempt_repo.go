package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/gema-grading-api/internal/models"
)

// AttemptFilter allows narrowing attempt queries.
type AttemptFilter struct {
	ActivityID *uint
	UserID     *uint
	Limit      int
}

// AttemptRepository defines data operations for activity attempts.
type AttemptRepository interface {
	List(ctx context.Context, filter AttemptFilter) ([]models.ActivityAttempt, error)
	GetByID(ctx context.Context, id uint) (models.ActivityAttempt, error)
	Create(ctx context.Context, attempt *models.ActivityAttempt) error
	Update(ctx context.Context, attempt *models.ActivityAttempt) error
	ListRegradable(ctx context.Context, activityID uint) ([]models.ActivityAttempt, error)
	UpdateScores(ctx context.Context, attempts []models.ActivityAttempt) ([]models.ActivityAttempt, error)
	CreateReview(ctx context.Context, review *models.AttemptReview) error
}

type attemptRepository struct {
	db *gorm.DB
}

// NewAttemptRepository instantiates the repository.
func NewAttemptRepository(db *gorm.DB) AttemptRepository {
	return &attemptRepository{db: db}
}

func (r *attemptRepository) List(ctx context.Context, filter AttemptFilter) ([]models.ActivityAttempt, error) {
	query := r.db.WithContext(ctx).Model(&models.ActivityAttempt{})

	if filter.ActivityID != nil {
		query = query.Where("activity_id = ?", *filter.ActivityID)
	}

	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}

	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var attempts []models.ActivityAttempt
	if err := query.Order("submitted_at DESC").Order("id DESC").Find(&attempts).Error; err != nil {
		return nil, err
	}

	return attempts, nil
}

func (r *attemptRepository) GetByID(ctx context.Context, id uint) (models.ActivityAttempt, error) {
	var attempt models.ActivityAttempt
	if err := r.db.WithContext(ctx).
		Preload("Activity").
		Preload("Reviews", func(db *gorm.DB) *gorm.DB { return db.Order("reviewed_at DESC") }).
		First(&attempt, id).Error; err != nil {
		return models.ActivityAttempt{}, err
	}

	return attempt, nil
}

func (r *attemptRepository) Create(ctx context.Context, attempt *models.ActivityAttempt) error {
	return r.db.WithContext(ctx).Omit("Activity", "Reviews").Create(attempt).Error
}

func (r *attemptRepository) Update(ctx context.Context, attempt *models.ActivityAttempt) error {
	return r.db.WithContext(ctx).Omit("Activity", "Reviews").Save(attempt).Error
}

// ListRegradable returns attempts no reviewer has touched.
func (r *attemptRepository) ListRegradable(ctx context.Context, activityID uint) ([]models.ActivityAttempt, error) {
	var attempts []models.ActivityAttempt
	if err := r.db.WithContext(ctx).
		Where("activity_id = ?", activityID).
		Where("reviewed_by IS NULL").
		Order("id ASC").
		Find(&attempts).Error; err != nil {
		return nil, err
	}

	return attempts, nil
}

// UpdateScores writes regraded scores and returns the attempts it wrote.
// Attempts reviewed since they were listed are skipped.
func (r *attemptRepository) UpdateScores(ctx context.Context, attempts []models.ActivityAttempt) ([]models.ActivityAttempt, error) {
	if len(attempts) == 0 {
		return nil, nil
	}

	written := make([]models.ActivityAttempt, 0, len(attempts))
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, attempt := range attempts {
			result := tx.Model(&models.ActivityAttempt{}).
				Where("id = ?", attempt.ID).
				Where("reviewed_by IS NULL").
				Updates(map[string]interface{}{
					"score":     attempt.Score,
					"is_graded": attempt.IsGraded,
					"outcome":   attempt.Outcome,
				})
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected > 0 {
				written = append(written, attempt)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return written, nil
}

func (r *attemptRepository) CreateReview(ctx context.Context, review *models.AttemptReview) error {
	return r.db.WithContext(ctx).Create(review).Error
}
