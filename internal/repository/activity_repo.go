package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/gema-grading-api/internal/models"
)

// ActivityFilter narrows activity listings.
type ActivityFilter struct {
	ActivityType string
	Search       string
	Page         int
	PageSize     int
}

// ActivityRepository defines data operations for activities.
type ActivityRepository interface {
	List(ctx context.Context, filter ActivityFilter) ([]models.Activity, int64, error)
	GetByID(ctx context.Context, id uint) (models.Activity, error)
	GetByIDs(ctx context.Context, ids []uint) ([]models.Activity, error)
	Create(ctx context.Context, activity *models.Activity) error
	Update(ctx context.Context, activity *models.Activity) error
	Delete(ctx context.Context, id uint) error
}

type activityRepository struct {
	db *gorm.DB
}

// NewActivityRepository instantiates the repository.
func NewActivityRepository(db *gorm.DB) ActivityRepository {
	return &activityRepository{db: db}
}

func (r *activityRepository) List(ctx context.Context, filter ActivityFilter) ([]models.Activity, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Activity{})

	if filter.ActivityType != "" {
		query = query.Where("activity_type = ?", filter.ActivityType)
	}

	if filter.Search != "" {
		query = query.Where("LOWER(title) LIKE ?", "%"+filter.Search+"%")
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.PageSize > 0 {
		page := filter.Page
		if page <= 0 {
			page = 1
		}
		query = query.Offset((page - 1) * filter.PageSize).Limit(filter.PageSize)
	}

	var activities []models.Activity
	if err := query.Order("created_at DESC").Order("id DESC").Find(&activities).Error; err != nil {
		return nil, 0, err
	}

	return activities, total, nil
}

func (r *activityRepository) GetByID(ctx context.Context, id uint) (models.Activity, error) {
	var activity models.Activity
	if err := r.db.WithContext(ctx).First(&activity, id).Error; err != nil {
		return models.Activity{}, err
	}

	return activity, nil
}

func (r *activityRepository) GetByIDs(ctx context.Context, ids []uint) ([]models.Activity, error) {
	if len(ids) == 0 {
		return []models.Activity{}, nil
	}

	var activities []models.Activity
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&activities).Error; err != nil {
		return nil, err
	}

	return activities, nil
}

func (r *activityRepository) Create(ctx context.Context, activity *models.Activity) error {
	return r.db.WithContext(ctx).Create(activity).Error
}

func (r *activityRepository) Update(ctx context.Context, activity *models.Activity) error {
	return r.db.WithContext(ctx).Save(activity).Error
}

func (r *activityRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		attempts := tx.Model(&models.ActivityAttempt{}).Select("id").Where("activity_id = ?", id)
		if err := tx.Where("attempt_id IN (?)", attempts).Delete(&models.AttemptReview{}).Error; err != nil {
			return err
		}
		if err := tx.Where("activity_id = ?", id).Delete(&models.ActivityAttempt{}).Error; err != nil {
			return err
		}

		result := tx.Delete(&models.Activity{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
