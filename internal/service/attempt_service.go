package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-grading-api/internal/dto"
	"github.com/noah-isme/gema-grading-api/internal/grading"
	"github.com/noah-isme/gema-grading-api/internal/models"
	"github.com/noah-isme/gema-grading-api/internal/observability"
	"github.com/noah-isme/gema-grading-api/internal/repository"
)

// AttemptService scores learner attempts and reports their progress.
type AttemptService interface {
	Submit(ctx context.Context, activityID, userID uint, payload dto.AttemptSubmitRequest) (dto.AttemptResponse, error)
	List(ctx context.Context, activityID, userID uint) ([]dto.AttemptResponse, error)
	Progress(ctx context.Context, userID uint) (dto.ProgressResponse, error)
}

type attemptService struct {
	activities repository.ActivityRepository
	attempts   repository.AttemptRepository
	validator  *validator.Validate
	publisher  AttemptPublisher
	cache      *ProgressCache
	tracer     trace.Tracer
	logger     zerolog.Logger
	now        func() time.Time
}

// NewAttemptService constructs the attempt submission service.
func NewAttemptService(activities repository.ActivityRepository, attempts repository.AttemptRepository, validate *validator.Validate, publisher AttemptPublisher, cache *ProgressCache, logger zerolog.Logger) AttemptService {
	return &attemptService{
		activities: activities,
		attempts:   attempts,
		validator:  validate,
		publisher:  publisher,
		cache:      cache,
		tracer:     otel.Tracer("github.com/noah-isme/gema-grading-api/internal/service/attempt"),
		logger:     logger.With().Str("component", "attempt_service").Logger(),
		now:        time.Now,
	}
}

func (s *attemptService) Submit(ctx context.Context, activityID, userID uint, payload dto.AttemptSubmitRequest) (dto.AttemptResponse, error) {
	ctx, span := s.tracer.Start(ctx, "attempts.submit", trace.WithAttributes(
		attribute.Int64("attempt.activity_id", int64(activityID)),
		attribute.Int64("attempt.user_id", int64(userID)),
	))
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return dto.AttemptResponse{}, err
	}

	activity, err := s.activities.GetByID(ctx, activityID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			span.SetStatus(codes.Error, "activity_not_found")
			return dto.AttemptResponse{}, ErrActivityNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "activity_lookup_failed")
		return dto.AttemptResponse{}, err
	}

	result := grading.Evaluate(activity.GradingView(), payload.Answer)
	span.SetAttributes(
		attribute.String("attempt.activity_type", activity.ActivityType),
		attribute.Int("attempt.score", result.Score),
		attribute.String("attempt.outcome", string(result.Outcome)),
	)

	attempt := models.ActivityAttempt{
		ActivityID:  activity.ID,
		UserID:      userID,
		Answer:      models.JSONText(compactJSON(payload.Answer)),
		Score:       result.Score,
		IsGraded:    result.AutoGraded,
		Outcome:     string(result.Outcome),
		SubmittedAt: s.now(),
	}

	if err := s.attempts.Create(ctx, &attempt); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "attempt_create_failed")
		return dto.AttemptResponse{}, err
	}

	observability.AttemptsGraded().WithLabelValues(activity.ActivityType, string(result.Outcome)).Inc()
	if result.AutoGraded {
		observability.AttemptScore().WithLabelValues(activity.ActivityType).Observe(float64(result.Score))
	}

	logEvent := s.logger.Info()
	if result.Outcome == grading.OutcomeMalformedKey || result.Outcome == grading.OutcomeUnknownType {
		logEvent = s.logger.Warn()
	}
	logEvent.
		Uint("attempt_id", attempt.ID).
		Uint("activity_id", activity.ID).
		Str("activity_type", activity.ActivityType).
		Int("score", result.Score).
		Str("outcome", string(result.Outcome)).
		Msg("attempt graded")

	s.cache.Invalidate(ctx, userID)
	publishGraded(ctx, s.publisher, s.logger, gradedEvent(attempt, activity.ActivityType, "submission"))

	return dto.NewAttemptResponse(attempt), nil
}

func (s *attemptService) List(ctx context.Context, activityID, userID uint) ([]dto.AttemptResponse, error) {
	if _, err := s.activities.GetByID(ctx, activityID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrActivityNotFound
		}
		return nil, err
	}

	attempts, err := s.attempts.List(ctx, repository.AttemptFilter{ActivityID: &activityID, UserID: &userID})
	if err != nil {
		return nil, err
	}

	return dto.NewAttemptResponseSlice(attempts), nil
}

func (s *attemptService) Progress(ctx context.Context, userID uint) (dto.ProgressResponse, error) {
	if cached, ok := s.cache.Get(ctx, userID); ok {
		s.logger.Debug().Uint("user_id", userID).Msg("progress cache hit")
		return cached, nil
	}

	attempts, err := s.attempts.List(ctx, repository.AttemptFilter{UserID: &userID})
	if err != nil {
		return dto.ProgressResponse{}, err
	}

	ids := make([]uint, 0)
	seen := map[uint]struct{}{}
	for _, attempt := range attempts {
		if _, ok := seen[attempt.ActivityID]; !ok {
			seen[attempt.ActivityID] = struct{}{}
			ids = append(ids, attempt.ActivityID)
		}
	}

	activities, err := s.activities.GetByIDs(ctx, ids)
	if err != nil {
		return dto.ProgressResponse{}, err
	}

	response := buildProgress(activities, attempts, s.now())
	s.cache.Set(ctx, userID, response)

	return response, nil
}

// buildProgress expects attempts ordered newest first.
func buildProgress(activities []models.Activity, attempts []models.ActivityAttempt, now time.Time) dto.ProgressResponse {
	byID := make(map[uint]models.Activity, len(activities))
	for _, activity := range activities {
		byID[activity.ID] = activity
	}

	index := map[uint]int{}
	progress := make([]dto.ActivityProgress, 0)
	summary := dto.ProgressSummary{}

	for _, attempt := range attempts {
		summary.TotalAttempts++
		if attempt.PendingReview() {
			summary.PendingReview++
		}

		position, ok := index[attempt.ActivityID]
		if !ok {
			activity := byID[attempt.ActivityID]
			entry := dto.ActivityProgress{
				ActivityID:   attempt.ActivityID,
				Title:        activity.Title,
				ActivityType: activity.ActivityType,
				LatestAt:     attempt.SubmittedAt,
			}
			if attempt.IsGraded {
				latest := attempt.Score
				entry.LatestScore = &latest
			}
			progress = append(progress, entry)
			position = len(progress) - 1
			index[attempt.ActivityID] = position
		}

		entry := &progress[position]
		entry.Attempts++
		if attempt.PendingReview() {
			entry.PendingReview = true
		}
		if attempt.IsGraded && (entry.BestScore == nil || attempt.Score > *entry.BestScore) {
			best := attempt.Score
			entry.BestScore = &best
		}
	}

	sort.SliceStable(progress, func(i, j int) bool {
		return progress[i].LatestAt.After(progress[j].LatestAt)
	})

	var bestTotal, scored int
	for _, entry := range progress {
		if entry.BestScore != nil {
			bestTotal += *entry.BestScore
			scored++
		}
	}
	summary.ActivitiesAttempted = len(progress)
	if scored > 0 {
		summary.AverageBestScore = float64(bestTotal) / float64(scored)
	}

	return dto.ProgressResponse{
		Summary:     summary,
		Activities:  progress,
		GeneratedAt: now,
	}
}

func gradedEvent(attempt models.ActivityAttempt, activityType, trigger string) AttemptGradedEvent {
	return AttemptGradedEvent{
		AttemptID:    attempt.ID,
		ActivityID:   attempt.ActivityID,
		UserID:       attempt.UserID,
		ActivityType: activityType,
		Score:        attempt.Score,
		IsGraded:     attempt.IsGraded,
		Outcome:      attempt.Outcome,
		Trigger:      trigger,
	}
}
