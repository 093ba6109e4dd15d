package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-grading-api/internal/dto"
	"github.com/noah-isme/gema-grading-api/internal/models"
	"github.com/noah-isme/gema-grading-api/internal/repository"
)

// ErrAttemptNotFound indicates the attempt was not located.
var ErrAttemptNotFound = errors.New("attempt not found")

// ErrScoreOutOfRange indicates a manual score outside 0..100.
var ErrScoreOutOfRange = errors.New("score must be between 0 and 100")

// ReviewService lets reviewers score attempts by hand.
type ReviewService interface {
	Review(ctx context.Context, attemptID uint, payload dto.AttemptReviewRequest, actor Actor) (dto.AttemptResponse, error)
}

type reviewService struct {
	repo      repository.AttemptRepository
	validator *validator.Validate
	audit     AuditRecorder
	publisher AttemptPublisher
	cache     *ProgressCache
	logger    zerolog.Logger
	now       func() time.Time
}

// NewReviewService constructs the manual review service.
func NewReviewService(repo repository.AttemptRepository, validate *validator.Validate, audit AuditRecorder, publisher AttemptPublisher, cache *ProgressCache, logger zerolog.Logger) ReviewService {
	return &reviewService{
		repo:      repo,
		validator: validate,
		audit:     audit,
		publisher: publisher,
		cache:     cache,
		logger:    logger.With().Str("component", "review_service").Logger(),
		now:       time.Now,
	}
}

func (s *reviewService) Review(ctx context.Context, attemptID uint, payload dto.AttemptReviewRequest, actor Actor) (dto.AttemptResponse, error) {
	tracer := otel.Tracer("github.com/noah-isme/gema-grading-api/internal/service/review")
	ctx, span := tracer.Start(ctx, "attempts.review")
	span.SetAttributes(
		attribute.Int64("review.attempt_id", int64(attemptID)),
		attribute.Int64("review.actor_id", int64(actor.ID)),
	)
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return dto.AttemptResponse{}, err
	}

	score := *payload.Score
	if score < 0 || score > 100 {
		span.RecordError(ErrScoreOutOfRange)
		span.SetStatus(codes.Error, "score_out_of_range")
		return dto.AttemptResponse{}, ErrScoreOutOfRange
	}

	attempt, err := s.repo.GetByID(ctx, attemptID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			span.SetStatus(codes.Error, "attempt_not_found")
			return dto.AttemptResponse{}, ErrAttemptNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "attempt_lookup_failed")
		return dto.AttemptResponse{}, err
	}

	feedback := strings.TrimSpace(payload.Feedback)
	unchanged := attempt.Reviewed() && attempt.Score == score && strings.TrimSpace(attempt.Feedback) == feedback
	if unchanged && *attempt.ReviewedBy == actor.ID {
		span.SetAttributes(attribute.Bool("review.idempotent", true))
		return dto.NewAttemptResponse(attempt), nil
	}

	reviewedAt := s.now()
	reviewer := actor.ID
	attempt.Score = score
	attempt.Feedback = feedback
	attempt.IsGraded = true
	attempt.ReviewedBy = &reviewer
	attempt.ReviewedAt = &reviewedAt

	if err := s.repo.Update(ctx, &attempt); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "attempt_update_failed")
		return dto.AttemptResponse{}, err
	}

	review := models.AttemptReview{
		AttemptID:  attempt.ID,
		Score:      score,
		Feedback:   feedback,
		ReviewedBy: actor.ID,
		ReviewedAt: reviewedAt,
	}
	if err := s.repo.CreateReview(ctx, &review); err != nil {
		s.logger.Warn().Err(err).Uint("attempt_id", attempt.ID).Msg("failed to persist review history")
		span.RecordError(err)
	} else {
		attempt.Reviews = append([]models.AttemptReview{review}, attempt.Reviews...)
	}

	recordAudit(ctx, s.audit, s.logger, AuditEntry{
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     "attempt.reviewed",
		EntityType: "attempt",
		EntityID:   &attempt.ID,
		Metadata: map[string]interface{}{
			"activity_id": attempt.ActivityID,
			"user_id":     attempt.UserID,
			"score":       score,
		},
	})

	s.cache.Invalidate(ctx, attempt.UserID)
	publishGraded(ctx, s.publisher, s.logger, gradedEvent(attempt, attempt.Activity.ActivityType, "review"))

	span.SetAttributes(attribute.Int("review.score", score))

	return dto.NewAttemptResponse(attempt), nil
}
