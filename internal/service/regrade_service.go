package service

import (
	"context"
	"errors"
	"fmt"

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

// RegradeService re-scores stored attempts after an answer key changes.
type RegradeService interface {
	Regrade(ctx context.Context, activityID uint, actor Actor) (dto.RegradeResponse, error)
}

type regradeService struct {
	activities repository.ActivityRepository
	attempts   repository.AttemptRepository
	engine     *grading.Engine
	audit      AuditRecorder
	publisher  AttemptPublisher
	cache      *ProgressCache
	tracer     trace.Tracer
	logger     zerolog.Logger
}

// NewRegradeService constructs the batch regrade service.
func NewRegradeService(activities repository.ActivityRepository, attempts repository.AttemptRepository, engine *grading.Engine, audit AuditRecorder, publisher AttemptPublisher, cache *ProgressCache, logger zerolog.Logger) RegradeService {
	if engine == nil {
		engine = grading.NewEngine()
	}

	return &regradeService{
		activities: activities,
		attempts:   attempts,
		engine:     engine,
		audit:      audit,
		publisher:  publisher,
		cache:      cache,
		tracer:     otel.Tracer("github.com/noah-isme/gema-grading-api/internal/service/regrade"),
		logger:     logger.With().Str("component", "regrade_service").Logger(),
	}
}

func (s *regradeService) Regrade(ctx context.Context, activityID uint, actor Actor) (dto.RegradeResponse, error) {
	ctx, span := s.tracer.Start(ctx, "attempts.regrade", trace.WithAttributes(
		attribute.Int64("regrade.activity_id", int64(activityID)),
		attribute.Int64("regrade.actor_id", int64(actor.ID)),
	))
	defer span.End()

	activity, err := s.activities.GetByID(ctx, activityID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			span.SetStatus(codes.Error, "activity_not_found")
			return dto.RegradeResponse{}, ErrActivityNotFound
		}
		span.RecordError(err)
		return dto.RegradeResponse{}, err
	}

	attempts, err := s.attempts.ListRegradable(ctx, activityID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "attempt_lookup_failed")
		return dto.RegradeResponse{}, err
	}

	view := activity.GradingView()
	jobs := make([]grading.Job, 0, len(attempts))
	for _, attempt := range attempts {
		jobs = append(jobs, grading.Job{Activity: view, Answer: []byte(attempt.Answer)})
	}

	results, err := s.engine.GradeBatch(ctx, jobs)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "regrade_cancelled")
		return dto.RegradeResponse{}, fmt.Errorf("regrade activity %d: %w", activityID, err)
	}

	rescored := make([]models.ActivityAttempt, 0)
	for i, result := range results {
		attempt := attempts[i]
		if attempt.Score == result.Score && attempt.IsGraded == result.AutoGraded && attempt.Outcome == string(result.Outcome) {
			continue
		}
		attempt.Score = result.Score
		attempt.IsGraded = result.AutoGraded
		attempt.Outcome = string(result.Outcome)
		rescored = append(rescored, attempt)
	}

	changed, err := s.attempts.UpdateScores(ctx, rescored)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "attempt_update_failed")
		return dto.RegradeResponse{}, err
	}

	users := make([]uint, 0)
	seen := map[uint]struct{}{}
	for _, attempt := range changed {
		if _, ok := seen[attempt.UserID]; !ok {
			seen[attempt.UserID] = struct{}{}
			users = append(users, attempt.UserID)
		}
		publishGraded(ctx, s.publisher, s.logger, gradedEvent(attempt, activity.ActivityType, "regrade"))
	}
	s.cache.Invalidate(ctx, users...)

	observability.RegradeChanged().WithLabelValues(activity.ActivityType).Add(float64(len(changed)))
	span.SetAttributes(
		attribute.Int("regrade.total", len(attempts)),
		attribute.Int("regrade.changed", len(changed)),
	)

	recordAudit(ctx, s.audit, s.logger, AuditEntry{
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     "activity.regraded",
		EntityType: "activity",
		EntityID:   &activity.ID,
		Metadata: map[string]interface{}{
			"total":   len(attempts),
			"changed": len(changed),
		},
	})

	s.logger.Info().
		Uint("activity_id", activity.ID).
		Int("total", len(attempts)).
		Int("changed", len(changed)).
		Msg("activity regraded")

	return dto.RegradeResponse{ActivityID: activity.ID, Total: len(attempts), Changed: len(changed)}, nil
}
