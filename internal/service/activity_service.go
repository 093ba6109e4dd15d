package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-grading-api/internal/dto"
	"github.com/noah-isme/gema-grading-api/internal/grading"
	"github.com/noah-isme/gema-grading-api/internal/models"
	"github.com/noah-isme/gema-grading-api/internal/repository"
)

var (
	// ErrActivityNotFound indicates the requested activity does not exist.
	ErrActivityNotFound = errors.New("activity not found")
	// ErrInvalidActivity indicates an authoring payload that passed tag validation but is unusable.
	ErrInvalidActivity = errors.New("invalid activity")
)

// ActivityService manages authored activities and their answer keys.
type ActivityService interface {
	List(ctx context.Context, req dto.ActivityListRequest, actor Actor) (dto.ActivityListResponse, error)
	Get(ctx context.Context, id uint, actor Actor) (dto.ActivityResponse, error)
	Create(ctx context.Context, payload dto.ActivityRequest, actor Actor) (dto.ActivityResponse, error)
	Update(ctx context.Context, id uint, payload dto.ActivityRequest, actor Actor) (dto.ActivityResponse, error)
	Delete(ctx context.Context, id uint, actor Actor) error
}

type activityService struct {
	repo          repository.ActivityRepository
	validator     *validator.Validate
	keys          *AnswerKeyValidator
	audit         AuditRecorder
	titlePolicy   *bluemonday.Policy
	contentPolicy *bluemonday.Policy
	tracer        trace.Tracer
	logger        zerolog.Logger
}

// NewActivityService constructs the activity authoring service.
func NewActivityService(repo repository.ActivityRepository, validate *validator.Validate, keys *AnswerKeyValidator, audit AuditRecorder, logger zerolog.Logger) ActivityService {
	if keys == nil {
		keys = MustAnswerKeyValidator()
	}

	return &activityService{
		repo:          repo,
		validator:     validate,
		keys:          keys,
		audit:         audit,
		titlePolicy:   bluemonday.StrictPolicy(),
		contentPolicy: bluemonday.UGCPolicy(),
		tracer:        otel.Tracer("github.com/noah-isme/gema-grading-api/internal/service/activity"),
		logger:        logger.With().Str("component", "activity_service").Logger(),
	}
}

func (s *activityService) List(ctx context.Context, req dto.ActivityListRequest, actor Actor) (dto.ActivityListResponse, error) {
	filter := repository.ActivityFilter{
		ActivityType: strings.ToUpper(strings.TrimSpace(req.ActivityType)),
		Search:       strings.ToLower(strings.TrimSpace(req.Search)),
		Page:         req.Page,
		PageSize:     req.PageSize,
	}

	activities, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return dto.ActivityListResponse{}, err
	}

	return dto.ActivityListResponse{
		Items:      dto.NewActivityResponseSlice(activities, actor.IsAuthor()),
		Pagination: dto.NewPaginationMeta(req.Page, req.PageSize, total),
	}, nil
}

func (s *activityService) Get(ctx context.Context, id uint, actor Actor) (dto.ActivityResponse, error) {
	activity, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ActivityResponse{}, ErrActivityNotFound
		}
		return dto.ActivityResponse{}, err
	}

	return dto.NewActivityResponse(activity, actor.IsAuthor()), nil
}

func (s *activityService) Create(ctx context.Context, payload dto.ActivityRequest, actor Actor) (dto.ActivityResponse, error) {
	ctx, span := s.tracer.Start(ctx, "activities.create", trace.WithAttributes(
		attribute.String("activity.type", payload.ActivityType),
		attribute.Int64("activity.actor_id", int64(actor.ID)),
	))
	defer span.End()

	activity := models.Activity{CreatedBy: actor.ID}
	if err := s.apply(&activity, payload); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return dto.ActivityResponse{}, err
	}

	if err := s.repo.Create(ctx, &activity); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "activity_create_failed")
		return dto.ActivityResponse{}, err
	}

	span.SetAttributes(attribute.Int64("activity.id", int64(activity.ID)))
	recordAudit(ctx, s.audit, s.logger, AuditEntry{
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     "activity.created",
		EntityType: "activity",
		EntityID:   &activity.ID,
		Metadata: map[string]interface{}{
			"title":         activity.Title,
			"activity_type": activity.ActivityType,
		},
	})

	return dto.NewActivityResponse(activity, true), nil
}

func (s *activityService) Update(ctx context.Context, id uint, payload dto.ActivityRequest, actor Actor) (dto.ActivityResponse, error) {
	ctx, span := s.tracer.Start(ctx, "activities.update", trace.WithAttributes(
		attribute.Int64("activity.id", int64(id)),
		attribute.Int64("activity.actor_id", int64(actor.ID)),
	))
	defer span.End()

	activity, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			span.SetStatus(codes.Error, "activity_not_found")
			return dto.ActivityResponse{}, ErrActivityNotFound
		}
		span.RecordError(err)
		return dto.ActivityResponse{}, err
	}

	if requested, ok := grading.ParseActivityType(payload.ActivityType); ok && string(requested) != activity.ActivityType {
		err := fmt.Errorf("%w: activity type %s cannot be changed to %s", ErrInvalidActivity, activity.ActivityType, requested)
		span.RecordError(err)
		span.SetStatus(codes.Error, "activity_type_changed")
		return dto.ActivityResponse{}, err
	}

	previous := activity
	if err := s.apply(&activity, payload); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return dto.ActivityResponse{}, err
	}

	if err := s.repo.Update(ctx, &activity); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "activity_update_failed")
		return dto.ActivityResponse{}, err
	}

	keyChanged := gradingInputsChanged(previous, activity)
	span.SetAttributes(attribute.Bool("activity.key_changed", keyChanged))
	if keyChanged {
		s.logger.Info().Uint("activity_id", activity.ID).Msg("answer key changed; existing attempts keep their scores until regraded")
	}

	recordAudit(ctx, s.audit, s.logger, AuditEntry{
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     "activity.updated",
		EntityType: "activity",
		EntityID:   &activity.ID,
		Metadata: map[string]interface{}{
			"title":         activity.Title,
			"activity_type": activity.ActivityType,
			"key_changed":   keyChanged,
		},
	})

	return dto.NewActivityResponse(activity, true), nil
}

func (s *activityService) Delete(ctx context.Context, id uint, actor Actor) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrActivityNotFound
		}
		return err
	}

	recordAudit(ctx, s.audit, s.logger, AuditEntry{
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     "activity.deleted",
		EntityType: "activity",
		EntityID:   &id,
	})

	return nil
}

// apply validates payload and copies it onto activity. The type tag is
// accepted in any letter case.
func (s *activityService) apply(activity *models.Activity, payload dto.ActivityRequest) error {
	payload.ActivityType = strings.ToUpper(strings.TrimSpace(payload.ActivityType))
	if err := s.validator.Struct(payload); err != nil {
		return err
	}

	title := strings.TrimSpace(s.titlePolicy.Sanitize(payload.Title))
	if title == "" {
		return fmt.Errorf("%w: title is empty after sanitization", ErrInvalidActivity)
	}

	activityType, ok := grading.ParseActivityType(payload.ActivityType)
	if !ok {
		return fmt.Errorf("%w: unknown activity type %q", ErrInvalidActivity, payload.ActivityType)
	}

	if !isEmptyJSON(payload.Content) && !isJSONObject(payload.Content) {
		return fmt.Errorf("%w: content must be a JSON object", ErrInvalidActivity)
	}

	if err := s.keys.Validate(activityType, payload.CorrectAnswers, payload.Content); err != nil {
		return err
	}

	activity.Title = title
	activity.Instructions = strings.TrimSpace(s.contentPolicy.Sanitize(payload.Instructions))
	activity.ActivityType = string(activityType)
	activity.CorrectAnswers = jsonColumn(payload.CorrectAnswers)
	activity.Content = jsonColumn(payload.Content)
	activity.Tolerance = nil
	if activityType == grading.NumericEntry && payload.Tolerance != nil {
		tolerance := *payload.Tolerance
		activity.Tolerance = &tolerance
	}

	return nil
}

func gradingInputsChanged(before, after models.Activity) bool {
	if before.ActivityType != after.ActivityType {
		return true
	}
	if !bytes.Equal(compactJSON(before.CorrectAnswers), compactJSON(after.CorrectAnswers)) {
		return true
	}
	if !bytes.Equal(compactJSON(before.Content), compactJSON(after.Content)) {
		return true
	}
	switch {
	case before.Tolerance == nil && after.Tolerance == nil:
		return false
	case before.Tolerance == nil || after.Tolerance == nil:
		return true
	default:
		return *before.Tolerance != *after.Tolerance
	}
}

func jsonColumn(raw json.RawMessage) models.JSONText {
	if isEmptyJSON(raw) {
		return nil
	}
	return models.JSONText(compactJSON(raw))
}

func compactJSON(raw []byte) []byte {
	if len(raw) == 0 {
		return nil
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return raw
	}
	return buf.Bytes()
}

func isJSONObject(raw json.RawMessage) bool {
	var object map[string]json.RawMessage
	return json.Unmarshal(raw, &object) == nil
}
