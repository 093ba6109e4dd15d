package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-grading-api/internal/observability"
)

// EventAttemptGraded is emitted after an attempt is scored or rescored.
const EventAttemptGraded = "attempt.graded"

// AttemptGradedEvent is the broker payload describing a scored attempt.
type AttemptGradedEvent struct {
	ID           string    `json:"id"`
	Type         string    `json:"type"`
	Source       string    `json:"source"`
	AttemptID    uint      `json:"attempt_id"`
	ActivityID   uint      `json:"activity_id"`
	UserID       uint      `json:"user_id"`
	ActivityType string    `json:"activity_type"`
	Score        int       `json:"score"`
	IsGraded     bool      `json:"is_graded"`
	Outcome      string    `json:"outcome"`
	Trigger      string    `json:"trigger"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// AttemptPublisher fans graded attempt events out to message brokers.
type AttemptPublisher interface {
	PublishGraded(ctx context.Context, event AttemptGradedEvent) error
}

type brokerPublisher struct {
	redis        *redis.Client
	redisChannel string
	nats         *nats.Conn
	natsSubject  string
	nodeID       string
	logger       zerolog.Logger
	now          func() time.Time
}

// NewAttemptPublisher publishes to redis pub/sub and NATS when either is configured.
func NewAttemptPublisher(redisClient *redis.Client, channelBase string, natsConn *nats.Conn, logger zerolog.Logger) AttemptPublisher {
	channel := ""
	subject := ""
	if channelBase != "" {
		channel = channelBase + ":attempts"
		subject = strings.ReplaceAll(channelBase, ":", ".") + ".attempts.graded"
	}

	return &brokerPublisher{
		redis:        redisClient,
		redisChannel: channel,
		nats:         natsConn,
		natsSubject:  subject,
		nodeID:       uuid.NewString(),
		logger:       logger.With().Str("component", "attempt_publisher").Logger(),
		now:          time.Now,
	}
}

func (p *brokerPublisher) PublishGraded(ctx context.Context, event AttemptGradedEvent) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	event.Type = EventAttemptGraded
	event.Source = p.nodeID
	if event.OccurredAt.IsZero() {
		event.OccurredAt = p.now().UTC()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	var errs []error
	if p.redis != nil && p.redisChannel != "" {
		if err := p.redis.Publish(ctx, p.redisChannel, payload).Err(); err != nil {
			observability.EventPublishFailures().WithLabelValues("redis").Inc()
			errs = append(errs, err)
		}
	}

	if p.nats != nil && p.natsSubject != "" {
		if err := p.nats.Publish(p.natsSubject, payload); err != nil {
			observability.EventPublishFailures().WithLabelValues("nats").Inc()
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// publishGraded sends the event and logs delivery failures without surfacing them.
func publishGraded(ctx context.Context, publisher AttemptPublisher, logger zerolog.Logger, event AttemptGradedEvent) {
	if publisher == nil {
		return
	}
	if err := publisher.PublishGraded(ctx, event); err != nil {
		logger.Warn().Err(err).Uint("attempt_id", event.AttemptID).Msg("failed to publish attempt event")
	}
}
