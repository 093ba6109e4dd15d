package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestAttemptPublisherFansOutToRedis(t *testing.T) {
	mini, err := miniredis.Run()
	require.NoError(t, err)
	defer mini.Close()

	client := redis.NewClient(&redis.Options{Addr: mini.Addr()})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	subscription := client.Subscribe(ctx, "gema:grading:attempts")
	defer subscription.Close()
	_, err = subscription.Receive(ctx)
	require.NoError(t, err)

	publisher := NewAttemptPublisher(client, "gema:grading", nil, zerolog.Nop())
	require.NoError(t, publisher.PublishGraded(ctx, AttemptGradedEvent{AttemptID: 12, ActivityID: 3, UserID: 4, Score: 100, IsGraded: true}))

	message, err := subscription.ReceiveMessage(ctx)
	require.NoError(t, err)

	var event AttemptGradedEvent
	require.NoError(t, json.Unmarshal([]byte(message.Payload), &event))
	require.Equal(t, EventAttemptGraded, event.Type)
	require.Equal(t, uint(12), event.AttemptID)
	require.NotEmpty(t, event.ID)
	require.NotEmpty(t, event.Source)
	require.False(t, event.OccurredAt.IsZero())
}

func TestAttemptPublisherWithoutBrokersIsNoop(t *testing.T) {
	publisher := NewAttemptPublisher(nil, "", nil, zerolog.Nop())
	require.NoError(t, publisher.PublishGraded(context.Background(), AttemptGradedEvent{AttemptID: 1}))
}

func TestProgressCacheRoundTripAndInvalidate(t *testing.T) {
	mini, err := miniredis.Run()
	require.NoError(t, err)
	defer mini.Close()

	cache := NewProgressCache(redis.NewClient(&redis.Options{Addr: mini.Addr()}), time.Minute, zerolog.Nop())
	ctx := context.Background()

	_, ok := cache.Get(ctx, 5)
	require.False(t, ok)

	cache.Set(ctx, 5, progressFixture())
	cached, ok := cache.Get(ctx, 5)
	require.True(t, ok)
	require.Equal(t, 3, cached.Summary.TotalAttempts)

	mini.FastForward(2 * time.Minute)
	_, ok = cache.Get(ctx, 5)
	require.False(t, ok)

	cache.Set(ctx, 5, progressFixture())
	cache.Invalidate(ctx, 5, 6)
	_, ok = cache.Get(ctx, 5)
	require.False(t, ok)

	var disabled *ProgressCache
	disabled.Set(ctx, 5, progressFixture())
	_, ok = disabled.Get(ctx, 5)
	require.False(t, ok)
}
