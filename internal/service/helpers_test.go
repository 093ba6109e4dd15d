package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-grading-api/internal/dto"
	"github.com/noah-isme/gema-grading-api/internal/models"
)

func setupServiceDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.ReplaceAll(t.Name(), "/", "_")
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models.AllModels()...))
	return db
}

func newTestValidator() *validator.Validate {
	return validator.New(validator.WithRequiredStructEnabled())
}

func createActivity(t *testing.T, db *gorm.DB, activityType string, key interface{}, tolerance *float64) models.Activity {
	t.Helper()
	activity := models.Activity{
		Title:        "Activity " + strings.ToLower(activityType),
		ActivityType: activityType,
		Tolerance:    tolerance,
	}
	if key != nil {
		encoded, err := json.Marshal(key)
		require.NoError(t, err)
		activity.CorrectAnswers = models.JSONText(encoded)
	}
	require.NoError(t, db.Create(&activity).Error)
	return activity
}

func rawJSON(t *testing.T, value interface{}) json.RawMessage {
	t.Helper()
	encoded, err := json.Marshal(value)
	require.NoError(t, err)
	return encoded
}

type stubAuditRecorder struct {
	mu      sync.Mutex
	entries []AuditEntry
}

func (s *stubAuditRecorder) Record(ctx context.Context, entry AuditEntry) (dto.AuditLogResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	return dto.AuditLogResponse{Action: entry.Action}, nil
}

func (s *stubAuditRecorder) actions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	actions := make([]string, 0, len(s.entries))
	for _, entry := range s.entries {
		actions = append(actions, entry.Action)
	}
	return actions
}

type stubPublisher struct {
	mu     sync.Mutex
	events []AttemptGradedEvent
	err    error
}

func (s *stubPublisher) PublishGraded(ctx context.Context, event AttemptGradedEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return s.err
}

func (s *stubPublisher) published() []AttemptGradedEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]AttemptGradedEvent(nil), s.events...)
}

func intPointer(v int) *int {
	return &v
}

func floatPointer(v float64) *float64 {
	return &v
}

func progressFixture() dto.ProgressResponse {
	return dto.ProgressResponse{Summary: dto.ProgressSummary{TotalAttempts: 3, ActivitiesAttempted: 1}}
}
