package service

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-grading-api/internal/dto"
	"github.com/noah-isme/gema-grading-api/internal/models"
	"github.com/noah-isme/gema-grading-api/internal/repository"
)

func newActivityServiceForTest(t *testing.T) (ActivityService, *stubAuditRecorder) {
	t.Helper()
	db := setupServiceDB(t)
	audit := &stubAuditRecorder{}
	svc := NewActivityService(repository.NewActivityRepository(db), newTestValidator(), nil, audit, zerolog.Nop())
	return svc, audit
}

func TestActivityServiceCreateSanitizesAndAudits(t *testing.T) {
	svc, audit := newActivityServiceForTest(t)
	author := Actor{ID: 7, Role: "teacher"}

	created, err := svc.Create(context.Background(), dto.ActivityRequest{
		Title:          "<b>Capital</b> of France",
		Instructions:   `<p>Answer in one word</p><script>alert(1)</script>`,
		ActivityType:   "short_answer",
		CorrectAnswers: json.RawMessage(`["Paris"]`),
	}, author)
	require.NoError(t, err)
	require.Equal(t, "Capital of France", created.Title)
	require.Equal(t, "<p>Answer in one word</p>", created.Instructions)
	require.Equal(t, "SHORT_ANSWER", created.ActivityType)
	require.JSONEq(t, `["Paris"]`, string(created.CorrectAnswers))
	require.Equal(t, uint(7), created.CreatedBy)
	require.Equal(t, []string{"activity.created"}, audit.actions())
}

func TestActivityServiceCreateRejectsInvalidKey(t *testing.T) {
	svc, audit := newActivityServiceForTest(t)

	_, err := svc.Create(context.Background(), dto.ActivityRequest{
		Title:          "Boiling point",
		ActivityType:   "NUMERIC_ENTRY",
		CorrectAnswers: json.RawMessage(`"hot"`),
	}, Actor{ID: 1, Role: "admin"})
	require.ErrorIs(t, err, ErrInvalidAnswerKey)
	require.Empty(t, audit.actions())
}

func TestActivityServiceCreateRejectsUnknownTypeAndBadContent(t *testing.T) {
	svc, _ := newActivityServiceForTest(t)
	author := Actor{ID: 1, Role: "admin"}

	_, err := svc.Create(context.Background(), dto.ActivityRequest{
		Title:          "Essay",
		ActivityType:   "ESSAY",
		CorrectAnswers: json.RawMessage(`"x"`),
	}, author)
	require.Error(t, err)

	_, err = svc.Create(context.Background(), dto.ActivityRequest{
		Title:        "Order these",
		ActivityType: "SORTING_RANKING",
		Content:      json.RawMessage(`["a", "b"]`),
	}, author)
	require.ErrorIs(t, err, ErrInvalidActivity)
}

func TestActivityServiceGetHidesKeyFromLearners(t *testing.T) {
	svc, _ := newActivityServiceForTest(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, dto.ActivityRequest{
		Title:          "Speed of sound",
		ActivityType:   "NUMERIC_ENTRY",
		CorrectAnswers: json.RawMessage(`343`),
		Tolerance:      floatPointer(5),
	}, Actor{ID: 1, Role: "teacher"})
	require.NoError(t, err)

	learnerView, err := svc.Get(ctx, created.ID, Actor{ID: 9, Role: "student"})
	require.NoError(t, err)
	require.Empty(t, learnerView.CorrectAnswers)
	require.Nil(t, learnerView.Tolerance)
	require.True(t, learnerView.AutoGraded)

	authorView, err := svc.Get(ctx, created.ID, Actor{ID: 1, Role: "admin"})
	require.NoError(t, err)
	require.JSONEq(t, `343`, string(authorView.CorrectAnswers))
	require.NotNil(t, authorView.Tolerance)
	require.InDelta(t, 5, *authorView.Tolerance, 1e-9)

	_, err = svc.Get(ctx, created.ID+100, Actor{})
	require.ErrorIs(t, err, ErrActivityNotFound)
}

func TestActivityServiceUpdateListAndDelete(t *testing.T) {
	svc, audit := newActivityServiceForTest(t)
	ctx := context.Background()
	author := Actor{ID: 3, Role: "teacher"}

	created, err := svc.Create(ctx, dto.ActivityRequest{
		Title:          "Planets in order",
		ActivityType:   "SORTING_RANKING",
		CorrectAnswers: json.RawMessage(`["Mercury", "Venus", "Earth"]`),
	}, author)
	require.NoError(t, err)

	updated, err := svc.Update(ctx, created.ID, dto.ActivityRequest{
		Title:          "Inner planets in order",
		ActivityType:   "SORTING_RANKING",
		CorrectAnswers: json.RawMessage(`["Mercury", "Venus", "Earth", "Mars"]`),
		Tolerance:      floatPointer(2),
	}, author)
	require.NoError(t, err)
	require.Equal(t, "Inner planets in order", updated.Title)
	require.Nil(t, updated.Tolerance)

	list, err := svc.List(ctx, dto.ActivityListRequest{Page: 1, PageSize: 10, Search: "INNER"}, Actor{Role: "student"})
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	require.Empty(t, list.Items[0].CorrectAnswers)

	require.NoError(t, svc.Delete(ctx, created.ID, author))
	require.ErrorIs(t, svc.Delete(ctx, created.ID, author), ErrActivityNotFound)

	_, err = svc.Update(ctx, created.ID, dto.ActivityRequest{
		Title:          "Gone",
		ActivityType:   "SORTING_RANKING",
		CorrectAnswers: json.RawMessage(`["a"]`),
	}, author)
	require.ErrorIs(t, err, ErrActivityNotFound)

	require.Equal(t, []string{"activity.created", "activity.updated", "activity.deleted"}, audit.actions())
}

func TestGradingInputsChanged(t *testing.T) {
	base := models.Activity{ActivityType: "NUMERIC_ENTRY", CorrectAnswers: models.JSONText(`10`), Tolerance: floatPointer(1)}

	same := base
	same.CorrectAnswers = models.JSONText(` 10 `)
	require.False(t, gradingInputsChanged(base, same))

	retitled := base
	retitled.Title = "renamed"
	require.False(t, gradingInputsChanged(base, retitled))

	rekeyed := base
	rekeyed.CorrectAnswers = models.JSONText(`12`)
	require.True(t, gradingInputsChanged(base, rekeyed))

	loosened := base
	loosened.Tolerance = floatPointer(2)
	require.True(t, gradingInputsChanged(base, loosened))

	exact := base
	exact.Tolerance = nil
	require.True(t, gradingInputsChanged(base, exact))
}

func TestActivityServiceUpdateKeepsActivityType(t *testing.T) {
	svc, audit := newActivityServiceForTest(t)
	ctx := context.Background()
	author := Actor{ID: 3, Role: "teacher"}

	created, err := svc.Create(ctx, dto.ActivityRequest{
		Title:          "Capital of Spain",
		ActivityType:   "SHORT_ANSWER",
		CorrectAnswers: json.RawMessage(`["Madrid"]`),
	}, author)
	require.NoError(t, err)

	_, err = svc.Update(ctx, created.ID, dto.ActivityRequest{
		Title:        "Capital of Spain",
		ActivityType: "DEEP_DIVE",
	}, author)
	require.ErrorIs(t, err, ErrInvalidActivity)

	stored, err := svc.Get(ctx, created.ID, author)
	require.NoError(t, err)
	require.Equal(t, "SHORT_ANSWER", stored.ActivityType)

	updated, err := svc.Update(ctx, created.ID, dto.ActivityRequest{
		Title:          "Capital of Spain",
		ActivityType:   "short_answer",
		CorrectAnswers: json.RawMessage(`["Madrid", "Madrid city"]`),
	}, author)
	require.NoError(t, err)
	require.Equal(t, "SHORT_ANSWER", updated.ActivityType)
	require.Equal(t, []string{"activity.created", "activity.updated"}, audit.actions())
}
