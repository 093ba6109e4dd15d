package dto

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-grading-api/internal/grading"
	"github.com/noah-isme/gema-grading-api/internal/models"
)

func TestNewActivityResponseHidesTableAnswersFromLearners(t *testing.T) {
	activity := models.Activity{
		ID:           4,
		Title:        "Multiplication grid",
		ActivityType: string(grading.TableCompletion),
		Content:      models.JSONText(`{"rows":2,"answers":{"0_1":"42"}}`),
	}

	learner := NewActivityResponse(activity, false)
	require.JSONEq(t, `{"rows":2}`, string(learner.Content))
	require.Nil(t, learner.CorrectAnswers)

	author := NewActivityResponse(activity, true)
	require.JSONEq(t, `{"rows":2,"answers":{"0_1":"42"}}`, string(author.Content))
}

func TestNewActivityResponseReordersSortingItemsForLearners(t *testing.T) {
	activity := models.Activity{
		ActivityType: string(grading.SortingRanking),
		Content:      models.JSONText(`{"items":["Mercury","Venus","Earth"]}`),
	}

	learner := NewActivityResponse(activity, false)
	require.JSONEq(t, `{"items":["Earth","Mercury","Venus"]}`, string(learner.Content))
}

func TestNewActivityResponseDropsContentThatOnlyHoldsTheKey(t *testing.T) {
	activity := models.Activity{
		ActivityType:   string(grading.TableCompletion),
		CorrectAnswers: models.JSONText(`{"0_0":"1"}`),
		Tolerance:      nil,
		Content:        models.JSONText(`{"answers":{"0_0":"1"}}`),
	}

	learner := NewActivityResponse(activity, false)
	require.Nil(t, learner.Content)
	require.Nil(t, learner.CorrectAnswers)
}

func TestNewActivityResponsePassesOtherContentThrough(t *testing.T) {
	tolerance := 0.5
	activity := models.Activity{
		ActivityType:   string(grading.NumericEntry),
		CorrectAnswers: models.JSONText(`[9.8]`),
		Tolerance:      &tolerance,
		Content:        models.JSONText(`{"unit":"m/s2"}`),
	}

	learner := NewActivityResponse(activity, false)
	require.JSONEq(t, `{"unit":"m/s2"}`, string(learner.Content))
	require.Nil(t, learner.Tolerance)

	author := NewActivityResponse(activity, true)
	require.JSONEq(t, `[9.8]`, string(author.CorrectAnswers))
	require.Equal(t, &tolerance, author.Tolerance)
}
