// Package grading scores learning-activity attempts.
//
// Every entry point is pure and safe for concurrent use. Malformed keys or
// answers never surface as errors: they score zero, the same as a wrong
// answer, and the Outcome on the Result says why.
package grading

import (
	"context"
	"encoding/json"
	"errors"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// GradeActivityAttempt returns the attempt's score in [0, 100].
func GradeActivityAttempt(activity Activity, answer json.RawMessage) int {
	return Evaluate(activity, answer).Score
}

// Evaluate grades an attempt and reports how the call resolved.
func Evaluate(activity Activity, answer json.RawMessage) (result Result) {
	result = Result{AutoGraded: activity.Type.AutoGraded()}

	defer func() {
		if recovered := recover(); recovered != nil {
			result.Score = 0
			result.Outcome = OutcomeMalformedAnswer
		}
	}()

	key, err := ParseKey(activity)
	if err != nil {
		result.Outcome = outcomeFor(activity.Type, err)
		return result
	}

	if key.Type() == DeepDive {
		result.Outcome = OutcomeManualReview
		return result
	}

	score, err := key.score(answer)
	if err != nil {
		result.Outcome = OutcomeMalformedAnswer
		return result
	}

	result.Score = clampScore(score)
	result.Outcome = OutcomeGraded
	return result
}

func outcomeFor(activityType ActivityType, err error) Outcome {
	switch {
	case !activityType.Valid():
		return OutcomeUnknownType
	case errors.Is(err, errMalformedKey):
		return OutcomeMalformedKey
	default:
		return OutcomeMalformedAnswer
	}
}

func clampScore(score int) int {
	switch {
	case score < 0:
		return 0
	case score > 100:
		return 100
	default:
		return score
	}
}

// Job pairs an activity with one submitted answer.
type Job struct {
	Activity Activity
	Answer   json.RawMessage
}

// Engine grades batches of independent attempts.
type Engine struct {
	concurrency int
}

// Option configures an Engine.
type Option func(*Engine)

// WithConcurrency caps the number of attempts graded at once.
func WithConcurrency(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.concurrency = n
		}
	}
}

// NewEngine builds an engine that defaults to one worker per CPU.
func NewEngine(opts ...Option) *Engine {
	engine := &Engine{concurrency: runtime.GOMAXPROCS(0)}
	for _, opt := range opts {
		opt(engine)
	}
	return engine
}

// Grade scores a single job.
func (e *Engine) Grade(job Job) Result {
	return Evaluate(job.Activity, job.Answer)
}

// workers falls back to one worker per CPU for a zero-value Engine.
func (e *Engine) workers() int {
	if e.concurrency > 0 {
		return e.concurrency
	}
	return runtime.GOMAXPROCS(0)
}

// GradeBatch scores jobs concurrently. Results line up with jobs by index.
// Only context cancellation produces an error.
func (e *Engine) GradeBatch(ctx context.Context, jobs []Job) ([]Result, error) {
	results := make([]Result, len(jobs))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(e.workers())

	for i := range jobs {
		if err := groupCtx.Err(); err != nil {
			break
		}
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}
			results[i] = Evaluate(jobs[i].Activity, jobs[i].Answer)
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}
