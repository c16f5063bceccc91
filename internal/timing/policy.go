// Package timing is the pure difficulty-to-duration policy. It has no state
// and no side effects; an unrecognized difficulty is a configuration error
// that callers must surface before any session state exists.
package timing

import (
	"fmt"
	"time"

	"github.com/exambuddy/exambuddy-backend/internal/model"
)

// Grace is the fixed allowance added to every deadline check to absorb
// network latency. It is not part of any displayed countdown.
const Grace = 2 * time.Second

// QuestionLimit returns the per-question time budget for a difficulty.
func QuestionLimit(d model.Difficulty) (time.Duration, error) {
	switch d {
	case model.DifficultyEasy:
		return 120 * time.Second, nil
	case model.DifficultyMedium:
		return 60 * time.Second, nil
	case model.DifficultyHard:
		return 30 * time.Second, nil
	case model.DifficultyExpert:
		return 10 * time.Second, nil
	default:
		return 0, fmt.Errorf("unrecognized difficulty %q", d)
	}
}

// ReviewLimit returns the per-item review budget: half the question budget.
func ReviewLimit(d model.Difficulty) (time.Duration, error) {
	limit, err := QuestionLimit(d)
	if err != nil {
		return 0, err
	}
	return limit / 2, nil
}
