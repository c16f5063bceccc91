package engine

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/exambuddy/exambuddy-backend/internal/model"
	"github.com/exambuddy/exambuddy-backend/internal/questions"
	"github.com/exambuddy/exambuddy-backend/internal/store"
	"github.com/exambuddy/exambuddy-backend/internal/timing"
)

const testProject = "proj-test"

// All seeded questions use option 1 as the correct answer.
const correctOption = 1

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type captureSink struct {
	mu      sync.Mutex
	results []*model.AttemptResult
}

func (s *captureSink) AttemptCompleted(_ context.Context, r *model.AttemptResult) error {
	s.mu.Lock()
	s.results = append(s.results, r)
	s.mu.Unlock()
	return nil
}

func (s *captureSink) all() []*model.AttemptResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*model.AttemptResult(nil), s.results...)
}

type fixture struct {
	engine   *Engine
	store    *store.MemoryStore
	provider *questions.MemoryProvider
	sink     *captureSink
	clock    *fakeClock
	owner    model.Principal
}

func newFixture(t *testing.T, poolSize int) *fixture {
	t.Helper()

	provider := questions.NewMemoryProvider()
	for i := 0; i < poolSize; i++ {
		provider.Add(model.Question{
			ID:           uuid.New(),
			ProjectID:    testProject,
			Text:         fmt.Sprintf("question %d", i),
			Options:      []string{"alpha", "beta", "gamma", "delta"},
			CorrectIndex: correctOption,
		})
	}

	st := store.NewMemoryStore()
	sink := &captureSink{}
	clock := &fakeClock{t: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}

	eng := New(st, provider, sink, zerolog.Nop())
	eng.now = clock.Now

	return &fixture{
		engine:   eng,
		store:    st,
		provider: provider,
		sink:     sink,
		clock:    clock,
		owner:    model.Principal{ID: uuid.NewString(), Role: model.RoleCandidate},
	}
}

func (f *fixture) start(t *testing.T, mode model.Mode, difficulty model.Difficulty, count int) *model.Session {
	t.Helper()
	sess, err := f.engine.StartSession(context.Background(), f.owner, StartParams{
		ProjectID:     testProject,
		Mode:          mode,
		Difficulty:    difficulty,
		QuestionCount: count,
	})
	require.NoError(t, err)
	return sess
}

// answer submits for the current question and advances past it, keeping the
// caller's session pointer fresh. correct selects the right or a wrong option.
func (f *fixture) answer(t *testing.T, sess *model.Session, correct bool) *model.Session {
	t.Helper()
	ctx := context.Background()

	selected := correctOption
	if !correct {
		selected = 0
	}

	f.clock.Advance(3 * time.Second)
	outcome, err := f.engine.SubmitAnswer(ctx, f.owner, sess.ID, sess.Version, sess.CurrentQuestionID(), &selected)
	require.NoError(t, err)

	next, _, err := f.engine.Advance(ctx, f.owner, sess.ID, outcome.Version)
	require.NoError(t, err)
	return next
}

func TestStartSessionDrawsUniqueSequence(t *testing.T) {
	f := newFixture(t, 10)
	sess := f.start(t, model.ModeTest, model.DifficultyMedium, 5)

	assert.Equal(t, model.PhaseActive, sess.Phase)
	assert.Equal(t, int64(1), sess.Version)
	assert.Equal(t, 0, sess.CurrentIndex)
	assert.Empty(t, sess.Answers)
	require.Len(t, sess.QuestionIDs, 5)

	seen := make(map[uuid.UUID]bool)
	for _, id := range sess.QuestionIDs {
		assert.False(t, seen[id], "duplicate question in sequence")
		seen[id] = true
	}

	stored, err := f.store.Get(context.Background(), sess.ID)
	require.NoError(t, err)
	assert.Equal(t, sess.QuestionIDs, stored.QuestionIDs)
}

func TestStartSessionInsufficientQuestions(t *testing.T) {
	f := newFixture(t, 7)

	_, err := f.engine.StartSession(context.Background(), f.owner, StartParams{
		ProjectID:     testProject,
		Mode:          model.ModeExam,
		Difficulty:    model.DifficultyMedium,
		QuestionCount: 10,
	})

	var insufficient *questions.InsufficientError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, 7, insufficient.Available)
}

func TestStartSessionValidation(t *testing.T) {
	f := newFixture(t, 5)
	ctx := context.Background()

	cases := []StartParams{
		{ProjectID: testProject, Mode: model.ModeTest, Difficulty: model.DifficultyEasy, QuestionCount: 0},
		{ProjectID: testProject, Mode: model.Mode("quiz"), Difficulty: model.DifficultyEasy, QuestionCount: 3},
		{ProjectID: testProject, Mode: model.ModeTest, Difficulty: model.Difficulty("brutal"), QuestionCount: 3},
	}
	for _, p := range cases {
		_, err := f.engine.StartSession(ctx, f.owner, p)
		var validation *ValidationError
		assert.ErrorAs(t, err, &validation, "params %+v", p)
	}
}

func TestSubmitAnswerTestModeRevealsCorrectness(t *testing.T) {
	f := newFixture(t, 5)
	sess := f.start(t, model.ModeTest, model.DifficultyMedium, 3)

	f.clock.Advance(10 * time.Second)
	selected := correctOption
	outcome, err := f.engine.SubmitAnswer(context.Background(), f.owner, sess.ID, 1, sess.CurrentQuestionID(), &selected)
	require.NoError(t, err)

	require.NotNil(t, outcome.IsCorrect)
	assert.True(t, *outcome.IsCorrect)
	require.NotNil(t, outcome.CorrectIndex)
	assert.Equal(t, correctOption, *outcome.CorrectIndex)
	assert.InDelta(t, 10.0, outcome.TimeSpentSeconds, 0.001)
	assert.Equal(t, int64(2), outcome.Version)
}

func TestSubmitAnswerExamModeHidesCorrectness(t *testing.T) {
	f := newFixture(t, 5)
	sess := f.start(t, model.ModeExam, model.DifficultyMedium, 3)

	selected := correctOption
	outcome, err := f.engine.SubmitAnswer(context.Background(), f.owner, sess.ID, 1, sess.CurrentQuestionID(), &selected)
	require.NoError(t, err)

	assert.Nil(t, outcome.IsCorrect)
	assert.Nil(t, outcome.CorrectIndex)
}

func TestSubmitAnswerWrongQuestion(t *testing.T) {
	f := newFixture(t, 5)
	sess := f.start(t, model.ModeTest, model.DifficultyMedium, 3)

	selected := 0
	// Target the second question while the first is current.
	_, err := f.engine.SubmitAnswer(context.Background(), f.owner, sess.ID, 1, sess.QuestionIDs[1], &selected)
	assert.ErrorIs(t, err, ErrWrongQuestion)
}

func TestSubmitAnswerAlreadyAnswered(t *testing.T) {
	f := newFixture(t, 5)
	sess := f.start(t, model.ModeTest, model.DifficultyMedium, 3)
	ctx := context.Background()

	selected := 0
	outcome, err := f.engine.SubmitAnswer(ctx, f.owner, sess.ID, 1, sess.CurrentQuestionID(), &selected)
	require.NoError(t, err)

	_, err = f.engine.SubmitAnswer(ctx, f.owner, sess.ID, outcome.Version, sess.CurrentQuestionID(), &selected)
	assert.ErrorIs(t, err, ErrAlreadyAnswered)
}

func TestSubmitAnswerTimingBoundaries(t *testing.T) {
	// Medium difficulty: 60s limit, 2s grace.
	limit, err := timing.QuestionLimit(model.DifficultyMedium)
	require.NoError(t, err)

	cases := []struct {
		name    string
		elapsed time.Duration
		wantErr error
	}{
		{"one second before limit", limit - time.Second, nil},
		{"exactly at limit", limit, nil},
		{"at limit plus grace", limit + timing.Grace, nil},
		{"past limit plus grace", limit + timing.Grace + time.Second, ErrStaleSubmission},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t, 5)
			sess := f.start(t, model.ModeTest, model.DifficultyMedium, 3)

			f.clock.Advance(tc.elapsed)
			selected := correctOption
			outcome, err := f.engine.SubmitAnswer(context.Background(), f.owner, sess.ID, 1, sess.CurrentQuestionID(), &selected)

			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			// Time spent is clamped at the limit even within the grace window.
			assert.LessOrEqual(t, outcome.TimeSpentSeconds, limit.Seconds())
		})
	}
}

func TestSubmitAnswerVersionMismatch(t *testing.T) {
	f := newFixture(t, 5)
	sess := f.start(t, model.ModeTest, model.DifficultyMedium, 3)

	selected := 0
	_, err := f.engine.SubmitAnswer(context.Background(), f.owner, sess.ID, 42, sess.CurrentQuestionID(), &selected)
	assert.ErrorIs(t, err, ErrConcurrentModification)
}

func TestConcurrentSubmitSingleWinner(t *testing.T) {
	f := newFixture(t, 5)
	sess := f.start(t, model.ModeTest, model.DifficultyMedium, 3)
	ctx := context.Background()

	const callers = 2
	errs := make(chan error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			selected := correctOption
			_, err := f.engine.SubmitAnswer(ctx, f.owner, sess.ID, 1, sess.CurrentQuestionID(), &selected)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	wins, rejections := 0, 0
	for err := range errs {
		if err == nil {
			wins++
			continue
		}
		// The loser either lost the CAS race or found the answer already
		// recorded, depending on interleaving.
		if assert.True(t, err == ErrConcurrentModification || err == ErrAlreadyAnswered, "unexpected error: %v", err) {
			rejections++
		}
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, callers-1, rejections)

	stored, err := f.store.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Answers, 1)
}

func TestAdvanceRecordsTimeout(t *testing.T) {
	f := newFixture(t, 5)
	sess := f.start(t, model.ModeTest, model.DifficultyHard, 3)
	first := sess.CurrentQuestionID()

	// Let the question expire without an answer.
	f.clock.Advance(45 * time.Second)
	next, result, err := f.engine.Advance(context.Background(), f.owner, sess.ID, 1)
	require.NoError(t, err)
	assert.Nil(t, result)

	rec, ok := next.AnswerFor(first)
	require.True(t, ok)
	assert.Nil(t, rec.SelectedIndex)
	assert.False(t, rec.IsCorrect)
	assert.InDelta(t, 30.0, rec.TimeSpentSeconds, 0.001) // full hard budget

	assert.Equal(t, 1, next.CurrentIndex)
	assert.Equal(t, model.PhaseActive, next.Phase)
	assert.Equal(t, f.clock.Now().UTC(), next.QuestionStartedAt)
}

func TestAdvanceTestModeSubmitsAtEnd(t *testing.T) {
	f := newFixture(t, 5)
	sess := f.start(t, model.ModeTest, model.DifficultyEasy, 3)

	sess = f.answer(t, sess, true)
	sess = f.answer(t, sess, false)
	sess = f.answer(t, sess, true)

	assert.Equal(t, model.PhaseSubmitted, sess.Phase)
	require.NotNil(t, sess.TerminatedAt)
	assert.Len(t, sess.Answers, len(sess.QuestionIDs))

	results := f.sink.all()
	require.Len(t, results, 1)
	assert.Equal(t, sess.ID, results[0].SessionID)
	assert.Equal(t, 2, results[0].CorrectCount)
}

func TestAdvanceExamModeEntersReview(t *testing.T) {
	f := newFixture(t, 5)
	sess := f.start(t, model.ModeExam, model.DifficultyMedium, 2)

	sess = f.answer(t, sess, true)
	sess = f.answer(t, sess, true)

	assert.Equal(t, model.PhaseReviewing, sess.Phase)
	assert.Equal(t, 0, sess.CurrentIndex)
	assert.Empty(t, f.sink.all(), "no attempt before review completes")
}

func TestReviewAdvanceWalksSequenceAndSubmits(t *testing.T) {
	f := newFixture(t, 5)
	sess := f.start(t, model.ModeExam, model.DifficultyMedium, 2)
	sess = f.answer(t, sess, true)
	sess = f.answer(t, sess, false)
	require.Equal(t, model.PhaseReviewing, sess.Phase)

	ctx := context.Background()
	answersBefore := len(sess.Answers)

	sess, result, err := f.engine.ReviewAdvance(ctx, f.owner, sess.ID, sess.Version)
	require.NoError(t, err)
	assert.Nil(t, result)
	assert.Equal(t, 1, sess.CurrentIndex)

	sess, result, err = f.engine.ReviewAdvance(ctx, f.owner, sess.ID, sess.Version)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, model.PhaseSubmitted, sess.Phase)
	assert.Len(t, sess.Answers, answersBefore, "review never touches answers")
	assert.Len(t, f.sink.all(), 1)
}

func TestReviewAdvancePastDeadlineStillAdvances(t *testing.T) {
	f := newFixture(t, 5)
	sess := f.start(t, model.ModeExam, model.DifficultyMedium, 2)
	sess = f.answer(t, sess, true)
	sess = f.answer(t, sess, true)
	require.Equal(t, model.PhaseReviewing, sess.Phase)

	ctx := context.Background()

	// Medium review budget is 30s; sit well past it plus grace.
	f.clock.Advance(45 * time.Second)
	sess, result, err := f.engine.ReviewAdvance(ctx, f.owner, sess.ID, sess.Version)
	require.NoError(t, err)
	assert.Nil(t, result)
	assert.Equal(t, 1, sess.CurrentIndex)

	// Overrun the last item too: the call still submits.
	f.clock.Advance(2 * time.Minute)
	sess, result, err = f.engine.ReviewAdvance(ctx, f.owner, sess.ID, sess.Version)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, model.PhaseSubmitted, sess.Phase)
	assert.Len(t, f.sink.all(), 1)
}

func TestReviewAdvanceRequiresReviewingPhase(t *testing.T) {
	f := newFixture(t, 5)
	sess := f.start(t, model.ModeExam, model.DifficultyMedium, 2)

	_, _, err := f.engine.ReviewAdvance(context.Background(), f.owner, sess.ID, sess.Version)
	assert.ErrorIs(t, err, ErrInvalidPhase)
}

func TestCurrentQuestionStripsCorrectAnswer(t *testing.T) {
	f := newFixture(t, 5)
	sess := f.start(t, model.ModeTest, model.DifficultyExpert, 2)

	view, err := f.engine.CurrentQuestion(context.Background(), f.owner, sess.ID)
	require.NoError(t, err)

	assert.Equal(t, sess.CurrentQuestionID(), view.ID)
	assert.Equal(t, 0, view.Index)
	assert.Equal(t, 2, view.Total)
	assert.Equal(t, 10, view.TimeLimitSeconds)
	assert.Len(t, view.Options, 4)
}

func TestCurrentReviewItemRevealsAnswer(t *testing.T) {
	f := newFixture(t, 5)
	sess := f.start(t, model.ModeExam, model.DifficultyMedium, 2)
	sess = f.answer(t, sess, false)
	sess = f.answer(t, sess, true)
	require.Equal(t, model.PhaseReviewing, sess.Phase)

	item, err := f.engine.CurrentReviewItem(context.Background(), f.owner, sess.ID)
	require.NoError(t, err)

	assert.Equal(t, correctOption, item.CorrectIndex)
	require.NotNil(t, item.SelectedIndex)
	assert.Equal(t, 0, *item.SelectedIndex)
	assert.False(t, item.IsCorrect)
	assert.Equal(t, 30, item.Question.TimeLimitSeconds) // half of medium
}

func TestCancelSessionIdempotent(t *testing.T) {
	f := newFixture(t, 5)
	sess := f.start(t, model.ModeTest, model.DifficultyMedium, 3)
	ctx := context.Background()

	require.NoError(t, f.engine.CancelSession(ctx, f.owner, sess.ID, 1))

	stored, err := f.store.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PhaseCancelled, stored.Phase)
	require.NotNil(t, stored.TerminatedAt)

	// Second cancel is a no-op success regardless of version.
	require.NoError(t, f.engine.CancelSession(ctx, f.owner, sess.ID, 999))
	assert.Empty(t, f.sink.all(), "cancelled sessions never produce attempts")
}

func TestCancelCompletedSessionIsNoOp(t *testing.T) {
	f := newFixture(t, 5)
	sess := f.start(t, model.ModeTest, model.DifficultyEasy, 1)
	sess = f.answer(t, sess, true)
	require.Equal(t, model.PhaseSubmitted, sess.Phase)

	require.NoError(t, f.engine.CancelSession(context.Background(), f.owner, sess.ID, sess.Version))
	assert.Len(t, f.sink.all(), 1, "exactly one attempt despite cancel after completion")
}

func TestCancelVersionMismatch(t *testing.T) {
	f := newFixture(t, 5)
	sess := f.start(t, model.ModeTest, model.DifficultyMedium, 3)

	err := f.engine.CancelSession(context.Background(), f.owner, sess.ID, 5)
	assert.ErrorIs(t, err, ErrConcurrentModification)
}

func TestSessionOwnershipEnforced(t *testing.T) {
	f := newFixture(t, 5)
	sess := f.start(t, model.ModeTest, model.DifficultyMedium, 3)
	intruder := model.Principal{ID: uuid.NewString(), Role: model.RoleCandidate}
	ctx := context.Background()

	_, err := f.engine.GetSession(ctx, intruder, sess.ID)
	assert.ErrorIs(t, err, ErrNotSessionOwner)

	selected := 0
	_, err = f.engine.SubmitAnswer(ctx, intruder, sess.ID, 1, sess.CurrentQuestionID(), &selected)
	assert.ErrorIs(t, err, ErrNotSessionOwner)

	assert.ErrorIs(t, f.engine.CancelSession(ctx, intruder, sess.ID, 1), ErrNotSessionOwner)
}

func TestScenarioEasyTestAllCorrect(t *testing.T) {
	f := newFixture(t, 10)
	sess := f.start(t, model.ModeTest, model.DifficultyEasy, 5)

	for i := 0; i < 5; i++ {
		sess = f.answer(t, sess, true)
	}

	require.Equal(t, model.PhaseSubmitted, sess.Phase)
	results := f.sink.all()
	require.Len(t, results, 1)

	assert.Equal(t, 100.0, results[0].ScorePercent)
	assert.Equal(t, 5, results[0].AttemptedCount)
	assert.Equal(t, 5, results[0].CorrectCount)
	assert.Equal(t, 5, results[0].TotalQuestions)
}

func TestScenarioHardExamMixed(t *testing.T) {
	f := newFixture(t, 10)
	sess := f.start(t, model.ModeExam, model.DifficultyHard, 4)
	ctx := context.Background()

	// Two correct, one timed out, one incorrect.
	sess = f.answer(t, sess, true)
	sess = f.answer(t, sess, true)

	f.clock.Advance(35 * time.Second) // past the 30s hard budget
	sess, _, err := f.engine.Advance(ctx, f.owner, sess.ID, sess.Version)
	require.NoError(t, err)

	sess = f.answer(t, sess, false)
	require.Equal(t, model.PhaseReviewing, sess.Phase)

	for sess.Phase == model.PhaseReviewing {
		sess, _, err = f.engine.ReviewAdvance(ctx, f.owner, sess.ID, sess.Version)
		require.NoError(t, err)
	}

	results := f.sink.all()
	require.Len(t, results, 1)
	assert.Equal(t, 50.0, results[0].ScorePercent)
	assert.Equal(t, 3, results[0].AttemptedCount)
	assert.Equal(t, 2, results[0].CorrectCount)
	assert.Equal(t, 4, results[0].TotalQuestions)
}
