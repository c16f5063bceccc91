package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/exambuddy/exambuddy-backend/internal/model"
)

// AttemptRepository persists finalized attempts and serves the history view.
type AttemptRepository struct {
	pool *pgxpool.Pool
}

// NewAttemptRepository creates a new AttemptRepository.
func NewAttemptRepository(pool *pgxpool.Pool) *AttemptRepository {
	return &AttemptRepository{pool: pool}
}

// Insert stores a single attempt. session_id carries a unique constraint, so a
// replayed queue message degrades to a no-op instead of a duplicate row.
func (r *AttemptRepository) Insert(ctx context.Context, a *model.AttemptResult) error {
	breakdown, err := json.Marshal(a.Breakdown)
	if err != nil {
		return fmt.Errorf("encode breakdown: %w", err)
	}

	_, err = r.pool.Exec(ctx,
		`INSERT INTO attempts
		   (id, session_id, candidate_id, project_id, mode, difficulty,
		    score_percent, correct_count, attempted_count, total_questions,
		    breakdown, total_duration_seconds, started_at, completed_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		 ON CONFLICT (session_id) DO NOTHING`,
		a.AttemptID, a.SessionID, a.CandidateID, a.ProjectID, a.Mode, a.Difficulty,
		a.ScorePercent, a.CorrectCount, a.AttemptedCount, a.TotalQuestions,
		breakdown, a.TotalDurationSeconds, a.StartedAt, a.CompletedAt,
	)
	return err
}

// BulkInsert stores a batch of attempts in one round trip via UNNEST.
func (r *AttemptRepository) BulkInsert(ctx context.Context, batch []*model.AttemptResult) error {
	n := len(batch)
	if n == 0 {
		return nil
	}

	ids := make([]uuid.UUID, 0, n)
	sessionIDs := make([]uuid.UUID, 0, n)
	candidateIDs := make([]string, 0, n)
	projectIDs := make([]string, 0, n)
	modes := make([]string, 0, n)
	difficulties := make([]string, 0, n)
	scores := make([]float64, 0, n)
	corrects := make([]int, 0, n)
	attempteds := make([]int, 0, n)
	totals := make([]int, 0, n)
	breakdowns := make([][]byte, 0, n)
	durations := make([]float64, 0, n)
	startedAts := make([]interface{}, 0, n)
	completedAts := make([]interface{}, 0, n)

	for _, a := range batch {
		breakdown, err := json.Marshal(a.Breakdown)
		if err != nil {
			return fmt.Errorf("encode breakdown for %s: %w", a.AttemptID, err)
		}
		ids = append(ids, a.AttemptID)
		sessionIDs = append(sessionIDs, a.SessionID)
		candidateIDs = append(candidateIDs, a.CandidateID)
		projectIDs = append(projectIDs, a.ProjectID)
		modes = append(modes, string(a.Mode))
		difficulties = append(difficulties, string(a.Difficulty))
		scores = append(scores, a.ScorePercent)
		corrects = append(corrects, a.CorrectCount)
		attempteds = append(attempteds, a.AttemptedCount)
		totals = append(totals, a.TotalQuestions)
		breakdowns = append(breakdowns, breakdown)
		durations = append(durations, a.TotalDurationSeconds)
		startedAts = append(startedAts, a.StartedAt)
		completedAts = append(completedAts, a.CompletedAt)
	}

	query := `
		INSERT INTO attempts
		  (id, session_id, candidate_id, project_id, mode, difficulty,
		   score_percent, correct_count, attempted_count, total_questions,
		   breakdown, total_duration_seconds, started_at, completed_at)
		SELECT
			u.id, u.session_id, u.candidate_id, u.project_id, u.mode, u.difficulty,
			u.score_percent, u.correct_count, u.attempted_count, u.total_questions,
			u.breakdown, u.total_duration_seconds, u.started_at, u.completed_at
		FROM UNNEST(
			$1::uuid[],
			$2::uuid[],
			$3::uuid[],
			$4::text[],
			$5::text[],
			$6::text[],
			$7::float8[],
			$8::int[],
			$9::int[],
			$10::int[],
			$11::jsonb[],
			$12::float8[],
			$13::timestamptz[],
			$14::timestamptz[]
		) AS u (id, session_id, candidate_id, project_id, mode, difficulty,
		        score_percent, correct_count, attempted_count, total_questions,
		        breakdown, total_duration_seconds, started_at, completed_at)
		ON CONFLICT (session_id) DO NOTHING
	`

	_, err := r.pool.Exec(ctx, query,
		ids, sessionIDs, candidateIDs, projectIDs, modes, difficulties,
		scores, corrects, attempteds, totals,
		breakdowns, durations, startedAts, completedAts,
	)
	return err
}

// GetBySessionID retrieves the full attempt for one session, including the
// per-question breakdown.
func (r *AttemptRepository) GetBySessionID(ctx context.Context, sessionID uuid.UUID) (*model.AttemptResult, error) {
	a := &model.AttemptResult{}
	var breakdown []byte
	err := r.pool.QueryRow(ctx,
		`SELECT id, session_id, candidate_id, project_id, mode, difficulty,
		        score_percent, correct_count, attempted_count, total_questions,
		        breakdown, total_duration_seconds, started_at, completed_at
		 FROM attempts WHERE session_id = $1`, sessionID,
	).Scan(&a.AttemptID, &a.SessionID, &a.CandidateID, &a.ProjectID, &a.Mode, &a.Difficulty,
		&a.ScorePercent, &a.CorrectCount, &a.AttemptedCount, &a.TotalQuestions,
		&breakdown, &a.TotalDurationSeconds, &a.StartedAt, &a.CompletedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(breakdown, &a.Breakdown); err != nil {
		return nil, fmt.Errorf("decode breakdown: %w", err)
	}
	return a, nil
}

// ListByCandidate retrieves a candidate's completed attempts, newest first,
// with pagination.
func (r *AttemptRepository) ListByCandidate(ctx context.Context, candidateID string, limit, offset int) ([]model.AttemptSummary, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM attempts WHERE candidate_id = $1`, candidateID,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, session_id, project_id, mode, difficulty,
		        score_percent, correct_count, total_questions, completed_at
		 FROM attempts
		 WHERE candidate_id = $1
		 ORDER BY completed_at DESC
		 LIMIT $2 OFFSET $3`,
		candidateID, limit, offset,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	summaries := make([]model.AttemptSummary, 0, limit)
	for rows.Next() {
		var s model.AttemptSummary
		if err := rows.Scan(&s.AttemptID, &s.SessionID, &s.ProjectID, &s.Mode, &s.Difficulty,
			&s.ScorePercent, &s.CorrectCount, &s.TotalQuestions, &s.CompletedAt); err != nil {
			return nil, 0, err
		}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return summaries, total, nil
}
