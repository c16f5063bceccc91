package questions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/exambuddy/exambuddy-backend/internal/model"
)

// PostgresProvider is the production question pool: it implements Provider
// for the engine and carries the admin-facing pool management queries.
type PostgresProvider struct {
	pool *pgxpool.Pool
}

// NewPostgresProvider creates a PostgresProvider.
func NewPostgresProvider(pool *pgxpool.Pool) *PostgresProvider {
	return &PostgresProvider{pool: pool}
}

// Draw loads the project's pool and takes a uniform random sample without
// replacement. The shuffle happens in-process rather than ORDER BY random()
// so the draw order is not biased by pool storage order.
func (p *PostgresProvider) Draw(ctx context.Context, projectID string, count int) ([]model.Question, error) {
	all, err := p.ListByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if len(all) < count {
		return nil, &InsufficientError{Requested: count, Available: len(all)}
	}

	rand.Shuffle(len(all), func(i, j int) { all[i], all[j] = all[j], all[i] })
	return all[:count], nil
}

// Get resolves one question by ID.
func (p *PostgresProvider) Get(ctx context.Context, id uuid.UUID) (*model.Question, error) {
	var (
		q       model.Question
		rawOpts []byte
	)
	err := p.pool.QueryRow(ctx,
		`SELECT id, project_id, text, options, correct_index, created_at
		 FROM questions WHERE id = $1`, id,
	).Scan(&q.ID, &q.ProjectID, &q.Text, &rawOpts, &q.CorrectIndex, &q.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrQuestionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get question: %w", err)
	}
	if err := json.Unmarshal(rawOpts, &q.Options); err != nil {
		return nil, fmt.Errorf("decode options: %w", err)
	}
	return &q, nil
}

// ListByProject retrieves a project's full pool, oldest first.
func (p *PostgresProvider) ListByProject(ctx context.Context, projectID string) ([]model.Question, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT id, project_id, text, options, correct_index, created_at
		 FROM questions WHERE project_id = $1
		 ORDER BY created_at`, projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	defer rows.Close()

	var questions []model.Question
	for rows.Next() {
		var (
			q       model.Question
			rawOpts []byte
		)
		if err := rows.Scan(&q.ID, &q.ProjectID, &q.Text, &rawOpts, &q.CorrectIndex, &q.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(rawOpts, &q.Options); err != nil {
			return nil, fmt.Errorf("decode options: %w", err)
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// Create inserts a new question into a project pool.
func (p *PostgresProvider) Create(ctx context.Context, q *model.Question) error {
	opts, err := json.Marshal(q.Options)
	if err != nil {
		return fmt.Errorf("encode options: %w", err)
	}
	return p.pool.QueryRow(ctx,
		`INSERT INTO questions (project_id, text, options, correct_index)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at`,
		q.ProjectID, q.Text, opts, q.CorrectIndex,
	).Scan(&q.ID, &q.CreatedAt)
}

// Update replaces a question's editable fields.
func (p *PostgresProvider) Update(ctx context.Context, q *model.Question) error {
	opts, err := json.Marshal(q.Options)
	if err != nil {
		return fmt.Errorf("encode options: %w", err)
	}
	tag, err := p.pool.Exec(ctx,
		`UPDATE questions SET text = $1, options = $2, correct_index = $3
		 WHERE id = $4`,
		q.Text, opts, q.CorrectIndex, q.ID,
	)
	if err != nil {
		return fmt.Errorf("update question: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrQuestionNotFound
	}
	return nil
}

// Delete removes a question from its pool.
func (p *PostgresProvider) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := p.pool.Exec(ctx, `DELETE FROM questions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete question: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrQuestionNotFound
	}
	return nil
}
