package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jonathan/izzy/internal/types"
)

const questionColumns = `id, session_id, question_text, question_type, related_skill, difficulty, focus_area, source, question_order, created_at`

// insertQuestionSQL inserts a question unless the session already has one
// with the same text, and returns the id of the stored row either way.
const insertQuestionSQL = `
WITH inserted AS (
    INSERT INTO interview_questions
        (session_id, question_text, question_type, related_skill, difficulty, focus_area, source, question_order)
    VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
    ON CONFLICT (session_id, question_text) DO NOTHING
    RETURNING id
)
SELECT id, TRUE FROM inserted
UNION ALL
SELECT id, FALSE FROM interview_questions WHERE session_id = $1 AND question_text = $2
LIMIT 1`

const selectQuestionIDSQL = `SELECT id FROM interview_questions WHERE session_id = $1 AND question_text = $2`

func scanQuestion(row rowScanner) (*Question, error) {
	var q Question
	var qType, source string
	if err := row.Scan(&q.ID, &q.SessionID, &q.Text, &qType, &q.RelatedSkill, &q.Difficulty,
		&q.FocusArea, &source, &q.Order, &q.CreatedAt); err != nil {
		return nil, err
	}
	q.Type = types.QuestionType(qType)
	q.Source = types.QuestionSource(source)
	return &q, nil
}

func questionArgs(in QuestionInput) []any {
	return []any{
		in.SessionID, in.Text, string(in.Type.Normalize()), in.RelatedSkill, in.Difficulty,
		in.FocusArea, string(in.Source), in.Order,
	}
}

// InsertQuestion stores a question, deduplicated by exact text within the
// session. It returns the stored question's ID and whether a row was created.
func (db *DB) InsertQuestion(ctx context.Context, in QuestionInput) (uuid.UUID, bool, error) {
	var id uuid.UUID
	var created bool
	err := db.pool.QueryRow(ctx, insertQuestionSQL, questionArgs(in)...).Scan(&id, &created)
	if isNoRows(err) {
		// The conflicting row was committed by a concurrent insert after this
		// statement's snapshot was taken, so only a new statement can see it.
		err = db.pool.QueryRow(ctx, selectQuestionIDSQL, in.SessionID, in.Text).Scan(&id)
	}
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("failed to insert question: %w", err)
	}
	return id, created, nil
}

// InsertQuestions stores several questions in one round trip. Duplicates of
// existing questions are skipped.
func (db *DB) InsertQuestions(ctx context.Context, inputs []QuestionInput) error {
	if len(inputs) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, in := range inputs {
		batch.Queue(insertQuestionSQL, questionArgs(in)...)
	}

	br := db.pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := range inputs {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("failed to insert question %d: %w", i+1, err)
		}
	}
	return br.Close()
}

// GetQuestion retrieves a question by ID
func (db *DB) GetQuestion(ctx context.Context, id uuid.UUID) (*Question, error) {
	q, err := scanQuestion(db.pool.QueryRow(ctx,
		`SELECT `+questionColumns+` FROM interview_questions WHERE id = $1`, id))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get question: %w", err)
	}
	return q, nil
}

// ListQuestions retrieves a session's questions by question_order, then creation time
func (db *DB) ListQuestions(ctx context.Context, sessionID uuid.UUID) ([]Question, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+questionColumns+` FROM interview_questions
		 WHERE session_id = $1 ORDER BY question_order ASC, created_at ASC`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list questions: %w", err)
	}
	defer rows.Close()

	var questions []Question
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan question: %w", err)
		}
		questions = append(questions, *q)
	}
	return questions, rows.Err()
}
