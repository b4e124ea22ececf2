package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

const answerColumns = `id, question_id, session_id, user_id, answer_text, created_at`

func scanAnswer(row rowScanner) (*Answer, error) {
	var a Answer
	if err := row.Scan(&a.ID, &a.QuestionID, &a.SessionID, &a.UserID, &a.Text, &a.CreatedAt); err != nil {
		return nil, err
	}
	return &a, nil
}

// CreateAnswer inserts a user answer and fills in its ID and timestamp
func (db *DB) CreateAnswer(ctx context.Context, a *Answer) error {
	err := db.pool.QueryRow(ctx,
		`INSERT INTO user_answers (question_id, session_id, user_id, answer_text)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at`,
		a.QuestionID, a.SessionID, a.UserID, a.Text,
	).Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save answer: %w", err)
	}
	return nil
}

// GetAnswer retrieves an answer by ID
func (db *DB) GetAnswer(ctx context.Context, id uuid.UUID) (*Answer, error) {
	a, err := scanAnswer(db.pool.QueryRow(ctx,
		`SELECT `+answerColumns+` FROM user_answers WHERE id = $1`, id))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get answer: %w", err)
	}
	return a, nil
}

// ListAnswers retrieves a session's answers in the order they were given
func (db *DB) ListAnswers(ctx context.Context, sessionID uuid.UUID) ([]Answer, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+answerColumns+` FROM user_answers WHERE session_id = $1 ORDER BY created_at ASC`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list answers: %w", err)
	}
	defer rows.Close()

	var answers []Answer
	for rows.Next() {
		a, err := scanAnswer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan answer: %w", err)
		}
		answers = append(answers, *a)
	}
	return answers, rows.Err()
}

const evaluationColumns = `e.id, e.answer_id, e.score, e.breakdown, e.feedback, e.strengths, e.improvements, e.model_answer, e.created_at`

func scanEvaluation(row rowScanner) (*Evaluation, error) {
	var e Evaluation
	var breakdownJSON, strengthsJSON, improvementsJSON []byte
	if err := row.Scan(&e.ID, &e.AnswerID, &e.Score, &breakdownJSON, &e.Feedback, &strengthsJSON,
		&improvementsJSON, &e.ModelAnswer, &e.CreatedAt); err != nil {
		return nil, err
	}
	if err := unmarshalJSONB(breakdownJSON, &e.Breakdown); err != nil {
		return nil, fmt.Errorf("failed to decode breakdown: %w", err)
	}
	if err := unmarshalJSONB(strengthsJSON, &e.Strengths); err != nil {
		return nil, fmt.Errorf("failed to decode strengths: %w", err)
	}
	if err := unmarshalJSONB(improvementsJSON, &e.Improvements); err != nil {
		return nil, fmt.Errorf("failed to decode improvements: %w", err)
	}
	return &e, nil
}

// CreateEvaluation inserts an answer evaluation and fills in its ID and timestamp
func (db *DB) CreateEvaluation(ctx context.Context, e *Evaluation) error {
	breakdownJSON, err := json.Marshal(e.Breakdown)
	if err != nil {
		return fmt.Errorf("failed to marshal breakdown: %w", err)
	}
	strengthsJSON, err := marshalList(e.Strengths)
	if err != nil {
		return fmt.Errorf("failed to marshal strengths: %w", err)
	}
	improvementsJSON, err := marshalList(e.Improvements)
	if err != nil {
		return fmt.Errorf("failed to marshal improvements: %w", err)
	}

	err = db.pool.QueryRow(ctx,
		`INSERT INTO evaluations (answer_id, score, breakdown, feedback, strengths, improvements, model_answer)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at`,
		e.AnswerID, e.Score, breakdownJSON, e.Feedback, strengthsJSON, improvementsJSON, e.ModelAnswer,
	).Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save evaluation: %w", err)
	}
	return nil
}

// ListEvaluations retrieves the evaluations of a session's answers
func (db *DB) ListEvaluations(ctx context.Context, sessionID uuid.UUID) ([]Evaluation, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+evaluationColumns+`
		 FROM evaluations e
		 JOIN user_answers a ON a.id = e.answer_id
		 WHERE a.session_id = $1
		 ORDER BY e.created_at ASC`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list evaluations: %w", err)
	}
	defer rows.Close()

	var evaluations []Evaluation
	for rows.Next() {
		e, err := scanEvaluation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan evaluation: %w", err)
		}
		evaluations = append(evaluations, *e)
	}
	return evaluations, rows.Err()
}
