package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/jonathan/izzy/internal/types"
)

const sessionColumns = `id, user_id, resume_id, job_posting_id, strategy, status, COALESCE(thread_id, ''), created_at, updated_at`

// statusRankSQL orders session statuses so updates can only move forward.
const statusRankSQL = `CASE %s WHEN 'planned' THEN 0 WHEN 'in_progress' THEN 1 WHEN 'completed' THEN 2 END`

func scanSession(row rowScanner) (*Session, error) {
	var s Session
	var strategyJSON []byte
	var status string
	if err := row.Scan(&s.ID, &s.UserID, &s.ResumeID, &s.JobPostingID, &strategyJSON, &status,
		&s.ThreadID, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	s.Status = types.SessionStatus(status)
	s.Strategy = json.RawMessage(strategyJSON)
	return &s, nil
}

// CreateSession inserts an interview session in the planned status and fills
// in its ID and timestamps
func (db *DB) CreateSession(ctx context.Context, s *Session) error {
	strategyJSON := s.Strategy
	if len(strategyJSON) == 0 {
		strategyJSON = json.RawMessage(`{}`)
	} else if !json.Valid(strategyJSON) {
		return fmt.Errorf("failed to create interview session: strategy is not valid JSON")
	}

	if s.Status == "" {
		s.Status = types.SessionPlanned
	}
	err := db.pool.QueryRow(ctx,
		`INSERT INTO interview_sessions (user_id, resume_id, job_posting_id, strategy, status)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at, updated_at`,
		s.UserID, s.ResumeID, s.JobPostingID, []byte(strategyJSON), string(s.Status),
	).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create interview session: %w", err)
	}
	return nil
}

// GetSession retrieves an interview session by ID
func (db *DB) GetSession(ctx context.Context, id uuid.UUID) (*Session, error) {
	s, err := scanSession(db.pool.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM interview_sessions WHERE id = $1`, id))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get interview session: %w", err)
	}
	return s, nil
}

// ListSessions retrieves a user's sessions with their job title and progress counts
func (db *DB) ListSessions(ctx context.Context, userID uuid.UUID) ([]SessionSummary, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT s.id, s.status, s.job_posting_id, jp.title, COALESCE(jp.company, ''),
		        (SELECT COUNT(*) FROM interview_questions q WHERE q.session_id = s.id),
		        (SELECT COUNT(*) FROM user_answers a WHERE a.session_id = s.id),
		        s.created_at, s.updated_at
		 FROM interview_sessions s
		 JOIN job_postings jp ON jp.id = s.job_posting_id
		 WHERE s.user_id = $1
		 ORDER BY s.created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list interview sessions: %w", err)
	}
	defer rows.Close()

	var sessions []SessionSummary
	for rows.Next() {
		var s SessionSummary
		var status string
		if err := rows.Scan(&s.ID, &status, &s.JobPostingID, &s.JobTitle, &s.Company,
			&s.QuestionCount, &s.AnswerCount, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan interview session: %w", err)
		}
		s.Status = types.SessionStatus(status)
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

// SetSessionThread records the assistant thread that carries the session's conversation
func (db *DB) SetSessionThread(ctx context.Context, id uuid.UUID, threadID string) error {
	result, err := db.pool.Exec(ctx,
		`UPDATE interview_sessions SET thread_id = $2, updated_at = NOW() WHERE id = $1`,
		id, threadID,
	)
	if err != nil {
		return fmt.Errorf("failed to set session thread: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("interview session not found: %s", id)
	}
	return nil
}

// AdvanceSessionStatus moves a session to status only if that is a forward
// transition. It reports whether the row changed.
func (db *DB) AdvanceSessionStatus(ctx context.Context, id uuid.UUID, status types.SessionStatus) (bool, error) {
	if !status.Valid() {
		return false, fmt.Errorf("invalid session status: %q", status)
	}
	result, err := db.pool.Exec(ctx,
		`UPDATE interview_sessions SET status = $2, updated_at = NOW()
		 WHERE id = $1 AND `+fmt.Sprintf(statusRankSQL, "status")+` < `+fmt.Sprintf(statusRankSQL, "$2::text"),
		id, string(status),
	)
	if err != nil {
		return false, fmt.Errorf("failed to update session status: %w", err)
	}
	return result.RowsAffected() > 0, nil
}
