package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

const jobPostingColumns = `id, user_id, title, COALESCE(company, ''), description, parsed_requirements, is_active, created_at`

func scanJobPosting(row rowScanner) (*JobPosting, error) {
	var p JobPosting
	var requirementsJSON []byte
	if err := row.Scan(&p.ID, &p.UserID, &p.Title, &p.Company, &p.Description, &requirementsJSON,
		&p.IsActive, &p.CreatedAt); err != nil {
		return nil, err
	}
	if err := unmarshalJSONB(requirementsJSON, &p.ParsedRequirements); err != nil {
		return nil, fmt.Errorf("failed to decode parsed_requirements: %w", err)
	}
	return &p, nil
}

// CreateJobPosting inserts a job posting and fills in its ID and timestamps
func (db *DB) CreateJobPosting(ctx context.Context, p *JobPosting) error {
	requirementsJSON, err := json.Marshal(p.ParsedRequirements)
	if err != nil {
		return fmt.Errorf("failed to marshal parsed requirements: %w", err)
	}

	var company *string
	if p.Company != "" {
		company = &p.Company
	}

	err = db.pool.QueryRow(ctx,
		`INSERT INTO job_postings (user_id, title, company, description, parsed_requirements, is_active)
		 VALUES ($1, $2, $3, $4, $5, TRUE)
		 RETURNING id, is_active, created_at`,
		p.UserID, p.Title, company, p.Description, requirementsJSON,
	).Scan(&p.ID, &p.IsActive, &p.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create job posting: %w", err)
	}
	return nil
}

// GetJobPosting retrieves a job posting by its ID
func (db *DB) GetJobPosting(ctx context.Context, id uuid.UUID) (*JobPosting, error) {
	p, err := scanJobPosting(db.pool.QueryRow(ctx,
		`SELECT `+jobPostingColumns+` FROM job_postings WHERE id = $1`, id))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get job posting: %w", err)
	}
	return p, nil
}

// ListJobPostings retrieves a user's job postings, newest first
func (db *DB) ListJobPostings(ctx context.Context, userID uuid.UUID) ([]JobPosting, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+jobPostingColumns+` FROM job_postings WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list job postings: %w", err)
	}
	defer rows.Close()

	var postings []JobPosting
	for rows.Next() {
		p, err := scanJobPosting(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job posting: %w", err)
		}
		postings = append(postings, *p)
	}
	return postings, rows.Err()
}

// DeleteJobPosting deletes a posting owned by userID together with its
// sessions, questions, answers and evaluations (via cascade).
func (db *DB) DeleteJobPosting(ctx context.Context, id, userID uuid.UUID) (bool, error) {
	result, err := db.pool.Exec(ctx, `DELETE FROM job_postings WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return false, fmt.Errorf("failed to delete job posting: %w", err)
	}
	return result.RowsAffected() > 0, nil
}
