package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jonathan/izzy/internal/types"
)

const resumeColumns = `id, user_id, raw_text, parsed_skills, experience, education, projects, is_active, created_at`

func scanResume(row rowScanner) (*Resume, error) {
	var r Resume
	var skillsJSON, experienceJSON, educationJSON, projectsJSON []byte
	if err := row.Scan(&r.ID, &r.UserID, &r.RawText, &skillsJSON, &experienceJSON, &educationJSON,
		&projectsJSON, &r.IsActive, &r.CreatedAt); err != nil {
		return nil, err
	}

	if err := unmarshalJSONB(skillsJSON, &r.ParsedSkills); err != nil {
		return nil, fmt.Errorf("failed to decode parsed_skills: %w", err)
	}
	if err := unmarshalJSONB(experienceJSON, &r.Experience); err != nil {
		return nil, fmt.Errorf("failed to decode experience: %w", err)
	}
	if err := unmarshalJSONB(educationJSON, &r.Education); err != nil {
		return nil, fmt.Errorf("failed to decode education: %w", err)
	}
	if err := unmarshalJSONB(projectsJSON, &r.Projects); err != nil {
		return nil, fmt.Errorf("failed to decode projects: %w", err)
	}
	return &r, nil
}

// SaveResume stores a parsed resume as the user's active resume. The previous
// active resume is deactivated in the same transaction.
func (db *DB) SaveResume(ctx context.Context, userID uuid.UUID, rawText string, parsed *types.StructuredResume) (*Resume, error) {
	skillsJSON, err := json.Marshal(parsed.ParsedSkills)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal parsed skills: %w", err)
	}
	experienceJSON, err := marshalList(parsed.Experience)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal experience: %w", err)
	}
	educationJSON, err := marshalList(parsed.Education)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal education: %w", err)
	}
	projectsJSON, err := marshalList(parsed.Projects)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal projects: %w", err)
	}

	var saved *Resume
	err = pgx.BeginFunc(ctx, db.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`UPDATE resumes SET is_active = FALSE WHERE user_id = $1 AND is_active`, userID); err != nil {
			return fmt.Errorf("failed to deactivate previous resume: %w", err)
		}

		r, err := scanResume(tx.QueryRow(ctx,
			`INSERT INTO resumes (user_id, raw_text, parsed_skills, experience, education, projects, is_active)
			 VALUES ($1, $2, $3, $4, $5, $6, TRUE)
			 RETURNING `+resumeColumns,
			userID, rawText, skillsJSON, experienceJSON, educationJSON, projectsJSON,
		))
		if err != nil {
			return fmt.Errorf("failed to insert resume: %w", err)
		}
		saved = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}

// GetResume retrieves a resume by ID
func (db *DB) GetResume(ctx context.Context, id uuid.UUID) (*Resume, error) {
	r, err := scanResume(db.pool.QueryRow(ctx,
		`SELECT `+resumeColumns+` FROM resumes WHERE id = $1`, id))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get resume: %w", err)
	}
	return r, nil
}

// GetActiveResume retrieves the user's active resume
func (db *DB) GetActiveResume(ctx context.Context, userID uuid.UUID) (*Resume, error) {
	r, err := scanResume(db.pool.QueryRow(ctx,
		`SELECT `+resumeColumns+` FROM resumes WHERE user_id = $1 AND is_active`, userID))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get active resume: %w", err)
	}
	return r, nil
}

// ListResumes retrieves a user's resumes, newest first
func (db *DB) ListResumes(ctx context.Context, userID uuid.UUID) ([]Resume, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+resumeColumns+` FROM resumes WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list resumes: %w", err)
	}
	defer rows.Close()

	var resumes []Resume
	for rows.Next() {
		r, err := scanResume(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan resume: %w", err)
		}
		resumes = append(resumes, *r)
	}
	return resumes, rows.Err()
}

// DeleteResume deletes a resume owned by userID. It reports whether a row was deleted.
func (db *DB) DeleteResume(ctx context.Context, id, userID uuid.UUID) (bool, error) {
	result, err := db.pool.Exec(ctx, `DELETE FROM resumes WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return false, fmt.Errorf("failed to delete resume: %w", err)
	}
	return result.RowsAffected() > 0, nil
}

// marshalList encodes a slice as a JSON array, never null.
func marshalList[T any](items []T) ([]byte, error) {
	if items == nil {
		items = []T{}
	}
	return json.Marshal(items)
}

func unmarshalJSONB(data []byte, v any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, v)
}
