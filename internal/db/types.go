package db

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/izzy/internal/types"
)

// User represents an account. Anonymous users have no email or password.
type User struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email,omitempty"`
	PasswordHash string    `json:"-"` // Never serialize to JSON
	PasswordSet  bool      `json:"password_set"`
	IsAnonymous  bool      `json:"is_anonymous"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Resume is a stored resume with its parsed structure.
type Resume struct {
	ID      uuid.UUID `json:"id"`
	UserID  uuid.UUID `json:"user_id"`
	RawText string    `json:"raw_text"`
	types.StructuredResume
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// JobPosting is a pasted job description and its analysis.
type JobPosting struct {
	ID                 uuid.UUID         `json:"id"`
	UserID             uuid.UUID         `json:"user_id"`
	Title              string            `json:"title"`
	Company            string            `json:"company,omitempty"`
	Description        string            `json:"description"`
	ParsedRequirements types.JobAnalysis `json:"parsed_requirements"`
	IsActive           bool              `json:"is_active"`
	CreatedAt          time.Time         `json:"created_at"`
}

// Session is an interview session. Strategy holds the strategist reply as
// it was received.
type Session struct {
	ID           uuid.UUID           `json:"id"`
	UserID       uuid.UUID           `json:"user_id"`
	ResumeID     *uuid.UUID          `json:"resume_id,omitempty"`
	JobPostingID uuid.UUID           `json:"job_posting_id"`
	Strategy     json.RawMessage     `json:"strategy"`
	Status       types.SessionStatus `json:"status"`
	ThreadID     string              `json:"thread_id,omitempty"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at"`
}

// SessionSummary is a session listing row.
type SessionSummary struct {
	ID            uuid.UUID           `json:"id"`
	Status        types.SessionStatus `json:"status"`
	JobPostingID  uuid.UUID           `json:"job_posting_id"`
	JobTitle      string              `json:"job_title"`
	Company       string              `json:"company,omitempty"`
	QuestionCount int                 `json:"question_count"`
	AnswerCount   int                 `json:"answer_count"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

// Question is an interview question within a session.
type Question struct {
	ID           uuid.UUID            `json:"id"`
	SessionID    uuid.UUID            `json:"session_id"`
	Text         string               `json:"question_text"`
	Type         types.QuestionType   `json:"question_type"`
	RelatedSkill string               `json:"related_skill,omitempty"`
	Difficulty   string               `json:"difficulty,omitempty"`
	FocusArea    string               `json:"focus_area,omitempty"`
	Source       types.QuestionSource `json:"source"`
	Order        int                  `json:"question_order"`
	CreatedAt    time.Time            `json:"created_at"`
}

// QuestionInput holds the fields for inserting a question.
type QuestionInput struct {
	SessionID    uuid.UUID
	Text         string
	Type         types.QuestionType
	RelatedSkill string
	Difficulty   string
	FocusArea    string
	Source       types.QuestionSource
	Order        int
}

// Answer is a user's answer to one question.
type Answer struct {
	ID         uuid.UUID `json:"id"`
	QuestionID uuid.UUID `json:"question_id"`
	SessionID  uuid.UUID `json:"session_id"`
	UserID     uuid.UUID `json:"user_id"`
	Text       string    `json:"answer_text"`
	CreatedAt  time.Time `json:"created_at"`
}

// Evaluation is the stored feedback for one answer.
type Evaluation struct {
	ID           uuid.UUID            `json:"id"`
	AnswerID     uuid.UUID            `json:"answer_id"`
	Score        int                  `json:"score"`
	Breakdown    types.ScoreBreakdown `json:"breakdown"`
	Feedback     string               `json:"feedback"`
	Strengths    []string             `json:"strengths"`
	Improvements []string             `json:"improvements"`
	ModelAnswer  string               `json:"model_answer"`
	CreatedAt    time.Time            `json:"created_at"`
}

// Agent types recorded in agent logs.
const (
	AgentResumeParser = "resume_parser"
	AgentStrategist   = "strategist"
	AgentInterviewer  = "interviewer"
	AgentEvaluator    = "evaluator"
)

// AgentLog is an append-only audit record of one agent call.
type AgentLog struct {
	ID               uuid.UUID  `json:"id"`
	AgentType        string     `json:"agent_type"`
	SessionID        *uuid.UUID `json:"session_id,omitempty"`
	InputSummary     string     `json:"input_summary"`
	OutputSummary    string     `json:"output_summary"`
	ProcessingTimeMs int64      `json:"processing_time_ms"`
	CreatedAt        time.Time  `json:"created_at"`
}
