package agents

import (
	"context"

	"github.com/google/uuid"

	"github.com/jonathan/izzy/internal/db"
	"github.com/jonathan/izzy/internal/types"
)

// Store is the persistence the agents need. *db.DB implements it.
type Store interface {
	SaveResume(ctx context.Context, userID uuid.UUID, rawText string, parsed *types.StructuredResume) (*db.Resume, error)
	GetResume(ctx context.Context, id uuid.UUID) (*db.Resume, error)
	GetActiveResume(ctx context.Context, userID uuid.UUID) (*db.Resume, error)
	ListResumes(ctx context.Context, userID uuid.UUID) ([]db.Resume, error)
	DeleteResume(ctx context.Context, id, userID uuid.UUID) (bool, error)

	CreateJobPosting(ctx context.Context, p *db.JobPosting) error
	GetJobPosting(ctx context.Context, id uuid.UUID) (*db.JobPosting, error)
	DeleteJobPosting(ctx context.Context, id, userID uuid.UUID) (bool, error)

	CreateSession(ctx context.Context, s *db.Session) error
	GetSession(ctx context.Context, id uuid.UUID) (*db.Session, error)
	ListSessions(ctx context.Context, userID uuid.UUID) ([]db.SessionSummary, error)
	SetSessionThread(ctx context.Context, id uuid.UUID, threadID string) error
	AdvanceSessionStatus(ctx context.Context, id uuid.UUID, status types.SessionStatus) (bool, error)

	InsertQuestion(ctx context.Context, in db.QuestionInput) (uuid.UUID, bool, error)
	InsertQuestions(ctx context.Context, inputs []db.QuestionInput) error
	GetQuestion(ctx context.Context, id uuid.UUID) (*db.Question, error)
	ListQuestions(ctx context.Context, sessionID uuid.UUID) ([]db.Question, error)

	CreateAnswer(ctx context.Context, a *db.Answer) error
	GetAnswer(ctx context.Context, id uuid.UUID) (*db.Answer, error)
	ListAnswers(ctx context.Context, sessionID uuid.UUID) ([]db.Answer, error)

	CreateEvaluation(ctx context.Context, e *db.Evaluation) error
	ListEvaluations(ctx context.Context, sessionID uuid.UUID) ([]db.Evaluation, error)

	LogAgent(ctx context.Context, l *db.AgentLog) error
}

var _ Store = (*db.DB)(nil)
