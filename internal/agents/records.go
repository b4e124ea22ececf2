package agents

import (
	"context"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/izzy/internal/db"
)

// Records exposes the caller's stored resumes and sessions.
type Records struct {
	deps Deps
}

// SessionDetail is a session with everything recorded under it.
type SessionDetail struct {
	Session     *db.Session     `json:"session"`
	JobPosting  *db.JobPosting  `json:"job_posting,omitempty"`
	Questions   []db.Question   `json:"questions"`
	Answers     []db.Answer     `json:"answers"`
	Evaluations []db.Evaluation `json:"evaluations"`
}

// ListResumes returns the caller's resumes, newest first.
func (r *Records) ListResumes(ctx context.Context, userID uuid.UUID) Result[[]db.Resume] {
	if err := requireUser(userID); err != nil {
		return fail[[]db.Resume](err)
	}
	resumes, err := r.deps.Store.ListResumes(ctx, userID)
	if err != nil {
		return fail[[]db.Resume](storageErr("failed to list resumes", err))
	}
	if resumes == nil {
		resumes = []db.Resume{}
	}
	return ok(resumes)
}

// ActiveResume returns the caller's active resume.
func (r *Records) ActiveResume(ctx context.Context, userID uuid.UUID) Result[*db.Resume] {
	if err := requireUser(userID); err != nil {
		return fail[*db.Resume](err)
	}
	resume, err := r.deps.Store.GetActiveResume(ctx, userID)
	if err != nil {
		return fail[*db.Resume](storageErr("failed to load active resume", err))
	}
	if resume == nil {
		return fail[*db.Resume](&NotFoundError{Resource: "active resume"})
	}
	return ok(resume)
}

// DeleteResume removes one of the caller's resumes.
func (r *Records) DeleteResume(ctx context.Context, userID, resumeID uuid.UUID) Result[Empty] {
	if err := requireUser(userID); err != nil {
		return fail[Empty](err)
	}
	deleted, err := r.deps.Store.DeleteResume(ctx, resumeID, userID)
	if err != nil {
		return fail[Empty](storageErr("failed to delete resume", err))
	}
	if !deleted {
		return fail[Empty](&NotFoundError{Resource: "resume", ID: resumeID.String()})
	}
	return ok(Empty{})
}

// DeleteJobPosting removes one of the caller's job postings along with its
// sessions, questions, answers and evaluations.
func (r *Records) DeleteJobPosting(ctx context.Context, userID, postingID uuid.UUID) Result[Empty] {
	if err := requireUser(userID); err != nil {
		return fail[Empty](err)
	}
	deleted, err := r.deps.Store.DeleteJobPosting(ctx, postingID, userID)
	if err != nil {
		return fail[Empty](storageErr("failed to delete job posting", err))
	}
	if !deleted {
		return fail[Empty](&NotFoundError{Resource: "job posting", ID: postingID.String()})
	}
	return ok(Empty{})
}

// ListSessions returns summaries of the caller's sessions.
func (r *Records) ListSessions(ctx context.Context, userID uuid.UUID) Result[[]db.SessionSummary] {
	if err := requireUser(userID); err != nil {
		return fail[[]db.SessionSummary](err)
	}
	sessions, err := r.deps.Store.ListSessions(ctx, userID)
	if err != nil {
		return fail[[]db.SessionSummary](storageErr("failed to list sessions", err))
	}
	if sessions == nil {
		sessions = []db.SessionSummary{}
	}
	return ok(sessions)
}

// SessionDetail loads one of the caller's sessions with its posting,
// questions, answers and evaluations.
func (r *Records) SessionDetail(ctx context.Context, userID, sessionID uuid.UUID) Result[SessionDetail] {
	if err := requireUser(userID); err != nil {
		return fail[SessionDetail](err)
	}
	store := r.deps.Store
	session, err := ownedSession(ctx, store, userID, sessionID)
	if err != nil {
		return fail[SessionDetail](err)
	}

	detail := SessionDetail{Session: session}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := store.GetJobPosting(gctx, session.JobPostingID)
		if err != nil {
			return storageErr("failed to load job posting", err)
		}
		detail.JobPosting = p
		return nil
	})
	g.Go(func() error {
		qs, err := store.ListQuestions(gctx, sessionID)
		if err != nil {
			return storageErr("failed to load questions", err)
		}
		detail.Questions = qs
		return nil
	})
	g.Go(func() error {
		as, err := store.ListAnswers(gctx, sessionID)
		if err != nil {
			return storageErr("failed to load answers", err)
		}
		detail.Answers = as
		return nil
	})
	g.Go(func() error {
		es, err := store.ListEvaluations(gctx, sessionID)
		if err != nil {
			return storageErr("failed to load evaluations", err)
		}
		detail.Evaluations = es
		return nil
	})
	if err := g.Wait(); err != nil {
		return fail[SessionDetail](err)
	}
	return ok(detail)
}
