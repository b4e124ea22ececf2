package agents

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/izzy/internal/db"
	"github.com/jonathan/izzy/internal/locks"
	"github.com/jonathan/izzy/internal/prompts"
	"github.com/jonathan/izzy/internal/schemas"
	"github.com/jonathan/izzy/internal/types"
)

// Interviewer conducts the mock interview one turn at a time over a provider thread.
type Interviewer struct {
	deps Deps
}

// TurnOutcome is the result of one interviewer turn.
type TurnOutcome struct {
	Message           string                `json:"message"`
	ReactionType      types.ReactionType    `json:"reaction_type"`
	CurrentQuestionID *uuid.UUID            `json:"current_question_id,omitempty"`
	InterviewStatus   types.InterviewStatus `json:"interview_status"`
	IsComplete        bool                  `json:"is_complete"`
	ThreadID          string                `json:"thread_id"`
}

type interviewContext struct {
	JobTitle           string            `json:"job_title"`
	Company            string            `json:"company,omitempty"`
	JobDescription     string            `json:"job_description"`
	Requirements       types.JobAnalysis `json:"requirements"`
	Strategy           json.RawMessage   `json:"strategy"`
	Questions          []contextQuestion `json:"questions"`
	IsFirstInteraction bool              `json:"is_first_interaction"`
}

type contextQuestion struct {
	Order        int                `json:"order"`
	Question     string             `json:"question"`
	Type         types.QuestionType `json:"type"`
	RelatedSkill string             `json:"related_skill,omitempty"`
	FocusArea    string             `json:"focus_area,omitempty"`
}

// Start opens the interview thread for a session and returns the greeting turn.
func (iv *Interviewer) Start(ctx context.Context, userID, sessionID uuid.UUID) Result[TurnOutcome] {
	started := time.Now()
	d := iv.deps

	if err := requireUser(userID); err != nil {
		return fail[TurnOutcome](err)
	}
	if err := requireAssistant("ASSISTANT_INTERVIEWER_ID", d.Assistants.Interviewer); err != nil {
		return fail[TurnOutcome](err)
	}

	release, err := iv.lock(ctx, sessionID)
	if err != nil {
		return fail[TurnOutcome](err)
	}
	defer release()

	session, err := iv.ownedSession(ctx, userID, sessionID)
	if err != nil {
		return fail[TurnOutcome](err)
	}
	if session.Status == types.SessionCompleted {
		return fail[TurnOutcome](&ValidationError{Message: "interview already completed"})
	}

	var (
		questions []db.Question
		posting   *db.JobPosting
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		questions, err = d.Store.ListQuestions(gctx, sessionID)
		if err != nil {
			return storageErr("failed to load questions", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		posting, err = d.Store.GetJobPosting(gctx, session.JobPostingID)
		if err != nil {
			return storageErr("failed to load job posting", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return fail[TurnOutcome](err)
	}
	if len(questions) == 0 {
		return fail[TurnOutcome](&ValidationError{Message: "no interview questions found"})
	}
	if posting == nil {
		return fail[TurnOutcome](&NotFoundError{Resource: "job posting", ID: session.JobPostingID.String()})
	}

	prompt, err := prompts.Render(prompts.InterviewStart, map[string]string{
		"Context": describe(buildInterviewContext(session, posting, questions)),
	})
	if err != nil {
		return fail[TurnOutcome](&ConfigError{Setting: prompts.InterviewStart, Message: err.Error()})
	}

	threadID, err := d.Provider.CreateThread(ctx)
	if err != nil {
		return fail[TurnOutcome](&ProviderError{Op: "failed to create thread", Cause: err})
	}
	if err := d.Store.SetSessionThread(ctx, sessionID, threadID); err != nil {
		return fail[TurnOutcome](storageErr("failed to store session thread", err))
	}

	raw, err := d.exchange(ctx, threadID, d.Assistants.Interviewer, prompt)
	if err != nil {
		d.Logger.Error("interview start failed",
			slog.String("session_id", sessionID.String()),
			slog.String("error", err.Error()))
		return fail[TurnOutcome](err)
	}

	outcome, err := iv.applyReply(ctx, sessionID, raw, 1, nil)
	if err != nil {
		return fail[TurnOutcome](err)
	}
	outcome.ThreadID = threadID

	d.logAgent(ctx, db.AgentInterviewer, &sessionID, "start", outcome.Message, started)
	return ok(*outcome)
}

// Continue sends the candidate's answer on the session thread and returns the
// interviewer's next turn. When currentQuestionID is set the answer is stored
// against that question first. An empty threadID uses the session's thread.
func (iv *Interviewer) Continue(ctx context.Context, userID, sessionID uuid.UUID, threadID, answer string, currentQuestionID *uuid.UUID) Result[TurnOutcome] {
	started := time.Now()
	d := iv.deps

	if err := requireUser(userID); err != nil {
		return fail[TurnOutcome](err)
	}
	if strings.TrimSpace(answer) == "" {
		return fail[TurnOutcome](&ValidationError{Message: "answer is required"})
	}
	if err := requireAssistant("ASSISTANT_INTERVIEWER_ID", d.Assistants.Interviewer); err != nil {
		return fail[TurnOutcome](err)
	}

	release, err := iv.lock(ctx, sessionID)
	if err != nil {
		return fail[TurnOutcome](err)
	}
	defer release()

	session, err := iv.ownedSession(ctx, userID, sessionID)
	if err != nil {
		return fail[TurnOutcome](err)
	}
	if session.Status == types.SessionCompleted {
		return fail[TurnOutcome](&ValidationError{Message: "interview already completed"})
	}
	switch {
	case session.ThreadID == "":
		return fail[TurnOutcome](&ValidationError{Message: "interview has not been started"})
	case threadID == "":
		threadID = session.ThreadID
	case threadID != session.ThreadID:
		return fail[TurnOutcome](&ValidationError{Message: "thread does not belong to this session"})
	}

	if currentQuestionID != nil {
		q, err := d.Store.GetQuestion(ctx, *currentQuestionID)
		if err != nil {
			return fail[TurnOutcome](storageErr("failed to load question", err))
		}
		if q == nil || q.SessionID != sessionID {
			return fail[TurnOutcome](&NotFoundError{Resource: "question", ID: currentQuestionID.String()})
		}
		if err := d.Store.CreateAnswer(ctx, &db.Answer{
			QuestionID: q.ID,
			SessionID:  sessionID,
			UserID:     userID,
			Text:       answer,
		}); err != nil {
			return fail[TurnOutcome](storageErr("failed to save answer", err))
		}
	}

	raw, err := d.exchange(ctx, threadID, d.Assistants.Interviewer, answer)
	if err != nil {
		d.Logger.Error("interview turn failed",
			slog.String("session_id", sessionID.String()),
			slog.String("error", err.Error()))
		return fail[TurnOutcome](err)
	}

	outcome, err := iv.applyReply(ctx, sessionID, raw, -1, currentQuestionID)
	if err != nil {
		return fail[TurnOutcome](err)
	}
	outcome.ThreadID = threadID

	d.logAgent(ctx, db.AgentInterviewer, &sessionID, answer, outcome.Message, started)
	return ok(*outcome)
}

// applyReply decodes an interviewer reply, advances the session status and
// records the next question. order is the question_order for a new question;
// a negative order derives it from the reply's current_question_index.
func (iv *Interviewer) applyReply(ctx context.Context, sessionID uuid.UUID, raw string, order int, currentQuestionID *uuid.UUID) (*TurnOutcome, error) {
	d := iv.deps

	var reply types.InterviewerReply
	if _, err := decodeReply(raw, schemas.InterviewerReply, &reply); err != nil {
		d.Logger.Warn("interviewer reply unusable",
			slog.String("session_id", sessionID.String()),
			slog.String("error", err.Error()))
		return nil, err
	}
	reply.InterviewStatus.ClampCompletion()
	if reply.ReactionType == "" {
		reply.ReactionType = types.ReactionAcknowledgment
	}

	outcome := &TurnOutcome{
		Message:           reply.Message,
		ReactionType:      reply.ReactionType,
		CurrentQuestionID: currentQuestionID,
		InterviewStatus:   reply.InterviewStatus,
	}

	if reply.IsConclusion() {
		if _, err := d.Store.AdvanceSessionStatus(ctx, sessionID, types.SessionCompleted); err != nil {
			return nil, storageErr("failed to complete session", err)
		}
		outcome.IsComplete = true
		outcome.CurrentQuestionID = nil
		return outcome, nil
	}

	if _, err := d.Store.AdvanceSessionStatus(ctx, sessionID, types.SessionInProgress); err != nil {
		return nil, storageErr("failed to update session status", err)
	}

	if reply.HasNextQuestion() {
		if order < 0 {
			order = reply.InterviewStatus.CurrentQuestionIndex + 1
		}
		nq := reply.NextQuestion
		id, _, err := d.Store.InsertQuestion(ctx, db.QuestionInput{
			SessionID:    sessionID,
			Text:         strings.TrimSpace(nq.Question),
			Type:         nq.Type,
			RelatedSkill: nq.RelatedSkill,
			Difficulty:   nq.Difficulty,
			FocusArea:    nq.FocusArea,
			Source:       types.SourceInterviewer,
			Order:        order,
		})
		if err != nil {
			return nil, storageErr("failed to save question", err)
		}
		outcome.CurrentQuestionID = &id
	}
	return outcome, nil
}

func (iv *Interviewer) lock(ctx context.Context, sessionID uuid.UUID) (func(), error) {
	release, err := iv.deps.Locker.Acquire(ctx, locks.SessionKey(sessionID.String()))
	if err != nil {
		if errors.Is(err, locks.ErrBusy) {
			return nil, &ValidationError{Message: "a turn for this session is already in progress"}
		}
		if ctx.Err() != nil {
			return nil, &TimeoutError{Cause: err}
		}
		return nil, storageErr("failed to acquire session lock", err)
	}
	return release, nil
}

func (iv *Interviewer) ownedSession(ctx context.Context, userID, sessionID uuid.UUID) (*db.Session, error) {
	return ownedSession(ctx, iv.deps.Store, userID, sessionID)
}

func ownedSession(ctx context.Context, store Store, userID, sessionID uuid.UUID) (*db.Session, error) {
	session, err := store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, storageErr("failed to load session", err)
	}
	if session == nil || session.UserID != userID {
		return nil, &NotFoundError{Resource: "interview session", ID: sessionID.String()}
	}
	return session, nil
}

func buildInterviewContext(session *db.Session, posting *db.JobPosting, questions []db.Question) interviewContext {
	ctxQuestions := make([]contextQuestion, 0, len(questions))
	for _, q := range questions {
		ctxQuestions = append(ctxQuestions, contextQuestion{
			Order:        q.Order,
			Question:     q.Text,
			Type:         q.Type,
			RelatedSkill: q.RelatedSkill,
			FocusArea:    q.FocusArea,
		})
	}
	return interviewContext{
		JobTitle:           posting.Title,
		Company:            posting.Company,
		JobDescription:     posting.Description,
		Requirements:       posting.ParsedRequirements,
		Strategy:           session.Strategy,
		Questions:          ctxQuestions,
		IsFirstInteraction: true,
	}
}
