package agents

import (
	"context"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"

	"github.com/jonathan/izzy/internal/db"
	"github.com/jonathan/izzy/internal/llm"
	"github.com/jonathan/izzy/internal/prompts"
	"github.com/jonathan/izzy/internal/schemas"
	"github.com/jonathan/izzy/internal/types"
)

// Evaluator scores a single answer with a one-shot model call.
type Evaluator struct {
	deps Deps
}

// EvaluateRequest identifies the answer to score. AnswerID refers to an
// answer that is already stored; without it the answer text is stored too.
type EvaluateRequest struct {
	SessionID  uuid.UUID
	QuestionID uuid.UUID
	AnswerText string
	AnswerID   *uuid.UUID
}

// EvaluationOutcome is the stored evaluation and the answer it scores.
type EvaluationOutcome struct {
	AnswerID   uuid.UUID             `json:"answer_id"`
	Evaluation types.EvaluationReply `json:"evaluation"`
	StoredID   uuid.UUID             `json:"evaluation_id"`
}

// Evaluate scores the answer to one of the caller's session questions.
// Nothing is stored unless the model reply is usable.
func (e *Evaluator) Evaluate(ctx context.Context, userID uuid.UUID, req EvaluateRequest) Result[EvaluationOutcome] {
	started := time.Now()
	d := e.deps

	if err := requireUser(userID); err != nil {
		return fail[EvaluationOutcome](err)
	}
	if d.LLM == nil {
		return fail[EvaluationOutcome](&ConfigError{Setting: "GEMINI_API_KEY", Message: "evaluator model is not configured"})
	}

	session, err := ownedSession(ctx, d.Store, userID, req.SessionID)
	if err != nil {
		return fail[EvaluationOutcome](err)
	}
	question, err := d.Store.GetQuestion(ctx, req.QuestionID)
	if err != nil {
		return fail[EvaluationOutcome](storageErr("failed to load question", err))
	}
	if question == nil || question.SessionID != session.ID {
		return fail[EvaluationOutcome](&NotFoundError{Resource: "question", ID: req.QuestionID.String()})
	}

	answerText := req.AnswerText
	if req.AnswerID != nil {
		answer, err := d.Store.GetAnswer(ctx, *req.AnswerID)
		if err != nil {
			return fail[EvaluationOutcome](storageErr("failed to load answer", err))
		}
		if answer == nil || answer.SessionID != session.ID || answer.QuestionID != question.ID {
			return fail[EvaluationOutcome](&NotFoundError{Resource: "answer", ID: req.AnswerID.String()})
		}
		answerText = answer.Text
	}
	if strings.TrimSpace(answerText) == "" {
		return fail[EvaluationOutcome](&ValidationError{Message: "answer is required"})
	}

	posting, err := d.Store.GetJobPosting(ctx, session.JobPostingID)
	if err != nil {
		return fail[EvaluationOutcome](storageErr("failed to load job posting", err))
	}
	jobTitle, jobDescription := untitledPosition, ""
	if posting != nil {
		jobTitle, jobDescription = posting.Title, posting.Description
	}

	prompt, err := buildEvaluationPrompt(jobTitle, jobDescription, question.Text, answerText)
	if err != nil {
		return fail[EvaluationOutcome](&ConfigError{Setting: prompts.EvaluateAnswer, Message: err.Error()})
	}

	raw, err := d.LLM.GenerateJSON(ctx, prompt, llm.TierAdvanced)
	if err != nil {
		d.Logger.Error("answer evaluation failed",
			slog.String("session_id", session.ID.String()),
			slog.String("error", err.Error()))
		if ctx.Err() != nil {
			return fail[EvaluationOutcome](&TimeoutError{Cause: err})
		}
		return fail[EvaluationOutcome](&ProviderError{Op: "evaluator model call failed", Cause: err})
	}

	payload, err := decodeReply(raw, schemas.EvaluationReply, nil)
	if err != nil {
		return fail[EvaluationOutcome](err)
	}
	reply := readEvaluation(payload)

	answerID := uuid.Nil
	if req.AnswerID != nil {
		answerID = *req.AnswerID
	} else {
		answer := &db.Answer{
			QuestionID: question.ID,
			SessionID:  session.ID,
			UserID:     userID,
			Text:       answerText,
		}
		if err := d.Store.CreateAnswer(ctx, answer); err != nil {
			return fail[EvaluationOutcome](storageErr("failed to save answer", err))
		}
		answerID = answer.ID
	}

	stored := &db.Evaluation{
		AnswerID:     answerID,
		Score:        reply.Score,
		Breakdown:    reply.Breakdown,
		Feedback:     reply.Feedback,
		Strengths:    reply.Strengths,
		Improvements: reply.Improvements,
		ModelAnswer:  reply.ModelAnswer,
	}
	if err := d.Store.CreateEvaluation(ctx, stored); err != nil {
		return fail[EvaluationOutcome](storageErr("failed to save evaluation", err))
	}

	d.logAgent(ctx, db.AgentEvaluator, &session.ID, answerText, reply.Feedback, started)
	d.Logger.Info("answer evaluated",
		slog.String("session_id", session.ID.String()),
		slog.Int("score", reply.Score),
		slog.Duration("elapsed", time.Since(started)))

	return ok(EvaluationOutcome{AnswerID: answerID, Evaluation: reply, StoredID: stored.ID})
}

func buildEvaluationPrompt(jobTitle, jobDescription, question, answer string) (string, error) {
	preamble, err := prompts.Render(prompts.EvaluateAnswer, map[string]string{"JobTitle": jobTitle})
	if err != nil {
		return "", err
	}
	schema := llm.AnswerEvaluationSchema()
	schema.Description = preamble

	inputs := make([]llm.InputSection, 0, 3)
	if jobDescription != "" {
		inputs = append(inputs, llm.InputSection{Label: "Job description", Text: jobDescription})
	}
	inputs = append(inputs,
		llm.InputSection{Label: "Question", Text: question},
		llm.InputSection{Label: "Answer", Text: answer},
	)
	return llm.BuildExtractionPrompt(schema, inputs...), nil
}

// readEvaluation decodes an evaluation reply. Models sometimes return
// fractional scores, so numbers are rounded before clamping.
func readEvaluation(payload string) types.EvaluationReply {
	root := gjson.Parse(payload)
	reply := types.EvaluationReply{
		Score: roundScore(root.Get("score")),
		Breakdown: types.ScoreBreakdown{
			Relevance: roundScore(root.Get("breakdown.relevance")),
			Depth:     roundScore(root.Get("breakdown.depth")),
			Clarity:   roundScore(root.Get("breakdown.clarity")),
			Structure: roundScore(root.Get("breakdown.structure")),
		},
		Feedback:     strings.TrimSpace(root.Get("feedback").String()),
		Strengths:    textList(root.Get("strengths")),
		Improvements: textList(root.Get("improvements")),
		ModelAnswer:  strings.TrimSpace(root.Get("model_answer").String()),
	}
	reply.Clamp()
	return reply
}

func roundScore(v gjson.Result) int {
	if !v.Exists() {
		return 0
	}
	return int(math.Round(v.Float()))
}

func textList(v gjson.Result) []string {
	out := []string{}
	for _, item := range v.Array() {
		if s := strings.TrimSpace(item.String()); s != "" {
			out = append(out, s)
		}
	}
	return out
}
