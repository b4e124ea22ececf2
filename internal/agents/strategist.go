package agents

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"

	"github.com/jonathan/izzy/internal/db"
	"github.com/jonathan/izzy/internal/ingestion"
	"github.com/jonathan/izzy/internal/parsing"
	"github.com/jonathan/izzy/internal/prompts"
	"github.com/jonathan/izzy/internal/schemas"
	"github.com/jonathan/izzy/internal/types"
)

// untitledPosition is used when the job analysis does not name the role.
const untitledPosition = "Untitled Position"

// Strategist compares a resume with a job description and plans the interview.
type Strategist struct {
	deps Deps
}

// StrategyOutcome is what Analyze creates. Strategy is the assistant's reply
// as persisted on the session; JobAnalysis is the normalized reading of it.
type StrategyOutcome struct {
	SessionID    uuid.UUID         `json:"session_id"`
	JobPostingID uuid.UUID         `json:"job_posting_id"`
	JobAnalysis  types.JobAnalysis `json:"job_analysis"`
	Strategy     json.RawMessage   `json:"strategy"`
}

// Analyze produces a strategy for the caller's resume against jobDescription
// and persists the job posting, a planned session and its questions.
func (s *Strategist) Analyze(ctx context.Context, userID uuid.UUID, jobDescription string, resumeID uuid.UUID) Result[StrategyOutcome] {
	started := time.Now()
	d := s.deps

	if err := requireUser(userID); err != nil {
		return fail[StrategyOutcome](err)
	}
	if strings.TrimSpace(jobDescription) == "" {
		return fail[StrategyOutcome](&ValidationError{Message: "job description is required"})
	}
	if err := requireAssistant("ASSISTANT_STRATEGIST_ID", d.Assistants.Strategist); err != nil {
		return fail[StrategyOutcome](err)
	}

	resume, err := d.Store.GetResume(ctx, resumeID)
	if err != nil {
		return fail[StrategyOutcome](storageErr("failed to load resume", err))
	}
	if resume == nil || resume.UserID != userID {
		return fail[StrategyOutcome](&NotFoundError{Resource: "resume", ID: resumeID.String()})
	}
	if !resume.StructuredResume.IsComplete() {
		return fail[StrategyOutcome](&ValidationError{Message: "resume data incomplete"})
	}

	description, err := ingestion.PrepareJobDescription(jobDescription)
	if err != nil {
		return fail[StrategyOutcome](&ValidationError{Message: "failed to read job description: " + err.Error()})
	}

	resumeJSON, err := json.Marshal(resume.StructuredResume)
	if err != nil {
		return fail[StrategyOutcome](&ParseError{Message: "failed to encode resume", Cause: err})
	}
	prompt, err := prompts.Render(prompts.AnalyzeStrategy, map[string]string{
		"ResumeJSON":     string(resumeJSON),
		"JobDescription": description,
	})
	if err != nil {
		return fail[StrategyOutcome](&ConfigError{Setting: prompts.AnalyzeStrategy, Message: err.Error()})
	}

	_, reply, err := d.converse(ctx, d.Assistants.Strategist, prompt)
	if err != nil {
		d.Logger.Error("strategy analysis failed", slog.String("error", err.Error()))
		return fail[StrategyOutcome](err)
	}

	payload, err := decodeReply(reply, schemas.StrategyReply, nil)
	if err != nil {
		d.Logger.Warn("strategy reply unusable", slog.String("error", err.Error()))
		return fail[StrategyOutcome](err)
	}
	root := gjson.Parse(payload)
	analysis := readJobAnalysis(root.Get("job_analysis"))
	recommended := readRecommendedQuestions(root.Get("recommended_questions"))

	posting := &db.JobPosting{
		UserID:             userID,
		Title:              analysis.Title,
		Company:            analysis.Company,
		Description:        description,
		ParsedRequirements: analysis,
	}
	if err := d.Store.CreateJobPosting(ctx, posting); err != nil {
		return fail[StrategyOutcome](storageErr("failed to save job posting", err))
	}

	strategy := json.RawMessage(payload)
	session := &db.Session{
		UserID:       userID,
		ResumeID:     &resume.ID,
		JobPostingID: posting.ID,
		Strategy:     strategy,
		Status:       types.SessionPlanned,
	}
	if err := d.Store.CreateSession(ctx, session); err != nil {
		return fail[StrategyOutcome](storageErr("failed to create interview session", err))
	}

	if err := d.Store.InsertQuestions(ctx, plannedQuestions(session.ID, recommended)); err != nil {
		d.Logger.Error("failed to save recommended questions",
			slog.String("session_id", session.ID.String()),
			slog.String("error", err.Error()))
	}

	d.logAgent(ctx, db.AgentStrategist, &session.ID, description, describe(analysis), started)
	d.Logger.Info("strategy created",
		slog.String("session_id", session.ID.String()),
		slog.Int("questions", len(recommended)),
		slog.Duration("elapsed", time.Since(started)))

	return ok(StrategyOutcome{
		SessionID:    session.ID,
		JobPostingID: posting.ID,
		JobAnalysis:  analysis,
		Strategy:     strategy,
	})
}

// readJobAnalysis takes what it can from the job_analysis object. Fields of
// an unexpected shape read as empty.
func readJobAnalysis(v gjson.Result) types.JobAnalysis {
	title := scalar(v.Get("title"))
	if title == "" {
		title = untitledPosition
	}
	return types.JobAnalysis{
		Title:           title,
		Company:         scalar(v.Get("company")),
		RequiredSkills:  parsing.NormalizeRequirements(readRequirements(v.Get("required_skills"))),
		PreferredSkills: parsing.NormalizeRequirements(readRequirements(v.Get("preferred_skills"))),
		ExperienceLevel: scalar(v.Get("experience_level")),
	}
}

// readRequirements accepts both {skill, importance} objects and bare names.
func readRequirements(v gjson.Result) []types.SkillRequirement {
	var reqs []types.SkillRequirement
	for _, item := range v.Array() {
		if item.Type == gjson.String {
			reqs = append(reqs, types.SkillRequirement{Skill: item.String()})
			continue
		}
		reqs = append(reqs, types.SkillRequirement{
			Skill:      scalar(item.Get("skill")),
			Importance: types.Importance(scalar(item.Get("importance"))),
		})
	}
	return reqs
}

func readRecommendedQuestions(v gjson.Result) []types.RecommendedQuestion {
	var out []types.RecommendedQuestion
	for _, item := range v.Array() {
		text := scalar(item.Get("question"))
		if text == "" {
			continue
		}
		out = append(out, types.RecommendedQuestion{
			Question:     text,
			Type:         types.QuestionType(scalar(item.Get("type"))).Normalize(),
			RelatedSkill: scalar(item.Get("related_skill")),
			Difficulty:   scalar(item.Get("difficulty")),
			FocusArea:    scalar(item.Get("focus_area")),
		})
	}
	return out
}

// scalar is the trimmed text of a string or number; anything else is empty.
func scalar(v gjson.Result) string {
	switch v.Type {
	case gjson.String, gjson.Number:
		return strings.TrimSpace(v.String())
	}
	return ""
}

// plannedQuestions numbers the recommended questions from 1 in the order given.
func plannedQuestions(sessionID uuid.UUID, questions []types.RecommendedQuestion) []db.QuestionInput {
	inputs := make([]db.QuestionInput, 0, len(questions))
	for i, q := range questions {
		inputs = append(inputs, db.QuestionInput{
			SessionID:    sessionID,
			Text:         q.Question,
			Type:         q.Type,
			RelatedSkill: q.RelatedSkill,
			Difficulty:   q.Difficulty,
			FocusArea:    q.FocusArea,
			Source:       types.SourceStrategist,
			Order:        i + 1,
		})
	}
	return inputs
}
