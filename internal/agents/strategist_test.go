package agents

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/jonathan/izzy/internal/db"
	"github.com/jonathan/izzy/internal/types"
)

const strategyReply = "```json\n" + `{
  "job_analysis": {
    "title": "Senior Go Engineer",
    "company": "Globex",
    "required_skills": [{"skill": "golang", "importance": "high"}, {"skill": "Go", "importance": "medium"}, {"skill": "k8s", "importance": "critical"}],
    "preferred_skills": [],
    "experience_level": "senior"
  },
  "skills_mapping": {"strong_matches": ["Go"], "partial_matches": [], "gaps": [{"skill": "Kubernetes", "suggestion": "Review operators"}]},
  "interview_strategy": {"focus_areas": [{"area": "Systems", "weight": 60}, {"area": "Behavioral", "weight": 40}], "preparation_tips": [], "strengths_to_highlight": [], "weaknesses_to_address": []},
  "recommended_questions": [
    {"question": "Design a rate limiter.", "type": "technical", "focus_area": "Systems"},
    {"question": "Tell me about a conflict.", "type": "behavioral"},
    {"question": "Design a rate limiter.", "type": "technical"},
    {"question": "How do you debug a leak?", "type": "coding"}
  ]
}` + "\n```"

func (f *fixture) seedResume(resume types.StructuredResume) uuid.UUID {
	saved, _ := f.store.SaveResume(context.Background(), f.userID, "raw resume", &resume)
	return saved.ID
}

func TestAnalyze_PersistsPostingSessionAndQuestions(t *testing.T) {
	f := newFixture(strategyReply)
	resumeID := f.seedResume(completeResume())

	res := f.agents.Strategist.Analyze(context.Background(), f.userID, "<p>We need a <b>Go</b> engineer.</p>", resumeID)

	require.True(t, res.Success, res.Error)
	out := res.Data

	session, _ := f.store.GetSession(context.Background(), out.SessionID)
	require.NotNil(t, session)
	assert.Equal(t, types.SessionPlanned, session.Status)
	assert.Equal(t, resumeID, *session.ResumeID)
	assert.Equal(t, out.JobPostingID, session.JobPostingID)

	posting, _ := f.store.GetJobPosting(context.Background(), out.JobPostingID)
	require.NotNil(t, posting)
	assert.Equal(t, "Senior Go Engineer", posting.Title)
	assert.Equal(t, "Globex", posting.Company)
	assert.Equal(t, "We need a Go engineer.", posting.Description)

	// Duplicate text is stored once; order follows the reply from 1
	questions := f.store.questionsFor(out.SessionID)
	require.Len(t, questions, 3)
	assert.Equal(t, "Design a rate limiter.", questions[0].Text)
	assert.Equal(t, 1, questions[0].Order)
	assert.Equal(t, "Tell me about a conflict.", questions[1].Text)
	assert.Equal(t, 2, questions[1].Order)
	assert.Equal(t, types.QuestionGeneral, questions[2].Type)
	for _, q := range questions {
		assert.Equal(t, types.SourceStrategist, q.Source)
	}

	require.Len(t, f.store.logs, 1)
	assert.Equal(t, db.AgentStrategist, f.store.logs[0].AgentType)
	assert.Equal(t, out.SessionID, *f.store.logs[0].SessionID)
}

func TestAnalyze_NormalizesRequirements(t *testing.T) {
	f := newFixture(strategyReply)
	resumeID := f.seedResume(completeResume())

	res := f.agents.Strategist.Analyze(context.Background(), f.userID, "Go engineer", resumeID)

	require.True(t, res.Success, res.Error)
	reqs := res.Data.JobAnalysis.RequiredSkills
	require.Len(t, reqs, 2)
	assert.Equal(t, types.SkillRequirement{Skill: "Go", Importance: types.ImportanceHigh}, reqs[0])
	assert.Equal(t, types.SkillRequirement{Skill: "Kubernetes", Importance: types.ImportanceMedium}, reqs[1])
}

func TestAnalyze_StoresReplyVerbatim(t *testing.T) {
	reply := `{
	  "job_analysis": {"title": "SRE", "location": "Remote", "required_skills": ["golang", {"skill": "Terraform"}]},
	  "skills_mapping": {"strong_matches": [{"skill": "Go", "evidence": "5 years"}]},
	  "interview_strategy": {"focus_areas": [{"area": "Ops", "weight": "most"}]},
	  "recommended_questions": [{"question": "Walk me through an outage.", "difficulty": 3}, {"prompt": "unused"}],
	  "notes": "keep me"
	}`
	f := newFixture(reply)
	resumeID := f.seedResume(completeResume())

	res := f.agents.Strategist.Analyze(context.Background(), f.userID, "SRE role", resumeID)

	require.True(t, res.Success, res.Error)
	session, _ := f.store.GetSession(context.Background(), res.Data.SessionID)
	require.NotNil(t, session)
	stored := gjson.ParseBytes(session.Strategy)
	assert.Equal(t, "Remote", stored.Get("job_analysis.location").String())
	assert.Equal(t, "5 years", stored.Get("skills_mapping.strong_matches.0.evidence").String())
	assert.Equal(t, "most", stored.Get("interview_strategy.focus_areas.0.weight").String())
	assert.Equal(t, "keep me", stored.Get("notes").String())
	assert.JSONEq(t, string(session.Strategy), string(res.Data.Strategy))

	assert.Equal(t, []types.SkillRequirement{
		{Skill: "Go", Importance: types.ImportanceMedium},
		{Skill: "Terraform", Importance: types.ImportanceMedium},
	}, res.Data.JobAnalysis.RequiredSkills)

	questions := f.store.questionsFor(res.Data.SessionID)
	require.Len(t, questions, 1)
	assert.Equal(t, "Walk me through an outage.", questions[0].Text)
	assert.Equal(t, "3", questions[0].Difficulty)
}

func TestAnalyze_UntitledPosition(t *testing.T) {
	reply := `{"job_analysis": {"title": "", "company": null}, "skills_mapping": {}, "interview_strategy": {}, "recommended_questions": []}`
	f := newFixture(reply)
	resumeID := f.seedResume(completeResume())

	res := f.agents.Strategist.Analyze(context.Background(), f.userID, "A job", resumeID)

	require.True(t, res.Success, res.Error)
	posting, _ := f.store.GetJobPosting(context.Background(), res.Data.JobPostingID)
	assert.Equal(t, "Untitled Position", posting.Title)
	assert.Empty(t, posting.Company)
}

func TestAnalyze_IncompleteResume(t *testing.T) {
	f := newFixture(strategyReply)
	resume := completeResume()
	resume.Education = nil
	resumeID := f.seedResume(resume)

	res := f.agents.Strategist.Analyze(context.Background(), f.userID, "Go engineer", resumeID)

	assert.False(t, res.Success)
	assert.Equal(t, "resume data incomplete", res.Error)
	assert.Zero(t, f.provider.threads)
}

func TestAnalyze_ForeignResumeIsNotFound(t *testing.T) {
	f := newFixture(strategyReply)
	resumeID := f.seedResume(completeResume())

	res := f.agents.Strategist.Analyze(context.Background(), uuid.New(), "Go engineer", resumeID)

	var notFound *NotFoundError
	require.True(t, errors.As(res.Err, &notFound))
	assert.Equal(t, "resume", notFound.Resource)
	assert.Empty(t, f.store.postings)
	assert.Empty(t, f.store.sessions)
}

func TestAnalyze_Unauthenticated(t *testing.T) {
	f := newFixture(strategyReply)

	res := f.agents.Strategist.Analyze(context.Background(), uuid.Nil, "Go engineer", uuid.New())

	var authErr *AuthError
	assert.True(t, errors.As(res.Err, &authErr))
}

func TestAnalyze_UnparseableReplyWritesNothing(t *testing.T) {
	f := newFixture("The job looks great! Good luck.")
	resumeID := f.seedResume(completeResume())

	res := f.agents.Strategist.Analyze(context.Background(), f.userID, "Go engineer", resumeID)

	var parseErr *ParseError
	require.True(t, errors.As(res.Err, &parseErr))
	assert.Empty(t, f.store.postings)
	assert.Empty(t, f.store.sessions)
	assert.Empty(t, f.store.questions)
	assert.Empty(t, f.store.logs)
}

func TestAnalyze_SchemaViolationWritesNothing(t *testing.T) {
	f := newFixture(`{"job_analysis": {"title": "X"}}`)
	resumeID := f.seedResume(completeResume())

	res := f.agents.Strategist.Analyze(context.Background(), f.userID, "Go engineer", resumeID)

	var parseErr *ParseError
	require.True(t, errors.As(res.Err, &parseErr))
	assert.Empty(t, f.store.postings)
}

func TestAnalyze_PostingFailureIsFatal(t *testing.T) {
	f := newFixture(strategyReply)
	resumeID := f.seedResume(completeResume())
	f.store.postingErr = errStoreDown

	res := f.agents.Strategist.Analyze(context.Background(), f.userID, "Go engineer", resumeID)

	var storageErr *StorageError
	require.True(t, errors.As(res.Err, &storageErr))
	assert.Equal(t, "failed to save job posting: connection refused", res.Error)
	assert.Empty(t, f.store.sessions)
}

func TestAnalyze_SessionFailureIsFatal(t *testing.T) {
	f := newFixture(strategyReply)
	resumeID := f.seedResume(completeResume())
	f.store.sessionErr = errStoreDown

	res := f.agents.Strategist.Analyze(context.Background(), f.userID, "Go engineer", resumeID)

	assert.False(t, res.Success)
	assert.Equal(t, "failed to create interview session: connection refused", res.Error)
}

func TestAnalyze_QuestionFailureIsSwallowed(t *testing.T) {
	f := newFixture(strategyReply)
	resumeID := f.seedResume(completeResume())
	f.store.questionErr = errStoreDown

	res := f.agents.Strategist.Analyze(context.Background(), f.userID, "Go engineer", resumeID)

	require.True(t, res.Success, res.Error)
	assert.Empty(t, f.store.questionsFor(res.Data.SessionID))
}

func TestAnalyze_EmptyJobDescription(t *testing.T) {
	f := newFixture(strategyReply)

	res := f.agents.Strategist.Analyze(context.Background(), f.userID, "   ", uuid.New())

	var validationErr *ValidationError
	assert.True(t, errors.As(res.Err, &validationErr))
}
