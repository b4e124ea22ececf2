package agents

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/izzy/internal/assistant"
	"github.com/jonathan/izzy/internal/db"
	"github.com/jonathan/izzy/internal/llm"
	"github.com/jonathan/izzy/internal/types"
)

var errStoreDown = errors.New("connection refused")

// memStore is an in-memory Store with the same uniqueness and status rules as Postgres.
type memStore struct {
	mu          sync.Mutex
	resumes     map[uuid.UUID]*db.Resume
	postings    map[uuid.UUID]*db.JobPosting
	sessions    map[uuid.UUID]*db.Session
	questions   map[uuid.UUID]*db.Question
	answers     map[uuid.UUID]*db.Answer
	evaluations map[uuid.UUID]*db.Evaluation
	logs        []db.AgentLog
	clock       time.Time

	postingErr  error
	sessionErr  error
	questionErr error
}

func newMemStore() *memStore {
	return &memStore{
		resumes:     map[uuid.UUID]*db.Resume{},
		postings:    map[uuid.UUID]*db.JobPosting{},
		sessions:    map[uuid.UUID]*db.Session{},
		questions:   map[uuid.UUID]*db.Question{},
		answers:     map[uuid.UUID]*db.Answer{},
		evaluations: map[uuid.UUID]*db.Evaluation{},
		clock:       time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// now returns strictly increasing timestamps so ordering ties are deterministic.
func (s *memStore) now() time.Time {
	s.clock = s.clock.Add(time.Millisecond)
	return s.clock
}

func (s *memStore) SaveResume(_ context.Context, userID uuid.UUID, rawText string, parsed *types.StructuredResume) (*db.Resume, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.resumes {
		if r.UserID == userID {
			r.IsActive = false
		}
	}
	r := &db.Resume{ID: uuid.New(), UserID: userID, RawText: rawText, StructuredResume: *parsed, IsActive: true, CreatedAt: s.now()}
	s.resumes[r.ID] = r
	cp := *r
	return &cp, nil
}

func (s *memStore) GetResume(_ context.Context, id uuid.UUID) (*db.Resume, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.resumes[id]
	if !ok {
		return nil, nil
	}
	cp := *r
	return &cp, nil
}

func (s *memStore) GetActiveResume(_ context.Context, userID uuid.UUID) (*db.Resume, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.resumes {
		if r.UserID == userID && r.IsActive {
			cp := *r
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *memStore) ListResumes(_ context.Context, userID uuid.UUID) ([]db.Resume, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []db.Resume
	for _, r := range s.resumes {
		if r.UserID == userID {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *memStore) DeleteResume(_ context.Context, id, userID uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.resumes[id]
	if !ok || r.UserID != userID {
		return false, nil
	}
	delete(s.resumes, id)
	return true, nil
}

func (s *memStore) CreateJobPosting(_ context.Context, p *db.JobPosting) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.postingErr != nil {
		return s.postingErr
	}
	p.ID = uuid.New()
	p.IsActive = true
	p.CreatedAt = s.now()
	cp := *p
	s.postings[p.ID] = &cp
	return nil
}

func (s *memStore) GetJobPosting(_ context.Context, id uuid.UUID) (*db.JobPosting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.postings[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (s *memStore) DeleteJobPosting(_ context.Context, id, userID uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.postings[id]
	if !ok || p.UserID != userID {
		return false, nil
	}
	delete(s.postings, id)
	for sid, sess := range s.sessions {
		if sess.JobPostingID != id {
			continue
		}
		delete(s.sessions, sid)
		for qid, q := range s.questions {
			if q.SessionID == sid {
				delete(s.questions, qid)
			}
		}
		for aid, a := range s.answers {
			if a.SessionID != sid {
				continue
			}
			delete(s.answers, aid)
			for eid, e := range s.evaluations {
				if e.AnswerID == aid {
					delete(s.evaluations, eid)
				}
			}
		}
	}
	return true, nil
}

func (s *memStore) CreateSession(_ context.Context, sess *db.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sessionErr != nil {
		return s.sessionErr
	}
	sess.ID = uuid.New()
	if sess.Status == "" {
		sess.Status = types.SessionPlanned
	}
	sess.CreatedAt = s.now()
	sess.UpdatedAt = sess.CreatedAt
	cp := *sess
	s.sessions[sess.ID] = &cp
	return nil
}

func (s *memStore) GetSession(_ context.Context, id uuid.UUID) (*db.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, nil
	}
	cp := *sess
	return &cp, nil
}

func (s *memStore) ListSessions(_ context.Context, userID uuid.UUID) ([]db.SessionSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []db.SessionSummary
	for _, sess := range s.sessions {
		if sess.UserID != userID {
			continue
		}
		sum := db.SessionSummary{ID: sess.ID, Status: sess.Status, JobPostingID: sess.JobPostingID, CreatedAt: sess.CreatedAt, UpdatedAt: sess.UpdatedAt}
		if p, ok := s.postings[sess.JobPostingID]; ok {
			sum.JobTitle, sum.Company = p.Title, p.Company
		}
		for _, q := range s.questions {
			if q.SessionID == sess.ID {
				sum.QuestionCount++
			}
		}
		for _, a := range s.answers {
			if a.SessionID == sess.ID {
				sum.AnswerCount++
			}
		}
		out = append(out, sum)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *memStore) SetSessionThread(_ context.Context, id uuid.UUID, threadID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return fmt.Errorf("interview session not found: %s", id)
	}
	sess.ThreadID = threadID
	return nil
}

func (s *memStore) AdvanceSessionStatus(_ context.Context, id uuid.UUID, status types.SessionStatus) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok || !sess.Status.CanTransitionTo(status) {
		return false, nil
	}
	sess.Status = status
	sess.UpdatedAt = s.now()
	return true, nil
}

func (s *memStore) InsertQuestion(_ context.Context, in db.QuestionInput) (uuid.UUID, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertQuestionLocked(in)
}

func (s *memStore) insertQuestionLocked(in db.QuestionInput) (uuid.UUID, bool, error) {
	if s.questionErr != nil {
		return uuid.Nil, false, s.questionErr
	}
	for _, q := range s.questions {
		if q.SessionID == in.SessionID && q.Text == in.Text {
			return q.ID, false, nil
		}
	}
	q := &db.Question{
		ID:           uuid.New(),
		SessionID:    in.SessionID,
		Text:         in.Text,
		Type:         in.Type.Normalize(),
		RelatedSkill: in.RelatedSkill,
		Difficulty:   in.Difficulty,
		FocusArea:    in.FocusArea,
		Source:       in.Source,
		Order:        in.Order,
		CreatedAt:    s.now(),
	}
	s.questions[q.ID] = q
	return q.ID, true, nil
}

func (s *memStore) InsertQuestions(_ context.Context, inputs []db.QuestionInput) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, in := range inputs {
		if _, _, err := s.insertQuestionLocked(in); err != nil {
			return err
		}
	}
	return nil
}

func (s *memStore) GetQuestion(_ context.Context, id uuid.UUID) (*db.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.questions[id]
	if !ok {
		return nil, nil
	}
	cp := *q
	return &cp, nil
}

func (s *memStore) ListQuestions(_ context.Context, sessionID uuid.UUID) ([]db.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []db.Question
	for _, q := range s.questions {
		if q.SessionID == sessionID {
			out = append(out, *q)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Order != out[j].Order {
			return out[i].Order < out[j].Order
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *memStore) CreateAnswer(_ context.Context, a *db.Answer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a.ID = uuid.New()
	a.CreatedAt = s.now()
	cp := *a
	s.answers[a.ID] = &cp
	return nil
}

func (s *memStore) GetAnswer(_ context.Context, id uuid.UUID) (*db.Answer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.answers[id]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (s *memStore) ListAnswers(_ context.Context, sessionID uuid.UUID) ([]db.Answer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []db.Answer
	for _, a := range s.answers {
		if a.SessionID == sessionID {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *memStore) CreateEvaluation(_ context.Context, e *db.Evaluation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e.ID = uuid.New()
	e.CreatedAt = s.now()
	cp := *e
	s.evaluations[e.ID] = &cp
	return nil
}

func (s *memStore) ListEvaluations(_ context.Context, sessionID uuid.UUID) ([]db.Evaluation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []db.Evaluation
	for _, e := range s.evaluations {
		if a, ok := s.answers[e.AnswerID]; ok && a.SessionID == sessionID {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (s *memStore) LogAgent(_ context.Context, l *db.AgentLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l.ID = uuid.New()
	l.CreatedAt = s.now()
	s.logs = append(s.logs, *l)
	return nil
}

func (s *memStore) questionsFor(sessionID uuid.UUID) []db.Question {
	qs, _ := s.ListQuestions(context.Background(), sessionID)
	return qs
}

func (s *memStore) answerCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.answers)
}

func (s *memStore) evaluationCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.evaluations)
}

// replyProvider answers each run with the next scripted reply text.
// A reply of "!failed" makes the run fail.
type replyProvider struct {
	mu        sync.Mutex
	replies   []string
	threads   int
	sent      map[string][]string
	runs      int
	last      map[string]assistant.Message
	threadErr error
}

func newReplyProvider(replies ...string) *replyProvider {
	return &replyProvider{replies: replies, sent: map[string][]string{}, last: map[string]assistant.Message{}}
}

func (p *replyProvider) CreateThread(context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.threadErr != nil {
		return "", p.threadErr
	}
	p.threads++
	return fmt.Sprintf("thread_%d", p.threads), nil
}

func (p *replyProvider) AddMessage(_ context.Context, threadID string, _ assistant.Role, content string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent[threadID] = append(p.sent[threadID], content)
	return nil
}

func (p *replyProvider) CreateRun(_ context.Context, threadID, _ string) (*assistant.Run, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.runs++
	run := &assistant.Run{ID: fmt.Sprintf("run_%d", p.runs), ThreadID: threadID, Status: assistant.RunCompleted}
	reply := ""
	if len(p.replies) > 0 {
		reply, p.replies = p.replies[0], p.replies[1:]
	}
	if reply == "!failed" {
		run.Status = assistant.RunFailed
		run.ErrorCode = "server_error"
		return run, nil
	}
	p.last[threadID] = assistant.Message{ID: "msg_" + run.ID, Role: assistant.RoleAssistant, RunID: run.ID, Text: reply}
	return run, nil
}

func (p *replyProvider) GetRun(_ context.Context, threadID, runID string) (*assistant.Run, error) {
	return &assistant.Run{ID: runID, ThreadID: threadID, Status: assistant.RunCompleted}, nil
}

func (p *replyProvider) ListMessages(_ context.Context, threadID string) ([]assistant.Message, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if m, ok := p.last[threadID]; ok {
		return []assistant.Message{m}, nil
	}
	return nil, nil
}

func (p *replyProvider) messagesOn(threadID string) []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.sent[threadID]...)
}

// MockLLMClient implements llm.Client for testing
type MockLLMClient struct {
	GenerateJSONFunc func(ctx context.Context, prompt string, tier llm.ModelTier) (string, error)
	CloseFunc        func() error
}

func (m *MockLLMClient) GenerateJSON(ctx context.Context, prompt string, tier llm.ModelTier) (string, error) {
	if m.GenerateJSONFunc != nil {
		return m.GenerateJSONFunc(ctx, prompt, tier)
	}
	return `{"score": 7, "breakdown": {"relevance": 7, "depth": 6, "clarity": 8, "structure": 7}, "feedback": "Mock feedback", "strengths": [], "improvements": [], "model_answer": ""}`, nil
}

func (m *MockLLMClient) Close() error {
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}

type fixture struct {
	store    *memStore
	provider *replyProvider
	llm      *MockLLMClient
	agents   *Agents
	userID   uuid.UUID
}

func newFixture(replies ...string) *fixture {
	f := &fixture{
		store:    newMemStore(),
		provider: newReplyProvider(replies...),
		llm:      &MockLLMClient{},
		userID:   uuid.New(),
	}
	f.agents = New(Deps{
		Store:    f.store,
		Provider: f.provider,
		Poller:   assistant.Poller{Initial: time.Millisecond, Max: time.Millisecond, Multiplier: 1, Timeout: time.Second},
		LLM:      f.llm,
		Assistants: AssistantIDs{
			ResumeParser: "asst_parser",
			Strategist:   "asst_strategist",
			Interviewer:  "asst_interviewer",
		},
	})
	return f
}

func completeResume() types.StructuredResume {
	years := 5.0
	return types.StructuredResume{
		ParsedSkills: types.ParsedSkills{
			Technical: []types.Skill{{Skill: "Go", Level: "expert", Years: &years}},
			Soft:      []types.Skill{{Skill: "Mentoring"}},
		},
		Experience: []types.Experience{{Title: "Backend Engineer", Company: "Acme", Duration: types.Duration{Years: 3}}},
		Education:  []types.Education{{Degree: "BSc", Field: "Computer Science", Institution: "State University"}},
	}
}

// seedSession stores a resume, posting and planned session for f.userID with the given questions.
func (f *fixture) seedSession(questions ...string) *db.Session {
	ctx := context.Background()
	resume, _ := f.store.SaveResume(ctx, f.userID, "raw resume", ptr(completeResume()))
	posting := &db.JobPosting{UserID: f.userID, Title: "Platform Engineer", Company: "Globex", Description: "Build platforms."}
	_ = f.store.CreateJobPosting(ctx, posting)
	session := &db.Session{UserID: f.userID, ResumeID: &resume.ID, JobPostingID: posting.ID}
	_ = f.store.CreateSession(ctx, session)
	inputs := make([]db.QuestionInput, 0, len(questions))
	for i, q := range questions {
		inputs = append(inputs, db.QuestionInput{SessionID: session.ID, Text: q, Type: types.QuestionTechnical, Source: types.SourceStrategist, Order: i + 1})
	}
	_ = f.store.InsertQuestions(ctx, inputs)
	return session
}

func ptr[T any](v T) *T {
	return &v
}
