package server

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/izzy/internal/agents"
	"github.com/jonathan/izzy/internal/assistant"
	"github.com/jonathan/izzy/internal/config"
	"github.com/jonathan/izzy/internal/db"
	"github.com/jonathan/izzy/internal/server/ratelimit"
	"github.com/jonathan/izzy/internal/types"
	"github.com/stretchr/testify/require"
)

const testJWTSecret = "test-secret-key-for-jwt-signing-minimum-32-bytes"

// fakeUsers is an in-memory UserStore.
type fakeUsers struct {
	mu    sync.Mutex
	users map[uuid.UUID]*db.User
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{users: map[uuid.UUID]*db.User{}}
}

func (f *fakeUsers) CheckEmailExists(_ context.Context, email string) (bool, error) {
	u, _ := f.GetUserByEmail(context.Background(), email)
	return u != nil, nil
}

func (f *fakeUsers) CreateUser(_ context.Context, name, email, passwordHash string) (uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if strings.EqualFold(u.Email, email) {
			return uuid.Nil, db.ErrEmailTaken
		}
	}
	now := time.Now()
	u := &db.User{ID: uuid.New(), Name: name, Email: strings.ToLower(email), PasswordHash: passwordHash, PasswordSet: true, CreatedAt: now, UpdatedAt: now}
	f.users[u.ID] = u
	return u.ID, nil
}

func (f *fakeUsers) CreateAnonymousUser(context.Context) (*db.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now()
	u := &db.User{ID: uuid.New(), Name: "Guest", IsAnonymous: true, CreatedAt: now, UpdatedAt: now}
	f.users[u.ID] = u
	copied := *u
	return &copied, nil
}

func (f *fakeUsers) GetUser(_ context.Context, id uuid.UUID) (*db.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, nil
	}
	copied := *u
	return &copied, nil
}

func (f *fakeUsers) GetUserByEmail(_ context.Context, email string) (*db.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email != "" && strings.EqualFold(u.Email, email) {
			copied := *u
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeUsers) UpdatePassword(_ context.Context, id uuid.UUID, passwordHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return fmt.Errorf("user not found")
	}
	u.PasswordHash = passwordHash
	u.PasswordSet = true
	return nil
}

// stubStore backs the routes exercised here. Methods it does not override
// panic through the nil embedded interface.
type stubStore struct {
	agents.Store

	mu        sync.Mutex
	resumes   map[uuid.UUID]*db.Resume
	sessions  map[uuid.UUID]*db.Session
	postings  map[uuid.UUID]*db.JobPosting
	questions []db.Question
	answers   []db.Answer
	logs      []db.AgentLog
}

func newStubStore() *stubStore {
	return &stubStore{
		resumes:  map[uuid.UUID]*db.Resume{},
		sessions: map[uuid.UUID]*db.Session{},
		postings: map[uuid.UUID]*db.JobPosting{},
	}
}

func (s *stubStore) ListResumes(_ context.Context, userID uuid.UUID) ([]db.Resume, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []db.Resume
	for _, r := range s.resumes {
		if r.UserID == userID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (s *stubStore) DeleteResume(_ context.Context, id, userID uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.resumes[id]
	if !ok || r.UserID != userID {
		return false, nil
	}
	delete(s.resumes, id)
	return true, nil
}

func (s *stubStore) GetSession(_ context.Context, id uuid.UUID) (*db.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, nil
	}
	copied := *sess
	return &copied, nil
}

func (s *stubStore) GetJobPosting(_ context.Context, id uuid.UUID) (*db.JobPosting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.postings[id]
	if !ok {
		return nil, nil
	}
	copied := *p
	return &copied, nil
}

func (s *stubStore) AdvanceSessionStatus(_ context.Context, id uuid.UUID, status types.SessionStatus) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok || !sess.Status.CanTransitionTo(status) {
		return false, nil
	}
	sess.Status = status
	return true, nil
}

func (s *stubStore) InsertQuestion(_ context.Context, in db.QuestionInput) (uuid.UUID, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, q := range s.questions {
		if q.SessionID == in.SessionID && q.Text == in.Text {
			return q.ID, false, nil
		}
	}
	q := db.Question{ID: uuid.New(), SessionID: in.SessionID, Text: in.Text, Type: in.Type.Normalize(), Source: in.Source, Order: in.Order}
	s.questions = append(s.questions, q)
	return q.ID, true, nil
}

func (s *stubStore) GetQuestion(_ context.Context, id uuid.UUID) (*db.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, q := range s.questions {
		if q.ID == id {
			copied := q
			return &copied, nil
		}
	}
	return nil, nil
}

func (s *stubStore) CreateAnswer(_ context.Context, a *db.Answer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a.ID = uuid.New()
	a.CreatedAt = time.Now()
	s.answers = append(s.answers, *a)
	return nil
}

func (s *stubStore) LogAgent(_ context.Context, l *db.AgentLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs = append(s.logs, *l)
	return nil
}

func (s *stubStore) answerCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.answers)
}

// seedSession stores a started session with one strategist question.
func (s *stubStore) seedSession(userID uuid.UUID, status types.SessionStatus) (*db.Session, db.Question) {
	s.mu.Lock()
	defer s.mu.Unlock()
	posting := &db.JobPosting{ID: uuid.New(), UserID: userID, Title: "Platform Engineer", Company: "Globex"}
	s.postings[posting.ID] = posting
	sess := &db.Session{ID: uuid.New(), UserID: userID, JobPostingID: posting.ID, Status: status, ThreadID: "thread_1"}
	s.sessions[sess.ID] = sess
	q := db.Question{ID: uuid.New(), SessionID: sess.ID, Text: "Tell me about yourself.", Type: types.QuestionGeneral, Source: types.SourceStrategist, Order: 1}
	s.questions = append(s.questions, q)
	copied := *sess
	return &copied, q
}

// scriptProvider completes every run immediately with the next scripted reply.
type scriptProvider struct {
	mu      sync.Mutex
	replies []string
	runs    int
	last    map[string]assistant.Message
}

func newScriptProvider(replies ...string) *scriptProvider {
	return &scriptProvider{replies: replies, last: map[string]assistant.Message{}}
}

func (p *scriptProvider) CreateThread(context.Context) (string, error) {
	return "thread_new", nil
}

func (p *scriptProvider) AddMessage(context.Context, string, assistant.Role, string) error {
	return nil
}

func (p *scriptProvider) CreateRun(_ context.Context, threadID, _ string) (*assistant.Run, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.runs++
	run := &assistant.Run{ID: fmt.Sprintf("run_%d", p.runs), ThreadID: threadID, Status: assistant.RunCompleted}
	reply := ""
	if len(p.replies) > 0 {
		reply, p.replies = p.replies[0], p.replies[1:]
	}
	p.last[threadID] = assistant.Message{ID: "msg_" + run.ID, Role: assistant.RoleAssistant, RunID: run.ID, Text: reply}
	return run, nil
}

func (p *scriptProvider) GetRun(_ context.Context, threadID, runID string) (*assistant.Run, error) {
	return &assistant.Run{ID: runID, ThreadID: threadID, Status: assistant.RunCompleted}, nil
}

func (p *scriptProvider) ListMessages(_ context.Context, threadID string) ([]assistant.Message, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if m, ok := p.last[threadID]; ok {
		return []assistant.Message{m}, nil
	}
	return nil, nil
}

type testEnv struct {
	server   *Server
	store    *stubStore
	users    *fakeUsers
	provider *scriptProvider
}

type envOption func(*Options, *agents.Deps)

func withRateLimit(cfg *ratelimit.Config) envOption {
	return func(o *Options, _ *agents.Deps) { o.RateLimit = cfg }
}

func withAssistants(ids agents.AssistantIDs) envOption {
	return func(_ *Options, d *agents.Deps) { d.Assistants = ids }
}

func withHealth(fn func(context.Context) error) envOption {
	return func(o *Options, _ *agents.Deps) { o.Health = fn }
}

func newTestEnv(t *testing.T, replies []string, opts ...envOption) *testEnv {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := newStubStore()
	users := newFakeUsers()
	provider := newScriptProvider(replies...)

	deps := agents.Deps{
		Store:    store,
		Provider: provider,
		Poller:   assistant.Poller{Initial: time.Millisecond, Max: time.Millisecond, Multiplier: 2, Timeout: time.Second},
		Logger:   logger,
		Assistants: agents.AssistantIDs{
			ResumeParser: "asst_parser",
			Strategist:   "asst_strategist",
			Interviewer:  "asst_interviewer",
		},
	}
	options := Options{
		Users:     users,
		JWT:       &config.JWTConfig{Secret: testJWTSecret, Issuer: "izzy", ExpirationHours: 24, AnonymousExpirationHours: 72},
		Password:  &config.PasswordConfig{BcryptCost: 4},
		RateLimit: &ratelimit.Config{Enabled: false},
		Logger:    logger,
	}
	for _, opt := range opts {
		opt(&options, &deps)
	}
	options.Agents = agents.New(deps)

	s := newServer(options)
	t.Cleanup(s.Close)
	return &testEnv{server: s, store: store, users: users, provider: provider}
}

// tokenFor issues a bearer token for a new password user.
func (e *testEnv) tokenFor(t *testing.T) (uuid.UUID, string) {
	t.Helper()
	hash, err := (&config.PasswordConfig{BcryptCost: 4}).HashPassword("password123")
	require.NoError(t, err)
	id, err := e.users.CreateUser(context.Background(), "Test User", uuid.NewString()+"@example.com", hash)
	require.NoError(t, err)
	token, err := e.server.jwtService.GenerateToken(id)
	require.NoError(t, err)
	return id, token
}
