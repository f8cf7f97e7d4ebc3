package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"carboncue-backend/config"
	"carboncue-backend/internal/auth"
	"carboncue-backend/internal/engine"
	"carboncue-backend/internal/model"
	"carboncue-backend/internal/notification"
	"carboncue-backend/internal/refdata"
	"carboncue-backend/internal/scraper"
	"carboncue-backend/internal/store"
)

var testNow = time.Date(2024, 3, 10, 15, 0, 0, 0, time.UTC)

func init() {
	gin.SetMode(gin.TestMode)
}

type memStore struct {
	mu    sync.Mutex
	users map[string]*model.User
	logs  []model.ActivityLog
	subs  map[string]model.PushSubscription
}

func newMemStore() *memStore {
	return &memStore{
		users: make(map[string]*model.User),
		subs:  make(map[string]model.PushSubscription),
	}
}

func (m *memStore) CreateUser(_ context.Context, user *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	user.Email = strings.ToLower(user.Email)
	for _, u := range m.users {
		if u.Email == user.Email {
			return store.ErrDuplicateEmail
		}
	}
	user.ID = uuid.NewString()
	cp := *user
	m.users[user.ID] = &cp
	return nil
}

func (m *memStore) GetUser(_ context.Context, id string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memStore) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == strings.ToLower(email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *memStore) CreateActivityLog(_ context.Context, entry *model.ActivityLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry.ID = uuid.NewString()
	m.logs = append(m.logs, *entry)
	return nil
}

func (m *memStore) ListActivityLogs(_ context.Context, userID string, from, to time.Time) ([]model.ActivityLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.ActivityLog
	for _, l := range m.logs {
		if l.UserID == userID && !l.Timestamp.Before(from) && l.Timestamp.Before(to) {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}

func (m *memStore) ListRecentActivityLogs(_ context.Context, userID string, limit int) ([]model.ActivityLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.ActivityLog
	for _, l := range m.logs {
		if l.UserID == userID {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memStore) UpsertPushSubscription(_ context.Context, sub *model.PushSubscription) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subs[sub.Endpoint] = *sub
	return nil
}

func (m *memStore) ListPushSubscriptions(_ context.Context, userID string) ([]model.PushSubscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.PushSubscription
	for _, s := range m.subs {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memStore) DeletePushSubscription(_ context.Context, userID, endpoint string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.subs[endpoint]
	if !ok || s.UserID != userID {
		return store.ErrNotFound
	}
	delete(m.subs, endpoint)
	return nil
}

func (m *memStore) DeletePushSubscriptionByEndpoint(_ context.Context, endpoint string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.subs, endpoint)
	return nil
}

func (m *memStore) DB() *gorm.DB { return nil }

func (m *memStore) logCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.logs)
}

type stubPredictor struct {
	mu    sync.Mutex
	kg    map[engine.ActivityType]float64
	err   error
	calls int
}

func (p *stubPredictor) Predict(_ context.Context, a engine.Activity) (float64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.err != nil {
		return 0, p.err
	}
	return p.kg[a.Type()], nil
}

type stubAnalyzer struct {
	analysis *scraper.Analysis
	err      error
}

func (s *stubAnalyzer) Analyze(context.Context, string) (*scraper.Analysis, error) {
	return s.analysis, s.err
}

type recordingDispatcher struct {
	mu   sync.Mutex
	jobs []notification.Job
}

func (r *recordingDispatcher) Dispatch(job notification.Job) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs = append(r.jobs, job)
	return true
}

func (r *recordingDispatcher) Jobs() []notification.Job {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]notification.Job(nil), r.jobs...)
}

type testEnv struct {
	router     *gin.Engine
	handler    *Handler
	store      *memStore
	predictor  *stubPredictor
	analyzer   *stubAnalyzer
	dispatcher *recordingDispatcher
	tokens     *auth.Tokens
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	tables, err := refdata.Default()
	require.NoError(t, err)
	tokens, err := auth.NewTokens("test-secret", time.Hour)
	require.NoError(t, err)

	env := &testEnv{
		store:      newMemStore(),
		predictor:  &stubPredictor{kg: map[engine.ActivityType]float64{}},
		analyzer:   &stubAnalyzer{},
		dispatcher: &recordingDispatcher{},
		tokens:     tokens,
	}

	h := NewHandler(Deps{
		Store:     env.store,
		AI:        engine.NewAICalculator(tables),
		Estimator: engine.NewUniformEstimator(env.predictor),
		Website:   env.analyzer,
		Tokens:    tokens,
		Alerts:    notification.NewBudgetAlerts(env.dispatcher, 5),
		WebPush:   &webpush.Options{VAPIDPublicKey: "public-key"},
	})
	h.now = func() time.Time { return testNow }
	env.handler = h

	env.router = NewRouter(h, config.ServerConfig{
		RateLimitPerSec: 1000,
		RateLimitBurst:  1000,
		CacheTTLSeconds: 60,
	})
	return env
}

// signup registers a user and returns a bearer token for it.
func (e *testEnv) signup(t *testing.T, email string) string {
	t.Helper()
	w := e.do(t, http.MethodPost, "/api/auth/signup", "", map[string]any{"email": email, "password": "correct horse"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Token
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}
