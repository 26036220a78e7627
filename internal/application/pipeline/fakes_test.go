package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/seoblog/backend/internal/application/agent"
	"github.com/seoblog/backend/internal/domain/article"
	"github.com/seoblog/backend/internal/domain/keyword"
	"github.com/seoblog/backend/internal/domain/pipeline"
	"github.com/seoblog/backend/internal/domain/shared"
	"github.com/seoblog/backend/internal/infrastructure/config"
	"github.com/seoblog/backend/internal/infrastructure/llm"
	"github.com/seoblog/backend/internal/infrastructure/seo"
)

type memRunRepo struct {
	mu   sync.Mutex
	runs map[uuid.UUID]pipeline.Run
	err  error
}

func newMemRunRepo() *memRunRepo {
	return &memRunRepo{runs: make(map[uuid.UUID]pipeline.Run)}
}

func (r *memRunRepo) Save(_ context.Context, run *pipeline.Run) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	cp := *run
	cp.ClearDomainEvents()
	r.runs[run.ID] = cp
	return nil
}

func (r *memRunRepo) FindByID(_ context.Context, id uuid.UUID) (*pipeline.Run, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	run, ok := r.runs[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &run, nil
}

func (r *memRunRepo) FindAll(_ context.Context, filter shared.Filter, status pipeline.RunStatus) ([]pipeline.Run, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]pipeline.Run, 0, len(r.runs))
	for _, run := range r.runs {
		if status == "" || run.Status == status {
			out = append(out, run)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	total := int64(len(out))
	start := min(filter.Offset(), len(out))
	end := min(start+filter.PageSize, len(out))
	return out[start:end], total, nil
}

func (r *memRunRepo) FindByStatus(ctx context.Context, status pipeline.RunStatus) ([]pipeline.Run, error) {
	runs, _, err := r.FindAll(ctx, shared.Filter{Page: 1, PageSize: 1000}, status)
	return runs, err
}

func (r *memRunRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.runs[id]; !ok {
		return shared.ErrNotFound
	}
	delete(r.runs, id)
	return nil
}

type memArticleRepo struct {
	mu       sync.Mutex
	articles map[uuid.UUID]article.Article
}

func newMemArticleRepo() *memArticleRepo {
	return &memArticleRepo{articles: make(map[uuid.UUID]article.Article)}
}

func (r *memArticleRepo) Save(_ context.Context, a *article.Article) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *a
	cp.ClearDomainEvents()
	r.articles[a.ID] = cp
	return nil
}

func (r *memArticleRepo) FindByID(_ context.Context, id uuid.UUID) (*article.Article, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.articles[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &a, nil
}

func (r *memArticleRepo) FindByRunID(_ context.Context, runID uuid.UUID) (*article.Article, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.articles {
		if a.RunID == runID {
			return &a, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memArticleRepo) FindAll(_ context.Context, filter shared.Filter) ([]article.Article, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]article.Article, 0, len(r.articles))
	for _, a := range r.articles {
		if v, ok := filter.Filters["published"].(bool); ok && a.IsPublished() != v {
			continue
		}
		out = append(out, a)
	}
	return out, int64(len(out)), nil
}

func (r *memArticleRepo) DeleteByRunID(_ context.Context, runID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, a := range r.articles {
		if a.RunID == runID {
			delete(r.articles, id)
		}
	}
	return nil
}

type memScheduleRepo struct {
	mu        sync.Mutex
	schedules map[uuid.UUID]pipeline.Schedule
}

func newMemScheduleRepo() *memScheduleRepo {
	return &memScheduleRepo{schedules: make(map[uuid.UUID]pipeline.Schedule)}
}

func (r *memScheduleRepo) Save(_ context.Context, s *pipeline.Schedule) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.schedules[s.ID] = *s
	return nil
}

func (r *memScheduleRepo) FindByID(_ context.Context, id uuid.UUID) (*pipeline.Schedule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.schedules[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &s, nil
}

func (r *memScheduleRepo) FindAll(_ context.Context, _ shared.Filter) ([]pipeline.Schedule, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]pipeline.Schedule, 0, len(r.schedules))
	for _, s := range r.schedules {
		out = append(out, s)
	}
	return out, int64(len(out)), nil
}

func (r *memScheduleRepo) FindEnabled(ctx context.Context) ([]pipeline.Schedule, error) {
	all, _, err := r.FindAll(ctx, shared.Filter{})
	enabled := all[:0]
	for _, s := range all {
		if s.Enabled {
			enabled = append(enabled, s)
		}
	}
	return enabled, err
}

func (r *memScheduleRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.schedules, id)
	return nil
}

// recordingBus collects published events.
type recordingBus struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

func (b *recordingBus) Publish(_ context.Context, events ...shared.DomainEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, events...)
	return nil
}

func (b *recordingBus) types() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, len(b.events))
	for i, e := range b.events {
		out[i] = e.EventType()
	}
	return out
}

type mockResearcher struct{}

func (mockResearcher) ResearchKeywords(_ context.Context, seeds []string) ([]keyword.Metrics, error) {
	var out []keyword.Metrics
	for _, s := range seeds {
		out = append(out, seo.MockKeywords(s)...)
	}
	return keyword.Merge(out), nil
}

func (mockResearcher) SERPAnalysis(_ context.Context, term string) (*keyword.SERPResult, error) {
	return seo.MockSERP(term), nil
}

// MockGateway is a testify mock of the blog gateway.
type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) TestConnection(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockGateway) EnsureCategories(ctx context.Context, names []string) ([]int64, error) {
	args := m.Called(ctx, names)
	return args.Get(0).([]int64), args.Error(1)
}

func (m *MockGateway) EnsureTags(ctx context.Context, names []string) ([]int64, error) {
	args := m.Called(ctx, names)
	return args.Get(0).([]int64), args.Error(1)
}

func (m *MockGateway) CreatePost(ctx context.Context, post article.PostRequest) (article.PostResult, error) {
	args := m.Called(ctx, post)
	return args.Get(0).(article.PostResult), args.Error(1)
}

func (m *MockGateway) EditURL(postID int64) string {
	return fmt.Sprintf("https://blog.test/wp-admin/post.php?post=%d&action=edit", postID)
}

func newPublishingGateway() *MockGateway {
	gw := new(MockGateway)
	gw.On("TestConnection", mock.Anything).Return(nil)
	gw.On("EnsureCategories", mock.Anything, mock.Anything).Return([]int64{3}, nil)
	gw.On("EnsureTags", mock.Anything, mock.Anything).Return([]int64{7, 8}, nil)
	gw.On("CreatePost", mock.Anything, mock.Anything).Return(article.PostResult{ID: 42, Link: "https://blog.test/?p=42", Status: "draft"}, nil)
	return gw
}

// failingAgent stands in for a stage and always fails without retries.
type failingAgent struct {
	stage pipeline.StageName
	calls int
}

func (f *failingAgent) Stage() pipeline.StageName { return f.stage }

func (f *failingAgent) Config() agent.Config {
	return agent.DefaultConfig("failing "+string(f.stage), "")
}

func (f *failingAgent) Process(context.Context, *pipeline.State, agent.ProgressFunc) (*agent.Result, error) {
	f.calls++
	return nil, fmt.Errorf("%w: scripted failure", agent.ErrMissingInput)
}

type harness struct {
	runs     *memRunRepo
	articles *memArticleRepo
	bus      *recordingBus
	hub      *ProgressHub
	gateway  *MockGateway
	roster   *agent.Roster
	orch     *Orchestrator
}

func newHarness(t *testing.T, publishing bool) *harness {
	t.Helper()
	h := &harness{
		runs:     newMemRunRepo(),
		articles: newMemArticleRepo(),
		bus:      &recordingBus{},
		hub:      NewProgressHub(zap.NewNop()),
		gateway:  newPublishingGateway(),
	}
	pc := config.PipelineConfig{AgentMaxRetries: 1, AgentTimeout: 5 * time.Second, RetryBackoffBase: time.Millisecond}
	h.roster = agent.NewRoster(agent.Deps{
		LLM:      llm.NewOfflineClient(),
		SEO:      mockResearcher{},
		Gateway:  h.gateway,
		Pipeline: pc,
		Logger:   zap.NewNop(),
	})
	h.orch = NewOrchestrator(h.runs, h.articles, h.roster, agent.NewExecutor(zap.NewNop()), zap.NewNop(),
		WithProgressHub(h.hub),
		WithEventPublisher(h.bus),
		WithPublishing(publishing),
	)
	return h
}

func (h *harness) pendingRun(t *testing.T, mutate func(*pipeline.Brief)) *pipeline.Run {
	t.Helper()
	b := pipeline.Brief{
		ProductName:    "Acme Widget",
		Niche:          "Kitchen Tools",
		TargetAudience: "Home cooks",
		TargetKeywords: []string{"acme widget"},
	}
	if mutate != nil {
		mutate(&b)
	}
	run, err := pipeline.NewRun(b)
	require.NoError(t, err)
	require.NoError(t, h.runs.Save(context.Background(), run))
	return run
}

var errBoom = errors.New("boom")
