package handler

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	contentapp "github.com/seoblog/backend/internal/application/content"
	keywordapp "github.com/seoblog/backend/internal/application/keyword"
	pipelineapp "github.com/seoblog/backend/internal/application/pipeline"
	"github.com/seoblog/backend/internal/domain/keyword"
	"github.com/seoblog/backend/internal/domain/pipeline"
	"github.com/seoblog/backend/internal/domain/shared"
	"github.com/seoblog/backend/internal/infrastructure/auth"
)

// MockRunService implements RunService for testing
type MockRunService struct {
	mock.Mock
}

func (m *MockRunService) Create(ctx context.Context, req pipelineapp.CreateRunRequest) (*pipelineapp.RunResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*pipelineapp.RunResponse), args.Error(1)
}

func (m *MockRunService) Get(ctx context.Context, id uuid.UUID) (*pipelineapp.RunResponse, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*pipelineapp.RunResponse), args.Error(1)
}

func (m *MockRunService) List(ctx context.Context, f pipelineapp.RunListFilter) (shared.Paginated[pipelineapp.RunResponse], error) {
	args := m.Called(ctx, f)
	return args.Get(0).(shared.Paginated[pipelineapp.RunResponse]), args.Error(1)
}

func (m *MockRunService) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockRunService) Retry(ctx context.Context, id uuid.UUID) (*pipelineapp.RunResponse, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*pipelineapp.RunResponse), args.Error(1)
}

func (m *MockRunService) GetArticle(ctx context.Context, runID uuid.UUID) (*pipelineapp.ArticleResponse, error) {
	args := m.Called(ctx, runID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*pipelineapp.ArticleResponse), args.Error(1)
}

func (m *MockRunService) GetArticleByID(ctx context.Context, id uuid.UUID) (*pipelineapp.ArticleResponse, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*pipelineapp.ArticleResponse), args.Error(1)
}

func (m *MockRunService) ListArticles(ctx context.Context, f pipelineapp.ArticleListFilter) (shared.Paginated[pipelineapp.ArticleResponse], error) {
	args := m.Called(ctx, f)
	return args.Get(0).(shared.Paginated[pipelineapp.ArticleResponse]), args.Error(1)
}

func (m *MockRunService) PublishArticle(ctx context.Context, id uuid.UUID, req pipelineapp.PublishArticleRequest) (*pipelineapp.ArticleResponse, error) {
	args := m.Called(ctx, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*pipelineapp.ArticleResponse), args.Error(1)
}

func (m *MockRunService) Results(ctx context.Context, runID uuid.UUID) (*pipelineapp.ResultsDocument, error) {
	args := m.Called(ctx, runID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*pipelineapp.ResultsDocument), args.Error(1)
}

func (m *MockRunService) Archive(ctx context.Context, runID uuid.UUID) (*pipelineapp.ArchiveResponse, error) {
	args := m.Called(ctx, runID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*pipelineapp.ArchiveResponse), args.Error(1)
}

func (m *MockRunService) IsTerminal(ctx context.Context, runID uuid.UUID) (bool, error) {
	args := m.Called(ctx, runID)
	return args.Bool(0), args.Error(1)
}

// MockScheduleService implements ScheduleService for testing
type MockScheduleService struct {
	mock.Mock
}

func (m *MockScheduleService) Create(ctx context.Context, req pipelineapp.CreateScheduleRequest) (*pipelineapp.ScheduleResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*pipelineapp.ScheduleResponse), args.Error(1)
}

func (m *MockScheduleService) Get(ctx context.Context, id uuid.UUID) (*pipelineapp.ScheduleResponse, error) {
	return m.one(m.Called(ctx, id))
}

func (m *MockScheduleService) List(ctx context.Context, page, pageSize int) (shared.Paginated[pipelineapp.ScheduleResponse], error) {
	args := m.Called(ctx, page, pageSize)
	return args.Get(0).(shared.Paginated[pipelineapp.ScheduleResponse]), args.Error(1)
}

func (m *MockScheduleService) Enable(ctx context.Context, id uuid.UUID) (*pipelineapp.ScheduleResponse, error) {
	return m.one(m.Called(ctx, id))
}

func (m *MockScheduleService) Disable(ctx context.Context, id uuid.UUID) (*pipelineapp.ScheduleResponse, error) {
	return m.one(m.Called(ctx, id))
}

func (m *MockScheduleService) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockScheduleService) Trigger(ctx context.Context, id uuid.UUID) (*pipeline.Run, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*pipeline.Run), args.Error(1)
}

func (m *MockScheduleService) one(args mock.Arguments) (*pipelineapp.ScheduleResponse, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*pipelineapp.ScheduleResponse), args.Error(1)
}

// MockKeywordService implements KeywordService for testing
type MockKeywordService struct {
	mock.Mock
}

func (m *MockKeywordService) Research(ctx context.Context, req keywordapp.ResearchRequest) (*keywordapp.ResearchResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*keywordapp.ResearchResponse), args.Error(1)
}

func (m *MockKeywordService) Score(ctx context.Context, req keywordapp.ScoreRequest) (*keywordapp.ScoredResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*keywordapp.ScoredResponse), args.Error(1)
}

func (m *MockKeywordService) SERP(ctx context.Context, term string) (*keyword.SERPResult, error) {
	args := m.Called(ctx, term)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*keyword.SERPResult), args.Error(1)
}

func (m *MockKeywordService) Competitor(ctx context.Context, req keywordapp.CompetitorRequest) (*keyword.CompetitorProfile, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*keyword.CompetitorProfile), args.Error(1)
}

// MockContentAnalyzer implements ContentAnalyzer for testing
type MockContentAnalyzer struct {
	mock.Mock
}

func (m *MockContentAnalyzer) Analyze(ctx context.Context, req contentapp.AnalyzeRequest) (*contentapp.AnalyzeResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*contentapp.AnalyzeResponse), args.Error(1)
}

// MockTokenIssuer implements TokenIssuer for testing
type MockTokenIssuer struct {
	mock.Mock
}

func (m *MockTokenIssuer) Issue(username string) (*auth.TokenPair, error) {
	args := m.Called(username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.TokenPair), args.Error(1)
}

func (m *MockTokenIssuer) Refresh(refreshToken string) (*auth.TokenPair, error) {
	args := m.Called(refreshToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.TokenPair), args.Error(1)
}
