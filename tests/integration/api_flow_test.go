package integration

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	contentapp "github.com/seoblog/backend/internal/application/content"
	keywordapp "github.com/seoblog/backend/internal/application/keyword"
	pipelineapp "github.com/seoblog/backend/internal/application/pipeline"
	"github.com/seoblog/backend/internal/bootstrap"
	"github.com/seoblog/backend/internal/domain/pipeline"
	"github.com/seoblog/backend/internal/infrastructure/auth"
	"github.com/seoblog/backend/internal/infrastructure/config"
	"github.com/seoblog/backend/internal/infrastructure/scheduler"
	"github.com/seoblog/backend/internal/infrastructure/telemetry"
	"github.com/seoblog/backend/internal/interfaces/http/handler"
	"github.com/seoblog/backend/internal/interfaces/http/router"
	"github.com/seoblog/backend/tests/testutil"
)

const adminPassword = "correct horse battery"

type apiServer struct {
	*httptest.Server
	token string
}

// newAPIServer wires the offline pipeline behind the real engine, with a
// worker pool and authentication enabled.
func newAPIServer(t *testing.T) *apiServer {
	t.Helper()
	ctx := context.Background()
	log := zap.NewNop()

	hash, err := auth.HashPassword(adminPassword)
	require.NoError(t, err)

	cfg := &config.Config{
		App:  config.AppConfig{Name: "seoblog", Env: "test"},
		LLM:  config.LLMConfig{Provider: "offline"},
		Auth: config.AuthConfig{AdminUsername: "admin", AdminPasswordHash: hash},
		JWT: config.JWTConfig{
			Secret:                 "integration-secret-0123456789abcdef",
			AccessTokenExpiration:  time.Hour,
			RefreshTokenExpiration: 24 * time.Hour,
			Issuer:                 "seoblog",
		},
		Pipeline: config.PipelineConfig{
			AgentMaxRetries:      1,
			AgentTimeout:         10 * time.Second,
			RetryBackoffBase:     time.Millisecond,
			DefaultPublishStatus: "draft",
		},
		Storage: config.StorageConfig{LocalDir: t.TempDir()},
		HTTP:    config.HTTPConfig{MaxBodySize: 1 << 20},
	}

	db := testutil.NewSQLiteDB(t)
	metrics := telemetry.NewMetrics(false)
	pl, err := bootstrap.Build(ctx, cfg, db.DB, metrics, log)
	require.NoError(t, err)

	pool := scheduler.NewScheduler(scheduler.Config{
		Workers:       2,
		QueueSize:     10,
		JobTimeout:    time.Minute,
		RetryAttempts: 1,
		RetryDelay:    time.Millisecond,
	}, scheduler.NewRunExecutor(pl.Orchestrator, log), log)
	require.NoError(t, pool.Start(ctx))

	runs := pl.RunService(cfg, pool)
	schedules := pipelineapp.NewScheduleService(pl.Schedules, runs, "draft", log)
	jwtService := auth.NewJWTService(cfg.JWT)
	authenticator := auth.NewAuthenticator(cfg.Auth)

	engine := router.NewEngine(router.EngineConfig{
		HTTP:    cfg.HTTP,
		Logger:  log,
		Metrics: metrics,
		Tokens:  jwtService,
	}, router.Handlers{
		Auth:      handler.NewAuthHandler(authenticator, jwtService, log),
		Runs:      handler.NewRunHandler(runs),
		Progress:  handler.NewProgressHandler(runs, pl.Hub, log, handler.WithProgressHeartbeat(50*time.Millisecond)),
		Articles:  handler.NewArticleHandler(runs),
		Schedules: handler.NewScheduleHandler(schedules),
		Keywords:  handler.NewKeywordHandler(keywordapp.NewService(pl.SEO, log)),
		Content:   handler.NewContentHandler(contentapp.NewService()),
		System:    handler.NewSystemHandler("seoblog", "test", db, handler.WithSEOSources(pl.SEO)),
	})

	srv := httptest.NewServer(engine)
	t.Cleanup(func() {
		srv.Close()
		stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = pool.Stop(stopCtx)
		pl.Close(stopCtx)
	})

	s := &apiServer{Server: srv}
	s.token = s.login(t)
	return s
}

func (s *apiServer) login(t *testing.T) string {
	t.Helper()
	resp := s.do(t, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"username": "admin",
		"password": adminPassword,
	})
	require.Equal(t, http.StatusOK, resp.code, resp.body)
	env := testutil.DecodeEnvelope[auth.TokenPair](t, []byte(resp.body))
	require.NotEmpty(t, env.Data.AccessToken)
	return env.Data.AccessToken
}

type apiResponse struct {
	code int
	body string
}

func (s *apiServer) do(t *testing.T, method, path string, body any) apiResponse {
	t.Helper()
	var req *http.Request
	var err error
	if body != nil {
		req, err = http.NewRequest(method, s.URL+path, testutil.ToJSONReader(t, body))
		require.NoError(t, err)
		req.Header.Set("Content-Type", "application/json")
	} else {
		req, err = http.NewRequest(method, s.URL+path, nil)
		require.NoError(t, err)
	}
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var sb strings.Builder
	_, err = bufio.NewReader(resp.Body).WriteTo(&sb)
	require.NoError(t, err)
	return apiResponse{code: resp.StatusCode, body: sb.String()}
}

func (s *apiServer) waitForRun(t *testing.T, id uuid.UUID) pipelineapp.RunResponse {
	t.Helper()
	var run pipelineapp.RunResponse
	require.Eventually(t, func() bool {
		resp := s.do(t, http.MethodGet, "/api/v1/runs/"+id.String(), nil)
		if resp.code != http.StatusOK {
			return false
		}
		run = testutil.DecodeEnvelope[pipelineapp.RunResponse](t, []byte(resp.body)).Data
		return run.Status.IsTerminal()
	}, 30*time.Second, 50*time.Millisecond)
	return run
}

func TestAPI_GenerateArticleEndToEnd(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	s := newAPIServer(t)

	created := s.do(t, http.MethodPost, "/api/v1/runs", map[string]any{
		"product_name":    "TaskFlow",
		"niche":           "project management software",
		"target_audience": "small agency owners",
		"target_keywords": []string{"project management"},
	})
	require.Equal(t, http.StatusAccepted, created.code, created.body)
	id := testutil.DecodeEnvelope[pipelineapp.RunResponse](t, []byte(created.body)).Data.ID

	run := s.waitForRun(t, id)
	assert.Equal(t, pipeline.RunStatusCompleted, run.Status, run.Errors)
	assert.Equal(t, 100, run.Progress)
	require.Len(t, run.Stages, 7)
	assert.Equal(t, pipeline.StageStatusSkipped, run.Stages[6].Status)

	art := s.do(t, http.MethodGet, "/api/v1/runs/"+id.String()+"/article", nil)
	require.Equal(t, http.StatusOK, art.code, art.body)
	article := testutil.DecodeEnvelope[pipelineapp.ArticleResponse](t, []byte(art.body)).Data
	assert.Contains(t, article.Title, "TaskFlow")
	assert.NotEmpty(t, article.HTML)
	assert.Positive(t, article.WordCount)
	assert.False(t, article.Published)

	results := s.do(t, http.MethodGet, "/api/v1/runs/"+id.String()+"/results", nil)
	require.Equal(t, http.StatusOK, results.code, results.body)
	doc := testutil.DecodeEnvelope[pipelineapp.ResultsDocument](t, []byte(results.body)).Data
	assert.Equal(t, "TaskFlow", doc.Config.ProductName)
	assert.Nil(t, doc.WordPress)

	list := s.do(t, http.MethodGet, "/api/v1/articles?page=1&page_size=10", nil)
	require.Equal(t, http.StatusOK, list.code, list.body)
	assert.Len(t, testutil.DecodeEnvelope[[]pipelineapp.ArticleResponse](t, []byte(list.body)).Data, 1)
}

func TestAPI_ProgressStreamOfFinishedRun(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	s := newAPIServer(t)

	created := s.do(t, http.MethodPost, "/api/v1/runs", map[string]any{
		"product_name":       "InboxZero",
		"niche":              "email productivity",
		"target_audience":    "remote teams",
		"skip_quality_check": true,
	})
	require.Equal(t, http.StatusAccepted, created.code, created.body)
	id := testutil.DecodeEnvelope[pipelineapp.RunResponse](t, []byte(created.body)).Data.ID
	finished := s.waitForRun(t, id)

	// EventSource clients pass the token in the query string
	resp, err := http.Get(s.URL + "/api/v1/runs/" + id.String() + "/progress?access_token=" + s.token)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	var event, data string
	sc := bufio.NewScanner(resp.Body)
	for sc.Scan() {
		line := sc.Text()
		if v, ok := strings.CutPrefix(line, "event: "); ok {
			event = v
		}
		if v, ok := strings.CutPrefix(line, "data: "); ok {
			data = v
			break
		}
	}
	assert.Equal(t, pipelineapp.ProgressEventFinished, event)
	var ev pipelineapp.ProgressEvent
	require.NoError(t, json.Unmarshal([]byte(data), &ev))
	assert.Equal(t, id, ev.RunID)
	assert.Equal(t, finished.Progress, ev.Overall)
}

func TestAPI_ScheduleTrigger(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	s := newAPIServer(t)

	created := s.do(t, http.MethodPost, "/api/v1/schedules", map[string]any{
		"name":      "weekly roundup",
		"cron_expr": "@weekly",
		"brief": map[string]any{
			"product_name":    "TaskBoard",
			"niche":           "kanban tools",
			"target_audience": "developers",
		},
	})
	require.Equal(t, http.StatusCreated, created.code, created.body)
	scheduleID := testutil.DecodeEnvelope[pipelineapp.ScheduleResponse](t, []byte(created.body)).Data.ID

	triggered := s.do(t, http.MethodPost, "/api/v1/schedules/"+scheduleID.String()+"/trigger", nil)
	require.Equal(t, http.StatusAccepted, triggered.code, triggered.body)
	run := testutil.DecodeEnvelope[pipelineapp.RunResponse](t, []byte(triggered.body)).Data
	require.NotNil(t, run.ScheduleID)
	assert.Equal(t, scheduleID, *run.ScheduleID)

	finished := s.waitForRun(t, run.ID)
	assert.True(t, finished.Status.IsTerminal())
}

func TestAPI_RequiresToken(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	s := newAPIServer(t)
	s.token = ""

	resp := s.do(t, http.MethodGet, "/api/v1/runs", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.code)
	testutil.AssertErrorCode(t, []byte(resp.body), "ERR_UNAUTHORIZED")

	health := s.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, health.code)
}

func TestAPI_KeywordAndContentTools(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	s := newAPIServer(t)

	research := s.do(t, http.MethodPost, "/api/v1/keywords/research", map[string]any{
		"keywords": []string{"task tracking"},
	})
	assert.Equal(t, http.StatusOK, research.code, research.body)

	analyze := s.do(t, http.MethodPost, "/api/v1/content/analyze", map[string]any{
		"content":  "# Task tracking\n\nTask tracking keeps teams honest. It shows who does what.",
		"keywords": []string{"task tracking"},
	})
	assert.Equal(t, http.StatusOK, analyze.code, analyze.body)

	status := s.do(t, http.MethodGet, "/api/v1/integrations/status", nil)
	assert.Equal(t, http.StatusOK, status.code, status.body)
	assert.Contains(t, status.body, "not configured")
}
