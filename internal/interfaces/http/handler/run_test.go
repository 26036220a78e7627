package handler

import (
	"net/http"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	pipelineapp "github.com/seoblog/backend/internal/application/pipeline"
	"github.com/seoblog/backend/internal/domain/pipeline"
	"github.com/seoblog/backend/internal/domain/shared"
	"github.com/seoblog/backend/internal/interfaces/http/dto"
)

func runRoutes(svc RunService) func(*gin.Engine) {
	h := NewRunHandler(svc)
	a := NewArticleHandler(svc)
	return func(r *gin.Engine) {
		r.POST("/runs", h.Create)
		r.GET("/runs", h.List)
		r.GET("/runs/:id", h.Get)
		r.DELETE("/runs/:id", h.Delete)
		r.POST("/runs/:id/retry", h.Retry)
		r.GET("/runs/:id/article", h.Article)
		r.GET("/runs/:id/results", h.Results)
		r.GET("/runs/:id/archive", h.Archive)
		r.GET("/articles", a.List)
		r.GET("/articles/:id", a.Get)
		r.POST("/articles/:id/publish", a.Publish)
	}
}

const briefJSON = `{"product_name":"Acme Widget","niche":"home office","target_audience":"remote workers"}`

func TestRunHandler_Create(t *testing.T) {
	svc := new(MockRunService)
	id := uuid.New()
	svc.On("Create", mock.Anything, mock.MatchedBy(func(req pipelineapp.CreateRunRequest) bool {
		return req.ProductName == "Acme Widget" && req.Niche == "home office"
	})).Return(&pipelineapp.RunResponse{ID: id, Status: pipeline.RunStatusPending}, nil)

	w := serve(t, runRoutes(svc), http.MethodPost, "/runs", strings.NewReader(briefJSON))

	assert.Equal(t, http.StatusAccepted, w.Code)
	resp := decode(t, w)
	assert.True(t, resp.Success)
	data := resp.Data.(map[string]any)
	assert.Equal(t, id.String(), data["id"])
	assert.Equal(t, "PENDING", data["status"])
	svc.AssertExpectations(t)
}

func TestRunHandler_CreateValidation(t *testing.T) {
	svc := new(MockRunService)

	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"missing product", `{"niche":"n","target_audience":"a"}`, "product_name"},
		{"bad publish status", `{"product_name":"p","niche":"n","target_audience":"a","publish_status":"live"}`, "publish_status"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(t, runRoutes(svc), http.MethodPost, "/runs", strings.NewReader(tt.body))
			assert.Equal(t, http.StatusBadRequest, w.Code)
			resp := decode(t, w)
			require.NotNil(t, resp.Error)
			assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
			fields := make([]string, 0, len(resp.Error.Details))
			for _, d := range resp.Error.Details {
				fields = append(fields, d.Field)
			}
			assert.Contains(t, fields, tt.field)
		})
	}
	svc.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestRunHandler_List(t *testing.T) {
	svc := new(MockRunService)
	page := shared.NewPaginated([]pipelineapp.RunResponse{{ID: uuid.New()}}, 21, 2, 10)
	svc.On("List", mock.Anything, pipelineapp.RunListFilter{Page: 2, PageSize: 10, Status: "COMPLETED"}).Return(page, nil)

	w := serve(t, runRoutes(svc), http.MethodGet, "/runs?page=2&page_size=10&status=COMPLETED", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decode(t, w)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, int64(21), resp.Meta.Total)
	assert.Equal(t, 3, resp.Meta.TotalPages)
	assert.Len(t, resp.Data, 1)
}

func TestRunHandler_ListRejectsUnknownStatus(t *testing.T) {
	w := serve(t, runRoutes(new(MockRunService)), http.MethodGet, "/runs?status=DONE", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRunHandler_GetNotFound(t *testing.T) {
	svc := new(MockRunService)
	id := uuid.New()
	svc.On("Get", mock.Anything, id).Return(nil, shared.ErrNotFound)

	w := serve(t, runRoutes(svc), http.MethodGet, "/runs/"+id.String(), nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, dto.ErrCodeNotFound, decode(t, w).Error.Code)
}

func TestRunHandler_Delete(t *testing.T) {
	svc := new(MockRunService)
	done, busy := uuid.New(), uuid.New()
	svc.On("Delete", mock.Anything, done).Return(nil)
	svc.On("Delete", mock.Anything, busy).Return(shared.NewDomainError("RUN_IN_PROGRESS", "Cannot delete a running pipeline run"))

	w := serve(t, runRoutes(svc), http.MethodDelete, "/runs/"+done.String(), nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = serve(t, runRoutes(svc), http.MethodDelete, "/runs/"+busy.String(), nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "RUN_IN_PROGRESS", decode(t, w).Error.Code)
}

func TestRunHandler_Retry(t *testing.T) {
	svc := new(MockRunService)
	prev, next := uuid.New(), uuid.New()
	svc.On("Retry", mock.Anything, prev).Return(&pipelineapp.RunResponse{ID: next}, nil)

	w := serve(t, runRoutes(svc), http.MethodPost, "/runs/"+prev.String()+"/retry", nil)

	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, next.String(), decode(t, w).Data.(map[string]any)["id"])
}

func TestRunHandler_ResultsAndArchive(t *testing.T) {
	svc := new(MockRunService)
	id := uuid.New()
	svc.On("Results", mock.Anything, id).Return(nil, shared.NewDomainError("RUN_NOT_FINISHED", "Run has not finished yet"))
	svc.On("Archive", mock.Anything, id).Return(&pipelineapp.ArchiveResponse{Key: "results/x.json", URL: "file:///tmp/x.json"}, nil)

	w := serve(t, runRoutes(svc), http.MethodGet, "/runs/"+id.String()+"/results", nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = serve(t, runRoutes(svc), http.MethodGet, "/runs/"+id.String()+"/archive", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	data := decode(t, w).Data.(map[string]any)
	assert.Equal(t, "file:///tmp/x.json", data["url"])
	assert.NotContains(t, data, "expires_at")
}

func TestArticleHandler_Publish(t *testing.T) {
	svc := new(MockRunService)
	id := uuid.New()
	svc.On("PublishArticle", mock.Anything, id, pipelineapp.PublishArticleRequest{}).
		Return(&pipelineapp.ArticleResponse{ID: id}, nil).Once()
	svc.On("PublishArticle", mock.Anything, id, pipelineapp.PublishArticleRequest{Status: "draft"}).
		Return(nil, shared.NewDomainError("ALREADY_PUBLISHED", "Article is already published")).Once()

	w := serve(t, runRoutes(svc), http.MethodPost, "/articles/"+id.String()+"/publish", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = serve(t, runRoutes(svc), http.MethodPost, "/articles/"+id.String()+"/publish", strings.NewReader(`{"status":"draft"}`))
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "ALREADY_PUBLISHED", decode(t, w).Error.Code)
	svc.AssertExpectations(t)
}

func TestArticleHandler_List(t *testing.T) {
	svc := new(MockRunService)
	published := true
	svc.On("ListArticles", mock.Anything, pipelineapp.ArticleListFilter{Search: "widget", Published: &published}).
		Return(shared.NewPaginated([]pipelineapp.ArticleResponse{}, 0, 1, 20), nil)

	w := serve(t, runRoutes(svc), http.MethodGet, "/articles?search=widget&published=true", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}
