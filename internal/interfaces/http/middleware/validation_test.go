package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seoblog/backend/internal/interfaces/http/dto"
)

type briefBody struct {
	ProductName string   `json:"product_name" binding:"required,max=10"`
	Keywords    []string `json:"keywords" binding:"max=2"`
	Status      string   `json:"status" binding:"omitempty,oneof=draft publish"`
}

func bindRouter() *gin.Engine {
	SetupValidator()
	r := gin.New()
	r.Use(RequestID())
	r.POST("/bind", func(c *gin.Context) {
		var body briefBody
		if err := c.ShouldBindJSON(&body); err != nil {
			HandleValidationError(c, err)
			return
		}
		c.Status(http.StatusOK)
	})
	return r
}

func postBind(t *testing.T, body string) (*httptest.ResponseRecorder, dto.Response) {
	t.Helper()
	w := httptest.NewRecorder()
	bindRouter().ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/bind", strings.NewReader(body)))
	var resp dto.Response
	if w.Code != http.StatusOK {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	}
	return w, resp
}

func TestHandleValidationError(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		w, _ := postBind(t, `{"product_name":"Widget"}`)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("field errors use json names", func(t *testing.T) {
		w, resp := postBind(t, `{"keywords":["a","b","c"],"status":"live"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		require.NotNil(t, resp.Error)
		assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
		assert.NotEmpty(t, resp.Error.RequestID)

		byField := map[string]string{}
		for _, d := range resp.Error.Details {
			byField[d.Field] = d.Message
		}
		assert.Equal(t, "This field is required", byField["product_name"])
		assert.Equal(t, "Must have at most 2 items", byField["keywords"])
		assert.Equal(t, "Must be one of: draft publish", byField["status"])
	})

	t.Run("malformed json", func(t *testing.T) {
		w, resp := postBind(t, `{"product_name":`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, []string{dto.ErrCodeInvalidJSON, dto.ErrCodeBadRequest}, resp.Error.Code)
	})

	t.Run("wrong type", func(t *testing.T) {
		w, resp := postBind(t, `{"product_name":42}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		require.Len(t, resp.Error.Details, 1)
		assert.Equal(t, "product_name", resp.Error.Details[0].Field)
	})
}
