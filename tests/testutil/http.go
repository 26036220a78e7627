package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// HTTPTestCase is one request against a handler or engine.
type HTTPTestCase struct {
	Name           string
	Method         string
	Path           string
	Body           any
	Headers        map[string]string
	ExpectedStatus int
	ExpectedCode   string
	Validate       func(t *testing.T, w *httptest.ResponseRecorder)
}

// RunHTTPTestCases serves each case through h.
func RunHTTPTestCases(t *testing.T, h http.Handler, cases []HTTPTestCase) {
	t.Helper()
	for _, tc := range cases {
		t.Run(tc.Name, func(t *testing.T) {
			RunHTTPTestCase(t, h, tc)
		})
	}
}

// RunHTTPTestCase serves one case through h and checks status and error code.
func RunHTTPTestCase(t *testing.T, h http.Handler, tc HTTPTestCase) *httptest.ResponseRecorder {
	t.Helper()

	method := tc.Method
	if method == "" {
		method = http.MethodGet
	}
	var body io.Reader
	if tc.Body != nil {
		body = ToJSONReader(t, tc.Body)
	}
	req := httptest.NewRequest(method, tc.Path, body)
	if tc.Body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range tc.Headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if tc.ExpectedStatus != 0 {
		assert.Equal(t, tc.ExpectedStatus, w.Code, "body: %s", w.Body.String())
	}
	if tc.ExpectedCode != "" {
		AssertErrorCode(t, w.Body.Bytes(), tc.ExpectedCode)
	}
	if tc.Validate != nil {
		tc.Validate(t, w)
	}
	return w
}

// Envelope is the dashboard API response body.
type Envelope[T any] struct {
	Success bool `json:"success"`
	Data    T    `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// DecodeEnvelope parses an API response with data of type T.
func DecodeEnvelope[T any](t *testing.T, body []byte) Envelope[T] {
	t.Helper()
	var env Envelope[T]
	require.NoError(t, json.Unmarshal(body, &env), "body: %s", string(body))
	return env
}

// AssertErrorCode checks an error envelope carries code.
func AssertErrorCode(t *testing.T, body []byte, code string) {
	t.Helper()
	env := DecodeEnvelope[json.RawMessage](t, body)
	assert.False(t, env.Success)
	require.NotNil(t, env.Error, "expected an error object")
	assert.Equal(t, code, env.Error.Code)
}

// ToJSONReader marshals v for a request body.
func ToJSONReader(t *testing.T, v any) io.Reader {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err, "Failed to marshal to JSON")
	return bytes.NewReader(data)
}
