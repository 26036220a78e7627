// Package testutil provides common test helpers for the blog generator:
// databases, gin contexts, fixtures and polling assertions.
package testutil

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/seoblog/backend/internal/domain/pipeline"
	"github.com/seoblog/backend/internal/infrastructure/config"
	"github.com/seoblog/backend/internal/infrastructure/persistence"
	"github.com/seoblog/backend/internal/interfaces/http/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// MockDB wraps a GORM postgres dialect over sqlmock.
type MockDB struct {
	DB    *gorm.DB
	Mock  sqlmock.Sqlmock
	SqlDB *sql.DB
}

// NewMockDB creates a mock database closed on test cleanup.
func NewMockDB(t *testing.T) *MockDB {
	t.Helper()

	mockDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err, "Failed to create sqlmock")

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 gormlogger.Discard,
	})
	require.NoError(t, err, "Failed to open GORM connection")

	m := &MockDB{DB: gormDB, Mock: mock, SqlDB: mockDB}
	t.Cleanup(func() { _ = m.SqlDB.Close() })
	return m
}

// ExpectationsWereMet verifies that all expectations were met.
func (m *MockDB) ExpectationsWereMet(t *testing.T) {
	t.Helper()
	require.NoError(t, m.Mock.ExpectationsWereMet(), "Unmet database expectations")
}

// NewSQLiteDB opens a migrated in-memory sqlite database.
func NewSQLiteDB(t *testing.T) *persistence.Database {
	t.Helper()

	db, err := persistence.NewDatabase(&config.DatabaseConfig{Driver: "sqlite"}, zap.NewNop(), gormlogger.Silent)
	require.NoError(t, err, "Failed to open sqlite")
	require.NoError(t, db.AutoMigrate(), "Failed to migrate sqlite")
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// TestContext wraps a gin test context and its recorder.
type TestContext struct {
	Context  *gin.Context
	Recorder *httptest.ResponseRecorder
	Engine   *gin.Engine
}

// NewTestContext creates a gin context for a GET /.
func NewTestContext(t *testing.T) *TestContext {
	t.Helper()
	return NewTestContextWithRequest(t, httptest.NewRequest(http.MethodGet, "/", nil))
}

// NewTestContextWithRequest creates a gin context serving req.
func NewTestContextWithRequest(t *testing.T, req *http.Request) *TestContext {
	t.Helper()

	w := httptest.NewRecorder()
	c, engine := gin.CreateTestContext(w)
	c.Request = req
	return &TestContext{Context: c, Recorder: w, Engine: engine}
}

// SetRequestID stores a request ID the way the RequestID middleware does.
func (tc *TestContext) SetRequestID(id string) {
	tc.Context.Set(middleware.RequestIDKey, id)
}

// SetParam sets a path parameter such as :id.
func (tc *TestContext) SetParam(key, value string) {
	tc.Context.Params = append(tc.Context.Params, gin.Param{Key: key, Value: value})
}

// SetHeader sets a request header.
func (tc *TestContext) SetHeader(key, value string) {
	tc.Context.Request.Header.Set(key, value)
}

// ResponseBody returns the response body.
func (tc *TestContext) ResponseBody() []byte {
	return tc.Recorder.Body.Bytes()
}

// ResponseCode returns the HTTP status code.
func (tc *TestContext) ResponseCode() int {
	return tc.Recorder.Code
}

// NewTestUUID derives a stable UUID from seed.
func NewTestUUID(seed string) uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(seed))
}

// NewBrief returns a valid brief for "TaskFlow". Overrides run last.
func NewBrief(overrides ...func(*pipeline.Brief)) pipeline.Brief {
	b := pipeline.Brief{
		ProductName:    "TaskFlow",
		Niche:          "project management software",
		TargetAudience: "small agency owners",
		TargetKeywords: []string{"project management", "task tracking"},
		PublishStatus:  pipeline.PublishStatusDraft,
	}
	for _, o := range overrides {
		o(&b)
	}
	return b
}

// NewRun creates a pending run for NewBrief(overrides...).
func NewRun(t *testing.T, overrides ...func(*pipeline.Brief)) *pipeline.Run {
	t.Helper()
	run, err := pipeline.NewRun(NewBrief(overrides...))
	require.NoError(t, err, "Failed to create run")
	return run
}

// ContextWithTimeout returns a context cancelled on test cleanup or after timeout.
func ContextWithTimeout(t *testing.T, timeout time.Duration) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	t.Cleanup(cancel)
	return ctx
}

// AssertNever fails if condition becomes true within duration.
func AssertNever(t *testing.T, condition func() bool, duration, interval time.Duration, msgAndArgs ...any) {
	t.Helper()

	deadline := time.Now().Add(duration)
	for time.Now().Before(deadline) {
		if condition() {
			require.Fail(t, "Condition unexpectedly became true", msgAndArgs...)
		}
		time.Sleep(interval)
	}
}
