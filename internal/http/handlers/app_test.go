package handlers

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"

	"bossai/internal/cache"
	"bossai/internal/infra"
	"bossai/internal/middleware"
	"bossai/internal/ws"
)

func testConfig() *infra.Config {
	return &infra.Config{
		JWTSecret:        "test-secret",
		JWTIssuer:        "boss-ai",
		JWTAudience:      "boss-ai-clients",
		AccessTokenTTL:   time.Hour,
		RefreshTokenTTL:  7 * 24 * time.Hour,
		MaxLoginAttempts: 5,
		LockoutDuration:  30 * time.Minute,
		JobTTL:           24 * time.Hour,
		RateLimitPerMin:  60,
		CORSOrigins:      []string{"http://localhost:3000"},
	}
}

// newTestApp wires an App with an in-process cache and no-op collaborators.
// Tests overwrite individual fields when they assert on interactions.
func newTestApp(sql infra.SQLExecutor) *App {
	return &App{
		SQL:      sql,
		Logger:   zerolog.Nop(),
		Config:   testConfig(),
		Cache:    cache.New(cache.NewMemoryStore(), zerolog.Nop()),
		Enqueuer: &stubEnqueuer{},
		Events:   &stubPublisher{},
	}
}

func jsonBody(s string) io.Reader {
	return strings.NewReader(s)
}

// authedRequest builds a request already carrying the identity AuthJWT
// would have attached.
func authedRequest(t *testing.T, method, target, body, userID, role string) *http.Request {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rd)
	ctx := middleware.ContextWithUserID(req.Context(), userID)
	ctx = middleware.ContextWithRole(ctx, role)
	return req.WithContext(ctx)
}

// withChiParam attaches a chi route parameter the way the router would.
func withChiParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// stubSQL dispatches to per-test functions. Nil functions behave like an
// empty database: no rows, successful exec.
type stubSQL struct {
	queryRowFn func(query string, args []any) pgx.Row
	queryFn    func(query string, args []any) (pgx.Rows, error)
	execFn     func(query string, args []any) (pgconn.CommandTag, error)

	execQueries []string
}

func (s *stubSQL) Exec(_ context.Context, query string, args ...any) (pgconn.CommandTag, error) {
	s.execQueries = append(s.execQueries, query)
	if s.execFn == nil {
		return pgconn.CommandTag{}, nil
	}
	return s.execFn(query, args)
}

func (s *stubSQL) QueryRow(_ context.Context, query string, args ...any) pgx.Row {
	if s.queryRowFn == nil {
		return NewSimpleRow(nil)
	}
	return s.queryRowFn(query, args)
}

func (s *stubSQL) Query(_ context.Context, query string, args ...any) (pgx.Rows, error) {
	if s.queryFn == nil {
		return &stubRows{}, nil
	}
	return s.queryFn(query, args)
}

// stubRows serves one scan function per row.
type stubRows struct {
	TestRowsBase
	scans []func(dest ...any) error
	idx   int
	err   error
}

func (r *stubRows) Next() bool {
	if r.idx >= len(r.scans) {
		return false
	}
	r.idx++
	return true
}

func (r *stubRows) Scan(dest ...any) error {
	if r.idx == 0 || r.idx > len(r.scans) {
		return pgx.ErrNoRows
	}
	return r.scans[r.idx-1](dest...)
}

func (r *stubRows) Err() error { return r.err }

func (r *stubRows) Close() {}

type stubEnqueuer struct {
	jobIDs []string
	err    error
}

func (s *stubEnqueuer) EnqueueGeneration(_ context.Context, jobID string, _ int, _ time.Duration) error {
	s.jobIDs = append(s.jobIDs, jobID)
	return s.err
}

type stubPublisher struct {
	events []ws.JobEvent
	err    error
}

func (s *stubPublisher) PublishJobEvent(_ context.Context, ev ws.JobEvent) error {
	s.events = append(s.events, ev)
	return s.err
}
