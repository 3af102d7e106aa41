package queue

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"

	"bossai/internal/cache"
)

type rowsBase struct{}

func (rowsBase) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (rowsBase) Conn() *pgx.Conn                              { return nil }
func (rowsBase) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (rowsBase) Values() ([]any, error)                       { return nil, errors.New("not supported") }
func (rowsBase) RawValues() [][]byte                          { return nil }

type fakeRows struct {
	rowsBase
	rows [][]any
	idx  int
}

func (r *fakeRows) Close()     {}
func (r *fakeRows) Err() error { return nil }

func (r *fakeRows) Next() bool {
	if r.idx >= len(r.rows) {
		return false
	}
	r.idx++
	return true
}

func (r *fakeRows) Scan(dest ...any) error {
	row := r.rows[r.idx-1]
	for i, v := range row {
		switch d := dest[i].(type) {
		case *string:
			*d = v.(string)
		case *int:
			*d = v.(int)
		default:
			return errors.New("unsupported scan dest")
		}
	}
	return nil
}

func newReaper(sql stubSQL, sched TaskScheduler, pub *capturePublisher) *Reaper {
	return &Reaper{
		SQL:            sql,
		Scheduler:      sched,
		Events:         pub,
		Cache:          cache.New(cache.NewMemoryStore(), zerolog.Nop()),
		Logger:         zerolog.Nop(),
		StuckAfter:     30 * time.Minute,
		RequeueAfter:   2 * time.Minute,
		PurgeAfterDays: 90,
	}
}

func TestReaperExpirePublishesEvents(t *testing.T) {
	sql := stubSQL{query: func(query string, args ...any) (pgx.Rows, error) {
		if !strings.Contains(query, "set status = 'EXPIRED'") {
			t.Fatalf("unexpected query:\n%s", query)
		}
		return &fakeRows{rows: [][]any{
			{"job-1", "user-1"},
			{"job-2", "user-2"},
		}}, nil
	}}

	pub := &capturePublisher{}
	r := newReaper(sql, &stubScheduler{}, pub)

	n, err := r.Expire(context.Background())
	if err != nil {
		t.Fatalf("Expire: %v", err)
	}
	if n != 2 {
		t.Fatalf("expired = %d, want 2", n)
	}
	if got := pub.statuses(); len(got) != 2 || got[0] != "EXPIRED" {
		t.Fatalf("event statuses = %v, want two EXPIRED", got)
	}
}

func TestReaperReapStuckRequeuesOrFails(t *testing.T) {
	var gotSecs int
	sql := stubSQL{query: func(query string, args ...any) (pgx.Rows, error) {
		gotSecs = args[0].(int)
		return &fakeRows{rows: [][]any{
			{"job-1", "user-1", "QUEUED", 9},
			{"job-2", "user-2", "FAILED", 5},
		}}, nil
	}}

	pub := &capturePublisher{}
	sched := &stubScheduler{}
	r := newReaper(sql, sched, pub)

	n, err := r.ReapStuck(context.Background())
	if err != nil {
		t.Fatalf("ReapStuck: %v", err)
	}
	if n != 2 {
		t.Fatalf("reaped = %d, want 2", n)
	}
	if gotSecs != 1800 {
		t.Fatalf("threshold secs = %d, want 1800", gotSecs)
	}
	if got := pub.statuses(); len(got) != 2 || got[0] != "QUEUED" || got[1] != "FAILED" {
		t.Fatalf("event statuses = %v, want [QUEUED FAILED]", got)
	}
	if len(sched.jobIDs) != 1 || sched.jobIDs[0] != "job-1" {
		t.Fatalf("re-enqueued = %v, want only the requeued row", sched.jobIDs)
	}
}

func TestReaperPromoteRetriesReenqueues(t *testing.T) {
	sql := stubSQL{query: func(query string, args ...any) (pgx.Rows, error) {
		if !strings.Contains(query, "status = 'QUEUED'") {
			t.Fatalf("unexpected query:\n%s", query)
		}
		return &fakeRows{rows: [][]any{
			{"job-1", 9},
			{"job-2", 5},
		}}, nil
	}}

	sched := &stubScheduler{}
	r := newReaper(sql, sched, &capturePublisher{})

	n, err := r.PromoteRetries(context.Background())
	if err != nil {
		t.Fatalf("PromoteRetries: %v", err)
	}
	if n != 2 {
		t.Fatalf("promoted = %d, want 2", n)
	}
	if len(sched.jobIDs) != 2 || sched.jobIDs[0] != "job-1" {
		t.Fatalf("scheduler jobIDs = %v", sched.jobIDs)
	}
}

func TestReaperPromoteRetriesContinuesOnEnqueueError(t *testing.T) {
	sql := stubSQL{query: func(query string, args ...any) (pgx.Rows, error) {
		return &fakeRows{rows: [][]any{{"job-1", 5}, {"job-2", 5}}}, nil
	}}

	sched := &stubScheduler{err: errors.New("redis down")}
	r := newReaper(sql, sched, &capturePublisher{})

	n, err := r.PromoteRetries(context.Background())
	if err != nil {
		t.Fatalf("PromoteRetries: %v", err)
	}
	if n != 0 {
		t.Fatalf("promoted = %d, want 0 when every enqueue fails", n)
	}
}

func TestReaperPurge(t *testing.T) {
	var gotDays int
	sql := stubSQL{exec: func(query string, args ...any) (pgconn.CommandTag, error) {
		if !strings.Contains(query, "delete from generation_jobs") {
			t.Fatalf("unexpected query:\n%s", query)
		}
		gotDays = args[0].(int)
		return pgconn.NewCommandTag("DELETE 42"), nil
	}}

	r := newReaper(sql, &stubScheduler{}, &capturePublisher{})

	n, err := r.Purge(context.Background())
	if err != nil {
		t.Fatalf("Purge: %v", err)
	}
	if n != 42 {
		t.Fatalf("purged = %d, want 42", n)
	}
	if gotDays != 90 {
		t.Fatalf("retention days = %d, want 90", gotDays)
	}
}
