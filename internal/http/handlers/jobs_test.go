package handlers

import (
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"

	"bossai/internal/domain"
	"bossai/internal/sqlinline"
)

const testJobID = "11111111-2222-3333-4444-555555555555"

func testJob(status domain.JobStatus) domain.Job {
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	j := domain.Job{
		ID:            41,
		JobID:         testJobID,
		UserID:        "user-1",
		ContentType:   "social-post",
		Status:        status,
		Priority:      5,
		Provider:      "openai",
		Model:         "gpt-4o-mini",
		RequestParams: []byte(`{"topic":"pho bo","content_type":"social-post"}`),
		TokensUsed:    321,
		Cost:          0.0042,
		RetryCount:    1,
		MaxRetries:    3,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	switch status {
	case domain.JobStatusCompleted:
		done := now.Add(42 * time.Second)
		ms := int64(42000)
		j.ResultContent = "Pho bo is worth queueing for."
		j.CompletedAt = &done
		j.ProcessingMs = &ms
	case domain.JobStatusFailed:
		j.ErrorMessage = "provider timeout"
	}
	return j
}

// jobScanner fills the 24 scan destinations used by the job row readers.
func jobScanner(j domain.Job) func(dest ...any) error {
	return func(dest ...any) error {
		if len(dest) != 24 {
			return fmt.Errorf("job scan dests = %d, want 24", len(dest))
		}
		*(dest[0].(*int64)) = j.ID
		*(dest[1].(*string)) = j.JobID
		*(dest[2].(*string)) = j.UserID
		setOptString(dest[3], j.ContentType)
		*(dest[4].(*domain.JobStatus)) = j.Status
		*(dest[5].(*int)) = j.Priority
		setOptString(dest[6], j.Provider)
		setOptString(dest[7], j.Model)
		*(dest[8].(*[]byte)) = append([]byte(nil), j.RequestParams...)
		setOptString(dest[9], j.ResultContent)
		*(dest[10].(*int)) = j.TokensUsed
		*(dest[11].(*float64)) = j.Cost
		setOptString(dest[12], j.ErrorMessage)
		*(dest[13].(*[]byte)) = append([]byte(nil), j.ErrorDetails...)
		*(dest[14].(*int)) = j.RetryCount
		*(dest[15].(*int)) = j.MaxRetries
		*(dest[16].(**time.Time)) = j.NextRetryAt
		*(dest[17].(**time.Time)) = j.ExpiresAt
		*(dest[18].(**time.Time)) = j.StartedAt
		*(dest[19].(**time.Time)) = j.CompletedAt
		*(dest[20].(**int64)) = j.ProcessingMs
		*(dest[21].(*[]byte)) = append([]byte(nil), j.Metadata...)
		*(dest[22].(*time.Time)) = j.CreatedAt
		*(dest[23].(*time.Time)) = j.UpdatedAt
		return nil
	}
}

func setOptString(dest any, v string) {
	p := dest.(**string)
	if v == "" {
		*p = nil
		return
	}
	s := v
	*p = &s
}

func TestJobsEnqueue(t *testing.T) {
	var insertArgs []any
	sql := &stubSQL{
		queryRowFn: func(query string, args []any) pgx.Row {
			switch query {
			case sqlinline.QInsertJob:
				insertArgs = args
				return NewSimpleRow(func(dest ...any) error {
					*(dest[0].(*int64)) = 41
					*(dest[1].(*string)) = testJobID
					*(dest[2].(*time.Time)) = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
					return nil
				})
			case sqlinline.QQueuePosition:
				return NewSimpleRow(func(dest ...any) error {
					*(dest[0].(*int64)) = 3
					return nil
				})
			}
			t.Fatalf("unexpected query: %s", query)
			return nil
		},
	}
	app := newTestApp(sql)
	enq := &stubEnqueuer{}
	pub := &stubPublisher{}
	app.Enqueuer = enq
	app.Events = pub

	body := `{"contentType":"social-post","params":{"topic":"pho bo","tone":"friendly"},"priority":7}`
	rr := httptest.NewRecorder()
	app.JobsEnqueue(rr, authedRequest(t, "POST", "/api/v1/jobs", body, "user-1", "USER"))

	if rr.Code != 202 {
		t.Fatalf("status = %d, want 202; body %s", rr.Code, rr.Body.String())
	}
	if len(insertArgs) != 9 {
		t.Fatalf("insert args = %d, want 9", len(insertArgs))
	}
	if insertArgs[0] != "user-1" || insertArgs[1] != "social-post" || insertArgs[2] != 7 {
		t.Fatalf("insert args = %v", insertArgs[:3])
	}

	var resp map[string]any
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["jobId"] != testJobID || resp["status"] != "QUEUED" {
		t.Fatalf("response = %v", resp)
	}
	if resp["websocketChannel"] != domain.EventChannel("user-1") {
		t.Fatalf("websocketChannel = %v", resp["websocketChannel"])
	}
	if resp["queuePosition"] != float64(3) {
		t.Fatalf("queuePosition = %v", resp["queuePosition"])
	}

	if len(enq.jobIDs) != 1 || enq.jobIDs[0] != testJobID {
		t.Fatalf("enqueued = %v", enq.jobIDs)
	}
	if len(pub.events) != 1 || pub.events[0].Status != "QUEUED" || pub.events[0].Progress != 0 {
		t.Fatalf("events = %+v", pub.events)
	}
}

func TestJobsEnqueueValidation(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantCode string
	}{
		{"missing content type", `{"params":{"topic":"pho"}}`, "invalid_body"},
		{"missing topic", `{"contentType":"social-post","params":{}}`, "invalid_params"},
		{"unknown provider", `{"contentType":"social-post","params":{"topic":"pho"},"provider":"claude"}`, "unknown_provider"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp(&stubSQL{})
			rr := httptest.NewRecorder()
			app.JobsEnqueue(rr, authedRequest(t, "POST", "/api/v1/jobs", tt.body, "user-1", "USER"))

			if rr.Code != 400 {
				t.Fatalf("status = %d, want 400; body %s", rr.Code, rr.Body.String())
			}
			var resp errorResponse
			if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
				t.Fatalf("decode response: %v", err)
			}
			if resp.Error != tt.wantCode {
				t.Fatalf("error = %q, want %q", resp.Error, tt.wantCode)
			}
		})
	}
}

func TestJobsEnqueueSurvivesDeliveryFailure(t *testing.T) {
	sql := &stubSQL{
		queryRowFn: func(query string, args []any) pgx.Row {
			switch query {
			case sqlinline.QInsertJob:
				return NewSimpleRow(func(dest ...any) error {
					*(dest[0].(*int64)) = 41
					*(dest[1].(*string)) = testJobID
					*(dest[2].(*time.Time)) = time.Now()
					return nil
				})
			case sqlinline.QQueuePosition:
				return NewSimpleRow(func(dest ...any) error {
					*(dest[0].(*int64)) = 1
					return nil
				})
			}
			return NewSimpleRow(nil)
		},
	}
	app := newTestApp(sql)
	app.Enqueuer = &stubEnqueuer{err: fmt.Errorf("redis down")}

	body := `{"contentType":"social-post","params":{"topic":"pho bo"}}`
	rr := httptest.NewRecorder()
	app.JobsEnqueue(rr, authedRequest(t, "POST", "/api/v1/jobs", body, "user-1", "USER"))

	// The row is the source of truth; the stuck sweep redelivers later.
	if rr.Code != 202 {
		t.Fatalf("status = %d, want 202; body %s", rr.Code, rr.Body.String())
	}
}

func TestJobDetails(t *testing.T) {
	job := testJob(domain.JobStatusQueued)
	sql := &stubSQL{
		queryRowFn: func(query string, args []any) pgx.Row {
			switch query {
			case sqlinline.QSelectJobForUser:
				return NewSimpleRow(jobScanner(job))
			case sqlinline.QQueuePosition:
				return NewSimpleRow(func(dest ...any) error {
					*(dest[0].(*int64)) = 2
					return nil
				})
			}
			t.Fatalf("unexpected query: %s", query)
			return nil
		},
	}
	app := newTestApp(sql)

	req := withChiParam(authedRequest(t, "GET", "/api/v1/jobs/"+testJobID, "", "user-1", "USER"), "jobId", testJobID)
	rr := httptest.NewRecorder()
	app.JobDetails(rr, req)

	if rr.Code != 200 {
		t.Fatalf("status = %d, want 200; body %s", rr.Code, rr.Body.String())
	}
	var resp jobDetail
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.JobID != testJobID || resp.Status != domain.JobStatusQueued {
		t.Fatalf("detail = %+v", resp)
	}
	if resp.Progress != 0 {
		t.Fatalf("progress = %d, want 0 for queued", resp.Progress)
	}
	if resp.QueuePosition == nil || *resp.QueuePosition != 2 {
		t.Fatalf("queuePosition = %v, want 2", resp.QueuePosition)
	}
	if resp.CanRetry {
		t.Fatal("queued jobs are not retryable")
	}
}

func TestJobDetailsAdminSeesAnyUser(t *testing.T) {
	job := testJob(domain.JobStatusCompleted)
	var sawAdminQuery bool
	sql := &stubSQL{
		queryRowFn: func(query string, args []any) pgx.Row {
			if query == sqlinline.QSelectJobByJobID {
				sawAdminQuery = true
				if len(args) != 1 {
					t.Fatalf("admin lookup args = %d, want 1", len(args))
				}
				return NewSimpleRow(jobScanner(job))
			}
			t.Fatalf("unexpected query: %s", query)
			return nil
		},
	}
	app := newTestApp(sql)

	req := withChiParam(authedRequest(t, "GET", "/api/v1/jobs/"+testJobID, "", "admin-1", "ADMIN"), "jobId", testJobID)
	rr := httptest.NewRecorder()
	app.JobDetails(rr, req)

	if rr.Code != 200 {
		t.Fatalf("status = %d, want 200; body %s", rr.Code, rr.Body.String())
	}
	if !sawAdminQuery {
		t.Fatal("admin details should use the unscoped lookup")
	}
}

func TestJobDetailsNotFound(t *testing.T) {
	app := newTestApp(&stubSQL{})

	req := withChiParam(authedRequest(t, "GET", "/api/v1/jobs/"+testJobID, "", "user-1", "USER"), "jobId", testJobID)
	rr := httptest.NewRecorder()
	app.JobDetails(rr, req)

	if rr.Code != 404 {
		t.Fatalf("status = %d, want 404", rr.Code)
	}
}

func TestJobCancel(t *testing.T) {
	job := testJob(domain.JobStatusProcessing)
	sql := &stubSQL{
		queryRowFn: func(query string, args []any) pgx.Row {
			switch query {
			case sqlinline.QSelectJobForUser:
				return NewSimpleRow(jobScanner(job))
			case sqlinline.QCancelJob:
				return NewSimpleRow(func(dest ...any) error {
					*(dest[0].(*int64)) = job.ID
					*(dest[1].(*domain.JobStatus)) = domain.JobStatusCancelled
					return nil
				})
			}
			t.Fatalf("unexpected query: %s", query)
			return nil
		},
	}
	app := newTestApp(sql)
	pub := &stubPublisher{}
	app.Events = pub

	req := withChiParam(authedRequest(t, "DELETE", "/api/v1/jobs/"+testJobID, "", "user-1", "USER"), "jobId", testJobID)
	rr := httptest.NewRecorder()
	app.JobCancel(rr, req)

	if rr.Code != 200 {
		t.Fatalf("status = %d, want 200; body %s", rr.Code, rr.Body.String())
	}
	if len(pub.events) != 1 || pub.events[0].Status != "CANCELLED" || pub.events[0].Progress != 100 {
		t.Fatalf("events = %+v", pub.events)
	}
}

func TestJobCancelTerminalJob(t *testing.T) {
	job := testJob(domain.JobStatusCompleted)
	sql := &stubSQL{
		queryRowFn: func(query string, args []any) pgx.Row {
			if query == sqlinline.QSelectJobForUser {
				return NewSimpleRow(jobScanner(job))
			}
			t.Fatalf("unexpected query: %s", query)
			return nil
		},
	}
	app := newTestApp(sql)

	req := withChiParam(authedRequest(t, "DELETE", "/api/v1/jobs/"+testJobID, "", "user-1", "USER"), "jobId", testJobID)
	rr := httptest.NewRecorder()
	app.JobCancel(rr, req)

	if rr.Code != 409 {
		t.Fatalf("status = %d, want 409", rr.Code)
	}
}

func TestJobCancelLosesRace(t *testing.T) {
	job := testJob(domain.JobStatusQueued)
	sql := &stubSQL{
		queryRowFn: func(query string, args []any) pgx.Row {
			switch query {
			case sqlinline.QSelectJobForUser:
				return NewSimpleRow(jobScanner(job))
			case sqlinline.QCancelJob:
				// Worker finished the job between the check and the update.
				return NewSimpleRow(nil)
			}
			t.Fatalf("unexpected query: %s", query)
			return nil
		},
	}
	app := newTestApp(sql)

	req := withChiParam(authedRequest(t, "DELETE", "/api/v1/jobs/"+testJobID, "", "user-1", "USER"), "jobId", testJobID)
	rr := httptest.NewRecorder()
	app.JobCancel(rr, req)

	if rr.Code != 409 {
		t.Fatalf("status = %d, want 409", rr.Code)
	}
}

func TestJobRetry(t *testing.T) {
	job := testJob(domain.JobStatusFailed)
	const newJobID = "99999999-8888-7777-6666-555555555555"
	sql := &stubSQL{
		queryRowFn: func(query string, args []any) pgx.Row {
			switch query {
			case sqlinline.QSelectJobForUser:
				return NewSimpleRow(jobScanner(job))
			case sqlinline.QInsertRetryJob:
				if args[0] != job.JobID {
					t.Fatalf("retry insert arg = %v, want %s", args[0], job.JobID)
				}
				return NewSimpleRow(func(dest ...any) error {
					*(dest[0].(*int64)) = 42
					*(dest[1].(*string)) = newJobID
					*(dest[2].(*time.Time)) = time.Now()
					return nil
				})
			case sqlinline.QQueuePosition:
				return NewSimpleRow(func(dest ...any) error {
					*(dest[0].(*int64)) = 1
					return nil
				})
			}
			t.Fatalf("unexpected query: %s", query)
			return nil
		},
	}
	app := newTestApp(sql)
	enq := &stubEnqueuer{}
	app.Enqueuer = enq

	req := withChiParam(authedRequest(t, "POST", "/api/v1/jobs/"+testJobID+"/retry", "", "user-1", "USER"), "jobId", testJobID)
	rr := httptest.NewRecorder()
	app.JobRetry(rr, req)

	if rr.Code != 202 {
		t.Fatalf("status = %d, want 202; body %s", rr.Code, rr.Body.String())
	}
	var resp map[string]any
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["jobId"] != newJobID || resp["originalJobId"] != job.JobID {
		t.Fatalf("response = %v", resp)
	}
	if len(enq.jobIDs) != 1 || enq.jobIDs[0] != newJobID {
		t.Fatalf("enqueued = %v", enq.jobIDs)
	}
}

func TestJobRetryNotRetryable(t *testing.T) {
	tests := []struct {
		name string
		job  domain.Job
	}{
		{"completed job", testJob(domain.JobStatusCompleted)},
		{"retries exhausted", func() domain.Job {
			j := testJob(domain.JobStatusFailed)
			j.RetryCount = j.MaxRetries
			return j
		}()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql := &stubSQL{
				queryRowFn: func(query string, args []any) pgx.Row {
					if query == sqlinline.QSelectJobForUser {
						return NewSimpleRow(jobScanner(tt.job))
					}
					t.Fatalf("unexpected query: %s", query)
					return nil
				},
			}
			app := newTestApp(sql)

			req := withChiParam(authedRequest(t, "POST", "/api/v1/jobs/"+testJobID+"/retry", "", "user-1", "USER"), "jobId", testJobID)
			rr := httptest.NewRecorder()
			app.JobRetry(rr, req)

			if rr.Code != 409 {
				t.Fatalf("status = %d, want 409; body %s", rr.Code, rr.Body.String())
			}
		})
	}
}
