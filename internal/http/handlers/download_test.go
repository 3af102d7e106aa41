package handlers

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"

	"bossai/internal/domain"
	"bossai/internal/sqlinline"
	"bossai/internal/storage"
)

func TestJobDownloadText(t *testing.T) {
	job := testJob(domain.JobStatusCompleted)
	sql := &stubSQL{
		queryRowFn: func(query string, args []any) pgx.Row {
			if query != sqlinline.QSelectJobForUser {
				t.Fatalf("unexpected query: %s", query)
			}
			if len(args) != 2 || args[0] != testJobID || args[1] != "user-1" {
				t.Fatalf("lookup args = %v", args)
			}
			return NewSimpleRow(jobScanner(job))
		},
	}
	app := newTestApp(sql)

	req := withChiParam(
		authedRequest(t, "GET", "/api/v1/jobs/"+testJobID+"/download", "", "user-1", "USER"),
		"jobId", testJobID,
	)
	rr := httptest.NewRecorder()
	app.JobDownload(rr, req)

	if rr.Code != 200 {
		t.Fatalf("status = %d, want 200; body %s", rr.Code, rr.Body.String())
	}
	if ct := rr.Header().Get("Content-Type"); ct != "text/plain; charset=utf-8" {
		t.Fatalf("content type = %q", ct)
	}
	wantName := "job_" + testJobID + "_content_20250301_090042.txt"
	if cd := rr.Header().Get("Content-Disposition"); !strings.Contains(cd, wantName) {
		t.Fatalf("content disposition = %q, want filename %q", cd, wantName)
	}
	body := rr.Body.String()
	if !strings.HasPrefix(body, "# Job ID: "+testJobID+"\n") {
		t.Fatalf("body header = %q", body)
	}
	for _, want := range []string{"# Provider: openai", "# Tokens Used: 321", "Pho bo is worth queueing for."} {
		if !strings.Contains(body, want) {
			t.Fatalf("body missing %q:\n%s", want, body)
		}
	}
}

func TestJobDownloadRaw(t *testing.T) {
	job := testJob(domain.JobStatusCompleted)
	sql := &stubSQL{
		queryRowFn: func(query string, args []any) pgx.Row {
			return NewSimpleRow(jobScanner(job))
		},
	}
	app := newTestApp(sql)

	req := withChiParam(
		authedRequest(t, "GET", "/api/v1/jobs/"+testJobID+"/download?format=raw", "", "user-1", "USER"),
		"jobId", testJobID,
	)
	rr := httptest.NewRecorder()
	app.JobDownload(rr, req)

	if rr.Code != 200 {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	if rr.Body.String() != job.ResultContent {
		t.Fatalf("raw body = %q, want the stored content", rr.Body.String())
	}
}

func TestJobDownloadJSON(t *testing.T) {
	job := testJob(domain.JobStatusCompleted)
	sql := &stubSQL{
		queryRowFn: func(query string, args []any) pgx.Row {
			return NewSimpleRow(jobScanner(job))
		},
	}
	app := newTestApp(sql)

	req := withChiParam(
		authedRequest(t, "GET", "/api/v1/jobs/"+testJobID+"/download?format=json", "", "user-1", "USER"),
		"jobId", testJobID,
	)
	rr := httptest.NewRecorder()
	app.JobDownload(rr, req)

	if rr.Code != 200 {
		t.Fatalf("status = %d, want 200; body %s", rr.Code, rr.Body.String())
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("content type = %q", ct)
	}
	var doc map[string]any
	if err := json.NewDecoder(rr.Body).Decode(&doc); err != nil {
		t.Fatalf("decode document: %v", err)
	}
	if doc["jobId"] != testJobID || doc["content"] != job.ResultContent {
		t.Fatalf("document = %+v", doc)
	}
	if doc["tokensUsed"] != float64(321) || doc["processingTimeMs"] != float64(42000) {
		t.Fatalf("document counters = %v / %v", doc["tokensUsed"], doc["processingTimeMs"])
	}
}

func TestJobDownloadAdminCrossUser(t *testing.T) {
	job := testJob(domain.JobStatusCompleted)
	sql := &stubSQL{
		queryRowFn: func(query string, args []any) pgx.Row {
			if query != sqlinline.QSelectJobByJobID {
				t.Fatalf("unexpected query: %s", query)
			}
			if len(args) != 1 || args[0] != testJobID {
				t.Fatalf("lookup args = %v", args)
			}
			return NewSimpleRow(jobScanner(job))
		},
	}
	app := newTestApp(sql)

	req := withChiParam(
		authedRequest(t, "GET", "/api/v1/jobs/"+testJobID+"/download", "", "admin-1", "ADMIN"),
		"jobId", testJobID,
	)
	rr := httptest.NewRecorder()
	app.JobDownload(rr, req)

	if rr.Code != 200 {
		t.Fatalf("status = %d, want 200; body %s", rr.Code, rr.Body.String())
	}
}

func TestJobDownloadRejections(t *testing.T) {
	tests := []struct {
		name       string
		target     string
		status     domain.JobStatus
		missing    bool
		wantStatus int
		wantError  string
	}{
		{
			name:       "unknown format",
			target:     "/api/v1/jobs/" + testJobID + "/download?format=pdf",
			status:     domain.JobStatusCompleted,
			wantStatus: 400,
			wantError:  "unknown_format",
		},
		{
			name:       "job still processing",
			target:     "/api/v1/jobs/" + testJobID + "/download",
			status:     domain.JobStatusProcessing,
			wantStatus: 409,
			wantError:  "not_completed",
		},
		{
			name:       "unknown job",
			target:     "/api/v1/jobs/" + testJobID + "/download",
			missing:    true,
			wantStatus: 404,
			wantError:  "unknown_job",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql := &stubSQL{
				queryRowFn: func(query string, args []any) pgx.Row {
					if tt.missing {
						return NewSimpleRow(nil)
					}
					return NewSimpleRow(jobScanner(testJob(tt.status)))
				},
			}
			app := newTestApp(sql)

			req := withChiParam(
				authedRequest(t, "GET", tt.target, "", "user-1", "USER"),
				"jobId", testJobID,
			)
			rr := httptest.NewRecorder()
			app.JobDownload(rr, req)

			if rr.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d; body %s", rr.Code, tt.wantStatus, rr.Body.String())
			}
			var resp errorResponse
			if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
				t.Fatalf("decode response: %v", err)
			}
			if resp.Error != tt.wantError {
				t.Fatalf("error = %q, want %q", resp.Error, tt.wantError)
			}
		})
	}
}

func TestAdminJobsExport(t *testing.T) {
	first := testJob(domain.JobStatusCompleted)
	second := testJob(domain.JobStatusCompleted)
	second.JobID = "99999999-8888-7777-6666-555555555555"

	var gotArgs []any
	sql := &stubSQL{
		queryFn: func(query string, args []any) (pgx.Rows, error) {
			gotArgs = args
			return &stubRows{scans: []func(dest ...any) error{
				jobScanner(first),
				jobScanner(second),
			}}, nil
		},
	}
	app := newTestApp(sql)
	dir := t.TempDir()
	store, err := storage.NewFileStore(dir)
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}
	app.Exports = store

	rr := httptest.NewRecorder()
	app.AdminJobsExport(rr, authedRequest(t, "GET", "/api/v1/admin/jobs/export", "", "admin-1", "ADMIN"))

	if rr.Code != 200 {
		t.Fatalf("status = %d, want 200; body %s", rr.Code, rr.Body.String())
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/zip" {
		t.Fatalf("content type = %q", ct)
	}
	// Unfiltered export still pages with limit/offset only.
	if len(gotArgs) != 2 || gotArgs[0] != exportLimit || gotArgs[1] != 0 {
		t.Fatalf("query args = %v, want [1000 0]", gotArgs)
	}

	exportKey := rr.Header().Get("X-Export-Key")
	if !strings.HasPrefix(exportKey, "jobs_export_") || !strings.HasSuffix(exportKey, ".zip") {
		t.Fatalf("export key = %q", exportKey)
	}

	zr, err := zip.NewReader(bytes.NewReader(rr.Body.Bytes()), int64(rr.Body.Len()))
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	if len(zr.File) != 2 {
		t.Fatalf("archive entries = %d, want 2", len(zr.File))
	}
	names := map[string]bool{}
	for _, f := range zr.File {
		names[f.Name] = true
	}
	for _, want := range []string{"job_" + first.JobID + ".txt", "job_" + second.JobID + ".txt"} {
		if !names[want] {
			t.Fatalf("archive missing %q, has %v", want, names)
		}
	}
	rc, err := zr.File[0].Open()
	if err != nil {
		t.Fatalf("open entry: %v", err)
	}
	entry, err := io.ReadAll(rc)
	rc.Close()
	if err != nil {
		t.Fatalf("read entry: %v", err)
	}
	if !strings.HasPrefix(string(entry), "# Job ID: ") {
		t.Fatalf("entry body = %q", entry)
	}

	// A copy of the archive lands in the export directory.
	onDisk, err := os.ReadFile(filepath.Join(dir, exportKey))
	if err != nil {
		t.Fatalf("read archived copy: %v", err)
	}
	if !bytes.Equal(onDisk, rr.Body.Bytes()) {
		t.Fatalf("archived copy differs from response (%d vs %d bytes)", len(onDisk), rr.Body.Len())
	}
}

func TestAdminJobsExportFiltersStatus(t *testing.T) {
	var gotArgs []any
	sql := &stubSQL{
		queryFn: func(query string, args []any) (pgx.Rows, error) {
			gotArgs = args
			return &stubRows{}, nil
		},
	}
	app := newTestApp(sql)

	rr := httptest.NewRecorder()
	app.AdminJobsExport(rr, authedRequest(t, "GET", "/api/v1/admin/jobs/export?status=completed", "", "admin-1", "ADMIN"))

	if rr.Code != 200 {
		t.Fatalf("status = %d, want 200; body %s", rr.Code, rr.Body.String())
	}
	if len(gotArgs) != 3 || gotArgs[0] != "COMPLETED" {
		t.Fatalf("query args = %v, want status first", gotArgs)
	}
}

func TestAdminJobsExportRejectsBadTime(t *testing.T) {
	app := newTestApp(&stubSQL{})

	rr := httptest.NewRecorder()
	app.AdminJobsExport(rr, authedRequest(t, "GET", "/api/v1/admin/jobs/export?createdAfter=notatime", "", "admin-1", "ADMIN"))

	if rr.Code != 400 {
		t.Fatalf("status = %d, want 400; body %s", rr.Code, rr.Body.String())
	}
}
