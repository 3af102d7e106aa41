package domain

import "testing"

func TestJobProgress(t *testing.T) {
	cases := []struct {
		status JobStatus
		want   int
	}{
		{JobStatusQueued, 0},
		{JobStatusProcessing, 50},
		{JobStatusCompleted, 100},
		{JobStatusFailed, 100},
		{JobStatusCancelled, 100},
		{JobStatusExpired, 100},
	}
	for _, tc := range cases {
		j := Job{Status: tc.status}
		if got := j.Progress(); got != tc.want {
			t.Fatalf("Progress() for %s = %d, want %d", tc.status, got, tc.want)
		}
	}
}

func TestJobTerminal(t *testing.T) {
	terminal := []JobStatus{JobStatusCompleted, JobStatusFailed, JobStatusCancelled, JobStatusExpired}
	for _, s := range terminal {
		if !s.Terminal() {
			t.Fatalf("Terminal() for %s = false, want true", s)
		}
	}
	for _, s := range []JobStatus{JobStatusQueued, JobStatusProcessing} {
		if s.Terminal() {
			t.Fatalf("Terminal() for %s = true, want false", s)
		}
	}
}

func TestJobCanRetry(t *testing.T) {
	cases := []struct {
		name string
		job  Job
		want bool
	}{
		{"failed under limit", Job{Status: JobStatusFailed, RetryCount: 1, MaxRetries: 3}, true},
		{"cancelled under limit", Job{Status: JobStatusCancelled, RetryCount: 0, MaxRetries: 3}, true},
		{"failed at limit", Job{Status: JobStatusFailed, RetryCount: 3, MaxRetries: 3}, false},
		{"completed", Job{Status: JobStatusCompleted, RetryCount: 0, MaxRetries: 3}, false},
		{"processing", Job{Status: JobStatusProcessing, RetryCount: 0, MaxRetries: 3}, false},
		{"expired", Job{Status: JobStatusExpired, RetryCount: 0, MaxRetries: 3}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.job.CanRetry(); got != tc.want {
				t.Fatalf("CanRetry() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestJobCancellable(t *testing.T) {
	if !(&Job{Status: JobStatusQueued}).Cancellable() {
		t.Fatal("queued job should be cancellable")
	}
	if !(&Job{Status: JobStatusProcessing}).Cancellable() {
		t.Fatal("processing job should be cancellable")
	}
	if (&Job{Status: JobStatusCompleted}).Cancellable() {
		t.Fatal("completed job should not be cancellable")
	}
}

func TestEventChannel(t *testing.T) {
	if got := EventChannel("u-42"); got != "jobs.u-42" {
		t.Fatalf("EventChannel() = %q, want jobs.u-42", got)
	}
}
