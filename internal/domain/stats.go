package domain

import "time"

// JobStatistics aggregates one user's job history.
type JobStatistics struct {
	TotalJobs         int64   `json:"totalJobs"`
	Queued            int64   `json:"queued"`
	Processing        int64   `json:"processing"`
	Completed         int64   `json:"completed"`
	Failed            int64   `json:"failed"`
	Cancelled         int64   `json:"cancelled"`
	Expired           int64   `json:"expired"`
	SuccessRate       float64 `json:"successRate"`
	AvgProcessingMs   float64 `json:"avgProcessingTimeMs"`
	TotalProcessingMs int64   `json:"totalProcessingTimeMs"`
	TotalTokensUsed   int64   `json:"totalTokensUsed"`
	TotalCost         float64 `json:"totalCost"`
}

// ComputeSuccessRate fills SuccessRate from the terminal counts: completed
// over everything that reached a decided outcome. Zero when nothing has.
func (s *JobStatistics) ComputeSuccessRate() float64 {
	decided := s.Completed + s.Failed + s.Cancelled
	if decided == 0 {
		s.SuccessRate = 0
		return 0
	}
	rate := float64(s.Completed) / float64(decided)
	// keep four decimals, matching what clients display
	s.SuccessRate = float64(int64(rate*10000+0.5)) / 10000
	return s.SuccessRate
}

// QueueMetrics is the realtime global gauge of the generation queue.
type QueueMetrics struct {
	QueuedCount       int64   `json:"queuedCount"`
	ProcessingCount   int64   `json:"processingCount"`
	AvgWaitMs         float64 `json:"avgWaitTimeMs"`
	OldestQueuedAgeMs int64   `json:"oldestQueuedAgeMs"`
	AvgProcessingMs   float64 `json:"avgProcessingTimeMs"`
	CompletedLastHour int64   `json:"completedLastHour"`
	FailedLastHour    int64   `json:"failedLastHour"`
}

// HourlyStat is one bucket of the per-hour job activity series.
type HourlyStat struct {
	Hour       time.Time `json:"hour"`
	Total      int64     `json:"total"`
	Completed  int64     `json:"completed"`
	Failed     int64     `json:"failed"`
	TokensUsed int64     `json:"tokensUsed"`
}
