package utils

import "time"

type Course struct {
	ID   string
	Name string
}

// Lecture order is catalog order; selection indices refer to it.
type Lecture struct {
	PageURL string
	Name    string
	Date    string
}

type Credentials struct {
	Username string
	Password string
}

type DownloadJob struct {
	ID         string
	Name       string
	URL        string
	OutputPath string
}

type JobStatus string

const (
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
)

type JobResult struct {
	Job      DownloadJob
	Status   JobStatus
	Err      error
	Bytes    int64
	Duration time.Duration
}

// SkippedItem is a selected lecture that never became a job.
type SkippedItem struct {
	Lecture Lecture
	Err     error
}

// MirrorResult is the outcome of copying one completed file to remote
// storage. Mirror failures never fail the batch.
type MirrorResult struct {
	Path string
	Key  string
	Err  error
}

type BatchResult struct {
	Results  []JobResult
	Skipped  []SkippedItem
	Mirrored []MirrorResult
}

func (b BatchResult) Completed() []JobResult {
	return b.filter(JobCompleted)
}

func (b BatchResult) Failed() []JobResult {
	return b.filter(JobFailed)
}

func (b BatchResult) OK() bool {
	return len(b.Failed()) == 0 && len(b.Skipped) == 0
}

func (b BatchResult) filter(status JobStatus) []JobResult {
	var out []JobResult
	for _, r := range b.Results {
		if r.Status == status {
			out = append(out, r)
		}
	}
	return out
}
