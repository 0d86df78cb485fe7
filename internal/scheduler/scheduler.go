package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	mediahttp "github.com/tanq16/leccap/internal/downloaders/http"
	"github.com/tanq16/leccap/internal/utils"
	"golang.org/x/sync/errgroup"
)

// JobTracker reports progress for one job and receives its final result.
type JobTracker interface {
	mediahttp.Tracker
	Finish(result utils.JobResult)
}

type Progress interface {
	Track(job utils.DownloadJob) JobTracker
}

type Manager struct {
	client   *utils.LeccapHTTPClient
	workers  int
	progress Progress
}

// NewManager builds a download manager. workers caps in-flight downloads
// in concurrent mode; zero or less means one goroutine per job.
func NewManager(client *utils.LeccapHTTPClient, workers int, progress Progress) *Manager {
	if progress == nil {
		progress = nopProgress{}
	}
	return &Manager{client: client, workers: workers, progress: progress}
}

// Execute runs every job and returns one result per job in input order.
// A failed job never stops the others.
func (m *Manager) Execute(ctx context.Context, jobs []utils.DownloadJob, concurrent bool) utils.BatchResult {
	results := make([]utils.JobResult, len(jobs))
	if !concurrent {
		for i, job := range jobs {
			results[i] = m.run(ctx, job)
		}
		return utils.BatchResult{Results: results}
	}

	var g errgroup.Group
	if m.workers > 0 {
		g.SetLimit(m.workers)
	}
	log.Debug().Str("op", "scheduler/execute").Msgf("dispatching %d jobs (limit %d)", len(jobs), m.workers)
	for i, job := range jobs {
		i, job := i, job
		g.Go(func() error {
			results[i] = m.run(ctx, job)
			return nil
		})
	}
	g.Wait()
	return utils.BatchResult{Results: results}
}

func (m *Manager) run(ctx context.Context, job utils.DownloadJob) utils.JobResult {
	tracker := m.progress.Track(job)
	start := time.Now()
	log.Debug().Str("op", "scheduler/run").Msgf("downloading %s from %s", job.OutputPath, job.URL)
	n, err := mediahttp.PerformSimpleDownload(ctx, job.URL, job.OutputPath, m.client, tracker)
	result := utils.JobResult{
		Job:      job,
		Status:   utils.JobCompleted,
		Bytes:    n,
		Duration: time.Since(start),
	}
	if err != nil {
		result.Status = utils.JobFailed
		result.Err = err
		log.Error().Str("op", "scheduler/run").Err(err).Msgf("download failed for %s", job.Name)
	}
	tracker.Finish(result)
	return result
}

type nopProgress struct{}

func (nopProgress) Track(utils.DownloadJob) JobTracker { return nopTracker{} }

type nopTracker struct{}

func (nopTracker) Start(int64) {}
func (nopTracker) Add(int) {}
func (nopTracker) Finish(utils.JobResult) {}
