// Package flow runs one interactive session: log in, pick a course and
// its recordings, then download them.
package flow

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/tanq16/leccap/internal/catalog"
	"github.com/tanq16/leccap/internal/navigator"
	"github.com/tanq16/leccap/internal/output"
	"github.com/tanq16/leccap/internal/scheduler"
	"github.com/tanq16/leccap/internal/selection"
	"github.com/tanq16/leccap/internal/utils"
)

const selectionLabel = "Select video(s) to download (space delimited). * to download all\n"

type Authenticator interface {
	Login(ctx context.Context, creds utils.Credentials) error
}

type Mirror interface {
	MirrorCompleted(ctx context.Context, batch utils.BatchResult) []utils.MirrorResult
}

type Options struct {
	CourseID   string
	Year       int
	OutputDir  string
	Extension  string
	Concurrent bool
	Workers    int
	// Strict aborts the run when any selected recording cannot be resolved.
	Strict bool
	// Credentials is nil when the session is already authenticated.
	Credentials *utils.Credentials
}

type Session struct {
	Provider catalog.Provider
	Auth     Authenticator
	Prompter navigator.Prompter
	Client   *utils.LeccapHTTPClient
	Mirror   Mirror
	Out      io.Writer
	Now      func() time.Time
}

func (s *Session) Run(ctx context.Context, opts Options) (utils.BatchResult, error) {
	if opts.Credentials != nil && s.Auth != nil {
		log.Info().Str("op", "flow/run").Msgf("logging in as %s", opts.Credentials.Username)
		if err := s.Auth.Login(ctx, *opts.Credentials); err != nil {
			return utils.BatchResult{}, fmt.Errorf("login failed: %w", err)
		}
	}

	courseID := opts.CourseID
	if courseID == "" {
		nav := navigator.New(s.Provider, s.Prompter, s.Out)
		if s.Now != nil {
			nav.WithClock(s.Now)
		}
		course, err := nav.Run(ctx, opts.Year)
		if err != nil {
			return utils.BatchResult{}, err
		}
		courseID = course.ID
	}

	lectures, err := s.Provider.ListLectures(ctx, courseID)
	if err != nil {
		return utils.BatchResult{}, fmt.Errorf("error listing recordings for %s: %w", courseID, err)
	}
	if len(lectures) == 0 {
		fmt.Fprintln(s.Out, "No videos found")
		return utils.BatchResult{}, nil
	}
	for i, l := range lectures {
		fmt.Fprintf(s.Out, "[%d] Name: %s \t Date: %s\n", i, l.Name, l.Date)
	}

	sel, err := s.selectLectures(len(lectures))
	if err != nil {
		return utils.BatchResult{}, err
	}

	jobs, skipped, err := s.buildJobs(ctx, opts, lectures, sel)
	if err != nil {
		return utils.BatchResult{}, err
	}
	if len(jobs) > 0 {
		if err := os.MkdirAll(outputDir(opts), 0755); err != nil {
			return utils.BatchResult{}, fmt.Errorf("error creating output directory: %w", err)
		}
	}

	batch := s.execute(ctx, opts, jobs)
	batch.Skipped = skipped
	if s.Mirror != nil {
		batch.Mirrored = s.Mirror.MirrorCompleted(ctx, batch)
	}
	output.PrintSummary(s.Out, batch)
	return batch, nil
}

// selectLectures re-prompts until at least one index survives.
func (s *Session) selectLectures(count int) (selection.Selection, error) {
	for {
		line, err := s.Prompter.Prompt(selectionLabel)
		if err != nil {
			return selection.Selection{}, err
		}
		sel, err := selection.ResolveLine(line, count)
		if errors.Is(err, utils.ErrInvalidSelection) {
			log.Debug().Str("op", "flow/select").Err(err).Msg("selection rejected")
			continue
		}
		return sel, err
	}
}

// buildJobs resolves the media URL of every selected lecture. A repeated
// index is downloaded once; equal display names get distinct paths.
func (s *Session) buildJobs(ctx context.Context, opts Options, lectures []utils.Lecture, sel selection.Selection) ([]utils.DownloadJob, []utils.SkippedItem, error) {
	var jobs []utils.DownloadJob
	var skipped []utils.SkippedItem
	var seen []int
	taken := make(map[string]bool)
	ext := opts.Extension
	if ext == "" {
		ext = utils.DefaultExtension
	}
	for _, idx := range sel.Indices {
		if slices.Contains(seen, idx) {
			continue
		}
		seen = append(seen, idx)
		lecture := lectures[idx]
		url, err := s.Provider.ResolveMediaURL(ctx, lecture)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, nil, ctxErr
			}
			if opts.Strict {
				return nil, nil, fmt.Errorf("error resolving %s: %w", lecture.Name, err)
			}
			log.Warn().Str("op", "flow/resolve").Err(err).Msgf("skipping %s", lecture.Name)
			skipped = append(skipped, utils.SkippedItem{Lecture: lecture, Err: err})
			continue
		}
		jobs = append(jobs, utils.DownloadJob{
			ID:         uuid.NewString(),
			Name:       lecture.Name,
			URL:        url,
			OutputPath: utils.RenewOutputPath(utils.OutputPath(outputDir(opts), lecture.Name, ext), taken),
		})
	}
	return jobs, skipped, nil
}

func (s *Session) execute(ctx context.Context, opts Options, jobs []utils.DownloadJob) utils.BatchResult {
	if len(jobs) == 0 {
		return utils.BatchResult{}
	}
	if !opts.Concurrent {
		return scheduler.NewManager(s.Client, opts.Workers, output.NewBarProgress(s.Out)).Execute(ctx, jobs, false)
	}
	display := output.NewManager(s.Out)
	display.StartDisplay()
	batch := scheduler.NewManager(s.Client, opts.Workers, display).Execute(ctx, jobs, true)
	display.StopDisplay()
	return batch
}

func outputDir(opts Options) string {
	if opts.OutputDir == "" {
		return "."
	}
	return opts.OutputDir
}
