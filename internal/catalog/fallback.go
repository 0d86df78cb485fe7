package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/tanq16/leccap/internal/utils"
)

type Candidate struct {
	Name string
	Open func(ctx context.Context) (Backend, error)
}

// OpenFirst tries candidates in order and returns the first backend that
// starts. If none does, the error wraps utils.ErrBackendInit and every
// candidate's failure.
func OpenFirst(ctx context.Context, candidates []Candidate) (Backend, error) {
	var errs []error
	for _, c := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		backend, err := c.Open(ctx)
		if err == nil {
			log.Debug().Str("op", "catalog/fallback").Msgf("using backend %s", c.Name)
			return backend, nil
		}
		log.Debug().Str("op", "catalog/fallback").Err(err).Msgf("backend %s unavailable", c.Name)
		errs = append(errs, fmt.Errorf("%s: %w", c.Name, err))
	}
	if len(errs) == 0 {
		return nil, fmt.Errorf("%w: no candidates", utils.ErrBackendInit)
	}
	return nil, fmt.Errorf("%w: %w", utils.ErrBackendInit, errors.Join(errs...))
}

// Candidates lists the backends to try for kind ("auto", "playwright",
// "rod" or "http"). Explicit browser paths are tried before defaults.
func Candidates(kind string, opts Options) ([]Candidate, error) {
	var pw, rd []Candidate
	if opts.ChromePath != "" {
		pw = append(pw, playwrightCandidate(opts, "chromium", opts.ChromePath))
		rd = append(rd, rodCandidate(opts, opts.ChromePath))
	}
	if opts.FirefoxPath != "" {
		pw = append(pw, playwrightCandidate(opts, "firefox", opts.FirefoxPath))
	}
	pw = append(pw,
		playwrightCandidate(opts, "chromium", ""),
		playwrightCandidate(opts, "firefox", ""),
	)
	rd = append(rd, rodCandidate(opts, ""))
	web := Candidate{
		Name: "http",
		Open: func(ctx context.Context) (Backend, error) { return NewHTTPBackend(ctx, opts) },
	}

	switch kind {
	case "", "auto":
		out := append(pw, rd...)
		if opts.Cookie != "" || opts.Token != "" {
			out = append(out, web)
		}
		return out, nil
	case "playwright":
		return pw, nil
	case "rod":
		return rd, nil
	case "http":
		return []Candidate{web}, nil
	}
	return nil, fmt.Errorf("unknown backend %q", kind)
}
