// Package catalog fetches the year/course/recording listings and resolves
// recording pages to media URLs. Backends render pages either through a
// browser (playwright, rod) or with plain HTTP requests.
package catalog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tanq16/leccap/internal/utils"
)

type Provider interface {
	ListCourses(ctx context.Context, year int) ([]utils.Course, error)
	ListLectures(ctx context.Context, courseID string) ([]utils.Lecture, error)
	ResolveMediaURL(ctx context.Context, lecture utils.Lecture) (string, error)
}

// Backend is a Provider bound to a live session.
type Backend interface {
	Provider
	Name() string
	Login(ctx context.Context, creds utils.Credentials) error
	Close() error
}

// Page selectors of the catalog site.
const (
	courseSelector       = ".list-group-item"
	recordingSelector    = ".recording-button"
	recordingInfoSel     = ".recording-info"
	recordingTitleSel    = ".recording-title"
	recordingDateSel     = ".recording-date"
	videoSelector        = "video"
	loginUserSelector    = "#login"
	loginPassSelector    = "#password"
	loginSubmitSelector  = "#loginSubmit"
	courseViewerPathPart = "/viewer/s/"
)

type Endpoints struct {
	LoginURL   string
	CatalogURL string
}

func (e Endpoints) YearURL(year int) string {
	return fmt.Sprintf("%s/%d", strings.TrimRight(e.CatalogURL, "/"), year)
}

func (e Endpoints) CourseURL(courseID string) string {
	return strings.TrimRight(e.CatalogURL, "/") + courseViewerPathPart + courseID
}

type Options struct {
	Endpoints   Endpoints
	NavTimeout  time.Duration
	Headless    bool
	ChromePath  string
	FirefoxPath string
	Cookie      string
	Token       string
	HTTPConfig  utils.HTTPClientConfig
}

func (o Options) timeout() time.Duration {
	if o.NavTimeout <= 0 {
		return utils.DefaultNavTimeout
	}
	return o.NavTimeout
}
