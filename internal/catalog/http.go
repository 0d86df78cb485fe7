package catalog

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"
	"github.com/tanq16/leccap/internal/utils"
	"golang.org/x/oauth2"
)

// HTTPBackend reads catalog pages without a browser. It relies on an
// existing session cookie or bearer token and cannot run scripts, so it
// only works where the listings are server-rendered.
type HTTPBackend struct {
	client    *http.Client
	endpoints Endpoints
	cookie    string
	userAgent string
	headers   map[string]string
}

func NewHTTPBackend(ctx context.Context, opts Options) (*HTTPBackend, error) {
	if opts.Cookie == "" && opts.Token == "" {
		return nil, errors.New("http backend needs a session cookie or token")
	}
	client := &http.Client{
		Transport: utils.NewTransport(opts.HTTPConfig),
		Timeout:   opts.timeout(),
	}
	if opts.Token != "" {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, client)
		src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.Token, TokenType: "Bearer"})
		client = oauth2.NewClient(ctx, src)
		client.Timeout = opts.timeout()
	}
	userAgent := opts.HTTPConfig.UserAgent
	if userAgent == "" {
		userAgent = utils.ToolUserAgent
	}
	return &HTTPBackend{
		client:    client,
		endpoints: opts.Endpoints,
		cookie:    opts.Cookie,
		userAgent: userAgent,
		headers:   opts.HTTPConfig.Headers,
	}, nil
}

func (b *HTTPBackend) Name() string { return "http" }

// Login is a no-op; the session comes from the configured cookie or token.
func (b *HTTPBackend) Login(ctx context.Context, creds utils.Credentials) error {
	log.Debug().Str("op", "catalog/http").Msg("using preconfigured session, skipping login form")
	return nil
}

func (b *HTTPBackend) ListCourses(ctx context.Context, year int) ([]utils.Course, error) {
	doc, _, err := b.fetch(ctx, b.endpoints.YearURL(year))
	if err != nil {
		return nil, err
	}
	return parseCourses(doc), nil
}

func (b *HTTPBackend) ListLectures(ctx context.Context, courseID string) ([]utils.Lecture, error) {
	doc, pageURL, err := b.fetch(ctx, b.endpoints.CourseURL(courseID))
	if err != nil {
		return nil, err
	}
	return parseLectures(doc, pageURL), nil
}

func (b *HTTPBackend) ResolveMediaURL(ctx context.Context, lecture utils.Lecture) (string, error) {
	doc, pageURL, err := b.fetch(ctx, lecture.PageURL)
	if err != nil {
		return "", err
	}
	src := parseMediaSource(doc)
	if src == "" {
		return "", fmt.Errorf("%w on %s", utils.ErrMediaNotFound, lecture.PageURL)
	}
	return absoluteURL(pageURL, src), nil
}

func (b *HTTPBackend) Close() error {
	b.client.CloseIdleConnections()
	return nil
}

func (b *HTTPBackend) fetch(ctx context.Context, pageURL string) (*goquery.Document, string, error) {
	log.Debug().Str("op", "catalog/http").Msgf("fetching %s", pageURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("%w: error creating request: %v", utils.ErrTransport, err)
	}
	req.Header.Set("User-Agent", b.userAgent)
	for k, v := range b.headers {
		req.Header.Set(k, v)
	}
	if b.cookie != "" {
		req.Header.Set("Cookie", b.cookie)
	}
	resp, err := b.client.Do(req)
	if err != nil {
		return nil, "", classifyHTTP(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("%w: %s returned status %d", utils.ErrTransport, pageURL, resp.StatusCode)
	}
	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, "", classifyHTTP(err)
	}
	return doc, resp.Request.URL.String(), nil
}

func parseCourses(doc *goquery.Document) []utils.Course {
	courses := []utils.Course{}
	doc.Find(courseSelector).Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok || href == "" {
			return
		}
		courses = append(courses, utils.Course{
			ID:   utils.CourseIDFromHref(href),
			Name: strings.TrimSpace(s.Text()),
		})
	})
	return courses
}

func parseLectures(doc *goquery.Document, pageURL string) []utils.Lecture {
	lectures := []utils.Lecture{}
	doc.Find(recordingSelector).Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		info := s.Find(recordingInfoSel).First()
		lectures = append(lectures, utils.Lecture{
			PageURL: absoluteURL(pageURL, href),
			Name:    strings.TrimSpace(info.Find(recordingTitleSel).First().Text()),
			Date:    strings.TrimSpace(info.Find(recordingDateSel).First().Text()),
		})
	})
	return lectures
}

func parseMediaSource(doc *goquery.Document) string {
	video := doc.Find(videoSelector).First()
	if src, ok := video.Attr("src"); ok && src != "" {
		return src
	}
	src, _ := video.Find("source[src]").First().Attr("src")
	return src
}

func absoluteURL(base, ref string) string {
	if ref == "" {
		return ""
	}
	r, err := url.Parse(ref)
	if err != nil || r.IsAbs() {
		return ref
	}
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	return b.ResolveReference(r).String()
}

func classifyHTTP(err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("%w: %v", utils.ErrNavigationTimeout, err)
	}
	return fmt.Errorf("%w: %v", utils.ErrTransport, err)
}
