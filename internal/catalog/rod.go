package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/rs/zerolog/log"
	"github.com/tanq16/leccap/internal/utils"
)

type RodBackend struct {
	browser   *rod.Browser
	page      *rod.Page
	endpoints Endpoints
	timeout   time.Duration
}

func rodCandidate(opts Options, bin string) Candidate {
	name := "rod/system"
	if bin != "" {
		name = "rod (" + bin + ")"
	}
	return Candidate{
		Name: name,
		Open: func(ctx context.Context) (Backend, error) {
			return NewRodBackend(ctx, opts, bin)
		},
	}
}

// NewRodBackend drives bin, or the browser found on PATH when bin is empty.
// It never downloads a browser.
func NewRodBackend(ctx context.Context, opts Options, bin string) (*RodBackend, error) {
	if bin == "" {
		path, found := launcher.LookPath()
		if !found {
			return nil, errors.New("no chrome/chromium binary found")
		}
		bin = path
	}
	l := launcher.New().Context(ctx).Bin(bin).Headless(opts.Headless)
	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("could not launch %s: %v", bin, err)
	}
	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("could not connect to browser: %v", err)
	}
	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		browser.Close()
		return nil, fmt.Errorf("could not create page: %v", err)
	}
	return &RodBackend{
		browser:   browser,
		page:      page,
		endpoints: opts.Endpoints,
		timeout:   opts.timeout(),
	}, nil
}

func (b *RodBackend) Name() string { return "rod" }

func (b *RodBackend) Login(ctx context.Context, creds utils.Credentials) error {
	p, err := b.navigate(ctx, b.endpoints.LoginURL)
	if err != nil {
		return err
	}
	defer p.CancelTimeout()
	user, err := p.Element(loginUserSelector)
	if err != nil {
		return classifyRod(err)
	}
	if err := user.Input(creds.Username); err != nil {
		return classifyRod(err)
	}
	pass, err := p.Element(loginPassSelector)
	if err != nil {
		return classifyRod(err)
	}
	if err := pass.Input(creds.Password); err != nil {
		return classifyRod(err)
	}
	submit, err := p.Element(loginSubmitSelector)
	if err != nil {
		return classifyRod(err)
	}
	if err := submit.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return classifyRod(err)
	}
	return classifyRod(p.WaitLoad())
}

func (b *RodBackend) ListCourses(ctx context.Context, year int) ([]utils.Course, error) {
	p, err := b.navigate(ctx, b.endpoints.YearURL(year))
	if err != nil {
		return nil, err
	}
	defer p.CancelTimeout()
	items, err := p.Elements(courseSelector)
	if err != nil {
		return nil, classifyRod(err)
	}
	courses := make([]utils.Course, 0, len(items))
	for _, item := range items {
		href, err := item.Attribute("href")
		if err != nil || href == nil || *href == "" {
			log.Debug().Str("op", "catalog/rod").Msg("skipping course entry without href")
			continue
		}
		name, _ := item.Text()
		courses = append(courses, utils.Course{ID: utils.CourseIDFromHref(*href), Name: strings.TrimSpace(name)})
	}
	return courses, nil
}

func (b *RodBackend) ListLectures(ctx context.Context, courseID string) ([]utils.Lecture, error) {
	courseURL := b.endpoints.CourseURL(courseID)
	p, err := b.navigate(ctx, courseURL)
	if err != nil {
		return nil, err
	}
	defer p.CancelTimeout()
	buttons, err := p.Elements(recordingSelector)
	if err != nil {
		return nil, classifyRod(err)
	}
	lectures := make([]utils.Lecture, 0, len(buttons))
	for _, btn := range buttons {
		href, err := btn.Attribute("href")
		if err != nil {
			return nil, classifyRod(err)
		}
		lec := utils.Lecture{}
		if href != nil {
			lec.PageURL = absoluteURL(courseURL, *href)
		}
		lec.Name = rodText(btn, recordingInfoSel+" "+recordingTitleSel)
		lec.Date = rodText(btn, recordingInfoSel+" "+recordingDateSel)
		lectures = append(lectures, lec)
	}
	return lectures, nil
}

func (b *RodBackend) ResolveMediaURL(ctx context.Context, lecture utils.Lecture) (string, error) {
	p, err := b.navigate(ctx, lecture.PageURL)
	if err != nil {
		return "", err
	}
	defer p.CancelTimeout()
	video, err := p.Element(videoSelector)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("%w on %s", utils.ErrMediaNotFound, lecture.PageURL)
		}
		return "", classifyRod(err)
	}
	src, err := video.Attribute("src")
	if err != nil {
		return "", classifyRod(err)
	}
	if src == nil || *src == "" {
		return "", fmt.Errorf("%w on %s", utils.ErrMediaNotFound, lecture.PageURL)
	}
	return absoluteURL(lecture.PageURL, *src), nil
}

func (b *RodBackend) Close() error {
	return b.browser.Close()
}

// navigate loads url and returns a page handle bounded by ctx and the
// navigation timeout for follow-up lookups. Callers release the timeout
// with CancelTimeout once done with the handle.
func (b *RodBackend) navigate(ctx context.Context, url string) (*rod.Page, error) {
	log.Debug().Str("op", "catalog/rod").Msgf("navigating to %s", url)
	p := b.page.Context(ctx).Timeout(b.timeout)
	if err := p.Navigate(url); err != nil {
		p.CancelTimeout()
		return nil, classifyRod(err)
	}
	if err := p.WaitLoad(); err != nil {
		p.CancelTimeout()
		return nil, classifyRod(err)
	}
	return p, nil
}

func rodText(el *rod.Element, selector string) string {
	els, err := el.Elements(selector)
	if err != nil || len(els) == 0 {
		return ""
	}
	text, err := els.First().Text()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(text)
}

func classifyRod(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", utils.ErrNavigationTimeout, err)
	}
	return fmt.Errorf("%w: %v", utils.ErrTransport, err)
}
