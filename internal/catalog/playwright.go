package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/playwright-community/playwright-go"
	"github.com/rs/zerolog/log"
	"github.com/tanq16/leccap/internal/utils"
)

type PlaywrightBackend struct {
	name      string
	pw        *playwright.Playwright
	browser   playwright.Browser
	page      playwright.Page
	endpoints Endpoints
	timeout   time.Duration
}

func playwrightCandidate(opts Options, browserName, execPath string) Candidate {
	name := "playwright/" + browserName
	if execPath != "" {
		name += " (" + execPath + ")"
	}
	return Candidate{
		Name: name,
		Open: func(ctx context.Context) (Backend, error) {
			return NewPlaywrightBackend(opts, browserName, execPath)
		},
	}
}

func NewPlaywrightBackend(opts Options, browserName, execPath string) (*PlaywrightBackend, error) {
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("could not start playwright: %v", err)
	}
	launch := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
	}
	if execPath != "" {
		launch.ExecutablePath = playwright.String(execPath)
	}
	browserType := pw.Chromium
	if browserName == "firefox" {
		browserType = pw.Firefox
	}
	browser, err := browserType.Launch(launch)
	if err != nil {
		pw.Stop()
		return nil, fmt.Errorf("could not launch %s: %v", browserName, err)
	}
	page, err := browser.NewPage()
	if err != nil {
		browser.Close()
		pw.Stop()
		return nil, fmt.Errorf("could not create page: %v", err)
	}
	ms := float64(opts.timeout().Milliseconds())
	page.SetDefaultTimeout(ms)
	page.SetDefaultNavigationTimeout(ms)
	return &PlaywrightBackend{
		name:      "playwright/" + browserName,
		pw:        pw,
		browser:   browser,
		page:      page,
		endpoints: opts.Endpoints,
		timeout:   opts.timeout(),
	}, nil
}

func (b *PlaywrightBackend) Name() string { return b.name }

func (b *PlaywrightBackend) Login(ctx context.Context, creds utils.Credentials) error {
	if err := b.navigate(ctx, b.endpoints.LoginURL); err != nil {
		return err
	}
	if err := b.page.Locator(loginUserSelector).Fill(creds.Username); err != nil {
		return classifyPlaywright(err)
	}
	if err := b.page.Locator(loginPassSelector).Fill(creds.Password); err != nil {
		return classifyPlaywright(err)
	}
	if err := b.page.Locator(loginSubmitSelector).Click(); err != nil {
		return classifyPlaywright(err)
	}
	return awaitContext(ctx, func() error {
		return classifyPlaywright(b.page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
			State: playwright.LoadStateNetworkidle,
		}))
	})
}

func (b *PlaywrightBackend) ListCourses(ctx context.Context, year int) ([]utils.Course, error) {
	if err := b.navigate(ctx, b.endpoints.YearURL(year)); err != nil {
		return nil, err
	}
	items, err := b.page.Locator(courseSelector).All()
	if err != nil {
		return nil, classifyPlaywright(err)
	}
	courses := make([]utils.Course, 0, len(items))
	for _, item := range items {
		href, err := item.GetAttribute("href")
		if err != nil || href == "" {
			log.Debug().Str("op", "catalog/playwright").Msg("skipping course entry without href")
			continue
		}
		name, _ := item.InnerText()
		courses = append(courses, utils.Course{ID: utils.CourseIDFromHref(href), Name: strings.TrimSpace(name)})
	}
	return courses, nil
}

func (b *PlaywrightBackend) ListLectures(ctx context.Context, courseID string) ([]utils.Lecture, error) {
	courseURL := b.endpoints.CourseURL(courseID)
	if err := b.navigate(ctx, courseURL); err != nil {
		return nil, err
	}
	buttons, err := b.page.Locator(recordingSelector).All()
	if err != nil {
		return nil, classifyPlaywright(err)
	}
	lectures := make([]utils.Lecture, 0, len(buttons))
	for _, btn := range buttons {
		href, err := btn.GetAttribute("href")
		if err != nil {
			return nil, classifyPlaywright(err)
		}
		info := btn.Locator(recordingInfoSel)
		lectures = append(lectures, utils.Lecture{
			PageURL: absoluteURL(courseURL, href),
			Name:    playwrightText(info.Locator(recordingTitleSel)),
			Date:    playwrightText(info.Locator(recordingDateSel)),
		})
	}
	return lectures, nil
}

func (b *PlaywrightBackend) ResolveMediaURL(ctx context.Context, lecture utils.Lecture) (string, error) {
	if err := b.navigate(ctx, lecture.PageURL); err != nil {
		return "", err
	}
	video := b.page.Locator(videoSelector).First()
	err := awaitContext(ctx, func() error {
		return video.WaitFor(playwright.LocatorWaitForOptions{
			State: playwright.WaitForSelectorStateAttached,
		})
	})
	if err != nil {
		if errors.Is(err, playwright.ErrTimeout) {
			return "", fmt.Errorf("%w on %s", utils.ErrMediaNotFound, lecture.PageURL)
		}
		if ctx.Err() != nil {
			return "", err
		}
		return "", classifyPlaywright(err)
	}
	src, err := video.GetAttribute("src")
	if err != nil {
		return "", classifyPlaywright(err)
	}
	if src == "" {
		return "", fmt.Errorf("%w on %s", utils.ErrMediaNotFound, lecture.PageURL)
	}
	return absoluteURL(lecture.PageURL, src), nil
}

func (b *PlaywrightBackend) Close() error {
	var errs []error
	if err := b.browser.Close(); err != nil {
		errs = append(errs, fmt.Errorf("could not close browser: %v", err))
	}
	if err := b.pw.Stop(); err != nil {
		errs = append(errs, fmt.Errorf("could not stop playwright: %v", err))
	}
	return errors.Join(errs...)
}

func (b *PlaywrightBackend) navigate(ctx context.Context, url string) error {
	log.Debug().Str("op", "catalog/playwright").Msgf("navigating to %s", url)
	return awaitContext(ctx, func() error {
		_, err := b.page.Goto(url, playwright.PageGotoOptions{
			WaitUntil: playwright.WaitUntilStateNetworkidle,
		})
		return classifyPlaywright(err)
	})
}

// awaitContext runs a blocking browser call and returns early with the
// context error on cancellation. The call itself is left to finish on its
// own timeout.
func awaitContext(ctx context.Context, call func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	done := make(chan error, 1)
	go func() {
		done <- call()
	}()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		log.Debug().Str("op", "catalog/playwright").Msg("browser call abandoned on cancellation")
		return ctx.Err()
	}
}

func playwrightText(loc playwright.Locator) string {
	if n, err := loc.Count(); err != nil || n == 0 {
		return ""
	}
	text, err := loc.First().InnerText()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(text)
}

func classifyPlaywright(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, playwright.ErrTimeout) {
		return fmt.Errorf("%w: %v", utils.ErrNavigationTimeout, err)
	}
	return fmt.Errorf("%w: %v", utils.ErrTransport, err)
}
