package catalog

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/tanq16/leccap/internal/utils"
)

type stubBackend struct {
	name string
}

func (s *stubBackend) Name() string { return s.name }
func (s *stubBackend) Login(context.Context, utils.Credentials) error {
	return nil
}
func (s *stubBackend) ListCourses(context.Context, int) ([]utils.Course, error) {
	return nil, nil
}
func (s *stubBackend) ListLectures(context.Context, string) ([]utils.Lecture, error) {
	return nil, nil
}
func (s *stubBackend) ResolveMediaURL(context.Context, utils.Lecture) (string, error) {
	return "", nil
}
func (s *stubBackend) Close() error { return nil }

func failing(name string, tried *[]string) Candidate {
	return Candidate{Name: name, Open: func(context.Context) (Backend, error) {
		*tried = append(*tried, name)
		return nil, errors.New(name + " missing")
	}}
}

func working(name string, tried *[]string) Candidate {
	return Candidate{Name: name, Open: func(context.Context) (Backend, error) {
		*tried = append(*tried, name)
		return &stubBackend{name: name}, nil
	}}
}

func TestOpenFirstStopsAtFirstSuccess(t *testing.T) {
	var tried []string
	backend, err := OpenFirst(context.Background(), []Candidate{
		failing("chrome", &tried),
		working("firefox", &tried),
		working("rod", &tried),
	})
	if err != nil {
		t.Fatalf("OpenFirst() error: %v", err)
	}
	if backend.Name() != "firefox" {
		t.Errorf("backend = %s, want firefox", backend.Name())
	}
	if strings.Join(tried, ",") != "chrome,firefox" {
		t.Errorf("tried = %v, want [chrome firefox]", tried)
	}
}

func TestOpenFirstAllFail(t *testing.T) {
	var tried []string
	_, err := OpenFirst(context.Background(), []Candidate{
		failing("chrome", &tried),
		failing("firefox", &tried),
	})
	if !errors.Is(err, utils.ErrBackendInit) {
		t.Fatalf("OpenFirst() error = %v, want ErrBackendInit", err)
	}
	for _, name := range []string{"chrome missing", "firefox missing"} {
		if !strings.Contains(err.Error(), name) {
			t.Errorf("error %q does not mention %q", err, name)
		}
	}
	if len(tried) != 2 {
		t.Errorf("tried %d candidates, want 2", len(tried))
	}
}

func TestOpenFirstNoCandidates(t *testing.T) {
	if _, err := OpenFirst(context.Background(), nil); !errors.Is(err, utils.ErrBackendInit) {
		t.Errorf("OpenFirst(nil) error = %v, want ErrBackendInit", err)
	}
}

func TestCandidatesOrder(t *testing.T) {
	tests := []struct {
		name string
		kind string
		opts Options
		want []string
	}{
		{
			name: "auto defaults",
			kind: "auto",
			want: []string{"playwright/chromium", "playwright/firefox", "rod/system"},
		},
		{
			name: "explicit chrome first",
			kind: "",
			opts: Options{ChromePath: "/opt/chrome"},
			want: []string{"playwright/chromium (/opt/chrome)", "playwright/chromium", "playwright/firefox", "rod (/opt/chrome)", "rod/system"},
		},
		{
			name: "firefox path",
			kind: "playwright",
			opts: Options{FirefoxPath: "/opt/ff"},
			want: []string{"playwright/firefox (/opt/ff)", "playwright/chromium", "playwright/firefox"},
		},
		{
			name: "auto with cookie adds http",
			kind: "auto",
			opts: Options{Cookie: "s=1"},
			want: []string{"playwright/chromium", "playwright/firefox", "rod/system", "http"},
		},
		{
			name: "http only",
			kind: "http",
			want: []string{"http"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cands, err := Candidates(tt.kind, tt.opts)
			if err != nil {
				t.Fatalf("Candidates() error: %v", err)
			}
			var got []string
			for _, c := range cands {
				got = append(got, c.Name)
			}
			if strings.Join(got, "|") != strings.Join(tt.want, "|") {
				t.Errorf("Candidates() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCandidatesUnknownKind(t *testing.T) {
	if _, err := Candidates("selenium", Options{}); err == nil {
		t.Error("expected error for unknown backend kind")
	}
}
