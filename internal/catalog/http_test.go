package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/tanq16/leccap/internal/utils"
)

const yearPage = `<html><body><div class="list-group">
<a class="list-group-item" href="/leccap/viewer/s/abc123">EECS 281 Data Structures</a>
<a class="list-group-item" href="/leccap/viewer/s/def456/"> MATH 217 </a>
<a class="list-group-item">no link</a>
</div></body></html>`

const coursePage = `<html><body>
<a class="recording-button" href="/leccap/player/r/one">
  <div class="recording-info"><span class="recording-title">Lecture 1: Intro</span><span class="recording-date">Jan 10</span></div>
</a>
<a class="recording-button" href="https://cdn.example.edu/leccap/player/r/two">
  <div class="recording-info"><span class="recording-title">Lecture 2</span><span class="recording-date">Jan 12</span></div>
</a>
</body></html>`

func newCatalogServer(t *testing.T, wantCookie, wantToken string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/leccap/2024", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, yearPage)
	})
	mux.HandleFunc("/leccap/2020", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html><body>nothing</body></html>")
	})
	mux.HandleFunc("/leccap/viewer/s/abc123", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, coursePage)
	})
	mux.HandleFunc("/leccap/player/r/one", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<video src="/media/one.mp4"></video>`)
	})
	mux.HandleFunc("/leccap/player/r/source", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<video><source src="https://media.example.edu/x.mp4"></video>`)
	})
	mux.HandleFunc("/leccap/player/r/none", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<p>processing</p>`)
	})
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if wantCookie != "" && r.Header.Get("Cookie") != wantCookie {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if wantToken != "" && r.Header.Get("Authorization") != "Bearer "+wantToken {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		mux.ServeHTTP(w, r)
	}))
}

func newTestBackend(t *testing.T, srv *httptest.Server, opts Options) *HTTPBackend {
	t.Helper()
	opts.Endpoints = Endpoints{CatalogURL: srv.URL + "/leccap/"}
	b, err := NewHTTPBackend(context.Background(), opts)
	if err != nil {
		t.Fatalf("NewHTTPBackend() error: %v", err)
	}
	t.Cleanup(func() { b.Close() })
	return b
}

func TestHTTPBackendListCourses(t *testing.T) {
	srv := newCatalogServer(t, "session=ok", "")
	defer srv.Close()
	b := newTestBackend(t, srv, Options{Cookie: "session=ok"})

	courses, err := b.ListCourses(context.Background(), 2024)
	if err != nil {
		t.Fatalf("ListCourses() error: %v", err)
	}
	want := []utils.Course{
		{ID: "abc123", Name: "EECS 281 Data Structures"},
		{ID: "def456", Name: "MATH 217"},
	}
	if len(courses) != len(want) {
		t.Fatalf("ListCourses() = %+v, want %+v", courses, want)
	}
	for i := range want {
		if courses[i] != want[i] {
			t.Errorf("course[%d] = %+v, want %+v", i, courses[i], want[i])
		}
	}

	empty, err := b.ListCourses(context.Background(), 2020)
	if err != nil {
		t.Fatalf("ListCourses(2020) error: %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("ListCourses(2020) = %+v, want empty", empty)
	}
}

func TestHTTPBackendListLectures(t *testing.T) {
	srv := newCatalogServer(t, "", "tok")
	defer srv.Close()
	b := newTestBackend(t, srv, Options{Token: "tok"})

	lectures, err := b.ListLectures(context.Background(), "abc123")
	if err != nil {
		t.Fatalf("ListLectures() error: %v", err)
	}
	want := []utils.Lecture{
		{PageURL: srv.URL + "/leccap/player/r/one", Name: "Lecture 1: Intro", Date: "Jan 10"},
		{PageURL: "https://cdn.example.edu/leccap/player/r/two", Name: "Lecture 2", Date: "Jan 12"},
	}
	if len(lectures) != len(want) {
		t.Fatalf("ListLectures() = %+v, want %+v", lectures, want)
	}
	for i := range want {
		if lectures[i] != want[i] {
			t.Errorf("lecture[%d] = %+v, want %+v", i, lectures[i], want[i])
		}
	}
}

func TestHTTPBackendResolveMediaURL(t *testing.T) {
	srv := newCatalogServer(t, "s=1", "")
	defer srv.Close()
	b := newTestBackend(t, srv, Options{Cookie: "s=1"})
	ctx := context.Background()

	got, err := b.ResolveMediaURL(ctx, utils.Lecture{PageURL: srv.URL + "/leccap/player/r/one"})
	if err != nil {
		t.Fatalf("ResolveMediaURL() error: %v", err)
	}
	if want := srv.URL + "/media/one.mp4"; got != want {
		t.Errorf("ResolveMediaURL() = %q, want %q", got, want)
	}

	got, err = b.ResolveMediaURL(ctx, utils.Lecture{PageURL: srv.URL + "/leccap/player/r/source"})
	if err != nil || got != "https://media.example.edu/x.mp4" {
		t.Errorf("ResolveMediaURL(source) = %q, %v", got, err)
	}

	_, err = b.ResolveMediaURL(ctx, utils.Lecture{PageURL: srv.URL + "/leccap/player/r/none"})
	if !errors.Is(err, utils.ErrMediaNotFound) {
		t.Errorf("ResolveMediaURL(none) error = %v, want ErrMediaNotFound", err)
	}
}

func TestHTTPBackendRejectedSession(t *testing.T) {
	srv := newCatalogServer(t, "s=good", "")
	defer srv.Close()
	b := newTestBackend(t, srv, Options{Cookie: "s=bad"})
	_, err := b.ListCourses(context.Background(), 2024)
	if !errors.Is(err, utils.ErrTransport) {
		t.Errorf("ListCourses() error = %v, want ErrTransport", err)
	}
}

func TestNewHTTPBackendNeedsSession(t *testing.T) {
	if _, err := NewHTTPBackend(context.Background(), Options{}); err == nil {
		t.Error("expected error without cookie or token")
	}
}

func TestEndpoints(t *testing.T) {
	e := Endpoints{CatalogURL: "https://leccap.example.edu/leccap/"}
	if got := e.YearURL(2024); got != "https://leccap.example.edu/leccap/2024" {
		t.Errorf("YearURL() = %q", got)
	}
	if got := e.CourseURL("abc"); got != "https://leccap.example.edu/leccap/viewer/s/abc" {
		t.Errorf("CourseURL() = %q", got)
	}
}
