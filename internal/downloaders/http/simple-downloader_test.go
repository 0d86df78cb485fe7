package mediahttp

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/tanq16/leccap/internal/utils"
)

type recordingTracker struct {
	total   int64
	started bool
	added   int64
	calls   int
}

func (r *recordingTracker) Start(total int64) {
	r.started = true
	r.total = total
}

func (r *recordingTracker) Add(n int) {
	r.calls++
	r.added += int64(n)
}

func payload(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i % 251)
	}
	return b
}

func TestPerformSimpleDownloadWithLength(t *testing.T) {
	body := payload(5000)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", strconv.Itoa(len(body)))
		w.Write(body)
	}))
	defer srv.Close()

	out := filepath.Join(t.TempDir(), "lecture.mp4")
	tracker := &recordingTracker{}
	n, err := PerformSimpleDownload(context.Background(), srv.URL, out, utils.NewLeccapHTTPClient(utils.HTTPClientConfig{}), tracker)
	if err != nil {
		t.Fatalf("PerformSimpleDownload() error: %v", err)
	}
	if n != int64(len(body)) {
		t.Errorf("written = %d, want %d", n, len(body))
	}
	got, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	if !bytes.Equal(got, body) {
		t.Error("output does not match source body")
	}
	if tracker.total != int64(len(body)) || tracker.added != int64(len(body)) {
		t.Errorf("tracker total=%d added=%d, want %d", tracker.total, tracker.added, len(body))
	}
	if tracker.calls < len(body)/utils.ChunkSize {
		t.Errorf("tracker saw %d chunks, want at least %d", tracker.calls, len(body)/utils.ChunkSize)
	}
	if _, err := os.Stat(out + ".part"); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("temporary file left behind: %v", err)
	}
}

func TestPerformSimpleDownloadWithoutLength(t *testing.T) {
	body := payload(3000)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		flusher := w.(http.Flusher)
		for i := 0; i < len(body); i += 700 {
			end := min(i+700, len(body))
			w.Write(body[i:end])
			flusher.Flush()
		}
	}))
	defer srv.Close()

	out := filepath.Join(t.TempDir(), "stream.mp4")
	tracker := &recordingTracker{}
	_, err := PerformSimpleDownload(context.Background(), srv.URL, out, utils.NewLeccapHTTPClient(utils.HTTPClientConfig{}), tracker)
	if err != nil {
		t.Fatalf("PerformSimpleDownload() error: %v", err)
	}
	if !tracker.started || tracker.total != -1 {
		t.Errorf("tracker total = %d, want -1 (indeterminate)", tracker.total)
	}
	got, _ := os.ReadFile(out)
	if !bytes.Equal(got, body) {
		t.Errorf("output length %d, want %d", len(got), len(body))
	}
}

func TestPerformSimpleDownloadBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	out := filepath.Join(t.TempDir(), "missing.mp4")
	_, err := PerformSimpleDownload(context.Background(), srv.URL, out, utils.NewLeccapHTTPClient(utils.HTTPClientConfig{}), nil)
	if !errors.Is(err, utils.ErrTransport) {
		t.Fatalf("error = %v, want ErrTransport", err)
	}
	if _, err := os.Stat(out); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("output should not exist: %v", err)
	}
}

func TestPerformSimpleDownloadTruncatedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "10000")
		w.Write(payload(100))
		w.(http.Flusher).Flush()
		panic(http.ErrAbortHandler)
	}))
	defer srv.Close()

	out := filepath.Join(t.TempDir(), "cut.mp4")
	_, err := PerformSimpleDownload(context.Background(), srv.URL, out, utils.NewLeccapHTTPClient(utils.HTTPClientConfig{}), nil)
	if !errors.Is(err, utils.ErrTransport) {
		t.Fatalf("error = %v, want ErrTransport", err)
	}
	for _, p := range []string{out, out + ".part"} {
		if _, err := os.Stat(p); !errors.Is(err, os.ErrNotExist) {
			t.Errorf("%s should not exist after failure", p)
		}
	}
}

func TestPerformSimpleDownloadCanceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(payload(10))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	out := filepath.Join(t.TempDir(), "canceled.mp4")
	_, err := PerformSimpleDownload(ctx, srv.URL, out, utils.NewLeccapHTTPClient(utils.HTTPClientConfig{}), nil)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}
