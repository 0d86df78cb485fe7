package utils

import (
	"path/filepath"
	"testing"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "colon slash question", in: "My: Lecture/1?", want: "My- Lecture-1-"},
		{name: "all unsafe", in: `;/?:"=|*`, want: "--------"},
		{name: "clean name", in: "Lecture 3 - Graphs", want: "Lecture 3 - Graphs"},
		{name: "empty", in: "", want: ""},
		{name: "unicode kept", in: "Übung: 1", want: "Übung- 1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Sanitize(tt.in); got != tt.want {
				t.Errorf("Sanitize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSanitizeIdempotent(t *testing.T) {
	inputs := []string{
		"My: Lecture/1?",
		`a"b=c|d*e;f`,
		"----",
		"plain",
		"", "/", "::??", "x/y/z.mp4",
	}
	for _, in := range inputs {
		once := Sanitize(in)
		if twice := Sanitize(once); twice != once {
			t.Errorf("Sanitize not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func TestOutputPath(t *testing.T) {
	tests := []struct {
		name string
		dir  string
		want string
	}{
		{name: "trailing separator", dir: "videos/", want: filepath.Join("videos", "Lec- 1.mp4")},
		{name: "no separator", dir: "videos", want: filepath.Join("videos", "Lec- 1.mp4")},
		{name: "current dir", dir: ".", want: "Lec- 1.mp4"},
		{name: "empty dir", dir: "", want: "Lec- 1.mp4"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := OutputPath(tt.dir, "Lec: 1", ".mp4"); got != tt.want {
				t.Errorf("OutputPath() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExpectedChunks(t *testing.T) {
	if got := ExpectedChunks(-1); got != -1 {
		t.Errorf("ExpectedChunks(-1) = %d, want -1", got)
	}
	if got := ExpectedChunks(0); got != 1 {
		t.Errorf("ExpectedChunks(0) = %d, want 1", got)
	}
	if got := ExpectedChunks(2048); got != 3 {
		t.Errorf("ExpectedChunks(2048) = %d, want 3", got)
	}
}

func TestCourseIDFromHref(t *testing.T) {
	tests := map[string]string{
		"https://leccap.example.edu/leccap/viewer/s/abc123": "abc123",
		"/leccap/viewer/s/abc123/":                          "abc123",
		"abc123":                                            "abc123",
	}
	for in, want := range tests {
		if got := CourseIDFromHref(in); got != want {
			t.Errorf("CourseIDFromHref(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestRenewOutputPath(t *testing.T) {
	taken := map[string]bool{}
	first := RenewOutputPath(filepath.Join("out", "Lecture.mp4"), taken)
	second := RenewOutputPath(filepath.Join("out", "Lecture.mp4"), taken)
	third := RenewOutputPath(filepath.Join("out", "Lecture.mp4"), taken)
	if first != filepath.Join("out", "Lecture.mp4") {
		t.Errorf("first = %q", first)
	}
	if second != filepath.Join("out", "Lecture-(1).mp4") {
		t.Errorf("second = %q", second)
	}
	if third != filepath.Join("out", "Lecture-(2).mp4") {
		t.Errorf("third = %q", third)
	}
}
