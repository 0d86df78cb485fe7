package utils

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Sanitize replaces characters that are unsafe in file names with "-".
// The replacement is not itself unsafe, so Sanitize is idempotent.
func Sanitize(name string) string {
	return unsafeNameChars.ReplaceAllString(name, "-")
}

func OutputPath(outputDir, displayName, ext string) string {
	if outputDir == "" {
		outputDir = "."
	}
	return filepath.Join(filepath.Clean(outputDir), Sanitize(displayName)+ext)
}

// RenewOutputPath returns outputPath, or "name-(n).ext" with the lowest n
// not already in taken. The returned path is added to taken.
func RenewOutputPath(outputPath string, taken map[string]bool) string {
	candidate := outputPath
	dir := filepath.Dir(outputPath)
	base := filepath.Base(outputPath)
	ext := filepath.Ext(base)
	name := base[:len(base)-len(ext)]
	for index := 1; taken[candidate]; index++ {
		candidate = filepath.Join(dir, fmt.Sprintf("%s-(%d)%s", name, index, ext))
	}
	taken[candidate] = true
	return candidate
}

// ExpectedChunks is the number of ChunkSize reads needed for size bytes,
// or -1 when the size is unknown.
func ExpectedChunks(size int64) int64 {
	if size < 0 {
		return -1
	}
	return size/ChunkSize + 1
}

// CourseIDFromHref returns the last path segment of a catalog link.
func CourseIDFromHref(href string) string {
	href = strings.TrimRight(href, "/")
	if i := strings.LastIndex(href, "/"); i >= 0 {
		return href[i+1:]
	}
	return href
}

func ParseHeaderArgs(headers []string) map[string]string {
	result := make(map[string]string)
	for _, header := range headers {
		parts := strings.SplitN(header, ":", 2)
		if len(parts) == 2 {
			key := strings.TrimSpace(parts[0])
			value := strings.TrimSpace(parts[1])
			result[key] = value
		}
	}
	return result
}
