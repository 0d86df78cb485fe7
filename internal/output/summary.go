package output

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/tanq16/leccap/internal/utils"
)

// PrintSummary lists completed, failed and skipped items of a batch.
func PrintSummary(w io.Writer, result utils.BatchResult) {
	indent := strings.Repeat(" ", 2)
	completed := result.Completed()
	failed := result.Failed()
	total := len(result.Results) + len(result.Skipped)

	fmt.Fprintln(w)
	fmt.Fprintln(w, indent+success2Style.Render(fmt.Sprintf("Completed %d of %d", len(completed), total)))
	for _, r := range completed {
		fmt.Fprintf(w, "%s%s %s %s\n", indent+indent, successStyle.Render(StyleSymbols["pass"]), r.Job.OutputPath,
			debugStyle.Render(fmt.Sprintf("(%s in %s)", FormatBytes(r.Bytes), r.Duration.Round(time.Millisecond))))
	}
	if len(failed) > 0 {
		fmt.Fprintln(w, indent+errorStyle.Render(fmt.Sprintf("Failed %d of %d", len(failed), total)))
		for _, r := range failed {
			fmt.Fprintf(w, "%s%s %s\n", indent+indent, errorStyle.Render(StyleSymbols["fail"]), errorStyle.Render(r.Job.Name))
			fmt.Fprintf(w, "%s%s\n", indent+indent+indent, errorStyle.Render(fmt.Sprintf("Error: %v", r.Err)))
		}
	}
	if len(result.Skipped) > 0 {
		fmt.Fprintln(w, indent+warningStyle.Render(fmt.Sprintf("Skipped %d of %d", len(result.Skipped), total)))
		for _, s := range result.Skipped {
			fmt.Fprintf(w, "%s%s %s\n", indent+indent, warningStyle.Render(StyleSymbols["warning"]), warningStyle.Render(s.Lecture.Name))
			fmt.Fprintf(w, "%s%s\n", indent+indent+indent, warningStyle.Render(fmt.Sprintf("Reason: %v", s.Err)))
		}
	}
	printMirrored(w, result.Mirrored)
	fmt.Fprintln(w)
}

func printMirrored(w io.Writer, mirrored []utils.MirrorResult) {
	if len(mirrored) == 0 {
		return
	}
	indent := strings.Repeat(" ", 2)
	var failed []utils.MirrorResult
	for _, m := range mirrored {
		if m.Err != nil {
			failed = append(failed, m)
		}
	}
	fmt.Fprintln(w, indent+infoStyle.Render(fmt.Sprintf("Mirrored %d of %d", len(mirrored)-len(failed), len(mirrored))))
	for _, m := range failed {
		fmt.Fprintf(w, "%s%s %s\n", indent+indent, warningStyle.Render(StyleSymbols["warning"]), warningStyle.Render(m.Path))
		fmt.Fprintf(w, "%s%s\n", indent+indent+indent, warningStyle.Render(fmt.Sprintf("Mirror error: %v", m.Err)))
	}
}
