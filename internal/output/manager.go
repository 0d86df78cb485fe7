package output

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/tanq16/leccap/internal/scheduler"
	"github.com/tanq16/leccap/internal/utils"
)

type JobOutput struct {
	ID          int
	Name        string
	Status      string
	Message     string
	Downloaded  int64
	Total       int64
	Complete    bool
	StartTime   time.Time
	LastUpdated time.Time
	Error       error
}

// Manager is a live multi-line display of concurrent downloads. It
// implements scheduler.Progress.
type Manager struct {
	outputs     map[int]*JobOutput
	mutex       sync.RWMutex
	out         io.Writer
	numLines    int
	doneCh      chan struct{}
	displayTick time.Duration
	jobCount    int
	displayWg   sync.WaitGroup
	redraw      bool
}

func NewManager(out io.Writer) *Manager {
	return &Manager{
		outputs:     make(map[int]*JobOutput),
		out:         out,
		doneCh:      make(chan struct{}),
		displayTick: 300 * time.Millisecond,
		redraw:      isTerminal(),
	}
}

func (m *Manager) Track(job utils.DownloadJob) scheduler.JobTracker {
	return &managedJob{m: m, id: m.Register(job.Name)}
}

func (m *Manager) Register(name string) int {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.jobCount++
	m.outputs[m.jobCount] = &JobOutput{
		ID:          m.jobCount,
		Name:        name,
		Status:      "pending",
		Total:       -1,
		StartTime:   time.Now(),
		LastUpdated: time.Now(),
	}
	return m.jobCount
}

func (m *Manager) update(id int, fn func(info *JobOutput)) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if info, exists := m.outputs[id]; exists {
		fn(info)
		info.LastUpdated = time.Now()
	}
}

func (m *Manager) Get(id int) (JobOutput, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	info, exists := m.outputs[id]
	if !exists {
		return JobOutput{}, false
	}
	return *info, true
}

type managedJob struct {
	m  *Manager
	id int
}

func (j *managedJob) Start(total int64) {
	j.m.update(j.id, func(info *JobOutput) {
		info.Total = total
		info.Status = "active"
		info.Message = "Downloading " + info.Name
	})
}

func (j *managedJob) Add(n int) {
	j.m.update(j.id, func(info *JobOutput) {
		info.Downloaded += int64(n)
	})
}

func (j *managedJob) Finish(result utils.JobResult) {
	j.m.update(j.id, func(info *JobOutput) {
		info.Complete = true
		if result.Status == utils.JobCompleted {
			info.Status = "success"
			info.Message = fmt.Sprintf("Completed %s (%s)", info.Name, FormatBytes(result.Bytes))
			return
		}
		info.Status = "error"
		info.Error = result.Err
		info.Message = fmt.Sprintf("Failed %s", info.Name)
	})
}

func (m *Manager) GetStatusIndicator(status string) string {
	switch status {
	case "success":
		return successStyle.Render(StyleSymbols["pass"])
	case "error":
		return errorStyle.Render(StyleSymbols["fail"])
	case "pending":
		return pendingStyle.Render(StyleSymbols["pending"])
	default:
		return infoStyle.Render(StyleSymbols["bullet"])
	}
}

func (m *Manager) sorted() []*JobOutput {
	all := make([]*JobOutput, 0, len(m.outputs))
	for _, info := range m.outputs {
		all = append(all, info)
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].ID < all[j].ID
	})
	return all
}

func (m *Manager) render() []string {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	var lines []string
	for _, info := range m.sorted() {
		elapsed := time.Since(info.StartTime).Round(time.Second)
		if info.Complete {
			elapsed = info.LastUpdated.Sub(info.StartTime).Round(time.Second)
		}
		var styled string
		switch info.Status {
		case "success":
			styled = successStyle.Render(info.Message)
		case "error":
			styled = errorStyle.Render(info.Message)
		case "pending":
			styled = pendingStyle.Render("Waiting for " + info.Name)
		default:
			styled = pendingStyle.Render(info.Message)
		}
		lines = append(lines, fmt.Sprintf("%s%s %s %s", strings.Repeat(" ", 2), m.GetStatusIndicator(info.Status), debugStyle.Render(elapsed.String()), styled))
		if info.Status == "active" {
			bar := PrintProgressBar(info.Downloaded, info.Total, 30)
			speed := FormatSpeed(info.Downloaded, time.Since(info.StartTime).Seconds())
			lines = append(lines, fmt.Sprintf("%s%s%s %s %s", strings.Repeat(" ", 2+4), bar,
				debugStyle.Render(FormatBytes(info.Downloaded)), StyleSymbols["bullet"], debugStyle.Render(speed)))
		}
	}
	return lines
}

func (m *Manager) updateDisplay() {
	lines := m.render()
	if m.numLines > 0 {
		fmt.Fprintf(m.out, "\033[%dA\033[J", m.numLines)
	}
	available := getTerminalHeight() - 3
	if len(lines) > available && available > 0 {
		lines = lines[len(lines)-available:]
	}
	for _, line := range lines {
		fmt.Fprintln(m.out, line)
	}
	m.numLines = len(lines)
}

// StartDisplay redraws on a ticker when stdout is a terminal. Otherwise
// only the final state is printed by StopDisplay.
func (m *Manager) StartDisplay() {
	m.displayWg.Add(1)
	go func() {
		defer m.displayWg.Done()
		ticker := time.NewTicker(m.displayTick)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if m.redraw {
					m.updateDisplay()
				}
			case <-m.doneCh:
				m.updateDisplay()
				return
			}
		}
	}()
}

func (m *Manager) StopDisplay() {
	close(m.doneCh)
	m.displayWg.Wait()
}
