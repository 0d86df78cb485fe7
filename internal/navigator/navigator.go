// Package navigator walks the catalog year by year until a course is chosen.
package navigator

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tanq16/leccap/internal/utils"
)

type CourseLister interface {
	ListCourses(ctx context.Context, year int) ([]utils.Course, error)
}

// NavigationState is the listing shown at one prompt. Steps return a new
// state instead of modifying the previous one.
type NavigationState struct {
	Year    int
	Courses []utils.Course
}

func (s NavigationState) Empty() bool {
	return len(s.Courses) == 0
}

func (s NavigationState) Label() string {
	if s.Empty() {
		return fmt.Sprintf("p/n to change year [%d]: ", s.Year)
	}
	return fmt.Sprintf("Select class or p/n to change year [%d]: ", s.Year)
}

type Action int

const (
	ActionReject Action = iota
	ActionPrev
	ActionNext
	ActionSelect
)

type Decision struct {
	Action Action
	Index  int
}

var indexPattern = regexp.MustCompile(`^[0-9]+$`)

// Decide maps one line of input to a transition for state. Numeric input
// is only accepted while the listing is non-empty and in range.
func Decide(state NavigationState, input string) Decision {
	switch input {
	case "p":
		return Decision{Action: ActionPrev}
	case "n":
		return Decision{Action: ActionNext}
	}
	if state.Empty() || !indexPattern.MatchString(input) {
		return Decision{Action: ActionReject}
	}
	idx, err := strconv.Atoi(input)
	if err != nil || idx >= len(state.Courses) {
		return Decision{Action: ActionReject}
	}
	return Decision{Action: ActionSelect, Index: idx}
}

// NextYear advances year by one, never past current.
func NextYear(year, current int) int {
	return min(year+1, current)
}

type Navigator struct {
	lister   CourseLister
	prompter Prompter
	out      io.Writer
	now      func() time.Time
}

func New(lister CourseLister, prompter Prompter, out io.Writer) *Navigator {
	return &Navigator{
		lister:   lister,
		prompter: prompter,
		out:      out,
		now:      time.Now,
	}
}

// WithClock replaces the source of the current calendar year.
func (n *Navigator) WithClock(now func() time.Time) *Navigator {
	n.now = now
	return n
}

// Run lists courses starting at startYear (0 means the current year) and
// re-prompts until a course is chosen. Listing failures are returned as-is.
func (n *Navigator) Run(ctx context.Context, startYear int) (utils.Course, error) {
	current := n.now().Year()
	year := startYear
	if year <= 0 || year > current {
		year = current
	}
	state, err := n.Load(ctx, year)
	if err != nil {
		return utils.Course{}, err
	}
	for {
		input, err := n.prompter.Prompt(state.Label())
		if err != nil {
			return utils.Course{}, err
		}
		decision := Decide(state, input)
		switch decision.Action {
		case ActionSelect:
			course := state.Courses[decision.Index]
			log.Debug().Str("op", "navigator/run").Msgf("selected course %s (%s)", course.ID, course.Name)
			return course, nil
		case ActionPrev:
			state, err = n.Load(ctx, state.Year-1)
		case ActionNext:
			state, err = n.Load(ctx, NextYear(state.Year, current))
		default:
			continue
		}
		if err != nil {
			return utils.Course{}, err
		}
	}
}

// Load fetches and prints the listing for year.
func (n *Navigator) Load(ctx context.Context, year int) (NavigationState, error) {
	courses, err := n.lister.ListCourses(ctx, year)
	if err != nil {
		return NavigationState{}, fmt.Errorf("error listing courses for %d: %w", year, err)
	}
	log.Debug().Str("op", "navigator/load").Msgf("found %d courses for %d", len(courses), year)
	state := NavigationState{Year: year, Courses: courses}
	if state.Empty() {
		fmt.Fprintln(n.out, "No classes found")
		return state, nil
	}
	for i, c := range state.Courses {
		fmt.Fprintf(n.out, "[%d] Class: %s\n", i, c.Name)
	}
	return state, nil
}
