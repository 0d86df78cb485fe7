// Package selection turns the tokens a user types at the lecture prompt
// into indices of the current listing.
package selection

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/tanq16/leccap/internal/utils"
)

const Wildcard = "*"

var tokenPattern = regexp.MustCompile(`^[0-9]+$`)

type Selection struct {
	Indices []int
}

// Resolve filters tokens against itemCount. Tokens that are not a
// non-negative integer or "*" are dropped, as are out-of-range indices.
// A surviving "*" selects every item. Duplicates are kept in input order.
// An empty result yields utils.ErrInvalidSelection.
func Resolve(tokens []string, itemCount int) (Selection, error) {
	var indices []int
	all := false
	for _, tok := range tokens {
		if tok == Wildcard {
			all = true
			continue
		}
		if !tokenPattern.MatchString(tok) {
			continue
		}
		idx, err := strconv.Atoi(tok)
		if err != nil || idx < 0 || idx >= itemCount {
			continue
		}
		indices = append(indices, idx)
	}
	if all && itemCount > 0 {
		sel := Selection{Indices: make([]int, itemCount)}
		for i := range sel.Indices {
			sel.Indices[i] = i
		}
		return sel, nil
	}
	if len(indices) == 0 {
		return Selection{}, fmt.Errorf("%w: no usable index in %q", utils.ErrInvalidSelection, strings.Join(tokens, " "))
	}
	return Selection{Indices: indices}, nil
}

func ResolveLine(line string, itemCount int) (Selection, error) {
	return Resolve(strings.Fields(line), itemCount)
}
