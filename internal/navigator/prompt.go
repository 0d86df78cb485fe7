package navigator

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/tanq16/leccap/internal/utils"
)

type Prompter interface {
	Prompt(label string) (string, error)
}

// LinePrompter prints a label and reads one line per prompt.
type LinePrompter struct {
	in  *bufio.Reader
	out io.Writer
}

func NewLinePrompter(in io.Reader, out io.Writer) *LinePrompter {
	return &LinePrompter{in: bufio.NewReader(in), out: out}
}

func (p *LinePrompter) Prompt(label string) (string, error) {
	fmt.Fprint(p.out, label)
	line, err := p.in.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) {
			if line != "" {
				return strings.TrimSpace(line), nil
			}
			return "", utils.ErrNoInput
		}
		return "", fmt.Errorf("error reading input: %w", err)
	}
	return strings.TrimSpace(line), nil
}
