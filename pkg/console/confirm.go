package console

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/openfroyo/confsync/pkg/engine"
)

// Prompter asks yes/no questions on a line-oriented stream. It implements
// engine.Confirmer.
type Prompter struct {
	in  *bufio.Reader
	out io.Writer
}

var _ engine.Confirmer = (*Prompter)(nil)

// NewPrompter creates a prompter reading answers from in and writing the
// prompt to out.
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{in: bufio.NewReader(in), out: out}
}

// Confirm repeats prompt until the answer is y, yes, n or no, in any case.
// End of input counts as no.
func (p *Prompter) Confirm(prompt string) (bool, error) {
	for {
		if _, err := fmt.Fprint(p.out, prompt); err != nil {
			return false, err
		}

		line, err := p.in.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return false, err
		}

		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		}

		if errors.Is(err, io.EOF) {
			fmt.Fprintln(p.out)
			return false, nil
		}
	}
}

// AutoConfirm accepts every prompt without reading input.
type AutoConfirm struct{}

// Confirm implements engine.Confirmer.
func (AutoConfirm) Confirm(string) (bool, error) {
	return true, nil
}
