package install

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode"
)

// Confirmer asks the operator a yes/no question.
type Confirmer interface {
	Confirm(ctx context.Context, question string) (bool, error)
}

// Prompter reads a single answer from an input stream. Only answers starting
// with 'y' (any case) are affirmative; everything else, including an empty
// line or end of input, counts as "no".
type Prompter struct {
	in  *bufio.Reader
	out io.Writer

	// pending carries the result of a read abandoned by a canceled Confirm.
	pending chan readResult
}

type readResult struct {
	line string
	err  error
}

// NewPrompter creates a Prompter reading from in and writing the question to out.
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{in: bufio.NewReader(in), out: out}
}

// Confirm prints the question with a [y/N] hint and reads one line. The read
// runs in the background so a canceled ctx returns immediately with ctx.Err().
func (p *Prompter) Confirm(ctx context.Context, question string) (bool, error) {
	if _, err := fmt.Fprintf(p.out, "%s [y/N] ", question); err != nil {
		return false, err
	}

	ch := p.pending
	if ch == nil {
		ch = make(chan readResult, 1)
		go func() {
			line, err := p.in.ReadString('\n')
			ch <- readResult{line: line, err: err}
		}()
	}

	select {
	case <-ctx.Done():
		p.pending = ch
		_, _ = fmt.Fprintln(p.out)
		return false, ctx.Err()
	case res := <-ch:
		p.pending = nil
		if res.err != nil && !errors.Is(res.err, io.EOF) {
			return false, res.err
		}
		if errors.Is(res.err, io.EOF) {
			// keep the terminal tidy when input ends without a newline
			_, _ = fmt.Fprintln(p.out)
		}
		return IsAffirmative(res.line), nil
	}
}

// IsAffirmative reports whether an answer means "yes".
func IsAffirmative(answer string) bool {
	trimmed := strings.TrimLeftFunc(answer, unicode.IsSpace)
	if trimmed == "" {
		return false
	}
	r := []rune(trimmed)[0]
	return unicode.ToLower(r) == 'y'
}

// FixedAnswer is a Confirmer with a predetermined answer (--assume-yes/--assume-no).
type FixedAnswer bool

// Confirm returns the fixed answer without reading input.
func (f FixedAnswer) Confirm(context.Context, string) (bool, error) { return bool(f), nil }
