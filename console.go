package easynote

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/easynote/easynote-go/core"
)

// ConsoleNotifier writes notifications to a terminal, one per line.
type ConsoleNotifier struct {
	mu sync.Mutex
	w  io.Writer
}

// NewConsoleNotifier returns a notifier printing to w.
func NewConsoleNotifier(w io.Writer) *ConsoleNotifier {
	return &ConsoleNotifier{w: w}
}

func (n *ConsoleNotifier) Notify(_ context.Context, note core.Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	_, _ = fmt.Fprintf(n.w, "%s: %s\n", note.Level, note.Message)
}

// ConsolePrompter asks a yes/no question on a terminal.
type ConsolePrompter struct {
	mu  sync.Mutex
	in  *bufio.Reader
	out io.Writer
}

// NewConsolePrompter returns a prompter that writes the question to out
// and reads the answer from in.
func NewConsolePrompter(in io.Reader, out io.Writer) *ConsolePrompter {
	return &ConsolePrompter{in: bufio.NewReader(in), out: out}
}

// Confirm accepts "y", "yes" or the prompt's confirm label. Anything else,
// including end of input, declines. A canceled ctx stops waiting.
func (p *ConsolePrompter) Confirm(ctx context.Context, prompt core.Prompt) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	_, _ = fmt.Fprintf(p.out, "%s: %s [%s/%s] (y/N): ", prompt.Title, prompt.Message, prompt.Confirm, prompt.Cancel)

	type answer struct {
		line string
		err  error
	}
	answers := make(chan answer, 1)
	go func() {
		line, err := p.in.ReadString('\n')
		answers <- answer{line: line, err: err}
	}()

	select {
	case <-ctx.Done():
		_, _ = fmt.Fprintln(p.out)
		return false, ctx.Err()
	case a := <-answers:
		if a.err != nil && a.err != io.EOF {
			return false, fmt.Errorf("could not read answer: %w", a.err)
		}
		reply := strings.TrimSpace(a.line)
		switch {
		case strings.EqualFold(reply, "y"), strings.EqualFold(reply, "yes"):
			return true, nil
		case prompt.Confirm != "" && strings.EqualFold(reply, prompt.Confirm):
			return true, nil
		default:
			return false, nil
		}
	}
}
