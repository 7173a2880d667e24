package ui

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/dshills/commitcraft/internal/apperr"
	"github.com/dshills/commitcraft/internal/diffstat"
	"github.com/dshills/commitcraft/internal/workflow"
)

// MaxFeedbackLen bounds free-text feedback, in characters.
const MaxFeedbackLen = 200

type styles struct {
	title   lipgloss.Style
	message lipgloss.Style
	key     lipgloss.Style
	dim     lipgloss.Style
	warn    lipgloss.Style
	success lipgloss.Style
	add     lipgloss.Style
	del     lipgloss.Style
}

func newStyles(r *lipgloss.Renderer, colored bool) styles {
	s := styles{
		title:   r.NewStyle().Bold(true),
		message: r.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1),
		key:     r.NewStyle().Bold(true),
		dim:     r.NewStyle(),
		warn:    r.NewStyle(),
		success: r.NewStyle(),
		add:     r.NewStyle(),
		del:     r.NewStyle(),
	}
	if !colored {
		return s
	}
	s.title = s.title.Foreground(lipgloss.Color("6"))
	s.message = s.message.BorderForeground(lipgloss.Color("8"))
	s.key = s.key.Foreground(lipgloss.Color("6"))
	s.dim = s.dim.Foreground(lipgloss.Color("8"))
	s.warn = s.warn.Foreground(lipgloss.Color("3"))
	s.success = s.success.Foreground(lipgloss.Color("42"))
	s.add = s.add.Foreground(lipgloss.Color("42"))
	s.del = s.del.Foreground(lipgloss.Color("1"))
	return s
}

// Terminal is the interactive surface for the commit workflow.
type Terminal struct {
	in     *bufio.Reader
	out    io.Writer
	tty    bool
	styles styles

	// runEditor opens path in the user's editor and blocks until it exits.
	runEditor func(ctx context.Context, path string) error

	mu      sync.Mutex
	midLine bool

	// Input state, touched only by the calling goroutine.
	readerOnce sync.Once
	requests   chan struct{}
	lines      chan lineResult
	pending    bool
	eof        bool
}

// New builds a terminal reading answers from in and writing to out. Colors
// are used only when colored is set and out is a terminal.
func New(in io.Reader, out io.Writer, colored bool) *Terminal {
	tty := isTerminal(out)
	t := &Terminal{
		in:     bufio.NewReader(in),
		out:    out,
		tty:    tty,
		styles: newStyles(lipgloss.NewRenderer(out), colored && tty),
	}
	t.runEditor = OpenEditor
	return t
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func (t *Terminal) printf(format string, args ...any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintf(t.out, format, args...)
}

// Preview prints what is about to be described.
func (t *Terminal) Preview(stats diffstat.Stats, branch string) {
	var b strings.Builder
	b.WriteString(t.styles.title.Render("Staged changes") + "\n")
	if branch != "" {
		fmt.Fprintf(&b, "  Branch:  %s\n", branch)
	}
	fmt.Fprintf(&b, "  Files:   %d\n", len(stats.Files))
	for _, f := range stats.Files {
		fmt.Fprintf(&b, "    %s\n", f)
	}
	fmt.Fprintf(&b, "  Changes: %s %s\n",
		t.styles.add.Render(fmt.Sprintf("+%d", stats.Insertions)),
		t.styles.del.Render(fmt.Sprintf("-%d", stats.Deletions)),
	)
	t.printf("%s\n", b.String())
}

// Progress shows a spinner with label until stop is called. Without a
// terminal the label is printed once.
func (t *Terminal) Progress(label string) (stop func()) {
	if !t.tty {
		t.printf("%s...\n", label)
		return func() {}
	}

	sp := spinner.Dot
	done := make(chan struct{})
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		ticker := time.NewTicker(sp.FPS)
		defer ticker.Stop()
		for i := 0; ; i++ {
			frame := sp.Frames[i%len(sp.Frames)]
			t.printf("\r%s %s", t.styles.key.Render(frame), label)
			select {
			case <-done:
				t.printf("\r\033[K")
				return
			case <-ticker.C:
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			close(done)
			<-finished
		})
	}
}

// Chunk writes a streamed increment as it arrives.
func (t *Terminal) Chunk(text string) {
	if text == "" {
		return
	}
	t.printf("%s", text)
	t.midLine = !strings.HasSuffix(text, "\n")
}

// ChunksDone ends a streamed message on its own line.
func (t *Terminal) ChunksDone() {
	if t.midLine {
		t.printf("\n")
	}
	t.midLine = false
	t.printf("\n")
}

// ShowMessage prints a complete generated message.
func (t *Terminal) ShowMessage(message string) {
	t.printf("%s\n\n", t.styles.message.Render(strings.TrimRight(message, "\n")))
}

// Menu asks what to do with message. An empty answer accepts; end of input
// cancels.
func (t *Terminal) Menu(ctx context.Context, message string, allowEdit bool, attempt int) (workflow.ActionKind, error) {
	opts := []string{t.opt("a", "accept")}
	if allowEdit {
		opts = append(opts, t.opt("e", "edit"))
	}
	opts = append(opts, t.opt("r", "retry"), t.opt("f", "retry with feedback"), t.opt("q", "quit"))

	if attempt > 0 {
		t.printf("%s\n", t.styles.dim.Render(fmt.Sprintf("Attempt %d", attempt+1)))
	}
	for {
		t.printf("%s\n%s ", strings.Join(opts, "  "), t.styles.title.Render("Choice [a]:"))
		line, err := t.readLine(ctx)
		if err != nil {
			return workflow.ActionQuit, err
		}
		if kind, ok := parseChoice(line, allowEdit); ok {
			return kind, nil
		}
		t.Warn(fmt.Sprintf("Unknown choice %q", strings.TrimSpace(line)))
	}
}

func (t *Terminal) opt(key, label string) string {
	return "[" + t.styles.key.Render(key) + "] " + label
}

func parseChoice(line string, allowEdit bool) (workflow.ActionKind, bool) {
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "", "a", "accept", "y", "yes":
		return workflow.ActionAccept, true
	case "e", "edit":
		return workflow.ActionEdit, allowEdit
	case "r", "retry":
		return workflow.ActionRetry, true
	case "f", "feedback":
		return workflow.ActionRetryWithFeedback, true
	case "q", "quit", "n", "no":
		return workflow.ActionQuit, true
	}
	return 0, false
}

// FreeText reads one line of guidance. Input is trimmed and cut to
// MaxFeedbackLen characters. Read failures yield "".
func (t *Terminal) FreeText(ctx context.Context, hint string) string {
	t.printf("%s\n> ", hint)
	line, err := t.readLine(ctx)
	if err != nil {
		return ""
	}
	line = strings.TrimSpace(line)
	if utf8.RuneCountInString(line) > MaxFeedbackLen {
		line = string([]rune(line)[:MaxFeedbackLen])
		t.Warn(fmt.Sprintf("Feedback truncated to %d characters", MaxFeedbackLen))
	}
	return line
}

// Warn prints a non-fatal notice.
func (t *Terminal) Warn(msg string) {
	t.printf("%s\n", t.styles.warn.Render("Warning: "+msg))
}

// Success prints a completion notice.
func (t *Terminal) Success(msg string) {
	t.printf("%s\n", t.styles.success.Render(msg))
}

// Notice prints a plain informational line.
func (t *Terminal) Notice(msg string) {
	t.printf("%s\n", msg)
}

// Confirm asks a yes/no question. An empty answer takes def.
func (t *Terminal) Confirm(ctx context.Context, question string, def bool) (bool, error) {
	choices := "[y/N]"
	if def {
		choices = "[Y/n]"
	}
	for {
		t.printf("%s %s ", question, choices)
		line, err := t.readLine(ctx)
		if err != nil {
			return false, err
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "":
			return def, nil
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		}
	}
}

type lineResult struct {
	line string
	err  error
}

// startReader runs the only goroutine that reads t.in. It reads one line per
// request so nothing is consumed while an editor owns the terminal.
func (t *Terminal) startReader() {
	t.requests = make(chan struct{}, 1)
	t.lines = make(chan lineResult, 1)
	go func() {
		defer close(t.lines)
		for range t.requests {
			line, err := t.in.ReadString('\n')
			t.lines <- lineResult{line, err}
			if err != nil {
				return
			}
		}
	}()
}

// readLine returns the next input line without its terminator. End of input
// with nothing read, or ctx ending first, is a cancellation. A read abandoned
// by a cancelled ctx is picked up by the next call.
func (t *Terminal) readLine(ctx context.Context) (string, error) {
	if t.eof {
		return "", apperr.ErrCancelled
	}
	t.readerOnce.Do(t.startReader)
	if !t.pending {
		t.requests <- struct{}{}
		t.pending = true
	}

	select {
	case <-ctx.Done():
		return "", apperr.ErrCancelled
	case r, ok := <-t.lines:
		t.pending = false
		if !ok {
			t.eof = true
			return "", apperr.ErrCancelled
		}
		if r.err != nil {
			t.eof = true
			if r.err == io.EOF && r.line != "" {
				return strings.TrimRight(r.line, "\r\n"), nil
			}
			if r.err == io.EOF {
				return "", apperr.ErrCancelled
			}
			return "", apperr.Wrap(apperr.KindUnknown, r.err, "reading input")
		}
		return strings.TrimRight(r.line, "\r\n"), nil
	}
}
