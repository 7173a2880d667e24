package ui

import (
	"context"
	"os"
	"os/exec"
	"strings"

	"github.com/dshills/commitcraft/internal/apperr"
)

// Editor returns the command line used for edits: $VISUAL, then $EDITOR,
// then vi.
func Editor() []string {
	for _, env := range []string{"VISUAL", "EDITOR"} {
		if fields := strings.Fields(os.Getenv(env)); len(fields) > 0 {
			return fields
		}
	}
	return []string{"vi"}
}

// OpenEditor opens path in the user's editor on the process terminal and
// blocks until it exits.
func OpenEditor(ctx context.Context, path string) error {
	argv := append(Editor(), path)
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return apperr.WithHint(
			apperr.Wrap(apperr.KindUnknown, err, "editor %s failed", argv[0]),
			"Set $VISUAL or $EDITOR to an editor that waits until the file is closed",
		)
	}
	return nil
}

// Edit opens initial in the user's editor and returns the saved text
// exactly. Saving an empty or whitespace-only file cancels the edit.
func (t *Terminal) Edit(ctx context.Context, initial string) (string, error) {
	f, err := os.CreateTemp("", "commitcraft-*.txt")
	if err != nil {
		return "", apperr.Wrap(apperr.KindUnknown, err, "creating edit buffer")
	}
	path := f.Name()
	defer os.Remove(path)

	if _, err := f.WriteString(initial); err != nil {
		f.Close()
		return "", apperr.Wrap(apperr.KindUnknown, err, "writing edit buffer")
	}
	if err := f.Close(); err != nil {
		return "", apperr.Wrap(apperr.KindUnknown, err, "writing edit buffer")
	}

	if err := t.runEditor(ctx, path); err != nil {
		if ctx.Err() != nil {
			return "", apperr.ErrCancelled
		}
		return "", err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", apperr.Wrap(apperr.KindUnknown, err, "reading edit buffer")
	}
	edited := string(data)
	if strings.TrimSpace(edited) == "" {
		return "", apperr.ErrCancelled
	}
	return edited, nil
}
