// Package shell runs external programs (git, ssh) for the sync steps and
// holds the quoting helpers used when commands are rendered for display.
package shell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/kballard/go-shellquote"
)

// Result is the outcome of one executed command.
type Result struct {
	ExitCode int
	Stdout   []byte
	Stderr   []byte
}

func (r Result) StderrString() string {
	return strings.TrimSpace(string(r.Stderr))
}

// Runner executes argument vectors. Output is streamed to Stdout/Stderr
// while also being captured into the Result.
type Runner struct {
	Dir    string
	Env    []string
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// Run executes argv and waits for it. A non-zero exit status is reported
// through Result.ExitCode with a nil error; the error is only set when the
// program could not be started or the context ended.
func (r Runner) Run(ctx context.Context, argv []string) (Result, error) {
	if len(argv) == 0 {
		return Result{}, errors.New("empty command")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	if r.Dir != "" {
		cmd.Dir = r.Dir
	}
	if len(r.Env) > 0 {
		cmd.Env = append(os.Environ(), r.Env...)
	}
	cmd.Stdin = r.Stdin

	var outBuf bytes.Buffer
	var errBuf bytes.Buffer
	cmd.Stdout = tee(&outBuf, r.Stdout)
	cmd.Stderr = tee(&errBuf, r.Stderr)

	err := cmd.Run()
	result := Result{Stdout: outBuf.Bytes(), Stderr: errBuf.Bytes()}
	if err == nil {
		return result, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && ctx.Err() == nil {
		result.ExitCode = exitErr.ExitCode()
		return result, nil
	}
	result.ExitCode = -1
	if ctxErr := ctx.Err(); ctxErr != nil {
		return result, ctxErr
	}
	return result, fmt.Errorf("failed to start %s: %w", argv[0], err)
}

func tee(capture *bytes.Buffer, w io.Writer) io.Writer {
	if w == nil {
		return capture
	}
	return io.MultiWriter(capture, w)
}

// EscapeDoubleQuotes backslash-escapes double quotes so s can be embedded in
// a double-quoted string. One level only.
func EscapeDoubleQuotes(s string) string {
	return strings.ReplaceAll(s, `"`, `\"`)
}

// QuoteWord quotes s for a POSIX shell only when it needs quoting.
func QuoteWord(s string) string {
	if s == "" {
		return "''"
	}
	return shellquote.Join(s)
}

// SplitCommand splits a configured command line ("ssh -p 2222") into argv.
func SplitCommand(line string) ([]string, error) {
	words, err := shellquote.Split(line)
	if err != nil {
		return nil, fmt.Errorf("invalid command %q: %w", line, err)
	}
	if len(words) == 0 {
		return nil, fmt.Errorf("invalid command %q: empty", line)
	}
	return words, nil
}
