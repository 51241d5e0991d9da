// Package commands contains CLI command implementations for the application.
package commands

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/allisson/credproxy/internal/app"
)

// IOTuple holds reader and writer for commands, allowing for testing.
type IOTuple struct {
	Reader io.Reader
	Writer io.Writer
}

// DefaultIO returns an IOTuple with os.Stdin and os.Stdout.
func DefaultIO() IOTuple {
	return IOTuple{
		Reader: os.Stdin,
		Writer: os.Stdout,
	}
}

// secretReader reads secrets one per line. On a terminal the input is not
// echoed and the prompt goes to stderr; otherwise lines are read silently.
type secretReader struct {
	fd       int
	terminal bool
	lines    *bufio.Reader
}

func newSecretReader(r io.Reader) *secretReader {
	sr := &secretReader{}
	if f, ok := r.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		sr.fd = int(f.Fd())
		sr.terminal = true
		return sr
	}
	if r == nil {
		r = strings.NewReader("")
	}
	sr.lines = bufio.NewReader(r)
	return sr
}

func (s *secretReader) read(prompt string) (string, error) {
	if s.terminal {
		_, _ = fmt.Fprint(os.Stderr, prompt)
		b, err := term.ReadPassword(s.fd)
		_, _ = fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("failed to read input: %w", err)
		}
		return string(b), nil
	}

	line, err := s.lines.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// readNewPassword asks for a password twice and fails when they differ.
func (s *secretReader) readNewPassword() (string, error) {
	password, err := s.read("Password: ")
	if err != nil {
		return "", err
	}
	confirm, err := s.read("Confirm password: ")
	if err != nil {
		return "", err
	}
	if password != confirm {
		return "", fmt.Errorf("passwords do not match")
	}
	return password, nil
}

// outputJSON writes v as indented JSON.
func outputJSON(v any, writer io.Writer) error {
	jsonBytes, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	_, _ = fmt.Fprintln(writer, string(jsonBytes))
	return nil
}

func validateFormat(format string) error {
	switch format {
	case "text", "json":
		return nil
	default:
		return fmt.Errorf("invalid format: %s (valid options: text, json)", format)
	}
}

// closeContainer closes all resources in the container and logs any errors.
func closeContainer(container *app.Container, logger *slog.Logger) {
	if err := container.Shutdown(context.Background()); err != nil {
		logger.Error("failed to shutdown container", slog.Any("error", err))
	}
}
