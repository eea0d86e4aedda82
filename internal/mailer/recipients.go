package mailer

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ReadRecipients returns the trimmed, non-blank lines of path in order
func ReadRecipients(path string) ([]string, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("open recipient list: %w", err)
	}
	defer f.Close()

	var recipients []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			recipients = append(recipients, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read recipient list %s: %w", path, err)
	}
	return recipients, nil
}

// readDone loads already handled addresses. A missing file means none.
func readDone(path string) (map[string]struct{}, error) {
	recipients, err := ReadRecipients(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return map[string]struct{}{}, nil
		}
		return nil, err
	}

	done := make(map[string]struct{}, len(recipients))
	for _, r := range recipients {
		done[r] = struct{}{}
	}
	return done, nil
}

// doneLog appends handled addresses, one per line
type doneLog struct {
	f *os.File
}

func openDoneLog(path string) (*doneLog, error) {
	f, err := os.OpenFile(filepath.Clean(path), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open done file: %w", err)
	}
	return &doneLog{f: f}, nil
}

func (d *doneLog) mark(address string) error {
	if _, err := d.f.WriteString(address + "\n"); err != nil {
		return fmt.Errorf("record %s as done: %w", address, err)
	}
	return nil
}

func (d *doneLog) Close() error {
	return d.f.Close()
}
