// Package savefile appends research output to a text file.
package savefile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/IronClad1607/research-agent/pkg/slogx"
	"github.com/IronClad1607/research-agent/tool"
	"github.com/fogfish/opts"
)

const (
	DefaultPath     = "research_output.txt"
	ToolName        = "save_text_to_file"
	ToolDescription = "Saves structured research data to a text file."

	timestampLayout = "2006-01-02 15:04:05"
)

// writeMu serialises appends from every Saver in the process.
var writeMu sync.Mutex

// Saver appends timestamped entries to a file.
type Saver struct {
	path string
	now  func() time.Time
}

var WithPath = opts.ForName[Saver, string]("path")

// WithClock sets the time source for entry timestamps.
func WithClock(now func() time.Time) opts.Option[Saver] {
	return opts.Type[Saver](func(s *Saver) error {
		if now == nil {
			return errors.New("clock is required")
		}
		s.now = now
		return nil
	})
}

func New(options ...opts.Option[Saver]) (*Saver, error) {
	s := &Saver{
		path: DefaultPath,
		now:  time.Now,
	}
	if err := opts.Apply(s, options); err != nil {
		return nil, err
	}
	if s.path == "" {
		return nil, errors.New("path is required")
	}
	return s, nil
}

func (s *Saver) Path() string {
	return s.path
}

// Tool exposes Save as the save_text_to_file tool.
func (s *Saver) Tool() tool.Definition {
	return tool.Must(func(_ context.Context, data string) (string, error) {
		return s.Save(data)
	}, tool.Name(ToolName), tool.Description(ToolDescription))
}

// Format renders one entry as it is written to the file.
func Format(data string, at time.Time) string {
	return fmt.Sprintf("--- Research Output ---\nTimestamp: %s\n\n%s\n\n", at.Format(timestampLayout), data)
}

// Save appends data to the file, creating it if needed, and returns a
// confirmation naming the file.
func (s *Saver) Save(data string) (string, error) {
	entry := Format(data, s.now())

	writeMu.Lock()
	defer writeMu.Unlock()

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", s.path, err)
	}
	if _, err := f.WriteString(entry); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("write %s: %w", s.path, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", s.path, err)
	}

	slog.Debug("saved research output", slogx.LoggerName("savefile"), slog.String("path", s.path), slog.Int("bytes", len(entry)))
	return fmt.Sprintf("Data successfully saved to %s", s.path), nil
}
