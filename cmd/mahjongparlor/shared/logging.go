package shared

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
)

// SetupLogger configures a charmbracelet logger at the given level,
// optionally teeing output into a file. The caller owns closing the
// returned file, which is nil when no file was requested.
func SetupLogger(level, file string) (*log.Logger, *os.File, error) {
	parsed, err := log.ParseLevel(level)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	var out io.Writer = os.Stderr
	var f *os.File
	if file != "" {
		f, err = os.OpenFile(file, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		out = io.MultiWriter(os.Stderr, f)
	}

	logger := log.NewWithOptions(out, log.Options{
		ReportTimestamp: true,
		Level:           parsed,
	})
	return logger, f, nil
}
