package app

import (
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/five82/editer/internal/config"
	"github.com/five82/editer/internal/logtail"
)

// LogOptions select what PrintLogs shows.
type LogOptions struct {
	ConfigPath string
	EnvFile    string
	Lines      int    // <= 0 prints the whole file
	MinLevel   string // empty keeps every entry
}

// PrintLogs writes the tail of the configured log file to w.
func PrintLogs(w io.Writer, opts LogOptions) error {
	if err := config.LoadEnvFile(opts.EnvFile); err != nil {
		return err
	}
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	lines, err := logtail.Read(cfg.LogFile, opts.Lines)
	if err != nil {
		return err
	}
	if opts.MinLevel != "" {
		level, err := log.ParseLevel(opts.MinLevel)
		if err != nil {
			return fmt.Errorf("log level: %w", err)
		}
		lines = logtail.Filter(lines, level)
	}
	if len(lines) == 0 {
		fmt.Fprintf(w, "No log entries in %s\n", cfg.LogFile)
		return nil
	}
	for _, line := range lines {
		fmt.Fprintln(w, line)
	}
	return nil
}
