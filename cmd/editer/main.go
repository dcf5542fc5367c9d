package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/five82/editer/internal/app"
	"github.com/five82/editer/internal/nav"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "config file (default ~/.config/editer/config.toml)")
	envFile := flag.String("env", "", "dotenv file with EDITER_* overrides (default ./.env)")
	store := flag.String("store", "", "local store backend: file, redis or memory")
	apiURL := flag.String("api", "", "document API base URL")
	logLines := flag.Int("logs", 0, "print the last N log lines and exit")
	logLevel := flag.String("log-level", "", "with -logs, only show entries at or above this level")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: editer [flags] [share-id | /edit/<id> | link]\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if *logLines > 0 {
		err := app.PrintLogs(os.Stdout, app.LogOptions{
			ConfigPath: *configPath,
			EnvFile:    *envFile,
			Lines:      *logLines,
			MinLevel:   *logLevel,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "editer: %v\n", err)
			return 1
		}
		return 0
	}

	if flag.NArg() > 1 {
		flag.Usage()
		return 2
	}
	var shareID string
	if flag.NArg() == 1 {
		shareID = nav.Parse(flag.Arg(0))
		if shareID == "" {
			fmt.Fprintf(os.Stderr, "editer: %q is not a document id or link\n", flag.Arg(0))
			return 2
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	opts := app.Options{
		ConfigPath: *configPath,
		EnvFile:    *envFile,
		ShareID:    shareID,
		Store:      *store,
		APIURL:     *apiURL,
		Stdout:     os.Stdout,
	}
	if err := app.Run(ctx, opts); err != nil {
		fmt.Fprintf(os.Stderr, "editer: %v\n", err)
		return 1
	}
	return 0
}
