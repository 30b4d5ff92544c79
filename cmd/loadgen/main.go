package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/vouchd/vouchd/internal/loadgen"
)

// Default configuration constants.
const (
	defaultNumUsers    = 500
	defaultTagsPerUser = 3
	defaultEndorsers   = 20
	defaultWorkers     = 2 // multiplier for runtime.NumCPU()
	defaultTimeout     = 30 * time.Second
	defaultTestTimeout = 10 * time.Minute
)

func main() {
	var (
		baseURL   = flag.String("url", "http://localhost:9080", "Base URL of the service")
		numUsers  = flag.Int("users", defaultNumUsers, "Number of users to simulate")
		tags      = flag.Int("tags", defaultTagsPerUser, "Tags self-added per user")
		endorsers = flag.Int("endorsers", defaultEndorsers, "Endorsement attempts per (user, tag)")
		workers   = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent workers")
		timeout   = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		logFile   = flag.String("log", "", "Log file for test output (default: loadgen_TIMESTAMP.log)")
		verbose   = flag.Bool("verbose", false, "Enable verbose logging")
		help      = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		loadgen.ShowHelp()
		return
	}

	if err := loadgen.SetupLogging(*logFile); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultTestTimeout)
	defer cancel()

	config := &loadgen.Config{
		BaseURL:     *baseURL,
		NumUsers:    *numUsers,
		TagsPerUser: *tags,
		Endorsers:   *endorsers,
		Workers:     *workers,
		Timeout:     *timeout,
		LogFile:     *logFile,
		Verbose:     *verbose,
	}

	if err := loadgen.Run(ctx, config); err != nil {
		os.Stderr.WriteString("Load test failed: " + err.Error() + "\n")
		return
	}
}
