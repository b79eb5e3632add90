package config

import (
	"flag"
	"os"
	"time"

	"github.com/RulzOrg/resumate-sub008/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   base URL of the session API
//	-i int      reachability probe interval, seconds
//	-r int      max retry attempts beyond the first try
//	-f string   path of the local draft database
//
// The function filters os.Args to only include the flags it knows about,
// using flagx.FilterArgs, to avoid interference with other components.
func parseFlags(cfg *Config) {
	// Filter args to include only those handled here.
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-i", "-r", "-f"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerBaseURL, "a", cfg.ServerBaseURL, "base URL of the session API")
	probeInterval := fs.Int("i", int(cfg.ProbeInterval.Seconds()), "reachability probe interval (in seconds)")
	maxRetries := fs.Uint64("r", cfg.MaxRetries, "max retry attempts")
	fs.StringVar(&cfg.DraftDBPath, "f", cfg.DraftDBPath, "path of the local draft database")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.ProbeInterval = time.Duration(*probeInterval) * time.Second
	cfg.MaxRetries = *maxRetries
}
