package config

import (
	"flag"
	"io"

	"github.com/dmitrijs2005/photosync/internal/flagx"
)

var knownFlags = []string{"-a", "-d", "-db", "-u", "-t", "-v"}

// parseFlags populates selected Config fields from command-line flags.
//
// args is filtered down to the flags handled here with flagx.FilterArgs, so
// -c/-config and anything else on the command line are ignored.
func parseFlags(cfg *Config, args []string) error {
	args = flagx.FilterArgs(args, knownFlags)

	fs := flag.NewFlagSet("photosync", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.ServerURL, "a", cfg.ServerURL, "gallery API base URL")
	fs.StringVar(&cfg.AlbumDir, "d", cfg.AlbumDir, "album directory")
	fs.StringVar(&cfg.DatabasePath, "db", cfg.DatabasePath, "ledger database file")
	fs.StringVar(&cfg.UserID, "u", cfg.UserID, "user id")
	fs.StringVar(&cfg.AccessToken, "t", cfg.AccessToken, "access token")
	fs.BoolVar(&cfg.Verbose, "v", cfg.Verbose, "verbose logging")

	return fs.Parse(args)
}
