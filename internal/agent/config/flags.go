package config

import (
	"flag"
	"os"

	"github.com/dmitrijs2005/callvault/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-d string   call-log store driver, sqlite or postgres
//	-n string   DSN for the call-log store
//	-f string   entity archive path
//	-s string   backup state path
//	-m string   restore dedup mode: disabled, per-record or batched
//	-b int      batch size for batched dedup
//	-p string   subscription map file for phone-account migration
//
// Note: The function filters os.Args to only include the flags it knows
// about, using flagx.FilterArgs, so the backup/restore subcommand and the
// -c/-config flags pass through untouched.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-d", "-n", "-f", "-s", "-m", "-b", "-p"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.DatabaseDriver, "d", cfg.DatabaseDriver, "call-log store driver (sqlite or postgres)")
	fs.StringVar(&cfg.DatabaseDSN, "n", cfg.DatabaseDSN, "DSN for the call-log store")
	fs.StringVar(&cfg.ArchivePath, "f", cfg.ArchivePath, "entity archive path")
	fs.StringVar(&cfg.StatePath, "s", cfg.StatePath, "backup state path")
	fs.StringVar(&cfg.DedupMode, "m", cfg.DedupMode, "restore dedup mode: disabled, per-record or batched")
	fs.IntVar(&cfg.BatchSize, "b", cfg.BatchSize, "batch size for batched dedup")
	fs.StringVar(&cfg.SubscriptionMapPath, "p", cfg.SubscriptionMapPath, "subscription map file for phone-account migration")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
