package cli

import (
	"context"

	"github.com/dirlist/bucketcache"

	flag "github.com/spf13/pflag"
)

// StatsCmd returns the stats command.
func StatsCmd(cache *bucketcache.Cache) *Command {
	return &Command{
		Flags: flag.NewFlagSet("stats", flag.ContinueOnError),
		Usage: "stats",
		Short: "Show cache-wide counters",
		Long:  "Show counters accumulated over the lifetime of the cache process.",
		Exec: func(_ context.Context, o *IO, _ []string) error {
			o.Printf("recycle_count=%d\n", cache.RecycleCount())

			return nil
		},
	}
}
