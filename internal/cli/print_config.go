package cli

import (
	"context"

	"github.com/dirlist/bucketcache"

	flag "github.com/spf13/pflag"
)

// PrintConfigCmd returns the print-config command.
func PrintConfigCmd(opts bucketcache.Options) *Command {
	return &Command{
		Flags: flag.NewFlagSet("print-config", flag.ContinueOnError),
		Usage: "print-config",
		Short: "Show resolved configuration",
		Long:  "Display the effective configuration after merging the config file and flags.",
		Exec: func(_ context.Context, o *IO, _ []string) error {
			o.Println("bucket_root=" + opts.BucketRoot)
			o.Println("database_root=" + opts.DatabaseRoot)
			o.Printf("max_buckets=%d\n", opts.MaxBuckets)
			o.Printf("max_lanes=%d\n", opts.MaxLanes)
			o.Printf("kv_pool_size=%d\n", opts.KVPoolSize)
			o.Printf("disable_watch=%v\n", opts.DisableWatch)

			return nil
		},
	}
}
