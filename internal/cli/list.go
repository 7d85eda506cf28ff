package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dirlist/bucketcache"

	flag "github.com/spf13/pflag"
)

var errMissingBucket = errors.New("missing bucket name")

// ListCmd returns the list command.
func ListCmd(cache *bucketcache.Cache) *Command {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	fs.String("marker", "", "Resume after this key (exclusive lower bound)")
	fs.Int("limit", 0, "Maximum entries to print (0 = unbounded)")
	fs.Bool("json", false, "Output as a JSON array")

	return &Command{
		Flags: fs,
		Usage: "list <bucket> [flags]",
		Short: "List a bucket's cached entries",
		Long:  "List a bucket's entries in key order, filling the cache from disk on first use.",
		Exec: func(_ context.Context, o *IO, args []string) error {
			if len(args) < 1 {
				return errMissingBucket
			}

			marker, _ := fs.GetString("marker")
			limit, _ := fs.GetInt("limit")
			jsonOut, _ := fs.GetBool("json")

			return execList(o, cache, args[0], marker, limit, jsonOut)
		},
	}
}

type listEntryJSON struct {
	Name    string `json:"name"`
	ModTime int64  `json:"mod_time"`
}

func execList(o *IO, cache *bucketcache.Cache, bucket, marker string, limit int, jsonOut bool) error {
	cur, err := cache.ListBucket(bucket, marker)
	if err != nil {
		return fmt.Errorf("list %s: %w", bucket, err)
	}
	defer cur.Close()

	var entries []listEntryJSON

	for n := 0; limit == 0 || n < limit; n++ {
		name, modTime, ok := cur.Next()
		if !ok {
			break
		}

		if jsonOut {
			entries = append(entries, listEntryJSON{Name: name, ModTime: modTime})

			continue
		}

		o.Printf("%-40s %s\n", name, time.Unix(modTime, 0).Format(time.RFC3339))
	}

	if jsonOut {
		data, err := json.Marshal(entries)
		if err != nil {
			return fmt.Errorf("marshal json: %w", err)
		}

		o.Println(string(data))
	}

	return nil
}
