package cli

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dirlist/bucketcache"

	"github.com/peterh/liner"
	flag "github.com/spf13/pflag"
)

// ReplCmd returns the repl command: an interactive, readline-style session
// for driving a live cache.
func ReplCmd(cache *bucketcache.Cache) *Command {
	return &Command{
		Flags: flag.NewFlagSet("repl", flag.ContinueOnError),
		Usage: "repl",
		Short: "Start an interactive session",
		Long:  "Start an interactive session for listing and invalidating buckets against a live cache.",
		Exec: func(_ context.Context, o *IO, _ []string) error {
			r := &repl{cache: cache, io: o}

			return r.run()
		},
	}
}

type repl struct {
	cache *bucketcache.Cache
	io    *IO
	liner *liner.State
}

func replHistoryFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	return filepath.Join(home, ".bucketcli_history")
}

func (r *repl) run() error {
	r.liner = liner.NewLiner()
	defer r.liner.Close()

	r.liner.SetCtrlCAborts(true)
	r.liner.SetCompleter(r.completer)

	if f, err := os.Open(replHistoryFile()); err == nil {
		_, _ = r.liner.ReadHistory(f)
		f.Close()
	}

	r.io.Println("bucketcli - interactive bucket cache session")
	r.io.Println("Type 'help' for available commands.")
	r.io.Println()

	for {
		line, err := r.liner.Prompt("bucketcli> ")
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				r.io.Println()
				r.io.Println("Bye!")

				break
			}

			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		r.liner.AppendHistory(line)

		parts := strings.Fields(line)
		cmd := strings.ToLower(parts[0])
		args := parts[1:]

		switch cmd {
		case "exit", "quit", "q":
			r.io.Println("Bye!")
			r.saveHistory()

			return nil

		case "help", "?":
			r.printHelp()

		case "list", "ls":
			r.cmdList(args)

		case "stats":
			r.cmdStats()

		case "invalidate":
			r.cmdInvalidate(args)

		default:
			r.io.Printf("Unknown command: %s (type 'help' for commands)\n", cmd)
		}
	}

	r.saveHistory()

	return nil
}

func (r *repl) saveHistory() {
	path := replHistoryFile()
	if path == "" {
		return
	}

	if f, err := os.Create(path); err == nil {
		_, _ = r.liner.WriteHistory(f)
		f.Close()
	}
}

func (r *repl) completer(line string) []string {
	commands := []string{"list", "ls", "stats", "invalidate", "help", "exit", "quit", "q"}

	var completions []string

	lower := strings.ToLower(line)
	for _, cmd := range commands {
		if strings.HasPrefix(cmd, lower) {
			completions = append(completions, cmd)
		}
	}

	return completions
}

func (r *repl) printHelp() {
	r.io.Println("Commands:")
	r.io.Println("  list <bucket> [marker]   List a bucket's cached entries")
	r.io.Println("  stats                    Show cache-wide counters")
	r.io.Println("  invalidate <bucket>      Simulate a notification-queue overflow for a bucket")
	r.io.Println("  help                     Show this help")
	r.io.Println("  exit / quit / q          Exit")
}

func (r *repl) cmdList(args []string) {
	if len(args) < 1 {
		r.io.Println("Usage: list <bucket> [marker]")

		return
	}

	marker := ""
	if len(args) >= 2 {
		marker = args[1]
	}

	cur, err := r.cache.ListBucket(args[0], marker)
	if err != nil {
		r.io.Printf("Error: %v\n", err)

		return
	}
	defer cur.Close()

	n := 0

	for {
		name, modTime, ok := cur.Next()
		if !ok {
			break
		}

		r.io.Printf("%3d. %-40s %s\n", n+1, name, time.Unix(modTime, 0).Format(time.RFC3339))
		n++
	}

	if n == 0 {
		r.io.Println("(empty)")
	}
}

func (r *repl) cmdStats() {
	r.io.Printf("recycle_count: %d\n", r.cache.RecycleCount())
}

func (r *repl) cmdInvalidate(args []string) {
	if len(args) < 1 {
		r.io.Println("Usage: invalidate <bucket>")

		return
	}

	r.cache.SimulateOverflow(args[0])
	r.io.Printf("OK: queued overflow invalidation for %s\n", args[0])
}
