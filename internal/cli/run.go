package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dirlist/bucketcache"

	flag "github.com/spf13/pflag"
)

// Run is the main entry point. Returns the process exit code. sigCh can be
// nil if signal handling is not needed (e.g. in tests).
func Run(_ io.Reader, out, errOut io.Writer, args []string, env map[string]string, sigCh <-chan os.Signal) int {
	globalFlags := flag.NewFlagSet("bucketcli", flag.ContinueOnError)
	globalFlags.SetInterspersed(false)
	globalFlags.Usage = func() {}
	globalFlags.SetOutput(&strings.Builder{})

	flagHelp := globalFlags.BoolP("help", "h", false, "Show help")
	flagConfig := globalFlags.StringP("config", "c", "", "Use specified config `file`")
	flagBucketRoot := globalFlags.String("bucket-root", "", "Directory whose subdirectories are buckets")
	flagDBRoot := globalFlags.String("database-root", "", "Scratch directory for the KV environment pool")
	flagMaxBuckets := globalFlags.Int("max-buckets", 0, "Bound on cached bucket entries")
	flagMaxLanes := globalFlags.Int("max-lanes", 0, "Number of LRU lanes")
	flagKVPoolSize := globalFlags.Int("kv-pool-size", 0, "Number of KV environments")
	flagDisableWatch := globalFlags.Bool("disable-watch", false, "Do not watch bucket directories for changes")

	if err := globalFlags.Parse(args[1:]); err != nil {
		fprintln(errOut, "error:", err)
		printGlobalOptions(errOut)

		return 1
	}

	configPath := *flagConfig
	if configPath == "" {
		configPath = bucketcache.ConfigFileName
	}

	opts, err := bucketcache.LoadOptionsFile(configPath)
	if err != nil {
		fprintln(errOut, "error:", err)

		return 1
	}

	if *flagBucketRoot != "" {
		opts.BucketRoot = *flagBucketRoot
	}

	if *flagDBRoot != "" {
		opts.DatabaseRoot = *flagDBRoot
	}

	if globalFlags.Changed("max-buckets") {
		opts.MaxBuckets = *flagMaxBuckets
	}

	if globalFlags.Changed("max-lanes") {
		opts.MaxLanes = *flagMaxLanes
	}

	if globalFlags.Changed("kv-pool-size") {
		opts.KVPoolSize = *flagKVPoolSize
	}

	opts.DisableWatch = *flagDisableWatch

	commandAndArgs := globalFlags.Args()

	if *flagHelp || (len(commandAndArgs) == 0 && globalFlags.NFlag() == 0) {
		printUsage(out, nil)

		return 0
	}

	if len(commandAndArgs) == 0 {
		fprintln(errOut, "error: no command provided")
		printUsage(errOut, nil)

		return 1
	}

	cmdName := commandAndArgs[0]

	// print-config never needs a live cache: bucket_root may not exist yet.
	if cmdName == "print-config" {
		cmdIO := NewIO(out, errOut)

		return PrintConfigCmd(opts).Run(context.Background(), cmdIO, commandAndArgs[1:])
	}

	// Reject an unknown command before opening a cache, so it is reported as
	// such even when the configuration would not validate.
	known := false

	for _, cmd := range allCommands(nil, opts, env) {
		if cmd.Name() == cmdName {
			known = true
		}
	}

	if !known {
		fprintln(errOut, "error: unknown command:", cmdName)
		printUsage(errOut, nil)

		return 1
	}

	cache, err := bucketcache.New(opts)
	if err != nil {
		fprintln(errOut, "error:", err)

		return 1
	}
	defer cache.Close()

	commands := allCommands(cache, opts, env)

	commandMap := make(map[string]*Command, len(commands))
	for _, cmd := range commands {
		commandMap[cmd.Name()] = cmd
	}

	cmd, ok := commandMap[cmdName]
	if !ok {
		fprintln(errOut, "error: unknown command:", cmdName)
		printUsage(errOut, commands)

		return 1
	}

	cmdIO := NewIO(out, errOut)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan int, 1)

	go func() {
		done <- cmd.Run(ctx, cmdIO, commandAndArgs[1:])
	}()

	select {
	case exitCode := <-done:
		return exitCode
	case <-sigCh:
		fprintln(errOut, "shutting down...")
		cancel()
	}

	select {
	case <-done:
		return 130
	case <-time.After(5 * time.Second):
		fprintln(errOut, "graceful shutdown timed out, forced exit (130)")

		return 130
	case <-sigCh:
		fprintln(errOut, "graceful shutdown interrupted, forced exit (130)")

		return 130
	}
}

func allCommands(cache *bucketcache.Cache, opts bucketcache.Options, _ map[string]string) []*Command {
	return []*Command{
		ListCmd(cache),
		StatsCmd(cache),
		ReplCmd(cache),
		PrintConfigCmd(opts),
	}
}

func fprintln(w io.Writer, a ...any) {
	_, _ = fmt.Fprintln(w, a...)
}

const globalOptionsHelp = `  -h, --help                Show help
  -c, --config <file>       Use specified config file
  --bucket-root <dir>       Directory whose subdirectories are buckets
  --database-root <dir>     Scratch directory for the KV environment pool
  --max-buckets <n>         Bound on cached bucket entries
  --max-lanes <n>           Number of LRU lanes
  --kv-pool-size <n>        Number of KV environments
  --disable-watch           Do not watch bucket directories for changes`

func printGlobalOptions(w io.Writer) {
	fprintln(w, "Usage: bucketcli [flags] <command> [args]")
	fprintln(w)
	fprintln(w, "Global flags:")
	fprintln(w, globalOptionsHelp)
	fprintln(w)
	fprintln(w, "Run 'bucketcli --help' for a list of commands.")
}

func printUsage(w io.Writer, commands []*Command) {
	fprintln(w, "bucketcli - inspect and drive a bucket cache")
	fprintln(w)
	fprintln(w, "Usage: bucketcli [flags] <command> [args]")
	fprintln(w)
	fprintln(w, "Flags:")
	fprintln(w, globalOptionsHelp)
	fprintln(w)
	fprintln(w, "Commands:")

	if commands == nil {
		commands = allCommands(nil, bucketcache.Options{}, nil)
	}

	for _, cmd := range commands {
		fprintln(w, cmd.HelpLine())
	}
}
