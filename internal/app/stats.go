package app

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"horse.fit/dedup/internal/cli"
	"horse.fit/dedup/internal/runner"
)

const (
	outputFormatTable = "table"
	outputFormatJSON  = "json"
)

func runStats(args []string) int {
	fs := flag.NewFlagSet("stats", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	format := fs.String("format", outputFormatTable, "Output format: table or json")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "stats does not accept positional arguments")
		return 2
	}

	outputFormat := strings.ToLower(strings.TrimSpace(*format))
	if outputFormat != outputFormatTable && outputFormat != outputFormatJSON {
		fmt.Fprintf(os.Stderr, "Invalid format: %q (expected table or json)\n", *format)
		return 2
	}

	cfg, logger, err := loadRuntime(envLoader)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}

	snap, err := runner.New(cfg, logger).Snapshot()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load stats: %v\n", err)
		return 1
	}

	if outputFormat == outputFormatJSON {
		if err := printJSON(snap); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to encode JSON: %v\n", err)
			return 1
		}
		return 0
	}

	fmt.Printf("registry hashes: %d", snap.RegistryHashes)
	if snap.RegistryDegraded {
		fmt.Print(" (degraded)")
	}
	fmt.Println()
	if len(snap.Stores) == 0 {
		fmt.Println("no history stores")
		return 0
	}

	fmt.Printf("%-24s %8s %8s %8s %10s\n", "SOURCE", "RECENT", "URLS", "TITLES", "TOTAL SEEN")
	for _, s := range snap.Stores {
		fmt.Printf("%-24s %8d %8d %8d %10d\n",
			s.Source, s.RecentRecords, s.URLHashes, s.TitleHashes, s.TotalSeen)
	}
	return 0
}
