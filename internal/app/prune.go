package app

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"horse.fit/dedup/internal/cli"
	"horse.fit/dedup/internal/runner"
)

func runPrune(args []string) int {
	fs := flag.NewFlagSet("prune", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "prune does not accept positional arguments")
		return 2
	}

	cfg, logger, err := loadRuntime(envLoader)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}

	records, dayFiles, err := runner.New(cfg, logger).Prune()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Prune failed: %v\n", err)
		return 1
	}

	fmt.Printf("prune records_dropped=%d day_files_removed=%d\n", records, dayFiles)
	return 0
}
