package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/davidahmann/scribe/core/auditlog"
)

type consolidateOutput struct {
	OK     bool            `json:"ok"`
	Report auditlog.Report `json:"report"`
}

// runConsolidate is the external trigger target: no required arguments,
// exit 0 only when the fold succeeded, history guaranteed unchanged on any
// non-zero exit.
func runConsolidate(arguments []string) int {
	flagSet := flag.NewFlagSet("consolidate", flag.ContinueOnError)
	flagSet.SetOutput(io.Discard)
	jsonOutput := flagSet.Bool("json", false, "emit JSON output")
	if err := flagSet.Parse(arguments); err != nil {
		fmt.Fprintf(os.Stderr, "scribe consolidate: %v\n", err)
		return exitInvalidInput
	}

	boundary, configuration, err := resolveContext(".")
	if err != nil {
		return writeError(*jsonOutput, err)
	}
	handle := auditlog.Open(boundary, configuration)
	report, err := handle.Consolidate()
	if err != nil {
		return writeError(*jsonOutput, err)
	}

	if *jsonOutput {
		return writeJSONOutput(consolidateOutput{OK: true, Report: report}, exitOK)
	}
	fmt.Printf("consolidated %d shards (%d entries) into %s\n", report.ShardsFolded, report.EntriesFolded, report.HistoryPath)
	return exitOK
}
