package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/davidahmann/scribe/core/auditlog"
	"github.com/davidahmann/scribe/core/schema/v1/audit"
)

type tailOutput struct {
	OK      bool          `json:"ok"`
	Count   int           `json:"count"`
	Entries []audit.Entry `json:"entries"`
}

func runTail(arguments []string) int {
	flagSet := flag.NewFlagSet("tail", flag.ContinueOnError)
	flagSet.SetOutput(io.Discard)
	limit := flagSet.Int("n", 0, "maximum entries to return (0 uses the configured default)")
	jsonOutput := flagSet.Bool("json", false, "emit JSON output")
	if err := flagSet.Parse(arguments); err != nil {
		fmt.Fprintf(os.Stderr, "scribe tail: %v\n", err)
		return exitInvalidInput
	}

	boundary, configuration, err := resolveContext(".")
	if err != nil {
		return writeError(*jsonOutput, err)
	}
	handle := auditlog.Open(boundary, configuration)
	entries, err := handle.Tail(*limit)
	if err != nil {
		return writeError(*jsonOutput, err)
	}

	if *jsonOutput {
		if entries == nil {
			entries = []audit.Entry{}
		}
		return writeJSONOutput(tailOutput{OK: true, Count: len(entries), Entries: entries}, exitOK)
	}
	for _, entry := range entries {
		line, marshalErr := json.Marshal(entry)
		if marshalErr != nil {
			fmt.Fprintf(os.Stderr, "scribe tail: encode entry: %v\n", marshalErr)
			return exitInternalFailure
		}
		fmt.Println(string(line))
	}
	return exitOK
}
