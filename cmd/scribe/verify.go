package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/davidahmann/scribe/core/auditlog"
	"github.com/davidahmann/scribe/core/schema/validate"
)

type verifyFileResult struct {
	Path  string `json:"path"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

type verifyOutput struct {
	OK    bool               `json:"ok"`
	Files []verifyFileResult `json:"files"`
}

// runVerify schema-validates every entry in the history and all pending
// shards. Unlike tail, verify is strict: an unreadable shard is a failure
// here, because the operator asked for an integrity report.
func runVerify(arguments []string) int {
	flagSet := flag.NewFlagSet("verify", flag.ContinueOnError)
	flagSet.SetOutput(io.Discard)
	jsonOutput := flagSet.Bool("json", false, "emit JSON output")
	if err := flagSet.Parse(arguments); err != nil {
		fmt.Fprintf(os.Stderr, "scribe verify: %v\n", err)
		return exitInvalidInput
	}

	boundary, configuration, err := resolveContext(".")
	if err != nil {
		return writeError(*jsonOutput, err)
	}
	handle := auditlog.Open(boundary, configuration)

	results := make([]verifyFileResult, 0, 8)
	allOK := true

	appendResult := func(path string, required bool) {
		content, readErr := os.ReadFile(path)
		if readErr != nil {
			if os.IsNotExist(readErr) && !required {
				return
			}
			results = append(results, verifyFileResult{Path: path, OK: false, Error: readErr.Error()})
			allOK = false
			return
		}
		if validateErr := validate.EntriesJSONL(content); validateErr != nil {
			results = append(results, verifyFileResult{Path: path, OK: false, Error: validateErr.Error()})
			allOK = false
			return
		}
		results = append(results, verifyFileResult{Path: path, OK: true})
	}

	appendResult(handle.HistoryPath(), false)
	shardDirEntries, readErr := os.ReadDir(handle.PendingDir())
	if readErr != nil && !os.IsNotExist(readErr) {
		return writeError(*jsonOutput, readErr)
	}
	for _, dirEntry := range shardDirEntries {
		if dirEntry.IsDir() {
			continue
		}
		appendResult(filepath.Join(handle.PendingDir(), dirEntry.Name()), true)
	}

	exitCode := exitOK
	if !allOK {
		exitCode = exitVerifyFailed
	}
	if *jsonOutput {
		return writeJSONOutput(verifyOutput{OK: allOK, Files: results}, exitCode)
	}
	for _, result := range results {
		if result.OK {
			fmt.Printf("ok   %s\n", result.Path)
		} else {
			fmt.Printf("FAIL %s: %s\n", result.Path, result.Error)
		}
	}
	if len(results) == 0 {
		fmt.Println("nothing to verify")
	}
	return exitCode
}
