package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/davidahmann/scribe/core/doctor"
	"github.com/davidahmann/scribe/core/projectconfig"
	"github.com/davidahmann/scribe/core/repo"
)

func runDoctor(arguments []string) int {
	flagSet := flag.NewFlagSet("doctor", flag.ContinueOnError)
	flagSet.SetOutput(io.Discard)
	jsonOutput := flagSet.Bool("json", false, "emit JSON output")
	if err := flagSet.Parse(arguments); err != nil {
		fmt.Fprintf(os.Stderr, "scribe doctor: %v\n", err)
		return exitInvalidInput
	}

	// Doctor must not hard-fail on an unresolvable boundary; the project
	// config is loaded from the boundary root when one resolves, so running
	// from a subdirectory probes the same paths the other commands use.
	configuration := projectconfig.Default()
	if boundary, err := repo.Resolve("."); err == nil {
		if loaded, loadErr := projectconfig.Load(filepath.Join(boundary.Root, projectconfig.DefaultPath), true); loadErr == nil {
			configuration = loaded
		}
	}
	result := doctor.Run(doctor.Options{
		WorkDir:         ".",
		Config:          configuration,
		ProducerVersion: version,
	})

	exitCode := exitOK
	if result.Status == "fail" {
		exitCode = exitVerifyFailed
	}
	if *jsonOutput {
		return writeJSONOutput(result, exitCode)
	}
	fmt.Println(result.Summary)
	for _, check := range result.Checks {
		fmt.Printf("  %-4s %-18s %s\n", check.Status, check.Name, check.Message)
	}
	return exitCode
}
