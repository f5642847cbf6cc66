package main

import (
	"fmt"
	"os"
)

// version is stamped at release time via ldflags; default stays dev for local builds.
var version = "0.0.0-dev"

func main() {
	os.Exit(run(os.Args))
}

func run(arguments []string) int {
	if len(arguments) < 2 {
		printUsage()
		return exitOK
	}
	switch arguments[1] {
	case "log":
		return runLog(arguments[2:])
	case "tail":
		return runTail(arguments[2:])
	case "consolidate":
		return runConsolidate(arguments[2:])
	case "verify":
		return runVerify(arguments[2:])
	case "doctor":
		return runDoctor(arguments[2:])
	case "version", "--version", "-v":
		fmt.Println("scribe", version)
		return exitOK
	default:
		printUsage()
		return exitInvalidInput
	}
}

func printUsage() {
	fmt.Println("scribe records governance events into per-session audit shards and consolidates them into a permanent history.")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  scribe log --kind <kind> [--session <token>] [--path <file>] [--json] <payload-json>")
	fmt.Println("  scribe tail [-n <count>] [--json]")
	fmt.Println("  scribe consolidate [--json]")
	fmt.Println("  scribe verify [--json]")
	fmt.Println("  scribe doctor [--json]")
	fmt.Println("  scribe version")
}
