package main

import (
	"encoding/json"
	"fmt"
	"os"

	coreerrors "github.com/davidahmann/scribe/core/errors"
)

const (
	exitOK                = 0
	exitInvalidInput      = 2
	exitVerifyFailed      = 3
	exitMissingDependency = 4
	exitInternalFailure   = 5
	exitNotInRepository   = 6
)

type errorOutput struct {
	OK        bool   `json:"ok"`
	Error     string `json:"error"`
	ErrorCode string `json:"error_code,omitempty"`
	Hint      string `json:"hint,omitempty"`
}

func writeJSONOutput(output any, exitCode int) int {
	encoded, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "encode output: %v\n", err)
		return exitInternalFailure
	}
	fmt.Println(string(encoded))
	return exitCode
}

func writeError(jsonOutput bool, err error) int {
	exitCode := exitCodeForError(err)
	if jsonOutput {
		return writeJSONOutput(errorOutput{
			OK:        false,
			Error:     err.Error(),
			ErrorCode: coreerrors.CodeOf(err),
			Hint:      coreerrors.HintOf(err),
		}, exitCode)
	}
	fmt.Fprintf(os.Stderr, "scribe: %v\n", err)
	if hint := coreerrors.HintOf(err); hint != "" {
		fmt.Fprintf(os.Stderr, "hint: %s\n", hint)
	}
	return exitCode
}

func exitCodeForError(err error) int {
	switch coreerrors.CategoryOf(err) {
	case coreerrors.CategoryInvalidInput:
		return exitInvalidInput
	case coreerrors.CategoryNotInRepository:
		return exitNotInRepository
	case coreerrors.CategoryDependencyMissing:
		return exitMissingDependency
	case coreerrors.CategoryVerification:
		return exitVerifyFailed
	default:
		return exitInternalFailure
	}
}
