package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/davidahmann/scribe/core/auditlog"
	"github.com/davidahmann/scribe/core/schema/v1/audit"
)

type logOutput struct {
	OK        bool   `json:"ok"`
	SessionID string `json:"session_id,omitempty"`
	Target    string `json:"target"`
}

func runLog(arguments []string) int {
	flagSet := flag.NewFlagSet("log", flag.ContinueOnError)
	flagSet.SetOutput(io.Discard)
	kind := flagSet.String("kind", "", "entry kind (file_write, approval, verdict, session_note, or a custom kind)")
	session := flagSet.String("session", "", "session token; reuses that session's pending shard when present")
	directPath := flagSet.String("path", "", "append directly to this file, bypassing session sharding")
	fromStdin := flagSet.Bool("stdin", false, "read the payload JSON from stdin")
	jsonOutput := flagSet.Bool("json", false, "emit JSON output")
	if err := flagSet.Parse(arguments); err != nil {
		fmt.Fprintf(os.Stderr, "scribe log: %v\n", err)
		return exitInvalidInput
	}

	payloadRaw, err := readPayload(flagSet.Args(), *fromStdin)
	if err != nil {
		fmt.Fprintf(os.Stderr, "scribe log: %v\n", err)
		return exitInvalidInput
	}
	entry, err := buildEntry(*kind, payloadRaw)
	if err != nil {
		fmt.Fprintf(os.Stderr, "scribe log: %v\n", err)
		return exitInvalidInput
	}

	if strings.TrimSpace(*directPath) != "" {
		if err := auditlog.AppendDirect(*directPath, entry); err != nil {
			return writeError(*jsonOutput, err)
		}
		if *jsonOutput {
			return writeJSONOutput(logOutput{OK: true, Target: *directPath}, exitOK)
		}
		return exitOK
	}

	boundary, configuration, err := resolveContext(".")
	if err != nil {
		return writeError(*jsonOutput, err)
	}
	handle := auditlog.Open(boundary, configuration, auditlog.WithSessionID(*session))
	if err := handle.Append(entry); err != nil {
		return writeError(*jsonOutput, err)
	}
	if *jsonOutput {
		return writeJSONOutput(logOutput{OK: true, SessionID: handle.SessionID(), Target: handle.PendingDir()}, exitOK)
	}
	return exitOK
}

func readPayload(positional []string, fromStdin bool) ([]byte, error) {
	if fromStdin {
		raw, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("read payload from stdin: %w", err)
		}
		return raw, nil
	}
	if len(positional) != 1 {
		return nil, fmt.Errorf("expected exactly one payload-json argument (or --stdin)")
	}
	return []byte(positional[0]), nil
}

// buildEntry decodes the payload into the typed variant for known kinds and
// into the catch-all for everything else.
func buildEntry(kind string, payloadRaw []byte) (audit.Entry, error) {
	trimmedKind := strings.TrimSpace(kind)
	if trimmedKind == "" {
		return audit.Entry{}, fmt.Errorf("--kind is required")
	}
	if len(strings.TrimSpace(string(payloadRaw))) == 0 {
		payloadRaw = []byte("{}")
	}
	entry := audit.Entry{Kind: trimmedKind}
	switch trimmedKind {
	case audit.KindFileWrite:
		entry.FileWrite = &audit.FileWritePayload{}
		if err := json.Unmarshal(payloadRaw, entry.FileWrite); err != nil {
			return audit.Entry{}, fmt.Errorf("parse file_write payload: %w", err)
		}
	case audit.KindApproval:
		entry.Approval = &audit.ApprovalPayload{}
		if err := json.Unmarshal(payloadRaw, entry.Approval); err != nil {
			return audit.Entry{}, fmt.Errorf("parse approval payload: %w", err)
		}
	case audit.KindVerdict:
		entry.Verdict = &audit.VerdictPayload{}
		if err := json.Unmarshal(payloadRaw, entry.Verdict); err != nil {
			return audit.Entry{}, fmt.Errorf("parse verdict payload: %w", err)
		}
	case audit.KindSessionNote:
		entry.Note = &audit.NotePayload{}
		if err := json.Unmarshal(payloadRaw, entry.Note); err != nil {
			return audit.Entry{}, fmt.Errorf("parse session_note payload: %w", err)
		}
	default:
		extra := map[string]any{}
		if err := json.Unmarshal(payloadRaw, &extra); err != nil {
			return audit.Entry{}, fmt.Errorf("parse payload for kind %q: %w", trimmedKind, err)
		}
		entry.Extra = extra
	}
	return entry, nil
}
