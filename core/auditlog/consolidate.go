package auditlog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	coreerrors "github.com/davidahmann/scribe/core/errors"
	"github.com/davidahmann/scribe/core/fsx"
)

// Report summarizes one consolidation run.
type Report struct {
	HistoryPath            string `json:"history_path"`
	HistoryEntries         int    `json:"history_entries"`
	ShardsFolded           int    `json:"shards_folded"`
	EntriesFolded          int    `json:"entries_folded"`
	TornLinesDropped       int    `json:"torn_lines_dropped"`
	ShardsMissingAtCleanup int    `json:"shards_missing_at_cleanup"`
	CleanupFailures        int    `json:"cleanup_failures"`
}

// Test seams: readShardFile injects read failures before the atomic rename;
// writeHistoryFile lets racing runs be held at the rename boundary.
var (
	readShardFile    = os.ReadFile
	writeHistoryFile = fsx.WriteFileAtomic
)

// Consolidate folds every shard present at the start of the run into the
// permanent history, then removes the folded shards. Idempotent, and safe
// to invoke concurrently with writers and with itself.
//
// Failure model: any error before the atomic rename aborts the run with
// history and all shards untouched. A kill after the rename but before
// shard cleanup is a successful run whose cleanup the next invocation
// repeats harmlessly, because the folded bytes are already durable in
// history and the merge is a pure byte function of its snapshot.
func (l *Log) Consolidate() (Report, error) {
	report := Report{HistoryPath: l.historyPath}

	// Step 1: snapshot. Shards created after this point belong to the next run.
	shardNames, err := listShards(l.pendingDir)
	if err != nil {
		return Report{}, abortConsolidation(err)
	}
	if len(shardNames) == 0 {
		return report, nil
	}

	// Step 2: pure merge of (history, snapshot) into one byte sequence.
	historyRaw, err := os.ReadFile(l.historyPath)
	if err != nil && !os.IsNotExist(err) {
		return Report{}, abortConsolidation(fmt.Errorf("read history: %w", err))
	}
	var combined bytes.Buffer
	report.HistoryEntries, report.TornLinesDropped = appendParseableLines(&combined, historyRaw)
	for _, name := range shardNames {
		raw, readErr := readShardFile(filepath.Join(l.pendingDir, name))
		if readErr != nil {
			// Includes a shard deleted by a racing run that won: our history
			// snapshot may predate that run's rename, so folding without the
			// shard could lose its entries. Abort; the next run sees a clean
			// snapshot.
			return Report{}, abortConsolidation(fmt.Errorf("read shard %s: %w", name, readErr))
		}
		folded, torn := appendParseableLines(&combined, raw)
		report.EntriesFolded += folded
		report.TornLinesDropped += torn
	}
	report.ShardsFolded = len(shardNames)

	// Steps 3 and 4: durable temp file in the history's own directory, then
	// atomic replace. Before the rename a crash leaves the old history
	// intact; after it the new history is complete.
	if err := os.MkdirAll(filepath.Dir(l.historyPath), 0o750); err != nil {
		return Report{}, abortConsolidation(fmt.Errorf("create history directory: %w", err))
	}
	if err := writeHistoryFile(l.historyPath, combined.Bytes(), historyFileMode); err != nil {
		return Report{}, abortConsolidation(fmt.Errorf("replace history: %w", err))
	}

	// Step 5: cleanup. Failures here cannot lose data (the entries are in
	// history) and must not fail the run; a racing run may already have
	// removed a shard.
	for _, name := range shardNames {
		if removeErr := os.Remove(filepath.Join(l.pendingDir, name)); removeErr != nil {
			if os.IsNotExist(removeErr) {
				report.ShardsMissingAtCleanup++
			} else {
				report.CleanupFailures++
			}
		}
	}
	return report, nil
}

func abortConsolidation(cause error) error {
	return coreerrors.Wrap(
		fmt.Errorf("consolidation aborted: %w", cause),
		coreerrors.CategoryIOFailure,
		"consolidation_aborted",
		"history is unchanged; pending shards are preserved for the next run",
		true,
	)
}

// appendParseableLines copies every line that parses as JSON verbatim into
// out, newline-terminated, and returns (copied, dropped). Copying raw bytes
// rather than re-encoding keeps the merge deterministic for racing runs.
// Lines are split in memory with no length cap: Append imposes no entry
// size limit, and an acknowledged entry must never be lost here.
func appendParseableLines(out *bytes.Buffer, raw []byte) (int, int) {
	copied := 0
	dropped := 0
	for len(raw) > 0 {
		line := raw
		if i := bytes.IndexByte(raw, '\n'); i >= 0 {
			line, raw = raw[:i], raw[i+1:]
		} else {
			raw = nil
		}
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		if !json.Valid(line) {
			dropped++
			continue
		}
		out.Write(line)
		out.WriteByte('\n')
		copied++
	}
	return copied, dropped
}
