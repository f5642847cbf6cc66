package auditlog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	coreerrors "github.com/davidahmann/scribe/core/errors"
	"github.com/davidahmann/scribe/core/schema/v1/audit"
)

// Tail returns at most limit most recent entries across the merged view:
// history first, then every pending shard in creation order. Limit <= 0
// falls back to the configured default.
//
// Fail-open per shard: a shard that cannot be read (mid-deletion by a
// racing consolidation, transient contention) is skipped, never raised.
// Lines that do not parse are skipped the same way; a crashed writer can
// leave a torn final line, and that entry was never acknowledged.
func (l *Log) Tail(limit int) ([]audit.Entry, error) {
	if limit <= 0 {
		limit = l.tailLimit
	}

	historyRaw, err := os.ReadFile(l.historyPath)
	if err != nil && !os.IsNotExist(err) {
		return nil, coreerrors.Wrap(
			fmt.Errorf("read history: %w", err),
			coreerrors.CategoryIOFailure,
			"history_read_failure",
			"check permissions on the history file",
			false,
		)
	}
	entries, _ := decodeEntries(historyRaw)

	shardNames, err := listShards(l.pendingDir)
	if err != nil {
		return nil, coreerrors.Wrap(err, coreerrors.CategoryIOFailure, "shard_list_failure", "check permissions on the shard directory", false)
	}
	for _, name := range shardNames {
		raw, readErr := os.ReadFile(filepath.Join(l.pendingDir, name))
		if readErr != nil {
			continue
		}
		shardEntries, _ := decodeEntries(raw)
		entries = append(entries, shardEntries...)
	}

	if len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}
	return entries, nil
}

// decodeEntries parses newline-delimited entries, returning the parsed
// entries and the count of lines that did not parse. Lines are split in
// memory with no length cap; an entry is one line no matter its size.
func decodeEntries(raw []byte) ([]audit.Entry, int) {
	entries := make([]audit.Entry, 0, 64)
	skipped := 0
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
		var entry audit.Entry
		if err := json.Unmarshal(line, &entry); err != nil {
			skipped++
			continue
		}
		entries = append(entries, entry)
	}
	return entries, skipped
}
