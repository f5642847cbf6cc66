// Package auditlog implements the session-sharded audit log: one private
// append-only shard per writing session, a merged chronological view for
// readers, and an atomic consolidation step that folds pending shards into
// the permanent history.
//
// A Log is an explicit handle constructed from a resolved working-tree
// boundary and threaded to whatever needs to record governance events;
// there is no process-global log state.
package auditlog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	coreerrors "github.com/davidahmann/scribe/core/errors"
	"github.com/davidahmann/scribe/core/fsx"
	"github.com/davidahmann/scribe/core/jcs"
	"github.com/davidahmann/scribe/core/projectconfig"
	"github.com/davidahmann/scribe/core/repo"
	"github.com/davidahmann/scribe/core/schema/v1/audit"
)

const (
	shardExt        = ".jsonl"
	shardFileMode   = os.FileMode(0o600)
	historyFileMode = os.FileMode(0o600)

	// shardNameLayout is fixed-width UTC so lexical sort of shard filenames
	// equals chronological creation order.
	shardNameLayout = "20060102T150405.000000000"
)

type Log struct {
	root        string
	historyPath string
	pendingDir  string
	tailLimit   int

	mu        sync.Mutex
	sessionID string
	shardPath string

	now func() time.Time
}

type Option func(*Log)

// WithSessionID pins the session token instead of generating one on first
// append. When a pending shard for that token already exists it is reused,
// which lets short-lived processes (the CLI) keep appending to one shard.
func WithSessionID(token string) Option {
	return func(l *Log) {
		l.sessionID = strings.TrimSpace(token)
	}
}

// Open constructs a log handle under the resolved boundary. No filesystem
// state is touched until the first append.
func Open(boundary repo.Boundary, cfg projectconfig.Config, opts ...Option) *Log {
	logDir := cfg.Log.Dir
	if !filepath.IsAbs(logDir) {
		logDir = filepath.Join(boundary.Root, logDir)
	}
	handle := &Log{
		root:        boundary.Root,
		historyPath: filepath.Join(logDir, cfg.Log.History),
		pendingDir:  filepath.Join(logDir, cfg.Log.Pending),
		tailLimit:   cfg.Tail.DefaultLimit,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(handle)
	}
	return handle
}

// HistoryPath reports the permanent record location.
func (l *Log) HistoryPath() string {
	return l.historyPath
}

// PendingDir reports the shard directory.
func (l *Log) PendingDir() string {
	return l.pendingDir
}

// SessionID reports the session token, empty before the first append unless
// pinned via WithSessionID.
func (l *Log) SessionID() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.sessionID
}

// Append records one governance event in this session's shard. The first
// call creates the shard (and the pending directory); every call appends a
// single canonical JSON line and fsyncs before returning, so a crash loses
// at most the in-flight entry. Fail-closed: a write failure surfaces to the
// caller rather than dropping the entry.
func (l *Log) Append(entry audit.Entry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.shardPath == "" {
		if err := l.ensureShard(); err != nil {
			return err
		}
	}
	entry.SessionID = l.sessionID
	line, err := encodeEntry(entry, l.now)
	if err != nil {
		return err
	}
	if err := fsx.AppendLine(l.shardPath, line, shardFileMode); err != nil {
		return coreerrors.Wrap(
			fmt.Errorf("append audit entry: %w", err),
			coreerrors.CategoryIOFailure,
			"shard_write_failure",
			"check permissions and free space under the shard directory",
			false,
		)
	}
	return nil
}

// AppendDirect appends one entry to an explicit target path, bypassing
// boundary resolution and session sharding entirely. This is the escape
// hatch for legacy single-file callers; entries written this way are never
// consolidated.
func AppendDirect(path string, entry audit.Entry) error {
	if strings.TrimSpace(path) == "" {
		return coreerrors.Wrap(
			fmt.Errorf("target path is required"),
			coreerrors.CategoryInvalidInput,
			"invalid_target_path",
			"pass a writable file path",
			false,
		)
	}
	if strings.TrimSpace(entry.SessionID) == "" {
		entry.SessionID = "legacy"
	}
	line, err := encodeEntry(entry, time.Now)
	if err != nil {
		return err
	}
	if err := fsx.AppendLine(path, line, shardFileMode); err != nil {
		return coreerrors.Wrap(
			fmt.Errorf("append audit entry: %w", err),
			coreerrors.CategoryIOFailure,
			"shard_write_failure",
			"check permissions and free space for the target path",
			false,
		)
	}
	return nil
}

// ensureShard picks the session token and shard path. Caller holds l.mu.
func (l *Log) ensureShard() error {
	if l.sessionID == "" {
		l.sessionID = newSessionToken()
	} else if existing, ok := l.findSessionShard(l.sessionID); ok {
		l.shardPath = existing
		return nil
	}
	name := l.now().UTC().Format(shardNameLayout) + "_" + l.sessionID + shardExt
	l.shardPath = filepath.Join(l.pendingDir, name)
	return nil
}

// findSessionShard locates the newest pending shard for a pinned session
// token, if one survives from an earlier process.
func (l *Log) findSessionShard(token string) (string, bool) {
	names, err := listShards(l.pendingDir)
	if err != nil {
		return "", false
	}
	suffix := "_" + token + shardExt
	for i := len(names) - 1; i >= 0; i-- {
		if strings.HasSuffix(names[i], suffix) {
			return filepath.Join(l.pendingDir, names[i]), true
		}
	}
	return "", false
}

// newSessionToken returns a short random token; collisions are negligible
// for the lifetime of a session.
func newSessionToken() string {
	return strings.SplitN(uuid.NewString(), "-", 2)[0]
}

// encodeEntry applies envelope defaults and returns one canonical JSON line.
// Canonicalizing at append time is what makes consolidation a pure byte
// function of its inputs.
func encodeEntry(entry audit.Entry, now func() time.Time) ([]byte, error) {
	if entry.SchemaID == "" {
		entry.SchemaID = audit.EntrySchemaID
	}
	if entry.SchemaVersion == "" {
		entry.SchemaVersion = audit.EntrySchemaVersion
	}
	if entry.CreatedAt == "" {
		entry.CreatedAt = audit.Timestamp(now())
	}
	if strings.TrimSpace(entry.Kind) == "" {
		return nil, coreerrors.Wrap(
			fmt.Errorf("entry kind is required"),
			coreerrors.CategoryInvalidInput,
			"invalid_entry",
			"set a non-empty kind",
			false,
		)
	}
	raw, err := json.Marshal(entry)
	if err != nil {
		return nil, coreerrors.Wrap(
			fmt.Errorf("marshal audit entry: %w", err),
			coreerrors.CategoryInvalidInput,
			"invalid_entry",
			"entry payload must be JSON-serializable",
			false,
		)
	}
	canonical, err := jcs.CanonicalizeJSON(raw)
	if err != nil {
		return nil, coreerrors.Wrap(
			fmt.Errorf("canonicalize audit entry: %w", err),
			coreerrors.CategoryInternalFailure,
			"invalid_entry",
			"",
			false,
		)
	}
	return canonical, nil
}

// listShards snapshots the pending directory in creation-time order. A
// missing directory means no shards, not an error.
func listShards(pendingDir string) ([]string, error) {
	dirEntries, err := os.ReadDir(pendingDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list shard directory: %w", err)
	}
	names := make([]string, 0, len(dirEntries))
	for _, dirEntry := range dirEntries {
		if dirEntry.IsDir() {
			continue
		}
		if !strings.HasSuffix(dirEntry.Name(), shardExt) {
			continue
		}
		names = append(names, dirEntry.Name())
	}
	// os.ReadDir sorts by filename, which is creation order by construction.
	return names, nil
}
