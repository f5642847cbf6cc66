package audit

import "time"

const (
	EntrySchemaID      = "scribe.audit.entry"
	EntrySchemaVersion = "1.0.0"

	// TimestampLayout is fixed-width UTC so that lexical order of encoded
	// timestamps equals chronological order.
	TimestampLayout = "2006-01-02T15:04:05.000000000Z"
)

const (
	KindFileWrite   = "file_write"
	KindApproval    = "approval"
	KindVerdict     = "verdict"
	KindSessionNote = "session_note"
)

// Entry is one governance event. Exactly one payload field matching Kind is
// set for the known kinds; unknown kinds round-trip through Extra so newer
// producers stay readable.
type Entry struct {
	SchemaID      string            `json:"schema_id"`
	SchemaVersion string            `json:"schema_version"`
	CreatedAt     string            `json:"created_at"`
	SessionID     string            `json:"session_id"`
	Kind          string            `json:"kind"`
	FileWrite     *FileWritePayload `json:"file_write,omitempty"`
	Approval      *ApprovalPayload  `json:"approval,omitempty"`
	Verdict       *VerdictPayload   `json:"verdict,omitempty"`
	Note          *NotePayload      `json:"note,omitempty"`
	Extra         map[string]any    `json:"extra,omitempty"`
}

type FileWritePayload struct {
	Path         string `json:"path"`
	BytesWritten int64  `json:"bytes_written,omitempty"`
	Digest       string `json:"digest,omitempty"`
}

type ApprovalPayload struct {
	Actor    string `json:"actor"`
	Subject  string `json:"subject"`
	Decision string `json:"decision"`
	Reason   string `json:"reason,omitempty"`
}

type VerdictPayload struct {
	IntentID    string   `json:"intent_id,omitempty"`
	ToolName    string   `json:"tool_name"`
	Verdict     string   `json:"verdict"`
	ReasonCodes []string `json:"reason_codes,omitempty"`
}

type NotePayload struct {
	Text string `json:"text"`
}

// Timestamp encodes a wall-clock value in the entry timestamp layout.
func Timestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// ParseTimestamp decodes an entry timestamp.
func ParseTimestamp(value string) (time.Time, error) {
	return time.Parse(TimestampLayout, value)
}
