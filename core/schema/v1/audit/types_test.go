package audit

import (
	"encoding/json"
	"testing"
	"time"
)

func TestTimestampIsLexicallySortable(t *testing.T) {
	earlier := Timestamp(time.Date(2026, 3, 1, 9, 0, 0, 5, time.UTC))
	later := Timestamp(time.Date(2026, 3, 1, 9, 0, 0, 1000, time.UTC))
	if !(earlier < later) {
		t.Fatalf("timestamp order broken: %q !< %q", earlier, later)
	}
	if len(earlier) != len(later) {
		t.Fatalf("timestamps must be fixed width: %q vs %q", earlier, later)
	}
}

func TestTimestampRoundTrip(t *testing.T) {
	original := time.Date(2026, 3, 1, 9, 30, 15, 123456789, time.UTC)
	parsed, err := ParseTimestamp(Timestamp(original))
	if err != nil {
		t.Fatalf("parse timestamp: %v", err)
	}
	if !parsed.Equal(original) {
		t.Fatalf("timestamp round trip mismatch: %v vs %v", parsed, original)
	}
}

func TestEntryUnknownKindRoundTrip(t *testing.T) {
	entry := Entry{
		SchemaID:      EntrySchemaID,
		SchemaVersion: EntrySchemaVersion,
		CreatedAt:     Timestamp(time.Now()),
		SessionID:     "ab12cd34",
		Kind:          "model_invocation",
		Extra: map[string]any{
			"model":  "local/7b",
			"tokens": float64(812),
		},
	}
	encoded, err := json.Marshal(entry)
	if err != nil {
		t.Fatalf("marshal entry: %v", err)
	}
	var decoded Entry
	if err := json.Unmarshal(encoded, &decoded); err != nil {
		t.Fatalf("unmarshal entry: %v", err)
	}
	if decoded.Kind != "model_invocation" {
		t.Fatalf("unexpected kind: %q", decoded.Kind)
	}
	if decoded.Extra["model"] != "local/7b" || decoded.Extra["tokens"] != float64(812) {
		t.Fatalf("extra payload lost: %#v", decoded.Extra)
	}
}

func TestEntryKnownKindOmitsUnusedVariants(t *testing.T) {
	entry := Entry{
		SchemaID:      EntrySchemaID,
		SchemaVersion: EntrySchemaVersion,
		CreatedAt:     Timestamp(time.Now()),
		SessionID:     "ab12cd34",
		Kind:          KindVerdict,
		Verdict: &VerdictPayload{
			ToolName:    "fs.write",
			Verdict:     "allow",
			ReasonCodes: []string{"policy_match"},
		},
	}
	encoded, err := json.Marshal(entry)
	if err != nil {
		t.Fatalf("marshal entry: %v", err)
	}
	var generic map[string]any
	if err := json.Unmarshal(encoded, &generic); err != nil {
		t.Fatalf("unmarshal generic: %v", err)
	}
	for _, absent := range []string{"file_write", "approval", "note", "extra"} {
		if _, ok := generic[absent]; ok {
			t.Fatalf("unused variant %q serialized: %s", absent, string(encoded))
		}
	}
	if _, ok := generic["verdict"]; !ok {
		t.Fatalf("verdict payload missing: %s", string(encoded))
	}
}
