package validate

import (
	"bufio"
	"bytes"
	_ "embed"
	"fmt"
	"sync"

	"github.com/kaptinlin/jsonschema"
)

//go:embed schemas/entry.schema.json
var entrySchemaJSON []byte

var (
	entrySchemaOnce sync.Once
	entrySchema     *jsonschema.Schema
	entrySchemaErr  error
)

// Entry validates one serialized audit entry against the embedded schema.
func Entry(raw []byte) error {
	schema, err := loadEntrySchema()
	if err != nil {
		return err
	}
	return validateJSON(schema, raw)
}

// EntriesJSONL validates every non-empty line of a newline-delimited entry
// stream, reporting the first failing line.
func EntriesJSONL(data []byte) error {
	schema, err := loadEntrySchema()
	if err != nil {
		return err
	}
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		b := bytes.TrimSpace(scanner.Bytes())
		if len(b) == 0 {
			continue
		}
		if err := validateJSON(schema, b); err != nil {
			return fmt.Errorf("jsonl line %d: %w", line, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read jsonl: %w", err)
	}
	return nil
}

func loadEntrySchema() (*jsonschema.Schema, error) {
	entrySchemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.AssertFormat = true
		entrySchema, entrySchemaErr = compiler.Compile(entrySchemaJSON)
		if entrySchemaErr != nil {
			entrySchemaErr = fmt.Errorf("compile entry schema: %w", entrySchemaErr)
		}
	})
	return entrySchema, entrySchemaErr
}

func validateJSON(schema *jsonschema.Schema, data []byte) error {
	result := schema.ValidateJSON(data)
	if result.IsValid() {
		return nil
	}
	return fmt.Errorf("schema validation failed: %v", result.Errors)
}
