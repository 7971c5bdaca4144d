// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package revocation

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

// ErrEmptyList indicates a status list whose entries object has no serials.
// Google's list is never empty, so an empty one is treated as a broken source
// rather than as "nothing is revoked".
var ErrEmptyList = errors.New("revocation: status list has no entries")

// statusListSchema describes the body of the attestation status endpoint and
// the snapshot file. Unknown status and reason values are accepted.
const statusListSchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"required": ["entries"],
	"properties": {
		"entries": {
			"type": "object",
			"additionalProperties": {
				"type": "object",
				"properties": {
					"status":  {"type": "string"},
					"reason":  {"type": "string"},
					"expires": {"type": "string"},
					"comment": {"type": "string"}
				}
			}
		}
	}
}`

var (
	schemaOnce     sync.Once
	compiledSchema *gojsonschema.Schema
	schemaErr      error
)

func statusSchema() (*gojsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiledSchema, schemaErr = gojsonschema.NewSchema(gojsonschema.NewStringLoader(statusListSchema))
	})
	return compiledSchema, schemaErr
}

// checkSchema validates data against the status list schema and returns
// an error wrapping [ErrDecode] that lists every violation.
func checkSchema(data []byte) error {
	schema, err := statusSchema()
	if err != nil {
		return fmt.Errorf("%w: schema: %w", ErrDecode, err)
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDecode, err)
	}
	if result.Valid() {
		return nil
	}

	msgs := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		msgs = append(msgs, e.String())
	}
	return fmt.Errorf("%w: %s", ErrDecode, strings.Join(msgs, "; "))
}
