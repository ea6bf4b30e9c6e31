package post

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// createPostSchema describes the body of POST /api/posts. Field content is
// validated again by the service; this only rejects malformed documents.
const createPostSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["title"],
  "additionalProperties": false,
  "properties": {
    "title":        {"type": "string"},
    "content":      {"type": ["string", "null"]},
    "image_url":    {"type": ["string", "null"]},
    "external_url": {"type": ["string", "null"]}
  }
}`

var createPostLoader = gojsonschema.NewStringLoader(createPostSchema)

// validateCreateBody checks body against the create schema and returns a
// readable summary of every violation.
func validateCreateBody(body []byte) error {
	result, err := gojsonschema.Validate(createPostLoader, gojsonschema.NewBytesLoader(body))
	if err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	if result.Valid() {
		return nil
	}

	msgs := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		msgs = append(msgs, desc.String())
	}
	return fmt.Errorf("%s", strings.Join(msgs, "; "))
}
