// internal/common/validation/schema.go
package validation

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// updateStatusSchema constrains the status-update request body. Anything
// outside this shape is rejected before the pipeline runs.
const updateStatusSchema = `{
	"type": "object",
	"properties": {
		"status": {"type": "integer", "minimum": 0},
		"viewerRole": {"type": "string", "enum": ["admin", "staff", "client", "Admin", "Staff", "Client"]},
		"skipTracking": {"type": "boolean"}
	},
	"required": ["status", "viewerRole"],
	"additionalProperties": false
}`

var updateStatusLoader = gojsonschema.NewStringLoader(updateStatusSchema)

// ValidateUpdateStatus validates a raw status-update request body against
// the schema, returning a joined description of every violation.
func ValidateUpdateStatus(body []byte) error {
	result, err := gojsonschema.Validate(updateStatusLoader, gojsonschema.NewBytesLoader(body))
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}
	if result.Valid() {
		return nil
	}

	msgs := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		msgs = append(msgs, desc.String())
	}
	return fmt.Errorf("invalid request: %s", strings.Join(msgs, "; "))
}
