package report

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
)

// SchemaID identifies the report schema.
const SchemaID = "https://github.com/sweqa/trx/report.schema.json"

// Schema returns the JSON Schema of Report, indented, with a trailing newline.
func Schema() ([]byte, error) {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	schema := reflector.Reflect(&Report{})
	schema.ID = jsonschema.ID(SchemaID)
	schema.Title = "trx report"

	schemaJSON, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, err
	}
	schemaJSON = append(schemaJSON, byte('\n'))
	return schemaJSON, nil
}
