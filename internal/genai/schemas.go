package genai

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/interview-iq/backend/internal/apperr"
)

//go:embed schemas/*.json
var schemaFS embed.FS

var (
	profileSchema   = mustCompile("schemas/profile.json")
	questionsSchema = mustCompile("schemas/questions.json")
	briefSchema     = mustCompile("schemas/brief.json")
	packetSchema    = mustCompile("schemas/packet.json")
)

func mustCompile(name string) *jsonschema.Schema {
	data, err := schemaFS.ReadFile(name)
	if err != nil {
		panic(fmt.Sprintf("missing embedded schema %s: %v", name, err))
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, bytes.NewReader(data)); err != nil {
		panic(fmt.Sprintf("invalid embedded schema %s: %v", name, err))
	}
	schema, err := compiler.Compile(name)
	if err != nil {
		panic(fmt.Sprintf("cannot compile embedded schema %s: %v", name, err))
	}
	return schema
}

// validateShape checks a decoded artifact against its schema. The value
// round-trips through encoding/json so typed structs validate the same
// way as map[string]any.
func validateShape(schema *jsonschema.Schema, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return apperr.Parse("artifact not serializable", err)
	}
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return apperr.Parse("artifact not decodable", err)
	}
	if err := schema.Validate(doc); err != nil {
		return apperr.Parse("artifact does not match schema", err)
	}
	return nil
}
