// Package schema validates request bodies against the JSON schemas embedded
// in the binary.
package schema

import (
	"embed"
	"fmt"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/petermazzocco/water-quality-api/internal/apperrors"
	"github.com/xeipuuv/gojsonschema"
)

const base = "http://water-quality.app/schemas/"

// Schema IDs of the embedded request schemas.
const (
	WaterQualityUpdate = base + "water_quality_update.json"
	Signup             = base + "signup.json"
	Login              = base + "login.json"
	ProfileUpdate      = base + "profile_update.json"
	Upload             = base + "upload.json"
	Location           = base + "location.json"
)

var requestSchemas = []string{WaterQualityUpdate, Signup, Login, ProfileUpdate, Upload, Location}

// SchemaField is the key used for problems with the document as a whole.
const SchemaField = "_schema"

//go:embed schemas/*.json
var schemaFS embed.FS

// Validator validates JSON documents against compiled schemas keyed by $id.
type Validator struct {
	schemaValidators map[string]*gojsonschema.Schema
}

// New compiles the embedded request schemas.
func New() (*Validator, error) {
	files, err := schemaFS.ReadDir("schemas")
	if err != nil {
		return nil, fmt.Errorf("cannot read dir %w", err)
	}
	var schemas []string
	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), ".json") {
			continue
		}
		str, err := schemaFS.ReadFile("schemas/" + f.Name())
		if err != nil {
			return nil, fmt.Errorf("cannot read file '%s' %w", f.Name(), err)
		}
		schemas = append(schemas, string(str))
	}
	v, err := NewValidator(schemas)
	if err != nil {
		return nil, err
	}
	for _, id := range requestSchemas {
		if !v.HasSchema(id) {
			return nil, fmt.Errorf("embedded schema %s is missing", id)
		}
	}
	return v, nil
}

// NewValidator compiles schemas. Every schema must carry an $id.
func NewValidator(schemas []string) (*Validator, error) {
	type schema struct {
		ID string `json:"$id"`
	}
	validator := Validator{schemaValidators: make(map[string]*gojsonschema.Schema)}
	for _, str := range schemas {
		s := schema{}
		if err := json.Unmarshal([]byte(str), &s); err != nil {
			return nil, fmt.Errorf("parse error '%v' in schema: '%s'", err, str)
		}
		if s.ID == "" {
			return nil, fmt.Errorf("schema does not contain $id: '%s'", str)
		}
		compiled, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(str))
		if err != nil {
			return nil, fmt.Errorf("cannot compile schema %s %s", s.ID, err)
		}
		validator.schemaValidators[s.ID] = compiled
	}
	return &validator, nil
}

// HasSchema returns true if schemaID is known
func (v *Validator) HasSchema(schemaID string) bool {
	_, ok := v.schemaValidators[schemaID]
	return ok
}

// Validate checks document against schemaID. A document that is not valid
// JSON, or violates the schema, yields an *apperrors.ValidationError whose
// details are keyed by field name.
func (v *Validator) Validate(document []byte, schemaID string) error {
	schema, ok := v.schemaValidators[schemaID]
	if !ok {
		return fmt.Errorf("there is no schema %s", schemaID)
	}

	verr := apperrors.NewValidationError()
	if len(strings.TrimSpace(string(document))) == 0 {
		verr.Add(SchemaField, "Invalid input type.")
		return verr
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(document))
	if err != nil {
		// not parseable as JSON
		verr.Add(SchemaField, "Invalid input type.")
		return verr
	}
	if result.Valid() {
		return nil
	}

	for _, e := range result.Errors() {
		field, msg := describe(e)
		verr.Add(field, msg)
	}
	return verr
}

func describe(e gojsonschema.ResultError) (string, string) {
	switch e.Type() {
	case "additional_property_not_allowed":
		if p, ok := e.Details()["property"].(string); ok {
			return p, "Unknown field."
		}
	case "required":
		if p, ok := e.Details()["property"].(string); ok {
			return p, "Missing data for required field."
		}
	}

	field := e.Field()
	if field == gojsonschema.STRING_CONTEXT_ROOT || field == "" {
		if e.Type() == "invalid_type" {
			return SchemaField, "Invalid input type."
		}
		return SchemaField, e.Description()
	}
	return field, e.Description()
}
