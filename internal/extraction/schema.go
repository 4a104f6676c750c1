package extraction

import (
	"fmt"
	"sort"

	"github.com/xeipuuv/gojsonschema"
)

// Kind is a JSON value type accepted by a schema leaf.
type Kind string

const (
	KindString  Kind = "string"
	KindArray   Kind = "array"
	KindObject  Kind = "object"
	KindNumber  Kind = "number"
	KindBoolean Kind = "boolean"
	KindNull    Kind = "null"
)

// Field is either a nested Schema or a set of accepted value kinds.
type Field struct {
	Nested Schema
	Kinds  []Kind
}

// Schema maps required keys to their field definition.
type Schema map[string]Field

// OneOf declares a leaf accepting any of kinds.
func OneOf(kinds ...Kind) Field {
	return Field{Kinds: kinds}
}

// Object declares a nested section; the section itself may be null.
func Object(s Schema) Field {
	return Field{Nested: s}
}

// ResumeSchema is the shape returned by the all-sections extraction prompt.
var ResumeSchema = Schema{
	"user_info": Object(Schema{
		"first_name":       OneOf(KindString, KindNull),
		"last_name":        OneOf(KindString, KindNull),
		"email":            OneOf(KindString, KindNull),
		"phone_number":     OneOf(KindString, KindNull),
		"linkedin_profile": OneOf(KindString, KindNull),
		"address":          OneOf(KindString, KindNull),
	}),
	"summary": OneOf(KindString, KindNull),
	"skills": Object(Schema{
		"soft_skills": OneOf(KindArray, KindNull),
		"hard_skills": OneOf(KindArray, KindNull),
	}),
	"relevant_work_experience": OneOf(KindArray, KindNull),
	"education":                OneOf(KindArray, KindNull),
	"languages":                OneOf(KindArray, KindNull),
}

// JSONSchema renders s as a draft-04 JSON Schema document with every key required.
// The root must be an object; nested sections accept null.
func (s Schema) JSONSchema() map[string]any {
	doc := s.objectSchema(false)
	doc["$schema"] = "http://json-schema.org/draft-04/schema#"
	return doc
}

func (s Schema) objectSchema(nullable bool) map[string]any {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	props := make(map[string]any, len(s))
	for _, k := range keys {
		props[k] = s[k].jsonSchema()
	}
	var typ any = "object"
	if nullable {
		typ = []any{"object", "null"}
	}
	required := make([]any, len(keys))
	for i, k := range keys {
		required[i] = k
	}
	return map[string]any{
		"type":       typ,
		"required":   required,
		"properties": props,
	}
}

func (f Field) jsonSchema() map[string]any {
	if f.Nested != nil {
		return f.Nested.objectSchema(true)
	}
	types := make([]any, len(f.Kinds))
	for i, k := range f.Kinds {
		types[i] = string(k)
	}
	return map[string]any{"type": types}
}

// Compile prepares s for repeated validation.
func (s Schema) Compile() (*gojsonschema.Schema, error) {
	compiled, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(s.JSONSchema()))
	if err != nil {
		return nil, fmt.Errorf("compile extraction schema: %w", err)
	}
	return compiled, nil
}
