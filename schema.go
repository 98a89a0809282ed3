package tooluse

import (
	"bytes"
	"encoding/json"
	"errors"
	"reflect"
	"slices"
	"strings"
	"sync"

	"github.com/invopop/jsonschema"
	validator "github.com/santhosh-tekuri/jsonschema/v6"
)

var (
	customTypesMu sync.RWMutex
	customTypes   = make(map[reflect.Type]*jsonschema.Schema)
)

// RegisterType registers a custom Go type to be mapped to a JSON Schema type/format in generated schemas.
// emptyInstance is a value of the type to register (e.g. uuid.UUID{}, or MyMoney{}); it must not be nil.
// jsonType is the JSON Schema type (e.g. "string", "number"); it must not be empty.
// format is optional (e.g. "uuid", "decimal"). Pointer fields (*T) use the same mapping as T.
// Call RegisterType at application startup before the first NewTool or NewExtractor.
func RegisterType(emptyInstance any, jsonType, format string) {
	if emptyInstance == nil {
		panic("tooluse: RegisterType emptyInstance must not be nil")
	}
	if jsonType == "" {
		panic("tooluse: RegisterType jsonType must not be empty")
	}
	t := reflect.TypeOf(emptyInstance)
	customTypesMu.Lock()
	defer customTypesMu.Unlock()
	customTypes[t] = &jsonschema.Schema{Type: jsonType, Format: format}
}

// mapCustomType is the reflector Mapper: registered types become their registered schema.
func mapCustomType(t reflect.Type) *jsonschema.Schema {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	customTypesMu.RLock()
	defer customTypesMu.RUnlock()
	s, ok := customTypes[t]
	if !ok {
		return nil
	}
	return &jsonschema.Schema{Type: s.Type, Format: s.Format}
}

// generateSchema produces a JSON Schema map and a compiled validator for type T.
// It is called once when building a Tool. strict sets additionalProperties: false
// and marks every property required (OpenAI Structured Outputs).
func generateSchema[T any](strict bool) (map[string]any, *validator.Schema, error) {
	typ := reflect.TypeFor[T]()
	r := &jsonschema.Reflector{
		DoNotReference:            true,
		ExpandedStruct:            true,
		AllowAdditionalProperties: true,
		Mapper:                    mapCustomType,
	}
	schema := r.ReflectFromType(typ)
	if schema == nil {
		return nil, nil, errNilSchema
	}
	data, err := json.Marshal(schema)
	if err != nil {
		return nil, nil, err
	}
	var schemaMap map[string]any
	if err := json.Unmarshal(data, &schemaMap); err != nil {
		return nil, nil, err
	}
	enrichSchemaFromStructTags(schemaMap, typ)
	if strict {
		applyStrictMode(schemaMap)
	}
	stripSchemaIDs(schemaMap)
	compiled, err := compileRawSchema(schemaMap)
	if err != nil {
		return nil, nil, err
	}
	return schemaMap, compiled, nil
}

// enrichSchemaFromStructTags adds description and enum from struct tags to root-level properties.
// typ may be a pointer; json tag (first part before comma) is used to match property keys.
func enrichSchemaFromStructTags(schemaMap map[string]any, typ reflect.Type) {
	if schemaMap == nil || typ == nil {
		return
	}
	if typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}
	if typ.Kind() != reflect.Struct {
		return
	}
	props, ok := schemaMap["properties"].(map[string]any)
	if !ok || len(props) == 0 {
		return
	}
	jsonToField := make(map[string]reflect.StructField)
	for i := range typ.NumField() {
		field := typ.Field(i)
		jsonTag := strings.Split(field.Tag.Get("json"), ",")[0]
		if jsonTag == "" || jsonTag == "-" {
			continue
		}
		jsonToField[jsonTag] = field
	}
	for key, val := range props {
		prop, ok := val.(map[string]any)
		if !ok {
			continue
		}
		field, ok := jsonToField[key]
		if !ok {
			continue
		}
		if desc := field.Tag.Get("description"); desc != "" {
			prop["description"] = desc
		}
		if enumStr := field.Tag.Get("enum"); enumStr != "" {
			parts := strings.Split(enumStr, ",")
			enum := make([]any, len(parts))
			for i, p := range parts {
				enum[i] = strings.TrimSpace(p)
			}
			prop["enum"] = enum
		}
	}
}

// walkSchema recursively visits every schema node in the tree. Maps of named subschemas
// (properties, $defs, definitions) are descended into but not visited themselves, so a property
// called "id" is never mistaken for a keyword.
func walkSchema(schemaMap map[string]any, visit func(map[string]any)) {
	if schemaMap == nil {
		return
	}
	visit(schemaMap)
	for key, val := range schemaMap {
		switch v := val.(type) {
		case map[string]any:
			if isSchemaMapKeyword(key) {
				for _, sub := range v {
					if m2, ok := sub.(map[string]any); ok {
						walkSchema(m2, visit)
					}
				}
				continue
			}
			walkSchema(v, visit)
		case []any:
			for _, item := range v {
				if m2, ok := item.(map[string]any); ok {
					walkSchema(m2, visit)
				}
			}
		}
	}
}

func isSchemaMapKeyword(key string) bool {
	switch key {
	case "properties", "patternProperties", "$defs", "definitions", "dependentSchemas":
		return true
	}
	return false
}

// applyStrictMode sets additionalProperties: false and requires every property, for every object.
func applyStrictMode(schemaMap map[string]any) {
	walkSchema(schemaMap, func(n map[string]any) {
		props, ok := n["properties"].(map[string]any)
		if !ok {
			return
		}
		n["additionalProperties"] = false
		keys := make([]string, 0, len(props))
		for k := range props {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		required := make([]any, len(keys))
		for i, k := range keys {
			required[i] = k
		}
		if len(required) > 0 {
			n["required"] = required
		}
	})
}

var errNilSchema = errors.New("schema reflection returned nil")

// schemaResource is the in-memory location compiled schemas are registered under.
const schemaResource = "schema.json"

// compileRawSchema compiles a raw JSON Schema map into a validator. The map is not mutated.
func compileRawSchema(schemaMap map[string]any) (*validator.Schema, error) {
	data, err := json.Marshal(schemaMap)
	if err != nil {
		return nil, err
	}
	doc, err := validator.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	c := validator.NewCompiler()
	if err := c.AddResource(schemaResource, doc); err != nil {
		return nil, err
	}
	return c.Compile(schemaResource)
}

// stripSchemaIDs removes $id and $schema so the schema is self-contained for LLM providers
// and resolution does not depend on them.
func stripSchemaIDs(schemaMap map[string]any) {
	walkSchema(schemaMap, func(n map[string]any) {
		delete(n, "$id")
		delete(n, "$schema")
	})
}
