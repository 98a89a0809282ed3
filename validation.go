package tooluse

import (
	"bytes"

	validator "github.com/santhosh-tekuri/jsonschema/v6"
)

// Validatable is implemented by argument structs that need custom business validation.
// Called after schema validation and unmarshaling.
type Validatable interface {
	Validate() error
}

// schemaValidator validates a JSON instance decoded with validator.UnmarshalJSON.
// *validator.Schema implements it.
type schemaValidator interface {
	Validate(v any) error
}

// validateAgainstSchema runs Layer 1 validation on raw JSON arguments.
// Returns a ClientError for unparsable JSON and for schema violations.
func validateAgainstSchema(validate schemaValidator, argsJSON []byte) error {
	inst, err := validator.UnmarshalJSON(bytes.NewReader(argsJSON))
	if err != nil {
		return wrapJSONParseError(err)
	}
	if err := validate.Validate(inst); err != nil {
		return &ClientError{Reason: err.Error(), Err: ErrValidation}
	}
	return nil
}

// validateCustom runs Layer 2 (Validatable) if args implements it.
func validateCustom(args any) error {
	if v, ok := args.(Validatable); ok {
		return v.Validate()
	}
	return nil
}
