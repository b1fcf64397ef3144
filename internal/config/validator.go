package config

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

//go:embed schema/mapping-job-schema.json
var embeddedSchema []byte

// schemaOnce ensures thread-safe initialization of the compiled schema.
var schemaOnce sync.Once

// compiledSchema is the cached compiled schema.
var compiledSchema *jsonschema.Schema

// schemaInitErr stores any error from schema initialization.
var schemaInitErr error

// GetEmbeddedSchema returns the embedded mapping-job schema.
func GetEmbeddedSchema() []byte {
	return embeddedSchema
}

// getCompiledSchema returns the compiled JSON schema, compiling it if necessary.
// Thread-safe via sync.Once.
func getCompiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		var schemaDoc interface{}
		if err := json.Unmarshal(embeddedSchema, &schemaDoc); err != nil {
			schemaInitErr = fmt.Errorf("failed to parse embedded schema: %w", err)
			return
		}

		compiler := jsonschema.NewCompiler()

		schemaURL := "https://github.com/achui1980/agent-krystal/schemas/mapping-job/v1.0.0/mapping-job-schema.json"
		if err := compiler.AddResource(schemaURL, schemaDoc); err != nil {
			schemaInitErr = fmt.Errorf("failed to add schema resource: %w", err)
			return
		}

		var err error
		compiledSchema, err = compiler.Compile(schemaURL)
		if err != nil {
			schemaInitErr = fmt.Errorf("failed to compile schema: %w", err)
			return
		}
	})

	if schemaInitErr != nil {
		return nil, schemaInitErr
	}
	return compiledSchema, nil
}

// ValidateJob validates a parsed job document against the mapping-job schema.
// Returns a ValidationResult with validation status and any errors.
func ValidateJob(data map[string]interface{}) *ValidationResult {
	result := &ValidationResult{
		Valid: true,
	}

	if data == nil {
		result.Valid = false
		result.Errors = append(result.Errors, ValidationError{
			Path:    "/",
			Type:    "required",
			Message: "job document is nil",
		})
		return result
	}

	if len(data) == 0 {
		result.Valid = false
		result.Errors = append(result.Errors, ValidationError{
			Path:    "/",
			Type:    "required",
			Message: "job document is empty",
		})
		return result
	}

	schema, err := getCompiledSchema()
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, ValidationError{
			Path:    "/",
			Type:    "schema",
			Message: fmt.Sprintf("failed to load schema: %v", err),
		})
		return result
	}

	instance, err := normalizeInstance(data)
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, ValidationError{
			Path:    "/",
			Type:    "schema",
			Message: fmt.Sprintf("failed to normalize document: %v", err),
		})
		return result
	}

	validationErr := schema.Validate(instance)
	if validationErr != nil {
		result.Valid = false

		if detailedErr, ok := validationErr.(*jsonschema.ValidationError); ok {
			result.Errors = convertValidationErrors(detailedErr)
		} else {
			result.Errors = append(result.Errors, ValidationError{
				Path:    "/",
				Type:    "validation",
				Message: validationErr.Error(),
			})
		}
	}

	return result
}

// normalizeInstance round-trips the document through encoding/json so the
// validator always sees JSON-decoded values. YAML decoding yields Go ints
// where JSON decoding yields float64; the schema library expects the latter.
func normalizeInstance(data map[string]interface{}) (interface{}, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	var instance interface{}
	if err := json.Unmarshal(raw, &instance); err != nil {
		return nil, err
	}
	return instance, nil
}

// convertValidationErrors converts jsonschema validation errors to our format.
func convertValidationErrors(err *jsonschema.ValidationError) []ValidationError {
	var errors []ValidationError

	errMsg := err.Error()

	if err.ErrorKind != nil {
		path := formatInstanceLocation(err.InstanceLocation)
		errors = append(errors, ValidationError{
			Path:    path,
			Type:    extractErrorType(err),
			Message: errMsg,
		})
	}

	for _, cause := range err.Causes {
		causeErrors := convertValidationErrors(cause)
		errors = append(errors, causeErrors...)
	}

	return errors
}

// formatInstanceLocation formats the instance location as a JSON path.
func formatInstanceLocation(loc []string) string {
	if len(loc) == 0 {
		return "/"
	}
	return "/" + strings.Join(loc, "/")
}

// extractErrorType extracts a simplified error type from the validation error.
func extractErrorType(err *jsonschema.ValidationError) string {
	errStr := err.Error()
	msg := strings.ToLower(errStr)

	switch {
	// jsonschema/v6 words required-property violations as
	// "missing properties 'x', 'y'".
	case strings.Contains(msg, "required") || strings.Contains(msg, "missing propert"):
		return "required"
	case strings.Contains(msg, "type"):
		return "type"
	case strings.Contains(msg, "pattern"):
		return "pattern"
	case strings.Contains(msg, "enum"):
		return "enum"
	case strings.Contains(msg, "minimum") || strings.Contains(msg, "maximum"):
		return "range"
	case strings.Contains(msg, "format"):
		return "format"
	case strings.Contains(msg, "additionalproperties"):
		return "additionalProperties"
	default:
		return "validation"
	}
}
