package descriptor

import (
	"encoding/json"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// Kind is the closed set of field kinds a schema property can resolve to.
// Every kind maps to exactly one storage column type, one JSON schema
// fragment, and one value check; the mapping tables below are exhaustive.
type Kind string

const (
	KindString   Kind = "string"
	KindInteger  Kind = "integer"
	KindNumber   Kind = "number"
	KindBoolean  Kind = "boolean"
	KindArray    Kind = "array"
	KindObject   Kind = "object"
	KindDateTime Kind = "datetime"
	KindEmail    Kind = "email"
	KindUUID     Kind = "uuid"
)

// Kinds lists every supported kind in a stable order.
func Kinds() []Kind {
	return []Kind{
		KindString,
		KindInteger,
		KindNumber,
		KindBoolean,
		KindArray,
		KindObject,
		KindDateTime,
		KindEmail,
		KindUUID,
	}
}

// Valid reports whether the kind belongs to the closed set.
func (k Kind) Valid() bool {
	switch k {
	case KindString, KindInteger, KindNumber, KindBoolean,
		KindArray, KindObject, KindDateTime, KindEmail, KindUUID:
		return true
	}
	return false
}

// JSONType returns the JSON Schema `type` keyword the kind validates as.
func (k Kind) JSONType() string {
	switch k {
	case KindInteger:
		return "integer"
	case KindNumber:
		return "number"
	case KindBoolean:
		return "boolean"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		// string, datetime, email, and uuid all travel as JSON strings.
		return "string"
	}
}

// JSONFormat returns the JSON Schema `format` hint for string-shaped kinds,
// or an empty string when no format applies.
func (k Kind) JSONFormat() string {
	switch k {
	case KindDateTime:
		return "date-time"
	case KindEmail:
		return "email"
	case KindUUID:
		return "uuid"
	default:
		return ""
	}
}

// CheckValue applies the kind-specific value rule beyond plain JSON typing.
// Email and UUID kinds are strings with shape checks; datetime accepts
// RFC 3339 strings or time.Time values.
func (k Kind) CheckValue(value any) error {
	if value == nil {
		return nil
	}
	switch k {
	case KindEmail:
		if s, ok := value.(string); ok {
			return validation.Validate(s, is.Email)
		}
	case KindUUID:
		if s, ok := value.(string); ok {
			return validation.Validate(s, is.UUID)
		}
	case KindDateTime:
		switch v := value.(type) {
		case time.Time:
			return nil
		case string:
			_, err := time.Parse(time.RFC3339, v)
			return err
		}
	}
	return nil
}

// MatchesValue reports whether a literal (typically a schema default) is
// representable by the kind.
func (k Kind) MatchesValue(value any) bool {
	if value == nil {
		return true
	}
	switch k {
	case KindString:
		_, ok := value.(string)
		return ok
	case KindDateTime, KindEmail, KindUUID:
		if _, ok := value.(string); !ok {
			return false
		}
		return k.CheckValue(value) == nil
	case KindInteger:
		return isIntegral(value)
	case KindNumber:
		return isNumeric(value)
	case KindBoolean:
		_, ok := value.(bool)
		return ok
	case KindArray:
		switch value.(type) {
		case []any, []string, []int, []float64:
			return true
		}
		return false
	case KindObject:
		_, ok := value.(map[string]any)
		return ok
	}
	return false
}

func isIntegral(value any) bool {
	switch v := value.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return true
	case float64:
		return v == float64(int64(v))
	case float32:
		return float64(v) == float64(int64(v))
	case json.Number:
		_, err := v.Int64()
		return err == nil
	}
	return false
}

func isNumeric(value any) bool {
	switch v := value.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return true
	case json.Number:
		_, err := v.Float64()
		return err == nil
	}
	return false
}
