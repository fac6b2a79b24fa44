package batch

import (
	"fmt"

	"github.com/rojin-sharrr/mcp-google-calendar/internal/apierr"
)

// ParseStringOrArray parses a tool argument that accepts either a single
// string or an array of strings, as the calendarId argument of list-events
// does. Returns a ValidationError naming the argument when the shape is
// wrong.
func ParseStringOrArray(param interface{}, paramName string) ([]string, error) {
	if param == nil {
		return nil, apierr.NewValidationError(paramName, "is required")
	}

	var result []string

	switch v := param.(type) {
	case string:
		if v == "" {
			return nil, apierr.NewValidationError(paramName, "cannot be empty")
		}
		result = []string{v}
	case []interface{}:
		if len(v) == 0 {
			return nil, apierr.NewValidationError(paramName, "cannot be empty")
		}
		for i, item := range v {
			str, ok := item.(string)
			if !ok {
				return nil, apierr.NewValidationError(fmt.Sprintf("%s[%d]", paramName, i), "must be a string")
			}
			if str == "" {
				return nil, apierr.NewValidationError(fmt.Sprintf("%s[%d]", paramName, i), "cannot be empty")
			}
			result = append(result, str)
		}
	case []string:
		if len(v) == 0 {
			return nil, apierr.NewValidationError(paramName, "cannot be empty")
		}
		for i, str := range v {
			if str == "" {
				return nil, apierr.NewValidationError(fmt.Sprintf("%s[%d]", paramName, i), "cannot be empty")
			}
		}
		result = v
	default:
		return nil, apierr.NewValidationError(paramName, "must be a string or array of strings")
	}

	return result, nil
}
