package source

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-selectfield/pkg/option"
)

const enumNamesExtension = "x-enum-varnames"

// FromOpenAPISchema builds a static source from an OpenAPI schema's enum
// values, so schema-driven forms can feed select fields without hand-written
// option maps. Labels come from the x-enum-varnames extension when it aligns
// with the enum, otherwise from humanizing each value.
func FromOpenAPISchema(schema *openapi3.Schema) (*Static, error) {
	if schema == nil {
		return nil, errors.New("source: nil schema")
	}
	if len(schema.Enum) == 0 {
		return nil, errors.New("source: schema has no enum values")
	}

	names := enumNames(schema.Extensions, len(schema.Enum))
	entries := make([]option.Entry, 0, len(schema.Enum))
	for i, value := range schema.Enum {
		key := stringifyEnum(value)
		label := option.Humanize(key)
		if names != nil {
			label = names[i]
		}
		entries = append(entries, option.Entry{Key: key, Label: label})
	}
	return NewStatic(entries), nil
}

// enumNames extracts x-enum-varnames when present and aligned with the enum
// length; misaligned or malformed extensions are ignored rather than fatal.
func enumNames(extensions map[string]any, want int) []string {
	raw, ok := extensions[enumNamesExtension]
	if !ok {
		return nil
	}

	switch values := raw.(type) {
	case []string:
		if len(values) == want {
			return values
		}
	case []any:
		if len(values) != want {
			return nil
		}
		names := make([]string, 0, want)
		for _, value := range values {
			name, ok := value.(string)
			if !ok {
				return nil
			}
			names = append(names, name)
		}
		return names
	}
	return nil
}

func stringifyEnum(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}
