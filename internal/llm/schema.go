package llm

// Schema is a JSON schema document.
type Schema map[string]any

// BoolArray requests exactly n booleans.
func BoolArray(n int) Schema {
	return Schema{
		"type":     "array",
		"items":    Schema{"type": "boolean"},
		"minItems": n,
		"maxItems": n,
	}
}

func StringArray() Schema {
	return Schema{
		"type":  "array",
		"items": Schema{"type": "string"},
	}
}

// StringMatrix requests an array of string arrays. A non-empty enum constrains the inner values.
func StringMatrix(enum []string) Schema {
	inner := Schema{"type": "string"}
	if len(enum) > 0 {
		inner["enum"] = enum
	}
	return Schema{
		"type": "array",
		"items": Schema{
			"type":  "array",
			"items": inner,
		},
	}
}
