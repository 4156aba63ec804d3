package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Decode unmarshals a structured result. Models sometimes wrap the requested array
// in an object, so the first array-valued field of an object is accepted as well.
func Decode[T any](raw json.RawMessage) (T, error) {
	var out T
	if err := json.Unmarshal(raw, &out); err == nil {
		return out, nil
	}

	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal(raw, &wrapper); err != nil {
		return out, fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}
	for _, v := range wrapper {
		if !bytes.HasPrefix(bytes.TrimSpace(v), []byte("[")) {
			continue
		}
		if err := json.Unmarshal(v, &out); err == nil {
			return out, nil
		}
	}
	return out, fmt.Errorf("%w: unexpected shape", ErrMalformedOutput)
}
