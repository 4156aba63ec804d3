package classify

// Flagged is an item whose first-pass values contained names outside the vocabulary.
type Flagged[T any] struct {
	// Index is the position of the item in the original batch.
	Index   int
	Item    T
	Invalid []string
}

// Validator splits a value list into accepted and rejected entries.
type Validator func(values []string) (valid, invalid []string)

// RetryInvoker re-requests values for the flagged subset only. The result is aligned to flagged.
type RetryInvoker[T any] func(flagged []Flagged[T]) ([][]string, error)

type RetargetStats struct {
	Flagged   int
	Corrected int
	RetryErr  error
}

// Retarget validates first-pass results, re-requests only the items that received invalid
// values, and validates the second pass. There is never a third pass.
//
// Items with no valid value after the first pass get a copy of fallback as an interim value.
// A valid retry result replaces the interim value by original index; otherwise the item
// keeps whatever validated in the first pass, or fallback.
func Retarget[T any](batch []T, results [][]string, validate Validator, retry RetryInvoker[T], fallback []string) ([][]string, RetargetStats) {
	out := make([][]string, len(batch))
	var flagged []Flagged[T]

	for i, item := range batch {
		var raw []string
		if i < len(results) {
			raw = results[i]
		}
		valid, invalid := validate(raw)
		if len(invalid) > 0 {
			flagged = append(flagged, Flagged[T]{Index: i, Item: item, Invalid: invalid})
		}
		if len(valid) == 0 {
			out[i] = clone(fallback)
			continue
		}
		out[i] = valid
	}

	stats := RetargetStats{Flagged: len(flagged)}
	if len(flagged) == 0 || retry == nil {
		return out, stats
	}

	retried, err := retry(flagged)
	if err != nil {
		stats.RetryErr = err
		return out, stats
	}

	for j, f := range flagged {
		if j >= len(retried) {
			break
		}
		valid, _ := validate(retried[j])
		if len(valid) == 0 {
			continue
		}
		out[f.Index] = valid
		stats.Corrected++
	}
	return out, stats
}

func clone(values []string) []string {
	out := make([]string, len(values))
	copy(out, values)
	return out
}
