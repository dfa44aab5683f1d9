package domain

import "reflect"

// Answers maps a question id to the collected value.
// Values are scalars for most question types and lists for multi-choice.
type Answers map[string]any

// Clone returns a shallow copy; list values are copied so callers can mutate safely.
func (a Answers) Clone() Answers {
	if a == nil {
		return Answers{}
	}
	out := make(Answers, len(a))
	for k, v := range a {
		out[k] = cloneValue(v)
	}
	return out
}

// Merge writes every key of delta into a. A nil value deletes the key.
func (a Answers) Merge(delta Answers) {
	for k, v := range delta {
		if v == nil {
			delete(a, k)
			continue
		}
		a[k] = cloneValue(v)
	}
}

// DiffAnswers returns the keys whose value differs between old and new.
// Deleted keys are present with a nil value. It returns nil when nothing changed.
func DiffAnswers(old, new Answers) Answers {
	delta := make(Answers)

	for k, newVal := range new {
		oldVal, exists := old[k]
		if !exists || !reflect.DeepEqual(oldVal, newVal) {
			delta[k] = newVal
		}
	}

	for k := range old {
		if _, exists := new[k]; !exists {
			delta[k] = nil
		}
	}

	if len(delta) == 0 {
		return nil
	}
	return delta
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case []any:
		return append([]any(nil), t...)
	case []string:
		return append([]string(nil), t...)
	}
	return v
}
