package rules

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/hificopy/formflow/pkg/domain"
)

var (
	// ErrUnknownOperator is reported when a rule uses an operator outside the closed set.
	ErrUnknownOperator = errors.New("unknown operator")
	// ErrNotNumeric is reported when a numeric comparison receives a non-numeric value.
	ErrNotNumeric = errors.New("value is not numeric")
)

// Evaluate applies operator to the collected (actual) value and the rule (expected) value.
// It is total: anything that cannot be evaluated returns false.
func Evaluate(op domain.Operator, actual, expected any) bool {
	ok, _ := Check(op, actual, expected)
	return ok
}

// Check is Evaluate plus the reason a rule failed closed.
// The error is informational only; the boolean is always the final answer.
func Check(op domain.Operator, actual, expected any) (bool, error) {
	switch op {
	case domain.OpEquals:
		return equals(actual, expected), nil
	case domain.OpNotEquals:
		return !equals(actual, expected), nil
	case domain.OpContains:
		return contains(actual, expected), nil
	case domain.OpNotContains:
		return !contains(actual, expected), nil
	case domain.OpGreaterThan, domain.OpLessThan:
		a, ok := ToNumber(actual)
		if !ok {
			return false, fmt.Errorf("%w: actual %v", ErrNotNumeric, actual)
		}
		e, ok := ToNumber(expected)
		if !ok {
			return false, fmt.Errorf("%w: expected %v", ErrNotNumeric, expected)
		}
		if op == domain.OpGreaterThan {
			return a > e, nil
		}
		return a < e, nil
	case domain.OpIsEmpty:
		return isEmpty(actual), nil
	case domain.OpIsNotEmpty:
		return !isEmpty(actual), nil
	default:
		return false, fmt.Errorf("%w: %q", ErrUnknownOperator, op)
	}
}

// Holds evaluates cond against answers. An empty Field refers to owner.
func Holds(cond domain.Condition, owner string, answers domain.Answers) bool {
	ok, _ := CheckCondition(cond, owner, answers)
	return ok
}

// CheckCondition is Holds plus the fail-closed reason.
func CheckCondition(cond domain.Condition, owner string, answers domain.Answers) (bool, error) {
	field := cond.Field
	if field == "" {
		field = owner
	}
	return Check(cond.Operator, answers[field], cond.Value)
}

// equals compares stringified values; a list equals x when it contains x.
// An unanswered field equals nothing, not even "".
func equals(actual, expected any) bool {
	if list, ok := asList(actual); ok {
		return listHas(list, expected)
	}
	if actual == nil {
		return false
	}
	return Stringify(actual) == Stringify(expected)
}

// contains is a substring test for scalars and a membership test for lists.
func contains(actual, expected any) bool {
	if list, ok := asList(actual); ok {
		return listHas(list, expected)
	}
	if actual == nil {
		return false
	}
	return strings.Contains(Stringify(actual), Stringify(expected))
}

func isEmpty(v any) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return s == ""
	}
	if list, ok := asList(v); ok {
		return len(list) == 0
	}
	return false
}

func listHas(list []any, expected any) bool {
	want := Stringify(expected)
	for _, item := range list {
		if Stringify(item) == want {
			return true
		}
	}
	return false
}

// asList normalizes slices of any element type to []any.
func asList(v any) ([]any, bool) {
	switch t := v.(type) {
	case nil:
		return nil, false
	case []any:
		return t, true
	case []string:
		out := make([]any, len(t))
		for i, s := range t {
			out[i] = s
		}
		return out, true
	case string, []byte:
		return nil, false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

// Stringify renders an answer or rule value the way it is compared.
// nil renders as the empty string and whole floats drop their fraction.
func Stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case json.Number:
		return t.String()
	case fmt.Stringer:
		return t.String()
	}
	return fmt.Sprintf("%v", v)
}

// ToNumber converts numeric answers and numeric strings to float64.
func ToNumber(v any) (float64, bool) {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case float32:
		f = float64(t)
	case int:
		f = float64(t)
	case int32:
		f = float64(t)
	case int64:
		f = float64(t)
	case json.Number:
		n, err := t.Float64()
		if err != nil {
			return 0, false
		}
		f = n
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, false
		}
		f = n
	default:
		return 0, false
	}
	if math.IsNaN(f) {
		return 0, false
	}
	return f, true
}
