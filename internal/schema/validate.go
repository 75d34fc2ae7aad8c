package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strconv"
	"strings"
)

// Code identifies the kind of violation a FieldError reports.
type Code string

const (
	MissingField     Code = "MissingField"
	TypeMismatch     Code = "TypeMismatch"
	InvalidEnumValue Code = "InvalidEnumValue"
	OutOfRange       Code = "OutOfRange"
)

// FieldError is a single violation at a path such as
// "sectionAnalyses[2].score". The root value has an empty path.
type FieldError struct {
	Code    Code   `json:"code"`
	Path    string `json:"path"`
	Message string `json:"message"`
}

func (e *FieldError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s at %s: %s", e.Code, e.Path, e.Message)
}

// ValidationError collects every violation found in one value.
type ValidationError struct {
	Errors []*FieldError `json:"errors"`
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		msgs[i] = fe.Error()
	}
	return strings.Join(msgs, "; ")
}

func (e *ValidationError) Unwrap() []error {
	errs := make([]error, len(e.Errors))
	for i, fe := range e.Errors {
		errs[i] = fe
	}
	return errs
}

// HasCode reports whether err contains a violation with the given code.
func HasCode(err error, code Code) bool {
	var ve *ValidationError
	if errors.As(err, &ve) {
		for _, fe := range ve.Errors {
			if fe.Code == code {
				return true
			}
		}
		return false
	}
	var fe *FieldError
	return errors.As(err, &fe) && fe.Code == code
}

// Validate checks value against f and returns nil or a *ValidationError.
// Fields present in value but not declared in f are ignored. A nil value
// or a null child counts as absent.
func Validate(f Field, value any) error {
	v := &validator{}
	if value == nil {
		if f.Required {
			v.add(MissingField, "", "value is required")
		}
	} else {
		v.check(f, value, "")
	}
	if len(v.errs) == 0 {
		return nil
	}
	return &ValidationError{Errors: v.errs}
}

type validator struct {
	errs []*FieldError
}

func (v *validator) add(code Code, path, format string, args ...any) {
	v.errs = append(v.errs, &FieldError{Code: code, Path: path, Message: fmt.Sprintf(format, args...)})
}

func (v *validator) check(f Field, value any, path string) {
	switch f.Kind {
	case KindString:
		if _, ok := value.(string); !ok {
			v.add(TypeMismatch, path, "expected string, got %s", describe(value))
		}

	case KindBoolean:
		if _, ok := value.(bool); !ok {
			v.add(TypeMismatch, path, "expected boolean, got %s", describe(value))
		}

	case KindNumber:
		n, ok := toFloat(value)
		if !ok {
			v.add(TypeMismatch, path, "expected number, got %s", describe(value))
			return
		}
		if f.Min != nil && n < *f.Min {
			v.add(OutOfRange, path, "%s is below the minimum %s", formatFloat(n), formatFloat(*f.Min))
		}
		if f.Max != nil && n > *f.Max {
			v.add(OutOfRange, path, "%s is above the maximum %s", formatFloat(n), formatFloat(*f.Max))
		}

	case KindEnum:
		s, ok := value.(string)
		if !ok {
			v.add(TypeMismatch, path, "expected one of [%s], got %s", strings.Join(f.Enum, ", "), describe(value))
			return
		}
		if !slices.Contains(f.Enum, s) {
			v.add(InvalidEnumValue, path, "%q is not one of [%s]", s, strings.Join(f.Enum, ", "))
		}

	case KindArray:
		items, ok := toSlice(value)
		if !ok {
			v.add(TypeMismatch, path, "expected array, got %s", describe(value))
			return
		}
		if f.Items == nil {
			return
		}
		for i, item := range items {
			itemPath := fmt.Sprintf("%s[%d]", path, i)
			if item == nil {
				v.add(TypeMismatch, itemPath, "expected %s, got null", f.Items.Kind)
				continue
			}
			v.check(*f.Items, item, itemPath)
		}

	case KindObject:
		m, ok := toMap(value)
		if !ok {
			v.add(TypeMismatch, path, "expected object, got %s", describe(value))
			return
		}
		for _, child := range f.Fields {
			childPath := joinPath(path, child.Name)
			cv, present := m[child.Name]
			if !present || cv == nil {
				if child.Required {
					v.add(MissingField, childPath, "field is required")
				}
				continue
			}
			v.check(child, cv, childPath)
		}

	default:
		v.add(TypeMismatch, path, "unsupported kind %q", f.Kind)
	}
}

func joinPath(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "." + name
}

func toFloat(value any) (float64, bool) {
	switch n := value.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

func toSlice(value any) ([]any, bool) {
	if s, ok := value.([]any); ok {
		return s, true
	}
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

func toMap(value any) (map[string]any, bool) {
	if m, ok := value.(map[string]any); ok {
		return m, true
	}
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, false
	}
	out := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		out[iter.Key().String()] = iter.Value().Interface()
	}
	return out, true
}

func describe(value any) string {
	switch value.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	}
	if _, ok := toFloat(value); ok {
		return "number"
	}
	return reflect.TypeOf(value).String()
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
