package repository

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/goccy/go-json"
)

// Into returns a decoder that maps the parsed body onto T using the json
// struct tags of T. RFC 3339 strings decode into time.Time and duration
// strings into time.Duration. Numbers must fit the target field exactly:
// a fraction or an out-of-range value for an integer field is an error.
func Into[T any]() Decoder[T] {
	return func(body any) (T, error) {
		var out T
		dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			TagName:          "json",
			Result:           &out,
			Squash:           true,
			WeaklyTypedInput: false,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.DecodeHookFuncValue(numberHook),
				mapstructure.StringToTimeHookFunc(time.RFC3339),
				mapstructure.StringToTimeDurationHookFunc(),
			),
		})
		if err != nil {
			return out, fmt.Errorf("build decoder for %T: %w", out, err)
		}
		if err := dec.Decode(body); err != nil {
			return out, err
		}
		return out, nil
	}
}

var numberType = reflect.TypeOf(json.Number(""))

// numberHook converts json.Number and float64 values to the numeric kind of
// the target without truncating. Other targets get the value unchanged,
// except strings, which do not accept numbers.
func numberHook(from, to reflect.Value) (any, error) {
	if !from.IsValid() {
		return nil, nil
	}
	data := from.Interface()
	var text string
	switch n := data.(type) {
	case json.Number:
		text = n.String()
	case float64:
		text = strconv.FormatFloat(n, 'f', -1, 64)
	default:
		return data, nil
	}

	if to.Type() == numberType {
		return json.Number(text), nil
	}

	switch to.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		v, err := strconv.ParseInt(text, 10, to.Type().Bits())
		if err != nil {
			return nil, fmt.Errorf("number %s does not fit %s", text, to.Type())
		}
		return v, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		v, err := strconv.ParseUint(text, 10, to.Type().Bits())
		if err != nil {
			return nil, fmt.Errorf("number %s does not fit %s", text, to.Type())
		}
		return v, nil
	case reflect.Float32, reflect.Float64:
		v, err := strconv.ParseFloat(text, to.Type().Bits())
		if err != nil || math.IsInf(v, 0) {
			return nil, fmt.Errorf("number %s does not fit %s", text, to.Type())
		}
		return v, nil
	case reflect.String:
		return nil, fmt.Errorf("expected string, got number %s", text)
	case reflect.Interface:
		if n, ok := data.(json.Number); ok {
			if i, err := n.Int64(); err == nil {
				return i, nil
			}
			return n.Float64()
		}
	}
	return data, nil
}

// Field returns a decoder that runs inner on the value stored under key of a
// JSON object. A missing key or a body that is not an object is an error.
func Field[T any](key string, inner Decoder[T]) Decoder[T] {
	return func(body any) (T, error) {
		var zero T
		obj, ok := body.(map[string]any)
		if !ok {
			return zero, fmt.Errorf("expected a JSON object, got %s", jsonType(body))
		}
		v, ok := obj[key]
		if !ok {
			return zero, fmt.Errorf("missing key %q", key)
		}
		out, err := inner(v)
		if err != nil {
			return zero, fmt.Errorf("key %q: %w", key, err)
		}
		return out, nil
	}
}

// Ignore returns a decoder that discards the body.
func Ignore() Decoder[struct{}] {
	return func(any) (struct{}, error) {
		return struct{}{}, nil
	}
}

// Validated returns a decoder that checks the validate struct tags of the
// value produced by inner.
func Validated[T any](inner Decoder[T]) Decoder[T] {
	return func(body any) (T, error) {
		out, err := inner(body)
		if err != nil {
			return out, err
		}
		if err := validateStruct(out); err != nil {
			var zero T
			return zero, err
		}
		return out, nil
	}
}

// FieldError describes one field that failed validation.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError lists the fields of a decoded value that failed validation.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})
	})
	return validate
}

// validateStruct validates structs and pointers to structs; other values pass.
func validateStruct(v any) error {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil
	}

	err := getValidator().Struct(rv.Interface())
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	out := &ValidationError{Fields: make([]FieldError, 0, len(verrs))}
	for _, fe := range verrs {
		out.Fields = append(out.Fields, FieldError{
			Field:   fe.Namespace()[strings.IndexByte(fe.Namespace(), '.')+1:],
			Message: validationMessage(fe),
		})
	}
	return out
}

func validationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return "must be at least " + e.Param()
	case "max":
		return "must be at most " + e.Param()
	case "url":
		return "must be a valid URL"
	case "uuid":
		return "must be a valid UUID"
	case "oneof":
		return "must be one of: " + e.Param()
	default:
		return "failed the " + e.Tag() + " check"
	}
}

func jsonType(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case json.Number, float64:
		return "number"
	case string:
		return "string"
	case []any:
		return "array"
	default:
		return "object"
	}
}
