package schema

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strings"
	"sync"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-etims/core"
)

// Registry holds named schemas and validates payloads against them. It never
// performs I/O.
type Registry struct {
	mu      sync.RWMutex
	schemas map[string]Schema
}

func NewRegistry(schemas ...Schema) *Registry {
	registry := &Registry{schemas: map[string]Schema{}}
	for _, s := range schemas {
		_ = registry.Register(s)
	}
	return registry
}

// DefaultRegistry returns a registry preloaded with the OSCU operation schemas.
func DefaultRegistry() *Registry {
	return NewRegistry(Builtin()...)
}

func (r *Registry) Register(s Schema) error {
	name := strings.TrimSpace(s.Name)
	if name == "" {
		return core.NewConfigurationError(core.TextCodeConfigurationInvalid, "schema name is required", nil)
	}
	s.Name = name
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.schemas == nil {
		r.schemas = map[string]Schema{}
	}
	r.schemas[name] = s
	return nil
}

func (r *Registry) Lookup(name string) (Schema, bool) {
	if r == nil {
		return Schema{}, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.schemas[strings.TrimSpace(name)]
	return s, ok
}

func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.schemas))
	for name := range r.schemas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate checks payload against the named schema and returns it unchanged.
// Keys the schema does not declare are passed through.
func (r *Registry) Validate(payload core.Payload, schemaName string) (core.Payload, error) {
	s, ok := r.Lookup(schemaName)
	if !ok {
		return nil, core.NewConfigurationError(
			core.TextCodeConfigurationInvalid,
			"schema ["+strings.TrimSpace(schemaName)+"] not registered",
			map[string]any{"schema": strings.TrimSpace(schemaName)},
		)
	}
	if payload == nil {
		payload = core.Payload{}
	}
	var fieldErrors goerrors.ValidationErrors
	validateFields(payload, s.Fields, "", &fieldErrors)
	if len(fieldErrors) > 0 {
		return nil, core.NewValidationError("payload does not match schema "+s.Name, fieldErrors)
	}
	return payload, nil
}

func validateFields(object map[string]any, fields []Field, prefix string, out *goerrors.ValidationErrors) {
	for _, field := range fields {
		value, present := object[field.Name]
		validateValue(field, value, present, joinPath(prefix, field.Name), out)
	}
}

func validateValue(field Field, value any, present bool, path string, out *goerrors.ValidationErrors) {
	if !present {
		if field.Required {
			addError(out, path, "is required")
		}
		return
	}
	if isNil(value) {
		if !field.Nullable {
			addError(out, path, "must not be null")
		}
		return
	}
	if !matchesType(field.Type, value) {
		addError(out, path, "must be "+typeLabel(field.Type))
		return
	}

	switch field.Type {
	case TypeObject:
		if len(field.Fields) > 0 {
			validateFields(toObject(value), field.Fields, path, out)
		}
	case TypeArray:
		if field.Items != nil {
			for index, item := range toSlice(value) {
				validateValue(*field.Items, item, true, fmt.Sprintf("%s[%d]", path, index), out)
			}
		}
	}

	if len(field.Rules) > 0 {
		if err := validation.Validate(value, field.Rules...); err != nil {
			addError(out, path, err.Error())
		}
	}
}

func addError(out *goerrors.ValidationErrors, path string, message string) {
	*out = append(*out, goerrors.FieldError{Field: path, Message: message})
}

func joinPath(prefix string, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}

func isNil(value any) bool {
	if value == nil {
		return true
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Map, reflect.Slice, reflect.Pointer, reflect.Interface:
		return rv.IsNil()
	default:
		return false
	}
}

func matchesType(kind Type, value any) bool {
	switch kind {
	case TypeAny, "":
		return true
	case TypeString:
		_, ok := value.(string)
		return ok
	case TypeBoolean:
		_, ok := value.(bool)
		return ok
	case TypeInteger:
		return isInteger(value)
	case TypeNumber:
		return isNumber(value)
	case TypeObject:
		rv := reflect.ValueOf(value)
		return rv.Kind() == reflect.Map && rv.Type().Key().Kind() == reflect.String
	case TypeArray:
		if _, ok := value.([]byte); ok {
			return false
		}
		rv := reflect.ValueOf(value)
		return rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array
	default:
		return false
	}
}

func isInteger(value any) bool {
	switch typed := value.(type) {
	case json.Number:
		if _, err := typed.Int64(); err == nil {
			return true
		}
		parsed, err := typed.Float64()
		return err == nil && parsed == math.Trunc(parsed)
	case float64:
		return !math.IsInf(typed, 0) && typed == math.Trunc(typed)
	case float32:
		return float64(typed) == math.Trunc(float64(typed))
	}
	switch reflect.ValueOf(value).Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	default:
		return false
	}
}

func isNumber(value any) bool {
	if typed, ok := value.(json.Number); ok {
		_, err := typed.Float64()
		return err == nil
	}
	switch reflect.ValueOf(value).Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}

func toObject(value any) map[string]any {
	if typed, ok := value.(map[string]any); ok {
		return typed
	}
	rv := reflect.ValueOf(value)
	out := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		out[iter.Key().String()] = iter.Value().Interface()
	}
	return out
}

func toSlice(value any) []any {
	if typed, ok := value.([]any); ok {
		return typed
	}
	rv := reflect.ValueOf(value)
	out := make([]any, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		out[i] = rv.Index(i).Interface()
	}
	return out
}

func typeLabel(kind Type) string {
	switch kind {
	case TypeInteger, TypeObject, TypeArray:
		return "an " + string(kind)
	default:
		return "a " + string(kind)
	}
}

var _ core.SchemaValidator = (*Registry)(nil)
