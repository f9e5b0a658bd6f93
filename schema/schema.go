package schema

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

type Type string

const (
	TypeString  Type = "string"
	TypeInteger Type = "integer"
	TypeNumber  Type = "number"
	TypeBoolean Type = "boolean"
	TypeObject  Type = "object"
	TypeArray   Type = "array"
	TypeAny     Type = "any"
)

// Field describes one payload key. Fields holds the nested shape of an object
// and Items the element shape of an array.
type Field struct {
	Name     string
	Type     Type
	Required bool
	Nullable bool
	Fields   []Field
	Items    *Field
	Rules    []validation.Rule
}

// Schema is an ordered list of fields. Validation reports errors in
// declaration order.
type Schema struct {
	Name   string
	Fields []Field
}

func New(name string, fields ...Field) Schema {
	return Schema{Name: name, Fields: append([]Field(nil), fields...)}
}

func String(name string) Field {
	return Field{Name: name, Type: TypeString, Required: true}
}

func Integer(name string) Field {
	return Field{Name: name, Type: TypeInteger, Required: true}
}

func Number(name string) Field {
	return Field{Name: name, Type: TypeNumber, Required: true}
}

func Boolean(name string) Field {
	return Field{Name: name, Type: TypeBoolean, Required: true}
}

func Any(name string) Field {
	return Field{Name: name, Type: TypeAny, Required: true}
}

func Object(name string, fields ...Field) Field {
	return Field{Name: name, Type: TypeObject, Required: true, Fields: append([]Field(nil), fields...)}
}

func Array(name string, items Field) Field {
	element := items
	return Field{Name: name, Type: TypeArray, Required: true, Items: &element}
}

// Element builds an array item descriptor of the given type.
func Element(kind Type, fields ...Field) Field {
	return Field{Type: kind, Required: true, Fields: append([]Field(nil), fields...)}
}

func (f Field) Optional() Field {
	f.Required = false
	return f
}

func (f Field) OrNull() Field {
	f.Nullable = true
	return f
}

func (f Field) With(rules ...validation.Rule) Field {
	f.Rules = append(append([]validation.Rule(nil), f.Rules...), rules...)
	return f
}
