// Package schema declares the shape of flow and tool payloads and validates
// decoded values against those declarations.
//
// A declaration is a tree of Field values. Objects carry child fields,
// arrays carry an item field. Descriptions are advisory: they are sent to
// the generation backend as guidance and never enforced here.
package schema

// Kind is the value kind a field accepts.
type Kind string

const (
	KindString  Kind = "string"
	KindNumber  Kind = "number"
	KindBoolean Kind = "boolean"
	KindEnum    Kind = "enum"
	KindArray   Kind = "array"
	KindObject  Kind = "object"
)

// Field describes one value. Root declarations are unnamed.
type Field struct {
	Name        string   `json:"name,omitempty" yaml:"name,omitempty"`
	Kind        Kind     `json:"kind" yaml:"kind"`
	Required    bool     `json:"required,omitempty" yaml:"required,omitempty"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Enum        []string `json:"enum,omitempty" yaml:"enum,omitempty"`
	Min         *float64 `json:"min,omitempty" yaml:"min,omitempty"`
	Max         *float64 `json:"max,omitempty" yaml:"max,omitempty"`
	Items       *Field   `json:"items,omitempty" yaml:"items,omitempty"`
	Fields      []Field  `json:"fields,omitempty" yaml:"fields,omitempty"`
}

// Builders. They return values so declarations read as literals:
//
//	schema.Object(
//		schema.String("resumeText").Require(),
//		schema.Number("score").Range(0, 100),
//	)

func String(name string) Field { return Field{Name: name, Kind: KindString} }

func Number(name string) Field { return Field{Name: name, Kind: KindNumber} }

func Boolean(name string) Field { return Field{Name: name, Kind: KindBoolean} }

func Enum(name string, values ...string) Field {
	return Field{Name: name, Kind: KindEnum, Enum: values}
}

func Array(name string, items Field) Field {
	items.Name = ""
	return Field{Name: name, Kind: KindArray, Items: &items}
}

// Object builds an unnamed object; use Named to attach it to a parent.
func Object(fields ...Field) Field {
	return Field{Kind: KindObject, Fields: fields}
}

// Text is the root declaration for free-form text answers.
func Text() Field { return Field{Kind: KindString, Required: true} }

// List is the root declaration for answers that are a bare array.
func List(items Field) Field {
	f := Array("", items)
	f.Required = true
	return f
}

func (f Field) Named(name string) Field {
	f.Name = name
	return f
}

func (f Field) Require() Field {
	f.Required = true
	return f
}

func (f Field) Describe(description string) Field {
	f.Description = description
	return f
}

func (f Field) Range(min, max float64) Field {
	f.Min = &min
	f.Max = &max
	return f
}

// Child returns the declared child field with the given name.
func (f Field) Child(name string) (Field, bool) {
	for _, c := range f.Fields {
		if c.Name == name {
			return c, true
		}
	}
	return Field{}, false
}

// RequiredNames lists the names of required child fields in declaration order.
func (f Field) RequiredNames() []string {
	var names []string
	for _, c := range f.Fields {
		if c.Required {
			names = append(names, c.Name)
		}
	}
	return names
}
