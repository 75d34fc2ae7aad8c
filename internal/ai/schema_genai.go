package ai

import (
	"careerai/internal/schema"

	"google.golang.org/genai"
)

// toGenaiSchema converts a field declaration into a Gemini response or
// parameter schema. Descriptions travel with it as guidance for the model.
func toGenaiSchema(f schema.Field) *genai.Schema {
	s := &genai.Schema{Description: f.Description}

	switch f.Kind {
	case schema.KindString:
		s.Type = genai.TypeString
	case schema.KindNumber:
		s.Type = genai.TypeNumber
		s.Minimum = f.Min
		s.Maximum = f.Max
	case schema.KindBoolean:
		s.Type = genai.TypeBoolean
	case schema.KindEnum:
		s.Type = genai.TypeString
		s.Format = "enum"
		s.Enum = append([]string(nil), f.Enum...)
	case schema.KindArray:
		s.Type = genai.TypeArray
		if f.Items != nil {
			s.Items = toGenaiSchema(*f.Items)
		}
	case schema.KindObject:
		s.Type = genai.TypeObject
		s.Properties = make(map[string]*genai.Schema, len(f.Fields))
		for _, child := range f.Fields {
			s.Properties[child.Name] = toGenaiSchema(child)
			s.PropertyOrdering = append(s.PropertyOrdering, child.Name)
		}
		s.Required = f.RequiredNames()
	}
	return s
}

// toolParameters returns nil for tools that take no arguments; Gemini
// rejects object schemas without properties.
func toolParameters(f schema.Field) *genai.Schema {
	if f.Kind == schema.KindObject && len(f.Fields) == 0 {
		return nil
	}
	return toGenaiSchema(f)
}

func toGenaiTools(decls []ToolDeclaration) []*genai.Tool {
	if len(decls) == 0 {
		return nil
	}
	fns := make([]*genai.FunctionDeclaration, 0, len(decls))
	for _, d := range decls {
		fns = append(fns, &genai.FunctionDeclaration{
			Name:        d.Name,
			Description: d.Description,
			Parameters:  toolParameters(d.Parameters),
		})
	}
	return []*genai.Tool{{FunctionDeclarations: fns}}
}
