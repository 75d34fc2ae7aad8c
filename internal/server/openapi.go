package server

import (
	"net/http"

	"careerai/internal/flows"
	"careerai/internal/schema"

	"github.com/getkin/kin-openapi/openapi3"
)

// BuildOpenAPI describes every flow in the catalog as a POST operation,
// plus the resume store endpoints.
func BuildOpenAPI(catalog *flows.Catalog, version string) *openapi3.T {
	if version == "" {
		version = "dev"
	}
	doc := &openapi3.T{
		OpenAPI: "3.0.3",
		Info: &openapi3.Info{
			Title:       "careerai",
			Description: "Structured prompt flows for resumes and job postings.",
			Version:     version,
		},
		Paths: openapi3.NewPaths(),
		Components: &openapi3.Components{
			Schemas: openapi3.Schemas{
				"Error": openapi3.NewSchemaRef("", errorSchema()),
			},
			SecuritySchemes: openapi3.SecuritySchemes{
				"apiKey": &openapi3.SecuritySchemeRef{
					Value: openapi3.NewSecurityScheme().WithType("apiKey").WithIn("header").WithName("X-API-Key"),
				},
			},
		},
	}

	errorRef := openapi3.NewSchemaRef("#/components/schemas/Error", doc.Components.Schemas["Error"].Value)
	errorResponse := func(description string) *openapi3.ResponseRef {
		return &openapi3.ResponseRef{Value: openapi3.NewResponse().
			WithDescription(description).
			WithContent(openapi3.NewContentWithJSONSchemaRef(errorRef))}
	}

	for _, def := range catalog.Definitions() {
		result := openapi3.NewObjectSchema().
			WithProperty("flow", openapi3.NewStringSchema()).
			WithProperty("model", openapi3.NewStringSchema()).
			WithProperty("toolCalls", openapi3.NewIntegerSchema())
		result.Properties["value"] = openapi3.NewSchemaRef("", toOpenAPISchema(def.Output))
		result.Required = []string{"flow", "value"}

		op := &openapi3.Operation{
			OperationID: def.Name,
			Summary:     def.Description,
			Tags:        []string{"flows"},
			RequestBody: &openapi3.RequestBodyRef{Value: openapi3.NewRequestBody().
				WithRequired(true).
				WithJSONSchema(toOpenAPISchema(def.Input))},
			Responses: openapi3.NewResponses(
				openapi3.WithStatus(http.StatusOK, &openapi3.ResponseRef{Value: openapi3.NewResponse().
					WithDescription("Validated flow result").
					WithJSONSchema(result)}),
				openapi3.WithStatus(http.StatusBadRequest, errorResponse("Input does not match the flow schema")),
				openapi3.WithStatus(http.StatusUnauthorized, errorResponse("Missing or invalid API key")),
				openapi3.WithStatus(http.StatusUnprocessableEntity, errorResponse("The backend returned an empty answer")),
				openapi3.WithStatus(http.StatusFailedDependency, errorResponse("A tool failed")),
				openapi3.WithStatus(http.StatusBadGateway, errorResponse("The answer does not match the output schema")),
				openapi3.WithStatus(http.StatusServiceUnavailable, errorResponse("The generation backend is unavailable")),
			),
			Security: &openapi3.SecurityRequirements{openapi3.NewSecurityRequirement().Authenticate("apiKey")},
		}
		doc.Paths.Set(flowPath(def.Name), &openapi3.PathItem{Post: op})
	}

	doc.Paths.Set("/resumes", resumesPath(errorResponse))
	return doc
}

func resumesPath(errorResponse func(string) *openapi3.ResponseRef) *openapi3.PathItem {
	resume := openapi3.NewObjectSchema().
		WithProperty("id", openapi3.NewStringSchema()).
		WithProperty("name", openapi3.NewStringSchema()).
		WithProperty("source", openapi3.NewStringSchema()).
		WithProperty("text", openapi3.NewStringSchema()).
		WithProperty("createdAt", openapi3.NewDateTimeSchema())
	body := openapi3.NewObjectSchema().
		WithProperty("name", openapi3.NewStringSchema()).
		WithProperty("source", openapi3.NewStringSchema()).
		WithProperty("text", openapi3.NewStringSchema().WithMinLength(1))
	body.Required = []string{"text"}
	list := openapi3.NewObjectSchema().
		WithProperty("resumes", openapi3.NewArraySchema().WithItems(resume)).
		WithProperty("count", openapi3.NewIntegerSchema())
	security := &openapi3.SecurityRequirements{openapi3.NewSecurityRequirement().Authenticate("apiKey")}

	return &openapi3.PathItem{
		Post: &openapi3.Operation{
			OperationID: "saveResume",
			Summary:     "Store a resume for the resume tools",
			Tags:        []string{"resumes"},
			RequestBody: &openapi3.RequestBodyRef{Value: openapi3.NewRequestBody().
				WithRequired(true).
				WithJSONSchema(body)},
			Responses: openapi3.NewResponses(
				openapi3.WithStatus(http.StatusCreated, &openapi3.ResponseRef{Value: openapi3.NewResponse().
					WithDescription("Stored resume").
					WithJSONSchema(resume)}),
				openapi3.WithStatus(http.StatusBadRequest, errorResponse("Resume text is missing")),
				openapi3.WithStatus(http.StatusUnauthorized, errorResponse("Missing or invalid API key")),
			),
			Security: security,
		},
		Get: &openapi3.Operation{
			OperationID: "listResumes",
			Summary:     "List stored resumes",
			Tags:        []string{"resumes"},
			Responses: openapi3.NewResponses(
				openapi3.WithStatus(http.StatusOK, &openapi3.ResponseRef{Value: openapi3.NewResponse().
					WithDescription("Stored resumes in insertion order").
					WithJSONSchema(list)}),
				openapi3.WithStatus(http.StatusUnauthorized, errorResponse("Missing or invalid API key")),
			),
			Security: security,
		},
	}
}

func errorSchema() *openapi3.Schema {
	detail := openapi3.NewObjectSchema().
		WithProperty("code", openapi3.NewStringSchema()).
		WithProperty("path", openapi3.NewStringSchema()).
		WithProperty("message", openapi3.NewStringSchema())
	s := openapi3.NewObjectSchema().
		WithProperty("error", openapi3.NewStringSchema()).
		WithProperty("message", openapi3.NewStringSchema()).
		WithProperty("rawPayload", openapi3.NewStringSchema()).
		WithProperty("requestId", openapi3.NewStringSchema()).
		WithProperty("details", openapi3.NewArraySchema().WithItems(detail))
	s.Required = []string{"error"}
	return s
}

// toOpenAPISchema converts a field declaration to an OpenAPI schema.
func toOpenAPISchema(f schema.Field) *openapi3.Schema {
	var s *openapi3.Schema
	switch f.Kind {
	case schema.KindNumber:
		s = openapi3.NewFloat64Schema()
		if f.Min != nil {
			s = s.WithMin(*f.Min)
		}
		if f.Max != nil {
			s = s.WithMax(*f.Max)
		}
	case schema.KindBoolean:
		s = openapi3.NewBoolSchema()
	case schema.KindEnum:
		values := make([]any, len(f.Enum))
		for i, v := range f.Enum {
			values[i] = v
		}
		s = openapi3.NewStringSchema().WithEnum(values...)
	case schema.KindArray:
		s = openapi3.NewArraySchema()
		if f.Items != nil {
			s = s.WithItems(toOpenAPISchema(*f.Items))
		}
	case schema.KindObject:
		s = openapi3.NewObjectSchema()
		for _, child := range f.Fields {
			s = s.WithProperty(child.Name, toOpenAPISchema(child))
		}
		s.Required = f.RequiredNames()
	default:
		s = openapi3.NewStringSchema()
	}
	s.Description = f.Description
	return s
}
