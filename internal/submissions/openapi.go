package submissions

import (
	"github.com/JaimeStill/addrsplit/internal/address"
	"github.com/JaimeStill/addrsplit/pkg/openapi"
)

func pipelineEnum() []any {
	var out []any
	for _, id := range address.Known() {
		out = append(out, string(id))
	}
	return out
}

// Schemas documents the submission payloads.
func Schemas() map[string]*openapi.Schema {
	str := func() *openapi.Schema { return &openapi.Schema{Type: "string"} }
	pipeline := &openapi.Schema{Type: "string", Enum: pipelineEnum()}

	return map[string]*openapi.Schema{
		"PipelineID": pipeline,
		"SplitRequest": {
			Type:     "object",
			Required: []string{"raw_address", "pipelines"},
			Properties: map[string]*openapi.Schema{
				"recipient_name": str(),
				"country_code":   {Type: "string", Description: "ISO 3166-1 alpha-2 hint", Pattern: "^[A-Za-z]{2}$"},
				"raw_address":    {Type: "string", Description: "Free-text address"},
				"model_id":       {Type: "string", Description: "Required when llm_geonames is selected"},
				"pipelines":      {Type: "array", Items: openapi.SchemaRef("PipelineID")},
			},
		},
		"PreferredRequest": {
			Type:       "object",
			Required:   []string{"pipeline_id"},
			Properties: map[string]*openapi.Schema{"pipeline_id": openapi.SchemaRef("PipelineID")},
		},
		"Address": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"address_line1":     str(),
				"address_line2":     str(),
				"postcode":          str(),
				"city":              str(),
				"state_region":      str(),
				"neighborhood":      str(),
				"po_box":            str(),
				"company":           str(),
				"attention":         str(),
				"country_code":      str(),
				"confidence":        {Type: "number"},
				"warnings":          {Type: "array", Items: str()},
				"source":            openapi.SchemaRef("PipelineID"),
				"latitude":          {Type: "number", Nullable: true},
				"longitude":         {Type: "number", Nullable: true},
				"geo_accuracy":      {Type: "string", Enum: []any{"street", "postcode", "city", "none"}},
				"match_label":       str(),
				"inferred_postcode": str(),
				"cell":              {Type: "string", Description: "H3 cell index"},
			},
		},
		"PipelineResult": {
			Type:     "object",
			Required: []string{"status"},
			Properties: map[string]*openapi.Schema{
				"status":  {Type: "string", Enum: []any{"ok", "failed"}},
				"address": openapi.SchemaRef("Address"),
				"failure": {
					Type: "object",
					Properties: map[string]*openapi.Schema{
						"pipeline_id": openapi.SchemaRef("PipelineID"),
						"reason": {Type: "string", Enum: []any{
							"timeout", "upstream_error", "throttled", "invalid_output", "misconfigured", "internal_error",
						}},
						"detail": str(),
					},
				},
			},
		},
		"Submission": {
			Type:     "object",
			Required: []string{"submission_id", "created_at", "input", "results"},
			Properties: map[string]*openapi.Schema{
				"submission_id": {Type: "string", Format: "uuid"},
				"created_at":    {Type: "string", Format: "date-time"},
				"expires_at":    {Type: "string", Format: "date-time"},
				"input":         openapi.SchemaRef("SplitRequest"),
				"results":       {Type: "object", Additional: openapi.SchemaRef("PipelineResult")},
				"costs": {Type: "object", Additional: &openapi.Schema{
					Type: "object",
					Properties: map[string]*openapi.Schema{
						"input_tokens":       {Type: "integer"},
						"output_tokens":      {Type: "integer"},
						"estimated_cost_usd": {Type: "number"},
						"basis":              str(),
					},
				}},
				"provenance":       {Type: "array", Items: &openapi.Schema{Type: "object"}},
				"preferred_method": {Type: "string", Nullable: true, Enum: pipelineEnum()},
			},
		},
		"SubmissionSummary": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"submission_id":    {Type: "string", Format: "uuid"},
				"created_at":       {Type: "string", Format: "date-time"},
				"country_code":     str(),
				"preview":          {Type: "string", Description: "Redacted single-line preview"},
				"pipelines":        {Type: "array", Items: openapi.SchemaRef("PipelineID")},
				"preferred_method": {Type: "string", Nullable: true},
			},
		},
	}
}

var splitOp = &openapi.Operation{
	Summary:     "Run an address through the selected pipelines",
	Security:    openapi.BearerAuth(),
	RequestBody: openapi.RequestBodyJSON("SplitRequest", true),
	Responses: map[int]*openapi.Response{
		201: openapi.ResponseJSON("Persisted submission", "Submission"),
		400: openapi.ResponseRef("BadRequest"),
		401: openapi.ResponseRef("Unauthorized"),
		429: openapi.ResponseRef("TooManyRequests"),
		500: openapi.ResponseRef("InternalError"),
	},
}

var recentOp = &openapi.Operation{
	Summary:  "List the caller's newest submissions",
	Security: openapi.BearerAuth(),
	Parameters: []*openapi.Parameter{
		openapi.QueryParam("limit", "integer", "Maximum items (default 10, max 50)", false),
	},
	Responses: map[int]*openapi.Response{
		200: openapi.ResponseJSONArray("Submission summaries, newest first", "SubmissionSummary"),
		401: openapi.ResponseRef("Unauthorized"),
	},
}

var findOp = &openapi.Operation{
	Summary:    "Get one of the caller's submissions",
	Security:   openapi.BearerAuth(),
	Parameters: []*openapi.Parameter{openapi.PathParam("id", "Submission ID")},
	Responses: map[int]*openapi.Response{
		200: openapi.ResponseJSON("Submission", "Submission"),
		401: openapi.ResponseRef("Unauthorized"),
		404: openapi.ResponseRef("NotFound"),
	},
}

var preferredOp = &openapi.Operation{
	Summary:     "Set the preferred pipeline of a submission",
	Security:    openapi.BearerAuth(),
	Parameters:  []*openapi.Parameter{openapi.PathParam("id", "Submission ID")},
	RequestBody: openapi.RequestBodyJSON("PreferredRequest", true),
	Responses: map[int]*openapi.Response{
		200: openapi.ResponseJSON("Updated submission", "Submission"),
		400: openapi.ResponseRef("BadRequest"),
		401: openapi.ResponseRef("Unauthorized"),
		404: openapi.ResponseRef("NotFound"),
	},
}
