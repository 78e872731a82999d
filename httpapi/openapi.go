/*
Copyright 2025 eatmoreapple

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package httpapi

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/harrykodden/trx"
)

type openAPIDoc struct {
	OpenAPI    string                     `json:"openapi"`
	Info       openAPIInfo                `json:"info"`
	Paths      map[string]openAPIPathItem `json:"paths"`
	Components openAPIComponents          `json:"components"`
}

type openAPIInfo struct {
	Title   string `json:"title"`
	Version string `json:"version"`
}

type openAPIPathItem map[string]openAPIOperation

type openAPIOperation struct {
	Summary     string                `json:"summary,omitempty"`
	Parameters  []openAPIParam        `json:"parameters,omitempty"`
	RequestBody *openAPIRequestBody   `json:"requestBody,omitempty"`
	Responses   map[string]openAPIResp `json:"responses"`
}

type openAPIParam struct {
	Name     string         `json:"name"`
	In       string         `json:"in"`
	Required bool           `json:"required"`
	Schema   openAPISchema  `json:"schema"`
}

type openAPIRequestBody struct {
	Content map[string]openAPIMediaType `json:"content"`
}

type openAPIMediaType struct {
	Schema openAPISchema `json:"schema"`
}

type openAPIResp struct {
	Description string                      `json:"description"`
	Content     map[string]openAPIMediaType `json:"content,omitempty"`
}

type openAPIComponents struct {
	Schemas map[string]openAPISchema `json:"schemas"`
}

type openAPISchema struct {
	Ref         string                   `json:"$ref,omitempty"`
	Type        string                   `json:"type,omitempty"`
	Description string                   `json:"description,omitempty"`
	Properties  map[string]openAPISchema `json:"properties,omitempty"`
	Nullable    bool                     `json:"nullable,omitempty"`
}

// kindToOpenAPIType maps a trx.Kind to an OpenAPI 3.0 primitive type name.
func kindToOpenAPIType(k trx.Kind) string {
	switch k {
	case trx.KindBool:
		return "boolean"
	case trx.KindNumber:
		return "number"
	case trx.KindString:
		return "string"
	case trx.KindArray:
		return "array"
	case trx.KindObject:
		return "object"
	default:
		return "object"
	}
}

func recordSchema(rec *trx.RecordDecl) openAPISchema {
	props := make(map[string]openAPISchema, len(rec.Fields))
	for _, f := range rec.Fields {
		props[f.Name] = openAPISchema{
			Type:        kindToOpenAPIType(f.Type),
			Description: f.Comment,
			Nullable:    f.Nullable,
		}
	}
	return openAPISchema{
		Type:        "object",
		Description: rec.Comment,
		Properties:  props,
	}
}

// generateOpenAPI builds the OpenAPI 3.0 document described by §4.6 base:
// one path item per exported procedure, with its RecordDecls materialized
// as #/components/schemas/<Name> definitions.
func generateOpenAPI(module *trx.Module) []byte {
	doc := openAPIDoc{
		OpenAPI: "3.0.3",
		Info:    openAPIInfo{Title: "TRX API", Version: "1.0.0"},
		Paths:   map[string]openAPIPathItem{},
		Components: openAPIComponents{
			Schemas: map[string]openAPISchema{},
		},
	}

	for name, rec := range module.Records {
		doc.Components.Schemas[name] = recordSchema(rec)
	}

	names := make([]string, 0, len(module.Procedures))
	for n := range module.Procedures {
		names = append(names, n)
	}
	sort.Strings(names)

	for _, name := range names {
		proc := module.Procedures[name]
		if !proc.IsExported {
			continue
		}
		path := "/" + normalizePath(proc.PathTemplate)
		op := openAPIOperation{
			Summary:   proc.Description,
			Responses: map[string]openAPIResp{"200": {Description: "Successful response"}},
		}
		for _, p := range proc.PathParameters {
			op.Parameters = append(op.Parameters, openAPIParam{
				Name:     p.Name,
				In:       "path",
				Required: true,
				Schema:   openAPISchema{Type: kindToOpenAPIType(p.Type)},
			})
		}
		if proc.Input != nil {
			op.RequestBody = &openAPIRequestBody{
				Content: map[string]openAPIMediaType{
					"application/json": {Schema: openAPISchema{Ref: "#/components/schemas/" + proc.Input.Name}},
				},
			}
			if _, ok := doc.Components.Schemas[proc.Input.Name]; !ok {
				doc.Components.Schemas[proc.Input.Name] = recordSchema(proc.Input)
			}
		}
		if proc.Output != nil {
			op.Responses["200"] = openAPIResp{
				Description: "Successful response",
				Content: map[string]openAPIMediaType{
					"application/json": {Schema: openAPISchema{Ref: "#/components/schemas/" + proc.Output.Name}},
				},
			}
			if _, ok := doc.Components.Schemas[proc.Output.Name]; !ok {
				doc.Components.Schemas[proc.Output.Name] = recordSchema(proc.Output)
			}
		}

		item, ok := doc.Paths[path]
		if !ok {
			item = openAPIPathItem{}
		}
		item[strings.ToLower(string(proc.EffectiveMethod()))] = op
		doc.Paths[path] = item
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return []byte(`{"openapi":"3.0.3","info":{"title":"TRX API","version":"1.0.0"},"paths":{}}`)
	}
	return data
}
