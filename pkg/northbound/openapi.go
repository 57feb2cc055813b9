package northbound

import (
	"reflect"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/samber/lo"
	"github.com/veesix-networks/osvlan/pkg/sai"
	"github.com/veesix-networks/osvlan/pkg/version"
)

func buildOpenAPISpec() *openapi3.T {
	spec := &openapi3.T{
		OpenAPI: "3.0.3",
		Info: &openapi3.Info{
			Title:       "osvlan API",
			Description: "Northbound REST API for VLAN and VLAN member management",
			Version:     version.Version,
		},
		Paths: &openapi3.Paths{},
		Tags: openapi3.Tags{
			{Name: "Ports", Description: "Front panel ports"},
			{Name: "VLANs", Description: "VLAN objects and statistics"},
			{Name: "Members", Description: "VLAN member objects"},
		},
	}

	vlanParam := pathParam("vlan", &openapi3.Schema{Type: &openapi3.Types{"integer"}, Min: ptrFloat(1), Max: ptrFloat(4094)})
	memberParam := pathParam("id", &openapi3.Schema{Type: &openapi3.Types{"string"}, Description: "Member object id, oid:0x... or numeric"})

	counterNames := lo.Map(sai.AllVlanStats(), func(s sai.VlanStat, _ int) any { return s.String() })
	counterParam := &openapi3.ParameterRef{
		Value: &openapi3.Parameter{
			Name:        "counter",
			In:          "query",
			Description: "Counter to read, repeatable. Defaults to every counter the hardware provides.",
			Schema: &openapi3.SchemaRef{Value: &openapi3.Schema{
				Type:  &openapi3.Types{"array"},
				Items: &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"string"}, Enum: counterNames}},
			}},
		},
	}

	spec.Paths.Set("/api/ports", &openapi3.PathItem{
		Get: operation("Ports", "listPorts", "List switch ports", nil, nil, 200, PortsResponse{}),
	})
	spec.Paths.Set("/api/vlans", &openapi3.PathItem{
		Post: operation("VLANs", "createVlan", "Create a VLAN", nil, CreateVlanRequest{}, 201, VlanResponse{}),
	})
	spec.Paths.Set("/api/vlans/{vlan}", &openapi3.PathItem{
		Delete: operation("VLANs", "removeVlan", "Remove a VLAN", openapi3.Parameters{vlanParam}, nil, 200, OKResponse{}),
	})
	spec.Paths.Set("/api/vlans/{vlan}/members", &openapi3.PathItem{
		Get: operation("VLANs", "getVlanMembers", "List the members of a VLAN", openapi3.Parameters{vlanParam}, nil, 200, VlanResponse{}),
	})
	spec.Paths.Set("/api/vlans/{vlan}/attributes", &openapi3.PathItem{
		Put: operation("VLANs", "setVlanAttribute", "Set a VLAN attribute", openapi3.Parameters{vlanParam}, AttributeRequest{}, 200, OKResponse{}),
	})
	spec.Paths.Set("/api/vlans/{vlan}/stats", &openapi3.PathItem{
		Get:    operation("VLANs", "getVlanStats", "Read VLAN counters", openapi3.Parameters{vlanParam, counterParam}, nil, 200, StatsResponse{}),
		Delete: operation("VLANs", "clearVlanStats", "Clear VLAN counters", openapi3.Parameters{vlanParam, counterParam}, nil, 200, OKResponse{}),
	})
	spec.Paths.Set("/api/vlan-members", &openapi3.PathItem{
		Post: operation("Members", "createVlanMember", "Add a port to a VLAN", nil, CreateMemberRequest{}, 201, Member{}),
	})
	spec.Paths.Set("/api/vlan-members/{id}", &openapi3.PathItem{
		Get:    operation("Members", "getVlanMember", "Read a VLAN member", openapi3.Parameters{memberParam}, nil, 200, Member{}),
		Delete: operation("Members", "removeVlanMember", "Remove a port from a VLAN", openapi3.Parameters{memberParam}, nil, 200, OKResponse{}),
	})
	spec.Paths.Set("/api/vlan-members/{id}/attributes", &openapi3.PathItem{
		Put: operation("Members", "setVlanMemberAttribute", "Set a VLAN member attribute", openapi3.Parameters{memberParam}, AttributeRequest{}, 200, OKResponse{}),
	})

	return spec
}

func pathParam(name string, schema *openapi3.Schema) *openapi3.ParameterRef {
	return &openapi3.ParameterRef{
		Value: &openapi3.Parameter{
			Name:     name,
			In:       "path",
			Required: true,
			Schema:   &openapi3.SchemaRef{Value: schema},
		},
	}
}

func operation(tag, id, summary string, params openapi3.Parameters, request any, status int, response any) *openapi3.Operation {
	op := &openapi3.Operation{
		Tags:        []string{tag},
		Summary:     summary,
		OperationID: id,
		Parameters:  params,
		Responses: openapi3.NewResponses(
			openapi3.WithStatus(status, &openapi3.ResponseRef{
				Value: &openapi3.Response{
					Description: ptr(summary),
					Content:     openapi3.NewContentWithJSONSchemaRef(schemaFromType(reflect.TypeOf(response))),
				},
			}),
			openapi3.WithStatus(400, errorResponse("Invalid request")),
			openapi3.WithStatus(404, errorResponse("Object not found")),
			openapi3.WithStatus(409, errorResponse("Object exists or is in use")),
			openapi3.WithStatus(500, errorResponse("Switch failure")),
		),
	}

	if request != nil {
		op.RequestBody = &openapi3.RequestBodyRef{
			Value: &openapi3.RequestBody{
				Required: true,
				Content:  openapi3.NewContentWithJSONSchemaRef(schemaFromType(reflect.TypeOf(request))),
			},
		}
	}
	return op
}

func errorResponse(desc string) *openapi3.ResponseRef {
	return &openapi3.ResponseRef{
		Value: &openapi3.Response{
			Description: ptr(desc),
			Content:     openapi3.NewContentWithJSONSchemaRef(schemaFromType(reflect.TypeOf(ErrorResponse{}))),
		},
	}
}

func schemaFromType(t reflect.Type) *openapi3.SchemaRef {
	if t == nil {
		return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"object"}}}
	}

	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	switch t.Kind() {
	case reflect.Bool:
		return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"boolean"}}}

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"integer"}}}

	case reflect.Float32, reflect.Float64:
		return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"number"}}}

	case reflect.String:
		return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"string"}}}

	case reflect.Slice:
		return &openapi3.SchemaRef{
			Value: &openapi3.Schema{
				Type:  &openapi3.Types{"array"},
				Items: schemaFromType(t.Elem()),
			},
		}

	case reflect.Map:
		return &openapi3.SchemaRef{
			Value: &openapi3.Schema{
				Type:                 &openapi3.Types{"object"},
				AdditionalProperties: openapi3.AdditionalProperties{Schema: schemaFromType(t.Elem())},
			},
		}

	case reflect.Struct:
		return structToSchema(t)
	}

	return &openapi3.SchemaRef{Value: &openapi3.Schema{}}
}

func structToSchema(t reflect.Type) *openapi3.SchemaRef {
	properties := openapi3.Schemas{}
	var required []string

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}

		jsonTag := field.Tag.Get("json")
		if jsonTag == "-" {
			continue
		}

		name := field.Name
		omitempty := false
		if jsonTag != "" {
			parts := strings.Split(jsonTag, ",")
			if parts[0] != "" {
				name = parts[0]
			}
			omitempty = lo.Contains(parts[1:], "omitempty")
		}

		propSchema := schemaFromType(field.Type)
		if desc := field.Tag.Get("description"); desc != "" {
			propSchema.Value.Description = desc
		}
		if !omitempty {
			required = append(required, name)
		}
		properties[name] = propSchema
	}

	return &openapi3.SchemaRef{
		Value: &openapi3.Schema{
			Type:       &openapi3.Types{"object"},
			Properties: properties,
			Required:   required,
		},
	}
}

func ptr(s string) *string {
	return &s
}

func ptrFloat(f float64) *float64 {
	return &f
}
