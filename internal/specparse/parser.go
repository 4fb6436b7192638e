package specparse

import (
	"sort"
	"strings"

	"github.com/ternarybob/venicekb/internal/kbmodel"
)

var recognizedMethods = map[string]kbmodel.HTTPMethod{
	"get":     kbmodel.MethodGet,
	"post":    kbmodel.MethodPost,
	"put":     kbmodel.MethodPut,
	"patch":   kbmodel.MethodPatch,
	"delete":  kbmodel.MethodDelete,
	"options": kbmodel.MethodOptions,
	"head":    kbmodel.MethodHead,
}

// Parse walks every (path, method) pair in doc's "paths" section and
// produces one fully-reference-resolved EndpointRecord per operation.
// Path and method order is lexicographic rather than document order,
// since unmarshaling YAML/JSON into a generic map already discards key
// order; this keeps two parses of the same document byte-identical.
func Parse(doc map[string]interface{}) []kbmodel.EndpointRecord {
	r := &resolver{doc: doc}

	pathsRaw, _ := doc["paths"].(map[string]interface{})
	paths := sortedKeys(pathsRaw)

	var records []kbmodel.EndpointRecord
	for _, path := range paths {
		pathItemRaw, ok := pathsRaw[path].(map[string]interface{})
		if !ok {
			continue
		}
		pathItem := r.resolveChildren(pathItemRaw, 0)

		methods := sortedKeys(pathItem)
		for _, methodKey := range methods {
			method, recognized := recognizedMethods[strings.ToLower(methodKey)]
			if !recognized {
				continue
			}
			opRaw, ok := pathItem[methodKey].(map[string]interface{})
			if !ok {
				continue
			}
			records = append(records, buildRecord(r, method, path, opRaw))
		}
	}
	return records
}

func buildRecord(r *resolver, method kbmodel.HTTPMethod, path string, opRaw map[string]interface{}) kbmodel.EndpointRecord {
	op := r.resolveChildren(opRaw, 0)

	rec := kbmodel.EndpointRecord{
		Method:      method,
		Path:        path,
		Summary:     stringField(op, "summary"),
		Description: stringField(op, "description"),
		OperationID: stringField(op, "operationId"),
		Deprecated:  boolField(op, "deprecated"),
		Responses:   map[string]kbmodel.Response{},
		Extensions:  map[string]interface{}{},
	}

	if tags, ok := op["tags"].([]interface{}); ok {
		for _, t := range tags {
			if s, ok := t.(string); ok {
				rec.Tags = append(rec.Tags, s)
			}
		}
	}

	if paramsRaw, ok := op["parameters"].([]interface{}); ok {
		for _, p := range paramsRaw {
			pm, ok := p.(map[string]interface{})
			if !ok {
				continue
			}
			param := kbmodel.Parameter{
				Name:        stringField(pm, "name"),
				Location:    kbmodel.ParamLocation(stringField(pm, "in")),
				Required:    boolField(pm, "required"),
				Description: stringField(pm, "description"),
			}
			if schema, ok := pm["schema"].(map[string]interface{}); ok {
				param.Schema = schema
			}
			rec.Parameters = append(rec.Parameters, param)
		}
	}

	if rbRaw, ok := op["requestBody"].(map[string]interface{}); ok {
		rb := &kbmodel.RequestBody{
			Required:    boolField(rbRaw, "required"),
			Description: stringField(rbRaw, "description"),
			Content:     map[string]map[string]interface{}{},
		}
		if contentRaw, ok := rbRaw["content"].(map[string]interface{}); ok {
			for mediaType, schemaWrapper := range contentRaw {
				if wrapper, ok := schemaWrapper.(map[string]interface{}); ok {
					if schema, ok := wrapper["schema"].(map[string]interface{}); ok {
						rb.Content[mediaType] = schema
					}
				}
			}
		}
		rec.RequestBody = rb
	}

	if responsesRaw, ok := op["responses"].(map[string]interface{}); ok {
		for status, respRaw := range responsesRaw {
			respMap, ok := respRaw.(map[string]interface{})
			if !ok {
				continue
			}
			response := kbmodel.Response{
				Description: stringField(respMap, "description"),
				Content:     map[string]map[string]interface{}{},
			}
			if contentRaw, ok := respMap["content"].(map[string]interface{}); ok {
				for mediaType, schemaWrapper := range contentRaw {
					if wrapper, ok := schemaWrapper.(map[string]interface{}); ok {
						if schema, ok := wrapper["schema"].(map[string]interface{}); ok {
							response.Content[mediaType] = schema
						}
					}
				}
			}
			rec.Responses[status] = response
		}
	}

	for key, value := range op {
		if strings.HasPrefix(key, "x-") {
			rec.Extensions[key] = value
		}
	}

	return rec
}

func stringField(m map[string]interface{}, key string) string {
	if s, ok := m[key].(string); ok {
		return s
	}
	return ""
}

func boolField(m map[string]interface{}, key string) bool {
	if b, ok := m[key].(bool); ok {
		return b
	}
	return false
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
