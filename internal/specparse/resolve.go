// Package specparse walks an
// OpenAPI document, resolving JSON-pointer references, flattening each
// operation into a kbmodel.EndpointRecord, and rendering per-endpoint
// markdown.
package specparse

import (
	"fmt"
	"strconv"
	"strings"
)

// maxRefDepth bounds reference expansion so a cyclic $ref graph cannot
// recurse forever; the unresolved reference is returned at the bound.
const maxRefDepth = 10

// resolver walks a whole OpenAPI document resolving "#/..." JSON
// pointers against it.
type resolver struct {
	doc map[string]interface{}
}

// resolve expands $ref chains in v up to maxRefDepth, returning v
// unchanged if it carries no $ref.
func (r *resolver) resolve(v interface{}, depth int) interface{} {
	m, ok := v.(map[string]interface{})
	if !ok {
		return v
	}

	ref, hasRef := m["$ref"].(string)
	if !hasRef {
		return r.resolveChildren(m, depth)
	}
	if depth >= maxRefDepth {
		return m
	}

	target, err := r.lookup(ref)
	if err != nil {
		return m
	}
	return r.resolve(target, depth+1)
}

func (r *resolver) resolveChildren(m map[string]interface{}, depth int) map[string]interface{} {
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		switch val := v.(type) {
		case map[string]interface{}:
			out[k] = r.resolve(val, depth)
		case []interface{}:
			arr := make([]interface{}, len(val))
			for i, item := range val {
				if im, ok := item.(map[string]interface{}); ok {
					arr[i] = r.resolve(im, depth)
				} else {
					arr[i] = item
				}
			}
			out[k] = arr
		default:
			out[k] = v
		}
	}
	return out
}

// lookup resolves a "#/a/b/c" JSON pointer against the document root.
func (r *resolver) lookup(ref string) (interface{}, error) {
	if !strings.HasPrefix(ref, "#/") {
		return nil, fmt.Errorf("unsupported external reference: %s", ref)
	}
	parts := strings.Split(strings.TrimPrefix(ref, "#/"), "/")

	var cur interface{} = r.doc
	for _, rawPart := range parts {
		part := unescapePointerToken(rawPart)
		switch node := cur.(type) {
		case map[string]interface{}:
			next, ok := node[part]
			if !ok {
				return nil, fmt.Errorf("reference not found: %s", ref)
			}
			cur = next
		case []interface{}:
			idx, err := strconv.Atoi(part)
			if err != nil || idx < 0 || idx >= len(node) {
				return nil, fmt.Errorf("reference index out of range: %s", ref)
			}
			cur = node[idx]
		default:
			return nil, fmt.Errorf("cannot traverse into non-container at: %s", ref)
		}
	}
	return cur, nil
}

func unescapePointerToken(token string) string {
	token = strings.ReplaceAll(token, "~1", "/")
	token = strings.ReplaceAll(token, "~0", "~")
	return token
}
