package specparse

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/ternarybob/venicekb/internal/kbmodel"
)

// RenderMarkdown produces the full per-endpoint markdown page:
// heading, HTTP fence, prose, deprecation notice,
// parameter table, request-body examples, then responses in ascending
// status-code order.
func RenderMarkdown(rec kbmodel.EndpointRecord) string {
	var b strings.Builder

	heading := rec.Summary
	if heading == "" {
		heading = rec.OperationID
	}
	fmt.Fprintf(&b, "# %s\n\n", heading)

	fmt.Fprintf(&b, "```http\n%s %s\n```\n\n", rec.Method, rec.Path)

	if rec.Description != "" {
		fmt.Fprintf(&b, "%s\n\n", rec.Description)
	}

	b.WriteString(RenderTables(rec))

	return strings.TrimRight(b.String(), "\n") + "\n"
}

// RenderTables renders only the deprecation notice, parameter table,
// request-body examples, responses and extension metadata for rec, the portion the merger
// appends to a page matched to an endpoint, without the
// heading/http-fence/description that a full page already carries.
func RenderTables(rec kbmodel.EndpointRecord) string {
	var b strings.Builder

	if rec.Deprecated {
		b.WriteString("> **Deprecated.** This endpoint is deprecated and may be removed in a future release.\n\n")
	}

	if len(rec.Parameters) > 0 {
		b.WriteString("| Name | Location | Type | Required | Description |\n")
		b.WriteString("|---|---|---|---|---|\n")
		for _, p := range rec.Parameters {
			required := "no"
			if p.Required {
				required = "yes"
			}
			paramType := typeField(p.Schema)
			if paramType == "" {
				paramType = "-"
			}
			fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n", p.Name, p.Location, paramType, required, escapeTableCell(p.Description))
		}
		b.WriteString("\n")
	}

	if rec.RequestBody != nil {
		b.WriteString("## Request Body\n\n")
		if rec.RequestBody.Description != "" {
			fmt.Fprintf(&b, "%s\n\n", rec.RequestBody.Description)
		}
		for _, mediaType := range sortedMediaTypes(rec.RequestBody.Content) {
			fmt.Fprintf(&b, "**%s**\n\n", mediaType)
			example := synthesizeExample(rec.RequestBody.Content[mediaType])
			fmt.Fprintf(&b, "```json\n%s\n```\n\n", example)
		}
	}

	if len(rec.Responses) > 0 {
		b.WriteString("## Responses\n\n")
		for _, status := range sortedStatusCodes(rec.Responses) {
			resp := rec.Responses[status]
			fmt.Fprintf(&b, "### %s\n\n", status)
			if resp.Description != "" {
				fmt.Fprintf(&b, "%s\n\n", resp.Description)
			}
			for _, mediaType := range sortedMediaTypes(resp.Content) {
				fmt.Fprintf(&b, "**%s**\n\n", mediaType)
				example := synthesizeExample(resp.Content[mediaType])
				fmt.Fprintf(&b, "```json\n%s\n```\n\n", example)
			}
		}
	}

	if len(rec.Extensions) > 0 {
		b.WriteString("---\n\n")
		for _, key := range sortedExtensionKeys(rec.Extensions) {
			fmt.Fprintf(&b, "- `%s`: %v\n", key, rec.Extensions[key])
		}
	}

	return strings.TrimRight(b.String(), "\n") + "\n"
}

// synthesizeExample builds a representative JSON example for schema,
// preferring an explicit "example", then the first enum value, then a
// per-type zero value, recursing into object properties and array items.
func synthesizeExample(schema map[string]interface{}) string {
	value := synthesizeValue(schema, 0)
	out, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(out)
}

func synthesizeValue(schema map[string]interface{}, depth int) interface{} {
	if schema == nil || depth > maxRefDepth {
		return nil
	}

	if example, ok := schema["example"]; ok {
		return example
	}
	if enums, ok := schema["enum"].([]interface{}); ok && len(enums) > 0 {
		return enums[0]
	}

	switch typeField(schema) {
	case "object":
		props, _ := schema["properties"].(map[string]interface{})
		out := make(map[string]interface{}, len(props))
		for _, key := range sortedKeys(props) {
			if propSchema, ok := props[key].(map[string]interface{}); ok {
				out[key] = synthesizeValue(propSchema, depth+1)
			}
		}
		return out
	case "array":
		items, _ := schema["items"].(map[string]interface{})
		return []interface{}{synthesizeValue(items, depth+1)}
	case "integer":
		return 0
	case "number":
		return 0.0
	case "boolean":
		return false
	case "string":
		return ""
	default:
		return nil
	}
}

func typeField(schema map[string]interface{}) string {
	if t, ok := schema["type"].(string); ok {
		return t
	}
	return ""
}

func sortedMediaTypes(content map[string]map[string]interface{}) []string {
	keys := make([]string, 0, len(content))
	for k := range content {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedExtensionKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// sortedStatusCodes orders response status codes ascending, with
// non-numeric codes (e.g. "default", "4XX") sorted after numeric ones.
func sortedStatusCodes(responses map[string]kbmodel.Response) []string {
	keys := make([]string, 0, len(responses))
	for k := range responses {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		ni, erri := strconv.Atoi(keys[i])
		nj, errj := strconv.Atoi(keys[j])
		if erri == nil && errj == nil {
			return ni < nj
		}
		if erri == nil {
			return true
		}
		if errj == nil {
			return false
		}
		return keys[i] < keys[j]
	})
	return keys
}

func escapeTableCell(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}
