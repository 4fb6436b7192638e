package specparse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const sampleSpec = `
paths:
  /chat/completions:
    post:
      operationId: createChatCompletion
      summary: Create a chat completion
      description: Generates a model response.
      parameters:
        - name: model
          in: query
          required: true
          description: Model identifier.
      requestBody:
        required: true
        content:
          application/json:
            schema:
              $ref: '#/components/schemas/ChatRequest'
      responses:
        "200":
          description: Successful response.
        "400":
          description: Bad request.
      x-venice-beta: true
components:
  schemas:
    ChatRequest:
      type: object
      properties:
        model:
          type: string
        stream:
          type: boolean
`

func mustParse(t *testing.T) map[string]interface{} {
	t.Helper()
	var doc map[string]interface{}
	require.NoError(t, yaml.Unmarshal([]byte(sampleSpec), &doc))
	return doc
}

func TestParseResolvesReferencesAndExtensions(t *testing.T) {
	doc := mustParse(t)
	records := Parse(doc)
	require.Len(t, records, 1)

	rec := records[0]
	assert.Equal(t, "createChatCompletion", rec.OperationID)
	assert.Equal(t, "/chat/completions", rec.Path)
	require.NotNil(t, rec.RequestBody)
	assert.Contains(t, rec.RequestBody.Content, "application/json")

	schema := rec.RequestBody.Content["application/json"]
	assert.Equal(t, "object", schema["type"])
	assert.True(t, rec.Extensions["x-venice-beta"].(bool))
}

func TestRenderMarkdownOrdersResponsesAscending(t *testing.T) {
	doc := mustParse(t)
	records := Parse(doc)
	require.Len(t, records, 1)

	md := RenderMarkdown(records[0])
	assert.Contains(t, md, "# Create a chat completion")
	assert.Contains(t, md, "```http\nPOST /chat/completions\n```")

	idx200 := indexOf(md, "### 200")
	idx400 := indexOf(md, "### 400")
	require.NotEqual(t, -1, idx200)
	require.NotEqual(t, -1, idx400)
	assert.Less(t, idx200, idx400, "200 must render before 400")
}

func indexOf(s, substr string) int {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return i
		}
	}
	return -1
}
