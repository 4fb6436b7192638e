package tokens

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCountEmptyMarkdownIsZero(t *testing.T) {
	assert.Zero(t, Count(""))
	assert.Zero(t, Count("   \n\t\n"))
}

func TestCountIsDeterministic(t *testing.T) {
	md := "# Chat Completions\n\nCreates a model response.\n\n```json\n{\"model\": \"venice-large\"}\n```\n\n- streaming\n- tool use\n"
	first := Count(md)
	assert.Positive(t, first)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, Count(md))
	}
}

func TestCountGrowsWithContent(t *testing.T) {
	short := "One sentence of prose."
	long := short + " " + short + " " + short
	assert.Greater(t, Count(long), Count(short))
}

func TestCountCodeBlocksContribute(t *testing.T) {
	prose := "Some text here."
	withCode := prose + "\n\n```go\nfunc main() { fmt.Println(\"hello\") }\n```\n"
	assert.Greater(t, Count(withCode), Count(prose))
}
