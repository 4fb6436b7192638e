package mdconvert

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConvertExtractsFrontmatterTitle(t *testing.T) {
	src := "---\ntitle: \"Getting Started\"\ndescription: intro\n---\nWelcome.\n"
	out := Convert(src)
	assert.True(t, strings.HasPrefix(out, "# Getting Started\n\n"))
	assert.Contains(t, out, "Welcome.")
}

func TestConvertStepsNumberedSequentially(t *testing.T) {
	src := `<Steps>
<Step title="Install the CLI">Run the installer.</Step>
<Step title="Authenticate">Run login.</Step>
</Steps>`
	out := Convert(src)
	assert.Contains(t, out, "### Step 1: Install the CLI")
	assert.Contains(t, out, "### Step 2: Authenticate")
}

func TestConvertNoteAndWarning(t *testing.T) {
	src := "<Note>Remember your key.</Note>\n<Warning>Do not share it.</Warning>"
	out := Convert(src)
	assert.Contains(t, out, "> **Note:** Remember your key.")
	assert.Contains(t, out, "> **Warning:** Do not share it.")
}

func TestConvertCardGroup(t *testing.T) {
	src := `<CardGroup>
<Card title="Quickstart" href="/quickstart">Get running in five minutes.</Card>
</CardGroup>`
	out := Convert(src)
	assert.Contains(t, out, "- **[Quickstart](/quickstart)** — Get running in five minutes.")
	assert.NotContains(t, out, "CardGroup")
}

func TestConvertTabs(t *testing.T) {
	src := `<Tabs>
<Tab title="cURL">curl example</Tab>
<Tab title="Python">python example</Tab>
</Tabs>`
	out := Convert(src)
	assert.Contains(t, out, "#### cURL")
	assert.Contains(t, out, "#### Python")
}

func TestConvertAccordion(t *testing.T) {
	src := `<Accordion title="FAQ">Answer text</Accordion>`
	out := Convert(src)
	assert.Contains(t, out, "<details><summary>FAQ</summary>")
	assert.Contains(t, out, "Answer text")
	assert.Contains(t, out, "</details>")
}

func TestConvertStripsSimpleTags(t *testing.T) {
	src := `<Tooltip tip="x">rate limit</Tooltip> applies per <ParamField>key</ParamField>.`
	out := Convert(src)
	assert.Equal(t, "rate limit applies per key.", strings.TrimSpace(out))
}

func TestConvertPlaceholderDiv(t *testing.T) {
	src := `<div id="live-models-placeholder" class="widget"><span>loading...</span></div>`
	out := Convert(src)
	assert.Contains(t, out, "<!-- PLACEHOLDER: live-models-placeholder -->")
	assert.NotContains(t, out, "loading")
}
