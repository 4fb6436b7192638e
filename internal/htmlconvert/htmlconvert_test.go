package htmlconvert

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertPrefersMainContent(t *testing.T) {
	raw := `<html><head><style>body{}</style></head><body>
<nav>Site nav</nav>
<header>Header</header>
<main><h1>Models</h1><p>Venice hosts several models.</p></main>
<footer>Footer</footer>
</body></html>`

	out, err := Convert(raw, "https://docs.example.com/models")
	require.NoError(t, err)
	assert.Contains(t, out, "Venice hosts several models.")
	assert.NotContains(t, out, "Site nav")
	assert.NotContains(t, out, "Footer")
}

func TestConvertCollapsesBlankLinesAndEmptyLinks(t *testing.T) {
	raw := `<body><main><p>First.</p>


<p>Second.</p><a href="/x"></a></main></body>`

	out, err := Convert(raw, "https://docs.example.com/")
	require.NoError(t, err)
	assert.NotContains(t, out, "\n\n\n")
	assert.NotContains(t, out, "[](/x)")
}

func TestConvertFallsBackToBodyWithoutMain(t *testing.T) {
	raw := `<body><script>track()</script><p>Plain page.</p></body>`

	out, err := Convert(raw, "https://docs.example.com/")
	require.NoError(t, err)
	assert.Contains(t, out, "Plain page.")
	assert.NotContains(t, out, "track()")
}
