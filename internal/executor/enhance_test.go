package executor

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnhanceCSS(t *testing.T) {
	original := "body { margin: 0; }\n"
	enhanced := EnhanceCSS(original)

	assert.True(t, strings.HasPrefix(enhanced, original), "original styles must come first")
	assert.Contains(t, enhanced, "prefers-reduced-motion")
	assert.Contains(t, enhanced, ":focus")
	assert.Contains(t, enhanced, "box-sizing: border-box")
}

func TestEnhanceHTML_InjectsAfterHeadOnce(t *testing.T) {
	original := "<html><head><title>Home</title></head><body><head></head></body></html>"
	enhanced := EnhanceHTML(original)

	assert.Contains(t, enhanced, `<meta name="viewport"`)
	assert.Equal(t, 1, strings.Count(enhanced, `<meta name="description"`), "meta block must be injected exactly once")

	// Only the first <head> receives the injection.
	idx := strings.Index(enhanced, "<head>")
	assert.True(t, strings.HasPrefix(enhanced[idx+len("<head>"):], "\n    <!-- Generated SEO"))
}

func TestEnhanceHTML_NoHeadPassesThrough(t *testing.T) {
	original := "<html><body><p>fragment without a head element</p></body></html>"

	assert.Equal(t, original, EnhanceHTML(original))
}

func TestEnhanceHTML_Idempotence(t *testing.T) {
	// Applying twice injects twice. Callers rely on the staging tree being
	// rebuilt from originals each run, not on the transform being idempotent.
	original := "<html><head></head></html>"
	twice := EnhanceHTML(EnhanceHTML(original))

	assert.Equal(t, 2, strings.Count(twice, `<meta name="viewport"`))
}
