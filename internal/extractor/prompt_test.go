package extractor_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/twiindan/facturai/internal/domain"
	"github.com/twiindan/facturai/internal/extractor"
)

func TestBuildInvoicePrompt_ListsCanonicalFields(t *testing.T) {
	prompt := extractor.BuildInvoicePrompt("")

	for _, f := range domain.CanonicalFields {
		assert.Contains(t, prompt, f)
	}
	assert.Contains(t, prompt, "YYYY-MM-DD")
	assert.Contains(t, prompt, "null")
	assert.NotContains(t, prompt, "Document text:")
}

func TestBuildInvoicePrompt_AppendsText(t *testing.T) {
	prompt := extractor.BuildInvoicePrompt("FACTURA 2024/001")

	assert.True(t, strings.HasSuffix(prompt, "FACTURA 2024/001"))
}

func TestTruncateText(t *testing.T) {
	out, cut := extractor.TruncateText("abcdef", 3)
	assert.True(t, cut)
	assert.Equal(t, "abc", out)

	out, cut = extractor.TruncateText("abc", 3)
	assert.False(t, cut)
	assert.Equal(t, "abc", out)
}

func TestTruncateText_CountsRunes(t *testing.T) {
	// 4 runes, 8 bytes
	out, cut := extractor.TruncateText("ñañá", 4)
	assert.False(t, cut)
	assert.Equal(t, "ñañá", out)

	out, cut = extractor.TruncateText("ñañá", 2)
	assert.True(t, cut)
	assert.Equal(t, "ña", out)
}

func TestTimeout(t *testing.T) {
	assert.Equal(t, extractor.DefaultTimeout, extractor.Timeout(0))
	assert.Equal(t, 5*time.Second, extractor.Timeout(5))
}
