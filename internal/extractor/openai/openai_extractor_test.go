package openai_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/twiindan/facturai/internal/config"
	"github.com/twiindan/facturai/internal/extractor"
	"github.com/twiindan/facturai/internal/extractor/openai"
	"github.com/twiindan/facturai/internal/port"
)

func newTestExtractor(t *testing.T, serverURL string) *openai.Extractor {
	t.Helper()
	e, err := openai.NewExtractorWithEndpoint(&config.ExtractorConfig{
		Provider:        "openai",
		APIKey:          "test-api-key",
		TimeoutSecs:     30,
		MaxContextChars: 30000,
	}, serverURL, zerolog.Nop())
	require.NoError(t, err)
	return e
}

func TestOpenAIExtractor_Document_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-api-key", r.Header.Get("Authorization"))

		var reqBody map[string]interface{}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&reqBody))
		assert.Equal(t, "gpt-4o", reqBody["model"])
		assert.NotContains(t, reqBody, "response_format")

		content := reqBody["messages"].([]interface{})[0].(map[string]interface{})["content"].([]interface{})
		require.Len(t, content, 2)
		file := content[0].(map[string]interface{})["file"].(map[string]interface{})
		assert.Equal(t, "a.pdf", file["filename"])
		assert.Contains(t, file["file_data"], "data:application/pdf;base64,")

		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"[{\"iban\":null}]"},"finish_reason":"stop"}]}`))
	}))
	defer server.Close()

	result, err := newTestExtractor(t, server.URL).Extract(context.Background(), port.ExtractInput{
		SourceFilename: "a.pdf",
		Document:       []byte("%PDF-1.4"),
		ContentType:    "application/pdf",
	})

	require.NoError(t, err)
	assert.Equal(t, `[{"iban":null}]`, result.Text)
	assert.Equal(t, "gpt-4o", result.Model)
}

func TestOpenAIExtractor_NoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer server.Close()

	_, err := newTestExtractor(t, server.URL).Extract(context.Background(), port.ExtractInput{Text: "x"})

	kind, ok := extractor.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, extractor.KindEmptyResponse, kind)
}

func TestOpenAIExtractor_NullContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":null}}]}`))
	}))
	defer server.Close()

	_, err := newTestExtractor(t, server.URL).Extract(context.Background(), port.ExtractInput{Text: "x"})

	kind, _ := extractor.KindOf(err)
	assert.Equal(t, extractor.KindMalformedEnvelope, kind)
}

func TestOpenAIExtractor_Unauthorized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	_, err := newTestExtractor(t, server.URL).Extract(context.Background(), port.ExtractInput{Text: "x"})

	kind, _ := extractor.KindOf(err)
	assert.Equal(t, extractor.KindProvider, kind)
	assert.Contains(t, err.Error(), "401")
}
