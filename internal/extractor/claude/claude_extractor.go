package claude

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/twiindan/facturai/internal/config"
	"github.com/twiindan/facturai/internal/domain"
	"github.com/twiindan/facturai/internal/extractor"
	"github.com/twiindan/facturai/internal/port"
)

const (
	providerName = "claude"
	apiURL       = "https://api.anthropic.com/v1/messages"
	apiVersion   = "2023-06-01"
	defaultModel = "claude-sonnet-4-20250514"
)

// Extractor implements port.Extractor using the Anthropic Messages API.
type Extractor struct {
	apiKey          string
	model           string
	endpoint        string
	maxContextChars int
	client          *http.Client
	log             zerolog.Logger
}

// NewExtractor creates a Claude-based extractor. It fails with an
// unconfigured error when no API key is set.
func NewExtractor(cfg *config.ExtractorConfig, log zerolog.Logger) (*Extractor, error) {
	return newExtractor(cfg, apiURL, log)
}

// NewExtractorWithEndpoint creates an extractor pointing at a custom API endpoint (for testing).
func NewExtractorWithEndpoint(cfg *config.ExtractorConfig, endpoint string, log zerolog.Logger) (*Extractor, error) {
	return newExtractor(cfg, endpoint, log)
}

// Register adds the provider to the extractor registry.
func Register() {
	extractor.RegisterProvider(providerName, func(cfg *config.ExtractorConfig, log zerolog.Logger) (port.Extractor, error) {
		return NewExtractor(cfg, log)
	})
}

func newExtractor(cfg *config.ExtractorConfig, endpoint string, log zerolog.Logger) (*Extractor, error) {
	if err := extractor.RequireAPIKey(providerName, cfg); err != nil {
		return nil, err
	}
	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	return &Extractor{
		apiKey:          cfg.APIKey,
		model:           model,
		endpoint:        endpoint,
		maxContextChars: cfg.MaxContextChars,
		client:          &http.Client{Timeout: extractor.Timeout(cfg.TimeoutSecs)},
		log:             log,
	}, nil
}

func (e *Extractor) Extract(ctx context.Context, input port.ExtractInput) (*port.RawResponse, error) {
	var prompt string
	var blocks []map[string]interface{}
	if input.TextMode() {
		text := extractor.EnforceContextLimit(e.log, providerName, input.Text, e.maxContextChars)
		prompt = extractor.BuildInvoicePrompt(text)
	} else {
		prompt = extractor.BuildInvoicePrompt("")
		block, err := documentBlock(input)
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, block)
	}
	blocks = append(blocks, map[string]interface{}{
		"type": "text",
		"text": prompt,
	})

	reqBody := map[string]interface{}{
		"model":      e.model,
		"max_tokens": 16384,
		"messages": []map[string]interface{}{
			{
				"role":    "user",
				"content": blocks,
			},
		},
	}

	respBody, err := extractor.PostJSON(ctx, e.client, providerName, e.endpoint, map[string]string{
		"x-api-key":         e.apiKey,
		"anthropic-version": apiVersion,
	}, reqBody)
	if err != nil {
		return nil, err
	}
	return parseResponse(respBody, e.model, prompt)
}

func documentBlock(input port.ExtractInput) (map[string]interface{}, error) {
	contentType := input.ContentType
	if contentType == "" {
		contentType = domain.ContentTypePDF
	}
	if contentType != domain.ContentTypePDF {
		return nil, fmt.Errorf("unsupported content type for extraction: %s", contentType)
	}
	return map[string]interface{}{
		"type": "document",
		"source": map[string]interface{}{
			"type":       "base64",
			"media_type": contentType,
			"data":       base64.StdEncoding.EncodeToString(input.Document),
		},
	}, nil
}

// apiResponse models the Anthropic Messages API response.
type apiResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
}

func parseResponse(body []byte, model, prompt string) (*port.RawResponse, error) {
	var resp apiResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, extractor.NewError(extractor.KindMalformedEnvelope, providerName,
			fmt.Errorf("unmarshaling response: %w (raw: %s)", err, extractor.Abbreviate(string(body), 500)))
	}

	if len(resp.Content) == 0 {
		return nil, extractor.NewError(extractor.KindEmptyResponse, providerName, errors.New("no content blocks"))
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		return nil, extractor.NewError(extractor.KindMalformedEnvelope, providerName, errors.New("content has no text blocks"))
	}

	return &port.RawResponse{
		Text:       sb.String(),
		Model:      model,
		PromptUsed: prompt,
	}, nil
}
