package openai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/twiindan/facturai/internal/config"
	"github.com/twiindan/facturai/internal/domain"
	"github.com/twiindan/facturai/internal/extractor"
	"github.com/twiindan/facturai/internal/port"
)

const (
	providerName = "openai"
	apiURL       = "https://api.openai.com/v1/chat/completions"
	defaultModel = "gpt-4o"
)

// Extractor implements port.Extractor using the OpenAI Chat Completions API.
type Extractor struct {
	apiKey          string
	model           string
	endpoint        string
	maxContextChars int
	client          *http.Client
	log             zerolog.Logger
}

// NewExtractor creates an OpenAI-based extractor.
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
		block, err := fileBlock(input)
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, block)
	}
	blocks = append(blocks, map[string]interface{}{
		"type": "text",
		"text": prompt,
	})

	// No response_format: json_object mode forbids the top-level array the
	// prompt asks for.
	reqBody := map[string]interface{}{
		"model":                 e.model,
		"max_completion_tokens": 16384,
		"messages": []map[string]interface{}{
			{
				"role":    "user",
				"content": blocks,
			},
		},
	}

	respBody, err := extractor.PostJSON(ctx, e.client, providerName, e.endpoint, map[string]string{
		"Authorization": "Bearer " + e.apiKey,
	}, reqBody)
	if err != nil {
		return nil, err
	}
	return parseResponse(respBody, e.model, prompt)
}

func fileBlock(input port.ExtractInput) (map[string]interface{}, error) {
	contentType := input.ContentType
	if contentType == "" {
		contentType = domain.ContentTypePDF
	}
	if contentType != domain.ContentTypePDF {
		return nil, fmt.Errorf("unsupported content type for extraction: %s", contentType)
	}
	filename := input.SourceFilename
	if filename == "" {
		filename = "document.pdf"
	}
	dataURI := fmt.Sprintf("data:%s;base64,%s", contentType, base64.StdEncoding.EncodeToString(input.Document))
	return map[string]interface{}{
		"type": "file",
		"file": map[string]interface{}{
			"filename":  filename,
			"file_data": dataURI,
		},
	}, nil
}

// apiResponse models the OpenAI Chat Completions API response.
type apiResponse struct {
	Choices []struct {
		Message *struct {
			Content *string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

func parseResponse(body []byte, model, prompt string) (*port.RawResponse, error) {
	var resp apiResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, extractor.NewError(extractor.KindMalformedEnvelope, providerName,
			fmt.Errorf("unmarshaling response: %w (raw: %s)", err, extractor.Abbreviate(string(body), 500)))
	}

	if len(resp.Choices) == 0 {
		return nil, extractor.NewError(extractor.KindEmptyResponse, providerName, errors.New("no choices"))
	}

	msg := resp.Choices[0].Message
	if msg == nil || msg.Content == nil {
		return nil, extractor.NewError(extractor.KindMalformedEnvelope, providerName, errors.New("choice has no message content"))
	}

	return &port.RawResponse{
		Text:       *msg.Content,
		Model:      model,
		PromptUsed: prompt,
	}, nil
}
