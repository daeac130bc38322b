package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/genai"

	"github.com/twiindan/facturai/internal/config"
	"github.com/twiindan/facturai/internal/domain"
	"github.com/twiindan/facturai/internal/extractor"
	"github.com/twiindan/facturai/internal/port"
)

const (
	providerName = "gemini"
	defaultModel = "gemini-2.5-flash"
)

// Extractor implements port.Extractor using the Gemini API through the genai SDK.
type Extractor struct {
	client          *genai.Client
	model           string
	timeout         time.Duration
	maxContextChars int
	log             zerolog.Logger
}

// NewExtractor creates a Gemini-based extractor.
func NewExtractor(cfg *config.ExtractorConfig, log zerolog.Logger) (*Extractor, error) {
	return newExtractor(cfg, "", log)
}

// NewExtractorWithEndpoint creates an extractor pointing at a custom base URL (for testing).
func NewExtractorWithEndpoint(cfg *config.ExtractorConfig, baseURL string, log zerolog.Logger) (*Extractor, error) {
	return newExtractor(cfg, baseURL, log)
}

// Register adds the provider to the extractor registry.
func Register() {
	extractor.RegisterProvider(providerName, func(cfg *config.ExtractorConfig, log zerolog.Logger) (port.Extractor, error) {
		return NewExtractor(cfg, log)
	})
}

func newExtractor(cfg *config.ExtractorConfig, baseURL string, log zerolog.Logger) (*Extractor, error) {
	if err := extractor.RequireAPIKey(providerName, cfg); err != nil {
		return nil, err
	}
	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	timeout := extractor.Timeout(cfg.TimeoutSecs)

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:      cfg.APIKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPClient:  &http.Client{Timeout: timeout},
		HTTPOptions: genai.HTTPOptions{BaseURL: baseURL},
	})
	if err != nil {
		return nil, extractor.NewError(extractor.KindUnconfigured, providerName, fmt.Errorf("creating genai client: %w", err))
	}

	return &Extractor{
		client:          client,
		model:           model,
		timeout:         timeout,
		maxContextChars: cfg.MaxContextChars,
		log:             log,
	}, nil
}

func (e *Extractor) Extract(ctx context.Context, input port.ExtractInput) (*port.RawResponse, error) {
	var prompt string
	var parts []*genai.Part
	if input.TextMode() {
		text := extractor.EnforceContextLimit(e.log, providerName, input.Text, e.maxContextChars)
		prompt = extractor.BuildInvoicePrompt(text)
		parts = append(parts, &genai.Part{Text: prompt})
	} else {
		mimeType := input.ContentType
		if mimeType == "" {
			mimeType = domain.ContentTypePDF
		}
		prompt = extractor.BuildInvoicePrompt("")
		parts = append(parts,
			&genai.Part{InlineData: &genai.Blob{MIMEType: mimeType, Data: input.Document}},
			&genai.Part{Text: prompt},
		)
	}

	contents := []*genai.Content{{Role: "user", Parts: parts}}

	callCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	resp, err := e.client.Models.GenerateContent(callCtx, e.model, contents, &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		return nil, classify(err)
	}

	text, err := responseText(resp)
	if err != nil {
		return nil, err
	}
	return &port.RawResponse{
		Text:       text,
		Model:      e.model,
		PromptUsed: prompt,
	}, nil
}

// responseText concatenates the text parts of the first candidate.
func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", extractor.NewError(extractor.KindEmptyResponse, providerName, errors.New("no candidates"))
	}
	cand := resp.Candidates[0]
	if cand == nil || cand.Content == nil {
		return "", extractor.NewError(extractor.KindMalformedEnvelope, providerName, errors.New("candidate has no content"))
	}
	var sb strings.Builder
	for _, p := range cand.Content.Parts {
		if p != nil {
			sb.WriteString(p.Text)
		}
	}
	if sb.Len() == 0 {
		return "", extractor.NewError(extractor.KindMalformedEnvelope, providerName, errors.New("candidate has no text parts"))
	}
	return sb.String(), nil
}

func classify(err error) error {
	code := 0
	var apiErr genai.APIError
	var apiErrPtr *genai.APIError
	switch {
	case errors.As(err, &apiErr):
		code = apiErr.Code
	case errors.As(err, &apiErrPtr):
		code = apiErrPtr.Code
	}
	wrapped := fmt.Errorf("calling gemini API: %w", err)
	if code == http.StatusTooManyRequests {
		return extractor.NewRateLimitError(providerName, wrapped, 0)
	}
	return extractor.ClassifyCallError(providerName, wrapped)
}
