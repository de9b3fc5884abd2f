package openai

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/zatekoja/articleforge/internal/domain/providers"
	"github.com/zatekoja/articleforge/internal/infrastructure/clients/httpclient"
	"github.com/zatekoja/articleforge/pkg/config"
)

const (
	defaultBaseURL    = "https://api.openai.com/v1"
	defaultModel      = "gpt-4.1"
	defaultImageModel = "gpt-image-1"
)

// Client calls the OpenAI Responses and Images APIs.
type Client struct {
	apiKey string
	model  string
	http   *httpclient.Client
}

// NewClient creates a new OpenAI client. A missing key is reported per call as auth_missing.
func NewClient(cfg config.ProviderConfig, doer httpclient.Doer) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	model := cfg.Model
	if model == "" {
		model = defaultModel
	}

	return &Client{
		apiKey: cfg.APIKey,
		model:  model,
		http: httpclient.New(httpclient.Options{
			Name:    "openai",
			BaseURL: baseURL,
			Doer:    doer,
			Timeout: cfg.Timeout,
			RPM:     cfg.RPM,
			Auth:    httpclient.Bearer(cfg.APIKey),
		}),
	}
}

// Provider returns the provider name
func (c *Client) Provider() string { return "openai" }

// Model returns the configured model
func (c *Client) Model() string { return c.model }

// Close releases the rate limiter
func (c *Client) Close() { c.http.Close() }

type responseContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type responseOutput struct {
	Content []responseContent `json:"content"`
}

type responseEnvelope struct {
	Output []responseOutput `json:"output"`
}

// Complete sends a system and user prompt to the Responses API and returns the first output text.
func (c *Client) Complete(ctx context.Context, system, user string, maxTokens int) (string, *providers.ProviderError) {
	if c.apiKey == "" {
		return "", httpclient.MissingCredential("openai")
	}
	if maxTokens <= 0 {
		maxTokens = 2000
	}

	payload := map[string]interface{}{
		"model": c.model,
		"input": []map[string]string{
			{"role": "system", "content": system},
			{"role": "user", "content": user},
		},
		"temperature":       0.4,
		"max_output_tokens": maxTokens,
	}

	start := time.Now()
	var envelope responseEnvelope
	perr := c.http.DoJSON(ctx, httpclient.Request{Method: "POST", Path: "/responses", Body: payload}, &envelope)
	if perr != nil {
		recordOpenAIMetric(ctx, c.model, perr.StatusCode, time.Since(start), perr)
		return "", perr
	}

	var text string
	for _, out := range envelope.Output {
		for _, content := range out.Content {
			if content.Type == "output_text" && content.Text != "" {
				text = content.Text
				break
			}
		}
		if text != "" {
			break
		}
	}
	if text == "" {
		perr := httpclient.SchemaError("openai response missing output text")
		recordOpenAIMetric(ctx, c.model, 200, time.Since(start), perr)
		return "", perr
	}

	recordOpenAIMetric(ctx, c.model, 200, time.Since(start), nil)
	return StripCodeFence(text), nil
}

type imageEnvelope struct {
	Data []struct {
		URL           string `json:"url"`
		B64JSON       string `json:"b64_json"`
		RevisedPrompt string `json:"revised_prompt"`
	} `json:"data"`
}

// Image is one generated image; exactly one of URL or B64 is set
type Image struct {
	URL           string
	B64           string
	RevisedPrompt string
}

// GenerateImage calls the Images API
func (c *Client) GenerateImage(ctx context.Context, model, prompt, size string) (*Image, *providers.ProviderError) {
	if c.apiKey == "" {
		return nil, httpclient.MissingCredential("openai")
	}
	if model == "" {
		model = defaultImageModel
	}
	if size == "" {
		size = "1536x1024"
	}

	start := time.Now()
	var envelope imageEnvelope
	perr := c.http.DoJSON(ctx, httpclient.Request{
		Method: "POST",
		Path:   "/images/generations",
		Body:   map[string]interface{}{"model": model, "prompt": prompt, "size": size, "n": 1},
	}, &envelope)
	if perr != nil {
		recordOpenAIMetric(ctx, model, perr.StatusCode, time.Since(start), perr)
		return nil, perr
	}
	if len(envelope.Data) == 0 || (envelope.Data[0].URL == "" && envelope.Data[0].B64JSON == "") {
		perr := httpclient.SchemaError("openai image response has no data")
		recordOpenAIMetric(ctx, model, 200, time.Since(start), perr)
		return nil, perr
	}

	recordOpenAIMetric(ctx, model, 200, time.Since(start), nil)
	d := envelope.Data[0]
	return &Image{URL: d.URL, B64: d.B64JSON, RevisedPrompt: d.RevisedPrompt}, nil
}

// StripCodeFence removes a surrounding markdown code block
func StripCodeFence(text string) string {
	cleaned := strings.TrimSpace(text)
	if strings.HasPrefix(cleaned, "```json") {
		cleaned = strings.TrimPrefix(cleaned, "```json")
		cleaned = strings.TrimSuffix(cleaned, "```")
	} else if strings.HasPrefix(cleaned, "```") {
		cleaned = strings.TrimPrefix(cleaned, "```")
		cleaned = strings.TrimSuffix(cleaned, "```")
	}
	return strings.TrimSpace(cleaned)
}

type openAIMetrics struct {
	requestCount    metric.Int64Counter
	requestDuration metric.Float64Histogram
	requestErrors   metric.Int64Counter
}

var (
	openaiMetricsOnce sync.Once
	openaiMetrics     *openAIMetrics
)

func ensureOpenAIMetrics() *openAIMetrics {
	openaiMetricsOnce.Do(func() {
		meter := otel.Meter("github.com/zatekoja/articleforge/openai")

		requestCount, err := meter.Int64Counter(
			"ai.openai.request.count",
			metric.WithDescription("Number of OpenAI requests"),
		)
		if err != nil {
			return
		}
		requestDuration, err := meter.Float64Histogram(
			"ai.openai.request.duration",
			metric.WithDescription("OpenAI request duration in milliseconds"),
			metric.WithUnit("ms"),
		)
		if err != nil {
			return
		}
		requestErrors, err := meter.Int64Counter(
			"ai.openai.request.errors",
			metric.WithDescription("Number of OpenAI request errors"),
		)
		if err != nil {
			return
		}
		openaiMetrics = &openAIMetrics{
			requestCount:    requestCount,
			requestDuration: requestDuration,
			requestErrors:   requestErrors,
		}
	})
	return openaiMetrics
}

func recordOpenAIMetric(ctx context.Context, model string, statusCode int, duration time.Duration, perr *providers.ProviderError) {
	m := ensureOpenAIMetrics()
	if m == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("ai.provider", "openai"),
		attribute.String("ai.model", model),
	}
	if statusCode > 0 {
		attrs = append(attrs, attribute.Int("http.status_code", statusCode))
	}

	m.requestCount.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.requestDuration.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))
	if perr != nil {
		m.requestErrors.Add(ctx, 1, metric.WithAttributes(append(attrs, attribute.String("error.kind", string(perr.Kind)))...))
	}
}
