package openai

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"time"

	oai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"

	"excellerator/internal/config"
	"excellerator/internal/gateway"
	"excellerator/internal/port"
)

const providerName = "openai"

func init() {
	gateway.RegisterProvider(providerName, func(cfg *config.ModelProviderConfig) (port.ModelGateway, error) {
		return NewGateway(cfg), nil
	})
}

// Gateway implements port.ModelGateway using the OpenAI Chat Completions API.
type Gateway struct {
	client          oai.Client
	model           string
	temperature     float64
	maxOutputTokens int
}

// NewGateway creates an OpenAI-backed model gateway.
func NewGateway(cfg *config.ModelProviderConfig) *Gateway {
	return newGateway(cfg, "")
}

// NewGatewayWithEndpoint creates a gateway pointing at a custom base URL (for testing).
func NewGatewayWithEndpoint(cfg *config.ModelProviderConfig, baseURL string) *Gateway {
	return newGateway(cfg, baseURL)
}

func newGateway(cfg *config.ModelProviderConfig, baseURL string) *Gateway {
	model := cfg.DefaultModel
	if model == "" {
		model = "gpt-4o"
	}
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout == 0 {
		timeout = 120 * time.Second
	}
	maxTokens := cfg.MaxOutputTokens
	if maxTokens == 0 {
		maxTokens = 16384
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithRequestTimeout(timeout),
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &Gateway{
		client:          oai.NewClient(opts...),
		model:           model,
		temperature:     cfg.Temperature,
		maxOutputTokens: maxTokens,
	}
}

func (g *Gateway) Generate(ctx context.Context, input port.GenerateInput) (*port.GenerateOutput, error) {
	parts, err := buildContentParts(input)
	if err != nil {
		return nil, fmt.Errorf("building content parts: %w", err)
	}

	resp, err := g.client.Chat.Completions.New(ctx, oai.ChatCompletionNewParams{
		Model:               shared.ChatModel(g.model),
		Messages:            []oai.ChatCompletionMessageParamUnion{oai.UserMessage(parts)},
		Temperature:         oai.Float(g.temperature),
		MaxCompletionTokens: oai.Int(int64(g.maxOutputTokens)),
		ResponseFormat: oai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
	})
	if err != nil {
		var apiErr *oai.Error
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusTooManyRequests {
			retryAfter := 0
			if apiErr.Response != nil {
				retryAfter = gateway.ParseRetryAfterHeader(apiErr.Response.Header.Get("Retry-After"))
			}
			return nil, gateway.NewRateLimitError(providerName, fmt.Errorf("openai API error: %w", err), retryAfter)
		}
		return nil, fmt.Errorf("calling openai API: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("empty response from API: no choices")
	}
	choice := resp.Choices[0]
	if choice.FinishReason == "length" {
		return nil, fmt.Errorf("output truncated (finish_reason: length): response exceeded output token limit")
	}
	if choice.Message.Content == "" {
		return nil, fmt.Errorf("empty response from API: no content")
	}

	model := resp.Model
	if model == "" {
		model = g.model
	}
	return &port.GenerateOutput{Text: choice.Message.Content, Model: model}, nil
}

func buildContentParts(input port.GenerateInput) ([]oai.ChatCompletionContentPartUnionParam, error) {
	var parts []oai.ChatCompletionContentPartUnionParam

	if att := input.Attachment; att != nil {
		dataURI := "data:" + att.ContentType + ";base64," + base64.StdEncoding.EncodeToString(att.Data)
		switch att.ContentType {
		case "image/jpeg", "image/png", "image/webp":
			parts = append(parts, oai.ImageContentPart(oai.ChatCompletionContentPartImageImageURLParam{
				URL: dataURI,
			}))
		case "application/pdf":
			name := att.FileName
			if name == "" {
				name = "document.pdf"
			}
			parts = append(parts, oai.FileContentPart(oai.ChatCompletionContentPartFileFileParam{
				FileData: oai.String(dataURI),
				Filename: oai.String(name),
			}))
		default:
			return nil, fmt.Errorf("unsupported content type for openai: %s", att.ContentType)
		}
	}

	parts = append(parts, oai.TextContentPart(input.Prompt))
	return parts, nil
}
