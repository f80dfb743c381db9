// Package provider implements the LLM provider router (§4.8): picking
// between OpenAI and Anthropic per a website's rotation mode, and the
// thin per-provider chat clients used by the article generator, the
// topic engine's AI minting, and the website scanner's AI analyzer.
package provider

import (
	"context"
	"math/rand"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/toinevv/seo-system-blank/internal/errs"
	"github.com/toinevv/seo-system-blank/internal/httpclient"
	"github.com/toinevv/seo-system-blank/internal/models"
)

const (
	TagOpenAI    = "openai"
	TagAnthropic = "anthropic"
)

// Keys bundles the decrypted per-website (or platform fallback) LLM
// keys available for a run.
type Keys struct {
	OpenAIKey    string
	AnthropicKey string
}

// Choose implements the rotation contract of §4.8. purpose is carried
// for future per-purpose routing but does not affect today's rules.
func Choose(website *models.Website, keys Keys, purpose string) (tag string, key string, ok bool) {
	switch website.Generation.RotationMode {
	case models.RotationOpenAIOnly:
		if keys.OpenAIKey != "" {
			return TagOpenAI, keys.OpenAIKey, true
		}
		return "", "", false
	case models.RotationAnthropicOnly:
		if keys.AnthropicKey != "" {
			return TagAnthropic, keys.AnthropicKey, true
		}
		return "", "", false
	default: // rotate
		return chooseRotate(website.Generation.LastAPIUsed, keys)
	}
}

func chooseRotate(lastUsed string, keys Keys) (string, string, bool) {
	haveOpenAI := keys.OpenAIKey != ""
	haveAnthropic := keys.AnthropicKey != ""

	switch {
	case haveOpenAI && haveAnthropic:
		switch lastUsed {
		case TagOpenAI:
			return TagAnthropic, keys.AnthropicKey, true
		case TagAnthropic:
			return TagOpenAI, keys.OpenAIKey, true
		default:
			if rand.Intn(2) == 0 {
				return TagOpenAI, keys.OpenAIKey, true
			}
			return TagAnthropic, keys.AnthropicKey, true
		}
	case haveOpenAI:
		return TagOpenAI, keys.OpenAIKey, true
	case haveAnthropic:
		return TagAnthropic, keys.AnthropicKey, true
	default:
		return "", "", false
	}
}

// Other returns the provider tag that is not tag, and whether a key is
// available for it — used by the generator's single-retry fallback.
func Other(tag string, keys Keys) (string, string, bool) {
	if tag == TagOpenAI {
		if keys.AnthropicKey != "" {
			return TagAnthropic, keys.AnthropicKey, true
		}
		return "", "", false
	}
	if keys.OpenAIKey != "" {
		return TagOpenAI, keys.OpenAIKey, true
	}
	return "", "", false
}

const (
	generationTemperature = 0.7
	generationMaxTokens   = 4000

	anthropicAPIURL   = "https://api.anthropic.com/v1/messages"
	anthropicModel    = "claude-3-5-sonnet-20241022"
	anthropicVersion  = "2023-06-01"
	openaiModel       = "gpt-4-turbo-preview"
)

// Complete calls the given provider's chat/completion endpoint with a
// system and user message and returns the raw text completion. An
// empty completion is reported back to the caller as-is (the article
// generator decides whether that constitutes a GenerateError and
// triggers the other-provider fallback).
func Complete(ctx context.Context, tag, apiKey, systemPrompt, userPrompt string) (string, error) {
	switch tag {
	case TagOpenAI:
		return completeOpenAI(ctx, apiKey, systemPrompt, userPrompt)
	case TagAnthropic:
		return completeAnthropic(ctx, apiKey, systemPrompt, userPrompt)
	default:
		return "", &errs.GenerateError{Provider: tag, Reason: "unknown provider tag"}
	}
}

func completeOpenAI(ctx context.Context, apiKey, systemPrompt, userPrompt string) (string, error) {
	client := openai.NewClient(apiKey)
	resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       openaiModel,
		Temperature: generationTemperature,
		MaxTokens:   generationMaxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
	})
	if err != nil {
		return "", &errs.GenerateError{Provider: TagOpenAI, Reason: err.Error()}
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}

// anthropicRequest/anthropicResponse model just enough of the Messages
// API to extract a completion; the core has no Anthropic SDK in the
// example corpus, so this goes through the shared json_request funnel
// like every other outbound call (§4.2).
type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	System    string             `json:"system"`
	Messages  []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
}

func completeAnthropic(ctx context.Context, apiKey, systemPrompt, userPrompt string) (string, error) {
	req := anthropicRequest{
		Model:     anthropicModel,
		MaxTokens: generationMaxTokens,
		System:    systemPrompt,
		Messages: []anthropicMessage{
			{Role: "user", Content: userPrompt},
		},
	}
	headers := map[string]string{
		"x-api-key":         apiKey,
		"anthropic-version": anthropicVersion,
	}

	var out anthropicResponse
	if err := httpclient.JSONRequest(ctx, "POST", anthropicAPIURL, headers, req, 60*time.Second, &out); err != nil {
		return "", &errs.GenerateError{Provider: TagAnthropic, Reason: err.Error()}
	}
	if len(out.Content) == 0 {
		return "", nil
	}
	return out.Content[0].Text, nil
}
