// ABOUTME: OpenAI client for tag suggestions, link summaries, and embeddings
// ABOUTME: Uses text-embedding-3-small for embeddings, gpt-4o-mini for completions (configurable)
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/harper/stash/internal/util"
	openai "github.com/sashabaranov/go-openai"
)

const (
	// DefaultChatModel is the default model for chat completions
	DefaultChatModel = "gpt-4o-mini"
	// DefaultEmbeddingModel is the default model for embeddings
	DefaultEmbeddingModel = openai.SmallEmbedding3
	// MaxSuggestedTags caps the tags returned by SuggestTags
	MaxSuggestedTags = 3
)

// ErrEmptyResponse is returned when the API answers without usable content
var ErrEmptyResponse = errors.New("empty response from model")

// ClientConfig holds configuration for the OpenAI client
type ClientConfig struct {
	APIKey         string
	BaseURL        string
	ChatModel      string
	EmbeddingModel openai.EmbeddingModel
	Timeout        time.Duration
	MaxRetries     int
	RetryDelay     time.Duration
}

// DefaultConfig returns the default client configuration. Failed calls are
// not retried unless MaxRetries is raised.
func DefaultConfig(apiKey string) *ClientConfig {
	return &ClientConfig{
		APIKey:         apiKey,
		ChatModel:      DefaultChatModel,
		EmbeddingModel: DefaultEmbeddingModel,
		Timeout:        30 * time.Second,
		MaxRetries:     0,
		RetryDelay:     2 * time.Second,
	}
}

// OpenAIClient wraps the OpenAI API client with per-call timeouts
type OpenAIClient struct {
	client         *openai.Client
	chatModel      string
	embeddingModel openai.EmbeddingModel
	timeout        time.Duration
	retry          util.RetryPolicy
}

// NewOpenAIClient creates a new OpenAI client with the given API key using default configuration
func NewOpenAIClient(apiKey string) (*OpenAIClient, error) {
	return NewOpenAIClientWithConfig(DefaultConfig(apiKey))
}

// NewOpenAIClientWithConfig creates a new OpenAI client with custom configuration
func NewOpenAIClientWithConfig(config *ClientConfig) (*OpenAIClient, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	oc := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		oc.BaseURL = config.BaseURL
	}

	chatModel := config.ChatModel
	if chatModel == "" {
		chatModel = DefaultChatModel
	}
	embeddingModel := config.EmbeddingModel
	if embeddingModel == "" {
		embeddingModel = DefaultEmbeddingModel
	}
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &OpenAIClient{
		client:         openai.NewClientWithConfig(oc),
		chatModel:      chatModel,
		embeddingModel: embeddingModel,
		timeout:        timeout,
		retry: util.RetryPolicy{
			MaxRetries: config.MaxRetries,
			BaseDelay:  config.RetryDelay,
			Retryable:  isRetryable,
		},
	}, nil
}

// GetClient returns the underlying OpenAI client for direct use
func (c *OpenAIClient) GetClient() *openai.Client {
	return c.client
}

// SuggestTags asks for at most three tags describing a link: one broad
// category plus the most important topics.
func (c *OpenAIClient) SuggestTags(ctx context.Context, url, title, description string) ([]string, error) {
	prompt := fmt.Sprintf(`Content Analysis Request:
URL: %s
Title: %s
Description: %s

Task: Analyze the content and provide a MAXIMUM of 3 highly relevant tags/categories.
1. A Broad Category (e.g. Music, Education, Entertainment, Tech, Cooking).
2. Specific Tags/Topics (only the most important 1-2).
IMPORTANT:
- DO NOT include people's names, usernames, or any personal identifiers as tags.
- DO NOT include multi-word tags containing the word "and" (e.g., avoid "Black and White").

Return ONLY a JSON array of strings.
Example: ["Music", "Pop"] or ["Tech", "React", "Frontend"]`, url, title, description)

	content, err := c.complete(ctx, prompt, 0.3)
	if err != nil {
		return nil, fmt.Errorf("failed to suggest tags: %w", err)
	}

	tags, err := ParseTagList(content)
	if err != nil {
		return nil, fmt.Errorf("failed to suggest tags: %w", err)
	}
	return tags, nil
}

// GenerateSummary asks for three to five plain bullet points about a link
func (c *OpenAIClient) GenerateSummary(ctx context.Context, title, url, description string) (string, error) {
	prompt := fmt.Sprintf(`Summarize the following content:
Title: %s
URL: %s
Description: %s

Format:
- 3 to 5 concise bullet points.
- Plain, actionable language.
- Focus on key takeaways.
- DO NOT use markdown headers, just the bullet points.`, title, url, description)

	content, err := c.complete(ctx, prompt, 0.5)
	if err != nil {
		return "", fmt.Errorf("failed to generate summary: %w", err)
	}

	summary := strings.TrimSpace(content)
	if summary == "" {
		return "", fmt.Errorf("failed to generate summary: %w", ErrEmptyResponse)
	}
	return summary, nil
}

// GenerateEmbedding generates an embedding vector for text
func (c *OpenAIClient) GenerateEmbedding(ctx context.Context, text string) ([]float64, error) {
	var embedding []float64

	err := c.retry.Do(ctx, func(int) error {
		callCtx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()

		resp, err := c.client.CreateEmbeddings(callCtx, openai.EmbeddingRequestStrings{
			Input: []string{text},
			Model: c.embeddingModel,
		})
		if err != nil {
			return err
		}
		if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
			return ErrEmptyResponse
		}

		// Convert []float32 to []float64
		embedding32 := resp.Data[0].Embedding
		embedding = make([]float64, len(embedding32))
		for i, v := range embedding32 {
			embedding[i] = float64(v)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate embedding: %w", err)
	}
	return embedding, nil
}

// complete runs a single-message chat completion and returns its text
func (c *OpenAIClient) complete(ctx context.Context, prompt string, temperature float32) (string, error) {
	var content string

	err := c.retry.Do(ctx, func(int) error {
		callCtx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()

		resp, err := c.client.CreateChatCompletion(callCtx, openai.ChatCompletionRequest{
			Model: c.chatModel,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
			Temperature: temperature,
		})
		if err != nil {
			return err
		}
		if len(resp.Choices) == 0 {
			return ErrEmptyResponse
		}

		content = resp.Choices[0].Message.Content
		return nil
	})
	return content, err
}

// ParseTagList extracts a JSON string array from a model reply, tolerating
// markdown code fences. Entries are trimmed, blanks dropped, and the list is
// capped at MaxSuggestedTags.
func ParseTagList(content string) ([]string, error) {
	clean := strings.ReplaceAll(content, "```json", "")
	clean = strings.ReplaceAll(clean, "```", "")
	clean = strings.TrimSpace(clean)

	var raw []interface{}
	if err := json.Unmarshal([]byte(clean), &raw); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}

	tags := make([]string, 0, len(raw))
	for _, item := range raw {
		s, ok := item.(string)
		if !ok {
			continue
		}
		if s = strings.TrimSpace(s); s != "" {
			tags = append(tags, s)
		}
		if len(tags) == MaxSuggestedTags {
			break
		}
	}
	return tags, nil
}

// isRetryable retries rate limits, server errors, and transport failures
func isRetryable(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == http.StatusTooManyRequests || apiErr.HTTPStatusCode >= 500
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode == http.StatusTooManyRequests || reqErr.HTTPStatusCode >= 500
	}
	return true
}
