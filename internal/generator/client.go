package generator

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/param"
)

// LLMClient is the interface both generator implementations satisfy.
type LLMClient interface {
	Generate(ctx context.Context, systemPrompt string, userPrompt string) (*LLMResponse, error)
	// GenerateStream delivers response text incrementally through onText and
	// returns the complete response once the stream ends.
	GenerateStream(ctx context.Context, systemPrompt string, userPrompt string, onText func(chunk string)) (*LLMResponse, error)
}

// LLMResponse holds the raw response content and token usage.
type LLMResponse struct {
	Content      string
	PromptTokens int
	OutputTokens int
}

// ── APIClient — Anthropic SDK (Production) ─────────────────

type APIClient struct {
	client *anthropic.Client
	model  string
}

func NewAPIClient(model string) *APIClient {
	client := anthropic.NewClient(
		option.WithAPIKey(os.Getenv("ANTHROPIC_API_KEY")),
	)
	return &APIClient{client: &client, model: model}
}

func (c *APIClient) params(systemPrompt, userPrompt string) anthropic.MessageNewParams {
	return anthropic.MessageNewParams{
		Model:       anthropic.Model(c.model),
		MaxTokens:   4096,
		Temperature: param.NewOpt(0.8),
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt)),
		},
	}
}

func (c *APIClient) Generate(ctx context.Context, systemPrompt string, userPrompt string) (*LLMResponse, error) {
	message, err := c.callWithRetry(ctx, c.params(systemPrompt, userPrompt))
	if err != nil {
		return nil, err
	}

	var responseText string
	for _, block := range message.Content {
		if block.Type == "text" {
			responseText = block.Text
			break
		}
	}

	if responseText == "" {
		return nil, fmt.Errorf("no text content in API response")
	}

	return &LLMResponse{
		Content:      responseText,
		PromptTokens: int(message.Usage.InputTokens),
		OutputTokens: int(message.Usage.OutputTokens),
	}, nil
}

func (c *APIClient) GenerateStream(ctx context.Context, systemPrompt string, userPrompt string, onText func(chunk string)) (*LLMResponse, error) {
	stream := c.client.Messages.NewStreaming(ctx, c.params(systemPrompt, userPrompt))

	message := anthropic.Message{}
	for stream.Next() {
		event := stream.Current()
		if err := message.Accumulate(event); err != nil {
			return nil, fmt.Errorf("accumulate stream event: %w", err)
		}
		switch ev := event.AsAny().(type) {
		case anthropic.ContentBlockDeltaEvent:
			if ev.Delta.Text != "" && onText != nil {
				onText(ev.Delta.Text)
			}
		}
	}
	if err := stream.Err(); err != nil {
		return nil, fmt.Errorf("anthropic stream failed: %w", err)
	}

	var responseText string
	for _, block := range message.Content {
		if block.Type == "text" {
			responseText = block.Text
			break
		}
	}

	if responseText == "" {
		return nil, fmt.Errorf("no text content in streamed response")
	}

	return &LLMResponse{
		Content:      responseText,
		PromptTokens: int(message.Usage.InputTokens),
		OutputTokens: int(message.Usage.OutputTokens),
	}, nil
}

func (c *APIClient) callWithRetry(ctx context.Context, params anthropic.MessageNewParams) (*anthropic.Message, error) {
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		if attempt > 0 {
			sleepDuration := time.Duration(1<<uint(attempt)) * time.Second
			log.Printf("[generator] retrying Anthropic API call in %v (attempt %d)", sleepDuration, attempt+1)
			time.Sleep(sleepDuration)
		}

		message, err := c.client.Messages.New(ctx, params)
		if err == nil {
			return message, nil
		}
		lastErr = err
		log.Printf("[generator] Anthropic API attempt %d failed: %v", attempt+1, err)
	}
	return nil, fmt.Errorf("anthropic API failed after retries: %w", lastErr)
}

// ── MockClient — Local Development ─────────────────────────

type MockClient struct{}

func NewMockClient() *MockClient {
	return &MockClient{}
}

func (m *MockClient) Generate(ctx context.Context, systemPrompt string, userPrompt string) (*LLMResponse, error) {
	return &LLMResponse{
		Content:      buildMockJSON(5),
		PromptTokens: 800,
		OutputTokens: 1200,
	}, nil
}

func (m *MockClient) GenerateStream(ctx context.Context, systemPrompt string, userPrompt string, onText func(chunk string)) (*LLMResponse, error) {
	content := buildMockJSON(5)
	// Deliver in small chunks so streaming consumers see partial objects.
	for i := 0; i < len(content); i += 64 {
		end := i + 64
		if end > len(content) {
			end = len(content)
		}
		if onText != nil {
			onText(content[i:end])
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
	}
	return &LLMResponse{
		Content:      content,
		PromptTokens: 800,
		OutputTokens: 1200,
	}, nil
}

func buildMockJSON(count int) string {
	topics := []string{
		"photosynthesis", "the water cycle", "plate tectonics",
		"electric circuits", "cell division", "planetary orbits",
	}

	var sb strings.Builder
	sb.WriteString("[")
	for i := 0; i < count; i++ {
		topic := topics[i%len(topics)]
		if i > 0 {
			sb.WriteString(",")
		}
		if i%3 == 1 {
			sb.WriteString(fmt.Sprintf(`{"text":"[Mock] Is %s a continuous process?","type":"true-false","options":["True","False"],"correctAnswer":"True","explanation":"[Mock] The process described by %s operates continuously under normal conditions.","difficulty":"easy"}`,
				topic, topic))
			continue
		}
		sb.WriteString(fmt.Sprintf(`{"text":"[Mock] Which statement best describes %s?","type":"multiple-choice","options":["A process of energy transfer","An unrelated phenomenon","A historical event","A unit of measurement"],"correctAnswer":"A process of energy transfer","explanation":"[Mock] %s is best understood as a process of energy transfer between systems.","difficulty":"medium"}`,
			topic, topic))
	}
	sb.WriteString("]")
	return sb.String()
}
