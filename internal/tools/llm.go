package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sashabaranov/go-openai"

	"contextcraft/internal/logging"
)

// DefaultMaxRounds bounds the number of tool-calling rounds per prompt.
const DefaultMaxRounds = 8

// DefaultSystemPrompt frames the assistant for the ask command.
const DefaultSystemPrompt = `You are a trading assistant for an Indian equities account on Zerodha.
Use the tools to look up holdings, positions, orders and market data before answering.
Only call the trade tool when the user explicitly asks to place an order, and repeat the
order details back in your answer. Quote numbers exactly as the tools return them.`

// ToolRunner executes a named tool with JSON arguments.
type ToolRunner interface {
	ExecuteTool(ctx context.Context, toolName string, args json.RawMessage) (string, error)
}

// OpenAIClient drives a chat completion loop with tool calls.
type OpenAIClient struct {
	client    *openai.Client
	model     string
	maxRounds int
}

// LLMConfig configures the OpenAI client.
type LLMConfig struct {
	APIKey    string
	Model     string
	BaseURL   string
	MaxRounds int
}

// NewOpenAIClient creates a new OpenAI client.
func NewOpenAIClient(cfg LLMConfig) *OpenAIClient {
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	if cfg.Model == "" {
		cfg.Model = openai.GPT4oMini
	}
	if cfg.MaxRounds <= 0 {
		cfg.MaxRounds = DefaultMaxRounds
	}
	return &OpenAIClient{
		client:    openai.NewClientWithConfig(oc),
		model:     cfg.Model,
		maxRounds: cfg.MaxRounds,
	}
}

// ToolCallLog represents a single tool call in the chain of thought.
type ToolCallLog struct {
	ToolName  string `json:"tool"`
	Arguments string `json:"arguments"`
	Result    string `json:"result"`
}

// ChainOfThought captures the tool calls made while answering.
type ChainOfThought struct {
	ToolCalls []ToolCallLog `json:"tool_calls"`
	Response  string        `json:"response"`
}

// CompleteWithTools answers userPrompt, executing tool calls until the model
// replies with plain content or the round limit is reached.
func (c *OpenAIClient) CompleteWithTools(ctx context.Context, systemPrompt, userPrompt string, tools []openai.Tool, runner ToolRunner) (*ChainOfThought, error) {
	logger := logging.FromContext(ctx)

	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
		{Role: openai.ChatMessageRoleUser, Content: userPrompt},
	}

	cot := &ChainOfThought{
		ToolCalls: make([]ToolCallLog, 0),
	}

	for i := 0; i < c.maxRounds; i++ {
		resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:    c.model,
			Messages: messages,
			Tools:    tools,
		})
		if err != nil {
			return nil, fmt.Errorf("openai completion failed: %w", err)
		}
		if len(resp.Choices) == 0 {
			return nil, fmt.Errorf("no response from openai")
		}

		choice := resp.Choices[0]
		if len(choice.Message.ToolCalls) == 0 {
			cot.Response = choice.Message.Content
			return cot, nil
		}

		messages = append(messages, choice.Message)

		for _, toolCall := range choice.Message.ToolCalls {
			out, err := runner.ExecuteTool(ctx, toolCall.Function.Name, json.RawMessage(toolCall.Function.Arguments))
			if err != nil && out == "" {
				out = fmt.Sprintf("Error executing tool %s: %v", toolCall.Function.Name, err)
			}
			logger.Debug().
				Str("tool", toolCall.Function.Name).
				Int("round", i+1).
				Msg("Tool call completed")

			cot.ToolCalls = append(cot.ToolCalls, ToolCallLog{
				ToolName:  toolCall.Function.Name,
				Arguments: toolCall.Function.Arguments,
				Result:    out,
			})

			messages = append(messages, openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				Content:    out,
				ToolCallID: toolCall.ID,
			})
		}
	}

	return cot, fmt.Errorf("exceeded maximum of %d tool call rounds", c.maxRounds)
}
