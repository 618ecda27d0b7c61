// Package openai adapts OpenAI-compatible chat-completion endpoints to the
// llm.Client contract.
package openai

import (
	"context"
	"errors"
	"fmt"

	"github.com/calcagent/calcagent/internal/llm"
	openai "github.com/sashabaranov/go-openai"
)

const providerName = "openai"

// Client wraps go-openai. It never retries; the caller owns retry policy.
type Client struct {
	client *openai.Client
	model  string
}

var _ llm.Client = (*Client)(nil)

// NewClient creates a client sending apiKey as a bearer credential.
// An empty baseURL uses the OpenAI endpoint; anything else targets an
// OpenAI-compatible gateway.
func NewClient(apiKey, model, baseURL string) *Client {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &Client{
		client: openai.NewClientWithConfig(config),
		model:  model,
	}
}

func (c *Client) Provider() string { return providerName }

func (c *Client) Model() string { return c.model }

func (c *Client) Chat(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
	ocReq := openai.ChatCompletionRequest{
		Model:    c.model,
		Messages: convertMessages(req.Messages),
	}
	if len(req.Tools) > 0 {
		ocReq.Tools = convertTools(req.Tools)
		if req.ToolChoice != "" {
			ocReq.ToolChoice = req.ToolChoice
		}
	}

	resp, err := c.client.CreateChatCompletion(ctx, ocReq)
	if err != nil {
		return nil, convertError(err)
	}
	if len(resp.Choices) == 0 {
		return nil, llm.ErrEmptyResponse
	}
	return convertResponse(resp.Choices[0]), nil
}

func convertMessages(msgs []llm.Message) []openai.ChatCompletionMessage {
	result := make([]openai.ChatCompletionMessage, len(msgs))
	for i, msg := range msgs {
		ocMsg := openai.ChatCompletionMessage{
			Role:    string(msg.Role),
			Content: msg.Content,
		}
		if len(msg.ToolCalls) > 0 {
			ocMsg.ToolCalls = make([]openai.ToolCall, len(msg.ToolCalls))
			for j, tc := range msg.ToolCalls {
				ocMsg.ToolCalls[j] = openai.ToolCall{
					ID:   tc.ID,
					Type: openai.ToolTypeFunction,
					Function: openai.FunctionCall{
						Name:      tc.Name,
						Arguments: tc.Arguments,
					},
				}
			}
		}
		if msg.Role == llm.RoleTool {
			ocMsg.ToolCallID = msg.ToolCallID
		}
		result[i] = ocMsg
	}
	return result
}

func convertTools(defs []llm.ToolDefinition) []openai.Tool {
	result := make([]openai.Tool, len(defs))
	for i, d := range defs {
		result[i] = openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        d.Name,
				Description: d.Description,
				Parameters:  d.Parameters,
			},
		}
	}
	return result
}

func convertResponse(choice openai.ChatCompletionChoice) *llm.ChatResponse {
	msg := choice.Message
	out := &llm.ChatResponse{
		Message: llm.Message{
			Role:    llm.RoleAssistant,
			Content: msg.Content,
		},
		FinishReason: string(choice.FinishReason),
	}
	for _, tc := range msg.ToolCalls {
		out.Message.ToolCalls = append(out.Message.ToolCalls, llm.ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}
	return out
}

// convertError maps go-openai failures onto llm.APIError so callers can tell
// throttling and billing problems apart from other outages.
func convertError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		code := ""
		if apiErr.Code != nil {
			code = fmt.Sprint(apiErr.Code)
		}
		if code == "" {
			code = apiErr.Type
		}
		return &llm.APIError{
			Provider:   providerName,
			StatusCode: apiErr.HTTPStatusCode,
			Code:       code,
			Message:    apiErr.Message,
			Err:        err,
		}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode != 0 {
		return &llm.APIError{
			Provider:   providerName,
			StatusCode: reqErr.HTTPStatusCode,
			Err:        err,
		}
	}
	return err
}
