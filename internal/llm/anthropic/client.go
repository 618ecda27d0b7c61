// Package anthropic adapts the Anthropic Messages API to the llm.Client
// contract.
package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/calcagent/calcagent/internal/llm"
)

const (
	providerName     = "anthropic"
	defaultModel     = "claude-sonnet-4-6"
	defaultMaxTokens = 1024
)

// Client wraps the Anthropic SDK with SDK-level retries disabled
type Client struct {
	client    *anthropic.Client
	model     string
	maxTokens int
}

var _ llm.Client = (*Client)(nil)

// NewClient creates a client for Anthropic or a compatible proxy (baseURL)
func NewClient(apiKey, model, baseURL string) *Client {
	if model == "" {
		model = defaultModel
	}
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &Client{
		client:    anthropic.NewClient(opts...),
		model:     model,
		maxTokens: defaultMaxTokens,
	}
}

func (c *Client) Provider() string { return providerName }

func (c *Client) Model() string { return c.model }

func (c *Client) Chat(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
	system, messages := convertMessages(req.Messages)

	params := anthropic.MessageNewParams{
		Model:     anthropic.F(anthropic.Model(c.model)),
		MaxTokens: anthropic.F(int64(c.maxTokens)),
		Messages:  anthropic.F(messages),
	}
	if system != "" {
		params.System = anthropic.F([]anthropic.TextBlockParam{
			anthropic.NewTextBlock(system),
		})
	}
	// The Messages API rejects tool_use/tool_result blocks unless the tools
	// are declared, so round trips without definitions declare the tools the
	// conversation references.
	defs := req.Tools
	if len(defs) == 0 {
		defs = referencedTools(req.Messages)
	}
	if len(defs) > 0 {
		params.Tools = anthropic.F(convertTools(defs))
	}

	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return nil, convertError(err)
	}
	if len(resp.Content) == 0 && resp.StopReason == "" {
		return nil, llm.ErrEmptyResponse
	}

	out := &llm.ChatResponse{
		Message:      llm.Message{Role: llm.RoleAssistant},
		FinishReason: string(resp.StopReason),
	}
	for _, block := range resp.Content {
		switch b := block.AsUnion().(type) {
		case anthropic.TextBlock:
			out.Message.Content += b.Text
		case anthropic.ToolUseBlock:
			out.Message.ToolCalls = append(out.Message.ToolCalls, llm.ToolCall{
				ID:        b.ID,
				Name:      b.Name,
				Arguments: string(b.Input),
			})
		}
	}
	return out, nil
}

// convertMessages splits out the system prompt and folds tool results into
// user turns, as the Messages API expects.
func convertMessages(msgs []llm.Message) (string, []anthropic.MessageParam) {
	var system string
	var out []anthropic.MessageParam
	var pendingResults []anthropic.ContentBlockParamUnion

	flush := func() {
		if len(pendingResults) > 0 {
			out = append(out, anthropic.NewUserMessage(pendingResults...))
			pendingResults = nil
		}
	}

	for _, m := range msgs {
		switch m.Role {
		case llm.RoleSystem:
			if system != "" {
				system += "\n\n"
			}
			system += m.Content
		case llm.RoleTool:
			pendingResults = append(pendingResults, anthropic.NewToolResultBlock(m.ToolCallID, m.Content, false))
		case llm.RoleAssistant:
			flush()
			var blocks []anthropic.ContentBlockParamUnion
			if m.Content != "" {
				blocks = append(blocks, anthropic.NewTextBlock(m.Content))
			}
			for _, tc := range m.ToolCalls {
				blocks = append(blocks, anthropic.NewToolUseBlockParam(tc.ID, tc.Name, toolInput(tc.Arguments)))
			}
			out = append(out, anthropic.NewAssistantMessage(blocks...))
		default:
			flush()
			out = append(out, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		}
	}
	flush()
	return system, out
}

// toolInput passes the model's argument payload back unmodified when it is
// valid JSON.
func toolInput(args string) interface{} {
	if json.Valid([]byte(args)) {
		return json.RawMessage(args)
	}
	return map[string]interface{}{}
}

func referencedTools(msgs []llm.Message) []llm.ToolDefinition {
	seen := make(map[string]bool)
	var defs []llm.ToolDefinition
	for _, m := range msgs {
		for _, tc := range m.ToolCalls {
			if seen[tc.Name] {
				continue
			}
			seen[tc.Name] = true
			defs = append(defs, llm.ToolDefinition{
				Name:       tc.Name,
				Parameters: map[string]interface{}{"type": "object"},
			})
		}
	}
	return defs
}

func convertTools(defs []llm.ToolDefinition) []anthropic.ToolUnionUnionParam {
	params := make([]anthropic.ToolUnionUnionParam, len(defs))
	for i, d := range defs {
		schema := map[string]interface{}{"type": "object"}
		if props, ok := d.Parameters["properties"]; ok {
			schema["properties"] = props
		}
		if required, ok := d.Parameters["required"]; ok {
			schema["required"] = required
		}
		tp := anthropic.ToolParam{
			Name:        anthropic.String(d.Name),
			InputSchema: anthropic.F[interface{}](schema),
		}
		if d.Description != "" {
			tp.Description = anthropic.String(d.Description)
		}
		params[i] = tp
	}
	return params
}

// errorEnvelope is the Messages API error body
type errorEnvelope struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// convertError maps SDK failures onto llm.APIError, keeping the provider's
// error type as the code. An exhausted credit balance arrives as a plain
// invalid_request_error and is reported as billing_error.
func convertError(err error) error {
	var apiErr *anthropic.Error
	if !errors.As(err, &apiErr) {
		return err
	}
	out := &llm.APIError{
		Provider:   providerName,
		StatusCode: apiErr.StatusCode,
		Err:        err,
	}
	var env errorEnvelope
	if json.Unmarshal([]byte(apiErr.JSON.RawJSON()), &env) == nil {
		out.Code = env.Error.Type
		out.Message = env.Error.Message
	}
	if strings.Contains(strings.ToLower(out.Message), "credit balance") {
		out.Code = "billing_error"
	}
	return out
}
