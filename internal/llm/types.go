// Package llm defines the provider-neutral chat contract used to talk to the
// model endpoint. Provider adapters live in subpackages.
package llm

import "context"

// Role of a conversation message
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ToolChoiceAuto leaves tool selection to the model
const ToolChoiceAuto = "auto"

// ToolCall is a model's request to invoke a named tool. ID is an opaque
// correlation token echoed back in the matching tool-result message.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string // raw JSON
}

// Message is one entry of the conversation sent to the model
type Message struct {
	Role       Role
	Content    string
	ToolCalls  []ToolCall
	ToolCallID string // set on RoleTool messages
}

// ToolDefinition declares a callable tool to the model
type ToolDefinition struct {
	Name        string
	Description string
	Parameters  map[string]interface{}
}

// ChatRequest is a single round trip to the model endpoint
type ChatRequest struct {
	Messages   []Message
	Tools      []ToolDefinition
	ToolChoice string
}

// ChatResponse holds the assistant message of a round trip
type ChatResponse struct {
	Message      Message
	FinishReason string
}

// Client talks to a chat-completion endpoint. Implementations must not retry.
type Client interface {
	Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error)
	Provider() string
	Model() string
}

// NewUserMessage builds a user message
func NewUserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// NewSystemMessage builds a system message
func NewSystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// NewToolResultMessage builds the tool-result message answering call id
func NewToolResultMessage(id, content string) Message {
	return Message{Role: RoleTool, Content: content, ToolCallID: id}
}
