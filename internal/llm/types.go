// Package llm defines the backend-neutral text generation contract used by
// the assistant and planner. Concrete backends live elsewhere (internal/api).
package llm

import (
	"context"
	"encoding/json"
)

// Role identifies the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ToolCall is a model-declared request to run a named tool.
type ToolCall struct {
	ID        string
	Name      string
	Arguments json.RawMessage
}

// ToolResult is the outcome of one tool call, fed back to the model.
type ToolResult struct {
	ToolCallID string
	Name       string
	Content    string
	IsError    bool
}

// Message is one conversation turn. An assistant turn may carry tool calls;
// a user turn may carry tool results instead of text.
type Message struct {
	Role        Role
	Content     string
	ToolCalls   []ToolCall
	ToolResults []ToolResult
}

// ToolSpec describes a tool offered to the model. Properties is a JSON
// schema properties object.
type ToolSpec struct {
	Name        string
	Description string
	Properties  map[string]any
	Required    []string
}

// Request is a single generation call.
type Request struct {
	System    string
	Messages  []Message
	Tools     []ToolSpec
	ForceTool string // when set, the model must call this tool
	MaxTokens int
}

// Usage reports token consumption for one call.
type Usage struct {
	InputTokens  int64
	OutputTokens int64
}

// Response is the result of a generation call.
type Response struct {
	Content   string
	ToolCalls []ToolCall
	Usage     Usage
}

// HasToolCalls reports whether the model asked for any tool.
func (r Response) HasToolCalls() bool {
	return len(r.ToolCalls) > 0
}

// Generator is implemented by text generation backends.
type Generator interface {
	Generate(ctx context.Context, req Request) (Response, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, req Request) (Response, error)

// Generate calls f.
func (f GeneratorFunc) Generate(ctx context.Context, req Request) (Response, error) {
	return f(ctx, req)
}

// UserText builds a plain user message.
func UserText(text string) Message {
	return Message{Role: RoleUser, Content: text}
}

// AssistantText builds a plain assistant message.
func AssistantText(text string) Message {
	return Message{Role: RoleAssistant, Content: text}
}
