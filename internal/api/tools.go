package api

import (
	"github.com/anthropics/anthropic-sdk-go"

	"github.com/ShayCichocki/foundry/internal/llm"
)

// ToolDefinitions converts backend-neutral tool specs to Claude API tool params.
func ToolDefinitions(specs []llm.ToolSpec) []anthropic.ToolUnionParam {
	if len(specs) == 0 {
		return nil
	}
	tools := make([]anthropic.ToolUnionParam, 0, len(specs))
	for _, spec := range specs {
		properties := spec.Properties
		if properties == nil {
			properties = map[string]interface{}{}
		}
		tools = append(tools, anthropic.ToolUnionParam{
			OfTool: &anthropic.ToolParam{
				Name:        spec.Name,
				Description: anthropic.String(spec.Description),
				InputSchema: anthropic.ToolInputSchemaParam{
					Properties: properties,
					Required:   spec.Required,
				},
			},
		})
	}
	return tools
}

// toolChoice forces the model to call the named tool.
func toolChoice(name string) anthropic.ToolChoiceUnionParam {
	return anthropic.ToolChoiceUnionParam{
		OfTool: &anthropic.ToolChoiceToolParam{Name: name},
	}
}

// messageParams converts conversation turns to Claude API message params.
// Assistant tool calls become tool_use blocks and user tool results become
// tool_result blocks.
func messageParams(msgs []llm.Message) []anthropic.MessageParam {
	params := make([]anthropic.MessageParam, 0, len(msgs))
	for _, m := range msgs {
		var blocks []anthropic.ContentBlockParamUnion

		switch m.Role {
		case llm.RoleAssistant:
			if m.Content != "" {
				blocks = append(blocks, anthropic.NewTextBlock(m.Content))
			}
			for _, call := range m.ToolCalls {
				input := call.Arguments
				if len(input) == 0 {
					input = []byte("{}")
				}
				blocks = append(blocks, anthropic.NewToolUseBlock(call.ID, input, call.Name))
			}
			if len(blocks) == 0 {
				continue
			}
			params = append(params, anthropic.NewAssistantMessage(blocks...))
		default:
			// tool_result blocks must precede any text in a user turn.
			for _, res := range m.ToolResults {
				blocks = append(blocks, anthropic.NewToolResultBlock(res.ToolCallID, res.Content, res.IsError))
			}
			if m.Content != "" {
				blocks = append(blocks, anthropic.NewTextBlock(m.Content))
			}
			if len(blocks) == 0 {
				continue
			}
			params = append(params, anthropic.NewUserMessage(blocks...))
		}
	}
	return params
}
