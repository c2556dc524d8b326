package translate

import (
	"github.com/chatbridge-dev/chatbridge/pkg/backend"
	"github.com/chatbridge-dev/chatbridge/pkg/schema"
)

// DefaultSchemaName names the forced function when a structured-output
// schema arrives without its own name.
const DefaultSchemaName = "structured_output"

// Params carries the protocol-neutral sampling and tool parameters of an
// inbound request. Protocol handlers fill it from their own wire shapes.
type Params struct {
	Model           string
	Temperature     *float64
	TopP            *float64
	MaxTokens       *int
	Stop            any
	Tools           []Tool
	FunctionCall    any
	ReasoningEffort string
	Stream          bool

	// ResponseFormat is the Chat Completions structured-output field,
	// TextFormat the Responses API one. At most one is set.
	ResponseFormat *ResponseFormat
	TextFormat     *TextFormat
}

// Transformer maps protocol-neutral parameters onto a backend request.
type Transformer struct {
	// PassModel forwards the client's model name instead of letting the
	// backend pick its default.
	PassModel bool
}

// Transform builds the parameter portion of a backend request. Messages
// are attached separately by the Normalizer. The returned Intent records
// whether structured output was emulated with a forced function.
func (t *Transformer) Transform(params Params) (backend.ChatRequest, Intent) {
	req := backend.ChatRequest{Stream: params.Stream}
	var intent Intent

	if t.PassModel {
		req.Model = params.Model
	}

	// Temperature zero (or absence) means greedy sampling, which the
	// backend expresses as top_p=0 with the temperature omitted.
	req.TopP = params.TopP
	switch {
	case params.Temperature == nil || *params.Temperature == 0:
		zero := 0.0
		req.TopP = &zero
	case *params.Temperature > 0:
		req.Temperature = params.Temperature
	}

	req.MaxTokens = params.MaxTokens
	req.Stop = params.Stop
	req.ReasoningEffort = params.ReasoningEffort

	req.Functions = ToolsToFunctions(params.Tools)
	req.FunctionCallMode = normalizeFunctionCallMode(params.FunctionCall)

	name, schemaVal, forced := structuredOutputSchema(params)
	if forced {
		req.Functions = append(req.Functions, backend.Function{
			Name:        name,
			Description: "Output response in structured format: " + name,
			Parameters:  schema.Resolve(schemaVal),
		})
		req.FunctionCallMode = map[string]any{"name": name}
		intent.SchemaName = name
	} else if rf := passthroughResponseFormat(params); rf != nil {
		req.ResponseFormat = rf
	}

	return req, intent
}

// ToolsToFunctions converts tool declarations to backend functions.
// Reference-laden schemas are resolved because the backend does not
// follow $ref, and reserved names are aliased. Tools without parameters
// (custom or freeform tools) are skipped.
func ToolsToFunctions(tools []Tool) []backend.Function {
	var functions []backend.Function
	for _, tool := range tools {
		var name, description string
		var params map[string]any
		switch {
		case tool.Function != nil:
			if tool.Function.Parameters == nil {
				continue
			}
			name = tool.Function.Name
			description = tool.Function.Description
			params = tool.Function.Parameters
		case tool.Parameters != nil:
			name = tool.Name
			description = tool.Description
			params = tool.Parameters
		default:
			continue
		}
		functions = append(functions, backend.Function{
			Name:        ToBackendToolName(name),
			Description: description,
			Parameters:  schema.Resolve(params),
		})
	}
	return functions
}

// normalizeFunctionCallMode maps a tool_choice or function_call value onto
// the backend's function_call field. Strings ("auto", "none") pass
// through; named selections are reduced to {"name": alias}.
func normalizeFunctionCallMode(v any) any {
	switch mode := v.(type) {
	case nil:
		return nil
	case string:
		return mode
	case map[string]any:
		if name, ok := mode["name"].(string); ok && name != "" {
			return map[string]any{"name": ToBackendToolName(name)}
		}
		if fn, ok := mode["function"].(map[string]any); ok {
			if name, ok := fn["name"].(string); ok && name != "" {
				return map[string]any{"name": ToBackendToolName(name)}
			}
		}
		return mode
	default:
		return v
	}
}

// structuredOutputSchema extracts a json_schema response format from
// either protocol shape. The schema name keeps the client's spelling so
// the synthesizer can match the backend's reply against it.
func structuredOutputSchema(params Params) (string, map[string]any, bool) {
	if rf := params.ResponseFormat; rf != nil && rf.Type == "json_schema" {
		name := DefaultSchemaName
		var s map[string]any
		if rf.JSONSchema != nil {
			if rf.JSONSchema.Name != "" {
				name = rf.JSONSchema.Name
			}
			s = rf.JSONSchema.Schema
		}
		return name, s, true
	}
	if tf := params.TextFormat; tf != nil && tf.Type == "json_schema" {
		if tf.JSONSchema != nil {
			name := DefaultSchemaName
			if tf.JSONSchema.Name != "" {
				name = tf.JSONSchema.Name
			}
			return name, tf.JSONSchema.Schema, true
		}
		name := DefaultSchemaName
		if tf.Name != "" {
			name = tf.Name
		}
		return name, tf.Schema, true
	}
	return "", nil, false
}

// passthroughResponseFormat forwards non-json_schema formats untouched.
func passthroughResponseFormat(params Params) any {
	if rf := params.ResponseFormat; rf != nil && rf.Type != "" {
		out := map[string]any{"type": rf.Type}
		if rf.JSONSchema != nil {
			if rf.JSONSchema.Name != "" {
				out["name"] = rf.JSONSchema.Name
			}
			if rf.JSONSchema.Strict != nil {
				out["strict"] = *rf.JSONSchema.Strict
			}
			if rf.JSONSchema.Schema != nil {
				out["schema"] = rf.JSONSchema.Schema
			}
		}
		return out
	}
	if tf := params.TextFormat; tf != nil && tf.Type != "" {
		return map[string]any{"type": tf.Type}
	}
	return nil
}
