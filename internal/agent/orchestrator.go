// Package agent runs the two-round calculation protocol: the model plans a
// tool call, the operation runs locally, and the model narrates the result.
package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/calcagent/calcagent/internal/llm"
	"github.com/calcagent/calcagent/internal/models"
	"github.com/calcagent/calcagent/internal/security"
	"github.com/calcagent/calcagent/internal/tools"
	"github.com/rs/zerolog/log"
)

const (
	DefaultRoundTimeout = 30 * time.Second

	DefaultSystemPrompt = "You are a helpful calculator assistant. " +
		"When the user asks an arithmetic question, call exactly one of the provided tools " +
		"(add, subtract, multiply, divide) with numeric arguments a and b. " +
		"For subtraction, a is the number being subtracted from. " +
		"After you receive the tool result, state the answer in one short sentence. " +
		"If the question is not about arithmetic, answer briefly without calling a tool."

	// NoAnswerFallback is returned when the model answers directly with no text
	NoAnswerFallback = "I'm sorry, I couldn't work out an answer to that."

	skippedToolResult = "Skipped: only one operation is executed per request."
)

// Options tunes an Orchestrator. Zero values select the defaults.
type Options struct {
	SystemPrompt string
	RoundTimeout time.Duration
	Validator    *security.PromptValidator
}

// Orchestrator executes one calculation per Handle call. It holds no
// per-request state and is safe for concurrent use.
type Orchestrator struct {
	client       llm.Client
	catalog      *tools.Catalog
	toolDefs     []llm.ToolDefinition
	systemPrompt string
	roundTimeout time.Duration
	validator    *security.PromptValidator
}

// NewOrchestrator wires a model client to a catalog. A nil client makes every
// request fail with ErrMisconfigured before any network call.
func NewOrchestrator(client llm.Client, catalog *tools.Catalog, opts Options) *Orchestrator {
	if catalog == nil {
		catalog = tools.Default()
	}
	if opts.SystemPrompt == "" {
		opts.SystemPrompt = DefaultSystemPrompt
	}
	if opts.RoundTimeout <= 0 {
		opts.RoundTimeout = DefaultRoundTimeout
	}
	return &Orchestrator{
		client:       client,
		catalog:      catalog,
		toolDefs:     ToolDefinitions(catalog),
		systemPrompt: opts.SystemPrompt,
		roundTimeout: opts.RoundTimeout,
		validator:    opts.Validator,
	}
}

// ToolDefinitions declares the catalog's operations to the model
func ToolDefinitions(catalog *tools.Catalog) []llm.ToolDefinition {
	ops := catalog.List()
	defs := make([]llm.ToolDefinition, len(ops))
	for i, op := range ops {
		defs[i] = llm.ToolDefinition{
			Name:        op.Name,
			Description: op.Description,
			Parameters:  op.InputSchema(),
		}
	}
	return defs
}

// Handle runs the full protocol for one message. The reply is never nil: on
// failure it carries only the error text, and the returned error (one of the
// taxonomy sentinels, wrapped) tells the caller which status to use.
func (o *Orchestrator) Handle(ctx context.Context, message string) (*models.CalculationReply, error) {
	start := time.Now()
	reply, err := o.calculate(ctx, message)
	elapsed := time.Since(start)

	if err != nil {
		log.Warn().
			Err(err).
			Int("status", StatusCode(err)).
			Dur("duration", elapsed).
			Msg("calculation failed")
		// Any computed result is discarded; failures never report partial success.
		return &models.CalculationReply{Error: ErrorMessage(err)}, err
	}

	evt := log.Info().Dur("duration", elapsed)
	if reply.ToolUsed != nil {
		evt = evt.Str("tool", *reply.ToolUsed).Str("result", reply.Result.String())
	}
	evt.Msg("calculation completed")
	return reply, nil
}

func (o *Orchestrator) calculate(ctx context.Context, message string) (*models.CalculationReply, error) {
	if strings.TrimSpace(message) == "" {
		return nil, fmt.Errorf("%w: message is required", ErrInvalidInput)
	}
	if o.validator != nil {
		if res := o.validator.Validate(message); !res.Valid {
			return nil, fmt.Errorf("%w: %s", ErrInvalidInput, res.Message)
		}
	}
	if o.client == nil {
		return nil, ErrMisconfigured
	}

	conversation := []llm.Message{
		llm.NewSystemMessage(o.systemPrompt),
		llm.NewUserMessage(message),
	}

	// Round 1: let the model choose an operation.
	first, err := o.round(ctx, 1, &llm.ChatRequest{
		Messages:   conversation,
		Tools:      o.toolDefs,
		ToolChoice: llm.ToolChoiceAuto,
	})
	if err != nil {
		return nil, err
	}

	assistant := first.Message
	if len(assistant.ToolCalls) == 0 {
		answer := assistant.Content
		if strings.TrimSpace(answer) == "" {
			answer = NoAnswerFallback
		}
		return &models.CalculationReply{FinalAnswer: answer}, nil
	}

	// Only the first invocation is executed.
	call := assistant.ToolCalls[0]
	if len(assistant.ToolCalls) > 1 {
		log.Debug().
			Int("tool_calls", len(assistant.ToolCalls)).
			Str("tool", call.Name).
			Msg("ignoring additional tool calls")
	}

	args, err := tools.ParseArguments(call.Arguments)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrMalformedToolCall, call.Name, err)
	}

	outcome, err := o.catalog.Execute(call.Name, args.A, args.B)
	if err != nil {
		if errors.Is(err, tools.ErrUnknownTool) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownTool, call.Name)
		}
		return nil, err
	}

	log.Debug().
		Str("tool", call.Name).
		Float64("a", args.A).
		Float64("b", args.B).
		Str("result", outcome.String()).
		Msg("tool executed")

	// Round 2: thread the assistant message back unmodified, followed by the
	// result correlated to its call ID.
	conversation = append(conversation, assistant, llm.NewToolResultMessage(call.ID, outcome.String()))
	for _, extra := range assistant.ToolCalls[1:] {
		conversation = append(conversation, llm.NewToolResultMessage(extra.ID, skippedToolResult))
	}

	second, err := o.round(ctx, 2, &llm.ChatRequest{Messages: conversation})
	if err != nil {
		return nil, err
	}

	answer := second.Message.Content
	if strings.TrimSpace(answer) == "" {
		answer = "The result is " + outcome.String()
	}

	toolUsed := call.Name
	return &models.CalculationReply{
		ToolUsed:    &toolUsed,
		Arguments:   &args,
		Result:      &outcome,
		FinalAnswer: answer,
	}, nil
}

// round performs one bounded request to the model endpoint
func (o *Orchestrator) round(ctx context.Context, n int, req *llm.ChatRequest) (*llm.ChatResponse, error) {
	rctx, cancel := context.WithTimeout(ctx, o.roundTimeout)
	defer cancel()

	resp, err := o.client.Chat(rctx, req)
	if err != nil {
		return nil, classifyUpstream(n, err)
	}
	return resp, nil
}
