// Package llmclient is the black-box LLM boundary (spec.md §9 "LLM as
// black box"): text-in, JSON-out, no streaming or tool-use handshake.
// internal/planner is the only caller. Grounded on the teacher's
// services/ai package (AIProvider interface, ProviderFactory,
// AnthropicProvider), narrowed to the two concrete backends needed to
// exercise the factory pattern.
package llmclient

import "context"

// Provider is the narrowed AIProvider contract: one blocking call that
// takes a fully-built prompt and an extended-reasoning budget, returns raw
// text. Parsing that text into an Action is internal/planner's job, not
// the provider's (spec.md §9 "any LLM implementation that honours the
// response schema satisfies the contract").
type Provider interface {
	Generate(ctx context.Context, req Request) (*Response, error)
	Info() Info
}

// Request mirrors the teacher's GenerateRequest, adding the opaque
// "deep-thinking budget" token count (spec.md §4.3).
type Request struct {
	Prompt            string
	Temperature       float64
	MaxTokens         int
	ExtendedReasoning int // opaque budget; default 8000, orthogonal to correctness
}

// Response mirrors the teacher's GenerateResponse.
type Response struct {
	Content      string
	TokensUsed   int
	Model        string
	FinishReason string
}

// Info mirrors the teacher's ProviderInfo.
type Info struct {
	Name            string
	Type            string
	SupportedModels []string
}
