package planner

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/sqlens-agent/pgoptimizer/internal/domain"
	"github.com/sqlens-agent/pgoptimizer/internal/llmclient"
)

// Planner calls the LLM boundary with a throttled, rate-limited round
// trip and parses its response into an Action. One Planner instance is
// shared per worker, mirroring the teacher's per-worker
// MemoryRateLimiter usage (middleware/ratelimit/limiter.go).
type Planner struct {
	provider           llmclient.Provider
	limiter            *rate.Limiter
	deepThinkingBudget int
}

func New(provider llmclient.Provider, ratePerSecond float64, burst int, deepThinkingBudget int) *Planner {
	return &Planner{
		provider:           provider,
		limiter:            rate.NewLimiter(rate.Limit(ratePerSecond), burst),
		deepThinkingBudget: deepThinkingBudget,
	}
}

// Plan builds the prompt, waits on the rate limiter, calls the provider,
// and parses the response. It never returns a Go error for an LLM-side
// failure — those become Action{Kind: Failed} per spec.md §7's
// "Planner parse failure" taxonomy entry; a non-nil error here means the
// caller's context was cancelled.
func (p *Planner) Plan(ctx context.Context, in Input) (domain.Action, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return domain.Action{}, fmt.Errorf("planner: rate limiter: %w", err)
	}

	prompt := buildPrompt(in)
	resp, err := p.provider.Generate(ctx, llmclient.Request{
		Prompt:            prompt,
		MaxTokens:         1024,
		ExtendedReasoning: p.deepThinkingBudget,
	})
	if err != nil {
		return domain.Action{Kind: domain.ActionFailed, Reason: "planning error: " + err.Error()}, nil
	}

	return parseResponse(resp.Content), nil
}
