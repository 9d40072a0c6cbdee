package llmclient

import "fmt"

// ProviderType constants, narrowed from the teacher's six-provider factory
// (services/ai/provider_factory.go) to the two backends this module wires.
const (
	ProviderTypeAnthropic = "anthropic"
	ProviderTypeOpenAI    = "openai"
)

// Config configures a provider build (API key, base URL override, model).
type Config struct {
	Type    string
	APIKey  string
	BaseURL string
	Model   string
}

// Factory builds a Provider from Config, mirroring the teacher's
// ProviderFactory.CreateProvider switch.
type Factory struct{}

func NewFactory() *Factory { return &Factory{} }

func (f *Factory) Create(cfg Config) (Provider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("llmclient: API key is required")
	}

	switch cfg.Type {
	case ProviderTypeAnthropic:
		return NewAnthropicProvider(cfg.APIKey, cfg.BaseURL, cfg.Model), nil
	case ProviderTypeOpenAI:
		return NewOpenAIProvider(cfg.APIKey, cfg.BaseURL, cfg.Model), nil
	default:
		return nil, fmt.Errorf("llmclient: unsupported provider type: %s", cfg.Type)
	}
}

func (f *Factory) SupportedProviders() []string {
	return []string{ProviderTypeAnthropic, ProviderTypeOpenAI}
}
