package llmclient

import "testing"

func TestFactory_Create_MissingAPIKeyIsAnError(t *testing.T) {
	f := NewFactory()
	_, err := f.Create(Config{Type: ProviderTypeAnthropic})
	if err == nil {
		t.Fatal("expected an error when API key is empty")
	}
}

func TestFactory_Create_UnsupportedTypeIsAnError(t *testing.T) {
	f := NewFactory()
	_, err := f.Create(Config{Type: "cohere", APIKey: "k"})
	if err == nil {
		t.Fatal("expected an error for an unsupported provider type")
	}
}

func TestFactory_Create_Anthropic(t *testing.T) {
	f := NewFactory()
	p, err := f.Create(Config{Type: ProviderTypeAnthropic, APIKey: "k", Model: "claude-3-haiku-20240307"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Info().Type != "anthropic" {
		t.Fatalf("expected an anthropic provider, got %+v", p.Info())
	}
}

func TestFactory_Create_OpenAI(t *testing.T) {
	f := NewFactory()
	p, err := f.Create(Config{Type: ProviderTypeOpenAI, APIKey: "k", Model: "gpt-4o-mini"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Info().Type != "openai" {
		t.Fatalf("expected an openai provider, got %+v", p.Info())
	}
}

func TestFactory_SupportedProviders(t *testing.T) {
	f := NewFactory()
	got := f.SupportedProviders()
	if len(got) != 2 || got[0] != ProviderTypeAnthropic || got[1] != ProviderTypeOpenAI {
		t.Fatalf("unexpected supported providers: %v", got)
	}
}
