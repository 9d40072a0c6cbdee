package llmclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestAnthropicProvider_GenerateParsesResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-api-key") != "test-key" {
			t.Errorf("expected the api key header to be set, got %q", r.Header.Get("x-api-key"))
		}
		var body map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("failed to decode request body: %v", err)
		}
		if body["thinking"] == nil {
			t.Error("expected a thinking budget to be forwarded")
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"content":     []map[string]string{{"text": "RunAnalyze orders"}},
			"usage":       map[string]int{"input_tokens": 10, "output_tokens": 5},
			"model":       "claude-3-haiku-20240307",
			"stop_reason": "end_turn",
		})
	}))
	defer srv.Close()

	p := NewAnthropicProvider("test-key", srv.URL, "claude-3-haiku-20240307")
	resp, err := p.Generate(context.Background(), Request{Prompt: "speed this up", ExtendedReasoning: 8000})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Content != "RunAnalyze orders" {
		t.Fatalf("unexpected content: %q", resp.Content)
	}
	if resp.TokensUsed != 15 {
		t.Fatalf("expected combined token usage of 15, got %d", resp.TokensUsed)
	}
}

func TestAnthropicProvider_GenerateNonOKStatusIsAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error": "invalid api key"}`))
	}))
	defer srv.Close()

	p := NewAnthropicProvider("bad-key", srv.URL, "claude-3-haiku-20240307")
	_, err := p.Generate(context.Background(), Request{Prompt: "x"})
	if err == nil {
		t.Fatal("expected an error on a non-200 response")
	}
}

func TestAnthropicProvider_GenerateEmptyContentIsAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"content": []map[string]string{}})
	}))
	defer srv.Close()

	p := NewAnthropicProvider("k", srv.URL, "claude-3-haiku-20240307")
	_, err := p.Generate(context.Background(), Request{Prompt: "x"})
	if err == nil {
		t.Fatal("expected an error when content is empty")
	}
}

func TestAnthropicProvider_DefaultBaseURL(t *testing.T) {
	p := NewAnthropicProvider("k", "", "claude-3-haiku-20240307")
	if p.baseURL != "https://api.anthropic.com/v1" {
		t.Fatalf("expected the default base URL, got %q", p.baseURL)
	}
}

func TestAnthropicProvider_Info(t *testing.T) {
	p := NewAnthropicProvider("k", "", "claude-3-haiku-20240307")
	info := p.Info()
	if info.Type != "anthropic" || len(info.SupportedModels) == 0 {
		t.Fatalf("unexpected info: %+v", info)
	}
}
