package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"health-intake-backend/config"
	"health-intake-backend/models"

	"go.uber.org/zap"
)

func TestNewTextCompleter(t *testing.T) {
	if c := NewTextCompleter(config.AIConfig{}, zap.NewNop()); c != nil {
		t.Fatalf("no key should disable the model, got %T", c)
	}
	if _, ok := NewTextCompleter(config.AIConfig{APIKey: "k", Provider: "openai"}, zap.NewNop()).(*OpenAIService); !ok {
		t.Fatalf("expected the OpenAI provider")
	}
	if _, ok := NewTextCompleter(config.AIConfig{APIKey: "k", Provider: "gemini"}, zap.NewNop()).(*GeminiService); !ok {
		t.Fatalf("expected the Gemini provider")
	}
}

func TestCompletionWithoutModel(t *testing.T) {
	_, err := completion{}.run(context.Background(), "test", "", nil, "hi")
	if !errors.Is(err, ErrLLMUnavailable) {
		t.Fatalf("expected ErrLLMUnavailable, got %v", err)
	}
}

func TestGeminiComplete(t *testing.T) {
	var got geminiRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/models/gemini-test:generateContent" || r.URL.Query().Get("key") != "k" {
			http.NotFound(w, r)
			return
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"Please rest."}]}}]}`))
	}))
	defer srv.Close()

	g := NewGeminiService(config.AIConfig{APIKey: "k", Model: "gemini-test", BaseURL: srv.URL, MaxTokens: 100, Timeout: time.Second})
	history := []models.ChatTurn{
		{Role: models.RoleUser, Content: "hello"},
		{Role: models.RoleAssistant, Content: "hi there"},
	}
	reply, err := g.Complete(context.Background(), "be kind", history, "I have a cold")
	if err != nil || reply != "Please rest." {
		t.Fatalf("Complete = %q, %v", reply, err)
	}
	if got.SystemInstruction == nil || got.SystemInstruction.Parts[0].Text != "be kind" {
		t.Fatalf("system prompt not sent: %+v", got.SystemInstruction)
	}
	if len(got.Contents) != 3 || got.Contents[1].Role != "model" || got.Contents[2].Parts[0].Text != "I have a cold" {
		t.Fatalf("unexpected contents %+v", got.Contents)
	}
	if got.GenerationConfig.MaxOutputTokens != 100 {
		t.Fatalf("max tokens = %d", got.GenerationConfig.MaxOutputTokens)
	}
}

func TestGeminiErrors(t *testing.T) {
	cases := map[string]http.HandlerFunc{
		"status": func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "quota", http.StatusTooManyRequests)
		},
		"empty": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"candidates":[]}`))
		},
	}
	for name, h := range cases {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(h)
			defer srv.Close()
			g := NewGeminiService(config.AIConfig{APIKey: "k", Model: "m", BaseURL: srv.URL, Timeout: time.Second})
			if _, err := g.Complete(context.Background(), "", nil, "hi"); err == nil {
				t.Fatalf("expected an error")
			}
		})
	}
}

func TestOpenAIComplete(t *testing.T) {
	var body struct {
		Model    string `json:"model"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") || r.Header.Get("Authorization") != "Bearer k" {
			http.NotFound(w, r)
			return
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"Drink water."},"finish_reason":"stop"}]}`))
	}))
	defer srv.Close()

	o := NewOpenAIService(config.AIConfig{APIKey: "k", Model: "gpt-test", BaseURL: srv.URL + "/v1", MaxTokens: 50})
	reply, err := o.Complete(context.Background(), "be brief", []models.ChatTurn{{Role: models.RoleAssistant, Content: "hello"}}, "thirsty")
	if err != nil || reply != "Drink water." {
		t.Fatalf("Complete = %q, %v", reply, err)
	}
	if body.Model != "gpt-test" || len(body.Messages) != 3 || body.Messages[0].Role != "system" || body.Messages[1].Role != "assistant" {
		t.Fatalf("unexpected request %+v", body)
	}
}
