package config

import (
	"testing"
	"time"
)

func TestLoadDefaultsWithoutAIKey(t *testing.T) {
	t.Setenv("DB_TYPE", "memory")
	t.Setenv("AI_PROVIDER", "gemini")
	t.Setenv("AI_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "")

	if err := Load(); err != nil {
		t.Fatalf("load: %v", err)
	}
	c := Get()
	if c.LLMEnabled() {
		t.Fatalf("expected LLM to be disabled without a key")
	}
	if c.Port != "8080" {
		t.Fatalf("expected default port, got %q", c.Port)
	}
	if c.Session.IdleTimeout != 30*time.Minute {
		t.Fatalf("expected 30m idle timeout, got %s", c.Session.IdleTimeout)
	}
	if c.Booking.DefaultFee != 500 {
		t.Fatalf("expected default fee 500, got %v", c.Booking.DefaultFee)
	}
	if c.AI.Model != "gemini-1.5-flash" {
		t.Fatalf("unexpected default model %q", c.AI.Model)
	}
}

func TestLoadOpenAIFallsBackToProviderKey(t *testing.T) {
	t.Setenv("DB_TYPE", "memory")
	t.Setenv("AI_PROVIDER", "openai")
	t.Setenv("AI_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	if err := Load(); err != nil {
		t.Fatalf("load: %v", err)
	}
	c := Get()
	if !c.LLMEnabled() || c.AI.APIKey != "sk-test" {
		t.Fatalf("expected OPENAI_API_KEY to be used, got %q", c.AI.APIKey)
	}
	if c.AI.Model != "gpt-4o-mini" {
		t.Fatalf("unexpected default model %q", c.AI.Model)
	}
}

func TestLoadRejectsUnknownDatabase(t *testing.T) {
	t.Setenv("DB_TYPE", "cassandra")
	if err := Load(); err == nil {
		t.Fatalf("expected validation error for unknown database type")
	}
}

func TestLoadRejectsUnknownProvider(t *testing.T) {
	t.Setenv("DB_TYPE", "memory")
	t.Setenv("AI_PROVIDER", "llama")
	if err := Load(); err == nil {
		t.Fatalf("expected validation error for unknown provider")
	}
}

func TestGetEnvAsSliceTrimsEntries(t *testing.T) {
	t.Setenv("ALLOWED_ORIGINS", " http://a.test , ,http://b.test")
	got := getEnvAsSlice("ALLOWED_ORIGINS", nil)
	if len(got) != 2 || got[0] != "http://a.test" || got[1] != "http://b.test" {
		t.Fatalf("unexpected origins %v", got)
	}
}

func TestBuildDatabaseURI(t *testing.T) {
	c := &Config{Database: DatabaseConfig{
		Type: "postgresql", Host: "db", Port: "5432", Username: "u", Password: "p", Name: "intake",
	}}
	if got := c.BuildDatabaseURI(); got != "postgres://u:p@db:5432/intake?sslmode=disable" {
		t.Fatalf("unexpected uri %q", got)
	}
	c.Database = DatabaseConfig{Type: "mongodb", Host: "mongo", Port: "27017", Name: "intake"}
	if got := c.BuildDatabaseURI(); got != "mongodb://mongo:27017/intake" {
		t.Fatalf("unexpected uri %q", got)
	}
}

func TestLoadRequiresAppSecretForProductionWhatsApp(t *testing.T) {
	t.Setenv("DB_TYPE", "memory")
	t.Setenv("AI_PROVIDER", "gemini")
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("WHATSAPP_ACCESS_TOKEN", "token")
	t.Setenv("WHATSAPP_PHONE_NUMBER_ID", "phone")
	t.Setenv("WHATSAPP_VERIFY_TOKEN", "verify")
	t.Setenv("WHATSAPP_APP_SECRET", "")
	if err := Load(); err == nil {
		t.Fatalf("expected an error without WHATSAPP_APP_SECRET")
	}

	t.Setenv("WHATSAPP_APP_SECRET", "secret")
	if err := Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
}
