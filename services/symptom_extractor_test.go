package services

import (
	"context"
	"reflect"
	"testing"
	"time"

	"health-intake-backend/utils"

	"go.uber.org/zap"
)

func newExtractor(llm TextCompleter) *SymptomExtractor {
	return NewSymptomExtractor(utils.NewIntentClassifier(), llm, time.Second, zap.NewNop())
}

func TestExtractDictionaryPhrases(t *testing.T) {
	llm := &fakeCompleter{reply: "should not be used"}
	got := newExtractor(llm).Extract(context.Background(), "I have fever and headache for two days")
	want := []string{"headache", "fever"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Extract = %v, want %v", got, want)
	}
	if llm.calls() != 0 {
		t.Fatalf("dictionary hit must not reach the model")
	}
}

func TestExtractStripsFiller(t *testing.T) {
	got := MatchSymptomPhrases("Feeling tired since the weekend")
	if !reflect.DeepEqual(got, []string{"tired"}) {
		t.Fatalf("MatchSymptomPhrases = %v", got)
	}
}

func TestExtractIgnoresNonHealthText(t *testing.T) {
	llm := &fakeCompleter{reply: "fever"}
	if got := newExtractor(llm).Extract(context.Background(), "what time do you open tomorrow"); got != nil {
		t.Fatalf("expected no symptoms, got %v", got)
	}
	if llm.calls() != 0 {
		t.Fatalf("non-health text must not reach the model")
	}
}

func TestExtractUsesModelList(t *testing.T) {
	llm := &fakeCompleter{reply: "Knee pain, swelling\n- Stiffness."}
	got := newExtractor(llm).Extract(context.Background(), "my knee hurt badly")
	want := []string{"knee pain", "swelling", "stiffness"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Extract = %v, want %v", got, want)
	}
}

func TestExtractFallsBackToTokenizer(t *testing.T) {
	cases := map[string]TextCompleter{
		"no model":    nil,
		"model error": &fakeCompleter{err: errBackend},
		"model none":  &fakeCompleter{reply: "NONE"},
	}
	for name, llm := range cases {
		t.Run(name, func(t *testing.T) {
			got := newExtractor(llm).Extract(context.Background(), "my knee hurt badly since monday")
			want := []string{"knee", "hurt", "badly"}
			if !reflect.DeepEqual(got, want) {
				t.Fatalf("Extract = %v, want %v", got, want)
			}
		})
	}
}
