package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"health-intake-backend/utils"

	"go.uber.org/zap"
)

// symptomPhrases is scanned in order; longer phrases come before the
// single words they contain.
var symptomPhrases = []string{
	"chest pain", "shortness of breath", "difficulty breathing", "abdominal pain",
	"stomach pain", "stomach ache", "back pain", "joint pain", "muscle pain", "body ache",
	"sore throat", "runny nose", "stuffy nose", "blurred vision", "loss of appetite",
	"weight loss", "high fever", "burning urination", "frequent urination",
	"skin rash", "yellow skin", "pain behind the eyes", "sensitivity to light",
	"feeling tired", "feeling dizzy", "feeling weak", "feeling nauseous", "have chills",
	"got chills",
	"headache", "fever", "cough", "nausea", "vomiting", "diarrhea", "constipation",
	"dizziness", "fatigue", "rash", "itching", "chills", "sweating", "weakness",
	"wheezing", "palpitations", "jaundice", "swelling", "sneezing", "congestion",
	"earache", "toothache", "insomnia", "anxiety", "bloating", "cramps", "dry skin",
}

var fillerPrefixes = []string{"have ", "got ", "feeling "}

var stopWords = map[string]bool{
	"the": true, "and": true, "for": true, "with": true, "have": true, "has": true,
	"had": true, "been": true, "are": true, "was": true, "were": true, "this": true,
	"that": true, "feel": true, "feeling": true, "very": true, "really": true,
	"from": true, "since": true, "days": true, "day": true, "weeks": true, "week": true,
	"some": true, "about": true, "also": true, "just": true, "what": true, "there": true,
	"can": true, "you": true, "your": true, "i'm": true, "i've": true, "not": true,
	"sick": true, "unwell": true, "ill": true, "symptom": true, "symptoms": true,
	"two": true, "three": true, "last": true, "lot": true, "bit": true, "little": true,
}

const (
	maxTokenizedSymptoms = 3
	symptomPrompt        = "You extract symptoms from patient messages. Reply with a comma-separated list of short, lower-case symptom names and nothing else. Reply with NONE if there are no symptoms."
)

// SymptomExtractor turns free text into normalized symptom tokens.
type SymptomExtractor struct {
	classifier *utils.IntentClassifier
	llm        completion
	logger     *zap.Logger
}

func NewSymptomExtractor(classifier *utils.IntentClassifier, llm TextCompleter, timeout time.Duration, logger *zap.Logger) *SymptomExtractor {
	return &SymptomExtractor{
		classifier: classifier,
		llm:        completion{llm: llm, timeout: timeout},
		logger:     logger,
	}
}

// Extract never fails. With no dictionary hit on a health-related message
// it asks the model, and then falls back to a plain tokenizer.
func (e *SymptomExtractor) Extract(ctx context.Context, message string) []string {
	if found := MatchSymptomPhrases(message); len(found) > 0 {
		return found
	}
	if !e.classifier.IsHealthRelated(message) {
		return nil
	}

	reply, err := e.llm.run(ctx, "symptoms", symptomPrompt, nil, message)
	if err == nil {
		if parsed := parseSymptomList(reply); len(parsed) > 0 {
			return parsed
		}
	} else if !errors.Is(err, ErrLLMUnavailable) {
		e.logger.Warn("symptom extraction fell back to tokenizer",
			zap.String("component", "symptom_extractor"), zap.Error(err))
	}
	return tokenizeSymptoms(message)
}

// MatchSymptomPhrases returns the dictionary phrases found in message, in
// dictionary order, filler stripped and deduplicated.
func MatchSymptomPhrases(message string) []string {
	lower := strings.ToLower(message)
	var out []string
	seen := make(map[string]bool)
	for _, phrase := range symptomPhrases {
		if !strings.Contains(lower, phrase) {
			continue
		}
		normalized := stripFiller(phrase)
		if !seen[normalized] {
			seen[normalized] = true
			out = append(out, normalized)
		}
	}
	return out
}

func stripFiller(phrase string) string {
	for _, prefix := range fillerPrefixes {
		phrase = strings.TrimPrefix(phrase, prefix)
	}
	return strings.TrimSpace(phrase)
}

func parseSymptomList(reply string) []string {
	if strings.EqualFold(strings.TrimSpace(reply), "none") {
		return nil
	}
	var out []string
	seen := make(map[string]bool)
	for _, item := range strings.FieldsFunc(reply, func(r rune) bool { return r == ',' || r == '\n' || r == ';' }) {
		item = strings.ToLower(strings.Trim(item, " \t*-.•\"'"))
		if item == "" || item == "none" || seen[item] {
			continue
		}
		seen[item] = true
		out = append(out, item)
	}
	return out
}

func tokenizeSymptoms(message string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, token := range utils.Tokenize(message) {
		if len(token) <= 2 || stopWords[token] || seen[token] {
			continue
		}
		seen[token] = true
		out = append(out, token)
		if len(out) == maxTokenizedSymptoms {
			break
		}
	}
	return out
}
