package utils

import (
	"strings"
	"unicode"
)

type Intent string

const (
	IntentGreeting    Intent = "greeting"
	IntentHealth      Intent = "health"
	IntentAffirmative Intent = "affirmative"
	IntentNegative    Intent = "negative"
	IntentLocation    Intent = "location"
	IntentUnknown     Intent = "unknown"
)

// Confirmation is the reading of a reply to "shall I book?".
type Confirmation int

const (
	ConfirmNone Confirmation = iota
	ConfirmYes
	ConfirmNo
)

// locationCatchAllLength is the length under which any message counts as a
// location reply.
const locationCatchAllLength = 50

type IntentClassifier struct {
	// whole-word keywords
	words map[Intent][]string
	// substring keywords
	phrases map[Intent][]string
	// word-prefix keywords
	prefixes map[Intent][]string
}

func NewIntentClassifier() *IntentClassifier {
	return &IntentClassifier{
		words: map[Intent][]string{
			IntentGreeting:    {"hi", "hello", "hey", "greetings", "whatsapp"},
			IntentHealth:      {"ill"},
			IntentAffirmative: {"yes", "yeah", "yep"},
			IntentNegative:    {"no", "not", "nope"},
		},
		phrases: map[Intent][]string{
			IntentGreeting: {"what's up", "whats up"},
			IntentHealth: {
				"sick", "unwell", "ache", "pain", "fever", "hurt",
				"cough", "symptom", "feeling",
			},
			IntentLocation: {
				"i live in", "i'm from", "i am from", "located", "address",
				"area", "city",
			},
		},
		prefixes: map[Intent][]string{
			IntentAffirmative: {"book", "appointment"},
			IntentNegative:    {"decline"},
		},
	}
}

// IsGreeting reports whether the message carries a greeting keyword.
func (ic *IntentClassifier) IsGreeting(message string) bool {
	return ic.matches(IntentGreeting, message)
}

// IsHealthRelated reports whether the message uses distress language.
func (ic *IntentClassifier) IsHealthRelated(message string) bool {
	return ic.matches(IntentHealth, message)
}

// ClassifyConfirmation reads a booking reply. Negative wins when both
// readings are present ("I do not want to book").
func (ic *IntentClassifier) ClassifyConfirmation(message string) Confirmation {
	if ic.matches(IntentNegative, message) {
		return ConfirmNo
	}
	if ic.matches(IntentAffirmative, message) {
		return ConfirmYes
	}
	return ConfirmNone
}

// LooksLikeLocation reports whether the message could be a reply to
// "where are you located?". Anything shorter than 50 characters qualifies.
func (ic *IntentClassifier) LooksLikeLocation(message string) bool {
	lower := strings.ToLower(strings.TrimSpace(message))
	if lower == "" {
		return false
	}
	if ic.matches(IntentLocation, lower) || mentionsKnownPlace(lower) {
		return true
	}
	return len([]rune(lower)) < locationCatchAllLength
}

// ClassifyIntent returns the strongest single reading of a message.
func (ic *IntentClassifier) ClassifyIntent(message string) Intent {
	switch {
	case ic.IsGreeting(message):
		return IntentGreeting
	case ic.IsHealthRelated(message):
		return IntentHealth
	}
	switch ic.ClassifyConfirmation(message) {
	case ConfirmYes:
		return IntentAffirmative
	case ConfirmNo:
		return IntentNegative
	}
	if ic.matches(IntentLocation, message) || mentionsKnownPlace(strings.ToLower(message)) {
		return IntentLocation
	}
	return IntentUnknown
}

func (ic *IntentClassifier) matches(intent Intent, message string) bool {
	lower := strings.ToLower(message)
	if containsAnyKeyword(lower, ic.phrases[intent]) {
		return true
	}
	tokens := Tokenize(lower)
	for _, tok := range tokens {
		for _, w := range ic.words[intent] {
			if tok == w {
				return true
			}
		}
		for _, p := range ic.prefixes[intent] {
			if strings.HasPrefix(tok, p) {
				return true
			}
		}
	}
	return false
}

func containsAnyKeyword(message string, keywords []string) bool {
	for _, keyword := range keywords {
		if strings.Contains(message, keyword) {
			return true
		}
	}
	return false
}

// Tokenize lower-cases s and splits it on anything that is not a letter,
// digit or apostrophe.
func Tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
}
