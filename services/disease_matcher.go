package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"health-intake-backend/models"
	"health-intake-backend/repository"
	"health-intake-backend/utils"

	"go.uber.org/zap"
)

type MatchStrategy string

const (
	StrategyName    MatchStrategy = "name"
	StrategyDataset MatchStrategy = "dataset"
	StrategyLLM     MatchStrategy = "llm"
)

const (
	minNameWordLength     = 4
	maxPromptDiseaseNames = 50
	maxInferredNameLength = 50
	moreContextSymptoms   = 2
	moreContextLength     = 30
)

// MatchResult is the matcher outcome. Disease is nil when nothing matched;
// NeedsMoreContext then tells whether the user gave enough to move on.
type MatchResult struct {
	Disease          *models.Disease
	Strategy         MatchStrategy
	NeedsMoreContext bool
}

func (r MatchResult) Found() bool { return r.Disease != nil }

// DiseaseMatcher tries name match, dataset scoring and model inference in
// that order.
type DiseaseMatcher struct {
	catalog      repository.DiseaseCatalog
	cache        *DatasetCache
	classifier   *utils.IntentClassifier
	llm          completion
	storeTimeout time.Duration
	logger       *zap.Logger
}

func NewDiseaseMatcher(catalog repository.DiseaseCatalog, cache *DatasetCache, classifier *utils.IntentClassifier,
	llm TextCompleter, aiTimeout, storeTimeout time.Duration, logger *zap.Logger) *DiseaseMatcher {
	return &DiseaseMatcher{
		catalog:      catalog,
		cache:        cache,
		classifier:   classifier,
		llm:          completion{llm: llm, timeout: aiTimeout},
		storeTimeout: storeTimeout,
		logger:       logger,
	}
}

func (m *DiseaseMatcher) Match(ctx context.Context, message string, symptoms []string) MatchResult {
	diseases := m.loadCatalog(ctx)

	if d := MatchByName(message, diseases); d != nil {
		return m.found(d, StrategyName)
	}

	if ix := m.loadDataset(ctx); ix != nil {
		if name, _ := ScoreDataset(symptoms, ix); name != "" {
			d := resolveDisease(name, diseases)
			return m.found(d, StrategyDataset)
		}
	}

	if m.classifier.IsHealthRelated(message) {
		if d := m.infer(ctx, message, symptoms, diseases); d != nil {
			return m.found(d, StrategyLLM)
		}
	}

	if len(symptoms) >= moreContextSymptoms || utf8.RuneCountInString(strings.TrimSpace(message)) > moreContextLength {
		diseaseMatchesTotal.WithLabelValues("needs_more_context").Inc()
		return MatchResult{NeedsMoreContext: true}
	}
	diseaseMatchesTotal.WithLabelValues("none").Inc()
	return MatchResult{}
}

func (m *DiseaseMatcher) found(d *models.Disease, strategy MatchStrategy) MatchResult {
	diseaseMatchesTotal.WithLabelValues(string(strategy)).Inc()
	return MatchResult{Disease: d, Strategy: strategy}
}

func (m *DiseaseMatcher) loadCatalog(ctx context.Context) []models.Disease {
	ctx, cancel := bounded(ctx, m.storeTimeout)
	defer cancel()
	diseases, err := m.catalog.ListDiseases(ctx)
	if err != nil {
		m.logger.Warn("disease catalog unavailable", zap.String("component", "disease_matcher"), zap.Error(err))
		return nil
	}
	return diseases
}

func (m *DiseaseMatcher) loadDataset(ctx context.Context) *DatasetIndex {
	if m.cache == nil {
		return nil
	}
	ctx, cancel := bounded(ctx, m.storeTimeout)
	defer cancel()
	ix, err := m.cache.Get(ctx)
	if err != nil {
		m.logger.Warn("symptom dataset unavailable", zap.String("component", "disease_matcher"), zap.Error(err))
		return nil
	}
	return ix
}

// MatchByName finds a catalog disease named in message. Whole names match
// as substrings in either direction; otherwise a message word of four or
// more letters must equal the name or its first word.
func MatchByName(message string, diseases []models.Disease) *models.Disease {
	lower := strings.ToLower(strings.TrimSpace(message))
	if lower == "" {
		return nil
	}
	for i := range diseases {
		name := strings.ToLower(strings.TrimSpace(diseases[i].Name))
		if name == "" {
			continue
		}
		if strings.Contains(lower, name) || (len(lower) > 3 && strings.Contains(name, lower)) {
			return &diseases[i]
		}
	}

	words := utils.Tokenize(message)
	for i := range diseases {
		nameWords := utils.Tokenize(diseases[i].Name)
		if len(nameWords) == 0 {
			continue
		}
		full := strings.Join(nameWords, " ")
		for _, w := range words {
			if len(w) < minNameWordLength {
				continue
			}
			if w == full || w == nameWords[0] {
				return &diseases[i]
			}
		}
	}
	return nil
}

// ScoreDataset returns the best scoring disease name and its score, or ""
// when no combination matches any symptom. The first strict maximum wins.
func ScoreDataset(symptoms []string, ix *DatasetIndex) (string, int) {
	user := NormalizeSymptoms(symptoms)
	if len(user) == 0 {
		return "", 0
	}
	bestName, bestScore := "", 0
	for _, entry := range ix.Entries() {
		score := 0
		for _, combo := range entry.Combinations {
			if s := scoreCombination(user, combo); s > score {
				score = s
			}
		}
		if score > bestScore {
			bestName, bestScore = entry.Disease, score
		}
	}
	return bestName, bestScore
}

// scoreCombination counts each user symptom once if it partially matches
// any symptom of combo, plus a bonus of twice that count.
func scoreCombination(user, combo []string) int {
	matched := 0
	for _, u := range user {
		for _, c := range combo {
			if symptomsOverlap(u, c) {
				matched++
				break
			}
		}
	}
	return matched + 2*matched
}

func symptomsOverlap(a, b string) bool {
	if strings.Contains(a, b) || strings.Contains(b, a) {
		return true
	}
	for _, wa := range strings.Fields(a) {
		for _, wb := range strings.Fields(b) {
			if wa == wb {
				return true
			}
		}
	}
	return false
}

// resolveDisease prefers the catalog entry of the same name so the
// description and specialist come along.
func resolveDisease(name string, diseases []models.Disease) *models.Disease {
	for i := range diseases {
		if strings.EqualFold(strings.TrimSpace(diseases[i].Name), name) {
			return &diseases[i]
		}
	}
	return &models.Disease{Name: name}
}

func approximateDisease(name string, diseases []models.Disease) *models.Disease {
	lower := strings.ToLower(name)
	for i := range diseases {
		candidate := strings.ToLower(strings.TrimSpace(diseases[i].Name))
		if candidate == "" {
			continue
		}
		if strings.Contains(candidate, lower) || strings.Contains(lower, candidate) {
			return &diseases[i]
		}
	}
	return nil
}

const inferencePrompt = "You are a cautious medical intake assistant. Suggest the single most likely condition for the patient's message. " +
	"Start your reply with the condition name in bold, like **Condition Name**, followed by one or two sentences of explanation. " +
	"Never claim certainty."

func (m *DiseaseMatcher) infer(ctx context.Context, message string, symptoms []string, diseases []models.Disease) *models.Disease {
	var prompt strings.Builder
	fmt.Fprintf(&prompt, "Patient message: %s\n", message)
	if len(symptoms) > 0 {
		fmt.Fprintf(&prompt, "Extracted symptoms: %s\n", strings.Join(symptoms, ", "))
	}
	if len(diseases) > 0 {
		names := make([]string, 0, maxPromptDiseaseNames)
		for _, d := range diseases {
			if len(names) == maxPromptDiseaseNames {
				break
			}
			names = append(names, d.Name)
		}
		fmt.Fprintf(&prompt, "Known conditions: %s\n", strings.Join(names, ", "))
	}

	reply, err := m.llm.run(ctx, "disease", inferencePrompt, nil, prompt.String())
	if err != nil {
		if !errors.Is(err, ErrLLMUnavailable) {
			m.logger.Warn("disease inference failed", zap.String("component", "disease_matcher"), zap.Error(err))
		}
		return nil
	}

	name := ParseInferredDisease(reply)
	if name == "" {
		return nil
	}
	if d := approximateDisease(name, diseases); d != nil {
		return d
	}
	return &models.Disease{Name: name, Description: reply}
}

var inferencePrefixes = []string{
	"based on your symptoms,", "based on the symptoms,", "based on",
	"this could be", "this might be", "it could be", "it might be",
	"you may have", "possibly", "likely", "condition:", "disease:",
}

// cutPrefixFold is strings.CutPrefix under Unicode case folding. It walks
// runes so the cut lands where the prefix ends in s, whatever the byte
// widths of the folded forms.
func cutPrefixFold(s, prefix string) (string, bool) {
	rest := s
	for _, want := range prefix {
		got, size := utf8.DecodeRuneInString(rest)
		if size == 0 || !strings.EqualFold(string(got), string(want)) {
			return s, false
		}
		rest = rest[size:]
	}
	return rest, true
}

// ParseInferredDisease pulls the condition name from the first line of a
// model reply: the bold span if there is one, otherwise the line with
// known lead-ins removed, cut at the first sentence end or 50 characters.
func ParseInferredDisease(reply string) string {
	line := ""
	for _, l := range strings.Split(reply, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			line = l
			break
		}
	}
	if line == "" {
		return ""
	}

	if start := strings.Index(line, "**"); start >= 0 {
		if end := strings.Index(line[start+2:], "**"); end > 0 {
			line = line[start+2 : start+2+end]
		}
	}

	for {
		stripped := false
		for _, prefix := range inferencePrefixes {
			if rest, ok := cutPrefixFold(line, prefix); ok {
				line = strings.TrimSpace(rest)
				stripped = true
				break
			}
		}
		if !stripped {
			break
		}
	}
	line = strings.Trim(strings.ReplaceAll(line, "**", ""), " *#:\"'")

	if i := strings.IndexAny(line, ".!?"); i >= 0 {
		line = line[:i]
	}
	if utf8.RuneCountInString(line) > maxInferredNameLength {
		line = string([]rune(line)[:maxInferredNameLength])
	}
	return strings.TrimSpace(line)
}
