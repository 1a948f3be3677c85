package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"health-intake-backend/models"
	"health-intake-backend/repository"

	"go.uber.org/zap"
)

// DatasetEntry is every recorded symptom combination for one disease.
type DatasetEntry struct {
	Disease      string
	Combinations [][]string
}

// DatasetIndex is the built cache. It is never mutated after Build.
type DatasetIndex struct {
	entries []DatasetEntry
}

// Entries returns the diseases in first-seen dataset order.
func (ix *DatasetIndex) Entries() []DatasetEntry {
	if ix == nil {
		return nil
	}
	return ix.entries
}

// BuildDatasetIndex normalizes records into an index. Symptoms shorter
// than three characters are dropped, as are repeated combinations.
func BuildDatasetIndex(records []models.DatasetRecord) *DatasetIndex {
	ix := &DatasetIndex{}
	position := make(map[string]int)
	seenCombo := make(map[string]bool)

	for _, r := range records {
		name := strings.TrimSpace(r.Disease)
		if name == "" {
			continue
		}
		combo := NormalizeSymptoms(r.Symptoms)
		if len(combo) == 0 {
			continue
		}
		key := strings.ToLower(name)
		sorted := append([]string(nil), combo...)
		sort.Strings(sorted)
		comboKey := key + "\x00" + strings.Join(sorted, "\x00")
		if seenCombo[comboKey] {
			continue
		}
		seenCombo[comboKey] = true

		i, ok := position[key]
		if !ok {
			i = len(ix.entries)
			position[key] = i
			ix.entries = append(ix.entries, DatasetEntry{Disease: name})
		}
		ix.entries[i].Combinations = append(ix.entries[i].Combinations, combo)
	}
	return ix
}

// NormalizeSymptoms lower-cases, turns underscores into spaces and keeps
// unique symptoms longer than two characters.
func NormalizeSymptoms(symptoms []string) []string {
	out := make([]string, 0, len(symptoms))
	seen := make(map[string]bool)
	for _, s := range symptoms {
		s = strings.Join(strings.Fields(strings.ReplaceAll(strings.ToLower(s), "_", " ")), " ")
		if len(s) <= 2 || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

// DatasetCache builds the DatasetIndex from its source at most once. A
// failed load is not remembered, so the next caller retries.
type DatasetCache struct {
	source repository.DatasetSource
	logger *zap.Logger

	mu    sync.Mutex
	index atomic.Pointer[DatasetIndex]
	loads atomic.Int64
}

func NewDatasetCache(source repository.DatasetSource, logger *zap.Logger) *DatasetCache {
	return &DatasetCache{source: source, logger: logger}
}

// Get returns the index, building it on first use. Reads after the first
// build take no lock.
func (c *DatasetCache) Get(ctx context.Context) (*DatasetIndex, error) {
	if ix := c.index.Load(); ix != nil {
		return ix, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if ix := c.index.Load(); ix != nil {
		return ix, nil
	}

	c.loads.Add(1)
	records, err := c.source.LoadSymptomDataset(ctx)
	if err != nil {
		return nil, fmt.Errorf("load symptom dataset: %w", err)
	}
	ix := BuildDatasetIndex(records)
	c.index.Store(ix)
	c.logger.Info("Symptom dataset cached",
		zap.Int("records", len(records)), zap.Int("diseases", len(ix.entries)))
	return ix, nil
}

// Loads reports how many times the source has been read.
func (c *DatasetCache) Loads() int64 {
	return c.loads.Load()
}
