package repository

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"health-intake-backend/models"
)

// CSVDatasetSource reads the disease/symptom dataset from a CSV file laid
// out as "Disease,Symptom_1,...,Symptom_N"; blank symptom cells are
// skipped. A header row whose first cell is "disease" is ignored.
type CSVDatasetSource struct {
	Path string
}

func (s CSVDatasetSource) LoadSymptomDataset(ctx context.Context) ([]models.DatasetRecord, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()
	return ParseDatasetCSV(f)
}

// ParseDatasetCSV parses dataset rows from r.
func ParseDatasetCSV(r io.Reader) ([]models.DatasetRecord, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var records []models.DatasetRecord
	line := 0
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("dataset line %d: %w", line, err)
		}
		if len(row) == 0 {
			continue
		}
		disease := strings.TrimSpace(row[0])
		if disease == "" || (line == 1 && strings.EqualFold(disease, "disease")) {
			continue
		}
		symptoms := make([]string, 0, len(row)-1)
		for _, cell := range row[1:] {
			if cell = strings.TrimSpace(cell); cell != "" {
				symptoms = append(symptoms, cell)
			}
		}
		if len(symptoms) == 0 {
			continue
		}
		records = append(records, models.DatasetRecord{Disease: disease, Symptoms: symptoms})
	}
	return records, nil
}
